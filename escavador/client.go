package escavador

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"
)

// ErrNoData signals that no candidate endpoint produced usable lawsuit
// records. Callers fall back to simulated data rather than failing the
// request.
var ErrNoData = errors.New("escavador: no usable data from any endpoint")

// Client talks to the Escavador legal-records API. The upstream endpoint
// layout changed across its revisions, so lawsuit lookups brute-force an
// ordered candidate list and short-circuit on the first usable response.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient creates a reusable HTTP client against the given base URL.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

type endpoint struct {
	method string
	path   string
	body   map[string]any
}

// FetchLawsuits queries the candidate lawsuit endpoints one at a time and
// returns the first non-empty resolved outcome. A count-only outcome is kept
// aside and returned only when no endpoint yields record detail.
func (c *Client) FetchLawsuits(ctx context.Context, taxID string) (Outcome, error) {
	endpoints := []endpoint{
		{method: http.MethodPost, path: "/api/v1/lawsuits/search", body: map[string]any{"cnpj": taxID, "page": 1, "per_page": 100}},
		{method: http.MethodGet, path: fmt.Sprintf("/api/v1/lawsuits?cnpj=%s&page=1&per_page=100", taxID)},
		{method: http.MethodPost, path: "/api/v2/processos/buscar", body: map[string]any{"cnpj": taxID}},
		{method: http.MethodGet, path: fmt.Sprintf("/api/v1/search/lawsuits?q=%s&type=cnpj", taxID)},
	}

	var countOnly *Outcome
	for _, ep := range endpoints {
		var payload any
		if err := c.do(ctx, ep, &payload); err != nil {
			log.Printf("escavador: %s %s: %v", ep.method, ep.path, err)
			continue
		}

		outcome := Resolve(payload)
		if len(outcome.Records) > 0 {
			return outcome, nil
		}
		if outcome.CountOnly && countOnly == nil {
			o := outcome
			countOnly = &o
		}
	}

	if countOnly != nil {
		return *countOnly, nil
	}
	return Outcome{}, ErrNoData
}

// FetchStatisticsSource pulls the per-company process list used by the
// statistics view. Unlike FetchLawsuits it hits a single endpoint.
func (c *Client) FetchStatisticsSource(ctx context.Context, taxID string) (Outcome, error) {
	ep := endpoint{method: http.MethodGet, path: "/api/v1/pessoas/juridica/" + taxID + "/processos"}

	var payload any
	if err := c.do(ctx, ep, &payload); err != nil {
		return Outcome{}, err
	}

	outcome := Resolve(payload)
	if len(outcome.Records) == 0 && !outcome.CountOnly {
		return Outcome{}, ErrNoData
	}
	return outcome, nil
}

type registryAddress struct {
	Street       string `json:"logradouro"`
	Number       string `json:"numero"`
	Neighborhood string `json:"bairro"`
	City         string `json:"cidade"`
	State        string `json:"uf"`
	PostalCode   string `json:"cep"`
}

type registryPayload struct {
	Data *struct {
		Name      string           `json:"nome"`
		LegalName string           `json:"razao_social"`
		Address   *registryAddress `json:"endereco"`
		Phone     string           `json:"telefone"`
		Email     string           `json:"email"`
	} `json:"dados"`
}

// CompanyProfile is the registry metadata for a tax id.
type CompanyProfile struct {
	Name      string
	LegalName string
	Address   string
	Phone     string
	Email     string
}

// FetchCompany looks the company up in the public registry. Callers treat
// failure as non-fatal and fall back to a placeholder name.
func (c *Client) FetchCompany(ctx context.Context, taxID string) (CompanyProfile, error) {
	ep := endpoint{method: http.MethodGet, path: "/api/v1/pessoas/juridica/" + taxID}

	httpClient := &http.Client{Timeout: 10 * time.Second}
	var payload registryPayload
	if err := c.doWith(ctx, httpClient, ep, &payload); err != nil {
		return CompanyProfile{}, err
	}
	if payload.Data == nil {
		return CompanyProfile{}, ErrNoData
	}

	profile := CompanyProfile{
		Name:      payload.Data.Name,
		LegalName: payload.Data.LegalName,
		Phone:     payload.Data.Phone,
		Email:     payload.Data.Email,
	}
	if profile.LegalName == "" {
		profile.LegalName = payload.Data.Name
	}
	if addr := payload.Data.Address; addr != nil {
		profile.Address = fmt.Sprintf("%s %s, %s, %s - %s, CEP: %s",
			addr.Street, addr.Number, addr.Neighborhood, addr.City, addr.State, addr.PostalCode)
	}
	return profile, nil
}

func (c *Client) do(ctx context.Context, ep endpoint, v any) error {
	return c.doWith(ctx, c.http, ep, v)
}

func (c *Client) doWith(ctx context.Context, httpClient *http.Client, ep endpoint, v any) error {
	var reqBody *bytes.Reader
	if ep.body != nil {
		raw, err := json.Marshal(ep.body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, ep.method, c.baseURL+ep.path, reqBody)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "litigio/1.0")

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
