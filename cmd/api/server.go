package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"litigio/auth"
	"litigio/company"
	"litigio/lawsuit"

	"github.com/go-playground/validator/v10"
)

type ctxKey string

const ctxKeyAccountID ctxKey = "accountID"

type authService interface {
	Register(ctx context.Context, req auth.RegisterRequest) (auth.RegisterResult, error)
	Login(ctx context.Context, req auth.LoginRequest) (auth.LoginResult, error)
	GetAccountByID(ctx context.Context, accountID string) (auth.Account, error)
	VerifyToken(token string) (string, error)
}

type lawsuitService interface {
	Search(ctx context.Context, taxID string) (lawsuit.SearchResult, error)
	LaborCases(ctx context.Context, accountID string) (lawsuit.SearchResult, error)
	Statistics(ctx context.Context, taxID string) (lawsuit.StatisticsResult, error)
	Archive(ctx context.Context, accountID, recordID, notes string) (lawsuit.Record, error)
}

// Server exposes the HTTP surface over the domain services.
type Server struct {
	authService    authService
	lawsuitService lawsuitService
	validate       *validator.Validate
}

// NewServer wires the handler set.
func NewServer(authSvc authService, lawsuitSvc lawsuitService) *Server {
	return &Server{
		authService:    authSvc,
		lawsuitService: lawsuitSvc,
		validate:       validator.New(),
	}
}

// Routes registers every endpoint on a fresh mux.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/register", s.handleRegister)
	mux.HandleFunc("/api/auth/login", s.handleLogin)
	mux.HandleFunc("/api/auth/me", s.requireAuth(s.handleMe))
	mux.HandleFunc("/api/lawsuits", s.handleSearch)
	mux.HandleFunc("/api/lawsuits/labor", s.requireAuth(s.handleLaborCases))
	mux.HandleFunc("/api/lawsuits/statistics", s.handleStatistics)
	mux.HandleFunc("/api/lawsuits/archive", s.requireAuth(s.handleArchive))
	return mux
}

// requireAuth resolves the bearer token into an account id on the request
// context, rejecting the request with 401 otherwise.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		accountID, err := s.authService.VerifyToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), ctxKeyAccountID, accountID)))
	}
}

type accountResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	TaxID string `json:"taxId"`
	Phone string `json:"phone,omitempty"`
}

type companyResponse struct {
	ID        string `json:"id"`
	TaxID     string `json:"taxId"`
	Name      string `json:"name"`
	LegalName string `json:"legalName,omitempty"`
	Address   string `json:"address,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Email     string `json:"email,omitempty"`
}

type recordResponse struct {
	ID         string   `json:"id"`
	CaseNumber string   `json:"caseNumber"`
	Court      string   `json:"court"`
	Division   string   `json:"division"`
	Phase      string   `json:"phase"`
	FilingDate *string  `json:"filingDate"`
	ClaimValue *float64 `json:"claimValue"`
	Risk       string   `json:"risk"`
	Notes      string   `json:"notes"`
	Archived   bool     `json:"archived"`
	ArchivedAt *string  `json:"archivedAt,omitempty"`
	CreatedAt  string   `json:"createdAt"`
}

type searchResponse struct {
	Company companyResponse  `json:"company"`
	Records []recordResponse `json:"processos"`
	Source  string           `json:"source"`
	Message string           `json:"message,omitempty"`
	Warning string           `json:"warning,omitempty"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req auth.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "all required fields must be provided")
		return
	}

	result, err := s.authService.Register(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "registration successful",
		"account": toAccountResponse(result.Account),
		"company": toCompanyResponse(result.Company),
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req auth.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	result, err := s.authService.Login(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	payload := map[string]any{
		"token": result.Token,
		"user":  toAccountResponse(result.Account),
	}
	if result.Company != nil {
		payload["company"] = toCompanyResponse(*result.Company)
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	accountID, _ := r.Context().Value(ctxKeyAccountID).(string)
	account, err := s.authService.GetAccountByID(r.Context(), accountID)
	if err != nil {
		if errors.Is(err, auth.ErrAccountNotFound) {
			writeError(w, http.StatusNotFound, "account not found")
			return
		}
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": toAccountResponse(account)})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	taxID := r.URL.Query().Get("taxId")
	if taxID == "" {
		writeError(w, http.StatusBadRequest, "taxId is required")
		return
	}

	result, err := s.lawsuitService.Search(r.Context(), taxID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSearchResponse(result))
}

func (s *Server) handleLaborCases(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	accountID, _ := r.Context().Value(ctxKeyAccountID).(string)
	result, err := s.lawsuitService.LaborCases(r.Context(), accountID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSearchResponse(result))
}

func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	taxID := r.URL.Query().Get("taxId")
	if taxID == "" {
		writeError(w, http.StatusBadRequest, "taxId is required")
		return
	}

	result, err := s.lawsuitService.Statistics(r.Context(), taxID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"totalCases":      result.Stats.TotalCases,
		"laborCases":      result.Stats.LaborCases,
		"laborPercentage": result.Stats.LaborPercentage,
		"source":          string(result.Source),
		"message":         result.Message,
		"warning":         result.Warning,
	})
}

type archiveRequest struct {
	CaseID string `json:"caseId" validate:"required"`
	Notes  string `json:"notes"`
}

func (s *Server) handleArchive(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req archiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "caseId is required")
		return
	}

	accountID, _ := r.Context().Value(ctxKeyAccountID).(string)
	rec, err := s.lawsuitService.Archive(r.Context(), accountID, req.CaseID, req.Notes)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "record archived",
		"record":  toRecordResponse(rec),
	})
}

func toAccountResponse(a auth.Account) accountResponse {
	resp := accountResponse{
		ID:    a.ID,
		Email: a.Email,
		Name:  a.Name,
		TaxID: a.TaxID,
	}
	if a.Phone != nil {
		resp.Phone = *a.Phone
	}
	return resp
}

func toCompanyResponse(c company.Company) companyResponse {
	return companyResponse{
		ID:        c.ID,
		TaxID:     c.TaxID,
		Name:      c.Name,
		LegalName: c.LegalName,
		Address:   c.Address,
		Phone:     c.Phone,
		Email:     c.Email,
	}
}

func toRecordResponse(rec lawsuit.Record) recordResponse {
	resp := recordResponse{
		ID:         rec.ID,
		CaseNumber: rec.CaseNumber,
		Court:      rec.Court,
		Division:   rec.Division,
		Phase:      rec.Phase,
		ClaimValue: rec.ClaimValue,
		Risk:       string(rec.Risk),
		Notes:      rec.Notes,
		Archived:   rec.Archived,
		CreatedAt:  rec.CreatedAt.Format(time.RFC3339),
	}
	if rec.FilingDate != nil {
		v := rec.FilingDate.Format("2006-01-02")
		resp.FilingDate = &v
	}
	if rec.ArchivedAt != nil {
		v := rec.ArchivedAt.Format(time.RFC3339)
		resp.ArchivedAt = &v
	}
	return resp
}

func toSearchResponse(result lawsuit.SearchResult) searchResponse {
	records := make([]recordResponse, 0, len(result.Records))
	for _, rec := range result.Records {
		records = append(records, toRecordResponse(rec))
	}
	return searchResponse{
		Company: toCompanyResponse(result.Company),
		Records: records,
		Source:  string(result.Source),
		Message: result.Message,
		Warning: result.Warning,
	}
}

// writeServiceError maps domain errors onto the HTTP taxonomy: validation
// errors are 400, bad credentials 401, missing or foreign resources 404,
// everything else 500.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, company.ErrInvalidTaxID):
		writeError(w, http.StatusBadRequest, "tax id must have 14 digits")
	case errors.Is(err, auth.ErrWeakPassword):
		writeError(w, http.StatusBadRequest, "password must be at least 8 characters")
	case errors.Is(err, auth.ErrDuplicateEmail):
		writeError(w, http.StatusBadRequest, "email already registered")
	case errors.Is(err, auth.ErrDuplicateTaxID):
		writeError(w, http.StatusBadRequest, "tax id already registered")
	case errors.Is(err, lawsuit.ErrAlreadyArchived):
		writeError(w, http.StatusBadRequest, "record already archived")
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid email or password")
	case errors.Is(err, lawsuit.ErrNotFound), errors.Is(err, company.ErrNotFound):
		writeError(w, http.StatusNotFound, "record not found")
	default:
		log.Printf("api: internal error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("api: encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
