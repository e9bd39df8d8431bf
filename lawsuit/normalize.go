package lawsuit

import (
	"fmt"
	"strings"
	"time"

	"litigio/escavador"

	"github.com/google/uuid"
)

// Unknown is the placeholder for absent court, division, class, subject and
// phase fields. Callers must treat it as "unknown", not as a real value.
const Unknown = "N/A"

// AreaGeneral is the legal-area default outside the labor-specific flow.
const AreaGeneral = "GERAL"

// Normalized is the canonical shape of one lawsuit after alias resolution.
// Every field is populated; optional source data degrades to placeholders.
type Normalized struct {
	CaseNumber string
	Court      string
	Division   string
	Class      string
	Subject    string
	FilingDate *time.Time
	ClaimValue *float64
	Status     string
	Degree     string
	Area       string
}

// Normalize maps one heterogeneous upstream record into the canonical shape.
// It is pure and total: any input, however sparse, yields a fully populated
// result. defaultArea fills the legal area when the source omits it (GERAL
// for general search, TRABALHISTA for the labor flow).
func Normalize(raw escavador.RawLawsuit, defaultArea string) Normalized {
	return Normalized{
		CaseNumber: caseNumber(raw),
		Court:      firstString(raw, Unknown, "tribunal"),
		Division:   firstString(raw, Unknown, "vara"),
		Class:      firstString(raw, Unknown, "classe"),
		Subject:    firstString(raw, Unknown, "assunto"),
		FilingDate: filingDate(raw),
		ClaimValue: firstNumber(raw, "valorCausa", "valor_causa"),
		Status:     firstString(raw, Unknown, "situacao", "status"),
		Degree:     firstString(raw, "1º Grau", "grau", "instancia"),
		Area:       firstString(raw, defaultArea, "area"),
	}
}

// Risk derives the record's risk level from degree and area.
func (n Normalized) Risk() RiskLevel {
	return DeriveRisk(n.Degree, n.Area)
}

// Notes summarizes class, subject and court for the persisted record.
func (n Normalized) Notes() string {
	return fmt.Sprintf("Classe: %s | Assunto: %s | Tribunal: %s", n.Class, n.Subject, n.Court)
}

func caseNumber(raw escavador.RawLawsuit) string {
	if v := firstString(raw, "", "numero", "numeroProcesso", "numero_cnj"); v != "" {
		return v
	}
	// Synthetic placeholder for sources that omit the case number.
	return fmt.Sprintf("PROC-%d-%s", time.Now().UnixMilli(), uuid.NewString()[:9])
}

func firstString(raw escavador.RawLawsuit, fallback string, keys ...string) string {
	for _, key := range keys {
		if v, ok := raw[key]; ok {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				return s
			}
		}
	}
	return fallback
}

func firstNumber(raw escavador.RawLawsuit, keys ...string) *float64 {
	for _, key := range keys {
		if v, ok := raw[key]; ok {
			if f, ok := v.(float64); ok {
				return &f
			}
		}
	}
	return nil
}

func filingDate(raw escavador.RawLawsuit) *time.Time {
	v := firstString(raw, "", "dataAjuizamento", "data_ajuizamento")
	if v == "" {
		return nil
	}

	// Sources answer either a bare calendar date or a full timestamp; the
	// time-of-day component is discarded either way.
	for _, layout := range [...]string{"2006-01-02", time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, v); err == nil {
			day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			return &day
		}
	}
	return nil
}
