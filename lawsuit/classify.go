package lawsuit

import (
	"math"
	"strings"

	"litigio/escavador"
)

// DefaultKeywords is the full labor-law keyword table used by the statistics
// flow. Matching is by substring, so false positives (e.g. "NOTURNO" in an
// unrelated subject) are accepted as part of the heuristic.
var DefaultKeywords = []string{
	"TRABALHISTA",
	"TRABALHO",
	"TRT",
	"TRABALHADOR",
	"EMPREGADO",
	"RESCISÃO",
	"FGTS",
	"HORAS EXTRAS",
	"ADICIONAL",
	"SALÁRIO",
	"VERBAS RESCISÓRIAS",
	"INSS",
	"PIS",
	"VALE TRANSPORTE",
	"FÉRIAS",
	"DÉCIMO TERCEIRO",
	"13º",
	"AVISO PRÉVIO",
	"INSALUBRIDADE",
	"PERICULOSIDADE",
	"NOTURNO",
}

// SimpleKeywords is the reduced table used by the per-record labor filter.
var SimpleKeywords = []string{"TRABALHISTA", "TRABALHO", "TRT"}

// KeywordClassifier decides whether a case is a labor-law matter by keyword
// lookup over its descriptive fields. The keyword table is explicit so it can
// be versioned and swapped without touching callers.
type KeywordClassifier struct {
	Keywords []string
}

// Match reports whether any keyword occurs in the uppercased concatenation of
// the given text parts.
func (c KeywordClassifier) Match(parts ...string) bool {
	blob := strings.ToUpper(strings.Join(parts, " "))
	for _, keyword := range c.Keywords {
		if strings.Contains(blob, keyword) {
			return true
		}
	}
	return false
}

// MatchRaw classifies an upstream record before normalization, including the
// case number in the text blob as the statistics flow does.
func (c KeywordClassifier) MatchRaw(raw escavador.RawLawsuit) bool {
	return c.Match(
		rawField(raw, "area"),
		rawField(raw, "tribunal"),
		rawField(raw, "vara"),
		rawField(raw, "classe"),
		rawField(raw, "assunto"),
		rawField(raw, "numero"),
		rawField(raw, "numero_cnj"),
	)
}

// MatchRecord classifies a stored record from its surviving descriptive
// fields (division, court, and the class/subject summary in notes).
func (c KeywordClassifier) MatchRecord(rec Record) bool {
	return c.Match(rec.Division, rec.Court, rec.Notes)
}

// LaborShare computes the labor percentage over a raw record list, rounded to
// two decimal places. An empty list yields zero counts and zero percentage.
func (c KeywordClassifier) LaborShare(records []escavador.RawLawsuit) (total, labor int, percentage float64) {
	total = len(records)
	for _, raw := range records {
		if c.MatchRaw(raw) {
			labor++
		}
	}
	if total == 0 {
		return 0, 0, 0
	}
	return total, labor, RoundPercentage(float64(labor) / float64(total) * 100)
}

// RoundPercentage rounds to two decimal places.
func RoundPercentage(pct float64) float64 {
	return math.Round(pct*100) / 100
}

func rawField(raw escavador.RawLawsuit, key string) string {
	if v, ok := raw[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
