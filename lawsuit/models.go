package lawsuit

import "time"

// RiskLevel grades the exposure of a single case.
type RiskLevel string

const (
	RiskLow    RiskLevel = "Baixo"
	RiskMedium RiskLevel = "Médio"
	RiskHigh   RiskLevel = "Alto"
)

// Source tags tell callers where a response batch came from.
type Source string

const (
	SourceCache     Source = "cache"
	SourceExternal  Source = "external"
	SourceSimulated Source = "simulated"
)

// Record is the domain representation of a persisted lawsuit. It mirrors the
// lawsuits table and should not include JSON annotations so it can be reused
// by different presentation layers.
type Record struct {
	ID           string
	CompanyID    string
	CaseNumber   string
	Court        string
	Division     string
	Phase        string
	FilingDate   *time.Time
	ClaimValue   *float64
	Risk         RiskLevel
	Notes        string
	Archived     bool
	ArchivedAt   *time.Time
	ArchiveNotes *string
	CreatedAt    time.Time
}

// Statistics is the aggregate labor-share snapshot for a company.
type Statistics struct {
	CompanyID       string
	TotalCases      int
	LaborCases      int
	LaborPercentage float64
	UpdatedAt       time.Time
}

const (
	degreeSecondInstance = "2º Grau"
	areaLabor            = "TRABALHISTA"
)

// DeriveRisk grades a case from its degree of appeal and legal area:
// second-instance cases are high risk, labor-area cases at first instance are
// medium, everything else is low.
func DeriveRisk(degree, area string) RiskLevel {
	if degree == degreeSecondInstance {
		return RiskHigh
	}
	if area == areaLabor {
		return RiskMedium
	}
	return RiskLow
}
