package lawsuit

import (
	"context"
	"fmt"
	"log"
	"time"

	"litigio/company"
	"litigio/escavador"

	"golang.org/x/sync/singleflight"
)

// Fetcher is the slice of the external API client the pipeline needs.
type Fetcher interface {
	FetchLawsuits(ctx context.Context, taxID string) (escavador.Outcome, error)
	FetchStatisticsSource(ctx context.Context, taxID string) (escavador.Outcome, error)
}

// CompanyStore is the slice of the company repository the pipeline needs.
type CompanyStore interface {
	EnsureByTaxID(ctx context.Context, taxID string) (company.Company, error)
	GetByAccountID(ctx context.Context, accountID string) (company.Company, error)
}

// Thresholds carries the staleness TTL per view.
type Thresholds struct {
	Search     time.Duration
	Labor      time.Duration
	Statistics time.Duration
}

// DefaultThresholds mirrors the per-endpoint cache policy: 6h for general
// search, 24h for the labor view, 3h for statistics.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Search:     6 * time.Hour,
		Labor:      24 * time.Hour,
		Statistics: 3 * time.Hour,
	}
}

const upstreamWarning = "External API unavailable. Showing simulated data for demonstration."

// Service runs the lawsuit ingestion pipeline: fetch (or simulate), normalize,
// classify, gate against the cache, and persist.
type Service struct {
	repo      Repository
	companies CompanyStore
	fetcher   Fetcher

	searchGate CacheGate
	laborGate  CacheGate
	statsGate  CacheGate

	searchGen Generator
	laborGen  Generator

	laborFilter KeywordClassifier
	statsFilter KeywordClassifier

	now func() time.Time

	// refreshes serializes concurrent refreshes of the same company and
	// view, so the delete-then-insert replacement never races with itself.
	refreshes singleflight.Group
}

// NewService wires the pipeline with its collaborators.
func NewService(repo Repository, companies CompanyStore, fetcher Fetcher, thresholds Thresholds) *Service {
	return &Service{
		repo:        repo,
		companies:   companies,
		fetcher:     fetcher,
		searchGate:  CacheGate{TTL: thresholds.Search},
		laborGate:   CacheGate{TTL: thresholds.Labor},
		statsGate:   CacheGate{TTL: thresholds.Statistics},
		searchGen:   Generator{CountMod: 8, CountOffset: 3},
		laborGen:    Generator{CountMod: 5, CountOffset: 2, ForceArea: areaLabor},
		laborFilter: KeywordClassifier{Keywords: SimpleKeywords},
		statsFilter: KeywordClassifier{Keywords: DefaultKeywords},
		now:         time.Now,
	}
}

// WithClock overrides the time source for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// SearchResult is the outcome of a general lookup.
type SearchResult struct {
	Company company.Company
	Records []Record
	Source  Source
	Message string
	Warning string
}

// Search runs the public-by-tax-id lookup: serve from cache when fresh,
// otherwise fetch from the external API, degrading to simulated data when the
// upstream yields nothing usable.
func (s *Service) Search(ctx context.Context, rawTaxID string) (SearchResult, error) {
	taxID, err := company.ValidateTaxID(rawTaxID)
	if err != nil {
		return SearchResult{}, err
	}

	comp, err := s.companies.EnsureByTaxID(ctx, taxID)
	if err != nil {
		return SearchResult{}, err
	}

	newest, err := s.repo.NewestActiveAt(ctx, comp.ID)
	if err != nil {
		return SearchResult{}, err
	}
	if newest != nil {
		if fresh := s.searchGate.Evaluate(*newest, s.now()); fresh.Fresh {
			records, err := s.repo.ListActive(ctx, comp.ID)
			if err != nil {
				return SearchResult{}, err
			}
			if len(records) > 0 {
				return SearchResult{
					Company: comp,
					Records: records,
					Source:  SourceCache,
					Message: fmt.Sprintf("%d records served from local cache (%s)", len(records), fresh.Note),
				}, nil
			}
		}
	}

	v, err, _ := s.refreshes.Do("search:"+comp.ID, func() (any, error) {
		return s.refreshSearch(ctx, comp, taxID)
	})
	if err != nil {
		return SearchResult{}, err
	}
	return v.(SearchResult), nil
}

func (s *Service) refreshSearch(ctx context.Context, comp company.Company, taxID string) (SearchResult, error) {
	outcome, fetchErr := s.fetcher.FetchLawsuits(ctx, taxID)

	var (
		batch   []Normalized
		source  Source
		message string
		warning string
	)

	switch {
	case fetchErr == nil && len(outcome.Records) > 0:
		source = SourceExternal
		message = fmt.Sprintf("%d records fetched from the external API", len(outcome.Records))
		batch = make([]Normalized, 0, len(outcome.Records))
		for _, raw := range outcome.Records {
			batch = append(batch, Normalize(raw, AreaGeneral))
		}
	default:
		if fetchErr != nil {
			log.Printf("lawsuit: search fetch for %s: %v", taxID, fetchErr)
		}
		source = SourceSimulated
		warning = upstreamWarning
		message = "Simulated data derived from the tax id"
		if fetchErr == nil && outcome.CountOnly {
			message = fmt.Sprintf("External API reported %d records without detail; showing simulated data", outcome.Total)
		}
		batch = s.searchGen.Generate(taxID)
	}

	records, err := s.repo.ReplaceActive(ctx, comp.ID, toCreateParams(batch))
	if err != nil {
		return SearchResult{}, err
	}

	return SearchResult{
		Company: comp,
		Records: records,
		Source:  source,
		Message: message,
		Warning: warning,
	}, nil
}

// LaborCases serves the authenticated labor-only view scoped to the caller's
// own company. Only labor-classified, non-archived records are returned.
func (s *Service) LaborCases(ctx context.Context, accountID string) (SearchResult, error) {
	comp, err := s.companies.GetByAccountID(ctx, accountID)
	if err != nil {
		return SearchResult{}, err
	}

	newest, err := s.repo.NewestActiveAt(ctx, comp.ID)
	if err != nil {
		return SearchResult{}, err
	}
	if newest != nil {
		if fresh := s.laborGate.Evaluate(*newest, s.now()); fresh.Fresh {
			records, err := s.repo.ListActive(ctx, comp.ID)
			if err != nil {
				return SearchResult{}, err
			}
			labor := s.filterLabor(records)
			return SearchResult{
				Company: comp,
				Records: labor,
				Source:  SourceCache,
				Message: fmt.Sprintf("%d labor cases served from local cache (%s)", len(labor), fresh.Note),
			}, nil
		}
	}

	v, err, _ := s.refreshes.Do("labor:"+comp.ID, func() (any, error) {
		return s.refreshLabor(ctx, comp)
	})
	if err != nil {
		return SearchResult{}, err
	}
	return v.(SearchResult), nil
}

func (s *Service) refreshLabor(ctx context.Context, comp company.Company) (SearchResult, error) {
	outcome, fetchErr := s.fetcher.FetchLawsuits(ctx, comp.TaxID)

	var (
		batch   []Normalized
		source  Source
		warning string
	)

	if fetchErr == nil && len(outcome.Records) > 0 {
		source = SourceExternal
		batch = make([]Normalized, 0, len(outcome.Records))
		for _, raw := range outcome.Records {
			batch = append(batch, Normalize(raw, areaLabor))
		}
	} else {
		if fetchErr != nil {
			log.Printf("lawsuit: labor fetch for %s: %v", comp.TaxID, fetchErr)
		}
		source = SourceSimulated
		warning = upstreamWarning
		batch = s.laborGen.Generate(comp.TaxID)
	}

	records, err := s.repo.ReplaceActive(ctx, comp.ID, toCreateParams(batch))
	if err != nil {
		return SearchResult{}, err
	}

	labor := s.filterLabor(records)
	return SearchResult{
		Company: comp,
		Records: labor,
		Source:  source,
		Message: fmt.Sprintf("%d labor cases found", len(labor)),
		Warning: warning,
	}, nil
}

func (s *Service) filterLabor(records []Record) []Record {
	labor := make([]Record, 0, len(records))
	for _, rec := range records {
		if s.laborFilter.MatchRecord(rec) {
			labor = append(labor, rec)
		}
	}
	return labor
}

// StatisticsResult is the outcome of an aggregate lookup.
type StatisticsResult struct {
	Company company.Company
	Stats   Statistics
	Source  Source
	Message string
	Warning string
}

// Statistics computes (or serves from cache) the labor share of a company's
// case load. Upstream failure degrades to a simulated snapshot; a snapshot
// that cannot be cached is still returned with a warning.
func (s *Service) Statistics(ctx context.Context, rawTaxID string) (StatisticsResult, error) {
	taxID, err := company.ValidateTaxID(rawTaxID)
	if err != nil {
		return StatisticsResult{}, err
	}

	comp, err := s.companies.EnsureByTaxID(ctx, taxID)
	if err != nil {
		return StatisticsResult{}, err
	}

	if stats, err := s.repo.GetStatistics(ctx, comp.ID); err == nil {
		if fresh := s.statsGate.Evaluate(stats.UpdatedAt, s.now()); fresh.Fresh {
			return StatisticsResult{
				Company: comp,
				Stats:   stats,
				Source:  SourceCache,
				Message: fmt.Sprintf("statistics served from local cache (%s)", fresh.Note),
			}, nil
		}
	}

	v, err, _ := s.refreshes.Do("stats:"+comp.ID, func() (any, error) {
		return s.refreshStatistics(ctx, comp, taxID)
	})
	if err != nil {
		return StatisticsResult{}, err
	}
	return v.(StatisticsResult), nil
}

func (s *Service) refreshStatistics(ctx context.Context, comp company.Company, taxID string) (StatisticsResult, error) {
	var (
		total, labor int
		percentage   float64
		source       Source
		message      string
		warning      string
	)

	outcome, fetchErr := s.fetcher.FetchStatisticsSource(ctx, taxID)
	switch {
	case fetchErr != nil:
		log.Printf("lawsuit: statistics fetch for %s: %v", taxID, fetchErr)
		total, labor, percentage = SimulatedStatistics(taxID)
		source = SourceSimulated
		warning = upstreamWarning
		message = "Simulated statistics derived from the tax id"
	case outcome.CountOnly:
		// The upstream advertised a total without record detail; estimate
		// the labor share at 30%.
		total = outcome.Total
		labor = int(float64(total) * 0.3)
		percentage = 30
		if total == 0 {
			percentage = 0
		}
		source = SourceExternal
		message = fmt.Sprintf("external API reported %d records without detail", total)
	default:
		total, labor, percentage = s.statsFilter.LaborShare(outcome.Records)
		source = SourceExternal
		message = fmt.Sprintf("%d records analyzed from the external API", total)
	}

	stats := Statistics{
		CompanyID:       comp.ID,
		TotalCases:      total,
		LaborCases:      labor,
		LaborPercentage: percentage,
		UpdatedAt:       s.now(),
	}

	if err := s.repo.UpsertStatistics(ctx, stats); err != nil {
		log.Printf("lawsuit: cache statistics for %s: %v", taxID, err)
		if warning == "" {
			warning = "Statistics fetched successfully but could not be cached."
		}
	}

	return StatisticsResult{
		Company: comp,
		Stats:   stats,
		Source:  source,
		Message: message,
		Warning: warning,
	}, nil
}

// Archive marks one of the caller's records archived.
func (s *Service) Archive(ctx context.Context, accountID, recordID, notes string) (Record, error) {
	if recordID == "" {
		return Record{}, fmt.Errorf("lawsuit: missing record id")
	}
	return s.repo.Archive(ctx, accountID, recordID, notes)
}

func toCreateParams(batch []Normalized) []CreateRecordParams {
	params := make([]CreateRecordParams, 0, len(batch))
	for _, n := range batch {
		params = append(params, CreateRecordParams{
			CaseNumber: n.CaseNumber,
			Court:      n.Court,
			Division:   n.Division,
			Phase:      n.Status,
			FilingDate: n.FilingDate,
			ClaimValue: n.ClaimValue,
			Risk:       n.Risk(),
			Notes:      n.Notes(),
		})
	}
	return params
}
