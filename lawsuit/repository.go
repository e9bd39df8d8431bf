package lawsuit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound signals the record does not exist or is owned by another
	// account. The two cases are deliberately indistinguishable to callers.
	ErrNotFound = errors.New("lawsuit: record not found")
	// ErrAlreadyArchived signals a repeated archive request.
	ErrAlreadyArchived = errors.New("lawsuit: record already archived")
	// ErrStatsNotFound signals no statistics snapshot exists for the company.
	ErrStatsNotFound = errors.New("lawsuit: statistics not found")
)

// Repository handles data access for lawsuit records and statistics.
type Repository interface {
	ListActive(ctx context.Context, companyID string) ([]Record, error)
	NewestActiveAt(ctx context.Context, companyID string) (*time.Time, error)
	ReplaceActive(ctx context.Context, companyID string, batch []CreateRecordParams) ([]Record, error)
	Archive(ctx context.Context, accountID, recordID, notes string) (Record, error)
	GetStatistics(ctx context.Context, companyID string) (Statistics, error)
	UpsertStatistics(ctx context.Context, stats Statistics) error
}

// CreateRecordParams contains write parameters for inserting one record.
type CreateRecordParams struct {
	CaseNumber string
	Court      string
	Division   string
	Phase      string
	FilingDate *time.Time
	ClaimValue *float64
	Risk       RiskLevel
	Notes      string
}

// PGRepository implements Repository backed by PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository wires a pgxpool-backed repository implementation.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const recordColumns = `id, company_id, case_number, court, division, phase, filing_date, claim_value, risk, notes, archived, archived_at, archive_notes, created_at`

// ListActive fetches the non-archived records of a company, newest first.
func (r *PGRepository) ListActive(ctx context.Context, companyID string) ([]Record, error) {
	const query = `
		SELECT ` + recordColumns + `
		FROM lawsuits
		WHERE company_id = $1 AND NOT archived
		ORDER BY created_at DESC, case_number ASC
	`

	rows, err := r.pool.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("lawsuit: list active: %w", err)
	}
	defer rows.Close()

	records := make([]Record, 0, 8)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("lawsuit: scan record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("lawsuit: iterate records: %w", err)
	}
	return records, nil
}

// NewestActiveAt returns the creation time of the most recent non-archived
// record, or nil when the company has none.
func (r *PGRepository) NewestActiveAt(ctx context.Context, companyID string) (*time.Time, error) {
	const query = `
		SELECT MAX(created_at)
		FROM lawsuits
		WHERE company_id = $1 AND NOT archived
	`

	var newest *time.Time
	if err := r.pool.QueryRow(ctx, query, companyID).Scan(&newest); err != nil {
		return nil, fmt.Errorf("lawsuit: newest active: %w", err)
	}
	return newest, nil
}

// ReplaceActive swaps the company's active record set for the given batch in
// one transaction: all non-archived rows are deleted, then the batch is
// inserted. Archived rows are untouched. Delete-phase and insert-phase
// failures are reported distinctly.
func (r *PGRepository) ReplaceActive(ctx context.Context, companyID string, batch []CreateRecordParams) ([]Record, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("lawsuit: begin replace tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM lawsuits WHERE company_id = $1 AND NOT archived`, companyID); err != nil {
		return nil, fmt.Errorf("lawsuit: clear active: %w", err)
	}

	const insertSQL = `
		INSERT INTO lawsuits (company_id, case_number, court, division, phase, filing_date, claim_value, risk, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + recordColumns + `
	`

	inserted := make([]Record, 0, len(batch))
	for _, params := range batch {
		rec, err := scanRecord(tx.QueryRow(ctx, insertSQL,
			companyID,
			params.CaseNumber,
			params.Court,
			params.Division,
			params.Phase,
			params.FilingDate,
			params.ClaimValue,
			params.Risk,
			params.Notes,
		))
		if err != nil {
			return nil, fmt.Errorf("lawsuit: insert batch: %w", err)
		}
		inserted = append(inserted, rec)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("lawsuit: commit replace tx: %w", err)
	}
	return inserted, nil
}

// Archive marks a record archived with timestamp and notes. The record must
// belong to the account's company; rows owned by other accounts surface as
// ErrNotFound rather than a permission error.
func (r *PGRepository) Archive(ctx context.Context, accountID, recordID, notes string) (Record, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Record{}, fmt.Errorf("lawsuit: begin archive tx: %w", err)
	}
	defer tx.Rollback(ctx)

	const lockSQL = `
		SELECT l.archived
		FROM lawsuits l
		JOIN companies c ON c.id = l.company_id
		WHERE l.id = $1 AND c.account_id = $2
		FOR UPDATE OF l
	`

	var archived bool
	if err := tx.QueryRow(ctx, lockSQL, recordID, accountID).Scan(&archived); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("lawsuit: lock for archive: %w", err)
	}
	if archived {
		return Record{}, ErrAlreadyArchived
	}

	if notes == "" {
		notes = "Archived by the account owner"
	}

	const updateSQL = `
		UPDATE lawsuits
		SET archived = TRUE, archived_at = NOW(), archive_notes = $2
		WHERE id = $1
		RETURNING ` + recordColumns + `
	`

	rec, err := scanRecord(tx.QueryRow(ctx, updateSQL, recordID, notes))
	if err != nil {
		return Record{}, fmt.Errorf("lawsuit: mark archived: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Record{}, fmt.Errorf("lawsuit: commit archive tx: %w", err)
	}
	return rec, nil
}

// GetStatistics fetches the stored aggregate snapshot for a company.
func (r *PGRepository) GetStatistics(ctx context.Context, companyID string) (Statistics, error) {
	const query = `
		SELECT company_id, total_cases, labor_cases, labor_percentage, updated_at
		FROM lawsuit_statistics
		WHERE company_id = $1
	`

	var stats Statistics
	err := r.pool.QueryRow(ctx, query, companyID).Scan(
		&stats.CompanyID,
		&stats.TotalCases,
		&stats.LaborCases,
		&stats.LaborPercentage,
		&stats.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Statistics{}, ErrStatsNotFound
		}
		return Statistics{}, fmt.Errorf("lawsuit: get statistics: %w", err)
	}
	return stats, nil
}

// UpsertStatistics stores or refreshes the aggregate snapshot.
func (r *PGRepository) UpsertStatistics(ctx context.Context, stats Statistics) error {
	const upsertSQL = `
		INSERT INTO lawsuit_statistics (company_id, total_cases, labor_cases, labor_percentage, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (company_id) DO UPDATE
		SET total_cases = EXCLUDED.total_cases,
		    labor_cases = EXCLUDED.labor_cases,
		    labor_percentage = EXCLUDED.labor_percentage,
		    updated_at = NOW()
	`

	if _, err := r.pool.Exec(ctx, upsertSQL, stats.CompanyID, stats.TotalCases, stats.LaborCases, stats.LaborPercentage); err != nil {
		return fmt.Errorf("lawsuit: upsert statistics: %w", err)
	}
	return nil
}

func scanRecord(row pgx.Row) (Record, error) {
	var (
		rec          Record
		filingDate   *time.Time
		claimValue   *float64
		archivedAt   *time.Time
		archiveNotes *string
	)
	err := row.Scan(
		&rec.ID,
		&rec.CompanyID,
		&rec.CaseNumber,
		&rec.Court,
		&rec.Division,
		&rec.Phase,
		&filingDate,
		&claimValue,
		&rec.Risk,
		&rec.Notes,
		&rec.Archived,
		&archivedAt,
		&archiveNotes,
		&rec.CreatedAt,
	)
	if err != nil {
		return Record{}, err
	}
	rec.FilingDate = filingDate
	rec.ClaimValue = claimValue
	rec.ArchivedAt = archivedAt
	rec.ArchiveNotes = archiveNotes
	return rec, nil
}
