package actors

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"litigio/company"
	"litigio/lawsuit"
)

// Refresher repeatedly swaps the company's active record set the way a cache
// refresh does, so concurrent delete-then-insert replacements race over the
// same rows.
func Refresher(ctx context.Context, repo *lawsuit.PGRepository, companyID, taxID string, stop <-chan struct{}) error {
	gen := lawsuit.Generator{CountMod: 8, CountOffset: 3}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		batch := gen.Generate(taxID)
		params := make([]lawsuit.CreateRecordParams, 0, len(batch))
		for _, n := range batch {
			params = append(params, lawsuit.CreateRecordParams{
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
		if _, err := repo.ReplaceActive(ctx, companyID, params); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return fmt.Errorf("refresher replace: %w", err)
		}
		time.Sleep(time.Duration(10+rand.Intn(20)) * time.Millisecond)
	}
}

// Archiver picks a random active record of the account's company and archives
// it. Contention with refreshers makes both not-found and already-archived
// outcomes expected.
func Archiver(ctx context.Context, pool *pgxpool.Pool, repo *lawsuit.PGRepository, accountID, companyID string, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		var recordID string
		err := pool.QueryRow(ctx, `SELECT id FROM lawsuits WHERE company_id=$1 AND NOT archived ORDER BY random() LIMIT 1`, companyID).Scan(&recordID)
		if err == nil {
			if _, err := repo.Archive(ctx, accountID, recordID, "stress archive"); err != nil {
				switch {
				case errors.Is(err, lawsuit.ErrNotFound), errors.Is(err, lawsuit.ErrAlreadyArchived):
					// expected under contention
				case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
					return nil
				default:
					return fmt.Errorf("archiver: %w", err)
				}
			}
		} else if !errors.Is(err, pgx.ErrNoRows) && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("archiver pick: %w", err)
		}
		time.Sleep(time.Duration(20+rand.Intn(40)) * time.Millisecond)
	}
}

// StatsWriter keeps upserting the statistics snapshot for the company.
func StatsWriter(ctx context.Context, repo *lawsuit.PGRepository, companyID, taxID string, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		total, labor, pct := lawsuit.SimulatedStatistics(taxID)
		err := repo.UpsertStatistics(ctx, lawsuit.Statistics{
			CompanyID:       companyID,
			TotalCases:      total,
			LaborCases:      labor,
			LaborPercentage: pct,
			UpdatedAt:       time.Now(),
		})
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("stats writer: %w", err)
		}
		time.Sleep(time.Duration(30+rand.Intn(50)) * time.Millisecond)
	}
}

// Registrar races EnsureByTaxID over a shared tax id; the unique constraint
// must collapse concurrent first lookups into a single row.
func Registrar(ctx context.Context, repo *company.PGRepository, taxID string, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		if _, err := repo.EnsureByTaxID(ctx, taxID); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return fmt.Errorf("registrar ensure: %w", err)
		}
		time.Sleep(time.Duration(15+rand.Intn(35)) * time.Millisecond)
	}
}
