package lawsuit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"litigio/auth"
	"litigio/company"
	"litigio/test/infra"
)

// startDatabase boots a disposable Postgres with the schema applied, skipping
// when neither Docker nor a local server is reachable.
func startDatabase(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	pgC, dsn, err := infra.StartPostgres16(ctx, "")
	if err != nil {
		t.Skipf("no database available: %v", err)
	}
	t.Cleanup(func() { _ = pgC.Terminate(context.Background()) })

	pool, teardown, err := infra.ApplyMigrations(ctx, dsn, false)
	if err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	t.Cleanup(func() {
		_ = teardown(context.Background())
		pool.Close()
	})
	return pool
}

func seedOwnedCompany(t *testing.T, ctx context.Context, pool *pgxpool.Pool, taxID string) (accountID, companyID string) {
	t.Helper()

	account, err := auth.NewRepository(pool).CreateAccount(ctx, auth.CreateAccountParams{
		Email:        taxID + "@example.com",
		Name:         "Owner",
		TaxID:        taxID,
		PasswordHash: "x",
	})
	if err != nil {
		t.Fatalf("seed account: %v", err)
	}

	comp, err := company.NewRepository(pool).Create(ctx, company.CreateParams{
		TaxID:     taxID,
		AccountID: &account.ID,
		Profile:   company.Profile{Name: "Empresa " + taxID},
	})
	if err != nil {
		t.Fatalf("seed company: %v", err)
	}
	return account.ID, comp.ID
}

func TestPGRepository_ReplaceActiveRoundTrip(t *testing.T) {
	pool := startDatabase(t)
	ctx := context.Background()
	_, companyID := seedOwnedCompany(t, ctx, pool, "11111111000111")
	repo := NewRepository(pool)

	filed := time.Date(2023, 5, 10, 0, 0, 0, 0, time.UTC)
	value := 1500.50
	batch := []CreateRecordParams{
		{CaseNumber: "0001", Court: "TJSP", Division: "5ª Vara Cível", Phase: "Em andamento", FilingDate: &filed, ClaimValue: &value, Risk: RiskLow, Notes: "n1"},
		{CaseNumber: "0002", Court: "TRT-2", Division: "1ª Vara do Trabalho", Phase: "Suspenso", Risk: RiskMedium, Notes: "n2"},
	}

	inserted, err := repo.ReplaceActive(ctx, companyID, batch)
	if err != nil {
		t.Fatalf("replace active: %v", err)
	}
	if len(inserted) != 2 {
		t.Fatalf("expected 2 inserted, got %d", len(inserted))
	}
	if inserted[0].ID == "" || inserted[0].CreatedAt.IsZero() {
		t.Fatalf("expected generated id and timestamp, got %+v", inserted[0])
	}

	listed, err := repo.ListActive(ctx, companyID)
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("expected 2 active records, got %d", len(listed))
	}

	newest, err := repo.NewestActiveAt(ctx, companyID)
	if err != nil {
		t.Fatalf("newest active: %v", err)
	}
	if newest == nil {
		t.Fatal("expected a newest timestamp")
	}

	// A second replacement swaps the whole active set.
	replaced, err := repo.ReplaceActive(ctx, companyID, batch[:1])
	if err != nil {
		t.Fatalf("second replace: %v", err)
	}
	if len(replaced) != 1 {
		t.Fatalf("expected 1 record after swap, got %d", len(replaced))
	}
	listed, err = repo.ListActive(ctx, companyID)
	if err != nil {
		t.Fatalf("list after swap: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("expected old rows gone, got %d", len(listed))
	}
}

func TestPGRepository_ArchiveLifecycle(t *testing.T) {
	pool := startDatabase(t)
	ctx := context.Background()
	accountID, companyID := seedOwnedCompany(t, ctx, pool, "22222222000122")
	repo := NewRepository(pool)

	inserted, err := repo.ReplaceActive(ctx, companyID, []CreateRecordParams{
		{CaseNumber: "0001", Court: "TJSP", Division: "5ª Vara Cível", Phase: "Em andamento", Risk: RiskLow},
	})
	if err != nil {
		t.Fatalf("replace active: %v", err)
	}
	recordID := inserted[0].ID

	// Foreign accounts see not-found, not a permission error.
	if _, err := repo.Archive(ctx, "00000000-0000-0000-0000-000000000000", recordID, ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for a foreign account, got %v", err)
	}

	archived, err := repo.Archive(ctx, accountID, recordID, "resolved")
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if !archived.Archived || archived.ArchivedAt == nil {
		t.Fatalf("expected archived flags set, got %+v", archived)
	}
	if archived.ArchiveNotes == nil || *archived.ArchiveNotes != "resolved" {
		t.Fatalf("expected notes kept, got %v", archived.ArchiveNotes)
	}

	if _, err := repo.Archive(ctx, accountID, recordID, ""); !errors.Is(err, ErrAlreadyArchived) {
		t.Fatalf("expected ErrAlreadyArchived, got %v", err)
	}

	// Archived rows are invisible to the active view and survive replacement.
	listed, err := repo.ListActive(ctx, companyID)
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(listed) != 0 {
		t.Fatalf("expected no active records, got %d", len(listed))
	}
	if _, err := repo.ReplaceActive(ctx, companyID, nil); err != nil {
		t.Fatalf("replace with empty batch: %v", err)
	}
	var archivedCount int
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM lawsuits WHERE company_id=$1 AND archived`, companyID).Scan(&archivedCount); err != nil {
		t.Fatalf("count archived: %v", err)
	}
	if archivedCount != 1 {
		t.Fatalf("expected archived row to survive replacement, got %d", archivedCount)
	}
}

func TestPGRepository_ArchiveDefaultNotes(t *testing.T) {
	pool := startDatabase(t)
	ctx := context.Background()
	accountID, companyID := seedOwnedCompany(t, ctx, pool, "33333333000133")
	repo := NewRepository(pool)

	inserted, err := repo.ReplaceActive(ctx, companyID, []CreateRecordParams{
		{CaseNumber: "0001", Court: "TJSP", Division: "1ª Vara", Phase: "Em andamento", Risk: RiskLow},
	})
	if err != nil {
		t.Fatalf("replace active: %v", err)
	}

	archived, err := repo.Archive(ctx, accountID, inserted[0].ID, "")
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if archived.ArchiveNotes == nil || *archived.ArchiveNotes != "Archived by the account owner" {
		t.Fatalf("expected default notes, got %v", archived.ArchiveNotes)
	}
}

func TestPGRepository_Statistics(t *testing.T) {
	pool := startDatabase(t)
	ctx := context.Background()
	_, companyID := seedOwnedCompany(t, ctx, pool, "44444444000144")
	repo := NewRepository(pool)

	if _, err := repo.GetStatistics(ctx, companyID); !errors.Is(err, ErrStatsNotFound) {
		t.Fatalf("expected ErrStatsNotFound, got %v", err)
	}

	stats := Statistics{CompanyID: companyID, TotalCases: 10, LaborCases: 3, LaborPercentage: 30}
	if err := repo.UpsertStatistics(ctx, stats); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := repo.GetStatistics(ctx, companyID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.TotalCases != 10 || got.LaborCases != 3 || got.LaborPercentage != 30 {
		t.Fatalf("unexpected snapshot: %+v", got)
	}
	if got.UpdatedAt.IsZero() {
		t.Fatal("expected updated_at set by the database")
	}

	stats.TotalCases = 12
	if err := repo.UpsertStatistics(ctx, stats); err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	got, err = repo.GetStatistics(ctx, companyID)
	if err != nil {
		t.Fatalf("get after upsert: %v", err)
	}
	if got.TotalCases != 12 {
		t.Fatalf("expected refreshed snapshot, got %+v", got)
	}
}

func TestPGRepository_CompanyEnsureAndClaim(t *testing.T) {
	pool := startDatabase(t)
	ctx := context.Background()
	companies := company.NewRepository(pool)

	const taxID = "55555555000155"
	bare, err := companies.EnsureByTaxID(ctx, taxID)
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if bare.AccountID != nil {
		t.Fatalf("expected unclaimed row, got %v", bare.AccountID)
	}
	again, err := companies.EnsureByTaxID(ctx, taxID)
	if err != nil {
		t.Fatalf("second ensure: %v", err)
	}
	if again.ID != bare.ID {
		t.Fatalf("ensure must be idempotent: %q vs %q", bare.ID, again.ID)
	}

	account, err := auth.NewRepository(pool).CreateAccount(ctx, auth.CreateAccountParams{
		Email: "claim@example.com", Name: "Claimer", TaxID: taxID, PasswordHash: "x",
	})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}

	claimed, err := companies.Create(ctx, company.CreateParams{
		TaxID:     taxID,
		AccountID: &account.ID,
		Profile:   company.Profile{Name: "ACME"},
	})
	if err != nil {
		t.Fatalf("claim bare row: %v", err)
	}
	if claimed.ID != bare.ID {
		t.Fatalf("expected the bare row claimed in place, got new row %q", claimed.ID)
	}
	if claimed.AccountID == nil || *claimed.AccountID != account.ID {
		t.Fatalf("expected owner set, got %v", claimed.AccountID)
	}

	// A second claim on an owned row must fail.
	other, err := auth.NewRepository(pool).CreateAccount(ctx, auth.CreateAccountParams{
		Email: "other@example.com", Name: "Other", TaxID: taxID, PasswordHash: "x",
	})
	if err != nil {
		t.Fatalf("create other account: %v", err)
	}
	if _, err := companies.Create(ctx, company.CreateParams{
		TaxID:     taxID,
		AccountID: &other.ID,
		Profile:   company.Profile{Name: "Rival"},
	}); !errors.Is(err, company.ErrDuplicateTaxID) {
		t.Fatalf("expected ErrDuplicateTaxID, got %v", err)
	}
}
