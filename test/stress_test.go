package test

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"litigio/company"
	"litigio/lawsuit"
	"litigio/test/actors"
	"litigio/test/chaos"
	"litigio/test/infra"
	"litigio/test/oracles"
)

var (
	flDuration    = flag.Duration("duration", 90*time.Second, "how long to run stress")
	flConcurrency = flag.Int("concurrency", 8, "number of concurrent actors")
	flSeed        = flag.Int64("seed", time.Now().UnixNano(), "random seed")
	flDSN         = flag.String("dsn", "", "existing Postgres DSN to reuse (avoids Docker)")
)

func seedRNG(seed int64) { rand.Seed(seed) }

func TestLawsuitConcurrency(t *testing.T) {
	flag.Parse()
	seed := *flSeed
	seedRNG(seed)

	var (
		pgC        *infra.PGContainer
		dsn        string
		err        error
		usedShared bool
	)
	ctx, cancel := context.WithTimeout(context.Background(), *flDuration+60*time.Second)
	defer cancel()

	switch {
	case *flDSN != "":
		dsn = *flDSN
		usedShared = true
		pgC = &infra.PGContainer{}
	case os.Getenv("STRESS_TEST_PG_DSN") != "":
		dsn = os.Getenv("STRESS_TEST_PG_DSN")
		usedShared = true
		pgC = &infra.PGContainer{}
	default:
		if dockerAvailable(ctx) {
			pgC, dsn, err = infra.StartPostgres16(ctx, "")
			if err != nil {
				t.Fatalf("start postgres: %v", err)
			}
		} else {
			dsn, err = infra.InitLocalDatabase(ctx)
			if err != nil {
				t.Fatalf("init local database: %v", err)
			}
			pgC = &infra.PGContainer{}
		}
	}
	defer pgC.Terminate(context.Background())

	// migrations
	pool, teardown, err := infra.ApplyMigrations(ctx, dsn, usedShared)
	if err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	defer pool.Close()
	defer func() {
		if err := teardown(context.Background()); err != nil {
			t.Logf("teardown warning: %v", err)
		}
	}()

	// seed minimal data
	seedData := mustSeed(t, ctx, pool)

	lawsuitRepo := lawsuit.NewRepository(pool)
	companyRepo := company.NewRepository(pool)

	// run actors
	g, ctx2 := errgroup.WithContext(ctx)
	stop := make(chan struct{})

	// refreshers and archivers battling over the same company's active rows
	for i := 0; i < *flConcurrency; i++ {
		g.Go(func() error {
			return actors.Refresher(ctx2, lawsuitRepo, seedData.companyID, seedData.taxID, stop)
		})
		g.Go(func() error {
			return actors.Archiver(ctx2, pool, lawsuitRepo, seedData.accountID, seedData.companyID, stop)
		})
	}

	// statistics writer
	g.Go(func() error { return actors.StatsWriter(ctx2, lawsuitRepo, seedData.companyID, seedData.taxID, stop) })
	// concurrent public lookups racing to create the same company row
	for i := 0; i < *flConcurrency; i++ {
		g.Go(func() error { return actors.Registrar(ctx2, companyRepo, seedData.publicTaxID, stop) })
	}
	// chaos: kill random backend
	go chaos.TerminateRandomBackend(ctx2, pool, "", stop)

	// schedule oracle checks until duration reached
	deadline := time.Now().Add(*flDuration)
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	var failed bool
loop:
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			break loop
		case <-ticker.C:
			name, row, err := oracles.Run(ctx2, pool)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					break loop
				}
				t.Fatalf("oracle error: %v", err)
			}
			if name != "" {
				failed = true
				dumpRecent(t, ctx2, pool)
				t.Fatalf("Oracle %s failed. First row: %s (seed=%d)", name, row, seed)
			}
		}
	}

	close(stop)
	if err := g.Wait(); err != nil && !failed {
		if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("actors errored: %v", err)
		}
	}
}

func dockerAvailable(ctx context.Context) bool {
	if _, err := exec.LookPath("docker"); err != nil {
		return false
	}
	c := exec.CommandContext(ctx, "docker", "info")
	c.Stdout = io.Discard
	c.Stderr = io.Discard
	return c.Run() == nil
}

type seedIDs struct {
	accountID   string
	companyID   string
	taxID       string
	publicTaxID string
}

func mustSeed(t *testing.T, ctx context.Context, pool *pgxpool.Pool) seedIDs {
	t.Helper()
	s := seedIDs{
		taxID:       fmt.Sprintf("%014d", rand.Int63n(99999999999999)),
		publicTaxID: fmt.Sprintf("%014d", rand.Int63n(99999999999999)),
	}
	// account
	if err := pool.QueryRow(ctx, `INSERT INTO accounts (email, name, tax_id, password_hash) VALUES ($1,$2,$3,'x') RETURNING id`,
		fmt.Sprintf("u%d@example.com", rand.Int63()), "Stress User", s.taxID).Scan(&s.accountID); err != nil {
		t.Fatalf("seed account: %v", err)
	}
	// claimed company
	if err := pool.QueryRow(ctx, `INSERT INTO companies (tax_id, account_id, name) VALUES ($1,$2,$3) RETURNING id`,
		s.taxID, s.accountID, "Stress Company").Scan(&s.companyID); err != nil {
		t.Fatalf("seed company: %v", err)
	}
	return s
}

func dumpRecent(t *testing.T, ctx context.Context, pool *pgxpool.Pool) {
	t.Helper()
	type dump struct {
		name string
		sql  string
	}
	dumps := []dump{
		{"lawsuits", `SELECT id, company_id, case_number, risk, archived, created_at FROM lawsuits ORDER BY created_at DESC LIMIT 50`},
		{"companies", `SELECT id, tax_id, account_id, created_at FROM companies ORDER BY created_at DESC LIMIT 50`},
		{"lawsuit_statistics", `SELECT company_id, total_cases, labor_cases, labor_percentage, updated_at FROM lawsuit_statistics ORDER BY updated_at DESC LIMIT 50`},
	}
	for _, d := range dumps {
		rows, err := pool.Query(ctx, d.sql)
		if err != nil {
			t.Logf("dump %s error: %v", d.name, err)
			continue
		}
		cols := rows.FieldDescriptions()
		t.Logf("-- %s --", d.name)
		for rows.Next() {
			vals, _ := rows.Values()
			// compact print
			buf := make([]any, 0, len(vals))
			for i := range vals {
				buf = append(buf, fmt.Sprintf("%s=%v", string(cols[i].Name), vals[i]))
			}
			t.Logf("%s", buf)
		}
		rows.Close()
	}
}
