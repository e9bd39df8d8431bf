package oracles

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Oracle struct {
	Name string
	SQL  string
}

func All() []Oracle {
	return []Oracle{
		{
			Name: "O1_company_taxid_unique",
			SQL: `SELECT tax_id, COUNT(*) FROM companies
                  GROUP BY tax_id HAVING COUNT(*) > 1`,
		},
		{
			Name: "O2_archive_consistency",
			SQL: `SELECT id FROM lawsuits
                  WHERE (archived AND archived_at IS NULL)
                     OR (NOT archived AND archived_at IS NOT NULL)`,
		},
		{
			Name: "O3_stats_bounds",
			SQL: `SELECT company_id FROM lawsuit_statistics
                  WHERE labor_cases > total_cases
                     OR labor_cases < 0
                     OR labor_percentage < 0
                     OR labor_percentage > 100`,
		},
		{
			Name: "O4_case_number_present",
			SQL:  `SELECT id FROM lawsuits WHERE case_number = ''`,
		},
		{
			Name: "O5_risk_vocabulary",
			SQL:  `SELECT id, risk FROM lawsuits WHERE risk NOT IN ('Baixo','Médio','Alto')`,
		},
	}
}

// Run executes all oracles and returns the first failure (name and sample row text) or empty name if all pass.
func Run(ctx context.Context, pool *pgxpool.Pool) (string, string, error) {
	for _, o := range All() {
		rows, err := pool.Query(ctx, o.SQL)
		if err != nil {
			return o.Name, "", fmt.Errorf("oracle %s: %w", o.Name, err)
		}
		has := rows.Next()
		if has {
			vals, err := rows.Values()
			rows.Close()
			if err != nil {
				return o.Name, "", err
			}
			return o.Name, fmt.Sprintf("%v", vals), nil
		}
		rows.Close()
	}
	return "", "", nil
}
