package company

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound signals the requested company does not exist.
	ErrNotFound = errors.New("company: not found")
	// ErrDuplicateTaxID signals the tax id is already registered.
	ErrDuplicateTaxID = errors.New("company: tax id already exists")
)

// Repository handles data access for companies.
type Repository interface {
	GetByTaxID(ctx context.Context, taxID string) (Company, error)
	GetByAccountID(ctx context.Context, accountID string) (Company, error)
	EnsureByTaxID(ctx context.Context, taxID string) (Company, error)
	Create(ctx context.Context, params CreateParams) (Company, error)
}

// CreateParams contains write parameters for registering a company.
type CreateParams struct {
	TaxID     string
	AccountID *string
	Profile   Profile
}

// PGRepository implements Repository backed by PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository wires a pgxpool-backed repository implementation.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const companyColumns = `id, tax_id, account_id, name, legal_name, address, phone, email, created_at`

// GetByTaxID fetches a company by its normalized 14-digit tax id.
func (r *PGRepository) GetByTaxID(ctx context.Context, taxID string) (Company, error) {
	const query = `
		SELECT ` + companyColumns + `
		FROM companies
		WHERE tax_id = $1
	`

	c, err := scanCompany(r.pool.QueryRow(ctx, query, taxID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Company{}, ErrNotFound
		}
		return Company{}, fmt.Errorf("company: get by tax id: %w", err)
	}
	return c, nil
}

// GetByAccountID fetches the company owned by an account.
func (r *PGRepository) GetByAccountID(ctx context.Context, accountID string) (Company, error) {
	const query = `
		SELECT ` + companyColumns + `
		FROM companies
		WHERE account_id = $1
	`

	c, err := scanCompany(r.pool.QueryRow(ctx, query, accountID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Company{}, ErrNotFound
		}
		return Company{}, fmt.Errorf("company: get by account id: %w", err)
	}
	return c, nil
}

// EnsureByTaxID returns the company for taxID, creating a bare row with empty
// metadata on first lookup. At most one row exists per tax id; a concurrent
// insert race resolves to the surviving row.
func (r *PGRepository) EnsureByTaxID(ctx context.Context, taxID string) (Company, error) {
	c, err := r.GetByTaxID(ctx, taxID)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Company{}, err
	}

	const insertSQL = `
		INSERT INTO companies (tax_id, name)
		VALUES ($1, $2)
		RETURNING ` + companyColumns + `
	`

	c, err = scanCompany(r.pool.QueryRow(ctx, insertSQL, taxID, "Empresa "+taxID))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return r.GetByTaxID(ctx, taxID)
		}
		return Company{}, fmt.Errorf("company: ensure by tax id: %w", err)
	}
	return c, nil
}

// Create registers a company with its registry profile and owning account.
// A bare row left behind by a public tax-id lookup is claimed in place; a row
// already owned by another account yields ErrDuplicateTaxID.
func (r *PGRepository) Create(ctx context.Context, params CreateParams) (Company, error) {
	const insertSQL = `
		INSERT INTO companies (tax_id, account_id, name, legal_name, address, phone, email)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (tax_id) DO UPDATE
		SET account_id = EXCLUDED.account_id,
		    name = EXCLUDED.name,
		    legal_name = EXCLUDED.legal_name,
		    address = EXCLUDED.address,
		    phone = EXCLUDED.phone,
		    email = EXCLUDED.email
		WHERE companies.account_id IS NULL
		RETURNING ` + companyColumns + `
	`

	c, err := scanCompany(r.pool.QueryRow(ctx, insertSQL,
		params.TaxID,
		params.AccountID,
		params.Profile.Name,
		params.Profile.LegalName,
		params.Profile.Address,
		params.Profile.Phone,
		params.Profile.Email,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Company{}, ErrDuplicateTaxID
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Company{}, ErrDuplicateTaxID
		}
		return Company{}, fmt.Errorf("company: create: %w", err)
	}
	return c, nil
}

func scanCompany(row pgx.Row) (Company, error) {
	var (
		c         Company
		accountID *string
	)
	err := row.Scan(
		&c.ID,
		&c.TaxID,
		&accountID,
		&c.Name,
		&c.LegalName,
		&c.Address,
		&c.Phone,
		&c.Email,
		&c.CreatedAt,
	)
	if err != nil {
		return Company{}, err
	}
	c.AccountID = accountID
	return c, nil
}
