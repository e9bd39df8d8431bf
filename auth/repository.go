package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrAccountNotFound signals that the account does not exist.
	ErrAccountNotFound = errors.New("auth: account not found")
	// ErrDuplicateEmail signals that the email is already registered.
	ErrDuplicateEmail = errors.New("auth: email already exists")
)

// Repository handles data access for accounts.
type Repository interface {
	CreateAccount(ctx context.Context, params CreateAccountParams) (Account, error)
	GetByEmail(ctx context.Context, email string) (Account, error)
	GetByID(ctx context.Context, accountID string) (Account, error)
	Delete(ctx context.Context, accountID string) error
}

// CreateAccountParams contains write parameters for creating accounts.
type CreateAccountParams struct {
	Email        string
	Name         string
	TaxID        string
	Phone        *string
	PasswordHash string
}

// PGRepository implements Repository backed by PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a PostgreSQL-backed account repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const accountColumns = `id, email, name, tax_id, phone, password_hash, created_at, updated_at`

// CreateAccount inserts a new account with hashed password.
func (r *PGRepository) CreateAccount(ctx context.Context, params CreateAccountParams) (Account, error) {
	const insertSQL = `
		INSERT INTO accounts (email, name, tax_id, phone, password_hash)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + accountColumns + `
	`

	account, err := scanAccount(r.pool.QueryRow(ctx, insertSQL, params.Email, params.Name, params.TaxID, params.Phone, params.PasswordHash))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Account{}, ErrDuplicateEmail
		}
		return Account{}, fmt.Errorf("auth: create account: %w", err)
	}
	return account, nil
}

// GetByEmail retrieves an account by email address.
func (r *PGRepository) GetByEmail(ctx context.Context, email string) (Account, error) {
	const selectSQL = `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE email = $1
	`

	account, err := scanAccount(r.pool.QueryRow(ctx, selectSQL, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrAccountNotFound
		}
		return Account{}, fmt.Errorf("auth: get account by email: %w", err)
	}
	return account, nil
}

// GetByID retrieves an account by ID.
func (r *PGRepository) GetByID(ctx context.Context, accountID string) (Account, error) {
	const selectSQL = `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE id = $1
	`

	account, err := scanAccount(r.pool.QueryRow(ctx, selectSQL, accountID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrAccountNotFound
		}
		return Account{}, fmt.Errorf("auth: get account by id: %w", err)
	}
	return account, nil
}

// Delete removes an account. It backs the compensating cleanup when company
// creation fails halfway through registration.
func (r *PGRepository) Delete(ctx context.Context, accountID string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, accountID); err != nil {
		return fmt.Errorf("auth: delete account: %w", err)
	}
	return nil
}

func scanAccount(row pgx.Row) (Account, error) {
	var (
		account Account
		phone   *string
	)
	err := row.Scan(
		&account.ID,
		&account.Email,
		&account.Name,
		&account.TaxID,
		&phone,
		&account.PasswordHash,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return Account{}, err
	}
	account.Phone = phone
	return account, nil
}
