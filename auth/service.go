package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"litigio/company"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials signals wrong email or password.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrWeakPassword signals password doesn't meet requirements.
	ErrWeakPassword = errors.New("auth: password must be at least 8 characters")
	// ErrDuplicateTaxID signals the tax id already belongs to an account.
	ErrDuplicateTaxID = errors.New("auth: tax id already registered")
)

// Registry looks company metadata up in the external registry. Failures are
// non-fatal to registration.
type Registry interface {
	FetchCompany(ctx context.Context, taxID string) (company.Profile, error)
}

// CompanyStore is the slice of the company repository registration needs.
type CompanyStore interface {
	GetByTaxID(ctx context.Context, taxID string) (company.Company, error)
	Create(ctx context.Context, params company.CreateParams) (company.Company, error)
}

// Service handles authentication and registration business logic.
type Service struct {
	repo      Repository
	companies CompanyStore
	registry  Registry
	jwtSecret []byte
}

// RegisterResult bundles the freshly created account and its company.
type RegisterResult struct {
	Account Account
	Company company.Company
}

// LoginResult bundles the token, account and company returned after a
// successful login.
type LoginResult struct {
	Token   string
	Account Account
	Company *company.Company
}

// NewService creates a new authentication service.
func NewService(repo Repository, companies CompanyStore, registry Registry, jwtSecret string) *Service {
	return &Service{
		repo:      repo,
		companies: companies,
		registry:  registry,
		jwtSecret: []byte(jwtSecret),
	}
}

// Register creates a new account and its associated company, enriching the
// company from the external registry when reachable. A company-creation
// failure after the account insert triggers a best-effort compensating
// account delete.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (RegisterResult, error) {
	if len(req.Password) < 8 {
		return RegisterResult{}, ErrWeakPassword
	}
	if req.Email == "" || req.Name == "" {
		return RegisterResult{}, fmt.Errorf("auth: email and name are required")
	}

	taxID, err := company.ValidateTaxID(req.TaxID)
	if err != nil {
		return RegisterResult{}, err
	}

	// Reject tax ids already claimed by another account. A bare company row
	// from a public lookup does not count as registered.
	if existing, err := s.companies.GetByTaxID(ctx, taxID); err == nil && existing.AccountID != nil {
		return RegisterResult{}, ErrDuplicateTaxID
	} else if err != nil && !errors.Is(err, company.ErrNotFound) {
		return RegisterResult{}, err
	}

	profile := company.Profile{Name: "Empresa " + taxID}
	if s.registry != nil {
		if fetched, err := s.registry.FetchCompany(ctx, taxID); err != nil {
			log.Printf("auth: registry lookup for %s: %v", taxID, err)
		} else if fetched.Name != "" {
			profile = fetched
		}
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return RegisterResult{}, fmt.Errorf("auth: hash password: %w", err)
	}

	var phone *string
	if req.Phone != "" {
		phone = &req.Phone
	}

	account, err := s.repo.CreateAccount(ctx, CreateAccountParams{
		Email:        req.Email,
		Name:         req.Name,
		TaxID:        taxID,
		Phone:        phone,
		PasswordHash: string(passwordHash),
	})
	if err != nil {
		return RegisterResult{}, err
	}

	comp, err := s.companies.Create(ctx, company.CreateParams{
		TaxID:     taxID,
		AccountID: &account.ID,
		Profile:   profile,
	})
	if err != nil {
		// Compensating cleanup; its own failure is logged, not surfaced.
		if delErr := s.repo.Delete(ctx, account.ID); delErr != nil {
			log.Printf("auth: compensating account delete for %s: %v", account.ID, delErr)
		}
		if errors.Is(err, company.ErrDuplicateTaxID) {
			return RegisterResult{}, ErrDuplicateTaxID
		}
		return RegisterResult{}, err
	}

	return RegisterResult{Account: account, Company: comp}, nil
}

// Login authenticates an account and returns a JWT token plus the associated
// company when one exists.
func (s *Service) Login(ctx context.Context, req LoginRequest) (LoginResult, error) {
	account, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)); err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}

	token, err := s.generateToken(account.ID)
	if err != nil {
		return LoginResult{}, fmt.Errorf("auth: generate token: %w", err)
	}

	result := LoginResult{Token: token, Account: account}
	if comp, err := s.companies.GetByTaxID(ctx, account.TaxID); err == nil {
		result.Company = &comp
	} else if !errors.Is(err, company.ErrNotFound) {
		return LoginResult{}, err
	}

	return result, nil
}

// GetAccountByID retrieves account information by ID.
func (s *Service) GetAccountByID(ctx context.Context, accountID string) (Account, error) {
	return s.repo.GetByID(ctx, accountID)
}

// VerifyToken validates a JWT token and returns the account ID.
func (s *Service) VerifyToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return "", fmt.Errorf("auth: parse token: %w", err)
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		accountID, ok := claims["account_id"].(string)
		if !ok {
			return "", fmt.Errorf("auth: invalid account_id in token")
		}
		return accountID, nil
	}

	return "", fmt.Errorf("auth: invalid token")
}

// generateToken creates a JWT token for the account.
func (s *Service) generateToken(accountID string) (string, error) {
	claims := jwt.MapClaims{
		"account_id": accountID,
		"exp":        time.Now().Add(24 * time.Hour).Unix(), // Token expires in 24 hours
		"iat":        time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}
