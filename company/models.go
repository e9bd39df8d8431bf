package company

import "time"

// Company is the domain representation of a registered company. It mirrors the
// companies table and should not include JSON annotations so it can be reused
// by different presentation layers.
type Company struct {
	ID        string
	TaxID     string
	AccountID *string
	Name      string
	LegalName string
	Address   string
	Phone     string
	Email     string
	CreatedAt time.Time
}

// Profile carries the registry metadata pulled from the external API during
// registration. All fields are optional; the lookup is best-effort.
type Profile struct {
	Name      string
	LegalName string
	Address   string
	Phone     string
	Email     string
}
