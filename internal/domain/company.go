package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Exchange identifies the listing venue of a security
type Exchange string

const (
	ExchangeNYSE   Exchange = "NYSE"
	ExchangeNasdaq Exchange = "NASDAQ"
	ExchangeAMEX   Exchange = "AMEX"
	ExchangeOTC    Exchange = "OTC"
	ExchangeOther  Exchange = "OTHER"
)

// CompanyStatus tracks the listing lifecycle of a company.
// ACTIVE is the only creation state; the others are terminal transitions.
type CompanyStatus string

const (
	StatusActive    CompanyStatus = "ACTIVE"
	StatusDelisted  CompanyStatus = "DELISTED"
	StatusSuspended CompanyStatus = "SUSPENDED"
	StatusAcquired  CompanyStatus = "ACQUIRED"
	StatusBankrupt  CompanyStatus = "BANKRUPT"
)

// Company is a registrant from the SEC company directory
type Company struct {
	CIK       string
	Symbol    string
	Name      string
	Exchange  Exchange
	Status    CompanyStatus
	Sector    string
	Industry  string
	CreatedAt time.Time
	UpdatedAt *time.Time
}

// NewCompany builds a validated company. The CIK is zero-padded to 10 digits
// and the symbol is normalized.
func NewCompany(cik, symbol, name string) (Company, error) {
	formatted, err := FormatCIK(cik)
	if err != nil {
		return Company{}, err
	}
	symbol = NormalizeSymbol(symbol)
	if symbol == "" {
		return Company{}, fmt.Errorf("company symbol is required")
	}
	if name == "" {
		return Company{}, fmt.Errorf("company name is required")
	}

	return Company{
		CIK:       formatted,
		Symbol:    symbol,
		Name:      name,
		Exchange:  ExchangeOther,
		Status:    StatusActive,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Validate checks the company invariants
func (c Company) Validate() error {
	if !IsValidCIK(c.CIK) {
		return fmt.Errorf("invalid CIK %q: must be 10 digits", c.CIK)
	}
	if c.Symbol == "" {
		return fmt.Errorf("company symbol is required")
	}
	if c.Name == "" {
		return fmt.Errorf("company name is required")
	}
	return nil
}

// Touch stamps the update time
func (c *Company) Touch() {
	now := time.Now().UTC()
	c.UpdatedAt = &now
}

// NormalizeSymbol converts a ticker to its canonical form:
// uppercased, trimmed, class separators as dots (BRK-B -> BRK.B)
func NormalizeSymbol(symbol string) string {
	return strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(symbol)), "-", ".")
}

// FormatCIK zero-pads a numeric CIK to the fixed 10-digit form used by SEC
func FormatCIK(cik string) (string, error) {
	cik = strings.TrimSpace(cik)
	n, err := strconv.ParseUint(cik, 10, 64)
	if err != nil {
		return "", fmt.Errorf("invalid CIK format: %q", cik)
	}
	formatted := fmt.Sprintf("%010d", n)
	if len(formatted) != 10 {
		return "", fmt.Errorf("invalid CIK format: %q", cik)
	}
	return formatted, nil
}

// IsValidCIK reports whether s is exactly 10 digits
func IsValidCIK(s string) bool {
	if len(s) != 10 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
