package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is the bank-account extension of a leaf category flagged
// IsAccount. It shares its ID with that category.
type Account struct {
	ID             string
	Name           string
	AccountNumber  string
	BSB            string
	BankName       string
	CurrentBalance decimal.Decimal // cached; recomputable from transactions
	LastImportAt   *time.Time
	Notes          string
}
