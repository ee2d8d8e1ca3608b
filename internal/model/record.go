package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// SourceRecord is the normalized transaction record produced by file
// format parsers and consumed by the import pipeline.
type SourceRecord struct {
	Date            time.Time
	Amount          decimal.Decimal // signed: negative = withdrawal
	Payee           string
	Memo            string
	ExternalID      string           // bank-supplied reference, if any
	ExternalBalance *decimal.Decimal // running balance, if reported
}

// Description derives the stored transaction description. QIF-style
// sources append the memo after the payee.
func (r SourceRecord) Description() string {
	if r.Memo != "" {
		return r.Payee + " - " + r.Memo
	}
	return r.Payee
}

// Withdrawal returns the positive withdrawal amount, zero for deposits.
func (r SourceRecord) Withdrawal() decimal.Decimal {
	if r.Amount.IsNegative() {
		return r.Amount.Neg()
	}
	return decimal.Zero
}

// Deposit returns the positive deposit amount, zero for withdrawals.
func (r SourceRecord) Deposit() decimal.Decimal {
	if r.Amount.IsPositive() {
		return r.Amount
	}
	return decimal.Zero
}
