package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Classification is the single mutually-exclusive state a transaction is
// in from the presentation layer's point of view.
type Classification string

const (
	Uncategorised    Classification = "uncategorised"
	Categorised      Classification = "categorised"
	InternalTransfer Classification = "internal_transfer"
	Hidden           Classification = "hidden"
)

// Transaction is an imported bank transaction. At most one of
// Withdrawal/Deposit is nonzero; CategoryID and IsInternalTransfer are
// mutually exclusive — mutate classification through Categorise,
// MarkInternalTransfer, and Uncategorise rather than the fields.
type Transaction struct {
	ID              int64
	Date            time.Time
	AccountID       string
	Description     string
	Withdrawal      decimal.Decimal // >= 0
	Deposit         decimal.Decimal // >= 0
	CategoryID      string          // empty = unassigned; references a leaf category
	TaxLabel        TaxLabel
	TaxDeductible   bool
	IsHidden        bool
	IsMatched       bool
	IsTransfer      bool
	ExternalBalance *decimal.Decimal // balance as reported by the source, if any
	ExternalID      string           // source-provided dedup key, if any
}

// Net returns the signed amount (deposit - withdrawal).
func (t Transaction) Net() decimal.Decimal {
	return t.Deposit.Sub(t.Withdrawal)
}

// Amount returns the absolute value of the nonzero side, the quantity
// rule amount predicates compare against.
func (t Transaction) Amount() decimal.Decimal {
	if !t.Withdrawal.IsZero() {
		return t.Withdrawal.Abs()
	}
	return t.Deposit.Abs()
}

// Classification reports the transaction's current state. Hidden takes
// precedence over the other states for presentation purposes.
func (t Transaction) Classification() Classification {
	switch {
	case t.IsHidden:
		return Hidden
	case t.IsTransfer:
		return InternalTransfer
	case t.CategoryID != "":
		return Categorised
	default:
		return Uncategorised
	}
}

// Categorise assigns a category and clears any transfer marking.
func (t *Transaction) Categorise(categoryID string) {
	t.CategoryID = categoryID
	t.IsTransfer = false
	t.IsMatched = false
}

// MarkInternalTransfer flags the transaction as one side of an internal
// transfer, clearing any category assignment.
func (t *Transaction) MarkInternalTransfer() {
	t.CategoryID = ""
	t.IsTransfer = true
	t.IsMatched = true
}

// Uncategorise clears both category assignment and transfer marking.
func (t *Transaction) Uncategorise() {
	t.CategoryID = ""
	t.IsTransfer = false
	t.IsMatched = false
}
