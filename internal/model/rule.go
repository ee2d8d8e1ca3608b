package model

import "github.com/shopspring/decimal"

// Combinator joins a description condition with the running boolean
// result of the conditions before it. The first condition has none.
type Combinator string

const (
	CombinatorNone Combinator = ""
	CombinatorAnd  Combinator = "AND"
	CombinatorOr   Combinator = "OR"
)

// RuleCondition is one substring test against a transaction description.
type RuleCondition struct {
	Combinator    Combinator
	Text          string
	CaseSensitive bool
}

// AmountOperator selects how a rule compares against the absolute
// transaction amount.
type AmountOperator string

const (
	AmountAny     AmountOperator = "Any"
	AmountEqual   AmountOperator = "Equal to"
	AmountGreater AmountOperator = "Greater than"
	AmountLess    AmountOperator = "Less than"
	AmountBetween AmountOperator = "Between"
)

// DateWindow restricts a rule to recent transactions, evaluated against
// the clock passed to the matcher, not import time. A rule's effect on
// the same transaction can therefore flip as time passes; that is the
// intended semantics.
type DateWindow string

const (
	DateAny    DateWindow = "Any"
	DateLast30 DateWindow = "Last 30 days"
	DateLast90 DateWindow = "Last 90 days"
	DateYear   DateWindow = "This year"
)

// RuleTarget is the tagged outcome of a matching rule: either a leaf
// category assignment or the internal-transfer marker. Exactly one
// variant is set.
type RuleTarget struct {
	Transfer   bool
	CategoryID string
}

// CategoryTarget returns a target assigning the given leaf category.
func CategoryTarget(categoryID string) RuleTarget {
	return RuleTarget{CategoryID: categoryID}
}

// TransferTarget returns the internal-transfer marker target.
func TransferTarget() RuleTarget {
	return RuleTarget{Transfer: true}
}

// Rule is a user-defined auto-classification rule. Rules are evaluated
// in ascending ID order; the first full match wins per transaction.
type Rule struct {
	ID            int64
	Target        RuleTarget
	Conditions    []RuleCondition
	AmountOp      AmountOperator
	AmountValue   decimal.Decimal // unused for Any
	AmountValue2  decimal.Decimal // upper bound for Between
	AccountID     string          // empty = any account
	DateWindow    DateWindow
	ApplyToFuture bool
}
