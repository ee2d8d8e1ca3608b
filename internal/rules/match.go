// Package rules stores user-defined classification rules and applies
// them to uncategorised transactions.
package rules

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tallybook-dev/tallybook/internal/model"
)

var epsilon = decimal.RequireFromString("0.01")

// Matches reports whether a transaction satisfies every part of a rule:
// account filter, description conditions, amount predicate, and date
// window. The clock is injected so date-window evaluation is
// deterministic under test; callers pass time.Now() in production.
func Matches(r model.Rule, t model.Transaction, now time.Time) (bool, error) {
	if r.AccountID != "" && r.AccountID != t.AccountID {
		return false, nil
	}
	if !matchConditions(r.Conditions, t.Description) {
		return false, nil
	}
	ok, err := matchAmount(r, t.Amount())
	if err != nil || !ok {
		return false, err
	}
	return matchDate(r.DateWindow, t.Date, now)
}

// matchConditions evaluates description conditions left to right. The
// first is a bare substring test; each subsequent condition combines
// with the running result via its own AND/OR. Left-associative, no
// precedence grouping. An empty list matches trivially.
func matchConditions(conds []model.RuleCondition, description string) bool {
	if len(conds) == 0 {
		return true
	}

	result := matchSubstring(description, conds[0])
	for _, c := range conds[1:] {
		hit := matchSubstring(description, c)
		if c.Combinator == model.CombinatorOr {
			result = result || hit
		} else {
			result = result && hit
		}
	}
	return result
}

func matchSubstring(description string, c model.RuleCondition) bool {
	text := c.Text
	if !c.CaseSensitive {
		description = strings.ToLower(description)
		text = strings.ToLower(text)
	}
	return strings.Contains(description, text)
}

// matchAmount compares the rule's predicate against the absolute
// transaction amount.
func matchAmount(r model.Rule, amount decimal.Decimal) (bool, error) {
	switch r.AmountOp {
	case model.AmountAny, "":
		return true, nil
	case model.AmountEqual:
		return amount.Sub(r.AmountValue).Abs().LessThan(epsilon), nil
	case model.AmountGreater:
		return amount.GreaterThan(r.AmountValue), nil
	case model.AmountLess:
		return amount.LessThan(r.AmountValue), nil
	case model.AmountBetween:
		if r.AmountValue2.LessThan(r.AmountValue) {
			return false, fmt.Errorf("rule %d: between predicate has inverted bounds", r.ID)
		}
		return amount.GreaterThanOrEqual(r.AmountValue) && amount.LessThanOrEqual(r.AmountValue2), nil
	default:
		return false, fmt.Errorf("rule %d: unknown amount operator %q", r.ID, r.AmountOp)
	}
}

// matchDate applies the rule's date window relative to now.
func matchDate(window model.DateWindow, date, now time.Time) (bool, error) {
	switch window {
	case model.DateAny, "":
		return true, nil
	case model.DateLast30:
		return daysBetween(date, now) <= 30, nil
	case model.DateLast90:
		return daysBetween(date, now) <= 90, nil
	case model.DateYear:
		return date.Year() == now.Year(), nil
	default:
		return false, fmt.Errorf("unknown date window %q", window)
	}
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}
