package rules

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallybook-dev/tallybook/internal/model"
)

var now = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func txn(description, withdrawal string) model.Transaction {
	return model.Transaction{
		Date:        now.AddDate(0, 0, -5),
		AccountID:   "1.1.1",
		Description: description,
		Withdrawal:  dec(withdrawal),
		Deposit:     decimal.Zero,
	}
}

func cond(combinator model.Combinator, text string, caseSensitive bool) model.RuleCondition {
	return model.RuleCondition{Combinator: combinator, Text: text, CaseSensitive: caseSensitive}
}

func TestMatches_SingleCondition(t *testing.T) {
	r := model.Rule{
		Target:     model.CategoryTarget("5.3"),
		Conditions: []model.RuleCondition{cond(model.CombinatorNone, "COFFEE", false)},
		AmountOp:   model.AmountBetween,
		AmountValue: dec("50"), AmountValue2: dec("100"),
		DateWindow: model.DateAny,
	}

	ok, err := Matches(r, txn("COFFEE SHOP", "75.00"), now)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMatches_EmptyConditionsMatchTrivially(t *testing.T) {
	r := model.Rule{Target: model.CategoryTarget("5.3"), AmountOp: model.AmountAny, DateWindow: model.DateAny}

	ok, err := Matches(r, txn("ANYTHING", "10.00"), now)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMatches_CaseSensitivity(t *testing.T) {
	insensitive := model.Rule{
		Conditions: []model.RuleCondition{cond(model.CombinatorNone, "coffee", false)},
		AmountOp:   model.AmountAny, DateWindow: model.DateAny,
	}
	sensitive := model.Rule{
		Conditions: []model.RuleCondition{cond(model.CombinatorNone, "coffee", true)},
		AmountOp:   model.AmountAny, DateWindow: model.DateAny,
	}

	ok, err := Matches(insensitive, txn("COFFEE SHOP", "5.00"), now)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Matches(sensitive, txn("COFFEE SHOP", "5.00"), now)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMatches_LeftAssociativeCombinators(t *testing.T) {
	// (("COFFEE" AND "AIRPORT") OR "BAKERY") — left associative, no
	// precedence grouping.
	r := model.Rule{
		Conditions: []model.RuleCondition{
			cond(model.CombinatorNone, "COFFEE", false),
			cond(model.CombinatorAnd, "AIRPORT", false),
			cond(model.CombinatorOr, "BAKERY", false),
		},
		AmountOp: model.AmountAny, DateWindow: model.DateAny,
	}

	cases := []struct {
		description string
		want        bool
	}{
		{"COFFEE AT THE AIRPORT", true},
		{"LOCAL BAKERY", true},
		{"COFFEE DOWNTOWN", false},
		{"COFFEE BAKERY", true},
	}
	for _, tc := range cases {
		ok, err := Matches(r, txn(tc.description, "5.00"), now)
		require.NoError(t, err)
		assert.Equal(t, tc.want, ok, tc.description)
	}
}

func TestMatches_AmountPredicates(t *testing.T) {
	cases := []struct {
		name   string
		op     model.AmountOperator
		v1, v2 string
		amount string
		want   bool
	}{
		{"any", model.AmountAny, "0", "0", "123.45", true},
		{"equal within cent", model.AmountEqual, "75.00", "0", "75.009", true},
		{"equal outside cent", model.AmountEqual, "75.00", "0", "75.02", false},
		{"greater strict", model.AmountGreater, "75.00", "0", "75.00", false},
		{"greater", model.AmountGreater, "75.00", "0", "75.01", true},
		{"less strict", model.AmountLess, "75.00", "0", "75.00", false},
		{"less", model.AmountLess, "75.00", "0", "74.99", true},
		{"between inclusive low", model.AmountBetween, "50", "100", "50.00", true},
		{"between inclusive high", model.AmountBetween, "50", "100", "100.00", true},
		{"between outside", model.AmountBetween, "50", "100", "100.01", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := model.Rule{
				AmountOp:    tc.op,
				AmountValue: dec(tc.v1), AmountValue2: dec(tc.v2),
				DateWindow: model.DateAny,
			}
			ok, err := Matches(r, txn("X", tc.amount), now)
			require.NoError(t, err)
			assert.Equal(t, tc.want, ok)
		})
	}
}

func TestMatches_AmountUsesAbsoluteValue(t *testing.T) {
	r := model.Rule{
		AmountOp:    model.AmountEqual,
		AmountValue: dec("75.00"),
		DateWindow:  model.DateAny,
	}

	deposit := model.Transaction{
		Date:        now,
		AccountID:   "1.1.1",
		Description: "REFUND",
		Withdrawal:  decimal.Zero,
		Deposit:     dec("75.00"),
	}
	ok, err := Matches(r, deposit, now)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMatches_DateWindows(t *testing.T) {
	r := func(w model.DateWindow) model.Rule {
		return model.Rule{AmountOp: model.AmountAny, DateWindow: w}
	}
	at := func(d time.Time) model.Transaction {
		txn := txn("X", "1.00")
		txn.Date = d
		return txn
	}

	ok, _ := Matches(r(model.DateLast30), at(now.AddDate(0, 0, -29)), now)
	assert.True(t, ok)
	ok, _ = Matches(r(model.DateLast30), at(now.AddDate(0, 0, -31)), now)
	assert.False(t, ok)

	ok, _ = Matches(r(model.DateLast90), at(now.AddDate(0, 0, -89)), now)
	assert.True(t, ok)
	ok, _ = Matches(r(model.DateLast90), at(now.AddDate(0, 0, -91)), now)
	assert.False(t, ok)

	ok, _ = Matches(r(model.DateYear), at(time.Date(now.Year(), 1, 1, 0, 0, 0, 0, time.UTC)), now)
	assert.True(t, ok)
	ok, _ = Matches(r(model.DateYear), at(time.Date(now.Year()-1, 12, 31, 0, 0, 0, 0, time.UTC)), now)
	assert.False(t, ok)
}

func TestMatches_AccountFilter(t *testing.T) {
	r := model.Rule{AccountID: "1.1.2", AmountOp: model.AmountAny, DateWindow: model.DateAny}

	ok, err := Matches(r, txn("X", "1.00"), now) // account 1.1.1
	require.NoError(t, err)
	assert.False(t, ok)

	matching := txn("X", "1.00")
	matching.AccountID = "1.1.2"
	ok, err = Matches(r, matching, now)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMatches_MalformedRule(t *testing.T) {
	inverted := model.Rule{
		AmountOp:    model.AmountBetween,
		AmountValue: dec("100"), AmountValue2: dec("50"),
		DateWindow: model.DateAny,
	}
	_, err := Matches(inverted, txn("X", "75.00"), now)
	require.Error(t, err)

	unknown := model.Rule{AmountOp: "Roughly", DateWindow: model.DateAny}
	_, err = Matches(unknown, txn("X", "75.00"), now)
	require.Error(t, err)
}
