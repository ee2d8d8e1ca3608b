package rules

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallybook-dev/tallybook/internal/category"
	"github.com/tallybook-dev/tallybook/internal/model"
	"github.com/tallybook-dev/tallybook/internal/store"
)

// newTestService seeds the category roots, an account leaf and three
// expense leaves (5.1 Groceries, 5.2 Transport, 5.3 Coffee).
func newTestService(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "tallybook.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	cats, err := category.NewService(st)
	require.NoError(t, err)

	_, err = cats.Insert("Everyday", "1.1", model.KindLeaf, model.TaxNone, true)
	require.NoError(t, err)
	for _, name := range []string{"Groceries", "Transport", "Coffee"} {
		_, err := cats.Insert(name, "5", model.KindLeaf, model.TaxGST, false)
		require.NoError(t, err)
	}
	return NewService(st), st
}

func insertTxn(t *testing.T, st *store.Store, date time.Time, description, withdrawal, deposit string) int64 {
	t.Helper()
	id, err := store.InsertTransaction(st.DB(), model.Transaction{
		Date:        date,
		AccountID:   "1.1.1",
		Description: description,
		Withdrawal:  decimal.RequireFromString(withdrawal),
		Deposit:     decimal.RequireFromString(deposit),
	})
	require.NoError(t, err)
	return id
}

func getTxn(t *testing.T, st *store.Store, id int64) model.Transaction {
	t.Helper()
	txn, err := store.ScanTransaction(st.DB().QueryRow(
		`SELECT `+store.TransactionColumns+` FROM transactions WHERE id = ?`, id))
	require.NoError(t, err)
	return txn
}

func coffeeRule() model.Rule {
	return model.Rule{
		Target: model.CategoryTarget("5.3"),
		Conditions: []model.RuleCondition{
			{Text: "COFFEE"},
		},
		AmountOp:      model.AmountBetween,
		AmountValue:   dec("50"),
		AmountValue2:  dec("100"),
		DateWindow:    model.DateAny,
		ApplyToFuture: true,
	}
}

func TestCreate_RejectsNonLeafTarget(t *testing.T) {
	svc, _ := newTestService(t)

	r := coffeeRule()
	r.Target = model.CategoryTarget("5") // Expenses root, not a leaf
	_, err := svc.Create(r)
	require.ErrorIs(t, err, model.ErrInvalidState)

	r.Target = model.CategoryTarget("9.9")
	_, err = svc.Create(r)
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestCreate_RejectsTransferTargetWithCategory(t *testing.T) {
	svc, _ := newTestService(t)

	r := coffeeRule()
	r.Target = model.RuleTarget{Transfer: true, CategoryID: "5.3"}
	_, err := svc.Create(r)
	require.ErrorIs(t, err, model.ErrInvalidState)
}

func TestApply_CategorisesMatchingTransaction(t *testing.T) {
	svc, st := newTestService(t)

	_, err := svc.Create(coffeeRule())
	require.NoError(t, err)

	id := insertTxn(t, st, now.AddDate(0, 0, -2), "COFFEE SHOP", "75.00", "0")

	result, err := svc.Apply(now)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Categorised)
	assert.Equal(t, 0, result.Transfers)
	assert.Equal(t, 0, result.Skipped)

	txn := getTxn(t, st, id)
	assert.Equal(t, "5.3", txn.CategoryID)
	assert.Equal(t, model.Categorised, txn.Classification())
}

func TestApply_FirstMatchWins(t *testing.T) {
	svc, st := newTestService(t)

	groceries := model.Rule{
		Target:        model.CategoryTarget("5.1"),
		Conditions:    []model.RuleCondition{{Text: "MARKET"}},
		AmountOp:      model.AmountAny,
		DateWindow:    model.DateAny,
		ApplyToFuture: true,
	}
	transport := groceries
	transport.Target = model.CategoryTarget("5.2")

	_, err := svc.Create(groceries)
	require.NoError(t, err)
	_, err = svc.Create(transport)
	require.NoError(t, err)

	id := insertTxn(t, st, now, "CENTRAL MARKET", "20.00", "0")

	result, err := svc.Apply(now)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Matched())
	assert.Equal(t, "5.1", getTxn(t, st, id).CategoryID, "lower rule id wins")
}

func TestApply_TransferTarget(t *testing.T) {
	svc, st := newTestService(t)

	_, err := svc.Create(model.Rule{
		Target:        model.TransferTarget(),
		Conditions:    []model.RuleCondition{{Text: "TFR TO SAVINGS"}},
		AmountOp:      model.AmountAny,
		DateWindow:    model.DateAny,
		ApplyToFuture: true,
	})
	require.NoError(t, err)

	id := insertTxn(t, st, now, "TFR TO SAVINGS 0421", "500.00", "0")

	result, err := svc.Apply(now)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Transfers)

	txn := getTxn(t, st, id)
	assert.Empty(t, txn.CategoryID)
	assert.True(t, txn.IsTransfer)
	assert.True(t, txn.IsMatched)
	assert.Equal(t, model.InternalTransfer, txn.Classification())
}

func TestApply_Idempotent(t *testing.T) {
	svc, st := newTestService(t)

	_, err := svc.Create(coffeeRule())
	require.NoError(t, err)
	insertTxn(t, st, now, "COFFEE SHOP", "75.00", "0")

	first, err := svc.Apply(now)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Matched())

	second, err := svc.Apply(now)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Matched(), "already-classified transactions are not revisited")
}

func TestApply_SkipsHiddenAndTransfers(t *testing.T) {
	svc, st := newTestService(t)

	_, err := svc.Create(coffeeRule())
	require.NoError(t, err)

	hidden := insertTxn(t, st, now, "COFFEE SHOP", "75.00", "0")
	_, err = st.DB().Exec(`UPDATE transactions SET is_hidden = 1 WHERE id = ?`, hidden)
	require.NoError(t, err)

	transfer := insertTxn(t, st, now, "COFFEE SHOP", "75.00", "0")
	_, err = st.DB().Exec(`UPDATE transactions SET is_internal_transfer = 1 WHERE id = ?`, transfer)
	require.NoError(t, err)

	result, err := svc.Apply(now)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Matched())
}

func TestApply_RespectsApplyToFuture(t *testing.T) {
	svc, st := newTestService(t)

	r := coffeeRule()
	r.ApplyToFuture = false
	_, err := svc.Create(r)
	require.NoError(t, err)
	id := insertTxn(t, st, now, "COFFEE SHOP", "75.00", "0")

	result, err := svc.Apply(now)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Matched())
	assert.Empty(t, getTxn(t, st, id).CategoryID)
}

func TestApply_MalformedRuleSkipsTransaction(t *testing.T) {
	svc, st := newTestService(t)

	bad := coffeeRule()
	bad.AmountValue = dec("100")
	bad.AmountValue2 = dec("50") // inverted bounds
	_, err := svc.Create(bad)
	require.NoError(t, err)

	_, err = svc.Create(model.Rule{
		Target:        model.CategoryTarget("5.1"),
		Conditions:    []model.RuleCondition{{Text: "MARKET"}},
		AmountOp:      model.AmountAny,
		DateWindow:    model.DateAny,
		ApplyToFuture: true,
	})
	require.NoError(t, err)

	coffee := insertTxn(t, st, now, "COFFEE SHOP", "75.00", "0")
	market := insertTxn(t, st, now, "CENTRAL MARKET", "20.00", "0")

	result, err := svc.Apply(now)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 1, result.Categorised)
	assert.Empty(t, getTxn(t, st, coffee).CategoryID)
	assert.Equal(t, "5.1", getTxn(t, st, market).CategoryID)
}

func TestUpdate_ReplacesConditions(t *testing.T) {
	svc, st := newTestService(t)

	id, err := svc.Create(coffeeRule())
	require.NoError(t, err)

	updated := coffeeRule()
	updated.ID = id
	updated.Conditions = []model.RuleCondition{{Text: "ESPRESSO"}}
	require.NoError(t, svc.Update(updated))

	rules, err := svc.List()
	require.NoError(t, err)
	require.Len(t, rules, 1)
	require.Len(t, rules[0].Conditions, 1)
	assert.Equal(t, "ESPRESSO", rules[0].Conditions[0].Text)

	txn := insertTxn(t, st, now, "COFFEE SHOP", "75.00", "0")
	result, err := svc.Apply(now)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Matched())
	assert.Empty(t, getTxn(t, st, txn).CategoryID)
}

func TestDelete(t *testing.T) {
	svc, _ := newTestService(t)

	id, err := svc.Create(coffeeRule())
	require.NoError(t, err)
	require.NoError(t, svc.Delete(id))

	rules, err := svc.List()
	require.NoError(t, err)
	assert.Empty(t, rules)

	require.ErrorIs(t, svc.Delete(id), model.ErrNotFound)
}

func TestList_AscendingByID(t *testing.T) {
	svc, _ := newTestService(t)

	first, err := svc.Create(coffeeRule())
	require.NoError(t, err)
	r := coffeeRule()
	r.Target = model.CategoryTarget("5.1")
	second, err := svc.Create(r)
	require.NoError(t, err)

	rules, err := svc.List()
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, first, rules[0].ID)
	assert.Equal(t, second, rules[1].ID)
}
