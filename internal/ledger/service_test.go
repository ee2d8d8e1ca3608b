package ledger

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

func newTestService(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "tallybook.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	cats, err := category.NewService(st)
	require.NoError(t, err)
	_, err = cats.Insert("Everyday", "1.1", model.KindLeaf, model.TaxNone, true)
	require.NoError(t, err)
	_, err = cats.Insert("Groceries", "5", model.KindLeaf, model.TaxGST, false)
	require.NoError(t, err)

	return NewService(st), st
}

func insert(t *testing.T, st *store.Store, description string, day int) int64 {
	t.Helper()
	id, err := store.InsertTransaction(st.DB(), model.Transaction{
		Date:        time.Date(2024, 3, day, 0, 0, 0, 0, time.UTC),
		AccountID:   "1.1.1",
		Description: description,
		Withdrawal:  decimal.RequireFromString("10.00"),
		Deposit:     decimal.Zero,
	})
	require.NoError(t, err)
	return id
}

func TestSetCategory(t *testing.T) {
	svc, st := newTestService(t)
	id := insert(t, st, "CENTRAL MARKET", 1)

	require.NoError(t, svc.SetCategory(id, "5.1"))
	txn, err := svc.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "5.1", txn.CategoryID)
	assert.Equal(t, model.Categorised, txn.Classification())
}

func TestSetCategory_RejectsNonLeaf(t *testing.T) {
	svc, st := newTestService(t)
	id := insert(t, st, "CENTRAL MARKET", 1)

	require.ErrorIs(t, svc.SetCategory(id, "5"), model.ErrInvalidState)
	require.ErrorIs(t, svc.SetCategory(id, "9.9"), model.ErrNotFound)
}

func TestSetCategory_ClearsTransferMarking(t *testing.T) {
	svc, st := newTestService(t)
	id := insert(t, st, "MISDETECTED", 1)
	require.NoError(t, svc.SetInternalTransfer(id, true))

	require.NoError(t, svc.SetCategory(id, "5.1"))
	txn, err := svc.Get(id)
	require.NoError(t, err)
	assert.False(t, txn.IsTransfer)
	assert.False(t, txn.IsMatched)
	assert.Equal(t, "5.1", txn.CategoryID)
}

func TestSetInternalTransfer_ClearsCategory(t *testing.T) {
	svc, st := newTestService(t)
	id := insert(t, st, "TFR", 1)
	require.NoError(t, svc.SetCategory(id, "5.1"))

	require.NoError(t, svc.SetInternalTransfer(id, true))
	txn, err := svc.Get(id)
	require.NoError(t, err)
	assert.Empty(t, txn.CategoryID)
	assert.Equal(t, model.InternalTransfer, txn.Classification())
}

func TestUncategorise(t *testing.T) {
	svc, st := newTestService(t)
	id := insert(t, st, "CENTRAL MARKET", 1)
	require.NoError(t, svc.SetCategory(id, "5.1"))

	require.NoError(t, svc.SetCategory(id, ""))
	txn, err := svc.Get(id)
	require.NoError(t, err)
	assert.Equal(t, model.Uncategorised, txn.Classification())
}

func TestList_Filters(t *testing.T) {
	svc, st := newTestService(t)

	plain := insert(t, st, "UNSORTED", 1)
	categorised := insert(t, st, "CENTRAL MARKET", 2)
	require.NoError(t, svc.SetCategory(categorised, "5.1"))
	transfer := insert(t, st, "TFR", 3)
	require.NoError(t, svc.SetInternalTransfer(transfer, true))
	hidden := insert(t, st, "NOISE", 4)
	require.NoError(t, svc.SetHidden(hidden, true))

	cases := []struct {
		filter Filter
		want   []int64
	}{
		{FilterAll, []int64{hidden, transfer, categorised, plain}},
		{FilterUncategorised, []int64{plain}},
		{FilterCategorised, []int64{categorised}},
		{FilterTransfers, []int64{transfer}},
		{FilterHidden, []int64{hidden}},
	}
	for _, tc := range cases {
		t.Run(string(tc.filter), func(t *testing.T) {
			txns, err := svc.List(ListOptions{Filter: tc.filter})
			require.NoError(t, err)
			ids := make([]int64, len(txns))
			for i, txn := range txns {
				ids[i] = txn.ID
			}
			assert.Equal(t, tc.want, ids)
		})
	}
}

func TestList_SearchAndPaging(t *testing.T) {
	svc, st := newTestService(t)
	insert(t, st, "COFFEE SHOP", 1)
	insert(t, st, "Coffee Cart", 2)
	insert(t, st, "CENTRAL MARKET", 3)

	txns, err := svc.List(ListOptions{Search: "coffee"})
	require.NoError(t, err)
	assert.Len(t, txns, 2, "search is case-insensitive")

	page, err := svc.List(ListOptions{Search: "coffee", Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "COFFEE SHOP", page[0].Description, "newest first, offset skips the cart")
}

func TestList_UnknownFilter(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.List(ListOptions{Filter: "weird"})
	require.ErrorIs(t, err, model.ErrInvalidState)
}

func TestDelete(t *testing.T) {
	svc, st := newTestService(t)
	id := insert(t, st, "MISTAKE", 1)

	require.NoError(t, svc.Delete(id))
	_, err := svc.Get(id)
	require.ErrorIs(t, err, model.ErrNotFound)
	require.ErrorIs(t, svc.Delete(id), model.ErrNotFound)
}
