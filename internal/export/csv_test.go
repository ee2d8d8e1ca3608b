package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallybook-dev/tallybook/internal/model"
)

func TestWriteTransactions(t *testing.T) {
	txns := []model.Transaction{
		{
			ID:          1,
			Date:        time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
			AccountID:   "1.1.1",
			Description: "COFFEE SHOP - Card 1234",
			Withdrawal:  decimal.RequireFromString("75.00"),
			Deposit:     decimal.Zero,
			CategoryID:  "5.3",
			TaxLabel:    model.TaxGST,
		},
		{
			ID:          2,
			Date:        time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
			AccountID:   "1.1.1",
			Description: "TFR TO SAVINGS",
			Withdrawal:  decimal.RequireFromString("500.00"),
			Deposit:     decimal.Zero,
			IsTransfer:  true,
			IsMatched:   true,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteTransactions(&buf, txns))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "id", rows[0][0])

	assert.Equal(t, []string{"1", "2024-01-02", "1.1.1", "COFFEE SHOP - Card 1234",
		"75.00", "0.00", "5.3", "categorised", "GST", "false"}, rows[1])
	assert.Equal(t, "internal_transfer", rows[2][7])
	assert.Empty(t, rows[2][6], "transfers carry no category")
}

func TestWriteTransactions_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTransactions(&buf, nil))
	assert.Equal(t, Header+"\n", buf.String())
}

func TestFileName(t *testing.T) {
	now := time.Date(2024, 1, 10, 12, 5, 0, 0, time.UTC)
	assert.Equal(t, "transactions-20240110-120500.csv", FileName(now))
}
