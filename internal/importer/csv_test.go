package importer

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVParser_AmountColumn(t *testing.T) {
	input := strings.Join([]string{
		"Date,Description,Amount,Balance",
		"02/01/2024,COFFEE SHOP,-75.00,1425.00",
		`03/01/2024,SALARY,"1,250.50",2675.50`,
	}, "\n")

	records, err := (&CSVParser{}).Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 2)

	first := records[0]
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), first.Date)
	assert.Equal(t, "COFFEE SHOP", first.Description())
	assert.Equal(t, "75", first.Withdrawal().String())
	require.NotNil(t, first.ExternalBalance)
	assert.Equal(t, "1425", first.ExternalBalance.String())

	assert.Equal(t, "1250.5", records[1].Deposit().String())
}

func TestCSVParser_DebitCreditColumns(t *testing.T) {
	input := strings.Join([]string{
		"Transaction Date,Narrative,Debit Amount,Credit Amount",
		"02/01/2024,COFFEE SHOP,75.00,",
		"03/01/2024,SALARY,,1250.50",
	}, "\n")

	records, err := (&CSVParser{}).Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "75", records[0].Withdrawal().String())
	assert.True(t, records[0].Deposit().IsZero())
	assert.Equal(t, "1250.5", records[1].Deposit().String())
	assert.Nil(t, records[0].ExternalBalance)
}

func TestCSVParser_ReferenceColumn(t *testing.T) {
	input := strings.Join([]string{
		"Date,Payee,Amount,Reference",
		"02/01/2024,COFFEE SHOP,-75.00,FT240102X",
	}, "\n")

	records, err := (&CSVParser{}).Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "FT240102X", records[0].ExternalID)
}

func TestCSVParser_UnrecognisedHeader(t *testing.T) {
	_, err := (&CSVParser{}).Parse(strings.NewReader("a,b,c\n1,2,3\n"))
	require.Error(t, err)

	_, err = (&CSVParser{}).Parse(strings.NewReader("Date,Description\n02/01/2024,X\n"))
	require.Error(t, err, "no amount columns")
}

func TestCSVParser_BadRow(t *testing.T) {
	input := "Date,Description,Amount\n02/01/2024,COFFEE,seventy-five\n"
	_, err := (&CSVParser{}).Parse(strings.NewReader(input))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")
}

func TestCSVParser_EmptyInput(t *testing.T) {
	records, err := (&CSVParser{}).Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestRegistry_ForFile(t *testing.T) {
	r := DefaultRegistry()

	p, err := r.ForFile("/exports/january.qif")
	require.NoError(t, err)
	assert.Equal(t, "qif", p.Format())

	p, err = r.ForFile("statement.CSV")
	require.NoError(t, err)
	assert.Equal(t, "csv", p.Format())

	_, err = r.ForFile("statement.ofx")
	require.Error(t, err)
}
