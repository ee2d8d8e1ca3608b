// Package export writes stored transactions to CSV for spreadsheets and
// accountants.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/tallybook-dev/tallybook/internal/model"
)

// Header is the CSV header for exported transactions.
const Header = "id,date,account_id,description,withdrawal,deposit,category_id,classification,tax_label,tax_deductible"

const (
	numFields  = 10
	dateFormat = "2006-01-02"
)

// MarshalTransaction converts a transaction to a CSV row.
func MarshalTransaction(t model.Transaction) []string {
	return []string{
		fmt.Sprintf("%d", t.ID),
		t.Date.Format(dateFormat),
		t.AccountID,
		t.Description,
		t.Withdrawal.StringFixed(2),
		t.Deposit.StringFixed(2),
		t.CategoryID,
		string(t.Classification()),
		string(t.TaxLabel),
		fmt.Sprintf("%t", t.TaxDeductible),
	}
}

// WriteTransactions writes transactions to w as CSV, header included.
func WriteTransactions(w io.Writer, txns []model.Transaction) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, t := range txns {
		if err := cw.Write(MarshalTransaction(t)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}

// FileName builds a timestamped export file name like
// transactions-20240110-120500.csv.
func FileName(now time.Time) string {
	return "transactions-" + now.Format("20060102-150405") + ".csv"
}
