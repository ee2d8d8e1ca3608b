package store

import (
	"database/sql"
	"fmt"

	"github.com/tallybook-dev/tallybook/internal/model"
)

// TransactionColumns is the canonical select list for transaction rows,
// matched by ScanTransaction.
const TransactionColumns = `id, date, account_id, description, withdrawal, deposit,
	category_id, tax_label, is_tax_deductible, is_hidden, is_matched,
	is_internal_transfer, external_balance, external_id`

// RowScanner abstracts *sql.Row and *sql.Rows.
type RowScanner interface {
	Scan(dest ...any) error
}

// ScanTransaction decodes one row selected with TransactionColumns.
func ScanTransaction(row RowScanner) (model.Transaction, error) {
	var (
		t           model.Transaction
		date        string
		withdrawal  string
		deposit     string
		categoryID  sql.NullString
		taxLabel    sql.NullString
		extBalance  sql.NullString
		externalID  sql.NullString
	)

	err := row.Scan(&t.ID, &date, &t.AccountID, &t.Description, &withdrawal,
		&deposit, &categoryID, &taxLabel, &t.TaxDeductible, &t.IsHidden,
		&t.IsMatched, &t.IsTransfer, &extBalance, &externalID)
	if err != nil {
		return model.Transaction{}, err
	}

	if t.Date, err = DecodeTime(date); err != nil {
		return model.Transaction{}, err
	}
	if t.Withdrawal, err = DecodeDecimal(withdrawal); err != nil {
		return model.Transaction{}, err
	}
	if t.Deposit, err = DecodeDecimal(deposit); err != nil {
		return model.Transaction{}, err
	}
	t.CategoryID = categoryID.String
	t.TaxLabel = model.TaxLabel(taxLabel.String)
	t.ExternalID = externalID.String
	if extBalance.Valid {
		b, err := DecodeDecimal(extBalance.String)
		if err != nil {
			return model.Transaction{}, err
		}
		t.ExternalBalance = &b
	}
	return t, nil
}

// QueryTransactions runs a query built on TransactionColumns and decodes
// every row.
func QueryTransactions(q Queryer, query string, args ...any) ([]model.Transaction, error) {
	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying transactions: %w", err)
	}
	defer rows.Close()

	var txns []model.Transaction
	for rows.Next() {
		t, err := ScanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}
		txns = append(txns, t)
	}
	return txns, rows.Err()
}

// InsertTransaction persists a new transaction and returns its id.
func InsertTransaction(q Queryer, t model.Transaction) (int64, error) {
	var extBalance sql.NullString
	if t.ExternalBalance != nil {
		extBalance = sql.NullString{String: EncodeDecimal(*t.ExternalBalance), Valid: true}
	}

	res, err := q.Exec(`
		INSERT INTO transactions (
			date, account_id, description, withdrawal, deposit, category_id,
			tax_label, is_tax_deductible, is_hidden, is_matched,
			is_internal_transfer, external_balance, external_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		EncodeTime(t.Date), t.AccountID, t.Description,
		EncodeDecimal(t.Withdrawal), EncodeDecimal(t.Deposit),
		NullString(t.CategoryID), NullString(string(t.TaxLabel)),
		t.TaxDeductible, t.IsHidden, t.IsMatched, t.IsTransfer,
		extBalance, NullString(t.ExternalID))
	if err != nil {
		return 0, fmt.Errorf("inserting transaction: %w", err)
	}
	return res.LastInsertId()
}
