// Package accounts manages bank accounts, which are leaf categories
// flagged as account markers plus a balance-carrying extension row.
package accounts

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tallybook-dev/tallybook/internal/category"
	"github.com/tallybook-dev/tallybook/internal/model"
	"github.com/tallybook-dev/tallybook/internal/store"
)

// AccountsGroupID is the category group new bank accounts are created
// under.
const AccountsGroupID = "1.1"

// Service provides bank account operations.
type Service struct {
	st *store.Store
}

// NewService creates an accounts Service.
func NewService(st *store.Store) *Service {
	return &Service{st: st}
}

// CreateParams holds parameters for creating a bank account.
type CreateParams struct {
	Name          string
	AccountNumber string
	BSB           string
	BankName      string
	Notes         string
}

// Create adds a bank account: a leaf category under the Accounts group
// plus its extension row, in one unit. The BSB + account number pair
// must be unique.
func (s *Service) Create(params CreateParams) (string, error) {
	var accountID string
	err := s.st.WithTx(func(tx *sql.Tx) error {
		if params.BSB != "" && params.AccountNumber != "" {
			var count int
			err := tx.QueryRow(`
				SELECT COUNT(*) FROM bank_accounts WHERE bsb = ? AND account_number = ?`,
				params.BSB, params.AccountNumber).Scan(&count)
			if err != nil {
				return fmt.Errorf("checking account uniqueness: %w", err)
			}
			if count > 0 {
				return fmt.Errorf("account %s-%s already exists: %w",
					params.BSB, params.AccountNumber, model.ErrInvalidState)
			}
		}

		var err error
		accountID, err = category.Create(tx, params.Name, AccountsGroupID, model.KindLeaf, model.TaxNone, true)
		if err != nil {
			return fmt.Errorf("creating account category: %w", err)
		}

		_, err = tx.Exec(`
			INSERT INTO bank_accounts (id, name, account_number, bsb, bank_name, current_balance, notes)
			VALUES (?, ?, ?, ?, ?, '0', ?)`,
			accountID, params.Name, params.AccountNumber, params.BSB, params.BankName, params.Notes)
		if err != nil {
			if strings.Contains(err.Error(), "UNIQUE") {
				return fmt.Errorf("account %s-%s already exists: %w",
					params.BSB, params.AccountNumber, model.ErrInvalidState)
			}
			return fmt.Errorf("inserting bank account: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return accountID, nil
}

// Get returns one account by id.
func (s *Service) Get(accountID string) (model.Account, error) {
	return getAccount(s.st.DB(), accountID)
}

// All returns every bank account ordered by id.
func (s *Service) All() ([]model.Account, error) {
	rows, err := s.st.DB().Query(`
		SELECT id, name, account_number, bsb, bank_name, current_balance, last_import_at, notes
		FROM bank_accounts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	defer rows.Close()

	var out []model.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ValidateImportTarget confirms accountID is a leaf category flagged as
// a bank account with an extension row, returning ErrInvalidAccount
// otherwise. Queries run through q so the check composes into the
// import transaction.
func ValidateImportTarget(q store.Queryer, accountID string) error {
	var count int
	err := q.QueryRow(`
		SELECT COUNT(*) FROM categories c
		JOIN bank_accounts ba ON ba.id = c.id
		WHERE c.id = ? AND c.kind = ? AND c.is_account = 1`,
		accountID, model.KindLeaf).Scan(&count)
	if err != nil {
		return fmt.Errorf("validating import account: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("account %s: %w", accountID, model.ErrInvalidAccount)
	}
	return nil
}

// UpdateBalance sets the cached balance, optionally stamping the last
// import time.
func UpdateBalance(q store.Queryer, accountID string, balance decimal.Decimal, importedAt *time.Time) error {
	var stamp sql.NullString
	if importedAt != nil {
		stamp = sql.NullString{String: store.EncodeTime(*importedAt), Valid: true}
	}
	res, err := q.Exec(`
		UPDATE bank_accounts
		SET current_balance = ?, last_import_at = COALESCE(?, last_import_at)
		WHERE id = ?`,
		store.EncodeDecimal(balance), stamp, accountID)
	if err != nil {
		return fmt.Errorf("updating balance for %s: %w", accountID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("account %s: %w", accountID, model.ErrNotFound)
	}
	return nil
}

// ComputeBalance sums deposit - withdrawal over the account's non-hidden
// transactions.
func ComputeBalance(q store.Queryer, accountID string) (decimal.Decimal, error) {
	rows, err := q.Query(`
		SELECT withdrawal, deposit FROM transactions
		WHERE account_id = ? AND is_hidden = 0`, accountID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("loading transactions for %s: %w", accountID, err)
	}
	defer rows.Close()

	balance := decimal.Zero
	for rows.Next() {
		var w, d string
		if err := rows.Scan(&w, &d); err != nil {
			return decimal.Zero, err
		}
		withdrawal, err := store.DecodeDecimal(w)
		if err != nil {
			return decimal.Zero, err
		}
		deposit, err := store.DecodeDecimal(d)
		if err != nil {
			return decimal.Zero, err
		}
		balance = balance.Sub(withdrawal).Add(deposit)
	}
	return balance, rows.Err()
}

// RecalculateBalance recomputes the cached balance from transaction
// history and stores it.
func (s *Service) RecalculateBalance(accountID string) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := s.st.WithTx(func(tx *sql.Tx) error {
		var err error
		if balance, err = ComputeBalance(tx, accountID); err != nil {
			return err
		}
		return UpdateBalance(tx, accountID, balance, nil)
	})
	if err != nil {
		return decimal.Zero, err
	}
	return balance, nil
}

// ValidateBalance compares the cached balance against a statement
// balance; within one cent counts as reconciled.
func (s *Service) ValidateBalance(accountID string, expected decimal.Decimal) (bool, decimal.Decimal, error) {
	acct, err := s.Get(accountID)
	if err != nil {
		return false, decimal.Zero, err
	}
	diff := acct.CurrentBalance.Sub(expected)
	return diff.Abs().LessThan(decimal.RequireFromString("0.01")), diff, nil
}

func getAccount(q store.Queryer, accountID string) (model.Account, error) {
	row := q.QueryRow(`
		SELECT id, name, account_number, bsb, bank_name, current_balance, last_import_at, notes
		FROM bank_accounts WHERE id = ?`, accountID)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Account{}, fmt.Errorf("account %s: %w", accountID, model.ErrNotFound)
	}
	return a, err
}

func scanAccount(row store.RowScanner) (model.Account, error) {
	var a model.Account
	var balance string
	var lastImport sql.NullString
	err := row.Scan(&a.ID, &a.Name, &a.AccountNumber, &a.BSB, &a.BankName,
		&balance, &lastImport, &a.Notes)
	if err != nil {
		return model.Account{}, err
	}
	if a.CurrentBalance, err = store.DecodeDecimal(balance); err != nil {
		return model.Account{}, err
	}
	if lastImport.Valid {
		ts, err := store.DecodeTime(lastImport.String)
		if err != nil {
			return model.Account{}, err
		}
		a.LastImportAt = &ts
	}
	return a, nil
}
