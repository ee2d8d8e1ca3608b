// Package ledger provides transaction listing and manual classification:
// the operations a person uses to review and correct what the automatic
// detectors and rules decided.
package ledger

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/tallybook-dev/tallybook/internal/model"
	"github.com/tallybook-dev/tallybook/internal/store"
)

// Filter selects which classification states a listing includes.
type Filter string

const (
	FilterAll           Filter = "all"
	FilterUncategorised Filter = "uncategorised"
	FilterCategorised   Filter = "categorised"
	FilterTransfers     Filter = "internal_transfers"
	FilterHidden        Filter = "hidden"
)

// ListOptions narrow a transaction listing. Zero values mean
// unrestricted; a zero Limit returns everything.
type ListOptions struct {
	Filter    Filter
	AccountID string
	Search    string // case-insensitive substring of the description
	Limit     int
	Offset    int
}

// Service reads and reclassifies stored transactions.
type Service struct {
	st *store.Store
}

// NewService creates a ledger Service.
func NewService(st *store.Store) *Service {
	return &Service{st: st}
}

// Get returns one transaction by id.
func (s *Service) Get(id int64) (model.Transaction, error) {
	t, err := store.ScanTransaction(s.st.DB().QueryRow(
		`SELECT `+store.TransactionColumns+` FROM transactions WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Transaction{}, fmt.Errorf("transaction %d: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return model.Transaction{}, fmt.Errorf("loading transaction %d: %w", id, err)
	}
	return t, nil
}

// List returns transactions newest first, narrowed by opts.
func (s *Service) List(opts ListOptions) ([]model.Transaction, error) {
	var where []string
	var args []any

	switch opts.Filter {
	case FilterAll, "":
	case FilterUncategorised:
		where = append(where, `category_id IS NULL AND is_internal_transfer = 0 AND is_hidden = 0`)
	case FilterCategorised:
		where = append(where, `category_id IS NOT NULL AND is_hidden = 0`)
	case FilterTransfers:
		where = append(where, `is_internal_transfer = 1 AND is_hidden = 0`)
	case FilterHidden:
		where = append(where, `is_hidden = 1`)
	default:
		return nil, fmt.Errorf("unknown filter %q: %w", opts.Filter, model.ErrInvalidState)
	}

	if opts.AccountID != "" {
		where = append(where, `account_id = ?`)
		args = append(args, opts.AccountID)
	}
	if opts.Search != "" {
		where = append(where, `lower(description) LIKE ?`)
		args = append(args, "%"+strings.ToLower(opts.Search)+"%")
	}

	query := `SELECT ` + store.TransactionColumns + ` FROM transactions`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, ` AND `)
	}
	query += ` ORDER BY date DESC, id DESC`
	if opts.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, opts.Limit, opts.Offset)
	}

	return store.QueryTransactions(s.st.DB(), query, args...)
}

// SetCategory assigns a leaf category to a transaction, clearing any
// transfer marking. An empty categoryID uncategorises it instead.
func (s *Service) SetCategory(id int64, categoryID string) error {
	return s.st.WithTx(func(tx *sql.Tx) error {
		if categoryID != "" {
			var kind string
			err := tx.QueryRow(`SELECT kind FROM categories WHERE id = ?`, categoryID).Scan(&kind)
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("category %s: %w", categoryID, model.ErrNotFound)
			}
			if err != nil {
				return fmt.Errorf("resolving category %s: %w", categoryID, err)
			}
			if model.CategoryKind(kind) != model.KindLeaf {
				return fmt.Errorf("category %s is not a leaf: %w", categoryID, model.ErrInvalidState)
			}
		}

		res, err := tx.Exec(`
			UPDATE transactions
			SET category_id = ?, is_internal_transfer = 0, is_matched = 0
			WHERE id = ?`, store.NullString(categoryID), id)
		if err != nil {
			return fmt.Errorf("categorising transaction %d: %w", id, err)
		}
		return requireAffected(res, id)
	})
}

// SetInternalTransfer marks or unmarks a transaction as one side of an
// internal transfer. Marking clears any category assignment.
func (s *Service) SetInternalTransfer(id int64, transfer bool) error {
	var res sql.Result
	var err error
	if transfer {
		res, err = s.st.DB().Exec(`
			UPDATE transactions
			SET category_id = NULL, is_internal_transfer = 1, is_matched = 1
			WHERE id = ?`, id)
	} else {
		res, err = s.st.DB().Exec(`
			UPDATE transactions
			SET is_internal_transfer = 0, is_matched = 0
			WHERE id = ?`, id)
	}
	if err != nil {
		return fmt.Errorf("updating transfer flag on transaction %d: %w", id, err)
	}
	return requireAffected(res, id)
}

// SetHidden hides or unhides a transaction. Hidden transactions keep
// their classification but drop out of listings and balance sums.
func (s *Service) SetHidden(id int64, hidden bool) error {
	res, err := s.st.DB().Exec(
		`UPDATE transactions SET is_hidden = ? WHERE id = ?`, hidden, id)
	if err != nil {
		return fmt.Errorf("updating hidden flag on transaction %d: %w", id, err)
	}
	return requireAffected(res, id)
}

// SetTaxDeductible flags a transaction for the tax report.
func (s *Service) SetTaxDeductible(id int64, deductible bool) error {
	res, err := s.st.DB().Exec(
		`UPDATE transactions SET is_tax_deductible = ? WHERE id = ?`, deductible, id)
	if err != nil {
		return fmt.Errorf("updating tax flag on transaction %d: %w", id, err)
	}
	return requireAffected(res, id)
}

// Delete removes a transaction permanently.
func (s *Service) Delete(id int64) error {
	res, err := s.st.DB().Exec(`DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting transaction %d: %w", id, err)
	}
	return requireAffected(res, id)
}

func requireAffected(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("transaction %d: %w", id, model.ErrNotFound)
	}
	return nil
}
