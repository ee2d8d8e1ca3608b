// Package transfer pairs opposite-signed transactions across accounts
// and marks both sides as reconciled internal transfers.
package transfer

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tallybook-dev/tallybook/internal/model"
	"github.com/tallybook-dev/tallybook/internal/store"
)

var epsilon = decimal.RequireFromString("0.01")

// Options scope a detection pass. A zero Since rescans the full
// unmatched history; the import pipeline passes the batch's earliest
// date minus a lookback window so each import stays incremental while
// preserving the same matching semantics.
type Options struct {
	Since time.Time
}

// Detect scans unmatched transactions account by account in date order
// and greedily pairs each with the first opposite transaction in another
// account dated within one day at the same magnitude. Both sides of a
// pair are marked matched internal transfers; a transaction is consumed
// by at most one pairing per pass. The whole pass is one transaction: a
// failed pass leaves every is_matched flag untouched.
//
// Pairing is greedy, not globally optimal: first found in date order
// wins and there is no backtracking.
func Detect(st *store.Store, opts Options) (int, error) {
	pairs := 0
	err := st.WithTx(func(tx *sql.Tx) error {
		candidates, err := loadUnmatched(tx, opts.Since)
		if err != nil {
			return err
		}

		accountIDs, err := accountOrder(tx)
		if err != nil {
			return err
		}

		byAccount := make(map[string][]*candidate)
		for _, c := range candidates {
			byAccount[c.accountID] = append(byAccount[c.accountID], c)
		}

		var matched []int64
		for _, accountID := range accountIDs {
			for _, c := range byAccount[accountID] {
				if c.consumed || c.net.IsZero() {
					continue
				}
				other := findOpposite(candidates, c)
				if other == nil {
					continue
				}
				c.consumed = true
				other.consumed = true
				matched = append(matched, c.id, other.id)
				pairs++
			}
		}

		for _, txnID := range matched {
			_, err := tx.Exec(`
				UPDATE transactions
				SET is_matched = 1, is_internal_transfer = 1, category_id = NULL
				WHERE id = ?`, txnID)
			if err != nil {
				return fmt.Errorf("marking transfer %d: %w", txnID, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return pairs, nil
}

type candidate struct {
	id        int64
	accountID string
	date      time.Time
	net       decimal.Decimal
	consumed  bool
}

// loadUnmatched returns unmatched transaction candidates ordered by
// date then id, optionally restricted to dates at or after since.
func loadUnmatched(q store.Queryer, since time.Time) ([]*candidate, error) {
	query := `
		SELECT id, account_id, date, withdrawal, deposit
		FROM transactions WHERE is_matched = 0`
	var args []any
	if !since.IsZero() {
		query += ` AND date >= ?`
		args = append(args, store.EncodeTime(since))
	}
	query += ` ORDER BY date, id`

	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("loading unmatched transactions: %w", err)
	}
	defer rows.Close()

	var out []*candidate
	for rows.Next() {
		var c candidate
		var date, w, d string
		if err := rows.Scan(&c.id, &c.accountID, &date, &w, &d); err != nil {
			return nil, err
		}
		if c.date, err = store.DecodeTime(date); err != nil {
			return nil, err
		}
		withdrawal, err := store.DecodeDecimal(w)
		if err != nil {
			return nil, err
		}
		deposit, err := store.DecodeDecimal(d)
		if err != nil {
			return nil, err
		}
		c.net = deposit.Sub(withdrawal)
		out = append(out, &c)
	}
	return out, rows.Err()
}

// accountOrder returns bank account category ids in id order, fixing the
// account iteration order of a pass.
func accountOrder(q store.Queryer) ([]string, error) {
	rows, err := q.Query(`
		SELECT id FROM categories
		WHERE is_account = 1 AND kind = ? ORDER BY id`, model.KindLeaf)
	if err != nil {
		return nil, fmt.Errorf("loading accounts: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var accountID string
		if err := rows.Scan(&accountID); err != nil {
			return nil, err
		}
		ids = append(ids, accountID)
	}
	return ids, rows.Err()
}

// findOpposite returns the first unconsumed transaction in another
// account dated within [c.date, c.date + 1 day] whose net amount cancels
// c's within a cent.
func findOpposite(candidates []*candidate, c *candidate) *candidate {
	limit := c.date.AddDate(0, 0, 1)
	for _, other := range candidates {
		if other.consumed || other.accountID == c.accountID {
			continue
		}
		if other.date.Before(c.date) || other.date.After(limit) {
			continue
		}
		if other.net.Add(c.net).Abs().LessThan(epsilon) {
			return other
		}
	}
	return nil
}
