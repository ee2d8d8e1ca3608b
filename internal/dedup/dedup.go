// Package dedup decides whether a candidate record is already present in
// the transaction store.
//
// Bank exports commonly reorder or slightly retime settlement dates
// across overlapping export windows, so an exact date match under-detects
// and a pure amount match over-detects. The calibrated middle ground is a
// fuzzy date window combined with exact amount and description matching.
package dedup

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tallybook-dev/tallybook/internal/model"
	"github.com/tallybook-dev/tallybook/internal/store"
)

// DefaultWindowDays is the date window used by the import pipeline.
const DefaultWindowDays = 3

var epsilon = decimal.RequireFromString("0.01")

// IsDuplicate reports whether rec already exists. When accountID is
// non-empty the search is scoped to that account. A record carrying an
// external id short-circuits on an exact (account, external_id) match
// before the fuzzy check runs.
func IsDuplicate(q store.Queryer, rec model.SourceRecord, accountID string, windowDays int) (bool, error) {
	if rec.ExternalID != "" && accountID != "" {
		var count int
		err := q.QueryRow(`
			SELECT COUNT(*) FROM transactions
			WHERE account_id = ? AND external_id = ?`,
			accountID, rec.ExternalID).Scan(&count)
		if err != nil {
			return false, fmt.Errorf("checking external id: %w", err)
		}
		if count > 0 {
			return true, nil
		}
	}
	return fuzzyMatch(q, rec, accountID, windowDays)
}

// fuzzyMatch applies the date-window / amount / description condition.
func fuzzyMatch(q store.Queryer, rec model.SourceRecord, accountID string, windowDays int) (bool, error) {
	start := store.EncodeTime(rec.Date.AddDate(0, 0, -windowDays))
	end := store.EncodeTime(rec.Date.AddDate(0, 0, windowDays))

	query := `
		SELECT withdrawal, deposit FROM transactions
		WHERE date BETWEEN ? AND ? AND description = ?`
	args := []any{start, end, rec.Description()}
	if accountID != "" {
		query += ` AND account_id = ?`
		args = append(args, accountID)
	}

	rows, err := q.Query(query, args...)
	if err != nil {
		return false, fmt.Errorf("querying duplicate candidates: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var w, d string
		if err := rows.Scan(&w, &d); err != nil {
			return false, err
		}
		withdrawal, err := store.DecodeDecimal(w)
		if err != nil {
			return false, err
		}
		deposit, err := store.DecodeDecimal(d)
		if err != nil {
			return false, err
		}
		if withdrawal.Sub(rec.Withdrawal()).Abs().LessThan(epsilon) &&
			deposit.Sub(rec.Deposit()).Abs().LessThan(epsilon) {
			return true, nil
		}
	}
	return false, rows.Err()
}

// Match describes one candidate record that collided with stored
// transactions.
type Match struct {
	Record  model.SourceRecord
	Count   int
	GroupID string // date + magnitude, for grouping related duplicates
}

// FindDatabaseDuplicates reports, for each record, how many stored
// transactions it collides with. Used to preview a file before import.
func FindDatabaseDuplicates(q store.Queryer, recs []model.SourceRecord, windowDays int) ([]Match, error) {
	var matches []Match
	for _, rec := range recs {
		dup, err := fuzzyMatch(q, rec, "", windowDays)
		if err != nil {
			return nil, err
		}
		if !dup {
			continue
		}
		count, err := countMatches(q, rec, windowDays)
		if err != nil {
			return nil, err
		}
		matches = append(matches, Match{
			Record:  rec,
			Count:   count,
			GroupID: fmt.Sprintf("%s_%s", rec.Date.Format("20060102"), rec.Amount.Abs().String()),
		})
	}
	return matches, nil
}

func countMatches(q store.Queryer, rec model.SourceRecord, windowDays int) (int, error) {
	start := store.EncodeTime(rec.Date.AddDate(0, 0, -windowDays))
	end := store.EncodeTime(rec.Date.AddDate(0, 0, windowDays))

	rows, err := q.Query(`
		SELECT withdrawal, deposit FROM transactions
		WHERE date BETWEEN ? AND ? AND description = ?`,
		start, end, rec.Description())
	if err != nil {
		return 0, fmt.Errorf("counting duplicate candidates: %w", err)
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		var w, d string
		if err := rows.Scan(&w, &d); err != nil {
			return 0, err
		}
		withdrawal, err := store.DecodeDecimal(w)
		if err != nil {
			return 0, err
		}
		deposit, err := store.DecodeDecimal(d)
		if err != nil {
			return 0, err
		}
		if withdrawal.Sub(rec.Withdrawal()).Abs().LessThan(epsilon) &&
			deposit.Sub(rec.Deposit()).Abs().LessThan(epsilon) {
			count++
		}
	}
	return count, rows.Err()
}

// WindowContains reports whether existing falls inside the fuzzy window
// around candidate. Exported for reuse by reconciliation views.
func WindowContains(candidate, existing time.Time, windowDays int) bool {
	lo := candidate.AddDate(0, 0, -windowDays)
	hi := candidate.AddDate(0, 0, windowDays)
	return !existing.Before(lo) && !existing.After(hi)
}
