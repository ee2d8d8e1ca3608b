package importer

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tallybook-dev/tallybook/internal/accounts"
	"github.com/tallybook-dev/tallybook/internal/dedup"
	"github.com/tallybook-dev/tallybook/internal/model"
	"github.com/tallybook-dev/tallybook/internal/rules"
	"github.com/tallybook-dev/tallybook/internal/store"
	"github.com/tallybook-dev/tallybook/internal/transfer"
)

// Pipeline stores parsed records and runs the post-import classifiers.
type Pipeline struct {
	st    *store.Store
	rules *rules.Service

	// WindowDays is the duplicate detection window.
	WindowDays int
	// LookbackDays widens the transfer detection scope behind the
	// batch's earliest date, so transfers straddling the previous
	// import are still paired.
	LookbackDays int
	// Now is injected for deterministic rule date windows under test.
	Now func() time.Time
}

// NewPipeline creates an import pipeline with default settings.
func NewPipeline(st *store.Store, ruleSvc *rules.Service) *Pipeline {
	return &Pipeline{
		st:           st,
		rules:        ruleSvc,
		WindowDays:   dedup.DefaultWindowDays,
		LookbackDays: 7,
		Now:          time.Now,
	}
}

// Result summarises one import.
type Result struct {
	BatchID       string
	Imported      int
	Duplicates    int
	TransferPairs int
	Rules         rules.ApplyResult
	// Warnings collects post-commit classifier failures. The import
	// itself succeeded; classification can be re-run standalone.
	Warnings []string
}

// Import stores records into accountID. The storage phase is atomic: a
// failure mid-batch leaves nothing behind. Records already present are
// counted as duplicates and skipped; the account balance is refreshed
// from the latest reported balance across the whole batch, duplicates
// included, or recomputed from history when the source reports none.
// Transfer detection and rule application run after the commit and
// degrade to warnings, never failing the import.
func (p *Pipeline) Import(records []model.SourceRecord, accountID string) (Result, error) {
	result := Result{BatchID: uuid.NewString()}
	if len(records) == 0 {
		return result, nil
	}

	var minDate time.Time
	err := p.st.WithTx(func(tx *sql.Tx) error {
		if err := accounts.ValidateImportTarget(tx, accountID); err != nil {
			return err
		}

		var latestBalance *decimal.Decimal
		var latestBalanceDate time.Time
		for _, rec := range records {
			// Duplicates still carry the bank's running balance, so
			// track it before the dedup filter.
			if rec.ExternalBalance != nil && !rec.Date.Before(latestBalanceDate) {
				latestBalance = rec.ExternalBalance
				latestBalanceDate = rec.Date
			}

			dup, err := dedup.IsDuplicate(tx, rec, accountID, p.WindowDays)
			if err != nil {
				return err
			}
			if dup {
				result.Duplicates++
				continue
			}

			_, err = store.InsertTransaction(tx, model.Transaction{
				Date:            rec.Date,
				AccountID:       accountID,
				Description:     rec.Description(),
				Withdrawal:      rec.Withdrawal(),
				Deposit:         rec.Deposit(),
				ExternalBalance: rec.ExternalBalance,
				ExternalID:      rec.ExternalID,
			})
			if err != nil {
				return err
			}
			result.Imported++

			if minDate.IsZero() || rec.Date.Before(minDate) {
				minDate = rec.Date
			}
		}
		if result.Imported == 0 && latestBalance == nil {
			return nil
		}

		now := p.Now().UTC()
		balance := latestBalance
		if balance == nil {
			computed, err := accounts.ComputeBalance(tx, accountID)
			if err != nil {
				return err
			}
			balance = &computed
		}
		return accounts.UpdateBalance(tx, accountID, *balance, &now)
	})
	if err != nil {
		return Result{}, fmt.Errorf("importing into %s: %w", accountID, err)
	}
	if result.Imported == 0 {
		return result, nil
	}

	pairs, err := transfer.Detect(p.st, transfer.Options{
		Since: minDate.AddDate(0, 0, -p.LookbackDays),
	})
	if err != nil {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("transfer detection failed: %v", err))
	}
	result.TransferPairs = pairs

	applied, err := p.rules.Apply(p.Now())
	if err != nil {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("rule application failed: %v", err))
	}
	result.Rules = applied

	return result, nil
}
