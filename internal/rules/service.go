package rules

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tallybook-dev/tallybook/internal/model"
	"github.com/tallybook-dev/tallybook/internal/store"
)

// Service stores rules and applies them to uncategorised transactions.
type Service struct {
	st *store.Store
}

// NewService creates a rules Service.
func NewService(st *store.Store) *Service {
	return &Service{st: st}
}

// Create persists a rule and its ordered conditions as one unit,
// returning the new rule id. A category target must resolve to a leaf
// category.
func (s *Service) Create(r model.Rule) (int64, error) {
	var ruleID int64
	err := s.st.WithTx(func(tx *sql.Tx) error {
		if err := validateTarget(tx, r.Target); err != nil {
			return err
		}

		res, err := tx.Exec(`
			INSERT INTO rules (
				target_category_id, is_transfer_target, amount_operator,
				amount_value, amount_value2, account_id, date_window, apply_to_future
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			store.NullString(r.Target.CategoryID), r.Target.Transfer,
			string(r.AmountOp), store.EncodeDecimal(r.AmountValue),
			store.EncodeDecimal(r.AmountValue2), store.NullString(r.AccountID),
			string(r.DateWindow), r.ApplyToFuture)
		if err != nil {
			return fmt.Errorf("inserting rule: %w", err)
		}
		if ruleID, err = res.LastInsertId(); err != nil {
			return err
		}
		return insertConditions(tx, ruleID, r.Conditions)
	})
	if err != nil {
		return 0, err
	}
	return ruleID, nil
}

// Update replaces a rule and its conditions.
func (s *Service) Update(r model.Rule) error {
	return s.st.WithTx(func(tx *sql.Tx) error {
		if err := validateTarget(tx, r.Target); err != nil {
			return err
		}

		res, err := tx.Exec(`
			UPDATE rules SET
				target_category_id = ?, is_transfer_target = ?, amount_operator = ?,
				amount_value = ?, amount_value2 = ?, account_id = ?,
				date_window = ?, apply_to_future = ?
			WHERE id = ?`,
			store.NullString(r.Target.CategoryID), r.Target.Transfer,
			string(r.AmountOp), store.EncodeDecimal(r.AmountValue),
			store.EncodeDecimal(r.AmountValue2), store.NullString(r.AccountID),
			string(r.DateWindow), r.ApplyToFuture, r.ID)
		if err != nil {
			return fmt.Errorf("updating rule %d: %w", r.ID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("rule %d: %w", r.ID, model.ErrNotFound)
		}

		if _, err := tx.Exec(`DELETE FROM rule_conditions WHERE rule_id = ?`, r.ID); err != nil {
			return fmt.Errorf("clearing conditions for rule %d: %w", r.ID, err)
		}
		return insertConditions(tx, r.ID, r.Conditions)
	})
}

// Delete removes a rule and its conditions.
func (s *Service) Delete(ruleID int64) error {
	return s.st.WithTx(func(tx *sql.Tx) error {
		res, err := tx.Exec(`DELETE FROM rules WHERE id = ?`, ruleID)
		if err != nil {
			return fmt.Errorf("deleting rule %d: %w", ruleID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("rule %d: %w", ruleID, model.ErrNotFound)
		}
		_, err = tx.Exec(`DELETE FROM rule_conditions WHERE rule_id = ?`, ruleID)
		return err
	})
}

// List returns every rule with its conditions, ascending by id — the
// stable evaluation order.
func (s *Service) List() ([]model.Rule, error) {
	return loadRules(s.st.DB(), false)
}

// ApplyResult summarises one rule application pass.
type ApplyResult struct {
	Categorised int // transactions assigned a category
	Transfers   int // transactions marked internal transfer
	Skipped     int // transactions skipped due to a rule evaluation error
}

// Matched returns the total number of transactions changed by the pass.
func (r ApplyResult) Matched() int { return r.Categorised + r.Transfers }

// Apply evaluates rules in ascending id order against every
// uncategorised, non-transfer, non-hidden transaction; the first full
// match wins and later rules are not consulted. The pass is idempotent:
// transactions already categorised are never selected. A rule that fails
// to evaluate against a transaction skips that transaction and the pass
// continues.
func (s *Service) Apply(now time.Time) (ApplyResult, error) {
	var result ApplyResult
	err := s.st.WithTx(func(tx *sql.Tx) error {
		result = ApplyResult{}
		applicable, err := loadRules(tx, true)
		if err != nil {
			return err
		}
		if len(applicable) == 0 {
			return nil
		}

		txns, err := store.QueryTransactions(tx, `
			SELECT `+store.TransactionColumns+` FROM transactions
			WHERE category_id IS NULL AND is_internal_transfer = 0 AND is_hidden = 0
			ORDER BY id`)
		if err != nil {
			return err
		}

		for _, txn := range txns {
			outcome, matched, evalErr := firstMatch(applicable, txn, now)
			if evalErr != nil {
				result.Skipped++
				continue
			}
			if !matched {
				continue
			}
			if outcome.Transfer {
				_, err = tx.Exec(`
					UPDATE transactions
					SET category_id = NULL, is_internal_transfer = 1, is_matched = 1
					WHERE id = ?`, txn.ID)
				result.Transfers++
			} else {
				_, err = tx.Exec(`
					UPDATE transactions
					SET category_id = ?, is_internal_transfer = 0, is_matched = 0
					WHERE id = ?`, outcome.CategoryID, txn.ID)
				result.Categorised++
			}
			if err != nil {
				return fmt.Errorf("classifying transaction %d: %w", txn.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return ApplyResult{}, err
	}
	return result, nil
}

// firstMatch returns the target of the first rule fully matching txn.
func firstMatch(applicable []model.Rule, txn model.Transaction, now time.Time) (model.RuleTarget, bool, error) {
	for _, r := range applicable {
		ok, err := Matches(r, txn, now)
		if err != nil {
			return model.RuleTarget{}, false, err
		}
		if ok {
			return r.Target, true, nil
		}
	}
	return model.RuleTarget{}, false, nil
}

func validateTarget(q store.Queryer, target model.RuleTarget) error {
	if target.Transfer {
		if target.CategoryID != "" {
			return fmt.Errorf("transfer target cannot carry a category: %w", model.ErrInvalidState)
		}
		return nil
	}
	var kind string
	err := q.QueryRow(`SELECT kind FROM categories WHERE id = ?`, target.CategoryID).Scan(&kind)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("target category %s: %w", target.CategoryID, model.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("resolving target category: %w", err)
	}
	if model.CategoryKind(kind) != model.KindLeaf {
		return fmt.Errorf("target category %s is not a leaf: %w", target.CategoryID, model.ErrInvalidState)
	}
	return nil
}

func insertConditions(tx *sql.Tx, ruleID int64, conds []model.RuleCondition) error {
	for i, c := range conds {
		combinator := c.Combinator
		if i == 0 {
			combinator = model.CombinatorNone
		}
		_, err := tx.Exec(`
			INSERT INTO rule_conditions (rule_id, sequence, combinator, match_text, case_sensitive)
			VALUES (?, ?, ?, ?, ?)`,
			ruleID, i, string(combinator), c.Text, c.CaseSensitive)
		if err != nil {
			return fmt.Errorf("inserting condition %d for rule %d: %w", i, ruleID, err)
		}
	}
	return nil
}

// loadRules reads rules ascending by id, optionally only those flagged
// apply_to_future.
func loadRules(q store.Queryer, onlyApplicable bool) ([]model.Rule, error) {
	query := `
		SELECT id, target_category_id, is_transfer_target, amount_operator,
		       amount_value, amount_value2, account_id, date_window, apply_to_future
		FROM rules`
	if onlyApplicable {
		query += ` WHERE apply_to_future = 1`
	}
	query += ` ORDER BY id`

	rows, err := q.Query(query)
	if err != nil {
		return nil, fmt.Errorf("loading rules: %w", err)
	}
	defer rows.Close()

	var out []model.Rule
	for rows.Next() {
		var r model.Rule
		var targetCategory, accountID sql.NullString
		var amountValue, amountValue2 sql.NullString
		var op, window string
		err := rows.Scan(&r.ID, &targetCategory, &r.Target.Transfer, &op,
			&amountValue, &amountValue2, &accountID, &window, &r.ApplyToFuture)
		if err != nil {
			return nil, fmt.Errorf("scanning rule: %w", err)
		}
		r.Target.CategoryID = targetCategory.String
		r.AmountOp = model.AmountOperator(op)
		r.DateWindow = model.DateWindow(window)
		r.AccountID = accountID.String
		if amountValue.Valid {
			if r.AmountValue, err = store.DecodeDecimal(amountValue.String); err != nil {
				return nil, err
			}
		}
		if amountValue2.Valid {
			if r.AmountValue2, err = store.DecodeDecimal(amountValue2.String); err != nil {
				return nil, err
			}
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		if out[i].Conditions, err = loadConditions(q, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func loadConditions(q store.Queryer, ruleID int64) ([]model.RuleCondition, error) {
	rows, err := q.Query(`
		SELECT combinator, match_text, case_sensitive
		FROM rule_conditions WHERE rule_id = ? ORDER BY sequence`, ruleID)
	if err != nil {
		return nil, fmt.Errorf("loading conditions for rule %d: %w", ruleID, err)
	}
	defer rows.Close()

	var out []model.RuleCondition
	for rows.Next() {
		var c model.RuleCondition
		var combinator string
		if err := rows.Scan(&combinator, &c.Text, &c.CaseSensitive); err != nil {
			return nil, err
		}
		c.Combinator = model.Combinator(combinator)
		out = append(out, c)
	}
	return out, rows.Err()
}
