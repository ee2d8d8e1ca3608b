// Package category maintains the hierarchical chart of classification
// nodes addressed by dotted-path ids.
package category

import (
	"database/sql"
	"fmt"

	"github.com/tallybook-dev/tallybook/internal/id"
	"github.com/tallybook-dev/tallybook/internal/model"
	"github.com/tallybook-dev/tallybook/internal/store"
)

// Service provides hierarchy operations over the category forest. All
// structural mutations rewrite the ids of the moved node, its whole
// subtree, and every foreign reference in one transaction.
type Service struct {
	st *store.Store
}

// NewService creates a Service and seeds the default roots.
func NewService(st *store.Store) (*Service, error) {
	s := &Service{st: st}
	if err := s.ensureDefaults(); err != nil {
		return nil, err
	}
	return s, nil
}

// ensureDefaults seeds the five primary categories and the Accounts
// group on a fresh database.
func (s *Service) ensureDefaults() error {
	roots := []struct{ id, name string }{
		{"1", "Assets"},
		{"2", "Liabilities"},
		{"3", "Equity"},
		{"4", "Income"},
		{"5", "Expenses"},
	}
	return s.st.WithTx(func(tx *sql.Tx) error {
		for _, r := range roots {
			_, err := tx.Exec(`
				INSERT OR IGNORE INTO categories (id, name, parent_id, kind)
				VALUES (?, ?, NULL, ?)`, r.id, r.name, model.KindRoot)
			if err != nil {
				return fmt.Errorf("seeding root %s: %w", r.id, err)
			}
		}
		_, err := tx.Exec(`
			INSERT OR IGNORE INTO categories (id, name, parent_id, kind)
			VALUES ('1.1', 'Accounts', '1', ?)`, model.KindGroup)
		if err != nil {
			return fmt.Errorf("seeding accounts group: %w", err)
		}
		return nil
	})
}

// All returns every category ordered by id.
func (s *Service) All() ([]model.Category, error) {
	t, err := loadTree(s.st.DB())
	if err != nil {
		return nil, err
	}
	var out []model.Category
	var walk func(ns []*node)
	walk = func(ns []*node) {
		for _, n := range ns {
			out = append(out, n.cat)
			walk(n.children)
		}
	}
	walk(t.roots)
	return out, nil
}

// Get returns one category by id.
func (s *Service) Get(catID string) (model.Category, error) {
	t, err := loadTree(s.st.DB())
	if err != nil {
		return model.Category{}, err
	}
	n, ok := t.nodes[catID]
	if !ok {
		return model.Category{}, fmt.Errorf("category %s: %w", catID, model.ErrNotFound)
	}
	return n.cat, nil
}

// Children returns the immediate children of a category in index order.
func (s *Service) Children(parentID string) ([]model.Category, error) {
	t, err := loadTree(s.st.DB())
	if err != nil {
		return nil, err
	}
	p, ok := t.nodes[parentID]
	if !ok {
		return nil, fmt.Errorf("category %s: %w", parentID, model.ErrNotFound)
	}
	out := make([]model.Category, 0, len(p.children))
	for _, c := range p.children {
		out = append(out, c.cat)
	}
	return out, nil
}

// Insert creates a new category under parentID at the next free sibling
// index and returns its id.
func (s *Service) Insert(name, parentID string, kind model.CategoryKind, taxLabel model.TaxLabel, isAccount bool) (string, error) {
	var newID string
	err := s.st.WithTx(func(tx *sql.Tx) error {
		var err error
		newID, err = Create(tx, name, parentID, kind, taxLabel, isAccount)
		return err
	})
	if err != nil {
		return "", err
	}
	return newID, nil
}

// Create inserts a new category through q at the next free sibling index
// under parentID, returning its id. Queries run through q so the insert
// composes into larger transactions, the way account creation needs.
func Create(q store.Queryer, name, parentID string, kind model.CategoryKind, taxLabel model.TaxLabel, isAccount bool) (string, error) {
	t, err := loadTree(q)
	if err != nil {
		return "", err
	}
	parent, ok := t.nodes[parentID]
	if !ok {
		return "", fmt.Errorf("parent category %s: %w", parentID, model.ErrNotFound)
	}
	if parent.cat.IsLeaf() {
		return "", fmt.Errorf("parent category %s is a leaf: %w", parentID, model.ErrInvalidState)
	}
	if isAccount && kind != model.KindLeaf {
		return "", fmt.Errorf("only leaf categories may be accounts: %w", model.ErrInvalidState)
	}

	newID := id.Child(parentID, t.maxChildIndex(parentID)+1)
	_, err = q.Exec(`
		INSERT INTO categories (id, name, parent_id, kind, tax_label, is_account)
		VALUES (?, ?, ?, ?, ?, ?)`,
		newID, name, parentID, kind, store.NullString(string(taxLabel)), isAccount)
	if err != nil {
		return "", fmt.Errorf("inserting category %s: %w", newID, err)
	}
	return newID, nil
}

// Move reparents a category (and its whole subtree) under newParentID.
func (s *Service) Move(catID, newParentID string) error {
	return s.st.WithTx(func(tx *sql.Tx) error {
		t, err := loadTree(tx)
		if err != nil {
			return err
		}
		n, ok := t.nodes[catID]
		if !ok {
			return fmt.Errorf("category %s: %w", catID, model.ErrNotFound)
		}
		parent, ok := t.nodes[newParentID]
		if !ok {
			return fmt.Errorf("parent category %s: %w", newParentID, model.ErrNotFound)
		}
		if parent.cat.IsLeaf() {
			return fmt.Errorf("parent category %s is a leaf: %w", newParentID, model.ErrInvalidState)
		}
		if newParentID == catID || id.IsAncestor(catID, newParentID) {
			return fmt.Errorf("cannot move %s under its own subtree: %w", catID, model.ErrInvalidState)
		}

		newID := id.Child(newParentID, t.maxChildIndex(newParentID)+1)
		return applyRenames(tx, t, subtreeRenames(n, newID, newParentID))
	})
}

// Promote moves a category out one level, reparenting it under its
// grandparent at the first free index.
func (s *Service) Promote(catID string) error {
	return s.st.WithTx(func(tx *sql.Tx) error {
		t, err := loadTree(tx)
		if err != nil {
			return err
		}
		n, ok := t.nodes[catID]
		if !ok {
			return fmt.Errorf("category %s: %w", catID, model.ErrNotFound)
		}
		if n.parent == nil || n.parent.parent == nil {
			return fmt.Errorf("category %s has no grandparent to promote to: %w", catID, model.ErrInvalidState)
		}

		grandparent := n.parent.parent.cat.ID
		index, err := id.LocalIndex(catID)
		if err != nil {
			return err
		}
		newID := t.nextAvailableID(id.Child(grandparent, index))
		return applyRenames(tx, t, subtreeRenames(n, newID, grandparent))
	})
}

// Demote moves a category in one level, under a sibling-side parent, at
// the next free child index.
func (s *Service) Demote(catID, newParentID string) error {
	return s.Move(catID, newParentID)
}

// Swap exchanges the positions of two categories that share a parent,
// including all descendant ids and every foreign reference.
func (s *Service) Swap(aID, bID string) error {
	return s.st.WithTx(func(tx *sql.Tx) error {
		t, err := loadTree(tx)
		if err != nil {
			return err
		}
		a, ok := t.nodes[aID]
		if !ok {
			return fmt.Errorf("category %s: %w", aID, model.ErrNotFound)
		}
		b, ok := t.nodes[bID]
		if !ok {
			return fmt.Errorf("category %s: %w", bID, model.ErrNotFound)
		}
		if a.cat.ParentID != b.cat.ParentID {
			return fmt.Errorf("categories %s and %s have different parents: %w", aID, bID, model.ErrInvalidState)
		}

		renames := append(subtreeRenames(a, bID, b.cat.ParentID),
			subtreeRenames(b, aID, a.cat.ParentID)...)
		return applyRenames(tx, t, renames)
	})
}

// Delete removes a category and its descendants. It fails if any
// transaction references the category or any descendant, either as a
// classification or as an account.
func (s *Service) Delete(catID string) error {
	return s.st.WithTx(func(tx *sql.Tx) error {
		t, err := loadTree(tx)
		if err != nil {
			return err
		}
		if _, ok := t.nodes[catID]; !ok {
			return fmt.Errorf("category %s: %w", catID, model.ErrNotFound)
		}

		prefix := catID + ".%"
		var refs int
		err = tx.QueryRow(`
			SELECT COUNT(*) FROM transactions
			WHERE category_id = ? OR category_id LIKE ?
			   OR account_id = ? OR account_id LIKE ?`,
			catID, prefix, catID, prefix).Scan(&refs)
		if err != nil {
			return fmt.Errorf("checking transaction references: %w", err)
		}
		if refs > 0 {
			return fmt.Errorf("category %s has %d dependent transactions: %w", catID, refs, model.ErrInvalidState)
		}

		err = tx.QueryRow(`
			SELECT COUNT(*) FROM rules
			WHERE target_category_id = ? OR target_category_id LIKE ?
			   OR account_id = ? OR account_id LIKE ?`,
			catID, prefix, catID, prefix).Scan(&refs)
		if err != nil {
			return fmt.Errorf("checking rule references: %w", err)
		}
		if refs > 0 {
			return fmt.Errorf("category %s has %d dependent rules: %w", catID, refs, model.ErrInvalidState)
		}

		if _, err := tx.Exec(`DELETE FROM bank_accounts WHERE id = ? OR id LIKE ?`, catID, prefix); err != nil {
			return fmt.Errorf("deleting subtree accounts: %w", err)
		}
		if _, err := tx.Exec(`DELETE FROM categories WHERE id = ? OR id LIKE ?`, catID, prefix); err != nil {
			return fmt.Errorf("deleting subtree: %w", err)
		}
		return nil
	})
}

// NextAvailableID returns baseID if free, else the next free sibling id
// at the same level.
func (s *Service) NextAvailableID(baseID string) (string, error) {
	t, err := loadTree(s.st.DB())
	if err != nil {
		return "", err
	}
	return t.nextAvailableID(baseID), nil
}

// applyRenames writes a planned set of id renames to the categories
// table and every table referencing category ids. A sentinel prefix
// keeps intermediate states collision-free, so swaps renumber cleanly.
func applyRenames(tx *sql.Tx, t *tree, renames []rename) error {
	renamed := make(map[string]bool, len(renames))
	for _, r := range renames {
		renamed[r.oldID] = true
	}
	for _, r := range renames {
		if _, taken := t.nodes[r.newID]; taken && !renamed[r.newID] {
			return fmt.Errorf("id %s already exists: %w", r.newID, model.ErrIntegrityViolation)
		}
	}

	for _, r := range renames {
		_, err := tx.Exec(`UPDATE categories SET id = '~' || ?, parent_id = ? WHERE id = ?`,
			r.newID, store.NullString(r.newParentID), r.oldID)
		if err != nil {
			return fmt.Errorf("renaming category %s: %w", r.oldID, err)
		}
	}
	if _, err := tx.Exec(`UPDATE categories SET id = substr(id, 2) WHERE id LIKE '~%'`); err != nil {
		return fmt.Errorf("finalizing category renames: %w", err)
	}

	refs := []struct{ table, column string }{
		{"bank_accounts", "id"},
		{"transactions", "account_id"},
		{"transactions", "category_id"},
		{"rules", "target_category_id"},
		{"rules", "account_id"},
	}
	for _, ref := range refs {
		if err := renameColumn(tx, ref.table, ref.column, renames); err != nil {
			return err
		}
	}
	return nil
}

// renameColumn rewrites one referencing column through the same
// two-phase sentinel scheme.
func renameColumn(tx *sql.Tx, table, column string, renames []rename) error {
	for _, r := range renames {
		q := fmt.Sprintf(`UPDATE %s SET %s = '~' || ? WHERE %s = ?`, table, column, column)
		if _, err := tx.Exec(q, r.newID, r.oldID); err != nil {
			return fmt.Errorf("renaming %s.%s %s: %w", table, column, r.oldID, err)
		}
	}
	q := fmt.Sprintf(`UPDATE %s SET %s = substr(%s, 2) WHERE %s LIKE '~%%'`, table, column, column, column)
	if _, err := tx.Exec(q); err != nil {
		return fmt.Errorf("finalizing %s.%s renames: %w", table, column, err)
	}
	return nil
}
