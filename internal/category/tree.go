package category

import (
	"fmt"
	"sort"

	"github.com/tallybook-dev/tallybook/internal/id"
	"github.com/tallybook-dev/tallybook/internal/model"
	"github.com/tallybook-dev/tallybook/internal/store"
)

// node is one category in the in-memory arena. Structural mutations are
// planned against this tree and only then written back as id renames, so
// the dotted path stays a derived identifier rather than the mutation
// mechanism itself.
type node struct {
	cat      model.Category
	parent   *node
	children []*node // ordered by local index
}

type tree struct {
	nodes map[string]*node
	roots []*node
}

func loadTree(q store.Queryer) (*tree, error) {
	rows, err := q.Query(`
		SELECT id, name, parent_id, kind, tax_label, is_account
		FROM categories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("loading categories: %w", err)
	}
	defer rows.Close()

	t := &tree{nodes: make(map[string]*node)}
	for rows.Next() {
		var c model.Category
		var parentID, taxLabel *string
		if err := rows.Scan(&c.ID, &c.Name, &parentID, &c.Kind, &taxLabel, &c.IsAccount); err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		if parentID != nil {
			c.ParentID = *parentID
		}
		if taxLabel != nil {
			c.TaxLabel = model.TaxLabel(*taxLabel)
		}
		t.nodes[c.ID] = &node{cat: c}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, n := range t.nodes {
		if n.cat.ParentID == "" {
			t.roots = append(t.roots, n)
			continue
		}
		p, ok := t.nodes[n.cat.ParentID]
		if !ok {
			return nil, fmt.Errorf("category %s: dangling parent %s: %w",
				n.cat.ID, n.cat.ParentID, model.ErrIntegrityViolation)
		}
		n.parent = p
		p.children = append(p.children, n)
	}

	sortByIndex := func(ns []*node) {
		sort.Slice(ns, func(i, j int) bool {
			a, _ := id.LocalIndex(ns[i].cat.ID)
			b, _ := id.LocalIndex(ns[j].cat.ID)
			return a < b
		})
	}
	sortByIndex(t.roots)
	for _, n := range t.nodes {
		sortByIndex(n.children)
	}
	return t, nil
}

// maxChildIndex returns the highest local index among a parent's
// children, 0 if there are none.
func (t *tree) maxChildIndex(parentID string) int {
	var children []*node
	if parentID == "" {
		children = t.roots
	} else if p, ok := t.nodes[parentID]; ok {
		children = p.children
	}
	max := 0
	for _, c := range children {
		if n, err := id.LocalIndex(c.cat.ID); err == nil && n > max {
			max = n
		}
	}
	return max
}

// nextAvailableID returns baseID if no category occupies it, otherwise
// the next free sibling index at the same level.
func (t *tree) nextAvailableID(baseID string) string {
	if _, taken := t.nodes[baseID]; !taken {
		return baseID
	}
	parent := id.Parent(baseID)
	return id.Child(parent, t.maxChildIndex(parent)+1)
}

// rename maps one category row to its post-mutation identity.
type rename struct {
	oldID       string
	newID       string
	newParentID string
}

// subtreeRenames plans the rename of n to newID under newParentID,
// including every descendant via prefix rewrite.
func subtreeRenames(n *node, newID, newParentID string) []rename {
	renames := []rename{{oldID: n.cat.ID, newID: newID, newParentID: newParentID}}
	var walk func(p *node)
	walk = func(p *node) {
		for _, c := range p.children {
			renames = append(renames, rename{
				oldID:       c.cat.ID,
				newID:       id.Rewrite(c.cat.ID, n.cat.ID, newID),
				newParentID: id.Rewrite(c.cat.ParentID, n.cat.ID, newID),
			})
			walk(c)
		}
	}
	walk(n)
	return renames
}
