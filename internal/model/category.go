package model

// CategoryKind classifies nodes in the category hierarchy.
type CategoryKind string

const (
	KindRoot  CategoryKind = "root"  // level 0: Assets, Liabilities, etc.
	KindGroup CategoryKind = "group" // intermediate organisational groups
	KindLeaf  CategoryKind = "leaf"  // nodes transactions may be assigned to
)

// TaxLabel is a descriptive tax marker on leaf categories and transactions.
type TaxLabel string

const (
	TaxGST  TaxLabel = "GST"  // goods and services tax
	TaxFree TaxLabel = "FRE"  // GST free
	TaxNT   TaxLabel = "NT"   // not taxable
	TaxNone TaxLabel = "NONE"
)

// Category is a node in the chart-of-accounts forest. Its ID is a dotted
// materialized path ("1.2.3"); every descendant's id is prefixed by its
// ancestor's id plus ".". ParentID is empty only for roots.
type Category struct {
	ID        string
	Name      string
	ParentID  string
	Kind      CategoryKind
	TaxLabel  TaxLabel // only meaningful for leaves
	IsAccount bool     // leaf doubles as a bank account
}

// IsLeaf reports whether transactions may be assigned to this category.
func (c Category) IsLeaf() bool { return c.Kind == KindLeaf }
