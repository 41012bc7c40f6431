package ledger

import (
	"sort"

	"github.com/google/uuid"
	"github.com/homeledger/taxengine/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// UncategorisedName is the account name used for transactions without a category.
const UncategorisedName = "Uncategorised"

// CategoryType splits categories into income and expense
type CategoryType string

const (
	CategoryIncome  CategoryType = "income"
	CategoryExpense CategoryType = "expense"
)

// IsValid checks if the type is income or expense
func (t CategoryType) IsValid() bool {
	return t == CategoryIncome || t == CategoryExpense
}

// String returns the string representation
func (t CategoryType) String() string {
	return string(t)
}

// Category is a user-defined income or expense category.
type Category struct {
	ID   uuid.UUID    `json:"id" validate:"required"`
	Name string       `json:"name" validate:"required,max=100"`
	Type CategoryType `json:"type" validate:"required,oneof=income expense"`
	// DefaultDeductibilityPercent applies when a transaction carries no override (0-100).
	DefaultDeductibilityPercent decimal.Decimal `json:"default_deductibility_percent"`
	// HMRCMapping optionally pins the category to an SA103 box key such as "office_costs".
	HMRCMapping string `json:"hmrc_mapping,omitempty" validate:"omitempty,max=50"`
}

// IsIncome returns true for income categories
func (c Category) IsIncome() bool {
	return c.Type == CategoryIncome
}

// IsExpense returns true for expense categories
func (c Category) IsExpense() bool {
	return c.Type == CategoryExpense
}

// Validate checks required fields and enum values
func (c Category) Validate() error {
	return validateStruct(c)
}

// CategoryIndex resolves transaction category references.
type CategoryIndex struct {
	byID  map[uuid.UUID]Category
	order []uuid.UUID
}

// NewCategoryIndex validates the categories and indexes them by ID.
// Duplicate IDs are rejected.
func NewCategoryIndex(categories []Category) (*CategoryIndex, error) {
	idx := &CategoryIndex{
		byID:  make(map[uuid.UUID]Category, len(categories)),
		order: make([]uuid.UUID, 0, len(categories)),
	}
	for _, c := range categories {
		if err := c.Validate(); err != nil {
			return nil, err
		}
		if _, dup := idx.byID[c.ID]; dup {
			return nil, shared.NewInvalidInputError("duplicate category id %s", c.ID)
		}
		idx.byID[c.ID] = c
		idx.order = append(idx.order, c.ID)
	}
	return idx, nil
}

// Lookup returns the transaction's category, nil for an uncategorised
// transaction, or MissingReferenceData when the ID is not in the index.
// A nil index holds no categories.
func (idx *CategoryIndex) Lookup(tx Transaction) (*Category, error) {
	if tx.CategoryID == nil {
		return nil, nil
	}
	c, ok := idx.Get(*tx.CategoryID)
	if !ok {
		return nil, shared.NewMissingReferenceError("category", tx.CategoryID.String())
	}
	return &c, nil
}

// Get returns the category with the given ID
func (idx *CategoryIndex) Get(id uuid.UUID) (Category, bool) {
	if idx == nil {
		return Category{}, false
	}
	c, ok := idx.byID[id]
	return c, ok
}

// Len returns the number of indexed categories
func (idx *CategoryIndex) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.byID)
}

// Categories returns the categories in input order
func (idx *CategoryIndex) Categories() []Category {
	if idx == nil {
		return nil
	}
	out := make([]Category, 0, len(idx.order))
	for _, id := range idx.order {
		out = append(out, idx.byID[id])
	}
	return out
}

// AccountName is the ledger account a transaction posts to: its category
// name, or UncategorisedName.
func AccountName(c *Category) string {
	if c == nil {
		return UncategorisedName
	}
	return c.Name
}

// AccountType is the category type, with uncategorised transactions treated as expense.
func AccountType(c *Category) CategoryType {
	if c == nil {
		return CategoryExpense
	}
	return c.Type
}

// Resolved pairs a transaction with its category (nil when uncategorised).
type Resolved struct {
	Transaction Transaction
	Category    *Category
}

// Resolve validates every transaction and resolves its category.
func Resolve(txs []Transaction, idx *CategoryIndex) ([]Resolved, error) {
	out := make([]Resolved, 0, len(txs))
	for _, tx := range txs {
		if err := tx.Validate(); err != nil {
			return nil, err
		}
		cat, err := idx.Lookup(tx)
		if err != nil {
			return nil, err
		}
		out = append(out, Resolved{Transaction: tx, Category: cat})
	}
	return out, nil
}

// SortAccounts orders rows by category type then name, ascending.
func SortAccounts[T any](rows []T, key func(T) (CategoryType, string)) {
	sort.SliceStable(rows, func(i, j int) bool {
		ti, ni := key(rows[i])
		tj, nj := key(rows[j])
		if ti != tj {
			return ti < tj
		}
		return ni < nj
	})
}
