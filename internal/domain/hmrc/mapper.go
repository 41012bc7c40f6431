package hmrc

import (
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/homeledger/taxengine/internal/domain/ledger"
	"github.com/homeledger/taxengine/internal/domain/shared"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
)

// MatchSource records how a category was assigned to its box.
type MatchSource string

const (
	MatchExplicit MatchSource = "explicit" // category hmrcMapping
	MatchKeyword  MatchSource = "keyword"  // bidirectional substring heuristic
)

// BoxTotal is one populated box of the breakdown.
type BoxTotal struct {
	Key        string          `json:"key"`
	Box        string          `json:"box"`
	Label      string          `json:"label"`
	Kind       BoxKind         `json:"kind"`
	Total      decimal.Decimal `json:"total"`
	Categories []string        `json:"categories"`
}

// Unmapped is an active category no box claimed.
type Unmapped struct {
	Name  string              `json:"name"`
	Type  ledger.CategoryType `json:"type"`
	Total decimal.Decimal     `json:"total"`
}

// Breakdown is the SA103 box view of a transaction set.
type Breakdown struct {
	Boxes              []BoxTotal      `json:"boxes"`
	Unmapped           []Unmapped      `json:"unmapped"`
	UncategorisedTotal decimal.Decimal `json:"uncategorised_total"`
}

// Assignment is the box chosen for one category.
type Assignment struct {
	Box    Box
	Source MatchSource
}

// Assign picks the box for a category. An explicit hmrcMapping wins; otherwise
// the first table row of the category's kind whose keywords match the name.
// Income categories only reach income boxes and expense categories only expense boxes.
func Assign(c ledger.Category) (*Assignment, error) {
	kind := KindExpense
	if c.IsIncome() {
		kind = KindIncome
	}

	if c.HMRCMapping != "" && c.HMRCMapping != MappingNone {
		b, ok := BoxByMapping(c.HMRCMapping)
		if !ok {
			return nil, shared.NewMissingReferenceError("hmrc box", c.HMRCMapping)
		}
		if b.Kind != kind {
			return nil, shared.NewInvalidInputError("category %q of type %s cannot map to %s box %s",
				c.Name, c.Type, b.Kind, b.Box)
		}
		return &Assignment{Box: b, Source: MatchExplicit}, nil
	}

	fold := cases.Fold()
	name := fold.String(c.Name)
	if name == "" {
		return nil, nil
	}
	for _, b := range boxTable {
		if b.Kind != kind {
			continue
		}
		for _, kw := range b.Keywords {
			k := fold.String(kw)
			if strings.Contains(name, k) || strings.Contains(k, name) {
				return &Assignment{Box: b, Source: MatchKeyword}, nil
			}
		}
	}
	return nil, nil
}

// Map aggregates gross category totals into boxes. Expense categories total
// their debits and income categories their credits; deductibility does not
// apply. Boxes nothing matched are omitted. Boxes are ordered by total
// descending, table order on ties.
func Map(txs []ledger.Transaction, idx *ledger.CategoryIndex) (*Breakdown, error) {
	resolved, err := ledger.Resolve(txs, idx)
	if err != nil {
		return nil, err
	}

	totals := make(map[uuid.UUID]decimal.Decimal)
	var active []ledger.Category
	uncategorised := decimal.Zero
	for _, r := range resolved {
		tx, cat := r.Transaction, r.Category
		if cat == nil {
			if tx.IsDebit() {
				uncategorised = uncategorised.Add(tx.Amount)
			}
			continue
		}
		if _, seen := totals[cat.ID]; !seen {
			totals[cat.ID] = decimal.Zero
			active = append(active, *cat)
		}
		if (cat.IsExpense() && tx.IsDebit()) || (cat.IsIncome() && tx.IsCredit()) {
			totals[cat.ID] = totals[cat.ID].Add(tx.Amount)
		}
	}

	byKey := make(map[string]*BoxTotal)
	out := &Breakdown{UncategorisedTotal: uncategorised, Unmapped: make([]Unmapped, 0)}
	for _, c := range active {
		a, err := Assign(c)
		if err != nil {
			return nil, err
		}
		if a == nil {
			out.Unmapped = append(out.Unmapped, Unmapped{Name: c.Name, Type: c.Type, Total: totals[c.ID]})
			continue
		}
		bt, ok := byKey[a.Box.Key]
		if !ok {
			bt = &BoxTotal{Key: a.Box.Key, Box: a.Box.Box, Label: a.Box.Label, Kind: a.Box.Kind, Total: decimal.Zero}
			byKey[a.Box.Key] = bt
		}
		bt.Total = bt.Total.Add(totals[c.ID])
		bt.Categories = append(bt.Categories, c.Name)
	}

	out.Boxes = make([]BoxTotal, 0, len(byKey))
	for _, b := range boxTable {
		if bt, ok := byKey[b.Key]; ok {
			sort.Strings(bt.Categories)
			out.Boxes = append(out.Boxes, *bt)
		}
	}
	sort.SliceStable(out.Boxes, func(i, j int) bool {
		return out.Boxes[i].Total.GreaterThan(out.Boxes[j].Total)
	})
	return out, nil
}

// TotalExpenses sums the expense boxes.
func (b *Breakdown) TotalExpenses() decimal.Decimal {
	sum := decimal.Zero
	for _, bt := range b.Boxes {
		if bt.Kind == KindExpense {
			sum = sum.Add(bt.Total)
		}
	}
	return sum
}
