// Package hmrc maps ledger categories onto SA103 self-employment boxes.
package hmrc

// BoxKind says which side of the return a box sits on.
type BoxKind string

const (
	KindIncome  BoxKind = "income"
	KindExpense BoxKind = "expense"
)

// Box is one row of the SA103 mapping table.
type Box struct {
	Key      string   `json:"key"`
	Box      string   `json:"box"`
	Label    string   `json:"label"`
	Kind     BoxKind  `json:"kind"`
	Keywords []string `json:"-"`
	// Aliases are category hmrcMapping values that pin a category to this box.
	Aliases []string `json:"-"`
}

// MappingNone is the hmrcMapping value meaning "use the keyword match".
const MappingNone = "none"

// boxTable is matched in order; the first row that matches a category wins.
var boxTable = []Box{
	{Key: "turnover", Box: "Box 15", Label: "Turnover / Business Income", Kind: KindIncome,
		Keywords: []string{"Sales", "Revenue", "Turnover", "Freelance Income", "Consulting Income", "Service Income", "Contract Income"}},
	{Key: "other_income", Box: "Box 16", Label: "Other Business Income", Kind: KindIncome,
		Keywords: []string{"Other Income", "Interest Received", "Grants", "Cashback", "Refunds", "Commission"}},
	{Key: "office_costs", Box: "Box 17", Label: "Office, Property & Equipment", Kind: KindExpense,
		Keywords: []string{"Office Costs", "Stationery", "Software", "Office Supplies", "Computer Equipment", "Printer", "Phone", "Internet", "Broadband", "Domain", "Hosting", "Cloud", "SaaS"}},
	{Key: "vehicle", Box: "Box 18", Label: "Car, Van & Travel Expenses", Kind: KindExpense,
		Keywords: []string{"Vehicle", "Car", "Van", "Petrol", "Diesel", "MOT", "Car Insurance", "Road Tax", "Parking", "Congestion", "Mileage"}},
	{Key: "clothing", Box: "Box 19", Label: "Clothing Costs", Kind: KindExpense,
		Keywords: []string{"Clothing", "Uniform", "Workwear", "PPE", "Safety Equipment"}},
	{Key: "travel", Box: "Box 20", Label: "Travel & Subsistence", Kind: KindExpense,
		Keywords: []string{"Travel", "Transport", "Uber", "Taxi", "Train", "TFL", "Fuel", "Bus", "Flight", "Hotel", "Meals", "Subsistence", "Accommodation"},
		Aliases:  []string{"travel_costs"}},
	{Key: "staff", Box: "Box 21", Label: "Staff Costs", Kind: KindExpense,
		Keywords: []string{"Staff", "Wages", "Salary", "PAYE", "Pension", "NI Contributions", "Subcontractor", "Agency", "Freelancer Costs"},
		Aliases:  []string{"staff_costs"}},
	{Key: "reselling", Box: "Box 22", Label: "Construction Industry / Cost of Goods", Kind: KindExpense,
		Keywords: []string{"Inventory", "Stock", "Goods", "Resale", "Raw Materials", "Supplies", "CIS", "Construction"},
		Aliases:  []string{"reselling_goods"}},
	{Key: "premises", Box: "Box 23", Label: "Premises Costs", Kind: KindExpense,
		Keywords: []string{"Rent", "Premises", "Rates", "Utilities", "Office Rent", "Business Rates", "Electricity", "Gas", "Water", "Council Tax", "Use of Home", "Home Office"},
		Aliases:  []string{"premises_costs"}},
	{Key: "admin", Box: "Box 24", Label: "Repairs & Maintenance", Kind: KindExpense,
		Keywords: []string{"Repairs", "Maintenance", "Cleaning", "Servicing"}},
	{Key: "advertising", Box: "Box 25", Label: "Advertising, Marketing & Entertainment", Kind: KindExpense,
		Keywords: []string{"Advertising", "Marketing", "Promotion", "SEO", "Social Media", "PR", "Sponsorship", "Client Entertainment", "Google Ads", "Facebook Ads"}},
	{Key: "bank_finance", Box: "Box 26", Label: "Interest on Bank & Other Loans", Kind: KindExpense,
		Keywords: []string{"Bank Charges", "Interest", "Finance", "Loan Interest", "Bank Fees", "Overdraft", "Credit Card Interest", "Merchant Fees", "Payment Processing"},
		Aliases:  []string{"financial_charges"}},
	{Key: "professional", Box: "Box 27", Label: "Accountancy, Legal & Professional", Kind: KindExpense,
		Keywords: []string{"Legal", "Accountant", "Professional", "Consulting", "Solicitor", "Accountancy", "Bookkeeping", "Tax Advice", "Compliance", "Audit"},
		Aliases:  []string{"legal_professional"}},
	{Key: "depreciation", Box: "Box 28", Label: "Depreciation & Loss on Sale", Kind: KindExpense,
		Keywords: []string{"Depreciation", "Amortisation", "Asset Disposal", "Write Off"}},
	{Key: "other_expenses", Box: "Box 29", Label: "Other Allowable Expenses", Kind: KindExpense,
		Keywords: []string{"Other", "Miscellaneous", "Subscriptions", "Insurance", "Professional Subscriptions", "Trade Subscriptions", "Membership", "Training", "CPD", "Courses", "Books", "Reference Materials", "Postage", "Courier", "Packaging"}},
}

// Boxes returns a copy of the mapping table in match order.
func Boxes() []Box {
	out := make([]Box, len(boxTable))
	copy(out, boxTable)
	return out
}

// BoxByMapping finds the box a category's hmrcMapping value pins it to.
// Box keys and aliases are both accepted.
func BoxByMapping(mapping string) (Box, bool) {
	for _, b := range boxTable {
		if b.Key == mapping {
			return b, true
		}
		for _, a := range b.Aliases {
			if a == mapping {
				return b, true
			}
		}
	}
	return Box{}, false
}
