package report

import (
	"time"

	"github.com/google/uuid"
	"github.com/homeledger/taxengine/internal/domain/ledger"
	"github.com/shopspring/decimal"
)

// LedgerEntry is one journal line with the account's balance after it.
type LedgerEntry struct {
	TransactionID  uuid.UUID        `json:"transaction_id"`
	Date           time.Time        `json:"date"`
	Description    string           `json:"description"`
	Direction      ledger.Direction `json:"direction"`
	Debit          decimal.Decimal  `json:"debit"`
	Credit         decimal.Decimal  `json:"credit"`
	RunningBalance decimal.Decimal  `json:"running_balance"`
}

// LedgerAccount is one account of the general ledger with its journal in date order.
type LedgerAccount struct {
	Name             string              `json:"name"`
	Type             ledger.CategoryType `json:"type"`
	DebitTotal       decimal.Decimal     `json:"debit_total"`
	CreditTotal      decimal.Decimal     `json:"credit_total"`
	Net              decimal.Decimal     `json:"net"`
	TransactionCount int                 `json:"transaction_count"`
	Entries          []LedgerEntry       `json:"entries"`
}

// ClosingBalance is the running balance after the last entry.
func (a LedgerAccount) ClosingBalance() decimal.Decimal {
	if len(a.Entries) == 0 {
		return decimal.Zero
	}
	return a.Entries[len(a.Entries)-1].RunningBalance
}

// BuildGeneralLedger groups like BuildTrialBalance and walks each account's
// transactions in ascending date order, adding credits and subtracting debits.
// The running balance starts at zero for every account.
func BuildGeneralLedger(txs []ledger.Transaction, idx *ledger.CategoryIndex) ([]LedgerAccount, error) {
	groups, err := groupByAccount(txs, idx)
	if err != nil {
		return nil, err
	}
	accounts := make([]LedgerAccount, 0, len(groups))
	for _, g := range groups {
		acc := LedgerAccount{
			Name:             g.name,
			Type:             g.typ,
			DebitTotal:       g.debits,
			CreditTotal:      g.credits,
			Net:              g.credits.Sub(g.debits),
			TransactionCount: len(g.txs),
			Entries:          make([]LedgerEntry, 0, len(g.txs)),
		}
		balance := decimal.Zero
		for _, tx := range ledger.SortedByDate(g.txs) {
			e := LedgerEntry{
				TransactionID: tx.ID,
				Date:          tx.Date,
				Description:   tx.Description,
				Direction:     tx.Direction,
				Debit:         decimal.Zero,
				Credit:        decimal.Zero,
			}
			if tx.IsCredit() {
				e.Credit = tx.Amount
				balance = balance.Add(tx.Amount)
			} else {
				e.Debit = tx.Amount
				balance = balance.Sub(tx.Amount)
			}
			e.RunningBalance = balance
			acc.Entries = append(acc.Entries, e)
		}
		accounts = append(accounts, acc)
	}
	return accounts, nil
}
