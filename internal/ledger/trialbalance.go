package ledger

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"
)

// TrialBalanceRow is one account's debit/credit totals.
type TrialBalanceRow struct {
	AccountID   string          `json:"account_id"`
	AccountName string          `json:"account_name"`
	Code        string          `json:"code"`
	Type        AccountType     `json:"type"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
}

// TrialBalance verifies the books balance: whenever every stored entry
// individually balances, TotalDebit equals TotalCredit.
type TrialBalance struct {
	Rows        []TrialBalanceRow `json:"trial_balance"`
	TotalDebit  decimal.Decimal   `json:"total_debit"`
	TotalCredit decimal.Decimal   `json:"total_credit"`
	IsBalanced  bool              `json:"is_balanced"`
}

type trialBalanceSource interface {
	GetAccount(ctx context.Context, id string) (Account, error)
	QueryEntries(ctx context.Context, f EntryFilter) ([]JournalEntry, error)
}

// ComputeTrialBalance sums journal lines per account within the optional
// window. Only accounts with activity in the window appear; rows are sorted
// by account code. Equality is exact decimal comparison, so no tolerance is
// needed.
func ComputeTrialBalance(ctx context.Context, src trialBalanceSource, window DateRange) (*TrialBalance, error) {
	if err := window.Validate(); err != nil {
		return nil, err
	}
	entries, err := src.QueryEntries(ctx, EntryFilter{Range: window})
	if err != nil {
		return nil, err
	}

	totals := make(map[string]*TrialBalanceRow)
	for _, e := range entries {
		for _, line := range e.Lines {
			row, ok := totals[line.AccountID]
			if !ok {
				acc, err := src.GetAccount(ctx, line.AccountID)
				if err != nil {
					return nil, err
				}
				row = &TrialBalanceRow{
					AccountID:   acc.ID,
					AccountName: acc.Name,
					Code:        acc.Code,
					Type:        acc.Type,
					Debit:       decimal.Zero,
					Credit:      decimal.Zero,
				}
				totals[line.AccountID] = row
			}
			if line.Side == Credit {
				row.Credit = row.Credit.Add(line.Amount)
			} else {
				row.Debit = row.Debit.Add(line.Amount)
			}
		}
	}

	tb := &TrialBalance{
		Rows:        make([]TrialBalanceRow, 0, len(totals)),
		TotalDebit:  decimal.Zero,
		TotalCredit: decimal.Zero,
	}
	for _, row := range totals {
		tb.Rows = append(tb.Rows, *row)
		tb.TotalDebit = tb.TotalDebit.Add(row.Debit)
		tb.TotalCredit = tb.TotalCredit.Add(row.Credit)
	}
	sort.Slice(tb.Rows, func(i, j int) bool { return tb.Rows[i].Code < tb.Rows[j].Code })
	tb.IsBalanced = tb.TotalDebit.Equal(tb.TotalCredit)
	return tb, nil
}
