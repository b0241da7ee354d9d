package ledger

import (
	"context"

	"github.com/shopspring/decimal"
)

// AccountAmount pairs an account with its net amount for a report line.
type AccountAmount struct {
	AccountID   string          `json:"account_id"`
	AccountName string          `json:"account_name"`
	NetAmount   decimal.Decimal `json:"net_amount"`
}

// IncomeStatement nets income and expense accounts over a date range.
type IncomeStatement struct {
	Revenue      []AccountAmount `json:"revenue"`
	Expenses     []AccountAmount `json:"expenses"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	TotalExpense decimal.Decimal `json:"total_expense"`
	NetProfit    decimal.Decimal `json:"net_profit"`
}

// ComputeIncomeStatement derives an income statement from the trial balance
// over the window: income accounts net on the credit side, expense accounts
// on the debit side.
func ComputeIncomeStatement(ctx context.Context, src trialBalanceSource, window DateRange) (*IncomeStatement, error) {
	tb, err := ComputeTrialBalance(ctx, src, window)
	if err != nil {
		return nil, err
	}

	out := &IncomeStatement{
		Revenue:      []AccountAmount{},
		Expenses:     []AccountAmount{},
		TotalRevenue: decimal.Zero,
		TotalExpense: decimal.Zero,
	}
	for _, row := range tb.Rows {
		switch row.Type {
		case TypeIncome:
			net := row.Credit.Sub(row.Debit)
			out.Revenue = append(out.Revenue, AccountAmount{
				AccountID:   row.AccountID,
				AccountName: row.AccountName,
				NetAmount:   net,
			})
			out.TotalRevenue = out.TotalRevenue.Add(net)
		case TypeExpense:
			net := row.Debit.Sub(row.Credit)
			out.Expenses = append(out.Expenses, AccountAmount{
				AccountID:   row.AccountID,
				AccountName: row.AccountName,
				NetAmount:   net,
			})
			out.TotalExpense = out.TotalExpense.Add(net)
		}
	}
	out.NetProfit = out.TotalRevenue.Sub(out.TotalExpense)
	return out, nil
}
