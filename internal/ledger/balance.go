package ledger

import "github.com/shopspring/decimal"

// NormalSide returns the side that increases an account's natural balance.
// Asset and Expense accounts are debit-normal; Liability, Equity and Income
// accounts are credit-normal.
func NormalSide(t AccountType) Side {
	switch t {
	case TypeAsset, TypeExpense:
		return Debit
	default:
		return Credit
	}
}

// Movement is one debit/credit pair feeding the balance accumulator.
type Movement struct {
	Debit  decimal.Decimal
	Credit decimal.Decimal
}

// Step advances a running balance by one movement under the given sign
// convention.
func Step(balance decimal.Decimal, m Movement, normal Side) decimal.Decimal {
	if normal == Credit {
		return balance.Add(m.Credit).Sub(m.Debit)
	}
	return balance.Add(m.Debit).Sub(m.Credit)
}

// Accumulate computes the running balance after each movement, seeded by the
// opening balance. It is a pure function of its inputs: identical arguments
// always yield identical output, so windowed ledgers can be replayed
// deterministically.
func Accumulate(opening decimal.Decimal, movements []Movement, normal Side) []decimal.Decimal {
	out := make([]decimal.Decimal, len(movements))
	balance := opening
	for i, m := range movements {
		balance = Step(balance, m, normal)
		out[i] = balance
	}
	return out
}
