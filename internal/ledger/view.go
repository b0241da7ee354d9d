package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// SubjectKind selects whose ledger a view is built for.
type SubjectKind string

const (
	SubjectAccount  SubjectKind = "account"
	SubjectCustomer SubjectKind = "customer"
	SubjectSupplier SubjectKind = "supplier"
	SubjectProduct  SubjectKind = "product"
)

// LedgerRow is one derived line of a ledger view. Rows are regenerated on
// every build and never persisted.
type LedgerRow struct {
	Date        time.Time       `json:"date"`
	BillNo      string          `json:"bill_no,omitempty"`
	Description string          `json:"description"`
	Narration   string          `json:"narration,omitempty"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Balance     decimal.Decimal `json:"balance"`
	EntryID     string          `json:"entry_id"`
	Source      *SourceRef      `json:"source,omitempty"`
}

// LedgerView is a filtered, time-bounded, ordered ledger for one subject.
type LedgerView struct {
	SubjectID      string          `json:"subject_id"`
	SubjectKind    SubjectKind     `json:"subject_kind"`
	AccountID      string          `json:"account_id"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	ClosingBalance decimal.Decimal `json:"closing_balance"`
	TotalDebit     decimal.Decimal `json:"total_debit"`
	TotalCredit    decimal.Decimal `json:"total_credit"`
	Rows           []LedgerRow     `json:"rows"`
}

// viewSource is the read surface the builder needs.
type viewSource interface {
	GetAccount(ctx context.Context, id string) (Account, error)
	GetCustomer(ctx context.Context, id string) (Customer, error)
	GetSupplier(ctx context.Context, id string) (Supplier, error)
	GetProduct(ctx context.Context, id string) (Product, error)
	QueryEntries(ctx context.Context, f EntryFilter) ([]JournalEntry, error)
}

// ViewOption tweaks a ledger build.
type ViewOption func(*viewConfig)

type viewConfig struct {
	sourceKinds []SourceKind
}

// WithSourceKinds restricts emitted rows and totals to entries from the
// given source kinds (the supplier ledger's invoice/payment/opening filter).
// The balance replay still covers the full history, before and inside the
// window, so opening, running and closing balances match the unfiltered
// ledger.
func WithSourceKinds(kinds ...SourceKind) ViewOption {
	return func(c *viewConfig) {
		c.sourceKinds = kinds
	}
}

// BuildLedger produces the ordered ledger for one subject. Party and product
// subjects resolve through their linked account. The opening balance is the
// subject's base opening balance plus a replay of all entries dated before
// the window start; rows inside the window then extend it. Bounds are
// inclusive at day granularity.
func BuildLedger(ctx context.Context, src viewSource, subjectID string, kind SubjectKind, window DateRange, opts ...ViewOption) (*LedgerView, error) {
	if err := window.Validate(); err != nil {
		return nil, err
	}
	var cfg viewConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	accountID, base, err := resolveSubject(ctx, src, subjectID, kind)
	if err != nil {
		return nil, err
	}
	acc, err := src.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	normal := NormalSide(acc.Type)

	// The full history is always queried; filtering an already
	// balance-computed sequence would corrupt running balances, so the
	// window (and any source-kind filter) is applied while replaying.
	entries, err := src.QueryEntries(ctx, EntryFilter{AccountID: accountID})
	if err != nil {
		return nil, err
	}

	view := &LedgerView{
		SubjectID:      subjectID,
		SubjectKind:    kind,
		AccountID:      accountID,
		OpeningBalance: base,
		TotalDebit:     decimal.Zero,
		TotalCredit:    decimal.Zero,
		Rows:           []LedgerRow{},
	}

	opening := base
	balance := base
	for _, e := range entries {
		inWindow := window.Contains(e.Date)
		beforeWindow := !window.Start.IsZero() && DateOnly(e.Date).Before(DateOnly(window.Start))
		if !inWindow && !beforeWindow {
			// Past the window end; later entries cannot affect the view.
			continue
		}
		// Entries of filtered-out kinds still move the balance; only their
		// rows are withheld. Skipping them from the replay would detach the
		// running balance from the account's real history.
		emit := len(cfg.sourceKinds) == 0 || kindIn(EntrySourceKind(e), cfg.sourceKinds)
		for _, line := range e.Lines {
			if line.AccountID != accountID {
				continue
			}
			m := movementFor(line)
			balance = Step(balance, m, normal)
			if beforeWindow {
				opening = balance
				continue
			}
			if !emit {
				continue
			}
			view.Rows = append(view.Rows, LedgerRow{
				Date:        e.Date,
				BillNo:      e.BillNo,
				Description: e.Description,
				Narration:   line.Narration,
				Debit:       m.Debit,
				Credit:      m.Credit,
				Balance:     balance,
				EntryID:     e.ID,
				Source:      e.Source,
			})
			view.TotalDebit = view.TotalDebit.Add(m.Debit)
			view.TotalCredit = view.TotalCredit.Add(m.Credit)
		}
	}

	view.OpeningBalance = opening
	view.ClosingBalance = balance
	return view, nil
}

func resolveSubject(ctx context.Context, src viewSource, subjectID string, kind SubjectKind) (accountID string, opening decimal.Decimal, err error) {
	switch kind {
	case SubjectAccount:
		return subjectID, decimal.Zero, nil
	case SubjectCustomer:
		c, err := src.GetCustomer(ctx, subjectID)
		if err != nil {
			return "", decimal.Zero, err
		}
		return c.AccountID, c.OpeningBalance, nil
	case SubjectSupplier:
		s, err := src.GetSupplier(ctx, subjectID)
		if err != nil {
			return "", decimal.Zero, err
		}
		return s.AccountID, s.OpeningBalance, nil
	case SubjectProduct:
		p, err := src.GetProduct(ctx, subjectID)
		if err != nil {
			return "", decimal.Zero, err
		}
		return p.AccountID, decimal.Zero, nil
	default:
		return "", decimal.Zero, Validationf("unknown subject kind %q", kind)
	}
}

func movementFor(line JournalLine) Movement {
	if line.Side == Credit {
		return Movement{Debit: decimal.Zero, Credit: line.Amount}
	}
	return Movement{Debit: line.Amount, Credit: decimal.Zero}
}

func kindIn(kind SourceKind, set []SourceKind) bool {
	for _, k := range set {
		if k == kind {
			return true
		}
	}
	return false
}

// CategorySummary reports the closing balance of every account in a
// category (the cash/bank dashboard cards).
type CategorySummary struct {
	Category AccountCategory  `json:"category"`
	Accounts []AccountBalance `json:"accounts"`
	Total    decimal.Decimal  `json:"total"`
}

// AccountBalance pairs an account with its derived balance.
type AccountBalance struct {
	Account Account         `json:"account"`
	Balance decimal.Decimal `json:"balance"`
}

// summarySource is the read surface category summaries need.
type summarySource interface {
	viewSource
	ListAccounts(ctx context.Context, f AccountFilter) ([]Account, error)
}

// SummarizeCategory computes derived balances for all accounts in the given
// category as of the full history.
func SummarizeCategory(ctx context.Context, src summarySource, category AccountCategory) (*CategorySummary, error) {
	if !ValidCategory(category) {
		return nil, Validationf("unknown account category %q", category)
	}
	accounts, err := src.ListAccounts(ctx, AccountFilter{Category: category})
	if err != nil {
		return nil, err
	}

	out := &CategorySummary{Category: category, Accounts: []AccountBalance{}, Total: decimal.Zero}
	for _, acc := range accounts {
		view, err := BuildLedger(ctx, src, acc.ID, SubjectAccount, DateRange{})
		if err != nil {
			return nil, fmt.Errorf("summarize %s: %w", acc.ID, err)
		}
		out.Accounts = append(out.Accounts, AccountBalance{Account: acc, Balance: view.ClosingBalance})
		out.Total = out.Total.Add(view.ClosingBalance)
	}
	return out, nil
}
