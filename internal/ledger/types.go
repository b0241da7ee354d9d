package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType classifies accounts in the chart of accounts.
type AccountType string

const (
	TypeAsset     AccountType = "Asset"
	TypeLiability AccountType = "Liability"
	TypeEquity    AccountType = "Equity"
	TypeIncome    AccountType = "Income"
	TypeExpense   AccountType = "Expense"
)

// ValidType reports whether t is a member of the account type enumeration.
func ValidType(t AccountType) bool {
	switch t {
	case TypeAsset, TypeLiability, TypeEquity, TypeIncome, TypeExpense:
		return true
	}
	return false
}

// AccountCategory is the payment-channel classification used by the
// cash/bank summaries and payment account pickers.
type AccountCategory string

const (
	CategoryCash   AccountCategory = "cash"
	CategoryBank   AccountCategory = "bank"
	CategoryCredit AccountCategory = "credit"
	CategoryCheque AccountCategory = "cheque"
	CategoryOnline AccountCategory = "online"
	CategoryOther  AccountCategory = "other"
)

// ValidCategory reports whether c is a member of the category enumeration.
func ValidCategory(c AccountCategory) bool {
	switch c {
	case CategoryCash, CategoryBank, CategoryCredit, CategoryCheque, CategoryOnline, CategoryOther:
		return true
	}
	return false
}

// Side is one half of a double entry.
type Side string

const (
	Debit  Side = "debit"
	Credit Side = "credit"
)

// Account is a row in the chart of accounts. Balance is never stored: it is
// always derived from journal lines by the balance accumulator.
type Account struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Code      string          `json:"code"`
	Type      AccountType     `json:"type"`
	Category  AccountCategory `json:"category"`
	CreatedAt time.Time       `json:"created_at"`
}

// SourceKind tags the business document a journal entry originated from.
type SourceKind string

const (
	SourceManual          SourceKind = "manual"
	SourceInvoice         SourceKind = "invoice"
	SourcePurchaseInvoice SourceKind = "purchase_invoice"
	SourceReceivePayment  SourceKind = "receive_payment"
	SourcePayBill         SourceKind = "pay_bill"
	SourceExpense         SourceKind = "expense"
	SourceOpening         SourceKind = "opening"
)

// ValidSourceKind reports whether k is a known source kind.
func ValidSourceKind(k SourceKind) bool {
	switch k {
	case SourceManual, SourceInvoice, SourcePurchaseInvoice,
		SourceReceivePayment, SourcePayBill, SourceExpense, SourceOpening:
		return true
	}
	return false
}

// SourceRef points a journal entry back at the document that created it.
// Entries carrying a SourceRef cannot be deleted without presenting the
// matching reference.
type SourceRef struct {
	Kind SourceKind `json:"kind"`
	ID   string     `json:"id"`
}

// JournalLine is one side of a double entry. A line carries exactly one of
// the two sides; Amount is always non-negative. Lines are owned by their
// parent entry and are never shared.
type JournalLine struct {
	AccountID string          `json:"account_id"`
	Side      Side            `json:"type"`
	Amount    decimal.Decimal `json:"amount"`
	Narration string          `json:"narration,omitempty"`
}

// JournalEntry is a dated, balanced set of debit/credit lines recording one
// business event. Seq is assigned on creation and breaks same-date ordering
// ties.
type JournalEntry struct {
	ID          string        `json:"id"`
	Date        time.Time     `json:"date"`
	Description string        `json:"description"`
	BillNo      string        `json:"bill_no,omitempty"`
	Lines       []JournalLine `json:"lines"`
	Source      *SourceRef    `json:"source,omitempty"`
	Seq         uint64        `json:"seq"`
	CreatedAt   time.Time     `json:"created_at"`
}

// Customer is a receivable party tracked through a linked ledger account.
type Customer struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Phone          string          `json:"phone,omitempty"`
	Email          string          `json:"email,omitempty"`
	Address        string          `json:"address,omitempty"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	AccountID      string          `json:"account_id"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Supplier is a payable party tracked through a linked ledger account.
type Supplier struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Phone          string          `json:"phone,omitempty"`
	Email          string          `json:"email,omitempty"`
	Address        string          `json:"address,omitempty"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	AccountID      string          `json:"account_id"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Product is an inventory item. Stock is derived from invoice items, never
// stored as authoritative state.
type Product struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	UnitCost          decimal.Decimal `json:"unit_cost"`
	SalePrice         decimal.Decimal `json:"sale_price"`
	LowStockThreshold int64           `json:"low_stock_threshold"`
	AccountID         string          `json:"account_id"`
	CreatedAt         time.Time       `json:"created_at"`
}

// InvoiceKind separates sales (receivable) from purchase (payable) invoices.
type InvoiceKind string

const (
	InvoiceSale     InvoiceKind = "sale"
	InvoicePurchase InvoiceKind = "purchase"
)

// InvoiceItem is one product line on an invoice.
type InvoiceItem struct {
	ProductID string          `json:"product_id"`
	Qty       int64           `json:"qty"`
	Rate      decimal.Decimal `json:"rate"`
}

// InvoicePayment records money received or paid against an invoice.
type InvoicePayment struct {
	Date   time.Time       `json:"date"`
	Amount decimal.Decimal `json:"amount"`
}

// Invoice is a sales or purchase document. Outstanding balance is derived
// from Total minus payments dated on or before the report date.
type Invoice struct {
	ID          string           `json:"id"`
	Kind        InvoiceKind      `json:"kind"`
	BillNo      int64            `json:"bill_no"`
	CustomerID  string           `json:"customer_id,omitempty"`
	SupplierID  string           `json:"supplier_id,omitempty"`
	Date        time.Time        `json:"date"`
	Description string           `json:"description,omitempty"`
	Total       decimal.Decimal  `json:"total"`
	Items       []InvoiceItem    `json:"items,omitempty"`
	Payments    []InvoicePayment `json:"payments,omitempty"`
	EntryID     string           `json:"entry_id,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}

// Outstanding returns the unpaid portion of the invoice considering only
// payments dated on or before asOf.
func (inv Invoice) Outstanding(asOf time.Time) decimal.Decimal {
	due := inv.Total
	for _, p := range inv.Payments {
		if DateOnly(p.Date).After(DateOnly(asOf)) {
			continue
		}
		due = due.Sub(p.Amount)
	}
	return due
}

// Document is a payment or expense record (receive-payment, pay-bill,
// expense) that may own a journal entry via its source reference.
type Document struct {
	ID          string          `json:"id"`
	Kind        SourceKind      `json:"kind"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	PartyID     string          `json:"party_id,omitempty"`
	AccountID   string          `json:"account_id,omitempty"`
	PaymentType string          `json:"payment_type,omitempty"`
	EntryID     string          `json:"entry_id,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// DateRange bounds a query window at day granularity. A zero Start or End
// leaves that side unbounded. Both bounds are inclusive.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Validate rejects inverted ranges. Policy: an end date before the start
// date is an explicit error, never silently swapped.
func (r DateRange) Validate() error {
	if !r.Start.IsZero() && !r.End.IsZero() && DateOnly(r.End).Before(DateOnly(r.Start)) {
		return Validationf("end date %s is before start date %s",
			r.End.Format("2006-01-02"), r.Start.Format("2006-01-02"))
	}
	return nil
}

// Contains reports whether t falls inside the range, comparing at day
// granularity so an end date of 2024-03-31 includes entries at any time on
// that day.
func (r DateRange) Contains(t time.Time) bool {
	d := DateOnly(t)
	if !r.Start.IsZero() && d.Before(DateOnly(r.Start)) {
		return false
	}
	if !r.End.IsZero() && d.After(DateOnly(r.End)) {
		return false
	}
	return true
}

// DateOnly truncates t to its UTC calendar day.
func DateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// AccountFilter narrows ListAccounts.
type AccountFilter struct {
	Type        AccountType
	Category    AccountCategory
	PaymentOnly bool // cash/bank/online accounts usable to settle invoices
	Search      string
}

// EntryFilter narrows QueryEntries. Matching entries are returned in
// ascending (date, insertion seq) order.
type EntryFilter struct {
	AccountID   string
	Range       DateRange
	Search      string // case-insensitive match on description or bill no
	SourceKinds []SourceKind
}
