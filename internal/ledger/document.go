package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// DocumentLine is the loosely-shaped journal line embedded in document
// payloads (invoices, pay-bills, receive-payments, expenses). Every document
// type funnels through the same translation; there is no per-document
// special case.
type DocumentLine struct {
	Side      Side            `json:"type"`
	AccountID string          `json:"account_id"`
	Amount    decimal.Decimal `json:"amount"`
	Narration string          `json:"narration,omitempty"`
}

// EntryFromDocument translates a document's embedded journal payload into a
// JournalEntry carrying the document's source reference. Balance is checked
// here so a document is never persisted alongside an entry that would be
// rejected.
func EntryFromDocument(ref SourceRef, date time.Time, description, billNo string, lines []DocumentLine) (JournalEntry, error) {
	if !ValidSourceKind(ref.Kind) {
		return JournalEntry{}, Validationf("unknown source kind %q", ref.Kind)
	}
	if ref.Kind != SourceManual && ref.ID == "" {
		return JournalEntry{}, Validationf("source id is required for %s entries", ref.Kind)
	}
	if len(lines) == 0 {
		return JournalEntry{}, Validationf("journal payload must have at least one line")
	}

	entry := JournalEntry{
		Date:        date,
		Description: description,
		BillNo:      billNo,
		Lines:       make([]JournalLine, 0, len(lines)),
	}
	if ref.Kind != SourceManual {
		r := ref
		entry.Source = &r
	}

	totalDebit := decimal.Zero
	totalCredit := decimal.Zero
	for i, l := range lines {
		switch l.Side {
		case Debit:
			totalDebit = totalDebit.Add(l.Amount)
		case Credit:
			totalCredit = totalCredit.Add(l.Amount)
		default:
			return JournalEntry{}, Validationf("line %d: type must be debit or credit", i)
		}
		if l.Amount.IsNegative() {
			return JournalEntry{}, Validationf("line %d: amount must be non-negative", i)
		}
		if l.AccountID == "" {
			return JournalEntry{}, Validationf("line %d: account is required", i)
		}
		entry.Lines = append(entry.Lines, JournalLine{
			AccountID: l.AccountID,
			Side:      l.Side,
			Amount:    l.Amount,
			Narration: l.Narration,
		})
	}
	if !totalDebit.Equal(totalCredit) {
		return JournalEntry{}, &UnbalancedEntryError{Debit: totalDebit, Credit: totalCredit}
	}
	return entry, nil
}

// ExpenseLines builds the journal payload for an expense document: one
// debit to the expense account for the credit total, plus the credit legs
// naming the accounts the money left.
func ExpenseLines(expenseAccountID, narration string, credits []DocumentLine) ([]DocumentLine, error) {
	if expenseAccountID == "" {
		return nil, Validationf("expense account is required")
	}
	total := decimal.Zero
	out := make([]DocumentLine, 0, len(credits)+1)
	for i, c := range credits {
		if c.AccountID == "" {
			return nil, Validationf("credit entry %d: account is required", i)
		}
		if !c.Amount.IsPositive() {
			return nil, Validationf("credit entry %d: amount must be positive", i)
		}
		total = total.Add(c.Amount)
		out = append(out, DocumentLine{
			Side:      Credit,
			AccountID: c.AccountID,
			Amount:    c.Amount,
			Narration: c.Narration,
		})
	}
	if total.IsZero() {
		return nil, Validationf("expense must have at least one credit entry")
	}
	head := []DocumentLine{{
		Side:      Debit,
		AccountID: expenseAccountID,
		Amount:    total,
		Narration: narration,
	}}
	return append(head, out...), nil
}

// AttachJournal validates and persists the journal entry belonging to a
// document that was created with createJournal set. The entry is fully
// validated before the write, so a failure here leaves the store unchanged
// and the caller can roll the document back.
func AttachJournal(ctx context.Context, store JournalStore, ref SourceRef, date time.Time, description, billNo string, lines []DocumentLine) (JournalEntry, error) {
	entry, err := EntryFromDocument(ref, date, description, billNo, lines)
	if err != nil {
		return JournalEntry{}, err
	}
	return store.CreateEntry(ctx, entry)
}

// stockSource is the read surface stock derivation needs.
type stockSource interface {
	GetProduct(ctx context.Context, id string) (Product, error)
	ListInvoices(ctx context.Context, kind InvoiceKind) ([]Invoice, error)
}

// ProductStock derives a product's stock on hand from invoice items:
// purchases add, sales subtract. Stock is never stored.
func ProductStock(ctx context.Context, src stockSource, productID string) (int64, error) {
	if _, err := src.GetProduct(ctx, productID); err != nil {
		return 0, err
	}
	invoices, err := src.ListInvoices(ctx, "")
	if err != nil {
		return 0, err
	}
	var stock int64
	for _, inv := range invoices {
		for _, item := range inv.Items {
			if item.ProductID != productID {
				continue
			}
			if inv.Kind == InvoicePurchase {
				stock += item.Qty
			} else {
				stock -= item.Qty
			}
		}
	}
	return stock, nil
}

// LowStockProducts lists products whose derived stock is at or below their
// threshold.
func LowStockProducts(ctx context.Context, src interface {
	stockSource
	ListProducts(ctx context.Context, search string) ([]Product, error)
}) ([]ProductStockLevel, error) {
	products, err := src.ListProducts(ctx, "")
	if err != nil {
		return nil, err
	}
	out := []ProductStockLevel{}
	for _, p := range products {
		stock, err := ProductStock(ctx, src, p.ID)
		if err != nil {
			return nil, err
		}
		if stock <= p.LowStockThreshold {
			out = append(out, ProductStockLevel{Product: p, Stock: stock})
		}
	}
	return out, nil
}

// ProductStockLevel pairs a product with its derived stock.
type ProductStockLevel struct {
	Product Product `json:"product"`
	Stock   int64   `json:"stock"`
}
