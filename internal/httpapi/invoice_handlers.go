package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"smartkhata.org/internal/ledger"
	"smartkhata.org/internal/obs"
)

type invoiceItemRequest struct {
	ProductID string          `json:"product_id"`
	Qty       int64           `json:"qty"`
	Rate      decimal.Decimal `json:"rate"`
}

type invoiceRequest struct {
	BillNo         int64                `json:"bill_no"`
	CustomerID     string               `json:"customer_id"`
	SupplierID     string               `json:"supplier_id"`
	Date           string               `json:"date"`
	Description    string               `json:"description"`
	Total          decimal.Decimal      `json:"total"`
	Items          []invoiceItemRequest `json:"items"`
	CreateJournal  bool                 `json:"create_journal"`
	JournalEntries []lineRequest        `json:"journal_entries"`
}

type paymentRequest struct {
	Date   string          `json:"date"`
	Amount decimal.Decimal `json:"amount"`
}

func invoiceSourceKind(kind ledger.InvoiceKind) ledger.SourceKind {
	if kind == ledger.InvoicePurchase {
		return ledger.SourcePurchaseInvoice
	}
	return ledger.SourceInvoice
}

func (a *API) invoicesCollection(kind ledger.InvoiceKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			a.createInvoice(w, r, kind)
		case http.MethodGet:
			invoices, err := a.svc.ListInvoices(r.Context(), kind)
			if err != nil {
				handleLedgerError(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"invoices": invoices})
		default:
			methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
		}
	}
}

func (a *API) invoiceResource(kind ledger.InvoiceKind, prefix string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, prefix)
		if path == "" {
			writeError(w, r, http.StatusNotFound, "resource not found")
			return
		}

		if path == "last-bill-no" {
			a.lastBillNo(w, r, kind)
			return
		}
		if rest, ok := strings.CutPrefix(path, "by-bill-no/"); ok {
			a.invoiceByBillNo(w, r, kind, rest)
			return
		}
		if id, ok := strings.CutSuffix(path, "/payment"); ok && id != "" {
			a.recordPayment(w, r, id)
			return
		}
		if strings.Contains(path, "/") {
			writeError(w, r, http.StatusNotFound, "resource not found")
			return
		}

		switch r.Method {
		case http.MethodGet:
			inv, err := a.svc.GetInvoice(r.Context(), path)
			if err != nil {
				handleLedgerError(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, inv)
		case http.MethodPut:
			a.updateInvoice(w, r, kind, path)
		case http.MethodDelete:
			a.deleteInvoice(w, r, kind, path)
		default:
			methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
		}
	}
}

func (req invoiceRequest) toInvoice(kind ledger.InvoiceKind) ledger.Invoice {
	items := make([]ledger.InvoiceItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, ledger.InvoiceItem{
			ProductID: it.ProductID,
			Qty:       it.Qty,
			Rate:      it.Rate,
		})
	}
	return ledger.Invoice{
		Kind:        kind,
		BillNo:      req.BillNo,
		CustomerID:  req.CustomerID,
		SupplierID:  req.SupplierID,
		Description: req.Description,
		Total:       req.Total,
		Items:       items,
	}
}

func (a *API) createInvoice(w http.ResponseWriter, r *http.Request, kind ledger.InvoiceKind) {
	var req invoiceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "date: "+err.Error())
		return
	}
	inv := req.toInvoice(kind)
	inv.Date = date

	created, err := a.svc.CreateInvoice(r.Context(), inv)
	if err != nil {
		handleLedgerError(w, r, err)
		return
	}

	if req.CreateJournal {
		srcKind := invoiceSourceKind(kind)
		entry, err := ledger.AttachJournal(r.Context(), a.svc,
			ledger.SourceRef{Kind: srcKind, ID: created.ID},
			date, req.Description, strconv.FormatInt(created.BillNo, 10),
			toDocumentLines(req.JournalEntries))
		if err != nil {
			countIfUnbalanced(err)
			// The invoice must not survive without its journal entry.
			_ = a.svc.DeleteInvoice(r.Context(), created.ID)
			handleLedgerError(w, r, err)
			return
		}
		created.EntryID = entry.ID
		if created, err = a.svc.UpdateInvoice(r.Context(), created.ID, created); err != nil {
			handleLedgerError(w, r, err)
			return
		}
		obs.CountJournalEntry(string(srcKind))
	}

	a.audit(r.Context(), "invoice.create", "invoice", created.ID, map[string]string{
		"kind":    string(kind),
		"bill_no": strconv.FormatInt(created.BillNo, 10),
	})
	writeJSON(w, http.StatusCreated, created)
}

func (a *API) updateInvoice(w http.ResponseWriter, r *http.Request, kind ledger.InvoiceKind, id string) {
	var req invoiceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "date: "+err.Error())
		return
	}
	existing, err := a.svc.GetInvoice(r.Context(), id)
	if err != nil {
		handleLedgerError(w, r, err)
		return
	}
	inv := req.toInvoice(kind)
	inv.Date = date
	inv.EntryID = existing.EntryID

	updated, err := a.svc.UpdateInvoice(r.Context(), id, inv)
	if err != nil {
		handleLedgerError(w, r, err)
		return
	}

	// Re-translate the owned journal entry so the ledger reflects the edit,
	// or attach one if the invoice was created without a journal.
	if req.CreateJournal {
		ref := ledger.SourceRef{Kind: invoiceSourceKind(kind), ID: id}
		billNo := strconv.FormatInt(updated.BillNo, 10)
		lines := toDocumentLines(req.JournalEntries)
		if existing.EntryID != "" {
			entry, err := ledger.EntryFromDocument(ref, date, req.Description, billNo, lines)
			if err != nil {
				countIfUnbalanced(err)
				handleLedgerError(w, r, err)
				return
			}
			if _, err := a.svc.UpdateEntry(r.Context(), existing.EntryID, entry); err != nil {
				handleLedgerError(w, r, err)
				return
			}
		} else {
			entry, err := ledger.AttachJournal(r.Context(), a.svc, ref,
				date, req.Description, billNo, lines)
			if err != nil {
				countIfUnbalanced(err)
				handleLedgerError(w, r, err)
				return
			}
			updated.EntryID = entry.ID
			if updated, err = a.svc.UpdateInvoice(r.Context(), id, updated); err != nil {
				handleLedgerError(w, r, err)
				return
			}
			obs.CountJournalEntry(string(ref.Kind))
		}
	}

	a.audit(r.Context(), "invoice.update", "invoice", id, nil)
	writeJSON(w, http.StatusOK, updated)
}

func (a *API) deleteInvoice(w http.ResponseWriter, r *http.Request, kind ledger.InvoiceKind, id string) {
	inv, err := a.svc.GetInvoice(r.Context(), id)
	if err != nil {
		handleLedgerError(w, r, err)
		return
	}
	if inv.EntryID != "" {
		ref := &ledger.SourceRef{Kind: invoiceSourceKind(kind), ID: id}
		if err := a.svc.DeleteEntry(r.Context(), inv.EntryID, ref); err != nil {
			handleLedgerError(w, r, err)
			return
		}
	}
	if err := a.svc.DeleteInvoice(r.Context(), id); err != nil {
		handleLedgerError(w, r, err)
		return
	}
	a.audit(r.Context(), "invoice.delete", "invoice", id, nil)
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) recordPayment(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPut {
		methodNotAllowed(w, r, http.MethodPut)
		return
	}
	var req paymentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	payment := ledger.InvoicePayment{Amount: req.Amount}
	if req.Date != "" {
		date, err := parseDate(req.Date)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "date: "+err.Error())
			return
		}
		payment.Date = date
	}
	inv, err := a.svc.RecordInvoicePayment(r.Context(), id, payment)
	if err != nil {
		handleLedgerError(w, r, err)
		return
	}
	a.audit(r.Context(), "invoice.payment", "invoice", id, map[string]string{
		"amount": req.Amount.String(),
	})
	writeJSON(w, http.StatusOK, inv)
}

func (a *API) lastBillNo(w http.ResponseWriter, r *http.Request, kind ledger.InvoiceKind) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	last, err := a.svc.LastBillNo(r.Context(), kind)
	if err != nil {
		handleLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"last_bill_no": last})
}

func (a *API) invoiceByBillNo(w http.ResponseWriter, r *http.Request, kind ledger.InvoiceKind, raw string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	billNo, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || billNo <= 0 {
		writeError(w, r, http.StatusBadRequest, "bill no must be a positive integer")
		return
	}
	inv, err := a.svc.GetInvoiceByBillNo(r.Context(), kind, billNo)
	if err != nil {
		handleLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}
