package httpapi

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"smartkhata.org/internal/ledger"
	"smartkhata.org/internal/obs"
)

type documentRequest struct {
	Date           string          `json:"date"`
	Description    string          `json:"description"`
	Amount         decimal.Decimal `json:"amount"`
	PartyID        string          `json:"party_id"`
	AccountID      string          `json:"account_id"`
	PaymentType    string          `json:"payment_type"`
	CreateJournal  bool            `json:"create_journal"`
	JournalEntries []lineRequest   `json:"journal_entries"`
	CreditEntries  []lineRequest   `json:"credit_entries"`
}

func (req documentRequest) toDocument(kind ledger.SourceKind) ledger.Document {
	return ledger.Document{
		Kind:        kind,
		Description: req.Description,
		Amount:      req.Amount,
		PartyID:     req.PartyID,
		AccountID:   req.AccountID,
		PaymentType: req.PaymentType,
	}
}

// journalLines builds the debit/credit line set for the document's journal
// entry. Expenses carry only the credit side in the request; the debit
// against the expense account is generated to balance them.
func (req documentRequest) journalLines(kind ledger.SourceKind) ([]ledger.DocumentLine, error) {
	if kind == ledger.SourceExpense {
		return ledger.ExpenseLines(req.AccountID, req.Description, toDocumentLines(req.CreditEntries))
	}
	return toDocumentLines(req.JournalEntries), nil
}

func (a *API) documentsCollection(kind ledger.SourceKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			a.createDocument(w, r, kind)
		case http.MethodGet:
			docs, err := a.svc.ListDocuments(r.Context(), kind)
			if err != nil {
				handleLedgerError(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
		default:
			methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
		}
	}
}

func (a *API) documentResource(kind ledger.SourceKind, prefix string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, prefix)
		if id == "" || strings.Contains(id, "/") {
			writeError(w, r, http.StatusNotFound, "resource not found")
			return
		}
		switch r.Method {
		case http.MethodGet:
			doc, err := a.svc.GetDocument(r.Context(), id)
			if err != nil {
				handleLedgerError(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, doc)
		case http.MethodPut:
			a.updateDocument(w, r, kind, id)
		case http.MethodDelete:
			a.deleteDocument(w, r, kind, id)
		default:
			methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
		}
	}
}

func (a *API) createDocument(w http.ResponseWriter, r *http.Request, kind ledger.SourceKind) {
	var req documentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "date: "+err.Error())
		return
	}
	doc := req.toDocument(kind)
	doc.Date = date

	created, err := a.svc.CreateDocument(r.Context(), doc)
	if err != nil {
		handleLedgerError(w, r, err)
		return
	}

	if req.CreateJournal {
		lines, err := req.journalLines(kind)
		if err != nil {
			_ = a.svc.DeleteDocument(r.Context(), created.ID)
			handleLedgerError(w, r, err)
			return
		}
		entry, err := ledger.AttachJournal(r.Context(), a.svc,
			ledger.SourceRef{Kind: kind, ID: created.ID},
			date, req.Description, "", lines)
		if err != nil {
			countIfUnbalanced(err)
			// The document must not survive without its journal entry.
			_ = a.svc.DeleteDocument(r.Context(), created.ID)
			handleLedgerError(w, r, err)
			return
		}
		created.EntryID = entry.ID
		if created, err = a.svc.UpdateDocument(r.Context(), created.ID, created); err != nil {
			handleLedgerError(w, r, err)
			return
		}
		obs.CountJournalEntry(string(kind))
	}

	a.audit(r.Context(), "document.create", "document", created.ID, map[string]string{
		"kind": string(kind),
	})
	writeJSON(w, http.StatusCreated, created)
}

func (a *API) updateDocument(w http.ResponseWriter, r *http.Request, kind ledger.SourceKind, id string) {
	var req documentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "date: "+err.Error())
		return
	}
	existing, err := a.svc.GetDocument(r.Context(), id)
	if err != nil {
		handleLedgerError(w, r, err)
		return
	}
	doc := req.toDocument(kind)
	doc.Date = date
	doc.EntryID = existing.EntryID

	updated, err := a.svc.UpdateDocument(r.Context(), id, doc)
	if err != nil {
		handleLedgerError(w, r, err)
		return
	}

	if req.CreateJournal {
		lines, err := req.journalLines(kind)
		if err != nil {
			handleLedgerError(w, r, err)
			return
		}
		ref := ledger.SourceRef{Kind: kind, ID: id}
		if existing.EntryID != "" {
			entry, err := ledger.EntryFromDocument(ref, date, req.Description, "", lines)
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
			// A document created without a journal gains one on update.
			entry, err := ledger.AttachJournal(r.Context(), a.svc, ref,
				date, req.Description, "", lines)
			if err != nil {
				countIfUnbalanced(err)
				handleLedgerError(w, r, err)
				return
			}
			updated.EntryID = entry.ID
			if updated, err = a.svc.UpdateDocument(r.Context(), id, updated); err != nil {
				handleLedgerError(w, r, err)
				return
			}
			obs.CountJournalEntry(string(kind))
		}
	}

	a.audit(r.Context(), "document.update", "document", id, nil)
	writeJSON(w, http.StatusOK, updated)
}

func (a *API) deleteDocument(w http.ResponseWriter, r *http.Request, kind ledger.SourceKind, id string) {
	doc, err := a.svc.GetDocument(r.Context(), id)
	if err != nil {
		handleLedgerError(w, r, err)
		return
	}
	if doc.EntryID != "" {
		ref := &ledger.SourceRef{Kind: kind, ID: id}
		if err := a.svc.DeleteEntry(r.Context(), doc.EntryID, ref); err != nil {
			handleLedgerError(w, r, err)
			return
		}
	}
	if err := a.svc.DeleteDocument(r.Context(), id); err != nil {
		handleLedgerError(w, r, err)
		return
	}
	a.audit(r.Context(), "document.delete", "document", id, nil)
	w.WriteHeader(http.StatusNoContent)
}
