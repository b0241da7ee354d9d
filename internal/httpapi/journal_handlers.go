package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"smartkhata.org/internal/ledger"
	"smartkhata.org/internal/obs"
)

type lineRequest struct {
	AccountID string          `json:"account_id"`
	Type      string          `json:"type"`
	Amount    decimal.Decimal `json:"amount"`
	Narration string          `json:"narration"`
}

func toDocumentLines(lines []lineRequest) []ledger.DocumentLine {
	out := make([]ledger.DocumentLine, 0, len(lines))
	for _, l := range lines {
		out = append(out, ledger.DocumentLine{
			Side:      ledger.Side(l.Type),
			AccountID: l.AccountID,
			Amount:    l.Amount,
			Narration: l.Narration,
		})
	}
	return out
}

type entryRequest struct {
	Date        string        `json:"date"`
	Description string        `json:"description"`
	BillNo      string        `json:"bill_no"`
	Lines       []lineRequest `json:"lines"`
}

func (a *API) handleEntriesCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		a.createEntry(w, r)
	case http.MethodGet:
		a.queryEntries(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleEntryResource(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/journal-entries/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		a.getEntry(w, r, id)
	case http.MethodPut:
		a.updateEntry(w, r, id)
	case http.MethodDelete:
		a.deleteEntry(w, r, id)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

func (a *API) createEntry(w http.ResponseWriter, r *http.Request) {
	var req entryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "date: "+err.Error())
		return
	}

	entry, err := ledger.EntryFromDocument(
		ledger.SourceRef{Kind: ledger.SourceManual},
		date, req.Description, req.BillNo, toDocumentLines(req.Lines))
	if err != nil {
		countIfUnbalanced(err)
		handleLedgerError(w, r, err)
		return
	}
	created, err := a.svc.CreateEntry(r.Context(), entry)
	if err != nil {
		countIfUnbalanced(err)
		handleLedgerError(w, r, err)
		return
	}

	obs.CountJournalEntry(string(ledger.SourceManual))
	a.audit(r.Context(), "journal.entry.create", "journal_entry", created.ID, map[string]string{
		"date": date.Format("2006-01-02"),
	})
	w.Header().Set("Location", "/v1/journal-entries/"+created.ID)
	writeJSON(w, http.StatusCreated, created)
}

func (a *API) queryEntries(w http.ResponseWriter, r *http.Request) {
	window, err := parseWindow(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	q := r.URL.Query()
	f := ledger.EntryFilter{
		AccountID: q.Get("accountId"),
		Range:     window,
		Search:    q.Get("search"),
	}
	entries, err := a.svc.QueryEntries(r.Context(), f)
	if err != nil {
		handleLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (a *API) getEntry(w http.ResponseWriter, r *http.Request, id string) {
	entry, err := a.svc.GetEntry(r.Context(), id)
	if err != nil {
		handleLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (a *API) updateEntry(w http.ResponseWriter, r *http.Request, id string) {
	var req entryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "date: "+err.Error())
		return
	}
	entry, err := ledger.EntryFromDocument(
		ledger.SourceRef{Kind: ledger.SourceManual},
		date, req.Description, req.BillNo, toDocumentLines(req.Lines))
	if err != nil {
		countIfUnbalanced(err)
		handleLedgerError(w, r, err)
		return
	}
	updated, err := a.svc.UpdateEntry(r.Context(), id, entry)
	if err != nil {
		countIfUnbalanced(err)
		handleLedgerError(w, r, err)
		return
	}
	a.audit(r.Context(), "journal.entry.update", "journal_entry", id, nil)
	writeJSON(w, http.StatusOK, updated)
}

// deleteEntry accepts sourceKind/sourceId query params so callers deleting a
// document-owned entry can present the owning reference.
func (a *API) deleteEntry(w http.ResponseWriter, r *http.Request, id string) {
	var ref *ledger.SourceRef
	q := r.URL.Query()
	if kind := q.Get("sourceKind"); kind != "" {
		ref = &ledger.SourceRef{Kind: ledger.SourceKind(kind), ID: q.Get("sourceId")}
	}
	if err := a.svc.DeleteEntry(r.Context(), id, ref); err != nil {
		handleLedgerError(w, r, err)
		return
	}
	a.audit(r.Context(), "journal.entry.delete", "journal_entry", id, nil)
	w.WriteHeader(http.StatusNoContent)
}

func countIfUnbalanced(err error) {
	var unbalanced *ledger.UnbalancedEntryError
	if errors.As(err, &unbalanced) {
		obs.CountUnbalancedRejection()
	}
}
