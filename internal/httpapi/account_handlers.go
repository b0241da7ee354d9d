package httpapi

import (
	"net/http"
	"strings"

	"smartkhata.org/internal/ledger"
	"smartkhata.org/internal/obs"
)

type accountRequest struct {
	Name     string `json:"name"`
	Code     string `json:"code"`
	Type     string `json:"type"`
	Category string `json:"category"`
}

func (req accountRequest) toAccount() ledger.Account {
	return ledger.Account{
		Name:     strings.TrimSpace(req.Name),
		Code:     strings.TrimSpace(req.Code),
		Type:     ledger.AccountType(req.Type),
		Category: ledger.AccountCategory(req.Category),
	}
}

func (a *API) handleAccountsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		a.createAccount(w, r)
	case http.MethodGet:
		a.listAccounts(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleAccountResource(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/v1/accounts/")
	if path == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	switch path {
	case "cash-summary":
		a.categorySummary(w, r, ledger.CategoryCash)
		return
	case "bank-summary":
		a.categorySummary(w, r, ledger.CategoryBank)
		return
	}

	if strings.HasSuffix(path, "/balance") {
		id := strings.TrimSuffix(strings.TrimSuffix(path, "/balance"), "/")
		if id == "" {
			writeError(w, r, http.StatusNotFound, "account not found")
			return
		}
		a.accountBalance(w, r, id)
		return
	}

	if strings.Contains(path, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		a.getAccount(w, r, path)
	case http.MethodPut:
		a.updateAccount(w, r, path)
	case http.MethodDelete:
		a.deleteAccount(w, r, path)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

func (a *API) createAccount(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	acc, err := a.svc.CreateAccount(r.Context(), req.toAccount())
	if err != nil {
		handleLedgerError(w, r, err)
		return
	}
	a.audit(r.Context(), "account.create", "account", acc.ID, map[string]string{
		"code": acc.Code,
		"type": string(acc.Type),
	})
	w.Header().Set("Location", "/v1/accounts/"+acc.ID)
	writeJSON(w, http.StatusCreated, acc)
}

func (a *API) listAccounts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := ledger.AccountFilter{
		Type:     ledger.AccountType(q.Get("type")),
		Category: ledger.AccountCategory(q.Get("category")),
		Search:   q.Get("search"),
	}
	if q.Get("filter") == "payment" {
		f.PaymentOnly = true
	}
	accounts, err := a.svc.ListAccounts(r.Context(), f)
	if err != nil {
		handleLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"accounts": accounts})
}

func (a *API) getAccount(w http.ResponseWriter, r *http.Request, id string) {
	acc, err := a.svc.GetAccount(r.Context(), id)
	if err != nil {
		handleLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, acc)
}

func (a *API) updateAccount(w http.ResponseWriter, r *http.Request, id string) {
	var req accountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	acc, err := a.svc.UpdateAccount(r.Context(), id, req.toAccount())
	if err != nil {
		handleLedgerError(w, r, err)
		return
	}
	a.audit(r.Context(), "account.update", "account", id, nil)
	writeJSON(w, http.StatusOK, acc)
}

func (a *API) deleteAccount(w http.ResponseWriter, r *http.Request, id string) {
	if err := a.svc.DeleteAccount(r.Context(), id); err != nil {
		handleLedgerError(w, r, err)
		return
	}
	a.audit(r.Context(), "account.delete", "account", id, nil)
	w.WriteHeader(http.StatusNoContent)
}

// accountBalance reports the derived closing balance over the full history.
func (a *API) accountBalance(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	view, err := ledger.BuildLedger(r.Context(), a.svc, id, ledger.SubjectAccount, ledger.DateRange{})
	if err != nil {
		handleLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"account_id": id,
		"balance":    view.ClosingBalance,
	})
}

func (a *API) categorySummary(w http.ResponseWriter, r *http.Request, category ledger.AccountCategory) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	summary, err := ledger.SummarizeCategory(r.Context(), a.svc, category)
	if err != nil {
		handleLedgerError(w, r, err)
		return
	}
	obs.CountReportBuild(string(category) + "_summary")
	writeJSON(w, http.StatusOK, summary)
}
