package httpapi

import (
	"net/http"
	"strings"
	"time"

	"smartkhata.org/internal/ledger"
	"smartkhata.org/internal/obs"
)

func (a *API) ledgerForSubject(w http.ResponseWriter, r *http.Request, prefix string, kind ledger.SubjectKind, opts ...ledger.ViewOption) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, prefix)
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	window, err := parseWindow(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	view, err := ledger.BuildLedger(r.Context(), a.svc, id, kind, window, opts...)
	if err != nil {
		handleLedgerError(w, r, err)
		return
	}
	obs.CountReportBuild(string(kind) + "_ledger")
	writeJSON(w, http.StatusOK, view)
}

func (a *API) handleAccountLedger(w http.ResponseWriter, r *http.Request) {
	a.ledgerForSubject(w, r, "/v1/ledger/", ledger.SubjectAccount)
}

func (a *API) handleCustomerLedger(w http.ResponseWriter, r *http.Request) {
	a.ledgerForSubject(w, r, "/v1/customer-ledger/", ledger.SubjectCustomer)
}

// handleSupplierLedger narrows the supplier view by transaction type when
// the type query parameter is present.
func (a *API) handleSupplierLedger(w http.ResponseWriter, r *http.Request) {
	var opts []ledger.ViewOption
	switch r.URL.Query().Get("type") {
	case "":
	case "invoice":
		opts = append(opts, ledger.WithSourceKinds(ledger.SourcePurchaseInvoice))
	case "payment":
		opts = append(opts, ledger.WithSourceKinds(ledger.SourcePayBill))
	case "opening":
		opts = append(opts, ledger.WithSourceKinds(ledger.SourceOpening))
	default:
		writeError(w, r, http.StatusBadRequest, "type must be one of invoice, payment, opening")
		return
	}
	a.ledgerForSubject(w, r, "/v1/supplier-ledger/", ledger.SubjectSupplier, opts...)
}

func (a *API) handleProductLedger(w http.ResponseWriter, r *http.Request) {
	a.ledgerForSubject(w, r, "/v1/product-ledger/", ledger.SubjectProduct)
}

func (a *API) handleTrialBalance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	window, err := parseWindow(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	tb, err := ledger.ComputeTrialBalance(r.Context(), a.svc, window)
	if err != nil {
		handleLedgerError(w, r, err)
		return
	}
	obs.CountReportBuild("trial_balance")
	writeJSON(w, http.StatusOK, tb)
}

func (a *API) handleIncomeStatement(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	window, err := parseWindow(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	is, err := ledger.ComputeIncomeStatement(r.Context(), a.svc, window)
	if err != nil {
		handleLedgerError(w, r, err)
		return
	}
	obs.CountReportBuild("income_statement")
	writeJSON(w, http.StatusOK, is)
}

func (a *API) handleAging(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	asOf := time.Now()
	if raw := r.URL.Query().Get("asOf"); raw != "" {
		parsed, err := parseDate(raw)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "asOf: "+err.Error())
			return
		}
		asOf = parsed
	}
	report, err := ledger.ComputeAging(r.Context(), a.svc, asOf, r.URL.Query().Get("name"))
	if err != nil {
		handleLedgerError(w, r, err)
		return
	}
	obs.CountReportBuild("aging")
	writeJSON(w, http.StatusOK, report)
}
