package httpapi

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"smartkhata.org/internal/ledger"
)

type partyRequest struct {
	Name           string          `json:"name"`
	Phone          string          `json:"phone"`
	Email          string          `json:"email"`
	Address        string          `json:"address"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	AccountID      string          `json:"account_id"`
}

// --- customers ---

func (a *API) handleCustomersCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		a.createCustomer(w, r)
	case http.MethodGet:
		customers, err := a.svc.ListCustomers(r.Context(), r.URL.Query().Get("search"))
		if err != nil {
			handleLedgerError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"customers": customers})
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleCustomerResource(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/customers/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		c, err := a.svc.GetCustomer(r.Context(), id)
		if err != nil {
			handleLedgerError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	case http.MethodPut:
		var req partyRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		c, err := a.svc.UpdateCustomer(r.Context(), id, ledger.Customer{
			Name:           req.Name,
			Phone:          req.Phone,
			Email:          req.Email,
			Address:        req.Address,
			OpeningBalance: req.OpeningBalance,
		})
		if err != nil {
			handleLedgerError(w, r, err)
			return
		}
		a.audit(r.Context(), "customer.update", "customer", id, nil)
		writeJSON(w, http.StatusOK, c)
	case http.MethodDelete:
		if err := a.svc.DeleteCustomer(r.Context(), id); err != nil {
			handleLedgerError(w, r, err)
			return
		}
		a.audit(r.Context(), "customer.delete", "customer", id, nil)
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

func (a *API) createCustomer(w http.ResponseWriter, r *http.Request) {
	var req partyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	c, err := a.svc.CreateCustomer(r.Context(), ledger.Customer{
		Name:           req.Name,
		Phone:          req.Phone,
		Email:          req.Email,
		Address:        req.Address,
		OpeningBalance: req.OpeningBalance,
		AccountID:      req.AccountID,
	})
	if err != nil {
		handleLedgerError(w, r, err)
		return
	}
	a.audit(r.Context(), "customer.create", "customer", c.ID, map[string]string{
		"account_id": c.AccountID,
	})
	w.Header().Set("Location", "/v1/customers/"+c.ID)
	writeJSON(w, http.StatusCreated, c)
}

// --- suppliers ---

func (a *API) handleSuppliersCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		a.createSupplier(w, r)
	case http.MethodGet:
		suppliers, err := a.svc.ListSuppliers(r.Context(), r.URL.Query().Get("search"))
		if err != nil {
			handleLedgerError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"suppliers": suppliers})
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleSupplierResource(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/suppliers/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		sup, err := a.svc.GetSupplier(r.Context(), id)
		if err != nil {
			handleLedgerError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, sup)
	case http.MethodPut:
		var req partyRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		sup, err := a.svc.UpdateSupplier(r.Context(), id, ledger.Supplier{
			Name:           req.Name,
			Phone:          req.Phone,
			Email:          req.Email,
			Address:        req.Address,
			OpeningBalance: req.OpeningBalance,
		})
		if err != nil {
			handleLedgerError(w, r, err)
			return
		}
		a.audit(r.Context(), "supplier.update", "supplier", id, nil)
		writeJSON(w, http.StatusOK, sup)
	case http.MethodDelete:
		if err := a.svc.DeleteSupplier(r.Context(), id); err != nil {
			handleLedgerError(w, r, err)
			return
		}
		a.audit(r.Context(), "supplier.delete", "supplier", id, nil)
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

func (a *API) createSupplier(w http.ResponseWriter, r *http.Request) {
	var req partyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	sup, err := a.svc.CreateSupplier(r.Context(), ledger.Supplier{
		Name:           req.Name,
		Phone:          req.Phone,
		Email:          req.Email,
		Address:        req.Address,
		OpeningBalance: req.OpeningBalance,
		AccountID:      req.AccountID,
	})
	if err != nil {
		handleLedgerError(w, r, err)
		return
	}
	a.audit(r.Context(), "supplier.create", "supplier", sup.ID, map[string]string{
		"account_id": sup.AccountID,
	})
	w.Header().Set("Location", "/v1/suppliers/"+sup.ID)
	writeJSON(w, http.StatusCreated, sup)
}
