package httpapi

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"smartkhata.org/internal/ledger"
)

type productRequest struct {
	Name              string          `json:"name"`
	UnitCost          decimal.Decimal `json:"unit_cost"`
	SalePrice         decimal.Decimal `json:"sale_price"`
	LowStockThreshold int64           `json:"low_stock_threshold"`
	AccountID         string          `json:"account_id"`
}

func (a *API) handleProductsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		a.createProduct(w, r)
	case http.MethodGet:
		products, err := a.svc.ListProducts(r.Context(), r.URL.Query().Get("search"))
		if err != nil {
			handleLedgerError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"products": products})
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleProductResource(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/v1/products/")
	if path == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	if path == "low-stock" {
		a.lowStockProducts(w, r)
		return
	}
	if strings.HasSuffix(path, "/stock") {
		id := strings.TrimSuffix(strings.TrimSuffix(path, "/stock"), "/")
		if id == "" {
			writeError(w, r, http.StatusNotFound, "product not found")
			return
		}
		a.productStock(w, r, id)
		return
	}
	if strings.Contains(path, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		p, err := a.svc.GetProduct(r.Context(), path)
		if err != nil {
			handleLedgerError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	case http.MethodPut:
		a.updateProduct(w, r, path)
	case http.MethodDelete:
		if err := a.svc.DeleteProduct(r.Context(), path); err != nil {
			handleLedgerError(w, r, err)
			return
		}
		a.audit(r.Context(), "product.delete", "product", path, nil)
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

func (a *API) createProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	p, err := a.svc.CreateProduct(r.Context(), ledger.Product{
		Name:              req.Name,
		UnitCost:          req.UnitCost,
		SalePrice:         req.SalePrice,
		LowStockThreshold: req.LowStockThreshold,
		AccountID:         req.AccountID,
	})
	if err != nil {
		handleLedgerError(w, r, err)
		return
	}
	a.audit(r.Context(), "product.create", "product", p.ID, nil)
	w.Header().Set("Location", "/v1/products/"+p.ID)
	writeJSON(w, http.StatusCreated, p)
}

func (a *API) updateProduct(w http.ResponseWriter, r *http.Request, id string) {
	var req productRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	p, err := a.svc.UpdateProduct(r.Context(), id, ledger.Product{
		Name:              req.Name,
		UnitCost:          req.UnitCost,
		SalePrice:         req.SalePrice,
		LowStockThreshold: req.LowStockThreshold,
	})
	if err != nil {
		handleLedgerError(w, r, err)
		return
	}
	a.audit(r.Context(), "product.update", "product", id, nil)
	writeJSON(w, http.StatusOK, p)
}

func (a *API) productStock(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	stock, err := ledger.ProductStock(r.Context(), a.svc, id)
	if err != nil {
		handleLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"product_id": id,
		"stock":      stock,
	})
}

func (a *API) lowStockProducts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	levels, err := ledger.LowStockProducts(r.Context(), a.svc)
	if err != nil {
		handleLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": levels})
}
