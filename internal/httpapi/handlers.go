package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"smartkhata.org/internal/ledger"
)

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "khata-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.ready.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "khata-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	payload := map[string]any{
		"error": msg,
	}
	if rid := RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, code, payload)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

// handleLedgerError maps domain errors to status codes: malformed input and
// unbalanced entries are 400, unknown ids 404, integrity conflicts 409.
func handleLedgerError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		vErr       *ledger.ValidationError
		unbalanced *ledger.UnbalancedEntryError
		dupCode    *ledger.DuplicateAccountCodeError
		inUse      *ledger.AccountInUseError
		mismatch   *ledger.ReferenceMismatchError
	)
	switch {
	case errors.As(err, &vErr), errors.As(err, &unbalanced):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, ledger.ErrNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	case errors.As(err, &dupCode), errors.As(err, &inUse), errors.As(err, &mismatch):
		writeError(w, r, http.StatusConflict, err.Error())
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

// parseDate accepts calendar dates and RFC3339 timestamps.
func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, errors.New("date must be YYYY-MM-DD or RFC3339")
	}
	return t, nil
}

// parseWindow reads the startDate/endDate query params into a DateRange.
func parseWindow(r *http.Request) (ledger.DateRange, error) {
	var window ledger.DateRange
	if raw := r.URL.Query().Get("startDate"); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			return ledger.DateRange{}, errors.New("startDate: " + err.Error())
		}
		window.Start = t
	}
	if raw := r.URL.Query().Get("endDate"); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			return ledger.DateRange{}, errors.New("endDate: " + err.Error())
		}
		window.End = t
	}
	return window, nil
}
