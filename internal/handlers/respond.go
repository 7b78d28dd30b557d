package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/finanzas/backend/internal/services"
)

// decodeJSON reads one JSON object into dst with the usual guards: size cap,
// unknown fields rejected, trailing content rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("request body must only contain a single JSON object")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

type engineError struct {
	Error  string `json:"error"`
	Codigo string `json:"codigo"`
}

// writeEngineError maps the engine's failure taxonomy to stable codes. Only
// CONFLICTO (409) is worth retrying as-is; everything else needs a corrected
// request.
func writeEngineError(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	codigo := ""

	switch {
	case errors.Is(err, services.ErrNotFound):
		status, codigo = http.StatusNotFound, "NO_ENCONTRADO"
	case errors.Is(err, services.ErrInvalidAmount):
		codigo = "MONTO_INVALIDO"
	case errors.Is(err, services.ErrSameAccount):
		codigo = "MISMA_CUENTA"
	case errors.Is(err, services.ErrCurrencyMismatch):
		codigo = "MONEDA_DISTINTA"
	case errors.Is(err, services.ErrInsufficientFunds):
		codigo = "SALDO_INSUFICIENTE"
	case errors.Is(err, services.ErrExceedsCreditLimit):
		codigo = "EXCEDE_CUPO"
	case errors.Is(err, services.ErrExceedsTotalDebt):
		codigo = "EXCEDE_DEUDA"
	case errors.Is(err, services.ErrExceedsCapital):
		codigo = "EXCEDE_CAPITAL"
	case errors.Is(err, services.ErrTransferImmutable):
		codigo = "TRANSFERENCIA_INMUTABLE"
	case errors.Is(err, services.ErrNothingToCharge):
		codigo = "SIN_INTERES"
	case errors.Is(err, services.ErrStoreConflict):
		status, codigo = http.StatusConflict, "CONFLICTO"
	default:
		log.Printf("[API] Error interno: %v", err)
		writeJSON(w, http.StatusInternalServerError, engineError{Error: "error interno", Codigo: "INTERNO"})
		return
	}

	writeJSON(w, status, engineError{Error: err.Error(), Codigo: codigo})
}
