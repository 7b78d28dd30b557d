package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/finanzas/backend/internal/middleware"
	"github.com/finanzas/backend/internal/models"
	"github.com/finanzas/backend/internal/services"
)

type TransactionHandler struct {
	ledger    *services.LedgerService
	queries   *services.QueryService
	validator *services.ValidationHelper
}

func NewTransactionHandler(ledger *services.LedgerService, queries *services.QueryService) *TransactionHandler {
	return &TransactionHandler{
		ledger:    ledger,
		queries:   queries,
		validator: services.NewValidationHelper(),
	}
}

func parseFecha(s string) time.Time {
	if s == "" {
		return time.Now()
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Now()
	}
	return t
}

// CreateTransaccion records a plain income/expense entry
// @Summary Create a ledger entry
// @Description Record a single income or expense movement on an account
// @Tags transacciones
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param transaccion body models.NuevaTransaccionRequest true "Entry data"
// @Success 201 {object} models.Transaccion
// @Failure 400 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Router /transacciones [post]
func (h *TransactionHandler) CreateTransaccion(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req models.NuevaTransaccionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	var categoriaID *string
	if req.CategoriaID != "" {
		categoriaID = &req.CategoriaID
	}

	entry, err := h.ledger.CreateEntry(r.Context(), userID, req.CuentaID,
		decimal.NewFromFloat(req.Monto), req.Direccion, req.Descripcion,
		parseFecha(req.Fecha), categoriaID, models.TipoNormal)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, entry)
}

// CreateTransferencia records both legs of a transfer
// @Summary Create a transfer
// @Description Move money between two accounts as a pair of linked entries
// @Tags transacciones
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param transferencia body models.NuevaTransferenciaRequest true "Transfer data"
// @Success 201 {object} models.Transfer
// @Failure 400 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Router /transferencias [post]
func (h *TransactionHandler) CreateTransferencia(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req models.NuevaTransferenciaRequest
	if err := decodeJSON(w, r, &req); err != nil {
		services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	transfer, err := h.ledger.CreateTransfer(r.Context(), userID,
		req.CuentaOrigenID, req.CuentaDestinoID, decimal.NewFromFloat(req.Monto),
		req.Descripcion, parseFecha(req.Fecha), models.TipoTransferencia)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, transfer)
}

// UpdateTransaccion patches an entry
// @Summary Update a ledger entry
// @Description Patch an entry; transfer legs only accept memo/date/category
// @Tags transacciones
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Transaction ID"
// @Param patch body models.ActualizarTransaccionRequest true "Fields to update"
// @Success 200 {object} models.Transaccion
// @Failure 400 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Router /transacciones/{id} [put]
func (h *TransactionHandler) UpdateTransaccion(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}
	id := chi.URLParam(r, "id")

	var req models.ActualizarTransaccionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	patch := models.EntryPatch{
		Direccion:   req.Direccion,
		CuentaID:    req.CuentaID,
		Descripcion: req.Descripcion,
		CategoriaID: req.CategoriaID,
	}
	if req.Monto != nil {
		monto := decimal.NewFromFloat(*req.Monto)
		patch.Monto = &monto
	}
	if req.Fecha != nil {
		fecha := parseFecha(*req.Fecha)
		patch.Fecha = &fecha
	}

	entry, err := h.ledger.UpdateEntry(r.Context(), userID, id, patch)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, entry)
}

// DeleteTransaccion removes an entry (and its transfer counterpart)
// @Summary Delete a ledger entry
// @Description Delete an entry, reversing its balance delta; transfer legs go in pairs
// @Tags transacciones
// @Produce json
// @Security BearerAuth
// @Param id path string true "Transaction ID"
// @Success 204
// @Failure 404 {object} services.ErrorResponse
// @Router /transacciones/{id} [delete]
func (h *TransactionHandler) DeleteTransaccion(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	if err := h.ledger.DeleteEntry(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		writeEngineError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListTransacciones lists entries with optional filters
// @Summary List ledger entries
// @Description List the owner's entries filtered by account and calendar month
// @Tags transacciones
// @Produce json
// @Security BearerAuth
// @Param cuentaId query string false "Filter by account"
// @Param anio query int false "Calendar year"
// @Param mes query int false "Calendar month (1-12)"
// @Param limite query int false "Result cap (default 50, max 500)"
// @Success 200 {object} object{transacciones=[]models.Transaccion,total=int}
// @Failure 500 {object} services.ErrorResponse
// @Router /transacciones [get]
func (h *TransactionHandler) ListTransacciones(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	q := r.URL.Query()
	anio, _ := strconv.Atoi(q.Get("anio"))
	mes, _ := strconv.Atoi(q.Get("mes"))
	limite, _ := strconv.Atoi(q.Get("limite"))

	transacciones, err := h.queries.Transacciones(r.Context(), userID, q.Get("cuentaId"), anio, mes, limite)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"transacciones": transacciones,
		"total":         len(transacciones),
	})
}
