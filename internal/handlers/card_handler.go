package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/finanzas/backend/internal/middleware"
	"github.com/finanzas/backend/internal/models"
	"github.com/finanzas/backend/internal/services"
)

type CardHandler struct {
	credit    *services.CreditService
	queries   *services.QueryService
	validator *services.ValidationHelper
}

func NewCardHandler(credit *services.CreditService, queries *services.QueryService) *CardHandler {
	return &CardHandler{
		credit:    credit,
		queries:   queries,
		validator: services.NewValidationHelper(),
	}
}

// CreateMovimiento records a card movement
// @Summary Record a card movement
// @Description Apply a purchase, advance, interest charge, payment or adjustment to a credit card
// @Tags tarjetas
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Card account ID"
// @Param movimiento body models.NuevoMovimientoRequest true "Movement data"
// @Success 201 {object} models.MovimientoTarjeta
// @Failure 400 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Router /tarjetas/{id}/movimientos [post]
func (h *CardHandler) CreateMovimiento(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req models.NuevoMovimientoRequest
	if err := decodeJSON(w, r, &req); err != nil {
		services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	mov, err := h.credit.RecordMovement(r.Context(), userID, chi.URLParam(r, "id"), services.MovimientoSpec{
		Tipo:           req.Tipo,
		Monto:          decimal.NewFromFloat(req.Monto),
		AutoInteres:    req.AutoInteres,
		CuentaOrigenID: req.CuentaOrigenID,
		CompraID:       req.CompraID,
		Diferido:       req.Diferido,
		Cuotas:         req.Cuotas,
		Descripcion:    req.Descripcion,
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, mov)
}

// ListMovimientos lists a card's audit rows
// @Summary List card movements
// @Description List the append-only movement history of a card, newest first
// @Tags tarjetas
// @Produce json
// @Security BearerAuth
// @Param id path string true "Card account ID"
// @Param limite query int false "Result cap (default 50, max 500)"
// @Success 200 {object} object{movimientos=[]models.MovimientoTarjeta,total=int}
// @Failure 404 {object} services.ErrorResponse
// @Router /tarjetas/{id}/movimientos [get]
func (h *CardHandler) ListMovimientos(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	limite, _ := strconv.Atoi(r.URL.Query().Get("limite"))
	movimientos, err := h.queries.MovimientosTarjeta(r.Context(), userID, chi.URLParam(r, "id"), limite)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"movimientos": movimientos,
		"total":       len(movimientos),
	})
}

// ListCompras lists a card's deferred purchases
// @Summary List deferred purchases
// @Description List a card's installment purchases, oldest first; optionally only those still pending
// @Tags tarjetas
// @Produce json
// @Security BearerAuth
// @Param id path string true "Card account ID"
// @Param pendientes query bool false "Only purchases with a remaining balance"
// @Success 200 {object} object{compras=[]models.CompraDiferida,total=int}
// @Failure 404 {object} services.ErrorResponse
// @Router /tarjetas/{id}/compras [get]
func (h *CardHandler) ListCompras(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	soloPendientes := r.URL.Query().Get("pendientes") == "true"
	compras, err := h.queries.ComprasDiferidas(r.Context(), userID, chi.URLParam(r, "id"), soloPendientes)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"compras": compras,
		"total":   len(compras),
	})
}

// SimularPlan quotes an amortized installment plan
// @Summary Quote an installment plan
// @Description Preview the annuity payment for a principal over a term; quote only, creates nothing
// @Tags simulador
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param plan body models.SimularPlanRequest true "Plan parameters"
// @Success 200 {object} services.PlanEstimate
// @Failure 400 {object} services.ErrorResponse
// @Router /simulador/credito [post]
func (h *CardHandler) SimularPlan(w http.ResponseWriter, r *http.Request) {
	var req models.SimularPlanRequest
	if err := decodeJSON(w, r, &req); err != nil {
		services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	plan, err := services.EstimatePlan(decimal.NewFromFloat(req.Monto), req.Meses, req.TasaAnual)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, plan)
}
