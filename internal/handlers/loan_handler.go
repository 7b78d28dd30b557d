package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/finanzas/backend/internal/middleware"
	"github.com/finanzas/backend/internal/models"
	"github.com/finanzas/backend/internal/services"
)

type LoanHandler struct {
	loans     *services.LoanService
	validator *services.ValidationHelper
}

func NewLoanHandler(loans *services.LoanService) *LoanHandler {
	return &LoanHandler{
		loans:     loans,
		validator: services.NewValidationHelper(),
	}
}

// CreatePrestamo opens a loan and disburses the principal
// @Summary Create a loan
// @Description Open a loan account and transfer the principal from a source account
// @Tags prestamos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param prestamo body models.NuevoPrestamoRequest true "Loan data"
// @Success 201 {object} models.Prestamo
// @Failure 400 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Router /prestamos [post]
func (h *LoanHandler) CreatePrestamo(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req models.NuevoPrestamoRequest
	if err := decodeJSON(w, r, &req); err != nil {
		services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	prestamo, err := h.loans.CreateLoan(r.Context(), userID, req.Nombre, req.Moneda,
		decimal.NewFromFloat(req.Monto), req.TasaAnual, req.PlazoMeses, req.CuentaOrigenID)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, prestamo)
}

// CreateAbono records a repayment received on a loan
// @Summary Record a loan repayment
// @Description Transfer a received repayment from the loan account to a destination account
// @Tags prestamos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Loan account ID"
// @Param abono body models.NuevoAbonoRequest true "Repayment data"
// @Success 201 {object} models.Transfer
// @Failure 400 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Router /prestamos/{id}/abonos [post]
func (h *LoanHandler) CreateAbono(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req models.NuevoAbonoRequest
	if err := decodeJSON(w, r, &req); err != nil {
		services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	transfer, err := h.loans.RecordPayment(r.Context(), userID, chi.URLParam(r, "id"),
		req.CuentaDestinoID, decimal.NewFromFloat(req.Monto), req.Descripcion)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, transfer)
}
