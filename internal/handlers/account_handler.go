package handlers

import (
	"net/http"

	"github.com/finanzas/backend/internal/middleware"
	"github.com/finanzas/backend/internal/models"
	"github.com/finanzas/backend/internal/services"
)

type AccountHandler struct {
	accounts  *services.AccountService
	validator *services.ValidationHelper
}

func NewAccountHandler(accounts *services.AccountService) *AccountHandler {
	return &AccountHandler{
		accounts:  accounts,
		validator: services.NewValidationHelper(),
	}
}

// CreateCuenta creates an account
// @Summary Create an account
// @Description Create a plain account or a credit card; balances start at zero
// @Tags cuentas
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param cuenta body models.NuevaCuentaRequest true "Account data"
// @Success 201 {object} models.Cuenta
// @Failure 400 {object} services.ErrorResponse
// @Router /cuentas [post]
func (h *AccountHandler) CreateCuenta(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req models.NuevaCuentaRequest
	if err := decodeJSON(w, r, &req); err != nil {
		services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	cuenta, err := h.accounts.Create(r.Context(), userID, req)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, cuenta)
}

// ListCuentas lists the owner's accounts
// @Summary List accounts
// @Description List every account, card and loan owned by the caller
// @Tags cuentas
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{cuentas=[]models.Cuenta,total=int}
// @Failure 500 {object} services.ErrorResponse
// @Router /cuentas [get]
func (h *AccountHandler) ListCuentas(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	cuentas, err := h.accounts.List(r.Context(), userID)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"cuentas": cuentas,
		"total":   len(cuentas),
	})
}
