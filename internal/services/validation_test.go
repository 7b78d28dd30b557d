package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finanzas/backend/internal/models"
)

func TestValidateStruct(t *testing.T) {
	vh := NewValidationHelper()

	t.Run("valid account request", func(t *testing.T) {
		req := models.NuevaCuentaRequest{
			Nombre:    "Cuenta de ahorros",
			Moneda:    "USD",
			EsTarjeta: true,
			Cupo:      2000,
			TasaAnual: 36,
			DiaCorte:  15,
			DiaPago:   28,
		}
		assert.NoError(t, vh.ValidateStruct(&req))
	})

	t.Run("missing name and bad currency", func(t *testing.T) {
		req := models.NuevaCuentaRequest{Moneda: "DOLARES"}

		err := vh.ValidateStruct(&req)
		require.Error(t, err)

		fieldErrs, ok := err.(validator.ValidationErrors)
		require.True(t, ok)
		assert.Len(t, fieldErrs, 2)
	})

	t.Run("movement type outside the taxonomy", func(t *testing.T) {
		req := models.NuevoMovimientoRequest{Tipo: "REGALO", Monto: 10}

		err := vh.ValidateStruct(&req)
		require.Error(t, err)

		fieldErrs, ok := err.(validator.ValidationErrors)
		require.True(t, ok)
		assert.Equal(t, "Tipo", fieldErrs[0].Field())
		assert.Equal(t, "oneof", fieldErrs[0].Tag())
	})

	t.Run("transfer requires uuid account ids", func(t *testing.T) {
		req := models.NuevaTransferenciaRequest{
			CuentaOrigenID:  "no-es-uuid",
			CuentaDestinoID: "a3bb189e-8bf9-4888-9912-ace4e6543002",
			Monto:           100,
		}

		err := vh.ValidateStruct(&req)
		require.Error(t, err)

		fieldErrs, ok := err.(validator.ValidationErrors)
		require.True(t, ok)
		assert.Len(t, fieldErrs, 1)
		assert.Equal(t, "CuentaOrigenID", fieldErrs[0].Field())
	})
}

func TestSendErrorResponse(t *testing.T) {
	t.Run("plain error", func(t *testing.T) {
		w := httptest.NewRecorder()

		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

		var response ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "Unauthorized", response.Error)
		assert.Nil(t, response.Details)
	})

	t.Run("validation details keyed by field", func(t *testing.T) {
		vh := NewValidationHelper()
		err := vh.ValidateStruct(&models.SimularPlanRequest{Monto: -5, Meses: 0})
		require.Error(t, err)

		w := httptest.NewRecorder()
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)

		assert.Equal(t, http.StatusBadRequest, w.Code)

		var response ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "Validation failed", response.Error)
		assert.Contains(t, response.Details, "Monto")
		assert.Contains(t, response.Details, "Meses")
	})
}
