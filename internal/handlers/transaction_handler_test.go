package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finanzas/backend/internal/services"
)

func newTransactionHandlerMock(t *testing.T) (*TransactionHandler, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ledger := services.NewLedgerService(db, services.NewTypeRegistry(db, nil))
	return NewTransactionHandler(ledger, services.NewQueryService(db)), mock
}

func TestCreateTransferenciaHandler(t *testing.T) {
	t.Run("requires an authenticated owner", func(t *testing.T) {
		h, _ := newTransactionHandlerMock(t)

		req := httptest.NewRequest(http.MethodPost, "/transferencias", strings.NewReader(`{}`))
		rec := httptest.NewRecorder()

		h.CreateTransferencia(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects malformed JSON", func(t *testing.T) {
		h, _ := newTransactionHandlerMock(t)

		req := httptest.NewRequest(http.MethodPost, "/transferencias", strings.NewReader(`{"monto":`))
		rec := httptest.NewRecorder()

		h.CreateTransferencia(rec, authenticated(req, "user-1"))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("same origin and destination maps to 400", func(t *testing.T) {
		h, mock := newTransactionHandlerMock(t)

		id := "a3bb189e-8bf9-4888-9912-ace4e6543002"
		body := `{"cuentaOrigenId": "` + id + `", "cuentaDestinoId": "` + id + `", "monto": 100}`
		req := httptest.NewRequest(http.MethodPost, "/transferencias", strings.NewReader(body))
		rec := httptest.NewRecorder()

		h.CreateTransferencia(rec, authenticated(req, "user-1"))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "MISMA_CUENTA")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDeleteTransaccionHandler(t *testing.T) {
	t.Run("missing entry maps to 404", func(t *testing.T) {
		h, mock := newTransactionHandlerMock(t)

		mock.ExpectBegin()
		mock.ExpectQuery("FROM transacciones").
			WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "cuenta_id", "monto", "moneda",
				"direccion", "fecha", "descripcion", "categoria_id", "tipo_id", "vinculada_id"}))
		mock.ExpectRollback()

		r := chi.NewRouter()
		r.Delete("/transacciones/{id}", h.DeleteTransaccion)

		req := httptest.NewRequest(http.MethodDelete, "/transacciones/tx-404", nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, authenticated(req, "user-1"))

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestListTransaccionesHandler(t *testing.T) {
	t.Run("returns entries with a total", func(t *testing.T) {
		h, mock := newTransactionHandlerMock(t)

		mock.ExpectQuery("FROM transacciones").
			WithArgs("user-1", 50).
			WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "cuenta_id", "monto", "moneda",
				"direccion", "fecha", "descripcion", "categoria_id", "tipo_id", "vinculada_id"}))

		req := httptest.NewRequest(http.MethodGet, "/transacciones", nil)
		rec := httptest.NewRecorder()

		h.ListTransacciones(rec, authenticated(req, "user-1"))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"total":0`)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
