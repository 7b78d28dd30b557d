package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finanzas/backend/internal/models"
)

func newQueryMock(t *testing.T) (*QueryService, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewQueryService(db), mock
}

func TestQueryTransacciones(t *testing.T) {
	ctx := context.Background()

	t.Run("owner filter with default limit", func(t *testing.T) {
		svc, mock := newQueryMock(t)

		tipoID := int64(1)
		mock.ExpectQuery("FROM transacciones").
			WithArgs("user-1", 50).
			WillReturnRows(sqlmock.NewRows(transaccionColumns()).
				AddRow("tx-1", "user-1", "cta-aaa", "20.00", "USD", "SALIDA",
					time.Now(), "Cafe", nil, tipoID, nil))

		transacciones, err := svc.Transacciones(ctx, "user-1", "", 0, 0, 0)
		require.NoError(t, err)
		require.Len(t, transacciones, 1)
		assert.Equal(t, "tx-1", transacciones[0].ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("account and month filters", func(t *testing.T) {
		svc, mock := newQueryMock(t)

		desde := time.Date(2026, 3, 1, 0, 0, 0, 0, time.Local)
		mock.ExpectQuery("FROM transacciones").
			WithArgs("user-1", "cta-aaa", desde, desde.AddDate(0, 1, 0), 10).
			WillReturnRows(sqlmock.NewRows(transaccionColumns()))

		transacciones, err := svc.Transacciones(ctx, "user-1", "cta-aaa", 2026, 3, 10)
		require.NoError(t, err)
		assert.Empty(t, transacciones)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("limit clamped to the maximum", func(t *testing.T) {
		svc, mock := newQueryMock(t)

		mock.ExpectQuery("FROM transacciones").
			WithArgs("user-1", 500).
			WillReturnRows(sqlmock.NewRows(transaccionColumns()))

		_, err := svc.Transacciones(ctx, "user-1", "", 0, 0, 9999)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestQueryMovimientosTarjeta(t *testing.T) {
	ctx := context.Background()

	t.Run("requires a card owned by the caller", func(t *testing.T) {
		svc, mock := newQueryMock(t)

		mock.ExpectQuery("SELECT es_tarjeta FROM cuentas").
			WithArgs("cta-aaa", "user-1").
			WillReturnRows(sqlmock.NewRows([]string{"es_tarjeta"}).AddRow(false))

		_, err := svc.MovimientosTarjeta(ctx, "user-1", "cta-aaa", 0)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("lists audit rows", func(t *testing.T) {
		svc, mock := newQueryMock(t)

		mock.ExpectQuery("SELECT es_tarjeta FROM cuentas").
			WithArgs("tar-bbb", "user-1").
			WillReturnRows(sqlmock.NewRows([]string{"es_tarjeta"}).AddRow(true))
		mock.ExpectQuery("FROM movimientos_tarjeta").
			WithArgs("tar-bbb", 50).
			WillReturnRows(sqlmock.NewRows([]string{"id", "tarjeta_id", "transaccion_id", "tipo",
				"monto", "saldo_resultante", "interes_aplicado", "capital_aplicado", "compra_id", "fecha"}).
				AddRow("mov-1", "tar-bbb", nil, "INTERES", "25.28", "1025.28", "25.28", "0", nil, time.Now()))

		movimientos, err := svc.MovimientosTarjeta(ctx, "user-1", "tar-bbb", 0)
		require.NoError(t, err)
		require.Len(t, movimientos, 1)
		assert.Equal(t, "INTERES", movimientos[0].Tipo)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestQueryComprasDiferidas(t *testing.T) {
	ctx := context.Background()

	t.Run("pending filter", func(t *testing.T) {
		svc, mock := newQueryMock(t)

		mock.ExpectQuery("SELECT es_tarjeta FROM cuentas").
			WithArgs("tar-bbb", "user-1").
			WillReturnRows(sqlmock.NewRows([]string{"es_tarjeta"}).AddRow(true))
		mock.ExpectQuery("monto_pendiente > 0").
			WithArgs("tar-bbb").
			WillReturnRows(sqlmock.NewRows([]string{"id", "tarjeta_id", "descripcion",
				"monto_original", "monto_pendiente", "cuotas_totales", "fecha_compra"}).
				AddRow("compra-1", "tar-bbb", "Televisor", "600.00", "450.00", 12, time.Now()))

		compras, err := svc.ComprasDiferidas(ctx, "user-1", "tar-bbb", true)
		require.NoError(t, err)
		require.Len(t, compras, 1)
		assert.True(t, compras[0].MontoPendiente.IsPositive())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing card", func(t *testing.T) {
		svc, mock := newQueryMock(t)

		mock.ExpectQuery("SELECT es_tarjeta FROM cuentas").
			WithArgs("tar-404", "user-1").
			WillReturnRows(sqlmock.NewRows([]string{"es_tarjeta"}))

		_, err := svc.ComprasDiferidas(ctx, "user-1", "tar-404", false)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAccountService(t *testing.T) {
	ctx := context.Background()

	t.Run("create starts at zero balance", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		svc := NewAccountService(db)

		mock.ExpectExec("INSERT INTO cuentas").
			WillReturnResult(sqlmock.NewResult(0, 1))

		cuenta, err := svc.Create(ctx, "user-1", models.NuevaCuentaRequest{
			Nombre:    "Tarjeta Visa",
			Moneda:    "USD",
			EsTarjeta: true,
			Cupo:      1500,
			TasaAnual: 36,
		})
		require.NoError(t, err)

		assert.True(t, cuenta.Saldo.IsZero())
		assert.True(t, cuenta.EsTarjeta)
		assert.NotEmpty(t, cuenta.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("list scoped to owner", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		svc := NewAccountService(db)

		mock.ExpectQuery("FROM cuentas").
			WithArgs("user-1").
			WillReturnRows(cuentaRow("cta-aaa", "user-1", "150.00"))

		cuentas, err := svc.List(ctx, "user-1")
		require.NoError(t, err)
		require.Len(t, cuentas, 1)
		assert.Equal(t, "cta-aaa", cuentas[0].ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
