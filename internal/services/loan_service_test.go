package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finanzas/backend/internal/models"
)

func newLoanMock(t *testing.T) (*LoanService, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	registry := NewTypeRegistry(db, nil)
	return NewLoanService(db, NewLedgerService(db, registry), registry), mock
}

func prestamoRow(id, userID, saldo string) *sqlmock.Rows {
	return sqlmock.NewRows(cuentaColumns()).
		AddRow(id, userID, "Prestamo a Juan", "USD", saldo, false, true, "0", "0", "0", 12.0, time.Now())
}

func TestCreateLoan(t *testing.T) {
	ctx := context.Background()

	t.Run("opens the account and disburses the principal", func(t *testing.T) {
		svc, mock := newLoanMock(t)

		mock.ExpectQuery("INSERT INTO tipos_transaccion").
			WithArgs(models.TipoDesembolso).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(5)))

		mock.ExpectBegin()
		mock.ExpectQuery("FROM cuentas").
			WithArgs("cta-aaa", "user-1").
			WillReturnRows(cuentaRow("cta-aaa", "user-1", "5000.00"))
		mock.ExpectExec("INSERT INTO cuentas").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO transacciones").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO transacciones").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("UPDATE cuentas").
			WithArgs(sqlmock.AnyArg(), "cta-aaa").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("UPDATE cuentas").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		prestamo, err := svc.CreateLoan(ctx, "user-1", "Prestamo a Juan", "USD",
			decimal.NewFromFloat(1000), 12, 24, "cta-aaa")
		require.NoError(t, err)

		assert.True(t, prestamo.Cuenta.EsPrestamo)
		assert.True(t, prestamo.Cuenta.Saldo.Equal(decimal.NewFromFloat(1000)))
		assert.Equal(t, "cta-aaa", prestamo.Desembolso.Salida.CuentaID)
		assert.Equal(t, prestamo.Cuenta.ID, prestamo.Desembolso.Entrada.CuentaID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("loan currency must match the source account", func(t *testing.T) {
		svc, mock := newLoanMock(t)

		mock.ExpectQuery("INSERT INTO tipos_transaccion").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(5)))
		mock.ExpectBegin()
		mock.ExpectQuery("FROM cuentas").
			WithArgs("cta-aaa", "user-1").
			WillReturnRows(cuentaRow("cta-aaa", "user-1", "5000.00"))
		mock.ExpectExec("INSERT INTO cuentas").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectRollback()

		_, err := svc.CreateLoan(ctx, "user-1", "Prestamo", "EUR",
			decimal.NewFromFloat(1000), 12, 24, "cta-aaa")
		assert.ErrorIs(t, err, ErrCurrencyMismatch)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("non-positive principal rejected", func(t *testing.T) {
		svc, mock := newLoanMock(t)

		_, err := svc.CreateLoan(ctx, "user-1", "Prestamo", "USD", decimal.Zero, 12, 24, "cta-aaa")
		assert.ErrorIs(t, err, ErrInvalidAmount)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing source account", func(t *testing.T) {
		svc, mock := newLoanMock(t)

		mock.ExpectQuery("INSERT INTO tipos_transaccion").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(5)))
		mock.ExpectBegin()
		mock.ExpectQuery("FROM cuentas").
			WithArgs("cta-404", "user-1").
			WillReturnRows(sqlmock.NewRows(cuentaColumns()))
		mock.ExpectRollback()

		_, err := svc.CreateLoan(ctx, "user-1", "Prestamo", "USD",
			decimal.NewFromFloat(1000), 12, 24, "cta-404")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRecordLoanPayment(t *testing.T) {
	ctx := context.Background()

	t.Run("repayment flows from the loan to the destination", func(t *testing.T) {
		svc, mock := newLoanMock(t)

		mock.ExpectQuery("INSERT INTO tipos_transaccion").
			WithArgs(models.TipoAbonoPrestamo).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(6)))

		mock.ExpectBegin()
		// "cta-aaa" < "pre-bbb": destination locks first.
		mock.ExpectQuery("FROM cuentas").
			WithArgs("cta-aaa", "user-1").
			WillReturnRows(cuentaRow("cta-aaa", "user-1", "100.00"))
		mock.ExpectQuery("FROM cuentas").
			WithArgs("pre-bbb", "user-1").
			WillReturnRows(prestamoRow("pre-bbb", "user-1", "1000.00"))
		mock.ExpectExec("INSERT INTO transacciones").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO transacciones").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("UPDATE cuentas").
			WithArgs(sqlmock.AnyArg(), "pre-bbb").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("UPDATE cuentas").
			WithArgs(sqlmock.AnyArg(), "cta-aaa").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		transfer, err := svc.RecordPayment(ctx, "user-1", "pre-bbb", "cta-aaa",
			decimal.NewFromFloat(200), "")
		require.NoError(t, err)

		assert.Equal(t, "pre-bbb", transfer.Salida.CuentaID)
		assert.Equal(t, "cta-aaa", transfer.Entrada.CuentaID)
		assert.Equal(t, "Abono a prestamo: Prestamo a Juan", transfer.Salida.Descripcion)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("account that is not a loan", func(t *testing.T) {
		svc, mock := newLoanMock(t)

		mock.ExpectQuery("INSERT INTO tipos_transaccion").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(6)))
		mock.ExpectBegin()
		mock.ExpectQuery("FROM cuentas").
			WithArgs("cta-aaa", "user-1").
			WillReturnRows(cuentaRow("cta-aaa", "user-1", "100.00"))
		mock.ExpectQuery("FROM cuentas").
			WithArgs("cta-bbb", "user-1").
			WillReturnRows(cuentaRow("cta-bbb", "user-1", "100.00"))
		mock.ExpectRollback()

		_, err := svc.RecordPayment(ctx, "user-1", "cta-aaa", "cta-bbb",
			decimal.NewFromFloat(50), "")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("loan and destination must differ", func(t *testing.T) {
		svc, mock := newLoanMock(t)

		_, err := svc.RecordPayment(ctx, "user-1", "pre-bbb", "pre-bbb",
			decimal.NewFromFloat(50), "")
		assert.ErrorIs(t, err, ErrSameAccount)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
