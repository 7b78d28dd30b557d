package services

import (
	"context"
	"database/sql"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finanzas/backend/internal/models"
)

// LoanService models a loan as a pair of ledger flows over a dedicated
// loan-tagged account: the disbursement moves the principal out of a source
// account into the loan account; repayments move money back out toward a
// destination account. Unlike card capital there is no zero floor, so an
// over-collected loan keeps a negative (credit) balance.
type LoanService struct {
	db     *sql.DB
	ledger *LedgerService
	types  *TypeRegistry
}

func NewLoanService(db *sql.DB, ledger *LedgerService, types *TypeRegistry) *LoanService {
	return &LoanService{db: db, ledger: ledger, types: types}
}

// CreateLoan opens the loan account with a zero balance and disburses the
// principal from the source account, all in one atomic unit.
func (s *LoanService) CreateLoan(ctx context.Context, ownerID string, nombre, moneda string, monto decimal.Decimal, tasaAnual float64, plazoMeses int, origenID string) (*models.Prestamo, error) {
	if !models.IsPayableAmount(monto) {
		return nil, ErrInvalidAmount
	}

	tipoID, err := s.types.GetOrCreate(ctx, models.TipoDesembolso)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	defer tx.Rollback()

	origen, err := lockCuenta(ctx, tx, ownerID, origenID)
	if err != nil {
		return nil, err
	}

	prestamo := models.Cuenta{
		ID:         uuid.NewString(),
		UserID:     ownerID,
		Nombre:     nombre,
		Moneda:     moneda,
		Saldo:      decimal.Zero,
		EsPrestamo: true,
		TasaAnual:  tasaAnual,
		PlazoMeses: plazoMeses,
		CreatedAt:  time.Now(),
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO cuentas
		(id, user_id, nombre, moneda, saldo, es_prestamo, tasa_anual, plazo_meses, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 0, TRUE, $5, $6, NOW(), NOW())`,
		prestamo.ID, ownerID, nombre, moneda, tasaAnual, plazoMeses)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	transfer, err := s.ledger.transferTx(ctx, tx, origen, &prestamo, monto, "Desembolso de prestamo: "+nombre, time.Now(), tipoID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, mapStoreErr(err)
	}

	prestamo.Saldo = monto
	log.Printf("[PRESTAMO] Prestamo %s creado por %s desde cuenta %s", prestamo.ID, monto, origenID)
	return &models.Prestamo{Cuenta: prestamo, Desembolso: *transfer}, nil
}

// RecordPayment moves a received repayment from the loan account to the
// destination account as a linked transfer. The loan balance falls toward
// zero and may go past it.
func (s *LoanService) RecordPayment(ctx context.Context, ownerID, prestamoID, destinoID string, monto decimal.Decimal, descripcion string) (*models.Transfer, error) {
	if !models.IsPayableAmount(monto) {
		return nil, ErrInvalidAmount
	}
	if prestamoID == destinoID {
		return nil, ErrSameAccount
	}

	tipoID, err := s.types.GetOrCreate(ctx, models.TipoAbonoPrestamo)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	defer tx.Rollback()

	prestamo, destino, err := lockCuentaPair(ctx, tx, ownerID, prestamoID, destinoID)
	if err != nil {
		return nil, err
	}
	if !prestamo.EsPrestamo {
		return nil, ErrNotFound
	}

	if descripcion == "" {
		descripcion = "Abono a prestamo: " + prestamo.Nombre
	}
	transfer, err := s.ledger.transferTx(ctx, tx, prestamo, destino, monto, descripcion, time.Now(), tipoID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, mapStoreErr(err)
	}

	log.Printf("[PRESTAMO] Abono de %s registrado en prestamo %s", monto, prestamoID)
	return transfer, nil
}
