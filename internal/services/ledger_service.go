package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/finanzas/backend/internal/models"
)

// LedgerService is the double-entry engine. Every mutation runs as one
// database transaction: the entry rows and the matching balance deltas either
// all land or none do. Balances are moved with atomic increments, never
// read-modify-write in memory.
type LedgerService struct {
	db    *sql.DB
	types *TypeRegistry
}

func NewLedgerService(db *sql.DB, types *TypeRegistry) *LedgerService {
	return &LedgerService{db: db, types: types}
}

// mapStoreErr translates transient postgres failures into the retryable
// sentinel. Everything else passes through.
func mapStoreErr(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "40001", "40P01": // serialization failure, deadlock detected
			return fmt.Errorf("%w: %v", ErrStoreConflict, err)
		}
	}
	return err
}

// lockCuenta loads an account row FOR UPDATE, scoped to its owner.
func lockCuenta(ctx context.Context, tx *sql.Tx, ownerID, cuentaID string) (*models.Cuenta, error) {
	var c models.Cuenta
	err := tx.QueryRowContext(ctx, `
		SELECT id, user_id, nombre, moneda, saldo, es_tarjeta, es_prestamo,
		       saldo_interes, saldo_capital, cupo, tasa_anual, created_at
		FROM cuentas
		WHERE id = $1 AND user_id = $2
		FOR UPDATE`, cuentaID, ownerID).Scan(
		&c.ID, &c.UserID, &c.Nombre, &c.Moneda, &c.Saldo, &c.EsTarjeta, &c.EsPrestamo,
		&c.SaldoInteres, &c.SaldoCapital, &c.Cupo, &c.TasaAnual, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, mapStoreErr(err)
	}
	return &c, nil
}

// lockCuentaPair locks two accounts in deterministic id order to avoid
// deadlocks between concurrent transfers, then returns them in request order.
func lockCuentaPair(ctx context.Context, tx *sql.Tx, ownerID, firstID, secondID string) (*models.Cuenta, *models.Cuenta, error) {
	a, b := firstID, secondID
	if a > b {
		a, b = b, a
	}

	first, err := lockCuenta(ctx, tx, ownerID, a)
	if err != nil {
		return nil, nil, err
	}
	second, err := lockCuenta(ctx, tx, ownerID, b)
	if err != nil {
		return nil, nil, err
	}

	if first.ID != firstID {
		first, second = second, first
	}
	return first, second, nil
}

func applySaldoDelta(ctx context.Context, tx *sql.Tx, cuentaID string, delta decimal.Decimal) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE cuentas
		SET saldo = saldo + $1, updated_at = NOW()
		WHERE id = $2`, delta, cuentaID)
	return mapStoreErr(err)
}

func insertTransaccion(ctx context.Context, tx *sql.Tx, t *models.Transaccion) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO transacciones
		(id, user_id, cuenta_id, monto, moneda, direccion, fecha, descripcion, categoria_id, tipo_id, vinculada_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		t.ID, t.UserID, t.CuentaID, t.Monto, t.Moneda, t.Direccion, t.Fecha,
		t.Descripcion, t.CategoriaID, t.TipoID, t.VinculadaID)
	return mapStoreErr(err)
}

func (s *LedgerService) checkCategoria(ctx context.Context, ownerID string, categoriaID *string) error {
	if categoriaID == nil {
		return nil
	}
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM categorias WHERE id = $1 AND user_id = $2)`,
		*categoriaID, ownerID).Scan(&exists)
	if err != nil {
		return mapStoreErr(err)
	}
	if !exists {
		return ErrNotFound
	}
	return nil
}

// CreateTransfer writes both legs of a transfer (SALIDA on origen, ENTRADA on
// destino), cross-linked, and moves both balances in the same database
// transaction.
func (s *LedgerService) CreateTransfer(ctx context.Context, ownerID, origenID, destinoID string, monto decimal.Decimal, descripcion string, fecha time.Time, codigoTipo string) (*models.Transfer, error) {
	if !models.IsPayableAmount(monto) {
		return nil, ErrInvalidAmount
	}
	if origenID == destinoID {
		return nil, ErrSameAccount
	}

	tipoID, err := s.types.GetOrCreate(ctx, codigoTipo)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	defer tx.Rollback()

	origen, destino, err := lockCuentaPair(ctx, tx, ownerID, origenID, destinoID)
	if err != nil {
		return nil, err
	}

	transfer, err := s.transferTx(ctx, tx, origen, destino, monto, descripcion, fecha, tipoID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, mapStoreErr(err)
	}

	log.Printf("[LEDGER] Transferencia %s -> %s por %s creada", origenID, destinoID, monto)
	return transfer, nil
}

// transferTx writes the two linked legs and both balance deltas inside an
// already-open transaction. The accounts must be locked by the caller and
// share a currency: both legs carry the same moneda, there is no conversion.
// Shared with the credit and loan engines so card payments and loan flows
// compose into a single atomic unit.
func (s *LedgerService) transferTx(ctx context.Context, tx *sql.Tx, origen, destino *models.Cuenta, monto decimal.Decimal, descripcion string, fecha time.Time, tipoID int64) (*models.Transfer, error) {
	if origen.Moneda != destino.Moneda {
		return nil, ErrCurrencyMismatch
	}
	monto = models.RoundCents(monto)

	salidaID := uuid.NewString()
	entradaID := uuid.NewString()

	salida := models.Transaccion{
		ID:          salidaID,
		UserID:      origen.UserID,
		CuentaID:    origen.ID,
		Monto:       monto,
		Moneda:      origen.Moneda,
		Direccion:   models.DireccionSalida,
		Fecha:       fecha,
		Descripcion: descripcion,
		TipoID:      &tipoID,
		VinculadaID: &entradaID,
	}
	entrada := models.Transaccion{
		ID:          entradaID,
		UserID:      destino.UserID,
		CuentaID:    destino.ID,
		Monto:       monto,
		Moneda:      destino.Moneda,
		Direccion:   models.DireccionEntrada,
		Fecha:       fecha,
		Descripcion: descripcion,
		TipoID:      &tipoID,
		VinculadaID: &salidaID,
	}

	if err := insertTransaccion(ctx, tx, &salida); err != nil {
		return nil, err
	}
	if err := insertTransaccion(ctx, tx, &entrada); err != nil {
		return nil, err
	}
	if err := applySaldoDelta(ctx, tx, origen.ID, monto.Neg()); err != nil {
		return nil, err
	}
	if err := applySaldoDelta(ctx, tx, destino.ID, monto); err != nil {
		return nil, err
	}

	return &models.Transfer{Salida: salida, Entrada: entrada}, nil
}

// CreateEntry writes a single non-linked entry and applies its signed delta.
func (s *LedgerService) CreateEntry(ctx context.Context, ownerID, cuentaID string, monto decimal.Decimal, direccion, descripcion string, fecha time.Time, categoriaID *string, codigoTipo string) (*models.Transaccion, error) {
	if !models.IsPayableAmount(monto) {
		return nil, ErrInvalidAmount
	}
	if err := s.checkCategoria(ctx, ownerID, categoriaID); err != nil {
		return nil, err
	}

	tipoID, err := s.types.GetOrCreate(ctx, codigoTipo)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	defer tx.Rollback()

	cuenta, err := lockCuenta(ctx, tx, ownerID, cuentaID)
	if err != nil {
		return nil, err
	}

	entry, err := s.entryTx(ctx, tx, cuenta, monto, direccion, descripcion, fecha, categoriaID, tipoID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, mapStoreErr(err)
	}

	log.Printf("[LEDGER] Entrada %s (%s %s) creada en cuenta %s", entry.ID, direccion, monto, cuentaID)
	return entry, nil
}

// entryTx writes one entry plus its balance delta inside an open transaction.
func (s *LedgerService) entryTx(ctx context.Context, tx *sql.Tx, cuenta *models.Cuenta, monto decimal.Decimal, direccion, descripcion string, fecha time.Time, categoriaID *string, tipoID int64) (*models.Transaccion, error) {
	monto = models.RoundCents(monto)

	entry := models.Transaccion{
		ID:          uuid.NewString(),
		UserID:      cuenta.UserID,
		CuentaID:    cuenta.ID,
		Monto:       monto,
		Moneda:      cuenta.Moneda,
		Direccion:   direccion,
		Fecha:       fecha,
		Descripcion: descripcion,
		CategoriaID: categoriaID,
		TipoID:      &tipoID,
	}

	if err := insertTransaccion(ctx, tx, &entry); err != nil {
		return nil, err
	}
	if err := applySaldoDelta(ctx, tx, cuenta.ID, entry.Delta()); err != nil {
		return nil, err
	}
	return &entry, nil
}

func lockTransaccion(ctx context.Context, tx *sql.Tx, ownerID, id string) (*models.Transaccion, error) {
	var t models.Transaccion
	err := tx.QueryRowContext(ctx, `
		SELECT id, user_id, cuenta_id, monto, moneda, direccion, fecha,
		       descripcion, categoria_id, tipo_id, vinculada_id
		FROM transacciones
		WHERE id = $1 AND user_id = $2
		FOR UPDATE`, id, ownerID).Scan(
		&t.ID, &t.UserID, &t.CuentaID, &t.Monto, &t.Moneda, &t.Direccion,
		&t.Fecha, &t.Descripcion, &t.CategoriaID, &t.TipoID, &t.VinculadaID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, mapStoreErr(err)
	}
	return &t, nil
}

// UpdateEntry patches an entry. Transfer legs only accept non-financial
// fields, applied to both legs in lockstep. Plain entries recompute the
// balance delta; moving the entry to another account reverses the delta on
// the old account, applies it on the new one and renominates the entry to
// the new account's currency.
func (s *LedgerService) UpdateEntry(ctx context.Context, ownerID, id string, patch models.EntryPatch) (*models.Transaccion, error) {
	if patch.Monto != nil && !models.IsPayableAmount(*patch.Monto) {
		return nil, ErrInvalidAmount
	}
	if err := s.checkCategoria(ctx, ownerID, patch.CategoriaID); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	defer tx.Rollback()

	entry, err := lockTransaccion(ctx, tx, ownerID, id)
	if err != nil {
		return nil, err
	}

	if entry.VinculadaID != nil {
		if patch.Financial() {
			return nil, ErrTransferImmutable
		}
		if err := updateNonFinancial(ctx, tx, patch, entry.ID, *entry.VinculadaID); err != nil {
			return nil, err
		}
	} else {
		if err := s.updatePlainEntry(ctx, tx, ownerID, entry, patch); err != nil {
			return nil, err
		}
	}

	applyPatch(entry, patch)

	if err := tx.Commit(); err != nil {
		return nil, mapStoreErr(err)
	}

	log.Printf("[LEDGER] Transaccion %s actualizada", id)
	return entry, nil
}

func applyPatch(entry *models.Transaccion, patch models.EntryPatch) {
	if patch.Monto != nil {
		entry.Monto = models.RoundCents(*patch.Monto)
	}
	if patch.Direccion != nil {
		entry.Direccion = *patch.Direccion
	}
	if patch.CuentaID != nil {
		entry.CuentaID = *patch.CuentaID
	}
	if patch.Descripcion != nil {
		entry.Descripcion = *patch.Descripcion
	}
	if patch.Fecha != nil {
		entry.Fecha = *patch.Fecha
	}
	if patch.CategoriaID != nil {
		entry.CategoriaID = patch.CategoriaID
	}
}

// updateNonFinancial edits memo, date and category on both transfer legs.
func updateNonFinancial(ctx context.Context, tx *sql.Tx, patch models.EntryPatch, ids ...string) error {
	sets := ""
	args := []any{}
	n := 1
	if patch.Descripcion != nil {
		sets += fmt.Sprintf("descripcion = $%d, ", n)
		args = append(args, *patch.Descripcion)
		n++
	}
	if patch.Fecha != nil {
		sets += fmt.Sprintf("fecha = $%d, ", n)
		args = append(args, *patch.Fecha)
		n++
	}
	if patch.CategoriaID != nil {
		sets += fmt.Sprintf("categoria_id = $%d, ", n)
		args = append(args, *patch.CategoriaID)
		n++
	}
	if sets == "" {
		return nil
	}

	query := fmt.Sprintf("UPDATE transacciones SET %s WHERE id = ANY($%d)", sets[:len(sets)-2], n)
	args = append(args, pq.Array(ids))
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return mapStoreErr(err)
	}
	return nil
}

func (s *LedgerService) updatePlainEntry(ctx context.Context, tx *sql.Tx, ownerID string, entry *models.Transaccion, patch models.EntryPatch) error {
	newMonto := entry.Monto
	if patch.Monto != nil {
		newMonto = models.RoundCents(*patch.Monto)
	}
	newDireccion := entry.Direccion
	if patch.Direccion != nil {
		newDireccion = *patch.Direccion
	}
	newCuentaID := entry.CuentaID
	if patch.CuentaID != nil {
		newCuentaID = *patch.CuentaID
	}
	newMoneda := entry.Moneda

	oldDelta := entry.Delta()
	newDelta := models.SignedAmount(newMonto, newDireccion)

	if newCuentaID != entry.CuentaID {
		_, destino, err := lockCuentaPair(ctx, tx, ownerID, entry.CuentaID, newCuentaID)
		if err != nil {
			return err
		}
		// The entry follows its account's denomination.
		newMoneda = destino.Moneda
		if err := applySaldoDelta(ctx, tx, entry.CuentaID, oldDelta.Neg()); err != nil {
			return err
		}
		if err := applySaldoDelta(ctx, tx, newCuentaID, newDelta); err != nil {
			return err
		}
	} else {
		if _, err := lockCuenta(ctx, tx, ownerID, entry.CuentaID); err != nil {
			return err
		}
		diff := newDelta.Sub(oldDelta)
		if !diff.IsZero() {
			if err := applySaldoDelta(ctx, tx, entry.CuentaID, diff); err != nil {
				return err
			}
		}
	}

	_, err := tx.ExecContext(ctx, `
		UPDATE transacciones
		SET cuenta_id = $1, monto = $2, direccion = $3, moneda = $4,
		    descripcion = COALESCE($5, descripcion),
		    fecha = COALESCE($6, fecha),
		    categoria_id = COALESCE($7, categoria_id)
		WHERE id = $8`,
		newCuentaID, newMonto, newDireccion, newMoneda,
		patch.Descripcion, patch.Fecha, patch.CategoriaID, entry.ID)
	if err != nil {
		return mapStoreErr(err)
	}
	entry.Moneda = newMoneda
	return nil
}

// DeleteEntry removes an entry and reverses its balance delta. A transfer leg
// takes its counterpart with it: both rows go, both balances are restored.
func (s *LedgerService) DeleteEntry(ctx context.Context, ownerID, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return mapStoreErr(err)
	}
	defer tx.Rollback()

	entry, err := lockTransaccion(ctx, tx, ownerID, id)
	if err != nil {
		return err
	}

	ids := []string{entry.ID}
	if err := applySaldoDelta(ctx, tx, entry.CuentaID, entry.Delta().Neg()); err != nil {
		return err
	}

	if entry.VinculadaID != nil {
		linked, err := lockTransaccion(ctx, tx, ownerID, *entry.VinculadaID)
		if err != nil {
			return err
		}
		if err := applySaldoDelta(ctx, tx, linked.CuentaID, linked.Delta().Neg()); err != nil {
			return err
		}
		ids = append(ids, linked.ID)
	}

	// Break the cross-links before deleting so the pair FK never dangles.
	if _, err := tx.ExecContext(ctx, `UPDATE transacciones SET vinculada_id = NULL WHERE id = ANY($1)`, pq.Array(ids)); err != nil {
		return mapStoreErr(err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM transacciones WHERE id = ANY($1)`, pq.Array(ids)); err != nil {
		return mapStoreErr(err)
	}

	if err := tx.Commit(); err != nil {
		return mapStoreErr(err)
	}

	log.Printf("[LEDGER] Transaccion %s eliminada (%d filas)", id, len(ids))
	return nil
}
