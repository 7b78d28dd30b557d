package services

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finanzas/backend/internal/models"
)

// CreditService runs a card's split balance: interest-bearing vs
// capital-bearing debt, accrual, interest-first payment allocation and
// installment purchase paydown. Each movement is one atomic unit: ledger
// entries, card balances, purchase paydowns and the audit row commit
// together or not at all.
//
// attribCompras is the schema capability flag: when false the store has no
// purchase-attribution columns yet and capital paydowns skip the
// compras_diferidas reconciliation.
type CreditService struct {
	db            *sql.DB
	ledger        *LedgerService
	types         *TypeRegistry
	attribCompras bool
}

func NewCreditService(db *sql.DB, ledger *LedgerService, types *TypeRegistry, attribCompras bool) *CreditService {
	return &CreditService{db: db, ledger: ledger, types: types, attribCompras: attribCompras}
}

// MovimientoSpec is the validated request for one card movement.
type MovimientoSpec struct {
	Tipo           string
	Monto          decimal.Decimal
	AutoInteres    bool
	CuentaOrigenID string
	CompraID       string
	Diferido       bool
	Cuotas         int
	Descripcion    string
	Fecha          time.Time
}

func esPagoTarjeta(tipo string) bool {
	return tipo == models.MovPago || tipo == models.MovCuota || tipo == models.MovAbonoCapital
}

// RecordMovement applies one movement to a card and appends its audit row.
func (s *CreditService) RecordMovement(ctx context.Context, ownerID, tarjetaID string, spec MovimientoSpec) (*models.MovimientoTarjeta, error) {
	if spec.Fecha.IsZero() {
		spec.Fecha = time.Now()
	}
	spec.Monto = models.RoundCents(spec.Monto)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	defer tx.Rollback()

	var tarjeta, origen *models.Cuenta
	if esPagoTarjeta(spec.Tipo) {
		if spec.CuentaOrigenID == tarjetaID {
			return nil, ErrSameAccount
		}
		if spec.CuentaOrigenID == "" {
			return nil, ErrNotFound
		}
		origen, tarjeta, err = lockCuentaPair(ctx, tx, ownerID, spec.CuentaOrigenID, tarjetaID)
	} else {
		tarjeta, err = lockCuenta(ctx, tx, ownerID, tarjetaID)
	}
	if err != nil {
		return nil, err
	}
	if !tarjeta.EsTarjeta {
		return nil, ErrNotFound
	}

	var mov *models.MovimientoTarjeta
	switch spec.Tipo {
	case models.MovCompra, models.MovAvance:
		mov, err = s.cargoTx(ctx, tx, tarjeta, spec)
	case models.MovInteres:
		mov, err = s.interesTx(ctx, tx, tarjeta, spec)
	case models.MovPago, models.MovCuota, models.MovAbonoCapital:
		mov, err = s.pagoTx(ctx, tx, tarjeta, origen, spec)
	case models.MovAjuste:
		mov, err = s.ajusteTx(ctx, tx, tarjeta, spec)
	default:
		err = ErrInvalidAmount
	}
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, mapStoreErr(err)
	}

	log.Printf("[TARJETA] Movimiento %s (%s) registrado en tarjeta %s, saldo %s",
		mov.ID, mov.Tipo, tarjetaID, mov.SaldoResultante)
	return mov, nil
}

// cargoTx handles COMPRA and AVANCE: a new charge against the credit line.
func (s *CreditService) cargoTx(ctx context.Context, tx *sql.Tx, tarjeta *models.Cuenta, spec MovimientoSpec) (*models.MovimientoTarjeta, error) {
	if !models.IsPayableAmount(spec.Monto) {
		return nil, ErrInvalidAmount
	}
	adeudado := tarjeta.TotalAdeudado()
	if tarjeta.Cupo.IsPositive() && adeudado.Add(spec.Monto).GreaterThan(tarjeta.Cupo) {
		return nil, ErrExceedsCreditLimit
	}

	tipoID, err := s.types.GetOrCreate(ctx, models.TipoCompraTC)
	if err != nil {
		return nil, err
	}
	entry, err := s.ledger.entryTx(ctx, tx, tarjeta, spec.Monto, models.DireccionSalida, spec.Descripcion, spec.Fecha, nil, tipoID)
	if err != nil {
		return nil, err
	}

	var compraID *string
	if spec.Diferido && spec.Cuotas > 1 {
		id := uuid.NewString()
		_, err := tx.ExecContext(ctx, `
			INSERT INTO compras_diferidas
			(id, tarjeta_id, descripcion, monto_original, monto_pendiente, cuotas_totales, fecha_compra)
			VALUES ($1, $2, $3, $4, $4, $5, $6)`,
			id, tarjeta.ID, spec.Descripcion, spec.Monto, spec.Cuotas, spec.Fecha)
		if err != nil {
			return nil, mapStoreErr(err)
		}
		compraID = &id
	}

	nuevoCapital := tarjeta.SaldoCapital.Add(spec.Monto)
	return s.cerrarMovimiento(ctx, tx, tarjeta, movimientoDraft{
		Tipo:          spec.Tipo,
		Monto:         spec.Monto,
		TransaccionID: &entry.ID,
		CompraID:      compraID,
		Fecha:         spec.Fecha,
	}, tarjeta.SaldoInteres, nuevoCapital)
}

// interesTx charges interest, either the supplied amount or an accrual since
// the last INTERES movement (or the card's opening). Never capped by cupo.
func (s *CreditService) interesTx(ctx context.Context, tx *sql.Tx, tarjeta *models.Cuenta, spec MovimientoSpec) (*models.MovimientoTarjeta, error) {
	monto := spec.Monto
	if spec.AutoInteres {
		desde := tarjeta.CreatedAt
		var ultima sql.NullTime
		err := tx.QueryRowContext(ctx, `
			SELECT MAX(fecha) FROM movimientos_tarjeta
			WHERE tarjeta_id = $1 AND tipo = $2`, tarjeta.ID, models.MovInteres).Scan(&ultima)
		if err != nil {
			return nil, mapStoreErr(err)
		}
		if ultima.Valid && ultima.Time.After(desde) {
			desde = ultima.Time
		}
		dias := int(spec.Fecha.Sub(desde).Hours() / 24)
		monto = AccrueInterest(tarjeta.TotalAdeudado(), tarjeta.TasaAnual, dias)
		if !monto.IsPositive() {
			return nil, ErrNothingToCharge
		}
	} else if !models.IsPayableAmount(monto) {
		return nil, ErrInvalidAmount
	}

	nuevoInteres := tarjeta.SaldoInteres.Add(monto)
	return s.cerrarMovimiento(ctx, tx, tarjeta, movimientoDraft{
		Tipo:            models.MovInteres,
		Monto:           monto,
		InteresAplicado: monto,
		Fecha:           spec.Fecha,
	}, nuevoInteres, tarjeta.SaldoCapital)
}

// pagoTx handles PAGO, CUOTA and ABONO_CAPITAL: money from a source account
// into the card as a linked transfer, split interest-first (or capital-only
// for ABONO_CAPITAL), with the capital share attributed to open deferred
// purchases.
func (s *CreditService) pagoTx(ctx context.Context, tx *sql.Tx, tarjeta, origen *models.Cuenta, spec MovimientoSpec) (*models.MovimientoTarjeta, error) {
	if !models.IsPayableAmount(spec.Monto) {
		return nil, ErrInvalidAmount
	}
	if origen.Saldo.LessThan(spec.Monto) {
		return nil, ErrInsufficientFunds
	}

	var alloc Allocation
	if spec.Tipo == models.MovAbonoCapital {
		if spec.Monto.GreaterThan(tarjeta.SaldoCapital) {
			return nil, ErrExceedsCapital
		}
		alloc = Allocation{Interes: decimal.Zero, Capital: spec.Monto}
	} else {
		if spec.Monto.GreaterThan(tarjeta.TotalAdeudado()) {
			return nil, ErrExceedsTotalDebt
		}
		alloc = AllocatePayment(spec.Monto, tarjeta.SaldoInteres, tarjeta.SaldoCapital)
	}

	tipoID, err := s.types.GetOrCreate(ctx, models.TipoPagoTC)
	if err != nil {
		return nil, err
	}
	transfer, err := s.ledger.transferTx(ctx, tx, origen, tarjeta, spec.Monto, spec.Descripcion, spec.Fecha, tipoID)
	if err != nil {
		return nil, err
	}

	var compraID *string
	if s.attribCompras {
		compraID, err = s.aplicarCapitalACompras(ctx, tx, tarjeta.ID, alloc.Capital, spec.CompraID)
		if err != nil {
			return nil, err
		}
	}

	nuevoInteres := tarjeta.SaldoInteres.Sub(alloc.Interes)
	nuevoCapital := tarjeta.SaldoCapital.Sub(alloc.Capital)
	return s.cerrarMovimiento(ctx, tx, tarjeta, movimientoDraft{
		Tipo:            spec.Tipo,
		Monto:           spec.Monto,
		TransaccionID:   &transfer.Entrada.ID,
		InteresAplicado: alloc.Interes,
		CapitalAplicado: alloc.Capital,
		CompraID:        compraID,
		Fecha:           spec.Fecha,
	}, nuevoInteres, nuevoCapital)
}

// ajusteTx applies a signed correction to the capital balance, clamped at
// zero. The ledger entry direction follows the sign.
func (s *CreditService) ajusteTx(ctx context.Context, tx *sql.Tx, tarjeta *models.Cuenta, spec MovimientoSpec) (*models.MovimientoTarjeta, error) {
	if spec.Monto.IsZero() {
		return nil, ErrInvalidAmount
	}

	direccion := models.DireccionSalida
	magnitud := spec.Monto
	if spec.Monto.IsNegative() {
		direccion = models.DireccionEntrada
		magnitud = spec.Monto.Neg()
	}

	tipoID, err := s.types.GetOrCreate(ctx, models.TipoNormal)
	if err != nil {
		return nil, err
	}
	entry, err := s.ledger.entryTx(ctx, tx, tarjeta, magnitud, direccion, spec.Descripcion, spec.Fecha, nil, tipoID)
	if err != nil {
		return nil, err
	}

	nuevoCapital := tarjeta.SaldoCapital.Add(spec.Monto)
	if nuevoCapital.IsNegative() {
		nuevoCapital = decimal.Zero
	}
	return s.cerrarMovimiento(ctx, tx, tarjeta, movimientoDraft{
		Tipo:          models.MovAjuste,
		Monto:         spec.Monto,
		TransaccionID: &entry.ID,
		Fecha:         spec.Fecha,
	}, tarjeta.SaldoInteres, nuevoCapital)
}

type compraPendiente struct {
	id        string
	pendiente decimal.Decimal
}

// aplicarCapitalACompras spreads the capital share of a payment across the
// card's open deferred purchases: the explicit target first (clamped to its
// pending amount), then the rest FIFO by purchase date, excluding the target
// so it is never counted twice. Returns the target purchase id when one was
// given and affected.
func (s *CreditService) aplicarCapitalACompras(ctx context.Context, tx *sql.Tx, tarjetaID string, capital decimal.Decimal, targetID string) (*string, error) {
	if !capital.IsPositive() {
		return nil, nil
	}

	restante := capital
	var compraRef *string

	if targetID != "" {
		var pendiente decimal.Decimal
		err := tx.QueryRowContext(ctx, `
			SELECT monto_pendiente FROM compras_diferidas
			WHERE id = $1 AND tarjeta_id = $2
			FOR UPDATE`, targetID, tarjetaID).Scan(&pendiente)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, ErrNotFound
			}
			return nil, mapStoreErr(err)
		}
		aplicado := decimal.Min(restante, pendiente)
		if aplicado.IsPositive() {
			if err := reducirCompra(ctx, tx, targetID, aplicado); err != nil {
				return nil, err
			}
			restante = restante.Sub(aplicado)
		}
		compraRef = &targetID
	}

	if !restante.IsPositive() {
		return compraRef, nil
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT id, monto_pendiente FROM compras_diferidas
		WHERE tarjeta_id = $1 AND monto_pendiente > 0 AND id <> COALESCE($2, '')
		ORDER BY fecha_compra ASC
		FOR UPDATE`, tarjetaID, sql.NullString{String: targetID, Valid: targetID != ""})
	if err != nil {
		return nil, mapStoreErr(err)
	}
	var abiertas []compraPendiente
	for rows.Next() {
		var c compraPendiente
		if err := rows.Scan(&c.id, &c.pendiente); err != nil {
			rows.Close()
			return nil, mapStoreErr(err)
		}
		abiertas = append(abiertas, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, mapStoreErr(err)
	}

	for _, c := range abiertas {
		if !restante.IsPositive() {
			break
		}
		aplicado := decimal.Min(restante, c.pendiente)
		if err := reducirCompra(ctx, tx, c.id, aplicado); err != nil {
			return nil, err
		}
		restante = restante.Sub(aplicado)
		if compraRef == nil {
			id := c.id
			compraRef = &id
		}
	}

	return compraRef, nil
}

func reducirCompra(ctx context.Context, tx *sql.Tx, compraID string, monto decimal.Decimal) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE compras_diferidas
		SET monto_pendiente = GREATEST(monto_pendiente - $1, 0)
		WHERE id = $2`, monto, compraID)
	return mapStoreErr(err)
}

type movimientoDraft struct {
	Tipo            string
	Monto           decimal.Decimal
	TransaccionID   *string
	InteresAplicado decimal.Decimal
	CapitalAplicado decimal.Decimal
	CompraID        *string
	Fecha           time.Time
}

// cerrarMovimiento persists the card's new split balance, mirrors the total
// owed onto the account balance, and appends the audit row with the
// resulting snapshot.
func (s *CreditService) cerrarMovimiento(ctx context.Context, tx *sql.Tx, tarjeta *models.Cuenta, draft movimientoDraft, nuevoInteres, nuevoCapital decimal.Decimal) (*models.MovimientoTarjeta, error) {
	nuevoInteres = models.RoundCents(nuevoInteres)
	nuevoCapital = models.RoundCents(nuevoCapital)
	adeudado := nuevoInteres.Add(nuevoCapital)
	if adeudado.IsNegative() {
		adeudado = decimal.Zero
	}

	_, err := tx.ExecContext(ctx, `
		UPDATE cuentas
		SET saldo_interes = $1, saldo_capital = $2, saldo = $3, updated_at = NOW()
		WHERE id = $4`,
		nuevoInteres, nuevoCapital, adeudado, tarjeta.ID)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	mov := &models.MovimientoTarjeta{
		ID:              uuid.NewString(),
		TarjetaID:       tarjeta.ID,
		TransaccionID:   draft.TransaccionID,
		Tipo:            draft.Tipo,
		Monto:           draft.Monto,
		SaldoResultante: adeudado,
		InteresAplicado: draft.InteresAplicado,
		CapitalAplicado: draft.CapitalAplicado,
		CompraID:        draft.CompraID,
		Fecha:           draft.Fecha,
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO movimientos_tarjeta
		(id, tarjeta_id, transaccion_id, tipo, monto, saldo_resultante, interes_aplicado, capital_aplicado, compra_id, fecha)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		mov.ID, mov.TarjetaID, mov.TransaccionID, mov.Tipo, mov.Monto,
		mov.SaldoResultante, mov.InteresAplicado, mov.CapitalAplicado, mov.CompraID, mov.Fecha)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	tarjeta.SaldoInteres = nuevoInteres
	tarjeta.SaldoCapital = nuevoCapital
	tarjeta.Saldo = adeudado
	return mov, nil
}
