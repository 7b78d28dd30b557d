package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction of a ledger entry relative to its account.
const (
	DireccionEntrada = "ENTRADA"
	DireccionSalida  = "SALIDA"
)

// Transaction type codes resolved through the type registry.
const (
	TipoNormal        = "NORMAL"
	TipoTransferencia = "TRANSFERENCIA"
	TipoCompraTC      = "COMPRA_TC"
	TipoPagoTC        = "PAGO_TC"
	TipoDesembolso    = "DESEMBOLSO"
	TipoAbonoPrestamo = "ABONO_PRESTAMO"
)

// Transaccion is one ledger entry: a signed money movement on one account.
// VinculadaID points at the other leg when the entry belongs to a transfer;
// both legs are always written, edited and deleted together.
type Transaccion struct {
	ID          string          `json:"id" db:"id"`
	UserID      string          `json:"userId" db:"user_id"`
	CuentaID    string          `json:"cuentaId" db:"cuenta_id"`
	Monto       decimal.Decimal `json:"monto" db:"monto"`
	Moneda      string          `json:"moneda" db:"moneda"`
	Direccion   string          `json:"direccion" db:"direccion"`
	Fecha       time.Time       `json:"fecha" db:"fecha"`
	Descripcion string          `json:"descripcion" db:"descripcion"`
	CategoriaID *string         `json:"categoriaId,omitempty" db:"categoria_id"`
	TipoID      *int64          `json:"tipoId,omitempty" db:"tipo_id"`
	VinculadaID *string         `json:"vinculadaId,omitempty" db:"vinculada_id"`
}

// Delta is the signed balance contribution of this entry.
func (t *Transaccion) Delta() decimal.Decimal {
	return SignedAmount(t.Monto, t.Direccion)
}

// Transfer owns both legs of a double-entry movement. Engines hand these out
// whole so one leg can never exist without the other; per-account listings
// still see the individual rows.
type Transfer struct {
	Salida  Transaccion `json:"salida"`
	Entrada Transaccion `json:"entrada"`
}

// EntryPatch is a partial update for a ledger entry. On a transfer leg only
// the non-financial fields may be set; amount, direction and account changes
// are rejected there.
type EntryPatch struct {
	Monto       *decimal.Decimal
	Direccion   *string
	CuentaID    *string
	Descripcion *string
	Fecha       *time.Time
	CategoriaID *string
}

// Financial reports whether the patch touches fields that change the balance
// reconciliation.
func (p *EntryPatch) Financial() bool {
	return p.Monto != nil || p.Direccion != nil || p.CuentaID != nil
}

// NuevaTransaccionRequest creates a plain income/expense entry.
type NuevaTransaccionRequest struct {
	CuentaID    string  `json:"cuentaId" validate:"required,uuid4"`
	Monto       float64 `json:"monto" validate:"required,gt=0"`
	Direccion   string  `json:"direccion" validate:"required,oneof=ENTRADA SALIDA"`
	Descripcion string  `json:"descripcion" validate:"max=200"`
	CategoriaID string  `json:"categoriaId" validate:"omitempty,uuid4"`
	Fecha       string  `json:"fecha" validate:"omitempty,datetime=2006-01-02"`
}

// NuevaTransferenciaRequest creates both legs of a transfer.
type NuevaTransferenciaRequest struct {
	CuentaOrigenID  string  `json:"cuentaOrigenId" validate:"required,uuid4"`
	CuentaDestinoID string  `json:"cuentaDestinoId" validate:"required,uuid4"`
	Monto           float64 `json:"monto" validate:"required,gt=0"`
	Descripcion     string  `json:"descripcion" validate:"max=200"`
	Fecha           string  `json:"fecha" validate:"omitempty,datetime=2006-01-02"`
}

// ActualizarTransaccionRequest patches an existing entry.
type ActualizarTransaccionRequest struct {
	Monto       *float64 `json:"monto" validate:"omitempty,gt=0"`
	Direccion   *string  `json:"direccion" validate:"omitempty,oneof=ENTRADA SALIDA"`
	CuentaID    *string  `json:"cuentaId" validate:"omitempty,uuid4"`
	Descripcion *string  `json:"descripcion" validate:"omitempty,max=200"`
	Fecha       *string  `json:"fecha" validate:"omitempty,datetime=2006-01-02"`
	CategoriaID *string  `json:"categoriaId" validate:"omitempty,uuid4"`
}
