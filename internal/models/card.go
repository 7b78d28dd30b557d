package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Card movement kinds. INTERES bypasses the credit limit; the three payment
// kinds debit a source account; AJUSTE takes a signed amount.
const (
	MovCompra       = "COMPRA"
	MovAvance       = "AVANCE"
	MovInteres      = "INTERES"
	MovPago         = "PAGO"
	MovCuota        = "CUOTA"
	MovAbonoCapital = "ABONO_CAPITAL"
	MovAjuste       = "AJUSTE"
)

// MovimientoTarjeta is the append-only audit row written once per credit
// engine operation. Never mutated afterwards.
type MovimientoTarjeta struct {
	ID              string          `json:"id" db:"id"`
	TarjetaID       string          `json:"tarjetaId" db:"tarjeta_id"`
	TransaccionID   *string         `json:"transaccionId,omitempty" db:"transaccion_id"`
	Tipo            string          `json:"tipo" db:"tipo"`
	Monto           decimal.Decimal `json:"monto" db:"monto"`
	SaldoResultante decimal.Decimal `json:"saldoResultante" db:"saldo_resultante"`
	InteresAplicado decimal.Decimal `json:"interesAplicado" db:"interes_aplicado"`
	CapitalAplicado decimal.Decimal `json:"capitalAplicado" db:"capital_aplicado"`
	CompraID        *string         `json:"compraId,omitempty" db:"compra_id"`
	Fecha           time.Time       `json:"fecha" db:"fecha"`
}

// CompraDiferida is a deferred purchase tracked so capital payments can be
// attributed to it. MontoPendiente only ever decreases, floored at zero.
type CompraDiferida struct {
	ID             string          `json:"id" db:"id"`
	TarjetaID      string          `json:"tarjetaId" db:"tarjeta_id"`
	Descripcion    string          `json:"descripcion" db:"descripcion"`
	MontoOriginal  decimal.Decimal `json:"montoOriginal" db:"monto_original"`
	MontoPendiente decimal.Decimal `json:"montoPendiente" db:"monto_pendiente"`
	CuotasTotales  int             `json:"cuotasTotales" db:"cuotas_totales"`
	FechaCompra    time.Time       `json:"fechaCompra" db:"fecha_compra"`
}

// CuotaEstimada is the flat per-installment division shown at purchase time.
// It is deliberately simple equal division, unlike the annuity simulator.
func (c *CompraDiferida) CuotaEstimada() decimal.Decimal {
	if c.CuotasTotales <= 0 {
		return c.MontoOriginal
	}
	return RoundCents(c.MontoOriginal.Div(decimal.NewFromInt(int64(c.CuotasTotales))))
}

// NuevoMovimientoRequest records a card movement.
type NuevoMovimientoRequest struct {
	Tipo           string  `json:"tipo" validate:"required,oneof=COMPRA AVANCE INTERES PAGO CUOTA ABONO_CAPITAL AJUSTE"`
	Monto          float64 `json:"monto"`
	AutoInteres    bool    `json:"autoInteres"`
	CuentaOrigenID string  `json:"cuentaOrigenId" validate:"omitempty,uuid4"`
	CompraID       string  `json:"compraId" validate:"omitempty,uuid4"`
	Diferido       bool    `json:"diferido"`
	Cuotas         int     `json:"cuotas" validate:"omitempty,min=1,max=60"`
	Descripcion    string  `json:"descripcion" validate:"max=200"`
}

// SimularPlanRequest quotes an amortized installment plan.
type SimularPlanRequest struct {
	Monto     float64 `json:"monto" validate:"required,gt=0"`
	Meses     int     `json:"meses" validate:"required,min=1,max=120"`
	TasaAnual float64 `json:"tasaAnual" validate:"gte=0,lte=200"`
}
