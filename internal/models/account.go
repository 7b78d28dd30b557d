package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cuenta is a user-owned account. Credit cards and loans are accounts with
// the respective flag set and their extra columns populated; plain accounts
// leave them at zero. The balance is only ever mutated by the ledger and
// credit engines.
type Cuenta struct {
	ID        string          `json:"id" db:"id"`
	UserID    string          `json:"userId" db:"user_id"`
	Nombre    string          `json:"nombre" db:"nombre"`
	Moneda    string          `json:"moneda" db:"moneda"`
	Saldo     decimal.Decimal `json:"saldo" db:"saldo"`
	EsTarjeta bool            `json:"esTarjeta" db:"es_tarjeta"`

	// Credit card fields. Saldo mirrors SaldoInteres+SaldoCapital (floor 0).
	Cupo          decimal.Decimal `json:"cupo,omitempty" db:"cupo"`
	TasaAnual     float64         `json:"tasaAnual,omitempty" db:"tasa_anual"`
	DiaCorte      int             `json:"diaCorte,omitempty" db:"dia_corte"`
	DiaPago       int             `json:"diaPago,omitempty" db:"dia_pago"`
	PctPagoMinimo float64         `json:"pctPagoMinimo,omitempty" db:"pct_pago_minimo"`
	SaldoInteres  decimal.Decimal `json:"saldoInteres" db:"saldo_interes"`
	SaldoCapital  decimal.Decimal `json:"saldoCapital" db:"saldo_capital"`

	// Loan fields.
	EsPrestamo bool `json:"esPrestamo" db:"es_prestamo"`
	PlazoMeses int  `json:"plazoMeses,omitempty" db:"plazo_meses"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// TotalAdeudado returns the card's total owed, clamped at zero.
func (c *Cuenta) TotalAdeudado() decimal.Decimal {
	total := c.SaldoInteres.Add(c.SaldoCapital)
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}

// NuevaCuentaRequest creates an account (plain, card, or loan-tagged).
type NuevaCuentaRequest struct {
	Nombre        string  `json:"nombre" validate:"required,max=100"`
	Moneda        string  `json:"moneda" validate:"required,len=3"`
	EsTarjeta     bool    `json:"esTarjeta"`
	Cupo          float64 `json:"cupo" validate:"omitempty,gt=0"`
	TasaAnual     float64 `json:"tasaAnual" validate:"omitempty,gte=0,lte=200"`
	DiaCorte      int     `json:"diaCorte" validate:"omitempty,min=1,max=28"`
	DiaPago       int     `json:"diaPago" validate:"omitempty,min=1,max=28"`
	PctPagoMinimo float64 `json:"pctPagoMinimo" validate:"omitempty,gt=0,lte=100"`
}
