package models

import (
	"github.com/shopspring/decimal"
)

// RoundCents rounds a monetary amount to 2 decimals, half away from zero.
// Every amount persisted by the engines goes through this first; intermediate
// arithmetic keeps full precision.
func RoundCents(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// SignedAmount returns the balance delta a transaction contributes to its
// account: positive for ENTRADA, negative for SALIDA.
func SignedAmount(monto decimal.Decimal, direccion string) decimal.Decimal {
	if direccion == DireccionSalida {
		return monto.Neg()
	}
	return monto
}

// IsPayableAmount reports whether an amount is valid as "money to move":
// strictly positive. Adjustment entries are the only place signed amounts
// are accepted.
func IsPayableAmount(d decimal.Decimal) bool {
	return d.IsPositive()
}
