package services

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/finanzas/backend/internal/models"
)

// Allocation is the interest-first split of a payment.
type Allocation struct {
	Interes decimal.Decimal `json:"interesAplicado"`
	Capital decimal.Decimal `json:"capitalAplicado"`
}

// AllocatePayment splits a payment interest-first: interest is consumed up to
// the payment amount, the remainder goes to capital up to the capital owed.
// Overpayment beyond interes+capital must have been rejected by the caller;
// this function never absorbs it.
func AllocatePayment(pago, interes, capital decimal.Decimal) Allocation {
	aplicadoInteres := decimal.Min(pago, interes)
	resto := pago.Sub(aplicadoInteres)
	aplicadoCapital := decimal.Min(resto, capital)
	return Allocation{
		Interes: models.RoundCents(aplicadoInteres),
		Capital: models.RoundCents(aplicadoCapital),
	}
}

// DailyRate converts an effective annual percentage to a daily rate:
// (1 + tasa/100)^(1/365) - 1.
func DailyRate(tasaAnual float64) float64 {
	if tasaAnual <= 0 {
		return 0
	}
	return math.Pow(1+tasaAnual/100, 1.0/365.0) - 1
}

// AccrueInterest computes simple interest on the running owed balance for a
// number of whole elapsed days. This is not a daily-averaged balance; the
// legacy behavior is kept for compatibility. Returns zero when there is
// nothing to charge.
func AccrueInterest(adeudado decimal.Decimal, tasaAnual float64, dias int) decimal.Decimal {
	if dias <= 0 || tasaAnual <= 0 || !adeudado.IsPositive() {
		return decimal.Zero
	}
	factor := decimal.NewFromFloat(DailyRate(tasaAnual) * float64(dias))
	interes := adeudado.Mul(factor)
	if interes.IsNegative() {
		return decimal.Zero
	}
	return models.RoundCents(interes)
}

// PlanEstimate is an amortization preview for a hypothetical installment
// plan. It is a quote only: deferred purchases created at charge time divide
// the principal in equal flat parts instead, and the two are intentionally
// not reconciled.
type PlanEstimate struct {
	TasaMensual  float64         `json:"tasaMensual"`
	CuotaMensual decimal.Decimal `json:"cuotaMensual"`
	TotalPagado  decimal.Decimal `json:"totalPagado"`
	TotalInteres decimal.Decimal `json:"totalInteres"`
}

// EstimatePlan quotes the standard annuity for a principal over a term at an
// effective annual rate. A zero rate degenerates to equal division with no
// interest.
func EstimatePlan(principal decimal.Decimal, meses int, tasaAnual float64) (PlanEstimate, error) {
	if meses <= 0 || !principal.IsPositive() {
		return PlanEstimate{}, ErrInvalidAmount
	}

	p, _ := principal.Float64()
	tasaMensual := 0.0
	if tasaAnual > 0 {
		tasaMensual = math.Pow(1+tasaAnual/100, 1.0/12.0) - 1
	}

	var cuota float64
	if tasaMensual == 0 {
		cuota = p / float64(meses)
	} else {
		cuota = p * tasaMensual / (1 - math.Pow(1+tasaMensual, -float64(meses)))
	}

	cuotaMensual := models.RoundCents(decimal.NewFromFloat(cuota))
	totalPagado := models.RoundCents(cuotaMensual.Mul(decimal.NewFromInt(int64(meses))))
	totalInteres := totalPagado.Sub(principal)
	if totalInteres.IsNegative() {
		totalInteres = decimal.Zero
	}

	return PlanEstimate{
		TasaMensual:  tasaMensual,
		CuotaMensual: cuotaMensual,
		TotalPagado:  totalPagado,
		TotalInteres: models.RoundCents(totalInteres),
	}, nil
}
