package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

func TestAllocatePayment(t *testing.T) {
	t.Run("payment covers interest with remainder to capital", func(t *testing.T) {
		alloc := AllocatePayment(d(150), d(100), d(200))

		assert.True(t, alloc.Interes.Equal(d(100)), "interes aplicado: %s", alloc.Interes)
		assert.True(t, alloc.Capital.Equal(d(50)), "capital aplicado: %s", alloc.Capital)
	})

	t.Run("payment smaller than interest touches no capital", func(t *testing.T) {
		alloc := AllocatePayment(d(50), d(100), d(200))

		assert.True(t, alloc.Interes.Equal(d(50)))
		assert.True(t, alloc.Capital.IsZero())
	})

	t.Run("exact payoff", func(t *testing.T) {
		alloc := AllocatePayment(d(300), d(100), d(200))

		assert.True(t, alloc.Interes.Equal(d(100)))
		assert.True(t, alloc.Capital.Equal(d(200)))
	})

	t.Run("zero balances", func(t *testing.T) {
		alloc := AllocatePayment(d(50), decimal.Zero, decimal.Zero)

		assert.True(t, alloc.Interes.IsZero())
		assert.True(t, alloc.Capital.IsZero())
	})
}

func TestAccrueInterest(t *testing.T) {
	t.Run("30 days at 36 percent on 1000", func(t *testing.T) {
		got := AccrueInterest(d(1000), 36, 30)

		// r_day = 1.36^(1/365)-1 ~= 0.000843
		gotF, _ := got.Float64()
		assert.InDelta(t, 25.28, gotF, 0.05)
	})

	t.Run("zero days charges nothing", func(t *testing.T) {
		assert.True(t, AccrueInterest(d(1000), 36, 0).IsZero())
	})

	t.Run("zero rate charges nothing", func(t *testing.T) {
		assert.True(t, AccrueInterest(d(1000), 0, 30).IsZero())
	})

	t.Run("no debt accrues nothing", func(t *testing.T) {
		assert.True(t, AccrueInterest(decimal.Zero, 36, 30).IsZero())
	})

	t.Run("result rounded to cents", func(t *testing.T) {
		got := AccrueInterest(d(123.45), 19.9, 17)
		assert.Equal(t, int32(-2), got.Exponent())
	})
}

func TestDailyRate(t *testing.T) {
	assert.InDelta(t, 0.000843, DailyRate(36), 0.00002)
	assert.Zero(t, DailyRate(0))
	assert.Zero(t, DailyRate(-5))
}

func TestEstimatePlan(t *testing.T) {
	t.Run("standard annuity", func(t *testing.T) {
		plan, err := EstimatePlan(d(1200), 12, 24)
		assert.NoError(t, err)

		// r = 1.24^(1/12)-1 ~= 0.018088
		assert.InDelta(t, 0.018088, plan.TasaMensual, 0.0001)

		cuota, _ := plan.CuotaMensual.Float64()
		assert.InDelta(t, 112.14, cuota, 0.05)

		interes, _ := plan.TotalInteres.Float64()
		assert.InDelta(t, 145.72, interes, 0.6)

		assert.True(t, plan.TotalPagado.Equal(plan.CuotaMensual.Mul(decimal.NewFromInt(12))))
	})

	t.Run("zero rate divides evenly", func(t *testing.T) {
		plan, err := EstimatePlan(d(1200), 12, 0)
		assert.NoError(t, err)

		assert.True(t, plan.CuotaMensual.Equal(d(100)), "cuota: %s", plan.CuotaMensual)
		assert.True(t, plan.TotalInteres.IsZero())
	})

	t.Run("invalid term", func(t *testing.T) {
		_, err := EstimatePlan(d(1200), 0, 24)
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("invalid principal", func(t *testing.T) {
		_, err := EstimatePlan(decimal.Zero, 12, 24)
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})
}
