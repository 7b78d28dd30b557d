package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRoundCents(t *testing.T) {
	// Half away from zero on the midpoint.
	assert.Equal(t, "2.35", RoundCents(decimal.NewFromFloat(2.345)).String())
	assert.Equal(t, "-2.35", RoundCents(decimal.NewFromFloat(-2.345)).String())
	assert.Equal(t, "10.00", RoundCents(decimal.NewFromInt(10)).String())
}

func TestSignedAmount(t *testing.T) {
	monto := decimal.NewFromFloat(75.50)

	assert.True(t, SignedAmount(monto, DireccionEntrada).Equal(monto))
	assert.True(t, SignedAmount(monto, DireccionSalida).Equal(monto.Neg()))
}

func TestIsPayableAmount(t *testing.T) {
	assert.True(t, IsPayableAmount(decimal.NewFromFloat(0.01)))
	assert.False(t, IsPayableAmount(decimal.Zero))
	assert.False(t, IsPayableAmount(decimal.NewFromFloat(-1)))
}

func TestTransaccionDelta(t *testing.T) {
	salida := Transaccion{Monto: decimal.NewFromFloat(30), Direccion: DireccionSalida}
	entrada := Transaccion{Monto: decimal.NewFromFloat(30), Direccion: DireccionEntrada}

	assert.True(t, salida.Delta().Equal(decimal.NewFromFloat(-30)))
	assert.True(t, entrada.Delta().Equal(decimal.NewFromFloat(30)))
}

func TestTotalAdeudado(t *testing.T) {
	tarjeta := Cuenta{
		SaldoInteres: decimal.NewFromFloat(100),
		SaldoCapital: decimal.NewFromFloat(200),
	}
	assert.True(t, tarjeta.TotalAdeudado().Equal(decimal.NewFromFloat(300)))

	// An over-adjusted card never shows negative debt.
	tarjeta.SaldoCapital = decimal.NewFromFloat(-150)
	assert.True(t, tarjeta.TotalAdeudado().IsZero())
}

func TestCuotaEstimada(t *testing.T) {
	compra := CompraDiferida{
		MontoOriginal: decimal.NewFromFloat(1000),
		CuotasTotales: 3,
	}
	assert.Equal(t, "333.33", compra.CuotaEstimada().String())

	compra.CuotasTotales = 0
	assert.True(t, compra.CuotaEstimada().Equal(decimal.NewFromFloat(1000)))
}
