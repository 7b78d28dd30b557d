package models

// NuevoPrestamoRequest opens a loan account and disburses the principal from
// the chosen source account.
type NuevoPrestamoRequest struct {
	Nombre         string  `json:"nombre" validate:"required,max=100"`
	Monto          float64 `json:"monto" validate:"required,gt=0"`
	Moneda         string  `json:"moneda" validate:"required,len=3"`
	TasaAnual      float64 `json:"tasaAnual" validate:"gte=0,lte=200"`
	PlazoMeses     int     `json:"plazoMeses" validate:"required,min=1,max=480"`
	CuentaOrigenID string  `json:"cuentaOrigenId" validate:"required,uuid4"`
}

// NuevoAbonoRequest records a repayment received on a loan account. The loan
// balance is not floored at zero: over-collection leaves it negative.
type NuevoAbonoRequest struct {
	CuentaDestinoID string  `json:"cuentaDestinoId" validate:"required,uuid4"`
	Monto           float64 `json:"monto" validate:"required,gt=0"`
	Descripcion     string  `json:"descripcion" validate:"max=200"`
}

// Prestamo pairs the loan account with its disbursement transfer.
type Prestamo struct {
	Cuenta     Cuenta   `json:"cuenta"`
	Desembolso Transfer `json:"desembolso"`
}
