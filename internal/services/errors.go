package services

import "errors"

// Engine failure taxonomy. Handlers map these to stable HTTP codes with
// errors.Is; only ErrStoreConflict is safe to retry automatically.
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrInvalidAmount      = errors.New("monto invalido")
	ErrSameAccount        = errors.New("cuenta origen y destino son la misma")
	ErrCurrencyMismatch   = errors.New("las cuentas tienen monedas distintas")
	ErrInsufficientFunds  = errors.New("saldo insuficiente")
	ErrExceedsCreditLimit = errors.New("excede el cupo de la tarjeta")
	ErrExceedsTotalDebt   = errors.New("excede la deuda total")
	ErrExceedsCapital     = errors.New("excede el capital adeudado")
	ErrTransferImmutable  = errors.New("los campos financieros de una transferencia no se pueden editar")
	ErrNothingToCharge    = errors.New("no hay interes que cobrar")
	ErrStoreConflict      = errors.New("conflicto de escritura, reintente")
)
