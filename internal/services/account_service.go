package services

import (
	"context"
	"database/sql"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finanzas/backend/internal/models"
)

// AccountService creates and lists accounts. Balances always start at zero
// and are only ever moved by the ledger and credit engines.
type AccountService struct {
	db *sql.DB
}

func NewAccountService(db *sql.DB) *AccountService {
	return &AccountService{db: db}
}

func (s *AccountService) Create(ctx context.Context, ownerID string, req models.NuevaCuentaRequest) (*models.Cuenta, error) {
	cuenta := models.Cuenta{
		ID:            uuid.NewString(),
		UserID:        ownerID,
		Nombre:        req.Nombre,
		Moneda:        req.Moneda,
		Saldo:         decimal.Zero,
		EsTarjeta:     req.EsTarjeta,
		Cupo:          models.RoundCents(decimal.NewFromFloat(req.Cupo)),
		TasaAnual:     req.TasaAnual,
		DiaCorte:      req.DiaCorte,
		DiaPago:       req.DiaPago,
		PctPagoMinimo: req.PctPagoMinimo,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cuentas
		(id, user_id, nombre, moneda, saldo, es_tarjeta, cupo, tasa_anual,
		 dia_corte, dia_pago, pct_pago_minimo, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 0, $5, $6, $7, $8, $9, $10, NOW(), NOW())`,
		cuenta.ID, ownerID, req.Nombre, req.Moneda, req.EsTarjeta, cuenta.Cupo,
		req.TasaAnual, req.DiaCorte, req.DiaPago, req.PctPagoMinimo)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	log.Printf("[CUENTAS] Cuenta %s (%s) creada para usuario %s", cuenta.ID, req.Nombre, ownerID)
	return &cuenta, nil
}

func (s *AccountService) List(ctx context.Context, ownerID string) ([]models.Cuenta, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, nombre, moneda, saldo, es_tarjeta, es_prestamo,
		       saldo_interes, saldo_capital, cupo, tasa_anual, created_at
		FROM cuentas
		WHERE user_id = $1
		ORDER BY created_at ASC`, ownerID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	defer rows.Close()

	cuentas := []models.Cuenta{}
	for rows.Next() {
		var c models.Cuenta
		if err := rows.Scan(&c.ID, &c.UserID, &c.Nombre, &c.Moneda, &c.Saldo, &c.EsTarjeta,
			&c.EsPrestamo, &c.SaldoInteres, &c.SaldoCapital, &c.Cupo, &c.TasaAnual, &c.CreatedAt); err != nil {
			return nil, mapStoreErr(err)
		}
		cuentas = append(cuentas, c)
	}
	return cuentas, rows.Err()
}
