package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/finanzas/backend/internal/models"
)

const (
	defaultQueryLimit = 50
	maxQueryLimit     = 500
)

// QueryService serves the read-only projections. It never mutates a balance.
type QueryService struct {
	db *sql.DB
}

func NewQueryService(db *sql.DB) *QueryService {
	return &QueryService{db: db}
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultQueryLimit
	}
	if limit > maxQueryLimit {
		return maxQueryLimit
	}
	return limit
}

// Transacciones lists an owner's entries, optionally filtered by account and
// by calendar month (inclusive day boundaries), newest first.
func (s *QueryService) Transacciones(ctx context.Context, ownerID, cuentaID string, anio, mes, limit int) ([]models.Transaccion, error) {
	conditions := []string{"user_id = $1"}
	args := []any{ownerID}
	n := 2

	if cuentaID != "" {
		conditions = append(conditions, fmt.Sprintf("cuenta_id = $%d", n))
		args = append(args, cuentaID)
		n++
	}
	if anio > 0 && mes >= 1 && mes <= 12 {
		desde := time.Date(anio, time.Month(mes), 1, 0, 0, 0, 0, time.Local)
		conditions = append(conditions, fmt.Sprintf("fecha >= $%d AND fecha < $%d", n, n+1))
		args = append(args, desde, desde.AddDate(0, 1, 0))
		n += 2
	}

	query := fmt.Sprintf(`
		SELECT id, user_id, cuenta_id, monto, moneda, direccion, fecha,
		       descripcion, categoria_id, tipo_id, vinculada_id
		FROM transacciones
		WHERE %s
		ORDER BY fecha DESC
		LIMIT $%d`, strings.Join(conditions, " AND "), n)
	args = append(args, clampLimit(limit))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	defer rows.Close()

	transacciones := []models.Transaccion{}
	for rows.Next() {
		var t models.Transaccion
		if err := rows.Scan(&t.ID, &t.UserID, &t.CuentaID, &t.Monto, &t.Moneda,
			&t.Direccion, &t.Fecha, &t.Descripcion, &t.CategoriaID, &t.TipoID, &t.VinculadaID); err != nil {
			return nil, mapStoreErr(err)
		}
		transacciones = append(transacciones, t)
	}
	return transacciones, rows.Err()
}

// MovimientosTarjeta lists a card's audit rows, newest first. The card must
// belong to the owner.
func (s *QueryService) MovimientosTarjeta(ctx context.Context, ownerID, tarjetaID string, limit int) ([]models.MovimientoTarjeta, error) {
	if err := s.checkTarjeta(ctx, ownerID, tarjetaID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tarjeta_id, transaccion_id, tipo, monto, saldo_resultante,
		       interes_aplicado, capital_aplicado, compra_id, fecha
		FROM movimientos_tarjeta
		WHERE tarjeta_id = $1
		ORDER BY fecha DESC
		LIMIT $2`, tarjetaID, clampLimit(limit))
	if err != nil {
		return nil, mapStoreErr(err)
	}
	defer rows.Close()

	movimientos := []models.MovimientoTarjeta{}
	for rows.Next() {
		var m models.MovimientoTarjeta
		if err := rows.Scan(&m.ID, &m.TarjetaID, &m.TransaccionID, &m.Tipo, &m.Monto,
			&m.SaldoResultante, &m.InteresAplicado, &m.CapitalAplicado, &m.CompraID, &m.Fecha); err != nil {
			return nil, mapStoreErr(err)
		}
		movimientos = append(movimientos, m)
	}
	return movimientos, rows.Err()
}

// ComprasDiferidas lists a card's deferred purchases, oldest first (the
// paydown order). With soloPendientes only purchases with a remaining
// balance are returned.
func (s *QueryService) ComprasDiferidas(ctx context.Context, ownerID, tarjetaID string, soloPendientes bool) ([]models.CompraDiferida, error) {
	if err := s.checkTarjeta(ctx, ownerID, tarjetaID); err != nil {
		return nil, err
	}

	query := `
		SELECT id, tarjeta_id, descripcion, monto_original, monto_pendiente, cuotas_totales, fecha_compra
		FROM compras_diferidas
		WHERE tarjeta_id = $1`
	if soloPendientes {
		query += " AND monto_pendiente > 0"
	}
	query += " ORDER BY fecha_compra ASC"

	rows, err := s.db.QueryContext(ctx, query, tarjetaID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	defer rows.Close()

	compras := []models.CompraDiferida{}
	for rows.Next() {
		var c models.CompraDiferida
		if err := rows.Scan(&c.ID, &c.TarjetaID, &c.Descripcion, &c.MontoOriginal,
			&c.MontoPendiente, &c.CuotasTotales, &c.FechaCompra); err != nil {
			return nil, mapStoreErr(err)
		}
		compras = append(compras, c)
	}
	return compras, rows.Err()
}

func (s *QueryService) checkTarjeta(ctx context.Context, ownerID, tarjetaID string) error {
	var esTarjeta bool
	err := s.db.QueryRowContext(ctx, `
		SELECT es_tarjeta FROM cuentas WHERE id = $1 AND user_id = $2`,
		tarjetaID, ownerID).Scan(&esTarjeta)
	if err == sql.ErrNoRows || (err == nil && !esTarjeta) {
		return ErrNotFound
	}
	return mapStoreErr(err)
}
