package database

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/lib/pq"
	"github.com/spf13/viper"
)

// DBConfig holds database configuration
type DBConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// GetConfig returns database configuration with defaults
func GetConfig() *DBConfig {
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", "5432")
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "password")
	viper.SetDefault("database.name", "finanzas")
	viper.SetDefault("database.ssl_mode", "disable")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", time.Minute*5)

	return &DBConfig{
		Host:            viper.GetString("database.host"),
		Port:            viper.GetString("database.port"),
		User:            viper.GetString("database.user"),
		Password:        viper.GetString("database.password"),
		Name:            viper.GetString("database.name"),
		SSLMode:         viper.GetString("database.ssl_mode"),
		MaxOpenConns:    viper.GetInt("database.max_open_conns"),
		MaxIdleConns:    viper.GetInt("database.max_idle_conns"),
		ConnMaxLifetime: viper.GetDuration("database.conn_max_lifetime"),
	}
}

// InitDB opens the connection, verifies it and sizes the pool.
func InitDB() (*sql.DB, error) {
	config := GetConfig()

	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.User, config.Password, config.Name, config.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)

	if err := EnsureSchema(db); err != nil {
		return nil, fmt.Errorf("error preparing schema: %w", err)
	}

	log.Println("Database connection established")
	return db, nil
}

// EnsureSchema creates the engine's tables when they do not exist yet. It is
// idempotent and safe to run on every start.
func EnsureSchema(db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS tipos_transaccion (
			id BIGSERIAL PRIMARY KEY,
			codigo VARCHAR(40) NOT NULL UNIQUE
		)`,
		`CREATE TABLE IF NOT EXISTS categorias (
			id UUID PRIMARY KEY,
			user_id VARCHAR(100) NOT NULL,
			nombre VARCHAR(100) NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS cuentas (
			id UUID PRIMARY KEY,
			user_id VARCHAR(100) NOT NULL,
			nombre VARCHAR(100) NOT NULL,
			moneda CHAR(3) NOT NULL,
			saldo NUMERIC(18,2) NOT NULL DEFAULT 0,
			es_tarjeta BOOLEAN NOT NULL DEFAULT FALSE,
			es_prestamo BOOLEAN NOT NULL DEFAULT FALSE,
			saldo_interes NUMERIC(18,2) NOT NULL DEFAULT 0,
			saldo_capital NUMERIC(18,2) NOT NULL DEFAULT 0,
			cupo NUMERIC(18,2) NOT NULL DEFAULT 0,
			tasa_anual DOUBLE PRECISION NOT NULL DEFAULT 0,
			dia_corte INT NOT NULL DEFAULT 0,
			dia_pago INT NOT NULL DEFAULT 0,
			pct_pago_minimo DOUBLE PRECISION NOT NULL DEFAULT 0,
			plazo_meses INT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS transacciones (
			id UUID PRIMARY KEY,
			user_id VARCHAR(100) NOT NULL,
			cuenta_id UUID NOT NULL REFERENCES cuentas(id),
			monto NUMERIC(18,2) NOT NULL,
			moneda CHAR(3) NOT NULL,
			direccion VARCHAR(10) NOT NULL,
			fecha TIMESTAMPTZ NOT NULL,
			descripcion VARCHAR(200) NOT NULL DEFAULT '',
			categoria_id UUID REFERENCES categorias(id),
			tipo_id BIGINT REFERENCES tipos_transaccion(id),
			vinculada_id UUID
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transacciones_user_fecha
			ON transacciones (user_id, fecha DESC)`,
		`CREATE TABLE IF NOT EXISTS compras_diferidas (
			id UUID PRIMARY KEY,
			tarjeta_id UUID NOT NULL REFERENCES cuentas(id),
			descripcion VARCHAR(200) NOT NULL DEFAULT '',
			monto_original NUMERIC(18,2) NOT NULL,
			monto_pendiente NUMERIC(18,2) NOT NULL,
			cuotas_totales INT NOT NULL,
			fecha_compra TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS movimientos_tarjeta (
			id UUID PRIMARY KEY,
			tarjeta_id UUID NOT NULL REFERENCES cuentas(id),
			transaccion_id UUID,
			tipo VARCHAR(20) NOT NULL,
			monto NUMERIC(18,2) NOT NULL,
			saldo_resultante NUMERIC(18,2) NOT NULL,
			interes_aplicado NUMERIC(18,2) NOT NULL DEFAULT 0,
			capital_aplicado NUMERIC(18,2) NOT NULL DEFAULT 0,
			compra_id UUID,
			fecha TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_movimientos_tarjeta_fecha
			ON movimientos_tarjeta (tarjeta_id, fecha DESC)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InitDatabase initializes database with error handling
func InitDatabase() *sql.DB {
	db, err := InitDB()
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	return db
}
