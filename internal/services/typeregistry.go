package services

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

const tipoCachePrefix = "tipo_transaccion:"

// TypeRegistry resolves transaction type codes (NORMAL, TRANSFERENCIA, ...)
// to their row ids, creating them on first use. It is constructed in main and
// injected into the engines; there is no process-wide map. Redis is optional:
// with a nil client the registry falls back to the local cache plus the
// database.
type TypeRegistry struct {
	db    *sql.DB
	redis *redis.Client

	mu  sync.RWMutex
	ids map[string]int64
}

func NewTypeRegistry(db *sql.DB, redisClient *redis.Client) *TypeRegistry {
	return &TypeRegistry{
		db:    db,
		redis: redisClient,
		ids:   make(map[string]int64),
	}
}

// GetOrCreate returns the id for a type code, inserting the row if it does
// not exist yet. Idempotent: repeated calls for the same code return the same
// id and create no duplicates.
func (r *TypeRegistry) GetOrCreate(ctx context.Context, codigo string) (int64, error) {
	r.mu.RLock()
	id, ok := r.ids[codigo]
	r.mu.RUnlock()
	if ok {
		return id, nil
	}

	if r.redis != nil {
		if val, err := r.redis.Get(ctx, tipoCachePrefix+codigo).Result(); err == nil {
			if id, err := strconv.ParseInt(val, 10, 64); err == nil {
				r.store(codigo, id)
				return id, nil
			}
		}
	}

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO tipos_transaccion (codigo)
		VALUES ($1)
		ON CONFLICT (codigo) DO UPDATE SET codigo = EXCLUDED.codigo
		RETURNING id`, codigo).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("resolviendo tipo %s: %w", codigo, err)
	}

	r.store(codigo, id)

	if r.redis != nil {
		if err := r.redis.Set(ctx, tipoCachePrefix+codigo, strconv.FormatInt(id, 10), 24*time.Hour).Err(); err != nil {
			log.Printf("[TIPOS] No se pudo cachear %s en redis: %v", codigo, err)
		}
	}

	return id, nil
}

func (r *TypeRegistry) store(codigo string, id int64) {
	r.mu.Lock()
	r.ids[codigo] = id
	r.mu.Unlock()
}
