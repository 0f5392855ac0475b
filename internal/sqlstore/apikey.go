package sqlstore

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/rpggio/careplan/internal/repository"
)

// APIKeyRepository resolves bearer tokens to tenants. Only hashes of the
// keys are stored.
type APIKeyRepository struct {
	db *DB
}

// NewAPIKeyRepository creates a new APIKeyRepository
func NewAPIKeyRepository(db *DB) *APIKeyRepository {
	return &APIKeyRepository{db: db}
}

// HashKey returns the stored form of an API key.
func HashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// AddAPIKey registers a key for a tenant.
func (r *APIKeyRepository) AddAPIKey(ctx context.Context, tenantID, key, description string) error {
	if tenantID == "" || key == "" {
		return repository.ErrInvalidInput
	}
	ins := r.db.q.Insert("api_keys").Rows(goqu.Record{
		"key_hash":    HashKey(key),
		"tenant_id":   tenantID,
		"description": description,
		"created_at":  time.Now(),
	}).Prepared(true)
	if _, err := r.db.exec(ctx, ins); err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return fmt.Errorf("failed to add api key: %w", err)
	}
	return nil
}

// ResolveTenant returns the tenant owning a key and records its use.
func (r *APIKeyRepository) ResolveTenant(ctx context.Context, key string) (string, error) {
	hash := HashKey(key)
	row, err := r.db.queryRow(ctx, r.db.q.From("api_keys").Select("tenant_id").
		Where(goqu.Ex{"key_hash": hash}))
	if err != nil {
		return "", err
	}
	var tenantID string
	if err := row.Scan(&tenantID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", repository.ErrNotFound
		}
		return "", fmt.Errorf("failed to resolve api key: %w", err)
	}

	_, _ = r.db.exec(ctx, r.db.q.Update("api_keys").
		Set(goqu.Record{"last_used": time.Now()}).
		Where(goqu.Ex{"key_hash": hash}).Prepared(true))
	return tenantID, nil
}
