package sqlite

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/rpggio/datapad/internal/repository"
)

// APIKeyRepository stores hashed bearer tokens for the MCP endpoint.
type APIKeyRepository struct {
	db *DB
}

// NewAPIKeyRepository creates a new APIKeyRepository
func NewAPIKeyRepository(db *DB) *APIKeyRepository {
	return &APIKeyRepository{db: db}
}

// Put registers token for client, replacing any previous owner.
func (r *APIKeyRepository) Put(ctx context.Context, token, client string) error {
	if token == "" || client == "" {
		return repository.ErrInvalidInput
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO api_keys (key_hash, client, created_at) VALUES (?, ?, ?)
		ON CONFLICT(key_hash) DO UPDATE SET client = excluded.client
	`, hashToken(token), client, dbTime(time.Now()))
	if err != nil {
		return fmt.Errorf("failed to store api key: %w", err)
	}
	return nil
}

// ResolveClient returns the client owning token.
func (r *APIKeyRepository) ResolveClient(ctx context.Context, token string) (string, error) {
	hash := hashToken(token)
	var client string
	err := r.db.QueryRowContext(ctx, `SELECT client FROM api_keys WHERE key_hash = ?`, hash).Scan(&client)
	if err == sql.ErrNoRows {
		return "", repository.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve api key: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, `UPDATE api_keys SET last_used = ? WHERE key_hash = ?`, dbTime(time.Now()), hash); err != nil {
		return "", fmt.Errorf("failed to touch api key: %w", err)
	}
	return client, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
