// Package auth authenticates gRPC callers by HMAC API key.
//
// Keys look like sk-v1-<secret_id>-<random>. The server holds the secrets
// (SK_HMAC_SECRET*); the database holds only HMAC(secret, key).
package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/solatis/stemkeeper/internal/types"
)

// MetadataKey carries the API key in gRPC metadata.
const MetadataKey = "x-api-key"

type contextKey string

const keyIDKey = contextKey("api_key_id")

// Queries is the subset of db.Queries used here.
type Queries interface {
	Get(ctx context.Context, name string, dest any, args ...any) error
	Select(ctx context.Context, name string, dest any, args ...any) error
	Exec(ctx context.Context, name string, args ...any) (sql.Result, error)
}

// Key is one row of the api_keys table.
type Key struct {
	ID         types.APIKeyID `db:"key_id"`
	Name       string         `db:"name"`
	SecretID   string         `db:"secret_id"`
	CreatedAt  time.Time      `db:"created_at"`
	LastUsedAt sql.NullTime   `db:"last_used_at"`
	RevokedAt  sql.NullTime   `db:"revoked_at"`
}

// Authenticator validates API keys against stored hashes.
type Authenticator struct {
	secrets map[string][]byte
	queries Queries
	now     func() time.Time
}

// NewAuthenticator creates an Authenticator over secret_id -> secret.
func NewAuthenticator(secrets map[string][]byte, queries Queries) *Authenticator {
	return &Authenticator{
		secrets: secrets,
		queries: queries,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Authenticate returns the key id for a valid, unrevoked key.
func (a *Authenticator) Authenticate(ctx context.Context, apiKey string) (types.APIKeyID, error) {
	secretID, _, err := ParseAPIKey(apiKey)
	if err != nil {
		return "", err
	}
	secret, ok := a.secrets[secretID]
	if !ok {
		return "", ErrUnknownKey
	}

	var row struct {
		ID         types.APIKeyID `db:"key_id"`
		Name       string         `db:"name"`
		RevokedAt  sql.NullTime   `db:"revoked_at"`
		LastUsedAt sql.NullTime   `db:"last_used_at"`
	}
	err = a.queries.Get(ctx, "get-api-key-by-hash", &row, KeyHash(secret, apiKey))
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrInvalidKey
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	if row.RevokedAt.Valid {
		return "", ErrKeyRevoked
	}

	// Throttled; a failed touch does not fail the request.
	if shouldUpdateLastUsed(row.LastUsedAt, a.now()) {
		_, _ = a.queries.Exec(ctx, "update-last-used", a.now(), row.ID)
	}
	return row.ID, nil
}

func shouldUpdateLastUsed(lastUsed sql.NullTime, now time.Time) bool {
	if !lastUsed.Valid {
		return true
	}
	return now.Sub(lastUsed.Time) > time.Minute
}

// UnaryInterceptor rejects calls without a valid x-api-key. The key id is
// placed in the context for handlers.
func (a *Authenticator) UnaryInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "missing metadata")
		}
		keys := md.Get(MetadataKey)
		if len(keys) == 0 {
			return nil, status.Error(codes.Unauthenticated, ErrMissingKey.Error())
		}

		keyID, err := a.Authenticate(ctx, keys[0])
		if err != nil {
			return nil, status.Error(codeFor(err), err.Error())
		}
		return handler(context.WithValue(ctx, keyIDKey, keyID), req)
	}
}

func codeFor(err error) codes.Code {
	switch {
	case errors.Is(err, ErrKeyRevoked):
		return codes.PermissionDenied
	case errors.Is(err, ErrDatabase):
		return codes.Unavailable
	default:
		return codes.Unauthenticated
	}
}

// KeyIDFromContext returns the authenticated key id, or "" when the call
// was not authenticated.
func KeyIDFromContext(ctx context.Context) types.APIKeyID {
	if id, ok := ctx.Value(keyIDKey).(types.APIKeyID); ok {
		return id
	}
	return ""
}

// CreateKey issues a key for name under the given secret and stores its
// hash. The plaintext key is returned once and never stored.
func CreateKey(ctx context.Context, q Queries, name, secretID string, secret []byte) (types.APIKeyID, string, error) {
	key, err := GenerateAPIKey(secretID)
	if err != nil {
		return "", "", err
	}
	id := types.NewAPIKeyID()
	_, err = q.Exec(ctx, "insert-api-key", id, name, secretID, KeyHash(secret, key), time.Now().UTC())
	if err != nil {
		return "", "", fmt.Errorf("failed to store API key: %w", err)
	}
	return id, key, nil
}

// RevokeKey marks a key revoked. Revoking twice returns ErrKeyNotFound.
func RevokeKey(ctx context.Context, q Queries, id types.APIKeyID) error {
	res, err := q.Exec(ctx, "revoke-api-key", time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to revoke API key: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrKeyNotFound
	}
	return nil
}

// ListKeys returns all issued keys, oldest first.
func ListKeys(ctx context.Context, q Queries) ([]Key, error) {
	var keys []Key
	if err := q.Select(ctx, "list-api-keys", &keys); err != nil {
		return nil, err
	}
	return keys, nil
}
