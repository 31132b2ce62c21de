package auth

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/solatis/stemkeeper/internal/core/db"
	"github.com/solatis/stemkeeper/internal/types"
)

const testSecretID = "0123456789abcdef0123456789abcdef"

var testSecret = []byte("0123456789abcdef0123456789abcdef-test-secret")

func openQueries(t *testing.T) *db.Queries {
	t.Helper()
	ctx := context.Background()
	conn, err := db.Open(ctx, "sqlite://"+filepath.Join(t.TempDir(), "keys.db"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, db.MigrateUp(ctx, conn))
	q, err := db.LoadQueries(conn)
	require.NoError(t, err)
	return q
}

func TestParseAPIKey(t *testing.T) {
	random := strings.Repeat("ab", 32)
	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{"valid", FormatAPIKey(testSecretID, random), false},
		{"foreign prefix", "tk-v1-" + testSecretID + "-" + random, true},
		{"wrong version", "sk-v2-" + testSecretID + "-" + random, true},
		{"short secret id", "sk-v1-0123-" + random, true},
		{"short random", "sk-v1-" + testSecretID + "-abcd", true},
		{"uppercase hex", "sk-v1-" + strings.ToUpper(testSecretID) + "-" + random, true},
		{"extra part", FormatAPIKey(testSecretID, random) + "-x", true},
		{"empty", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			secretID, data, err := ParseAPIKey(tt.key)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidKeyFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, testSecretID, secretID)
			assert.Equal(t, random, data)
		})
	}
}

func TestGenerateAPIKey(t *testing.T) {
	k1, err := GenerateAPIKey(testSecretID)
	require.NoError(t, err)
	k2, err := GenerateAPIKey(testSecretID)
	require.NoError(t, err)
	assert.NotEqual(t, k1, k2)

	secretID, _, err := ParseAPIKey(k1)
	require.NoError(t, err)
	assert.Equal(t, testSecretID, secretID)

	_, err = GenerateAPIKey("not-hex")
	assert.Error(t, err)
}

func TestKeyHash(t *testing.T) {
	h1 := KeyHash(testSecret, "sk-v1-a")
	assert.Len(t, h1, 64)
	assert.Equal(t, h1, KeyHash(testSecret, "sk-v1-a"))
	assert.NotEqual(t, h1, KeyHash(testSecret, "sk-v1-b"))
	assert.NotEqual(t, h1, KeyHash([]byte("another-secret-of-sufficient-length!!"), "sk-v1-a"))
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	q := openQueries(t)
	a := NewAuthenticator(map[string][]byte{testSecretID: testSecret}, q)

	id, key, err := CreateKey(ctx, q, "feeder", testSecretID, testSecret)
	require.NoError(t, err)

	got, err := a.Authenticate(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, id, got)

	keys, err := ListKeys(ctx, q)
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.Equal(t, "feeder", keys[0].Name)
	assert.True(t, keys[0].LastUsedAt.Valid, "last_used_at set on first use")
	assert.False(t, keys[0].RevokedAt.Valid)

	t.Run("unknown secret", func(t *testing.T) {
		other, err := GenerateAPIKey("fedcba9876543210fedcba9876543210")
		require.NoError(t, err)
		_, err = a.Authenticate(ctx, other)
		assert.ErrorIs(t, err, ErrUnknownKey)
	})

	t.Run("never issued", func(t *testing.T) {
		forged, err := GenerateAPIKey(testSecretID)
		require.NoError(t, err)
		_, err = a.Authenticate(ctx, forged)
		assert.ErrorIs(t, err, ErrInvalidKey)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := a.Authenticate(ctx, "garbage")
		assert.ErrorIs(t, err, ErrInvalidKeyFormat)
	})

	t.Run("revoked", func(t *testing.T) {
		require.NoError(t, RevokeKey(ctx, q, id))
		_, err := a.Authenticate(ctx, key)
		assert.ErrorIs(t, err, ErrKeyRevoked)
		assert.ErrorIs(t, RevokeKey(ctx, q, id), ErrKeyNotFound)
	})
}

func TestRevokeKey_Unknown(t *testing.T) {
	err := RevokeKey(context.Background(), openQueries(t), types.NewAPIKeyID())
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestShouldUpdateLastUsed(t *testing.T) {
	now := time.Now()
	assert.True(t, shouldUpdateLastUsed(sql.NullTime{}, now))
	assert.False(t, shouldUpdateLastUsed(sql.NullTime{Time: now.Add(-30 * time.Second), Valid: true}, now))
	assert.True(t, shouldUpdateLastUsed(sql.NullTime{Time: now.Add(-2 * time.Minute), Valid: true}, now))
}

type brokenQueries struct{}

func (brokenQueries) Get(context.Context, string, any, ...any) error {
	return errors.New("connection refused")
}

func (brokenQueries) Select(context.Context, string, any, ...any) error {
	return errors.New("connection refused")
}

func (brokenQueries) Exec(context.Context, string, ...any) (sql.Result, error) {
	return nil, errors.New("connection refused")
}

func TestUnaryInterceptor(t *testing.T) {
	ctx := context.Background()
	q := openQueries(t)
	id, key, err := CreateKey(ctx, q, "feeder", testSecretID, testSecret)
	require.NoError(t, err)
	revokedID, revokedKey, err := CreateKey(ctx, q, "old", testSecretID, testSecret)
	require.NoError(t, err)
	require.NoError(t, RevokeKey(ctx, q, revokedID))

	secrets := map[string][]byte{testSecretID: testSecret}
	info := &grpc.UnaryServerInfo{FullMethod: "/stemkeeper.v1.Warehouse/AddStem"}

	var seen types.APIKeyID
	handler := func(ctx context.Context, req any) (any, error) {
		seen = KeyIDFromContext(ctx)
		return "ok", nil
	}

	withKey := func(k string) context.Context {
		return metadata.NewIncomingContext(ctx, metadata.Pairs(MetadataKey, k))
	}

	tests := []struct {
		name string
		auth *Authenticator
		ctx  context.Context
		code codes.Code
	}{
		{"valid", NewAuthenticator(secrets, q), withKey(key), codes.OK},
		{"no metadata", NewAuthenticator(secrets, q), ctx, codes.Unauthenticated},
		{"no key", NewAuthenticator(secrets, q), metadata.NewIncomingContext(ctx, metadata.MD{}), codes.Unauthenticated},
		{"bad format", NewAuthenticator(secrets, q), withKey("nope"), codes.Unauthenticated},
		{"revoked", NewAuthenticator(secrets, q), withKey(revokedKey), codes.PermissionDenied},
		{"database down", NewAuthenticator(secrets, brokenQueries{}), withKey(key), codes.Unavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = ""
			resp, err := tt.auth.UnaryInterceptor()(tt.ctx, nil, info, handler)
			assert.Equal(t, tt.code, status.Code(err))
			if tt.code == codes.OK {
				assert.Equal(t, "ok", resp)
				assert.Equal(t, id, seen)
			} else {
				assert.Empty(t, seen)
			}
		})
	}
}

func TestKeyIDFromContext_Unauthenticated(t *testing.T) {
	assert.Empty(t, KeyIDFromContext(context.Background()))
}
