package types

import (
	"strings"

	"github.com/google/uuid"
)

// RunID identifies one assembly run in the journal.
type RunID string

// BouquetID identifies one emitted bouquet in the journal.
type BouquetID string

// APIKeyID identifies an issued API key.
type APIKeyID string

// NewRunID generates a UUIDv7 run identifier.
// Time-ordered IDs ensure sequential inserts cluster in B-tree pages.
// Panics on clock regression (uuid.Must); acceptable for ID generation.
func NewRunID() RunID {
	return RunID(uuid.Must(uuid.NewV7()).String())
}

// NewBouquetID generates a UUIDv7 bouquet identifier.
func NewBouquetID() BouquetID {
	return BouquetID(uuid.Must(uuid.NewV7()).String())
}

// NewAPIKeyID generates a UUIDv7 API key identifier.
func NewAPIKeyID() APIKeyID {
	return APIKeyID(uuid.Must(uuid.NewV7()).String())
}

// NewSecretID generates a secret identifier: a UUIDv7 without hyphens
// (32 hex chars), the form expected in SK_HMAC_SECRET and in API keys.
func NewSecretID() string {
	return strings.ReplaceAll(uuid.Must(uuid.NewV7()).String(), "-", "")
}

// ParseRunID validates and converts a string to RunID.
// Rejects malformed UUIDs to prevent invalid IDs from entering the journal.
func ParseRunID(s string) (RunID, error) {
	_, err := uuid.Parse(s)
	if err != nil {
		return "", err
	}
	return RunID(s), nil
}
