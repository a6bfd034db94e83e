package sealbox

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
)

// Payload is the feedback text sealed into a record
type Payload struct {
	Strengths    string `json:"strengths"`
	Improvements string `json:"improvements"`
}

// Sealer encrypts feedback text at rest. The disabled implementation leaves
// text in the plaintext columns only.
type Sealer interface {
	Enabled() bool
	// Seal encrypts the payload under the group's data key and inserts a
	// sealed record inside the caller's transaction, returning its id.
	Seal(ctx context.Context, tx *sql.Tx, groupID uint, p *Payload) (int64, error)
	// Open decrypts a sealed record back into its payload.
	Open(ctx context.Context, groupID uint, recordID int64) (*Payload, error)
}

// Box seals feedback text with per-group AES-256-GCM data keys. The DEKs are
// generated and wrapped by Vault transit; only the wrapped form is persisted.
type Box struct {
	db      *sql.DB
	transit *TransitClient

	mu   sync.Mutex
	keys map[uint][]byte
}

// NewBox creates a sealer backed by the given database and transit client
func NewBox(db *sql.DB, transit *TransitClient) *Box {
	return &Box{
		db:      db,
		transit: transit,
		keys:    make(map[uint][]byte),
	}
}

func (b *Box) Enabled() bool { return true }

// groupKey returns the group's plaintext DEK, generating and persisting a
// wrapped key on first use. Concurrent first use is resolved by the primary
// key on group_keys; the loser unwraps the winner's key.
func (b *Box) groupKey(ctx context.Context, groupID uint) ([]byte, error) {
	b.mu.Lock()
	if key, ok := b.keys[groupID]; ok {
		b.mu.Unlock()
		return key, nil
	}
	b.mu.Unlock()

	var wrapped string
	err := b.db.QueryRowContext(ctx,
		`SELECT wrapped_key FROM group_keys WHERE group_id = $1`, groupID,
	).Scan(&wrapped)
	switch {
	case err == sql.ErrNoRows:
		plaintext, freshWrapped, genErr := b.transit.GenerateDataKey(ctx)
		if genErr != nil {
			return nil, genErr
		}
		res, insErr := b.db.ExecContext(ctx,
			`INSERT INTO group_keys (group_id, wrapped_key) VALUES ($1, $2)
			 ON CONFLICT (group_id) DO NOTHING`, groupID, freshWrapped)
		if insErr != nil {
			return nil, fmt.Errorf("failed to store group key: %w", insErr)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			// another instance won the insert; use its key
			return b.groupKey(ctx, groupID)
		}
		b.cacheKey(groupID, plaintext)
		return plaintext, nil
	case err != nil:
		return nil, fmt.Errorf("failed to load group key: %w", err)
	}

	plaintext, err := b.transit.UnwrapDataKey(ctx, wrapped)
	if err != nil {
		return nil, err
	}
	b.cacheKey(groupID, plaintext)
	return plaintext, nil
}

func (b *Box) cacheKey(groupID uint, key []byte) {
	b.mu.Lock()
	b.keys[groupID] = key
	b.mu.Unlock()
}

func (b *Box) Seal(ctx context.Context, tx *sql.Tx, groupID uint, p *Payload) (int64, error) {
	key, err := b.groupKey(ctx, groupID)
	if err != nil {
		return 0, err
	}

	plaintext, err := json.Marshal(p)
	if err != nil {
		return 0, fmt.Errorf("failed to encode payload: %w", err)
	}

	ciphertext, nonce, err := encryptLocal(plaintext, key, aad(groupID))
	if err != nil {
		return 0, err
	}

	var recordID int64
	err = tx.QueryRowContext(ctx,
		`INSERT INTO sealed_records (group_id, ciphertext, nonce) VALUES ($1, $2, $3) RETURNING id`,
		groupID, ciphertext, nonce,
	).Scan(&recordID)
	if err != nil {
		return 0, fmt.Errorf("failed to store sealed record: %w", err)
	}

	return recordID, nil
}

func (b *Box) Open(ctx context.Context, groupID uint, recordID int64) (*Payload, error) {
	key, err := b.groupKey(ctx, groupID)
	if err != nil {
		return nil, err
	}

	var ciphertext, nonce []byte
	err = b.db.QueryRowContext(ctx,
		`SELECT ciphertext, nonce FROM sealed_records WHERE id = $1 AND group_id = $2`,
		recordID, groupID,
	).Scan(&ciphertext, &nonce)
	if err != nil {
		return nil, fmt.Errorf("failed to load sealed record: %w", err)
	}

	plaintext, err := decryptLocal(ciphertext, key, nonce, aad(groupID))
	if err != nil {
		return nil, err
	}

	var p Payload
	if err := json.Unmarshal(plaintext, &p); err != nil {
		return nil, fmt.Errorf("failed to decode payload: %w", err)
	}
	return &p, nil
}

func aad(groupID uint) []byte {
	return []byte(fmt.Sprintf("group:%d", groupID))
}

// Disabled is the Sealer used when Vault is not configured
type Disabled struct{}

func (Disabled) Enabled() bool { return false }

func (Disabled) Seal(context.Context, *sql.Tx, uint, *Payload) (int64, error) {
	return 0, nil
}

func (Disabled) Open(context.Context, uint, int64) (*Payload, error) {
	return nil, fmt.Errorf("sealed storage is disabled")
}
