package sealbox

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/hashicorp/vault/api"
)

// TransitClient wraps Vault's transit engine for wrapping and unwrapping the
// per-group data keys. Feedback text itself never leaves the process; only
// the 32-byte DEKs travel to Vault.
type TransitClient struct {
	client *api.Client
	mount  string
}

// TransitConfig holds Vault connection configuration
type TransitConfig struct {
	Address      string
	Token        string
	TransitMount string
}

// wrapKeyName is the transit key every group DEK is wrapped under
const wrapKeyName = "offrecord-feedback"

// NewTransitClient creates a Vault transit client and ensures the engine and
// wrapping key exist
func NewTransitClient(cfg *TransitConfig) (*TransitClient, error) {
	config := api.DefaultConfig()
	config.Address = cfg.Address

	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	client.SetToken(cfg.Token)

	tc := &TransitClient{client: client, mount: cfg.TransitMount}

	if err := tc.ensureTransitEngine(); err != nil {
		return nil, fmt.Errorf("failed to initialize transit engine: %w", err)
	}
	if err := tc.ensureWrapKey(); err != nil {
		return nil, fmt.Errorf("failed to create wrapping key: %w", err)
	}

	return tc, nil
}

func (c *TransitClient) ensureTransitEngine() error {
	ctx := context.Background()

	mounts, err := c.client.Sys().ListMountsWithContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to list mounts: %w", err)
	}

	if _, exists := mounts[c.mount+"/"]; exists {
		return nil
	}

	return c.client.Sys().MountWithContext(ctx, c.mount, &api.MountInput{
		Type:        "transit",
		Description: "Transit encryption for OffRecord feedback",
	})
}

func (c *TransitClient) ensureWrapKey() error {
	path := fmt.Sprintf("%s/keys/%s", c.mount, wrapKeyName)
	_, err := c.client.Logical().WriteWithContext(context.Background(), path, map[string]interface{}{
		"type":       "aes256-gcm96",
		"exportable": false,
	})
	if err != nil {
		return fmt.Errorf("failed to create key %s: %w", wrapKeyName, err)
	}
	return nil
}

// GenerateDataKey asks Vault for a fresh DEK, returning both the plaintext
// key and its wrapped form for storage
func (c *TransitClient) GenerateDataKey(ctx context.Context) (plaintext []byte, wrapped string, err error) {
	path := fmt.Sprintf("%s/datakey/plaintext/%s", c.mount, wrapKeyName)

	secret, err := c.client.Logical().WriteWithContext(ctx, path, map[string]interface{}{
		"bits": 256,
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate data key: %w", err)
	}

	plaintextB64, ok := secret.Data["plaintext"].(string)
	if !ok {
		return nil, "", fmt.Errorf("invalid plaintext in data key response")
	}
	plaintext, err = base64.StdEncoding.DecodeString(plaintextB64)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode data key: %w", err)
	}

	wrapped, ok = secret.Data["ciphertext"].(string)
	if !ok {
		return nil, "", fmt.Errorf("invalid ciphertext in data key response")
	}

	return plaintext, wrapped, nil
}

// UnwrapDataKey recovers a plaintext DEK from its wrapped form
func (c *TransitClient) UnwrapDataKey(ctx context.Context, wrapped string) ([]byte, error) {
	path := fmt.Sprintf("%s/decrypt/%s", c.mount, wrapKeyName)

	secret, err := c.client.Logical().WriteWithContext(ctx, path, map[string]interface{}{
		"ciphertext": wrapped,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to unwrap data key: %w", err)
	}

	plaintextB64, ok := secret.Data["plaintext"].(string)
	if !ok {
		return nil, fmt.Errorf("invalid plaintext in unwrap response")
	}

	key, err := base64.StdEncoding.DecodeString(plaintextB64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode data key: %w", err)
	}

	return key, nil
}

// Health checks Vault health status
func (c *TransitClient) Health() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	health, err := c.client.Sys().HealthWithContext(ctx)
	if err != nil {
		return fmt.Errorf("vault health check failed: %w", err)
	}
	if !health.Initialized {
		return fmt.Errorf("vault is not initialized")
	}
	if health.Sealed {
		return fmt.Errorf("vault is sealed")
	}

	return nil
}

// encryptLocal performs AES-256-GCM encryption with the group DEK
func encryptLocal(plaintext, key, additionalData []byte) (ciphertext, nonce []byte, err error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, fmt.Errorf("cipher creation failed: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, nil, fmt.Errorf("GCM creation failed: %w", err)
	}

	nonce = make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, fmt.Errorf("nonce generation failed: %w", err)
	}

	ciphertext = gcm.Seal(nil, nonce, plaintext, additionalData)
	return ciphertext, nonce, nil
}

// decryptLocal performs AES-256-GCM decryption with the group DEK
func decryptLocal(ciphertext, key, nonce, additionalData []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cipher creation failed: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("GCM creation failed: %w", err)
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, additionalData)
	if err != nil {
		return nil, fmt.Errorf("decryption failed: %w", err)
	}

	return plaintext, nil
}
