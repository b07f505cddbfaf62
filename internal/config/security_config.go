package config

import "time"

type SecurityConfig interface {
	GetVaultMasterKey() string
	GetSessionSecret() string
	GetSessionLifetime() time.Duration
}

type Security struct{}

var _ SecurityConfig = Security{}

// GetVaultMasterKey returns the key the encrypted token vault file is
// derived from. Empty means the vault cannot be opened.
func (Security) GetVaultMasterKey() string {
	return GetEnv("VAULT_MASTER_KEY", "")
}

// GetSessionSecret returns the HS256 signing secret for session
// tokens. Must be at least 32 bytes.
func (Security) GetSessionSecret() string {
	return GetEnv("SESSION_SECRET", "")
}

func (Security) GetSessionLifetime() time.Duration {
	return 30 * 24 * time.Hour
}
