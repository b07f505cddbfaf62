package vault

import "time"

// AccessToken is a short-lived, single-use credential backing a
// zay://profile deep link. Once Consumed is set the token never
// resolves to an identity again.
type AccessToken struct {
	Token         string    `json:"token"`
	OwnerUsername string    `json:"owner_username"`
	IssuedAt      time.Time `json:"issued_at"`
	ExpiresAt     time.Time `json:"expires_at"`
	Consumed      bool      `json:"consumed"`
}
