// Package securerand generates random strings and bytes from the
// platform CSPRNG. Every token, link key and state parameter in the
// module comes from here.
package securerand

import (
	"crypto/rand"
	"io"
	"math/big"
)

// Alphabets used by the credential generators.
const (
	Alphanumeric      = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	LowerAlphanumeric = "abcdefghijklmnopqrstuvwxyz0123456789"
	UpperAlphanumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// Token returns a random string of length n drawn uniformly from alphabet.
// Entropy source failure is not recoverable and panics.
func Token(n int, alphabet string) string {
	out := make([]byte, n)
	max := big.NewInt(int64(len(alphabet)))
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic("securerand: entropy source unavailable: " + err.Error())
		}
		out[i] = alphabet[idx.Int64()]
	}
	return string(out)
}

// Bytes returns n cryptographically random bytes or panics.
func Bytes(n int) []byte {
	b := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		panic("securerand: entropy source unavailable: " + err.Error())
	}
	return b
}

// Pick returns one element of catalog chosen uniformly at random.
// Panics on an empty catalog.
func Pick(catalog []string) string {
	idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(catalog))))
	if err != nil {
		panic("securerand: entropy source unavailable: " + err.Error())
	}
	return catalog[idx.Int64()]
}
