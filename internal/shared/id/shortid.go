// Package id generates Stripe-style prefixed identifiers such as "prs_xK9mP2vL3nQa".
package id

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const (
	alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	DefaultLength = 12
)

const (
	PrefixCredential = "cred"
	PrefixDevice     = "dev"
	PrefixPerson     = "prs"
	PrefixPrivilege  = "prv"
)

// Generate returns a cryptographically random base62 string.
func Generate(length int) (string, error) {
	if length <= 0 {
		length = DefaultLength
	}
	max := big.NewInt(int64(len(alphabet)))
	var sb strings.Builder
	sb.Grow(length)
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate random number: %w", err)
		}
		sb.WriteByte(alphabet[n.Int64()])
	}
	return sb.String(), nil
}

// New returns prefix + "_" + a random short ID.
func New(prefix string) (string, error) {
	s, err := Generate(DefaultLength)
	if err != nil {
		return "", err
	}
	return prefix + "_" + s, nil
}

// MustNew is New for call sites that cannot meaningfully handle entropy failure.
func MustNew(prefix string) string {
	s, err := New(prefix)
	if err != nil {
		panic(err)
	}
	return s
}

// HasPrefix reports whether sid was generated with prefix.
func HasPrefix(sid, prefix string) bool {
	return strings.HasPrefix(sid, prefix+"_") && len(sid) > len(prefix)+1
}
