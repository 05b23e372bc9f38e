package service

import (
	"crypto/rand"
)

const (
	secretPrefix   = "sk_"
	secretLength   = 32
	secretAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// generateSecret produces an sk_-prefixed secret of 32 alphanumeric
// characters from a cryptographically strong source.
func generateSecret() (string, error) {
	buf := make([]byte, secretLength)
	out := make([]byte, secretLength)

	// Rejection sampling keeps the alphabet distribution uniform.
	max := byte(256 - 256%len(secretAlphabet))
	filled := 0
	for filled < secretLength {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if b >= max {
				continue
			}
			out[filled] = secretAlphabet[int(b)%len(secretAlphabet)]
			filled++
			if filled == secretLength {
				break
			}
		}
	}

	return secretPrefix + string(out), nil
}
