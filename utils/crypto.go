package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// GenerateID returns a random identifier, optionally prefixed (e.g. "vid-3f2a9c0e1b7d4a55").
func GenerateID(prefix string) (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}

	raw := strings.ReplaceAll(id.String(), "-", "")
	if prefix != "" {
		return fmt.Sprintf("%s-%s", prefix, raw[:16]), nil
	}
	return raw[:16], nil
}

// GenerateStreamKey creates a live stream key in the form live_<24 hex chars>.
func GenerateStreamKey() (string, error) {
	bytes := make([]byte, 12)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return "live_" + hex.EncodeToString(bytes), nil
}

// HashSecret hashes a secret (stream key) with bcrypt.
func HashSecret(secret string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// CheckSecret reports whether secret matches the bcrypt hash.
func CheckSecret(hashed, secret string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(secret))
	return err == nil
}
