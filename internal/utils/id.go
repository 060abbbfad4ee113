package utils

import (
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewID returns a best-effort unique identifier used for request ids.
func NewID() string {
	id, err := uuid.NewRandom()
	if err == nil {
		return id.String()
	}

	// Fallback to timestamp if crypto/rand is unavailable.
	return strconv.FormatInt(time.Now().UnixNano(), 10)
}

// NewToken returns a 64 character hex secret suitable for CSRF tokens.
func NewToken() (string, error) {
	first, errFirst := uuid.NewRandom()
	second, errSecond := uuid.NewRandom()
	if errFirst != nil || errSecond != nil {
		return randomHex(32)
	}
	return strings.ReplaceAll(first.String()+second.String(), "-", ""), nil
}

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
