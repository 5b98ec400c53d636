package promo

import (
	"crypto/rand"
	"strings"
)

// codeAlphabet omits easily-confused characters (0/O, 1/I/L).
const codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

const codeLength = 10

// GenerateCode produces an unpredictable promotion code. Uniqueness is
// the caller's concern: re-roll on a storage collision.
func GenerateCode(prefix string) (string, error) {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}

	var sb strings.Builder
	if prefix = strings.TrimSpace(prefix); prefix != "" {
		sb.WriteString(strings.ToUpper(prefix))
		sb.WriteByte('-')
	}
	for _, b := range buf {
		sb.WriteByte(codeAlphabet[int(b)%len(codeAlphabet)])
	}
	return sb.String(), nil
}
