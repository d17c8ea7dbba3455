package util

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"math/big"
	"strings"
)

// CodeAlphabet drops 0, O, 1 and I so codes survive being read aloud.
const CodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const (
	codeGroupLen = 4
	codeGroups   = 4
)

// GenerateCode returns a dash-separated code such as "K7QM-2XPA-9RTD-HW4C".
func GenerateCode() (string, error) {
	max := big.NewInt(int64(len(CodeAlphabet)))
	groups := make([]string, codeGroups)
	for g := range groups {
		buf := make([]byte, codeGroupLen)
		for i := range buf {
			n, err := rand.Int(rand.Reader, max)
			if err != nil {
				return "", err
			}
			buf[i] = CodeAlphabet[n.Int64()]
		}
		groups[g] = string(buf)
	}
	return strings.Join(groups, "-"), nil
}

// NormalizeCode uppercases and trims user-typed codes.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func HmacSHA256(key []byte, data string) []byte {
	h := hmac.New(sha256.New, key)
	h.Write([]byte(data))
	return h.Sum(nil)
}

func HmacSHA256Hex(key []byte, data string) string {
	return hex.EncodeToString(HmacSHA256(key, data))
}

func ConstantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func MaskCode(code string) string {
	if len(code) <= 4 {
		return "****"
	}
	return code[:4] + "-****"
}
