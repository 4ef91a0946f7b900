package util

import (
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/quantract/certledger/internal/constant"
)

const (
	hexAlphabet = "0123456789abcdef"
	// Certificate numbers are read aloud and typed by hand: no 0/O or 1/I.
	numberAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"
)

// GenerateVerificationToken returns 64 lowercase hex characters (256 bits)
// from a cryptographically secure source.
func GenerateVerificationToken() (string, error) {
	return gonanoid.Generate(hexAlphabet, constant.VERIFICATION_TOKEN_LENGTH)
}

// GenerateCertificateNumber returns e.g. "EICR-7KQ9X2M7TA".
func GenerateCertificateNumber(prefix string) (string, error) {
	suffix, err := gonanoid.Generate(numberAlphabet, constant.CERTIFICATE_NUMBER_LENGTH)
	if err != nil {
		return "", err
	}
	return prefix + "-" + suffix, nil
}

// IsWellFormedToken is the cheap shape check done before any lookup.
func IsWellFormedToken(token string) bool {
	if len(token) < constant.VERIFICATION_TOKEN_MIN_LENGTH || len(token) > 128 {
		return false
	}
	return strings.Trim(token, hexAlphabet) == ""
}
