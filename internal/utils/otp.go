package utils

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
)

// DefaultOTPLength is the number of digits in a verification code.
const DefaultOTPLength = 6

// OTPGenerator produces fixed-length numeric codes. It keeps no state.
type OTPGenerator struct {
	length int
	random io.Reader
}

// NewOTPGenerator returns a generator of length-digit codes.
func NewOTPGenerator(length int) *OTPGenerator {
	if length <= 0 {
		length = DefaultOTPLength
	}
	return &OTPGenerator{length: length, random: rand.Reader}
}

// Generate returns a uniformly random zero-padded numeric code.
func (g *OTPGenerator) Generate() (string, error) {
	max := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(g.length)), nil)
	n, err := rand.Int(g.random, max)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%0*d", g.length, n), nil
}
