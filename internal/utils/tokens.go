package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
)

func NewRefreshToken(nBytes int) (string, error) {
	if nBytes <= 0 {
		nBytes = 32 // 256 bits by default
	}
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// NumericCode returns a zero-padded decimal code of the given length,
// e.g. "042913" for length 6.
func NumericCode(length int) (string, error) {
	if length <= 0 {
		length = 6
	}
	max := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length)), nil)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", length, n), nil
}

const (
	pwUppercase = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	pwLowercase = "abcdefghijklmnopqrstuvwxyz"
	pwNumbers   = "0123456789"
	pwSpecial   = "!@#$%^&*"
)

// TempPassword generates a temporary password with at least one character
// from each class, shuffled so class positions are not predictable.
func TempPassword(length int) (string, error) {
	if length < 8 {
		length = 12
	}
	all := pwUppercase + pwLowercase + pwNumbers + pwSpecial

	buf := make([]byte, 0, length)
	for _, set := range []string{pwUppercase, pwLowercase, pwNumbers, pwSpecial} {
		c, err := randByte(set)
		if err != nil {
			return "", err
		}
		buf = append(buf, c)
	}
	for len(buf) < length {
		c, err := randByte(all)
		if err != nil {
			return "", err
		}
		buf = append(buf, c)
	}

	// Fisher-Yates
	for i := len(buf) - 1; i > 0; i-- {
		j, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", err
		}
		buf[i], buf[j.Int64()] = buf[j.Int64()], buf[i]
	}
	return string(buf), nil
}

func randByte(set string) (byte, error) {
	i, err := rand.Int(rand.Reader, big.NewInt(int64(len(set))))
	if err != nil {
		return 0, err
	}
	return set[i.Int64()], nil
}
