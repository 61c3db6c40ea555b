// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// CodeLength is the number of digits in a verification code.
const CodeLength = 6

var codeSpace = big.NewInt(1_000_000) // 10^CodeLength

// GenerateCode returns a uniformly random 6-digit numeric code. The code
// is the sole secret protecting the account, so it must come from
// crypto/rand; a failing entropy source is not a recoverable condition.
func GenerateCode() string {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		panic(fmt.Sprintf("otp: crypto/rand unavailable: %v", err))
	}
	return fmt.Sprintf("%06d", n)
}
