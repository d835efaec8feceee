package security

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
)

// RandomToken returns a hex-encoded token of byteLen random bytes from the
// OS CSPRNG. 32 bytes gives 256 bits of entropy; collisions are treated as
// operationally impossible.
func RandomToken(byteLen int) (string, error) {
	if byteLen <= 0 {
		byteLen = 32
	}
	buf := make([]byte, byteLen)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// RandomDigits returns an n-digit zero-padded numeric code, uniform over
// [0, 10^n). Intentionally low entropy: these codes are typed by humans and
// live only minutes.
func RandomDigits(n int) (string, error) {
	if n <= 0 {
		n = 6
	}
	max := big.NewInt(1)
	for i := 0; i < n; i++ {
		max.Mul(max, big.NewInt(10))
	}
	v, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", n, v), nil
}
