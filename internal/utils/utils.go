package utils

import (
	"crypto/rand"
	"math/big"
)

// RandomString sorteia length caracteres de alphabet com crypto/rand.
func RandomString(alphabet string, length int) (string, error) {
	max := big.NewInt(int64(len(alphabet)))
	result := make([]byte, length)
	for i := 0; i < length; i++ {
		num, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		result[i] = alphabet[num.Int64()]
	}
	return string(result), nil
}
