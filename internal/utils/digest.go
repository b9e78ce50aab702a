package utils

import (
	"encoding/hex"
	"encoding/json"

	"golang.org/x/crypto/blake2b"
)

// Digest serializa v em JSON e devolve "blake2b:<hex>" do resultado.
// Não é verificação criptográfica de assinatura, só o registro do que foi
// assinado.
func Digest(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	sum := blake2b.Sum256(b)
	return "blake2b:" + hex.EncodeToString(sum[:]), nil
}
