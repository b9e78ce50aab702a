// Package identifier emite os identificadores externos dos contratos: token
// de QR, código curto e número de contrato.
package identifier

import (
	"strings"
	"time"

	"github.com/eventcontract/contract-api/internal/utils"
	"github.com/google/uuid"
)

// ShortCodeAlphabet evita caracteres ambíguos na digitação (0/O, 1/I).
const ShortCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const contractNumberSuffix = 6

// Codes gera candidatos. Substituível em teste para forçar colisões.
type Codes interface {
	ShortCode() (string, error)
	ContractNumber(now time.Time) (string, error)
	QRToken() string
}

// RandomCodes é o gerador padrão.
type RandomCodes struct {
	ShortCodeLength int
}

func (g RandomCodes) ShortCode() (string, error) {
	n := g.ShortCodeLength
	if n <= 0 {
		n = 6
	}
	return utils.RandomString(ShortCodeAlphabet, n)
}

// ContractNumber no formato C-AAMMDD-XXXXXX.
func (g RandomCodes) ContractNumber(now time.Time) (string, error) {
	suffix, err := utils.RandomString(ShortCodeAlphabet, contractNumberSuffix)
	if err != nil {
		return "", err
	}
	return "C-" + now.Format("060102") + "-" + suffix, nil
}

// QRToken é opaco e não adivinhável.
func (g RandomCodes) QRToken() string {
	return uuid.NewString()
}

// Normalize deixa o código digitado comparável (maiúsculo, sem espaços e
// hífens nas pontas).
func Normalize(code string) string {
	return strings.ToUpper(strings.Trim(strings.TrimSpace(code), "-"))
}
