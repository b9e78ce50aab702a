package contracttemplate

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// DateLayout dos campos de data.
const DateLayout = "2006-01-02"

var numberCleaner = strings.NewReplacer(",", "", " ", "", "\u00a0", "")

// ParseNumber aceita separador de milhar.
func ParseNumber(s string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(numberCleaner.Replace(strings.TrimSpace(s)))
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// Checked interpreta o valor de um checkbox.
func Checked(value string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	return err == nil && b
}

// ValidateValue confere um valor contra o tipo do campo e a validationRule
// (minLength, maxLength, pattern, min, max). Vazio passa aqui; obrigatoriedade
// é conferida na assinatura.
func ValidateValue(f Field, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	switch f.FieldType {
	case FieldSignature:
		return fmt.Errorf("assinatura é enviada na etapa de assinatura")
	case FieldCheckbox:
		if _, err := strconv.ParseBool(value); err != nil {
			return fmt.Errorf("checkbox aceita true ou false")
		}
	case FieldDate:
		if _, err := time.Parse(DateLayout, value); err != nil {
			return fmt.Errorf("data deve estar no formato AAAA-MM-DD")
		}
	case FieldNumber, FieldAmount:
		n, ok := ParseNumber(value)
		if !ok {
			return fmt.Errorf("valor numérico inválido")
		}
		if f.FieldType == FieldAmount && n.IsNegative() {
			return fmt.Errorf("valor não pode ser negativo")
		}
		if min, ok := ruleNumber(f, "min"); ok && n.LessThan(min) {
			return fmt.Errorf("mínimo %s", min)
		}
		if max, ok := ruleNumber(f, "max"); ok && n.GreaterThan(max) {
			return fmt.Errorf("máximo %s", max)
		}
	}

	length := utf8.RuneCountInString(value)
	if n, ok := ruleNumber(f, "minLength"); ok && int64(length) < n.IntPart() {
		return fmt.Errorf("mínimo de %s caracteres", n)
	}
	if n, ok := ruleNumber(f, "maxLength"); ok && int64(length) > n.IntPart() {
		return fmt.Errorf("máximo de %s caracteres", n)
	}
	if p, ok := f.ValidationRule["pattern"].(string); ok && p != "" {
		re, err := regexp.Compile(p)
		if err != nil {
			return fmt.Errorf("regra de formato inválida no modelo")
		}
		if !re.MatchString(value) {
			return fmt.Errorf("formato inválido")
		}
	}
	return nil
}

func ruleNumber(f Field, key string) (decimal.Decimal, bool) {
	switch v := f.ValidationRule[key].(type) {
	case float64:
		return decimal.NewFromFloat(v), true
	case int:
		return decimal.NewFromInt(int64(v)), true
	case string:
		return ParseNumber(v)
	}
	return decimal.Zero, false
}

// checkRule rejeita regras que nunca poderiam ser satisfeitas ou avaliadas.
func checkRule(rule map[string]any) error {
	if p, ok := rule["pattern"]; ok {
		s, isString := p.(string)
		if !isString {
			return fmt.Errorf("pattern deve ser texto")
		}
		if _, err := regexp.Compile(s); err != nil {
			return fmt.Errorf("pattern inválido: %v", err)
		}
	}
	return nil
}
