package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims emitidos pelo serviço de identidade (HS256).
type Claims struct {
	UserID uint   `json:"userId"`
	Role   Role   `json:"role"`
	Name   string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// HMACVerifier valida tokens HS256 assinados com o segredo compartilhado.
type HMACVerifier struct {
	secret []byte
}

func NewHMACVerifier(secret string) (*HMACVerifier, error) {
	if secret == "" {
		return nil, errors.New("JWT_SECRET não definida")
	}
	return &HMACVerifier{secret: []byte(secret)}, nil
}

// GenerateToken emite um token de teste/integração com validade ttl.
func (v *HMACVerifier) GenerateToken(p Principal, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: p.ID,
		Role:   p.Role,
		Name:   p.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprint(p.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secret)
}

// Verify valida o token e devolve o principal.
func (v *HMACVerifier) Verify(tokenStr string) (Principal, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{"HS256"}), jwt.WithExpirationRequired())
	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return Principal{}, fmt.Errorf("token inválido ou expirado: %w", err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok {
		return Principal{}, errors.New("não foi possível extrair claims")
	}
	p := Principal{ID: claims.UserID, Role: claims.Role, Name: claims.Name}
	if err := p.validate(); err != nil {
		return Principal{}, err
	}
	return p, nil
}
