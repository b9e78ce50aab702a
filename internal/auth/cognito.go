package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
)

// CognitoClaims do access token. Id e papel do usuário vêm de atributos
// customizados do user pool.
type CognitoClaims struct {
	TokenUse string `json:"token_use,omitempty"` // "access" ou "id"
	ClientID string `json:"client_id,omitempty"`
	Username string `json:"username,omitempty"`
	UserID   string `json:"custom:user_id,omitempty"`
	Role     string `json:"custom:role,omitempty"`
	jwt.RegisteredClaims
}

// CognitoVerifier valida tokens do Cognito contra o JWKS do user pool.
type CognitoVerifier struct {
	jwks     *keyfunc.JWKS
	issuer   string
	clientID string
}

func cognitoIssuer(region, poolID string) string {
	return "https://cognito-idp." + region + ".amazonaws.com/" + poolID
}

func NewCognitoVerifier(region, poolID, clientID string) (*CognitoVerifier, error) {
	issuer := cognitoIssuer(region, poolID)
	jwks, err := keyfunc.Get(issuer+"/.well-known/jwks.json", keyfunc.Options{
		RefreshInterval: time.Hour,
		RefreshErrorHandler: func(err error) {
			slog.Warn("cognito jwks refresh failed", "err", err)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("jwks indisponível: %w", err)
	}
	return &CognitoVerifier{jwks: jwks, issuer: issuer, clientID: clientID}, nil
}

func (v *CognitoVerifier) Verify(raw string) (Principal, error) {
	var claims CognitoClaims
	token, err := jwt.ParseWithClaims(raw, &claims, v.jwks.Keyfunc, jwt.WithIssuer(v.issuer))
	if err != nil || !token.Valid {
		return Principal{}, fmt.Errorf("token inválido: %w", err)
	}
	// access token do Cognito não tem aud; o client_id faz esse papel
	if claims.TokenUse != "access" {
		return Principal{}, errors.New("tipo de token errado")
	}
	if v.clientID != "" && claims.ClientID != v.clientID {
		return Principal{}, errors.New("client_id inválido")
	}
	return claimsToPrincipal(claims)
}

func claimsToPrincipal(claims CognitoClaims) (Principal, error) {
	id, err := strconv.ParseUint(claims.UserID, 10, 64)
	if err != nil {
		return Principal{}, fmt.Errorf("custom:user_id inválido: %q", claims.UserID)
	}
	p := Principal{ID: uint(id), Role: Role(claims.Role), Name: claims.Username}
	if err := p.validate(); err != nil {
		return Principal{}, err
	}
	return p, nil
}
