package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/eventcontract/contract-api/internal/apperr"
)

type ctxKey string

const principalCtxKey ctxKey = "principal"

// Role do usuário autenticado.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleOrganizer Role = "organizer"
	RolePartner   Role = "partner"
	RoleCustomer  Role = "customer"
)

// Principal autenticado que chega em toda chamada que altera estado.
type Principal struct {
	ID   uint   `json:"id"`
	Role Role   `json:"role"`
	Name string `json:"name,omitempty"`
}

func (p Principal) validate() error {
	if p.ID == 0 {
		return errors.New("principal sem id")
	}
	switch p.Role {
	case RoleAdmin, RoleOrganizer, RolePartner, RoleCustomer:
		return nil
	}
	return fmt.Errorf("role desconhecida: %q", p.Role)
}

// IsAdmin: admin passa por todas as checagens de dono.
func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }

// Verifier transforma um bearer token em Principal.
type Verifier interface {
	Verify(token string) (Principal, error)
}

// Middleware exige bearer token válido e injeta o Principal no contexto.
func Middleware(v Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}
			h := r.Header.Get("Authorization")
			if h == "" || !strings.HasPrefix(h, "Bearer ") {
				http.Error(w, "Token ausente", http.StatusUnauthorized)
				return
			}
			p, err := v.Verify(strings.TrimPrefix(h, "Bearer "))
			if err != nil {
				http.Error(w, "Token inválido", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

// RequireRole deixa passar só os papéis informados (admin sempre passa).
func RequireRole(roles ...Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := FromContext(r.Context())
			if !ok {
				http.Error(w, "Token ausente", http.StatusUnauthorized)
				return
			}
			if !p.IsAdmin() && !hasRole(p.Role, roles) {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func hasRole(role Role, roles []Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalCtxKey, p)
}

func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalCtxKey).(Principal)
	return p, ok
}

// MustPrincipal é para handlers atrás do Middleware.
func MustPrincipal(ctx context.Context) (Principal, error) {
	p, ok := FromContext(ctx)
	if !ok {
		return Principal{}, apperr.Forbidden("usuário não autenticado")
	}
	return p, nil
}
