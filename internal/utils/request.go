package utils

import (
	"net/http"

	"github.com/eventcontract/contract-api/internal/auth"
)

// PrincipalAndID lê o usuário autenticado e o id numérico da rota. Quando
// devolve false a resposta de erro já foi escrita.
func PrincipalAndID(w http.ResponseWriter, r *http.Request, name string) (auth.Principal, uint, bool) {
	p, err := auth.MustPrincipal(r.Context())
	if err != nil {
		WriteError(w, r, err)
		return auth.Principal{}, 0, false
	}
	id, err := PathID(r, name)
	if err != nil {
		WriteError(w, r, err)
		return auth.Principal{}, 0, false
	}
	return p, id, true
}
