package utils

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/eventcontract/contract-api/internal/apperr"
	"github.com/gorilla/mux"
)

// WriteJSON escreve v como JSON com o status informado.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError traduz err pela taxonomia de apperr. Erros internos não vazam
// a mensagem original.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := apperr.HTTPStatus(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		message = "Erro interno"
	}
	body := map[string]any{"code": code, "message": message}
	if details := apperr.Details(err); len(details) > 0 {
		body["details"] = details
	}
	WriteJSON(w, status, map[string]any{"error": body})
}

// DecodeJSON decodifica o corpo em dst e roda a validação das tags.
func DecodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.Validation("JSON mal formado: %v", err)
	}
	return Validate(dst)
}

// PathID lê uma variável numérica da rota.
func PathID(r *http.Request, name string) (uint, error) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.Validation("%s inválido: %q", name, raw)
	}
	return uint(id), nil
}

// QueryID lê um id opcional da query string; 0 quando ausente.
func QueryID(r *http.Request, name string) (uint, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, apperr.Validation("%s inválido: %q", name, raw)
	}
	return uint(id), nil
}

// IsValidation ajuda handlers que precisam distinguir erro de entrada.
func IsValidation(err error) bool {
	var v *apperr.ValidationError
	return errors.As(err, &v)
}
