// Package apperr concentra a taxonomia de erros do catálogo, da seleção e
// dos contratos, e o mapeamento para status HTTP.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ValidationError: entrada malformada ou incompleta. A mensagem vai para o
// cliente como está.
type ValidationError struct {
	Message string
	Details map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Details) == 0 {
		return e.Message
	}
	parts := make([]string, 0, len(e.Details))
	for k, v := range e.Details {
		parts = append(parts, k+": "+v)
	}
	return e.Message + " (" + strings.Join(parts, "; ") + ")"
}

// Validation monta um ValidationError a partir de um format.
func Validation(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// UnresolvedPriceError: a linha escolhida não tem preço definido para o tipo
// de apartamento. Nunca vira zero.
type UnresolvedPriceError struct {
	SheetID         uint
	RowID           uint
	ApartmentTypeID uint
	OptionName      string
}

func (e *UnresolvedPriceError) Error() string {
	return fmt.Sprintf("opção %q (planilha %d, linha %d) sem preço para o tipo %d",
		e.OptionName, e.SheetID, e.RowID, e.ApartmentTypeID)
}

// ReferentialIntegrityError bloqueia remover/usar entidade ainda referenciada.
type ReferentialIntegrityError struct {
	Entity     string
	ID         uint
	Referrer   string
	References int64
}

func (e *ReferentialIntegrityError) Error() string {
	return fmt.Sprintf("%s %d está referenciado por %d %s", e.Entity, e.ID, e.References, e.Referrer)
}

// StateTransitionError rejeita mudança de status inválida; o status salvo
// não muda.
type StateTransitionError struct {
	From string
	To   string
}

func (e *StateTransitionError) Error() string {
	return fmt.Sprintf("transição de status inválida %s -> %s", e.From, e.To)
}

// IdentifierCollisionError só aparece depois de esgotadas as tentativas de
// emissão do identificador.
type IdentifierCollisionError struct {
	Kind     string
	Attempts int
}

func (e *IdentifierCollisionError) Error() string {
	return fmt.Sprintf("não foi possível emitir %s único após %d tentativas", e.Kind, e.Attempts)
}

// NotFoundError: entidade inexistente.
type NotFoundError struct {
	Entity string
	Key    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s não encontrado", e.Entity, e.Key)
}

// NotFound para ids numéricos.
func NotFound(entity string, id uint) error {
	return &NotFoundError{Entity: entity, Key: fmt.Sprint(id)}
}

// ForbiddenError: o usuário não é dono do recurso.
type ForbiddenError struct {
	Reason string
}

func (e *ForbiddenError) Error() string { return "acesso negado: " + e.Reason }

func Forbidden(reason string) error { return &ForbiddenError{Reason: reason} }

// ConflictError: a entidade já existe (ex.: segunda configuração do evento).
type ConflictError struct {
	Entity string
	Key    string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %s já existe", e.Entity, e.Key)
}

// HTTPStatus devolve o status HTTP e um código estável para o erro.
func HTTPStatus(err error) (int, string) {
	var (
		validation  *ValidationError
		unresolved  *UnresolvedPriceError
		referential *ReferentialIntegrityError
		transition  *StateTransitionError
		collision   *IdentifierCollisionError
		notFound    *NotFoundError
		forbidden   *ForbiddenError
		conflict    *ConflictError
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest, "validation_error"
	case errors.As(err, &unresolved):
		return http.StatusUnprocessableEntity, "unresolved_price"
	case errors.As(err, &referential):
		return http.StatusConflict, "referential_integrity"
	case errors.As(err, &transition):
		return http.StatusConflict, "invalid_transition"
	case errors.As(err, &collision):
		return http.StatusServiceUnavailable, "identifier_collision"
	case errors.As(err, &notFound):
		return http.StatusNotFound, "not_found"
	case errors.As(err, &forbidden):
		return http.StatusForbidden, "forbidden"
	case errors.As(err, &conflict):
		return http.StatusConflict, "conflict"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// Details devolve os detalhes por campo de um ValidationError, se houver.
func Details(err error) map[string]string {
	var validation *ValidationError
	if errors.As(err, &validation) {
		return validation.Details
	}
	return nil
}
