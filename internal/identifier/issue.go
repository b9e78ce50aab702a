package identifier

import (
	"errors"
	"fmt"
	"strings"

	"github.com/eventcontract/contract-api/internal/apperr"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// DefaultMaxAttempts quando a configuração não informa.
const DefaultMaxAttempts = 8

// Issue roda try dentro de um savepoint; se o insert bater em unique,
// volta ao savepoint e tenta de novo com candidatos novos (try é quem gera).
// Só devolve IdentifierCollisionError depois de maxAttempts colisões.
// tx precisa ser uma transação aberta.
func Issue(tx *gorm.DB, kind string, maxAttempts int, try func(tx *gorm.DB) error) error {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		sp := fmt.Sprintf("identifier_%d", attempt)
		if err := tx.SavePoint(sp).Error; err != nil {
			return err
		}
		err := try(tx)
		if err == nil {
			return nil
		}
		if !IsDuplicate(err) {
			return err
		}
		if rbErr := tx.RollbackTo(sp).Error; rbErr != nil {
			return rbErr
		}
	}
	return &apperr.IdentifierCollisionError{Kind: kind, Attempts: maxAttempts}
}

// IsDuplicate reconhece violação de unique no Postgres e no SQLite, com ou
// sem TranslateError.
func IsDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
