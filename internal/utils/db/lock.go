package db

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Lock acrescenta FOR <strength> às consultas feitas sobre o *gorm.DB
// devolvido, no Postgres. O retorno é uma sessão: cada consulta parte de uma
// cópia do statement com o lock, então o mesmo valor serve para várias
// leituras. No SQLite dos testes a transação já é serializada e a cláusula
// não existe.
func Lock(tx *gorm.DB, strength string) *gorm.DB {
	if tx.Dialector.Name() != "postgres" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: strength}).Session(&gorm.Session{})
}
