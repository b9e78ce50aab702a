package server

import (
	"github.com/eventcontract/contract-api/internal/catalog"
	"github.com/eventcontract/contract-api/internal/commission"
	"github.com/eventcontract/contract-api/internal/contract"
	"github.com/eventcontract/contract-api/internal/contracttemplate"
	"github.com/eventcontract/contract-api/internal/iccontract"
	"github.com/eventcontract/contract-api/internal/identifier"
	"gorm.io/gorm"
)

// Models lista todas as tabelas do serviço na ordem de criação.
func Models() []any {
	var models []any
	models = append(models, catalog.Models()...)
	models = append(models, &commission.Rate{})
	models = append(models, iccontract.Models()...)
	models = append(models, contracttemplate.Models()...)
	models = append(models, contract.Models()...)
	models = append(models, identifier.Models()...)
	return models
}

// Migrate roda o AutoMigrate de todos os modelos.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
