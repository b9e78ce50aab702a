package db

import (
	"context"

	"github.com/eventcontract/contract-api/internal/config"
	"gorm.io/gorm"
)

// GetDB resolve as credenciais (env ou Secrets Manager) e conecta.
func GetDB(ctx context.Context, cfg config.Config) (*gorm.DB, error) {
	username, password, err := retrieveCredentials(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return ConnectDataBase(cfg.DBPort, cfg.DBHost, cfg.DBName, username, password, cfg.DBSSLModeDisabled)
}
