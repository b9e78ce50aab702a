package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/eventcontract/contract-api/internal/config"
)

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// retrieveCredentials usa DB_USERNAME/DB_PASSWORD quando presentes; senão
// busca o segredo DB_SECRET_ID no Secrets Manager.
func retrieveCredentials(ctx context.Context, cfg config.Config) (string, string, error) {
	if cfg.DBUsername != "" && cfg.DBPassword != "" {
		return cfg.DBUsername, cfg.DBPassword, nil
	}
	if cfg.DBSecretID == "" {
		return "", "", errors.New("db: defina DB_USERNAME/DB_PASSWORD ou DB_SECRET_ID")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return "", "", fmt.Errorf("db: carregar config aws: %w", err)
	}
	secrets := secretsmanager.NewFromConfig(awsCfg)
	result, err := secrets.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId:     aws.String(cfg.DBSecretID),
		VersionStage: aws.String("AWSCURRENT"),
	})
	if err != nil {
		return "", "", fmt.Errorf("db: ler segredo %s: %w", cfg.DBSecretID, err)
	}
	if result.SecretString == nil {
		return "", "", fmt.Errorf("db: segredo %s sem SecretString", cfg.DBSecretID)
	}
	return parseCredentials([]byte(*result.SecretString))
}

func parseCredentials(raw []byte) (string, string, error) {
	var secret Credentials
	if err := json.Unmarshal(raw, &secret); err != nil {
		return "", "", fmt.Errorf("db: segredo inválido: %w", err)
	}
	if secret.Username == "" || secret.Password == "" {
		return "", "", errors.New("db: segredo sem username/password")
	}
	return secret.Username, secret.Password, nil
}
