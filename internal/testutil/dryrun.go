package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SQLLog guarda o SQL montado pelo gorm, na ordem.
type SQLLog struct {
	mu         sync.Mutex
	statements []string
}

func (l *SQLLog) LogMode(logger.LogLevel) logger.Interface { return l }

func (l *SQLLog) Info(context.Context, string, ...any) {}
func (l *SQLLog) Warn(context.Context, string, ...any) {}
func (l *SQLLog) Error(context.Context, string, ...any) {}

func (l *SQLLog) Trace(_ context.Context, _ time.Time, fc func() (string, int64), _ error) {
	sql, _ := fc()
	l.mu.Lock()
	defer l.mu.Unlock()
	l.statements = append(l.statements, sql)
}

// Statements devolve uma cópia do que foi registrado.
func (l *SQLLog) Statements() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.statements...)
}

// NewPostgresDryRun abre o dialeto Postgres em DryRun, sem conexão: as
// consultas só são montadas e registradas no SQLLog.
func NewPostgresDryRun(t testing.TB) (*gorm.DB, *SQLLog) {
	t.Helper()
	log := &SQLLog{}
	db, err := gorm.Open(postgres.New(postgres.Config{DSN: "host=localhost user=test dbname=test sslmode=disable"}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
		Logger:               log,
	})
	if err != nil {
		t.Fatalf("open postgres dry run: %v", err)
	}
	return db, log
}
