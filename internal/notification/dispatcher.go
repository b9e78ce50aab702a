// Package notification emite eventos lógicos de notificação. A entrega
// (e-mail, alim-talk, push) é de outro serviço.
package notification

import (
	"context"
	"log/slog"
	"sync"
)

// Tipos de evento.
const (
	TypeContractIssued    = "contract.issued"
	TypeContractSigned    = "contract.signed"
	TypeContractCompleted = "contract.completed"
	TypeContractCancelled = "contract.cancelled"
	TypeIcContractSigned  = "ic_contract.signed"
	TypeIcContractStatus  = "ic_contract.status_changed"
)

// Event lógico de notificação.
type Event struct {
	Type         string `json:"type"`
	TargetUserID uint   `json:"targetUserId"`
	RelatedType  string `json:"relatedType"`
	RelatedID    uint   `json:"relatedId"`
}

type Dispatcher interface {
	Dispatch(ctx context.Context, e Event) error
}

// Send dispara e só registra falha: a entrega não desfaz a operação que já
// foi confirmada no banco.
func Send(ctx context.Context, d Dispatcher, e Event) {
	if d == nil || e.TargetUserID == 0 {
		return
	}
	if err := d.Dispatch(ctx, e); err != nil {
		slog.WarnContext(ctx, "notification dispatch failed", "type", e.Type, "relatedId", e.RelatedID, "err", err)
	}
}

// LogDispatcher só loga; usado quando não há webhook configurado.
type LogDispatcher struct{}

func (LogDispatcher) Dispatch(ctx context.Context, e Event) error {
	slog.InfoContext(ctx, "notification", "type", e.Type, "targetUserId", e.TargetUserID,
		"relatedType", e.RelatedType, "relatedId", e.RelatedID)
	return nil
}

// Memory guarda os eventos; usado em testes.
type Memory struct {
	mu     sync.Mutex
	events []Event
}

func (m *Memory) Dispatch(_ context.Context, e Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return nil
}

func (m *Memory) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Event(nil), m.events...)
}
