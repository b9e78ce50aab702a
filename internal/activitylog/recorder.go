// Package activitylog registra uma entrada por chamada que altera estado.
// A gravação definitiva é de outro serviço; aqui só emitimos.
package activitylog

import (
	"context"
	"log/slog"
	"sync"
)

// Entry de atividade.
type Entry struct {
	Action     string         `json:"action"`
	ActorID    uint           `json:"actorId"`
	TargetType string         `json:"targetType"`
	TargetID   uint           `json:"targetId"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

type Recorder interface {
	Record(ctx context.Context, e Entry)
}

// SlogRecorder escreve as entradas como log estruturado.
type SlogRecorder struct {
	Logger *slog.Logger
}

func NewSlogRecorder(logger *slog.Logger) *SlogRecorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogRecorder{Logger: logger}
}

func (r *SlogRecorder) Record(ctx context.Context, e Entry) {
	r.Logger.InfoContext(ctx, "activity",
		slog.String("action", e.Action),
		slog.Uint64("actorId", uint64(e.ActorID)),
		slog.String("targetType", e.TargetType),
		slog.Uint64("targetId", uint64(e.TargetID)),
		slog.Any("metadata", e.Metadata),
	)
}

// Memory guarda as entradas; usado em testes.
type Memory struct {
	mu      sync.Mutex
	entries []Entry
}

func (m *Memory) Record(_ context.Context, e Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
}

func (m *Memory) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Entry(nil), m.entries...)
}

// Actions devolve só os nomes das ações, na ordem.
func (m *Memory) Actions() []string {
	var out []string
	for _, e := range m.Entries() {
		out = append(out, e.Action)
	}
	return out
}
