// Package lifecycle é a máquina de estados comum aos contratos de modelo e
// aos contratos integrados.
package lifecycle

import (
	"time"

	"github.com/eventcontract/contract-api/internal/apperr"
)

// Status de contrato.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusSigned     Status = "signed"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

var transitions = map[Status][]Status{
	StatusPending:    {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusSigned, StatusCancelled},
	StatusSigned:     {StatusCompleted, StatusCancelled},
}

// Valid diz se s é um status conhecido.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusSigned, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal: completed e cancelled não saem mais do lugar.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Open: ainda não assinado (pendente ou em preenchimento).
func (s Status) Open() bool {
	return s == StatusPending || s == StatusInProgress
}

// CanTransition diz se from -> to é permitido.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Check devolve StateTransitionError quando from -> to não é permitido.
func Check(from, to Status) error {
	if !CanTransition(from, to) {
		return &apperr.StateTransitionError{From: string(from), To: string(to)}
	}
	return nil
}

// Entry é uma linha do histórico append-only. Cada tipo de contrato grava
// numa tabela própria, mas com esta forma.
type Entry struct {
	FromStatus Status    `gorm:"size:20" json:"fromStatus"`
	ToStatus   Status    `gorm:"size:20;not null" json:"toStatus"`
	Reason     string    `gorm:"type:text" json:"reason,omitempty"`
	ActorID    *uint     `json:"actorId,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Transition valida a mudança e devolve a entrada de histórico a gravar.
// Cancelamento exige motivo.
func Transition(from, to Status, reason string, actorID *uint, now time.Time) (Entry, error) {
	if err := Check(from, to); err != nil {
		return Entry{}, err
	}
	if to == StatusCancelled && reason == "" {
		return Entry{}, apperr.Validation("motivo do cancelamento é obrigatório")
	}
	return Entry{FromStatus: from, ToStatus: to, Reason: reason, ActorID: actorID, CreatedAt: now}, nil
}

// Created é a entrada inicial de um contrato recém-criado.
func Created(status Status, actorID *uint, now time.Time) Entry {
	return Entry{ToStatus: status, ActorID: actorID, CreatedAt: now}
}
