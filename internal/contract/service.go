package contract

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/eventcontract/contract-api/internal/activitylog"
	"github.com/eventcontract/contract-api/internal/apperr"
	"github.com/eventcontract/contract-api/internal/auth"
	"github.com/eventcontract/contract-api/internal/catalog"
	"github.com/eventcontract/contract-api/internal/contracttemplate"
	"github.com/eventcontract/contract-api/internal/identifier"
	"github.com/eventcontract/contract-api/internal/lifecycle"
	"github.com/eventcontract/contract-api/internal/notification"
	"github.com/eventcontract/contract-api/internal/overlay"
	"github.com/eventcontract/contract-api/internal/pricing"
	"github.com/eventcontract/contract-api/internal/utils"
	"github.com/eventcontract/contract-api/internal/utils/db"
	"gorm.io/gorm"
)

// DefaultTTL quando a configuração não informa validade.
const DefaultTTL = 72 * time.Hour

// Service emite contratos a partir dos modelos e conduz o ciclo
// pending -> in_progress -> signed -> completed.
type Service struct {
	DB          *gorm.DB
	Codes       identifier.Codes
	MaxAttempts int
	TTL         time.Duration
	Notify      notification.Dispatcher
	Activity    activitylog.Recorder
	Now         func() time.Time
}

func NewService(gdb *gorm.DB, codes identifier.Codes, maxAttempts int, ttl time.Duration, notify notification.Dispatcher, activity activitylog.Recorder) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{DB: gdb, Codes: codes, MaxAttempts: maxAttempts, TTL: ttl, Notify: notify, Activity: activity, Now: time.Now}
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func (s *Service) record(ctx context.Context, p auth.Principal, action string, id uint, meta map[string]any) {
	if s.Activity != nil {
		s.Activity.Record(ctx, activitylog.Entry{Action: action, ActorID: p.ID, TargetType: "contract", TargetID: id, Metadata: meta})
	}
}

// checkValues valida valores contra os campos do modelo. Assinatura não
// entra por aqui.
func checkValues(t *contracttemplate.Template, values map[uint]string) (map[uint]string, error) {
	details := map[string]string{}
	out := make(map[uint]string, len(values))
	for id, v := range values {
		key := fmt.Sprintf("values.%d", id)
		f, ok := t.Field(id)
		if !ok {
			details[key] = "campo não pertence ao modelo"
			continue
		}
		if err := contracttemplate.ValidateValue(f, v); err != nil {
			details[key] = err.Error()
			continue
		}
		out[id] = strings.TrimSpace(v)
	}
	if len(details) > 0 {
		return nil, &apperr.ValidationError{Message: "valores inválidos", Details: details}
	}
	return out, nil
}

// Issue cria o contrato pendente com número, QR e código curto únicos.
// Em colisão os três são gerados de novo.
func (s *Service) Issue(ctx context.Context, p auth.Principal, templateID uint, in IssueInput) (*Contract, error) {
	var c Contract
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		t, err := contracttemplate.NewRepository(tx).FindByID(templateID)
		if err != nil {
			return err
		}
		if err := contracttemplate.Owns(p, t); err != nil {
			return err
		}
		values := map[uint]string{}
		for _, f := range t.Fields {
			if f.DefaultValue != nil && strings.TrimSpace(*f.DefaultValue) != "" {
				values[f.ID] = *f.DefaultValue
			}
		}
		for id, v := range in.Values {
			values[id] = v
		}
		values, err = checkValues(t, values)
		if err != nil {
			return err
		}

		now := s.now()
		c = Contract{
			TemplateID:    t.ID,
			EventID:       t.EventID,
			PartnerID:     t.PartnerID,
			CustomerID:    in.CustomerID,
			CustomerName:  strings.TrimSpace(in.CustomerName),
			CustomerPhone: strings.TrimSpace(in.CustomerPhone),
			Status:        lifecycle.StatusPending,
			ExpiresAt:     now.Add(s.TTL),
		}
		err = identifier.Issue(tx, "identificadores do contrato", s.MaxAttempts, func(tx *gorm.DB) error {
			number, err := s.Codes.ContractNumber(now)
			if err != nil {
				return err
			}
			code, err := s.Codes.ShortCode()
			if err != nil {
				return err
			}
			c.ID = 0
			c.ContractNumber, c.ShortCode, c.QRCode = number, code, s.Codes.QRToken()
			if err := tx.Create(&c).Error; err != nil {
				return err
			}
			return identifier.Reserve(tx, c.ShortCode, identifier.OwnerContract, c.ID)
		})
		if err != nil {
			return err
		}

		repo := NewRepository(tx)
		if err := repo.SaveValues(c.ID, values); err != nil {
			return err
		}
		return repo.AppendHistory(&History{ContractID: c.ID, Entry: lifecycle.Created(lifecycle.StatusPending, &p.ID, now)})
	})
	if err != nil {
		return nil, err
	}

	if c.CustomerID != nil {
		notification.Send(ctx, s.Notify, notification.Event{
			Type: notification.TypeContractIssued, TargetUserID: *c.CustomerID, RelatedType: "contract", RelatedID: c.ID,
		})
	}
	s.record(ctx, p, "contract.issue", c.ID, map[string]any{"contractNumber": c.ContractNumber, "templateId": templateID})
	return s.load(s.DB.WithContext(ctx), c.ID)
}

func (s *Service) load(gdb *gorm.DB, id uint) (*Contract, error) {
	c, err := NewRepository(gdb).FindByID(id)
	if err != nil {
		return nil, err
	}
	c.Expired = c.IsExpired(s.now())
	return c, nil
}

// canManage: parceiro emissor, organizador dono da configuração do evento,
// ou admin.
func canManage(tx *gorm.DB, p auth.Principal, c *Contract) error {
	switch {
	case p.IsAdmin():
		return nil
	case p.Role == auth.RolePartner && p.ID == c.PartnerID:
		return nil
	case p.Role == auth.RoleOrganizer:
		cfg, err := catalog.NewRepository(tx).FindConfigByEvent(c.EventID)
		if err == nil && cfg.OrganizerID == p.ID {
			return nil
		}
	}
	return apperr.Forbidden("contrato de outro parceiro")
}

// isCustomer: o cliente vinculado. Contrato sem cliente aceita qualquer
// cliente autenticado até ser aberto.
func isCustomer(p auth.Principal, c *Contract) error {
	if p.Role != auth.RoleCustomer {
		return apperr.Forbidden("apenas o cliente preenche e assina")
	}
	if c.CustomerID != nil && *c.CustomerID != p.ID {
		return apperr.Forbidden("contrato de outro cliente")
	}
	return nil
}

func canView(tx *gorm.DB, p auth.Principal, c *Contract) error {
	if p.Role == auth.RoleCustomer {
		if c.CustomerID != nil && *c.CustomerID == p.ID {
			return nil
		}
		return apperr.Forbidden("contrato de outro cliente")
	}
	return canManage(tx, p, c)
}

func (s *Service) notExpired(c *Contract) error {
	if c.IsExpired(s.now()) {
		return apperr.Validation("contrato %s expirou em %s", c.ContractNumber, c.ExpiresAt.Format(time.RFC3339))
	}
	return nil
}

// step descreve uma transição: quem pode, e o que mais gravar junto.
type step struct {
	to        lifecycle.Status
	reason    string
	authorize func(tx *gorm.DB, c *Contract) error
	apply     func(tx *gorm.DB, c *Contract, now time.Time, fields map[string]any) error
}

// move aplica a transição com o contrato travado, grava o histórico e
// devolve o contrato relido.
func (s *Service) move(ctx context.Context, p auth.Principal, id uint, st step) (*Contract, lifecycle.Entry, error) {
	var entry lifecycle.Entry
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := NewRepository(db.Lock(tx, "UPDATE")).FindByID(id)
		if err != nil {
			return err
		}
		if err := st.authorize(tx, c); err != nil {
			return err
		}
		now := s.now()
		entry, err = lifecycle.Transition(c.Status, st.to, strings.TrimSpace(st.reason), &p.ID, now)
		if err != nil {
			return err
		}
		fields := map[string]any{"status": st.to}
		if st.apply != nil {
			if err := st.apply(tx, c, now, fields); err != nil {
				return err
			}
		}
		repo := NewRepository(tx)
		ok, err := repo.UpdateStatus(id, c.Status, fields)
		if err != nil {
			return err
		}
		if !ok {
			return &apperr.StateTransitionError{From: string(c.Status), To: string(st.to)}
		}
		return repo.AppendHistory(&History{ContractID: id, Entry: entry})
	})
	if err != nil {
		return nil, entry, err
	}
	c, err := s.load(s.DB.WithContext(ctx), id)
	return c, entry, err
}

// Open: o cliente abriu o link. Reabrir o próprio contrato em
// preenchimento não muda nada.
func (s *Service) Open(ctx context.Context, p auth.Principal, id uint) (*Contract, error) {
	gdb := s.DB.WithContext(ctx)
	current, err := s.load(gdb, id)
	if err != nil {
		return nil, err
	}
	if current.Status == lifecycle.StatusInProgress && current.CustomerID != nil && *current.CustomerID == p.ID {
		if err := s.notExpired(current); err != nil {
			return nil, err
		}
		return current, nil
	}

	c, _, err := s.move(ctx, p, id, step{
		to: lifecycle.StatusInProgress,
		authorize: func(_ *gorm.DB, c *Contract) error {
			if err := isCustomer(p, c); err != nil {
				return err
			}
			return s.notExpired(c)
		},
		apply: func(_ *gorm.DB, c *Contract, now time.Time, fields map[string]any) error {
			fields["opened_at"] = now
			if c.CustomerID == nil {
				fields["customer_id"] = p.ID
			}
			if c.CustomerName == "" && p.Name != "" {
				fields["customer_name"] = p.Name
			}
			return nil
		},
	})
	if err != nil {
		return nil, err
	}
	s.record(ctx, p, "contract.open", id, nil)
	return c, nil
}

// SaveFields grava valores parciais; só enquanto em preenchimento.
func (s *Service) SaveFields(ctx context.Context, p auth.Principal, id uint, values map[uint]string) (*Contract, error) {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := NewRepository(db.Lock(tx, "UPDATE")).FindByID(id)
		if err != nil {
			return err
		}
		if err := isCustomer(p, c); err != nil {
			return err
		}
		if c.Status != lifecycle.StatusInProgress {
			return apperr.Validation("contrato em %s não aceita preenchimento", c.Status)
		}
		if err := s.notExpired(c); err != nil {
			return err
		}
		t, err := contracttemplate.NewRepository(tx).FindByID(c.TemplateID)
		if err != nil {
			return err
		}
		clean, err := checkValues(t, values)
		if err != nil {
			return err
		}
		return NewRepository(tx).SaveValues(id, clean)
	})
	if err != nil {
		return nil, err
	}
	s.record(ctx, p, "contract.fields", id, map[string]any{"fields": len(values)})
	return s.load(s.DB.WithContext(ctx), id)
}

// Sign congela os valores: confere obrigatórios, calcula o total pelo
// primeiro campo de valor e grava o digest do que foi assinado.
func (s *Service) Sign(ctx context.Context, p auth.Principal, id uint, in SignInput) (*Contract, error) {
	in.SignatureFileID = strings.TrimSpace(in.SignatureFileID)
	if in.SignatureFileID == "" && strings.TrimSpace(in.SignatureData) == "" {
		return nil, apperr.Validation("assinatura obrigatória")
	}
	c, _, err := s.move(ctx, p, id, step{
		to: lifecycle.StatusSigned,
		authorize: func(_ *gorm.DB, c *Contract) error {
			if err := isCustomer(p, c); err != nil {
				return err
			}
			return s.notExpired(c)
		},
		apply: func(tx *gorm.DB, c *Contract, now time.Time, fields map[string]any) error {
			t, err := contracttemplate.NewRepository(tx).FindByID(c.TemplateID)
			if err != nil {
				return err
			}
			latest, err := checkValues(t, in.Values)
			if err != nil {
				return err
			}
			if err := NewRepository(tx).SaveValues(c.ID, latest); err != nil {
				return err
			}
			values := c.Values()
			for k, v := range latest {
				values[k] = v
			}
			if err := checkRequired(t, values); err != nil {
				return err
			}

			total := firstAmount(t, values)
			digest, err := utils.Digest(signedPayload{
				ContractNumber:  c.ContractNumber,
				TemplateID:      c.TemplateID,
				Values:          values,
				TotalAmount:     total,
				SignatureFileID: in.SignatureFileID,
				SignatureData:   in.SignatureData,
				SignedAt:        now.UTC().Format(time.RFC3339Nano),
			})
			if err != nil {
				return err
			}
			fields["signed_at"] = now
			fields["signature_file_id"] = in.SignatureFileID
			fields["signature_data"] = in.SignatureData
			fields["signature_digest"] = digest
			fields["total_amount"] = total
			if c.CustomerID == nil {
				fields["customer_id"] = p.ID
			}
			return nil
		},
	})
	if err != nil {
		return nil, err
	}
	notification.Send(ctx, s.Notify, notification.Event{
		Type: notification.TypeContractSigned, TargetUserID: c.PartnerID, RelatedType: "contract", RelatedID: id,
	})
	s.record(ctx, p, "contract.sign", id, map[string]any{"digest": c.SignatureDigest})
	return c, nil
}

func checkRequired(t *contracttemplate.Template, values map[uint]string) error {
	details := map[string]string{}
	for _, f := range t.Fields {
		if f.IsRequired && f.FieldType != contracttemplate.FieldSignature && strings.TrimSpace(values[f.ID]) == "" {
			details[fmt.Sprintf("values.%d", f.ID)] = fmt.Sprintf("%s é obrigatório", f.Label)
		}
	}
	if len(details) > 0 {
		return &apperr.ValidationError{Message: "campos obrigatórios em branco", Details: details}
	}
	return nil
}

// firstAmount: o primeiro campo amount (na ordem do modelo) com valor
// positivo vira o total do contrato.
func firstAmount(t *contracttemplate.Template, values map[uint]string) *int64 {
	for _, f := range t.Fields {
		if f.FieldType != contracttemplate.FieldAmount {
			continue
		}
		if n, ok := pricing.ParseAmount(values[f.ID]); ok {
			return &n
		}
	}
	return nil
}

// Complete é a confirmação final depois da assinatura.
func (s *Service) Complete(ctx context.Context, p auth.Principal, id uint) (*Contract, error) {
	c, _, err := s.move(ctx, p, id, step{
		to:        lifecycle.StatusCompleted,
		authorize: func(tx *gorm.DB, c *Contract) error { return canManage(tx, p, c) },
		apply: func(_ *gorm.DB, _ *Contract, now time.Time, fields map[string]any) error {
			fields["completed_at"] = now
			return nil
		},
	})
	if err != nil {
		return nil, err
	}
	s.notifyCustomer(ctx, c, notification.TypeContractCompleted)
	s.record(ctx, p, "contract.complete", id, nil)
	return c, nil
}

func (s *Service) Cancel(ctx context.Context, p auth.Principal, id uint, reason string) (*Contract, error) {
	c, entry, err := s.move(ctx, p, id, step{
		to:        lifecycle.StatusCancelled,
		reason:    reason,
		authorize: func(tx *gorm.DB, c *Contract) error { return canManage(tx, p, c) },
		apply: func(_ *gorm.DB, _ *Contract, now time.Time, fields map[string]any) error {
			fields["cancelled_at"] = now
			fields["cancel_reason"] = strings.TrimSpace(reason)
			return nil
		},
	})
	if err != nil {
		return nil, err
	}
	s.notifyCustomer(ctx, c, notification.TypeContractCancelled)
	s.record(ctx, p, "contract.cancel", id, map[string]any{"from": entry.FromStatus, "reason": entry.Reason})
	return c, nil
}

func (s *Service) notifyCustomer(ctx context.Context, c *Contract, typ string) {
	if c.CustomerID == nil {
		return
	}
	notification.Send(ctx, s.Notify, notification.Event{Type: typ, TargetUserID: *c.CustomerID, RelatedType: "contract", RelatedID: c.ID})
}

// AttachSignedFile registra o arquivo renderizado depois da assinatura.
func (s *Service) AttachSignedFile(ctx context.Context, p auth.Principal, id uint, fileID string) (*Contract, error) {
	gdb := s.DB.WithContext(ctx)
	c, err := NewRepository(gdb).FindByID(id)
	if err != nil {
		return nil, err
	}
	if err := canManage(gdb, p, c); err != nil {
		return nil, err
	}
	if c.Status != lifecycle.StatusSigned && c.Status != lifecycle.StatusCompleted {
		return nil, apperr.Validation("contrato em %s ainda não foi assinado", c.Status)
	}
	if err := NewRepository(gdb).UpdateFields(id, map[string]any{"signed_pdf_file_id": strings.TrimSpace(fileID)}); err != nil {
		return nil, err
	}
	s.record(ctx, p, "contract.signed_file", id, map[string]any{"fileId": fileID})
	return s.load(gdb, id)
}

func (s *Service) Get(ctx context.Context, p auth.Principal, id uint) (*Contract, error) {
	gdb := s.DB.WithContext(ctx)
	c, err := s.load(gdb, id)
	if err != nil {
		return nil, err
	}
	if err := canView(gdb, p, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Layout monta o overlay do contrato sobre as páginas do modelo.
func (s *Service) Layout(ctx context.Context, p auth.Principal, id uint) (*LayoutView, error) {
	c, err := s.Get(ctx, p, id)
	if err != nil {
		return nil, err
	}
	t, err := contracttemplate.NewRepository(s.DB.WithContext(ctx)).FindByID(c.TemplateID)
	if err != nil {
		return nil, err
	}
	var sig *overlay.Signature
	if c.SignatureFileID != "" || c.SignatureData != "" {
		sig = &overlay.Signature{FileID: c.SignatureFileID, Data: c.SignatureData}
	}
	return &LayoutView{
		ContractID: c.ID,
		FileID:     t.FileID,
		FileType:   t.FileType,
		PageCount:  t.PageCount,
		Layout:     overlay.Build(t.Fields, c.Values(), sig),
	}, nil
}

// ListByTemplate: contratos emitidos sobre um modelo, para o dono.
func (s *Service) ListByTemplate(ctx context.Context, p auth.Principal, templateID uint, status string) ([]Contract, error) {
	gdb := s.DB.WithContext(ctx)
	t, err := contracttemplate.NewRepository(gdb).FindByID(templateID)
	if err != nil {
		return nil, err
	}
	if err := contracttemplate.Owns(p, t); err != nil {
		return nil, err
	}
	list, err := NewRepository(gdb).ListByTemplate(templateID, status)
	if err != nil {
		return nil, err
	}
	s.markExpired(list)
	return list, nil
}

func (s *Service) ListMine(ctx context.Context, p auth.Principal) ([]Contract, error) {
	list, err := NewRepository(s.DB.WithContext(ctx)).ListByCustomer(p.ID)
	if err != nil {
		return nil, err
	}
	s.markExpired(list)
	return list, nil
}

func (s *Service) markExpired(list []Contract) {
	now := s.now()
	for i := range list {
		list[i].Expired = list[i].IsExpired(now)
	}
}
