package iccontract

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/eventcontract/contract-api/internal/activitylog"
	"github.com/eventcontract/contract-api/internal/apperr"
	"github.com/eventcontract/contract-api/internal/auth"
	"github.com/eventcontract/contract-api/internal/catalog"
	"github.com/eventcontract/contract-api/internal/commission"
	"github.com/eventcontract/contract-api/internal/identifier"
	"github.com/eventcontract/contract-api/internal/lifecycle"
	"github.com/eventcontract/contract-api/internal/notification"
	"github.com/eventcontract/contract-api/internal/paymentschedule"
	"github.com/eventcontract/contract-api/internal/selection"
	"github.com/eventcontract/contract-api/internal/utils"
	"github.com/eventcontract/contract-api/internal/utils/db"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Service cria e movimenta contratos integrados.
type Service struct {
	DB          *gorm.DB
	Codes       identifier.Codes
	MaxAttempts int
	Notify      notification.Dispatcher
	Activity    activitylog.Recorder
	Now         func() time.Time
}

func NewService(gdb *gorm.DB, codes identifier.Codes, maxAttempts int, notify notification.Dispatcher, activity activitylog.Recorder) *Service {
	return &Service{DB: gdb, Codes: codes, MaxAttempts: maxAttempts, Notify: notify, Activity: activity, Now: time.Now}
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func (s *Service) record(ctx context.Context, p auth.Principal, action string, id uint, meta map[string]any) {
	if s.Activity != nil {
		s.Activity.Record(ctx, activitylog.Entry{Action: action, ActorID: p.ID, TargetType: "ic_contract", TargetID: id, Metadata: meta})
	}
}

// Quote roda agregação e cronograma sem gravar nada.
func (s *Service) Quote(ctx context.Context, configID uint, in QuoteInput) (*Quote, error) {
	repo := catalog.NewRepository(s.DB.WithContext(ctx))
	snap, err := repo.LoadSnapshot(configID, selection.SheetIDs(in.Items), false)
	if err != nil {
		return nil, err
	}
	res, err := selection.Aggregate(snap, in.ApartmentTypeID, in.Items)
	if err != nil {
		return nil, err
	}
	return &Quote{Result: *res, PaymentSchedule: paymentschedule.Allocate(res.Total, snap.Config.Stages())}, nil
}

// Create valida a seleção contra o catálogo lido dentro da própria
// transação, calcula o cronograma e grava o contrato já assinado com um
// código curto único. Ou grava tudo, ou nada.
func (s *Service) Create(ctx context.Context, p auth.Principal, configID uint, in CreateInput) (*IcContract, error) {
	if !in.LegalAgreed {
		return nil, apperr.Validation("é preciso aceitar os termos")
	}
	if strings.TrimSpace(in.SignatureData) == "" {
		return nil, apperr.Validation("assinatura obrigatória")
	}

	var contract IcContract
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		snap, err := catalog.NewRepository(tx).LoadSnapshot(configID, selection.SheetIDs(in.Items), true)
		if err != nil {
			return err
		}
		res, err := selection.Aggregate(snap, in.ApartmentTypeID, in.Items)
		if err != nil {
			return err
		}
		schedule := paymentschedule.Allocate(res.Total, snap.Config.Stages())
		if err := checkTotals(res, schedule); err != nil {
			return err
		}

		now := s.now()
		contract = IcContract{
			ConfigID:          configID,
			EventID:           snap.Config.EventID,
			ApartmentTypeID:   in.ApartmentTypeID,
			ApartmentTypeName: snap.Types[in.ApartmentTypeID].Name,
			CustomerName:      strings.TrimSpace(in.CustomerName),
			CustomerPhone:     strings.TrimSpace(in.CustomerPhone),
			Status:            lifecycle.StatusSigned,
			SelectedItems:     datatypes.NewJSONType(res.Items),
			TotalAmount:       res.Total,
			PaymentSchedule:   datatypes.NewJSONType(schedule),
			LegalAgreed:       true,
			LegalTerms:        snap.Config.LegalTerms,
			SignatureData:     in.SignatureData,
			SpecialNotes:      in.SpecialNotes,
			SignedAt:          &now,
		}
		if p.Role == auth.RoleCustomer {
			contract.CustomerID = &p.ID
		}
		contract.SignatureDigest, err = utils.Digest(signedPayload{
			ConfigID:        configID,
			ApartmentTypeID: in.ApartmentTypeID,
			CustomerName:    contract.CustomerName,
			CustomerPhone:   contract.CustomerPhone,
			Items:           res.Items,
			TotalAmount:     res.Total,
			PaymentSchedule: schedule,
			LegalTerms:      snap.Config.LegalTerms,
			SignatureData:   in.SignatureData,
			SignedAt:        now.UTC().Format(time.RFC3339Nano),
		})
		if err != nil {
			return err
		}

		err = identifier.Issue(tx, "código curto", s.MaxAttempts, func(tx *gorm.DB) error {
			code, err := s.Codes.ShortCode()
			if err != nil {
				return err
			}
			contract.ID = 0
			contract.ShortCode = code
			if err := tx.Create(&contract).Error; err != nil {
				return err
			}
			return identifier.Reserve(tx, contract.ShortCode, identifier.OwnerIcContract, contract.ID)
		})
		if err != nil {
			return err
		}

		entry := lifecycle.Created(lifecycle.StatusSigned, &p.ID, now)
		return NewRepository(tx).AppendHistory(&IcContractHistory{ContractID: contract.ID, Entry: entry})
	})
	if err != nil {
		return nil, err
	}

	for _, partnerID := range partnerIDs(contract.Items()) {
		notification.Send(ctx, s.Notify, notification.Event{
			Type: notification.TypeIcContractSigned, TargetUserID: partnerID, RelatedType: "ic_contract", RelatedID: contract.ID,
		})
	}
	s.record(ctx, p, "ic_contract.create", contract.ID, map[string]any{
		"shortCode": contract.ShortCode, "totalAmount": contract.TotalAmount, "items": len(in.Items),
	})
	return NewRepository(s.DB.WithContext(ctx)).FindByID(contract.ID)
}

// checkTotals confere total = soma dos itens = soma do cronograma.
func checkTotals(res *selection.Result, schedule []paymentschedule.Installment) error {
	var sum int64
	for _, it := range res.Items {
		sum += it.UnitPrice
	}
	if sum != res.Total || paymentschedule.Total(schedule) != res.Total {
		return errors.New("iccontract: total divergente dos itens ou do cronograma")
	}
	return nil
}

func partnerIDs(items []selection.Item) []uint {
	var ids []uint
	for _, it := range items {
		if !slices.Contains(ids, it.PartnerID) {
			ids = append(ids, it.PartnerID)
		}
	}
	return ids
}

// canManage: organizador da configuração ou admin.
func (s *Service) canManage(tx *gorm.DB, p auth.Principal, configID uint) error {
	if p.IsAdmin() {
		return nil
	}
	cfg, err := catalog.NewRepository(tx).FindConfig(configID)
	if err != nil {
		return err
	}
	if p.Role == auth.RoleOrganizer && p.ID == cfg.OrganizerID {
		return nil
	}
	return apperr.Forbidden("contrato de outro organizador")
}

// canView: cliente dono, parceiro com item no contrato, organizador ou admin.
func (s *Service) canView(tx *gorm.DB, p auth.Principal, c *IcContract) error {
	switch p.Role {
	case auth.RoleCustomer:
		if c.CustomerID != nil && *c.CustomerID == p.ID {
			return nil
		}
	case auth.RolePartner:
		if slices.Contains(partnerIDs(c.Items()), p.ID) {
			return nil
		}
	default:
		return s.canManage(tx, p, c.ConfigID)
	}
	return apperr.Forbidden("contrato de outro usuário")
}

// UpdateStatus leva o contrato a completed ou cancelled, com histórico.
func (s *Service) UpdateStatus(ctx context.Context, p auth.Principal, id uint, to lifecycle.Status, reason string) (*IcContract, error) {
	var entry lifecycle.Entry
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := NewRepository(db.Lock(tx, "UPDATE"))
		c, err := repo.FindByID(id)
		if err != nil {
			return err
		}
		if err := s.canManage(tx, p, c.ConfigID); err != nil {
			return err
		}
		now := s.now()
		entry, err = lifecycle.Transition(c.Status, to, strings.TrimSpace(reason), &p.ID, now)
		if err != nil {
			return err
		}

		fields := map[string]any{"status": to}
		switch to {
		case lifecycle.StatusCompleted:
			fields["completed_at"] = now
		case lifecycle.StatusCancelled:
			fields["cancelled_at"] = now
			fields["cancel_reason"] = entry.Reason
		default:
			return &apperr.StateTransitionError{From: string(c.Status), To: string(to)}
		}
		repo = NewRepository(tx)
		ok, err := repo.UpdateStatus(id, c.Status, fields)
		if err != nil {
			return err
		}
		if !ok {
			return &apperr.StateTransitionError{From: string(c.Status), To: string(to)}
		}
		return repo.AppendHistory(&IcContractHistory{ContractID: id, Entry: entry})
	})
	if err != nil {
		return nil, err
	}

	c, err := NewRepository(s.DB.WithContext(ctx)).FindByID(id)
	if err != nil {
		return nil, err
	}
	if c.CustomerID != nil {
		notification.Send(ctx, s.Notify, notification.Event{
			Type: notification.TypeIcContractStatus, TargetUserID: *c.CustomerID, RelatedType: "ic_contract", RelatedID: id,
		})
	}
	s.record(ctx, p, "ic_contract.status", id, map[string]any{"from": entry.FromStatus, "to": to, "reason": entry.Reason})
	return c, nil
}

func (s *Service) Get(ctx context.Context, p auth.Principal, id uint) (*IcContract, error) {
	gdb := s.DB.WithContext(ctx)
	c, err := NewRepository(gdb).FindByID(id)
	if err != nil {
		return nil, err
	}
	if err := s.canView(gdb, p, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) GetByCode(ctx context.Context, p auth.Principal, code string) (*IcContract, error) {
	gdb := s.DB.WithContext(ctx)
	c, err := NewRepository(gdb).FindByShortCode(identifier.Normalize(code))
	if err != nil {
		return nil, err
	}
	if err := s.canView(gdb, p, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) ListByConfig(ctx context.Context, p auth.Principal, configID uint, status string) ([]IcContract, error) {
	gdb := s.DB.WithContext(ctx)
	if err := s.canManage(gdb, p, configID); err != nil {
		return nil, err
	}
	return NewRepository(gdb).ListByConfig(configID, status)
}

func (s *Service) ListMine(ctx context.Context, p auth.Principal) ([]IcContract, error) {
	return NewRepository(s.DB.WithContext(ctx)).ListByCustomer(p.ID)
}

// Commission detalha a comissão de um contrato com as taxas atuais.
func (s *Service) Commission(ctx context.Context, p auth.Principal, id uint) (*commission.Breakdown, error) {
	gdb := s.DB.WithContext(ctx)
	c, err := NewRepository(gdb).FindByID(id)
	if err != nil {
		return nil, err
	}
	if err := s.canManage(gdb, p, c.ConfigID); err != nil {
		return nil, err
	}
	rates, err := commission.NewRepository(gdb).RateMap(c.ConfigID)
	if err != nil {
		return nil, err
	}
	b := commission.Calculate(c.Items(), rates)
	return &b, nil
}

// Report soma a comissão de todos os contratos não cancelados.
func (s *Service) Report(ctx context.Context, p auth.Principal, configID uint) (*commission.Breakdown, error) {
	gdb := s.DB.WithContext(ctx)
	if err := s.canManage(gdb, p, configID); err != nil {
		return nil, err
	}
	list, err := NewRepository(gdb).ListForReport(configID)
	if err != nil {
		return nil, err
	}
	rates, err := commission.NewRepository(gdb).RateMap(configID)
	if err != nil {
		return nil, err
	}
	breakdowns := make([]commission.Breakdown, 0, len(list))
	for _, c := range list {
		breakdowns = append(breakdowns, commission.Calculate(c.Items(), rates))
	}
	b := commission.Sum(breakdowns)
	return &b, nil
}
