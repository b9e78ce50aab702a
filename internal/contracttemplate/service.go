package contracttemplate

import (
	"context"
	"fmt"
	"strings"

	"github.com/eventcontract/contract-api/internal/activitylog"
	"github.com/eventcontract/contract-api/internal/apperr"
	"github.com/eventcontract/contract-api/internal/auth"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Service mantém os modelos de contrato dos parceiros.
type Service struct {
	Repo     *Repository
	Activity activitylog.Recorder
}

func NewService(repo *Repository, activity activitylog.Recorder) *Service {
	return &Service{Repo: repo, Activity: activity}
}

func (s *Service) repo(ctx context.Context) *Repository {
	return NewRepository(s.Repo.DB.WithContext(ctx))
}

func (s *Service) record(ctx context.Context, p auth.Principal, action string, id uint, meta map[string]any) {
	if s.Activity != nil {
		s.Activity.Record(ctx, activitylog.Entry{Action: action, ActorID: p.ID, TargetType: "contract_template", TargetID: id, Metadata: meta})
	}
}

// Owns: o parceiro dono do modelo, ou admin.
func Owns(p auth.Principal, t *Template) error {
	if p.IsAdmin() || (p.Role == auth.RolePartner && p.ID == t.PartnerID) {
		return nil
	}
	return apperr.Forbidden("modelo pertence a outro parceiro")
}

func normalize(in TemplateInput) TemplateInput {
	in.Name = strings.TrimSpace(in.Name)
	if in.FileType == "" {
		in.FileType = FileImage
	}
	if in.PageCount == 0 {
		in.PageCount = 1
	}
	return in
}

func (s *Service) Create(ctx context.Context, p auth.Principal, eventID uint, in TemplateInput) (*Template, error) {
	if p.Role != auth.RolePartner {
		return nil, apperr.Forbidden("apenas parceiros criam modelos")
	}
	in = normalize(in)
	t := &Template{EventID: eventID, PartnerID: p.ID, Name: in.Name, FileID: in.FileID, FileType: in.FileType, PageCount: in.PageCount}
	if err := s.repo(ctx).Create(t); err != nil {
		return nil, err
	}
	s.record(ctx, p, "contract_template.create", t.ID, map[string]any{"eventId": eventID})
	return t, nil
}

func (s *Service) Get(ctx context.Context, id uint) (*Template, error) {
	return s.repo(ctx).FindByID(id)
}

// ListByEvent: parceiros veem só os próprios modelos.
func (s *Service) ListByEvent(ctx context.Context, p auth.Principal, eventID uint) ([]Template, error) {
	var partnerID uint
	if p.Role == auth.RolePartner {
		partnerID = p.ID
	}
	return s.repo(ctx).ListByEvent(eventID, partnerID)
}

func (s *Service) Update(ctx context.Context, p auth.Principal, id uint, in TemplateInput) (*Template, error) {
	repo := s.repo(ctx)
	t, err := repo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if err := Owns(p, t); err != nil {
		return nil, err
	}
	in = normalize(in)
	for _, f := range t.Fields {
		if f.PageNumber > in.PageCount {
			return nil, apperr.Validation("campo %q está na página %d, além de %d páginas", f.Label, f.PageNumber, in.PageCount)
		}
	}
	t.Name, t.FileID, t.FileType, t.PageCount = in.Name, in.FileID, in.FileType, in.PageCount
	if err := repo.UpdateMeta(t); err != nil {
		return nil, err
	}
	s.record(ctx, p, "contract_template.update", id, nil)
	return t, nil
}

// ReplaceFields troca a lista inteira de campos. Remover campo que já tem
// valor preenchido em algum contrato é recusado.
func (s *Service) ReplaceFields(ctx context.Context, p auth.Principal, id uint, in []FieldInput) (*Template, error) {
	var out *Template
	err := s.Repo.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := NewRepository(tx)
		t, err := repo.FindByID(id)
		if err != nil {
			return err
		}
		if err := Owns(p, t); err != nil {
			return err
		}
		fields, err := buildFields(t, in)
		if err != nil {
			return err
		}

		keep := map[uint]bool{}
		var keepIDs []uint
		for _, f := range fields {
			if f.ID != 0 {
				keep[f.ID] = true
				keepIDs = append(keepIDs, f.ID)
			}
		}
		var removed []uint
		for _, f := range t.Fields {
			if !keep[f.ID] {
				removed = append(removed, f.ID)
			}
		}
		n, err := repo.CountStoredValues(removed)
		if err != nil {
			return err
		}
		if n > 0 {
			return &apperr.ReferentialIntegrityError{Entity: "campo do modelo", ID: removed[0], Referrer: "valores preenchidos", References: n}
		}
		if err := repo.DeleteFieldsExcept(t.ID, keepIDs); err != nil {
			return err
		}
		for i := range fields {
			f := &fields[i]
			if f.ID != 0 {
				err = tx.Save(f).Error
			} else {
				err = tx.Create(f).Error
			}
			if err != nil {
				return err
			}
		}
		out, err = repo.FindByID(t.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.record(ctx, p, "contract_template.fields", id, map[string]any{"fields": len(in)})
	return out, nil
}

func buildFields(t *Template, in []FieldInput) ([]Field, error) {
	details := map[string]string{}
	seen := map[uint]bool{}
	signatures := 0
	out := make([]Field, 0, len(in))
	for i, f := range in {
		key := fmt.Sprintf("fields[%d]", i)
		if f.ID != 0 {
			if _, ok := t.Field(f.ID); !ok {
				details[key+".id"] = "campo não pertence ao modelo"
			} else if seen[f.ID] {
				details[key+".id"] = "campo repetido"
			}
			seen[f.ID] = true
		}
		page := f.PageNumber
		if page == 0 {
			page = 1
		}
		if page > t.PageCount {
			details[key+".pageNumber"] = fmt.Sprintf("modelo tem %d páginas", t.PageCount)
		}
		if f.PositionX+f.Width > 100 {
			details[key+".width"] = "ultrapassa a largura da página"
		}
		if f.PositionY+f.Height > 100 {
			details[key+".height"] = "ultrapassa a altura da página"
		}
		if f.FieldType == FieldSignature {
			signatures++
			if signatures > 1 {
				details[key+".fieldType"] = "só um campo de assinatura por modelo"
			}
		}
		if err := checkRule(f.ValidationRule); err != nil {
			details[key+".validationRule"] = err.Error()
		}
		field := Field{
			ID:             f.ID,
			TemplateID:     t.ID,
			FieldType:      f.FieldType,
			Label:          strings.TrimSpace(f.Label),
			IsRequired:     f.IsRequired,
			PageNumber:     page,
			PositionX:      f.PositionX,
			PositionY:      f.PositionY,
			Width:          f.Width,
			Height:         f.Height,
			SortOrder:      f.SortOrder,
			DefaultValue:   f.DefaultValue,
			ValidationRule: datatypes.JSONMap(f.ValidationRule),
		}
		if f.DefaultValue != nil && f.FieldType != FieldSignature {
			if err := ValidateValue(field, *f.DefaultValue); err != nil {
				details[key+".defaultValue"] = err.Error()
			}
		}
		out = append(out, field)
	}
	if len(details) > 0 {
		return nil, &apperr.ValidationError{Message: "campos inválidos", Details: details}
	}
	return out, nil
}
