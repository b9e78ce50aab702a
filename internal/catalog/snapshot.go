package catalog

import (
	"time"

	"github.com/eventcontract/contract-api/internal/utils/db"
)

// Snapshot é a leitura do catálogo feita dentro da transação que cria o
// contrato. Nada fora dela é consultado para validar ou precificar.
type Snapshot struct {
	Config  IcConfig
	Types   map[uint]ApartmentType
	Sheets  map[uint]IcPartnerSheet
	TakenAt time.Time
}

// Sheet devolve a planilha do snapshot.
func (s *Snapshot) Sheet(id uint) (IcPartnerSheet, bool) {
	sheet, ok := s.Sheets[id]
	return sheet, ok
}

// LoadSnapshot relê configuração, tipos e as planilhas informadas. Com lock,
// no Postgres, as linhas de configuração e planilha ficam FOR SHARE até o fim
// da transação, então uma desativação concorrente espera o commit (ou o
// contrato espera a desativação e a enxerga).
func (r *Repository) LoadSnapshot(configID uint, sheetIDs []uint, lock bool) (*Snapshot, error) {
	q := r.DB
	if lock {
		q = db.Lock(q, "SHARE")
	}

	var cfg IcConfig
	if err := q.First(&cfg, configID).Error; err != nil {
		return nil, notFound(err, "configuração", configID)
	}

	types, err := r.ListApartmentTypes(configID)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Config:  cfg,
		Types:   make(map[uint]ApartmentType, len(types)),
		Sheets:  make(map[uint]IcPartnerSheet, len(sheetIDs)),
		TakenAt: time.Now(),
	}
	for _, t := range types {
		snap.Types[t.ID] = t
	}
	if len(sheetIDs) == 0 {
		return snap, nil
	}

	var sheets []IcPartnerSheet
	err = q.Preload("Columns", orderedTypes).Preload("Rows", orderedTypes).
		Where("config_id = ? AND id IN ?", configID, sheetIDs).
		Find(&sheets).Error
	if err != nil {
		return nil, err
	}
	for _, s := range sheets {
		snap.Sheets[s.ID] = s
	}
	return snap, nil
}
