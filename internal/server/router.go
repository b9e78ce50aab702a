// Package server monta o roteador HTTP com todas as rotas do serviço.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/eventcontract/contract-api/internal/activitylog"
	"github.com/eventcontract/contract-api/internal/auth"
	"github.com/eventcontract/contract-api/internal/catalog"
	"github.com/eventcontract/contract-api/internal/commission"
	"github.com/eventcontract/contract-api/internal/contract"
	"github.com/eventcontract/contract-api/internal/contracttemplate"
	"github.com/eventcontract/contract-api/internal/iccontract"
	"github.com/eventcontract/contract-api/internal/identifier"
	"github.com/eventcontract/contract-api/internal/notification"
	"github.com/eventcontract/contract-api/internal/public"
	"github.com/eventcontract/contract-api/internal/selection"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"gorm.io/gorm"
)

// Deps reúne o que os handlers precisam.
type Deps struct {
	DB          *gorm.DB
	Verifier    auth.Verifier
	Codes       identifier.Codes
	MaxAttempts int
	ContractTTL time.Duration
	Notify      notification.Dispatcher
	Activity    activitylog.Recorder
	CORSOrigins []string
	Logger      *slog.Logger

	// Now substitui o relógio dos serviços (testes)
	Now func() time.Time
}

const (
	organizer = auth.RoleOrganizer
	partner   = auth.RolePartner
	customer  = auth.RoleCustomer
)

type routes struct {
	r *mux.Router
}

// handle registra a rota; sem roles, qualquer usuário autenticado passa.
func (rt routes) handle(method, path string, h http.HandlerFunc, roles ...auth.Role) {
	var handler http.Handler = h
	if len(roles) > 0 {
		handler = auth.RequireRole(roles...)(h)
	}
	rt.r.Handle(path, handler).Methods(method)
}

// NewRouter devolve o handler completo: CORS, log de acesso, rotas públicas
// e rotas autenticadas.
func NewRouter(d Deps) http.Handler {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	catalogSvc := catalog.NewService(catalog.NewRepository(d.DB), d.Activity)
	templateSvc := contracttemplate.NewService(contracttemplate.NewRepository(d.DB), d.Activity)
	icSvc := iccontract.NewService(d.DB, d.Codes, d.MaxAttempts, d.Notify, d.Activity)
	contractSvc := contract.NewService(d.DB, d.Codes, d.MaxAttempts, d.ContractTTL, d.Notify, d.Activity)
	publicHandler := public.NewHandler(d.DB)
	if d.Now != nil {
		icSvc.Now, contractSvc.Now, publicHandler.Now = d.Now, d.Now, d.Now
	}

	catalogHandler := catalog.NewHandler(catalogSvc)
	offerHandler := selection.NewHandler(catalog.NewRepository(d.DB))
	commissionHandler := commission.NewHandler(commission.NewRepository(d.DB), d.Activity)
	icHandler := iccontract.NewHandler(icSvc)
	templateHandler := contracttemplate.NewHandler(templateSvc)
	contractHandler := contract.NewHandler(contractSvc)

	r := mux.NewRouter()
	r.Use(accessLog(logger))
	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}).Methods(http.MethodGet)

	// Rotas públicas (sem login)
	pub := r.PathPrefix("/public").Subrouter()
	pub.HandleFunc("/codes/{code}", publicHandler.LookupCode).Methods(http.MethodGet)
	pub.HandleFunc("/qr/{token}", publicHandler.LookupQR).Methods(http.MethodGet)

	api := r.NewRoute().Subrouter()
	api.Use(auth.Middleware(d.Verifier))
	rt := routes{r: api}

	// Configuração de contrato integrado e tipos de apartamento
	rt.handle(http.MethodPost, "/events/{eventId:[0-9]+}/ic-config", catalogHandler.CreateConfig, organizer)
	rt.handle(http.MethodGet, "/events/{eventId:[0-9]+}/ic-config", catalogHandler.GetConfigByEvent)
	rt.handle(http.MethodGet, "/ic-configs/{id:[0-9]+}", catalogHandler.GetConfig)
	rt.handle(http.MethodPatch, "/ic-configs/{id:[0-9]+}", catalogHandler.UpdateConfig, organizer)
	rt.handle(http.MethodPatch, "/ic-configs/{id:[0-9]+}/status", catalogHandler.UpdateConfigStatus, organizer)
	rt.handle(http.MethodPost, "/ic-configs/{id:[0-9]+}/apartment-types", catalogHandler.CreateApartmentType, organizer)
	rt.handle(http.MethodPut, "/apartment-types/{id:[0-9]+}", catalogHandler.UpdateApartmentType, organizer)
	rt.handle(http.MethodDelete, "/apartment-types/{id:[0-9]+}", catalogHandler.DeleteApartmentType, organizer)

	// Planilhas dos parceiros
	rt.handle(http.MethodGet, "/ic-configs/{id:[0-9]+}/sheets/mine", catalogHandler.MySheet, partner)
	rt.handle(http.MethodGet, "/ic-configs/{id:[0-9]+}/sheets", catalogHandler.ListSheets)
	rt.handle(http.MethodGet, "/sheets/{id:[0-9]+}", catalogHandler.GetSheet)
	rt.handle(http.MethodPut, "/sheets/{id:[0-9]+}/columns", catalogHandler.ReplaceColumns, partner)
	rt.handle(http.MethodPut, "/sheets/{id:[0-9]+}/rows", catalogHandler.ReplaceRows, partner)
	rt.handle(http.MethodPatch, "/sheets/{id:[0-9]+}/status", catalogHandler.UpdateSheetStatus, partner, organizer)
	rt.handle(http.MethodPatch, "/sheets/{id:[0-9]+}/memo", catalogHandler.UpdateSheetMemo, partner)
	rt.handle(http.MethodGet, "/ic-configs/{id:[0-9]+}/offer", offerHandler.GetOffer)

	// Comissão
	rt.handle(http.MethodPut, "/ic-configs/{id:[0-9]+}/commission-rates", commissionHandler.PutRates, organizer)
	rt.handle(http.MethodGet, "/ic-configs/{id:[0-9]+}/commission-rates", commissionHandler.GetRates, organizer)
	rt.handle(http.MethodGet, "/ic-configs/{id:[0-9]+}/commission-report", icHandler.Report, organizer)
	rt.handle(http.MethodGet, "/ic-contracts/{id:[0-9]+}/commission", icHandler.Commission, organizer)

	// Contratos integrados
	rt.handle(http.MethodPost, "/ic-configs/{id:[0-9]+}/quote", icHandler.Quote)
	rt.handle(http.MethodPost, "/ic-configs/{id:[0-9]+}/contracts", icHandler.Create, customer)
	rt.handle(http.MethodGet, "/ic-configs/{id:[0-9]+}/contracts", icHandler.ListByConfig, organizer)
	rt.handle(http.MethodGet, "/ic-contracts/mine", icHandler.ListMine, customer)
	rt.handle(http.MethodGet, "/ic-contracts/code/{shortCode}", icHandler.GetByCode)
	rt.handle(http.MethodGet, "/ic-contracts/{id:[0-9]+}", icHandler.Get)
	rt.handle(http.MethodPatch, "/ic-contracts/{id:[0-9]+}/status", icHandler.UpdateStatus, organizer)

	// Modelos de contrato
	rt.handle(http.MethodPost, "/events/{eventId:[0-9]+}/templates", templateHandler.Create, partner)
	rt.handle(http.MethodGet, "/events/{eventId:[0-9]+}/templates", templateHandler.ListByEvent, partner, organizer)
	rt.handle(http.MethodGet, "/templates/{id:[0-9]+}", templateHandler.Get)
	rt.handle(http.MethodPut, "/templates/{id:[0-9]+}", templateHandler.Update, partner)
	rt.handle(http.MethodPut, "/templates/{id:[0-9]+}/fields", templateHandler.ReplaceFields, partner)

	// Contratos de modelo
	rt.handle(http.MethodPost, "/templates/{id:[0-9]+}/contracts", contractHandler.Issue, partner)
	rt.handle(http.MethodGet, "/templates/{id:[0-9]+}/contracts", contractHandler.ListByTemplate, partner)
	rt.handle(http.MethodGet, "/contracts/mine", contractHandler.ListMine, customer)
	rt.handle(http.MethodGet, "/contracts/{id:[0-9]+}", contractHandler.Get)
	rt.handle(http.MethodGet, "/contracts/{id:[0-9]+}/layout", contractHandler.Layout)
	rt.handle(http.MethodPost, "/contracts/{id:[0-9]+}/open", contractHandler.Open, customer)
	rt.handle(http.MethodPut, "/contracts/{id:[0-9]+}/fields", contractHandler.SaveFields, customer)
	rt.handle(http.MethodPost, "/contracts/{id:[0-9]+}/sign", contractHandler.Sign, customer)
	rt.handle(http.MethodPost, "/contracts/{id:[0-9]+}/complete", contractHandler.Complete, partner, organizer)
	rt.handle(http.MethodPost, "/contracts/{id:[0-9]+}/cancel", contractHandler.Cancel, partner, organizer)
	rt.handle(http.MethodPut, "/contracts/{id:[0-9]+}/signed-file", contractHandler.AttachSignedFile, partner, organizer)

	return cors.New(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}).Handler(r)
}
