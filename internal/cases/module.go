package cases

import (
	"context"

	"collections_console/internal/events"
	apphttp "collections_console/internal/http"
	"collections_console/platform/validator"
)

// Module wires the worklist store, service and routes, and ties the
// polling loop to the session lifecycle: polling starts when a session
// opens and stops, synchronously, when it closes.
type Module struct {
	store   *Store
	service *Service
	handler *Handler
}

func NewModule(store *Store, service *Service, bus events.Bus, val *validator.Validator) *Module {
	m := &Module{
		store:   store,
		service: service,
		handler: NewHandler(service, val),
	}

	bus.Subscribe(events.SessionOpened{}.EventName(), events.HandlerFunc(func(ctx context.Context, event events.Event) error {
		store.startPolling()
		return nil
	}))

	// SessionClosed is published synchronously from the session manager,
	// so no poll tick can fire with a dropped credential.
	bus.Subscribe(events.SessionClosed{}.EventName(), events.HandlerFunc(func(ctx context.Context, event events.Event) error {
		store.stopPolling()
		if e, ok := event.(events.SessionClosed); ok && e.Reason == "expired" {
			store.clearLocal()
		}
		return nil
	}))

	return m
}

func (m *Module) Name() string {
	return "cases"
}

func (m *Module) Service() *Service {
	return m.service
}

func (m *Module) Store() *Store {
	return m.store
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/cases")
	group.GET("", m.handler.List)
	group.POST("", m.handler.Create)
	group.POST("/refresh", m.handler.Refresh)
	group.POST("/ingest", m.handler.Ingest)
	group.GET("/:id", m.handler.Get)
	group.PATCH("/:id/status", m.handler.UpdateStatus)
	group.POST("/:id/contact", m.handler.PatchContact)
	group.POST("/:id/log_interaction", m.handler.LogInteraction)
}

var _ apphttp.Module = (*Module)(nil)
