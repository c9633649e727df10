package session

import (
	apphttp "collections_console/internal/http"
	"collections_console/platform/validator"
)

// Module wires the session endpoints. Login stays outside the session
// guard; everything else requires an open session.
type Module struct {
	mgr     *Manager
	handler *Handler
}

func NewModule(mgr *Manager, val *validator.Validator) *Module {
	return &Module{
		mgr:     mgr,
		handler: NewHandler(mgr, val),
	}
}

func (m *Module) Name() string {
	return "session"
}

func (m *Module) Manager() *Manager {
	return m.mgr
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.V1.POST("/auth/login", m.handler.Login)

	guarded := ctx.Protected.Group("/auth")
	guarded.POST("/logout", m.handler.Logout)
	guarded.GET("/session", m.handler.Current)
	guarded.PUT("/caller-id", m.handler.SetCallerID)
}

var _ apphttp.Module = (*Module)(nil)
