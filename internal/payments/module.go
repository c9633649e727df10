package payments

import (
	apphttp "collections_console/internal/http"
	"collections_console/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// Module wires the payment link endpoint.
type Module struct {
	svc *Service
}

func NewModule(svc *Service) *Module {
	return &Module{svc: svc}
}

func (m *Module) Name() string {
	return "payments"
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/payments")
	group.POST("/cases/:id/link", m.requestLink)
}

// requestLink handles POST /api/v1/payments/cases/:id/link. One ledger
// request per click; a failed attempt is reported, never retried.
func (m *Module) requestLink(c *gin.Context) {
	link, err := m.svc.RequestLink(c.Request.Context(), c.Param("id"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, link)
}

var _ apphttp.Module = (*Module)(nil)
