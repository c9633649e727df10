package analysis

import (
	"net/http"

	apphttp "collections_console/internal/http"
	"collections_console/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// Module wires the batch analysis endpoint.
type Module struct {
	orchestrator *Orchestrator
}

func NewModule(orchestrator *Orchestrator) *Module {
	return &Module{orchestrator: orchestrator}
}

func (m *Module) Name() string {
	return "analysis"
}

func (m *Module) Orchestrator() *Orchestrator {
	return m.orchestrator
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/analysis")
	group.POST("/batch", m.runBatch)
}

// runBatch handles POST /api/v1/analysis/batch. The call blocks until
// the batch settles; the UI drives progress off the event stream.
func (m *Module) runBatch(c *gin.Context) {
	result, err := m.orchestrator.RunBatch(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusOK, result)
}

var _ apphttp.Module = (*Module)(nil)
