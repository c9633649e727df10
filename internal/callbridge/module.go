package callbridge

import (
	"net/http"

	apphttp "collections_console/internal/http"
	"collections_console/platform/httpkit"
	"collections_console/platform/validator"

	"github.com/gin-gonic/gin"
)

type PlaceCallBody struct {
	Number string `json:"number" validate:"required"`
}

// Module wires the call bridge endpoints.
type Module struct {
	bridge *Bridge
	val    *validator.Validator
}

func NewModule(bridge *Bridge, val *validator.Validator) *Module {
	return &Module{bridge: bridge, val: val}
}

func (m *Module) Name() string {
	return "callbridge"
}

func (m *Module) Bridge() *Bridge {
	return m.bridge
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/calls")
	group.POST("", m.placeCall)
	group.DELETE("/current", m.endCall)
	group.GET("/current", m.current)
}

// placeCall handles POST /api/v1/calls.
func (m *Module) placeCall(c *gin.Context) {
	var req PlaceCallBody
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", nil)
		return
	}
	if err := m.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	sess, err := m.bridge.PlaceCall(c.Request.Context(), req.Number)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, sess)
}

// endCall handles DELETE /api/v1/calls/current.
func (m *Module) endCall(c *gin.Context) {
	if err := m.bridge.EndCall(c.Request.Context()); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"status": "ended"})
}

// current handles GET /api/v1/calls/current.
func (m *Module) current(c *gin.Context) {
	sess, ok := m.bridge.Current()
	if !ok {
		httpkit.Error(c, http.StatusNotFound, "no active call session", nil)
		return
	}
	httpkit.OK(c, sess)
}

var _ apphttp.Module = (*Module)(nil)
