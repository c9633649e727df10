package session

import (
	"net/http"

	"collections_console/platform/httpkit"
	"collections_console/platform/validator"

	"github.com/gin-gonic/gin"
)

type LoginBody struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type CallerIDBody struct {
	CallerID string `json:"callerId" validate:"required"`
}

type SessionResponse struct {
	Username string `json:"username"`
	CallerID string `json:"callerId,omitempty"`
}

// Handler exposes the session endpoints.
type Handler struct {
	mgr *Manager
	val *validator.Validator
}

func NewHandler(mgr *Manager, val *validator.Validator) *Handler {
	return &Handler{mgr: mgr, val: val}
}

// Login handles POST /api/v1/auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req LoginBody
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	if err := h.mgr.Open(c.Request.Context(), req.Username, req.Password); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, SessionResponse{
		Username: h.mgr.Username(),
		CallerID: h.mgr.CallerID(),
	})
}

// Logout handles POST /api/v1/auth/logout.
func (h *Handler) Logout(c *gin.Context) {
	if err := h.mgr.Close(c.Request.Context()); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"status": "signed out"})
}

// Current handles GET /api/v1/auth/session.
func (h *Handler) Current(c *gin.Context) {
	if _, ok := h.mgr.Token(); !ok {
		httpkit.Error(c, http.StatusUnauthorized, "no active session", nil)
		return
	}
	httpkit.OK(c, SessionResponse{
		Username: h.mgr.Username(),
		CallerID: h.mgr.CallerID(),
	})
}

// SetCallerID handles PUT /api/v1/auth/caller-id.
func (h *Handler) SetCallerID(c *gin.Context) {
	var req CallerIDBody
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	h.mgr.SetCallerID(c.Request.Context(), req.CallerID)
	httpkit.OK(c, gin.H{"status": "updated"})
}
