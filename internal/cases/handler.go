package cases

import (
	"net/http"

	"collections_console/internal/ledger"
	"collections_console/platform/httpkit"
	"collections_console/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// Handler exposes the worklist endpoints.
type Handler struct {
	svc *Service
	val *validator.Validator
}

func NewHandler(svc *Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// List handles GET /api/v1/cases.
func (h *Handler) List(c *gin.Context) {
	httpkit.OK(c, toCaseResponses(h.svc.List()))
}

// Get handles GET /api/v1/cases/:id.
func (h *Handler) Get(c *gin.Context) {
	item, err := h.svc.Get(c.Param("id"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toCaseResponse(item))
}

// Create handles POST /api/v1/cases.
func (h *Handler) Create(c *gin.Context) {
	var req CreateCaseBody
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	created, err := h.svc.Create(c.Request.Context(), ledger.CreateCaseRequest{
		CompanyName: req.CompanyName,
		Amount:      req.Amount,
		AgeDays:     req.AgeDays,
		CreditScore: req.CreditScore,
		Phone:       req.Phone,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, toCaseResponse(created))
}

// Refresh handles POST /api/v1/cases/refresh, a manual reconciliation
// against the ledger.
func (h *Handler) Refresh(c *gin.Context) {
	fresh, err := h.svc.Store().Refresh(c.Request.Context(), "manual")
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toCaseResponses(fresh))
}

// UpdateStatus handles PATCH /api/v1/cases/:id/status.
func (h *Handler) UpdateStatus(c *gin.Context) {
	var req UpdateStatusBody
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	next, err := ParseStatus(req.NewStatus)
	if httpkit.HandleError(c, err) {
		return
	}

	updated, err := h.svc.UpdateStatus(c.Request.Context(), c.Param("id"), next, req.Reason)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toCaseResponse(updated))
}

// PatchContact handles POST /api/v1/cases/:id/contact.
func (h *Handler) PatchContact(c *gin.Context) {
	var req PatchContactBody
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	if err := h.svc.PatchContact(c.Request.Context(), c.Param("id"), req.Phone); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"status": "updated"})
}

// LogInteraction handles POST /api/v1/cases/:id/log_interaction.
func (h *Handler) LogInteraction(c *gin.Context) {
	var req LogInteractionBody
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	verdict, err := h.svc.LogInteraction(c.Request.Context(), c.Param("id"), req.Text)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, verdict)
}

// Ingest handles POST /api/v1/cases/ingest (multipart CSV upload).
func (h *Handler) Ingest(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "file upload is required", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "could not read upload", nil)
		return
	}
	defer file.Close()

	result, err := h.svc.Ingest(c.Request.Context(), fileHeader.Filename, file)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}
