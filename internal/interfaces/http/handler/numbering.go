package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vendra/backend/internal/domain/numbering"
	"github.com/vendra/backend/internal/domain/shared"
	"github.com/vendra/backend/internal/interfaces/http/dto"
	"github.com/vendra/backend/internal/interfaces/http/middleware"
)

// AllocateNumberRequest asks for the next document number
type AllocateNumberRequest struct {
	DocumentType string `json:"document_type" binding:"required,min=1,max=10"`
	Branch       string `json:"branch" binding:"required,min=1,max=10"`
}

// AllocateNumberResponse carries the reserved number
type AllocateNumberResponse struct {
	DocumentType string `json:"document_type"`
	Branch       string `json:"branch"`
	Number       string `json:"number"`
}

// NumberingHandler serves document number allocation on the resolved
// tenant connection
type NumberingHandler struct {
	allocator numbering.Allocator
}

// NewNumberingHandler creates a new NumberingHandler
func NewNumberingHandler(allocator numbering.Allocator) *NumberingHandler {
	return &NumberingHandler{allocator: allocator}
}

// Allocate reserves the next number for a (document type, branch) key.
// The number is consumed on commit even if the caller never uses it;
// numbering has gaps but never duplicates.
func (h *NumberingHandler) Allocate(c *gin.Context) {
	var req AllocateNumberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest,
			dto.NewErrorResponse(shared.ErrInvalidInput.Code, err.Error(), c.GetString("request_id")))
		return
	}

	db, ok := middleware.GetTenantDB(c)
	if !ok {
		c.JSON(http.StatusInternalServerError,
			dto.NewErrorResponse("NO_CONNECTION", "tenant connection missing from request context", c.GetString("request_id")))
		return
	}

	number, err := h.allocator.AllocateNew(c.Request.Context(), db.DB, req.DocumentType, req.Branch)
	if err != nil {
		status := http.StatusInternalServerError
		code := "ALLOCATE_FAILED"
		switch {
		case errors.Is(err, shared.ErrSequenceNotConfigured):
			status, code = http.StatusUnprocessableEntity, shared.ErrSequenceNotConfigured.Code
		case errors.Is(err, shared.ErrLockTimeout):
			status, code = http.StatusConflict, shared.ErrLockTimeout.Code
		}
		c.JSON(status, dto.NewErrorResponse(code, err.Error(), c.GetString("request_id")))
		return
	}

	c.JSON(http.StatusOK, dto.NewSuccessResponse(AllocateNumberResponse{
		DocumentType: req.DocumentType,
		Branch:       req.Branch,
		Number:       number,
	}))
}
