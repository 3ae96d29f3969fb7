package handler

import (
	"storyreel/internal/dto"
	"storyreel/internal/response"
	apperrors "storyreel/pkg/errors"

	"github.com/gin-gonic/gin"
)

func (h Handler) GetTimeline(c *gin.Context) {
	response.Success(c, h.Service.Timeline())
}

// DropImage handles the drop-to-assign gesture as an explicit message: a
// track pixel position plus an image id. A drop over a gap assigns nothing
// and still succeeds.
func (h Handler) DropImage(c *gin.Context) {
	var req dto.TimelineDropReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, apperrors.Wrap(apperrors.CodeInvalidParams, "Invalid parameters", err))
		return
	}

	response.Success(c, h.Service.DropImage(req.X, req.ImageID))
}
