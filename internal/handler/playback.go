package handler

import (
	"storyreel/internal/dto"
	"storyreel/internal/response"
	apperrors "storyreel/pkg/errors"

	"github.com/gin-gonic/gin"
)

func (h Handler) Seek(c *gin.Context) {
	var req dto.SeekReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, apperrors.Wrap(apperrors.CodeInvalidParams, "Invalid parameters", err))
		return
	}

	h.Service.Seek(req.Time)
	response.Success(c, h.Service.Playback())
}

// UpdateTime mirrors the audio element's periodic time-update signal.
func (h Handler) UpdateTime(c *gin.Context) {
	var req dto.TimeUpdateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, apperrors.Wrap(apperrors.CodeInvalidParams, "Invalid parameters", err))
		return
	}

	h.Service.UpdateTime(req.Time)
	response.Success(c, h.Service.Playback())
}

func (h Handler) Play(c *gin.Context) {
	h.Service.Play()
	response.Success(c, h.Service.Playback())
}

func (h Handler) Pause(c *gin.Context) {
	h.Service.Pause()
	response.Success(c, h.Service.Playback())
}

func (h Handler) GetPlayback(c *gin.Context) {
	response.Success(c, h.Service.Playback())
}
