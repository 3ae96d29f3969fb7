package handler

import (
	"storyreel/internal/response"
	"storyreel/internal/service"
	"storyreel/log"
	apperrors "storyreel/pkg/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UploadAudio receives the narration track and kicks off analysis. The reply
// carries the probed duration and the analyzing status; segments arrive
// asynchronously and are picked up via /api/project or the websocket.
func (h Handler) UploadAudio(c *gin.Context) {
	fileHeader, err := c.FormFile("audio")
	if err != nil {
		response.ErrorResponse(c, apperrors.Wrap(apperrors.CodeInvalidParams, "No audio file in request", err))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		log.GetLogger().Error("UploadAudio open multipart file err", zap.Error(err))
		response.ErrorResponse(c, apperrors.Wrap(apperrors.CodeAudioUploadFailed, "Audio upload failed", err))
		return
	}
	defer file.Close()

	data, err := h.Service.UploadAudio(c.Request.Context(), service.Upload{
		Reader: file,
		Name:   fileHeader.Filename,
	})
	if err != nil {
		response.ErrorResponse(c, err)
		return
	}
	response.Success(c, data)
}

func (h Handler) GetProject(c *gin.Context) {
	response.Success(c, h.Service.Project())
}

func (h Handler) GetProjectStatus(c *gin.Context) {
	response.Success(c, h.Service.Status())
}

func (h Handler) ClearProject(c *gin.Context) {
	h.Service.ClearProject()
	response.Success(c, nil)
}

// ExportProject is a stub; rendering the slideshow to video is out of scope.
func (h Handler) ExportProject(c *gin.Context) {
	response.ErrorResponse(c, h.Service.Export())
}
