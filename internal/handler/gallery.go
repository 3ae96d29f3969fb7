package handler

import (
	"storyreel/internal/dto"
	"storyreel/internal/response"
	"storyreel/internal/service"
	"storyreel/log"
	apperrors "storyreel/pkg/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UploadImages appends one or more images to the gallery and reports how
// many segments picked one up through auto-fill.
func (h Handler) UploadImages(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		response.ErrorResponse(c, apperrors.Wrap(apperrors.CodeInvalidParams, "No multipart form in request", err))
		return
	}

	fileHeaders := form.File["images"]
	if len(fileHeaders) == 0 {
		response.ErrorResponse(c, apperrors.New(apperrors.CodeInvalidParams, "No images in request"))
		return
	}

	uploads := make([]service.Upload, 0, len(fileHeaders))
	closers := make([]func() error, 0, len(fileHeaders))
	defer func() {
		for _, closeFile := range closers {
			closeFile()
		}
	}()

	for _, fileHeader := range fileHeaders {
		file, err := fileHeader.Open()
		if err != nil {
			log.GetLogger().Error("UploadImages open multipart file err",
				zap.String("name", fileHeader.Filename),
				zap.Error(err))
			response.ErrorResponse(c, apperrors.Wrap(apperrors.CodeImageUploadFailed, "Image upload failed", err))
			return
		}
		closers = append(closers, file.Close)
		uploads = append(uploads, service.Upload{Reader: file, Name: fileHeader.Filename})
	}

	data, err := h.Service.AddImages(uploads)
	if err != nil {
		response.ErrorResponse(c, err)
		return
	}
	response.Success(c, data)
}

func (h Handler) GetGallery(c *gin.Context) {
	response.Success(c, h.Service.Gallery())
}

// AssignImage binds an image to a segment. Unknown segment ids succeed with
// assigned=false; a stale drag target is not an error.
func (h Handler) AssignImage(c *gin.Context) {
	segmentID := c.Param("segmentId")
	var req dto.AssignImageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, apperrors.Wrap(apperrors.CodeInvalidParams, "Invalid parameters", err))
		return
	}

	response.Success(c, h.Service.AssignImage(segmentID, req.ImageID))
}
