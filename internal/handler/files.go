package handler

import (
	"net/http"
	"os"

	"storyreel/internal/response"

	"github.com/gin-gonic/gin"
)

// DownloadFile serves a stored upload by its display handle. Audio and
// images are served inline so the player and gallery can reference them
// directly.
func (h Handler) DownloadFile(c *gin.Context) {
	requestedFile := c.Param("filepath")
	if requestedFile == "" {
		c.JSON(http.StatusNotFound, response.Response{
			Error: -1,
			Msg:   "File path is empty",
		})
		return
	}

	if hasParentTraversal(requestedFile) {
		c.JSON(http.StatusForbidden, response.Response{
			Error: -1,
			Msg:   "Illegal file path",
		})
		return
	}

	localFilePath, ok := resolveDownloadPath(requestedFile)
	if !ok {
		c.JSON(http.StatusNotFound, response.Response{
			Error: -1,
			Msg:   "File not found",
		})
		return
	}
	if info, err := os.Stat(localFilePath); err != nil || info.IsDir() {
		c.JSON(http.StatusNotFound, response.Response{
			Error: -1,
			Msg:   "File not found",
		})
		return
	}
	c.File(localFilePath)
}
