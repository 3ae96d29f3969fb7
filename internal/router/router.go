package router

import (
	"storyreel/internal/handler"
	"storyreel/internal/service"

	"github.com/gin-gonic/gin"
)

func SetupRouter(r *gin.Engine, svc *service.Service) {
	hdl := handler.NewHandler(svc)

	api := r.Group("/api")
	{
		api.POST("/project/audio", hdl.UploadAudio)
		api.GET("/project", hdl.GetProject)
		api.GET("/project/status", hdl.GetProjectStatus)
		api.DELETE("/project", hdl.ClearProject)
		api.POST("/project/export", hdl.ExportProject)

		api.POST("/gallery/images", hdl.UploadImages)
		api.GET("/gallery/images", hdl.GetGallery)
		api.PUT("/segments/:segmentId/image", hdl.AssignImage)

		api.POST("/playback/seek", hdl.Seek)
		api.POST("/playback/time", hdl.UpdateTime)
		api.POST("/playback/play", hdl.Play)
		api.POST("/playback/pause", hdl.Pause)
		api.GET("/playback", hdl.GetPlayback)

		api.GET("/timeline", hdl.GetTimeline)
		api.POST("/timeline/drop", hdl.DropImage)

		api.GET("/session/ws", hdl.SessionWS)

		api.GET("/file/*filepath", hdl.DownloadFile)
		api.HEAD("/file/*filepath", hdl.DownloadFile)
	}

	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"name":   "storyreel",
			"status": svc.Status().Status,
		})
	})
}
