package api

import (
	"github.com/gin-gonic/gin"
)

// SetupRoutes wires the public surface. filesRoot, when non-empty, serves
// the local storage root read-only under /files for playback; gin's
// static handler rejects path traversal.
func SetupRoutes(router *gin.Engine, handler *Handler, filesRoot string) {
	router.GET("/health", handler.HealthCheck)

	router.POST("/upload", handler.Upload)

	router.GET("/recordings", handler.ListRecordings)
	router.DELETE("/recordings", handler.DeleteRecordingByPath)
	router.DELETE("/recordings/:id", handler.DeleteRecording)
	router.PATCH("/recordings/:id", handler.UpdateRecordingGroup)
	router.POST("/recordings/:id/transcribe", handler.RetryTranscription)

	router.GET("/groups", handler.ListGroups)
	router.POST("/groups", handler.CreateGroup)
	router.DELETE("/groups/:id", handler.DeleteGroup)

	if filesRoot != "" {
		router.Static("/files", filesRoot)
	}
}
