package echo

import e "github.com/labstack/echo/v4"

func RegisterRoutes(server *e.Echo, importHandler *ImportHandler, scheduleHandler *ScheduleHandler) {
	api := server.Group("/api/v1")

	api.GET("/import/history", importHandler.History)
	api.GET("/import/sync-status", importHandler.SyncStatus)
	api.GET("/import/recovery", importHandler.Recovery)

	api.POST("/import/pause-all", importHandler.PauseAll)
	api.POST("/import/resume-all", importHandler.ResumeAll)
	api.POST("/import/cancel-all", importHandler.CancelAll)

	api.POST("/import/schedule", scheduleHandler.CreateSchedule)
	api.PUT("/import/schedule/:id", scheduleHandler.UpdateSchedule)
	api.GET("/import/schedule", scheduleHandler.ListSchedules)

	api.POST("/import/:type", importHandler.StartImport)
	api.GET("/import/:id", importHandler.GetImport)
	api.POST("/import/:id/pause", importHandler.PauseImport)
	api.POST("/import/:id/resume", importHandler.ResumeImport)
	api.POST("/import/:id/cancel", importHandler.CancelImport)
	api.DELETE("/import/:id", importHandler.DeleteImport)
}
