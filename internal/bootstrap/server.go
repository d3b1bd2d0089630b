package bootstrap

import (
	app "github.com/desguapro/catalog-sync/internal/application/catalog"
	httpecho "github.com/desguapro/catalog-sync/internal/interfaces/http/echo"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

func NewHTTPServer(imports *app.ImportService, schedules *app.ScheduleService, sweeper *app.Sweeper) *echo.Echo {
	server := echo.New()
	server.HideBanner = true

	server.Use(middleware.Recover())
	server.Use(middleware.RequestID())
	server.Use(middleware.BodyLimit("1M"))

	importHandler := httpecho.NewImportHandler(imports, sweeper)
	scheduleHandler := httpecho.NewScheduleHandler(schedules)
	httpecho.RegisterRoutes(server, importHandler, scheduleHandler)

	server.GET("/healthz", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	return server
}
