package main

import (
	"net/http"

	"github.com/frontenddevmichael/openrole-connect/internal/services"

	"github.com/labstack/echo/v4"
)

func homeStats(svc *services.StatsService) echo.HandlerFunc {
	return func(c echo.Context) error {
		stats, err := svc.Home(c.Request().Context())
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load stats"})
		}
		return c.JSON(http.StatusOK, stats)
	}
}

func registerStatsRoutes(g *echo.Group, svc *services.StatsService) {
	g.GET("/stats/home", homeStats(svc))
}
