package main

import (
	"errors"
	"net/http"

	"github.com/frontenddevmichael/openrole-connect/internal/authz"
	"github.com/frontenddevmichael/openrole-connect/internal/middleware"
	"github.com/frontenddevmichael/openrole-connect/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type moderateRequest struct {
	IsActive bool `json:"is_active"`
}

func adminOverview(svc *services.StatsService) echo.HandlerFunc {
	return func(c echo.Context) error {
		stats, err := svc.AdminOverview(c.Request().Context())
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load stats"})
		}
		return c.JSON(http.StatusOK, stats)
	}
}

func moderationList(svc *services.InternshipService) echo.HandlerFunc {
	return func(c echo.Context) error {
		listings, err := svc.ListAllForModeration(c.Request().Context())
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load internships"})
		}
		return c.JSON(http.StatusOK, echo.Map{"internships": listings})
	}
}

func moderateSetActive(svc *services.InternshipService) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid internship id"})
		}
		req := new(moderateRequest)
		if err := c.Bind(req); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
		}
		if err := svc.ModerateSetActive(c.Request().Context(), id, req.IsActive); err != nil {
			if errors.Is(err, services.ErrListingNotFound) {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "internship not found"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update internship"})
		}
		return c.JSON(http.StatusOK, echo.Map{"message": "updated"})
	}
}

func moderateDelete(svc *services.InternshipService) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid internship id"})
		}
		if err := svc.ModerateDelete(c.Request().Context(), id); err != nil {
			if errors.Is(err, services.ErrListingNotFound) {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "internship not found"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not delete internship"})
		}
		return c.JSON(http.StatusOK, echo.Map{"message": "deleted"})
	}
}

func registerAdminRoutes(g *echo.Group, internshipSvc *services.InternshipService, statsSvc *services.StatsService) {
	dash := g.Group(authz.AdminDashboard)
	dash.Use(middleware.RequireRole(authz.RoleAdmin))

	dash.GET("", adminOverview(statsSvc))
	dash.GET("/moderate", moderationList(internshipSvc))
	dash.PUT("/moderate/:id/active", moderateSetActive(internshipSvc))
	dash.DELETE("/moderate/:id", moderateDelete(internshipSvc))
}
