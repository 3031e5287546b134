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

// browseInternships is the public search: active listings only, optional
// text query plus field and work-type filters.
func browseInternships(svc *services.InternshipService) echo.HandlerFunc {
	return func(c echo.Context) error {
		listings, err := svc.Search(c.Request().Context(),
			c.QueryParam("query"), c.QueryParam("field"), c.QueryParam("work_type"))
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, echo.Map{"internships": listings})
	}
}

func internshipDetails(svc *services.InternshipService) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid internship id"})
		}

		// Students see their own saved/applied flags on the listing.
		var viewer *uuid.UUID
		snap := middleware.SnapshotFrom(c)
		if authz.EffectiveRole(snap) == authz.RoleStudent {
			viewer = &snap.Profile.ID
		}

		details, err := svc.GetDetails(c.Request().Context(), id, viewer)
		if err != nil {
			if errors.Is(err, services.ErrListingNotFound) {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "internship not found"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load internship"})
		}
		return c.JSON(http.StatusOK, details)
	}
}

func registerInternshipRoutes(g *echo.Group, svc *services.InternshipService) {
	internships := g.Group("/internships")
	internships.GET("", browseInternships(svc))
	internships.GET("/:id", internshipDetails(svc))
}
