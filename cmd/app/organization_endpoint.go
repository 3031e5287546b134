package main

import (
	"errors"
	"net/http"

	"github.com/frontenddevmichael/openrole-connect/internal/authz"
	"github.com/frontenddevmichael/openrole-connect/internal/middleware"
	"github.com/frontenddevmichael/openrole-connect/internal/model"
	"github.com/frontenddevmichael/openrole-connect/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type statusRequest struct {
	Status string `json:"status"`
}

func organizationStats(svc *services.StatsService) echo.HandlerFunc {
	return func(c echo.Context) error {
		snap := middleware.SnapshotFrom(c)
		stats, err := svc.OrganizationDashboard(c.Request().Context(), snap.Profile.ID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load stats"})
		}
		return c.JSON(http.StatusOK, stats)
	}
}

func updateOrganizationProfile(svc *services.ProfileService) echo.HandlerFunc {
	return func(c echo.Context) error {
		var in services.OrganizationProfileInput
		if err := c.Bind(&in); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
		}
		snap := middleware.SnapshotFrom(c)
		profile, err := svc.UpdateOrganization(c.Request().Context(), snap.Profile.ID, in)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		if store := middleware.StoreFrom(c); store != nil {
			store.RefreshProfile(c.Request().Context())
		}
		return c.JSON(http.StatusOK, profile)
	}
}

func uploadLogo(svc *services.ProfileService) echo.HandlerFunc {
	return func(c echo.Context) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "file is required"})
		}
		f, err := fh.Open()
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "could not read file"})
		}
		defer f.Close()

		snap := middleware.SnapshotFrom(c)
		url, err := svc.UploadLogo(c.Request().Context(), snap.Profile.ID, fh.Filename, f)
		if err != nil {
			if errors.Is(err, services.ErrBadFileType) {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "logo must be png, jpeg or webp"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "upload failed"})
		}
		if store := middleware.StoreFrom(c); store != nil {
			store.RefreshProfile(c.Request().Context())
		}
		return c.JSON(http.StatusOK, echo.Map{"organization_logo_url": url})
	}
}

func listOwnInternships(svc *services.InternshipService) echo.HandlerFunc {
	return func(c echo.Context) error {
		snap := middleware.SnapshotFrom(c)
		listings, err := svc.ListByOrganization(c.Request().Context(), snap.Profile.ID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load internships"})
		}
		return c.JSON(http.StatusOK, echo.Map{"internships": listings})
	}
}

func postInternship(svc *services.InternshipService) echo.HandlerFunc {
	return func(c echo.Context) error {
		var in services.InternshipInput
		if err := c.Bind(&in); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
		}
		snap := middleware.SnapshotFrom(c)
		listing, err := svc.Post(c.Request().Context(), snap.Profile.ID, in)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		return c.JSON(http.StatusCreated, listing)
	}
}

func updateInternship(svc *services.InternshipService) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid internship id"})
		}
		var in services.InternshipInput
		if err := c.Bind(&in); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
		}
		snap := middleware.SnapshotFrom(c)
		listing, err := svc.Update(c.Request().Context(), snap.Profile.ID, id, in)
		if err != nil {
			if errors.Is(err, services.ErrListingNotFound) {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "internship not found"})
			}
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, listing)
	}
}

func deactivateInternship(svc *services.InternshipService) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid internship id"})
		}
		snap := middleware.SnapshotFrom(c)
		if err := svc.Deactivate(c.Request().Context(), snap.Profile.ID, id); err != nil {
			if errors.Is(err, services.ErrListingNotFound) {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "internship not found"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not deactivate internship"})
		}
		return c.JSON(http.StatusOK, echo.Map{"message": "deactivated"})
	}
}

func listApplicants(svc *services.ApplicationService) echo.HandlerFunc {
	return func(c echo.Context) error {
		snap := middleware.SnapshotFrom(c)
		apps, err := svc.ListForOrganization(c.Request().Context(), snap.Profile.ID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load applicants"})
		}
		return c.JSON(http.StatusOK, echo.Map{"applications": apps})
	}
}

func updateApplicationStatus(svc *services.ApplicationService) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid application id"})
		}
		req := new(statusRequest)
		if err := c.Bind(req); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
		}

		snap := middleware.SnapshotFrom(c)
		err = svc.UpdateStatus(c.Request().Context(), snap.Profile.ID, id, model.ApplicationStatus(req.Status))
		if err != nil {
			switch {
			case errors.Is(err, services.ErrInvalidStatus):
				return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
			case errors.Is(err, services.ErrApplicationNotFound):
				return c.JSON(http.StatusNotFound, echo.Map{"error": "application not found"})
			default:
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update status"})
			}
		}
		return c.JSON(http.StatusOK, echo.Map{"message": "status updated"})
	}
}

func exportApplicants(svc *services.ApplicationService) echo.HandlerFunc {
	return func(c echo.Context) error {
		snap := middleware.SnapshotFrom(c)
		f, err := svc.ExportApplicants(c.Request().Context(), snap.Profile.ID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not build export"})
		}

		c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="applicants.xlsx"`)
		c.Response().Header().Set(echo.HeaderContentType,
			"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Response().WriteHeader(http.StatusOK)
		return f.Write(c.Response())
	}
}

func registerOrganizationRoutes(g *echo.Group, profileSvc *services.ProfileService,
	internshipSvc *services.InternshipService, appSvc *services.ApplicationService,
	statsSvc *services.StatsService) {
	dash := g.Group(authz.OrganizationDashboard)
	dash.Use(middleware.RequireOwner(authz.RoleOrganization))

	dash.GET("", organizationStats(statsSvc))
	dash.GET("/profile", getOwnProfile(profileSvc))
	dash.PUT("/profile", updateOrganizationProfile(profileSvc))
	dash.POST("/profile/logo", uploadLogo(profileSvc))
	dash.GET("/internships", listOwnInternships(internshipSvc))
	dash.POST("/internships", postInternship(internshipSvc))
	dash.PUT("/internships/:id", updateInternship(internshipSvc))
	dash.DELETE("/internships/:id", deactivateInternship(internshipSvc))
	dash.GET("/applicants", listApplicants(appSvc))
	dash.GET("/applicants/export", exportApplicants(appSvc))
	dash.PUT("/applications/:id/status", updateApplicationStatus(appSvc))
}
