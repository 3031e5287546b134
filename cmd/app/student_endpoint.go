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

type applyRequest struct {
	InternshipID string  `json:"internship_id"`
	CoverLetter  *string `json:"cover_letter"`
}

func studentStats(svc *services.StatsService) echo.HandlerFunc {
	return func(c echo.Context) error {
		snap := middleware.SnapshotFrom(c)
		stats, err := svc.StudentDashboard(c.Request().Context(), snap.Profile.ID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load stats"})
		}
		return c.JSON(http.StatusOK, stats)
	}
}

func getOwnProfile(svc *services.ProfileService) echo.HandlerFunc {
	return func(c echo.Context) error {
		snap := middleware.SnapshotFrom(c)
		profile, err := svc.Get(c.Request().Context(), snap.Profile.ID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load profile"})
		}
		return c.JSON(http.StatusOK, profile)
	}
}

func updateStudentProfile(svc *services.ProfileService) echo.HandlerFunc {
	return func(c echo.Context) error {
		var in services.StudentProfileInput
		if err := c.Bind(&in); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
		}
		snap := middleware.SnapshotFrom(c)
		profile, err := svc.UpdateStudent(c.Request().Context(), snap.Profile.ID, in)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		// Keep the live session in step with the row it mirrors.
		if store := middleware.StoreFrom(c); store != nil {
			store.RefreshProfile(c.Request().Context())
		}
		return c.JSON(http.StatusOK, profile)
	}
}

func uploadCV(svc *services.ProfileService) echo.HandlerFunc {
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
		url, err := svc.UploadCV(c.Request().Context(), snap.Profile.ID, fh.Filename, f)
		if err != nil {
			if errors.Is(err, services.ErrBadFileType) {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "cv must be a pdf"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "upload failed"})
		}
		if store := middleware.StoreFrom(c); store != nil {
			store.RefreshProfile(c.Request().Context())
		}
		return c.JSON(http.StatusOK, echo.Map{"cv_url": url})
	}
}

func listSaved(svc *services.SavedInternshipService) echo.HandlerFunc {
	return func(c echo.Context) error {
		snap := middleware.SnapshotFrom(c)
		saved, err := svc.List(c.Request().Context(), snap.Profile.ID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load saved internships"})
		}
		return c.JSON(http.StatusOK, echo.Map{"saved": saved})
	}
}

func saveInternship(svc *services.SavedInternshipService) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := uuid.Parse(c.Param("internshipID"))
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid internship id"})
		}
		snap := middleware.SnapshotFrom(c)
		if err := svc.Save(c.Request().Context(), snap.Profile.ID, id); err != nil {
			if errors.Is(err, services.ErrListingNotFound) {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "internship not found"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not save internship"})
		}
		return c.JSON(http.StatusCreated, echo.Map{"message": "saved"})
	}
}

func unsaveInternship(svc *services.SavedInternshipService) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := uuid.Parse(c.Param("internshipID"))
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid internship id"})
		}
		snap := middleware.SnapshotFrom(c)
		if err := svc.Unsave(c.Request().Context(), snap.Profile.ID, id); err != nil {
			if errors.Is(err, services.ErrNotSaved) {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "not in saved list"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not unsave internship"})
		}
		return c.JSON(http.StatusOK, echo.Map{"message": "removed"})
	}
}

func listOwnApplications(svc *services.ApplicationService) echo.HandlerFunc {
	return func(c echo.Context) error {
		snap := middleware.SnapshotFrom(c)
		apps, err := svc.ListForStudent(c.Request().Context(), snap.Profile.ID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load applications"})
		}
		return c.JSON(http.StatusOK, echo.Map{"applications": apps})
	}
}

func applyToInternship(svc *services.ApplicationService) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := new(applyRequest)
		if err := c.Bind(req); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
		}
		internshipID, err := uuid.Parse(req.InternshipID)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid internship id"})
		}

		snap := middleware.SnapshotFrom(c)
		id, err := svc.Apply(c.Request().Context(), snap.Profile.ID, internshipID, req.CoverLetter)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrListingNotFound):
				return c.JSON(http.StatusNotFound, echo.Map{"error": "internship not found"})
			case errors.Is(err, services.ErrListingInactive):
				return c.JSON(http.StatusConflict, echo.Map{"error": "internship is no longer active"})
			case errors.Is(err, services.ErrDeadlinePassed):
				return c.JSON(http.StatusConflict, echo.Map{"error": "application deadline has passed"})
			case errors.Is(err, services.ErrAlreadyApplied):
				return c.JSON(http.StatusConflict, echo.Map{"error": "already applied"})
			default:
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not submit application"})
			}
		}
		return c.JSON(http.StatusCreated, echo.Map{"application_id": id})
	}
}

func registerStudentRoutes(g *echo.Group, profileSvc *services.ProfileService,
	savedSvc *services.SavedInternshipService, appSvc *services.ApplicationService,
	statsSvc *services.StatsService) {
	dash := g.Group(authz.StudentDashboard)
	dash.Use(middleware.RequireOwner(authz.RoleStudent))

	dash.GET("", studentStats(statsSvc))
	dash.GET("/profile", getOwnProfile(profileSvc))
	dash.PUT("/profile", updateStudentProfile(profileSvc))
	dash.POST("/profile/cv", uploadCV(profileSvc))
	dash.GET("/saved", listSaved(savedSvc))
	dash.POST("/saved/:internshipID", saveInternship(savedSvc))
	dash.DELETE("/saved/:internshipID", unsaveInternship(savedSvc))
	dash.GET("/applications", listOwnApplications(appSvc))
	dash.POST("/applications", applyToInternship(appSvc))
}
