package httpserver

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/workshopops/accesscontrol/internal/core/domain/permission"
	"github.com/workshopops/accesscontrol/internal/core/domain/user"
	"github.com/workshopops/accesscontrol/internal/infrastructure/httpserver/helpers"
)

func (s *Server) getOwnPermissions(c echo.Context) error {
	ps, err := s.middleware.Perm.Resolve(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ps)
}

// checkPage answers 200 for both outcomes; a denial is not an error.
func (s *Server) checkPage(c echo.Context) error {
	u, err := helpers.GetCurrentUserFromContext(c)
	if err != nil {
		return err
	}
	page := permission.PageID(c.Param("page"))
	d, err := s.resolution.CheckPage(c.Request().Context(), u, page)
	if err != nil {
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{"user_id": u.ID, "page": page}).WithError(err).Error("page check failed")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to evaluate access")
	}
	return c.JSON(http.StatusOK, d)
}

// diagnose explains a decision for the caller, or for user_id when given.
func (s *Server) diagnose(c echo.Context) error {
	page := strings.TrimSpace(c.QueryParam("page"))
	if page == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "page is required")
	}
	target, err := s.diagnosisTarget(c)
	if err != nil {
		return err
	}
	report, err := s.resolution.Diagnose(c.Request().Context(), target, permission.PageID(page))
	if err != nil {
		return helpers.HTTPError(err)
	}
	return c.JSON(http.StatusOK, report)
}

func (s *Server) diagnosisTarget(c echo.Context) (*user.User, error) {
	id, err := helpers.ParseOptionalUUIDQuery(c, "user_id")
	if err != nil {
		return nil, err
	}
	if id == nil {
		return helpers.GetCurrentUserFromContext(c)
	}
	u, err := s.userService.GetUser(c.Request().Context(), *id)
	if err != nil {
		return nil, helpers.HTTPError(err)
	}
	return u, nil
}

type coverageRequest struct {
	Pages []permission.PageID `json:"pages"`
}

func (s *Server) checkCoverage(c echo.Context) error {
	var req coverageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	errs := s.resolution.CheckCoverage(req.Pages)
	gaps := make([]string, 0, len(errs))
	for _, err := range errs {
		gaps = append(gaps, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]any{"checked": len(req.Pages), "complete": len(gaps) == 0, "gaps": gaps})
}

func (s *Server) listGaps(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{"gaps": s.resolution.Gaps()})
}
