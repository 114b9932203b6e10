package httpserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/workshopops/accesscontrol/internal/core/domain/audit"
	"github.com/workshopops/accesscontrol/internal/core/ports"
	"github.com/workshopops/accesscontrol/internal/infrastructure/httpserver/helpers"
)

func (s *Server) getAuditEvents(c echo.Context) error {
	filter, err := parseAuditFilter(c)
	if err != nil {
		return err
	}
	events, total, err := s.auditSvc.Query(c.Request().Context(), filter)
	if err != nil {
		return helpers.HTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"events": events, "total": total, "limit": filter.Limit, "offset": filter.Offset})
}

func (s *Server) exportAuditEvents(c echo.Context) error {
	filter, err := parseAuditFilter(c)
	if err != nil {
		return err
	}
	data, err := s.auditSvc.Export(c.Request().Context(), filter)
	if err != nil {
		return helpers.HTTPError(err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="audit-events.csv"`)
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", data)
}

type recordEventRequest struct {
	Action     audit.Action     `json:"action"`
	EntityType audit.EntityType `json:"entity_type"`
	EntityID   string           `json:"entity_id"`
	Details    map[string]any   `json:"details"`
}

// reportableActions are the events callers may report; the rest are written by the
// services that perform the action.
var reportableActions = map[audit.Action]bool{
	audit.ActionPasswordReset: true,
	audit.ActionAdminAction:   true,
}

func (s *Server) recordAuditEvent(c echo.Context) error {
	var req recordEventRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if !reportableActions[req.Action] {
		return echo.NewHTTPError(http.StatusBadRequest, "action cannot be reported by callers")
	}
	e, err := s.auditSvc.Record(c.Request().Context(), &ports.RecordRequest{
		Action:     req.Action,
		EntityType: req.EntityType,
		EntityID:   req.EntityID,
		Details:    req.Details,
	})
	if err != nil {
		return helpers.HTTPError(err)
	}
	return c.JSON(http.StatusCreated, e)
}

// parseAuditFilter reads filter criteria from the query string. Dates are RFC3339.
func parseAuditFilter(c echo.Context) (*audit.Filter, error) {
	f := &audit.Filter{}
	if err := echo.QueryParamsBinder(c).
		String("q", &f.FreeText).
		Int("limit", &f.Limit).
		Int("offset", &f.Offset).
		BindError(); err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid query parameters")
	}
	if v := strings.TrimSpace(c.QueryParam("action")); v != "" {
		a := audit.Action(v)
		f.Action = &a
	}
	if v := strings.TrimSpace(c.QueryParam("entity_type")); v != "" {
		et := audit.EntityType(v)
		f.EntityType = &et
	}
	var err error
	if f.ActorID, err = helpers.ParseOptionalUUIDQuery(c, "actor_id"); err != nil {
		return nil, err
	}
	if f.TenantID, err = helpers.ParseOptionalUUIDQuery(c, "tenant_id"); err != nil {
		return nil, err
	}
	if f.DateFrom, err = parseTimeQuery(c, "date_from"); err != nil {
		return nil, err
	}
	if f.DateTo, err = parseTimeQuery(c, "date_to"); err != nil {
		return nil, err
	}
	return f, nil
}

func parseTimeQuery(c echo.Context, name string) (*time.Time, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return &t, nil
}
