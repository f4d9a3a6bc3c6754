package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/locvowork/hr_onboarding_portal/internal/onboarding"
	"github.com/locvowork/hr_onboarding_portal/internal/service"
	"github.com/locvowork/hr_onboarding_portal/internal/service/serviceutils"
	"github.com/locvowork/hr_onboarding_portal/internal/session"
)

type EmployeeHandler struct {
	svc    *service.EmployeeService
	export *service.ExportService
}

func NewEmployeeHandler(svc *service.EmployeeService, export *service.ExportService) *EmployeeHandler {
	return &EmployeeHandler{svc: svc, export: export}
}

// =============================================================================
// HR lists
// =============================================================================

func (h *EmployeeHandler) ListHandler(c echo.Context) error {
	actor, err := session.Current(c)
	if err != nil {
		return serviceutils.Fail(c, "Unauthorized", err)
	}

	employees, err := h.svc.List(c.Request().Context(), actor)
	if err != nil {
		return serviceutils.Fail(c, "Failed to list employees", err)
	}

	return serviceutils.ResponseSuccess(c, http.StatusOK, "Employees listed successfully", employees)
}

func (h *EmployeeHandler) RosterHandler(c echo.Context) error {
	actor, err := session.Current(c)
	if err != nil {
		return serviceutils.Fail(c, "Unauthorized", err)
	}
	q, err := rosterQuery(c)
	if err != nil {
		return serviceutils.Fail(c, "Invalid roster query", err)
	}

	page, err := h.svc.Roster(c.Request().Context(), actor, q)
	if err != nil {
		return serviceutils.Fail(c, "Failed to load roster", err)
	}

	return serviceutils.ResponseSuccess(c, http.StatusOK, "Roster retrieved successfully", page)
}

func (h *EmployeeHandler) SearchHandler(c echo.Context) error {
	actor, err := session.Current(c)
	if err != nil {
		return serviceutils.Fail(c, "Unauthorized", err)
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	results, err := h.svc.Search(c.Request().Context(), actor, c.QueryParam("q"), limit)
	if err != nil {
		return serviceutils.Fail(c, "Failed to search employees", err)
	}

	return serviceutils.ResponseSuccess(c, http.StatusOK, "Search completed successfully", results)
}

func (h *EmployeeHandler) ExportHandler(c echo.Context) error {
	actor, err := session.Current(c)
	if err != nil {
		return serviceutils.Fail(c, "Unauthorized", err)
	}
	key, err := onboarding.ParseSortKey(c.QueryParam("sort"))
	if err != nil {
		return serviceutils.ResponseError(c, http.StatusBadRequest, "Invalid sort key", err)
	}
	format := strings.ToLower(strings.TrimSpace(c.QueryParam("format")))
	if format != "" && format != service.FormatXLSX && format != service.FormatCSV {
		return serviceutils.ResponseError(c, http.StatusBadRequest, "Unsupported export format", fmt.Errorf("format %q", format))
	}

	file, err := h.export.ExportRoster(c.Request().Context(), actor, rosterFilter(c), key, format)
	if err != nil {
		return serviceutils.Fail(c, "Failed to export roster", err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", file.FileName))
	return c.Blob(http.StatusOK, file.ContentType, file.Data)
}

func (h *EmployeeHandler) DashboardStatsHandler(c echo.Context) error {
	actor, err := session.Current(c)
	if err != nil {
		return serviceutils.Fail(c, "Unauthorized", err)
	}

	stats, err := h.svc.DashboardStats(c.Request().Context(), actor)
	if err != nil {
		return serviceutils.Fail(c, "Failed to load dashboard stats", err)
	}

	return serviceutils.ResponseSuccess(c, http.StatusOK, "Dashboard stats retrieved successfully", stats)
}

// =============================================================================
// Self service
// =============================================================================

func (h *EmployeeHandler) MeHandler(c echo.Context) error {
	p, err := session.Current(c)
	if err != nil {
		return serviceutils.Fail(c, "Unauthorized", err)
	}

	me, err := h.svc.Me(c.Request().Context(), p)
	if err != nil {
		return serviceutils.Fail(c, "Failed to get profile", err)
	}

	return serviceutils.ResponseSuccess(c, http.StatusOK, "Profile retrieved successfully", me)
}

func (h *EmployeeHandler) NavigationHandler(c echo.Context) error {
	p, err := session.Current(c)
	if err != nil {
		return serviceutils.Fail(c, "Unauthorized", err)
	}

	nav, err := h.svc.Navigation(c.Request().Context(), p)
	if err != nil {
		return serviceutils.Fail(c, "Failed to build navigation", err)
	}

	return serviceutils.ResponseSuccess(c, http.StatusOK, "Navigation retrieved successfully", nav)
}

func (h *EmployeeHandler) GuardHandler(c echo.Context) error {
	p, err := session.Current(c)
	if err != nil {
		return serviceutils.Fail(c, "Unauthorized", err)
	}

	g, err := h.svc.Guard(c.Request().Context(), p, c.QueryParam("path"))
	if err != nil {
		return serviceutils.Fail(c, "Failed to check route", err)
	}

	return serviceutils.ResponseSuccess(c, http.StatusOK, "Route checked successfully", g)
}

func (h *EmployeeHandler) SaveBasicInfoHandler(c echo.Context) error {
	p, err := session.Current(c)
	if err != nil {
		return serviceutils.Fail(c, "Unauthorized", err)
	}
	var req SaveRequest
	if err := c.Bind(&req); err != nil {
		return serviceutils.ResponseError(c, http.StatusBadRequest, "Invalid request body", err)
	}

	e, err := h.svc.SaveBasicInfo(c.Request().Context(), p, req.Data, req.Submit)
	if err != nil {
		return serviceutils.Fail(c, "Failed to save basic info", err)
	}

	msg := "Basic info saved successfully"
	if req.Submit {
		msg = "Basic info submitted successfully"
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, msg, e)
}

func (h *EmployeeHandler) MyHRHandler(c echo.Context) error {
	p, err := session.Current(c)
	if err != nil {
		return serviceutils.Fail(c, "Unauthorized", err)
	}

	hr, err := h.svc.MyHR(c.Request().Context(), p)
	if err != nil {
		return serviceutils.Fail(c, "Failed to get onboarding HR", err)
	}

	return serviceutils.ResponseSuccess(c, http.StatusOK, "Onboarding HR retrieved successfully", toHRContact(hr))
}

// =============================================================================
// HR record management
// =============================================================================

func (h *EmployeeHandler) GetHandler(c echo.Context) error {
	actor, err := session.Current(c)
	if err != nil {
		return serviceutils.Fail(c, "Unauthorized", err)
	}

	emp, err := h.svc.Get(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return serviceutils.Fail(c, "Failed to get employee", err)
	}

	return serviceutils.ResponseSuccess(c, http.StatusOK, "Employee retrieved successfully", emp)
}

func (h *EmployeeHandler) UpdateHandler(c echo.Context) error {
	actor, err := session.Current(c)
	if err != nil {
		return serviceutils.Fail(c, "Unauthorized", err)
	}
	var req service.UpdateInput
	if err := c.Bind(&req); err != nil {
		return serviceutils.ResponseError(c, http.StatusBadRequest, "Invalid request body", err)
	}

	emp, err := h.svc.Update(c.Request().Context(), actor, c.Param("id"), req)
	if err != nil {
		return serviceutils.Fail(c, "Failed to update employee", err)
	}

	return serviceutils.ResponseSuccess(c, http.StatusOK, "Employee updated successfully", emp)
}

func (h *EmployeeHandler) DeactivateHandler(c echo.Context) error {
	actor, err := session.Current(c)
	if err != nil {
		return serviceutils.Fail(c, "Unauthorized", err)
	}

	emp, err := h.svc.Deactivate(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return serviceutils.Fail(c, "Failed to deactivate employee", err)
	}

	return serviceutils.ResponseSuccess(c, http.StatusOK, "Employee deactivated successfully", emp)
}

func (h *EmployeeHandler) ActivateHandler(c echo.Context) error {
	actor, err := session.Current(c)
	if err != nil {
		return serviceutils.Fail(c, "Unauthorized", err)
	}

	emp, err := h.svc.Activate(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return serviceutils.Fail(c, "Failed to activate employee", err)
	}

	return serviceutils.ResponseSuccess(c, http.StatusOK, "Employee activated successfully", emp)
}

func (h *EmployeeHandler) VerifyBasicInfoHandler(c echo.Context) error {
	actor, err := session.Current(c)
	if err != nil {
		return serviceutils.Fail(c, "Unauthorized", err)
	}
	var req ReviewRequest
	if err := c.Bind(&req); err != nil {
		return serviceutils.ResponseError(c, http.StatusBadRequest, "Invalid request body", err)
	}

	emp, err := h.svc.VerifyBasicInfo(c.Request().Context(), actor, c.Param("id"), req.Status, req.remarks())
	if err != nil {
		return serviceutils.Fail(c, "Failed to review basic info", err)
	}

	return serviceutils.ResponseSuccess(c, http.StatusOK, "Basic info reviewed successfully", emp)
}

func (h *EmployeeHandler) AdvanceStageHandler(c echo.Context) error {
	actor, err := session.Current(c)
	if err != nil {
		return serviceutils.Fail(c, "Unauthorized", err)
	}
	var req AdvanceStageRequest
	if err := c.Bind(&req); err != nil {
		return serviceutils.ResponseError(c, http.StatusBadRequest, "Invalid request body", err)
	}

	emp, err := h.svc.AdvanceStage(c.Request().Context(), actor, c.Param("id"), req.Stage)
	if err != nil {
		return serviceutils.Fail(c, "Failed to advance stage", err)
	}

	return serviceutils.ResponseSuccess(c, http.StatusOK, "Stage advanced successfully", emp)
}

func (h *EmployeeHandler) FormAccessHandler(c echo.Context) error {
	actor, err := session.Current(c)
	if err != nil {
		return serviceutils.Fail(c, "Unauthorized", err)
	}
	var req FormAccessRequest
	if err := c.Bind(&req); err != nil {
		return serviceutils.ResponseError(c, http.StatusBadRequest, "Invalid request body", err)
	}

	form, err := h.svc.SetFormAccess(c.Request().Context(), actor, c.Param("id"), req.FormName, req.Disabled)
	if err != nil {
		return serviceutils.Fail(c, "Failed to update form access", err)
	}

	return serviceutils.ResponseSuccess(c, http.StatusOK, "Form access updated successfully", form)
}

func (h *EmployeeHandler) AuditHandler(c echo.Context) error {
	actor, err := session.Current(c)
	if err != nil {
		return serviceutils.Fail(c, "Unauthorized", err)
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	events, err := h.svc.Audit(c.Request().Context(), actor, c.Param("id"), limit)
	if err != nil {
		return serviceutils.Fail(c, "Failed to load audit trail", err)
	}

	return serviceutils.ResponseSuccess(c, http.StatusOK, "Audit trail retrieved successfully", events)
}
