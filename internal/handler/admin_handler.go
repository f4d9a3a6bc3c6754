package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/locvowork/hr_onboarding_portal/internal/service"
	"github.com/locvowork/hr_onboarding_portal/internal/service/serviceutils"
	"github.com/locvowork/hr_onboarding_portal/internal/session"
)

type EmailHandler struct {
	svc *service.EmailService
}

func NewEmailHandler(svc *service.EmailService) *EmailHandler {
	return &EmailHandler{svc: svc}
}

func (h *EmailHandler) SendWelcomeHandler(c echo.Context) error {
	actor, err := session.Current(c)
	if err != nil {
		return serviceutils.Fail(c, "Unauthorized", err)
	}
	var req WelcomeEmailRequest
	if err := c.Bind(&req); err != nil {
		return serviceutils.ResponseError(c, http.StatusBadRequest, "Invalid request body", err)
	}

	email, err := h.svc.SendWelcome(c.Request().Context(), actor, req.EmployeeID, req.TemporaryPassword)
	if err != nil {
		return serviceutils.Fail(c, "Failed to send welcome email", err)
	}

	return serviceutils.ResponseSuccess(c, http.StatusOK, "Welcome email sent successfully", map[string]string{"to": email.To})
}

func (h *EmailHandler) SendAdminWelcomeHandler(c echo.Context) error {
	actor, err := session.Current(c)
	if err != nil {
		return serviceutils.Fail(c, "Unauthorized", err)
	}
	var req WelcomeEmailRequest
	if err := c.Bind(&req); err != nil {
		return serviceutils.ResponseError(c, http.StatusBadRequest, "Invalid request body", err)
	}

	email, err := h.svc.SendAdminWelcome(c.Request().Context(), actor, req.EmployeeID, req.TemporaryPassword)
	if err != nil {
		return serviceutils.Fail(c, "Failed to send welcome email", err)
	}

	return serviceutils.ResponseSuccess(c, http.StatusOK, "Welcome email sent successfully", map[string]string{"to": email.To})
}

type AdminHandler struct {
	reindex *service.ReindexService
}

func NewAdminHandler(reindex *service.ReindexService) *AdminHandler {
	return &AdminHandler{reindex: reindex}
}

func (h *AdminHandler) ReindexHandler(c echo.Context) error {
	actor, err := session.Current(c)
	if err != nil {
		return serviceutils.Fail(c, "Unauthorized", err)
	}

	res, err := h.reindex.ReindexAs(c.Request().Context(), actor)
	if err == service.ErrDirectoryDisabled {
		return serviceutils.ResponseError(c, http.StatusServiceUnavailable, "Search directory is not configured", err)
	}
	if err != nil {
		return serviceutils.Fail(c, "Failed to rebuild directory", err)
	}

	return serviceutils.ResponseSuccess(c, http.StatusOK, "Directory rebuilt successfully", res)
}

func HealthHandler(c echo.Context) error {
	return serviceutils.ResponseSuccess(c, http.StatusOK, "ok", map[string]string{"status": "up"})
}
