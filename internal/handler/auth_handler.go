package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/locvowork/hr_onboarding_portal/internal/service"
	"github.com/locvowork/hr_onboarding_portal/internal/service/serviceutils"
	"github.com/locvowork/hr_onboarding_portal/internal/session"
)

type AuthHandler struct {
	svc *service.AuthService
}

func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

func (h *AuthHandler) RegisterHandler(c echo.Context) error {
	actor, err := session.Current(c)
	if err != nil {
		return serviceutils.Fail(c, "Unauthorized", err)
	}
	var req service.RegisterInput
	if err := c.Bind(&req); err != nil {
		return serviceutils.ResponseError(c, http.StatusBadRequest, "Invalid request body", err)
	}

	res, err := h.svc.Register(c.Request().Context(), actor, req)
	if err != nil {
		return serviceutils.Fail(c, "Failed to create account", err)
	}

	return serviceutils.ResponseSuccess(c, http.StatusCreated, "Account created successfully", res)
}

func (h *AuthHandler) LoginHandler(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return serviceutils.ResponseError(c, http.StatusBadRequest, "Invalid request body", err)
	}

	token, err := h.svc.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return serviceutils.Fail(c, "Login failed", err)
	}

	return serviceutils.ResponseSuccess(c, http.StatusOK, "Login successful", token)
}

func (h *AuthHandler) ResetPasswordHandler(c echo.Context) error {
	var req ResetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return serviceutils.ResponseError(c, http.StatusBadRequest, "Invalid request body", err)
	}

	if err := h.svc.ResetPassword(c.Request().Context(), req.Email, req.CurrentPassword, req.NewPassword); err != nil {
		return serviceutils.Fail(c, "Failed to reset password", err)
	}

	return serviceutils.ResponseSuccess(c, http.StatusOK, "Password updated successfully", nil)
}
