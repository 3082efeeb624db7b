package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4" // Echo framework for HTTP routing

	"github.com/iliyamo/user-account-service/internal/middleware"
	"github.com/iliyamo/user-account-service/internal/model"
	"github.com/iliyamo/user-account-service/internal/service"
)

// Accounts is the account workflow used by the handlers.  It is satisfied by
// *service.AccountService.
type Accounts interface {
	Register(ctx context.Context, in service.RegisterInput) (service.AuthResult, error)
	Login(ctx context.Context, in service.LoginInput) (service.AuthResult, error)
	GetProfile(ctx context.Context, id string) (model.Account, error)
}

// AuthRecorder counts registration and login results.  It may be nil.
type AuthRecorder interface {
	RecordRegistration(result string)
	RecordLogin(result string)
}

// AuthHandler bundles dependencies for the account endpoints.
type AuthHandler struct {
	Accounts Accounts
	Metrics  AuthRecorder
	Timeout  time.Duration // per-request budget for store calls
}

func NewAuthHandler(a Accounts, m AuthRecorder) *AuthHandler {
	return &AuthHandler{Accounts: a, Metrics: m, Timeout: 5 * time.Second}
}

// ----- DTOs -----

type authResp struct {
	Message string              `json:"message"`
	User    model.PublicAccount `json:"user"`
	Token   string              `json:"token"`
}

const (
	msgRegistered         = "User registered successfully"
	msgLoggedIn           = "Login successful"
	msgDuplicate          = "Email or username already exists"
	msgInvalidCredentials = "Invalid email or password"
	msgUserNotFound       = "User not found"
)

// Register: validate, create the account and return a token immediately.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	req.normalize()
	if err := req.Validate(); err != nil {
		return validationFailed(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.Timeout)
	defer cancel()

	res, err := h.Accounts.Register(ctx, service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	switch {
	case err == nil:
	case errors.Is(err, service.ErrDuplicateAccount):
		h.recordRegistration("duplicate")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msgDuplicate})
	default:
		h.recordRegistration("error")
		return err
	}

	h.recordRegistration("created")
	return c.JSON(http.StatusCreated, authResp{
		Message: msgRegistered,
		User:    res.Account.ToPublic(),
		Token:   res.Token.Token,
	})
}

// Login: verify credentials and return a fresh token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	if err := req.Validate(); err != nil {
		return validationFailed(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.Timeout)
	defer cancel()

	res, err := h.Accounts.Login(ctx, service.LoginInput{Email: req.Email, Password: req.Password})
	switch {
	case err == nil:
	case errors.Is(err, service.ErrInvalidCredentials):
		h.recordLogin("invalid_credentials")
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": msgInvalidCredentials})
	default:
		h.recordLogin("error")
		return err
	}

	h.recordLogin("success")
	return c.JSON(http.StatusOK, authResp{
		Message: msgLoggedIn,
		User:    res.Account.ToPublic(),
		Token:   res.Token.Token,
	})
}

// Profile: protected endpoint returning the caller's account.  The caller's
// identity comes from the claim attached by middleware.JWTAuth.
func (h *AuthHandler) Profile(c echo.Context) error {
	claim, ok := middleware.ClaimFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": middleware.ReasonMissing.Message()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.Timeout)
	defer cancel()

	acc, err := h.Accounts.GetProfile(ctx, claim.AccountID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": msgUserNotFound})
		}
		return err
	}
	return c.JSON(http.StatusOK, acc.ToProfile())
}

func (h *AuthHandler) recordRegistration(result string) {
	if h.Metrics != nil {
		h.Metrics.RecordRegistration(result)
	}
}

func (h *AuthHandler) recordLogin(result string) {
	if h.Metrics != nil {
		h.Metrics.RecordLogin(result)
	}
}

func badBody(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, echo.Map{
		"errors": []FieldError{{Field: "body", Message: "invalid request body"}},
	})
}

func validationFailed(c echo.Context, err error) error {
	fes, ok := fieldErrors(err)
	if !ok {
		return err
	}
	return c.JSON(http.StatusBadRequest, echo.Map{"errors": fes})
}
