package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/user-account-service/internal/logging"
	"github.com/iliyamo/user-account-service/internal/model"
	"github.com/iliyamo/user-account-service/internal/service"
	"github.com/iliyamo/user-account-service/internal/utils"
)

type stubAccounts struct {
	registerIn service.RegisterInput
	res        service.AuthResult
	acc        model.Account
	err        error
	calls      int
}

func (s *stubAccounts) Register(_ context.Context, in service.RegisterInput) (service.AuthResult, error) {
	s.calls++
	s.registerIn = in
	return s.res, s.err
}

func (s *stubAccounts) Login(_ context.Context, _ service.LoginInput) (service.AuthResult, error) {
	s.calls++
	return s.res, s.err
}

func (s *stubAccounts) GetProfile(_ context.Context, _ string) (model.Account, error) {
	s.calls++
	return s.acc, s.err
}

type resultLog struct{ registrations, logins []string }

func (r *resultLog) RecordRegistration(s string) { r.registrations = append(r.registrations, s) }
func (r *resultLog) RecordLogin(s string)        { r.logins = append(r.logins, s) }

var sampleResult = service.AuthResult{
	Account: model.Account{ID: "id-1", Username: "testuser", Email: "testuser@example.com", Roles: []string{"user"}},
	Token:   utils.AccessToken{Token: "tok", Exp: time.Now().Add(time.Hour)},
}

func do(t *testing.T, h echo.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	e.HTTPErrorHandler = NewHTTPErrorHandler(logging.Discard())
	e.POST("/", h)
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rr := httptest.NewRecorder()
	e.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &m), rr.Body.String())
	return m
}

func TestRegister_Created(t *testing.T) {
	acc := &stubAccounts{res: sampleResult}
	log := &resultLog{}
	h := NewAuthHandler(acc, log)

	rr := do(t, h.Register, `{"username":"testuser","email":"testuser@example.com","password":"Password123!"}`)
	require.Equal(t, http.StatusCreated, rr.Code)

	body := decode(t, rr)
	assert.Equal(t, "User registered successfully", body["message"])
	assert.Equal(t, "tok", body["token"])
	user := body["user"].(map[string]any)
	assert.Equal(t, "id-1", user["id"])
	assert.Equal(t, "testuser@example.com", user["email"])
	assert.Equal(t, []any{"user"}, user["roles"])
	assert.NotContains(t, rr.Body.String(), "PasswordHash")
	assert.NotContains(t, rr.Body.String(), "password")

	assert.Equal(t, "testuser", acc.registerIn.Username)
	assert.Equal(t, []string{"created"}, log.registrations)
}

func TestRegister_ValidationFailure(t *testing.T) {
	acc := &stubAccounts{}
	h := NewAuthHandler(acc, nil)

	rr := do(t, h.Register, `{"email":"missingusername@example.com"}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	var body struct {
		Errors []FieldError `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	fields := []string{}
	for _, fe := range body.Errors {
		fields = append(fields, fe.Field)
	}
	assert.Equal(t, []string{"password", "username"}, fields)
	assert.Zero(t, acc.calls, "workflow must not run on invalid input")
}

func TestRegister_BadEmailAndShortPassword(t *testing.T) {
	h := NewAuthHandler(&stubAccounts{}, nil)

	rr := do(t, h.Register, `{"username":"bob","email":"not-an-email","password":"short"}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), `"field":"email"`)
	assert.Contains(t, rr.Body.String(), `"field":"password"`)
}

func TestRegister_MalformedBody(t *testing.T) {
	h := NewAuthHandler(&stubAccounts{}, nil)

	rr := do(t, h.Register, `{"username":`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, decode(t, rr), "errors")
}

func TestRegister_Duplicate(t *testing.T) {
	log := &resultLog{}
	h := NewAuthHandler(&stubAccounts{err: service.ErrDuplicateAccount}, log)

	rr := do(t, h.Register, `{"username":"testuser","email":"testuser@example.com","password":"Password123!"}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Regexp(t, `(?i)exists`, decode(t, rr)["error"])
	assert.Equal(t, []string{"duplicate"}, log.registrations)
}

func TestRegister_UnexpectedErrorIsOpaque(t *testing.T) {
	h := NewAuthHandler(&stubAccounts{err: errors.New("dial tcp 10.0.0.5:3306: connection refused")}, nil)

	rr := do(t, h.Register, `{"username":"testuser","email":"testuser@example.com","password":"Password123!"}`)
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "Internal Server Error", decode(t, rr)["error"])
	assert.NotContains(t, rr.Body.String(), "10.0.0.5")
}

func TestLogin_OK(t *testing.T) {
	log := &resultLog{}
	h := NewAuthHandler(&stubAccounts{res: sampleResult}, log)

	rr := do(t, h.Login, `{"email":"testuser@example.com","password":"Password123!"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	body := decode(t, rr)
	assert.Equal(t, "Login successful", body["message"])
	assert.Equal(t, "tok", body["token"])
	assert.Equal(t, []string{"success"}, log.logins)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	h := NewAuthHandler(&stubAccounts{err: service.ErrInvalidCredentials}, nil)

	rr := do(t, h.Login, `{"email":"testuser@example.com","password":"wrongpassword"}`)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "Invalid email or password", decode(t, rr)["message"])
}

func TestLogin_MissingFields(t *testing.T) {
	h := NewAuthHandler(&stubAccounts{}, nil)

	rr := do(t, h.Login, `{}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), `"field":"email"`)
	assert.Contains(t, rr.Body.String(), `"field":"password"`)
}

func TestProfile_WithoutClaim(t *testing.T) {
	h := NewAuthHandler(&stubAccounts{}, nil)
	e := echo.New()
	rr := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rr)

	require.NoError(t, h.Profile(c))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, rr.Body.String(), "missing")
}

func TestHTTPErrorHandler_KeepsEchoStatus(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = NewHTTPErrorHandler(logging.Discard())

	rr := httptest.NewRecorder()
	e.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Not Found", decode(t, rr)["error"])
}

func TestHealth(t *testing.T) {
	e := echo.New()
	rr := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/healthz", nil), rr)

	require.NoError(t, Health(c))
	assert.Equal(t, "ok", rr.Body.String())
}
