package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/user-account-service/internal/utils"
)

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name  string
		claim *utils.Claim
		want  int
	}{
		{"no claim", nil, http.StatusUnauthorized},
		{"no roles", &utils.Claim{AccountID: "a"}, http.StatusForbidden},
		{"other role", &utils.Claim{AccountID: "a", Roles: []string{"guest"}}, http.StatusForbidden},
		{"user", &utils.Claim{AccountID: "a", Roles: []string{"user"}}, http.StatusOK},
		{"admin among others", &utils.Claim{AccountID: "a", Roles: []string{"x", "admin"}}, http.StatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
			if tc.claim != nil {
				c.Set(claimKey, *tc.claim)
			}
			h := RequireRole("user", "admin")(func(c echo.Context) error {
				return c.NoContent(http.StatusOK)
			})
			if err := h(c); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if got := c.Response().Status; got != tc.want {
				t.Fatalf("status = %d, want %d", got, tc.want)
			}
		})
	}
}
