package middleware

import "github.com/labstack/echo/v4"

const anonAccount = "anon"

// currentAccountID returns the account ID of the authenticated caller, or
// "anon" when the auth gate has not admitted the request.
func currentAccountID(c echo.Context) string {
	if claim, ok := ClaimFrom(c); ok && claim.AccountID != "" {
		return claim.AccountID
	}
	return anonAccount
}
