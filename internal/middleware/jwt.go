package middleware // middleware contains reusable HTTP middleware functions

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/user-account-service/internal/utils"
)

// RejectReason tells why the auth gate refused a request.  The distinction
// drives the client-facing message: a missing token asks the client to log
// in, an expired one to log in again, an invalid one is refused outright.
type RejectReason string

const (
	ReasonMissing RejectReason = "missing"
	ReasonInvalid RejectReason = "invalid"
	ReasonExpired RejectReason = "expired"
)

// Message is the text sent to the client for r.
func (r RejectReason) Message() string {
	switch r {
	case ReasonMissing:
		return "missing token"
	case ReasonExpired:
		return "token expired"
	default:
		return "invalid token"
	}
}

// Outcome is the gate's verdict for one request: either Admitted with the
// recovered Claim, or rejected with a Reason.
type Outcome struct {
	Admitted bool
	Reason   RejectReason
	Claim    utils.Claim
}

// TokenVerifier is satisfied by *utils.TokenVerifier.
type TokenVerifier interface {
	Verify(raw string) (utils.Claim, error)
}

// OutcomeRecorder receives one label per gate decision ("admitted" or a
// RejectReason).  It may be nil.
type OutcomeRecorder interface {
	RecordAuthOutcome(outcome string)
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header.  The scheme is matched case-insensitively.
func BearerToken(r *http.Request) (string, bool) {
	auth := strings.TrimSpace(r.Header.Get(echo.HeaderAuthorization))
	scheme, token, ok := strings.Cut(auth, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// Authenticate runs the gate against r without touching the response.
func Authenticate(r *http.Request, v TokenVerifier) Outcome {
	raw, ok := BearerToken(r)
	if !ok {
		return Outcome{Reason: ReasonMissing}
	}
	claim, err := v.Verify(raw)
	switch {
	case err == nil:
		return Outcome{Admitted: true, Claim: claim}
	case errors.Is(err, utils.ErrTokenExpired):
		return Outcome{Reason: ReasonExpired}
	default:
		return Outcome{Reason: ReasonInvalid}
	}
}

const claimKey = "auth_claim"

// JWTAuth returns an Echo middleware that admits requests carrying a valid
// bearer token and stores the recovered claim in the context; handlers read
// it with ClaimFrom.  Rejections answer 401 with {"message": ...}.
func JWTAuth(v TokenVerifier, rec OutcomeRecorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			out := Authenticate(c.Request(), v)
			if !out.Admitted {
				if rec != nil {
					rec.RecordAuthOutcome(string(out.Reason))
				}
				c.Response().Header().Set(echo.HeaderWWWAuthenticate, `Bearer realm="api"`)
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": out.Reason.Message()})
			}
			if rec != nil {
				rec.RecordAuthOutcome("admitted")
			}
			c.Set(claimKey, out.Claim)
			return next(c)
		}
	}
}

// ClaimFrom returns the claim stored by JWTAuth.
func ClaimFrom(c echo.Context) (utils.Claim, bool) {
	claim, ok := c.Get(claimKey).(utils.Claim)
	return claim, ok
}
