package middleware

import "github.com/labstack/echo/v4"

// StatusRecorder is satisfied by *metrics.Collector.
type StatusRecorder interface {
	RecordHTTPStatus(statusCode int)
}

// HTTPMetrics records the final status code of every response.
func HTTPMetrics(rec StatusRecorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if err != nil {
				// let the error handler write the response so the status is final
				c.Error(err)
			}
			rec.RecordHTTPStatus(c.Response().Status)
			return nil
		}
	}
}
