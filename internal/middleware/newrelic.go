package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"

	"fleetflow/internal/service"
)

// ErrorKindMiddleware tags the New Relic transaction started by nrgin with
// the failure kind of any error a handler recorded. Server errors are also
// reported as errors; client errors are only tagged.
func ErrorKindMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		txn := nrgin.Transaction(c)
		if txn == nil {
			return
		}

		err := c.Errors.Last().Err
		kind := errorKind(err)
		txn.AddAttribute("error.kind", kind)

		if c.Writer.Status() >= 500 {
			txn.NoticeError(newrelic.Error{
				Message: err.Error(),
				Class:   kind,
			})
		}
	}
}

func errorKind(err error) string {
	for _, kind := range []error{
		service.ErrNotFound,
		service.ErrValidation,
		service.ErrConflict,
		service.ErrInvalidTransition,
		service.ErrInvalidState,
	} {
		if errors.Is(err, kind) {
			return kind.Error()
		}
	}
	return "internal"
}
