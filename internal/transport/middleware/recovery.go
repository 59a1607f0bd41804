package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/frahmantamala/practice-gateway/internal"
	"github.com/frahmantamala/practice-gateway/internal/transport"
	"github.com/frahmantamala/practice-gateway/pkg/logger"
)

// Recovery turns a panic in any handler into a 500 AppError response and
// logs the stack with the request's fields.
func Recovery(next http.Handler) http.Handler {
	base := transport.NewBaseHandler(nil)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			logger.From(r.Context()).ErrorContext(r.Context(), "panic recovered",
				"error", rec,
				"method", r.Method,
				"url", r.URL.String(),
				"stack", string(debug.Stack()))

			base.WriteAppError(w, r, internal.NewInternalError("internal server error", fmt.Errorf("panic: %v", rec)))
		}()

		next.ServeHTTP(w, r)
	})
}
