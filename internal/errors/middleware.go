package errors

import (
	"net/http"
)

// RecoveryMiddleware turns handler panics into problem responses.
// http.ErrAbortHandler passes through untouched so the server can abort
// broken connections the way net/http expects.
func RecoveryMiddleware(handler *ErrorHandler) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				recovered := recover()
				switch {
				case recovered == nil:
				case recovered == http.ErrAbortHandler:
					panic(recovered)
				default:
					handler.HandlePanic(w, r, recovered)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
