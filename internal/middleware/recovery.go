package middleware

import (
	"log"
	"net/http"
	"runtime/debug"

	"fee-backend/pkg/utils"
)

// PanicRecovery turns handler panics into 500 responses. A panic mid-payment
// must never take the whole server down.
func PanicRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log.Printf("[Recovery] panic on %s %s: %v\n%s", r.Method, r.URL.Path, err, debug.Stack())
				utils.Error(w, http.StatusInternalServerError, "Internal server error")
			}
		}()

		next.ServeHTTP(w, r)
	})
}
