// internal/app/system/authz/middleware.go
package authz

import "net/http"

// Require gates a route group on a single action. Anonymous callers get 401;
// signed-in callers whose role is not allowed get 403. This is the
// route-level consumer of the same Can table the mutation handlers use.
func Require(action Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, _, _, ok := UserCtx(r)
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if !Can(role, action) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
