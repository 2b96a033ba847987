package auth

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/dalemusser/clinica/internal/app/system/apiresp"
	"github.com/dalemusser/clinica/internal/app/system/metrics"
	"github.com/dalemusser/clinica/internal/domain/models"
	"go.uber.org/zap"
)

// LoadSessionUser injects the session identity into the request context when
// there is one. It never rejects a request for lack of a session; that is
// the gates' job. A failing session store answers 500.
func (sm *SessionManager) LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, err := sm.Open(w, r)
		if err != nil {
			sm.log.Error("session store failure", zap.Error(err), zap.String("path", r.URL.Path))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		if u, ok := h.Identity(); ok {
			r = withUser(r, u)
		}
		next.ServeHTTP(w, r)
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| Authentication guards                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

// RequireSignedIn guards page routes. Without an identity:
//   - HTMX: HX-Redirect to /login?return=... with 401
//   - otherwise: 303 to /login?return=...
func (sm *SessionManager) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); ok {
			next.ServeHTTP(w, r)
			return
		}
		metrics.GateRejections.WithLabelValues("unauthenticated", "page").Inc()
		pageRedirect(w, r, LoginPath+"?return="+url.QueryEscape(r.URL.RequestURI()), http.StatusUnauthorized)
	})
}

// RequireSignedInRedirect is RequireSignedIn with a fixed redirect target.
func (sm *SessionManager) RequireSignedInRedirect(dest string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := CurrentUser(r); ok {
				next.ServeHTTP(w, r)
				return
			}
			metrics.GateRejections.WithLabelValues("unauthenticated", "page").Inc()
			pageRedirect(w, r, dest, http.StatusUnauthorized)
		})
	}
}

// RequireSignedInAPI guards API routes: 401 JSON without an identity.
func (sm *SessionManager) RequireSignedInAPI(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); ok {
			next.ServeHTTP(w, r)
			return
		}
		metrics.GateRejections.WithLabelValues("unauthenticated", "api").Inc()
		apiresp.Error(w, http.StatusUnauthorized, "unauthorized")
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| Role guards                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

// RequireRole guards page routes by role. A user whose role is not allowed
// is sent to their own landing page, so a role can never be bounced into a
// redirect loop.
//
// Precondition: compose after RequireSignedIn. Used alone it fails closed and
// treats the request as unauthenticated.
func (sm *SessionManager) RequireRole(allowed ...models.Role) func(http.Handler) http.Handler {
	set := roleSet(allowed)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := CurrentUser(r)
			if !ok {
				sm.log.Warn("RequireRole reached without identity; compose after RequireSignedIn",
					zap.String("path", r.URL.Path))
				metrics.GateRejections.WithLabelValues("unauthenticated", "page").Inc()
				pageRedirect(w, r, LoginPath, http.StatusUnauthorized)
				return
			}
			if _, has := set[u.Role]; !has {
				metrics.GateRejections.WithLabelValues("forbidden", "page").Inc()
				pageRedirect(w, r, LandingPath(u.Role), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRoleAPI guards API routes by role: 403 JSON when the role is not
// allowed. Same precondition as RequireRole; alone it answers 401.
func (sm *SessionManager) RequireRoleAPI(allowed ...models.Role) func(http.Handler) http.Handler {
	set := roleSet(allowed)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := CurrentUser(r)
			if !ok {
				sm.log.Warn("RequireRoleAPI reached without identity; compose after RequireSignedInAPI",
					zap.String("path", r.URL.Path))
				metrics.GateRejections.WithLabelValues("unauthenticated", "api").Inc()
				apiresp.Error(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			if _, has := set[u.Role]; !has {
				metrics.GateRejections.WithLabelValues("forbidden", "api").Inc()
				apiresp.Error(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// HasRole reports whether the request's user holds one of roles.
func HasRole(r *http.Request, roles ...models.Role) bool {
	u, ok := CurrentUser(r)
	if !ok {
		return false
	}
	for _, role := range roles {
		if u.Role == role {
			return true
		}
	}
	return false
}

// roleSet panics on a role outside the enumeration: gates are built at
// startup and a typo there is a programming error.
func roleSet(allowed []models.Role) map[models.Role]struct{} {
	if len(allowed) == 0 {
		panic("auth: role guard needs at least one role")
	}
	set := make(map[models.Role]struct{}, len(allowed))
	for _, role := range allowed {
		if !role.Valid() {
			panic(fmt.Sprintf("auth: role guard given unknown role %q", role))
		}
		set[role] = struct{}{}
	}
	return set
}

func pageRedirect(w http.ResponseWriter, r *http.Request, dest string, htmxStatus int) {
	// HTMX: full-page client redirect (no partial swap)
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", dest)
		w.WriteHeader(htmxStatus)
		return
	}
	http.Redirect(w, r, dest, http.StatusSeeOther)
}
