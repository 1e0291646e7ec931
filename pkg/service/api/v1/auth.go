package v1

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"gopkg.in/inconshreveable/log15.v2"
)

const authorizationHeader = "Authorization"

// AuthRequiredHandler wraps the given handler with bearer token authorization
// against the configured API keys
func (a *PaymentAPI) AuthRequiredHandler(parent http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok || !a.authorized(token) {
			a.log.Warn("unauthorized request", log15.Ctx{
				"method": "AuthRequiredHandler",
				"path":   r.URL.Path,
				"remote": r.RemoteAddr,
			})
			w.Header().Set("Content-Type", "application/json")
			ErrUnauthorized.Write(w)
			return
		}
		parent.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get(authorizationHeader)
	const prefix = "Bearer "
	if !strings.HasPrefix(h, prefix) {
		return "", false
	}
	return h[len(prefix):], true
}

func (a *PaymentAPI) authorized(token string) bool {
	for _, key := range a.ctx.Config().API.AuthKeys {
		if subtle.ConstantTimeCompare([]byte(key), []byte(token)) == 1 {
			return true
		}
	}
	return false
}
