package middleware

import (
	"crypto/subtle"
	"net/http"
)

// TriggerAuth защищает demo-trigger endpoint общим секретом
//
// Секрет передается в заголовке X-Trigger-Secret и сравнивается
// constant-time, чтобы исключить timing attacks. Пустой секрет
// в конфигурации полностью закрывает endpoint.
func TriggerAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				http.Error(w, "trigger endpoint disabled", http.StatusForbidden)
				return
			}

			provided := r.Header.Get("X-Trigger-Secret")
			if subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
