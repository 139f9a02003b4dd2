package httpx

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"
)

// DefaultCORSAllowHeaders is sent on every response when CORS is enabled.
const DefaultCORSAllowHeaders = "Access-Control-Allow-Headers, Content-Type, Authorization"

// CORS answers preflight requests and stamps Access-Control-Allow-Headers on
// every response, preflight or not.
func CORS(allowHeaders string) Middleware {
	if strings.TrimSpace(allowHeaders) == "" {
		allowHeaders = DefaultCORSAllowHeaders
	}

	var headers []string
	for _, h := range strings.Split(allowHeaders, ",") {
		if h = strings.TrimSpace(h); h != "" {
			headers = append(headers, h)
		}
	}

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: headers,
		MaxAge:         600,
	})

	return func(next http.Handler) http.Handler {
		h := c.Handler(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Headers", allowHeaders)
			h.ServeHTTP(w, r)
		})
	}
}
