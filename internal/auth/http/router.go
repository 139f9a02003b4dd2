package http

import (
	"log/slog"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/aussiebroadwan/jwtauth/internal/auth/service"
	"github.com/aussiebroadwan/jwtauth/internal/auth/store"
	"github.com/aussiebroadwan/jwtauth/pkg/authsdk"
	"github.com/aussiebroadwan/jwtauth/pkg/httpx"
	"github.com/aussiebroadwan/jwtauth/pkg/slogx"

	_ "github.com/aussiebroadwan/jwtauth/api/auth" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// DefaultAPIPrefix is the protected API surface bearer tokens apply to.
const DefaultAPIPrefix = "/api/"

// Options toggles the optional parts of the middleware chain.
type Options struct {
	// APIPrefix is the protected surface, DefaultAPIPrefix when empty.
	APIPrefix string

	// CORS stamps Access-Control-Allow-Headers on every response.
	CORS bool

	// BasicAuth lets HTTP Basic credentials resolve an identity before the
	// bearer authenticator runs.
	BasicAuth bool

	// TrustedProxies may set X-Forwarded-For and X-Real-IP for rate limit
	// keys. Requests from anywhere else are keyed on their peer address.
	TrustedProxies []netip.Prefix
}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	opts         Options
	clientIP     httpx.ClientIP
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store            store.Store
	Settings         *service.Settings
	Identity         *service.StoreIdentity
	IssuerService    *service.IssuerService
	ValidatorService *service.ValidatorService
	UserService      *service.UserService
}

func NewRouter(
	settings *service.Settings,
	identity *service.StoreIdentity,
	altHeader, buildVersion string,
	st store.Store,
	logger *slog.Logger,
	opts Options,
) *Router {
	if opts.APIPrefix == "" {
		opts.APIPrefix = DefaultAPIPrefix
	}
	if !strings.HasSuffix(opts.APIPrefix, "/") {
		opts.APIPrefix += "/"
	}

	r := &Router{
		Mux:          http.NewServeMux(),
		opts:         opts,
		clientIP:     httpx.ClientIP{Trusted: opts.TrustedProxies},
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
		Settings:     settings,
		Identity:     identity,
		IssuerService: &service.IssuerService{
			Settings: settings,
			Identity: identity,
		},
		ValidatorService: &service.ValidatorService{
			Settings:  settings,
			Identity:  identity,
			AltHeader: altHeader,
		},
		UserService: &service.UserService{Store: st},
	}

	authn := &httpx.Authenticator{
		Validator:    r.ValidatorService,
		Prefix:       opts.APIPrefix,
		ValidatePath: r.tokenPath() + "/token/validate",
	}

	// Order matters: identity from Basic must be in place before the bearer
	// check, and deferred errors are only reported right before routing.
	r.middlewares = []httpx.Middleware{slogx.HTTPMiddleware(r.logger)}
	if opts.CORS {
		r.middlewares = append(r.middlewares,
			httpx.CORS(settings.Hooks.AllowHeaders(httpx.DefaultCORSAllowHeaders)),
		)
	}
	if opts.BasicAuth {
		r.middlewares = append(r.middlewares, httpx.BasicAuth(identity))
	}
	r.middlewares = append(r.middlewares,
		authn.Middleware(),
		httpx.DispatchMiddleware(),
	)

	return r
}

// tokenPath is the token namespace under the API prefix.
func (r *Router) tokenPath() string {
	return strings.TrimSuffix(r.opts.APIPrefix, "/") + strings.TrimPrefix(authsdk.DefaultTokenPath, "/api")
}

func (r *Router) ApplyRoutes() {
	r.registerToken()
	r.registerUsers()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpx.Chain(httpSwagger.Handler(), r.clientIP.RateLimitByIP(httpx.PublicLimit)))
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			JWT Authentication Service API
//	@version		0.1.0
//	@description	Stateless bearer token authentication. Exchange a username and password for a signed JWT,
//	@description	then present it as "Authorization: Bearer {token}" on every protected request.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/jwtauth
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerToken() {
	ns := r.tokenPath()

	// POST /token - strict rate limit by IP + username (credential guessing)
	tokenHandler := &TokenHandler{IssuerService: r.IssuerService}
	r.Mux.Handle("POST "+ns+"/token",
		httpx.Chain(tokenHandler,
			r.clientIP.RateLimitByIPAndFormField(httpx.StrictLimit, "username"),
		),
	)

	// POST /token/validate - moderate rate limit by IP
	validateHandler := &ValidateHandler{ValidatorService: r.ValidatorService}
	r.Mux.Handle("POST "+ns+"/token/validate",
		httpx.Chain(validateHandler,
			r.clientIP.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerUsers() {
	h := &UsersMeHandler{UserService: r.UserService}

	// Authenticated endpoint - lenient rate limit by user
	secured := httpx.Chain(h,
		httpx.RequireUser(),
		r.clientIP.RateLimitByUser(httpx.LenientLimit),
	)

	r.Mux.Handle("GET "+strings.TrimSuffix(r.opts.APIPrefix, "/")+"/v1/users/me", secured)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			r.clientIP.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.Settings),
			r.clientIP.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
