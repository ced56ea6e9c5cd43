package httpx

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"log/slog"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/FordLabs/PeopleMover/internal/authz"
	"github.com/FordLabs/PeopleMover/internal/domain"
	"github.com/FordLabs/PeopleMover/internal/service/assignment"
	"github.com/FordLabs/PeopleMover/internal/service/auth"
	"github.com/FordLabs/PeopleMover/internal/service/person"
	"github.com/FordLabs/PeopleMover/internal/service/product"
	"github.com/FordLabs/PeopleMover/internal/service/report"
	"github.com/FordLabs/PeopleMover/internal/service/role"
	"github.com/FordLabs/PeopleMover/internal/service/space"
	"github.com/FordLabs/PeopleMover/internal/service/tag"
	"github.com/FordLabs/PeopleMover/internal/ws"
)

// Services groups the domain services exposed over HTTP.
type Services struct {
	Auth        auth.Service
	Spaces      space.Service
	People      person.Service
	Products    product.Service
	Roles       role.Service
	Tags        tag.Service
	Assignments assignment.Service
	Reports     report.Service
}

// Options tunes router behaviour.
type Options struct {
	Limiter        RateLimiter
	RateLimit      int
	RateWindow     time.Duration
	AllowedOrigins []string
	DBHealth       func(context.Context) error
	// Now overrides the clock used for read-only date checks.
	Now func() time.Time
	// Registerer receives the router's collectors; defaults to the global registry.
	Registerer prometheus.Registerer
}

// Router wires HTTP endpoints to services.
type Router struct {
	mux        *mux.Router
	handler    http.Handler
	logger     *slog.Logger
	services   Services
	authz      *authz.Authorizer
	hub        *ws.Hub
	upgrader   websocket.Upgrader
	limiter    RateLimiter
	rateLimit  int
	rateWindow time.Duration
	dbHealth   func(context.Context) error
	now        func() time.Time

	metrics *routerMetrics
}

const (
	rateWindowDefault  = time.Minute
	rateWindowRealtime = 30 * time.Second
	rateLimitToken     = 30
	rateLimitUser      = 300
	rateLimitReport    = 30
	rateLimitStream    = 30
	healthCheckTimeout = 2 * time.Second
	streamHeartbeat    = 25 * time.Second
)

// NewRouter assembles routes with dependencies.
func NewRouter(logger *slog.Logger, services Services, authorizer *authz.Authorizer, hub *ws.Hub, opts Options) *Router {
	r := &Router{
		mux:        mux.NewRouter(),
		logger:     logger,
		services:   services,
		authz:      authorizer,
		hub:        hub,
		limiter:    opts.Limiter,
		rateLimit:  opts.RateLimit,
		rateWindow: opts.RateWindow,
		dbHealth:   opts.DBHealth,
		now:        opts.Now,
	}
	if r.limiter == nil {
		r.limiter = NewMemoryRateLimiter()
	}
	if r.rateLimit == 0 {
		r.rateLimit = rateLimitUser
	}
	if r.rateWindow <= 0 {
		r.rateWindow = rateWindowDefault
	}
	if r.now == nil {
		r.now = time.Now
	}
	r.upgrader = websocket.Upgrader{CheckOrigin: r.checkOrigin(opts.AllowedOrigins)}
	r.metrics = newRouterMetrics(opts.Registerer)
	r.register()
	r.handler = cors.New(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
	}).Handler(r.mux)
	return r
}

// ServeHTTP delegates to the CORS-wrapped mux.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.handler.ServeHTTP(w, req)
}

// Close releases background resources.
func (r *Router) Close() {
	if r.limiter != nil {
		r.limiter.Close()
	}
}

func (r *Router) register() {
	r.mux.NotFoundHandler = http.HandlerFunc(r.unmatched)
	r.mux.MethodNotAllowedHandler = http.HandlerFunc(r.unmatched)

	r.mux.HandleFunc("/healthz", r.audit(r.handleHealthz)).Methods(http.MethodGet)
	r.mux.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := r.mux.PathPrefix("/api").Subrouter()

	token := func(h http.HandlerFunc) http.HandlerFunc {
		return r.audit(r.withRateLimit(rateLimitToken, rateWindowDefault, ipRateKey, h))
	}
	api.HandleFunc("/access_token", token(r.handleAccessToken)).Methods(http.MethodPost)
	api.HandleFunc("/access_token/refresh", token(r.handleRefreshToken)).Methods(http.MethodPost)
	api.HandleFunc("/access_token/validate", token(r.handleValidateToken)).Methods(http.MethodPost)
	api.HandleFunc("/access_token/authenticate", token(r.handleAuthenticate)).Methods(http.MethodPost)

	user := func(h http.HandlerFunc) http.HandlerFunc {
		return r.audit(r.handlerAuthRate(r.rateLimit, r.rateWindow, h))
	}
	api.HandleFunc("/user/spaces", user(r.handleListSpaces)).Methods(http.MethodGet)
	api.HandleFunc("/user/spaces", user(r.handleCreateSpace)).Methods(http.MethodPost)
	api.HandleFunc("/colors", user(r.handleColors)).Methods(http.MethodGet)

	reports := func(h http.HandlerFunc) http.HandlerFunc {
		return r.audit(r.handlerAuthRate(rateLimitReport, rateWindowDefault, h))
	}
	api.HandleFunc("/reportgenerator/space", reports(r.handleSpaceReport)).Methods(http.MethodGet)
	api.HandleFunc("/reportgenerator/user", reports(r.handleUserReport)).Methods(http.MethodGet)
	api.HandleFunc("/reportgenerator/{uuid}/{date}", r.audit(r.handlerSpaceRate(authz.ObjectContent, authz.ActionRead, rateLimitReport, rateWindowDefault, r.handlePeopleReport))).Methods(http.MethodGet)

	in := func(object, action string, h http.HandlerFunc) http.HandlerFunc {
		return r.audit(r.handlerSpaceRate(object, action, r.rateLimit, r.rateWindow, h))
	}
	read := func(h http.HandlerFunc) http.HandlerFunc { return in(authz.ObjectContent, authz.ActionRead, h) }
	write := func(h http.HandlerFunc) http.HandlerFunc { return in(authz.ObjectContent, authz.ActionWrite, h) }

	spaces := api.PathPrefix("/spaces/{uuid}").Subrouter()
	spaces.HandleFunc("", in(authz.ObjectSpace, authz.ActionRead, r.handleGetSpace)).Methods(http.MethodGet)
	spaces.HandleFunc("", in(authz.ObjectSpace, authz.ActionWrite, r.handleUpdateSpace)).Methods(http.MethodPut)
	spaces.HandleFunc("", in(authz.ObjectSpace, authz.ActionDelete, r.handleDeleteSpace)).Methods(http.MethodDelete)
	spaces.HandleFunc("/users", in(authz.ObjectMembers, authz.ActionRead, r.handleListSpaceUsers)).Methods(http.MethodGet)
	spaces.HandleFunc("/users", in(authz.ObjectMembers, authz.ActionWrite, r.handleInviteUsers)).Methods(http.MethodPut)
	spaces.HandleFunc("/users/{userId}", in(authz.ObjectMembers, authz.ActionWrite, r.handleRemoveUser)).Methods(http.MethodDelete)

	spaces.HandleFunc("/people", read(r.handleListPeople)).Methods(http.MethodGet)
	spaces.HandleFunc("/people", write(r.handleCreatePerson)).Methods(http.MethodPost)
	spaces.HandleFunc("/people/total", read(r.handleCountPeople)).Methods(http.MethodGet)
	spaces.HandleFunc("/people/{id:[0-9]+}", write(r.handleUpdatePerson)).Methods(http.MethodPut)
	spaces.HandleFunc("/people/{id:[0-9]+}", write(r.handleDeletePerson)).Methods(http.MethodDelete)

	spaces.HandleFunc("/products", read(r.handleListProducts)).Methods(http.MethodGet)
	spaces.HandleFunc("/products", write(r.handleCreateProduct)).Methods(http.MethodPost)
	spaces.HandleFunc("/products/{id:[0-9]+}", write(r.handleUpdateProduct)).Methods(http.MethodPut)
	spaces.HandleFunc("/products/{id:[0-9]+}", write(r.handleDeleteProduct)).Methods(http.MethodDelete)

	spaces.HandleFunc("/roles", read(r.handleListRoles)).Methods(http.MethodGet)
	spaces.HandleFunc("/roles", write(r.handleCreateRole)).Methods(http.MethodPost)
	spaces.HandleFunc("/roles/{id:[0-9]+}", write(r.handleUpdateRole)).Methods(http.MethodPut)
	spaces.HandleFunc("/roles/{id:[0-9]+}", write(r.handleDeleteRole)).Methods(http.MethodDelete)

	tags := "/{kind:product-tags|location-tags|person-tags}"
	spaces.HandleFunc(tags, read(r.handleListTags)).Methods(http.MethodGet)
	spaces.HandleFunc(tags, write(r.handleCreateTag)).Methods(http.MethodPost)
	spaces.HandleFunc(tags+"/{id:[0-9]+}", write(r.handleUpdateTag)).Methods(http.MethodPut)
	spaces.HandleFunc(tags+"/{id:[0-9]+}", write(r.handleDeleteTag)).Methods(http.MethodDelete)

	spaces.HandleFunc("/person/{id:[0-9]+}/assignments/date/{date}", read(r.handlePersonAssignments)).Methods(http.MethodGet)
	spaces.HandleFunc("/assignments/date/{date}", read(r.handleSpaceAssignments)).Methods(http.MethodGet)
	spaces.HandleFunc("/assignment/dates", in(authz.ObjectHistory, authz.ActionRead, r.handleEffectiveDates)).Methods(http.MethodGet)
	spaces.HandleFunc("/reassignment/{date}", read(r.handleReassignments)).Methods(http.MethodGet)
	spaces.HandleFunc("/person/{id:[0-9]+}/assignment/create", write(r.handleCreateAssignments)).Methods(http.MethodPost)
	spaces.HandleFunc("/person/{id:[0-9]+}/assignment/delete/{date}", write(r.handleRevertAssignments)).Methods(http.MethodDelete)

	stream := func(h http.HandlerFunc) http.HandlerFunc {
		return r.audit(r.handlerSpaceRate(authz.ObjectContent, authz.ActionRead, rateLimitStream, rateWindowRealtime, h))
	}
	spaces.HandleFunc("/events", stream(r.handleEvents)).Methods(http.MethodGet)
	spaces.HandleFunc("/ws", stream(r.handleEventsWS)).Methods(http.MethodGet)
}

func (r *Router) handleHealthz(w http.ResponseWriter, req *http.Request) {
	components := make(map[string]any)
	status := "ok"
	if r.dbHealth != nil {
		ctx, cancel := context.WithTimeout(req.Context(), healthCheckTimeout)
		defer cancel()
		if err := r.dbHealth(ctx); err != nil {
			status = "degraded"
			components["database"] = map[string]any{
				"status": "down",
				"error":  err.Error(),
			}
		} else {
			components["database"] = map[string]any{"status": "up"}
		}
	}
	payload := map[string]any{
		"status":     status,
		"components": components,
		"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
	}
	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, payload)
}

func (r *Router) audit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w}
		start := time.Now()
		next(recorder, req)

		status := recorder.status
		if status == 0 {
			status = http.StatusOK
		}
		ctx := recorder.ctx
		if ctx == nil {
			ctx = req.Context()
		}
		duration := time.Since(start)
		route := routeLabel(req)
		r.metrics.observeRequest(req.Method, route, status, duration)

		actor := "anonymous"
		fields := []any{
			"method", req.Method,
			"path", req.URL.Path,
			"route", route,
			"status", status,
			"bytes", recorder.bytes,
			"duration_ms", duration.Milliseconds(),
		}
		if ip := clientIP(req); ip != "" {
			fields = append(fields, "ip", ip)
		}
		if reqID := strings.TrimSpace(req.Header.Get("X-Request-ID")); reqID != "" {
			fields = append(fields, "request_id", reqID)
		}
		if info, ok := authInfoFromContext(ctx); ok {
			actor = "user"
			fields = append(fields, "user_id", info.UserID)
		}
		if access := spaceAccessFromContext(ctx); access.UUID != "" {
			fields = append(fields, "space_uuid", access.UUID, "role", string(access.Role))
			if req.Method != http.MethodGet && status < http.StatusBadRequest {
				r.metrics.spaceWrite(req.Method, string(access.Role))
			}
		}
		fields = append(fields, "actor", actor)

		switch {
		case status >= http.StatusInternalServerError:
			r.logger.Error("http_request", fields...)
		case status >= http.StatusBadRequest:
			r.logger.Warn("http_request", fields...)
		default:
			r.logger.Info("http_request", fields...)
		}
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
	ctx    context.Context
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if sr.status == 0 {
		sr.status = http.StatusOK
	}
	n, err := sr.ResponseWriter.Write(b)
	sr.bytes += n
	return n, err
}

func (sr *statusRecorder) SetContext(ctx context.Context) {
	sr.ctx = ctx
}

func (sr *statusRecorder) Flush() {
	if f, ok := sr.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (sr *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := sr.ResponseWriter.(http.Hijacker); ok {
		return h.Hijack()
	}
	return nil, nil, errors.New("hijacker not supported")
}

func routeLabel(req *http.Request) string {
	if route := mux.CurrentRoute(req); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return req.URL.Path
}

func ipRateKey(req *http.Request) string {
	return "ip:" + remoteHost(req)
}

func clientIP(req *http.Request) string {
	if forwarded := strings.TrimSpace(req.Header.Get("X-Forwarded-For")); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if len(parts) > 0 {
			ip := strings.TrimSpace(parts[0])
			if ip != "" {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(req.RemoteAddr))
	if err != nil {
		return strings.TrimSpace(req.RemoteAddr)
	}
	return host
}

func (r *Router) checkOrigin(allowed []string) func(*http.Request) bool {
	return func(req *http.Request) bool {
		origin := req.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 {
			return true
		}
		for _, candidate := range allowed {
			if candidate == "*" || strings.EqualFold(candidate, origin) {
				return true
			}
		}
		return false
	}
}

func (r *Router) today() domain.Date {
	return domain.DateOf(r.now())
}

// routeMethods are the methods any registered route accepts.
var routeMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete}

// unmatched answers 405 with an Allow header when the path exists under another
// method. Subrouters drop mux's method mismatch, so the path is re-matched here.
func (r *Router) unmatched(w http.ResponseWriter, req *http.Request) {
	if allowed := r.allowedMethods(req); len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
		r.methodNotAllowed(w)
		return
	}
	r.notFound(w)
}

func (r *Router) allowedMethods(req *http.Request) []string {
	var allowed []string
	for _, method := range routeMethods {
		if method == req.Method {
			continue
		}
		alt := req.Clone(req.Context())
		alt.Method = method
		var match mux.RouteMatch
		if r.mux.Match(alt, &match) && match.MatchErr == nil {
			allowed = append(allowed, method)
		}
	}
	return allowed
}

func (r *Router) methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func (r *Router) notFound(w http.ResponseWriter) {
	writeError(w, http.StatusNotFound, "not found")
}
