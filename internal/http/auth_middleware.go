package httpx

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/FordLabs/PeopleMover/internal/authz"
	"github.com/FordLabs/PeopleMover/internal/domain"
)

type authContextKey string

type authInfo struct {
	UserID string
	Email  string
}

type spaceAccess struct {
	UUID string
	Role authz.Role
}

const (
	contextKeyAuth  authContextKey = "peoplemover-auth-info"
	contextKeySpace authContextKey = "peoplemover-space-access"
)

type contextSetter interface {
	SetContext(context.Context)
}

var errNoToken = errors.New("missing authorization header")

// requireAuth rejects requests without a valid bearer token.
func (r *Router) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if ctx, _, ok := r.ensureAuth(w, req); ok {
			serveWith(ctx, w, req, next)
		}
	}
}

// serveWith runs next under ctx and hands ctx to the audit recorder so the
// request log can name the caller.
func serveWith(ctx context.Context, w http.ResponseWriter, req *http.Request, next http.HandlerFunc) {
	if setter, ok := w.(contextSetter); ok {
		setter.SetContext(ctx)
	}
	next(w, req.WithContext(ctx))
}

// ensureAuth validates the caller's token and stores who they are in the
// returned context. It writes the 401 itself.
func (r *Router) ensureAuth(w http.ResponseWriter, req *http.Request) (context.Context, authInfo, bool) {
	token, err := requestToken(req)
	if err != nil {
		r.logger.Warn("bearer token missing or malformed", "error", err, "path", req.URL.Path)
		writeError(w, http.StatusUnauthorized, "authentication required")
		return req.Context(), authInfo{}, false
	}
	claims, err := r.services.Auth.Authorize(req.Context(), token)
	if err != nil {
		r.logger.Warn("bearer token rejected", "error", err, "path", req.URL.Path)
		writeError(w, http.StatusUnauthorized, "authentication failed")
		return req.Context(), authInfo{}, false
	}
	info := authInfo{UserID: claims.UserID(), Email: claims.Email}
	return context.WithValue(req.Context(), contextKeyAuth, info), info, true
}

// requireSpace resolves the caller's role on the {uuid} space and enforces
// object/action. Requests without a token act anonymously so public spaces
// stay readable.
func (r *Router) requireSpace(object, action string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		ctx := req.Context()
		var info authInfo
		if _, err := requestToken(req); !errors.Is(err, errNoToken) {
			authed, authedInfo, ok := r.ensureAuth(w, req)
			if !ok {
				return
			}
			ctx, info = authed, authedInfo
		}
		spaceUUID := mux.Vars(req)["uuid"]
		role, err := r.services.Spaces.RoleFor(ctx, info.UserID, spaceUUID)
		if err != nil {
			r.writeServiceError(w, req, err)
			return
		}
		if err := r.authz.Authorize(role, object, action); err != nil {
			if info.UserID == "" {
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}
			r.logger.Warn("space access denied", "user_id", info.UserID, "space_uuid", spaceUUID, "role", role, "object", object, "action", action)
			r.writeServiceError(w, req, err)
			return
		}
		serveWith(context.WithValue(ctx, contextKeySpace, spaceAccess{UUID: spaceUUID, Role: role}), w, req, next)
	}
}

// checkDate limits read-only callers to today's views.
func (r *Router) checkDate(req *http.Request, date domain.Date) error {
	access := spaceAccessFromContext(req.Context())
	return authz.CheckReadOnlyDate(access.Role, date, r.today())
}

func authInfoFromContext(ctx context.Context) (authInfo, bool) {
	info, ok := ctx.Value(contextKeyAuth).(authInfo)
	return info, ok
}

func spaceAccessFromContext(ctx context.Context) spaceAccess {
	access, _ := ctx.Value(contextKeySpace).(spaceAccess)
	return access
}

// requestToken reads the bearer token. Event streams may pass it as the
// access_token query parameter since browsers cannot set headers on them.
func requestToken(req *http.Request) (string, error) {
	header := req.Header.Get("Authorization")
	if strings.TrimSpace(header) == "" {
		if token := strings.TrimSpace(req.URL.Query().Get("access_token")); token != "" {
			return token, nil
		}
	}
	return bearerToken(header)
}

func bearerToken(header string) (string, error) {
	if strings.TrimSpace(header) == "" {
		return "", errNoToken
	}
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", errors.New("authorization header is not a bearer token")
	}
	if token = strings.TrimSpace(token); token == "" || strings.ContainsAny(token, " \t") {
		return "", errors.New("malformed bearer token")
	}
	return token, nil
}
