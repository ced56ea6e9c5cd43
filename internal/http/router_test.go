package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FordLabs/PeopleMover/internal/authz"
	"github.com/FordLabs/PeopleMover/internal/domain"
	"github.com/FordLabs/PeopleMover/internal/repository/memory"
	"github.com/FordLabs/PeopleMover/internal/service/assignment"
	"github.com/FordLabs/PeopleMover/internal/service/auth"
	"github.com/FordLabs/PeopleMover/internal/service/person"
	"github.com/FordLabs/PeopleMover/internal/service/product"
	"github.com/FordLabs/PeopleMover/internal/service/report"
	"github.com/FordLabs/PeopleMover/internal/service/role"
	"github.com/FordLabs/PeopleMover/internal/service/space"
	"github.com/FordLabs/PeopleMover/internal/service/tag"
	"github.com/FordLabs/PeopleMover/internal/ws"
	"github.com/FordLabs/PeopleMover/pkg/config"
	"github.com/FordLabs/PeopleMover/pkg/logger"
)

const today = "2026-10-16"

type testEnv struct {
	router *Router
	store  *memory.Store
	auth   auth.Service
}

func newTestEnv(t *testing.T, opts Options) *testEnv {
	t.Helper()
	store := memory.New("#81C0FA", "#83DDC2")
	log := logger.Discard()
	cfg := config.APIConfig{JWTSecret: "test-secret", JWTIssuer: "peoplemover", AccessTokenTTL: time.Hour}
	hub := ws.NewHub()
	t.Cleanup(hub.Close)
	authorizer, err := authz.New()
	require.NoError(t, err)

	assignments := assignment.New(store, store, store, hub, log)
	products := product.New(store, hub, log)
	services := Services{
		Auth:        auth.New(store, store, log, cfg),
		Spaces:      space.New(store, store, hub, log),
		People:      person.New(store, store, hub, log),
		Products:    products,
		Roles:       role.New(store, store, hub, log),
		Tags:        tag.New(store, hub, log),
		Assignments: assignments,
		Reports:     report.New(store, store, assignments, products, []string{"admin"}, log),
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return domain.MustParseDate(today).Time() }
	}
	opts.DBHealth = store.Ping
	router := NewRouter(log, services, authorizer, hub, opts)
	t.Cleanup(router.Close)
	return &testEnv{router: router, store: store, auth: services.Auth}
}

func (e *testEnv) token(t *testing.T, user string) string {
	t.Helper()
	resp, err := e.auth.Exchange(context.Background(), user)
	require.NoError(t, err)
	return resp.AccessToken
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func (e *testEnv) createSpace(t *testing.T, token, name string, public bool) domain.Space {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/user/spaces", token, map[string]any{"name": name, "todayViewIsPublic": public})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[domain.Space](t, rec)
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t, Options{})
	rec := env.do(t, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	payload := decode[map[string]any](t, rec)
	assert.Equal(t, "ok", payload["status"])
}

func TestUserRoutesRequireToken(t *testing.T) {
	env := newTestEnv(t, Options{})

	rec := env.do(t, http.MethodGet, "/api/user/spaces", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "authentication required")

	rec = env.do(t, http.MethodGet, "/api/user/spaces", "INVALID_TOKEN", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateAndListSpaces(t *testing.T) {
	env := newTestEnv(t, Options{})
	token := env.token(t, "jdoe")

	created := env.createSpace(t, token, "Flipping Sweet", false)
	assert.NotEmpty(t, created.UUID)
	assert.Equal(t, "JDOE", created.CreatedBy)

	rec := env.do(t, http.MethodPost, "/api/user/spaces", token, map[string]any{"name": "flipping sweet"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/user/spaces", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	spaces := decode[[]domain.Space](t, rec)
	require.Len(t, spaces, 1)
	assert.Equal(t, created.UUID, spaces[0].UUID)

	rec = env.do(t, http.MethodGet, "/api/spaces/"+created.UUID+"/products", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	products := decode[[]domain.Product](t, rec)
	require.Len(t, products, 1)
	assert.True(t, products[0].IsUnassigned())
}

func TestSpaceAccessControl(t *testing.T) {
	env := newTestEnv(t, Options{})
	owner := env.token(t, "owner")
	stranger := env.token(t, "stranger")
	private := env.createSpace(t, owner, "Private", false)
	public := env.createSpace(t, owner, "Public", true)

	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodGet, "/api/spaces/"+private.UUID+"/people", "", nil).Code)
	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodGet, "/api/spaces/"+private.UUID+"/people", stranger, nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/spaces/missing/people", owner, nil).Code)

	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/spaces/"+public.UUID+"/people", "", nil).Code)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/spaces/"+public.UUID+"/assignments/date/"+today, "", nil).Code)
	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodGet, "/api/spaces/"+public.UUID+"/assignments/date/2026-10-15", "", nil).Code)
	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodGet, "/api/spaces/"+public.UUID+"/assignments/date/2026-10-15", stranger, nil).Code)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/spaces/"+public.UUID+"/assignments/date/2026-10-15", owner, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodPost, "/api/spaces/"+public.UUID+"/people", "", map[string]any{"name": "Jane"}).Code)
	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodPost, "/api/spaces/"+public.UUID+"/people", stranger, map[string]any{"name": "Jane"}).Code)
}

func TestInvitedEditorCanEditButNotDelete(t *testing.T) {
	env := newTestEnv(t, Options{})
	owner := env.token(t, "owner")
	created := env.createSpace(t, owner, "Team", false)

	rec := env.do(t, http.MethodPut, "/api/spaces/"+created.UUID+"/users", owner, map[string]any{"emails": []string{"jane.doe@ford.com"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	editor := env.token(t, "jane.doe")
	rec = env.do(t, http.MethodPost, "/api/spaces/"+created.UUID+"/people", editor, map[string]any{"name": "Jane"})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodDelete, "/api/spaces/"+created.UUID, editor, nil).Code)
	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodDelete, "/api/spaces/"+created.UUID+"/users/OWNER", editor, nil).Code)

	rec = env.do(t, http.MethodGet, "/api/spaces/"+created.UUID+"/users", editor, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	users := decode[[]domain.UserSpaceMapping](t, rec)
	assert.Len(t, users, 2)

	assert.Equal(t, http.StatusNoContent, env.do(t, http.MethodDelete, "/api/spaces/"+created.UUID+"/users/JANE.DOE", owner, nil).Code)
	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodGet, "/api/spaces/"+created.UUID+"/people", editor, nil).Code)
	assert.Equal(t, http.StatusNoContent, env.do(t, http.MethodDelete, "/api/spaces/"+created.UUID, owner, nil).Code)
}

func TestAssignmentFlowAndReports(t *testing.T) {
	env := newTestEnv(t, Options{})
	token := env.token(t, "jdoe")
	created := env.createSpace(t, token, "Flipping Sweet", false)
	base := "/api/spaces/" + created.UUID

	rec := env.do(t, http.MethodPost, base+"/roles", token, map[string]any{"name": "Engineer"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	engineer := decode[domain.SpaceRole](t, rec)
	require.NotNil(t, engineer.Color)

	rec = env.do(t, http.MethodPost, base+"/products", token, map[string]any{"name": "Baguette Bakery"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	bakery := decode[domain.Product](t, rec)
	assert.Equal(t, http.StatusConflict, env.do(t, http.MethodPost, base+"/products", token, map[string]any{"name": "baguette bakery"}).Code)

	rec = env.do(t, http.MethodPost, base+"/people", token, map[string]any{"name": "Jane Smith", "spaceRole": engineer})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	jane := decode[domain.Person](t, rec)

	rec = env.do(t, http.MethodPost, base+"/person/"+itoa(jane.ID)+"/assignment/create", token, map[string]any{
		"requestedDate": today,
		"products":      []map[string]any{{"productId": bakery.ID, "placeholder": false}},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assigned := decode[[]domain.Assignment](t, rec)
	require.Len(t, assigned, 1)
	assert.Equal(t, bakery.ID, assigned[0].ProductID)

	rec = env.do(t, http.MethodGet, base+"/person/"+itoa(jane.ID)+"/assignments/date/"+today, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]domain.Assignment](t, rec), 1)

	rec = env.do(t, http.MethodGet, base+"/assignment/dates", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `["`+today+`"]`, strings.TrimSpace(rec.Body.String()))

	rec = env.do(t, http.MethodGet, base+"/reassignment/"+today, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	moves := decode[[]domain.Reassignment](t, rec)
	require.Len(t, moves, 1)
	assert.Equal(t, "Baguette Bakery", moves[0].ToProductName)

	rec = env.do(t, http.MethodGet, "/api/reportgenerator/"+created.UUID+"/"+today, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rows := decode[[]domain.PeopleReportRow](t, rec)
	require.Len(t, rows, 1)
	assert.Equal(t, domain.PeopleReportRow{ProductName: "Baguette Bakery", PersonName: "Jane Smith", PersonRole: "Engineer"}, rows[0])

	rec = env.do(t, http.MethodGet, "/api/reportgenerator/"+created.UUID+"/"+today+"?format=xlsx", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")))

	rec = env.do(t, http.MethodDelete, base+"/person/"+itoa(jane.ID)+"/assignment/delete/"+today, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(t, http.MethodGet, base+"/person/"+itoa(jane.ID)+"/assignments/date/"+today, token, nil)
	reverted := decode[[]domain.Assignment](t, rec)
	require.Len(t, reverted, 1)
	assert.NotEqual(t, bakery.ID, reverted[0].ProductID)

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, base+"/reassignment/not-a-date", token, nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodPost, base+"/person/999/assignment/create", token, map[string]any{"requestedDate": today}).Code)
}

func TestSecuredReports(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.createSpace(t, env.token(t, "jdoe"), "Flipping Sweet", false)

	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodGet, "/api/reportgenerator/space", env.token(t, "jdoe"), nil).Code)

	rec := env.do(t, http.MethodGet, "/api/reportgenerator/space", env.token(t, "admin"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rows := decode[[]domain.SpaceReportRow](t, rec)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"JDOE"}, rows[0].Users)

	rec = env.do(t, http.MethodGet, "/api/reportgenerator/user", env.token(t, "admin"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"JDOE"}, decode[[]string](t, rec))
}

func TestTagRoutesByKind(t *testing.T) {
	env := newTestEnv(t, Options{})
	token := env.token(t, "jdoe")
	created := env.createSpace(t, token, "Tags", false)
	base := "/api/spaces/" + created.UUID

	for _, name := range []string{"zeta", "Alpha"} {
		rec := env.do(t, http.MethodPost, base+"/location-tags", token, map[string]any{"name": name})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}
	assert.Equal(t, http.StatusConflict, env.do(t, http.MethodPost, base+"/location-tags", token, map[string]any{"name": "ALPHA"}).Code)

	rec := env.do(t, http.MethodGet, base+"/location-tags", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	tags := decode[[]domain.Tag](t, rec)
	require.Len(t, tags, 2)
	assert.Equal(t, "Alpha", tags[0].Name)

	rec = env.do(t, http.MethodGet, base+"/product-tags", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]domain.Tag](t, rec))

	assert.Equal(t, http.StatusOK, env.do(t, http.MethodDelete, base+"/location-tags/"+itoa(tags[0].ID), token, nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, base+"/team-tags", token, nil).Code)
}

func TestAccessTokenEndpoints(t *testing.T) {
	env := newTestEnv(t, Options{})

	rec := env.do(t, http.MethodPost, "/api/access_token", "", map[string]any{"accessCode": "jdoe"})
	require.Equal(t, http.StatusOK, rec.Code)
	token := decode[auth.TokenResponse](t, rec)
	env.createSpace(t, token.AccessToken, "Flipping Sweet", false)

	rec = env.do(t, http.MethodPost, "/api/access_token/validate", "", map[string]any{"accessToken": token.AccessToken})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "JDOE", decode[auth.TokenInfo](t, rec).Sub)

	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodPost, "/api/access_token/validate", "", map[string]any{"accessToken": "nope"}).Code)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/access_token/refresh", "", map[string]any{"accessToken": token.AccessToken}).Code)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/access_token/authenticate", "", map[string]any{"accessToken": token.AccessToken, "spaceName": "FLIPPING SWEET"}).Code)
	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodPost, "/api/access_token/authenticate", "", map[string]any{"accessToken": env.token(t, "other"), "spaceName": "Flipping Sweet"}).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/api/access_token", "", map[string]any{}).Code)
}

func TestRateLimitedUserRoutes(t *testing.T) {
	env := newTestEnv(t, Options{RateLimit: 1, RateWindow: time.Minute})
	token := env.token(t, "jdoe")

	first := env.do(t, http.MethodGet, "/api/user/spaces", token, nil)
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Limit"))

	second := env.do(t, http.MethodGet, "/api/user/spaces", token, nil)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "0", second.Header().Get("X-RateLimit-Remaining"))
}

func TestMethodNotAllowed(t *testing.T) {
	env := newTestEnv(t, Options{})
	token := env.token(t, "jdoe")
	created := env.createSpace(t, token, "Methods", false)

	rec := env.do(t, http.MethodDelete, "/api/user/spaces", token, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "GET, POST", rec.Header().Get("Allow"))

	rec = env.do(t, http.MethodDelete, "/api/spaces/"+created.UUID+"/people", token, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "GET, POST", rec.Header().Get("Allow"))

	rec = env.do(t, http.MethodPost, "/healthz", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/spaces/"+created.UUID+"/nowhere", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, rec.Header().Get("Allow"))
}

func TestCreateAssignmentsRejectsZeroProductID(t *testing.T) {
	env := newTestEnv(t, Options{})
	token := env.token(t, "jdoe")
	created := env.createSpace(t, token, "Zero", false)
	base := "/api/spaces/" + created.UUID

	rec := env.do(t, http.MethodPost, base+"/people", token, map[string]any{"name": "Jane Smith"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	jane := decode[domain.Person](t, rec)

	rec = env.do(t, http.MethodPost, base+"/person/"+itoa(jane.ID)+"/assignment/create", token, map[string]any{
		"requestedDate": today,
		"products":      []map[string]any{{"productId": 0, "placeholder": false}},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
}

func TestEffectiveDatesRequireEditor(t *testing.T) {
	env := newTestEnv(t, Options{})
	owner := env.token(t, "jdoe")
	created := env.createSpace(t, owner, "Public", true)
	path := "/api/spaces/" + created.UUID + "/assignment/dates"

	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodGet, path, "", nil).Code)
	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodGet, path, env.token(t, "stranger"), nil).Code)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, path, owner, nil).Code)

	// Viewers still see today's content.
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/spaces/"+created.UUID+"/people", "", nil).Code)
}

func TestEventStreamReceivesSpaceMutations(t *testing.T) {
	env := newTestEnv(t, Options{})
	token := env.token(t, "jdoe")
	created := env.createSpace(t, token, "Live", false)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/spaces/"+created.UUID+"/events?access_token="+token, nil).WithContext(ctx)
	recorder := newStreamRecorder()
	done := make(chan struct{})
	go func() {
		env.router.ServeHTTP(recorder, req)
		close(done)
	}()

	waitFor(t, 2*time.Second, func() bool { return strings.Contains(recorder.body(), ": ping") })
	rec := env.do(t, http.MethodPost, "/api/spaces/"+created.UUID+"/people", token, map[string]any{"name": "Jane"})
	require.Equal(t, http.StatusOK, rec.Code)
	waitFor(t, 2*time.Second, func() bool { return strings.Contains(recorder.body(), person.EventPeopleChanged) })

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("event stream did not exit after context cancel")
	}
	assert.Equal(t, "text/event-stream", recorder.Header().Get("Content-Type"))
	assert.Positive(t, recorder.flushCount())
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

type streamRecorder struct {
	mu     sync.Mutex
	header http.Header
	status int
	buf    bytes.Buffer
	flush  int
}

func newStreamRecorder() *streamRecorder {
	return &streamRecorder{header: make(http.Header)}
}

func (s *streamRecorder) Header() http.Header {
	return s.header
}

func (s *streamRecorder) Write(b []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == 0 {
		s.status = http.StatusOK
	}
	return s.buf.Write(b)
}

func (s *streamRecorder) WriteHeader(status int) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()
}

func (s *streamRecorder) Flush() {
	s.mu.Lock()
	s.flush++
	s.mu.Unlock()
}

func (s *streamRecorder) body() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

func (s *streamRecorder) flushCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flush
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", timeout)
}
