package api

import (
	"bytes"
	"io"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"library-streaming-api/internal/models"
	"library-streaming-api/internal/store"
	"library-streaming-api/pkg/auth"
	"library-streaming-api/pkg/broadcast"
	"library-streaming-api/pkg/metrics"
	"library-streaming-api/pkg/stream"
	"library-streaming-api/pkg/websocket"
)

type testAPI struct {
	ts   *httptest.Server
	reg  *stream.Registry
	hub  *broadcast.Hub
	auth *auth.Service
}

func newTestAPI(t *testing.T, limit rate.Limit, burst int) testAPI {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	log := logrus.NewEntry(logger)

	preg := prometheus.NewRegistry()
	met := metrics.New("library", preg)

	hub := broadcast.NewHub()
	reg := stream.NewRegistry(hub, met, log)
	reg.SetRandSource(func() *rand.Rand { return rand.New(rand.NewSource(1)) })
	t.Cleanup(func() { reg.StopAll() })

	st, err := store.Open(t.TempDir(), log)
	require.NoError(t, err)

	authSvc := auth.NewService("test-secret", time.Hour)
	srv := NewServer(Deps{
		Registry:       reg,
		Store:          st,
		Auth:           authSvc,
		WS:             websocket.NewHandler(hub, reg, met, log),
		Metrics:        met,
		Log:            log,
		MetricsHandler: promhttp.HandlerFor(preg, promhttp.HandlerOpts{}),
		RateLimit:      limit,
		RateBurst:      burst,
	})

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return testAPI{ts: ts, reg: reg, hub: hub, auth: authSvc}
}

func request(t *testing.T, method, url, token string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeMap(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func decodeList(t *testing.T, resp *http.Response) []map[string]any {
	t.Helper()
	var out []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func register(t *testing.T, baseURL, name, email string) (string, map[string]any) {
	t.Helper()
	resp := request(t, http.MethodPost, baseURL+"/api/auth/register", "", map[string]any{
		"name":     name,
		"email":    email,
		"password": "secret123",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	body := decodeMap(t, resp)
	token, _ := body["token"].(string)
	user, _ := body["user"].(map[string]any)
	require.NotEmpty(t, token)
	require.NotNil(t, user)
	return token, user
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t, rate.Inf, 0)

	resp := request(t, http.MethodGet, api.ts.URL+"/health", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeMap(t, resp)
	assert.Equal(t, "ok", body["status"])
	assert.EqualValues(t, 0, body["activeStreams"])
}

func TestStreamStartRequiresName(t *testing.T) {
	api := newTestAPI(t, rate.Inf, 0)

	resp := request(t, http.MethodPost, api.ts.URL+"/api/streams/start", "", map[string]any{
		"interval": 500,
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, decodeMap(t, resp)["error"], "streamName")

	resp = request(t, http.MethodPost, api.ts.URL+"/api/streams/start", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStreamLifecycle(t *testing.T) {
	api := newTestAPI(t, rate.Inf, 0)

	resp := request(t, http.MethodPost, api.ts.URL+"/api/streams/start", "", map[string]any{
		"streamName": "books",
		"interval":   50,
		"duration":   60000,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeMap(t, resp)
	cfg, ok := body["config"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 50, cfg["interval"])
	assert.EqualValues(t, 0, cfg["errorRate"], "unset fields resolve to defaults")

	resp = request(t, http.MethodGet, api.ts.URL+"/api/streams", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body = decodeMap(t, resp)
	assert.EqualValues(t, 1, body["activeStreams"])
	configs, ok := body["configs"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, configs, "books")

	resp = request(t, http.MethodPost, api.ts.URL+"/api/streams/books/stop", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, decodeMap(t, resp)["stopped"])

	// Idempotent: a second stop still answers 200.
	resp = request(t, http.MethodPost, api.ts.URL+"/api/streams/books/stop", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, decodeMap(t, resp)["stopped"])

	assert.Zero(t, api.reg.Count())
}

func TestStartedStreamEmitsToHub(t *testing.T) {
	api := newTestAPI(t, rate.Inf, 0)
	sub := api.hub.Subscribe()
	defer api.hub.Unsubscribe(sub)

	resp := request(t, http.MethodPost, api.ts.URL+"/api/streams/start", "", map[string]any{
		"streamName": "books",
		"interval":   40,
		"duration":   60000,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-sub:
			if ev.Event == "books" {
				return
			}
		case <-deadline:
			t.Fatal("no emission reached the hub")
		}
	}
}

func TestPresets(t *testing.T) {
	api := newTestAPI(t, rate.Inf, 0)

	resp := request(t, http.MethodGet, api.ts.URL+"/api/streams/presets", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	catalog := decodeMap(t, resp)
	require.Contains(t, catalog, "errorHandling")

	faulty := catalog["errorHandling"].(map[string]any)["books"].(map[string]any)
	assert.EqualValues(t, 20, faulty["errorRate"])
	assert.EqualValues(t, 90000, faulty["duration"])

	resp = request(t, http.MethodPost, api.ts.URL+"/api/streams/presets/doesNotExist", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = request(t, http.MethodPost, api.ts.URL+"/api/streams/presets/multiStream", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, api.reg.Count())

	resp = request(t, http.MethodPost, api.ts.URL+"/api/streams/stop-all", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 2, decodeMap(t, resp)["stopped"])
}

func TestAuthAndUserEndpoints(t *testing.T) {
	api := newTestAPI(t, rate.Inf, 0)

	adminToken, adminUser := register(t, api.ts.URL, "Root", "root@example.com")
	assert.Equal(t, "admin", adminUser["role"], "first account becomes admin")
	assert.NotContains(t, adminUser, "passwordHash")

	memberToken, memberUser := register(t, api.ts.URL, "Reader", "reader@example.com")
	assert.Equal(t, "member", memberUser["role"])

	resp := request(t, http.MethodPost, api.ts.URL+"/api/auth/register", "", map[string]any{
		"name": "Again", "email": "reader@example.com", "password": "secret123",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = request(t, http.MethodPost, api.ts.URL+"/api/auth/login", "", map[string]any{
		"email": "reader@example.com", "password": "secret123",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, decodeMap(t, resp)["token"])

	resp = request(t, http.MethodPost, api.ts.URL+"/api/auth/login", "", map[string]any{
		"email": "reader@example.com", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = request(t, http.MethodGet, api.ts.URL+"/api/users", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = request(t, http.MethodGet, api.ts.URL+"/api/users", memberToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = request(t, http.MethodGet, api.ts.URL+"/api/users", adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	users := decodeList(t, resp)
	assert.Len(t, users, 2)
	for _, u := range users {
		assert.NotContains(t, u, "passwordHash")
	}

	resp = request(t, http.MethodGet, api.ts.URL+"/api/users/me", memberToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "reader@example.com", decodeMap(t, resp)["email"])
}

func TestBookEndpoints(t *testing.T) {
	api := newTestAPI(t, rate.Inf, 0)
	adminToken, _ := register(t, api.ts.URL, "Root", "root@example.com")
	memberToken, _ := register(t, api.ts.URL, "Reader", "reader@example.com")

	resp := request(t, http.MethodGet, api.ts.URL+"/api/books", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	seeded := decodeList(t, resp)
	require.NotEmpty(t, seeded, "catalog is seeded on first run")

	resp = request(t, http.MethodPost, api.ts.URL+"/api/books", "", map[string]any{
		"title": "No Token", "author": "Nobody",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = request(t, http.MethodPost, api.ts.URL+"/api/books", memberToken, map[string]any{
		"author": "Missing Title",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = request(t, http.MethodPost, api.ts.URL+"/api/books", memberToken, map[string]any{
		"title":         "Gödel, Escher, Bach",
		"author":        "Douglas Hofstadter",
		"category":      "Philosophy",
		"publishedYear": 1979,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeMap(t, resp)
	id := int(created["id"].(float64))
	assert.Equal(t, true, created["available"])

	resp = request(t, http.MethodPut, api.ts.URL+"/api/books/"+itoa(id), memberToken, map[string]any{
		"title":  "Gödel, Escher, Bach: An Eternal Golden Braid",
		"author": "Douglas Hofstadter",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, decodeMap(t, resp)["title"], "Eternal Golden Braid")

	resp = request(t, http.MethodDelete, api.ts.URL+"/api/books/"+itoa(id), memberToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, "delete needs the admin role")

	resp = request(t, http.MethodDelete, api.ts.URL+"/api/books/"+itoa(id), adminToken, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = request(t, http.MethodGet, api.ts.URL+"/api/books/"+itoa(id), "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestBorrowAndReturnEndpoints(t *testing.T) {
	api := newTestAPI(t, rate.Inf, 0)
	_, _ = register(t, api.ts.URL, "Root", "root@example.com")
	memberToken, _ := register(t, api.ts.URL, "Reader", "reader@example.com")

	resp := request(t, http.MethodGet, api.ts.URL+"/api/books", "", nil)
	book := decodeList(t, resp)[0]
	bookID := int(book["id"].(float64))

	resp = request(t, http.MethodPost, api.ts.URL+"/api/issues", "", map[string]any{"bookId": bookID})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = request(t, http.MethodPost, api.ts.URL+"/api/issues", memberToken, map[string]any{"bookId": bookID})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	issue := decodeMap(t, resp)
	issueID := int(issue["id"].(float64))
	assert.Equal(t, "borrowed", issue["type"])
	assert.NotEmpty(t, issue["dueDate"])

	resp = request(t, http.MethodGet, api.ts.URL+"/api/books/"+itoa(bookID), "", nil)
	assert.Equal(t, false, decodeMap(t, resp)["available"])

	resp = request(t, http.MethodPost, api.ts.URL+"/api/issues", memberToken, map[string]any{"bookId": bookID})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = request(t, http.MethodPost, api.ts.URL+"/api/issues/"+itoa(issueID)+"/return", memberToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	returned := decodeMap(t, resp)
	assert.Equal(t, "returned", returned["issue"].(map[string]any)["type"])
	assert.NotContains(t, returned, "fine", "an on-time return has no fine")

	resp = request(t, http.MethodGet, api.ts.URL+"/api/books/"+itoa(bookID), "", nil)
	assert.Equal(t, true, decodeMap(t, resp)["available"])

	resp = request(t, http.MethodPost, api.ts.URL+"/api/issues/"+itoa(issueID)+"/return", memberToken, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = request(t, http.MethodGet, api.ts.URL+"/api/fines", memberToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decodeList(t, resp))

	resp = request(t, http.MethodPost, api.ts.URL+"/api/fines/12345/pay", memberToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestBorrowNamesTheMissingResource(t *testing.T) {
	api := newTestAPI(t, rate.Inf, 0)
	token, _ := register(t, api.ts.URL, "Root", "root@example.com")

	resp := request(t, http.MethodPost, api.ts.URL+"/api/issues", token, map[string]any{"bookId": 99999})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "book not found", decodeMap(t, resp)["error"])

	// Tokens are stateless, so a valid one can refer to an account that
	// is no longer in the store.
	ghostToken, err := api.auth.Issue(models.User{ID: "ghost", Name: "Ghost", Role: models.RoleMember})
	require.NoError(t, err)

	resp = request(t, http.MethodGet, api.ts.URL+"/api/books", "", nil)
	bookID := int(decodeList(t, resp)[0]["id"].(float64))

	resp = request(t, http.MethodPost, api.ts.URL+"/api/issues", ghostToken, map[string]any{"bookId": bookID})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "user not found", decodeMap(t, resp)["error"])

	resp = request(t, http.MethodGet, api.ts.URL+"/api/books/"+itoa(bookID), "", nil)
	assert.Equal(t, true, decodeMap(t, resp)["available"], "a refused loan leaves the copy on the shelf")
}

func TestDocsPages(t *testing.T) {
	api := newTestAPI(t, rate.Inf, 0)

	pages := map[string]string{
		"/docs":        "Library Streaming API",
		"/docs/rest":   "REST endpoints",
		"/docs/events": "Session channel",
	}
	for path, want := range pages {
		resp := request(t, http.MethodGet, api.ts.URL+path, "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.Contains(t, resp.Header.Get("Content-Type"), "text/html", path)
		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Contains(t, string(raw), want, path)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	api := newTestAPI(t, rate.Inf, 0)

	resp := request(t, http.MethodGet, api.ts.URL+"/metrics", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "library_active_streams")
}

func TestRateLimit(t *testing.T) {
	api := newTestAPI(t, 1, 1)

	resp := request(t, http.MethodGet, api.ts.URL+"/health", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = request(t, http.MethodGet, api.ts.URL+"/health", "", nil)
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Contains(t, decodeMap(t, resp)["error"], "rate limit")
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
