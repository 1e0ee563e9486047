package misc

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/2beens/ergolog/internal/auth"
	"github.com/2beens/ergolog/internal/middleware"
	"github.com/2beens/ergolog/internal/telemetry/metrics"
	"github.com/2beens/ergolog/pkg"

	"github.com/go-redis/redis_rate/v9"
	"github.com/go-redis/redismock/v8"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// INFO: https://github.com/go-redis/redis/issues/1029
		goleak.IgnoreTopFunction(
			"github.com/go-redis/redis/v8/internal/pool.(*ConnPool).reaper",
		),
	)
}

type testRequestRateLimiter struct {
	// key to limit map
	Limits map[string]int
}

func (l *testRequestRateLimiter) Allow(_ context.Context, key string, _ redis_rate.Limit) (*redis_rate.Result, error) {
	res := &redis_rate.Result{}

	foundLimit, ok := l.Limits[key]
	if !ok || foundLimit == 0 {
		return res, nil
	}

	res.Allowed = l.Limits[key]
	l.Limits[key]--

	return res, nil
}

func setupMiscRouterForTests(
	t *testing.T,
	authService *auth.Service,
	admin *auth.Admin,
	loginChecker *auth.LoginChecker,
	reqRateLimiter *testRequestRateLimiter,
) *mux.Router {
	t.Helper()

	metricsManager := metrics.NewTestManager()

	r := mux.NewRouter()
	authMiddleware := middleware.NewAuthMiddlewareHandler(loginChecker)

	// the same setup as in Server.routerSetup() ... these are not so much of a "unit" tests
	r.Use(middleware.PanicRecovery(metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(metricsManager))
	r.Use(middleware.Cors())
	r.Use(authMiddleware.AuthCheck())
	r.Use(middleware.DrainAndCloseRequest())

	handler := NewHandler("dummy", authService, admin)
	handler.SetupRoutes(r, reqRateLimiter, 5, metricsManager)

	return r
}

func TestNewMiscHandler(t *testing.T) {
	mainRouter := mux.NewRouter()
	handler := NewHandler("dummy", &auth.Service{}, &auth.Admin{})
	handler.SetupRoutes(mainRouter, nil, 5, metrics.NewTestManager())
	require.NotNil(t, handler)
	require.NotNil(t, mainRouter)

	for caseName, route := range map[string]struct {
		name   string
		path   string
		method string
	}{
		"route-root": {
			name:   "root",
			path:   "/",
			method: "GET",
		},
		"route-version": {
			name:   "version",
			path:   "/version",
			method: "GET",
		},
		"route-myip": {
			name:   "myip",
			path:   "/myip",
			method: "GET",
		},
		"route-login": {
			name:   "login",
			path:   "/a/login",
			method: "POST",
		},
		"route-logout": {
			name:   "logout",
			path:   "/a/logout",
			method: "GET",
		},
	} {
		t.Run(caseName, func(t *testing.T) {
			foundRoute := mainRouter.Get(route.name)
			require.NotNil(t, foundRoute)

			path, err := foundRoute.GetPathTemplate()
			require.NoError(t, err)
			assert.Equal(t, route.path, path)

			methods, err := foundRoute.GetMethods()
			require.NoError(t, err)
			assert.Contains(t, methods, route.method)
		})
	}
}

func TestHandler_Root(t *testing.T) {
	redisClient, _ := redismock.NewClientMock()
	router := setupMiscRouterForTests(
		t,
		auth.NewService(auth.DefaultTTL, redisClient),
		&auth.Admin{},
		auth.NewLoginChecker(auth.DefaultTTL, redisClient),
		&testRequestRateLimiter{},
	)

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Origin", "test")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "I'm OK, thanks ;)", rr.Body.String())
}

func TestHandler_Version(t *testing.T) {
	redisClient, _ := redismock.NewClientMock()
	router := setupMiscRouterForTests(
		t,
		auth.NewService(auth.DefaultTTL, redisClient),
		&auth.Admin{},
		auth.NewLoginChecker(auth.DefaultTTL, redisClient),
		&testRequestRateLimiter{},
	)

	req := httptest.NewRequest("GET", "/version", nil)
	req.Header.Set("Origin", "test")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "dummy", rr.Body.String())
}

func TestHandler_MyIp(t *testing.T) {
	redisClient, _ := redismock.NewClientMock()
	router := setupMiscRouterForTests(
		t,
		auth.NewService(auth.DefaultTTL, redisClient),
		&auth.Admin{},
		auth.NewLoginChecker(auth.DefaultTTL, redisClient),
		&testRequestRateLimiter{},
	)

	req := httptest.NewRequest("GET", "/myip", nil)
	req.Header.Set("Origin", "test")
	req.Header.Set("X-Real-Ip", "178.1.2.3")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "178.1.2.3", rr.Body.String())
}

func TestHandler_Login(t *testing.T) {
	passwordHash, err := pkg.HashPassword("test-pass")
	require.NoError(t, err)

	redisClient, redisMock := redismock.NewClientMock()
	authService := auth.NewService(auth.DefaultTTL, redisClient)
	authService.RandStringFunc = func(_ int) (string, error) {
		return "test-token", nil
	}

	redisMock.
		Regexp().
		ExpectSet("ergolog-session||test-token", `\d+`, 0).
		SetVal("OK")
	redisMock.ExpectSAdd("ergolog-sessions", "test-token").SetVal(1)

	router := setupMiscRouterForTests(
		t,
		authService,
		&auth.Admin{Username: "admin", PasswordHash: passwordHash},
		auth.NewLoginChecker(auth.DefaultTTL, redisClient),
		&testRequestRateLimiter{Limits: map[string]int{"login": 5}},
	)

	form := url.Values{}
	form.Set("username", "admin")
	form.Set("password", "test-pass")
	req := httptest.NewRequest("POST", "/a/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Origin", "test")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, `{"token": "test-token"}`, rr.Body.String())
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestHandler_Login_wrongCredentials(t *testing.T) {
	passwordHash, err := pkg.HashPassword("test-pass")
	require.NoError(t, err)

	redisClient, _ := redismock.NewClientMock()
	router := setupMiscRouterForTests(
		t,
		auth.NewService(auth.DefaultTTL, redisClient),
		&auth.Admin{Username: "admin", PasswordHash: passwordHash},
		auth.NewLoginChecker(auth.DefaultTTL, redisClient),
		&testRequestRateLimiter{Limits: map[string]int{"login": 5}},
	)

	form := url.Values{}
	form.Set("username", "admin")
	form.Set("password", "wrong-pass")
	req := httptest.NewRequest("POST", "/a/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Origin", "test")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandler_Login_rateLimited(t *testing.T) {
	redisClient, _ := redismock.NewClientMock()
	router := setupMiscRouterForTests(
		t,
		auth.NewService(auth.DefaultTTL, redisClient),
		&auth.Admin{},
		auth.NewLoginChecker(auth.DefaultTTL, redisClient),
		// no allowance for the login router at all
		&testRequestRateLimiter{},
	)

	form := url.Values{}
	form.Set("username", "admin")
	form.Set("password", "test-pass")
	req := httptest.NewRequest("POST", "/a/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Origin", "test")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusTooEarly, rr.Code)
}

func TestHandler_Logout_noToken(t *testing.T) {
	redisClient, _ := redismock.NewClientMock()
	router := setupMiscRouterForTests(
		t,
		auth.NewService(auth.DefaultTTL, redisClient),
		&auth.Admin{},
		auth.NewLoginChecker(auth.DefaultTTL, redisClient),
		&testRequestRateLimiter{Limits: map[string]int{"login": 5}},
	)

	req := httptest.NewRequest("GET", "/a/logout", nil)
	req.Header.Set("Origin", "test")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestHandler_Logout(t *testing.T) {
	redisClient, redisMock := redismock.NewClientMock()
	authService := auth.NewService(auth.DefaultTTL, redisClient)

	createdAt := fmt.Sprintf("%d", time.Now().Unix())
	redisMock.ExpectGet("ergolog-session||test-token").SetVal(createdAt)
	redisMock.ExpectSet("ergolog-session||test-token", 0, 0).SetVal("OK")
	redisMock.ExpectSRem("ergolog-sessions", "test-token").SetVal(1)

	router := setupMiscRouterForTests(
		t,
		authService,
		&auth.Admin{},
		auth.NewLoginChecker(auth.DefaultTTL, redisClient),
		&testRequestRateLimiter{Limits: map[string]int{"login": 5}},
	)

	req := httptest.NewRequest("GET", "/a/logout", nil)
	req.Header.Set("Origin", "test")
	req.Header.Set("X-ERGOLOG-TOKEN", "test-token")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "logged-out", rr.Body.String())
	assert.NoError(t, redisMock.ExpectationsWereMet())
}
