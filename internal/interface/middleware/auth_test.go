package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/printdesk/idcard-api/config"
	"github.com/printdesk/idcard-api/internal/application"
	"github.com/printdesk/idcard-api/internal/domain/entity"
	"github.com/printdesk/idcard-api/internal/infrastructure/memory"
	"github.com/printdesk/idcard-api/pkg/helpers"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func seedAccount(t *testing.T, r *memory.AccountRepository, role entity.Role) *entity.Account {
	t.Helper()
	a := &entity.Account{
		Name:            "Ana",
		Email:           "ana@example.com",
		PasswordHash:    "x",
		Role:            role,
		IsEmailVerified: true,
	}
	if err := r.Create(context.Background(), a); err != nil {
		t.Fatalf("seed account: %v", err)
	}
	return a
}

func authRouter(rdb *redis.Client, tokens *helpers.TokenManager, r *memory.AccountRepository, extra ...gin.HandlerFunc) *gin.Engine {
	e := gin.New()
	handlers := append([]gin.HandlerFunc{Auth(rdb, tokens, r)}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		id, _ := GetIdentity(c)
		c.JSON(http.StatusOK, gin.H{"id": id.ID, "role": string(id.Role)})
	})
	e.GET("/protected", handlers...)
	return e
}

func doRequest(e *gin.Engine, cookie string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: helpers.SessionCookieName, Value: cookie})
	}
	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)
	return w
}

func TestAuth_ValidCookie(t *testing.T) {
	r := memory.NewAccountRepository()
	a := seedAccount(t, r, entity.RoleTeacher)
	tokens := helpers.NewTokenManager("secret", time.Hour)
	e := authRouter(nil, tokens, r)

	token, _, err := tokens.IssueSession(a.ID)
	if err != nil {
		t.Fatalf("issue session: %v", err)
	}
	w := doRequest(e, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestAuth_UniformRejections(t *testing.T) {
	r := memory.NewAccountRepository()
	a := seedAccount(t, r, entity.RoleTeacher)
	tokens := helpers.NewTokenManager("secret", time.Hour)
	e := authRouter(nil, tokens, r)

	expired, _, err := helpers.NewTokenManager("secret", -time.Minute).IssueSession(a.ID)
	if err != nil {
		t.Fatalf("issue expired session: %v", err)
	}
	forged, _, err := helpers.NewTokenManager("other-secret", time.Hour).IssueSession(a.ID)
	if err != nil {
		t.Fatalf("issue forged session: %v", err)
	}
	unknown, _, err := tokens.IssueSession("deleted-account")
	if err != nil {
		t.Fatalf("issue unknown session: %v", err)
	}

	cases := map[string]string{
		"missing cookie":  "",
		"garbage token":   "not-a-jwt",
		"expired token":   expired,
		"wrong signature": forged,
		"unknown account": unknown,
	}
	for name, cookie := range cases {
		if w := doRequest(e, cookie); w.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", name, w.Code)
		}
	}
}

func TestAuth_InactiveAccount(t *testing.T) {
	r := memory.NewAccountRepository()
	a := seedAccount(t, r, entity.RoleTeacher)
	tokens := helpers.NewTokenManager("secret", time.Hour)
	e := authRouter(nil, tokens, r)

	token, _, err := tokens.IssueSession(a.ID)
	if err != nil {
		t.Fatalf("issue session: %v", err)
	}
	if err := r.SetActive(context.Background(), a.ID, false); err != nil {
		t.Fatalf("set active: %v", err)
	}
	if w := doRequest(e, token); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for inactive account, got %d", w.Code)
	}
}

func testRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestAuth_CachedInactiveSummary(t *testing.T) {
	rdb := testRedis(t)
	r := memory.NewAccountRepository()
	a := seedAccount(t, r, entity.RoleTeacher)
	tokens := helpers.NewTokenManager("secret", time.Hour)
	e := authRouter(rdb, tokens, r)

	// A stale cached projection of a deactivated account must not pass the
	// fast path, even while the store still says active.
	sum := a.Summary()
	sum.IsActive = false
	if err := helpers.RedisSetJSON(context.Background(), rdb, "account:summary:"+a.ID, sum, time.Hour); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	token, _, err := tokens.IssueSession(a.ID)
	if err != nil {
		t.Fatalf("issue session: %v", err)
	}
	if w := doRequest(e, token); w.Code != http.StatusUnauthorized {
		t.Fatalf("cached inactive summary: expected 401, got %d", w.Code)
	}
}

func TestAuth_DeactivatedWhileCached(t *testing.T) {
	rdb := testRedis(t)
	r := memory.NewAccountRepository()
	a := seedAccount(t, r, entity.RoleTeacher)
	tokens := helpers.NewTokenManager("secret", time.Hour)
	e := authRouter(rdb, tokens, r)

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	svc := application.NewAuthService(r, tokens, rdb, nil, logger, &config.Config{SessionTTL: time.Hour})

	sess, err := svc.IssueSession(context.Background(), a)
	if err != nil {
		t.Fatalf("issue session: %v", err)
	}
	if w := doRequest(e, sess.Token); w.Code != http.StatusOK {
		t.Fatalf("warm cache: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// Deactivation must bite immediately, not at cache expiry.
	if err := svc.SetAccountActive(context.Background(), a.ID, false); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if w := doRequest(e, sess.Token); w.Code != http.StatusUnauthorized {
		t.Fatalf("deactivated account with warm cache: expected 401, got %d", w.Code)
	}
}

func TestRequireRole(t *testing.T) {
	r := memory.NewAccountRepository()
	a := seedAccount(t, r, entity.RoleTeacher)
	tokens := helpers.NewTokenManager("secret", time.Hour)

	token, _, err := tokens.IssueSession(a.ID)
	if err != nil {
		t.Fatalf("issue session: %v", err)
	}

	adminOnly := authRouter(nil, tokens, r, RequireRole(entity.RoleAdmin))
	if w := doRequest(adminOnly, token); w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for teacher on admin route, got %d", w.Code)
	}

	staff := authRouter(nil, tokens, r, RequireRole(entity.RoleAdmin, entity.RoleTeacher))
	if w := doRequest(staff, token); w.Code != http.StatusOK {
		t.Fatalf("expected 200 for teacher on staff route, got %d", w.Code)
	}

	// Role gate without Auth in front rejects rather than panics.
	bare := gin.New()
	bare.GET("/x", RequireRole(entity.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	w := httptest.NewRecorder()
	bare.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without identity, got %d", w.Code)
	}
}
