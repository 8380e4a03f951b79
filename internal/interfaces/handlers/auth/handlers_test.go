package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	authsvc "greenpulse-backend/internal/application/auth"
	"greenpulse-backend/internal/domain"
	"greenpulse-backend/internal/middleware"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeUserFinder returns the configured user for password "password123".
type fakeUserFinder struct {
	user *domain.User
	err  error
}

func (f *fakeUserFinder) FindByEmailAndPassword(ctx context.Context, email, password string) (*domain.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.user != nil && f.user.Email == email && password == "password123" {
		return f.user, nil
	}
	if f.user != nil && f.user.Email == email {
		return nil, authsvc.ErrIncorrectPassword
	}
	return nil, authsvc.ErrInvalidEmail
}

func setupAuthHandlers(t *testing.T, finder authsvc.UserFinder) (*Handlers, *redis.Client) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		rdb.Close()
		mr.Close()
	})
	return &Handlers{UserFinder: finder, Rdb: rdb}, rdb
}

func postJSON(t *testing.T, app *fiber.App, path string, body interface{}) (int, map[string]interface{}, []string) {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest("POST", path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	raw, _ := io.ReadAll(resp.Body)
	var out map[string]interface{}
	_ = json.Unmarshal(raw, &out)
	return resp.StatusCode, out, resp.Header.Values("Set-Cookie")
}

func TestLogin_MissingCredentials(t *testing.T) {
	h, _ := setupAuthHandlers(t, &fakeUserFinder{})
	app := fiber.New()
	app.Post("/login", h.Login)

	code, _, _ := postJSON(t, app, "/login", map[string]string{"email": "a@b.com"})
	assert.Equal(t, fiber.StatusBadRequest, code)
}

func TestLogin_BadCredentials(t *testing.T) {
	u := &domain.User{UserID: uuid.New(), Email: "test@example.com", Fullname: "Test User", Role: "donor"}
	h, _ := setupAuthHandlers(t, &fakeUserFinder{user: u})
	app := fiber.New()
	app.Post("/login", h.Login)

	code, _, _ := postJSON(t, app, "/login", map[string]string{"email": "nobody@example.com", "password": "x"})
	assert.Equal(t, fiber.StatusUnauthorized, code)
	code, out, _ := postJSON(t, app, "/login", map[string]string{"email": "test@example.com", "password": "wrong"})
	assert.Equal(t, fiber.StatusUnauthorized, code)
	assert.Equal(t, "Incorrect Password", out["error"].(map[string]interface{})["message"])
}

func TestLogin_Success(t *testing.T) {
	uid := uuid.New()
	h, rdb := setupAuthHandlers(t, &fakeUserFinder{user: &domain.User{UserID: uid, Email: "test@example.com", Fullname: "Test User", Role: "admin"}})
	app := fiber.New()
	app.Use(middleware.Session(rdb))
	app.Post("/login", h.Login)

	code, out, cookies := postJSON(t, app, "/login", map[string]string{"email": "test@example.com", "password": "password123"})
	require.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "Login successful", out["message"])
	user := out["data"].(map[string]interface{})["user"].(map[string]interface{})
	assert.Equal(t, "admin", user["role"])

	require.NotEmpty(t, cookies)
	assert.Contains(t, cookies[0], middleware.SessionCookieName+"=")

	members, err := rdb.SMembers(context.Background(), "user_sessions:"+uid.String()).Result()
	require.NoError(t, err)
	require.Len(t, members, 1)
	stored, err := rdb.Get(context.Background(), middleware.SessionRedisPrefix+members[0]).Result()
	require.NoError(t, err)
	assert.Contains(t, stored, uid.String())
}

func TestLogin_NilUserFinder(t *testing.T) {
	h, _ := setupAuthHandlers(t, nil)
	app := fiber.New()
	app.Post("/login", h.Login)

	code, _, _ := postJSON(t, app, "/login", map[string]string{"email": "a@b.com", "password": "pass"})
	assert.Equal(t, fiber.StatusInternalServerError, code)
}

func TestMe(t *testing.T) {
	h, _ := setupAuthHandlers(t, &fakeUserFinder{})
	app := fiber.New()
	app.Get("/anon", h.Me)
	app.Get("/me", func(c *fiber.Ctx) error {
		c.Locals("user", map[string]interface{}{
			"user_id":  "550e8400-e29b-41d4-a716-446655440000",
			"fullname": "Test",
			"email":    "test@example.com",
			"role":     "donor",
		})
		return h.Me(c)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/anon", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/me", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	b, _ := io.ReadAll(resp.Body)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &out))
	user := out["data"].(map[string]interface{})["user"].(map[string]interface{})
	assert.Equal(t, "test@example.com", user["email"])
}

func TestLogout_ClearsSession(t *testing.T) {
	h, rdb := setupAuthHandlers(t, &fakeUserFinder{})
	ctx := context.Background()
	uid := uuid.New().String()
	require.NoError(t, rdb.Set(ctx, middleware.SessionRedisPrefix+"sid-9", `{"user":{"user_id":"`+uid+`","role":"donor"}}`, 0).Err())
	require.NoError(t, rdb.SAdd(ctx, "user_sessions:"+uid, "sid-9").Err())

	app := fiber.New()
	app.Use(middleware.Session(rdb))
	app.Delete("/logout", h.Logout)

	req := httptest.NewRequest("DELETE", "/logout", nil)
	req.Header.Set("Cookie", middleware.SessionCookieName+"=s:sid-9.sig")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Values("Set-Cookie"))

	n, err := rdb.Exists(ctx, middleware.SessionRedisPrefix+"sid-9").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
	members, _ := rdb.SMembers(ctx, "user_sessions:"+uid).Result()
	assert.Empty(t, members)
}
