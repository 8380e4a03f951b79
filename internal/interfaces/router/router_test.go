package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"greenpulse-backend/internal/application/notifications"
	"greenpulse-backend/internal/config"
	"greenpulse-backend/internal/domain"
	"greenpulse-backend/internal/infrastructure/database"
	"greenpulse-backend/internal/middleware"
	"greenpulse-backend/internal/pkg/constants"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type client struct {
	t      *testing.T
	app    *fiber.App
	cookie string
}

func (cl *client) do(method, path string, body interface{}) (int, map[string]interface{}) {
	var b []byte
	if body != nil {
		b, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	if cl.cookie != "" {
		req.Header.Set("Cookie", cl.cookie)
	}
	resp, err := cl.app.Test(req, -1)
	require.NoError(cl.t, err)
	for _, sc := range resp.Header.Values("Set-Cookie") {
		if strings.HasPrefix(sc, middleware.SessionCookieName+"=") {
			cl.cookie = strings.SplitN(sc, ";", 2)[0]
		}
	}
	var out map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func setupApp(t *testing.T) (*fiber.App, *gorm.DB, *redis.Client) {
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		rdb.Close()
		mr.Close()
	})
	cfg := config.FromViper(viper.New())
	return NewApp(cfg, db, rdb), db, rdb
}

func register(t *testing.T, app *fiber.App, email, name string) *client {
	cl := &client{t: t, app: app}
	code, _ := cl.do("POST", "/api/v1/users/create-user", map[string]string{
		"email": email, "password": "wind&sun2024", "fullname": name,
	})
	require.Equal(t, fiber.StatusCreated, code)
	require.NotEmpty(t, cl.cookie)
	return cl
}

func TestDonationLifecycle(t *testing.T) {
	app, db, rdb := setupApp(t)

	owner := register(t, app, "owner@greenpulse.org", "Olga Owner")
	code, out := owner.do("POST", "/api/v1/projects/request-project", map[string]interface{}{
		"title": "Village solar grid", "energy_category": "Solar", "funding_goal": 10000,
	})
	require.Equal(t, fiber.StatusCreated, code)
	projectID := out["data"].(map[string]interface{})["id"].(string)

	register(t, app, "admin@greenpulse.org", "Ada Admin")
	require.NoError(t, db.Model(&domain.User{}).Where("email = ?", "admin@greenpulse.org").Update("role", constants.Admin).Error)
	admin := &client{t: t, app: app}
	code, _ = admin.do("POST", "/api/v1/auth/login", map[string]string{"email": "admin@greenpulse.org", "password": "wind&sun2024"})
	require.Equal(t, fiber.StatusOK, code)

	donor := register(t, app, "donor@greenpulse.org", "Dan Donor")

	// Pending projects do not accept donations.
	code, _ = donor.do("POST", "/api/v1/donations/donate", map[string]interface{}{"project_id": projectID, "amount": 100})
	assert.Equal(t, fiber.StatusConflict, code)

	code, _ = donor.do("PATCH", "/api/v1/admin/projects/"+projectID+"/status", map[string]string{"status": "Published"})
	assert.Equal(t, fiber.StatusForbidden, code)
	code, _ = admin.do("PATCH", "/api/v1/admin/projects/"+projectID+"/status", map[string]string{"status": "Published"})
	require.Equal(t, fiber.StatusOK, code)

	code, out = donor.do("POST", "/api/v1/donations/donate", map[string]interface{}{"project_id": projectID, "amount": 7500})
	require.Equal(t, fiber.StatusCreated, code)
	assert.Equal(t, string(domain.StatusPublished), out["data"].(map[string]interface{})["new_status"])

	code, out = donor.do("POST", "/api/v1/donations/donate", map[string]interface{}{"project_id": projectID, "amount": 2500})
	require.Equal(t, fiber.StatusCreated, code)
	assert.Equal(t, string(domain.StatusFunded), out["data"].(map[string]interface{})["new_status"])
	assert.Equal(t, 10000.0, out["data"].(map[string]interface{})["new_total"])

	code, _ = donor.do("POST", "/api/v1/donations/donate", map[string]interface{}{"project_id": projectID, "amount": 500})
	assert.Equal(t, fiber.StatusConflict, code)

	recent, err := notifications.RecentFunded(context.Background(), rdb, 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, projectID, recent[0].ProjectID.String())

	code, out = donor.do("GET", "/api/v1/projects/"+projectID, nil)
	require.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, true, out["data"].(map[string]interface{})["is_fully_funded"])

	code, out = admin.do("GET", "/api/v1/admin/reconcile/"+projectID, nil)
	require.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, true, out["data"].(map[string]interface{})["consistent"])
	assert.Equal(t, 2.0, out["data"].(map[string]interface{})["donation_count"])
}

func TestRoutes_RequireSession(t *testing.T) {
	app, _, _ := setupApp(t)
	anon := &client{t: t, app: app}
	for _, path := range []string{"/api/v1/projects", "/api/v1/donations/mine", "/api/v1/admin/reconcile"} {
		code, _ := anon.do("GET", path, nil)
		assert.Equal(t, fiber.StatusUnauthorized, code, path)
	}
}

func TestWebhook_BypassesSession(t *testing.T) {
	app, _, _ := setupApp(t)
	anon := &client{t: t, app: app}
	code, _ := anon.do("POST", "/api/v1/stripe/webhook", map[string]string{"type": "payment_intent.succeeded"})
	assert.Equal(t, fiber.StatusBadRequest, code)
}

func TestHealthJSON(t *testing.T) {
	app, _, _ := setupApp(t)
	anon := &client{t: t, app: app}
	code, out := anon.do("GET", "/health/json", nil)
	require.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "greenpulse-ledger-api", out["service"])
}
