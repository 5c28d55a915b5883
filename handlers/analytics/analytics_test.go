package analytics

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/learnloop/api/services"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T) (*fiber.App, *services.MemoryAnalyticsStore) {
	t.Helper()

	store := services.NewMemoryAnalyticsStore()
	log := logrus.New()
	log.SetOutput(io.Discard)

	tracking := services.NewTrackingService(store)
	dashboard := services.NewDashboardService(store)
	handler := NewAnalyticsHandler(tracking, dashboard, nil, log)

	app := fiber.New()
	group := app.Group("/api/v1/analytics")
	group.Post("/track/revenue", handler.TrackRevenue)
	group.Post("/track/session", handler.TrackSession)
	group.Post("/track/session/:id/end", handler.EndSession)
	group.Post("/track/progress", handler.TrackProgress)
	group.Post("/track/interaction", handler.TrackInteraction)
	group.Get("/revenue", handler.GetRevenue)
	group.Get("/engagement", handler.GetEngagement)
	group.Get("/content", handler.GetContent)
	group.Get("/dashboard", handler.GetDashboard)
	group.Post("/generate-daily", handler.GenerateDaily)
	return app, store
}

func doJSON(t *testing.T, app *fiber.App, method, path string, payload interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var decoded map[string]interface{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &decoded))
	return resp, decoded
}

func TestTrackRevenueEndpoint(t *testing.T) {
	app, _ := newTestApp(t)

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/analytics/track/revenue", map[string]interface{}{
		"userId":   "u1",
		"courseId": "c1",
		"amount":   49.99,
		"status":   "completed",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, true, body["success"])

	data := body["data"].(map[string]interface{})
	assert.Equal(t, "usd", data["currency"])
	assert.NotNil(t, data["completedAt"])
}

func TestTrackRevenueValidation(t *testing.T) {
	app, _ := newTestApp(t)

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/analytics/track/revenue", map[string]interface{}{
		"userId": "u1",
		"amount": -5,
		"status": "sideways",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, false, body["success"])

	errDetail := body["error"].(map[string]interface{})
	assert.Equal(t, "VALIDATION_ERROR", errDetail["code"])
	fields := errDetail["fields"].(map[string]interface{})
	assert.Contains(t, fields, "courseId")
	assert.Contains(t, fields, "amount")
	assert.Contains(t, fields, "status")
}

func TestSessionLifecycleEndpoints(t *testing.T) {
	app, _ := newTestApp(t)

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/analytics/track/session", map[string]interface{}{
		"userId":     "u1",
		"deviceType": "desktop",
		"pageViews":  3,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	sessionID := body["data"].(map[string]interface{})["id"].(string)
	require.NotEmpty(t, sessionID)

	resp, body = doJSON(t, app, http.MethodPost, "/api/v1/analytics/track/session/"+sessionID+"/end", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotNil(t, body["data"].(map[string]interface{})["sessionEnd"])

	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/analytics/track/session/nope/end", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestTrackInteractionRejectsUnknownType(t *testing.T) {
	app, _ := newTestApp(t)

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/analytics/track/interaction", map[string]interface{}{
		"userId":          "u1",
		"courseId":        "c1",
		"interactionType": "page_scroll",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "BAD_REQUEST", body["error"].(map[string]interface{})["code"])
}

func TestDashboardEndpointComposesSections(t *testing.T) {
	app, _ := newTestApp(t)

	resp, _ := doJSON(t, app, http.MethodPost, "/api/v1/analytics/track/revenue", map[string]interface{}{
		"userId":   "u1",
		"courseId": "c1",
		"amount":   80,
		"status":   "completed",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/analytics/track/progress", map[string]interface{}{
		"userId":   "u1",
		"courseId": "c1",
		"progress": 100,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := doJSON(t, app, http.MethodGet, "/api/v1/analytics/dashboard", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	data := body["data"].(map[string]interface{})
	assert.Contains(t, data, "revenue")
	assert.Contains(t, data, "engagement")
	assert.Contains(t, data, "content")

	summary := data["summary"].(map[string]interface{})
	assert.Equal(t, 80.0, summary["totalRevenue"])
	assert.Equal(t, 4.5, summary["averageRating"])
	assert.Equal(t, "c1", summary["topCourse"])
}

func TestDateRangeValidation(t *testing.T) {
	app, _ := newTestApp(t)

	resp, _ := doJSON(t, app, http.MethodGet, "/api/v1/analytics/revenue?startDate=2024-06-30&endDate=2024-06-01", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodGet, "/api/v1/analytics/revenue?startDate=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodGet, "/api/v1/analytics/revenue?startDate=2024-06-01&endDate=2024-06-30", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGenerateDailyEndpoint(t *testing.T) {
	app, _ := newTestApp(t)

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/analytics/generate-daily", map[string]interface{}{
		"date": "2024-07-15",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	data := body["data"].(map[string]interface{})
	assert.Contains(t, data["date"], "2024-07-15")

	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/analytics/generate-daily", map[string]interface{}{
		"date": "July 15",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
