package validation

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(cfg Config) *fiber.App {
	app := fiber.New()
	app.Use(Middleware(cfg))
	app.Post("/api/v1/query", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	app.Post("/api/v1/feedback", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func post(t *testing.T, app *fiber.App, path, contentType, body string) int {
	t.Helper()

	req := httptest.NewRequest(fiber.MethodPost, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp.StatusCode
}

func TestMiddleware_ValidQueryPasses(t *testing.T) {
	app := newTestApp(Config{})

	status := post(t, app, "/api/v1/query", "application/json", `{"query": "lakers score"}`)
	assert.Equal(t, fiber.StatusOK, status)
}

func TestMiddleware_RejectsUnsupportedContentType(t *testing.T) {
	app := newTestApp(Config{})

	status := post(t, app, "/api/v1/query", "text/plain", "lakers score")
	assert.Equal(t, fiber.StatusUnsupportedMediaType, status)
}

func TestMiddleware_RejectsMissingQuery(t *testing.T) {
	app := newTestApp(Config{})

	assert.Equal(t, fiber.StatusBadRequest,
		post(t, app, "/api/v1/query", "application/json", `{}`))
	assert.Equal(t, fiber.StatusBadRequest,
		post(t, app, "/api/v1/query", "application/json", `{"query": "   "}`))
	assert.Equal(t, fiber.StatusBadRequest,
		post(t, app, "/api/v1/query", "application/json", `{"query": 42}`))
}

func TestMiddleware_RejectsInvalidJSON(t *testing.T) {
	app := newTestApp(Config{})

	status := post(t, app, "/api/v1/query", "application/json", `{"query": `)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestMiddleware_RejectsOversizedQuery(t *testing.T) {
	app := newTestApp(Config{MaxQueryLength: 10})

	status := post(t, app, "/api/v1/query", "application/json", `{"query": "a very long query over the limit"}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestMiddleware_OtherRoutesSkipQueryChecks(t *testing.T) {
	app := newTestApp(Config{})

	status := post(t, app, "/api/v1/feedback", "application/json", `{"query_id": "abc", "rating": 5}`)
	assert.Equal(t, fiber.StatusOK, status)
}
