package observability

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/shift-scheduler/internal/config"
)

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	metrics := NewMetrics()

	app := fiber.New()
	app.Use(RequestLogger(zap.New(core), metrics))
	app.Get("/departments/:id", func(c *fiber.Ctx) error {
		if c.Params("id") == "missing" {
			return c.Status(fiber.StatusNotFound).SendString("nope")
		}
		return c.SendString("ok")
	})

	for _, path := range []string{"/departments/a", "/departments/b", "/departments/missing"} {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, path, nil))
		require.NoError(t, err)
		_ = resp.Body.Close()
	}

	stats := metrics.Requests()
	require.Len(t, stats, 2)
	assert.Equal(t, "GET /departments/:id|200", stats[0].Key)
	assert.Equal(t, int64(2), stats[0].Count)
	assert.Equal(t, "GET /departments/:id|404", stats[1].Key)

	require.Equal(t, 3, logs.FilterMessage("request").Len())
	warn := logs.FilterLevelExact(zapcore.WarnLevel).All()
	require.Len(t, warn, 1)
	assert.Equal(t, "/departments/missing", warn[0].ContextMap()["path"])
}

func TestMetrics(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/auth/signin", "POST", 200, 10*time.Millisecond)
	m.RecordRequest("/auth/signin", "POST", 200, 30*time.Millisecond)
	m.RecordError("/auth/signin", "POST", "UNAUTHORIZED")
	m.RecordError("/auth/signin", "POST", "UNAUTHORIZED")

	stats := m.Requests()
	require.Len(t, stats, 1)
	assert.Equal(t, 20*time.Millisecond, stats[0].MeanLatency)
	assert.Equal(t, int64(2), m.Errors()["POST /auth/signin|UNAUTHORIZED"])

	var nilMetrics *Metrics
	nilMetrics.RecordRequest("/", "GET", 200, time.Millisecond)
	nilMetrics.RecordError("/", "GET", "X")
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(config.LoggerConfig{Level: "WARN"}, config.AppConfig{Name: "svc", Env: "production"})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))

	logger, err = NewLogger(config.LoggerConfig{Level: "loud"}, config.AppConfig{})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
}
