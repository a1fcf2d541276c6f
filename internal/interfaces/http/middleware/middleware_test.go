package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/logistics/backend/internal/domain/shared"
	"github.com/logistics/backend/internal/infrastructure/auth"
	"github.com/logistics/backend/internal/infrastructure/config"
	"github.com/logistics/backend/internal/infrastructure/logger"
	"github.com/logistics/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testSecret = "middleware-test-secret-32-characters"

func newJWT() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{Secret: testSecret, Issuer: "ledger", TokenExpiration: time.Minute})
}

func actorRouter(cfg ActorConfig) *gin.Engine {
	r := gin.New()
	r.Use(Actor(cfg))
	r.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"gin":     GetActorID(c),
			"context": shared.ActorFromContext(c.Request.Context()),
			"logger":  logger.GetUserID(c.Request.Context()),
		})
	})
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func whoami(t *testing.T, r *gin.Engine, headers map[string]string) (int, map[string]string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	body := map[string]string{}
	if w.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	}
	return w.Code, body
}

// ============================================
// Actor
// ============================================

func TestActor_BearerToken(t *testing.T) {
	jwt := newJWT()
	token, _, err := jwt.IssueToken("operator-1", "")
	require.NoError(t, err)

	r := actorRouter(ActorConfig{JWTService: jwt})
	code, body := whoami(t, r, map[string]string{AuthHeaderKey: BearerPrefix + token})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "operator-1", body["gin"])
	assert.Equal(t, "operator-1", body["context"])
	assert.Equal(t, "operator-1", body["logger"])
}

func TestActor_Rejections(t *testing.T) {
	r := actorRouter(ActorConfig{JWTService: newJWT()})

	tests := []struct {
		name    string
		headers map[string]string
	}{
		{"no credentials when tokens are required", nil},
		{"malformed header", map[string]string{AuthHeaderKey: "Token abc"}},
		{"invalid token", map[string]string{AuthHeaderKey: BearerPrefix + "abc.def.ghi"}},
		{"header actor not trusted", map[string]string{UserIDHeader: "mallory"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _ := whoami(t, r, tt.headers)
			assert.Equal(t, http.StatusUnauthorized, code)
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	actorRouter(ActorConfig{JWTService: newJWT(), SkipPaths: []string{"/health"}}).ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestActor_HeaderActorInDevelopment(t *testing.T) {
	r := actorRouter(ActorConfig{JWTService: newJWT(), AllowHeaderActor: true})

	code, body := whoami(t, r, map[string]string{UserIDHeader: "dev-user"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "dev-user", body["context"])

	code, body = whoami(t, r, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, shared.SystemActor, body["context"])
}

func TestActor_NoSecretRunsAsSystem(t *testing.T) {
	r := actorRouter(ActorConfig{JWTService: auth.NewJWTService(config.JWTConfig{})})

	code, body := whoami(t, r, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, shared.SystemActor, body["gin"])

	code, _ = whoami(t, r, map[string]string{AuthHeaderKey: BearerPrefix + "x"})
	assert.Equal(t, http.StatusUnauthorized, code)
}

// ============================================
// Validation
// ============================================

type bindingSample struct {
	Unit     string `json:"unit" binding:"required,mass_unit"`
	Currency string `json:"currency" binding:"omitempty,currency"`
}

func TestRegisterValidations(t *testing.T) {
	v := validator.New()
	v.SetTagName("binding")
	require.NoError(t, RegisterValidations(v))

	assert.NoError(t, v.Struct(bindingSample{Unit: "конт", Currency: "uzs"}))
	assert.NoError(t, v.Struct(bindingSample{Unit: "kg"}))
	assert.Error(t, v.Struct(bindingSample{Unit: "lb"}))

	err := v.Struct(bindingSample{Unit: "t", Currency: "EUR"})
	require.Error(t, err)
	resp := FormatValidationErrors(err, "req-9")
	require.Len(t, resp.Error.Details, 1)
	assert.Equal(t, "currency", resp.Error.Details[0].Field)
	assert.Equal(t, "req-9", resp.Error.RequestID)
}

func TestHandleValidationError_GinBinding(t *testing.T) {
	require.NoError(t, SetupValidator())

	r := gin.New()
	r.POST("/sample", func(c *gin.Context) {
		var req bindingSample
		if err := c.ShouldBindWith(&req, binding.JSON); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})

	send := func(body string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/sample", strings.NewReader(body)))
		return w
	}

	assert.Equal(t, http.StatusNoContent, send(`{"unit":"t"}`).Code)

	w := send(`{"unit":"bags"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	require.Len(t, resp.Error.Details, 1)
	assert.Equal(t, "unit", resp.Error.Details[0].Field)

	w = send(`{"unit":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// ============================================
// Body limit, CORS, security headers
// ============================================

func TestBodyLimit(t *testing.T) {
	r := gin.New()
	r.Use(BodyLimit(16))
	r.POST("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(make([]byte, 32))))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Contains(t, w.Body.String(), dto.ErrCodeRequestTooLarge)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(make([]byte, 8))))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCORS(t *testing.T) {
	cfg := DefaultCORSConfig()
	cfg.AllowOrigins = []string{"https://ledger.example"}

	r := gin.New()
	r.Use(CORS(cfg), Secure())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://ledger.example")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://ledger.example", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

// ============================================
// Telemetry
// ============================================

func TestSpanEnricher(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	r := gin.New()
	r.Use(func(c *gin.Context) {
		ctx, span := tp.Tracer("test").Start(c.Request.Context(), c.Request.URL.Path)
		defer span.End()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	})
	r.Use(Actor(ActorConfig{AllowHeaderActor: true}), SpanEnricher())
	r.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	req.Header.Set(UserIDHeader, "operator-2")
	r.ServeHTTP(httptest.NewRecorder(), req)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	attrs := map[string]string{}
	for _, kv := range spans[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "operator-2", attrs["user_id"])
	assert.Equal(t, "404", attrs["http.status_code"])
	assert.Equal(t, "Error", spans[0].Status().Code.String())
}

func TestTracing_Disabled(t *testing.T) {
	r := gin.New()
	r.Use(Tracing(TracingConfig{Enabled: false}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHTTPMetrics(t *testing.T) {
	_, err := NewHTTPMetrics(nil)
	assert.Error(t, err)

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := NewHTTPMetrics(mp.Meter("test"))
	require.NoError(t, err)

	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/orders/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	for i := 0; i < 3; i++ {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/orders/1", nil))
	}

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, metric := range sm.Metrics {
			if metric.Name != "http_server_request_total" {
				continue
			}
			for _, dp := range metric.Data.(metricdata.Sum[int64]).DataPoints {
				route, _ := dp.Attributes.Value("http.route")
				assert.Equal(t, "/orders/:id", route.AsString())
				total += dp.Value
			}
		}
	}
	assert.Equal(t, int64(3), total)
}
