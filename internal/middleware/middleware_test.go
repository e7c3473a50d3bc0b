package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/haierkeys/issue-note-service/pkg/app"
	"github.com/haierkeys/issue-note-service/pkg/code"
	"github.com/haierkeys/issue-note-service/pkg/limiter"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) app.Res {
	t.Helper()
	var res app.Res
	require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), &res))
	return res
}

func TestUserAuthToken(t *testing.T) {
	tm := app.NewTokenManager(app.TokenConfig{SecretKey: "k", Expiry: time.Hour})
	token, err := tm.Generate("U1", "alice", "127.0.0.1")
	require.NoError(t, err)

	r := gin.New()
	r.GET("/me", UserAuthToken(tm), func(c *gin.Context) {
		c.String(http.StatusOK, app.GetUID(c))
	})

	cases := []struct {
		name   string
		header string
		query  string
		want   string
		code   int
	}{
		{name: "bearer header", header: "Bearer " + token, want: "U1"},
		{name: "raw header", header: token, want: "U1"},
		{name: "query", query: "?token=" + token, want: "U1"},
		{name: "missing", code: code.ErrorNotUserAuthToken.Code()},
		{name: "garbage", header: "Bearer nope", code: code.ErrorInvalidUserAuthToken.Code()},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me"+tc.query, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if tc.want != "" {
				assert.Equal(t, tc.want, w.Body.String())
				return
			}
			assert.Equal(t, tc.code, decode(t, w).Code)
		})
	}
}

func TestUserAuthToken_WrongKey(t *testing.T) {
	other := app.NewTokenManager(app.TokenConfig{SecretKey: "other"})
	token, _ := other.Generate("U1", "", "")

	r := gin.New()
	r.GET("/me", UserAuthToken(app.NewTokenManager(app.TokenConfig{SecretKey: "k"})), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, code.ErrorInvalidUserAuthToken.Code(), decode(t, w).Code)
}

func TestSimpleAuthToken(t *testing.T) {
	r := gin.New()
	r.GET("/metrics", SimpleAuthTokenWithConfig("secret"), func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set("Authorization", "Bearer secret")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "ok", w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.NotEqual(t, "ok", w.Body.String())
}

func TestRateLimiter(t *testing.T) {
	l := limiter.NewMethodLimiter().AddBuckets(limiter.BucketRule{
		Key: "/api", FillInterval: time.Hour, Capacity: 1, Quantum: 1,
	})
	r := gin.New()
	r.Use(RateLimiter(l))
	r.GET("/api/x", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/x", nil))
	assert.Equal(t, "ok", w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/x", nil))
	assert.Equal(t, code.ErrorTooManyRequest.Code(), decode(t, w).Code)
	assert.Equal(t, "3600", w.Header().Get("Retry-After"))
}

func TestContextTimeout(t *testing.T) {
	r := gin.New()
	r.Use(ContextTimeout(10 * time.Millisecond))
	r.GET("/slow", func(c *gin.Context) {
		<-c.Request.Context().Done()
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/slow", nil))
	assert.Equal(t, code.ErrorRequestTimeout.Code(), decode(t, w).Code)
}

func TestTraceMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(TraceMiddlewareWithConfig(true, ""), OpentracingSpan())
	r.GET("/t", func(c *gin.Context) {
		c.String(http.StatusOK, GetTraceID(c.Request.Context()))
	})

	req := httptest.NewRequest(http.MethodGet, "/t", nil)
	req.Header.Set(DefaultTraceIDHeader, "abc")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc", w.Body.String())
	assert.Equal(t, "abc", w.Header().Get(DefaultTraceIDHeader))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/t", nil))
	assert.True(t, strings.Contains(w.Body.String(), "-"), "generated id")
}

func TestRecoveryWithLogger(t *testing.T) {
	r := gin.New()
	r.Use(RecoveryWithLogger(zap.NewNop()))
	r.GET("/boom", func(c *gin.Context) { panic("boom") })
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, code.ErrorServerInternal.Code(), decode(t, w).Code)
}

func TestRecoveryWithLogger_HidesPanicValue(t *testing.T) {
	r := gin.New()
	r.Use(RecoveryWithLogger(zap.NewNop()))
	r.GET("/boom", func(c *gin.Context) { panic(errors.New("store exploded")) })
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	res := decode(t, w)
	assert.Equal(t, code.ErrorServerInternal.Code(), res.Code)
	assert.Empty(t, res.Details)
	assert.NotContains(t, w.Body.String(), "store exploded")
}

func TestLangAndNoFound(t *testing.T) {
	defer func() { _ = code.SetGlobalDefaultLang("en") }()

	uni := ut.New(en.New(), en.New(), zh.New())
	r := gin.New()
	r.Use(LangWithTranslator(uni))
	r.GET("/trans", func(c *gin.Context) {
		trans := c.MustGet("trans").(ut.Translator)
		c.String(http.StatusOK, trans.Locale())
	})
	r.NoRoute(NoFound())

	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	req.Header.Set("Accept-Language", "zh-CN,zh;q=0.9")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	res := decode(t, w)
	assert.Equal(t, code.ErrorNotFoundAPI.Code(), res.Code)
	assert.Equal(t, "接口不存在", res.Message)
	assert.Equal(t, "GET /missing", res.Details)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/trans?lang=zh", nil))
	assert.Equal(t, "zh", w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/trans?lang=fr", nil))
	assert.Equal(t, "en", w.Body.String())
	assert.Equal(t, "en", code.GetGlobalDefaultLang())
}
