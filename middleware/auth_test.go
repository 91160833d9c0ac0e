package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cppla/filebox/utils"
)

const testSecret = "test-secret"

func authRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AuthRequired(testSecret))
	r.GET("/whoami", func(c *gin.Context) {
		uid, ok := UserID(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"user_id": uid})
	})
	return r
}

func TestAuthRequired(t *testing.T) {
	valid, err := utils.GenerateToken(testSecret, 42, "alice", time.Hour)
	require.NoError(t, err)
	forged, err := utils.GenerateToken("someone-else", 42, "alice", time.Hour)
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
		status int
		code   int
	}{
		{"Missing", "", http.StatusUnauthorized, 40101},
		{"WrongScheme", "Basic abc", http.StatusUnauthorized, 40102},
		{"EmptyToken", "Bearer   ", http.StatusUnauthorized, 40103},
		{"ForgedToken", "Bearer " + forged, http.StatusUnauthorized, 40105},
		{"Valid", "Bearer " + valid, http.StatusOK, 0},
		{"CaseInsensitiveScheme", "bearer " + valid, http.StatusOK, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			authRouter().ServeHTTP(w, req)

			assert.Equal(t, tc.status, w.Code)
			if tc.status == http.StatusOK {
				assert.JSONEq(t, `{"user_id":42}`, w.Body.String())
				return
			}
			var resp utils.JSONResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tc.code, resp.Code)
		})
	}
}

func TestUserIDConversions(t *testing.T) {
	gin.SetMode(gin.TestMode)
	for _, v := range []interface{}{uint(7), 7, int64(7), float64(7)} {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Set(ContextUserIDKey, v)
		uid, ok := UserID(c)
		assert.True(t, ok)
		assert.Equal(t, uint(7), uid)
	}

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	_, ok := UserID(c)
	assert.False(t, ok)

	c.Set(ContextUserIDKey, "7")
	_, ok = UserID(c)
	assert.False(t, ok)

	c.Set(ContextUserIDKey, uint(0))
	_, ok = UserID(c)
	assert.False(t, ok)
}

func TestAuthRequiredFeedsAccessLog(t *testing.T) {
	gin.SetMode(gin.TestMode)
	token, err := utils.GenerateToken(testSecret, 42, "alice", time.Hour)
	require.NoError(t, err)
	core, logs := observer.New(zapcore.InfoLevel)

	var keys []string
	r := gin.New()
	r.Use(utils.Ginzap(zap.New(core), time.RFC3339, true), AuthRequired(testSecret))
	r.GET("/whoami", func(c *gin.Context) {
		for k := range c.Keys {
			keys = append(keys, k)
		}
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, []string{ContextUserIDKey}, keys)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, uint64(42), logs.All()[0].ContextMap()["user_id"])
}
