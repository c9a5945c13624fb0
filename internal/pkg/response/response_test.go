package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func performRequest(handler gin.HandlerFunc) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/test", handler)

	req := httptest.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSuccess(t *testing.T) {
	w := performRequest(func(c *gin.Context) {
		Success(c, gin.H{"value": "hello"})
	})

	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "hello", body["value"])
}

func TestError_StatusFollowsCodeFamily(t *testing.T) {
	tests := []struct {
		name       string
		code       int
		wantStatus int
	}{
		{"param error", CodeParamError, http.StatusBadRequest},
		{"auth error", CodeAuthFailed, http.StatusUnauthorized},
		{"quota error", CodeQuotaExceeded, http.StatusPaymentRequired},
		{"forbidden", CodeForbidden, http.StatusForbidden},
		{"not found", CodeNotFound, http.StatusNotFound},
		{"server error", CodeServerError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performRequest(func(c *gin.Context) {
				Error(c, tt.code, "")
			})

			assert.Equal(t, tt.wantStatus, w.Code)

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, float64(tt.code), body["error_code"])
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestError_CustomMessage(t *testing.T) {
	w := performRequest(func(c *gin.Context) {
		QuotaError(c, "您的配额已用完，请升级会员或等待下月重置")
	})

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "您的配额已用完，请升级会员或等待下月重置", body["error"])
	assert.Equal(t, float64(CodeQuotaExceeded), body["error_code"])
}

func TestError_DefaultMessage(t *testing.T) {
	w := performRequest(func(c *gin.Context) {
		AuthError(c, "")
	})

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "未登录", body["error"])
}
