package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kenerlee/navix-server/internal/model"
	"github.com/kenerlee/navix-server/internal/pkg/response"
	"github.com/kenerlee/navix-server/internal/testutil"
)

func setupAuthRouter(t *testing.T) (*gin.Engine, *testEnv, func()) {
	t.Helper()

	env, cleanup := setupEnv(t)
	h := NewAuthHandler(env.auth, env.invites)

	router := gin.New()
	router.POST("/register", h.Register)
	router.POST("/login", h.Login)
	router.GET("/captcha", h.GetCaptcha)
	router.POST("/captcha", h.VerifyCaptcha)
	router.POST("/invite/validate", h.ValidateInvite)
	return router, env, cleanup
}

func TestAuthHandler_Register_Success(t *testing.T) {
	router, _, cleanup := setupAuthRouter(t)
	defer cleanup()

	w := doJSON(t, router, "POST", "/register", gin.H{
		"email":    "new@example.com",
		"password": "password123",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	body := parseBody(t, w)
	assert.Equal(t, true, body["success"])
	assert.NotEmpty(t, body["token"])

	user, ok := body["user"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "new@example.com", user["email"])
	assert.Equal(t, model.RoleGuest, user["role"])
}

func TestAuthHandler_Register_DuplicateEmail(t *testing.T) {
	router, _, cleanup := setupAuthRouter(t)
	defer cleanup()

	first := doJSON(t, router, "POST", "/register", gin.H{
		"email":    "dup@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, first.Code)

	w := doJSON(t, router, "POST", "/register", gin.H{
		"email":    "dup@example.com",
		"password": "password123",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := parseBody(t, w)
	assert.EqualValues(t, response.CodeParamError, body["error_code"])
}

func TestAuthHandler_Register_WithInviteCode(t *testing.T) {
	router, env, cleanup := setupAuthRouter(t)
	defer cleanup()

	inviter := testutil.NewProfile(testutil.WithRole(model.RoleAdmin))
	require.NoError(t, env.profileRepo.Create(context.Background(), inviter))
	invite := testutil.NewInvite(inviter.ID, testutil.WithCode("WELCOME2"))
	require.NoError(t, env.inviteRepo.Create(context.Background(), invite))

	w := doJSON(t, router, "POST", "/register", gin.H{
		"email":       "invited@example.com",
		"password":    "password123",
		"invite_code": "welcome2",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	body := parseBody(t, w)
	user := body["user"].(map[string]interface{})
	assert.Equal(t, model.RoleUser, user["role"])
}

func TestAuthHandler_Register_BadInviteCode(t *testing.T) {
	router, _, cleanup := setupAuthRouter(t)
	defer cleanup()

	w := doJSON(t, router, "POST", "/register", gin.H{
		"email":       "x@example.com",
		"password":    "password123",
		"invite_code": "NOSUCH99",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandler_Login_Success(t *testing.T) {
	router, _, cleanup := setupAuthRouter(t)
	defer cleanup()

	doJSON(t, router, "POST", "/register", gin.H{
		"email":    "login@example.com",
		"password": "password123",
	})

	w := doJSON(t, router, "POST", "/login", gin.H{
		"email":    "login@example.com",
		"password": "password123",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	body := parseBody(t, w)
	assert.NotEmpty(t, body["token"])
}

func TestAuthHandler_Login_WrongPassword(t *testing.T) {
	router, _, cleanup := setupAuthRouter(t)
	defer cleanup()

	doJSON(t, router, "POST", "/register", gin.H{
		"email":    "login2@example.com",
		"password": "password123",
	})

	w := doJSON(t, router, "POST", "/login", gin.H{
		"email":    "login2@example.com",
		"password": "wrongwrong",
	})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	body := parseBody(t, w)
	assert.EqualValues(t, response.CodeAuthFailed, body["error_code"])
}

func TestAuthHandler_Captcha_Roundtrip(t *testing.T) {
	router, env, cleanup := setupAuthRouter(t)
	defer cleanup()

	w := doJSON(t, router, "GET", "/captcha", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := parseBody(t, w)
	captchaID, _ := body["captcha_id"].(string)
	require.NotEmpty(t, captchaID)
	assert.NotEmpty(t, body["svg"])

	// 答案存在 Redis 里，测试直接读出来
	answer, err := env.rdb.Get(context.Background(), "captcha:"+captchaID).Result()
	require.NoError(t, err)

	w = doJSON(t, router, "POST", "/captcha", gin.H{
		"captcha_id": captchaID,
		"answer":     answer,
	})
	assert.Equal(t, http.StatusOK, w.Code)
	body = parseBody(t, w)
	assert.NotEmpty(t, body["captcha_token"])
}

func TestAuthHandler_Captcha_WrongAnswer(t *testing.T) {
	router, _, cleanup := setupAuthRouter(t)
	defer cleanup()

	w := doJSON(t, router, "GET", "/captcha", nil)
	require.Equal(t, http.StatusOK, w.Code)
	captchaID := parseBody(t, w)["captcha_id"].(string)

	w = doJSON(t, router, "POST", "/captcha", gin.H{
		"captcha_id": captchaID,
		"answer":     "0000",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandler_ValidateInvite(t *testing.T) {
	router, env, cleanup := setupAuthRouter(t)
	defer cleanup()

	admin := testutil.NewProfile(testutil.WithRole(model.RoleAdmin))
	require.NoError(t, env.profileRepo.Create(context.Background(), admin))
	invite := testutil.NewInvite(admin.ID, testutil.WithCode("VALIDCD2"))
	require.NoError(t, env.inviteRepo.Create(context.Background(), invite))

	w := doJSON(t, router, "POST", "/invite/validate", gin.H{"code": " validcd2 "})
	assert.Equal(t, http.StatusOK, w.Code)
	body := parseBody(t, w)
	assert.Equal(t, true, body["valid"])
	assert.Equal(t, "VALIDCD2", body["code"])
}

func TestAuthHandler_ValidateInvite_Expired(t *testing.T) {
	router, env, cleanup := setupAuthRouter(t)
	defer cleanup()

	admin := testutil.NewProfile(testutil.WithRole(model.RoleAdmin))
	require.NoError(t, env.profileRepo.Create(context.Background(), admin))
	invite := testutil.NewInvite(admin.ID,
		testutil.WithCode("EXPIRED2"),
		testutil.WithExpiresAt(time.Now().Add(-time.Hour)))
	require.NoError(t, env.inviteRepo.Create(context.Background(), invite))

	w := doJSON(t, router, "POST", "/invite/validate", gin.H{"code": "EXPIRED2"})
	assert.Equal(t, http.StatusOK, w.Code)
	body := parseBody(t, w)
	assert.Equal(t, false, body["valid"])
	assert.NotEmpty(t, body["error"])
}

func TestAuthHandler_ActivateInvite(t *testing.T) {
	env, cleanup := setupEnv(t)
	defer cleanup()
	h := NewAuthHandler(env.auth, env.invites)

	ctx := context.Background()
	admin := testutil.NewProfile(testutil.WithRole(model.RoleAdmin))
	require.NoError(t, env.profileRepo.Create(ctx, admin))
	guest := testutil.NewProfile()
	guest.Role = model.RoleGuest
	require.NoError(t, env.profileRepo.Create(ctx, guest))
	invite := testutil.NewInvite(admin.ID, testutil.WithCode("ACTIV8CD"))
	require.NoError(t, env.inviteRepo.Create(ctx, invite))

	router := gin.New()
	router.POST("/activate", mockAuth(guest.ID), h.ActivateInvite)

	w := doJSON(t, router, "POST", "/activate", gin.H{"code": "ACTIV8CD"})
	assert.Equal(t, http.StatusOK, w.Code)
	body := parseBody(t, w)
	user := body["user"].(map[string]interface{})
	assert.Equal(t, model.RoleUser, user["role"])
}

func TestAuthHandler_BootstrapAdmin(t *testing.T) {
	env, cleanup := setupEnv(t)
	defer cleanup()
	h := NewAuthHandler(env.auth, env.invites)

	ctx := context.Background()
	p := testutil.NewProfile()
	require.NoError(t, env.profileRepo.Create(ctx, p))

	router := gin.New()
	router.POST("/bootstrap", mockAuth(p.ID), h.BootstrapAdmin)

	w := doJSON(t, router, "POST", "/bootstrap", gin.H{"token": "wrong"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, router, "POST", "/bootstrap", gin.H{"token": "bootstrap-token"})
	assert.Equal(t, http.StatusOK, w.Code)
	body := parseBody(t, w)
	user := body["user"].(map[string]interface{})
	assert.Equal(t, model.LevelAdmin, user["level"])
	assert.Equal(t, model.RoleAdmin, user["role"])
}
