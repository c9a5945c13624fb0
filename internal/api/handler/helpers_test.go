package handler

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"

	"github.com/kenerlee/navix-server/config"
	"github.com/kenerlee/navix-server/internal/api/middleware"
	"github.com/kenerlee/navix-server/internal/pkg/sms"
	"github.com/kenerlee/navix-server/internal/repository"
	"github.com/kenerlee/navix-server/internal/service"
	"github.com/kenerlee/navix-server/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testEnv 把所有仓储和服务装在一起，省去每个用例重复接线
type testEnv struct {
	rdb *redis.Client
	cfg *config.Config

	profileRepo *repository.ProfileRepository
	inviteRepo  *repository.InviteRepository

	profiles      *service.ProfileService
	invites       *service.InviteService
	quota         *service.QuotaService
	auth          *service.AuthService
	consultations *service.ConsultationService
	reports       *service.ReportService
	research      *service.ResearchReportService
}

func setupEnv(t *testing.T) (*testEnv, func()) {
	t.Helper()

	client, cleanup := testutil.SetupTestRedis(t)
	cfg := testutil.TestConfig()

	profileRepo := repository.NewProfileRepository(client)
	inviteRepo := repository.NewInviteRepository(client)
	verificationRepo := repository.NewVerificationRepository(client)
	consultationRepo := repository.NewConsultationRepository(client)
	reportRepo := repository.NewReportRepository(client)
	researchRepo := repository.NewResearchReportRepository(client)

	profiles := service.NewProfileService(profileRepo, nil, cfg)
	invites := service.NewInviteService(inviteRepo, profiles, nil, cfg)
	quota := service.NewQuotaService(profiles, profileRepo, cfg)
	auth := service.NewAuthService(profiles, invites, verificationRepo, sms.NewClient(&cfg.SMS), cfg)

	env := &testEnv{
		rdb:           client,
		cfg:           cfg,
		profileRepo:   profileRepo,
		inviteRepo:    inviteRepo,
		profiles:      profiles,
		invites:       invites,
		quota:         quota,
		auth:          auth,
		consultations: service.NewConsultationService(consultationRepo),
		reports:       service.NewReportService(reportRepo),
		research:      service.NewResearchReportService(researchRepo, nil),
	}
	return env, cleanup
}

// mockAuth 绕开 JWT 直接注入用户身份
func mockAuth(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UserIDKey, userID)
		c.Next()
	}
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func parseBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}
