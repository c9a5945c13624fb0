package handler

import (
	"context"
	"testing"
	"time"

	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kenerlee/navix-server/internal/model"
	"github.com/kenerlee/navix-server/internal/repository"
)

func seedResearchReport(t *testing.T, repo *repository.ResearchReportRepository, id, category string, public bool) {
	t.Helper()

	err := repo.Create(context.Background(), &model.ResearchReport{
		ID:          id,
		Title:       "报告 " + id,
		Description: "测试数据",
		PDFURL:      "https://cdn.example.com/research-reports/" + id + "/file.pdf",
		Category:    category,
		IsPublic:    public,
		CreatedBy:   "user_admin",
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	})
	require.NoError(t, err)
}

func setupDiscoveryRouter(t *testing.T) (*gin.Engine, *repository.ResearchReportRepository, func()) {
	t.Helper()

	env, cleanup := setupEnv(t)
	repo := repository.NewResearchReportRepository(env.rdb)
	h := NewDiscoveryHandler(env.research)

	router := gin.New()
	router.GET("/discovery", h.List)
	router.GET("/discovery/:id", h.Get)
	router.GET("/discovery/:id/download", h.Download)
	return router, repo, cleanup
}

func TestDiscoveryHandler_List_OnlyPublic(t *testing.T) {
	router, repo, cleanup := setupDiscoveryRouter(t)
	defer cleanup()

	seedResearchReport(t, repo, "research_1", model.CategoryIndustryAnalysis, true)
	seedResearchReport(t, repo, "research_2", model.CategoryTrendForecast, true)
	seedResearchReport(t, repo, "research_3", model.CategoryTrendForecast, false)

	w := doJSON(t, router, "GET", "/discovery", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	body := parseBody(t, w)
	assert.EqualValues(t, 2, body["total"])
}

func TestDiscoveryHandler_List_FilterByCategory(t *testing.T) {
	router, repo, cleanup := setupDiscoveryRouter(t)
	defer cleanup()

	seedResearchReport(t, repo, "research_1", model.CategoryIndustryAnalysis, true)
	seedResearchReport(t, repo, "research_2", model.CategoryTrendForecast, true)

	w := doJSON(t, router, "GET", "/discovery?category="+model.CategoryTrendForecast, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	body := parseBody(t, w)
	assert.EqualValues(t, 1, body["total"])
	reports := body["reports"].([]interface{})
	first := reports[0].(map[string]interface{})
	assert.Equal(t, "research_2", first["id"])
}

func TestDiscoveryHandler_Get_CountsViews(t *testing.T) {
	router, repo, cleanup := setupDiscoveryRouter(t)
	defer cleanup()

	seedResearchReport(t, repo, "research_1", model.CategoryCaseStudy, true)

	w := doJSON(t, router, "GET", "/discovery/research_1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	report := parseBody(t, w)["report"].(map[string]interface{})
	assert.EqualValues(t, 1, report["view_count"])

	w = doJSON(t, router, "GET", "/discovery/research_1", nil)
	report = parseBody(t, w)["report"].(map[string]interface{})
	assert.EqualValues(t, 2, report["view_count"])
}

func TestDiscoveryHandler_Get_PrivateHidden(t *testing.T) {
	router, repo, cleanup := setupDiscoveryRouter(t)
	defer cleanup()

	seedResearchReport(t, repo, "research_1", model.CategoryCaseStudy, false)

	w := doJSON(t, router, "GET", "/discovery/research_1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, router, "GET", "/discovery/research_nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDiscoveryHandler_Download(t *testing.T) {
	router, repo, cleanup := setupDiscoveryRouter(t)
	defer cleanup()

	seedResearchReport(t, repo, "research_1", model.CategoryCaseStudy, true)

	w := doJSON(t, router, "GET", "/discovery/research_1/download", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	body := parseBody(t, w)
	assert.Contains(t, body["url"], "research_1")
}
