package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kenerlee/navix-server/internal/model"
	"github.com/kenerlee/navix-server/internal/model/dto"
	"github.com/kenerlee/navix-server/internal/repository"
	"github.com/kenerlee/navix-server/internal/testutil"
)

func setupResearchReportService(t *testing.T) (*ResearchReportService, *repository.ResearchReportRepository, func()) {
	t.Helper()

	client, cleanup := testutil.SetupTestRedis(t)
	repo := repository.NewResearchReportRepository(client)
	return NewResearchReportService(repo, nil), repo, cleanup
}

func seedResearchReport(t *testing.T, repo *repository.ResearchReportRepository, id string, isPublic bool) *model.ResearchReport {
	t.Helper()

	now := time.Now()
	rep := &model.ResearchReport{
		ID:          id,
		Title:       "样例报告 " + id,
		Description: "描述",
		PDFURL:      "https://cdn.example.com/research-reports/" + id + "/file.pdf",
		PDFFileName: "file.pdf",
		Category:    model.CategoryMarketResearch,
		IsPublic:    isPublic,
		CreatedBy:   "admin_1",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, repo.Create(context.Background(), rep))
	return rep
}

func TestResearchReportService_Create_Validation(t *testing.T) {
	svc, _, cleanup := setupResearchReportService(t)
	defer cleanup()

	ctx := context.Background()
	_, err := svc.Create(ctx, "admin_1", &dto.CreateResearchReportRequest{
		Title:       "报告",
		Description: "描述",
		Category:    "gossip",
	}, []byte("pdf"), "a.pdf", nil, "")
	assert.ErrorIs(t, err, ErrInvalidCategory)

	// OSS 未配置时拒绝上传
	_, err = svc.Create(ctx, "admin_1", &dto.CreateResearchReportRequest{
		Title:       "报告",
		Description: "描述",
		Category:    model.CategoryMarketResearch,
	}, []byte("pdf"), "a.pdf", nil, "")
	assert.ErrorIs(t, err, ErrStorageUnavailable)
}

func TestResearchReportService_ListPublic(t *testing.T) {
	svc, repo, cleanup := setupResearchReportService(t)
	defer cleanup()

	seedResearchReport(t, repo, "rr1", true)
	seedResearchReport(t, repo, "rr2", false)

	public, err := svc.ListPublic(context.Background())
	require.NoError(t, err)
	require.Len(t, public, 1)
	assert.Equal(t, "rr1", public[0].ID)

	all, err := svc.ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestResearchReportService_GetPublic_CountsViews(t *testing.T) {
	svc, repo, cleanup := setupResearchReportService(t)
	defer cleanup()

	ctx := context.Background()
	seedResearchReport(t, repo, "rr1", true)

	rep, err := svc.GetPublic(ctx, "rr1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), rep.ViewCount)

	rep, err = svc.GetPublic(ctx, "rr1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), rep.ViewCount)
}

func TestResearchReportService_GetPublic_HiddenReport(t *testing.T) {
	svc, repo, cleanup := setupResearchReportService(t)
	defer cleanup()

	seedResearchReport(t, repo, "rr1", false)

	_, err := svc.GetPublic(context.Background(), "rr1")
	assert.ErrorIs(t, err, ErrResearchReportNotFound)

	_, err = svc.GetPublic(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrResearchReportNotFound)
}

func TestResearchReportService_Download(t *testing.T) {
	svc, repo, cleanup := setupResearchReportService(t)
	defer cleanup()

	ctx := context.Background()
	rep := seedResearchReport(t, repo, "rr1", true)

	url, err := svc.Download(ctx, "rr1")
	require.NoError(t, err)
	assert.Equal(t, rep.PDFURL, url)

	found, err := repo.Get(ctx, "rr1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), found.DownloadCount)
}

func TestResearchReportService_TogglePublic(t *testing.T) {
	svc, repo, cleanup := setupResearchReportService(t)
	defer cleanup()

	ctx := context.Background()
	seedResearchReport(t, repo, "rr1", false)

	rep, err := svc.TogglePublic(ctx, "rr1", true)
	require.NoError(t, err)
	assert.True(t, rep.IsPublic)

	public, err := svc.ListPublic(ctx)
	require.NoError(t, err)
	assert.Len(t, public, 1)
}

func TestObjectKeyFromURL(t *testing.T) {
	key := objectKeyFromURL("https://cdn.example.com/research-reports/rr1/123.pdf")
	assert.Equal(t, "research-reports/rr1/123.pdf", key)

	assert.Empty(t, objectKeyFromURL("https://cdn.example.com/other/file.pdf"))
}
