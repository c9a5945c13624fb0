package repository

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/kenerlee/navix-server/internal/model"
)

const researchReportsAllKey = "research:reports:all"

func researchReportKey(id string) string {
	return "research:report:" + id
}

type ResearchReportRepository struct {
	rdb *redis.Client
}

func NewResearchReportRepository(rdb *redis.Client) *ResearchReportRepository {
	return &ResearchReportRepository{rdb: rdb}
}

func (r *ResearchReportRepository) Create(ctx context.Context, rep *model.ResearchReport) error {
	pipe := r.rdb.Pipeline()
	pipe.HSet(ctx, researchReportKey(rep.ID), serializeResearchReport(rep))
	pipe.ZAdd(ctx, researchReportsAllKey, &redis.Z{
		Score:  float64(rep.CreatedAt.UnixMilli()),
		Member: rep.ID,
	})
	_, err := pipe.Exec(ctx)
	return err
}

func (r *ResearchReportRepository) Get(ctx context.Context, id string) (*model.ResearchReport, error) {
	data, err := r.rdb.HGetAll(ctx, researchReportKey(id)).Result()
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	return parseResearchReport(data), nil
}

func (r *ResearchReportRepository) Save(ctx context.Context, rep *model.ResearchReport) error {
	return r.rdb.HSet(ctx, researchReportKey(rep.ID), serializeResearchReport(rep)).Err()
}

func (r *ResearchReportRepository) Delete(ctx context.Context, id string) error {
	pipe := r.rdb.Pipeline()
	pipe.Del(ctx, researchReportKey(id))
	pipe.ZRem(ctx, researchReportsAllKey, id)
	_, err := pipe.Exec(ctx)
	return err
}

// List 全量调研报告，按上传时间倒序
func (r *ResearchReportRepository) List(ctx context.Context) ([]*model.ResearchReport, error) {
	ids, err := r.rdb.ZRevRange(ctx, researchReportsAllKey, 0, -1).Result()
	if err != nil {
		return nil, err
	}

	reports := make([]*model.ResearchReport, 0, len(ids))
	for _, id := range ids {
		rep, err := r.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if rep != nil {
			reports = append(reports, rep)
		}
	}
	return reports, nil
}

// IncrViewCount 浏览数原子加一
func (r *ResearchReportRepository) IncrViewCount(ctx context.Context, id string) (int64, error) {
	return r.rdb.HIncrBy(ctx, researchReportKey(id), "view_count", 1).Result()
}

// IncrDownloadCount 下载数原子加一
func (r *ResearchReportRepository) IncrDownloadCount(ctx context.Context, id string) (int64, error) {
	return r.rdb.HIncrBy(ctx, researchReportKey(id), "download_count", 1).Result()
}

func serializeResearchReport(rep *model.ResearchReport) map[string]interface{} {
	isPublic := "0"
	if rep.IsPublic {
		isPublic = "1"
	}
	return map[string]interface{}{
		"id":             rep.ID,
		"title":          rep.Title,
		"description":    rep.Description,
		"pdf_url":        rep.PDFURL,
		"pdf_file_name":  rep.PDFFileName,
		"pdf_file_size":  strconv.FormatInt(rep.PDFFileSize, 10),
		"cover_image":    rep.CoverImage,
		"category":       rep.Category,
		"tags":           strings.Join(rep.Tags, ","),
		"author":         rep.Author,
		"publish_date":   formatTimePtr(rep.PublishDate),
		"is_public":      isPublic,
		"view_count":     strconv.FormatInt(rep.ViewCount, 10),
		"download_count": strconv.FormatInt(rep.DownloadCount, 10),
		"created_by":     rep.CreatedBy,
		"created_at":     rep.CreatedAt.Format(time.RFC3339),
		"updated_at":     rep.UpdatedAt.Format(time.RFC3339),
	}
}

func parseResearchReport(data map[string]string) *model.ResearchReport {
	rep := &model.ResearchReport{
		ID:          data["id"],
		Title:       data["title"],
		Description: data["description"],
		PDFURL:      data["pdf_url"],
		PDFFileName: data["pdf_file_name"],
		CoverImage:  data["cover_image"],
		Category:    data["category"],
		Author:      data["author"],
		CreatedBy:   data["created_by"],
		IsPublic:    data["is_public"] == "1",
	}
	if data["tags"] != "" {
		rep.Tags = strings.Split(data["tags"], ",")
	}
	rep.PDFFileSize, _ = strconv.ParseInt(data["pdf_file_size"], 10, 64)
	rep.ViewCount, _ = strconv.ParseInt(data["view_count"], 10, 64)
	rep.DownloadCount, _ = strconv.ParseInt(data["download_count"], 10, 64)
	rep.PublishDate = parseTimePtr(data["publish_date"])
	rep.CreatedAt = parseTime(data["created_at"])
	rep.UpdatedAt = parseTime(data["updated_at"])
	return rep
}
