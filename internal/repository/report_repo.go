package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/kenerlee/navix-server/internal/model"
)

func reportKey(id string) string {
	return "report:" + id
}

func userReportsKey(userID string) string {
	return "user:reports:" + userID
}

type ReportRepository struct {
	rdb *redis.Client
}

func NewReportRepository(rdb *redis.Client) *ReportRepository {
	return &ReportRepository{rdb: rdb}
}

func (r *ReportRepository) Create(ctx context.Context, rep *model.Report) error {
	pipe := r.rdb.Pipeline()
	pipe.HSet(ctx, reportKey(rep.ID), serializeReport(rep))
	pipe.ZAdd(ctx, userReportsKey(rep.UserID), &redis.Z{
		Score:  float64(rep.CreatedAt.UnixMilli()),
		Member: rep.ID,
	})
	_, err := pipe.Exec(ctx)
	return err
}

func (r *ReportRepository) Get(ctx context.Context, id string) (*model.Report, error) {
	data, err := r.rdb.HGetAll(ctx, reportKey(id)).Result()
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	return parseReport(data), nil
}

func (r *ReportRepository) Save(ctx context.Context, rep *model.Report) error {
	return r.rdb.HSet(ctx, reportKey(rep.ID), serializeReport(rep)).Err()
}

func (r *ReportRepository) Delete(ctx context.Context, rep *model.Report) error {
	pipe := r.rdb.Pipeline()
	pipe.Del(ctx, reportKey(rep.ID))
	pipe.ZRem(ctx, userReportsKey(rep.UserID), rep.ID)
	_, err := pipe.Exec(ctx)
	return err
}

// ListByUser 用户的报告，按创建时间倒序
func (r *ReportRepository) ListByUser(ctx context.Context, userID string) ([]*model.Report, error) {
	ids, err := r.rdb.ZRevRange(ctx, userReportsKey(userID), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	reports := make([]*model.Report, 0, len(ids))
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

func serializeReport(rep *model.Report) map[string]interface{} {
	meta, _ := json.Marshal(rep.Metadata)
	return map[string]interface{}{
		"id":          rep.ID,
		"user_id":     rep.UserID,
		"title":       rep.Title,
		"content":     rep.Content,
		"cover_image": rep.CoverImage,
		"metadata":    string(meta),
		"created_at":  rep.CreatedAt.Format(time.RFC3339),
		"updated_at":  rep.UpdatedAt.Format(time.RFC3339),
	}
}

func parseReport(data map[string]string) *model.Report {
	rep := &model.Report{
		ID:         data["id"],
		UserID:     data["user_id"],
		Title:      data["title"],
		Content:    data["content"],
		CoverImage: data["cover_image"],
	}
	if data["metadata"] != "" {
		_ = json.Unmarshal([]byte(data["metadata"]), &rep.Metadata)
	}
	rep.CreatedAt = parseTime(data["created_at"])
	rep.UpdatedAt = parseTime(data["updated_at"])
	return rep
}
