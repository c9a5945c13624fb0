package repository

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/kenerlee/navix-server/internal/model"
)

const consultationsAllKey = "consultations:all"

func consultationKey(id string) string {
	return "consultation:" + id
}

type ConsultationRepository struct {
	rdb *redis.Client
}

func NewConsultationRepository(rdb *redis.Client) *ConsultationRepository {
	return &ConsultationRepository{rdb: rdb}
}

func (r *ConsultationRepository) Create(ctx context.Context, c *model.Consultation) error {
	pipe := r.rdb.Pipeline()
	pipe.HSet(ctx, consultationKey(c.ID), serializeConsultation(c))
	pipe.ZAdd(ctx, consultationsAllKey, &redis.Z{
		Score:  float64(c.CreatedAt.UnixMilli()),
		Member: c.ID,
	})
	_, err := pipe.Exec(ctx)
	return err
}

func (r *ConsultationRepository) Get(ctx context.Context, id string) (*model.Consultation, error) {
	data, err := r.rdb.HGetAll(ctx, consultationKey(id)).Result()
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	return parseConsultation(data), nil
}

func (r *ConsultationRepository) Save(ctx context.Context, c *model.Consultation) error {
	return r.rdb.HSet(ctx, consultationKey(c.ID), serializeConsultation(c)).Err()
}

// ListIDs 按提交时间倒序返回一页咨询 ID
func (r *ConsultationRepository) ListIDs(ctx context.Context, start, stop int64) ([]string, error) {
	return r.rdb.ZRevRange(ctx, consultationsAllKey, start, stop).Result()
}

func (r *ConsultationRepository) Count(ctx context.Context) (int64, error) {
	return r.rdb.ZCard(ctx, consultationsAllKey).Result()
}

func serializeConsultation(c *model.Consultation) map[string]interface{} {
	return map[string]interface{}{
		"id":                c.ID,
		"name":              c.Name,
		"company":           c.Company,
		"phone":             c.Phone,
		"email":             c.Email,
		"consultation_type": c.ConsultationType,
		"description":       c.Description,
		"status":            c.Status,
		"admin_notes":       c.AdminNotes,
		"created_at":        c.CreatedAt.Format(time.RFC3339),
		"updated_at":        c.UpdatedAt.Format(time.RFC3339),
	}
}

func parseConsultation(data map[string]string) *model.Consultation {
	c := &model.Consultation{
		ID:               data["id"],
		Name:             data["name"],
		Company:          data["company"],
		Phone:            data["phone"],
		Email:            data["email"],
		ConsultationType: data["consultation_type"],
		Description:      data["description"],
		Status:           data["status"],
		AdminNotes:       data["admin_notes"],
	}
	if c.Status == "" {
		c.Status = model.ConsultationPending
	}
	c.CreatedAt = parseTime(data["created_at"])
	c.UpdatedAt = parseTime(data["updated_at"])
	return c
}
