package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
)

func otpKey(phone string) string {
	return "sms:otp:" + phone
}

func captchaKey(id string) string {
	return "captcha:" + id
}

// OTPRecord 短信验证码记录，带发送时间用于重发冷却判断
type OTPRecord struct {
	Code   string    `json:"code"`
	SendAt time.Time `json:"send_at"`
}

// VerificationRepository 短信验证码与图形验证码的临时存储
type VerificationRepository struct {
	rdb *redis.Client
}

func NewVerificationRepository(rdb *redis.Client) *VerificationRepository {
	return &VerificationRepository{rdb: rdb}
}

// SaveOTP 写入验证码并设置过期
func (r *VerificationRepository) SaveOTP(ctx context.Context, phone, code string, ttl time.Duration) error {
	rec := OTPRecord{Code: code, SendAt: time.Now()}
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, otpKey(phone), data, ttl).Err()
}

// GetOTP 读取验证码记录，不存在返回 nil
func (r *VerificationRepository) GetOTP(ctx context.Context, phone string) (*OTPRecord, error) {
	data, err := r.rdb.Get(ctx, otpKey(phone)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var rec OTPRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// DeleteOTP 验证成功后删除验证码，保证一次性使用
func (r *VerificationRepository) DeleteOTP(ctx context.Context, phone string) error {
	return r.rdb.Del(ctx, otpKey(phone)).Err()
}

// SaveCaptcha 写入图形验证码答案
func (r *VerificationRepository) SaveCaptcha(ctx context.Context, id, answer string, ttl time.Duration) error {
	return r.rdb.Set(ctx, captchaKey(id), answer, ttl).Err()
}

// ConsumeCaptcha 取出并删除图形验证码答案，不存在返回空串
func (r *VerificationRepository) ConsumeCaptcha(ctx context.Context, id string) (string, error) {
	answer, err := r.rdb.GetDel(ctx, captchaKey(id)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return answer, nil
}
