package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/kenerlee/navix-server/config"
	"github.com/kenerlee/navix-server/internal/model"
	"github.com/kenerlee/navix-server/internal/model/dto"
	"github.com/kenerlee/navix-server/internal/pkg/captcha"
	"github.com/kenerlee/navix-server/internal/pkg/jwt"
	"github.com/kenerlee/navix-server/internal/pkg/sms"
	"github.com/kenerlee/navix-server/internal/repository"
)

var (
	ErrEmailExists        = errors.New("邮箱已被注册")
	ErrInvalidCredentials = errors.New("邮箱或密码错误")
	ErrInvalidPhone       = errors.New("手机号格式不正确")
	ErrInvalidCaptcha     = errors.New("图形验证码错误或已过期")
	ErrOTPCooldown        = errors.New("发送过于频繁，请稍后再试")
	ErrInvalidOTP         = errors.New("短信验证码错误或已过期")
	ErrInvalidBootstrap   = errors.New("引导令牌无效")
)

type AuthService struct {
	profiles     *ProfileService
	invites      *InviteService
	verification *repository.VerificationRepository
	smsClient    *sms.Client
	signer       *captcha.Signer
	cfg          *config.Config
}

func NewAuthService(
	profiles *ProfileService,
	invites *InviteService,
	verification *repository.VerificationRepository,
	smsClient *sms.Client,
	cfg *config.Config,
) *AuthService {
	return &AuthService{
		profiles:     profiles,
		invites:      invites,
		verification: verification,
		smsClient:    smsClient,
		signer:       captcha.NewSigner(cfg.Captcha.Secret, time.Duration(cfg.Captcha.ExpireSec)*time.Second),
		cfg:          cfg,
	}
}

// Register 邮箱注册。带邀请码时注册即激活。
func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	userEmail := strings.ToLower(strings.TrimSpace(req.Email))

	existing, err := s.profiles.repo.GetByEmail(ctx, userEmail)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailExists
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	userID := "user_" + uuid.NewString()
	p, err := s.profiles.GetOrCreate(ctx, userID, userEmail, "")
	if err != nil {
		return nil, err
	}

	hash := string(hashed)
	p, err = s.profiles.Update(ctx, userID, &model.ProfileUpdate{PasswordHash: &hash})
	if err != nil {
		return nil, err
	}

	if req.InviteCode != "" && p.Role == model.RoleGuest {
		activated, err := s.invites.Activate(ctx, req.InviteCode, userID)
		if err != nil {
			// 注册已完成，邀请码问题原样返回给前端处理
			return nil, err
		}
		p = activated
	}

	return s.issueToken(p)
}

// Login 邮箱密码登录
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	userEmail := strings.ToLower(strings.TrimSpace(req.Email))

	p, err := s.profiles.repo.GetByEmail(ctx, userEmail)
	if err != nil {
		return nil, err
	}
	if p == nil || p.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	p, err = s.profiles.GetOrCreate(ctx, p.ID, userEmail, "")
	if err != nil {
		return nil, err
	}
	return s.issueToken(p)
}

// IssueCaptcha 生成图形验证码挑战，答案暂存 Redis 等待核对
func (s *AuthService) IssueCaptcha(ctx context.Context) (*captcha.Challenge, error) {
	ch, err := captcha.NewChallenge()
	if err != nil {
		return nil, err
	}
	if err := s.verification.SaveCaptcha(ctx, ch.ID, ch.Code,
		time.Duration(s.cfg.Captcha.ExpireSec)*time.Second); err != nil {
		return nil, err
	}
	return ch, nil
}

// VerifyCaptcha 校验图形验证码答案，通过后签发一次性通行令牌
func (s *AuthService) VerifyCaptcha(ctx context.Context, req *dto.CaptchaVerifyRequest) (string, error) {
	answer, err := s.verification.ConsumeCaptcha(ctx, req.CaptchaID)
	if err != nil {
		return "", err
	}
	if answer == "" || !strings.EqualFold(answer, req.Answer) {
		return "", ErrInvalidCaptcha
	}
	return s.signer.SignToken(req.CaptchaID)
}

// SendOTP 发送短信验证码。要求先通过图形验证码，且受重发冷却约束。
func (s *AuthService) SendOTP(ctx context.Context, req *dto.SMSSendRequest) error {
	phone := sms.FormatPhone(req.Phone)
	if !sms.IsValidChinesePhone(phone) {
		return ErrInvalidPhone
	}

	if _, ok := s.signer.VerifyToken(req.CaptchaToken); !ok {
		return ErrInvalidCaptcha
	}

	if rec, err := s.verification.GetOTP(ctx, phone); err != nil {
		return err
	} else if rec != nil {
		cooldown := time.Duration(s.cfg.SMS.ResendInterval) * time.Second
		if time.Since(rec.SendAt) < cooldown {
			return ErrOTPCooldown
		}
	}

	code, err := sms.GenerateOTP()
	if err != nil {
		return err
	}

	if err := s.smsClient.Send(ctx, phone, code); err != nil {
		if errors.Is(err, sms.ErrNotConfigured) && s.cfg.Server.Mode == "debug" {
			// 开发环境没配短信网关，验证码打日志凑合用
			logrus.WithFields(logrus.Fields{"phone": phone, "code": code}).Warn("短信未配置，验证码仅记录日志")
		} else {
			return err
		}
	}

	return s.verification.SaveOTP(ctx, phone, code, time.Duration(s.cfg.SMS.OTPExpireSec)*time.Second)
}

// VerifyOTP 校验短信验证码并登录（手机号首次出现即注册）
func (s *AuthService) VerifyOTP(ctx context.Context, req *dto.SMSVerifyRequest) (*dto.AuthResponse, error) {
	phone := sms.FormatPhone(req.Phone)
	if !sms.IsValidChinesePhone(phone) {
		return nil, ErrInvalidPhone
	}

	rec, err := s.verification.GetOTP(ctx, phone)
	if err != nil {
		return nil, err
	}
	if rec == nil || rec.Code != req.Code {
		return nil, ErrInvalidOTP
	}

	// 一次性使用
	if err := s.verification.DeleteOTP(ctx, phone); err != nil {
		return nil, err
	}

	p, err := s.profiles.repo.GetByMobile(ctx, phone)
	if err != nil {
		return nil, err
	}

	userID := ""
	if p != nil {
		userID = p.ID
	} else {
		userID = "user_" + uuid.NewString()
	}

	profile, err := s.profiles.GetOrCreate(ctx, userID, "", phone)
	if err != nil {
		return nil, err
	}
	return s.issueToken(profile)
}

// BootstrapAdmin 用引导令牌把当前账号提为管理员，用于系统冷启动
func (s *AuthService) BootstrapAdmin(ctx context.Context, userID, token string) (*model.UserProfile, error) {
	if s.cfg.Admin.BootstrapToken == "" || token != s.cfg.Admin.BootstrapToken {
		return nil, ErrInvalidBootstrap
	}

	p, err := s.profiles.UpdateLevel(ctx, userID, model.LevelAdmin, 0)
	if err != nil {
		return nil, err
	}

	role := model.RoleAdmin
	p, err = s.profiles.Update(ctx, userID, &model.ProfileUpdate{Role: &role})
	if err != nil {
		return nil, err
	}

	logrus.WithField("user_id", userID).Info("引导令牌已使用，账号提为管理员")
	return p, nil
}

func (s *AuthService) issueToken(p *model.UserProfile) (*dto.AuthResponse, error) {
	token, err := jwt.GenerateToken(p.ID, s.cfg.JWT.Secret, s.cfg.JWT.ExpireHours)
	if err != nil {
		return nil, err
	}
	return &dto.AuthResponse{Token: token, User: p}, nil
}
