package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Redis     RedisConfig     `mapstructure:"redis"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Quota     QuotaConfig     `mapstructure:"quota"`
	Invite    InviteConfig    `mapstructure:"invite"`
	Admin     AdminConfig     `mapstructure:"admin"`
	SMS       SMSConfig       `mapstructure:"sms"`
	Captcha   CaptchaConfig   `mapstructure:"captcha"`
	Email     EmailConfig     `mapstructure:"email"`
	OSS       OSSConfig       `mapstructure:"oss"`
	Chat      ChatConfig      `mapstructure:"chat"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

// QuotaConfig 会员等级与配额策略
type QuotaConfig struct {
	Levels map[string]LevelConfig `mapstructure:"levels"`
	// FailOpen 配额检查遇到基础设施故障时是否放行（产品默认放行）
	FailOpen bool `mapstructure:"fail_open"`
}

type LevelConfig struct {
	QuotaLimit int     `mapstructure:"quota_limit"` // -1 表示无限
	ExpireDays int     `mapstructure:"expire_days"` // 默认会员时长，0 表示不过期
	Price      float64 `mapstructure:"price"`
}

type InviteConfig struct {
	AdminExpireDays int `mapstructure:"admin_expire_days"` // 管理员邀请码有效期
	UserExpireDays  int `mapstructure:"user_expire_days"`  // 用户邀请码有效期
	UserMaxActive   int `mapstructure:"user_max_active"`   // 每个用户同时持有的未使用邀请码上限
	AdminBatchMax   int `mapstructure:"admin_batch_max"`   // 管理员单次批量生成上限
}

type AdminConfig struct {
	// Emails 注册/首次登录时自动获得管理员身份的邮箱列表
	Emails []string `mapstructure:"emails"`
	// BootstrapToken 首个管理员引导令牌
	BootstrapToken string `mapstructure:"bootstrap_token"`
}

type SMSConfig struct {
	AccessKeyID     string `mapstructure:"access_key_id"`
	AccessKeySecret string `mapstructure:"access_key_secret"`
	SignName        string `mapstructure:"sign_name"`
	TemplateCode    string `mapstructure:"template_code"`
	OTPExpireSec    int    `mapstructure:"otp_expire_sec"`  // 验证码有效期（秒）
	ResendInterval  int    `mapstructure:"resend_interval"` // 重发冷却（秒）
}

type CaptchaConfig struct {
	Secret    string `mapstructure:"secret"`
	ExpireSec int    `mapstructure:"expire_sec"`
}

type EmailConfig struct {
	SMTPHost string `mapstructure:"smtp_host"`
	SMTPPort int    `mapstructure:"smtp_port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type OSSConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	AccessKeySecret string `mapstructure:"access_key_secret"`
	BucketName      string `mapstructure:"bucket_name"`
	CDNDomain       string `mapstructure:"cdn_domain"`
}

// ChatConfig 上游 Skills API 配置
type ChatConfig struct {
	SkillsWSURL  string `mapstructure:"skills_ws_url"`
	SkillsAPIKey string `mapstructure:"skills_api_key"`
	DefaultModel string `mapstructure:"default_model"`
	MaxTokens    int    `mapstructure:"max_tokens"`
	TimeoutSec   int    `mapstructure:"timeout_sec"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

// RateLimitConfig 公开接口的按 IP 限流
type RateLimitConfig struct {
	RequestsPerMinute int `mapstructure:"requests_per_minute"`
	Burst             int `mapstructure:"burst"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"` // 为空时只输出到 stdout
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

func Load(configPath string) (*Config, error) {
	// 优先尝试读取 config.local.yaml（包含真实密钥，不提交到git）
	dir := filepath.Dir(configPath)
	localConfigPath := filepath.Join(dir, "config.local.yaml")

	if _, err := os.Stat(localConfigPath); err == nil {
		configPath = localConfigPath
	}

	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	// 环境变量覆盖
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Quota.Levels == nil {
		cfg.Quota.Levels = DefaultLevels()
		cfg.Quota.FailOpen = true
	}
	if cfg.Invite.AdminExpireDays == 0 {
		cfg.Invite.AdminExpireDays = 7
	}
	if cfg.Invite.UserExpireDays == 0 {
		cfg.Invite.UserExpireDays = 30
	}
	if cfg.Invite.UserMaxActive == 0 {
		cfg.Invite.UserMaxActive = 10
	}
	if cfg.Invite.AdminBatchMax == 0 {
		cfg.Invite.AdminBatchMax = 20
	}
	if cfg.SMS.OTPExpireSec == 0 {
		cfg.SMS.OTPExpireSec = 300
	}
	if cfg.SMS.ResendInterval == 0 {
		cfg.SMS.ResendInterval = 60
	}
	if cfg.Captcha.ExpireSec == 0 {
		cfg.Captcha.ExpireSec = 300
	}
	if cfg.JWT.ExpireHours == 0 {
		cfg.JWT.ExpireHours = 24 * 7
	}
}

// DefaultLevels 各会员等级的默认配额：free 为终身额度，pro/vip 为月度额度
func DefaultLevels() map[string]LevelConfig {
	return map[string]LevelConfig{
		"free":  {QuotaLimit: 3, ExpireDays: 0},
		"pro":   {QuotaLimit: 20, ExpireDays: 30},
		"vip":   {QuotaLimit: 100, ExpireDays: 365},
		"admin": {QuotaLimit: -1, ExpireDays: 0},
	}
}
