package testutil

import (
	"github.com/kenerlee/navix-server/config"
)

// TestConfig 测试用配置，取生产默认值
func TestConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Mode: "debug"},
		JWT: config.JWTConfig{
			Secret:      "test-secret",
			ExpireHours: 24,
		},
		Quota: config.QuotaConfig{
			Levels:   config.DefaultLevels(),
			FailOpen: true,
		},
		Invite: config.InviteConfig{
			AdminExpireDays: 7,
			UserExpireDays:  30,
			UserMaxActive:   10,
			AdminBatchMax:   20,
		},
		Admin: config.AdminConfig{
			Emails:         []string{"boss@example.com"},
			BootstrapToken: "bootstrap-token",
		},
		SMS: config.SMSConfig{
			OTPExpireSec:   300,
			ResendInterval: 60,
		},
		Captcha: config.CaptchaConfig{
			Secret:    "captcha-secret",
			ExpireSec: 300,
		},
	}
}
