package email

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/kenerlee/navix-server/config"
)

type Service struct {
	cfg *config.EmailConfig
}

func NewService(cfg *config.EmailConfig) *Service {
	return &Service{cfg: cfg}
}

// SendWelcome 邀请码激活成功后的欢迎邮件
func (s *Service) SendWelcome(to string) error {
	subject := "欢迎加入 - 摸摸底 NaviX"
	body := `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <h2 style="color: #2563eb;">欢迎加入摸摸底！</h2>
        <p>您好，</p>
        <p>您的邀请码已激活，现在可以使用完整功能：</p>
        <ul>
            <li>AI 市场调研对话</li>
            <li>深度尽调报告生成</li>
            <li>Discovery 精选调研报告库</li>
        </ul>
        <p>开始您的第一次调研吧！</p>
        <hr style="border: none; border-top: 1px solid #e5e7eb; margin: 20px 0;">
        <p style="color: #6b7280; font-size: 12px;">此邮件由系统自动发送，请勿回复。</p>
    </div>
</body>
</html>
`
	return s.sendHTML(to, subject, body)
}

// SendMembershipExpiring 会员即将到期提醒
func (s *Service) SendMembershipExpiring(to, level string, daysLeft int) error {
	subject := "会员即将到期提醒 - 摸摸底 NaviX"
	body := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <h2 style="color: #2563eb;">会员即将到期</h2>
        <p>您好，</p>
        <p>您的 %s 会员将在 <strong>%d 天</strong>后到期。</p>
        <p>到期后将无法继续使用会员配额，建议提前续费以免影响使用。</p>
        <hr style="border: none; border-top: 1px solid #e5e7eb; margin: 20px 0;">
        <p style="color: #6b7280; font-size: 12px;">此邮件由系统自动发送，请勿回复。</p>
    </div>
</body>
</html>
`, strings.ToUpper(level), daysLeft)

	return s.sendHTML(to, subject, body)
}

// SendLevelChanged 管理员调整等级后的通知
func (s *Service) SendLevelChanged(to, level string) error {
	subject := "会员等级变更通知 - 摸摸底 NaviX"
	body := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <h2 style="color: #2563eb;">会员等级已更新</h2>
        <p>您好，</p>
        <p>您的会员等级已更新为：</p>
        <div style="background-color: #f3f4f6; padding: 15px; text-align: center; font-size: 24px; font-weight: bold; letter-spacing: 5px; margin: 20px 0;">
            %s
        </div>
        <p>新的配额已即时生效。</p>
        <hr style="border: none; border-top: 1px solid #e5e7eb; margin: 20px 0;">
        <p style="color: #6b7280; font-size: 12px;">此邮件由系统自动发送，请勿回复。</p>
    </div>
</body>
</html>
`, strings.ToUpper(level))

	return s.sendHTML(to, subject, body)
}

// sendHTML 发送 HTML 邮件
func (s *Service) sendHTML(to, subject, body string) error {
	headers := make(map[string]string)
	headers["From"] = s.cfg.From
	headers["To"] = to
	headers["Subject"] = subject
	headers["MIME-Version"] = "1.0"
	headers["Content-Type"] = "text/html; charset=UTF-8"

	var msg strings.Builder
	for k, v := range headers {
		msg.WriteString(fmt.Sprintf("%s: %s\r\n", k, v))
	}
	msg.WriteString("\r\n")
	msg.WriteString(body)

	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.SMTPHost)
	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)

	return smtp.SendMail(addr, auth, s.cfg.From, []string{to}, []byte(msg.String()))
}
