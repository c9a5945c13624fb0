package sms

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kenerlee/navix-server/config"
)

const apiEndpoint = "https://dysmsapi.aliyuncs.com/"

var (
	ErrNotConfigured = fmt.Errorf("短信服务未配置")

	chinesePhoneRe = regexp.MustCompile(`^1[3-9]\d{9}$`)
)

// Client 阿里云短信客户端
type Client struct {
	cfg        *config.SMSConfig
	httpClient *http.Client
}

func NewClient(cfg *config.SMSConfig) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type sendResponse struct {
	Code      string `json:"Code"`
	Message   string `json:"Message"`
	RequestID string `json:"RequestId"`
}

// Send 发送验证码短信
func (c *Client) Send(ctx context.Context, phone, code string) error {
	if c.cfg.AccessKeyID == "" || c.cfg.AccessKeySecret == "" {
		return ErrNotConfigured
	}
	if c.cfg.SignName == "" || c.cfg.TemplateCode == "" {
		return ErrNotConfigured
	}

	templateParam, _ := json.Marshal(map[string]string{"code": code})

	params := map[string]string{
		"AccessKeyId":      c.cfg.AccessKeyID,
		"Action":           "SendSms",
		"Format":           "JSON",
		"PhoneNumbers":     FormatPhone(phone),
		"RegionId":         "cn-hangzhou",
		"SignName":         c.cfg.SignName,
		"SignatureMethod":  "HMAC-SHA1",
		"SignatureNonce":   uuid.NewString(),
		"SignatureVersion": "1.0",
		"TemplateCode":     c.cfg.TemplateCode,
		"TemplateParam":    string(templateParam),
		"Timestamp":        time.Now().UTC().Format("2006-01-02T15:04:05Z"),
		"Version":          "2017-05-25",
	}
	params["Signature"] = signature(c.cfg.AccessKeySecret, params)

	query := url.Values{}
	for k, v := range params {
		query.Set(k, v)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiEndpoint+"?"+query.Encode(), nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("短信请求失败: %w", err)
	}
	defer resp.Body.Close()

	var result sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("短信响应解析失败: %w", err)
	}
	if result.Code != "OK" {
		return fmt.Errorf("短信发送失败: %s (%s)", result.Message, result.Code)
	}

	return nil
}

// signature 阿里云 POP 签名算法（HMAC-SHA1）
func signature(accessKeySecret string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var canonical strings.Builder
	for i, k := range keys {
		if i > 0 {
			canonical.WriteByte('&')
		}
		canonical.WriteString(percentEncode(k))
		canonical.WriteByte('=')
		canonical.WriteString(percentEncode(params[k]))
	}

	stringToSign := "GET&%2F&" + percentEncode(canonical.String())

	mac := hmac.New(sha1.New, []byte(accessKeySecret+"&"))
	mac.Write([]byte(stringToSign))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// percentEncode 按阿里云规范做 URL 编码
func percentEncode(s string) string {
	encoded := url.QueryEscape(s)
	encoded = strings.ReplaceAll(encoded, "+", "%20")
	encoded = strings.ReplaceAll(encoded, "*", "%2A")
	encoded = strings.ReplaceAll(encoded, "%7E", "~")
	return encoded
}

// IsValidChinesePhone 校验中国大陆手机号
func IsValidChinesePhone(phone string) bool {
	return chinesePhoneRe.MatchString(FormatPhone(phone))
}

// FormatPhone 去掉 +86 前缀和非数字字符
func FormatPhone(phone string) string {
	phone = strings.TrimPrefix(phone, "+86")
	var sb strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// GenerateOTP 生成 6 位数字验证码
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
