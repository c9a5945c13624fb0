package captcha

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"time"
)

// 验证码字符集，排除易混淆字符
const challengeChars = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

type tokenPayload struct {
	ID  string `json:"id"`
	Exp int64  `json:"exp"` // 毫秒时间戳
}

// Challenge 一次图形验证码挑战
type Challenge struct {
	ID   string // 随机标识，服务端据此存答案
	Code string // 4 位答案
	SVG  string // 渲染给前端的图片
}

type Signer struct {
	secret []byte
	expire time.Duration
}

func NewSigner(secret string, expire time.Duration) *Signer {
	return &Signer{secret: []byte(secret), expire: expire}
}

// NewChallenge 生成一次新的图形验证码
func NewChallenge() (*Challenge, error) {
	idBytes := make([]byte, 16)
	if _, err := rand.Read(idBytes); err != nil {
		return nil, err
	}

	var sb strings.Builder
	for i := 0; i < 4; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(challengeChars))))
		if err != nil {
			return nil, err
		}
		sb.WriteByte(challengeChars[n.Int64()])
	}
	code := sb.String()

	return &Challenge{
		ID:   hex.EncodeToString(idBytes),
		Code: code,
		SVG:  renderSVG(code),
	}, nil
}

// SignToken 为通过校验的挑战签发一次性通行令牌
func (s *Signer) SignToken(captchaID string) (string, error) {
	payload := tokenPayload{
		ID:  captchaID,
		Exp: time.Now().Add(s.expire).UnixMilli(),
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	mac := hmac.New(sha256.New, s.secret)
	mac.Write(data)
	signature := hex.EncodeToString(mac.Sum(nil))

	return base64.StdEncoding.EncodeToString([]byte(string(data) + "." + signature)), nil
}

// VerifyToken 校验通行令牌的签名与时效
func (s *Signer) VerifyToken(token string) (string, bool) {
	decoded, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return "", false
	}

	idx := strings.LastIndexByte(string(decoded), '.')
	if idx <= 0 {
		return "", false
	}
	data, signature := string(decoded)[:idx], string(decoded)[idx+1:]

	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(data))
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return "", false
	}

	var payload tokenPayload
	if err := json.Unmarshal([]byte(data), &payload); err != nil {
		return "", false
	}
	if payload.Exp < time.Now().UnixMilli() {
		return "", false
	}

	return payload.ID, true
}

// renderSVG 生成带干扰线的验证码图片
func renderSVG(text string) string {
	const width, height = 150, 50
	colors := []string{"#2563eb", "#7c3aed", "#db2777", "#059669", "#d97706"}

	pick := func(max int64) int64 {
		n, err := rand.Int(rand.Reader, big.NewInt(max))
		if err != nil {
			return 0
		}
		return n.Int64()
	}

	var noise strings.Builder
	for i := 0; i < 5; i++ {
		fmt.Fprintf(&noise,
			`<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="%s" stroke-width="1" opacity="0.3"/>`,
			pick(width), pick(height), pick(width), pick(height),
			colors[pick(int64(len(colors)))])
	}
	for i := 0; i < 30; i++ {
		fmt.Fprintf(&noise,
			`<circle cx="%d" cy="%d" r="%d" fill="%s" opacity="0.2"/>`,
			pick(width), pick(height), pick(3)+1, colors[pick(int64(len(colors)))])
	}

	textColor := colors[pick(int64(len(colors)))]

	return fmt.Sprintf(
		`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`+
			`<rect width="%d" height="%d" fill="#f9fafb"/>%s`+
			`<text x="50%%" y="50%%" dominant-baseline="middle" text-anchor="middle" `+
			`font-family="monospace" font-size="28" font-weight="bold" letter-spacing="8" fill="%s">%s</text>`+
			`</svg>`,
		width, height, width, height, width, height, noise.String(), textColor, text)
}
