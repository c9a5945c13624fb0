package sms

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kenerlee/navix-server/config"
)

func TestIsValidChinesePhone(t *testing.T) {
	tests := []struct {
		phone string
		want  bool
	}{
		{"13812345678", true},
		{"+8613812345678", true},
		{"138 1234 5678", true},
		{"19912345678", true},
		{"12812345678", false}, // 12 开头不存在
		{"1381234567", false},  // 位数不足
		{"138123456789", false},
		{"abcdefghijk", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.phone, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidChinesePhone(tt.phone))
		})
	}
}

func TestFormatPhone(t *testing.T) {
	assert.Equal(t, "13812345678", FormatPhone("+8613812345678"))
	assert.Equal(t, "13812345678", FormatPhone("138-1234-5678"))
	assert.Equal(t, "13812345678", FormatPhone("138 1234 5678"))
}

func TestGenerateOTP(t *testing.T) {
	for i := 0; i < 100; i++ {
		code, err := GenerateOTP()
		require.NoError(t, err)
		assert.Len(t, code, 6)
		for _, r := range code {
			assert.True(t, r >= '0' && r <= '9')
		}
	}
}

func TestSend_NotConfigured(t *testing.T) {
	client := NewClient(&config.SMSConfig{})

	err := client.Send(context.Background(), "13812345678", "123456")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestSignature_Deterministic(t *testing.T) {
	params := map[string]string{
		"Action":       "SendSms",
		"PhoneNumbers": "13812345678",
		"Timestamp":    "2024-01-01T00:00:00Z",
	}

	sig1 := signature("secret", params)
	sig2 := signature("secret", params)
	assert.Equal(t, sig1, sig2)
	assert.NotEmpty(t, sig1)

	// 不同密钥得到不同签名
	assert.NotEqual(t, sig1, signature("other", params))
}
