package model

import (
	"time"
)

// Report 用户自有的研究报告文档（富文本 HTML）
type Report struct {
	ID         string         `json:"id"`
	UserID     string         `json:"user_id"`
	Title      string         `json:"title"`
	Content    string         `json:"content"`
	CoverImage string         `json:"cover_image,omitempty"`
	Metadata   ReportMetadata `json:"metadata"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// ReportMetadata 报告附加信息
type ReportMetadata struct {
	Company     string   `json:"company,omitempty"`
	Product     string   `json:"product,omitempty"`
	Destination string   `json:"destination,omitempty"`
	Industry    string   `json:"industry,omitempty"`
	WordCount   int      `json:"word_count,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}
