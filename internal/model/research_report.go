package model

import (
	"time"
)

// 调研报告分类
const (
	CategoryMarketResearch     = "market_research"
	CategoryIndustryAnalysis   = "industry_analysis"
	CategoryCompetitorAnalysis = "competitor_analysis"
	CategoryConsumerInsight    = "consumer_insight"
	CategoryTrendForecast      = "trend_forecast"
	CategoryCaseStudy          = "case_study"
	CategoryOther              = "other"
)

// ResearchReport 管理员上传的 PDF 调研报告，在 Discovery 页面展示
type ResearchReport struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	PDFURL        string     `json:"pdf_url"`
	PDFFileName   string     `json:"pdf_file_name"`
	PDFFileSize   int64      `json:"pdf_file_size"`
	CoverImage    string     `json:"cover_image,omitempty"`
	Category      string     `json:"category"`
	Tags          []string   `json:"tags,omitempty"`
	Author        string     `json:"author,omitempty"`
	PublishDate   *time.Time `json:"publish_date,omitempty"`
	IsPublic      bool       `json:"is_public"`
	ViewCount     int64      `json:"view_count"`
	DownloadCount int64      `json:"download_count"`
	CreatedBy     string     `json:"created_by"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// ValidCategory 判断分类取值是否合法
func ValidCategory(c string) bool {
	switch c {
	case CategoryMarketResearch, CategoryIndustryAnalysis, CategoryCompetitorAnalysis,
		CategoryConsumerInsight, CategoryTrendForecast, CategoryCaseStudy, CategoryOther:
		return true
	}
	return false
}
