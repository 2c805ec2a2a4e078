package models

// Quality 期望视频质量
type Quality string

const (
	QualityHigh   Quality = "high"
	QualityMedium Quality = "medium"
	QualityLow    Quality = "low"
)

// ParseOptions 解析选项
type ParseOptions struct {
	PreferredQuality Quality `json:"preferredQuality,omitempty" binding:"omitempty,oneof=high medium low"`
	ExtractAudio     bool    `json:"extractAudio"`
}

// DefaultParseOptions 调用方未提供选项时使用的默认值
func DefaultParseOptions() ParseOptions {
	return ParseOptions{PreferredQuality: QualityHigh}
}

// ParseRequest 视频解析请求
type ParseRequest struct {
	URL       string        `json:"url" binding:"required,min=10,max=2000"`
	Platform  string        `json:"platform" binding:"omitempty,oneof=auto douyin tiktok bilibili xiaohongshu kuaishou"`
	Options   *ParseOptions `json:"options"`
	SkipCache bool          `json:"skipCache"`
}

// QualityURL 上游返回的单个清晰度地址
type QualityURL struct {
	Quality string `json:"quality"`
	URL     string `json:"url"`
}

// VideoDescriptor 标准化后的视频信息, 只包含上游实际返回的字段
type VideoDescriptor struct {
	Platform         string         `json:"platform,omitempty"`
	Title            string         `json:"title,omitempty"`
	Author           string         `json:"author,omitempty"`
	Duration         any            `json:"duration,omitempty"`
	Size             string         `json:"size,omitempty"`
	VideoURL         string         `json:"videoUrl,omitempty"`
	CoverImage       string         `json:"coverImage,omitempty"`
	Description      string         `json:"description,omitempty"`
	Type             string         `json:"type,omitempty"`
	AudioURL         string         `json:"audioUrl,omitempty"`
	SelectedQuality  string         `json:"selectedQuality,omitempty"`
	OriginalResponse map[string]any `json:"originalResponse"`
}

// ParseOutcome 解析结果
type ParseOutcome struct {
	Success  bool             `json:"success"`
	Data     *VideoDescriptor `json:"data,omitempty"`
	Error    string           `json:"error,omitempty"`
	ExecTime float64          `json:"execTime"`

	// Err 分类后的错误, 供传输层映射状态码
	Err error `json:"-"`
}
