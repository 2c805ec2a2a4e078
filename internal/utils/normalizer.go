package utils

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"vextract/parse-gateway/internal/models"
)

// fieldPath 上游响应中的字段路径, 例如 {"data", "work_title"}
type fieldPath []string

// 各语义字段在上游响应中的候选字段, 按优先级排列
var (
	platformAliases    = []fieldPath{{"platform"}, {"source"}}
	titleAliases       = []fieldPath{{"title"}, {"data", "work_title"}}
	authorAliases      = []fieldPath{{"author"}, {"data", "work_author"}}
	durationAliases    = []fieldPath{{"duration"}}
	sizeAliases        = []fieldPath{{"size"}, {"filesize"}, {"file_size"}, {"data", "size"}}
	videoURLAliases    = []fieldPath{{"video_url"}, {"url"}, {"data", "work_url"}}
	coverAliases       = []fieldPath{{"cover"}, {"pic"}, {"data", "work_cover"}}
	descriptionAliases = []fieldPath{{"description"}, {"desc"}, {"data", "work_desc"}}
	typeAliases        = []fieldPath{{"data", "work_type"}}
)

// 清晰度偏好顺序
var qualityPreferences = map[models.Quality][]string{
	models.QualityHigh:   {"1080p", "720p", "480p"},
	models.QualityMedium: {"720p", "480p", "360p"},
	models.QualityLow:    {"480p", "360p", "240p"},
}

var formattedSizePattern = regexp.MustCompile(`(?i)\d+(\.\d+)?\s*(MB|KB|GB|B)`)

var leadingFloatPattern = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// NormalizeResponse 将上游响应映射为标准视频信息
func NormalizeResponse(resp map[string]any, opts models.ParseOptions) (*models.VideoDescriptor, error) {
	if resp == nil {
		return nil, ErrMalformedResponse
	}

	desc := &models.VideoDescriptor{OriginalResponse: resp}

	if v, ok := lookup(resp, platformAliases); ok {
		desc.Platform = stringify(v)
	}
	if v, ok := lookup(resp, titleAliases); ok {
		desc.Title = stringify(v)
	}
	if v, ok := lookup(resp, authorAliases); ok {
		desc.Author = stringify(v)
	}
	if v, ok := lookup(resp, durationAliases); ok {
		desc.Duration = v
	}
	if v, ok := lookup(resp, sizeAliases); ok {
		desc.Size = FormatFileSize(v)
	}
	if v, ok := lookup(resp, videoURLAliases); ok {
		desc.VideoURL = stringify(v)
	}
	if v, ok := lookup(resp, coverAliases); ok {
		desc.CoverImage = stringify(v)
	}
	if v, ok := lookup(resp, descriptionAliases); ok {
		desc.Description = stringify(v)
	}
	if v, ok := lookup(resp, typeAliases); ok {
		desc.Type = stringify(v)
	}

	selectQuality(desc, resp["videoUrls"], opts.PreferredQuality)

	if opts.ExtractAudio {
		if v, ok := lookup(resp, []fieldPath{{"audio_url"}}); ok {
			desc.AudioURL = stringify(v)
		}
	}

	return desc, nil
}

// FormatFileSize 格式化文件大小, 字节数转换为 MB, 已带单位的字符串原样返回
func FormatFileSize(size any) string {
	switch v := size.(type) {
	case string:
		if formattedSizePattern.MatchString(v) {
			return v
		}
		m := leadingFloatPattern.FindString(strings.TrimSpace(v))
		if m == "" {
			return v
		}
		f, err := strconv.ParseFloat(m, 64)
		if err != nil {
			return v
		}
		return bytesToMB(f)
	case float64:
		return bytesToMB(v)
	case float32:
		return bytesToMB(float64(v))
	case int:
		return bytesToMB(float64(v))
	case int64:
		return bytesToMB(float64(v))
	default:
		return fmt.Sprint(v)
	}
}

func bytesToMB(b float64) string {
	return fmt.Sprintf("%.2fMB", b/(1024*1024))
}

// selectQuality 按偏好从多清晰度列表中选择播放地址
func selectQuality(desc *models.VideoDescriptor, raw any, preferred models.Quality) {
	items, ok := raw.([]any)
	if !ok || len(items) == 0 {
		return
	}

	candidates := make([]models.QualityURL, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		q, _ := m["quality"].(string)
		u, _ := m["url"].(string)
		candidates = append(candidates, models.QualityURL{Quality: q, URL: u})
	}

	order, ok := qualityPreferences[preferred]
	if !ok {
		order = qualityPreferences[models.QualityMedium]
	}

	for _, want := range order {
		for _, c := range candidates {
			if c.Quality == want {
				desc.VideoURL = c.URL
				desc.SelectedQuality = c.Quality
				return
			}
		}
	}
}

// lookup 返回第一个有值的候选字段
func lookup(resp map[string]any, paths []fieldPath) (any, bool) {
	for _, path := range paths {
		if v, ok := valueAt(resp, path); ok && present(v) {
			return v, true
		}
	}
	return nil, false
}

func valueAt(m map[string]any, path fieldPath) (any, bool) {
	var cur any = m
	for _, key := range path {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = obj[key]; !ok {
			return nil, false
		}
	}
	return cur, true
}

// present 空值、空字符串、零值和 false 视为缺失
func present(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case bool:
		return t
	case float64:
		return t != 0
	case int:
		return t != 0
	case int64:
		return t != 0
	default:
		return true
	}
}

// stringify 文本字段统一输出为字符串, 数字标题等按十进制展开, 原值保留在 OriginalResponse
func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}
