package detector

import (
	"strings"

	"vextract/parse-gateway/internal/models"
)

// domainRule 域名到平台的映射规则
type domainRule struct {
	platform models.Platform
	domains  []string
}

// PlatformDetector 平台检测器
type PlatformDetector struct {
	rules []domainRule
}

// NewPlatformDetector 创建平台检测器, 规则按顺序匹配
func NewPlatformDetector() *PlatformDetector {
	return &PlatformDetector{
		rules: []domainRule{
			{platform: models.PlatformDouyin, domains: []string{"douyin.com", "tiktok.com"}},
			{platform: models.PlatformBilibili, domains: []string{"bilibili.com", "b23.tv"}},
			{platform: models.PlatformXiaohongshu, domains: []string{"xiaohongshu.com", "xhslink.com"}},
			{platform: models.PlatformKuaishou, domains: []string{"kuaishou.com"}},
		},
	}
}

// Detect 检测文本所属平台, 未匹配时返回 unknown
func (d *PlatformDetector) Detect(text string) models.Platform {
	lower := strings.ToLower(text)
	for _, rule := range d.rules {
		for _, domain := range rule.domains {
			if strings.Contains(lower, domain) {
				return rule.platform
			}
		}
	}
	return models.PlatformUnknown
}

// Domains 返回所有已知平台域名
func (d *PlatformDetector) Domains() []string {
	var out []string
	for _, rule := range d.rules {
		out = append(out, rule.domains...)
	}
	return out
}

// IsSupported 文本中是否包含任一已知平台域名
func (d *PlatformDetector) IsSupported(text string) bool {
	return d.Detect(text) != models.PlatformUnknown
}
