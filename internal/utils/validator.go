package utils

import (
	"net/url"
	"regexp"
	"strings"
)

// 宽松的链接模式, 兼容各平台分享文本
var looseURLPattern = regexp.MustCompile(
	`(?i)^(https?://|//)?[a-z0-9][\w.-]*[a-z0-9]\.[a-z]{2,}|^https?://[\w.-]+|v\.douyin\.com|kuaishou\.com|bilibili\.com|xiaohongshu\.com`,
)

var keyNamePattern = regexp.MustCompile(`^[\x{4e00}-\x{9fa5}a-zA-Z0-9_\-\s]+$`)

// IsPlausibleURL 宽松判断文本是否像一个链接
func IsPlausibleURL(s string) bool {
	if strings.TrimSpace(s) == "" {
		return false
	}

	// 抖音分享文本格式特殊, 直接通过
	if strings.Contains(s, "douyin.com") || strings.Contains(s, "tiktok.com") {
		return true
	}

	return looseURLPattern.MatchString(s) || strings.Contains(s, "http") || strings.Contains(s, "www.")
}

// IsValidURL 严格验证URL格式
func IsValidURL(rawURL string) bool {
	if rawURL == "" {
		return false
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	// 必须是http或https协议
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}

	return u.Host != ""
}

// IsValidKeyName 密钥名称只能包含中文、英文、数字、下划线、连字符和空格
func IsValidKeyName(name string) bool {
	return keyNamePattern.MatchString(name)
}

// SanitizeString 去除首尾空白并合并连续空白
func SanitizeString(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
