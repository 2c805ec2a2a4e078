package utils

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"vextract/parse-gateway/internal/models"
)

const httpsPrefix = "https://"

// shareURLExtractor 从分享文本中提取链接
type shareURLExtractor func(raw string) string

// shareURLExtractors 各平台的分享文本处理方式, 未登记的平台只做 trim
var shareURLExtractors = map[models.Platform]shareURLExtractor{
	models.PlatformDouyin:      strings.TrimSpace,
	models.PlatformTikTok:      strings.TrimSpace,
	models.PlatformBilibili:    extractOrTrim(stopAtSpaceOrCJK),
	models.PlatformKuaishou:    extractOrTrim(stopAtSpaceOrCJK),
	models.PlatformXiaohongshu: extractOrTrim(stopAtSpaceCJKOrEmoji),
}

// NormalizeShareURL 按平台从分享文本中提取规范链接
func NormalizeShareURL(raw string, platform models.Platform) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrEmptyInput
	}

	extract, ok := shareURLExtractors[platform]
	if !ok {
		return trimmed, nil
	}
	return extract(raw), nil
}

func extractOrTrim(stop func(rune) bool) shareURLExtractor {
	return func(raw string) string {
		if u, ok := extractHTTPS(raw, stop); ok {
			return u
		}
		return strings.TrimSpace(raw)
	}
}

// extractHTTPS 截取第一个 https:// 起始、到第一个结束字符为止的子串
func extractHTTPS(raw string, stop func(rune) bool) (string, bool) {
	start := strings.Index(raw, httpsPrefix)
	if start < 0 {
		return "", false
	}

	rest := raw[start+len(httpsPrefix):]
	end := len(rest)
	for i, r := range rest {
		if stop(r) {
			end = i
			break
		}
	}
	return raw[start : start+len(httpsPrefix)+end], true
}

func isSpace(r rune) bool {
	return unicode.IsSpace(r) || r == '\ufeff'
}

func isCJK(r rune) bool {
	return r >= 0x4e00 && r <= 0x9fa5
}

func isEmoji(r rune) bool {
	return (r >= 0x1f600 && r <= 0x1f64f) ||
		(r >= 0x1f300 && r <= 0x1f5ff) ||
		(r >= 0x1f680 && r <= 0x1f6ff) ||
		(r >= 0x2600 && r <= 0x26ff)
}

// isSurrogate 需要 UTF-16 代理对编码的字符, 以及无法解码的字节
func isSurrogate(r rune) bool {
	return r > 0xffff || r == utf8.RuneError
}

func stopAtSpaceOrCJK(r rune) bool {
	return isSpace(r) || isCJK(r)
}

func stopAtSpaceCJKOrEmoji(r rune) bool {
	return isSpace(r) || isCJK(r) || isSurrogate(r) || isEmoji(r)
}
