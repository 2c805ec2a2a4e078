package models

import "strings"

// Platform 短视频平台标识
type Platform string

const (
	PlatformAuto        Platform = "auto"
	PlatformDouyin      Platform = "douyin"
	PlatformTikTok      Platform = "tiktok" // 抖音别名
	PlatformBilibili    Platform = "bilibili"
	PlatformXiaohongshu Platform = "xiaohongshu"
	PlatformKuaishou    Platform = "kuaishou"
	PlatformUnknown     Platform = "unknown"
)

// PlatformInfo 支持的平台信息
type PlatformInfo struct {
	Key  Platform `json:"key"`
	Name string   `json:"name"`
}

var supportedPlatforms = []PlatformInfo{
	{Key: PlatformDouyin, Name: "抖音/TikTok"},
	{Key: PlatformBilibili, Name: "哔哩哔哩"},
	{Key: PlatformXiaohongshu, Name: "小红书"},
	{Key: PlatformKuaishou, Name: "快手"},
}

// SupportedPlatforms 返回支持的平台列表(副本)
func SupportedPlatforms() []PlatformInfo {
	out := make([]PlatformInfo, len(supportedPlatforms))
	copy(out, supportedPlatforms)
	return out
}

// ParsePlatform 将请求中的平台字符串转换为平台标识, tiktok 归并为 douyin
func ParsePlatform(s string) Platform {
	switch p := Platform(strings.ToLower(strings.TrimSpace(s))); p {
	case "", PlatformAuto:
		return PlatformAuto
	case PlatformTikTok:
		return PlatformDouyin
	case PlatformDouyin, PlatformBilibili, PlatformXiaohongshu, PlatformKuaishou:
		return p
	default:
		return PlatformUnknown
	}
}
