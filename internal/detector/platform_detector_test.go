package detector

import (
	"strings"
	"testing"

	"vextract/parse-gateway/internal/models"
)

func TestDetect(t *testing.T) {
	d := NewPlatformDetector()
	cases := []struct {
		name string
		in   string
		want models.Platform
	}{
		{"douyin short link", "https://v.douyin.com/iRNBho5/", models.PlatformDouyin},
		{"tiktok alias", "https://www.tiktok.com/@user/video/1", models.PlatformDouyin},
		{"bilibili", "https://www.bilibili.com/video/BV1xx411c7mD", models.PlatformBilibili},
		{"b23 short link", "【标题】 https://b23.tv/abc", models.PlatformBilibili},
		{"xiaohongshu", "https://www.xiaohongshu.com/explore/123", models.PlatformXiaohongshu},
		{"xhslink", "看看 http://xhslink.com/a/xyz😀", models.PlatformXiaohongshu},
		{"kuaishou", "https://v.kuaishou.com/abc", models.PlatformKuaishou},
		{"case insensitive", "HTTPS://V.DOUYIN.COM/ABC", models.PlatformDouyin},
		{"unknown", "https://example.com/video", models.PlatformUnknown},
		{"empty", "", models.PlatformUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := d.Detect(tc.in); got != tc.want {
				t.Fatalf("Detect(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestDetectedPlatformDomainIsPresent(t *testing.T) {
	d := NewPlatformDetector()
	for _, rule := range d.rules {
		for _, domain := range rule.domains {
			url := "https://m." + domain + "/share/1"
			got := d.Detect(url)
			if got != rule.platform {
				t.Fatalf("Detect(%q) = %q, want %q", url, got, rule.platform)
			}
			found := false
			for _, r := range d.rules {
				if r.platform != got {
					continue
				}
				for _, dom := range r.domains {
					if strings.Contains(url, dom) {
						found = true
					}
				}
			}
			if !found {
				t.Fatalf("no domain of %q present in %q", got, url)
			}
		}
	}
}

func TestIsSupported(t *testing.T) {
	d := NewPlatformDetector()
	if !d.IsSupported("https://b23.tv/x") {
		t.Fatalf("expected b23.tv to be supported")
	}
	if d.IsSupported("not a url") {
		t.Fatalf("expected plain text to be unsupported")
	}
	if len(d.Domains()) != 7 {
		t.Fatalf("expected 7 known domains, got %d", len(d.Domains()))
	}
}
