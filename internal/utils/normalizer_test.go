package utils

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"vextract/parse-gateway/internal/models"
)

func decode(t *testing.T, s string) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		t.Fatalf("invalid fixture: %v", err)
	}
	return m
}

func TestNormalizeResponseNestedAliases(t *testing.T) {
	resp := decode(t, `{"code":200,"data":{"work_title":"t","work_author":"a","work_url":"https://cdn/x.mp4","work_cover":"https://cdn/x.jpg","work_desc":"d","work_type":"video","size":93422387}}`)

	desc, err := NormalizeResponse(resp, models.DefaultParseOptions())
	if err != nil {
		t.Fatalf("NormalizeResponse error = %v", err)
	}

	if desc.Title != "t" || desc.Author != "a" || desc.VideoURL != "https://cdn/x.mp4" {
		t.Fatalf("unexpected descriptor: %+v", desc)
	}
	if desc.CoverImage != "https://cdn/x.jpg" || desc.Description != "d" || desc.Type != "video" {
		t.Fatalf("unexpected descriptor: %+v", desc)
	}
	if desc.Size != "89.09MB" {
		t.Fatalf("Size = %q, want 89.09MB", desc.Size)
	}
	if desc.OriginalResponse == nil {
		t.Fatal("OriginalResponse must always be kept")
	}
}

func TestNormalizeResponseFlatAliasesWin(t *testing.T) {
	resp := decode(t, `{"title":"flat","url":"https://cdn/flat.mp4","pic":"https://cdn/p.jpg","source":"douyin","data":{"work_title":"nested","work_url":"https://cdn/nested.mp4"}}`)

	desc, err := NormalizeResponse(resp, models.ParseOptions{})
	if err != nil {
		t.Fatalf("NormalizeResponse error = %v", err)
	}
	if desc.Title != "flat" || desc.VideoURL != "https://cdn/flat.mp4" {
		t.Fatalf("flat aliases must take priority: %+v", desc)
	}
	if desc.CoverImage != "https://cdn/p.jpg" || desc.Platform != "douyin" {
		t.Fatalf("unexpected descriptor: %+v", desc)
	}
}

func TestNormalizeResponseOmitsAbsentFields(t *testing.T) {
	resp := decode(t, `{"code":200,"title":"only title","author":null,"cover":""}`)

	desc, err := NormalizeResponse(resp, models.DefaultParseOptions())
	if err != nil {
		t.Fatalf("NormalizeResponse error = %v", err)
	}

	b, err := json.Marshal(desc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	out := decode(t, string(b))

	for k, v := range out {
		if v == nil {
			t.Fatalf("key %q serialized as null", k)
		}
	}
	for _, k := range []string{"platform", "author", "coverImage", "size", "videoUrl", "duration", "audioUrl"} {
		if _, ok := out[k]; ok {
			t.Fatalf("key %q should be omitted, got %s", k, b)
		}
	}
	if out["title"] != "only title" {
		t.Fatalf("title = %v", out["title"])
	}
	if _, ok := out["originalResponse"]; !ok {
		t.Fatal("originalResponse missing")
	}
}

func TestNormalizeResponseNil(t *testing.T) {
	if _, err := NormalizeResponse(nil, models.DefaultParseOptions()); !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("error = %v, want ErrMalformedResponse", err)
	}
}

func TestFormatFileSize(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{float64(93422387), "89.09MB"},
		{93422387, "89.09MB"},
		{"50.00MB", "50.00MB"},
		{"12 kb", "12 kb"},
		{"1048576", "1.00MB"},
		{"N/A", "N/A"},
	}

	for _, tt := range tests {
		if got := FormatFileSize(tt.in); got != tt.want {
			t.Errorf("FormatFileSize(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeResponseQualitySelection(t *testing.T) {
	resp := decode(t, `{"url":"https://cdn/default.mp4","videoUrls":[{"quality":"360p","url":"https://cdn/360.mp4"},{"quality":"720p","url":"https://cdn/720.mp4"},{"quality":"1080p","url":"https://cdn/1080.mp4"}]}`)

	tests := []struct {
		quality models.Quality
		wantURL string
		wantQ   string
	}{
		{models.QualityHigh, "https://cdn/1080.mp4", "1080p"},
		{models.QualityMedium, "https://cdn/720.mp4", "720p"},
		{models.QualityLow, "https://cdn/360.mp4", "360p"},
		{"", "https://cdn/720.mp4", "720p"},
		{"ultra", "https://cdn/720.mp4", "720p"},
	}

	for _, tt := range tests {
		desc, err := NormalizeResponse(resp, models.ParseOptions{PreferredQuality: tt.quality})
		if err != nil {
			t.Fatalf("NormalizeResponse error = %v", err)
		}
		if desc.VideoURL != tt.wantURL || desc.SelectedQuality != tt.wantQ {
			t.Errorf("quality %q: got (%q, %q), want (%q, %q)", tt.quality, desc.VideoURL, desc.SelectedQuality, tt.wantURL, tt.wantQ)
		}
	}
}

func TestNormalizeResponseNoMatchingQuality(t *testing.T) {
	resp := decode(t, `{"url":"https://cdn/default.mp4","videoUrls":[{"quality":"4k","url":"https://cdn/4k.mp4"}]}`)

	desc, err := NormalizeResponse(resp, models.ParseOptions{PreferredQuality: models.QualityHigh})
	if err != nil {
		t.Fatalf("NormalizeResponse error = %v", err)
	}
	if desc.VideoURL != "https://cdn/default.mp4" || desc.SelectedQuality != "" {
		t.Fatalf("unexpected selection: %+v", desc)
	}
}

func TestNormalizeResponseAudio(t *testing.T) {
	resp := decode(t, `{"url":"https://cdn/v.mp4","audio_url":"https://cdn/a.mp3"}`)

	desc, _ := NormalizeResponse(resp, models.ParseOptions{ExtractAudio: false})
	if desc.AudioURL != "" {
		t.Fatalf("AudioURL = %q, want empty when not requested", desc.AudioURL)
	}

	desc, _ = NormalizeResponse(resp, models.ParseOptions{ExtractAudio: true})
	if desc.AudioURL != "https://cdn/a.mp3" {
		t.Fatalf("AudioURL = %q", desc.AudioURL)
	}
}

func TestNormalizeResponseDurationKeepsType(t *testing.T) {
	resp := decode(t, `{"duration":15.5,"title":"x"}`)
	desc, _ := NormalizeResponse(resp, models.ParseOptions{})
	if d, ok := desc.Duration.(float64); !ok || d != 15.5 {
		t.Fatalf("Duration = %#v", desc.Duration)
	}

	b, _ := json.Marshal(desc)
	if !strings.Contains(string(b), `"duration":15.5`) {
		t.Fatalf("unexpected json %s", b)
	}
}

func TestNormalizeResponseNumericTextFields(t *testing.T) {
	resp := decode(t, `{"title":2024,"author":1e21,"type":7,"video_url":"https://cdn/x.mp4"}`)

	desc, err := NormalizeResponse(resp, models.DefaultParseOptions())
	if err != nil {
		t.Fatalf("NormalizeResponse error = %v", err)
	}
	if desc.Title != "2024" || desc.Author != "1000000000000000000000" || desc.Type != "7" {
		t.Fatalf("unexpected descriptor: %+v", desc)
	}
	if desc.OriginalResponse["title"] != float64(2024) {
		t.Fatalf("original response must keep the upstream type, got %#v", desc.OriginalResponse["title"])
	}

	out, _ := json.Marshal(desc)
	if !strings.Contains(string(out), `"title":"2024"`) {
		t.Fatalf("title should serialize as a string: %s", out)
	}
}
