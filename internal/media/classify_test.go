package media_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"genmedia-backend/internal/media"
)

func TestInferFileType(t *testing.T) {
	tests := []struct {
		name   string
		tool   string
		hints  media.Hints
		format string
		want   media.FileType
	}{
		{"image hint", "wan22_pro", media.Hints{Image: true}, "", media.FileType{Kind: media.KindImage, Ext: "png", ContentType: "image/png"}},
		{"flux jpeg", "flux-kontext", media.Hints{}, "jpeg", media.FileType{Kind: media.KindImage, Ext: "jpg", ContentType: "image/jpeg"}},
		{"hidream", "hidream-i1", media.Hints{}, "png", media.FileType{Kind: media.KindImage, Ext: "png", ContentType: "image/png"}},
		{"music tool", "stable-music", media.Hints{}, "", media.FileType{Kind: media.KindAudio, Ext: "mp3", ContentType: "audio/mpeg"}},
		{"audio hint with type", "", media.Hints{Audio: true, AudioContentType: "audio/wav"}, "", media.FileType{Kind: media.KindAudio, Ext: "mp3", ContentType: "audio/wav"}},
		{"video default", "wan22_pro", media.Hints{Video: true}, "", media.FileType{Kind: media.KindVideo, Ext: "mp4", ContentType: "video/mp4"}},
		{"video content type", "kling", media.Hints{Video: true, VideoContentType: "video/webm"}, "", media.FileType{Kind: media.KindVideo, Ext: "mp4", ContentType: "video/webm"}},
		{"image2video tool with video payload", "kling-image2video", media.Hints{Video: true}, "", media.FileType{Kind: media.KindVideo, Ext: "mp4", ContentType: "video/mp4"}},
		{"image2video tool without hints", "wan-image2video", media.Hints{}, "", media.FileType{Kind: media.KindVideo, Ext: "mp4", ContentType: "video/mp4"}},
		{"video hint beats image tool", "flux-pro", media.Hints{Video: true}, "", media.FileType{Kind: media.KindVideo, Ext: "mp4", ContentType: "video/mp4"}},
		{"video hint beats image list", "wan22_pro", media.Hints{Video: true, Image: true}, "", media.FileType{Kind: media.KindVideo, Ext: "mp4", ContentType: "video/mp4"}},
		{"qwen image stays image", "qwen-image", media.Hints{}, "", media.FileType{Kind: media.KindImage, Ext: "png", ContentType: "image/png"}},
		{"unknown tool", "", media.Hints{}, "", media.FileType{Kind: media.KindVideo, Ext: "mp4", ContentType: "video/mp4"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, media.InferFileType(tt.tool, tt.hints, tt.format))
		})
	}
}

func TestIsVideoOutput(t *testing.T) {
	assert.True(t, media.IsVideoOutput("wan22_pro", ""))
	assert.True(t, media.IsVideoOutput("Kling-2.1", ""))
	assert.True(t, media.IsVideoOutput("custom", "https://cdn/x.MP4?token=1"))
	assert.True(t, media.IsVideoOutput("", "https://cdn/clip.webm"))
	assert.False(t, media.IsVideoOutput("flux-kontext", "https://cdn/x.png"))
	assert.False(t, media.IsVideoOutput("", ""))
}
