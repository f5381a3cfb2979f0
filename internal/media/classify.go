package media

import (
	"path"
	"strings"
)

type Kind string

const (
	KindVideo Kind = "video"
	KindImage Kind = "image"
	KindAudio Kind = "audio"
)

// Hints are the output fields present in a provider payload.
type Hints struct {
	Video bool
	Image bool
	Audio bool

	VideoContentType string
	AudioContentType string
}

// FileType is the storage extension and content type of an output.
type FileType struct {
	Kind        Kind
	Ext         string
	ContentType string
}

var (
	imageToolKeywords = []string{"image", "flux", "bria", "hidream"}
	audioToolKeywords = []string{"audio", "music", "sound"}

	// Tool name fragments that denote a video mode regardless of other words.
	videoModeKeywords = []string{"text2video", "image2video", "video"}

	videoToolKeywords = []string{
		"text2video", "image2video", "wan", "animatediff", "haiper", "mochi",
		"minimax", "cogvideox", "ltx", "runway", "luma", "kling", "qwen", "video",
	}
	videoExtensions = map[string]bool{
		".mp4": true, ".webm": true, ".mov": true, ".avi": true, ".mkv": true,
	}
)

// InferFileType resolves what an output is. Payload hints win over tool
// names, video first; a tool that names a video mode ("image2video") is
// video even when it also mentions images. Anything unrecognized is video.
func InferFileType(toolType string, hints Hints, outputFormat string) FileType {
	tool := strings.ToLower(toolType)

	switch {
	case hints.Video:
		return videoFileType(hints)
	case hints.Image:
		return imageFileType(outputFormat)
	case hints.Audio:
		return audioFileType(hints)
	case containsAny(tool, videoModeKeywords):
		return videoFileType(hints)
	case containsAny(tool, imageToolKeywords):
		return imageFileType(outputFormat)
	case containsAny(tool, audioToolKeywords):
		return audioFileType(hints)
	}
	return videoFileType(hints)
}

func videoFileType(hints Hints) FileType {
	return FileType{Kind: KindVideo, Ext: "mp4", ContentType: orDefault(hints.VideoContentType, "video/mp4")}
}

func imageFileType(outputFormat string) FileType {
	if strings.EqualFold(outputFormat, "jpeg") || strings.EqualFold(outputFormat, "jpg") {
		return FileType{Kind: KindImage, Ext: "jpg", ContentType: "image/jpeg"}
	}
	return FileType{Kind: KindImage, Ext: "png", ContentType: "image/png"}
}

func audioFileType(hints Hints) FileType {
	return FileType{Kind: KindAudio, Ext: "mp3", ContentType: orDefault(hints.AudioContentType, "audio/mpeg")}
}

// ImageFileType is the type used for each entry of an image list.
func ImageFileType(outputFormat string) FileType {
	return imageFileType(outputFormat)
}

// IsVideoOutput reports whether a tool or output URL identifies a video
// generation. Either signal is enough.
func IsVideoOutput(toolType, outputURL string) bool {
	if containsAny(strings.ToLower(toolType), videoToolKeywords) {
		return true
	}
	u := strings.ToLower(outputURL)
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	return videoExtensions[path.Ext(u)]
}

func containsAny(s string, keywords []string) bool {
	if s == "" {
		return false
	}
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
