package fal

// Payload shapes, in the order extractors try them.
const (
	ShapeVideo       = "video"
	ShapeVideoString = "video_string"
	ShapeURL         = "url"
	ShapeImages      = "images"
	ShapeImage       = "image"
	ShapeImageString = "image_string"
	ShapeAudio       = "audio"
)

// Output is the canonical success result of a webhook.
type Output struct {
	Shape        string
	URLs         []string
	ThumbnailURL string

	// Field presence in the payload, used for file type inference.
	HasVideo bool
	HasImage bool
	HasAudio bool

	VideoContentType string
	AudioContentType string
	FileSize         interface{}
	Seed             interface{}
}

// Primary is the first output URL.
func (o *Output) Primary() string {
	if o == nil || len(o.URLs) == 0 {
		return ""
	}
	return o.URLs[0]
}

// Multi reports whether the payload carried an image list. Lists are stored
// per item even when they hold a single image.
func (o *Output) Multi() bool {
	return o != nil && o.Shape == ShapeImages
}

type extractor struct {
	shape string
	fn    func(p map[string]interface{}) []string
	thumb func(p map[string]interface{}) string
}

var extractors = []extractor{
	{shape: ShapeVideo, fn: videoObjectURL, thumb: videoThumbnail},
	{shape: ShapeVideoString, fn: videoStringURL, thumb: payloadThumbnail},
	{shape: ShapeURL, fn: genericURL, thumb: payloadThumbnail},
	{shape: ShapeImages, fn: imageListURLs},
	{shape: ShapeImage, fn: imageObjectURL},
	{shape: ShapeImageString, fn: imageStringURL},
	{shape: ShapeAudio, fn: audioURL},
}

// ExtractOutput runs the extractors in order and returns the first match, or
// nil when the payload carries no output URL.
func ExtractOutput(payload map[string]interface{}) *Output {
	if payload == nil {
		return nil
	}
	for _, ex := range extractors {
		urls := ex.fn(payload)
		if len(urls) == 0 {
			continue
		}
		out := &Output{
			Shape:            ex.shape,
			URLs:             urls,
			HasVideo:         payload["video"] != nil,
			HasImage:         payload["image"] != nil || payload["images"] != nil,
			HasAudio:         payload["audio"] != nil || payload["audio_file"] != nil,
			VideoContentType: stringAt(objectAt(payload, "video"), "content_type"),
			AudioContentType: stringAt(objectAt(payload, "audio"), "content_type"),
			Seed:             payload["seed"],
		}
		if video := objectAt(payload, "video"); video != nil {
			out.FileSize = video["file_size"]
		}
		if ex.thumb != nil {
			out.ThumbnailURL = ex.thumb(payload)
		}
		return out
	}
	return nil
}

func one(url string) []string {
	if url == "" {
		return nil
	}
	return []string{url}
}

func videoObjectURL(p map[string]interface{}) []string {
	return one(stringAt(objectAt(p, "video"), "url"))
}

func videoStringURL(p map[string]interface{}) []string {
	return one(stringAt(p, "video"))
}

func genericURL(p map[string]interface{}) []string {
	return one(stringAt(p, "url"))
}

func imageListURLs(p map[string]interface{}) []string {
	items, ok := p["images"].([]interface{})
	if !ok {
		return nil
	}
	urls := make([]string, 0, len(items))
	for _, item := range items {
		if u := urlOf(item); u != "" {
			urls = append(urls, u)
		}
	}
	if len(urls) == 0 {
		return nil
	}
	return urls
}

func imageObjectURL(p map[string]interface{}) []string {
	return one(stringAt(objectAt(p, "image"), "url"))
}

func imageStringURL(p map[string]interface{}) []string {
	return one(stringAt(p, "image"))
}

func audioURL(p map[string]interface{}) []string {
	if u := urlOf(p["audio"]); u != "" {
		return one(u)
	}
	return one(urlOf(p["audio_file"]))
}

func videoThumbnail(p map[string]interface{}) string {
	if u := nestedURL(p, "video", "preview"); u != "" {
		return u
	}
	if u := nestedURL(p, "video", "thumbnail"); u != "" {
		return u
	}
	return payloadThumbnail(p)
}

func payloadThumbnail(p map[string]interface{}) string {
	for _, key := range []string{"preview", "thumbnail", "first_frame"} {
		if u := nestedURL(p, key); u != "" {
			return u
		}
	}
	return stringAt(p, "thumbnail_url")
}
