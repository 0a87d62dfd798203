package model

import "time"

// ContentKind distinguishes the two kinds of educational resource.
type ContentKind string

const (
	ContentVideo    ContentKind = "video"
	ContentDocument ContentKind = "document"
)

func (k ContentKind) Valid() bool {
	return k == ContentVideo || k == ContentDocument
}

// Content is an educational resource: a YouTube video or a stored document.
// The video fields are only set for videos and the file fields only for
// documents, so they are pointers (NULL columns).
type Content struct {
	ID              string      `json:"id"`
	Title           string      `json:"title"`
	Description     string      `json:"description"`
	Type            ContentKind `json:"content_type"`
	Slug            string      `json:"slug"`
	YouTubeURL      *string     `json:"youtube_url,omitempty"`
	VideoID         *string     `json:"video_id,omitempty"`
	Thumbnail       *string     `json:"thumbnail,omitempty"`
	FileURL         *string     `json:"file_url,omitempty"`
	FileType        *string     `json:"file_type,omitempty"`
	FileSize        *int64      `json:"file_size,omitempty"`
	MarkdownContent *string     `json:"markdown_content,omitempty"`
	CardFeatureID   *string     `json:"card_feature_id,omitempty"`
	Category        string      `json:"category,omitempty"`
	Tags            []string    `json:"tags"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`
}

// ContentInput is the construction request for a Content.
// FilePath is an object path in storage; it is resolved into FileURL.
type ContentInput struct {
	Title           string      `json:"title"`
	Description     string      `json:"description"`
	Type            ContentKind `json:"content_type"`
	YouTubeURL      string      `json:"youtube_url"`
	VideoID         string      `json:"video_id"`
	Thumbnail       string      `json:"thumbnail"`
	FileURL         string      `json:"file_url"`
	FilePath        string      `json:"file_path"`
	FileType        string      `json:"file_type"`
	FileSize        int64       `json:"file_size"`
	MarkdownContent string      `json:"markdown_content"`
	CardFeatureID   string      `json:"card_feature_id"`
	Category        string      `json:"category"`
	Tags            []string    `json:"tags"`
}

// ContentPatch is a partial update of a Content. The type is fixed at creation.
type ContentPatch struct {
	Title           Optional[string]   `json:"title"`
	Description     Optional[string]   `json:"description"`
	YouTubeURL      Optional[string]   `json:"youtube_url"`
	Thumbnail       Optional[string]   `json:"thumbnail"`
	FileURL         Optional[string]   `json:"file_url"`
	FileType        Optional[string]   `json:"file_type"`
	FileSize        Optional[int64]    `json:"file_size"`
	MarkdownContent Optional[string]   `json:"markdown_content"`
	CardFeatureID   Optional[string]   `json:"card_feature_id"`
	Category        Optional[string]   `json:"category"`
	Tags            Optional[[]string] `json:"tags"`
}

// Apply merges the patch into c. An empty string clears a nullable column.
func (p ContentPatch) Apply(c *Content, now time.Time) {
	set(&c.Title, p.Title)
	set(&c.Description, p.Description)
	set(&c.Category, p.Category)
	setNullable(&c.YouTubeURL, p.YouTubeURL)
	setNullable(&c.Thumbnail, p.Thumbnail)
	setNullable(&c.FileURL, p.FileURL)
	setNullable(&c.FileType, p.FileType)
	setNullable(&c.MarkdownContent, p.MarkdownContent)
	setNullable(&c.CardFeatureID, p.CardFeatureID)
	if v, ok := p.FileSize.Get(); ok {
		if v == 0 {
			c.FileSize = nil
		} else {
			c.FileSize = &v
		}
	}
	if v, ok := p.Tags.Get(); ok {
		c.Tags = nonNil(v)
	}
	c.UpdatedAt = now
}

// StringPtr returns nil for "" and a pointer to s otherwise.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func setNullable(dst **string, o Optional[string]) {
	if o.Set {
		*dst = StringPtr(o.Value)
	}
}
