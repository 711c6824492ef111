package models

import (
	"strings"
	"unicode/utf8"
)

type ContentType string

const (
	ContentText   ContentType = "text"
	ContentImage  ContentType = "image"
	ContentAction ContentType = "action"
	ContentEmail  ContentType = "email"
	ContentAudio  ContentType = "audio"
	ContentFile   ContentType = "file"
)

type ClickType string

const (
	ClickLink     ClickType = "link"
	ClickAudio    ClickType = "audio"
	ClickDownload ClickType = "download"
	ClickImage    ClickType = "image"
	ClickAction   ClickType = "action"
)

type Action struct {
	Key   string `bson:"key" json:"key"`
	Label string `bson:"label" json:"label"`
	Value string `bson:"value,omitempty" json:"value,omitempty"`
}

type Attachment struct {
	FileID   string `bson:"file_id" json:"file_id"`
	Filename string `bson:"filename" json:"filename"`
	MimeType string `bson:"mime_type,omitempty" json:"mime_type,omitempty"`
	Size     int64  `bson:"size,omitempty" json:"size,omitempty"`
}

// Content is a tagged union keyed by Type.
type Content struct {
	Type        ContentType `bson:"type" json:"type" validate:"required"`
	Text        string      `bson:"text,omitempty" json:"text,omitempty"`
	IsTruncated bool        `bson:"-" json:"is_truncated,omitempty"`

	ImageID  string `bson:"image_id,omitempty" json:"image_id,omitempty"`
	AudioID  string `bson:"audio_id,omitempty" json:"audio_id,omitempty"`
	FileID   string `bson:"file_id,omitempty" json:"file_id,omitempty"`
	Filename string `bson:"filename,omitempty" json:"filename,omitempty"`
	MimeType string `bson:"mime_type,omitempty" json:"mime_type,omitempty"`
	Size     int64  `bson:"size,omitempty" json:"size,omitempty"`
	// inline media uploaded before persisting
	Base64 string `bson:"-" json:"base64,omitempty"`

	Subject     string       `bson:"subject,omitempty" json:"subject,omitempty"`
	HTML        string       `bson:"html,omitempty" json:"html,omitempty"`
	To          []string     `bson:"to,omitempty" json:"to,omitempty"`
	From        string       `bson:"from,omitempty" json:"from,omitempty"`
	CC          []string     `bson:"cc,omitempty" json:"cc,omitempty"`
	Attachments []Attachment `bson:"attachments,omitempty" json:"attachments,omitempty"`
	MessageID   string       `bson:"message_id,omitempty" json:"message_id,omitempty"`

	Actions     []Action       `bson:"actions,omitempty" json:"actions,omitempty"`
	ContentData map[string]any `bson:"content_data,omitempty" json:"content_data,omitempty"`
}

// Validate checks the fields each content type requires.
func (c *Content) Validate() error {
	if c == nil {
		return NewInvalidArgument("content is required")
	}
	switch c.Type {
	case ContentText:
		if strings.TrimSpace(c.Text) == "" {
			return NewInvalidArgument("text content requires text")
		}
	case ContentImage:
		if c.ImageID == "" && c.Base64 == "" {
			return NewInvalidArgument("image content requires a media reference")
		}
	case ContentAudio:
		if c.AudioID == "" && c.Base64 == "" {
			return NewInvalidArgument("audio content requires a media reference")
		}
	case ContentFile:
		if c.FileID == "" && c.Base64 == "" {
			return NewInvalidArgument("file content requires a media reference")
		}
	case ContentEmail:
		if c.Subject == "" || c.HTML == "" || len(c.To) == 0 {
			return NewInvalidArgument("email content requires subject, html and recipients")
		}
	case ContentAction:
		if len(c.Actions) == 0 {
			return NewInvalidArgument("action content requires actions")
		}
	default:
		return NewInvalidArgument("unknown content type %q", c.Type)
	}
	return nil
}

// Normalize trims text and caps text and subject at maxLen runes.
func (c *Content) Normalize(maxLen int) {
	if c == nil {
		return
	}
	c.Text = cutRunes(strings.TrimSpace(c.Text), maxLen)
	c.Subject = cutRunes(c.Subject, maxLen)
}

// Truncate returns a preview copy with text cut to n runes and html removed.
func (c *Content) Truncate(n int) *Content {
	if c == nil {
		return nil
	}
	out := *c
	out.HTML = ""
	if utf8.RuneCountInString(out.Text) > n {
		out.Text = cutRunes(out.Text, n)
		out.IsTruncated = true
	}
	return &out
}

// NeedsUpload reports whether the content carries inline media.
func (c *Content) NeedsUpload() bool {
	if c == nil || c.Base64 == "" {
		return false
	}
	switch c.Type {
	case ContentImage, ContentAudio, ContentFile:
		return true
	}
	return false
}

// ApplyFile replaces inline media with the stored file reference.
func (c *Content) ApplyFile(f *StoredFile) {
	switch c.Type {
	case ContentImage:
		c.ImageID = f.ID
	case ContentAudio:
		c.AudioID = f.ID
	case ContentFile:
		c.FileID = f.ID
	}
	c.Filename = f.Filename
	c.MimeType = f.MimeType
	c.Size = f.Size
	c.Base64 = ""
}

func cutRunes(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
