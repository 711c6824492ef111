package usecase

import (
	"context"
	"fmt"

	"github.com/nguyentranbao-ct/chat-engine/internal/models"
	"github.com/nguyentranbao-ct/chat-engine/internal/repo/files"
)

type contentPreparer struct {
	files   files.Client
	maxLen  int
	catalog *models.Catalog
}

// prepare validates content, caps its text and uploads inline media.
func (p *contentPreparer) prepare(ctx context.Context, c *models.Content) error {
	if err := c.Validate(); err != nil {
		return err
	}
	c.Normalize(p.maxLen)
	c.IsTruncated = false
	if !c.NeedsUpload() {
		return nil
	}
	stored, err := p.files.Upload(ctx, c.Base64, c.Filename)
	if err != nil {
		return fmt.Errorf("upload %s content: %w", c.Type, err)
	}
	c.ApplyFile(stored)
	return nil
}

func (p *contentPreparer) channel(ch models.Channel, fallback models.Channel) (models.Channel, error) {
	if ch == "" {
		return fallback, nil
	}
	if !p.catalog.HasChannel(ch) {
		return "", models.NewInvalidArgument("unknown channel %q", ch)
	}
	return ch, nil
}
