package files

import (
	"context"
	"fmt"

	"github.com/nguyentranbao-ct/chat-engine/internal/models"
	"github.com/nguyentranbao-ct/chat-engine/internal/repo/bus"
)

type Client interface {
	Upload(ctx context.Context, base64, filename string) (*models.StoredFile, error)
}

type client struct {
	bus bus.Client
}

func NewClient(b bus.Client) Client {
	return &client{bus: b}
}

func (c *client) Upload(ctx context.Context, base64, filename string) (*models.StoredFile, error) {
	res, err := c.bus.SendAndRead(ctx, bus.RouteFilesPost, map[string]any{
		"base64":   base64,
		"filename": filename,
	})
	if err != nil {
		return nil, fmt.Errorf("upload file: %w", err)
	}
	var out models.StoredFile
	if err := res.Decode(&out); err != nil {
		return nil, err
	}
	if out.ID == "" {
		return nil, fmt.Errorf("upload file: empty file id")
	}
	return &out, nil
}
