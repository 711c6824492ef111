package identity

import (
	"context"
	"fmt"

	"github.com/nguyentranbao-ct/chat-engine/internal/models"
	"github.com/nguyentranbao-ct/chat-engine/internal/repo/bus"
	"github.com/tidwall/gjson"
)

// Client reads profiles and relations owned by the identity service.
type Client interface {
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
	GetProfiles(ctx context.Context, ids []string) ([]*models.Profile, error)
	// GetProfilesFiltered resolves an opaque targeting filter into profiles.
	GetProfilesFiltered(ctx context.Context, filter map[string]any) ([]*models.Profile, error)
	GetRelation(ctx context.Context, id string) (*models.Relation, error)
	// GetRelations returns the relations between ownerID and each of profileIDs.
	GetRelations(ctx context.Context, ownerID string, profileIDs []string) ([]*models.Relation, error)
	// GetAssignedProfiles lists the profiles assigned to a manager.
	GetAssignedProfiles(ctx context.Context, managerID string) ([]string, error)
}

type client struct {
	bus bus.Client
}

func NewClient(b bus.Client) Client {
	return &client{bus: b}
}

func (c *client) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	profiles, err := c.GetProfiles(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	for _, p := range profiles {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, nil
}

func (c *client) GetProfiles(ctx context.Context, ids []string) ([]*models.Profile, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	res, err := c.bus.SendAndRead(ctx, bus.RouteProfileGet, map[string]any{"ids": ids})
	if err != nil {
		return nil, fmt.Errorf("get profiles: %w", err)
	}
	var out []*models.Profile
	if err := res.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *client) GetProfilesFiltered(ctx context.Context, filter map[string]any) ([]*models.Profile, error) {
	res, err := c.bus.SendAndRead(ctx, bus.RouteProfilesFiltered, map[string]any{"filter": filter})
	if err != nil {
		return nil, fmt.Errorf("get profiles filtered: %w", err)
	}
	var out []*models.Profile
	if err := res.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *client) GetRelation(ctx context.Context, id string) (*models.Relation, error) {
	res, err := c.bus.SendAndRead(ctx, bus.RouteRelationGet, map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("get relation: %w", err)
	}
	if !res.Get("id").Exists() {
		return nil, nil
	}
	var out models.Relation
	if err := res.Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *client) GetRelations(ctx context.Context, ownerID string, profileIDs []string) ([]*models.Relation, error) {
	if len(profileIDs) == 0 {
		return nil, nil
	}
	res, err := c.bus.SendAndRead(ctx, bus.RouteRelationGet, map[string]any{
		"profile_id": ownerID,
		"with":       profileIDs,
	})
	if err != nil {
		return nil, fmt.Errorf("get relations: %w", err)
	}
	var out []*models.Relation
	if err := res.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *client) GetAssignedProfiles(ctx context.Context, managerID string) ([]string, error) {
	res, err := c.bus.SendAndRead(ctx, bus.RouteRelationAssigned, map[string]any{"manager_id": managerID})
	if err != nil {
		return nil, fmt.Errorf("get assigned profiles: %w", err)
	}
	var ids []string
	for _, v := range res.Data().Array() {
		if id := v.Get("profile_id").String(); id != "" {
			ids = append(ids, id)
		} else if v.Type == gjson.String {
			ids = append(ids, v.String())
		}
	}
	return ids, nil
}
