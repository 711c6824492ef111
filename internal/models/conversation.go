package models

import "time"

type MemberStatus string

const (
	MemberActive    MemberStatus = "active"
	MemberSuspended MemberStatus = "suspended"
	MemberArchived  MemberStatus = "archived"
)

type Member struct {
	ProfileID string       `bson:"profile_id" json:"profile_id"`
	Status    MemberStatus `bson:"status" json:"status" validate:"oneof=active suspended archived"`
}

// Conversation is the shared shape of groups and broadcasts.
type Conversation struct {
	ID          ObjectID       `bson:"_id,omitempty" json:"id"`
	ChatID      string         `bson:"chat_id" json:"chat_id"`
	OwnerID     string         `bson:"owner_id" json:"owner_id"`
	Name        string         `bson:"name" json:"name"`
	Description string         `bson:"description,omitempty" json:"description,omitempty"`
	Avatar      string         `bson:"avatar,omitempty" json:"avatar,omitempty"`
	Filter      map[string]any `bson:"filter,omitempty" json:"filter,omitempty"`
	Members     []Member       `bson:"members" json:"members"`
	CreatedAt   time.Time      `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `bson:"updated_at" json:"updated_at"`
}

// ActiveMembers returns the profile ids of active members in stored order.
func (c *Conversation) ActiveMembers() []string {
	var out []string
	for _, m := range c.Members {
		if m.Status == MemberActive {
			out = append(out, m.ProfileID)
		}
	}
	return out
}

func (c *Conversation) Member(profileID string) *Member {
	for i := range c.Members {
		if c.Members[i].ProfileID == profileID {
			return &c.Members[i]
		}
	}
	return nil
}

// IsParticipant reports whether profileID owns or is a non-archived member of c.
func (c *Conversation) IsParticipant(profileID string) bool {
	if c.OwnerID == profileID {
		return true
	}
	m := c.Member(profileID)
	return m != nil && m.Status != MemberArchived
}

// SyncMembers reconciles the member list with resolved: absent members other
// than the owner are archived, new ones are added as active, archived ones
// that reappear are reactivated. Suspended members keep their status.
func (c *Conversation) SyncMembers(resolved []string) {
	want := make(map[string]bool, len(resolved))
	for _, id := range resolved {
		want[id] = true
	}
	want[c.OwnerID] = true
	for i := range c.Members {
		m := &c.Members[i]
		switch {
		case !want[m.ProfileID]:
			m.Status = MemberArchived
		case m.Status == MemberArchived:
			m.Status = MemberActive
		}
		delete(want, m.ProfileID)
	}
	if want[c.OwnerID] {
		c.Members = append(c.Members, Member{ProfileID: c.OwnerID, Status: MemberActive})
		delete(want, c.OwnerID)
	}
	for _, id := range resolved {
		if want[id] {
			c.Members = append(c.Members, Member{ProfileID: id, Status: MemberActive})
			delete(want, id)
		}
	}
}

type Group struct {
	Conversation `bson:",inline"`
}

func (*Group) CollectionName() string { return "groups" }
func (g *Group) GetObjectID() ObjectID { return g.ID }
func (g *Group) Variant() Variant { return VariantGroup }
func (g *Group) Base() *Conversation { return &g.Conversation }

func (g *Group) GetUpdates() any {
	out := *g
	out.ID = ""
	return &out
}

type Broadcast struct {
	Conversation `bson:",inline"`
	ManagedBy    string `bson:"managed_by,omitempty" json:"managed_by,omitempty"`
}

func (*Broadcast) CollectionName() string { return "broadcasts" }
func (b *Broadcast) GetObjectID() ObjectID { return b.ID }
func (b *Broadcast) Variant() Variant { return VariantBroadcast }
func (b *Broadcast) Base() *Conversation { return &b.Conversation }

func (b *Broadcast) GetUpdates() any {
	out := *b
	out.ID = ""
	return &out
}

// ConversationEntity is implemented by *Group and *Broadcast.
type ConversationEntity interface {
	CollectionName() string
	GetUpdates() any
	GetObjectID() ObjectID
	Variant() Variant
	Base() *Conversation
}
