package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

type Variant string

const (
	VariantDirect    Variant = "direct"
	VariantGroup     Variant = "group"
	VariantBroadcast Variant = "broadcast"
)

// Conversation id prefixes.
const (
	PrefixRelation  = "R-"
	PrefixGroup     = "G-"
	PrefixBroadcast = "B-"
	PrefixSystem    = "S-"
	// per-message projection prefix for direct messages
	PrefixMessage = "M-"
)

const SystemProfileID = "000000000000000000000000"

type Channel string

const (
	ChannelChat      Channel = "chat"
	ChannelPlugin    Channel = "plugin"
	ChannelDevice    Channel = "device"
	ChannelEmail     Channel = "email"
	ChannelBook      Channel = "book"
	ChannelAsk       Channel = "ask"
	ChannelSystem    Channel = "system"
	ChannelGroup     Channel = "group"
	ChannelBroadcast Channel = "broadcast"
)

type View struct {
	ProfileID string    `bson:"profile_id" json:"profile_id"`
	Time      time.Time `bson:"time" json:"time"`
}

type Click struct {
	ProfileID string    `bson:"profile_id" json:"profile_id"`
	Type      ClickType `bson:"type" json:"type"`
	Value     string    `bson:"value,omitempty" json:"value,omitempty"`
	Time      time.Time `bson:"time" json:"time"`
}

// Matches reports whether c is the same click as other; link clicks are
// distinguished by value.
func (c Click) Matches(other Click) bool {
	if c.ProfileID != other.ProfileID || c.Type != other.Type {
		return false
	}
	return c.Type != ClickLink || c.Value == other.Value
}

type Reaction struct {
	ProfileID  string    `bson:"profile_id" json:"profile_id"`
	ReactionID string    `bson:"reaction_id" json:"reaction_id"`
	Time       time.Time `bson:"time" json:"time"`
}

type Lifecycle struct {
	IsDelivered bool       `bson:"is_delivered" json:"is_delivered"`
	DeliveredAt *time.Time `bson:"delivered_at" json:"delivered_at"`
	IsViewed    bool       `bson:"is_viewed" json:"is_viewed"`
	ViewedAt    *time.Time `bson:"viewed_at" json:"viewed_at"`
	IsManaged   bool       `bson:"is_managed" json:"is_managed"`
	ManagedAt   *time.Time `bson:"managed_at" json:"managed_at"`
	IsDeleted   bool       `bson:"is_deleted" json:"is_deleted"`
	DeletedAt   *time.Time `bson:"deleted_at" json:"deleted_at"`
	IsForwarded bool       `bson:"is_forwarded" json:"is_forwarded"`
}

// MessageBase holds the fields shared by every message variant.
type MessageBase struct {
	ID                   ObjectID `bson:"_id,omitempty" json:"id"`
	FrontID              string   `bson:"front_id,omitempty" json:"front_id,omitempty"`
	ChatID               string   `bson:"chat_id" json:"chat_id"`
	Channel              Channel  `bson:"channel" json:"channel"`
	FromProfileID        string   `bson:"from_profile_id" json:"from_profile_id"`
	FromManagerProfileID string   `bson:"from_manager_profile_id,omitempty" json:"from_manager_profile_id,omitempty"`
	Content              *Content `bson:"content" json:"content"`
	ReplyToMessageID     ObjectID `bson:"reply_to_message_id,omitempty" json:"reply_to_message_id,omitempty"`
	// resolved at read time, never stored
	ReplyToMessage *MessageBase `bson:"-" json:"reply_to_message,omitempty"`

	Lifecycle       `bson:",inline"`
	ShowInDashboard bool `bson:"show_in_dashboard" json:"show_in_dashboard"`

	Views     []View     `bson:"views" json:"views"`
	Clicks    []Click    `bson:"clicks" json:"clicks"`
	Reactions []Reaction `bson:"reactions" json:"reactions"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

func (b *MessageBase) HasView(profileID string) bool {
	for _, v := range b.Views {
		if v.ProfileID == profileID {
			return true
		}
	}
	return false
}

func (b *MessageBase) HasReaction(profileID, reactionID string) bool {
	for _, r := range b.Reactions {
		if r.ProfileID == profileID && r.ReactionID == reactionID {
			return true
		}
	}
	return false
}

func (b *MessageBase) HasClick(click Click) bool {
	for _, c := range b.Clicks {
		if c.Matches(click) {
			return true
		}
	}
	return false
}

// Message is implemented by pointers to every stored variant.
type Message interface {
	CollectionName() string
	GetUpdates() any
	GetObjectID() ObjectID
	GetBase() *MessageBase
	Variant() Variant
	// Recipients is the immutable addressing snapshot.
	Recipients() []string
	// RecipientField is the stored field holding Recipients.
	RecipientField() string
	// DedupFilter identifies a prior submission of the same front id.
	DedupFilter() bson.M
	// IndexID keys the per-message projection document.
	IndexID() string
}

// Participants returns the sender followed by the recipients.
func Participants(m Message) []string {
	out := []string{m.GetBase().FromProfileID}
	for _, id := range m.Recipients() {
		if id != out[0] {
			out = append(out, id)
		}
	}
	return out
}

// Submission addresses a previously stored client submission. Empty ChatID
// or ToProfileID fields are not matched.
type Submission struct {
	FrontID       string
	FromProfileID string
	ChatID        string
	ToProfileID   string
}

// ChatKind returns the conversation prefix of a chat id, or "".
func ChatKind(chatID string) string {
	for _, p := range []string{PrefixRelation, PrefixGroup, PrefixBroadcast, PrefixSystem} {
		if strings.HasPrefix(chatID, p) {
			return p
		}
	}
	return ""
}

type DirectMessage struct {
	MessageBase        `bson:",inline"`
	ToProfileID        string   `bson:"to_profile_id" json:"to_profile_id"`
	SessionID          string   `bson:"session_id,omitempty" json:"session_id,omitempty"`
	DeviceID           string   `bson:"device_id,omitempty" json:"device_id,omitempty"`
	BroadcastMessageID ObjectID `bson:"broadcast_message_id,omitempty" json:"broadcast_message_id,omitempty"`
}

func (*DirectMessage) CollectionName() string { return "messages" }
func (*DirectMessage) Variant() Variant { return VariantDirect }
func (*DirectMessage) RecipientField() string { return "to_profile_id" }

func (m *DirectMessage) GetObjectID() ObjectID { return m.ID }
func (m *DirectMessage) GetBase() *MessageBase { return &m.MessageBase }
func (m *DirectMessage) Recipients() []string { return []string{m.ToProfileID} }

func (m *DirectMessage) GetUpdates() any {
	out := *m
	out.ID = ""
	return &out
}

func (m *DirectMessage) DedupFilter() bson.M {
	return bson.M{
		"front_id":        m.FrontID,
		"from_profile_id": m.FromProfileID,
		"to_profile_id":   m.ToProfileID,
	}
}

func (m *DirectMessage) IndexID() string {
	if m.Channel == ChannelSystem {
		return PrefixSystem + m.ID.String()
	}
	return PrefixMessage + m.ID.String()
}

type GroupMessage struct {
	MessageBase  `bson:",inline"`
	GroupID      ObjectID `bson:"group_id" json:"group_id"`
	ToProfileIDs []string `bson:"to_profile_ids" json:"to_profile_ids"`
}

func (*GroupMessage) CollectionName() string { return "group_messages" }
func (*GroupMessage) Variant() Variant { return VariantGroup }
func (*GroupMessage) RecipientField() string { return "to_profile_ids" }

func (m *GroupMessage) GetObjectID() ObjectID { return m.ID }
func (m *GroupMessage) GetBase() *MessageBase { return &m.MessageBase }
func (m *GroupMessage) Recipients() []string { return m.ToProfileIDs }
func (m *GroupMessage) IndexID() string { return PrefixGroup + m.ID.String() }

func (m *GroupMessage) GetUpdates() any {
	out := *m
	out.ID = ""
	return &out
}

func (m *GroupMessage) DedupFilter() bson.M {
	return bson.M{
		"front_id":        m.FrontID,
		"chat_id":         m.ChatID,
		"from_profile_id": m.FromProfileID,
	}
}

type BroadcastMessage struct {
	MessageBase  `bson:",inline"`
	BroadcastID  ObjectID `bson:"broadcast_id" json:"broadcast_id"`
	ToProfileIDs []string `bson:"to_profile_ids" json:"to_profile_ids"`
}

func (*BroadcastMessage) CollectionName() string { return "broadcast_messages" }
func (*BroadcastMessage) Variant() Variant { return VariantBroadcast }
func (*BroadcastMessage) RecipientField() string { return "to_profile_ids" }

func (m *BroadcastMessage) GetObjectID() ObjectID { return m.ID }
func (m *BroadcastMessage) GetBase() *MessageBase { return &m.MessageBase }
func (m *BroadcastMessage) Recipients() []string { return m.ToProfileIDs }
func (m *BroadcastMessage) IndexID() string { return PrefixBroadcast + m.ID.String() }

func (m *BroadcastMessage) GetUpdates() any {
	out := *m
	out.ID = ""
	return &out
}

func (m *BroadcastMessage) DedupFilter() bson.M {
	return bson.M{
		"front_id":        m.FrontID,
		"chat_id":         m.ChatID,
		"from_profile_id": m.FromProfileID,
	}
}
