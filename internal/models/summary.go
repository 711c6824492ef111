package models

import "time"

// ProfileSnapshot is a profile copy embedded in a direct conversation summary.
type ProfileSnapshot struct {
	ID         string `bson:"_id" json:"id"`
	Name       string `bson:"name,omitempty" json:"name,omitempty"`
	Avatar     string `bson:"avatar,omitempty" json:"avatar,omitempty"`
	Type       string `bson:"type,omitempty" json:"type,omitempty"`
	IsBusiness bool   `bson:"is_business" json:"is_business"`
}

// PreviewContent is the indexed subset of a message content.
type PreviewContent struct {
	Type    ContentType `bson:"type" json:"type"`
	Text    string      `bson:"text,omitempty" json:"text,omitempty"`
	Subject string      `bson:"subject,omitempty" json:"subject,omitempty"`
}

// MessageDocument is the per-message search projection.
type MessageDocument struct {
	ID              string          `bson:"_id" json:"id"`
	MessageID       ObjectID        `bson:"message_id" json:"message_id"`
	Variant         Variant         `bson:"variant" json:"variant"`
	ChatID          string          `bson:"chat_id" json:"chat_id"`
	Channel         Channel         `bson:"channel" json:"channel"`
	FromProfileID   string          `bson:"from_profile_id" json:"from_profile_id"`
	ToProfileIDs    []string        `bson:"to_profile_ids" json:"to_profile_ids"`
	Content         *PreviewContent `bson:"content" json:"content"`
	IsDelivered     bool            `bson:"is_delivered" json:"is_delivered"`
	IsViewed        bool            `bson:"is_viewed" json:"is_viewed"`
	IsManaged       bool            `bson:"is_managed" json:"is_managed"`
	IsDeleted       bool            `bson:"is_deleted" json:"is_deleted"`
	ShowInDashboard bool            `bson:"show_in_dashboard" json:"show_in_dashboard"`
	CreatedAt       time.Time       `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `bson:"updated_at" json:"updated_at"`
}

// NewMessageDocument projects m, keeping truncated preview fields only.
func NewMessageDocument(m Message, previewLen int) *MessageDocument {
	b := m.GetBase()
	doc := &MessageDocument{
		ID:              m.IndexID(),
		MessageID:       b.ID,
		Variant:         m.Variant(),
		ChatID:          b.ChatID,
		Channel:         b.Channel,
		FromProfileID:   b.FromProfileID,
		ToProfileIDs:    append([]string(nil), m.Recipients()...),
		IsDelivered:     b.IsDelivered,
		IsViewed:        b.IsViewed,
		IsManaged:       b.IsManaged,
		IsDeleted:       b.IsDeleted,
		ShowInDashboard: b.ShowInDashboard,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
	if b.Content != nil && !b.IsDeleted {
		c := b.Content.Truncate(previewLen)
		doc.Content = &PreviewContent{Type: c.Type, Text: c.Text, Subject: cutRunes(c.Subject, previewLen)}
	}
	return doc
}

// ConversationSummary is the per-conversation rollup keyed by chat id.
type ConversationSummary struct {
	ID             string           `bson:"_id" json:"id"`
	Type           string           `bson:"type" json:"type"`
	LeftProfile    *ProfileSnapshot `bson:"left_profile,omitempty" json:"left_profile,omitempty"`
	RightProfile   *ProfileSnapshot `bson:"right_profile,omitempty" json:"right_profile,omitempty"`
	OwnerID        string           `bson:"owner_id,omitempty" json:"owner_id,omitempty"`
	Name           string           `bson:"name,omitempty" json:"name,omitempty"`
	ManagedBy      string           `bson:"managed_by,omitempty" json:"managed_by,omitempty"`
	FirstMessage   *MessageDocument `bson:"first_message,omitempty" json:"first_message,omitempty"`
	LastMessage    *MessageDocument `bson:"last_message,omitempty" json:"last_message,omitempty"`
	ToProfileIDs   []string         `bson:"to_profile_ids,omitempty" json:"to_profile_ids,omitempty"`
	Members        []Member         `bson:"members,omitempty" json:"members,omitempty"`
	ParticipantIDs []string         `bson:"participant_ids" json:"participant_ids"`
	CreatedAt      time.Time        `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time        `bson:"updated_at" json:"updated_at"`
	Version        int64            `bson:"version" json:"version"`
}

// HasSide reports whether profileID is one side of a direct summary.
func (s *ConversationSummary) HasSide(profileID string) bool {
	return (s.LeftProfile != nil && s.LeftProfile.ID == profileID) ||
		(s.RightProfile != nil && s.RightProfile.ID == profileID)
}

// Counterpart returns the id on the other side of a direct summary.
func (s *ConversationSummary) Counterpart(profileID string) string {
	if s.LeftProfile != nil && s.LeftProfile.ID == profileID {
		if s.RightProfile != nil {
			return s.RightProfile.ID
		}
		return ""
	}
	if s.LeftProfile != nil {
		return s.LeftProfile.ID
	}
	return ""
}

// Counts is the per-conversation badge summary for one profile.
type Counts struct {
	ChatID    string `json:"chat_id"`
	Unread    int64  `json:"unread"`
	Unmanaged int64  `json:"unmanaged"`
}

// SummaryType maps a chat id prefix to the summary type tag.
func SummaryType(chatID string) string {
	switch ChatKind(chatID) {
	case PrefixGroup:
		return string(VariantGroup)
	case PrefixBroadcast:
		return string(VariantBroadcast)
	case PrefixSystem:
		return string(ChannelSystem)
	default:
		return "relation"
	}
}
