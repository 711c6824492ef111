package models

type ProfileStatus string

const (
	ProfileActive    ProfileStatus = "active"
	ProfileTemporary ProfileStatus = "temporary"
	ProfileInactive  ProfileStatus = "inactive"
)

// Usable reports whether a profile or relation in this status may exchange messages.
func (s ProfileStatus) Usable() bool {
	return s == ProfileActive || s == ProfileTemporary
}

// Profile is the subset of an identity-service profile this service consumes.
type Profile struct {
	ID         string        `bson:"_id" json:"id"`
	Name       string        `bson:"name,omitempty" json:"name,omitempty"`
	Avatar     string        `bson:"avatar,omitempty" json:"avatar,omitempty"`
	Type       string        `bson:"type,omitempty" json:"type,omitempty"`
	Status     ProfileStatus `bson:"status" json:"status"`
	IsBusiness bool          `bson:"is_business" json:"is_business"`
	ManagerID  string        `bson:"manager_id,omitempty" json:"manager_id,omitempty"`
}

// Snapshot is the denormalized copy embedded in conversation summaries.
func (p *Profile) Snapshot() *ProfileSnapshot {
	if p == nil {
		return nil
	}
	return &ProfileSnapshot{ID: p.ID, Name: p.Name, Avatar: p.Avatar, Type: p.Type, IsBusiness: p.IsBusiness}
}

type Relation struct {
	ID            string        `json:"id"`
	FromProfileID string        `json:"from_profile_id"`
	ToProfileID   string        `json:"to_profile_id"`
	Status        ProfileStatus `json:"status"`
}

// ChatID is the direct conversation id of the relation.
func (r *Relation) ChatID() string {
	return PrefixRelation + r.ID
}

// Other returns the counterpart of profileID.
func (r *Relation) Other(profileID string) string {
	if r.FromProfileID == profileID {
		return r.ToProfileID
	}
	return r.FromProfileID
}

func (r *Relation) IsSelf() bool {
	return r.FromProfileID == r.ToProfileID
}

// Actor is the caller performing an operation.
type Actor struct {
	ProfileID       string `header:"x-profile-id" jwt:"sub" json:"profile_id" validate:"required"`
	ManagerID       string `header:"x-manager-id" json:"manager_id,omitempty"`
	IsSalesman      bool   `header:"x-salesman" json:"is_salesman,omitempty"`
	ViewAllProfiles bool   `header:"x-view-all-profiles" json:"view_all_profiles,omitempty"`
}

// Scoped reports whether the actor only sees profiles assigned to it.
func (a Actor) Scoped(managedBy string) bool {
	return a.IsSalesman && !a.ViewAllProfiles && a.ManagerID != "" && a.ManagerID == managedBy
}

type StoredFile struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	MimeType string `json:"mime_type"`
	Size     int64  `json:"size"`
}

// DeliveryAck is the per-recipient result of a push.
type DeliveryAck struct {
	ProfileID string `json:"profile_id"`
	Delivered bool   `json:"delivered"`
}
