package usecase

import (
	"context"
	"encoding/json"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/nguyentranbao-ct/chat-engine/internal/config"
	"github.com/nguyentranbao-ct/chat-engine/internal/models"
	"github.com/nguyentranbao-ct/chat-engine/internal/repo/mongodb"
	"github.com/nguyentranbao-ct/chat-engine/internal/repo/notification"
	"github.com/nguyentranbao-ct/chat-engine/internal/repo/socket"
	"github.com/nguyentranbao-ct/chat-engine/pkg/util"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var syncBackground = util.Background{Sync: true}

func testConfig() *config.Config {
	return &config.Config{
		Index: config.IndexConfig{ReconcileBackoff: time.Millisecond},
		Message: config.MessageConfig{
			TruncateLength: 1500,
			MaxLength:      10000,
			DefaultLimit:   20,
			MaxLimit:       100,
		},
	}
}

// clone detaches stored rows from the values handed to callers, like a
// database round trip does.
func clone[T any](v T) T {
	var out T
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &out); err != nil {
		panic(err)
	}
	return out
}

type memMessages[M storedMessage] struct {
	mu   sync.Mutex
	rows []M
}

func (r *memMessages[M]) find(id models.ObjectID) (M, bool) {
	for _, m := range r.rows {
		if m.GetObjectID() == id {
			return m, true
		}
	}
	var zero M
	return zero, false
}

func (r *memMessages[M]) all() []M {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]M, len(r.rows))
	for i, m := range r.rows {
		out[i] = clone(m)
	}
	return out
}

func (r *memMessages[M]) seed(msgs ...M) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		b := m.GetBase()
		if b.ID == "" {
			b.ID = models.NewObjectID()
		}
		r.rows = append(r.rows, clone(m))
	}
}

func (r *memMessages[M]) FindByID(_ context.Context, id string) (M, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.find(models.ObjectID(id))
	if !ok {
		var zero M
		return zero, models.ErrNotFound
	}
	return clone(m), nil
}

func (r *memMessages[M]) FindByIDs(_ context.Context, ids []models.ObjectID) ([]M, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []M
	for _, id := range ids {
		if m, ok := r.find(id); ok {
			out = append(out, clone(m))
		}
	}
	return out, nil
}

func (r *memMessages[M]) InsertIdempotent(_ context.Context, msg M) (M, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b := msg.GetBase()
	if b.FrontID != "" {
		for _, m := range r.rows {
			if m.GetBase().FrontID != "" && reflect.DeepEqual(m.DedupFilter(), msg.DedupFilter()) {
				return clone(m), false, nil
			}
		}
	}
	if b.ID == "" {
		b.ID = models.NewObjectID()
	}
	if b.Views == nil {
		b.Views = []models.View{}
	}
	if b.Clicks == nil {
		b.Clicks = []models.Click{}
	}
	if b.Reactions == nil {
		b.Reactions = []models.Reaction{}
	}
	r.rows = append(r.rows, clone(msg))
	return msg, true, nil
}

func (r *memMessages[M]) FindSubmitted(_ context.Context, sub models.Submission) (M, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var zero M
	if sub.FrontID == "" || sub.FromProfileID == "" {
		return zero, models.ErrNotFound
	}
	for _, m := range r.rows {
		b := m.GetBase()
		switch {
		case b.FrontID != sub.FrontID, b.FromProfileID != sub.FromProfileID:
		case sub.ChatID != "" && b.ChatID != sub.ChatID:
		case sub.ToProfileID != "" && !util.SliceIncludes(m.Recipients(), sub.ToProfileID):
		default:
			return clone(m), nil
		}
	}
	return zero, models.ErrNotFound
}

func (r *memMessages[M]) isParticipant(m M, profileID string) bool {
	return m.GetBase().FromProfileID == profileID || util.SliceIncludes(m.Recipients(), profileID)
}

func (r *memMessages[M]) Window(_ context.Context, q mongodb.WindowQuery) ([]M, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []M
	for _, m := range r.rows {
		b := m.GetBase()
		if b.ChatID != q.ChatID || !r.isParticipant(m, q.ProfileID) {
			continue
		}
		if q.Before != nil && b.CreatedAt.After(*q.Before) {
			continue
		}
		if q.After != nil && b.CreatedAt.Before(*q.After) {
			continue
		}
		out = append(out, clone(m))
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].GetBase(), out[j].GetBase()
		if q.Ascending {
			a, b = b, a
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (r *memMessages[M]) MarkDelivered(_ context.Context, profileID string, ids []models.ObjectID, at time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, id := range ids {
		m, ok := r.find(id)
		if !ok || !util.SliceIncludes(m.Recipients(), profileID) || m.GetBase().IsDelivered {
			continue
		}
		b := m.GetBase()
		b.IsDelivered = true
		b.DeliveredAt = util.Ptr(at)
		n++
	}
	return n, nil
}

func notBeforeTime(at, created time.Time) *time.Time {
	if at.Before(created) {
		return util.Ptr(created)
	}
	return util.Ptr(at)
}

func (r *memMessages[M]) MarkViewed(_ context.Context, msg M, profileID string, at time.Time) ([]models.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	anchor := msg.GetBase()
	var ids []models.ObjectID
	for _, m := range r.rows {
		b := m.GetBase()
		if b.ChatID != anchor.ChatID || b.CreatedAt.After(anchor.CreatedAt) {
			continue
		}
		if direct, ok := any(m).(*models.DirectMessage); ok {
			if b.FromProfileID != anchor.FromProfileID || direct.ToProfileID != profileID || b.IsViewed {
				continue
			}
			b.IsViewed = true
			b.ViewedAt = notBeforeTime(at, b.CreatedAt)
			b.ShowInDashboard = false
		} else {
			if !util.SliceIncludes(m.Recipients(), profileID) || b.HasView(profileID) {
				continue
			}
			b.Views = append(b.Views, models.View{ProfileID: profileID, Time: *notBeforeTime(at, b.CreatedAt)})
			b.IsViewed = true
			if b.ViewedAt == nil {
				b.ViewedAt = notBeforeTime(at, b.CreatedAt)
			}
		}
		b.UpdatedAt = at
		ids = append(ids, b.ID)
	}
	return ids, nil
}

// update applies fn to the stored row when guard accepts it.
func (r *memMessages[M]) update(id models.ObjectID, guard func(*models.MessageBase) bool, fn func(*models.MessageBase)) (M, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.find(id)
	if !ok || !guard(m.GetBase()) {
		var zero M
		return zero, models.ErrNotFound
	}
	fn(m.GetBase())
	return clone(m), nil
}

func (r *memMessages[M]) AddView(_ context.Context, id models.ObjectID, view models.View) (M, error) {
	return r.update(id,
		func(b *models.MessageBase) bool { return !b.HasView(view.ProfileID) },
		func(b *models.MessageBase) { b.Views = append(b.Views, view) })
}

func (r *memMessages[M]) AddReaction(_ context.Context, id models.ObjectID, reaction models.Reaction) (M, error) {
	return r.update(id,
		func(b *models.MessageBase) bool { return !b.HasReaction(reaction.ProfileID, reaction.ReactionID) },
		func(b *models.MessageBase) { b.Reactions = append(b.Reactions, reaction) })
}

func (r *memMessages[M]) RemoveReaction(_ context.Context, id models.ObjectID, profileID, reactionID string, at time.Time) (M, error) {
	return r.update(id,
		func(b *models.MessageBase) bool { return b.HasReaction(profileID, reactionID) },
		func(b *models.MessageBase) {
			b.Reactions = util.Filter(b.Reactions, func(x models.Reaction) bool {
				return x.ProfileID != profileID || x.ReactionID != reactionID
			})
			b.UpdatedAt = at
		})
}

func (r *memMessages[M]) AddClick(_ context.Context, id models.ObjectID, click models.Click) (M, error) {
	return r.update(id,
		func(b *models.MessageBase) bool { return !b.HasClick(click) },
		func(b *models.MessageBase) { b.Clicks = append(b.Clicks, click) })
}

func (r *memMessages[M]) MarkDeleted(_ context.Context, id models.ObjectID, profileID string, at time.Time) (M, error) {
	return r.update(id,
		func(b *models.MessageBase) bool { return b.FromProfileID == profileID && !b.IsViewed && !b.IsDeleted },
		func(b *models.MessageBase) {
			b.IsDeleted = true
			b.DeletedAt = util.Ptr(at)
			b.Content = nil
		})
}

func (r *memMessages[M]) SetManaged(_ context.Context, id models.ObjectID, at time.Time) (M, error) {
	return r.update(id,
		func(b *models.MessageBase) bool { return !b.IsManaged },
		func(b *models.MessageBase) {
			b.IsManaged = true
			b.ManagedAt = util.Ptr(at)
		})
}

func (r *memMessages[M]) Iterate(_ context.Context, _ bson.M, fn func(M) error, _ ...*options.FindOptions) error {
	rows := r.all()
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].GetBase().CreatedAt.Before(rows[j].GetBase().CreatedAt) })
	for _, m := range rows {
		if err := fn(m); err != nil {
			return err
		}
	}
	return nil
}

func (r *memMessages[M]) EnsureIndexes(context.Context) error { return nil }

type memDirect struct {
	*memMessages[*models.DirectMessage]
}

func newMemDirect() *memDirect {
	return &memDirect{memMessages: &memMessages[*models.DirectMessage]{}}
}

func (r *memDirect) SetPreviousManaged(_ context.Context, from, to string, before, at time.Time) ([]models.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []models.ObjectID
	for _, m := range r.rows {
		if m.FromProfileID != from || m.ToProfileID != to || m.IsManaged || m.CreatedAt.After(before) {
			continue
		}
		m.IsManaged = true
		m.ManagedAt = util.Ptr(at)
		m.ShowInDashboard = false
		ids = append(ids, m.ID)
	}
	return ids, nil
}

func (r *memDirect) HideInDashboard(_ context.Context, id models.ObjectID, profileID string, at time.Time) (*models.DirectMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.find(id)
	if !ok || m.ToProfileID != profileID {
		return nil, models.ErrNotFound
	}
	m.ShowInDashboard = false
	m.UpdatedAt = at
	return clone(m), nil
}

func (r *memDirect) between(a, b string, first bool) (*models.DirectMessage, error) {
	var found *models.DirectMessage
	for _, m := range r.all() {
		if !(m.FromProfileID == a && m.ToProfileID == b) && !(m.FromProfileID == b && m.ToProfileID == a) {
			continue
		}
		if found == nil || (first && m.CreatedAt.Before(found.CreatedAt)) || (!first && !m.CreatedAt.Before(found.CreatedAt)) {
			found = m
		}
	}
	if found == nil {
		return nil, models.ErrNotFound
	}
	return found, nil
}

func (r *memDirect) FirstBetween(_ context.Context, a, b string) (*models.DirectMessage, error) {
	return r.between(a, b, true)
}

func (r *memDirect) LastBetween(_ context.Context, a, b string) (*models.DirectMessage, error) {
	return r.between(a, b, false)
}

type memDocs struct {
	mu   sync.Mutex
	docs map[string]*models.MessageDocument
}

func newMemDocs() *memDocs {
	return &memDocs{docs: map[string]*models.MessageDocument{}}
}

func (r *memDocs) get(id string) *models.MessageDocument {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.docs[id]
}

func (r *memDocs) Upsert(_ context.Context, docs ...*models.MessageDocument) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range docs {
		r.docs[d.ID] = clone(d)
	}
	return nil
}

func (r *memDocs) FindByID(_ context.Context, id string) (*models.MessageDocument, error) {
	if d := r.get(id); d != nil {
		return d, nil
	}
	return nil, models.ErrNotFound
}

func (r *memDocs) Search(_ context.Context, q mongodb.SearchQuery) ([]*models.MessageDocument, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.MessageDocument
	for _, d := range r.docs {
		if d.Content == nil || !strings.Contains(d.Content.Text, q.Text) {
			continue
		}
		if q.ChatID != "" && d.ChatID != q.ChatID {
			continue
		}
		if d.FromProfileID != q.ProfileID && !util.SliceIncludes(d.ToProfileIDs, q.ProfileID) {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func (r *memDocs) count(chatID, profileID string, keep func(*models.MessageDocument) bool) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, d := range r.docs {
		if d.ChatID == chatID && d.FromProfileID != profileID && util.SliceIncludes(d.ToProfileIDs, profileID) && !d.IsDeleted && keep(d) {
			n++
		}
	}
	return n
}

func (r *memDocs) CountUnread(_ context.Context, chatID, profileID string) (int64, error) {
	return r.count(chatID, profileID, func(d *models.MessageDocument) bool { return !d.IsViewed }), nil
}

func (r *memDocs) CountUnmanaged(_ context.Context, chatID, profileID string) (int64, error) {
	return r.count(chatID, profileID, func(d *models.MessageDocument) bool { return !d.IsManaged }), nil
}

func (r *memDocs) EnsureIndexes(context.Context) error { return nil }

type memSummaries struct {
	mu        sync.Mutex
	summaries map[string]*models.ConversationSummary
	// conflicts makes the next ReplaceProfileSnapshot calls report moved summaries
	conflicts    int
	replaceCalls int
}

func newMemSummaries() *memSummaries {
	return &memSummaries{summaries: map[string]*models.ConversationSummary{}}
}

func (r *memSummaries) get(id string) *models.ConversationSummary {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.summaries[id]; ok {
		return clone(s)
	}
	return nil
}

func (r *memSummaries) FindByID(_ context.Context, chatID string) (*models.ConversationSummary, error) {
	if s := r.get(chatID); s != nil {
		return s, nil
	}
	return nil, models.ErrNotFound
}

func (r *memSummaries) FindByParticipants(_ context.Context, a, b string) (*models.ConversationSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.summaries {
		if s.Type == "relation" && s.HasSide(a) && s.HasSide(b) {
			return clone(s), nil
		}
	}
	return nil, models.ErrNotFound
}

func (r *memSummaries) FindByProfile(_ context.Context, profileID string) ([]*models.ConversationSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.ConversationSummary
	for _, s := range r.summaries {
		if s.HasSide(profileID) {
			out = append(out, clone(s))
		}
	}
	return out, nil
}

func (r *memSummaries) Rollup(_ context.Context, chatID string, doc *models.MessageDocument, defaults mongodb.RollupDefaults) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.summaries[chatID]
	if !ok {
		s = &models.ConversationSummary{ID: chatID, CreatedAt: doc.CreatedAt}
		r.summaries[chatID] = s
	}
	if s.Type == "" {
		s.Type = defaults.Type
	}
	if s.LeftProfile == nil && defaults.LeftProfile != nil {
		s.LeftProfile = defaults.LeftProfile
	}
	for _, id := range defaults.Participants {
		if !util.SliceIncludes(s.ParticipantIDs, id) {
			s.ParticipantIDs = append(s.ParticipantIDs, id)
		}
	}
	if defaults.ToProfileIDs != nil {
		s.ToProfileIDs = defaults.ToProfileIDs
	}
	if s.FirstMessage == nil {
		s.FirstMessage = clone(doc)
	}
	if s.LastMessage == nil || s.LastMessage.ID == doc.ID || !doc.CreatedAt.Before(s.LastMessage.CreatedAt) {
		s.LastMessage = clone(doc)
	}
	if doc.CreatedAt.After(s.UpdatedAt) {
		s.UpdatedAt = doc.CreatedAt
	}
	s.Version++
	return nil
}

func (r *memSummaries) Upsert(_ context.Context, in *models.ConversationSummary) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.summaries[in.ID]
	if !ok {
		s = &models.ConversationSummary{ID: in.ID, CreatedAt: in.CreatedAt}
		r.summaries[in.ID] = s
	}
	s.Type = in.Type
	s.UpdatedAt = in.UpdatedAt
	if in.LeftProfile != nil {
		s.LeftProfile = in.LeftProfile
	}
	if in.RightProfile != nil {
		s.RightProfile = in.RightProfile
	}
	if in.FirstMessage != nil {
		s.FirstMessage = in.FirstMessage
	}
	if in.LastMessage != nil {
		s.LastMessage = in.LastMessage
	}
	if in.OwnerID != "" {
		s.OwnerID, s.Name, s.ManagedBy = in.OwnerID, in.Name, in.ManagedBy
	}
	if in.Members != nil {
		s.Members = in.Members
	}
	if in.ParticipantIDs != nil {
		s.ParticipantIDs = in.ParticipantIDs
	}
	s.Version++
	return nil
}

func (r *memSummaries) ReplaceProfileSnapshot(_ context.Context, summaries []*models.ConversationSummary, snapshot *models.ProfileSnapshot) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replaceCalls++
	if r.conflicts > 0 {
		r.conflicts--
		return 1, nil
	}
	for _, in := range summaries {
		s, ok := r.summaries[in.ID]
		if !ok || s.Version != in.Version {
			continue
		}
		if s.LeftProfile != nil && s.LeftProfile.ID == snapshot.ID {
			s.LeftProfile = snapshot
		}
		if s.RightProfile != nil && s.RightProfile.ID == snapshot.ID {
			s.RightProfile = snapshot
		}
		s.Version++
	}
	return 0, nil
}

func (r *memSummaries) Delete(_ context.Context, chatID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.summaries, chatID)
	return nil
}

func (r *memSummaries) EnsureIndexes(context.Context) error { return nil }

type memConversations[E interface {
	comparable
	models.ConversationEntity
}] struct {
	mu     sync.Mutex
	prefix string
	rows   []E
}

func (r *memConversations[E]) find(match func(E) bool) (E, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.rows {
		if match(e) {
			return clone(e), nil
		}
	}
	var zero E
	return zero, models.ErrNotFound
}

func (r *memConversations[E]) Create(_ context.Context, e E) (E, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := e.Base()
	c.ID = models.NewObjectID()
	c.ChatID = r.prefix + c.ID.String()
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	r.rows = append(r.rows, clone(e))
	return e, nil
}

func (r *memConversations[E]) FindByID(_ context.Context, id string) (E, error) {
	return r.find(func(e E) bool { return e.GetObjectID().String() == id })
}

func (r *memConversations[E]) FindByChatID(_ context.Context, chatID string) (E, error) {
	return r.find(func(e E) bool { return e.Base().ChatID == chatID })
}

func (r *memConversations[E]) Update(_ context.Context, e E) (E, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, row := range r.rows {
		if row.GetObjectID() == e.GetObjectID() {
			e.Base().UpdatedAt = time.Now()
			r.rows[i] = clone(e)
			return clone(e), nil
		}
	}
	var zero E
	return zero, models.ErrNotFound
}

func (r *memConversations[E]) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = util.Filter(r.rows, func(e E) bool { return e.GetObjectID().String() != id })
	return nil
}

func (r *memConversations[E]) SetMemberStatus(_ context.Context, id models.ObjectID, profileID string, status models.MemberStatus, at time.Time) (E, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.rows {
		if e.GetObjectID() != id {
			continue
		}
		if m := e.Base().Member(profileID); m != nil {
			m.Status = status
			e.Base().UpdatedAt = at
			return clone(e), nil
		}
	}
	var zero E
	return zero, models.ErrNotFound
}

func (r *memConversations[E]) ListByParticipant(_ context.Context, profileID string, limit, skip int64) (*mongodb.PaginateWithTotal[E], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []E
	for _, e := range r.rows {
		if e.Base().IsParticipant(profileID) {
			all = append(all, clone(e))
		}
	}
	out := &mongodb.PaginateWithTotal[E]{Total: int64(len(all))}
	for i := skip; i < int64(len(all)) && (limit <= 0 || i < skip+limit); i++ {
		out.Data = append(out.Data, all[i])
	}
	return out, nil
}

func (r *memConversations[E]) Iterate(_ context.Context, _ bson.M, fn func(E) error, _ ...*options.FindOptions) error {
	r.mu.Lock()
	rows := make([]E, len(r.rows))
	for i, e := range r.rows {
		rows[i] = clone(e)
	}
	r.mu.Unlock()
	for _, e := range rows {
		if err := fn(e); err != nil {
			return err
		}
	}
	return nil
}

func (r *memConversations[E]) EnsureIndexes(context.Context) error { return nil }

type fakeIdentity struct {
	profiles  map[string]*models.Profile
	relations []*models.Relation
	assigned  map[string][]string
	// filtered answers GetProfilesFiltered; nil returns the listed profiles
	filtered func(filter map[string]any) []*models.Profile
}

func newFakeIdentity() *fakeIdentity {
	return &fakeIdentity{profiles: map[string]*models.Profile{}, assigned: map[string][]string{}}
}

func (f *fakeIdentity) addProfile(id string, status models.ProfileStatus, business bool) *models.Profile {
	p := &models.Profile{ID: id, Name: "name " + id, Status: status, IsBusiness: business}
	f.profiles[id] = p
	return p
}

func (f *fakeIdentity) relate(id, from, to string, status models.ProfileStatus) *models.Relation {
	rel := &models.Relation{ID: id, FromProfileID: from, ToProfileID: to, Status: status}
	f.relations = append(f.relations, rel)
	return rel
}

func (f *fakeIdentity) GetProfile(_ context.Context, id string) (*models.Profile, error) {
	return f.profiles[id], nil
}

func (f *fakeIdentity) GetProfiles(_ context.Context, ids []string) ([]*models.Profile, error) {
	var out []*models.Profile
	for _, id := range ids {
		if p, ok := f.profiles[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeIdentity) GetProfilesFiltered(ctx context.Context, filter map[string]any) ([]*models.Profile, error) {
	if f.filtered != nil {
		return f.filtered(filter), nil
	}
	var ids []string
	if list, ok := filter["profiles"].([]any); ok {
		for _, v := range list {
			if id, ok := v.(string); ok {
				ids = append(ids, id)
			}
		}
	}
	return f.GetProfiles(ctx, ids)
}

func (f *fakeIdentity) GetRelation(_ context.Context, id string) (*models.Relation, error) {
	for _, rel := range f.relations {
		if rel.ID == id {
			return rel, nil
		}
	}
	return nil, nil
}

func (f *fakeIdentity) GetRelations(_ context.Context, ownerID string, profileIDs []string) ([]*models.Relation, error) {
	var out []*models.Relation
	for _, rel := range f.relations {
		if (rel.FromProfileID == ownerID && util.SliceIncludes(profileIDs, rel.ToProfileID)) ||
			(rel.ToProfileID == ownerID && util.SliceIncludes(profileIDs, rel.FromProfileID)) {
			out = append(out, rel)
		}
	}
	return out, nil
}

func (f *fakeIdentity) GetAssignedProfiles(_ context.Context, managerID string) ([]string, error) {
	return f.assigned[managerID], nil
}

type fakeFiles struct {
	uploads int
}

func (f *fakeFiles) Upload(_ context.Context, _, filename string) (*models.StoredFile, error) {
	f.uploads++
	return &models.StoredFile{ID: "file-1", Filename: filename, MimeType: "image/png", Size: 3}, nil
}

type sentEvent struct {
	to    []string
	event socket.Event
}

type fakeSocket struct {
	mu     sync.Mutex
	sent   []sentEvent
	online map[string]bool
}

func (f *fakeSocket) Send(_ context.Context, to []string, event socket.Event) ([]models.DeliveryAck, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentEvent{to: to, event: event})
	acks := make([]models.DeliveryAck, len(to))
	for i, id := range to {
		acks[i] = models.DeliveryAck{ProfileID: id, Delivered: f.online[id]}
	}
	return acks, nil
}

func (f *fakeSocket) events() []sentEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentEvent(nil), f.sent...)
}

type fakeNotifier struct {
	mu       sync.Mutex
	messages []notification.NewMessage
	archives []notification.Archive
}

func (f *fakeNotifier) NewMessage(_ context.Context, n notification.NewMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, n)
	return nil
}

func (f *fakeNotifier) Archive(_ context.Context, n notification.Archive) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.archives = append(f.archives, n)
	return nil
}

func (f *fakeNotifier) Close() error { return nil }
