package usecase

import (
	"testing"
	"time"

	"github.com/nguyentranbao-ct/chat-engine/internal/models"
	"github.com/stretchr/testify/require"
)

type harness struct {
	direct     *memDirect
	groupMsgs  *memMessages[*models.GroupMessage]
	bcastMsgs  *memMessages[*models.BroadcastMessage]
	groups     *memConversations[*models.Group]
	broadcasts *memConversations[*models.Broadcast]
	docs       *memDocs
	summaries  *memSummaries
	identity   *fakeIdentity
	files      *fakeFiles
	socket     *fakeSocket
	notifier   *fakeNotifier

	messages  *messageUsecase
	groupUC   *groupUsecase
	broadcast *broadcastUsecase
	reconcile *reconcileUsecase
	reindex   *reindexUsecase
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	conf := testConfig()
	h := &harness{
		direct:     newMemDirect(),
		groupMsgs:  &memMessages[*models.GroupMessage]{},
		bcastMsgs:  &memMessages[*models.BroadcastMessage]{},
		groups:     &memConversations[*models.Group]{prefix: models.PrefixGroup},
		broadcasts: &memConversations[*models.Broadcast]{prefix: models.PrefixBroadcast},
		docs:       newMemDocs(),
		summaries:  newMemSummaries(),
		identity:   newFakeIdentity(),
		files:      &fakeFiles{},
		socket:     &fakeSocket{online: map[string]bool{}},
		notifier:   &fakeNotifier{},
	}
	index, err := NewIndexSynchronizer(conf, h.docs, h.summaries)
	require.NoError(t, err)
	resolver := NewRecipientResolver(h.identity, h.summaries)
	fanout := NewFanoutDispatcher(h.socket, h.direct, index)

	h.messages = NewMessageUsecase(conf, syncBackground, h.direct, h.bcastMsgs, h.docs, resolver,
		h.identity, h.files, h.notifier, index, fanout).(*messageUsecase)
	h.groupUC = NewGroupUsecase(conf, syncBackground, h.groups, h.groupMsgs, h.summaries,
		h.identity, h.files, resolver, index, fanout).(*groupUsecase)
	h.broadcast = NewBroadcastUsecase(conf, syncBackground, h.broadcasts, h.bcastMsgs, h.summaries,
		h.identity, h.files, resolver, index, fanout, h.messages).(*broadcastUsecase)
	h.reconcile = NewReconcileUsecase(conf, h.identity, h.summaries, h.direct).(*reconcileUsecase)
	h.reindex = NewReindexUsecase(h.direct, h.groupMsgs, h.bcastMsgs, h.groups, h.broadcasts,
		h.docs, h.summaries, index).(*reindexUsecase)
	return h
}

// pair registers two active profiles related by relID and returns the chat id.
func (h *harness) pair(relID, a, b string) string {
	if _, ok := h.identity.profiles[a]; !ok {
		h.identity.addProfile(a, models.ProfileActive, false)
	}
	if _, ok := h.identity.profiles[b]; !ok {
		h.identity.addProfile(b, models.ProfileActive, false)
	}
	return h.identity.relate(relID, a, b, models.ProfileActive).ChatID()
}

var baseTime = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func textContent(text string) *models.Content {
	return &models.Content{Type: models.ContentText, Text: text}
}

func directMessage(chatID, from, to string, at time.Time, text string) *models.DirectMessage {
	return &models.DirectMessage{
		MessageBase: models.MessageBase{
			ID:              models.NewObjectID(),
			ChatID:          chatID,
			Channel:         models.ChannelChat,
			FromProfileID:   from,
			Content:         textContent(text),
			ShowInDashboard: true,
			Views:           []models.View{},
			Clicks:          []models.Click{},
			Reactions:       []models.Reaction{},
			CreatedAt:       at,
			UpdatedAt:       at,
		},
		ToProfileID: to,
	}
}

func actor(id string) models.Actor {
	return models.Actor{ProfileID: id}
}
