package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/nguyentranbao-ct/chat-engine/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReindex(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	chatID := h.pair("rel-ab", "A", "B")
	older := directMessage(chatID, "A", "B", baseTime, "one")
	newer := directMessage(chatID, "B", "A", baseTime.Add(time.Hour), "two")
	// stored out of order
	h.direct.seed(newer, older)

	g, err := h.groups.Create(ctx, &models.Group{Conversation: models.Conversation{
		OwnerID: "A",
		Name:    "team",
		Members: []models.Member{{ProfileID: "A", Status: models.MemberActive}, {ProfileID: "B", Status: models.MemberActive}},
	}})
	require.NoError(t, err)
	h.groupMsgs.seed(&models.GroupMessage{
		MessageBase: models.MessageBase{
			ChatID:        g.ChatID,
			Channel:       models.ChannelGroup,
			FromProfileID: "A",
			Content:       textContent("hi team"),
			CreatedAt:     baseTime,
			UpdatedAt:     baseTime,
		},
		GroupID:      g.ID,
		ToProfileIDs: []string{"B", "A"},
	})

	require.NoError(t, h.reindex.EnsureIndexes(ctx))
	stats, err := h.reindex.Reindex(ctx)
	require.NoError(t, err)
	assert.Equal(t, &ReindexStats{Messages: 3, Conversations: 1}, stats)

	assert.NotNil(t, h.docs.get(older.IndexID()))
	assert.NotNil(t, h.docs.get(newer.IndexID()))

	direct := h.summaries.get(chatID)
	require.NotNil(t, direct)
	assert.Equal(t, older.ID, direct.FirstMessage.MessageID)
	assert.Equal(t, newer.ID, direct.LastMessage.MessageID)

	group := h.summaries.get(g.ChatID)
	require.NotNil(t, group)
	assert.Equal(t, "team", group.Name)
	assert.ElementsMatch(t, []string{"B", "A"}, group.ToProfileIDs)
	require.NotNil(t, group.LastMessage)
	assert.Equal(t, "hi team", group.LastMessage.Content.Text)
}
