package mongodb

import (
	"context"
	"testing"

	"github.com/nguyentranbao-ct/chat-engine/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func rollupSet(mt *mtest.T) bson.Raw {
	mt.Helper()
	upd := firstStatement(startedCommand(mt, "update"), "updates")
	require.True(mt, upd.Lookup("upsert").Boolean())
	require.Equal(mt, bson.TypeArray, upd.Lookup("u").Type)
	return upd.Lookup("u").Array().Index(0).Value().Document().Lookup("$set").Document()
}

func TestRollup(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()
	doc := &models.MessageDocument{
		ID:        models.PrefixMessage + "m1",
		MessageID: models.NewObjectID(),
		ChatID:    "R-ab",
		CreatedAt: testTime,
		UpdatedAt: testTime,
	}

	mt.Run("guards the last message and merges participants", func(mt *mtest.T) {
		repo := NewSummaryRepository(mockDB(mt))
		mt.AddMockResponses(upsertedResponse())

		err := repo.Rollup(ctx, "R-ab", doc, RollupDefaults{
			Type:         "relation",
			LeftProfile:  &models.ProfileSnapshot{ID: "A"},
			Participants: []string{"A", "B"},
		})
		require.NoError(mt, err)

		set := rollupSet(mt)
		for _, path := range [][]string{
			{"last_message", "$cond"},
			{"first_message", "$ifNull"},
			{"participant_ids", "$setUnion"},
			{"updated_at", "$max"},
			{"left_profile", "$ifNull"},
			{"type", "$ifNull"},
		} {
			_, err := set.LookupErr(path...)
			assert.NoError(mt, err, "%v", path)
		}
		_, err = set.LookupErr("to_profile_ids")
		assert.Error(mt, err, "direct summaries keep no address list")
	})

	mt.Run("group address list is replaced", func(mt *mtest.T) {
		repo := NewSummaryRepository(mockDB(mt))
		mt.AddMockResponses(upsertedResponse())

		err := repo.Rollup(ctx, "G-1", doc, RollupDefaults{Type: "group", ToProfileIDs: []string{"A", "B"}})
		require.NoError(mt, err)

		set := rollupSet(mt)
		ids, err := set.Lookup("to_profile_ids", "$literal").Array().Values()
		require.NoError(mt, err)
		assert.Len(mt, ids, 2)
		_, err = set.LookupErr("left_profile")
		assert.Error(mt, err)
	})

	mt.Run("concurrent first write is a version conflict", func(mt *mtest.T) {
		repo := NewSummaryRepository(mockDB(mt))
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "E11000 duplicate key error"}))

		err := repo.Rollup(ctx, "R-ab", doc, RollupDefaults{Type: "relation"})
		assert.ErrorIs(mt, err, models.ErrVersionConflict)
	})
}

func TestReplaceProfileSnapshot(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()
	snapshot := &models.ProfileSnapshot{ID: "P", Name: "renamed"}

	mt.Run("moved summaries are counted as conflicts", func(mt *mtest.T) {
		repo := NewSummaryRepository(mockDB(mt))
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))

		conflicts, err := repo.ReplaceProfileSnapshot(ctx, []*models.ConversationSummary{
			{ID: "R-1", LeftProfile: &models.ProfileSnapshot{ID: "P"}, Version: 3},
			{ID: "R-2", RightProfile: &models.ProfileSnapshot{ID: "P"}, Version: 7},
			{ID: "R-3", LeftProfile: &models.ProfileSnapshot{ID: "Q"}},
		}, snapshot)
		require.NoError(mt, err)
		assert.Equal(mt, 1, conflicts)

		cmd := startedCommand(mt, "update")
		updates, err := cmd.Lookup("updates").Array().Values()
		require.NoError(mt, err)
		require.Len(mt, updates, 2)
		first := updates[0].Document()
		assert.Equal(mt, "R-1", first.Lookup("q", "_id").StringValue())
		assert.Equal(mt, int64(3), first.Lookup("q", "version").Int64())
		assert.Equal(mt, "renamed", first.Lookup("u", "$set", "left_profile", "name").StringValue())
		second := updates[1].Document()
		assert.Equal(mt, "renamed", second.Lookup("u", "$set", "right_profile", "name").StringValue())
	})

	mt.Run("unrelated summaries send nothing", func(mt *mtest.T) {
		repo := NewSummaryRepository(mockDB(mt))
		conflicts, err := repo.ReplaceProfileSnapshot(ctx, []*models.ConversationSummary{
			{ID: "R-3", LeftProfile: &models.ProfileSnapshot{ID: "Q"}},
		}, snapshot)
		require.NoError(mt, err)
		assert.Zero(mt, conflicts)
		assert.Nil(mt, mt.GetStartedEvent())
	})
}
