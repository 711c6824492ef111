package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/nguyentranbao-ct/chat-engine/internal/config"
	"github.com/nguyentranbao-ct/chat-engine/internal/models"
	"github.com/nguyentranbao-ct/chat-engine/internal/repo/mongodb"
	log "github.com/nguyentranbao-ct/chat-engine/pkg/logger/logctx"
	"github.com/nguyentranbao-ct/chat-engine/pkg/util"
	"github.com/prometheus/client_golang/prometheus"
)

var systemSnapshot = &models.ProfileSnapshot{ID: models.SystemProfileID, Name: "System"}

// IndexSynchronizer projects canonical messages into the search index.
type IndexSynchronizer interface {
	// Sync upserts the message document of m and rolls it up into its
	// conversation summary. Rollup conflicts are logged and dropped.
	Sync(ctx context.Context, m models.Message) error
	// SyncDocuments upserts message documents only.
	SyncDocuments(ctx context.Context, msgs ...models.Message) error
}

type indexSynchronizer struct {
	docs       mongodb.MessageDocumentRepository
	summaries  mongodb.SummaryRepository
	previewLen int
	metrics    *prometheus.HistogramVec
}

func NewIndexSynchronizer(
	conf *config.Config,
	docs mongodb.MessageDocumentRepository,
	summaries mongodb.SummaryRepository,
) (IndexSynchronizer, error) {
	metrics, err := util.GetHistogramVec("index_writes", "op", "status")
	if err != nil {
		return nil, err
	}
	return &indexSynchronizer{
		docs:       docs,
		summaries:  summaries,
		previewLen: conf.Message.TruncateLength,
		metrics:    metrics,
	}, nil
}

func (s *indexSynchronizer) observe(op string, start time.Time, err error) {
	status := "ok"
	switch {
	case errors.Is(err, models.ErrVersionConflict):
		status = "conflict"
	case err != nil:
		status = "error"
	}
	s.metrics.WithLabelValues(op, status).Observe(time.Since(start).Seconds())
}

func (s *indexSynchronizer) SyncDocuments(ctx context.Context, msgs ...models.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	docs := make([]*models.MessageDocument, len(msgs))
	for i, m := range msgs {
		docs[i] = models.NewMessageDocument(m, s.previewLen)
	}
	start := time.Now()
	err := s.docs.Upsert(ctx, docs...)
	s.observe("document", start, err)
	return err
}

func (s *indexSynchronizer) Sync(ctx context.Context, m models.Message) error {
	doc := models.NewMessageDocument(m, s.previewLen)
	start := time.Now()
	err := s.docs.Upsert(ctx, doc)
	s.observe("document", start, err)
	if err != nil {
		return err
	}

	b := m.GetBase()
	defaults := mongodb.RollupDefaults{
		Type:         models.SummaryType(b.ChatID),
		Participants: models.Participants(m),
	}
	switch m.Variant() {
	case models.VariantGroup, models.VariantBroadcast:
		defaults.ToProfileIDs = m.Recipients()
	}
	if b.Channel == models.ChannelSystem {
		defaults.LeftProfile = systemSnapshot
	}

	start = time.Now()
	err = s.summaries.Rollup(ctx, b.ChatID, doc, defaults)
	s.observe("rollup", start, err)
	if errors.Is(err, models.ErrVersionConflict) {
		log.Warnw(ctx, "conversation rollup conflicted, proceeding", "chat_id", b.ChatID, "message_id", b.ID)
		return nil
	}
	return err
}
