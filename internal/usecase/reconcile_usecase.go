package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nguyentranbao-ct/chat-engine/internal/config"
	"github.com/nguyentranbao-ct/chat-engine/internal/models"
	"github.com/nguyentranbao-ct/chat-engine/internal/repo/identity"
	"github.com/nguyentranbao-ct/chat-engine/internal/repo/mongodb"
	log "github.com/nguyentranbao-ct/chat-engine/pkg/logger/logctx"
)

// ReconcileUsecase keeps conversation summaries consistent with identity
// changes. Unlike rollups, it retries version conflicts until it succeeds or
// ctx ends.
type ReconcileUsecase interface {
	ReconcileProfile(ctx context.Context, profileID string) error
	ReconcileRelation(ctx context.Context, relationID string) error
}

type reconcileUsecase struct {
	identity   identity.Client
	summaries  mongodb.SummaryRepository
	direct     mongodb.DirectMessageRepository
	backoff    time.Duration
	previewLen int
}

func NewReconcileUsecase(
	conf *config.Config,
	identityClient identity.Client,
	summaries mongodb.SummaryRepository,
	direct mongodb.DirectMessageRepository,
) ReconcileUsecase {
	return &reconcileUsecase{
		identity:   identityClient,
		summaries:  summaries,
		direct:     direct,
		backoff:    conf.Index.ReconcileBackoff,
		previewLen: conf.Message.TruncateLength,
	}
}

// retry runs attempt until it reports no conflict, sleeping backoff in between.
func (uc *reconcileUsecase) retry(ctx context.Context, op string, attempt func() (conflict bool, err error)) error {
	for n := 1; ; n++ {
		conflict, err := attempt()
		if err != nil {
			return err
		}
		if !conflict {
			return nil
		}
		log.Infow(ctx, "reconcile conflict, retrying", "op", op, "attempt", n)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(uc.backoff):
		}
	}
}

func (uc *reconcileUsecase) ReconcileProfile(ctx context.Context, profileID string) error {
	profile, err := uc.identity.GetProfile(ctx, profileID)
	if err != nil {
		return fmt.Errorf("get profile: %w", err)
	}
	if profile == nil {
		log.Warnw(ctx, "profile not found, skip reconcile", "profile_id", profileID)
		return nil
	}
	snapshot := profile.Snapshot()
	return uc.retry(ctx, "profile", func() (bool, error) {
		summaries, err := uc.summaries.FindByProfile(ctx, profileID)
		if err != nil {
			return false, err
		}
		conflicts, err := uc.summaries.ReplaceProfileSnapshot(ctx, summaries, snapshot)
		if err != nil {
			return false, err
		}
		return conflicts > 0, nil
	})
}

func (uc *reconcileUsecase) ReconcileRelation(ctx context.Context, relationID string) error {
	rel, err := uc.identity.GetRelation(ctx, relationID)
	if err != nil {
		return fmt.Errorf("get relation: %w", err)
	}
	if rel == nil || rel.IsSelf() {
		return nil
	}
	profiles, err := uc.identity.GetProfiles(ctx, []string{rel.FromProfileID, rel.ToProfileID})
	if err != nil {
		return fmt.Errorf("get profiles: %w", err)
	}
	byID := make(map[string]*models.Profile, len(profiles))
	for _, p := range profiles {
		byID[p.ID] = p
	}
	first, err := uc.pairDocument(ctx, uc.direct.FirstBetween, rel)
	if err != nil {
		return err
	}
	last, err := uc.pairDocument(ctx, uc.direct.LastBetween, rel)
	if err != nil {
		return err
	}
	summary := relationSummary(rel, byID, first, last)
	return uc.retry(ctx, "relation", func() (bool, error) {
		err := uc.summaries.Upsert(ctx, summary)
		if errors.Is(err, models.ErrVersionConflict) {
			return true, nil
		}
		return false, err
	})
}

func (uc *reconcileUsecase) pairDocument(
	ctx context.Context,
	find func(ctx context.Context, a, b string) (*models.DirectMessage, error),
	rel *models.Relation,
) (*models.MessageDocument, error) {
	m, err := find(ctx, rel.FromProfileID, rel.ToProfileID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find pair message: %w", err)
	}
	return models.NewMessageDocument(m, uc.previewLen), nil
}
