package job

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"grimoire-backend/internal/domains/book/repository"
)

// AssetLister enumerates and deletes stored cover assets
type AssetLister interface {
	ListKeys(ctx context.Context, prefix string) ([]string, error)
	Delete(ctx context.Context, key string) error
}

// AssetSweepHandler removes stored assets no book record references.
// Orphans appear when a delete or replace committed but the follow-up
// asset removal failed; the sweep restores the no-orphan state.
type AssetSweepHandler struct {
	repo    repository.RepositoryInterface
	storage AssetLister
	prefix  string
}

func NewAssetSweepHandler(repo repository.RepositoryInterface, storage AssetLister, prefix string) *AssetSweepHandler {
	return &AssetSweepHandler{repo: repo, storage: storage, prefix: prefix}
}

// ProcessTask implements asynq.Handler
func (h *AssetSweepHandler) ProcessTask(ctx context.Context, _ *asynq.Task) error {
	swept, err := h.Sweep(ctx)
	if err != nil {
		return err
	}
	log.Info().Int("swept", swept).Msg("orphaned asset sweep finished")
	return nil
}

// Sweep deletes every stored key not referenced by a book record.
// Returns the number of assets removed.
func (h *AssetSweepHandler) Sweep(ctx context.Context) (int, error) {
	// 1. List what the store holds first. An asset stored after this
	// point is not in the listing and cannot be swept this round, which
	// keeps the window for racing an in-flight create as small as the
	// gap between the two listings.
	stored, err := h.storage.ListKeys(ctx, h.prefix)
	if err != nil {
		return 0, fmt.Errorf("failed to list stored keys: %w", err)
	}

	// 2. Then the keys the records reference
	referenced, err := h.repo.ListImageKeys(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list referenced keys: %w", err)
	}
	inUse := make(map[string]struct{}, len(referenced))
	for _, key := range referenced {
		inUse[key] = struct{}{}
	}

	// 3. Delete the difference
	swept := 0
	for _, key := range stored {
		if _, ok := inUse[key]; ok {
			continue
		}
		if err := h.storage.Delete(ctx, key); err != nil {
			log.Error().Err(err).Str("key", key).Msg("failed to delete orphaned asset")
			continue
		}
		swept++
	}

	return swept, nil
}
