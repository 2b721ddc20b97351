package audit

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Mihklz/casetrail/internal/logger"
	"github.com/Mihklz/casetrail/internal/model"
)

// TeeStore пишет в основное хранилище и параллельно в зеркала.
// Результат определяется только основным хранилищем, ошибки зеркал логируются.
type TeeStore struct {
	primary Store
	mirrors []Store
}

// Tee объединяет основное хранилище с зеркалами. Без зеркал возвращает primary как есть.
func Tee(primary Store, mirrors ...Store) Store {
	kept := make([]Store, 0, len(mirrors))
	for _, m := range mirrors {
		if m != nil {
			kept = append(kept, m)
		}
	}
	if len(kept) == 0 {
		return primary
	}
	return &TeeStore{primary: primary, mirrors: kept}
}

// AppendEntry записывает запись во все хранилища одновременно.
func (t *TeeStore) AppendEntry(ctx context.Context, entry Entry, cases model.CaseSet) error {
	var g errgroup.Group

	g.Go(func() error {
		return t.primary.AppendEntry(ctx, entry, cases)
	})

	for _, m := range t.mirrors {
		g.Go(func() error {
			if err := m.AppendEntry(ctx, entry, cases); err != nil {
				logger.Log.Warn("Audit mirror failed",
					zap.String("entry_id", entry.ID.String()),
					zap.Error(err),
				)
			}
			return nil
		})
	}

	return g.Wait()
}
