package service

import (
	"context"
	"time"

	"github.com/jose-valero/vouch-bot/internal/domain"
	"github.com/jose-valero/vouch-bot/internal/infra/storage"
)

// Lo implementan internal/infra/storage.VouchRepo (Postgres) y
// storage.LiteVouchRepo (SQLite).
type VouchRepo interface {
	Insert(ctx context.Context, v domain.Vouch) error
	InsertMany(ctx context.Context, vs []domain.Vouch) (int64, error)
	Totals(ctx context.Context, subjectID string) (count, points int64, err error)
	CountActive(ctx context.Context) (int64, error)
	LatestBySubject(ctx context.Context, subjectID string) (domain.Vouch, error)
	LatestByAuthorAndSubject(ctx context.Context, authorID, subjectID string) (domain.Vouch, error)
	ListBySubject(ctx context.Context, subjectID string, limit, offset int) ([]domain.Vouch, error)
	SoftDeleteBySubject(ctx context.Context, subjectID string) (int64, error)
	RestoreBySubject(ctx context.Context, subjectID string) (int64, error)
	TransferSubject(ctx context.Context, fromID, toID string) (int64, error)
	TopSubjects(ctx context.Context, limit int) ([]domain.Tally, error)
	TopAuthors(ctx context.Context, limit int) ([]domain.Tally, error)
	Search(ctx context.Context, q storage.SearchQuery) ([]domain.Vouch, int64, error)
}

// Lo implementa internal/infra/clock
type Clock interface {
	Now() time.Time
}
