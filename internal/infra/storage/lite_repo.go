package storage

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jose-valero/vouch-bot/internal/domain"
)

// vouchRow es el mapeo gorm de la tabla vouches (mismo layout que la migración).
type vouchRow struct {
	Seq       int64     `gorm:"primaryKey;autoIncrement"`
	VouchID   string    `gorm:"column:vouch_id;uniqueIndex;not null"`
	SubjectID string    `gorm:"column:subject_id;not null;index:idx_vouches_subject_deleted,priority:1"`
	AuthorID  string    `gorm:"column:author_id;not null;index:idx_vouches_author_deleted,priority:1"`
	Points    int       `gorm:"not null;default:1"`
	Comment   string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"column:created_at;not null;index:idx_vouches_created_deleted,priority:1"`
	Deleted   bool      `gorm:"not null;default:false;index:idx_vouches_subject_deleted,priority:2;index:idx_vouches_author_deleted,priority:2;index:idx_vouches_created_deleted,priority:2"`
}

func (vouchRow) TableName() string { return "vouches" }

func toRow(v domain.Vouch) vouchRow {
	return vouchRow{
		VouchID:   v.ID,
		SubjectID: v.SubjectID,
		AuthorID:  v.AuthorID,
		Points:    v.Points,
		Comment:   v.Comment,
		CreatedAt: v.CreatedAt.UTC(),
		Deleted:   v.Deleted,
	}
}

func (r vouchRow) toDomain() domain.Vouch {
	return domain.Vouch{
		ID:        r.VouchID,
		SubjectID: r.SubjectID,
		AuthorID:  r.AuthorID,
		Points:    r.Points,
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt.UTC(),
		Deleted:   r.Deleted,
	}
}

// LiteVouchRepo: el mismo ledger sobre SQLite via gorm.
type LiteVouchRepo struct{ db *gorm.DB }

func NewLiteVouchRepo(db *gorm.DB) *LiteVouchRepo { return &LiteVouchRepo{db: db} }

func (r *LiteVouchRepo) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *LiteVouchRepo) active(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&vouchRow{}).Where("deleted = ?", false)
}

func (r *LiteVouchRepo) Insert(ctx context.Context, v domain.Vouch) error {
	if err := validate(v); err != nil {
		return err
	}
	row := toRow(v)
	err := r.db.WithContext(ctx).Create(&row).Error
	if isLiteUnique(err) {
		return errors.Mark(errors.Wrapf(err, "insert vouch %s", v.ID), ErrDuplicateID)
	}
	return errors.Wrap(err, "insert vouch")
}

func (r *LiteVouchRepo) InsertMany(ctx context.Context, vs []domain.Vouch) (int64, error) {
	if len(vs) == 0 {
		return 0, nil
	}
	if err := validate(vs...); err != nil {
		return 0, err
	}
	rows := make([]vouchRow, len(vs))
	for i, v := range vs {
		rows[i] = toRow(v)
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "vouch_id"}}, DoNothing: true}).
		CreateInBatches(&rows, 200)
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "bulk insert vouches")
	}
	return res.RowsAffected, nil
}

func (r *LiteVouchRepo) Totals(ctx context.Context, subjectID string) (int64, int64, error) {
	var out struct {
		N   int64
		Pts int64
	}
	err := r.active(ctx).
		Select("COUNT(*) AS n, COALESCE(SUM(points), 0) AS pts").
		Where("subject_id = ?", subjectID).
		Scan(&out).Error
	return out.N, out.Pts, errors.Wrap(err, "vouch totals")
}

func (r *LiteVouchRepo) CountActive(ctx context.Context) (int64, error) {
	var n int64
	err := r.active(ctx).Count(&n).Error
	return n, errors.Wrap(err, "count vouches")
}

func (r *LiteVouchRepo) LatestBySubject(ctx context.Context, subjectID string) (domain.Vouch, error) {
	return r.latest(r.active(ctx).Where("subject_id = ?", subjectID))
}

func (r *LiteVouchRepo) LatestByAuthorAndSubject(ctx context.Context, authorID, subjectID string) (domain.Vouch, error) {
	return r.latest(r.active(ctx).Where("author_id = ? AND subject_id = ?", authorID, subjectID))
}

func (r *LiteVouchRepo) latest(q *gorm.DB) (domain.Vouch, error) {
	var rows []vouchRow
	if err := q.Order("created_at DESC, seq DESC").Limit(1).Find(&rows).Error; err != nil {
		return domain.Vouch{}, errors.Wrap(err, "latest vouch")
	}
	if len(rows) == 0 {
		return domain.Vouch{}, ErrNotFound
	}
	return rows[0].toDomain(), nil
}

func (r *LiteVouchRepo) ListBySubject(ctx context.Context, subjectID string, limit, offset int) ([]domain.Vouch, error) {
	var rows []vouchRow
	err := r.active(ctx).
		Where("subject_id = ?", subjectID).
		Order("created_at DESC, seq DESC").
		Limit(limit).Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "list vouches")
	}
	return toDomainAll(rows), nil
}

func (r *LiteVouchRepo) SoftDeleteBySubject(ctx context.Context, subjectID string) (int64, error) {
	res := r.active(ctx).Where("subject_id = ?", subjectID).Update("deleted", true)
	return res.RowsAffected, errors.Wrap(res.Error, "soft delete vouches")
}

func (r *LiteVouchRepo) RestoreBySubject(ctx context.Context, subjectID string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&vouchRow{}).
		Where("subject_id = ? AND deleted = ?", subjectID, true).
		Update("deleted", false)
	return res.RowsAffected, errors.Wrap(res.Error, "restore vouches")
}

func (r *LiteVouchRepo) TransferSubject(ctx context.Context, fromID, toID string) (int64, error) {
	res := r.active(ctx).Where("subject_id = ?", fromID).Update("subject_id", toID)
	return res.RowsAffected, errors.Wrap(res.Error, "transfer vouches")
}

func (r *LiteVouchRepo) TopSubjects(ctx context.Context, limit int) ([]domain.Tally, error) {
	return r.tally(ctx, "subject_id", limit)
}

func (r *LiteVouchRepo) TopAuthors(ctx context.Context, limit int) ([]domain.Tally, error) {
	return r.tally(ctx, "author_id", limit)
}

func (r *LiteVouchRepo) tally(ctx context.Context, col string, limit int) ([]domain.Tally, error) {
	var out []domain.Tally
	err := r.active(ctx).
		Select(col + " AS user_id, COUNT(*) AS count").
		Group(col).
		Order("count DESC, " + col + " ASC").
		Limit(limit).
		Scan(&out).Error
	return out, errors.Wrap(err, "tally vouches")
}

func (r *LiteVouchRepo) Search(ctx context.Context, q SearchQuery) ([]domain.Vouch, int64, error) {
	base := func() *gorm.DB {
		tx := r.active(ctx).Where(`LOWER(comment) LIKE ? ESCAPE '\'`, strings.ToLower(likePattern(q.Keyword)))
		if q.SubjectID != "" {
			tx = tx.Where("subject_id = ?", q.SubjectID)
		}
		return tx
	}
	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count search")
	}
	if total == 0 {
		return nil, 0, nil
	}
	var rows []vouchRow
	err := base().Order("created_at DESC, seq DESC").Limit(q.Limit).Offset(q.Offset).Find(&rows).Error
	if err != nil {
		return nil, 0, errors.Wrap(err, "search vouches")
	}
	return toDomainAll(rows), total, nil
}

func toDomainAll(rows []vouchRow) []domain.Vouch {
	out := make([]domain.Vouch, len(rows))
	for i, r := range rows {
		out[i] = r.toDomain()
	}
	return out
}

func isLiteUnique(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
