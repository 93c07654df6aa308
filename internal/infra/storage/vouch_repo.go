package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5/pgconn"
	pq "github.com/lib/pq"

	"github.com/jose-valero/vouch-bot/internal/domain"
)

// VouchRepo: ledger sobre Postgres (pgx stdlib).
type VouchRepo struct{ db *sql.DB }

func NewVouchRepo(db *sql.DB) *VouchRepo { return &VouchRepo{db: db} }

const vouchCols = `vouch_id, subject_id, author_id, points, comment, created_at, deleted`

func (r *VouchRepo) Ping(ctx context.Context) error { return r.db.PingContext(ctx) }

func (r *VouchRepo) Insert(ctx context.Context, v domain.Vouch) error {
	if err := validate(v); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO vouches (vouch_id, subject_id, author_id, points, comment, created_at, deleted)
VALUES ($1,$2,$3,$4,$5,$6,FALSE)
`, v.ID, v.SubjectID, v.AuthorID, v.Points, v.Comment, v.CreatedAt)
	if isUniqueViolation(err) {
		return errors.Mark(errors.Wrapf(err, "insert vouch %s", v.ID), ErrDuplicateID)
	}
	return errors.Wrap(err, "insert vouch")
}

// InsertMany inserta en un solo statement; los ids repetidos se saltan.
// Devuelve cuántas filas entraron realmente.
func (r *VouchRepo) InsertMany(ctx context.Context, vs []domain.Vouch) (int64, error) {
	if len(vs) == 0 {
		return 0, nil
	}
	if err := validate(vs...); err != nil {
		return 0, err
	}
	ids := make([]string, len(vs))
	subjects := make([]string, len(vs))
	authors := make([]string, len(vs))
	points := make([]int64, len(vs))
	comments := make([]string, len(vs))
	created := make([]string, len(vs))
	for i, v := range vs {
		ids[i], subjects[i], authors[i] = v.ID, v.SubjectID, v.AuthorID
		points[i], comments[i] = int64(v.Points), v.Comment
		created[i] = v.CreatedAt.UTC().Format(time.RFC3339Nano)
	}
	res, err := r.db.ExecContext(ctx, `
INSERT INTO vouches (vouch_id, subject_id, author_id, points, comment, created_at, deleted)
SELECT u.id, u.subject, u.author, u.points, u.comment, u.created::timestamptz, FALSE
  FROM unnest($1::text[], $2::text[], $3::text[], $4::int[], $5::text[], $6::text[])
       AS u(id, subject, author, points, comment, created)
ON CONFLICT (vouch_id) DO NOTHING
`, pq.Array(ids), pq.Array(subjects), pq.Array(authors), pq.Array(points), pq.Array(comments), pq.Array(created))
	if err != nil {
		return 0, errors.Wrap(err, "bulk insert vouches")
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (r *VouchRepo) Totals(ctx context.Context, subjectID string) (count, points int64, err error) {
	err = r.db.QueryRowContext(ctx, `
SELECT COUNT(*), COALESCE(SUM(points), 0)
  FROM vouches
 WHERE subject_id = $1 AND deleted = FALSE
`, subjectID).Scan(&count, &points)
	return count, points, errors.Wrap(err, "vouch totals")
}

func (r *VouchRepo) CountActive(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM vouches WHERE deleted = FALSE`).Scan(&n)
	return n, errors.Wrap(err, "count vouches")
}

func (r *VouchRepo) LatestBySubject(ctx context.Context, subjectID string) (domain.Vouch, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+vouchCols+`
  FROM vouches
 WHERE subject_id = $1 AND deleted = FALSE
 ORDER BY created_at DESC, seq DESC
 LIMIT 1
`, subjectID)
	return scanOne(row)
}

func (r *VouchRepo) LatestByAuthorAndSubject(ctx context.Context, authorID, subjectID string) (domain.Vouch, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+vouchCols+`
  FROM vouches
 WHERE author_id = $1 AND subject_id = $2 AND deleted = FALSE
 ORDER BY created_at DESC, seq DESC
 LIMIT 1
`, authorID, subjectID)
	return scanOne(row)
}

func (r *VouchRepo) ListBySubject(ctx context.Context, subjectID string, limit, offset int) ([]domain.Vouch, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+vouchCols+`
  FROM vouches
 WHERE subject_id = $1 AND deleted = FALSE
 ORDER BY created_at DESC, seq DESC
 LIMIT $2 OFFSET $3
`, subjectID, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "list vouches")
	}
	return scanAll(rows)
}

func (r *VouchRepo) SoftDeleteBySubject(ctx context.Context, subjectID string) (int64, error) {
	return r.execCount(ctx, "soft delete vouches", `
UPDATE vouches
   SET deleted = TRUE
 WHERE subject_id = $1
   AND deleted = FALSE
`, subjectID)
}

func (r *VouchRepo) RestoreBySubject(ctx context.Context, subjectID string) (int64, error) {
	return r.execCount(ctx, "restore vouches", `
UPDATE vouches
   SET deleted = FALSE
 WHERE subject_id = $1
   AND deleted = TRUE
`, subjectID)
}

func (r *VouchRepo) TransferSubject(ctx context.Context, fromID, toID string) (int64, error) {
	return r.execCount(ctx, "transfer vouches", `
UPDATE vouches
   SET subject_id = $2
 WHERE subject_id = $1
   AND deleted = FALSE
`, fromID, toID)
}

func (r *VouchRepo) TopSubjects(ctx context.Context, limit int) ([]domain.Tally, error) {
	return r.tally(ctx, "subject_id", limit)
}

func (r *VouchRepo) TopAuthors(ctx context.Context, limit int) ([]domain.Tally, error) {
	return r.tally(ctx, "author_id", limit)
}

// col viene siempre de una constante interna, nunca del usuario.
func (r *VouchRepo) tally(ctx context.Context, col string, limit int) ([]domain.Tally, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+col+`, COUNT(*) AS n
  FROM vouches
 WHERE deleted = FALSE
 GROUP BY `+col+`
 ORDER BY n DESC, `+col+` ASC
 LIMIT $1
`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "tally vouches")
	}
	defer rows.Close()
	var out []domain.Tally
	for rows.Next() {
		var t domain.Tally
		if err := rows.Scan(&t.UserID, &t.Count); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *VouchRepo) Search(ctx context.Context, q SearchQuery) ([]domain.Vouch, int64, error) {
	pattern := likePattern(q.Keyword)
	var total int64
	err := r.db.QueryRowContext(ctx, `
SELECT COUNT(*)
  FROM vouches
 WHERE deleted = FALSE
   AND comment ILIKE $1 ESCAPE '\'
   AND ($2 = '' OR subject_id = $2)
`, pattern, q.SubjectID).Scan(&total)
	if err != nil {
		return nil, 0, errors.Wrap(err, "count search")
	}
	if total == 0 {
		return nil, 0, nil
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT `+vouchCols+`
  FROM vouches
 WHERE deleted = FALSE
   AND comment ILIKE $1 ESCAPE '\'
   AND ($2 = '' OR subject_id = $2)
 ORDER BY created_at DESC, seq DESC
 LIMIT $3 OFFSET $4
`, pattern, q.SubjectID, q.Limit, q.Offset)
	if err != nil {
		return nil, 0, errors.Wrap(err, "search vouches")
	}
	vs, err := scanAll(rows)
	return vs, total, err
}

func (r *VouchRepo) execCount(ctx context.Context, op, query string, args ...any) (int64, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, errors.Wrap(err, op)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanVouch(s scanner) (domain.Vouch, error) {
	var v domain.Vouch
	err := s.Scan(&v.ID, &v.SubjectID, &v.AuthorID, &v.Points, &v.Comment, &v.CreatedAt, &v.Deleted)
	v.CreatedAt = v.CreatedAt.UTC()
	return v, err
}

func scanOne(row *sql.Row) (domain.Vouch, error) {
	v, err := scanVouch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Vouch{}, ErrNotFound
	}
	if err != nil {
		return domain.Vouch{}, errors.Wrap(err, "scan vouch")
	}
	return v, nil
}

func scanAll(rows *sql.Rows) ([]domain.Vouch, error) {
	defer rows.Close()
	var out []domain.Vouch
	for rows.Next() {
		v, err := scanVouch(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan vouch")
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
