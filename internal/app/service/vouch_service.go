package service

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/jose-valero/vouch-bot/internal/domain"
	"github.com/jose-valero/vouch-bot/internal/infra/metrics"
	"github.com/jose-valero/vouch-bot/internal/infra/storage"
	"github.com/jose-valero/vouch-bot/internal/pagination"
)

const (
	DefaultVouchCooldown = 24 * time.Hour

	HistoryPerPage     = 5
	SearchPerPage      = 5
	LeaderboardPerPage = 10
	LeaderboardSize    = 50

	MaxBulkCount = 1000
)

type VouchService struct {
	repo     VouchRepo
	clock    Clock
	cooldown time.Duration
}

func NewVouchService(repo VouchRepo, clock Clock, vouchCooldown time.Duration) *VouchService {
	if vouchCooldown < 0 {
		vouchCooldown = 0
	}
	return &VouchService{repo: repo, clock: clock, cooldown: vouchCooldown}
}

type GrantInput struct {
	AuthorID   string
	SubjectID  string
	Comment    string
	HasProof   bool
	Privileged bool // owners no tienen cooldown por target
}

type GrantResult struct {
	Vouch domain.Vouch
	Total int64
}

// Grant: orden de chequeos self -> proof -> cooldown -> insert.
// El check-then-insert no es atómico; dos grants simultáneos pueden pasar ambos.
func (s *VouchService) Grant(ctx context.Context, in GrantInput) (GrantResult, error) {
	if in.SubjectID == in.AuthorID {
		return GrantResult{}, ErrSelfVouch
	}
	if !in.HasProof {
		return GrantResult{}, ErrProofRequired
	}
	now := s.clock.Now().UTC()

	if !in.Privileged && s.cooldown > 0 {
		last, err := s.repo.LatestByAuthorAndSubject(ctx, in.AuthorID, in.SubjectID)
		switch {
		case err == nil:
			if elapsed := now.Sub(last.CreatedAt); elapsed < s.cooldown {
				return GrantResult{}, &CooldownError{Remaining: s.cooldown - elapsed}
			}
		case errors.Is(err, storage.ErrNotFound):
		default:
			return GrantResult{}, persistence(err, "vouch cooldown lookup")
		}
	}

	v := domain.Vouch{
		ID:        domain.NewVouchID(),
		SubjectID: in.SubjectID,
		AuthorID:  in.AuthorID,
		Points:    1,
		Comment:   domain.NormalizeComment(in.Comment),
		CreatedAt: now,
	}
	if err := s.repo.Insert(ctx, v); err != nil {
		return GrantResult{}, persistence(err, "grant vouch")
	}
	metrics.LedgerRows.WithLabelValues("grant").Inc()

	total, _, err := s.repo.Totals(ctx, in.SubjectID)
	if err != nil {
		return GrantResult{}, persistence(err, "grant totals")
	}
	return GrantResult{Vouch: v, Total: total}, nil
}

type BulkInput struct {
	AuthorID  string
	SubjectID string
	Count     int
	Message   string
}

type BulkResult struct {
	Requested int
	Inserted  int64
	Total     int64
	Comment   string
	At        time.Time
}

// GrantBulk crea Count registros con el mismo comentario y timestamp.
// Es best-effort: un id repetido se salta y se reporta lo que entró.
func (s *VouchService) GrantBulk(ctx context.Context, in BulkInput) (BulkResult, error) {
	if in.Count < 1 || in.Count > MaxBulkCount {
		return BulkResult{}, ErrInvalidCount
	}
	msg := strings.TrimSpace(in.Message)
	if msg == "" {
		return BulkResult{}, ErrEmptyMessage
	}
	msg = domain.Truncate(msg, domain.MaxCommentLen)
	now := s.clock.Now().UTC()

	vs := make([]domain.Vouch, in.Count)
	for i := range vs {
		vs[i] = domain.Vouch{
			ID:        domain.NewVouchID(),
			SubjectID: in.SubjectID,
			AuthorID:  in.AuthorID,
			Points:    1,
			Comment:   msg,
			CreatedAt: now,
		}
	}
	n, err := s.repo.InsertMany(ctx, vs)
	if err != nil {
		return BulkResult{}, persistence(err, "bulk grant")
	}
	metrics.LedgerRows.WithLabelValues("bulk").Add(float64(n))

	total, _, err := s.repo.Totals(ctx, in.SubjectID)
	if err != nil {
		return BulkResult{}, persistence(err, "bulk totals")
	}
	return BulkResult{Requested: in.Count, Inserted: n, Total: total, Comment: msg, At: now}, nil
}

type Summary struct {
	Count  int64
	Points int64
	Latest *domain.Vouch // nil si no tiene vouches
}

func (s *VouchService) Summary(ctx context.Context, subjectID string) (Summary, error) {
	count, points, err := s.repo.Totals(ctx, subjectID)
	if err != nil {
		return Summary{}, persistence(err, "summary totals")
	}
	out := Summary{Count: count, Points: points}
	if count == 0 {
		return out, nil
	}
	latest, err := s.repo.LatestBySubject(ctx, subjectID)
	if errors.Is(err, storage.ErrNotFound) {
		// borrado entre las dos queries
		return Summary{}, nil
	}
	if err != nil {
		return Summary{}, persistence(err, "summary latest")
	}
	out.Latest = &latest
	return out, nil
}

// Page es una página de registros. Total 0 = sin resultados (no es error).
type Page struct {
	Items  []domain.Vouch
	Page   int
	Pages  int
	Total  int64
	Offset int // índice global del primer item, para numerar "N."
}

func (s *VouchService) History(ctx context.Context, subjectID string, page int) (Page, error) {
	total, _, err := s.repo.Totals(ctx, subjectID)
	if err != nil {
		return Page{}, persistence(err, "history totals")
	}
	if total == 0 {
		return Page{Page: 1, Pages: 1}, nil
	}
	if err := pagination.Validate(page, int(total), HistoryPerPage); err != nil {
		return Page{}, err
	}
	offset := (page - 1) * HistoryPerPage
	items, err := s.repo.ListBySubject(ctx, subjectID, HistoryPerPage, offset)
	if err != nil {
		return Page{}, persistence(err, "history list")
	}
	return Page{
		Items:  items,
		Page:   page,
		Pages:  pagination.Pages(int(total), HistoryPerPage),
		Total:  total,
		Offset: offset,
	}, nil
}

type SearchInput struct {
	Keyword   string
	SubjectID string // vacío = todos
	Page      int
}

func (s *VouchService) Search(ctx context.Context, in SearchInput) (Page, error) {
	kw := strings.TrimSpace(in.Keyword)
	if kw == "" {
		return Page{}, ErrEmptyKeyword
	}
	if in.Page < 1 {
		return Page{}, &pagination.PageError{Page: in.Page}
	}
	offset := (in.Page - 1) * SearchPerPage
	items, total, err := s.repo.Search(ctx, storage.SearchQuery{
		Keyword:   kw,
		SubjectID: in.SubjectID,
		Limit:     SearchPerPage,
		Offset:    offset,
	})
	if err != nil {
		return Page{}, persistence(err, "search")
	}
	if total == 0 {
		return Page{Page: 1, Pages: 1}, nil
	}
	if err := pagination.Validate(in.Page, int(total), SearchPerPage); err != nil {
		return Page{}, err
	}
	return Page{
		Items:  items,
		Page:   in.Page,
		Pages:  pagination.Pages(int(total), SearchPerPage),
		Total:  total,
		Offset: offset,
	}, nil
}

type TallyPage struct {
	Items  []domain.Tally
	Page   int
	Pages  int
	Total  int
	Offset int
}

// Leaderboard: top 50 recipients, 10 por página.
func (s *VouchService) Leaderboard(ctx context.Context, page int) (TallyPage, error) {
	top, err := s.repo.TopSubjects(ctx, LeaderboardSize)
	if err != nil {
		return TallyPage{}, persistence(err, "leaderboard")
	}
	if len(top) == 0 {
		return TallyPage{Page: 1, Pages: 1}, nil
	}
	if err := pagination.Validate(page, len(top), LeaderboardPerPage); err != nil {
		return TallyPage{}, err
	}
	start, end := pagination.Bounds(page, len(top), LeaderboardPerPage)
	return TallyPage{
		Items:  top[start:end],
		Page:   page,
		Pages:  pagination.Pages(len(top), LeaderboardPerPage),
		Total:  len(top),
		Offset: start,
	}, nil
}

type Stats struct {
	Total        int64
	TopGiver     *domain.Tally
	TopRecipient *domain.Tally
}

func (s *VouchService) Stats(ctx context.Context) (Stats, error) {
	total, err := s.repo.CountActive(ctx)
	if err != nil {
		return Stats{}, persistence(err, "stats count")
	}
	out := Stats{Total: total}
	givers, err := s.repo.TopAuthors(ctx, 1)
	if err != nil {
		return Stats{}, persistence(err, "stats givers")
	}
	if len(givers) > 0 {
		out.TopGiver = &givers[0]
	}
	recips, err := s.repo.TopSubjects(ctx, 1)
	if err != nil {
		return Stats{}, persistence(err, "stats recipients")
	}
	if len(recips) > 0 {
		out.TopRecipient = &recips[0]
	}
	return out, nil
}

// Remove hace soft delete de todo lo activo del target. 0 = no tenía nada.
func (s *VouchService) Remove(ctx context.Context, subjectID string) (int64, error) {
	n, err := s.repo.SoftDeleteBySubject(ctx, subjectID)
	if err != nil {
		return 0, persistence(err, "remove")
	}
	metrics.LedgerRows.WithLabelValues("remove").Add(float64(n))
	return n, nil
}

// Restore revierte Remove para el target. 0 = no había nada borrado.
func (s *VouchService) Restore(ctx context.Context, subjectID string) (int64, error) {
	n, err := s.repo.RestoreBySubject(ctx, subjectID)
	if err != nil {
		return 0, persistence(err, "restore")
	}
	metrics.LedgerRows.WithLabelValues("restore").Add(float64(n))
	return n, nil
}

// Transfer mueve el subject de todo lo activo. src == dst se rechaza antes de escribir.
func (s *VouchService) Transfer(ctx context.Context, fromID, toID string) (int64, error) {
	if fromID == toID {
		return 0, ErrSameUser
	}
	n, err := s.repo.TransferSubject(ctx, fromID, toID)
	if err != nil {
		return 0, persistence(err, "transfer")
	}
	metrics.LedgerRows.WithLabelValues("transfer").Add(float64(n))
	return n, nil
}
