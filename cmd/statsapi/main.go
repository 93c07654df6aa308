package main

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/jose-valero/vouch-bot/internal/infra/logging"
)

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// ledgerStats: lo que expone la lambda. Solo vouches activos.
type ledgerStats struct {
	Total        int64  `json:"total"`
	TopGiver     *tally `json:"top_giver"`
	TopRecipient *tally `json:"top_recipient"`
}

type tally struct {
	UserID string `json:"user_id"`
	Count  int64  `json:"count"`
}

type statsSource interface {
	Stats(ctx context.Context) (ledgerStats, error)
}

// ---------- pg ----------
type pgStats struct{ db *pgxpool.Pool }

func (p pgStats) Stats(ctx context.Context) (ledgerStats, error) {
	var out ledgerStats
	if err := p.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM vouches WHERE NOT deleted`,
	).Scan(&out.Total); err != nil {
		return ledgerStats{}, errors.Wrap(err, "count vouches")
	}
	var err error
	if out.TopGiver, err = p.top(ctx, "author_id"); err != nil {
		return ledgerStats{}, err
	}
	if out.TopRecipient, err = p.top(ctx, "subject_id"); err != nil {
		return ledgerStats{}, err
	}
	return out, nil
}

// col viene de una lista fija, nunca del request.
func (p pgStats) top(ctx context.Context, col string) (*tally, error) {
	var t tally
	err := p.db.QueryRow(ctx, `
SELECT `+col+`, COUNT(*) AS n
FROM vouches
WHERE NOT deleted
GROUP BY `+col+`
ORDER BY n DESC, `+col+` ASC
LIMIT 1`).Scan(&t.UserID, &t.Count)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "top %s", col)
	}
	return &t, nil
}

func newPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, errors.Wrap(err, "pgx ParseConfig")
	}
	cfg.MaxConns = 2
	cfg.MaxConnLifetime = 30 * time.Minute

	ictx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(ictx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "pgxpool New")
	}
	return pool, nil
}

// ---------- handler ----------
type api struct {
	src       statsSource
	headerKey string
	secret    string
}

func (a api) authorized(req events.APIGatewayV2HTTPRequest) bool {
	if a.secret == "" {
		return false
	}
	// API Gateway v2 entrega los headers en minúscula
	got := req.Headers[strings.ToLower(a.headerKey)]
	if got == "" {
		got = req.Headers[a.headerKey]
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(a.secret)) == 1
}

func (a api) handle(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	l := log.With().
		Str("path", req.RawPath).
		Str("method", req.RequestContext.HTTP.Method).
		Str("ip", req.RequestContext.HTTP.SourceIP).
		Logger()

	if !a.authorized(req) {
		l.Warn().Msg("statsapi: unauthorized")
		return plain(401, "unauthorized"), nil
	}
	if m := req.RequestContext.HTTP.Method; m != "" && m != "GET" {
		return plain(405, "method not allowed"), nil
	}
	if a.src == nil {
		return plain(503, "ledger unavailable"), nil
	}

	qctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	st, err := a.src.Stats(qctx)
	if err != nil {
		l.Error().Err(err).Msg("statsapi: stats")
		return plain(500, "internal error"), nil
	}
	body, err := json.Marshal(st)
	if err != nil {
		return plain(500, "internal error"), nil
	}
	return events.APIGatewayV2HTTPResponse{
		StatusCode: 200,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(body),
	}, nil
}

func plain(code int, msg string) events.APIGatewayV2HTTPResponse {
	return events.APIGatewayV2HTTPResponse{
		StatusCode: code,
		Headers:    map[string]string{"Content-Type": "text/plain; charset=utf-8"},
		Body:       msg,
	}
}

func main() {
	logging.Setup(getenv("LOG_LEVEL", "info"), false)

	a := api{
		headerKey: getenv("STATS_HEADER_NAME", "X-Stats-Secret"),
		secret:    os.Getenv("STATS_HEADER_VALUE"),
	}
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		pool, err := newPool(context.Background(), dsn)
		if err != nil {
			// sin DB respondemos 503 en vez de morir en el cold start
			log.Error().Err(err).Msg("statsapi: db")
		} else {
			a.src = pgStats{db: pool}
		}
	} else {
		log.Warn().Msg("DATABASE_URL empty; running without DB")
	}
	lambda.Start(a.handle)
}
