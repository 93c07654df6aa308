package storage

import (
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/jose-valero/vouch-bot/internal/domain"
)

var (
	ErrNotFound = errors.New("not found")
	// id repetido: nunca se reintenta con el mismo id
	ErrDuplicateID = errors.New("duplicate vouch id")
)

// SearchQuery: substring case-insensitive sobre comment, opcionalmente por subject.
type SearchQuery struct {
	Keyword   string
	SubjectID string
	Limit     int
	Offset    int
}

// likePattern escapa los comodines de LIKE para que el keyword sea literal.
func likePattern(keyword string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(keyword) + "%"
}

// validate corre antes de cualquier escritura: puntos en [0,50000], comentario 1..500.
func validate(vs ...domain.Vouch) error {
	for _, v := range vs {
		if err := v.Validate(); err != nil {
			return errors.Wrapf(err, "invalid vouch %s", v.ID)
		}
	}
	return nil
}
