package logging

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SetLevel configura el nivel global de zerolog. Vacío o desconocido = info.
func SetLevel(lvl string) {
	switch strings.ToLower(strings.TrimSpace(lvl)) {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn", "warning":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	case "fatal":
		zerolog.SetGlobalLevel(zerolog.FatalLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// Setup deja el logger global listo: JSON por defecto, consola legible en dev.
func Setup(level string, pretty bool) {
	SetLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339Nano
	if pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05.000"})
		return
	}
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
}

// Step mide una operación; se loguea en debug al cerrar.
//
//	defer logging.Step("vouch.grant")()
func Step(label string) func() {
	start := time.Now()
	return func() {
		log.Debug().Str("step", label).Dur("took", time.Since(start)).Msg("trace")
	}
}
