package discord

import (
	"github.com/jose-valero/vouch-bot/internal/app/command"
)

// commandTable: un handler por cada comando de command.Table.
func (r *Router) commandTable() map[command.Name]CommandHandler {
	return map[command.Name]CommandHandler{
		command.Vouch:            r.cmdVouch,
		command.VouchGive:        r.cmdVouchGive,
		command.Vouches:          r.cmdVouches,
		command.VouchHistory:     r.cmdVouchHistory,
		command.VouchRemove:      r.cmdVouchRemove,
		command.RestoreVouches:   r.cmdRestoreVouches,
		command.VouchTransfer:    r.cmdVouchTransfer,
		command.VouchSearch:      r.cmdVouchSearch,
		command.VouchStats:       r.cmdVouchStats,
		command.VouchLeaderboard: r.cmdVouchLeaderboard,
		command.Help:             r.cmdHelp,
		command.Koala:            r.cmdKoala,
	}
}

// usageError: faltan argumentos; se contesta con el Usage del comando.
type usageError struct {
	name command.Name
}

func (e *usageError) Error() string { return "usage: " + string(e.name) }

func (e *usageError) Usage() string {
	if s, ok := command.Lookup(e.name); ok {
		return "Usage: " + s.Usage
	}
	return "Usage: !" + string(e.name)
}

func usage(n command.Name) error { return &usageError{name: n} }
