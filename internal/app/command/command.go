package command

import (
	"strings"
	"time"
)

type Name string

const (
	Vouch            Name = "vouch"
	VouchGive        Name = "vouchgive"
	Vouches          Name = "vouches"
	VouchHistory     Name = "vouchhistory"
	VouchRemove      Name = "vouchremove"
	VouchStats       Name = "vouchstats"
	VouchLeaderboard Name = "vouchleaderboard"
	VouchSearch      Name = "vouchsearch"
	VouchTransfer    Name = "vouchtransfer"
	RestoreVouches   Name = "restorevouches"
	Help             Name = "help"
	Koala            Name = "koala"
)

const Prefix = "!"

// Def describe un comando: quién puede usarlo y su cooldown propio.
type Def struct {
	Name        Name
	Usage       string
	Description string
	Privileged  bool
	// Cooldown 0 = usa el default del gate
	Cooldown time.Duration
}

// Table es el registro fijo de comandos, en el orden en que se listan en help.
var Table = []Def{
	{Name: Vouch, Usage: "!vouch <@user|userID> [message]", Description: "Give someone a vouch (proof required)"},
	{Name: Vouches, Usage: "!vouches [@user|userID]", Description: "Check someone's vouches"},
	{Name: VouchHistory, Usage: "!vouchhistory <@user|userID> [page]", Description: "See full vouch history"},
	{Name: VouchStats, Usage: "!vouchstats", Description: "Server vouch statistics"},
	{Name: VouchLeaderboard, Usage: "!vouchleaderboard [page]", Description: "Top vouched users"},
	{Name: Help, Usage: "!help", Description: "Display this help message"},
	{Name: Koala, Usage: "!koala", Description: "Show bot owner"},
	{Name: VouchGive, Usage: "!vouchgive <@user|userID> count message", Description: "Give multiple vouches", Privileged: true},
	{Name: VouchRemove, Usage: "!vouchremove <@user|userID>", Description: "Remove vouches", Privileged: true},
	{Name: RestoreVouches, Usage: "!restorevouches <@user|userID>", Description: "Restore removed vouches", Privileged: true},
	{Name: VouchTransfer, Usage: "!vouchtransfer <@sourceUser> <@targetUser>", Description: "Transfer vouches", Privileged: true},
	{Name: VouchSearch, Usage: "!vouchsearch [@user] keyword [page]", Description: "Search vouch messages", Privileged: true},
}

var byName = func() map[Name]Def {
	m := make(map[Name]Def, len(Table))
	for _, s := range Table {
		m[s.Name] = s
	}
	return m
}()

func Lookup(n Name) (Def, bool) {
	s, ok := byName[n]
	return s, ok
}

// Parsed es el resultado del tokenizer: comando conocido + args.
type Parsed struct {
	Name Name
	Args []string
}

// Parse acepta "!cmd args" o "cmd args" (primer token exacto).
// Nombres case-insensitive; args separados por cualquier whitespace.
func Parse(content string) (Parsed, bool) {
	fields := strings.Fields(content)
	if len(fields) == 0 {
		return Parsed{}, false
	}
	head := strings.ToLower(strings.TrimPrefix(fields[0], Prefix))
	if head == "" {
		return Parsed{}, false
	}
	n := Name(head)
	if _, ok := byName[n]; !ok {
		return Parsed{}, false
	}
	return Parsed{Name: n, Args: fields[1:]}, true
}
