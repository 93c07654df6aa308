package command

import (
	"time"

	"github.com/jose-valero/vouch-bot/internal/cooldown"
)

const DefaultCooldown = 2 * time.Second

type Verdict int

const (
	Ignore Verdict = iota
	DenyPermission
	DenyCooldown
	Dispatch
)

func (v Verdict) String() string {
	switch v {
	case Ignore:
		return "ignore"
	case DenyPermission:
		return "deny_permission"
	case DenyCooldown:
		return "deny_cooldown"
	case Dispatch:
		return "dispatch"
	}
	return "unknown"
}

type Decision struct {
	Verdict    Verdict
	Privileged bool
	Remaining  time.Duration
}

// Gate decide si un comando se despacha: allowlist, privilegio y cooldown.
type Gate struct {
	allowed  map[string]struct{}
	owners   map[string]struct{}
	cd       *cooldown.Tracker
	fallback time.Duration
}

func NewGate(allowedChannels, ownerIDs []string, cd *cooldown.Tracker, defaultCooldown time.Duration) *Gate {
	if defaultCooldown <= 0 {
		defaultCooldown = DefaultCooldown
	}
	return &Gate{
		allowed:  toSet(allowedChannels),
		owners:   toSet(ownerIDs),
		cd:       cd,
		fallback: defaultCooldown,
	}
}

func (g *Gate) IsOwner(userID string) bool {
	_, ok := g.owners[userID]
	return ok
}

func (g *Gate) ChannelAllowed(channelID string) bool {
	_, ok := g.allowed[channelID]
	return ok
}

func (g *Gate) Authorize(authorID, channelID string, n Name) Decision {
	priv := g.IsOwner(authorID)
	d := Decision{Privileged: priv}

	if !g.ChannelAllowed(channelID) && !priv {
		d.Verdict = Ignore
		return d
	}

	def, ok := Lookup(n)
	if !ok {
		d.Verdict = Ignore
		return d
	}
	if def.Privileged && !priv {
		d.Verdict = DenyPermission
		return d
	}

	// los owners no tienen cooldown
	if !priv && g.cd != nil {
		window := def.Cooldown
		if window <= 0 {
			window = g.fallback
		}
		if rem, ok := g.cd.CheckAndArm(authorID, string(n), window); !ok {
			d.Verdict = DenyCooldown
			d.Remaining = rem
			return d
		}
	}

	d.Verdict = Dispatch
	return d
}

func toSet(ids []string) map[string]struct{} {
	m := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id != "" {
			m[id] = struct{}{}
		}
	}
	return m
}
