package entity

import (
	"net/netip"

	"github.com/zeusync/frontline/internal/core/physics"
)

// Player is a connected client's avatar. Address is the session key.
type Player struct {
	ID          string
	DisplayName string
	Address     netip.AddrPort
	Health      int
	Body        physics.BodyHandle
	Collider    physics.ColliderHandle
}

// ApplyDamage lowers health, never below zero, and reports whether the
// player is still standing.
func (p *Player) ApplyDamage(amount int) bool {
	p.Health = max(p.Health-amount, 0)
	return p.Health > 0
}
