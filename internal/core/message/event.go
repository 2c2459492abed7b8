package message

// Event is an outward notification broadcast to every player. The set of
// implementations is closed.
type Event interface {
	event()
	Kind() string
}

type PlayerAdded struct {
	ID          string
	DisplayName string
}

type PlayerRemoved struct {
	ID string
}

type PlayerPositionChanged struct {
	ID      string
	X, Y, Z float32
}

type BulletCreated struct {
	ID      string
	X, Y, Z float32
}

// BulletPositionUpdated is one bullet's state after a tick. Destroy marks the
// last record a bullet will ever get.
type BulletPositionUpdated struct {
	ID      string
	X, Y, Z float32
	Destroy bool
}

// AllBulletsUpdated aggregates every bullet advanced in one tick.
type AllBulletsUpdated struct {
	Records []BulletPositionUpdated
}

func (PlayerAdded) event()           {}
func (PlayerRemoved) event()         {}
func (PlayerPositionChanged) event() {}
func (BulletCreated) event()         {}
func (AllBulletsUpdated) event()     {}

func (PlayerAdded) Kind() string           { return "added_player" }
func (PlayerRemoved) Kind() string         { return "removed_player" }
func (PlayerPositionChanged) Kind() string { return "changed_player_position" }
func (BulletCreated) Kind() string         { return "create_bullet" }
func (AllBulletsUpdated) Kind() string     { return "update_all_bullets" }
