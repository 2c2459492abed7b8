package message

// Command is a client intent. The set of implementations is closed.
type Command interface {
	command()
	Kind() string
}

// Join asks for a new player bound to the sender's address.
type Join struct {
	ID          string
	DisplayName string
}

// Leave removes the sender's player. ID is informational; the address decides.
type Leave struct {
	ID string
}

// Move is a requested displacement, not a target position.
type Move struct {
	DX, DY, DZ float32
}

// UpdateCameraRotation carries the player's facing as a quaternion
// (X, Y, Z) vector part and W scalar part.
type UpdateCameraRotation struct {
	X, Y, Z float32
	W       float32
}

// Shoot fires a bullet along the player's facing.
type Shoot struct{}

func (Join) command()                 {}
func (Leave) command()                {}
func (Move) command()                 {}
func (UpdateCameraRotation) command() {}
func (Shoot) command()                {}

func (Join) Kind() string                 { return "join" }
func (Leave) Kind() string                { return "leave" }
func (Move) Kind() string                 { return "move" }
func (UpdateCameraRotation) Kind() string { return "update_camera" }
func (Shoot) Kind() string                { return "shoot" }
