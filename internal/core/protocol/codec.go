package protocol

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/zeusync/frontline/internal/core/message"
)

// Client envelope: oneof event.
const (
	fieldJoined       protowire.Number = 1
	fieldMove         protowire.Number = 2
	fieldLeft         protowire.Number = 3
	fieldShoot        protowire.Number = 4
	fieldUpdateCamera protowire.Number = 5
)

// Server envelope: oneof update_event.
const (
	fieldAddedPlayer           protowire.Number = 1
	fieldRemovedPlayer         protowire.Number = 2
	fieldChangedPlayerPosition protowire.Number = 3
	fieldCreateBullet          protowire.Number = 4
	fieldUpdateAllBullets      protowire.Number = 5
)

// DecodeCommand parses one client envelope. Unknown fields are skipped; an
// envelope with no known event yields ErrEmptyEnvelope. When several events
// are present the last one wins, as with any protobuf oneof.
func DecodeCommand(b []byte) (message.Command, error) {
	fields, err := parseFields(b)
	if err != nil {
		return nil, newError(ErrorCodeMalformed, "decode command", err)
	}

	var cmd message.Command
	for _, f := range fields {
		var (
			next message.Command
			err  error
		)
		switch f.num {
		case fieldJoined:
			next, err = decodeJoin(f)
		case fieldMove:
			next, err = decodeMove(f)
		case fieldLeft:
			next, err = decodeLeave(f)
		case fieldShoot:
			_, err = f.asMessage()
			next = message.Shoot{}
		case fieldUpdateCamera:
			next, err = decodeUpdateCamera(f)
		default:
			continue
		}
		if err != nil {
			return nil, newError(ErrorCodeMalformed, "decode command", err)
		}
		cmd = next
	}

	if cmd == nil {
		return nil, newError(ErrorCodeEmptyEnvelope, "decode command", ErrEmptyEnvelope)
	}
	return cmd, nil
}

func decodeJoin(f field) (message.Command, error) {
	inner, err := f.asMessage()
	if err != nil {
		return nil, err
	}
	var join message.Join
	for _, g := range inner {
		switch g.num {
		case 1:
			join.ID, err = g.asString()
		case 2:
			join.DisplayName, err = g.asString()
		}
		if err != nil {
			return nil, err
		}
	}
	return join, nil
}

func decodeLeave(f field) (message.Command, error) {
	inner, err := f.asMessage()
	if err != nil {
		return nil, err
	}
	var leave message.Leave
	for _, g := range inner {
		if g.num == 1 {
			if leave.ID, err = g.asString(); err != nil {
				return nil, err
			}
		}
	}
	return leave, nil
}

func decodeMove(f field) (message.Command, error) {
	inner, err := f.asMessage()
	if err != nil {
		return nil, err
	}
	var v [3]float32
	if err := decodeVec(inner, 1, &v); err != nil {
		return nil, err
	}
	return message.Move{DX: v[0], DY: v[1], DZ: v[2]}, nil
}

func decodeUpdateCamera(f field) (message.Command, error) {
	inner, err := f.asMessage()
	if err != nil {
		return nil, err
	}
	var (
		cmd message.UpdateCameraRotation
		dir [3]float32
	)
	for _, g := range inner {
		switch g.num {
		case 1:
			direction, err := g.asMessage()
			if err != nil {
				return nil, err
			}
			if err := decodeVec(direction, 1, &dir); err != nil {
				return nil, err
			}
		case 2:
			if cmd.W, err = g.asFloat(); err != nil {
				return nil, err
			}
		}
	}
	cmd.X, cmd.Y, cmd.Z = dir[0], dir[1], dir[2]
	return cmd, nil
}

// decodeVec reads floats numbered first, first+1 and first+2 into v.
func decodeVec(fields []field, first protowire.Number, v *[3]float32) error {
	for _, g := range fields {
		i := int(g.num - first)
		if i < 0 || i > 2 {
			continue
		}
		c, err := g.asFloat()
		if err != nil {
			return err
		}
		v[i] = c
	}
	return nil
}

// EncodeCommand builds a client envelope. Servers never send commands; this
// is used by clients and tools.
func EncodeCommand(cmd message.Command) ([]byte, error) {
	var (
		num   protowire.Number
		inner []byte
	)
	switch c := cmd.(type) {
	case message.Join:
		num = fieldJoined
		inner = appendString(inner, 1, c.ID)
		inner = appendString(inner, 2, c.DisplayName)
	case message.Move:
		num = fieldMove
		inner = appendVec(inner, 1, c.DX, c.DY, c.DZ)
	case message.Leave:
		num = fieldLeft
		inner = appendString(inner, 1, c.ID)
	case message.Shoot:
		num = fieldShoot
	case message.UpdateCameraRotation:
		num = fieldUpdateCamera
		inner = appendMessage(inner, 1, appendVec(nil, 1, c.X, c.Y, c.Z))
		inner = appendFloat(inner, 2, c.W)
	default:
		return nil, newError(ErrorCodeUnsupported, "encode command", fmt.Errorf("%w: %T", ErrUnsupportedMessage, cmd))
	}
	return appendMessage(nil, num, inner), nil
}

// EncodeEvent builds a server envelope.
func EncodeEvent(ev message.Event) ([]byte, error) {
	var (
		num   protowire.Number
		inner []byte
	)
	switch e := ev.(type) {
	case message.PlayerAdded:
		num = fieldAddedPlayer
		inner = appendString(inner, 1, e.ID)
		inner = appendString(inner, 2, e.DisplayName)
	case message.PlayerRemoved:
		num = fieldRemovedPlayer
		inner = appendString(inner, 1, e.ID)
	case message.PlayerPositionChanged:
		num = fieldChangedPlayerPosition
		inner = appendString(inner, 1, e.ID)
		inner = appendVec(inner, 2, e.X, e.Y, e.Z)
	case message.BulletCreated:
		num = fieldCreateBullet
		inner = appendString(inner, 1, e.ID)
		inner = appendVec(inner, 2, e.X, e.Y, e.Z)
	case message.AllBulletsUpdated:
		num = fieldUpdateAllBullets
		for _, r := range e.Records {
			inner = appendMessage(inner, 1, appendBulletRecord(nil, r))
		}
	default:
		return nil, newError(ErrorCodeUnsupported, "encode event", fmt.Errorf("%w: %T", ErrUnsupportedMessage, ev))
	}
	return appendMessage(nil, num, inner), nil
}

func appendBulletRecord(b []byte, r message.BulletPositionUpdated) []byte {
	b = appendString(b, 1, r.ID)
	b = appendVec(b, 2, r.X, r.Y, r.Z)
	return appendBool(b, 5, r.Destroy)
}

func appendVec(b []byte, first protowire.Number, x, y, z float32) []byte {
	b = appendFloat(b, first, x)
	b = appendFloat(b, first+1, y)
	return appendFloat(b, first+2, z)
}

// DecodeEvent parses one server envelope. Clients and tests use it.
func DecodeEvent(b []byte) (message.Event, error) {
	fields, err := parseFields(b)
	if err != nil {
		return nil, newError(ErrorCodeMalformed, "decode event", err)
	}

	var ev message.Event
	for _, f := range fields {
		var (
			next message.Event
			err  error
		)
		switch f.num {
		case fieldAddedPlayer:
			next, err = decodePlayerAdded(f)
		case fieldRemovedPlayer:
			next, err = decodePlayerRemoved(f)
		case fieldChangedPlayerPosition:
			next, err = decodePositioned(f, func(id string, v [3]float32) message.Event {
				return message.PlayerPositionChanged{ID: id, X: v[0], Y: v[1], Z: v[2]}
			})
		case fieldCreateBullet:
			next, err = decodePositioned(f, func(id string, v [3]float32) message.Event {
				return message.BulletCreated{ID: id, X: v[0], Y: v[1], Z: v[2]}
			})
		case fieldUpdateAllBullets:
			next, err = decodeAllBullets(f)
		default:
			continue
		}
		if err != nil {
			return nil, newError(ErrorCodeMalformed, "decode event", err)
		}
		ev = next
	}

	if ev == nil {
		return nil, newError(ErrorCodeEmptyEnvelope, "decode event", ErrEmptyEnvelope)
	}
	return ev, nil
}

func decodePlayerAdded(f field) (message.Event, error) {
	inner, err := f.asMessage()
	if err != nil {
		return nil, err
	}
	var added message.PlayerAdded
	for _, g := range inner {
		switch g.num {
		case 1:
			added.ID, err = g.asString()
		case 2:
			added.DisplayName, err = g.asString()
		}
		if err != nil {
			return nil, err
		}
	}
	return added, nil
}

func decodePlayerRemoved(f field) (message.Event, error) {
	inner, err := f.asMessage()
	if err != nil {
		return nil, err
	}
	var removed message.PlayerRemoved
	for _, g := range inner {
		if g.num == 1 {
			if removed.ID, err = g.asString(); err != nil {
				return nil, err
			}
		}
	}
	return removed, nil
}

func decodePositioned(f field, build func(id string, v [3]float32) message.Event) (message.Event, error) {
	inner, err := f.asMessage()
	if err != nil {
		return nil, err
	}
	id, v, err := decodeIDVec(inner)
	if err != nil {
		return nil, err
	}
	return build(id, v), nil
}

func decodeIDVec(fields []field) (string, [3]float32, error) {
	var (
		id  string
		v   [3]float32
		err error
	)
	for _, g := range fields {
		if g.num == 1 {
			if id, err = g.asString(); err != nil {
				return "", v, err
			}
		}
	}
	err = decodeVec(fields, 2, &v)
	return id, v, err
}

func decodeAllBullets(f field) (message.Event, error) {
	inner, err := f.asMessage()
	if err != nil {
		return nil, err
	}
	all := message.AllBulletsUpdated{}
	for _, g := range inner {
		if g.num != 1 {
			continue
		}
		rec, err := g.asMessage()
		if err != nil {
			return nil, err
		}
		id, v, err := decodeIDVec(rec)
		if err != nil {
			return nil, err
		}
		r := message.BulletPositionUpdated{ID: id, X: v[0], Y: v[1], Z: v[2]}
		for _, h := range rec {
			if h.num == 5 {
				if r.Destroy, err = h.asBool(); err != nil {
					return nil, err
				}
			}
		}
		all.Records = append(all.Records, r)
	}
	return all, nil
}
