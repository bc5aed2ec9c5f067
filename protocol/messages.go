// Package protocol implements the host adapter described in spec.md §6: a
// newline-delimited JSON channel, one object per line in each direction.
// It is the only package that knows the wire encoding; everything it
// decodes into or encodes from is a plain rules/search type.
//
// The message shapes here are grounded on the TBP-style framing in the
// original engine's cli/src/tbp.rs and game/src/tetris/tbp.rs (a `type`
// discriminator tag, a nested `location`/`spin` PieceState, a `combo`
// field that is the wire's 1-based counter), adjusted to this
// specification's own wire encodings: single-character kinds, lowercase
// rotation/spin names, and a `hold` flag on a move instead of a bare
// enum variant.
package protocol

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/corvus-bot/corvus/rules"
)

// envelope is decoded first to read the `type` discriminator before
// unmarshaling the rest of the message into its concrete shape.
type envelope struct {
	Type string `json:"type"`
}

// inbound message type discriminators (§6).
const (
	msgRules    = "rules"
	msgStart    = "start"
	msgNewPiece = "new_piece"
	msgSuggest  = "suggest"
	msgPlay     = "play"
	msgStop     = "stop"
	msgQuit     = "quit"
)

// outbound message type discriminators (§6).
const (
	msgInfo       = "info"
	msgReady      = "ready"
	msgSuggestion = "suggestion"
)

// kindWire renders/parses the single-character kind encoding ("S Z J L T
// O I").
type kindWire rules.PieceKind

func (k kindWire) MarshalJSON() ([]byte, error) {
	return json.Marshal(rules.PieceKind(k).String())
}

func (k *kindWire) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return errors.Wrap(err, "protocol: decoding piece kind")
	}
	if len(s) != 1 {
		return errors.Errorf("protocol: invalid piece kind %q", s)
	}
	kind, ok := rules.KindFromByte(s[0])
	if !ok {
		return errors.Errorf("protocol: unknown piece kind %q", s)
	}
	*k = kindWire(kind)
	return nil
}

// optKindWire renders an optional kind as either the single-character
// string or JSON null, for the hold slot.
type optKindWire rules.OptKind

func (k optKindWire) MarshalJSON() ([]byte, error) {
	if !k.Present {
		return json.Marshal(nil)
	}
	return json.Marshal(kindWire(k.Kind))
}

func (k *optKindWire) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*k = optKindWire{}
		return nil
	}
	var kw kindWire
	if err := json.Unmarshal(b, &kw); err != nil {
		return err
	}
	*k = optKindWire(rules.SomeKind(rules.PieceKind(kw)))
	return nil
}

// rotationWire renders/parses the "north|east|south|west" encoding.
type rotationWire rules.Rotation

func (r rotationWire) MarshalJSON() ([]byte, error) {
	return json.Marshal(rules.Rotation(r).String())
}

func (r *rotationWire) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	switch s {
	case "north":
		*r = rotationWire(rules.North)
	case "east":
		*r = rotationWire(rules.East)
	case "south":
		*r = rotationWire(rules.South)
	case "west":
		*r = rotationWire(rules.West)
	default:
		return errors.Errorf("protocol: unknown rotation %q", s)
	}
	return nil
}

// spinWire renders/parses the "none|mini|full" encoding.
type spinWire rules.Spin

func (s spinWire) MarshalJSON() ([]byte, error) {
	return json.Marshal(rules.Spin(s).String())
}

func (s *spinWire) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return err
	}
	switch str {
	case "none":
		*s = spinWire(rules.NoSpin)
	case "mini":
		*s = spinWire(rules.Mini)
	case "full":
		*s = spinWire(rules.Full)
	default:
		return errors.Errorf("protocol: unknown spin %q", str)
	}
	return nil
}

// positionWire is the wire shape of a PiecePosition.
type positionWire struct {
	Kind kindWire     `json:"type"`
	X    int8         `json:"x"`
	Y    int8         `json:"y"`
	Rot  rotationWire `json:"orientation"`
}

func encodePosition(p rules.PiecePosition) positionWire {
	return positionWire{Kind: kindWire(p.Kind), X: p.X, Y: p.Y, Rot: rotationWire(p.Rot)}
}

func (p positionWire) decode() rules.PiecePosition {
	return rules.PiecePosition{Kind: rules.PieceKind(p.Kind), X: p.X, Y: p.Y, Rot: rules.Rotation(p.Rot)}
}

// pieceStateWire is the wire shape of a PieceState: a nested location plus
// the spin it was classified with.
type pieceStateWire struct {
	Location positionWire `json:"location"`
	Spin     spinWire     `json:"spin"`
}

func encodePieceState(ps rules.PieceState) pieceStateWire {
	return pieceStateWire{Location: encodePosition(ps.Pos), Spin: spinWire(ps.Spin)}
}

func (p pieceStateWire) decode() rules.PieceState {
	return rules.PieceState{Pos: p.Location.decode(), Spin: rules.Spin(p.Spin)}
}

// decodeMove turns the inbound `play` message's bare PieceState into a
// Move. The wire never sends a Hold through `play` (§9's resolved open
// question: a Hold and its following placement are always committed
// together internally; the host only ever plays the concrete placement
// that results, never a bare hold marker).
func (p pieceStateWire) decodeMove() rules.Move {
	return rules.Move{Place: p.decode()}
}

// boardWire is the 40-row x 10-column grid from spec.md §6: row index 0 is
// the topmost row (matching this engine's own row-0-at-ceiling
// convention, confirmed against the original's `BitBoard::from` which
// indexes `cols[x] |= 1 << y` directly from the wire row index), each
// entry either a single-character kind string or null for empty.
type boardWire [][]*string

func (bw boardWire) decode() rules.Board {
	var b rules.Board
	for row, cols := range bw {
		if row >= rules.MaxRow {
			break
		}
		for col, cell := range cols {
			if col >= rules.Cols || cell == nil {
				continue
			}
			b.Set(col, row)
		}
	}
	return b
}

// randomizerWire is the `randomizer` object on a `start` message: only the
// seven-bag randomizer is supported, matching spec.md's SevenBag type.
type randomizerWire struct {
	Type     string     `json:"type"`
	BagState []kindWire `json:"bag_state"`
}

func (r randomizerWire) decode() (rules.SevenBag, error) {
	if r.Type != "seven_bag" {
		return 0, errors.Errorf("protocol: unsupported randomizer %q", r.Type)
	}
	kinds := make([]rules.PieceKind, len(r.BagState))
	for i, k := range r.BagState {
		kinds[i] = rules.PieceKind(k)
	}
	return rules.BagFromRemaining(kinds), nil
}

// startBody is the body of an inbound `start` message.
type startBody struct {
	Board      boardWire      `json:"board"`
	Queue      []kindWire     `json:"queue"`
	Hold       optKindWire    `json:"hold"`
	Combo      int            `json:"combo"`
	B2B        bool           `json:"back_to_back"`
	Randomizer randomizerWire `json:"randomizer"`
}

// decode converts a startBody into a root GameState and the queue of
// pieces still to be committed. Combo on the wire is the combo counter
// plus one (spec.md §3); ren is recovered by subtracting 1, so a wire
// value of 0 (no combo) becomes -1.
func (s startBody) decode() (rules.GameState, []rules.PieceKind, error) {
	bag, err := s.Randomizer.decode()
	if err != nil {
		return rules.GameState{}, nil, err
	}
	queue := make([]rules.PieceKind, len(s.Queue))
	for i, k := range s.Queue {
		queue[i] = rules.PieceKind(k)
	}
	state := rules.NewGameState(s.Board.decode(), queue, rules.OptKind(s.Hold), bag, s.B2B, s.Combo-1)
	return state, queue, nil
}

// playBody is the body of an inbound `play` message.
type playBody struct {
	Move pieceStateWire `json:"move"`
}

// newPieceBody is the body of an inbound `new_piece` message.
type newPieceBody struct {
	Piece kindWire `json:"piece"`
}

// infoMessage is the unsolicited outbound `info` message sent at start.
type infoMessage struct {
	Type     string   `json:"type"`
	Name     string   `json:"name"`
	Version  string   `json:"version"`
	Author   string   `json:"author"`
	Features []string `json:"features"`
}

// readyMessage acknowledges a `rules` message.
type readyMessage struct {
	Type string `json:"type"`
}

// moveInfoWire is the `move_info` object accompanying a suggestion.
type moveInfoWire struct {
	Nodes uint64  `json:"nodes"`
	NPS   float64 `json:"nps"`
	Extra string  `json:"extra"`
}

// suggestionMessage is the outbound reply to `suggest`.
type suggestionMessage struct {
	Type     string           `json:"type"`
	Moves    []pieceStateWire `json:"moves"`
	MoveInfo moveInfoWire     `json:"move_info"`
}
