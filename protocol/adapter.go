package protocol

import (
	"bufio"
	"encoding/json"
	"io"
	"log"
	"os"
	"time"

	"github.com/corvus-bot/corvus/rules"
	"github.com/corvus-bot/corvus/session"
)

// BotName, BotVersion and BotAuthor fill the unsolicited `info` message.
const (
	BotName    = "corvus"
	BotVersion = "0.1.0"
	BotAuthor  = "corvus-bot"
)

// Adapter drives the newline-delimited JSON protocol described in spec.md
// §6 against a session.Controller: it is the only place in the repository
// that parses or renders a wire message. Malformed input and unknown
// message types are silently tolerated (§7's "invalid input" category);
// everything else is a direct translation into a Controller call.
type Adapter struct {
	sess *session.Controller
	w    io.Writer
	log  *log.Logger

	ready   bool
	started time.Time

	// lastReply is the sequence of moves the most recent suggestion
	// committed to, replayed in order against a `play` confirmation —
	// mirroring the original engine's cli `last_reply_moves`: when the
	// plan's first move is Hold, it is always paired with the following
	// placement (§9's resolved open question), and the wire suggestion
	// carries only the resulting placement, not a separate Hold marker.
	lastReply []rules.Move
}

// NewAdapter builds an Adapter writing outbound messages to w and driving
// sess.
func NewAdapter(sess *session.Controller, w io.Writer) *Adapter {
	return &Adapter{
		sess: sess,
		w:    w,
		log:  log.New(os.Stderr, "protocol: ", log.Ltime),
	}
}

// Run reads newline-delimited JSON messages from r until EOF, `quit`, or a
// read error, dispatching each to the session controller. It returns nil
// on a clean `quit`, and the scanner's error (if any) otherwise — per §6,
// the caller should exit 0 only in the nil case.
func (a *Adapter) Run(r io.Reader) error {
	a.writeInfo()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		quit, err := a.dispatch(line)
		if err != nil {
			a.log.Printf("dispatch: %v", err)
			continue
		}
		if quit {
			return nil
		}
	}
	return scanner.Err()
}

// dispatch decodes one line and routes it by its `type` discriminator. A
// malformed line is logged and skipped and an unrecognized type is
// ignored (per §7); neither is returned as an error or surfaced to the
// host.
func (a *Adapter) dispatch(line []byte) (quit bool, err error) {
	var env envelope
	if err := json.Unmarshal(line, &env); err != nil {
		a.log.Printf("malformed message ignored: %v", err)
		return false, nil
	}

	switch env.Type {
	case msgRules:
		a.handleRules()
	case msgStart:
		a.handleStart(line)
	case msgNewPiece:
		a.handleNewPiece(line)
	case msgSuggest:
		a.handleSuggest()
	case msgPlay:
		a.handlePlay(line)
	case msgStop:
		a.sess.Stop()
	case msgQuit:
		a.sess.Stop()
		return true, nil
	default:
		// any other type is ignored, per §6/§7.
	}
	return false, nil
}

func (a *Adapter) handleRules() {
	a.ready = true
	a.write(readyMessage{Type: msgReady})
}

func (a *Adapter) handleStart(line []byte) {
	if !a.ready {
		return
	}
	var body struct {
		Type string `json:"type"`
		startBody
	}
	if err := json.Unmarshal(line, &body); err != nil {
		a.log.Printf("start: %v", err)
		return
	}
	state, queue, err := body.startBody.decode()
	if err != nil {
		a.log.Printf("start: %v", err)
		return
	}
	a.sess.Reset(state, queue)
	a.sess.Start()
	a.started = time.Now()
	a.lastReply = nil
}

func (a *Adapter) handleNewPiece(line []byte) {
	var body struct {
		Type string `json:"type"`
		newPieceBody
	}
	if err := json.Unmarshal(line, &body); err != nil {
		a.log.Printf("new_piece: %v", err)
		return
	}
	a.sess.AddPiece(rules.PieceKind(body.Piece))
}

func (a *Adapter) handleSuggest() {
	plan := a.sess.Suggest()
	if len(plan) == 0 {
		return
	}

	var reply []rules.Move
	var placement rules.Move
	if plan[0].Hold {
		if len(plan) < 2 || plan[1].Hold {
			a.log.Print("suggest: plan opened with Hold but had no following placement")
			return
		}
		reply = []rules.Move{plan[0], plan[1]}
		placement = plan[1]
	} else {
		reply = []rules.Move{plan[0]}
		placement = plan[0]
	}
	a.lastReply = reply

	nodes := uint64(a.sess.Stats())
	a.write(suggestionMessage{
		Type:  msgSuggestion,
		Moves: []pieceStateWire{encodePieceState(placement.Place)},
		MoveInfo: moveInfoWire{
			Nodes: nodes,
			NPS:   a.nodesPerSecond(nodes),
			Extra: "",
		},
	})
}

func (a *Adapter) handlePlay(line []byte) {
	var body struct {
		Type string `json:"type"`
		playBody
	}
	if err := json.Unmarshal(line, &body); err != nil {
		a.log.Printf("play: %v", err)
		return
	}
	_ = body.playBody.Move.decodeMove() // the host's reported move is informational; we commit our own plan

	for _, mv := range a.lastReply {
		a.sess.PickMove(mv)
	}
	a.lastReply = nil
}

func (a *Adapter) nodesPerSecond(nodes uint64) float64 {
	if a.started.IsZero() {
		return 0
	}
	elapsed := time.Since(a.started).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(nodes) / elapsed
}

func (a *Adapter) writeInfo() {
	a.write(infoMessage{
		Type:     msgInfo,
		Name:     BotName,
		Version:  BotVersion,
		Author:   BotAuthor,
		Features: []string{"randomizer"},
	})
}

func (a *Adapter) write(msg interface{}) {
	b, err := json.Marshal(msg)
	if err != nil {
		a.log.Printf("encode: %v", err)
		return
	}
	b = append(b, '\n')
	if _, err := a.w.Write(b); err != nil {
		a.log.Printf("write: %v", err)
	}
}
