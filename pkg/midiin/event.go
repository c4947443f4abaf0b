package midiin

import (
	"fmt"

	gomidi "gitlab.com/gomidi/midi/v2"
)

// Kind distinguishes the note messages the router forwards.
type Kind int

const (
	NoteOn Kind = iota
	NoteOff
)

func (k Kind) String() string {
	if k == NoteOn {
		return "note_on"
	}
	return "note_off"
}

// MissingNote is the note id used when a note message carries no key.
const MissingNote = -1

// Event is a decoded note message.
type Event struct {
	Kind     Kind
	Channel  int
	Note     int
	Velocity int
}

func (e Event) String() string {
	return fmt.Sprintf("%s: %d", e.Kind, e.Note)
}

const (
	statusNoteOff = 0x80
	statusNoteOn  = 0x90
)

// Decode extracts a note event from msg. Messages other than note on and
// note off report false. A note on with velocity 0 stays a note on.
func Decode(msg gomidi.Message) (Event, bool) {
	if len(msg) >= 3 {
		var ch, key, vel uint8
		switch {
		case msg.GetNoteOn(&ch, &key, &vel):
			return Event{Kind: NoteOn, Channel: int(ch), Note: int(key), Velocity: int(vel)}, true
		case msg.GetNoteOff(&ch, &key, &vel):
			return Event{Kind: NoteOff, Channel: int(ch), Note: int(key), Velocity: int(vel)}, true
		}
		return Event{}, false
	}

	// Truncated note messages still count as notes, with what they carry.
	if len(msg) == 0 {
		return Event{}, false
	}
	ev := Event{Channel: int(msg[0] & 0x0F), Note: MissingNote}
	switch msg[0] & 0xF0 {
	case statusNoteOn:
		ev.Kind = NoteOn
	case statusNoteOff:
		ev.Kind = NoteOff
	default:
		return Event{}, false
	}
	if len(msg) == 2 {
		ev.Note = int(msg[1] & 0x7F)
	}
	return ev, true
}
