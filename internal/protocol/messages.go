package protocol

import (
	"fmt"
	"strings"

	"github.com/mngv7/elevator-control-system/internal/floor"
)

// Status is one of the five car status tokens (spec §3, §6).
type Status string

const (
	StatusOpening Status = "Opening"
	StatusOpen    Status = "Open"
	StatusClosing Status = "Closing"
	StatusClosed  Status = "Closed"
	StatusBetween Status = "Between"
)

// Valid reports whether s is one of the five recognized status tokens.
func (s Status) Valid() bool {
	switch s {
	case StatusOpening, StatusOpen, StatusClosing, StatusClosed, StatusBetween:
		return true
	default:
		return false
	}
}

// ErrMalformed is returned when a received frame does not match the
// grammar in spec §6. Per §7 this is a ProtocolError: the car closes its
// controller connection and keeps running locally; the controller closes
// only the offending peer.
type ErrMalformed struct {
	Raw string
}

func (e *ErrMalformed) Error() string { return fmt.Sprintf("protocol: malformed message %q", e.Raw) }

// Greeting is the car's registration message: "CAR <name> <lo> <hi>".
type Greeting struct {
	Name string
	Lo   floor.Floor
	Hi   floor.Floor
}

func (g Greeting) String() string {
	return fmt.Sprintf("CAR %s %s %s", g.Name, g.Lo, g.Hi)
}

// ParseGreeting parses "CAR <name> <lo> <hi>".
func ParseGreeting(raw string) (Greeting, error) {
	fields := strings.Fields(raw)
	if len(fields) != 4 || fields[0] != "CAR" {
		return Greeting{}, &ErrMalformed{Raw: raw}
	}
	if len(fields[1]) == 0 || len(fields[1]) > 99 {
		return Greeting{}, &ErrMalformed{Raw: raw}
	}
	lo, err := floor.Parse(fields[2])
	if err != nil {
		return Greeting{}, &ErrMalformed{Raw: raw}
	}
	hi, err := floor.Parse(fields[3])
	if err != nil {
		return Greeting{}, &ErrMalformed{Raw: raw}
	}
	return Greeting{Name: fields[1], Lo: lo, Hi: hi}, nil
}

// StatusMsg is "STATUS <status> <cur> <dst>", sent car -> controller.
type StatusMsg struct {
	Status Status
	Cur    floor.Floor
	Dst    floor.Floor
}

func (s StatusMsg) String() string {
	return fmt.Sprintf("STATUS %s %s %s", s.Status, s.Cur, s.Dst)
}

// ParseStatus parses "STATUS <status> <cur> <dst>".
func ParseStatus(raw string) (StatusMsg, error) {
	fields := strings.Fields(raw)
	if len(fields) != 4 || fields[0] != "STATUS" {
		return StatusMsg{}, &ErrMalformed{Raw: raw}
	}
	st := Status(fields[1])
	if !st.Valid() {
		return StatusMsg{}, &ErrMalformed{Raw: raw}
	}
	cur, err := floor.Parse(fields[2])
	if err != nil {
		return StatusMsg{}, &ErrMalformed{Raw: raw}
	}
	dst, err := floor.Parse(fields[3])
	if err != nil {
		return StatusMsg{}, &ErrMalformed{Raw: raw}
	}
	return StatusMsg{Status: st, Cur: cur, Dst: dst}, nil
}

// CallMsg is "CALL <src> <dst>", call-pad -> controller.
type CallMsg struct {
	Src floor.Floor
	Dst floor.Floor
}

func (c CallMsg) String() string {
	return fmt.Sprintf("CALL %s %s", c.Src, c.Dst)
}

// ParseCall parses "CALL <src> <dst>".
func ParseCall(raw string) (CallMsg, error) {
	fields := strings.Fields(raw)
	if len(fields) != 3 || fields[0] != "CALL" {
		return CallMsg{}, &ErrMalformed{Raw: raw}
	}
	src, err := floor.Parse(fields[1])
	if err != nil {
		return CallMsg{}, &ErrMalformed{Raw: raw}
	}
	dst, err := floor.Parse(fields[2])
	if err != nil {
		return CallMsg{}, &ErrMalformed{Raw: raw}
	}
	return CallMsg{Src: src, Dst: dst}, nil
}

// FloorMsg is "FLOOR <f>", controller -> car dispatch.
type FloorMsg struct {
	Floor floor.Floor
}

func (f FloorMsg) String() string { return fmt.Sprintf("FLOOR %s", f.Floor) }

// ParseFloorMsg parses "FLOOR <f>".
func ParseFloorMsg(raw string) (FloorMsg, error) {
	fields := strings.Fields(raw)
	if len(fields) != 2 || fields[0] != "FLOOR" {
		return FloorMsg{}, &ErrMalformed{Raw: raw}
	}
	f, err := floor.Parse(fields[1])
	if err != nil {
		return FloorMsg{}, &ErrMalformed{Raw: raw}
	}
	return FloorMsg{Floor: f}, nil
}

// Reply strings sent controller -> call-pad.
const (
	ReplyUnavailable = "UNAVAILABLE"
)

// CarReply formats the "CAR <name>" reply to a call-pad.
func CarReply(name string) string { return "CAR " + name }

// ParseCarReply parses a "CAR <name>" reply. It is distinct from
// ParseGreeting (2 fields, not 4) even though both start with "CAR".
func ParseCarReply(raw string) (string, bool) {
	fields := strings.Fields(raw)
	if len(fields) == 2 && fields[0] == "CAR" {
		return fields[1], true
	}
	return "", false
}

// Terminal notifications, car -> controller.
const (
	MsgEmergency         = "EMERGENCY"
	MsgIndividualService = "INDIVIDUAL SERVICE"
)

// IsTerminal reports whether raw is one of the car's terminal
// notifications that cause the controller to drop it from service.
func IsTerminal(raw string) bool {
	return raw == MsgEmergency || raw == MsgIndividualService
}
