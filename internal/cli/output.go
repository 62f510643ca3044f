package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Fprintln(o.w, string(data))
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Player:
		o.printPlayer(v)
	case JoinResult:
		o.printJoinResult(v)
	case UpdateResult:
		o.printUpdateResult(v)
	case FinishResult:
		o.printFinishResult(v)
	case Lobby:
		o.printLobby(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Vec3 response type (matches API)
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (v Vec3) String() string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f)", v.X, v.Y, v.Z)
}

// Player response type
type Player struct {
	ID           string  `json:"id"`
	DisplayName  string  `json:"display_name"`
	Position     Vec3    `json:"position"`
	Velocity     Vec3    `json:"velocity"`
	Acceleration Vec3    `json:"acceleration"`
	Direction    Vec3    `json:"direction"`
	Finished     bool    `json:"finished"`
	FinishTime   float64 `json:"finish_time"`
	LastInputSeq float64 `json:"last_input_seq"`
	LastSeenAt   float64 `json:"last_seen_at"`
}

// JoinResult response type
type JoinResult struct {
	ID            string  `json:"id"`
	DisplayName   string  `json:"display_name"`
	Phase         string  `json:"phase"`
	PhaseDeadline float64 `json:"phase_deadline"`
}

// UpdateResult response type
type UpdateResult struct {
	Status      string `json:"status"`
	PlayerID    string `json:"player_id"`
	Provisioned bool   `json:"provisioned"`
}

// FinishResult response type
type FinishResult struct {
	Status     string  `json:"status"`
	Reason     string  `json:"reason,omitempty"`
	Phase      string  `json:"phase"`
	FinishTime float64 `json:"finish_time"`
}

// Lobby response type
type Lobby struct {
	Phase           string   `json:"phase"`
	PhaseDeadline   float64  `json:"phase_deadline"`
	RestartDeadline float64  `json:"restart_deadline"`
	ServerTime      float64  `json:"server_time"`
	Players         []Player `json:"players"`
}

// HealthResult response type
type HealthResult struct {
	Status  string `json:"status"`
	Players int    `json:"players"`
}

// formatTime renders a wire timestamp. Negative values mean unset.
func formatTime(secs float64) string {
	if secs < 0 {
		return "-"
	}
	return time.Unix(0, int64(secs*float64(time.Second))).UTC().Format("15:04:05.000")
}

// remaining renders how long until deadline from the server's point of view
func remaining(deadline, serverTime float64) string {
	d := time.Duration((deadline - serverTime) * float64(time.Second))
	if d < 0 {
		d = 0
	}
	return d.Round(100 * time.Millisecond).String()
}

func (o *Output) printPlayer(p Player) {
	fmt.Fprintf(o.w, "Player: %s (%s)\n", p.DisplayName, p.ID)
	fmt.Fprintf(o.w, "Position: %s\n", p.Position)
	fmt.Fprintf(o.w, "Velocity: %s\n", p.Velocity)
	if p.Finished {
		fmt.Fprintf(o.w, "Finished: %s\n", formatTime(p.FinishTime))
	}
}

func (o *Output) printJoinResult(j JoinResult) {
	fmt.Fprintf(o.w, "Joined as %s (%s)\n", j.DisplayName, j.ID)
	fmt.Fprintf(o.w, "Phase: %s until %s\n", j.Phase, formatTime(j.PhaseDeadline))
}

func (o *Output) printUpdateResult(u UpdateResult) {
	fmt.Fprintf(o.w, "Update %s\n", u.Status)
	if u.Provisioned {
		fmt.Fprintf(o.w, "Provisioned new player: %s\n", u.PlayerID)
	}
}

func (o *Output) printFinishResult(f FinishResult) {
	if f.Reason != "" {
		fmt.Fprintf(o.w, "Finish %s: %s\n", f.Status, f.Reason)
	} else {
		fmt.Fprintf(o.w, "Finish %s at %s\n", f.Status, formatTime(f.FinishTime))
	}
}

func (o *Output) printLobby(l Lobby) {
	fmt.Fprintf(o.w, "Phase: %s (%s left)\n", l.Phase, remaining(l.PhaseDeadline, l.ServerTime))
	fmt.Fprintf(o.w, "Players (%d):\n", len(l.Players))
	for _, p := range l.Players {
		finished := ""
		if p.Finished {
			finished = " [finished " + formatTime(p.FinishTime) + "]"
		}
		fmt.Fprintf(o.w, "  - %s (%s) at %s%s\n", p.DisplayName, p.ID, p.Position, finished)
	}
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Fprintf(o.w, "Status: %s\n", h.Status)
	fmt.Fprintf(o.w, "Players: %d\n", h.Players)
}
