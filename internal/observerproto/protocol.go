// Package observerproto defines the JSON wire messages for the read-only
// observer stream and the loopback control endpoint. Wire shapes are
// validated against the JSON Schemas under schemas/ in tests.
package observerproto

// Version is the observer protocol version.
const Version = "0.1"

// TypeSubscribe and TypeTick are the message type tags on the observer
// websocket.
const (
	TypeSubscribe = "SUBSCRIBE"
	TypeTick      = "TICK"
)

// Client -> Server. First message on the observer connection.
type SubscribeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
}

// HTTP response for GET /v1/observer/bootstrap.
type BootstrapResponse struct {
	ProtocolVersion string      `json:"protocol_version"`
	RunID           string      `json:"run_id"`
	Tick            uint64      `json:"tick"`
	Paused          bool        `json:"paused"`
	WorldParams     WorldParams `json:"world_params"`
}

// WorldParams carries the static world facts a renderer needs: grid shape,
// the value ceilings used for color scaling, and the build seed.
type WorldParams struct {
	TickRateHz   int   `json:"tick_rate_hz"`
	Width        int   `json:"width"`
	Height       int   `json:"height"`
	MaxResource  int   `json:"max_resource"`
	MaxRegenRate int   `json:"max_regen_rate"`
	AgentHP      int   `json:"agent_hp"`
	Seed         int64 `json:"seed"`
}

// Server -> Client. Sent after every tick; a full snapshot, never a delta.
type TickMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Tick            uint64 `json:"tick"`

	Cells  []CellState  `json:"cells"`
	Agents []AgentState `json:"agents"`
	Deaths []Death      `json:"deaths,omitempty"`
}

type CellState struct {
	ID        int `json:"id"`
	Resource  int `json:"resource"`
	RegenRate int `json:"regen_rate"`
}

type AgentState struct {
	ID     int  `json:"id"`
	CellID int  `json:"cell_id"`
	HP     int  `json:"hp"`
	Alive  bool `json:"alive"`
	Hungry bool `json:"hungry"`
}

type Death struct {
	AgentID int `json:"agent_id"`
	CellID  int `json:"cell_id"`
}

// Control commands accepted on POST /admin/v1/control.
const (
	CmdPause  = "pause"
	CmdResume = "resume"
	CmdStep   = "step"
	CmdReset  = "reset"
	CmdSpeed  = "speed"
)

// ControlRequest drives the paced loop. Step advances exactly one tick
// while paused, reset rebuilds the world (optionally reseeded) and speed
// changes the tick rate.
type ControlRequest struct {
	Command    string `json:"command"`
	TickRateHz int    `json:"tick_rate_hz,omitempty"`
	Seed       *int64 `json:"seed,omitempty"`
}

type ControlResponse struct {
	OK     bool   `json:"ok"`
	Tick   uint64 `json:"tick"`
	Paused bool   `json:"paused"`
	Error  string `json:"error,omitempty"`
}
