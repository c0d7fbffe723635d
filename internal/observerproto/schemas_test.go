package observerproto_test

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/JS123524/2D-Resource-Competition-Simulation/internal/observerproto"
)

func compile(t *testing.T, name string) *jsonschema.Schema {
	t.Helper()
	s, err := jsonschema.Compile(filepath.Join("..", "..", "schemas", name))
	if err != nil {
		t.Fatalf("compile %s: %v", name, err)
	}
	return s
}

// roundtrip marshals a Go message and re-decodes it into the generic form
// the validator wants, so the structs and the schemas are checked against
// each other.
func roundtrip(t *testing.T, v any) any {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return out
}

func TestSchemasValidateWireMessages(t *testing.T) {
	subSchema := compile(t, "subscribe.schema.json")
	tickSchema := compile(t, "tick.schema.json")
	bootSchema := compile(t, "bootstrap.schema.json")
	ctrlSchema := compile(t, "control.schema.json")

	sub := observerproto.SubscribeMsg{Type: observerproto.TypeSubscribe, ProtocolVersion: observerproto.Version}
	if err := subSchema.Validate(roundtrip(t, sub)); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	tick := observerproto.TickMsg{
		Type:            observerproto.TypeTick,
		ProtocolVersion: observerproto.Version,
		Tick:            12,
		Cells:           []observerproto.CellState{{ID: 0, Resource: 5, RegenRate: 1}},
		Agents:          []observerproto.AgentState{{ID: 0, CellID: 0, HP: 9, Alive: true, Hungry: true}},
		Deaths:          []observerproto.Death{{AgentID: 1, CellID: 0}},
	}
	if err := tickSchema.Validate(roundtrip(t, tick)); err != nil {
		t.Fatalf("tick: %v", err)
	}

	boot := observerproto.BootstrapResponse{
		ProtocolVersion: observerproto.Version,
		RunID:           "run_1337_1",
		Tick:            3,
		WorldParams: observerproto.WorldParams{
			TickRateHz:   5,
			Width:        24,
			Height:       16,
			MaxResource:  50,
			MaxRegenRate: 5,
			AgentHP:      10,
			Seed:         1337,
		},
	}
	if err := bootSchema.Validate(roundtrip(t, boot)); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}

	seed := int64(7)
	for _, req := range []observerproto.ControlRequest{
		{Command: observerproto.CmdPause},
		{Command: observerproto.CmdStep},
		{Command: observerproto.CmdSpeed, TickRateHz: 20},
		{Command: observerproto.CmdReset, Seed: &seed},
	} {
		if err := ctrlSchema.Validate(roundtrip(t, req)); err != nil {
			t.Fatalf("control %q: %v", req.Command, err)
		}
	}
}

func TestSchemasRejectBadMessages(t *testing.T) {
	subSchema := compile(t, "subscribe.schema.json")
	ctrlSchema := compile(t, "control.schema.json")

	var wrongType any
	_ = json.Unmarshal([]byte(`{"type":"HELLO","protocol_version":"0.1"}`), &wrongType)
	if err := subSchema.Validate(wrongType); err == nil {
		t.Fatalf("subscribe schema accepted a non-SUBSCRIBE type")
	}

	var badCmd any
	_ = json.Unmarshal([]byte(`{"command":"explode"}`), &badCmd)
	if err := ctrlSchema.Validate(badCmd); err == nil {
		t.Fatalf("control schema accepted an unknown command")
	}
}
