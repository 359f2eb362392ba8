package board

import (
	"encoding/json"
	"testing"
)

func TestElement_RoundTripPreservesUnknownFields(t *testing.T) {
	wire := `{"id":"el-1","kind":"path","points":[[0,1],[2,3]],"stroke":"#fff","width":3.5}`

	var el Element
	if err := json.Unmarshal([]byte(wire), &el); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if el.ID != "el-1" || el.Kind != "path" {
		t.Errorf("identity = (%q, %q), want (el-1, path)", el.ID, el.Kind)
	}

	out, err := json.Marshal(el)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	// The server must not reshape the payload: every field the client sent
	// comes back out.
	var sent, got map[string]any
	if err := json.Unmarshal([]byte(wire), &sent); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != len(sent) {
		t.Errorf("field count changed: sent %d, got %d", len(sent), len(got))
	}
	if got["stroke"] != "#fff" || got["width"] != 3.5 {
		t.Errorf("opaque fields lost: %v", got)
	}
}

func TestElement_MarshalWithoutData(t *testing.T) {
	el := Element{ID: "el-1", Kind: "rect"}

	out, err := json.Marshal(el)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"id":"el-1","kind":"rect"}` {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestElement_UnmarshalRejectsGarbage(t *testing.T) {
	var el Element
	if err := json.Unmarshal([]byte(`[1,2,3]`), &el); err == nil {
		t.Error("non-object input should fail")
	}
}

func TestChatMessage_SystemOmittedWhenFalse(t *testing.T) {
	out, err := json.Marshal(ChatMessage{ID: "m1", Author: "alice", Text: "hi", Timestamp: 5})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(out, &fields); err != nil {
		t.Fatal(err)
	}
	if _, present := fields["system"]; present {
		t.Error("system flag should be omitted for regular messages")
	}
}
