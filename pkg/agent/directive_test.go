package agent

import (
	"testing"

	"github.com/Protocol-Lattice/agentcoffee/pkg/models"
)

func TestParseDirective(t *testing.T) {
	cases := []struct {
		name   string
		text   string
		want   Directive
		wantOK bool
	}{
		{"plain answer", "Answer: Latte", Directive{}, false},
		{"single", "Thought: x\nAction: coffee_taste: strong and creamy\nPAUSE", Directive{"coffee_taste", "strong and creamy"}, true},
		{"first wins", "Action: a: 1\nAction: b: 2", Directive{"a", "1"}, true},
		{"crlf", "Action: coffee_location: Boston, MA\r\nPAUSE", Directive{"coffee_location", "Boston, MA"}, true},
		{"indented is ignored", "  Action: coffee_taste: bold", Directive{}, false},
		{"missing argument separator", "Action: coffee_taste", Directive{}, false},
		{"empty argument", "Action: coffee_taste: ", Directive{"coffee_taste", ""}, true},
		{"argument keeps colons", "Action: coffee_location: near: Boston", Directive{"coffee_location", "near: Boston"}, true},
		{"non word name", "Action: coffee-taste: bold", Directive{}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ParseDirective(tc.text)
			if ok != tc.wantOK || got != tc.want {
				t.Fatalf("ParseDirective(%q) = %+v, %v; want %+v, %v", tc.text, got, ok, tc.want, tc.wantOK)
			}
		})
	}
}

func TestRenderObservation(t *testing.T) {
	var nilSlice []string
	cases := []struct {
		name string
		in   any
		want string
	}{
		{"string passthrough", "Coffee shops in Boston", "Coffee shops in Boston"},
		{"nil slice", nilSlice, "[]"},
		{"empty slice", []string{}, "[]"},
		{"list", []string{"Espresso", "Latte"}, `["Espresso","Latte"]`},
		{"sorted map", map[string]any{"name": "Cafe & Co", "address": "1 Main St"}, `{"address":"1 Main St","name":"Cafe & Co"}`},
		{"nil", nil, "null"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := RenderObservation(tc.in)
			if err != nil {
				t.Fatalf("RenderObservation returned error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %s, want %s", got, tc.want)
			}
		})
	}

	if _, err := RenderObservation(make(chan int)); err == nil {
		t.Fatalf("expected error for an unencodable value")
	}
}

func TestStaticToolCatalog(t *testing.T) {
	c, err := NewStaticToolCatalog(&recordingTool{name: "coffee_taste"}, &recordingTool{name: "coffee_location"})
	if err != nil {
		t.Fatalf("NewStaticToolCatalog returned error: %v", err)
	}

	for _, bad := range []Tool{nil, &recordingTool{name: ""}, &recordingTool{name: "coffee shop"}, &recordingTool{name: "coffee_taste"}} {
		if err := c.Register(bad); err == nil {
			t.Fatalf("expected Register(%v) to fail", bad)
		}
	}

	_, spec, ok := c.Lookup("coffee_location")
	if !ok || spec.Name != "coffee_location" {
		t.Fatalf("lookup failed: %+v %v", spec, ok)
	}
	if _, _, ok := c.Lookup("COFFEE_LOCATION"); ok {
		t.Fatalf("lookup must be case-sensitive")
	}

	specs := c.Specs()
	if len(specs) != 2 || specs[0].Name != "coffee_taste" {
		t.Fatalf("unexpected specs: %+v", specs)
	}
	if len(c.Tools()) != 2 {
		t.Fatalf("expected 2 tools, got %d", len(c.Tools()))
	}
}

func TestConversationMessagesIsACopy(t *testing.T) {
	c := NewConversation("")
	if c.Len() != 0 {
		t.Fatalf("expected empty conversation, got %d", c.Len())
	}
	c.Append(models.RoleUser, "hi")
	msgs := c.Messages()
	msgs[0].Content = "changed"
	if got := c.Messages()[0].Content; got != "hi" {
		t.Fatalf("Messages must return a copy, got %q", got)
	}
}
