package watchbill

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestPercentFor(t *testing.T) {
	cases := []struct{ i, n, want int }{
		{0, 5, 20},
		{4, 5, 100},
		{0, 1, 100},
		{2, 10, 30},
	}
	for _, c := range cases {
		if got := percentFor(c.i, c.n); got != c.want {
			t.Errorf("percentFor(%d, %d) = %d, want %d", c.i, c.n, got, c.want)
		}
	}
}

func TestGeneratorWrite_EmitsNewlineDelimitedJSON(t *testing.T) {
	g := &Generator{}
	var buf strings.Builder

	if err := g.write(&buf, StreamEvent{Type: "progress", Percent: 40, Message: "iteration 1 complete"}); err != nil {
		t.Fatalf("write() error: %v", err)
	}
	if err := g.write(&buf, StreamEvent{Type: "complete", RunID: "r1", Count: 3}); err != nil {
		t.Fatalf("write() error: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), buf.String())
	}

	var first StreamEvent
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("unmarshaling first line: %v", err)
	}
	if first.Type != "progress" || first.Percent != 40 {
		t.Errorf("unexpected first event: %+v", first)
	}

	var second StreamEvent
	if err := json.Unmarshal([]byte(lines[1]), &second); err != nil {
		t.Fatalf("unmarshaling second line: %v", err)
	}
	if second.Type != "complete" || second.Count != 3 {
		t.Errorf("unexpected second event: %+v", second)
	}
}
