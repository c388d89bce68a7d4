package logfields

import (
	"errors"
	"log/slog"
	"testing"
)

// TestHelperKeyNames verifies helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attr    slog.Attr
		want    string
	}{
		{"RunID", KeyRunID, RunID("r1"), "r1"},
		{"Producer", KeyProducer, Producer("intro"), "intro"},
		{"Kind", KeyKind, Kind("markdown"), "markdown"},
		{"Path", KeyPath, Path("/tmp/x"), "/tmp/x"},
		{"Output", KeyOutput, Output("report.pdf"), "report.pdf"},
		{"Stage", KeyStage, Stage("merge"), "merge"},
		{"Status", KeyStatus, Status("success"), "success"},
		{"JobID", KeyJobID, JobID("j1"), "j1"},
		{"Trigger", KeyTrigger, Trigger("watch"), "watch"},
	}
	for _, c := range cases {
		if c.attr.Key != c.attrKey {
			t.Errorf("%s: key = %q, want %q", c.name, c.attr.Key, c.attrKey)
		}
		if got := c.attr.Value.String(); got != c.want {
			t.Errorf("%s: value = %q, want %q", c.name, got, c.want)
		}
	}
}

func TestNumericHelpers(t *testing.T) {
	if a := PageSeq(10); a.Key != KeyPageSeq || a.Value.Int64() != 10 {
		t.Fatalf("PageSeq attr mismatch: %v", a)
	}
	if a := Pages(3); a.Value.Int64() != 3 {
		t.Fatalf("Pages attr mismatch: %v", a)
	}
	if a := DurationMS(1.5); a.Value.Float64() != 1.5 {
		t.Fatalf("DurationMS attr mismatch: %v", a)
	}
}

func TestErrorHelper(t *testing.T) {
	if a := Error(nil); a.Value.String() != "" {
		t.Fatalf("nil error should produce empty value, got %q", a.Value.String())
	}
	if a := Error(errors.New("boom")); a.Key != KeyError || a.Value.String() != "boom" {
		t.Fatalf("unexpected error attr: %v", a)
	}
}
