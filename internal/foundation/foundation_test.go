package foundation

import "testing"

type color string

func TestNormalizer(t *testing.T) {
	n := NewNormalizer(map[string]color{"Red": "red", "crimson": "red", "blue": "blue"}, "")

	cases := map[string]color{
		"red":     "red",
		" RED ":   "red",
		"Crimson": "red",
		"blue":    "blue",
		"green":   "",
		"":        "",
	}
	for in, want := range cases {
		if got := n.Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
	if !n.Valid(" Blue") || n.Valid("green") {
		t.Error("Valid() disagrees with Normalize()")
	}
}
