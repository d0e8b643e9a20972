package pattern

import (
	"encoding/json"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestLinesYAML(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Lines
		wantErr bool
	}{
		{"scalar", `text: hello`, Lines{"hello"}, false},
		{"list", "text:\n  - one\n  - two", Lines{"one", "two"}, false},
		{"mapping", "text:\n  a: b", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var o Options
			err := yaml.Unmarshal([]byte(tt.in), &o)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Unmarshal() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if !equalLines(o.Text, tt.want) {
				t.Errorf("Text = %q, want %q", o.Text, tt.want)
			}
		})
	}
}

func TestLinesJSON(t *testing.T) {
	tests := []struct {
		in      string
		want    Lines
		wantErr bool
	}{
		{`{"text":"hi"}`, Lines{"hi"}, false},
		{`{"text":["a","b"]}`, Lines{"a", "b"}, false},
		{`{"text":null}`, Lines{"keep"}, false},
		{`{"text":42}`, nil, true},
	}
	for _, tt := range tests {
		o := Options{Text: Lines{"keep"}}
		err := json.Unmarshal([]byte(tt.in), &o)
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if tt.wantErr {
			continue
		}
		if !equalLines(o.Text, tt.want) {
			t.Errorf("%s: Text = %q, want %q", tt.in, o.Text, tt.want)
		}
	}
}

func TestLinesHasContent(t *testing.T) {
	if (Lines{}).HasContent() || (Lines{"", " \t"}).HasContent() {
		t.Error("blank lines reported as content")
	}
	if !(Lines{"", "x"}).HasContent() {
		t.Error("non-blank line not reported as content")
	}
}

func TestTileSize(t *testing.T) {
	o := Options{Width: 120, Height: 60, GapX: 100, GapY: 100}
	if w, h := o.TileSize(); w != 220 || h != 160 {
		t.Errorf("TileSize() = %g, %g, want 220, 160", w, h)
	}
}

func equalLines(a, b Lines) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
