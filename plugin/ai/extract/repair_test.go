package extract

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestStripTrailingCommas(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"object", `{"a": 1,}`, `{"a": 1}`},
		{"array with whitespace", "[1, 2,\n ]", "[1, 2\n ]"},
		{"nested", `{"a": [1,], "b": {"c": 2,},}`, `{"a": [1], "b": {"c": 2}}`},
		{"comma inside string kept", `{"a": ",}"}`, `{"a": ",}"}`},
		{"escaped quote in string", `{"a": "x\",]",}`, `{"a": "x\",]"}`},
		{"no trailing comma", `{"a": 1, "b": 2}`, `{"a": 1, "b": 2}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, StripTrailingCommas(tt.input))
		})
	}
}

func TestStripComments(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"line comment keeps newline", "{\"a\": 1 // x\n}", "{\"a\": 1 \n}"},
		{"line comment at end of text", `{"a": 1} // done`, `{"a": 1} `},
		{"block comment", `{"a": /* one */ 1}`, `{"a":  1}`},
		{"multi-line block comment", "{/*\n x \n*/\"a\": 1}", `{"a": 1}`},
		{"unterminated block kept", `{"a": 1 /* open`, `{"a": 1 /* open`},
		{"url in string kept", `{"u": "https://a.b/c"}`, `{"u": "https://a.b/c"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, StripComments(tt.input))
		})
	}
}

func TestApply_Order(t *testing.T) {
	upper := func(s string) string { return strings.ToUpper(s) }
	suffix := func(s string) string { return s + "x" }
	assert.Equal(t, "ABx", Apply("ab", upper, suffix))
	assert.Equal(t, "ABX", Apply("ab", suffix, upper))
	assert.Equal(t, "ab", Apply("ab"))
}

var (
	keyGen   = rapid.StringMatching(`[a-z_]{1,10}`)
	valueGen = rapid.StringMatching(`[ -~]{0,24}`)
	proseGen = rapid.StringMatching(`[A-Za-z0-9 .,:;!?\n]{0,40}`)
)

// Well-formed JSON embedded in brace-free prose always round-trips.
func TestProperty_ExtractIgnoresSurroundingProse(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		obj := rapid.MapOf(keyGen, valueGen).Draw(t, "object")
		data, err := json.Marshal(obj)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		raw := proseGen.Draw(t, "prefix") + string(data) + proseGen.Draw(t, "suffix")

		var got map[string]string
		if err := Decode(raw, "property", &got); err != nil {
			t.Fatalf("Decode(%q) failed: %v", raw, err)
		}
		if len(got) != len(obj) {
			t.Fatalf("got %d keys, want %d", len(got), len(obj))
		}
		for k, v := range obj {
			if got[k] != v {
				t.Fatalf("key %q = %q, want %q", k, got[k], v)
			}
		}
	})
}

// A single trailing comma before the closing brace is always repaired.
func TestProperty_SingleTrailingCommaRepaired(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		obj := rapid.MapOfN(keyGen, valueGen, 1, 8).Draw(t, "object")
		data, _ := json.Marshal(obj)
		text := string(data)
		broken := text[:len(text)-1] + "," + text[len(text)-1:]

		var got map[string]string
		if err := Decode(broken, "property", &got); err != nil {
			t.Fatalf("Decode(%q) failed: %v", broken, err)
		}
		if len(got) != len(obj) {
			t.Fatalf("got %d keys, want %d", len(got), len(obj))
		}
	})
}

// The repair pipeline never alters already-valid encoder output.
func TestProperty_RepairsPreserveValidJSON(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		obj := rapid.MapOf(keyGen, valueGen).Draw(t, "object")
		data, _ := json.Marshal(obj)
		if repaired := Apply(string(data), DefaultRepairs...); repaired != string(data) {
			t.Fatalf("repairs changed valid JSON:\n%s\n%s", data, repaired)
		}
	})
}
