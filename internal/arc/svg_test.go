package arc

import (
	"bytes"
	"strings"
	"testing"
)

func TestWriteSVG(t *testing.T) {
	var buf bytes.Buffer
	f := Render(75, DefaultGeometry, nil)
	if err := WriteSVG(&buf, f); err != nil {
		t.Fatalf("WriteSVG: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		`<svg xmlns="http://www.w3.org/2000/svg" width="320" height="320"`,
		`d="M 52.52 267.48 A 152 152 0 1 1 267.48 267.48"`,
		`stroke="rgba(134,196,67,0.18)"`,
		`<circle `,
		`fill="#86C443"`,
		`assets/images/tree8.png`,
		`>%75</text>`,
		`>%0</text>`,
		`>%100</text>`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("SVG missing %q\n%s", want, out)
		}
	}
}

func TestWriteSVG_NoDotAtZero(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSVG(&buf, Render(0, DefaultGeometry, nil)); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "<circle") {
		t.Error("zero-progress SVG should not contain an indicator circle")
	}
	if !strings.Contains(buf.String(), `stroke="rgba(229,57,53,0.18)"`) {
		t.Error("zero-progress SVG should use the warning track")
	}
}
