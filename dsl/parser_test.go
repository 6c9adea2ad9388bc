package dsl_test

import (
	"strings"
	"testing"

	"github.com/ByLCY/carousel/dsl"
)

const sampleDSL = `
template quote-dark v1 {
  meta {
    name: "Quote (dark)"
    tags: [
      "quote"
      "dark"
    ]
  }

  canvas {
    width: 1080
    height: 1920
    background: #0F62FE
  }

  image bg {
    box: [0, 0, 100%, 100%]
    fit: cover
  }

  overlay shade {
    box: [0, 0, 1080, 1920]
    gradient: { direction: to-bottom; stops: [{ at: 0; color: transparent }, { at: 1; color: rgba(0, 0, 0, 0.8) }] }
  }

  text quote {
    box: [90, 600, 900, 600]
    maxSize: 96pt
    lineHeight: 1.2x
    "Hello, ${author.name|friend}!"
  }

  badge tag {
    box: [90, 1700, 200, 60]
    label {
      size: 24
      "NEW"
    }
  }
}
`

func TestParseDocument(t *testing.T) {
	doc, err := dsl.ParseString(sampleDSL)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	if doc.Name != "quote-dark" {
		t.Fatalf("expected template name quote-dark, got %s", doc.Name)
	}
	if doc.Version != "v1" {
		t.Fatalf("expected version v1, got %s", doc.Version)
	}
	if len(doc.Sections) != 6 {
		t.Fatalf("expected 6 sections, got %d", len(doc.Sections))
	}

	kinds := make([]string, 0, len(doc.Sections))
	for _, s := range doc.Sections {
		kinds = append(kinds, s.Kind())
	}
	if got := strings.Join(kinds, ","); got != "meta,canvas,image,overlay,text,badge" {
		t.Fatalf("unexpected section kinds: %s", got)
	}

	meta := doc.Sections[0].Meta
	name := meta.Block.Statements[0].Assignment
	if name == nil || name.Key != "name" || string(*name.Value.String) != "Quote (dark)" {
		t.Fatalf("expected name assignment, got %+v", meta.Block.Statements[0])
	}
	tags := meta.Block.Statements[1].Assignment
	if tags == nil || tags.Value.Array == nil || len(tags.Value.Array.Values) != 2 {
		t.Fatalf("expected 2 tags, got %+v", tags)
	}

	bg := doc.Sections[1].Canvas.Block.Statements[2].Assignment
	if bg == nil || bg.Value.Color == nil || *bg.Value.Color != "#0F62FE" {
		t.Fatalf("expected full hex colour token, got %+v", bg)
	}

	image := doc.Sections[2].Layer
	if image.ID != "bg" {
		t.Fatalf("expected layer id bg, got %s", image.ID)
	}
	box := image.Block.Statements[0].Assignment.Value.Array
	if box == nil || len(box.Values) != 4 || *box.Values[2].Number != "100%" {
		t.Fatalf("unexpected box: %+v", box)
	}
	fit := image.Block.Statements[1].Assignment.Value.Expr
	if fit == nil || tokensToString(fit.Parts) != "cover" {
		t.Fatalf("fit should be captured as expression, got %+v", fit)
	}

	gradient := doc.Sections[3].Layer.Block.Statements[1].Assignment.Value.Object
	if gradient == nil || len(gradient.Entries) != 2 {
		t.Fatalf("expected gradient inline object, got %+v", gradient)
	}
	stops := gradient.Entries[1].Value.Array
	if stops == nil || len(stops.Values) != 2 || stops.Values[1].Object == nil {
		t.Fatalf("expected 2 gradient stops, got %+v", stops)
	}
	stopColor := stops.Values[1].Object.Entries[1].Value.Expr
	if stopColor == nil || tokensToString(stopColor.Parts) != "rgba ( 0 , 0 , 0 , 0.8 )" {
		t.Fatalf("unexpected stop colour tokens: %+v", stopColor)
	}

	text := doc.Sections[4].Layer
	if got := *text.Block.Statements[1].Assignment.Value.Number; got != "96pt" {
		t.Fatalf("expected maxSize 96pt, got %s", got)
	}
	literal := text.Block.Statements[3].Text
	if literal == nil || !strings.Contains(string(literal.Value), "${author.name|friend}") {
		t.Fatalf("expected text literal with placeholder, got %+v", text.Block.Statements[3])
	}

	label := doc.Sections[5].Layer.Block.Statements[1].Command
	if label == nil || label.Name != "label" || label.Block == nil || len(label.Block.Statements) != 2 {
		t.Fatalf("expected nested label block, got %+v", label)
	}
}

func TestParseRejectsUnknownSection(t *testing.T) {
	if _, err := dsl.ParseString("template x v1 {\n  video clip { }\n}\n"); err == nil {
		t.Fatalf("expected error for unknown layer kind")
	}
}

func tokensToString(parts []*dsl.Lexeme) string {
	values := make([]string, 0, len(parts))
	for _, p := range parts {
		values = append(values, p.Value)
	}
	return strings.Join(values, " ")
}

func TestValueText(t *testing.T) {
	doc, err := dsl.ParseString(sampleDSL)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	layers := doc.Layers()
	if len(layers) != 4 || layers[0].ID != "bg" || layers[3].Kind != "badge" {
		t.Fatalf("unexpected layers: %+v", layers)
	}

	stops := layers[1].Block.Statements[1].Assignment.Value.Object.Entries[1].Value.Array
	cases := []struct {
		name string
		val  *dsl.Value
		want string
	}{
		{"expression", layers[0].Block.Statements[1].Assignment.Value, "cover"},
		{"function", stops.Values[1].Object.Entries[1].Value, "rgba(0,0,0,0.8)"},
		{"number", layers[2].Block.Statements[2].Assignment.Value, "1.2x"},
		{"array", layers[0].Block.Statements[0].Assignment.Value, ""},
		{"nil", nil, ""},
	}
	for _, tc := range cases {
		if got := tc.val.Text(); got != tc.want {
			t.Fatalf("%s: expected %q, got %q", tc.name, tc.want, got)
		}
	}
}
