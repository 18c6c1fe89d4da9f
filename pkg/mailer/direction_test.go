package mailer_test

import (
	"strings"
	"testing"

	"github.com/Abraxas-365/caremail/pkg/mailer"
)

func TestApplyDirection_LTRUnchanged(t *testing.T) {
	in := `<div style="color:red">hello</div>`
	if out := mailer.ApplyDirection(in, false); out != in {
		t.Fatalf("non-RTL input was modified: %q", out)
	}
}

func TestApplyDirection_DivGainsDirectionAndAlignment(t *testing.T) {
	out := mailer.ApplyDirection("<div>hello</div>", true)
	want := `<div style="direction: rtl; text-align: right;">hello</div>`
	if out != want {
		t.Fatalf("got %q, want %q", out, want)
	}
}

func TestApplyDirection_SpanGainsDirectionOnly(t *testing.T) {
	out := mailer.ApplyDirection("<span>hello</span>", true)
	want := `<span style="direction: rtl;">hello</span>`
	if out != want {
		t.Fatalf("got %q, want %q", out, want)
	}
}

func TestApplyDirection_PreservesExistingAlignment(t *testing.T) {
	out := mailer.ApplyDirection(`<p style="text-align: center;">hi</p>`, true)
	if !strings.Contains(out, "direction: rtl;") {
		t.Fatalf("missing direction declaration: %q", out)
	}
	if !strings.Contains(out, "text-align: center;") {
		t.Fatalf("existing alignment was clobbered: %q", out)
	}
	if strings.Contains(out, "text-align: right") {
		t.Fatalf("right alignment forced over existing one: %q", out)
	}
}

func TestApplyDirection_PreservesOtherStyles(t *testing.T) {
	out := mailer.ApplyDirection(`<div style="color: red;">hi</div>`, true)
	if !strings.Contains(out, "color: red;") {
		t.Fatalf("existing style dropped: %q", out)
	}
	if !strings.Contains(out, "direction: rtl; text-align: right;") {
		t.Fatalf("direction declaration missing: %q", out)
	}
}

func TestApplyDirection_Idempotent(t *testing.T) {
	in := `<div><p style="color: blue;">one</p><span>two</span></div>`
	once := mailer.ApplyDirection(in, true)
	twice := mailer.ApplyDirection(once, true)
	if once != twice {
		t.Fatalf("transform is not idempotent:\nonce:  %q\ntwice: %q", once, twice)
	}
	if strings.Count(twice, "direction: rtl") != strings.Count(once, "direction: rtl") {
		t.Fatal("second pass added more direction declarations")
	}
}

func TestApplyDirection_NestedElements(t *testing.T) {
	out := mailer.ApplyDirection("<div><span>inner</span></div>", true)
	if !strings.Contains(out, `<div style="direction: rtl; text-align: right;">`) {
		t.Fatalf("outer div not styled: %q", out)
	}
	if !strings.Contains(out, `<span style="direction: rtl;">`) {
		t.Fatalf("inner span not styled: %q", out)
	}
}

func TestApplyDirection_PlainTextPassesThrough(t *testing.T) {
	if out := mailer.ApplyDirection("just text", true); out != "just text" {
		t.Fatalf("plain text was modified: %q", out)
	}
}
