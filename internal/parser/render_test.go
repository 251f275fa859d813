package parser

import (
	"strings"
	"testing"
)

func TestRenderHTML(t *testing.T) {
	out, err := RenderHTML("Some **bold** text.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "<strong>bold</strong>") {
		t.Errorf("expected strong tag, got %q", out)
	}
}

func TestPreview_DropsCodeAndCollapsesWhitespace(t *testing.T) {
	md := "It runs **side effects**\nafter render.\n\n```js\nuseEffect(() => {})\n```\n\n- cleanup\n- deps\n"
	got, err := Preview(md, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(got, "useEffect") {
		t.Errorf("expected code to be dropped, got %q", got)
	}
	if !strings.HasPrefix(got, "It runs side effects after render.") {
		t.Errorf("unexpected preview %q", got)
	}
	if strings.Contains(got, "  ") || strings.Contains(got, "\n") {
		t.Errorf("expected collapsed whitespace, got %q", got)
	}
}

func TestPreview_Truncates(t *testing.T) {
	got, err := Preview("abcdefghij klmnop", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "abcde…" {
		t.Errorf("expected %q, got %q", "abcde…", got)
	}
}

func TestScanFences_TildesAndLongerClosers(t *testing.T) {
	body := "~~~~ python extra\nprint(1)\n~~~~~\n````\n```\n````\n"
	blocks, warnings := scanFences(body, 10)
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}
	if blocks[0].Lang != "python" || blocks[0].Info != "python extra" || blocks[0].Line != 10 {
		t.Errorf("unexpected first block %+v", blocks[0])
	}
	if blocks[1].Code != "```\n" {
		t.Errorf("expected inner backticks as code, got %q", blocks[1].Code)
	}
}

func TestOpeningFence_RejectsBacktickInfo(t *testing.T) {
	if _, ok := openingFence("``` a`b"); ok {
		t.Error("expected backtick info string to be rejected")
	}
	if _, ok := openingFence("``"); ok {
		t.Error("expected two backticks to be rejected")
	}
}
