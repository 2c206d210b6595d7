package parser

import (
	"reflect"
	"testing"
)

func TestTags_FrontmatterAndBody(t *testing.T) {
	input := []byte("---\ntitle: Hello\ntags:\n  - go\n  - pocket\n---\n# Hello\nBody text #snippet.\n")
	got := Tags(input)
	want := []string{"go", "pocket", "snippet"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("tags = %v, want %v", got, want)
	}
}

func TestTags_NoFrontmatter(t *testing.T) {
	got := Tags([]byte("# Just a heading\nSome text.\n"))
	if len(got) != 0 {
		t.Errorf("expected no tags, got %v", got)
	}
}

func TestTags_InvalidYAMLFallback(t *testing.T) {
	got := Tags([]byte("---\n: invalid: yaml: {{{\n---\nBody #kept\n"))
	want := []string{"kept"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("tags = %v, want %v", got, want)
	}
}

func TestTags_CommaSeparatedFrontmatter(t *testing.T) {
	got := Tags([]byte("---\ntags: one, two ,three\n---\nbody\n"))
	want := []string{"one", "two", "three"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("tags = %v, want %v", got, want)
	}
}

func TestTags_SkipsFencedCode(t *testing.T) {
	input := []byte("Intro #real\n\n```c\n #include <stdio.h>\n```\n")
	got := Tags(input)
	want := []string{"real"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("tags = %v, want %v", got, want)
	}
}

func TestExtractTags_InlineAndFrontmatter(t *testing.T) {
	fm := map[string]any{
		"tags": []any{"alpha"},
	}
	body := "Some text #beta and #alpha again."
	tags := extractTags(body, fm)
	// alpha from FM, beta from body; alpha not duplicated.
	if len(tags) != 2 || tags[0] != "alpha" || tags[1] != "beta" {
		t.Errorf("tags = %v, want [alpha beta]", tags)
	}
}

func TestSplitFrontmatter_Unclosed(t *testing.T) {
	data := "---\ntitle: x\nno closing fence"
	fm, body := splitFrontmatter([]byte(data))
	if fm != nil {
		t.Errorf("expected nil frontmatter, got %v", fm)
	}
	if body != data {
		t.Errorf("body = %q, want whole input", body)
	}
}
