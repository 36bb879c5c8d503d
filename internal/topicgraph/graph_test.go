package topicgraph

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultGraph(t *testing.T) {
	g := Default()
	if g.Len() == 0 {
		t.Fatal("default graph is empty")
	}
	core := g.Core()
	if len(core) == 0 {
		t.Fatal("default graph has no core topics")
	}
	for _, id := range core {
		tp, ok := g.Get(id)
		if !ok || !tp.Core {
			t.Errorf("core topic %q not marked core", id)
		}
	}
}

func TestLookups(t *testing.T) {
	g, err := New([]Topic{
		{ID: "a", Name: "Alpha", DifficultyLevel: 1, Core: true},
		{ID: "b", DifficultyLevel: 2, Parent: "a", Prerequisites: []string{"a"}},
		{ID: "c", Name: "Gamma", DifficultyLevel: 3, Prerequisites: []string{"a", "b"}},
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	if got := g.Name("a"); got != "Alpha" {
		t.Errorf("Name(a) = %q", got)
	}
	if got := g.Name("b"); got != "b" {
		t.Errorf("Name(b) = %q, want id fallback", got)
	}
	if got := g.Name("zzz"); got != "zzz" {
		t.Errorf("Name(unknown) = %q", got)
	}
	if got := g.Children("a"); len(got) != 1 || got[0] != "b" {
		t.Errorf("Children(a) = %v", got)
	}
	if got := g.Dependents("a"); len(got) != 2 || got[0] != "b" || got[1] != "c" {
		t.Errorf("Dependents(a) = %v", got)
	}
	if got := g.Prerequisites("c"); len(got) != 2 {
		t.Errorf("Prerequisites(c) = %v", got)
	}
	if got := g.Names([]string{"c", "a"}); got[0] != "Gamma" || got[1] != "Alpha" {
		t.Errorf("Names = %v", got)
	}
}

func TestCyclesAreAllowed(t *testing.T) {
	_, err := New([]Topic{
		{ID: "a", Prerequisites: []string{"b"}},
		{ID: "b", Prerequisites: []string{"a"}},
	})
	if err != nil {
		t.Fatalf("cyclic prerequisites rejected: %v", err)
	}
}

func TestValidation(t *testing.T) {
	_, err := New([]Topic{
		{ID: "a"},
		{ID: "a"},
		{ID: "b", Parent: "missing"},
		{ID: "c", Prerequisites: []string{"ghost"}},
		{ID: "d", DifficultyLevel: 9},
	})
	if err == nil {
		t.Fatal("expected validation errors")
	}
	for _, want := range []string{"duplicate", "parent", "ghost", "difficulty level"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}

func TestLoadDirectory(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"basics.yaml": "topics:\n  - id: a\n    name: A\n    level: 1\n    core: true\n",
		"more.yml":    "topics:\n  - id: b\n    level: 2\n    prerequisites: [a]\n",
		"notes.md":    "ignored",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	g, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if g.Len() != 2 {
		t.Errorf("len = %d, want 2", g.Len())
	}
	if tp, ok := g.Get("b"); !ok || tp.DifficultyLevel != 2 {
		t.Errorf("b = %+v, %v", tp, ok)
	}
	if !g.Has("a") || g.Has("missing") {
		t.Error("Has disagrees with the loaded topics")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "topics.yaml")
	if err := os.WriteFile(path, []byte("topics:\n  - id: x\n    core: true\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	g, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if core := g.Core(); len(core) != 1 || core[0] != "x" {
		t.Errorf("core = %v", core)
	}
}
