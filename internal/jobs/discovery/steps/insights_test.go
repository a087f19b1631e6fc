package steps

import (
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/topiclens/topiclens-backend/internal/domain"
)

func TestParseStringListCapsAtFive(t *testing.T) {
	in := []any{"a", "b", "c", "d", "e", "f", "g"}
	got := parseStringList(in)
	if len(got) != insightListCap {
		t.Fatalf("len = %d, want %d", len(got), insightListCap)
	}
	if got[0] != "a" || got[4] != "e" {
		t.Fatalf("order lost: %v", got)
	}
}

func TestParseStringListTolerance(t *testing.T) {
	if got := parseStringList(nil); len(got) != 0 {
		t.Fatalf("nil input = %v, want empty", got)
	}
	if got := parseStringList("not a list"); len(got) != 0 {
		t.Fatalf("scalar input = %v, want empty", got)
	}
	in := []any{"ok", 42, "", "  ", map[string]any{}, " trimmed "}
	got := parseStringList(in)
	if len(got) != 2 || got[0] != "ok" || got[1] != "trimmed" {
		t.Fatalf("mixed input = %v", got)
	}
}

func TestStringListJSONNeverNull(t *testing.T) {
	raw := stringListJSON(nil)
	if string(raw) != "[]" {
		t.Fatalf("nil list marshals to %q, want []", string(raw))
	}
	raw = stringListJSON([]string{"x"})
	if string(raw) != `["x"]` {
		t.Fatalf("list marshals to %q", string(raw))
	}
}

func TestFallbackInsight(t *testing.T) {
	topic := &domain.Topic{ID: uuid.New(), Name: "Graph Theory"}
	ins := fallbackInsight(topic)
	if ins.TopicID != topic.ID {
		t.Fatalf("topic id = %v", ins.TopicID)
	}
	if ins.Summary != "Topic: Graph Theory" {
		t.Fatalf("summary = %q", ins.Summary)
	}
	for _, raw := range [][]byte{ins.Themes, ins.CommonQuestions, ins.RelatedConcepts} {
		if string(raw) != "[]" {
			t.Fatalf("list field = %q, want []", string(raw))
		}
	}
}

func TestInsightSchemaShape(t *testing.T) {
	schema := insightSchema()
	props, ok := schema["properties"].(map[string]any)
	if !ok {
		t.Fatal("schema missing properties")
	}
	for _, field := range []string{"summary", "themes", "common_questions", "related_concepts"} {
		if _, ok := props[field]; !ok {
			t.Errorf("schema missing %q", field)
		}
	}
	required, ok := schema["required"].([]string)
	if !ok || len(required) != 4 {
		t.Fatalf("required = %v", schema["required"])
	}
	if add, ok := schema["additionalProperties"].(bool); !ok || add {
		t.Fatal("additionalProperties must be false for strict mode")
	}
	if !strings.Contains(insightSystemPrompt, "JSON") {
		t.Fatal("system prompt should demand JSON output")
	}
}
