package skills

import (
	"context"
	"errors"
	"testing"

	"github.com/emberline/skillbus/pkg/protocol"
)

func TestScan(t *testing.T) {
	tests := []struct {
		name         string
		text         string
		wantEmotion  string
		wantMatches  bool
	}{
		{"anxious", "I feel anxious", "anxiety", true},
		{"sad and lonely", "so sad and lonely tonight", "sadness", true},
		{"rough day", "rough day", "strain", true},
		{"mixed case", "I am FURIOUS about this", "anger", true},
		{"good news", "great news, I'm so relieved", "joy", true},
		{"neutral", "the meeting is at noon", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matches := scan(tt.text)
			if tt.wantMatches && len(matches) == 0 {
				t.Fatalf("scan(%q) found no matches", tt.text)
			}
			if !tt.wantMatches && len(matches) != 0 {
				t.Fatalf("scan(%q) = %v, want none", tt.text, matches)
			}
			if got := dominant(matches); got != tt.wantEmotion {
				t.Errorf("dominant(scan(%q)) = %q, want %q", tt.text, got, tt.wantEmotion)
			}
		})
	}
}

func TestEmotionScanHandler(t *testing.T) {
	h := emotionScanHandler()
	out, err := h(context.Background(), protocol.Input{Text: "I feel anxious"})
	if err != nil {
		t.Fatalf("emotion-scan failed: %v", err)
	}
	if out["ok"] != true {
		t.Error("expected ok=true")
	}
	matches, ok := out["matches"].([]Match)
	if !ok || len(matches) == 0 {
		t.Fatalf("expected non-empty match list, got %v", out["matches"])
	}
	if matches[0].Keyword != "anxious" {
		t.Errorf("top match keyword = %q, want anxious", matches[0].Keyword)
	}
	if out["dominant"] != "anxiety" {
		t.Errorf("dominant = %v, want anxiety", out["dominant"])
	}
}

func TestHearHandler_TemplateFallback(t *testing.T) {
	h := hearHandler(HandlerDeps{})
	out, err := h(context.Background(), protocol.Input{Text: "I'm so worried about tomorrow"})
	if err != nil {
		t.Fatalf("hear failed: %v", err)
	}
	if out["emotion"] != "anxiety" {
		t.Errorf("emotion = %v, want anxiety", out["emotion"])
	}
	resp, _ := out["response"].(string)
	if resp == "" {
		t.Error("expected a non-empty response without an LLM configured")
	}
}

// fakeCompleter stands in for the LLM bridge.
type fakeCompleter struct {
	reply string
	err   error
	calls int
}

func (f *fakeCompleter) Complete(_ context.Context, _, _ string) (string, error) {
	f.calls++
	return f.reply, f.err
}

func TestHearHandler_UsesLLMWhenAvailable(t *testing.T) {
	fake := &fakeCompleter{reply: "that sounds genuinely hard"}
	h := hearHandler(HandlerDeps{LLM: fake})
	out, err := h(context.Background(), protocol.Input{Text: "rough day"})
	if err != nil {
		t.Fatalf("hear failed: %v", err)
	}
	if out["response"] != "that sounds genuinely hard" {
		t.Errorf("response = %v, want the LLM phrasing", out["response"])
	}
	if fake.calls != 1 {
		t.Errorf("llm calls = %d, want 1", fake.calls)
	}
}

func TestHearHandler_LLMFailureFallsBack(t *testing.T) {
	fake := &fakeCompleter{err: errors.New("bridge down")}
	h := hearHandler(HandlerDeps{LLM: fake})
	out, err := h(context.Background(), protocol.Input{Text: "rough day"})
	if err != nil {
		t.Fatalf("hear should not fail when the LLM does: %v", err)
	}
	if out["response"] != reflectionFor("strain") {
		t.Errorf("response = %v, want the strain template", out["response"])
	}
}

func TestViewHandler_PrefersChainContext(t *testing.T) {
	h := viewHandler(HandlerDeps{})
	out, err := h(context.Background(), protocol.Input{
		Text: "the meeting is at noon", // no keyword on its own
		Context: map[string]interface{}{
			"hear": map[string]interface{}{"emotion": "sadness"},
		},
	})
	if err != nil {
		t.Fatalf("view failed: %v", err)
	}
	if out["emotion"] != "sadness" {
		t.Errorf("emotion = %v, want sadness carried from context", out["emotion"])
	}
	if out["response"] != reframeFor("sadness") {
		t.Errorf("response = %v, want the sadness reframe", out["response"])
	}
}

func TestGroundHandler(t *testing.T) {
	h := groundHandler()
	out, err := h(context.Background(), protocol.Input{Text: "completely burned out"})
	if err != nil {
		t.Fatalf("ground failed: %v", err)
	}
	suggestions, ok := out["suggestions"].([]string)
	if !ok || len(suggestions) == 0 {
		t.Fatalf("expected suggestions, got %v", out["suggestions"])
	}
}

func TestAttuneHandler(t *testing.T) {
	h := attuneHandler()

	out, err := h(context.Background(), protocol.Input{Text: "calibrate"})
	if err != nil {
		t.Fatalf("attune with default tone failed: %v", err)
	}
	if out["tone"] != defaultTone {
		t.Errorf("tone = %v, want %s", out["tone"], defaultTone)
	}

	out, err = h(context.Background(), protocol.Input{
		Text:    "calibrate",
		Context: map[string]interface{}{"tone": "direct"},
	})
	if err != nil {
		t.Fatalf("attune with explicit tone failed: %v", err)
	}
	if out["tone"] != "direct" {
		t.Errorf("tone = %v, want direct", out["tone"])
	}

	if _, err := h(context.Background(), protocol.Input{
		Text:    "calibrate",
		Context: map[string]interface{}{"tone": "sarcastic"},
	}); err == nil {
		t.Error("expected error for unknown tone")
	}
}

func TestReflectHandler_RunsFullPublicSet(t *testing.T) {
	defs := BuildCatalog(CatalogParams{Prefix: "test"})
	r, err := NewRegistry(defs)
	if err != nil {
		t.Fatalf("catalog failed: %v", err)
	}

	reflect, _ := r.Get("reflect")
	out, err := reflect.Handler(context.Background(), protocol.Input{Text: "I feel anxious and exhausted"})
	if err != nil {
		t.Fatalf("reflect failed: %v", err)
	}

	ran, ok := out["skills"].([]string)
	if !ok {
		t.Fatalf("expected skills list, got %v", out["skills"])
	}
	want := []string{"hear", "view", "emotion-scan", "ground"}
	if len(ran) != len(want) {
		t.Fatalf("reflect ran %v, want %v", ran, want)
	}
	for i := range want {
		if ran[i] != want[i] {
			t.Errorf("reflect step %d = %s, want %s", i, ran[i], want[i])
		}
	}
	if resp, _ := out["response"].(string); resp == "" {
		t.Error("expected an aggregated response")
	}
}
