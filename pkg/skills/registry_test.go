package skills

import (
	"context"
	"testing"

	"github.com/emberline/skillbus/pkg/protocol"
)

func noopHandler(_ context.Context, _ protocol.Input) (map[string]interface{}, error) {
	return map[string]interface{}{"ok": true}, nil
}

func testDef(name string) *Definition {
	return &Definition{
		Name:    name,
		Channel: "test.skill." + name,
		Tier:    TierPublic,
		Version: "1.0.0",
		Handler: noopHandler,
	}
}

func TestNewRegistry_Validation(t *testing.T) {
	tests := []struct {
		name    string
		defs    []*Definition
		wantErr bool
	}{
		{"valid", []*Definition{testDef("hear"), testDef("view")}, false},
		{"empty catalog", nil, false},
		{"duplicate name", []*Definition{testDef("hear"), testDef("hear")}, true},
		{"empty name", []*Definition{{Channel: "c", Tier: TierPublic, Version: "1.0.0", Handler: noopHandler}}, true},
		{"missing channel", []*Definition{{Name: "x", Tier: TierPublic, Version: "1.0.0", Handler: noopHandler}}, true},
		{"missing handler", []*Definition{{Name: "x", Channel: "c", Tier: TierPublic, Version: "1.0.0"}}, true},
		{"bad version", []*Definition{{Name: "x", Channel: "c", Tier: TierPublic, Version: "latest", Handler: noopHandler}}, true},
		{"bad tier", []*Definition{{Name: "x", Channel: "c", Tier: "vip", Version: "1.0.0", Handler: noopHandler}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(tt.defs)
			if tt.wantErr && err == nil {
				t.Fatal("skills:registry_test - expected error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("skills:registry_test - unexpected error: %v", err)
			}
		})
	}
}

func TestRegistry_GetIsIdempotent(t *testing.T) {
	r, err := NewRegistry([]*Definition{testDef("hear")})
	if err != nil {
		t.Fatalf("skills:registry_test - NewRegistry failed: %v", err)
	}

	first, ok := r.Get("hear")
	if !ok {
		t.Fatal("skills:registry_test - expected hear to be registered")
	}
	for i := 0; i < 5; i++ {
		got, ok := r.Get("hear")
		if !ok || got != first {
			t.Fatalf("skills:registry_test - Get returned a different definition on call %d", i)
		}
	}

	if _, ok := r.Get("telepathy"); ok {
		t.Error("skills:registry_test - unregistered skill should not resolve")
	}
}

func TestRegistry_ListPreservesOrder(t *testing.T) {
	r, err := NewRegistry([]*Definition{testDef("hear"), testDef("view"), testDef("ground")})
	if err != nil {
		t.Fatalf("skills:registry_test - NewRegistry failed: %v", err)
	}

	want := []string{"hear", "view", "ground"}
	list := r.List()
	if len(list) != len(want) {
		t.Fatalf("skills:registry_test - List() has %d entries, want %d", len(list), len(want))
	}
	for i, def := range list {
		if def.Name != want[i] {
			t.Errorf("skills:registry_test - List()[%d] = %s, want %s", i, def.Name, want[i])
		}
	}
}

func TestRegistry_ChannelFor(t *testing.T) {
	r, _ := NewRegistry([]*Definition{testDef("hear")})
	if got := r.ChannelFor("hear"); got != "test.skill.hear" {
		t.Errorf("skills:registry_test - ChannelFor(hear) = %q", got)
	}
	if got := r.ChannelFor("telepathy"); got != "" {
		t.Errorf("skills:registry_test - ChannelFor(unknown) = %q, want empty", got)
	}
}

func TestBuildCatalog(t *testing.T) {
	defs := BuildCatalog(CatalogParams{Prefix: "skillbus"})
	r, err := NewRegistry(defs)
	if err != nil {
		t.Fatalf("skills:registry_test - built-in catalog failed validation: %v", err)
	}

	for _, name := range []string{"hear", "view", "emotion-scan", "ground", "attune", "reflect"} {
		if !r.Has(name) {
			t.Errorf("skills:registry_test - catalog missing %s", name)
		}
	}

	attune, _ := r.Get("attune")
	if attune.Tier != TierInternal {
		t.Errorf("skills:registry_test - attune tier = %s, want internal", attune.Tier)
	}
	view, _ := r.Get("view")
	if !view.Synthesize {
		t.Error("skills:registry_test - view should be a synthesizer")
	}
	if got := r.ChannelFor("emotion-scan"); got != "skillbus.skill.emotion-scan" {
		t.Errorf("skills:registry_test - emotion-scan channel = %q", got)
	}

	manifest := r.Manifest()
	if len(manifest) != len(defs) {
		t.Fatalf("skills:registry_test - manifest has %d entries, want %d", len(manifest), len(defs))
	}
	if manifest[0].Name != "hear" || manifest[0].Tier != "public" || manifest[0].Version == "" {
		t.Errorf("skills:registry_test - unexpected manifest entry: %+v", manifest[0])
	}
}
