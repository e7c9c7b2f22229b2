package i18n

import (
	"context"
	"errors"
	"testing"

	"github.com/trezcool/tadesk/core"
	"github.com/trezcool/tadesk/storage/kv/inmem"
)

// readOnlyStorage refuses every write.
type readOnlyStorage struct {
	core.Storage
}

func (readOnlyStorage) SetItem(context.Context, string, string) error {
	return errors.New("quota exceeded")
}

func TestSelector_defaults(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		stored string
		def    Code
		want   Code
	}{
		{name: "nothing stored", def: SimplifiedChinese, want: SimplifiedChinese},
		{name: "nothing stored, en default", def: English, want: English},
		{name: "invalid default", def: Code("xx"), want: DefaultCode},
		{name: "stored", stored: "zh-TW", def: SimplifiedChinese, want: TraditionalChinese},
		{name: "stored garbage", stored: "klingon", def: English, want: English},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage := inmemkv.New()
			if tt.stored != "" {
				_ = storage.SetItem(ctx, core.PreferredLanguageKey, tt.stored)
			}
			if got := NewSelector(ctx, storage, tt.def).Current(); got != tt.want {
				t.Errorf("failed! Current() = %q; want %q", got, tt.want)
			}
		})
	}
}

func TestSelector_Select_persists(t *testing.T) {
	ctx := context.Background()
	storage := inmemkv.New()

	sel := NewSelector(ctx, storage, DefaultCode)
	if err := sel.Select(ctx, English); err != nil {
		t.Fatalf("Select() failed: %v", err)
	}
	if got := sel.Current(); got != English {
		t.Errorf("failed! Current() = %q; want %q", got, English)
	}
	if val, _, _ := storage.GetItem(ctx, core.PreferredLanguageKey); val != "en" {
		t.Errorf("failed! stored preference = %q; want %q", val, "en")
	}

	// a new selector over the same storage ("page reload")
	if got := NewSelector(ctx, storage, DefaultCode).Current(); got != English {
		t.Errorf("failed! reloaded Current() = %q; want %q", got, English)
	}
}

func TestSelector_Select_unknownIsNoop(t *testing.T) {
	ctx := context.Background()
	storage := inmemkv.New()
	sel := NewSelector(ctx, storage, TraditionalChinese)

	var calls int
	sel.OnChange(func(Code) { calls++ })

	for _, lang := range []Code{"", "fr", "zh", "EN"} {
		if err := sel.Select(ctx, lang); err != nil {
			t.Errorf("failed! Select(%q) error = %v", lang, err)
		}
	}
	if got := sel.Current(); got != TraditionalChinese {
		t.Errorf("failed! Current() = %q; want %q", got, TraditionalChinese)
	}
	if calls != 0 {
		t.Errorf("failed! listeners called %d times", calls)
	}
	if storage.Len() != 0 {
		t.Error("failed! unknown code was persisted")
	}
}

func TestSelector_Select_notifies(t *testing.T) {
	ctx := context.Background()
	sel := NewSelector(ctx, inmemkv.New(), SimplifiedChinese)

	var refreshed, indicated []Code
	sel.OnChange(func(lang Code) {
		// listeners observe the new language
		if sel.Current() != lang {
			t.Errorf("failed! Current() = %q inside listener; want %q", sel.Current(), lang)
		}
		refreshed = append(refreshed, lang)
	})
	sel.OnChange(func(lang Code) { indicated = append(indicated, lang) })

	_ = sel.Select(ctx, English)
	_ = sel.Select(ctx, TraditionalChinese)

	want := []Code{English, TraditionalChinese}
	for name, got := range map[string][]Code{"binder": refreshed, "indicator": indicated} {
		if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
			t.Errorf("failed! %s notified with %v; want %v", name, got, want)
		}
	}
}

func TestSelector_Select_persistFailure(t *testing.T) {
	ctx := context.Background()
	sel := NewSelector(ctx, readOnlyStorage{Storage: inmemkv.New()}, SimplifiedChinese)

	var calls int
	sel.OnChange(func(Code) { calls++ })

	if err := sel.Select(ctx, English); err == nil {
		t.Fatal("failed! Select() should report the storage error")
	}
	if got := sel.Current(); got != SimplifiedChinese {
		t.Errorf("failed! Current() = %q after a failed Select(); want %q", got, SimplifiedChinese)
	}
	if calls != 0 {
		t.Errorf("failed! listeners called %d times after a failed Select()", calls)
	}
}

func TestSelector_Options(t *testing.T) {
	ctx := context.Background()
	sel := NewSelector(ctx, inmemkv.New(), English)

	var active []Code
	for _, opt := range sel.Options() {
		if opt.Active {
			active = append(active, opt.Code)
		}
	}
	if len(active) != 1 || active[0] != English {
		t.Errorf("failed! active options = %v; want [en]", active)
	}
}
