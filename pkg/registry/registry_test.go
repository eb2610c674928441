package registry

import (
	"fmt"
	"testing"
)

// testEntry is a simple struct for testing
type testEntry struct {
	ID    string
	Label string
}

func TestBaseRegistry_Register(t *testing.T) {
	registry := NewBaseRegistry[testEntry]()

	tests := []struct {
		name    string
		entry   testEntry
		wantErr bool
	}{
		{
			name:    "register valid entry",
			entry:   testEntry{ID: "word", Label: "Word Handler"},
			wantErr: false,
		},
		{
			name:    "register entry with empty name",
			entry:   testEntry{ID: "", Label: "Unnamed"},
			wantErr: true,
		},
		{
			name:    "register duplicate entry",
			entry:   testEntry{ID: "word", Label: "Second Word Handler"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := registry.Register(tt.entry.ID, tt.entry)
			if (err != nil) != tt.wantErr {
				t.Errorf("BaseRegistry.Register() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestBaseRegistry_Get(t *testing.T) {
	registry := NewBaseRegistry[testEntry]()

	entry := testEntry{ID: "excel", Label: "Excel Handler"}
	if err := registry.Register("excel", entry); err != nil {
		t.Fatalf("Failed to register test entry: %v", err)
	}

	got, ok := registry.Get("excel")
	if !ok {
		t.Fatal("BaseRegistry.Get() ok = false, want true")
	}
	if got.Label != entry.Label {
		t.Errorf("BaseRegistry.Get() Label = %v, want %v", got.Label, entry.Label)
	}

	if _, ok := registry.Get("missing"); ok {
		t.Error("BaseRegistry.Get() ok = true for missing entry, want false")
	}
}

func TestBaseRegistry_Names(t *testing.T) {
	registry := NewBaseRegistry[testEntry]()

	for _, id := range []string{"word", "excel", "pdf"} {
		if err := registry.Register(id, testEntry{ID: id}); err != nil {
			t.Fatalf("Failed to register %s: %v", id, err)
		}
	}

	names := registry.Names()
	want := []string{"excel", "pdf", "word"}
	if len(names) != len(want) {
		t.Fatalf("BaseRegistry.Names() length = %d, want %d", len(names), len(want))
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("BaseRegistry.Names()[%d] = %s, want %s", i, names[i], want[i])
		}
	}
}

func TestBaseRegistry_Concurrency(t *testing.T) {
	registry := NewBaseRegistry[testEntry]()

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func(n int) {
			id := fmt.Sprintf("handler-%d", n)
			_ = registry.Register(id, testEntry{ID: id})
			registry.Get(id)
			registry.Names()
			done <- true
		}(i)
	}
	for i := 0; i < 10; i++ {
		<-done
	}

	if registry.Count() != 10 {
		t.Errorf("BaseRegistry.Count() = %d, want 10", registry.Count())
	}
}
