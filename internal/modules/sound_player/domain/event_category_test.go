package domain

import "testing"

func TestEventCategory_IsManaged(t *testing.T) {
	tests := []struct {
		name     string
		category EventCategory
		want     bool
	}{
		{name: "FinishedPlaying is managed", category: FinishedPlaying, want: true},
		{name: "FinishedLoading is managed", category: FinishedLoading, want: true},
		{name: "AudioInterrupt is managed", category: AudioInterrupt, want: true},
		{name: "FinishedLoadingURL is raw", category: FinishedLoadingURL, want: false},
		{name: "FinishedLoadingFile is raw", category: FinishedLoadingFile, want: false},
		{name: "unknown category is not managed", category: EventCategory("Other"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.category.IsManaged(); got != tt.want {
				t.Errorf("EventCategory.IsManaged() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseEventCategory(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   EventCategory
		wantOK bool
	}{
		{name: "FinishedPlaying", input: "FinishedPlaying", want: FinishedPlaying, wantOK: true},
		{name: "FinishedLoadingURL", input: "FinishedLoadingURL", want: FinishedLoadingURL, wantOK: true},
		{name: "FinishedLoadingFile", input: "FinishedLoadingFile", want: FinishedLoadingFile, wantOK: true},
		{name: "AudioInterrupt", input: "AudioInterrupt", want: AudioInterrupt, wantOK: true},
		{name: "legacy AudioInterupt spelling", input: "AudioInterupt", want: AudioInterrupt, wantOK: true},
		{name: "empty", input: "", want: "", wantOK: false},
		{name: "unknown", input: "Started", want: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseEventCategory(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParseEventCategory(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("ParseEventCategory(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestManagedCategories_ReturnsCopy(t *testing.T) {
	categories := ManagedCategories()
	if len(categories) != 3 {
		t.Fatalf("expected 3 managed categories, got %d", len(categories))
	}

	categories[0] = FinishedLoadingURL

	if ManagedCategories()[0] != FinishedPlaying {
		t.Error("expected ManagedCategories to return a fresh copy")
	}
}

func TestAllCategories(t *testing.T) {
	categories := AllCategories()
	if len(categories) != 5 {
		t.Fatalf("expected 5 categories, got %d", len(categories))
	}

	for _, c := range categories {
		if !c.IsValid() {
			t.Errorf("expected %q to be valid", c)
		}
	}
}
