package domain

// EventCategory names a playback event emitted by the audio engine.
type EventCategory string

const (
	// FinishedPlaying is emitted when a sound reaches its end, or fails mid-playback.
	FinishedPlaying EventCategory = "FinishedPlaying"
	// FinishedLoading is emitted when a file or URL has been loaded.
	FinishedLoading EventCategory = "FinishedLoading"
	// AudioInterrupt is emitted when playback is interrupted by something outside the player.
	AudioInterrupt EventCategory = "AudioInterrupt"
	// FinishedLoadingURL is the URL-specific loading variant.
	FinishedLoadingURL EventCategory = "FinishedLoadingURL"
	// FinishedLoadingFile is the file-specific loading variant.
	FinishedLoadingFile EventCategory = "FinishedLoadingFile"
)

// legacyAudioInterrupt is the historical wire spelling still sent by some hosts.
const legacyAudioInterrupt = "AudioInterupt"

var managedCategories = []EventCategory{
	FinishedPlaying,
	FinishedLoading,
	AudioInterrupt,
}

// ManagedCategories returns the categories that allow a single active subscription.
func ManagedCategories() []EventCategory {
	result := make([]EventCategory, len(managedCategories))
	copy(result, managedCategories)
	return result
}

// AllCategories returns every known category, managed ones first.
func AllCategories() []EventCategory {
	return append(ManagedCategories(), FinishedLoadingURL, FinishedLoadingFile)
}

// IsManaged reports whether the category is tracked by the subscription broker.
func (c EventCategory) IsManaged() bool {
	switch c {
	case FinishedPlaying, FinishedLoading, AudioInterrupt:
		return true
	default:
		return false
	}
}

// IsValid reports whether the category is one of the known categories.
func (c EventCategory) IsValid() bool {
	return c.IsManaged() || c == FinishedLoadingURL || c == FinishedLoadingFile
}

// String returns the wire name of the category.
func (c EventCategory) String() string {
	return string(c)
}

// ParseEventCategory converts a wire name to an EventCategory.
func ParseEventCategory(s string) (EventCategory, bool) {
	if s == legacyAudioInterrupt {
		return AudioInterrupt, true
	}
	c := EventCategory(s)
	if !c.IsValid() {
		return "", false
	}
	return c, true
}
