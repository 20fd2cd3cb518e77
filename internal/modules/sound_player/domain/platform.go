package domain

import "fmt"

// Platform identifies the platform family the engine targets.
type Platform string

const (
	PlatformIOS     Platform = "ios"
	PlatformAndroid Platform = "android"
)

// ParsePlatform converts a configuration value to a Platform.
func ParsePlatform(s string) (Platform, error) {
	switch Platform(s) {
	case PlatformIOS, PlatformAndroid:
		return Platform(s), nil
	default:
		return "", fmt.Errorf("unknown platform %q", s)
	}
}

// SupportsMixAudio reports whether mixing with other audio can be toggled.
func (p Platform) SupportsMixAudio() bool {
	return p == PlatformIOS
}

// String returns the configuration value of the platform.
func (p Platform) String() string {
	return string(p)
}
