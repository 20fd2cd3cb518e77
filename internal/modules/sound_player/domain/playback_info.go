package domain

import (
	"fmt"
	"time"
)

// PlaybackInfo describes the position of the current sound.
type PlaybackInfo struct {
	CurrentTime time.Duration
	Duration    time.Duration
}

// FormattedPosition returns the position as "m:ss / m:ss".
func (i PlaybackInfo) FormattedPosition() string {
	return fmt.Sprintf("%s / %s", formatDuration(i.CurrentTime), formatDuration(i.Duration))
}

func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Seconds())
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}
