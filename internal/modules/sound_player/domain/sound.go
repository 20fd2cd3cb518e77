package domain

import "strings"

// SoundFile identifies a bundled sound by base name and file type, e.g. ("alert", "mp3").
type SoundFile struct {
	Name string
	Type string
}

// FileName returns the on-disk file name of the sound.
func (s SoundFile) FileName() string {
	if s.Type == "" {
		return s.Name
	}
	return s.Name + "." + strings.TrimPrefix(s.Type, ".")
}

// InfiniteLoops makes a sound repeat until stopped when passed as a loop count.
const InfiniteLoops = -1

// PlayCount converts a loop count to the number of times a sound is played.
// Zero loops plays once, negative values loop forever (returned as -1).
func PlayCount(loops int) int {
	if loops < 0 {
		return InfiniteLoops
	}
	return loops + 1
}
