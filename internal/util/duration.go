package util

import "strings"

const wordsPerMinute = 150

// EstimateDurationMinutes returns the caller-reported duration when positive,
// otherwise estimates from transcript length at 150 spoken words per minute,
// clamped to at least 1 minute.
func EstimateDurationMinutes(transcript string, reported int) int {
	if reported > 0 {
		return reported
	}
	words := len(strings.Fields(transcript))
	mins := (words + wordsPerMinute - 1) / wordsPerMinute
	if mins < 1 {
		return 1
	}
	return mins
}
