package schedule

// Lesson times are wall-clock "HH:MM" strings; the fixed-width zero-padded
// 24h format makes lexicographic comparison equivalent to time comparison.

// Overlaps reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) intersect. The single inequality covers start-inside,
// end-inside and fully-containing alike; back-to-back intervals
// (aEnd == bStart) do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd string) bool {
	return aStart < bEnd && bStart < aEnd
}

// Contains reports whether [aStart, aEnd) fully contains [bStart, bEnd).
func Contains(aStart, aEnd, bStart, bEnd string) bool {
	return aStart <= bStart && bEnd <= aEnd
}
