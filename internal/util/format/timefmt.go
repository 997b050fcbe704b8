package format

import (
	"math"
	"strconv"
	"time"
)

// Placeholder is shown for values that are not known yet.
const Placeholder = "—"

// Millis formats an epoch-milliseconds timestamp in local time, or Placeholder when unset.
func Millis(ms int64) string {
	if ms <= 0 {
		return Placeholder
	}
	return time.UnixMilli(ms).Local().Format("2006-01-02 15:04:05")
}

// FloorSeconds renders seconds rounded down, e.g. "12s".
func FloorSeconds(sec float64) string {
	return wholeSeconds(math.Floor(sec))
}

// CeilSeconds renders seconds rounded up, e.g. "48s".
func CeilSeconds(sec float64) string {
	return wholeSeconds(math.Ceil(sec))
}

func wholeSeconds(sec float64) string {
	if sec < 0 || math.IsNaN(sec) {
		sec = 0
	}
	return strconv.FormatInt(int64(sec), 10) + "s"
}
