package service

import "time"

// LogFilter supports history filtering by time range, type and channel.
type LogFilter struct {
	From    time.Time // inclusive; zero means no lower bound
	To      time.Time // inclusive; zero means no upper bound
	Type    string    // "", "TARGET_SET", "PHASE_CHANGE", "FAULT", "ACKNOWLEDGE", ...
	Channel string    // "", "bed", "hotend_0", ...
}
