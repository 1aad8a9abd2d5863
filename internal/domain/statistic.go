package domain

import "time"

// Statistic is a derived monthly aggregate used for display.
type Statistic struct {
	Month       time.Time
	Revenue     int64
	Utilization int
	Issues      int
	ComputedAt  time.Time
}
