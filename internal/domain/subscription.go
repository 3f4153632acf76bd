package domain

import "time"

type Cadence string

const (
	CadenceDaily  Cadence = "daily"
	CadenceWeekly Cadence = "weekly"
)

func (c Cadence) Valid() bool {
	return c == CadenceDaily || c == CadenceWeekly
}

type Units string

const (
	UnitsImperial Units = "imperial"
	UnitsMetric   Units = "metric"
)

func (u Units) Valid() bool {
	return u == UnitsImperial || u == UnitsMetric
}

// Outlook spans in days. Daily digests always cover today and tomorrow;
// weekly digests cover a user-chosen span within the bounds.
const (
	DailyOutlookDays   = 2
	MinOutlookDays     = 3
	MaxOutlookDays     = 10
	DefaultOutlookDays = 7
)

type Subscription struct {
	ID          int64
	UserID      int64
	Zip         string
	Cadence     Cadence
	Hour        int
	Minute      int
	OutlookDays int
	Timezone    string
	Units       Units
	NextRun     time.Time
	CreatedAt   time.Time
}

// OutlookSpan is the number of forecast days a digest for s covers.
func (s Subscription) OutlookSpan() int {
	if s.Cadence == CadenceDaily {
		return DailyOutlookDays
	}
	return ClampOutlookDays(s.OutlookDays)
}

func ClampOutlookDays(days int) int {
	if days < MinOutlookDays {
		return MinOutlookDays
	}
	if days > MaxOutlookDays {
		return MaxOutlookDays
	}
	return days
}
