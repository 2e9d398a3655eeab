package timeframe

import (
	"time"
)

// BucketStart calculates the canonical period start for a timestamp. Intraday
// timeframes floor the wall-clock minute (or hour) in the given location; the
// daily timeframe floors to the local-day start. The arithmetic is done on
// wall-clock fields rather than absolute durations so that period boundaries
// line up with what a chart in the reporting timezone displays.
func (tf Timeframe) BucketStart(ts time.Time, loc *time.Location) time.Time {
	local := ts.In(loc)

	switch tf.Name {
	case "1m":
		return time.Date(local.Year(), local.Month(), local.Day(), local.Hour(), local.Minute(), 0, 0, loc)
	case "5m":
		return time.Date(local.Year(), local.Month(), local.Day(), local.Hour(), local.Minute()-local.Minute()%5, 0, 0, loc)
	case "15m":
		return time.Date(local.Year(), local.Month(), local.Day(), local.Hour(), local.Minute()-local.Minute()%15, 0, 0, loc)
	case "1h":
		return time.Date(local.Year(), local.Month(), local.Day(), local.Hour(), 0, 0, 0, loc)
	case "1d":
		return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	default:
		// Timeframe values are only built through the registry; anything
		// else is a programming error.
		panic("timeframe: bucket start for unknown timeframe " + tf.Name)
	}
}

// BucketEnd returns the exclusive period end for a period start. The candle
// interval is half-open: [start, end).
func (tf Timeframe) BucketEnd(start time.Time) time.Time {
	return start.Add(tf.Duration)
}

// PeriodRange returns the half-open period [start, end) containing ts.
func (tf Timeframe) PeriodRange(ts time.Time, loc *time.Location) (start, end time.Time) {
	start = tf.BucketStart(ts, loc)
	end = tf.BucketEnd(start)
	return start, end
}

// SamePeriod checks whether two timestamps fall into the same period.
func (tf Timeframe) SamePeriod(a, b time.Time, loc *time.Location) bool {
	return tf.BucketStart(a, loc).Equal(tf.BucketStart(b, loc))
}

// PeriodStartsBetween enumerates every period start within [rangeStart,
// rangeEnd). A period whose start precedes rangeStart is excluded even when
// it overlaps the range, so an aligned 24 hour range at 1h yields exactly
// 24 starts.
func (tf Timeframe) PeriodStartsBetween(rangeStart, rangeEnd time.Time, loc *time.Location) []time.Time {
	var starts []time.Time

	cursor := tf.BucketStart(rangeStart, loc)
	if cursor.Before(rangeStart) {
		cursor = tf.BucketStart(tf.BucketEnd(cursor), loc)
	}

	for cursor.Before(rangeEnd) {
		starts = append(starts, cursor)
		cursor = tf.BucketStart(tf.BucketEnd(cursor), loc)
	}

	return starts
}
