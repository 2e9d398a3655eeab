package timeframe

import (
	"fmt"
	"time"
)

// Timeframe represents an aggregation granularity for candle data.
type Timeframe struct {
	Name     string
	Duration time.Duration
}

// Supported timeframes configuration
var (
	Timeframe1m  = Timeframe{Name: "1m", Duration: time.Minute}
	Timeframe5m  = Timeframe{Name: "5m", Duration: 5 * time.Minute}
	Timeframe15m = Timeframe{Name: "15m", Duration: 15 * time.Minute}
	Timeframe1h  = Timeframe{Name: "1h", Duration: time.Hour}
	Timeframe1d  = Timeframe{Name: "1d", Duration: 24 * time.Hour}
)

// AllTimeframes lists every supported timeframe, shortest first.
var AllTimeframes = []Timeframe{
	Timeframe1m, Timeframe5m, Timeframe15m, Timeframe1h, Timeframe1d,
}

// Timeframe registry for lookup
var timeframeRegistry = make(map[string]Timeframe)

func init() {
	for _, tf := range AllTimeframes {
		timeframeRegistry[tf.Name] = tf
	}
}

// GetTimeframe returns a timeframe by name.
func GetTimeframe(name string) (Timeframe, error) {
	tf, exists := timeframeRegistry[name]
	if !exists {
		return Timeframe{}, fmt.Errorf("unsupported timeframe: %s", name)
	}
	return tf, nil
}

// MustTimeframe returns a timeframe by name and panics on an unknown name.
// An unknown timeframe reaching this function is a programming error, not
// an input error, so it fails fast instead of silently defaulting.
func MustTimeframe(name string) Timeframe {
	tf, err := GetTimeframe(name)
	if err != nil {
		panic(err)
	}
	return tf
}

// IsValidTimeframe checks if a timeframe name is supported.
func IsValidTimeframe(name string) bool {
	_, exists := timeframeRegistry[name]
	return exists
}

// AllTimeframeNames returns all supported timeframe names.
func AllTimeframeNames() []string {
	names := make([]string, 0, len(AllTimeframes))
	for _, tf := range AllTimeframes {
		names = append(names, tf.Name)
	}
	return names
}

// ReportingZone builds a fixed-offset location for daily bucketing. Daily
// candles are bounded by local-day starts in the tracked market's reporting
// timezone, which callers must supply explicitly so bucketing stays
// deterministic regardless of where the process is deployed.
func ReportingZone(offset time.Duration) *time.Location {
	sign := "+"
	abs := offset
	if abs < 0 {
		sign = "-"
		abs = -abs
	}
	name := fmt.Sprintf("UTC%s%02d:%02d", sign, int(abs.Hours()), int(abs.Minutes())%60)
	return time.FixedZone(name, int(offset.Seconds()))
}
