package tabular

import (
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"time"

	"github.com/tormoder/fit"

	gaitcycle "github.com/lucasjlepore/gait-analyzer"
)

// Channels produced from FIT record messages.
const (
	FITPower     = "power_w"
	FITHeartRate = "heart_rate_bpm"
	FITCadence   = "cadence_rpm"
	FITSpeed     = "speed_mps"
	FITDistance  = "distance_m"
)

// ReadFITFile decodes an activity FIT file into a series.
func ReadFITFile(path string) (*gaitcycle.TimeSeries, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open FIT file: %w", err)
	}
	defer f.Close()
	return ReadFIT(f)
}

// ReadFIT decodes an activity FIT stream. Time is seconds since the first
// timestamped record; invalid field values read as NaN.
func ReadFIT(r io.Reader) (*gaitcycle.TimeSeries, error) {
	decoded, err := fit.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode FIT file: %w", err)
	}
	activity, err := decoded.Activity()
	if err != nil {
		return nil, fmt.Errorf("activity FIT expected: %w", err)
	}

	records := make([]*fit.RecordMsg, 0, len(activity.Records))
	for _, rec := range activity.Records {
		if rec == nil || validTimeOrZero(rec.Timestamp).IsZero() {
			continue
		}
		records = append(records, rec)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("activity file has no timestamped records")
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp.Before(records[j].Timestamp)
	})

	n := len(records)
	elapsed := make([]float64, n)
	power := make([]float64, n)
	hr := make([]float64, n)
	cadence := make([]float64, n)
	speed := make([]float64, n)
	distance := make([]float64, n)
	start := records[0].Timestamp
	for i, rec := range records {
		elapsed[i] = rec.Timestamp.Sub(start).Seconds()
		power[i] = extractPower(rec)
		hr[i] = extractHeartRate(rec)
		cadence[i] = extractCadence(rec)
		speed[i] = extractSpeed(rec)
		distance[i] = finiteOrNaN(rec.GetDistanceScaled())
	}

	return gaitcycle.NewTimeSeries(elapsed,
		[]string{FITPower, FITHeartRate, FITCadence, FITSpeed, FITDistance},
		[][]float64{power, hr, cadence, speed, distance})
}

func extractPower(rec *fit.RecordMsg) float64 {
	if rec.Power == math.MaxUint16 {
		return math.NaN()
	}
	return float64(rec.Power)
}

func extractHeartRate(rec *fit.RecordMsg) float64 {
	if rec.HeartRate == math.MaxUint8 {
		return math.NaN()
	}
	return float64(rec.HeartRate)
}

func extractCadence(rec *fit.RecordMsg) float64 {
	if cad256 := rec.GetCadence256Scaled(); isFinite(cad256) && cad256 > 0 {
		return cad256
	}
	if rec.Cadence == math.MaxUint8 {
		return math.NaN()
	}
	return float64(rec.Cadence)
}

func extractSpeed(rec *fit.RecordMsg) float64 {
	if speed := rec.GetEnhancedSpeedScaled(); isFinite(speed) && speed >= 0 {
		return speed
	}
	if speed := rec.GetSpeedScaled(); isFinite(speed) && speed >= 0 {
		return speed
	}
	return math.NaN()
}

func validTimeOrZero(t time.Time) time.Time {
	if t.IsZero() || fit.IsBaseTime(t) {
		return time.Time{}
	}
	return t
}

func finiteOrNaN(v float64) float64 {
	if !isFinite(v) || v < 0 {
		return math.NaN()
	}
	return v
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
