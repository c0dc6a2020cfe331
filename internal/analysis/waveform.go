package analysis

import "math"

// tailStart returns the first index whose time lies in the final window
// [t_last - period, t_last].
func tailStart(times []float64, period float64) int {
	if len(times) == 0 {
		return 0
	}
	from := times[len(times)-1] - period
	for i := len(times) - 1; i >= 0; i-- {
		if times[i] < from {
			return i + 1
		}
	}
	return 0
}

// FinalPeriodMean averages values over samples with t >= t_last - period.
func FinalPeriodMean(times, values []float64, period float64) float64 {
	start := tailStart(times, period)
	if start >= len(values) {
		return 0
	}
	sum := 0.0
	for _, v := range values[start:] {
		sum += v
	}
	return sum / float64(len(values)-start)
}

// Ripple is max - min over the final period.
func Ripple(times, values []float64, period float64) float64 {
	start := tailStart(times, period)
	if start >= len(values) {
		return 0
	}
	lo, hi := values[start], values[start]
	for _, v := range values[start:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return hi - lo
}

// Deviation is |FinalPeriodMean - target|.
func Deviation(times, values []float64, period, target float64) float64 {
	return math.Abs(FinalPeriodMean(times, values, period) - target)
}

// Overshoot is (max - target)/|target|, floored at zero.
func Overshoot(values []float64, target float64) float64 {
	if len(values) == 0 || target == 0 {
		return 0
	}
	peak := values[0]
	for _, v := range values {
		peak = math.Max(peak, v)
	}
	return math.Max(0, (peak-target)/math.Abs(target))
}

// SettlingTime is the earliest sample time after which every value stays
// within target ± band*|target|. It returns -1 if the last sample is outside.
func SettlingTime(times, values []float64, target, band float64) float64 {
	tol := band * math.Abs(target)
	settled := -1
	for i := len(values) - 1; i >= 0; i-- {
		if math.Abs(values[i]-target) > tol {
			break
		}
		settled = i
	}
	if settled < 0 {
		return -1
	}
	return times[settled]
}
