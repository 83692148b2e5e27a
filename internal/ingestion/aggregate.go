package ingestion

import (
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"

	"chemviz/domain/equipment"
)

// AveragePlaces is the number of decimal places summary averages are rounded to
const AveragePlaces = 2

// Aggregate computes the dataset summary over coerced records
func Aggregate(records []equipment.Record) equipment.Summary {
	flowrates := make([]float64, len(records))
	pressures := make([]float64, len(records))
	temperatures := make([]float64, len(records))
	distribution := make(map[string]int)

	for i, rec := range records {
		flowrates[i] = rec.Flowrate
		pressures[i] = rec.Pressure
		temperatures[i] = rec.Temperature
		distribution[rec.EquipmentType]++
	}

	return equipment.Summary{
		TotalRecords:     len(records),
		AvgFlowrate:      roundedMean(flowrates),
		AvgPressure:      roundedMean(pressures),
		AvgTemperature:   roundedMean(temperatures),
		TypeDistribution: distribution,
	}
}

// exactIntegerLimit is 2^52; float64 values at or beyond it have no fractional part to round
const exactIntegerLimit = 1 << 52

// roundedMean returns the arithmetic mean rounded half away from zero, or 0.0 for no values
func roundedMean(values []float64) float64 {
	if len(values) == 0 {
		return 0.0
	}

	mean := stat.Mean(values, nil)
	if math.IsInf(mean, 0) {
		mean = scaledMean(values)
	}
	if math.IsNaN(mean) || math.IsInf(mean, 0) {
		return 0.0
	}
	if math.Abs(mean) >= exactIntegerLimit {
		return mean
	}

	rounded, err := stats.Round(mean, AveragePlaces)
	if err != nil {
		return 0.0
	}
	return rounded
}

// scaledMean sums x/n so that finite inputs whose plain sum overflows still yield a finite mean
func scaledMean(values []float64) float64 {
	n := float64(len(values))
	var mean float64
	for _, v := range values {
		mean += v / n
	}
	return mean
}
