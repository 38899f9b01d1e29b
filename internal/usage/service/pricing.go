package service

import (
	"time"

	"github.com/shopspring/decimal"
)

// Fixed pricing, integer paise per unit. At the 1 paise/GB-hour floor a
// small resource produces fractions of a paise per sample, which is why
// record costs keep fractional precision until aggregation.
const (
	computeRatePaisePerHour           = 500
	blockStorageRatePaisePerGBHour    = 1
	objectStorageRatePaisePerGBHour   = 1
	bandwidthRatePaisePerGB           = 1200
	kubernetesRatePaisePerNodeHour    = 1000
	databaseComputeRatePaisePerHour   = 500
	databaseStorageRatePaisePerGBHour = 1
)

const (
	metricRuntime  = "runtime"
	metricStorage  = "storage"
	metricTransfer = "transfer"

	unitHours     = "hours"
	unitGBHours   = "GB-hours"
	unitGB        = "GB"
	unitNodeHours = "node-hours"
)

var (
	secondsPerHour = decimal.NewFromInt(3600)
	bytesPerGB     = decimal.NewFromInt(1 << 30)
)

func hoursBetween(start, end time.Time) decimal.Decimal {
	if !end.After(start) {
		return decimal.Zero
	}
	seconds := int64(end.Sub(start) / time.Second)
	return decimal.NewFromInt(seconds).Div(secondsPerHour)
}

func bytesToGB(sizeBytes int64) decimal.Decimal {
	if sizeBytes <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(sizeBytes).Div(bytesPerGB)
}
