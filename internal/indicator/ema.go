package indicator

// EMA calculates the Exponential Moving Average of a price series.
// The output is index-aligned with the input: result[i] is the EMA at
// prices[i], seeded with the first price. An empty input or a period <= 0
// yields an empty slice, which callers treat as "insufficient data" rather
// than an error.
func EMA(prices []float64, period int) []float64 {
	if len(prices) == 0 || period <= 0 {
		return []float64{}
	}

	result := make([]float64, 0, len(prices))
	multiplier := 2.0 / float64(period+1)

	ema := prices[0]
	result = append(result, ema)

	for i := 1; i < len(prices); i++ {
		ema = prices[i]*multiplier + ema*(1-multiplier)
		result = append(result, ema)
	}

	return result
}
