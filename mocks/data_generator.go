package mocks

import (
	"hash/fnv"
	"math"
	"math/rand"
	"time"

	"github.com/moznion/go-optional"

	"github.com/rxtech-lab/argo-lean-data/internal/types"
)

// DataGenerator generates realistic daily bars for testing.
type DataGenerator struct {
	rng *rand.Rand
}

// NewDataGenerator creates a new DataGenerator with the given seed.
// Use a fixed seed for reproducible results in tests.
func NewDataGenerator(seed int64) *DataGenerator {
	return &DataGenerator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// GeneratorConfig configures how bars are generated.
type GeneratorConfig struct {
	// StartDate is the date of the first bar
	StartDate time.Time
	// Count is the number of bars to generate
	Count int
	// SkipWeekends leaves out Saturdays and Sundays like an equity calendar
	SkipWeekends bool
	// InitialPrice is the starting price
	InitialPrice float64
	// Volatility controls price movement (0.01 = 1% typical daily volatility)
	Volatility float64
	// Trend is the drift factor (-0.01 to 0.01 for bearish to bullish)
	Trend float64
	// VolumeBase is the average volume per bar; zero produces volume-less bars like forex
	VolumeBase float64
	// VolumeVariance is the variance in volume (0.0 to 1.0)
	VolumeVariance float64
	// AdjClose populates the adjusted close as a fraction of close when non zero
	AdjClose float64
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		StartDate:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Count:          250,
		InitialPrice:   100.0,
		Volatility:     0.02, // 2% per day
		Trend:          0.0,
		VolumeBase:     1_000_000,
		VolumeVariance: 0.3,
	}
}

// Generate creates daily bars following a geometric Brownian motion model.
func (g *DataGenerator) Generate(config GeneratorConfig) []types.Bar {
	bars := make([]types.Bar, 0, config.Count)
	currentPrice := config.InitialPrice
	currentDate := types.Date(config.StartDate)

	for len(bars) < config.Count {
		if config.SkipWeekends && isWeekend(currentDate) {
			currentDate = currentDate.AddDate(0, 0, 1)

			continue
		}

		open := currentPrice

		// Box-Muller transform for normal distribution
		u1 := g.rng.Float64()
		u2 := g.rng.Float64()
		z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)

		priceChange := config.Volatility * z
		drift := config.Trend / float64(config.Count)

		close := open * (1 + priceChange + drift)
		if close <= 0 {
			close = open * 0.99
		}

		highExtension := math.Abs(g.rng.Float64() * config.Volatility * open * 0.5)
		lowExtension := math.Abs(g.rng.Float64() * config.Volatility * open * 0.5)

		high := math.Max(open, close) + highExtension
		low := math.Min(open, close) - lowExtension
		if low <= 0 {
			low = math.Min(open, close) * 0.99
		}

		volume := 0.0
		if config.VolumeBase > 0 {
			volume = config.VolumeBase * (1.0 + (g.rng.Float64()*2-1)*config.VolumeVariance)
			if volume < 0 {
				volume = config.VolumeBase * 0.1
			}
		}

		bar := types.Bar{
			Time:     currentDate,
			Open:     roundToDecimals(open, 4),
			High:     roundToDecimals(high, 4),
			Low:      roundToDecimals(low, 4),
			Close:    roundToDecimals(close, 4),
			Volume:   math.Round(volume),
			AdjClose: optional.None[float64](),
		}

		if config.AdjClose != 0 {
			bar.AdjClose = optional.Some(roundToDecimals(close*config.AdjClose, 4))
		}

		bars = append(bars, bar)

		currentPrice = close
		currentDate = currentDate.AddDate(0, 0, 1)
	}

	return bars
}

// GenerateMultiSymbol generates bars for multiple symbols keyed by symbol.
func (g *DataGenerator) GenerateMultiSymbol(symbols []string, baseConfig GeneratorConfig) map[string][]types.Bar {
	all := make(map[string][]types.Bar, len(symbols))

	for _, symbol := range symbols {
		config := baseConfig
		// Vary initial price and volatility slightly per symbol
		config.InitialPrice = baseConfig.InitialPrice * (0.8 + g.rng.Float64()*0.4)
		config.Volatility = baseConfig.Volatility * (0.8 + g.rng.Float64()*0.4)

		all[symbol] = g.Generate(config)
	}

	return all
}

// GenerateDailyBars generates count consecutive calendar-day bars starting at start.
// The series is seeded from the symbol so the same symbol always yields the same bars.
func GenerateDailyBars(symbol string, start time.Time, count int) []types.Bar {
	gen := NewDataGenerator(symbolSeed(symbol))
	config := DefaultConfig()
	config.StartDate = start
	config.Count = count

	return gen.Generate(config)
}

func symbolSeed(symbol string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(symbol))

	return int64(h.Sum64() & math.MaxInt64)
}

func isWeekend(t time.Time) bool {
	return t.Weekday() == time.Saturday || t.Weekday() == time.Sunday
}

// roundToDecimals rounds a float64 to the specified number of decimal places.
func roundToDecimals(val float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(val*pow) / pow
}
