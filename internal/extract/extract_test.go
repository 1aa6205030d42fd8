package extract

import (
	"strings"
	"testing"
	"time"

	"signal-copier-go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestExtractor() *Extractor {
	return New(zap.NewNop(), 250*time.Millisecond)
}

func instantProfile(pattern string) *models.ChannelProfile {
	p := models.DefaultChannelProfile(0)
	p.TradingMode = models.ModeInstant
	p.ParserRegex = pattern
	return p
}

func preciseProfile(pattern string) *models.ChannelProfile {
	p := models.DefaultChannelProfile(0)
	p.TradingMode = models.ModePrecise
	p.ParserRegex = pattern
	return p
}

func TestExtract_InstantMode(t *testing.T) {
	// Arrange
	e := newTestExtractor()
	profile := instantProfile(`(?<direction>buy|sell)`)
	profile.InstantSLPips = 350
	profile.InstantTPPips = 150

	// Act
	signal, err := e.Extract(profile, "Strong setup, BUY now!")

	// Assert
	assert.NoError(t, err)
	assert.NotNil(t, signal)
	assert.Equal(t, "BUY", signal.Direction)
	assert.Equal(t, "XAUUSD", signal.Symbol) // default when no symbol group
	assert.Equal(t, 350.0, signal.SL)
	assert.Equal(t, 150.0, signal.TP)
	assert.Equal(t, models.ParamPips, signal.ParameterType)
}

func TestExtract_InstantMode_NoDirection(t *testing.T) {
	e := newTestExtractor()
	profile := instantProfile(`signal\s+(?<direction>buy|sell)?`)

	signal, err := e.Extract(profile, "signal incoming")

	assert.NoError(t, err)
	assert.Nil(t, signal)
}

func TestExtract_PreciseMode(t *testing.T) {
	// Arrange
	e := newTestExtractor()
	profile := preciseProfile(
		`(?<direction>buy|sell)\s+(?<symbol>[a-z/]+).*entry[:\s]+(?<entry>[\d.]+).*sl[:\s]+(?<sl>[\d.]+).*tp[:\s]+(?<tp>[\d.]+)`)

	// The pattern must match across newlines (Singleline evaluation).
	text := "Buy xau/usd\nEntry: 1912.5\nSL: 1900\nTP: 1950.25"

	// Act
	signal, err := e.Extract(profile, text)

	// Assert
	assert.NoError(t, err)
	assert.NotNil(t, signal)
	assert.Equal(t, "BUY", signal.Direction)
	assert.Equal(t, "XAUUSD", signal.Symbol) // uppercased, slash stripped
	assert.Equal(t, 1912.5, signal.Entry)
	assert.Equal(t, 1900.0, signal.SL)
	assert.Equal(t, 1950.25, signal.TP)
	assert.Equal(t, models.ParamPrice, signal.ParameterType)
}

func TestExtract_PreciseMode_MissingTakeProfit(t *testing.T) {
	e := newTestExtractor()
	profile := preciseProfile(
		`(?<direction>buy|sell).*sl[:\s]+(?<sl>[\d.]+)(?:.*tp[:\s]+(?<tp>[\d.]+))?`)

	// No tp in the text, so the optional group defaults the value to 0.
	signal, err := e.Extract(profile, "sell entry 100 sl 98")

	assert.NoError(t, err)
	assert.Nil(t, signal)
}

func TestExtract_PatternMismatch(t *testing.T) {
	e := newTestExtractor()
	profile := instantProfile(`(?<direction>buy|sell)`)

	signal, err := e.Extract(profile, "good morning traders")

	assert.NoError(t, err)
	assert.Nil(t, signal)
}

func TestExtract_InvalidPattern(t *testing.T) {
	e := newTestExtractor()
	profile := instantProfile(`(?<direction>buy|sell`)

	signal, err := e.Extract(profile, "buy")

	assert.Error(t, err)
	assert.Nil(t, signal)
	assert.Contains(t, err.Error(), "invalid pattern")
}

func TestExtract_UnknownTradingMode(t *testing.T) {
	e := newTestExtractor()
	profile := instantProfile(`(?<direction>buy|sell)`)
	profile.TradingMode = "turbo"

	signal, err := e.Extract(profile, "buy")

	assert.NoError(t, err)
	assert.Nil(t, signal)
}

func TestExtract_PythonStyleNamedGroups(t *testing.T) {
	// Patterns written for the original listener spell named groups the
	// Python way, (?P<name>...); they must keep parsing unchanged.
	e := newTestExtractor()
	profile := preciseProfile(
		`(?P<direction>buy|sell).*sl[:\s]+(?P<sl>[\d.]+).*tp[:\s]+(?P<tp>[\d.]+)`)

	signal, err := e.Extract(profile, "SELL gold now\nsl: 1900\ntp: 1850.5")

	assert.NoError(t, err)
	require.NotNil(t, signal)
	assert.Equal(t, "SELL", signal.Direction)
	assert.Equal(t, 1900.0, signal.SL)
	assert.Equal(t, 1850.5, signal.TP)
	assert.Equal(t, models.ParamPrice, signal.ParameterType)
}

func TestExtract_PathologicalPatternTimesOut(t *testing.T) {
	// A catastrophically backtracking pattern must hit the match timeout
	// and degrade to an evaluation error instead of stalling the caller.
	e := New(zap.NewNop(), 50*time.Millisecond)
	profile := instantProfile(`(?<direction>(a+)+$)`)
	text := strings.Repeat("a", 64) + "b"

	start := time.Now()
	signal, err := e.Extract(profile, text)

	assert.Error(t, err)
	assert.Nil(t, signal)
	assert.Contains(t, err.Error(), "pattern evaluation failed")
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestExtract_CaseInsensitive(t *testing.T) {
	e := newTestExtractor()
	profile := instantProfile(`(?<direction>BUY|SELL)\s+(?<symbol>eurusd)`)

	signal, err := e.Extract(profile, "sell EurUsd at market")

	assert.NoError(t, err)
	assert.NotNil(t, signal)
	assert.Equal(t, "SELL", signal.Direction)
	assert.Equal(t, "EURUSD", signal.Symbol)
}
