package extract

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"signal-copier-go/internal/models"

	"github.com/dlclark/regexp2"
	"go.uber.org/zap"
)

// defaultSymbol is assumed when a pattern captures no symbol group.
const defaultSymbol = "XAUUSD"

// Extractor evaluates per-channel patterns against raw message text and
// produces trade signals. Pattern evaluation runs under a match timeout so
// a pathological pattern cannot stall the message loop.
type Extractor struct {
	logger       *zap.Logger
	matchTimeout time.Duration
}

// New creates an Extractor with the given per-match evaluation budget.
func New(logger *zap.Logger, matchTimeout time.Duration) *Extractor {
	return &Extractor{logger: logger, matchTimeout: matchTimeout}
}

// Extract applies the profile's pattern to rawText. It returns the parsed
// signal, or (nil, nil) when the text does not produce one, or (nil, err)
// when the pattern itself failed to compile or evaluate. It never panics
// past this boundary.
func (e *Extractor) Extract(profile *models.ChannelProfile, rawText string) (*models.Signal, error) {
	re, err := regexp2.Compile(normalizePattern(profile.ParserRegex), regexp2.IgnoreCase|regexp2.Singleline)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern: %w", err)
	}
	re.MatchTimeout = e.matchTimeout

	m, err := re.FindStringMatch(rawText)
	if err != nil {
		// Timeout or other evaluation failure.
		return nil, fmt.Errorf("pattern evaluation failed: %w", err)
	}
	if m == nil {
		return nil, nil
	}

	direction := strings.ToUpper(groupValue(m, "direction"))
	symbol := groupValue(m, "symbol")
	if symbol == "" {
		symbol = defaultSymbol
	}
	symbol = strings.ToUpper(strings.ReplaceAll(symbol, "/", ""))

	switch profile.TradingMode {
	case models.ModePrecise:
		sl := groupFloat(m, "sl")
		tp := groupFloat(m, "tp")
		if direction == "" || sl == 0 || tp == 0 {
			return nil, nil
		}
		return &models.Signal{
			Direction:     direction,
			Symbol:        symbol,
			Entry:         groupFloat(m, "entry"),
			SL:            sl,
			TP:            tp,
			ParameterType: models.ParamPrice,
		}, nil
	case models.ModeInstant:
		if direction == "" {
			return nil, nil
		}
		return &models.Signal{
			Direction:     direction,
			Symbol:        symbol,
			SL:            float64(profile.InstantSLPips),
			TP:            float64(profile.InstantTPPips),
			ParameterType: models.ParamPips,
		}, nil
	default:
		e.logger.Warn("Unknown trading mode, treating as no match",
			zap.String("trading_mode", profile.TradingMode))
		return nil, nil
	}
}

// normalizePattern rewrites Python-dialect named groups (?P<name>...) to
// the (?<name>...) form regexp2 understands. Operator patterns written for
// the original listener use the Python spelling and must keep working.
func normalizePattern(pattern string) string {
	return strings.ReplaceAll(pattern, "(?P<", "(?<")
}

// groupValue returns the substring captured by a named group, or "" when
// the group is absent from the pattern or did not participate.
func groupValue(m *regexp2.Match, name string) string {
	g := m.GroupByName(name)
	if g == nil || len(g.Captures) == 0 {
		return ""
	}
	return g.Captures[len(g.Captures)-1].String()
}

// groupFloat parses a captured group as a float, defaulting to 0 when the
// group is absent or unparseable.
func groupFloat(m *regexp2.Match, name string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(groupValue(m, name)), 64)
	if err != nil {
		return 0
	}
	return v
}
