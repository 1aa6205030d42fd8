package models

// PlaceholderChannelName marks a profile whose real channel title has not
// been discovered yet. It is replaced exactly once, on the first message.
const PlaceholderChannelName = "Awaiting First Signal..."

// Trading modes supported by the signal extractor.
const (
	ModeInstant = "instant"
	ModePrecise = "precise"
)

// ChannelProfile is the per-channel configuration plus its trade ledger.
// TotalPips and TotalUSD are derived from TradeHistory and must only be
// written by RecomputeTotals.
type ChannelProfile struct {
	ChannelName          string        `json:"channel_name"`
	ParserRegex          string        `json:"parser_regex"`
	CBotMagicNumber      int64         `json:"cbot_magic_number"`
	IsActive             bool          `json:"is_active"`
	TradingMode          string        `json:"trading_mode"`
	LotSize              float64       `json:"lot_size"`
	InstantSLPips        int           `json:"instant_sl_pips"`
	InstantTPPips        int           `json:"instant_tp_pips"`
	TrailingStopEnabled  bool          `json:"trailing_stop_enabled"`
	TrailingPips         int           `json:"trailing_pips"`
	RecoveryTradeEnabled bool          `json:"recovery_trade_enabled"`
	RecoveryPipsLoss     int           `json:"recovery_pips_loss"`
	RecoveryLotSize      float64       `json:"recovery_lot_size"`
	RecoverySLPips       int           `json:"recovery_sl_pips"`
	RecoveryTPPips       int           `json:"recovery_tp_pips"`
	MaxLotEnabled        bool          `json:"max_lot_enabled"`
	MaxLotBaseCurrency   float64       `json:"max_lot_base_currency"`
	MaxLotBaseLots       float64       `json:"max_lot_base_lots"`
	StartingBalance      float64       `json:"starting_balance"`
	TradeHistory         []TradeRecord `json:"trade_history"`
	TotalPips            float64       `json:"total_pips"`
	TotalUSD             float64       `json:"total_usd"`
}

// DefaultChannelProfile returns a freshly registered channel. The starting
// balance follows the global account balance when one is known.
func DefaultChannelProfile(globalBalance float64) *ChannelProfile {
	balance := globalBalance
	if balance == 0 {
		balance = 1000
	}
	return &ChannelProfile{
		ChannelName:        PlaceholderChannelName,
		IsActive:           true,
		TradingMode:        ModeInstant,
		LotSize:            0.01,
		InstantSLPips:      500,
		InstantTPPips:      200,
		TrailingPips:       200,
		RecoveryPipsLoss:   100,
		RecoveryLotSize:    0.02,
		RecoverySLPips:     500,
		RecoveryTPPips:     100,
		MaxLotBaseCurrency: 100,
		MaxLotBaseLots:     0.01,
		StartingBalance:    balance,
		TradeHistory:       []TradeRecord{},
	}
}

// RecomputeTotals rebuilds both running totals from the full trade history.
// It deliberately avoids incremental updates so an edited or corrupted
// history self-heals on the next append.
func (p *ChannelProfile) RecomputeTotals() {
	var pips, usd float64
	for _, t := range p.TradeHistory {
		pips += t.Pips
		usd += t.USDProfit
	}
	p.TotalPips = pips
	p.TotalUSD = usd
}

// ApplyDefaults backfills fields that older persisted profiles may lack.
func (p *ChannelProfile) ApplyDefaults() {
	if p.ChannelName == "" {
		p.ChannelName = PlaceholderChannelName
	}
	if p.InstantSLPips == 0 {
		p.InstantSLPips = 500
	}
	if p.InstantTPPips == 0 {
		p.InstantTPPips = 200
	}
	if p.RecoverySLPips == 0 {
		p.RecoverySLPips = 500
	}
	if p.RecoveryTPPips == 0 {
		p.RecoveryTPPips = 100
	}
	if p.StartingBalance == 0 {
		p.StartingBalance = 1000
	}
	if p.TradeHistory == nil {
		p.TradeHistory = []TradeRecord{}
	}
}

// Clone returns a deep copy of the profile.
func (p *ChannelProfile) Clone() *ChannelProfile {
	cp := *p
	cp.TradeHistory = make([]TradeRecord, len(p.TradeHistory))
	copy(cp.TradeHistory, p.TradeHistory)
	return &cp
}
