package models

// Parameter types tell the consuming cBot how to read a signal's sl/tp:
// pip distances from entry, or absolute prices.
const (
	ParamPips  = "pips"
	ParamPrice = "price"
)

// Signal is a fully resolved trade instruction. Direction, Symbol, Entry,
// SL, TP and ParameterType come from the extractor; the remaining fields
// are merged in from the originating channel's profile so the cBot gets a
// self-contained instruction.
type Signal struct {
	Direction     string  `json:"direction"`
	Symbol        string  `json:"symbol"`
	Entry         float64 `json:"entry,omitempty"`
	SL            float64 `json:"sl"`
	TP            float64 `json:"tp"`
	ParameterType string  `json:"parameter_type"`
	ChannelID     string  `json:"channel_id,omitempty"`

	LotSize              float64 `json:"lot_size,omitempty"`
	TrailingStopEnabled  bool    `json:"trailing_stop_enabled,omitempty"`
	TrailingPips         int     `json:"trailing_pips,omitempty"`
	RecoveryTradeEnabled bool    `json:"recovery_trade_enabled,omitempty"`
	RecoveryPipsLoss     int     `json:"recovery_pips_loss,omitempty"`
	RecoveryLotSize      float64 `json:"recovery_lot_size,omitempty"`
	RecoverySLPips       int     `json:"recovery_sl_pips,omitempty"`
	RecoveryTPPips       int     `json:"recovery_tp_pips,omitempty"`
	MaxLotEnabled        bool    `json:"max_lot_enabled,omitempty"`
	MaxLotBaseCurrency   float64 `json:"max_lot_base_currency,omitempty"`
	MaxLotBaseLots       float64 `json:"max_lot_base_lots,omitempty"`
}

// MergePolicy copies the sizing and policy fields of the owning profile
// into the signal.
func (s *Signal) MergePolicy(p *ChannelProfile) {
	s.LotSize = p.LotSize
	s.TrailingStopEnabled = p.TrailingStopEnabled
	s.TrailingPips = p.TrailingPips
	s.RecoveryTradeEnabled = p.RecoveryTradeEnabled
	s.RecoveryPipsLoss = p.RecoveryPipsLoss
	s.RecoveryLotSize = p.RecoveryLotSize
	s.RecoverySLPips = p.RecoverySLPips
	s.RecoveryTPPips = p.RecoveryTPPips
	s.MaxLotEnabled = p.MaxLotEnabled
	s.MaxLotBaseCurrency = p.MaxLotBaseCurrency
	s.MaxLotBaseLots = p.MaxLotBaseLots
}
