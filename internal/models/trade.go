package models

import "time"

// TradeRecord is one closed trade as reported by a cBot.
type TradeRecord struct {
	Timestamp  time.Time `json:"timestamp"`
	Symbol     string    `json:"symbol"`
	Direction  string    `json:"direction"`
	Pips       float64   `json:"pips"`
	USDProfit  float64   `json:"usd_profit"`
	EntryPrice float64   `json:"entry_price"`
	ClosePrice float64   `json:"close_price"`
}

// CloseReport is the payload a cBot sends when it closes a trade.
type CloseReport struct {
	MagicNumber    int64   `json:"magic_number"`
	Symbol         string  `json:"symbol"`
	Direction      string  `json:"direction"`
	Pips           float64 `json:"pips"`
	USDProfit      float64 `json:"usd_profit"`
	EntryPrice     float64 `json:"entry_price"`
	ClosePrice     float64 `json:"close_price"`
	AccountBalance float64 `json:"account_balance"`
}
