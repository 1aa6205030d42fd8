package engine

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"signal-copier-go/internal/models"
)

// errUnknownField marks an update field no profile setting corresponds to.
// Unknown fields are silently ignored so request envelopes can carry extra
// keys (channel_id, csrf tokens) alongside the settings.
var errUnknownField = errors.New("unknown field")

// applyProfileField coerces value to the field's declared type and assigns
// it. The field set is an explicit schema: only the names listed here are
// ever written, regardless of what the request contains.
func applyProfileField(p *models.ChannelProfile, name string, value any) error {
	switch name {
	case "channel_name":
		return setString(&p.ChannelName, value)
	case "parser_regex":
		return setString(&p.ParserRegex, value)
	case "trading_mode":
		return setString(&p.TradingMode, value)
	case "cbot_magic_number":
		return setInt64(&p.CBotMagicNumber, value)
	case "is_active":
		return setBool(&p.IsActive, value)
	case "lot_size":
		return setFloat(&p.LotSize, value)
	case "instant_sl_pips":
		return setInt(&p.InstantSLPips, value)
	case "instant_tp_pips":
		return setInt(&p.InstantTPPips, value)
	case "trailing_stop_enabled":
		return setBool(&p.TrailingStopEnabled, value)
	case "trailing_pips":
		return setInt(&p.TrailingPips, value)
	case "recovery_trade_enabled":
		return setBool(&p.RecoveryTradeEnabled, value)
	case "recovery_pips_loss":
		return setInt(&p.RecoveryPipsLoss, value)
	case "recovery_lot_size":
		return setFloat(&p.RecoveryLotSize, value)
	case "recovery_sl_pips":
		return setInt(&p.RecoverySLPips, value)
	case "recovery_tp_pips":
		return setInt(&p.RecoveryTPPips, value)
	case "max_lot_enabled":
		return setBool(&p.MaxLotEnabled, value)
	case "max_lot_base_currency":
		return setFloat(&p.MaxLotBaseCurrency, value)
	case "max_lot_base_lots":
		return setFloat(&p.MaxLotBaseLots, value)
	case "starting_balance":
		return setFloat(&p.StartingBalance, value)
	default:
		return errUnknownField
	}
}

func setString(dst *string, value any) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	*dst = s
	return nil
}

func setBool(dst *bool, value any) error {
	switch v := value.(type) {
	case bool:
		*dst = v
	case string:
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("expected bool, got %q", v)
		}
		*dst = b
	case float64:
		*dst = v != 0
	default:
		return fmt.Errorf("expected bool, got %T", value)
	}
	return nil
}

// setFloat accepts JSON numbers and numeric strings (the dashboard posts
// form values as strings).
func setFloat(dst *float64, value any) error {
	switch v := value.(type) {
	case float64:
		*dst = v
	case int:
		*dst = float64(v)
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("expected number, got %q", v)
		}
		*dst = f
	default:
		return fmt.Errorf("expected number, got %T", value)
	}
	return nil
}

// setInt truncates float-valued input toward zero.
func setInt(dst *int, value any) error {
	var f float64
	if err := setFloat(&f, value); err != nil {
		return err
	}
	*dst = int(math.Trunc(f))
	return nil
}

func setInt64(dst *int64, value any) error {
	var f float64
	if err := setFloat(&f, value); err != nil {
		return err
	}
	*dst = int64(math.Trunc(f))
	return nil
}
