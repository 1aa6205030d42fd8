package engine

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"signal-copier-go/internal/extract"
	"signal-copier-go/internal/models"

	"go.uber.org/zap"
)

// Operator-distinguishable failures.
var (
	ErrChannelNotFound = errors.New("channel not found")
	ErrChannelExists   = errors.New("channel already exists")
)

// Activity log levels. SUCCESS mirrors the operator dashboard's convention
// of highlighting completed actions; it maps to INFO in the zap output.
const (
	LevelInfo    = "INFO"
	LevelSuccess = "SUCCESS"
	LevelWarn    = "WARN"
	LevelError   = "ERROR"
)

// Store is the durable-state contract the engine depends on.
type Store interface {
	Load() (*models.State, error)
	Save(*models.State) error
}

// Engine owns all shared state: channel profiles, account records, the
// activity log, the signal feed and the per-magic-number delivery queues.
// Every operation goes through its mutex; every mutation persists before
// returning. The in-memory state is authoritative for the whole process
// lifetime — it is loaded once at startup and never reloaded, so operator
// edits cannot be clobbered by the message loop.
type Engine struct {
	logger    *zap.Logger
	store     Store
	extractor *extract.Extractor

	mu     sync.RWMutex
	state  *models.State
	queues map[int64][]*models.Signal
}

// New loads the persisted state and returns a ready engine.
func New(logger *zap.Logger, store Store, extractor *extract.Extractor) (*Engine, error) {
	state, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("could not load state: %w", err)
	}
	return &Engine{
		logger:    logger,
		store:     store,
		extractor: extractor,
		state:     state,
		queues:    make(map[int64][]*models.Signal),
	}, nil
}

// mutate runs fn under the write lock and persists the resulting state.
// If persisting fails, both the state and the queues are restored to the
// pre-mutation snapshot so memory never diverges from what the store
// acknowledged. An error from fn does not abort the save: failed
// operations still append their activity-log entries.
func (e *Engine) mutate(fn func(s *models.State) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	prevState := e.state.Clone()
	prevQueues := cloneQueues(e.queues)

	opErr := fn(e.state)

	if err := e.store.Save(e.state); err != nil {
		e.state = prevState
		e.queues = prevQueues
		return fmt.Errorf("could not persist state: %w", err)
	}
	return opErr
}

// logActivity appends to the in-state activity log and mirrors the line to
// the structured logger.
func (e *Engine) logActivity(s *models.State, level, message string) {
	s.AppendActivity(models.ActivityEntry{
		Timestamp: time.Now(),
		Level:     level,
		Message:   message,
	})
	switch level {
	case LevelWarn:
		e.logger.Warn(message)
	case LevelError:
		e.logger.Error(message)
	default:
		e.logger.Info(message)
	}
}

// OnMessage handles one inbound channel message: name discovery, pattern
// extraction and dispatch into the owning magic number's queue.
func (e *Engine) OnMessage(channelID, rawText, discoveredTitle string) error {
	// Messages from unconfigured or paused channels change nothing; skip
	// them before the write path so they do not produce a snapshot each.
	// The profile is rechecked under the write lock below.
	e.mu.RLock()
	profile, ok := e.state.Channels[channelID]
	relevant := ok && profile.IsActive
	e.mu.RUnlock()
	if !relevant {
		return nil
	}

	return e.mutate(func(s *models.State) error {
		profile, ok := s.Channels[channelID]
		if !ok || !profile.IsActive {
			return nil
		}

		if profile.ChannelName == models.PlaceholderChannelName && discoveredTitle != "" {
			profile.ChannelName = discoveredTitle
			e.logActivity(s, LevelSuccess,
				fmt.Sprintf("Discovered name for %s: %q", channelID, discoveredTitle))
		}

		e.logActivity(s, LevelInfo, fmt.Sprintf("Message received from %s.", profile.ChannelName))

		if profile.ParserRegex == "" {
			e.logActivity(s, LevelWarn,
				fmt.Sprintf("No parser pattern for %s. Skipping.", profile.ChannelName))
			return nil
		}

		signal, err := e.extractor.Extract(profile, rawText)
		if err != nil {
			e.logActivity(s, LevelError,
				fmt.Sprintf("Error parsing message from %s: %v", profile.ChannelName, err))
			return nil
		}
		if signal == nil {
			e.logActivity(s, LevelWarn,
				fmt.Sprintf("Message from %s did not match its pattern for %q mode.",
					profile.ChannelName, profile.TradingMode))
			return nil
		}

		s.AppendFeed(models.FeedEntry{
			Timestamp: time.Now(),
			ChannelID: channelID,
			Signal:    *signal,
		})

		signal.MergePolicy(profile)
		signal.ChannelID = channelID

		if profile.CBotMagicNumber == 0 {
			e.logActivity(s, LevelWarn,
				fmt.Sprintf("Signal from %s ignored (no magic number assigned).", profile.ChannelName))
			return nil
		}

		if evicted := e.enqueue(profile.CBotMagicNumber, signal); evicted {
			e.logActivity(s, LevelWarn,
				fmt.Sprintf("Queue for magic number %d is full, dropped oldest signal.",
					profile.CBotMagicNumber))
		}
		e.logActivity(s, LevelInfo,
			fmt.Sprintf("Queued signal for magic number %d.", profile.CBotMagicNumber))
		return nil
	})
}

// CreateChannel registers a channel with default settings.
func (e *Engine) CreateChannel(channelID string) (*models.ChannelProfile, error) {
	if channelID == "" {
		return nil, errors.New("channel id is required")
	}
	var created *models.ChannelProfile
	err := e.mutate(func(s *models.State) error {
		if _, ok := s.Channels[channelID]; ok {
			return ErrChannelExists
		}
		profile := models.DefaultChannelProfile(s.GlobalSettings.AccountBalance)
		s.Channels[channelID] = profile
		e.logActivity(s, LevelSuccess, "Added new channel: "+channelID)
		created = profile.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateChannel applies a partial settings update. Unknown fields are
// ignored; a field whose value cannot be coerced is logged and skipped
// without aborting the rest.
func (e *Engine) UpdateChannel(channelID string, fields map[string]any) error {
	return e.mutate(func(s *models.State) error {
		profile, ok := s.Channels[channelID]
		if !ok {
			return ErrChannelNotFound
		}
		for name, value := range fields {
			if err := applyProfileField(profile, name, value); err != nil {
				if errors.Is(err, errUnknownField) {
					continue
				}
				e.logActivity(s, LevelWarn,
					fmt.Sprintf("Could not convert value for %s: %v", name, err))
			}
		}
		e.logActivity(s, LevelSuccess, "Updated settings for channel "+channelID)
		return nil
	})
}

// RemoveChannel deletes a channel profile. If no remaining channel routes
// to the removed channel's magic number, the matching account record is
// deleted with it so stale balances do not accumulate.
func (e *Engine) RemoveChannel(channelID string) error {
	return e.mutate(func(s *models.State) error {
		profile, ok := s.Channels[channelID]
		if !ok {
			e.logActivity(s, LevelError, "Failed to remove non-existent channel: "+channelID)
			return ErrChannelNotFound
		}
		magic := profile.CBotMagicNumber
		name := profile.ChannelName

		delete(s.Channels, channelID)
		e.logActivity(s, LevelSuccess, fmt.Sprintf("Removed channel %q (%s)", name, channelID))

		if magic == 0 {
			return nil
		}
		for _, other := range s.Channels {
			if other.CBotMagicNumber == magic {
				return nil
			}
		}
		magicKey := strconv.FormatInt(magic, 10)
		if _, ok := s.Accounts[magicKey]; ok {
			delete(s.Accounts, magicKey)
			e.logActivity(s, LevelInfo,
				"Cleaned up stale account data for magic number #"+magicKey)
		}
		return nil
	})
}

// ReportTradeClose folds a cBot's close report into the channel's ledger
// and refreshes the account balance for the report's magic number.
func (e *Engine) ReportTradeClose(channelID string, report models.CloseReport) error {
	return e.mutate(func(s *models.State) error {
		profile, ok := s.Channels[channelID]
		if !ok {
			e.logActivity(s, LevelError,
				"Rejected closed trade report for unknown channel: "+channelID)
			return ErrChannelNotFound
		}

		record := models.TradeRecord{
			Timestamp:  time.Now(),
			Symbol:     report.Symbol,
			Direction:  report.Direction,
			Pips:       report.Pips,
			USDProfit:  report.USDProfit,
			EntryPrice: report.EntryPrice,
			ClosePrice: report.ClosePrice,
		}
		profile.TradeHistory = append([]models.TradeRecord{record}, profile.TradeHistory...)
		profile.RecomputeTotals()

		magicKey := strconv.FormatInt(report.MagicNumber, 10)
		s.Accounts[magicKey] = &models.AccountRecord{Balance: report.AccountBalance}

		e.logActivity(s, LevelSuccess,
			fmt.Sprintf("Closed trade report [magic #%d]: %s %s | P/L: $%.2f",
				report.MagicNumber, record.Direction, record.Symbol, record.USDProfit))
		return nil
	})
}

// ListChannels returns a copy of every channel profile keyed by channel id.
func (e *Engine) ListChannels() map[string]*models.ChannelProfile {
	e.mu.RLock()
	defer e.mu.RUnlock()
	channels := make(map[string]*models.ChannelProfile, len(e.state.Channels))
	for id, p := range e.state.Channels {
		channels[id] = p.Clone()
	}
	return channels
}

// FullState returns a deep copy of the whole state document.
func (e *Engine) FullState() *models.State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.Clone()
}
