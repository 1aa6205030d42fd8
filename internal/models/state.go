package models

import "time"

// Ring capacities for the observability buffers. Oldest entries are
// dropped once a buffer is full.
const (
	ActivityLogCapacity = 200
	SignalFeedCapacity  = 50
)

// GlobalSettings are operator-wide knobs, independent of any channel.
type GlobalSettings struct {
	AccountBalance float64 `json:"account_balance"`
}

// AccountRecord is the last known balance for one magic number.
type AccountRecord struct {
	Balance float64 `json:"balance"`
}

// ActivityEntry is one line of the operator-visible activity log.
type ActivityEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
}

// FeedEntry is one produced signal in the observability feed, recorded
// before the profile policy is merged in.
type FeedEntry struct {
	Timestamp time.Time `json:"timestamp"`
	ChannelID string    `json:"channel_id"`
	Signal    Signal    `json:"signal_data"`
}

// State is the whole persisted document: global settings, channel
// profiles keyed by channel id, account balances keyed by magic number,
// and the two bounded observability buffers. Delivery queues are not part
// of the document; they are rebuilt empty on restart.
type State struct {
	GlobalSettings GlobalSettings             `json:"global_settings"`
	Channels       map[string]*ChannelProfile `json:"channels"`
	Accounts       map[string]*AccountRecord  `json:"accounts"`
	ActivityLog    []ActivityEntry            `json:"activity_log"`
	SignalFeed     []FeedEntry                `json:"signal_feed"`
}

// NewState returns an empty state with all sections present.
func NewState() *State {
	return &State{
		Channels:    map[string]*ChannelProfile{},
		Accounts:    map[string]*AccountRecord{},
		ActivityLog: []ActivityEntry{},
		SignalFeed:  []FeedEntry{},
	}
}

// Normalize backfills sections and per-profile fields that older persisted
// documents may lack, so a state loaded from any prior version is valid.
func (s *State) Normalize() {
	if s.Channels == nil {
		s.Channels = map[string]*ChannelProfile{}
	}
	if s.Accounts == nil {
		s.Accounts = map[string]*AccountRecord{}
	}
	if s.ActivityLog == nil {
		s.ActivityLog = []ActivityEntry{}
	}
	if s.SignalFeed == nil {
		s.SignalFeed = []FeedEntry{}
	}
	for _, p := range s.Channels {
		p.ApplyDefaults()
	}
}

// AppendActivity prepends a log entry, evicting the oldest beyond capacity.
func (s *State) AppendActivity(e ActivityEntry) {
	s.ActivityLog = append([]ActivityEntry{e}, s.ActivityLog...)
	if len(s.ActivityLog) > ActivityLogCapacity {
		s.ActivityLog = s.ActivityLog[:ActivityLogCapacity]
	}
}

// AppendFeed prepends a feed entry, evicting the oldest beyond capacity.
func (s *State) AppendFeed(e FeedEntry) {
	s.SignalFeed = append([]FeedEntry{e}, s.SignalFeed...)
	if len(s.SignalFeed) > SignalFeedCapacity {
		s.SignalFeed = s.SignalFeed[:SignalFeedCapacity]
	}
}

// Clone returns a deep copy of the state.
func (s *State) Clone() *State {
	cp := &State{
		GlobalSettings: s.GlobalSettings,
		Channels:       make(map[string]*ChannelProfile, len(s.Channels)),
		Accounts:       make(map[string]*AccountRecord, len(s.Accounts)),
		ActivityLog:    make([]ActivityEntry, len(s.ActivityLog)),
		SignalFeed:     make([]FeedEntry, len(s.SignalFeed)),
	}
	for id, p := range s.Channels {
		cp.Channels[id] = p.Clone()
	}
	for key, a := range s.Accounts {
		record := *a
		cp.Accounts[key] = &record
	}
	copy(cp.ActivityLog, s.ActivityLog)
	copy(cp.SignalFeed, s.SignalFeed)
	return cp
}
