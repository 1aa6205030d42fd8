package store

import (
	"testing"
	"time"

	"signal-copier-go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTest opens a fresh in-memory store per test for isolation.
func setupTest(t *testing.T) *Store {
	st, err := New("file::memory:")
	require.NoError(t, err)
	return st
}

func TestLoad_FreshDatabase(t *testing.T) {
	st := setupTest(t)

	state, err := st.Load()

	assert.NoError(t, err)
	require.NotNil(t, state)
	assert.Empty(t, state.Channels)
	assert.Empty(t, state.Accounts)
	assert.NotNil(t, state.ActivityLog)
	assert.NotNil(t, state.SignalFeed)
}

func TestSaveLoad_Roundtrip(t *testing.T) {
	// Arrange
	st := setupTest(t)
	state := models.NewState()
	state.GlobalSettings.AccountBalance = 2500

	profile := models.DefaultChannelProfile(2500)
	profile.ChannelName = "Gold Signals"
	profile.CBotMagicNumber = 7
	profile.ParserRegex = `(?<direction>buy|sell)`
	profile.TradeHistory = []models.TradeRecord{{
		Timestamp: time.Now().UTC(), Symbol: "XAUUSD", Direction: "BUY",
		Pips: 50, USDProfit: 120.5,
	}}
	profile.RecomputeTotals()
	state.Channels["1001"] = profile
	state.Accounts["7"] = &models.AccountRecord{Balance: 1120.5}
	state.AppendActivity(models.ActivityEntry{
		Timestamp: time.Now().UTC(), Level: "INFO", Message: "hello",
	})

	// Act
	require.NoError(t, st.Save(state))
	loaded, err := st.Load()

	// Assert
	assert.NoError(t, err)
	got := loaded.Channels["1001"]
	require.NotNil(t, got)
	assert.Equal(t, "Gold Signals", got.ChannelName)
	assert.Equal(t, int64(7), got.CBotMagicNumber)
	assert.Equal(t, 50.0, got.TotalPips)
	assert.Equal(t, 120.5, got.TotalUSD)
	require.Len(t, got.TradeHistory, 1)
	assert.Equal(t, "XAUUSD", got.TradeHistory[0].Symbol)
	require.NotNil(t, loaded.Accounts["7"])
	assert.Equal(t, 1120.5, loaded.Accounts["7"].Balance)
	require.Len(t, loaded.ActivityLog, 1)
	assert.Equal(t, "hello", loaded.ActivityLog[0].Message)
	assert.Equal(t, 2500.0, loaded.GlobalSettings.AccountBalance)
}

func TestLoad_BackfillsMissingSectionsAndFields(t *testing.T) {
	// Arrange: a document written by an older version, with no signal_feed
	// section and a profile lacking several settings.
	st := setupTest(t)
	doc := `{
		"channels": {
			"1001": {"parser_regex": "buy", "cbot_magic_number": 7}
		}
	}`
	require.NoError(t, st.db.Create(&StateSnapshot{Document: []byte(doc)}).Error)

	// Act
	state, err := st.Load()

	// Assert
	assert.NoError(t, err)
	assert.NotNil(t, state.SignalFeed)
	assert.Empty(t, state.SignalFeed)
	assert.NotNil(t, state.Accounts)

	profile := state.Channels["1001"]
	require.NotNil(t, profile)
	assert.Equal(t, models.PlaceholderChannelName, profile.ChannelName)
	assert.Equal(t, 500, profile.InstantSLPips)
	assert.Equal(t, 200, profile.InstantTPPips)
	assert.Equal(t, 500, profile.RecoverySLPips)
	assert.Equal(t, 100, profile.RecoveryTPPips)
	assert.Equal(t, 1000.0, profile.StartingBalance)
	assert.NotNil(t, profile.TradeHistory)
}

func TestLoad_NewestSnapshotWins(t *testing.T) {
	st := setupTest(t)

	first := models.NewState()
	first.GlobalSettings.AccountBalance = 1
	require.NoError(t, st.Save(first))

	second := models.NewState()
	second.GlobalSettings.AccountBalance = 2
	require.NoError(t, st.Save(second))

	loaded, err := st.Load()

	assert.NoError(t, err)
	assert.Equal(t, 2.0, loaded.GlobalSettings.AccountBalance)
}

func TestSave_PrunesOldSnapshots(t *testing.T) {
	st := setupTest(t)
	state := models.NewState()

	for i := 0; i < snapshotRetention+10; i++ {
		require.NoError(t, st.Save(state))
	}

	var count int64
	require.NoError(t, st.db.Model(&StateSnapshot{}).Count(&count).Error)
	assert.Equal(t, int64(snapshotRetention), count)
}

func TestLoad_CorruptSnapshot(t *testing.T) {
	st := setupTest(t)
	require.NoError(t, st.db.Create(&StateSnapshot{Document: []byte("{not json")}).Error)

	state, err := st.Load()

	assert.Error(t, err)
	assert.Nil(t, state)
}
