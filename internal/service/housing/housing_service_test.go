package housing

import (
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"housingsweep/internal/codec"
	"housingsweep/internal/host"
	"housingsweep/internal/model"
	"housingsweep/internal/notify"
	"housingsweep/internal/service/history"
	"housingsweep/internal/service/scan"
)

var (
	mist      = model.ZoneKey{WorldID: 42, TerritoryID: 339}
	goblet    = model.ZoneKey{WorldID: 42, TerritoryID: 341}
	elsewhere = model.ZoneKey{WorldID: 43, TerritoryID: 339}
)

type fixture struct {
	clock    *clock.Mock
	bridge   *host.Bridge
	feed     *notify.Feed
	recorder *history.Recorder
	svc      *HousingService
}

func newFixture() *fixture {
	clk := clock.NewMock()
	f := &fixture{
		clock:    clk,
		bridge:   host.NewBridge(clk),
		feed:     notify.NewFeed(clk, notify.DefaultFeedSize),
		recorder: history.NewRecorder(clk),
	}
	f.bridge.SetSurfaceVisible(true)
	f.svc = New(Options{
		Clock:        clk,
		Host:         f.bridge,
		Notifier:     f.feed,
		Recorder:     f.recorder,
		SweepWindow:  10 * time.Minute,
		ScanThrottle: 100 * time.Millisecond,
	})
	return f
}

// awaitCommand lets the throttle window pass and waits for the host to be asked for ward
func (f *fixture) awaitCommand(t *testing.T, ward int16) {
	t.Helper()
	f.clock.Add(100 * time.Millisecond)
	require.Eventually(t, func() bool {
		for _, c := range f.bridge.Drain() {
			if c.WardNumber == ward {
				return true
			}
		}
		return false
	}, time.Second, time.Millisecond)
}

func record(zone model.ZoneKey, ward int16, prices ...uint32) []byte {
	w := &model.WardObservation{LandIdent: model.LandIdent{
		WardNumber:  ward,
		TerritoryID: zone.TerritoryID,
		WorldID:     zone.WorldID,
	}}
	for i, p := range prices {
		w.Plots[i].Price = p
	}
	return codec.Encode(w)
}

func messages(feed *notify.Feed) []string {
	var out []string
	for _, n := range feed.List() {
		out = append(out, string(n.Level)+": "+n.Message)
	}
	return out
}

func TestHandleWardInfoMergesDecodedWard(t *testing.T) {
	f := newFixture()

	w := &model.WardObservation{LandIdent: model.LandIdent{WardNumber: 5, TerritoryID: 339, WorldID: 42}}
	w.Plots[0].Price = 1_000_000
	w.Plots[1].Price = 10_000_000
	w.Plots[1].Flags = model.PlotOwned

	require.NoError(t, f.svc.HandleWardInfo(codec.Encode(w), nil))

	plots := f.svc.GetWard(mist, 5)
	require.Len(t, plots, model.PlotsPerWard)
	assert.Equal(t, model.SizeSmall, plots[0].SizeClass())
	assert.False(t, plots[0].Owned())
	assert.Equal(t, model.SizeMedium, plots[1].SizeClass())
	assert.True(t, plots[1].Owned())

	zone, ok := f.svc.CurrentZone()
	require.True(t, ok)
	assert.Equal(t, mist, zone)
	assert.Equal(t, 1, f.recorder.Pending())
}

func TestMalformedPayloadLeavesStateUntouched(t *testing.T) {
	f := newFixture()

	err := f.svc.HandleWardInfo(make([]byte, codec.WardRecordSize-1), &mist)
	assert.ErrorIs(t, err, codec.ErrMalformedRecord)

	_, ok := f.svc.CurrentZone()
	assert.False(t, ok)
	assert.False(t, f.svc.HasAnySeenPlots())
	assert.Nil(t, f.svc.Status().Sweep)
	assert.Zero(t, f.recorder.Pending())
}

func TestOutOfRangeWardNumberIsDiscarded(t *testing.T) {
	f := newFixture()

	for _, ward := range []int16{0, 31, -2} {
		err := f.svc.HandleWardInfo(record(mist, ward, 1_000_000), &mist)
		assert.ErrorIs(t, err, scan.ErrInvalidWard)
	}

	assert.False(t, f.svc.HasAnySeenPlots())
	assert.Nil(t, f.svc.Status().Sweep)
	assert.Zero(t, f.recorder.Pending())
}

func TestConcurrentDeliveriesNeverMixWorlds(t *testing.T) {
	f := newFixture()

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		zone := mist
		if i%2 == 1 {
			zone = elsewhere
		}
		ward := int16(i%30 + 1)
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.NoError(t, f.svc.HandleWardInfo(record(zone, ward, 1_000_000), &zone))
		}()
		go func() {
			defer wg.Done()
			if ward%5 == 0 {
				f.svc.ResetAll()
			} else {
				f.svc.EnterZone(zone)
			}
		}()
	}
	wg.Wait()

	current, ok := f.svc.CurrentZone()
	require.True(t, ok)
	for _, zone := range f.svc.Store().Zones() {
		assert.Equal(t, current.WorldID, zone.WorldID)
	}
}

func TestDuplicateWardSkipsMergeButAdvancesScan(t *testing.T) {
	f := newFixture()
	f.svc.EnterZone(mist)

	step, err := f.svc.StartScanAll()
	require.NoError(t, err)
	assert.Equal(t, scan.StepRequested, step)
	assert.Len(t, f.svc.Status().Pending, 29)

	f.awaitCommand(t, 1)
	require.NoError(t, f.svc.HandleWardInfo(record(mist, 1, 3_000_000), &mist))
	assert.Len(t, f.svc.Status().Pending, 28)

	f.awaitCommand(t, 2)
	require.NoError(t, f.svc.HandleWardInfo(record(mist, 1, 7_000_000), &mist))
	assert.Len(t, f.svc.Status().Pending, 27)

	assert.Equal(t, uint32(3_000_000), f.svc.GetWard(mist, 1)[0].Price)
	assert.Equal(t, 1, f.recorder.Pending())
}

func TestNewSweepAfterWindowKeepsStoredPlots(t *testing.T) {
	f := newFixture()

	require.NoError(t, f.svc.HandleWardInfo(record(mist, 5, 3_000_000), &mist))
	require.NoError(t, f.svc.HandleWardInfo(record(mist, 6, 4_000_000), &mist))
	first := f.svc.Status().Sweep
	require.NotNil(t, first)

	f.clock.Add(11 * time.Minute)
	require.NoError(t, f.svc.HandleWardInfo(record(mist, 5, 8_000_000), &mist))

	second := f.svc.Status().Sweep
	require.NotNil(t, second)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, []int16{5}, second.SeenWardNumbers)
	assert.Equal(t, uint32(8_000_000), f.svc.GetWard(mist, 5)[0].Price)
	assert.Equal(t, uint32(4_000_000), f.svc.GetWard(mist, 6)[0].Price)
}

func TestZoneChangeKeepsDataWorldChangeClears(t *testing.T) {
	f := newFixture()

	require.NoError(t, f.svc.HandleWardInfo(record(mist, 5), &mist))
	require.NoError(t, f.svc.HandleWardInfo(record(goblet, 2), &goblet))
	assert.NotNil(t, f.svc.GetWard(mist, 5))
	assert.NotNil(t, f.svc.GetWard(goblet, 2))

	f.svc.EnterZone(elsewhere)
	assert.False(t, f.svc.HasAnySeenPlots())
	assert.Nil(t, f.svc.GetWard(mist, 5))
	assert.Empty(t, f.feed.List())
}

func TestResetAll(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.svc.HandleWardInfo(record(mist, 5), &mist))

	f.svc.ResetAll()

	assert.False(t, f.svc.HasAnySeenPlots())
	assert.Nil(t, f.svc.Status().Sweep)
	assert.Equal(t, []string{"success: Seen houses have been reset."}, messages(f.feed))

	// the same ward is accepted again after a reset
	require.NoError(t, f.svc.HandleWardInfo(record(mist, 5, 1), &mist))
	assert.Equal(t, uint32(1), f.svc.GetWard(mist, 5)[0].Price)
}

func TestVacantPlotsAndSummaries(t *testing.T) {
	f := newFixture()

	w := &model.WardObservation{LandIdent: model.LandIdent{WardNumber: 3, TerritoryID: 339, WorldID: 42}}
	for i := range w.Plots {
		w.Plots[i].Flags = model.PlotOwned
	}
	w.Plots[4] = model.PlotObservation{Price: 5_999_999}
	w.Plots[9] = model.PlotObservation{Price: 30_000_000}
	require.NoError(t, f.svc.HandleWardInfo(codec.Encode(w), &mist))

	vacant := f.svc.VacantPlots(mist)
	require.Len(t, vacant, 2)
	assert.Equal(t, model.VacantPlot{WardNumber: 3, PlotIndex: 4, Price: 5_999_999, Size: "Small", SizeClass: model.SizeSmall}, vacant[0])
	assert.Equal(t, 9, vacant[1].PlotIndex)
	assert.Equal(t, model.SizeLarge, vacant[1].SizeClass)

	summaries := f.svc.Summaries(mist)
	require.Len(t, summaries, model.WardsPerZone)
	assert.Equal(t, model.WardSummary{WardNumber: 3, Seen: true, Vacant: 2, HasLarge: true}, summaries[2])
	assert.False(t, summaries[0].Seen)

	assert.Empty(t, f.svc.VacantPlots(goblet))
}

func TestScanControlsNeedZone(t *testing.T) {
	f := newFixture()

	_, err := f.svc.StartScanAll()
	assert.ErrorIs(t, err, ErrNoZone)
	_, err = f.svc.OpenSingleWard(3)
	assert.ErrorIs(t, err, ErrNoZone)
}

func TestScanRequestsReachHost(t *testing.T) {
	f := newFixture()
	f.svc.EnterZone(mist)

	_, err := f.svc.StartScanAll()
	require.NoError(t, err)
	assert.True(t, f.svc.Status().Scanning)
	f.clock.Add(100 * time.Millisecond)

	var mu sync.Mutex
	var commands []host.Command
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		commands = append(commands, f.bridge.Drain()...)
		return len(commands) == 1
	}, time.Second, time.Millisecond)
	assert.Equal(t, int16(1), commands[0].WardNumber)
	assert.Equal(t, 0, commands[0].WardIndex)

	f.svc.Stop()
	assert.True(t, f.svc.Status().StopRequested)
	require.NoError(t, f.svc.HandleWardInfo(record(mist, 1), &mist))
	st := f.svc.Status()
	assert.False(t, st.Scanning)
	assert.False(t, st.StopRequested)
	assert.Empty(t, st.Pending)
}

func TestOpenSingleWardSurfaceHidden(t *testing.T) {
	f := newFixture()
	f.svc.EnterZone(mist)
	f.bridge.SetSurfaceVisible(false)

	_, err := f.svc.OpenSingleWard(3)
	assert.ErrorIs(t, err, scan.ErrHostSurfaceUnavailable)
	assert.Empty(t, f.feed.List())

	f.bridge.SetSurfaceVisible(true)
	res, err := f.svc.OpenSingleWard(3)
	require.NoError(t, err)
	assert.Equal(t, scan.OpenRequested, res)
	assert.Len(t, f.bridge.Drain(), 1)
}
