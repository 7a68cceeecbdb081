package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	routes "housingsweep/internal/api/handlers"
	"housingsweep/internal/codec"
	"housingsweep/internal/host"
	"housingsweep/internal/model"
	"housingsweep/internal/notify"
	"housingsweep/internal/service/housing"
)

type testServer struct {
	router *gin.Engine
	clock  *clock.Mock
	bridge *host.Bridge
	feed   *notify.Feed
	svc    *housing.HousingService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	clk := clock.NewMock()
	s := &testServer{
		router: gin.New(),
		clock:  clk,
		bridge: host.NewBridge(clk),
		feed:   notify.NewFeed(clk, notify.DefaultFeedSize),
	}
	s.svc = housing.New(housing.Options{
		Clock:        clk,
		Host:         s.bridge,
		Notifier:     s.feed,
		SweepWindow:  10 * time.Minute,
		ScanThrottle: 100 * time.Millisecond,
	})
	t.Cleanup(s.svc.Dispose)

	SetupRouter(s.router, routes.Deps{
		Housing: s.svc,
		Bridge:  s.bridge,
		Feed:    s.feed,
		Config:  map[string]string{"port": ":8080", "history": "false", "snapshot": "false"},
	})
	return s
}

func (s *testServer) do(method, path string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func wardRecord(ward int16, prices ...uint32) []byte {
	w := &model.WardObservation{LandIdent: model.LandIdent{WardNumber: ward, TerritoryID: 339, WorldID: 42}}
	for i, p := range prices {
		w.Plots[i].Price = p
	}
	w.Plots[1].Flags = model.PlotOwned
	return codec.Encode(w)
}

func TestRootReportsStatus(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	body := decode[map[string]string](t, w)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, ":8080", body["port"])
}

func TestWardInfoThenZoneReads(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/api/host/ward-info?world=42&territory=339", wardRecord(5, 1_000_000, 10_000_000))
	require.Equal(t, http.StatusAccepted, w.Code)

	w = s.do(http.MethodGet, "/api/zones/42/339/wards/5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	ward := decode[struct {
		Zone  string            `json:"zone"`
		Ward  int16             `json:"ward"`
		Plots []model.PlotState `json:"plots"`
	}](t, w)
	assert.Equal(t, "42:339", ward.Zone)
	require.Len(t, ward.Plots, model.PlotsPerWard)
	assert.Equal(t, uint32(1_000_000), ward.Plots[0].Price)
	assert.True(t, ward.Plots[1].Owned())

	w = s.do(http.MethodGet, "/api/zones/42/339/vacant", nil)
	require.Equal(t, http.StatusOK, w.Code)
	vacant := decode[struct {
		Plots []model.VacantPlot `json:"plots"`
	}](t, w)
	assert.Len(t, vacant.Plots, model.PlotsPerWard-1)
	assert.Equal(t, "Small", vacant.Plots[0].Size)

	w = s.do(http.MethodGet, "/api/zones/42/339", nil)
	require.Equal(t, http.StatusOK, w.Code)
	zone := decode[struct {
		Wards []model.WardSummary `json:"wards"`
	}](t, w)
	require.Len(t, zone.Wards, model.WardsPerZone)
	assert.True(t, zone.Wards[4].Seen)

	w = s.do(http.MethodGet, "/api/seen", nil)
	assert.Equal(t, map[string]bool{"has_seen_plots": true}, decode[map[string]bool](t, w))
}

func TestZoneWithPlotsAndUpdatedAt(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/api/zones/42/339", nil)
	require.Equal(t, http.StatusOK, w.Code)
	empty := decode[map[string]json.RawMessage](t, w)
	assert.NotContains(t, empty, "updated_at")
	assert.NotContains(t, empty, "plots")

	s.clock.Add(time.Hour)
	require.Equal(t, http.StatusAccepted, s.do(http.MethodPost, "/api/host/ward-info?world=42&territory=339", wardRecord(5, 1_000_000)).Code)
	require.Equal(t, http.StatusAccepted, s.do(http.MethodPost, "/api/host/ward-info?world=42&territory=339", wardRecord(7, 30_000_000)).Code)

	w = s.do(http.MethodGet, "/api/zones/42/339?plots=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	zone := decode[struct {
		UpdatedAt time.Time                    `json:"updated_at"`
		Plots     map[string][]model.PlotState `json:"plots"`
	}](t, w)
	assert.True(t, zone.UpdatedAt.Equal(s.clock.Now()))
	require.Len(t, zone.Plots, 2)
	require.Len(t, zone.Plots["5"], model.PlotsPerWard)
	assert.Equal(t, uint32(1_000_000), zone.Plots["5"][0].Price)
	assert.Equal(t, model.SizeLarge, zone.Plots["7"][0].SizeClass())
}

func TestWardInfoRejectsOutOfRangeWard(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/api/host/ward-info?world=42&territory=339", wardRecord(31, 1_000_000))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/seen", nil)
	assert.Equal(t, map[string]bool{"has_seen_plots": false}, decode[map[string]bool](t, w))
}

func TestWardInfoRejectsShortRecord(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/api/host/ward-info", make([]byte, 100))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/seen", nil)
	assert.Equal(t, map[string]bool{"has_seen_plots": false}, decode[map[string]bool](t, w))
}

func TestUnknownWardAndBadParams(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/zones/42/339/wards/5", nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/zones/42/339/wards/31", nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/zones/x/339", nil).Code)
}

func TestScanLifecycle(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusConflict, s.do(http.MethodPost, "/api/scan/start", nil).Code)

	w := s.do(http.MethodPost, "/api/host/zone", []byte(`{"world":42,"territory":339}`))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/host/surface", []byte(`{"visible":true}`)).Code)

	w = s.do(http.MethodPost, "/api/scan/start", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "requested", decode[map[string]string](t, w)["step"])

	s.clock.Add(100 * time.Millisecond)
	var commands []host.Command
	require.Eventually(t, func() bool {
		commands = decode[[]host.Command](t, s.do(http.MethodGet, "/api/host/commands", nil))
		return len(commands) == 1
	}, time.Second, time.Millisecond)
	assert.Equal(t, int16(1), commands[0].WardNumber)

	status := decode[housing.Status](t, s.do(http.MethodGet, "/api/scan/status", nil))
	assert.True(t, status.Scanning)
	assert.Len(t, status.Pending, 29)

	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/scan/stop", nil).Code)
	status = decode[housing.Status](t, s.do(http.MethodGet, "/api/scan/status", nil))
	assert.False(t, status.Scanning)
	assert.True(t, status.StopRequested)
}

func TestOpenWardNeedsSurface(t *testing.T) {
	s := newTestServer(t)
	s.do(http.MethodPost, "/api/host/zone", []byte(`{"world":42,"territory":339}`))

	assert.Equal(t, http.StatusConflict, s.do(http.MethodPost, "/api/scan/wards/3/open", nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/api/scan/wards/0/open", nil).Code)

	s.do(http.MethodPost, "/api/host/surface", []byte(`{"visible":true}`))
	w := s.do(http.MethodPost, "/api/scan/wards/3/open", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "requested", decode[map[string]string](t, w)["result"])
}

func TestResetAndNotifications(t *testing.T) {
	s := newTestServer(t)
	s.do(http.MethodPost, "/api/host/ward-info", wardRecord(5))

	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/reset", nil).Code)

	items := decode[[]notify.Notification](t, s.do(http.MethodGet, "/api/notifications?take=true", nil))
	require.Len(t, items, 1)
	assert.Equal(t, "Seen houses have been reset.", items[0].Message)
	assert.Empty(t, decode[[]notify.Notification](t, s.do(http.MethodGet, "/api/notifications", nil)))

	w := s.do(http.MethodGet, "/api/seen", nil)
	assert.Equal(t, map[string]bool{"has_seen_plots": false}, decode[map[string]bool](t, w))
}
