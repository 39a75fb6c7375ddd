package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/snagasawa/kpisync/internal/adapters/http/api"
	"github.com/snagasawa/kpisync/internal/adapters/source"
	service "github.com/snagasawa/kpisync/internal/app"
	"github.com/snagasawa/kpisync/internal/domain/aggregate"
	"github.com/snagasawa/kpisync/internal/domain/model"
	"github.com/snagasawa/kpisync/internal/domain/monthly"
	enginesync "github.com/snagasawa/kpisync/internal/sync"
)

// Mock implementations for testing.
type mockReporter struct {
	lastQuery   service.Query
	rawErr      error
	settings    service.SettingsDoc
	settingsErr error
	saved       []model.ProjectTarget
	synced      []string
	resynced    []time.Time
	syncErr     error
}

func (m *mockReporter) RawData(_ context.Context, q service.Query) (*service.RawDataReport, error) {
	m.lastQuery = q
	if m.rawErr != nil {
		return nil, m.rawErr
	}
	return &service.RawDataReport{
		Records: []service.RecordView{{Name: "田中", Project: "Alpha", Calls: 100}},
		Aggregated: aggregate.Aggregated{
			Totals: aggregate.Totals{Calls: 100, PR: 20, CallToPR: 20},
		},
		Filters: aggregate.Filters{Projects: []string{"Alpha"}, Members: []string{"田中"}},
	}, nil
}

func (m *mockReporter) MonthlyView(context.Context) (monthly.View, error) {
	if m.rawErr != nil {
		return monthly.View{}, m.rawErr
	}
	return monthly.View{}, nil
}

func (m *mockReporter) Settings(context.Context) (service.SettingsDoc, error) {
	return m.settings, m.settingsErr
}

func (m *mockReporter) SaveSettings(_ context.Context, targets []model.ProjectTarget) error {
	m.saved = targets
	return m.settingsErr
}

func (m *mockReporter) RunSync(_ context.Context, target string) (enginesync.Report, error) {
	m.synced = append(m.synced, target)
	return enginesync.Report{Target: target, Synced: 2}, m.syncErr
}

func (m *mockReporter) ResyncFrom(_ context.Context, target string, from time.Time) (enginesync.Report, error) {
	m.resynced = append(m.resynced, from)
	return enginesync.Report{Target: target}, m.syncErr
}

type mockStats struct{}

func (mockStats) GetStats() map[string]interface{} {
	return map[string]interface{}{"started": true}
}

func newTestMux(deps *mockReporter) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps, mockStats{}).Register(mux)
	return mux
}

func TestRawDataEndpoint(t *testing.T) {
	Convey("Given the reporting API", t, func() {
		deps := &mockReporter{}
		mux := newTestMux(deps)

		Convey("A plain GET returns the report document", func() {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/rawdata", nil))

			So(rec.Code, ShouldEqual, http.StatusOK)
			var report service.RawDataReport
			So(json.Unmarshal(rec.Body.Bytes(), &report), ShouldBeNil)
			So(report.Records, ShouldHaveLength, 1)
			So(deps.lastQuery.Start, ShouldBeNil)
			So(deps.lastQuery.End, ShouldBeNil)
		})

		Convey("Date parameters bound the query", func() {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
				"/api/rawdata?startDate=2025-03-01&endDate=2025-03-31&source=all_staff", nil))

			So(rec.Code, ShouldEqual, http.StatusOK)
			So(deps.lastQuery.Source, ShouldEqual, "all_staff")
			So(deps.lastQuery.Start, ShouldNotBeNil)
			So(deps.lastQuery.Start.Format(model.DateLayout), ShouldEqual, "2025-03-01")
			So(deps.lastQuery.End.Format(model.DateLayout), ShouldEqual, "2025-03-31")
		})

		Convey("Malformed dates degrade to an unbounded query", func() {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
				"/api/rawdata?startDate=03/01/2025", nil))

			So(rec.Code, ShouldEqual, http.StatusOK)
			So(deps.lastQuery.Start, ShouldBeNil)
		})

		Convey("An upstream failure still returns 200 with an error payload", func() {
			deps.rawErr = source.ErrUnavailable
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/rawdata", nil))

			So(rec.Code, ShouldEqual, http.StatusOK)
			var payload map[string]string
			So(json.Unmarshal(rec.Body.Bytes(), &payload), ShouldBeNil)
			So(payload["error"], ShouldContainSubstring, "unavailable")
		})

		Convey("POST is not routed", func() {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/rawdata", nil))
			So(rec.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestMonthlyEndpoint(t *testing.T) {
	Convey("Given the monthly view endpoint", t, func() {
		deps := &mockReporter{}
		mux := newTestMux(deps)

		Convey("A GET returns the parsed view", func() {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/monthly", nil))
			So(rec.Code, ShouldEqual, http.StatusOK)
		})

		Convey("A source failure degrades to an error payload", func() {
			deps.rawErr = source.ErrSheetNotFound
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/monthly", nil))

			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, "error")
		})
	})
}

func TestSettingsEndpoint(t *testing.T) {
	Convey("Given the settings endpoint", t, func() {
		deps := &mockReporter{
			settings: service.SettingsDoc{
				Settings:          []model.ProjectTarget{{Project: "Alpha", CallToPRTarget: 20}},
				AvailableProjects: []string{"Alpha", "Beta"},
			},
		}
		mux := newTestMux(deps)

		Convey("GET returns the stored targets and available projects", func() {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/settings", nil))

			So(rec.Code, ShouldEqual, http.StatusOK)
			var doc service.SettingsDoc
			So(json.Unmarshal(rec.Body.Bytes(), &doc), ShouldBeNil)
			So(doc.Settings, ShouldHaveLength, 1)
			So(doc.AvailableProjects, ShouldResemble, []string{"Alpha", "Beta"})
		})

		Convey("POST replaces the stored targets", func() {
			body := `{"settings":[{"project":"Beta","callToPRTarget":25}]}`
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/settings", strings.NewReader(body)))

			So(rec.Code, ShouldEqual, http.StatusOK)
			So(deps.saved, ShouldHaveLength, 1)
			So(deps.saved[0].Project, ShouldEqual, "Beta")
		})

		Convey("POST with a malformed body is rejected", func() {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/settings", strings.NewReader("{")))
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestSyncEndpoint(t *testing.T) {
	Convey("Given the sync trigger endpoint", t, func() {
		deps := &mockReporter{}
		mux := newTestMux(deps)

		Convey("POST with a target runs one cycle", func() {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/sync?target=performance", nil))

			So(rec.Code, ShouldEqual, http.StatusOK)
			So(deps.synced, ShouldResemble, []string{"performance"})
			var report enginesync.Report
			So(json.Unmarshal(rec.Body.Bytes(), &report), ShouldBeNil)
			So(report.Synced, ShouldEqual, 2)
		})

		Convey("POST with a from date resyncs the window", func() {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost,
				"/api/sync?target=performance&from=2025-03-01", nil))

			So(rec.Code, ShouldEqual, http.StatusOK)
			So(deps.resynced, ShouldHaveLength, 1)
			So(deps.resynced[0].Format(model.DateLayout), ShouldEqual, "2025-03-01")
		})

		Convey("A missing target is rejected", func() {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/sync", nil))
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("A malformed from date is rejected", func() {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost,
				"/api/sync?target=performance&from=tomorrow", nil))
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestStatsEndpoint(t *testing.T) {
	Convey("Given the stats endpoint", t, func() {
		mux := newTestMux(&mockReporter{})

		Convey("GET returns service statistics", func() {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))

			So(rec.Code, ShouldEqual, http.StatusOK)
			var stats map[string]interface{}
			So(json.Unmarshal(rec.Body.Bytes(), &stats), ShouldBeNil)
			So(stats["started"], ShouldEqual, true)
		})
	})
}
