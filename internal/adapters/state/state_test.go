package state

import (
	"context"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/snagasawa/kpisync/internal/domain/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestCursors(t *testing.T) {
	ctx := context.Background()

	Convey("Given a state store", t, func() {
		store := openTestStore(t)

		Convey("An unwritten cursor reads as zero", func() {
			row, err := store.Cursor(ctx, "turso_last_sync_row_sales")
			So(err, ShouldBeNil)
			So(row, ShouldEqual, 0)
		})

		Convey("SetCursor persists and overwrites", func() {
			So(store.SetCursor(ctx, "turso_last_sync_row_sales", 120), ShouldBeNil)
			So(store.SetCursor(ctx, "turso_last_sync_row_sales", 180), ShouldBeNil)

			row, err := store.Cursor(ctx, "turso_last_sync_row_sales")
			So(err, ShouldBeNil)
			So(row, ShouldEqual, 180)
		})

		Convey("Cursors are independent per key", func() {
			So(store.SetCursor(ctx, "a", 10), ShouldBeNil)
			So(store.SetCursor(ctx, "b", 20), ShouldBeNil)

			row, _ := store.Cursor(ctx, "a")
			So(row, ShouldEqual, 10)
		})

		Convey("ResetCursor returns the key to zero", func() {
			So(store.SetCursor(ctx, "a", 10), ShouldBeNil)
			So(store.ResetCursor(ctx, "a"), ShouldBeNil)

			row, err := store.Cursor(ctx, "a")
			So(err, ShouldBeNil)
			So(row, ShouldEqual, 0)
		})
	})
}

func TestSettings(t *testing.T) {
	ctx := context.Background()

	Convey("Given a state store", t, func() {
		store := openTestStore(t)

		Convey("An empty store returns an empty, non-nil list", func() {
			got, err := store.Settings(ctx)
			So(err, ShouldBeNil)
			So(got, ShouldNotBeNil)
			So(got, ShouldBeEmpty)
		})

		Convey("SaveSettings replaces the whole set", func() {
			So(store.SaveSettings(ctx, []model.ProjectTarget{
				{Project: "Alpha", CallToPRTarget: 20, CallsPerHourTarget: 15},
				{Project: "Beta", PRToAppoTarget: 25},
			}), ShouldBeNil)

			So(store.SaveSettings(ctx, []model.ProjectTarget{
				{Project: "Gamma", CallToAppoTarget: 2},
			}), ShouldBeNil)

			got, err := store.Settings(ctx)
			So(err, ShouldBeNil)
			So(got, ShouldHaveLength, 1)
			So(got[0].Project, ShouldEqual, "Gamma")
			So(got[0].CallToAppoTarget, ShouldEqual, 2)
		})

		Convey("Targets without a project name are dropped on save", func() {
			So(store.SaveSettings(ctx, []model.ProjectTarget{
				{Project: ""},
				{Project: "Alpha", CallToPRTarget: 20},
			}), ShouldBeNil)

			got, _ := store.Settings(ctx)
			So(got, ShouldHaveLength, 1)
		})

		Convey("Settings come back sorted by project", func() {
			So(store.SaveSettings(ctx, []model.ProjectTarget{
				{Project: "Beta"},
				{Project: "Alpha"},
			}), ShouldBeNil)

			got, _ := store.Settings(ctx)
			So(got[0].Project, ShouldEqual, "Alpha")
			So(got[1].Project, ShouldEqual, "Beta")
		})
	})
}
