package store

import (
	"path/filepath"
	"testing"

	"filmlens/internal/anomaly"
	"filmlens/internal/archive"
	"filmlens/internal/merge"
	"filmlens/internal/stats"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "export.db"))
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleFilms() []*merge.Film {
	rating := 4.5
	year := 1995
	return []*merge.Film{
		{
			Key:     "heat-1995",
			Slug:    "heat-1995",
			Name:    "Heat",
			Year:    &year,
			Watched: true,
			Rated:   true,
			Rating:  &rating,
			Sources: []archive.Role{archive.RoleDiary, archive.RoleRatings, archive.RoleWatched},
			DiaryEntries: []merge.DiaryEntry{
				{EffectiveDate: "2024-03-01"},
				{EffectiveDate: "2024-05-20", Rewatch: true},
			},
			ReviewTexts: []string{"Pacino and De Niro finally share a scene."},
		},
		{
			Key:     "alien::1979",
			Name:    "Alien",
			Watched: true,
			Sources: []archive.Role{archive.RoleWatched},
		},
	}
}

func samplePack() *stats.StatPack {
	return &stats.StatPack{
		Label:    "export",
		Totals:   stats.Totals{Watched: 2, Rated: 1},
		Timeline: stats.TimelineStats{LongestStreak: 1},
	}
}

func TestSaveAndCount(t *testing.T) {
	db := openTestDB(t)

	if err := db.Save(sampleFilms(), samplePack(), anomaly.Summary{}); err != nil {
		t.Fatalf("saving export: %v", err)
	}

	films, err := db.CountFilms()
	if err != nil {
		t.Fatal(err)
	}
	if films != 2 {
		t.Errorf("expected 2 film rows, got %d", films)
	}

	entries, err := db.CountDiaryEntries()
	if err != nil {
		t.Fatal(err)
	}
	if entries != 2 {
		t.Errorf("expected 2 diary rows, got %d", entries)
	}
}

func TestSaveReplacesPreviousExport(t *testing.T) {
	db := openTestDB(t)

	if err := db.Save(sampleFilms(), samplePack(), anomaly.Summary{}); err != nil {
		t.Fatal(err)
	}
	// Second export with a single film must fully replace the first.
	if err := db.Save(sampleFilms()[:1], samplePack(), anomaly.Summary{}); err != nil {
		t.Fatal(err)
	}

	films, err := db.CountFilms()
	if err != nil {
		t.Fatal(err)
	}
	if films != 1 {
		t.Errorf("expected 1 film row after replace, got %d", films)
	}
}

func TestSavedFilmRoundTrip(t *testing.T) {
	db := openTestDB(t)
	if err := db.Save(sampleFilms(), samplePack(), anomaly.Summary{ImportSpikeDetected: true}); err != nil {
		t.Fatal(err)
	}

	var (
		name    string
		year    int
		rating  float64
		watched int
		sources string
	)
	err := db.conn.QueryRow(
		"SELECT name, year, rating, watched, sources FROM films WHERE key = ?", "heat-1995",
	).Scan(&name, &year, &rating, &watched, &sources)
	if err != nil {
		t.Fatalf("querying film: %v", err)
	}
	if name != "Heat" || year != 1995 || rating != 4.5 || watched != 1 {
		t.Errorf("unexpected film row: %s %d %v %d", name, year, rating, watched)
	}
	if sources != "diary,ratings,watched" {
		t.Errorf("unexpected sources %q", sources)
	}

	var spike int
	if err := db.conn.QueryRow("SELECT import_spike_detected FROM summary WHERE id = 1").Scan(&spike); err != nil {
		t.Fatalf("querying summary: %v", err)
	}
	if spike != 1 {
		t.Error("expected import spike flag persisted")
	}
}

func TestOpenCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "export.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("opening nested path: %v", err)
	}
	defer db.Close()
	if db.Path() != path {
		t.Errorf("unexpected path %q", db.Path())
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.db")
	db1, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	db1.Close()

	db2, err := Open(path)
	if err != nil {
		t.Fatalf("reopening existing database: %v", err)
	}
	db2.Close()
}
