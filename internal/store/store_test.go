package store

import (
	"errors"
	"testing"
	"time"

	"github.com/pwolcott/huntmaster/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testStore creates a Store over an in-memory SQLite database with all tables.
func testStore(t *testing.T) *Store {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := gdb.AutoMigrate(
		&models.Guild{},
		&models.Hunt{},
		&models.Round{},
		&models.Puzzle{},
		&models.Note{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return New(gdb)
}

func ts(t *testing.T, value string) *time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("parse time %q: %v", value, err)
	}
	return &parsed
}

func TestGetOrCreateGuild_Idempotent(t *testing.T) {
	s := testStore(t)

	g1, err := s.GetOrCreateGuild("g1")
	if err != nil {
		t.Fatalf("first GetOrCreateGuild: %v", err)
	}
	g2, err := s.GetOrCreateGuild("g1")
	if err != nil {
		t.Fatalf("second GetOrCreateGuild: %v", err)
	}
	if g1.ID != g2.ID {
		t.Errorf("got different guilds: %q vs %q", g1.ID, g2.ID)
	}

	var count int64
	s.DB().Model(&models.Guild{}).Count(&count)
	if count != 1 {
		t.Errorf("guild rows = %d, want 1", count)
	}
}

func TestGetOrCreateGuild_Defaults(t *testing.T) {
	s := testStore(t)

	g, err := s.GetOrCreateGuild("g1")
	if err != nil {
		t.Fatal(err)
	}
	if g.ArchiveDelay != 300 {
		t.Errorf("ArchiveDelay = %d, want 300", g.ArchiveDelay)
	}
	if g.DiscussionChannel != "general" {
		t.Errorf("DiscussionChannel = %q, want general", g.DiscussionChannel)
	}
	if !g.UseVoiceChannels {
		t.Error("UseVoiceChannels should default to true")
	}
}

func TestGuild_NotFound(t *testing.T) {
	s := testStore(t)
	if _, err := s.Guild("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Guild(missing) error = %v, want ErrNotFound", err)
	}
}

func TestGetOrCreateHunt(t *testing.T) {
	s := testStore(t)
	if _, err := s.GetOrCreateGuild("g1"); err != nil {
		t.Fatal(err)
	}

	h1, err := s.GetOrCreateHunt("g1", "mystery-hunt")
	if err != nil {
		t.Fatalf("GetOrCreateHunt: %v", err)
	}
	if h1.StartTime == nil {
		t.Error("new hunt should have a start time")
	}
	if !h1.Active() {
		t.Error("new hunt should be active")
	}

	h2, err := s.GetOrCreateHunt("g1", "mystery-hunt")
	if err != nil {
		t.Fatal(err)
	}
	if h1.ID != h2.ID {
		t.Errorf("same name resolved different hunts: %d vs %d", h1.ID, h2.ID)
	}

	// Same name in another guild is a distinct hunt.
	if _, err := s.GetOrCreateGuild("g2"); err != nil {
		t.Fatal(err)
	}
	h3, err := s.GetOrCreateHunt("g2", "mystery-hunt")
	if err != nil {
		t.Fatal(err)
	}
	if h3.ID == h1.ID {
		t.Error("hunts in different guilds should be distinct rows")
	}
}

func TestHuntByName_Exact(t *testing.T) {
	s := testStore(t)
	s.GetOrCreateGuild("g1")
	if _, err := s.GetOrCreateHunt("g1", "Mystery"); err != nil {
		t.Fatal(err)
	}

	if _, err := s.HuntByName("g1", "Mystery"); err != nil {
		t.Errorf("exact lookup failed: %v", err)
	}
	if _, err := s.HuntByName("g1", "mystery"); !errors.Is(err, ErrNotFound) {
		t.Errorf("lookup should be case-sensitive, got err = %v", err)
	}
}

func TestGetOrCreateRound(t *testing.T) {
	s := testStore(t)
	s.GetOrCreateGuild("g1")

	r1, created, err := s.GetOrCreateRound("g1", "cat-100", "emotions")
	if err != nil {
		t.Fatalf("GetOrCreateRound: %v", err)
	}
	if !created {
		t.Error("first call should report created=true")
	}
	if r1.HuntID != nil {
		t.Error("fresh round should have no hunt linkage")
	}

	r2, created, err := s.GetOrCreateRound("g1", "cat-100", "emotions")
	if err != nil {
		t.Fatal(err)
	}
	if created {
		t.Error("second call should report created=false")
	}
	if r2.ID != r1.ID {
		t.Errorf("same category resolved different rounds: %d vs %d", r2.ID, r1.ID)
	}
}

func TestRoundByCategory_MatchesSolvedCategory(t *testing.T) {
	s := testStore(t)
	s.GetOrCreateGuild("g1")
	r, _, err := s.GetOrCreateRound("g1", "cat-100", "emotions")
	if err != nil {
		t.Fatal(err)
	}
	r.SolvedCategoryID = "cat-900"
	if err := s.SaveRound(r); err != nil {
		t.Fatal(err)
	}

	got, err := s.RoundByCategory("cat-900")
	if err != nil {
		t.Fatalf("lookup by solved category: %v", err)
	}
	if got.ID != r.ID {
		t.Errorf("resolved round %d, want %d", got.ID, r.ID)
	}
	if got.CategoryID != "cat-100" && got.SolvedCategoryID != "cat-900" {
		t.Error("resolved round should match input on one of its category ids")
	}
}

func TestGetOrCreatePuzzle_Idempotent(t *testing.T) {
	s := testStore(t)
	s.GetOrCreateGuild("g1")
	r, _, _ := s.GetOrCreateRound("g1", "cat-100", "emotions")

	p1, err := s.GetOrCreatePuzzle("g1", "chan-1", r.ID)
	if err != nil {
		t.Fatalf("GetOrCreatePuzzle: %v", err)
	}
	p2, err := s.GetOrCreatePuzzle("g1", "chan-1", r.ID+1)
	if err != nil {
		t.Fatal(err)
	}
	if p1.ID != p2.ID {
		t.Errorf("same channel resolved different puzzles: %d vs %d", p1.ID, p2.ID)
	}
	if p2.RoundID != r.ID {
		t.Errorf("existing puzzle should keep its round, got %d", p2.RoundID)
	}
}

func TestUpdatePuzzleFields_NilsWriteNull(t *testing.T) {
	s := testStore(t)
	s.GetOrCreateGuild("g1")
	r, _, _ := s.GetOrCreateRound("g1", "cat-100", "r")
	p, _ := s.GetOrCreatePuzzle("g1", "chan-1", r.ID)

	now := time.Now().UTC()
	if err := s.UpdatePuzzleFields(p, map[string]interface{}{
		"status":     models.StatusSolved,
		"solve_time": now,
	}); err != nil {
		t.Fatal(err)
	}
	if !p.IsSolved() {
		t.Error("puzzle should be solved after update")
	}

	if err := s.UpdatePuzzleFields(p, map[string]interface{}{
		"status":     models.StatusActive,
		"solve_time": nil,
	}); err != nil {
		t.Fatal(err)
	}
	if p.SolveTime != nil {
		t.Error("solve_time should be NULL after nil update")
	}
}

func TestAllPuzzles_RoundStartOrdering(t *testing.T) {
	s := testStore(t)
	s.GetOrCreateGuild("g1")
	ra, _, _ := s.GetOrCreateRound("g1", "cat-a", "round-a")
	rb, _, _ := s.GetOrCreateRound("g1", "cat-b", "round-b")

	add := func(channel, roundName string, roundID uint, start *time.Time) {
		t.Helper()
		p, err := s.GetOrCreatePuzzle("g1", channel, roundID)
		if err != nil {
			t.Fatal(err)
		}
		if err := s.UpdatePuzzleFields(p, map[string]interface{}{
			"name":       channel,
			"round_name": roundName,
			"start_time": start,
		}); err != nil {
			t.Fatal(err)
		}
	}

	// Round A has puzzles from day 1 and day 2; round B from day 0.
	add("a-day2", "round-a", ra.ID, ts(t, "2026-01-02T00:00:00Z"))
	add("a-day1", "round-a", ra.ID, ts(t, "2026-01-01T00:00:00Z"))
	add("b-day0", "round-b", rb.ID, ts(t, "2025-12-31T00:00:00Z"))

	got, err := s.AllPuzzles("g1")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"b-day0", "a-day1", "a-day2"}
	if len(got) != len(want) {
		t.Fatalf("got %d puzzles, want %d", len(got), len(want))
	}
	for i, name := range want {
		if got[i].Name != name {
			t.Errorf("position %d = %q, want %q", i, got[i].Name, name)
		}
	}
}

func TestSortByRoundStart_NilStartLast(t *testing.T) {
	day1 := ts(t, "2026-01-01T00:00:00Z")
	day2 := ts(t, "2026-01-02T00:00:00Z")
	puzzles := []models.Puzzle{
		{Name: "no-start", RoundName: "r1"},
		{Name: "late", RoundName: "r1", StartTime: day2},
		{Name: "early", RoundName: "r1", StartTime: day1},
	}

	sorted := SortByRoundStart(puzzles)
	want := []string{"early", "late", "no-start"}
	for i, name := range want {
		if sorted[i].Name != name {
			t.Errorf("position %d = %q, want %q", i, sorted[i].Name, name)
		}
	}
}

func TestAllPuzzles_ExcludesDeleted(t *testing.T) {
	s := testStore(t)
	s.GetOrCreateGuild("g1")
	r, _, _ := s.GetOrCreateRound("g1", "cat-a", "round-a")
	p, _ := s.GetOrCreatePuzzle("g1", "chan-1", r.ID)

	now := time.Now().UTC()
	if err := s.UpdatePuzzleFields(p, map[string]interface{}{
		"status":      models.StatusDeleted,
		"delete_time": now,
	}); err != nil {
		t.Fatal(err)
	}

	got, err := s.AllPuzzles("g1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("deleted puzzles should be excluded, got %d", len(got))
	}
}

func TestNotes_AddListDelete(t *testing.T) {
	s := testStore(t)
	s.GetOrCreateGuild("g1")
	r, _, _ := s.GetOrCreateRound("g1", "cat-a", "round-a")
	p, _ := s.GetOrCreatePuzzle("g1", "chan-1", r.ID)

	for _, text := range []string{"first", "second", "third"} {
		if _, err := s.AddNote(p.ID, text, "user-1", "https://discord.com/x"); err != nil {
			t.Fatal(err)
		}
	}

	notes, err := s.Notes(p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(notes) != 3 || notes[0].Text != "first" || notes[2].Text != "third" {
		t.Fatalf("unexpected notes: %+v", notes)
	}

	deleted, err := s.DeleteNoteByIndex(p.ID, 2)
	if err != nil {
		t.Fatal(err)
	}
	if deleted.Text != "second" {
		t.Errorf("deleted note %q, want second", deleted.Text)
	}

	notes, _ = s.Notes(p.ID)
	if len(notes) != 2 || notes[1].Text != "third" {
		t.Errorf("remaining notes wrong: %+v", notes)
	}

	if _, err := s.DeleteNoteByIndex(p.ID, 5); !errors.Is(err, ErrNotFound) {
		t.Errorf("out-of-range index error = %v, want ErrNotFound", err)
	}
	if _, err := s.DeleteNoteByIndex(p.ID, 0); !errors.Is(err, ErrNotFound) {
		t.Errorf("zero index error = %v, want ErrNotFound", err)
	}
}
