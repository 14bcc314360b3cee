package bot

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/pwolcott/huntmaster/internal/drive"
	"github.com/pwolcott/huntmaster/internal/models"
	"github.com/pwolcott/huntmaster/internal/settings"
	"github.com/pwolcott/huntmaster/internal/store"
	"github.com/pwolcott/huntmaster/internal/workspace"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fixture struct {
	store   *store.Store
	cache   *settings.Cache
	ws      *workspace.Mock
	docs    *drive.Mock
	handler *Handler
	now     time.Time
}

func setup(t *testing.T) *fixture {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := gdb.AutoMigrate(&models.Guild{}, &models.Hunt{}, &models.Round{}, &models.Puzzle{}, &models.Note{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	f := &fixture{
		store: store.New(gdb),
		ws:    workspace.NewMock(),
		docs:  drive.NewMock(),
		now:   time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC),
	}
	f.cache = settings.NewCache(f.store)
	h, err := NewHandler(HandlerOpts{
		Store:     f.store,
		Settings:  f.cache,
		Workspace: f.ws,
		Docs:      f.docs,
		Now:       func() time.Time { return f.now },
		Out:       io.Discard,
	})
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}
	f.handler = h

	if _, err := f.store.GetOrCreateGuild("g1"); err != nil {
		t.Fatal(err)
	}
	return f
}

// run executes one command as if typed in the given channel.
func (f *fixture) run(channelID, channelName, sectionID, text string) string {
	return f.handler.Execute(context.Background(), Request{
		GuildID:     "g1",
		GuildName:   "Test Guild",
		ChannelID:   channelID,
		ChannelName: channelName,
		SectionID:   sectionID,
		Author:      "alice",
		JumpURL:     "https://discord.com/channels/g1/c/m",
		Text:        text,
	})
}

// puzzleChannel creates a round and a puzzle in it through the command
// surface, and returns the puzzle's text channel.
func (f *fixture) puzzleChannel(t *testing.T, roundName, puzzleName string) *workspace.Channel {
	t.Helper()
	if reply := f.run("c0", "general", "", "!puzzle "+roundName+": "+puzzleName); strings.HasPrefix(reply, ":exclamation:") {
		// Round does not exist yet: seed its section and retry.
		f.ws.AddSection("g1", CleanName(roundName), 1)
		if reply := f.run("c0", "general", "", "!puzzle "+roundName+": "+puzzleName); strings.HasPrefix(reply, ":exclamation:") {
			t.Fatalf("create puzzle: %s", reply)
		}
	}
	ch, err := f.ws.FindChannel(context.Background(), "g1", CleanName(puzzleName), workspace.ChannelText)
	if err != nil {
		t.Fatalf("puzzle channel not created: %v", err)
	}
	return ch
}

func (f *fixture) puzzle(t *testing.T, ch *workspace.Channel) *models.Puzzle {
	t.Helper()
	p, err := f.store.Puzzle("g1", ch.ID)
	if err != nil {
		t.Fatalf("puzzle row for %s: %v", ch.Name, err)
	}
	return p
}

func TestExecute_IgnoresNonCommands(t *testing.T) {
	f := setup(t)
	if got := f.run("c1", "general", "", "just chatting about fish"); got != "" {
		t.Errorf("reply = %q, want silence", got)
	}
	if got := f.run("c1", "general", "", "!"); got != "" {
		t.Errorf("reply to bare prefix = %q, want silence", got)
	}
}

func TestExecute_UnknownCommand(t *testing.T) {
	f := setup(t)
	got := f.run("c1", "general", "", "!frobnicate")
	if !strings.HasPrefix(got, ":exclamation:") || !strings.Contains(got, "frobnicate") {
		t.Errorf("reply = %q", got)
	}
}

func TestRound_CreatesSectionAndDiscussionChannel(t *testing.T) {
	f := setup(t)

	reply := f.run("c1", "general", "", "!round Emotions and Memories")
	if strings.HasPrefix(reply, ":exclamation:") {
		t.Fatalf("round failed: %s", reply)
	}

	section, err := f.ws.FindSection(context.Background(), "g1", "emotions-and-memories")
	if err != nil {
		t.Fatalf("section not created: %v", err)
	}
	ch, err := f.ws.FindChannel(context.Background(), "g1", "general", workspace.ChannelText)
	if err != nil {
		t.Fatalf("discussion channel not created: %v", err)
	}
	if ch.SectionID != section.ID {
		t.Errorf("discussion channel in section %q, want %q", ch.SectionID, section.ID)
	}

	p := f.puzzle(t, ch)
	if p.PuzzleType != "discussion" {
		t.Errorf("PuzzleType = %q, want discussion", p.PuzzleType)
	}
	if p.SheetID != "" {
		t.Error("discussion channel got a spreadsheet")
	}

	round, err := f.store.RoundByCategory(section.ID)
	if err != nil {
		t.Fatal(err)
	}
	if round.HuntID == nil {
		t.Error("round not attached to a hunt")
	}
}

func TestHuntThenPuzzle_DerivesURLAndSheet(t *testing.T) {
	f := setup(t)
	if _, _, err := f.cache.UpdateGuildSetting("g1", "drive_parent_id", "root-folder"); err != nil {
		t.Fatal(err)
	}

	reply := f.run("c1", "general", "", "!hunt MyHunt https://hunt.example/puzzle")
	if !strings.Contains(reply, "Started hunt `myhunt`") {
		t.Fatalf("hunt reply = %q", reply)
	}
	hunt, err := f.store.HuntByName("g1", "myhunt")
	if err != nil {
		t.Fatal(err)
	}
	if hunt.URL != "https://hunt.example/puzzle" {
		t.Errorf("hunt URL = %q", hunt.URL)
	}
	if hunt.DriveFolderID == "" || hunt.NexusSheetID == "" {
		t.Errorf("hunt drive not set up: folder=%q nexus=%q", hunt.DriveFolderID, hunt.NexusSheetID)
	}

	reply = f.run("c1", "general", "", "!puzzle myhunt: Toll Booth")
	if strings.HasPrefix(reply, ":exclamation:") {
		t.Fatalf("puzzle failed: %s", reply)
	}
	ch, err := f.ws.FindChannel(context.Background(), "g1", "toll-booth", workspace.ChannelText)
	if err != nil {
		t.Fatal(err)
	}
	p := f.puzzle(t, ch)

	if p.URL != "https://hunt.example/puzzle/toll_booth" {
		t.Errorf("URL = %q", p.URL)
	}
	if p.SheetID == "" {
		t.Fatal("no spreadsheet created")
	}
	if got := f.docs.FileName(p.SheetID); got != "Toll Booth" {
		t.Errorf("sheet name = %q", got)
	}
	if p.VoiceChannelID == "" {
		t.Error("no voice channel created")
	}
	if cells := f.docs.Cells(p.SheetID, "A1:B6"); len(cells) != 6 {
		t.Errorf("quick links rows = %d, want 6", len(cells))
	}

	// The channel gets a message pointing at the new sheet.
	found := false
	for _, msg := range f.ws.Messages(ch.ID) {
		if strings.Contains(msg, drive.SpreadsheetURL(p.SheetID)) {
			found = true
		}
	}
	if !found {
		t.Error("no sheet announcement in the puzzle channel")
	}
}

func TestPuzzle_UsesStarterSheetTemplate(t *testing.T) {
	f := setup(t)
	for _, kv := range [][2]string{
		{"drive_parent_id", "root-folder"},
		{"drive_starter_sheet_id", "starter-1"},
	} {
		if _, _, err := f.cache.UpdateGuildSetting("g1", kv[0], kv[1]); err != nil {
			t.Fatal(err)
		}
	}

	ch := f.puzzleChannel(t, "Round 1", "anagrams")
	p := f.puzzle(t, ch)
	if got := f.docs.CopiedFrom(p.SheetID); got != "starter-1" {
		t.Errorf("sheet copied from %q, want starter-1", got)
	}
}

func TestPuzzle_ExplicitURLOverride(t *testing.T) {
	f := setup(t)
	f.ws.AddSection("g1", "round-1", 1)

	reply := f.run("c0", "general", "", "!puzzle round 1: crossword https://other.site/xword")
	if strings.HasPrefix(reply, ":exclamation:") {
		t.Fatalf("puzzle failed: %s", reply)
	}
	ch, err := f.ws.FindChannel(context.Background(), "g1", "crossword", workspace.ChannelText)
	if err != nil {
		t.Fatal(err)
	}
	if p := f.puzzle(t, ch); p.URL != "https://other.site/xword" {
		t.Errorf("URL = %q", p.URL)
	}
}

func TestPuzzle_ReusesExistingChannel(t *testing.T) {
	f := setup(t)
	ch := f.puzzleChannel(t, "Round 1", "dupe")

	reply := f.run("c0", "general", "", "!puzzle round 1: dupe")
	if !strings.Contains(reply, "already existing") {
		t.Errorf("reply = %q, want reuse notice", reply)
	}
	again, err := f.ws.FindChannel(context.Background(), "g1", "dupe", workspace.ChannelText)
	if err != nil {
		t.Fatal(err)
	}
	if again.ID != ch.ID {
		t.Errorf("second create returned channel %q, want %q", again.ID, ch.ID)
	}
}

func TestSolveAndUnsolve(t *testing.T) {
	f := setup(t)
	ch := f.puzzleChannel(t, "Round 1", "tollbooth")

	reply := f.run(ch.ID, ch.Name, ch.SectionID, "!solve seven seas")
	if !strings.Contains(reply, "`SEVEN SEAS`") {
		t.Errorf("solve reply = %q", reply)
	}
	if p := f.puzzle(t, ch); !p.IsSolved() {
		t.Error("puzzle not marked solved")
	}

	reply = f.run(ch.ID, ch.Name, ch.SectionID, "!unsolve")
	if strings.HasPrefix(reply, ":exclamation:") {
		t.Fatalf("unsolve failed: %s", reply)
	}
	if p := f.puzzle(t, ch); p.IsSolved() || p.Solution != "" {
		t.Error("unsolve did not clear the solution")
	}
}

func TestDelete_RejectsSolvedPuzzles(t *testing.T) {
	f := setup(t)
	ch := f.puzzleChannel(t, "Round 1", "done")
	f.run(ch.ID, ch.Name, ch.SectionID, "!solve ANSWER")

	reply := f.run(ch.ID, ch.Name, ch.SectionID, "!delete")
	if !strings.HasPrefix(reply, ":exclamation:") {
		t.Errorf("delete of solved puzzle succeeded: %q", reply)
	}
}

func TestDeleteAndUndelete(t *testing.T) {
	f := setup(t)
	ch := f.puzzleChannel(t, "Round 1", "mistake")

	reply := f.run(ch.ID, ch.Name, ch.SectionID, "!delete")
	if !strings.Contains(reply, "!undelete") {
		t.Errorf("delete reply = %q", reply)
	}
	if p := f.puzzle(t, ch); p.DeleteRequest == nil {
		t.Fatal("delete request not recorded")
	}

	reply = f.run(ch.ID, ch.Name, ch.SectionID, "!undelete")
	if strings.HasPrefix(reply, ":exclamation:") {
		t.Fatalf("undelete failed: %s", reply)
	}
	if p := f.puzzle(t, ch); p.DeleteRequest != nil {
		t.Error("delete request not cleared")
	}

	// A second undelete has nothing to do but is not an error.
	reply = f.run(ch.ID, ch.Name, ch.SectionID, "!undelete")
	if strings.HasPrefix(reply, ":exclamation:") {
		t.Errorf("idle undelete errored: %q", reply)
	}
}

func TestDelete_ReplyQuotesConfiguredGrace(t *testing.T) {
	f := setup(t)
	h, err := NewHandler(HandlerOpts{
		Store:       f.store,
		Settings:    f.cache,
		Workspace:   f.ws,
		Docs:        f.docs,
		DeleteGrace: 2 * time.Minute,
		Now:         func() time.Time { return f.now },
		Out:         io.Discard,
	})
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}
	f.handler = h

	ch := f.puzzleChannel(t, "Round 1", "mistake")
	reply := f.run(ch.ID, ch.Name, ch.SectionID, "!delete")
	if !strings.Contains(reply, "2 minute(s)") {
		t.Errorf("delete reply = %q, want the configured 2 minute grace", reply)
	}
}

func TestStatusAndType(t *testing.T) {
	f := setup(t)
	ch := f.puzzleChannel(t, "Round 1", "statusful")

	f.run(ch.ID, ch.Name, ch.SectionID, "!status extracting")
	if p := f.puzzle(t, ch); p.Status != "extracting" {
		t.Errorf("Status = %q", p.Status)
	}

	// Solved is not a status you can set by hand.
	reply := f.run(ch.ID, ch.Name, ch.SectionID, "!status solved")
	if !strings.Contains(reply, "!solve") {
		t.Errorf("reply = %q, want a redirect to !solve", reply)
	}

	f.run(ch.ID, ch.Name, ch.SectionID, "!type meta")
	if p := f.puzzle(t, ch); p.PuzzleType != "meta" {
		t.Errorf("PuzzleType = %q", p.PuzzleType)
	}

	reply = f.run(ch.ID, ch.Name, ch.SectionID, "!status")
	if !strings.Contains(reply, "extracting") {
		t.Errorf("status display = %q", reply)
	}
}

func TestPriority_Validation(t *testing.T) {
	f := setup(t)
	ch := f.puzzleChannel(t, "Round 1", "urgentish")

	reply := f.run(ch.ID, ch.Name, ch.SectionID, "!priority urgent")
	if !strings.Contains(reply, "low, medium, high, very high") {
		t.Errorf("reply = %q, want the accepted values", reply)
	}

	f.run(ch.ID, ch.Name, ch.SectionID, "!priority HIGH")
	if p := f.puzzle(t, ch); p.Priority != "high" {
		t.Errorf("Priority = %q", p.Priority)
	}
}

func TestSheetCommand_ExtractsDriveID(t *testing.T) {
	f := setup(t)
	ch := f.puzzleChannel(t, "Round 1", "sheeted")

	id := "1a2b3c4d5e6f7g8h9i0j1k2l3m4n5o"
	f.run(ch.ID, ch.Name, ch.SectionID, "!sheet https://docs.google.com/spreadsheets/d/"+id+"/edit#gid=0")
	if p := f.puzzle(t, ch); p.SheetID != id {
		t.Errorf("SheetID = %q, want %q", p.SheetID, id)
	}

	reply := f.run(ch.ID, ch.Name, ch.SectionID, "!sheet not-a-drive-url")
	if !strings.HasPrefix(reply, ":exclamation:") {
		t.Errorf("bad URL accepted: %q", reply)
	}
}

func TestNotes(t *testing.T) {
	f := setup(t)
	ch := f.puzzleChannel(t, "Round 1", "noted")

	reply := f.run(ch.ID, ch.Name, ch.SectionID, "!note the flavor text mentions colors")
	if !strings.Contains(reply, "#1") {
		t.Errorf("add reply = %q", reply)
	}
	f.run(ch.ID, ch.Name, ch.SectionID, "!note try indexing by the enumeration")

	reply = f.run(ch.ID, ch.Name, ch.SectionID, "!note")
	if !strings.Contains(reply, "1. the flavor text mentions colors") ||
		!strings.Contains(reply, "2. try indexing by the enumeration") {
		t.Errorf("listing = %q", reply)
	}

	reply = f.run(ch.ID, ch.Name, ch.SectionID, "!erase_note 1")
	if !strings.Contains(reply, "flavor text") {
		t.Errorf("erase reply = %q", reply)
	}
	p := f.puzzle(t, ch)
	notes, err := f.store.Notes(p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(notes) != 1 || notes[0].Text != "try indexing by the enumeration" {
		t.Errorf("remaining notes = %+v", notes)
	}

	reply = f.run(ch.ID, ch.Name, ch.SectionID, "!erase_note 9")
	if !strings.HasPrefix(reply, ":exclamation:") {
		t.Errorf("out of range erase accepted: %q", reply)
	}
}

func TestList_GroupsByRound(t *testing.T) {
	f := setup(t)
	a := f.puzzleChannel(t, "Round 1", "alpha")
	f.now = f.now.Add(time.Minute)
	f.ws.AddSection("g1", "round-2", 2)
	f.run("c0", "general", "", "!puzzle round 2: beta")
	f.run(a.ID, a.Name, a.SectionID, "!solve FISH")

	reply := f.run("c0", "general", "", "!list")
	if !strings.Contains(reply, "**Round 1**") || !strings.Contains(reply, "**Round 2**") {
		t.Errorf("listing missing round headers: %q", reply)
	}
	if !strings.Contains(reply, "solved: `FISH`") {
		t.Errorf("listing missing solution: %q", reply)
	}
	if strings.Index(reply, "**Round 1**") > strings.Index(reply, "**Round 2**") {
		t.Errorf("rounds out of order: %q", reply)
	}
}

func TestGuildSettings(t *testing.T) {
	f := setup(t)

	reply := f.run("c1", "general", "", "!update_setting discussion_channel chat")
	if !strings.Contains(reply, "`general`") || !strings.Contains(reply, "`chat`") {
		t.Errorf("update reply = %q", reply)
	}

	reply = f.run("c1", "general", "", "!show_settings")
	if !strings.Contains(reply, "discussion_channel: chat") {
		t.Errorf("show reply = %q", reply)
	}

	reply = f.run("c1", "general", "", "!update_setting no_such_key x")
	if !strings.HasPrefix(reply, ":exclamation:") {
		t.Errorf("unknown key accepted: %q", reply)
	}
}

func TestHuntSettings(t *testing.T) {
	f := setup(t)
	f.run("c1", "general", "", "!hunt galactic https://galactic.example")
	section, err := f.ws.FindSection(context.Background(), "g1", "galactic")
	if err != nil {
		t.Fatal(err)
	}

	reply := f.run("c2", "general", section.ID, "!update_hunt_setting url_sep -")
	if strings.HasPrefix(reply, ":exclamation:") {
		t.Fatalf("update failed: %s", reply)
	}

	reply = f.run("c2", "general", section.ID, "!show_hunt_settings")
	if !strings.Contains(reply, "url_sep: -") {
		t.Errorf("show reply = %q", reply)
	}

	// Outside any tracked round there is no hunt to configure.
	reply = f.run("c9", "random", "", "!show_hunt_settings")
	if !strings.HasPrefix(reply, ":exclamation:") {
		t.Errorf("sectionless hunt settings accepted: %q", reply)
	}
}

func TestArchiveSolved_RunsImmediately(t *testing.T) {
	f := setup(t)
	ch := f.puzzleChannel(t, "Round 1", "tollbooth")
	f.run(ch.ID, ch.Name, ch.SectionID, "!solve SEVEN SEAS")

	reply := f.run("c0", "general", "", "!archive_solved")
	if !strings.Contains(reply, "Archived 1") {
		t.Fatalf("reply = %q", reply)
	}
	p := f.puzzle(t, ch)
	if p.ArchiveTime == nil {
		t.Fatal("puzzle not archived")
	}
	moved := f.ws.Channel(ch.ID)
	if moved == nil || moved.SectionID == ch.SectionID {
		t.Error("channel was not moved to a solved section")
	}

	reply = f.run("c0", "general", "", "!archive_solved")
	if !strings.Contains(reply, "Nothing to archive") {
		t.Errorf("second run = %q", reply)
	}
}

func TestCleanupDeletedChannels(t *testing.T) {
	f := setup(t)
	ch := f.puzzleChannel(t, "Round 1", "vanished")
	kept := f.puzzleChannel(t, "Round 1", "still-here")

	if err := f.ws.DeleteChannel(context.Background(), "g1", ch.ID); err != nil {
		t.Fatal(err)
	}

	reply := f.run("c0", "general", "", "!cleanup_deleted_channels")
	if !strings.Contains(reply, "1 puzzle(s)") {
		t.Fatalf("reply = %q", reply)
	}
	if p := f.puzzle(t, ch); p.DeleteTime == nil {
		t.Error("orphaned row not marked deleted")
	}
	if p := f.puzzle(t, kept); p.DeleteTime != nil {
		t.Error("live puzzle was marked deleted")
	}
}

func TestCleanNames(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Toll Booth", "toll-booth"},
		{`"Quoted Name"`, "quoted-name"},
		{"'single'", "single"},
		{"  spaced   out  ", "spaced-out"},
	}
	for _, c := range cases {
		if got := CleanName(c.in); got != c.want {
			t.Errorf("CleanName(%q) = %q, want %q", c.in, got, c.want)
		}
	}
	if got := CapName("toll-booth"); got != "Toll Booth" {
		t.Errorf("CapName = %q", got)
	}
}
