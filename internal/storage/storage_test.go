package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func openTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStorage(t *testing.T) {
	t.Run("DefaultPreferences", func(t *testing.T) {
		prefs := DefaultPreferences()
		if prefs.Username != "Player" {
			t.Errorf("Expected username 'Player', got '%s'", prefs.Username)
		}
		if prefs.Difficulty != "medium" {
			t.Errorf("Expected medium difficulty, got %q", prefs.Difficulty)
		}
		if prefs.Depth <= 0 {
			t.Errorf("Expected a positive default depth, got %d", prefs.Depth)
		}
	})

	t.Run("NewGameStats", func(t *testing.T) {
		stats := NewGameStats()
		if stats.GamesPlayed != 0 {
			t.Errorf("Expected 0 games played")
		}
		if stats.GetWinRate() != 0 {
			t.Errorf("Expected 0 win rate")
		}
	})

	t.Run("WinRate", func(t *testing.T) {
		stats := &GameStats{GamesPlayed: 10, Wins: 5, Losses: 5}
		if rate := stats.GetWinRate(); rate != 50 {
			t.Errorf("Expected 50%% win rate, got %.2f%%", rate)
		}
	})
}

func TestPreferencesRoundTrip(t *testing.T) {
	s := openTestStorage(t)

	prefs, err := s.LoadPreferences()
	if err != nil {
		t.Fatalf("LoadPreferences on empty db: %v", err)
	}
	if prefs.Username != "Player" {
		t.Errorf("empty db should yield defaults, got %+v", prefs)
	}

	prefs.Username = "carol"
	prefs.Depth = 6
	prefs.MoveTime = 750 * time.Millisecond
	if err := s.SavePreferences(prefs); err != nil {
		t.Fatalf("SavePreferences: %v", err)
	}

	got, err := s.LoadPreferences()
	if err != nil {
		t.Fatalf("LoadPreferences: %v", err)
	}
	if got.Username != "carol" || got.Depth != 6 || got.MoveTime != 750*time.Millisecond {
		t.Errorf("got %+v", got)
	}
}

func TestRecordGame(t *testing.T) {
	s := openTestStorage(t)

	results := []GameResult{
		{Won: true, Mode: ModeHumanVsComputer, Difficulty: "easy", Duration: time.Minute},
		{Won: true, Mode: ModeHumanVsComputer, Difficulty: "hard", Duration: time.Minute},
		{Won: false, Mode: ModeHumanVsHuman, Duration: time.Minute},
	}
	for _, r := range results {
		if err := s.RecordGame(r); err != nil {
			t.Fatalf("RecordGame: %v", err)
		}
	}

	stats, err := s.LoadStats()
	if err != nil {
		t.Fatalf("LoadStats: %v", err)
	}
	if stats.GamesPlayed != 3 || stats.Wins != 2 || stats.Losses != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.LongestWinStrk != 2 || stats.CurrentStreak != 0 {
		t.Errorf("streaks = %d / %d", stats.LongestWinStrk, stats.CurrentStreak)
	}
	if stats.WinsByMode["hvc"] != 2 || stats.WinsByDiff["hard"] != 1 {
		t.Errorf("breakdown = %v / %v", stats.WinsByMode, stats.WinsByDiff)
	}
	if stats.TotalPlayTime != 3*time.Minute {
		t.Errorf("play time = %v", stats.TotalPlayTime)
	}
}

func TestGameRecords(t *testing.T) {
	s := openTestStorage(t)

	if _, err := s.LoadGame("missing"); !errors.Is(err, ErrGameNotFound) {
		t.Errorf("LoadGame(missing) error = %v, want ErrGameNotFound", err)
	}
	if err := s.SaveGame(&GameRecord{}); err == nil {
		t.Error("SaveGame accepted a record without ID")
	}

	first := &GameRecord{
		ID:       "a",
		StartFEN: "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w - - 0 1",
		Moves:    []string{"e2e4", "e7e5"},
		Mode:     ModeHumanVsHuman,
	}
	if err := s.SaveGame(first); err != nil {
		t.Fatalf("SaveGame: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	second := &GameRecord{ID: "b", Mode: ModeHumanVsComputer, Difficulty: "easy"}
	if err := s.SaveGame(second); err != nil {
		t.Fatalf("SaveGame: %v", err)
	}

	got, err := s.LoadGame("a")
	if err != nil {
		t.Fatalf("LoadGame: %v", err)
	}
	if got.StartFEN != first.StartFEN || len(got.Moves) != 2 || got.Moves[1] != "e7e5" {
		t.Errorf("LoadGame(a) = %+v", got)
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Error("timestamps were not set")
	}

	list, err := s.ListGames()
	if err != nil {
		t.Fatalf("ListGames: %v", err)
	}
	if len(list) != 2 || list[0].ID != "b" {
		t.Errorf("ListGames order = %v", list)
	}

	if err := s.DeleteGame("a"); err != nil {
		t.Fatalf("DeleteGame: %v", err)
	}
	if _, err := s.LoadGame("a"); !errors.Is(err, ErrGameNotFound) {
		t.Errorf("deleted game still loads: %v", err)
	}
}

func TestDataPaths(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	t.Setenv(DataDirEnv, dir)

	dataDir, err := GetDataDir()
	if err != nil {
		t.Fatalf("GetDataDir failed: %v", err)
	}
	if dataDir != dir {
		t.Errorf("GetDataDir = %s, want %s", dataDir, dir)
	}

	dbDir, err := GetDatabaseDir()
	if err != nil {
		t.Fatalf("GetDatabaseDir failed: %v", err)
	}
	if _, err := os.Stat(dbDir); os.IsNotExist(err) {
		t.Errorf("Database directory was not created: %s", dbDir)
	}
}
