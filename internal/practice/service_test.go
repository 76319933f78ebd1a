package practice

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/nording/breathe/internal/domain"
	"github.com/nording/breathe/internal/storage"
)

func newTestService(t *testing.T) (*Service, *storage.SQLiteRepository) {
	t.Helper()

	repo, err := storage.NewMemory()
	if err != nil {
		t.Fatalf("new memory repo: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	if err := repo.EnsurePresets(domain.PresetPatterns()); err != nil {
		t.Fatalf("seed presets: %v", err)
	}

	svc := NewService(repo, DefaultConfig())
	setDay(svc, 10)
	return svc, repo
}

// setDay pins the service clock to noon UTC on the given day of March 2026.
// 2026-03-09 is a Monday.
func setDay(svc *Service, day int) {
	svc.now = func() time.Time {
		return time.Date(2026, 3, day, 12, 0, 0, 0, time.UTC)
	}
}

func seedUser(t *testing.T, repo *storage.SQLiteRepository, email string) *domain.User {
	t.Helper()

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: "x",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := repo.CreateUser(user, domain.DefaultPreferences(user.ID)); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func presetID(t *testing.T, svc *Service, userID, slug string) string {
	t.Helper()

	patterns, err := svc.Patterns(userID)
	if err != nil {
		t.Fatalf("list patterns: %v", err)
	}
	for _, p := range patterns {
		if p.Slug == slug {
			return p.ID
		}
	}
	t.Fatalf("preset %s not seeded", slug)
	return ""
}

// practiceOn starts and completes a 300s session on the given March 2026
// day, returning the stats from the completion.
func practiceOn(t *testing.T, svc *Service, userID, patternID string, day, actualSec int) *domain.UserStats {
	t.Helper()

	setDay(svc, day)
	sess, err := svc.Start(userID, patternID, 300)
	if err != nil {
		t.Fatalf("start session: %v", err)
	}

	_, stats, err := svc.Complete(userID, sess.ID, actualSec, "UTC")
	if err != nil {
		t.Fatalf("complete session: %v", err)
	}
	return stats
}

func TestStartValidatesTarget(t *testing.T) {
	svc, repo := newTestService(t)
	user := seedUser(t, repo, "ada@example.com")
	pattern := presetID(t, svc, user.ID, "box-breathing")

	_, err := svc.Start(user.ID, pattern, 90)
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("err = %v want ErrInvalidInput", err)
	}

	for _, target := range []int{120, 300, 600} {
		sess, err := svc.Start(user.ID, pattern, target)
		if err != nil {
			t.Fatalf("start with target %d: %v", target, err)
		}
		if sess.Finalized() || sess.Completed {
			t.Fatalf("new session not open: %+v", sess)
		}
	}
}

func TestStartUnknownPattern(t *testing.T) {
	svc, repo := newTestService(t)
	user := seedUser(t, repo, "ada@example.com")

	_, err := svc.Start(user.ID, "no-such-pattern", 300)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v want ErrNotFound", err)
	}
}

func TestStartOtherUsersPattern(t *testing.T) {
	svc, repo := newTestService(t)
	ada := seedUser(t, repo, "ada@example.com")
	bob := seedUser(t, repo, "bob@example.com")

	custom, err := svc.CreatePattern(ada.ID, domain.BreathingPattern{
		Name: "Adas Own", InhaleSec: 4, ExhaleSec: 4,
	})
	if err != nil {
		t.Fatalf("create pattern: %v", err)
	}

	if _, err := svc.Start(bob.ID, custom.ID, 300); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v want ErrNotFound", err)
	}
}

// New user completes a full 300s session: first streak day.
func TestCompleteFirstSession(t *testing.T) {
	svc, repo := newTestService(t)
	user := seedUser(t, repo, "ada@example.com")
	pattern := presetID(t, svc, user.ID, "box-breathing")

	setDay(svc, 10)
	sess, err := svc.Start(user.ID, pattern, 300)
	if err != nil {
		t.Fatal(err)
	}

	done, stats, err := svc.Complete(user.ID, sess.ID, 300, "UTC")
	if err != nil {
		t.Fatal(err)
	}

	if !done.Completed {
		t.Fatal("full session not marked completed")
	}
	if done.LocalDate != "2026-03-10" {
		t.Fatalf("local date = %q want 2026-03-10", done.LocalDate)
	}
	if stats.CurrentStreak != 1 || stats.LongestStreak != 1 {
		t.Fatalf("streak = %d/%d want 1/1", stats.CurrentStreak, stats.LongestStreak)
	}
	if stats.TotalSessions != 1 || stats.TotalMinutes != 5 {
		t.Fatalf("totals = %d sessions, %v minutes want 1, 5", stats.TotalSessions, stats.TotalMinutes)
	}
	if stats.LastPractice != "2026-03-10" {
		t.Fatalf("last practice = %q want 2026-03-10", stats.LastPractice)
	}
}

// Second completion on the same local date: totals move, streak holds.
func TestCompleteSameDayRepeat(t *testing.T) {
	svc, repo := newTestService(t)
	user := seedUser(t, repo, "ada@example.com")
	pattern := presetID(t, svc, user.ID, "box-breathing")

	practiceOn(t, svc, user.ID, pattern, 10, 300)
	stats := practiceOn(t, svc, user.ID, pattern, 10, 150)

	if stats.CurrentStreak != 1 {
		t.Fatalf("streak = %d want 1", stats.CurrentStreak)
	}
	if stats.TotalSessions != 2 || stats.TotalMinutes != 7.5 {
		t.Fatalf("totals = %d sessions, %v minutes want 2, 7.5", stats.TotalSessions, stats.TotalMinutes)
	}
	if stats.LastPractice != "2026-03-10" {
		t.Fatalf("last practice = %q want 2026-03-10", stats.LastPractice)
	}
}

// A skipped day resets the streak but the longest survives.
func TestCompleteAfterGapResets(t *testing.T) {
	svc, repo := newTestService(t)
	user := seedUser(t, repo, "ada@example.com")
	pattern := presetID(t, svc, user.ID, "box-breathing")

	practiceOn(t, svc, user.ID, pattern, 9, 300)
	practiceOn(t, svc, user.ID, pattern, 10, 300)
	stats := practiceOn(t, svc, user.ID, pattern, 11, 300)

	if stats.CurrentStreak != 3 || stats.LongestStreak != 3 {
		t.Fatalf("streak = %d/%d want 3/3", stats.CurrentStreak, stats.LongestStreak)
	}

	// Rest on the 12th.
	stats = practiceOn(t, svc, user.ID, pattern, 13, 300)

	if stats.CurrentStreak != 1 {
		t.Fatalf("streak after gap = %d want 1", stats.CurrentStreak)
	}
	if stats.LongestStreak != 3 {
		t.Fatalf("longest after gap = %d want 3", stats.LongestStreak)
	}
}

// A session below half the target is recorded but never counted.
func TestCompleteBelowRatio(t *testing.T) {
	svc, repo := newTestService(t)
	user := seedUser(t, repo, "ada@example.com")
	pattern := presetID(t, svc, user.ID, "box-breathing")

	sess, err := svc.Start(user.ID, pattern, 300)
	if err != nil {
		t.Fatal(err)
	}

	done, stats, err := svc.Complete(user.ID, sess.ID, 100, "UTC")
	if err != nil {
		t.Fatal(err)
	}

	if done.Completed {
		t.Fatal("session at ratio 1/3 marked completed")
	}
	if done.ActualSec == nil || *done.ActualSec != 100 {
		t.Fatal("actual seconds not stored verbatim")
	}
	if stats != nil {
		t.Fatalf("stats = %+v want nil for incomplete session", stats)
	}

	persisted, err := svc.Stats(user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if persisted.TotalSessions != 0 || persisted.CurrentStreak != 0 {
		t.Fatalf("incomplete session touched stats: %+v", persisted)
	}
}

func TestCompleteTwice(t *testing.T) {
	svc, repo := newTestService(t)
	user := seedUser(t, repo, "ada@example.com")
	pattern := presetID(t, svc, user.ID, "box-breathing")

	sess, err := svc.Start(user.ID, pattern, 300)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := svc.Complete(user.ID, sess.ID, 300, "UTC"); err != nil {
		t.Fatal(err)
	}

	_, _, err = svc.Complete(user.ID, sess.ID, 300, "UTC")
	if !errors.Is(err, domain.ErrAlreadyCompleted) {
		t.Fatalf("err = %v want ErrAlreadyCompleted", err)
	}

	stats, err := svc.Stats(user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalSessions != 1 {
		t.Fatalf("total sessions = %d want 1 after double complete", stats.TotalSessions)
	}
}

// Incomplete is terminal: a better second attempt is refused.
func TestCompleteIncompleteIsTerminal(t *testing.T) {
	svc, repo := newTestService(t)
	user := seedUser(t, repo, "ada@example.com")
	pattern := presetID(t, svc, user.ID, "box-breathing")

	sess, err := svc.Start(user.ID, pattern, 300)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := svc.Complete(user.ID, sess.ID, 10, "UTC"); err != nil {
		t.Fatal(err)
	}

	_, _, err = svc.Complete(user.ID, sess.ID, 300, "UTC")
	if !errors.Is(err, domain.ErrAlreadyCompleted) {
		t.Fatalf("err = %v want ErrAlreadyCompleted", err)
	}
}

func TestCompleteWrongUser(t *testing.T) {
	svc, repo := newTestService(t)
	ada := seedUser(t, repo, "ada@example.com")
	bob := seedUser(t, repo, "bob@example.com")
	pattern := presetID(t, svc, ada.ID, "box-breathing")

	sess, err := svc.Start(ada.ID, pattern, 300)
	if err != nil {
		t.Fatal(err)
	}

	_, _, err = svc.Complete(bob.ID, sess.ID, 300, "UTC")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v want ErrNotFound", err)
	}
}

func TestCompleteNegativeActual(t *testing.T) {
	svc, repo := newTestService(t)
	user := seedUser(t, repo, "ada@example.com")
	pattern := presetID(t, svc, user.ID, "box-breathing")

	sess, err := svc.Start(user.ID, pattern, 300)
	if err != nil {
		t.Fatal(err)
	}

	_, _, err = svc.Complete(user.ID, sess.ID, -1, "UTC")
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("err = %v want ErrInvalidInput", err)
	}
}

// Without a fallback zone, a bad timezone rejects the call and leaves the
// session open.
func TestCompleteBadTimezoneRejected(t *testing.T) {
	svc, repo := newTestService(t)
	user := seedUser(t, repo, "ada@example.com")
	pattern := presetID(t, svc, user.ID, "box-breathing")

	sess, err := svc.Start(user.ID, pattern, 300)
	if err != nil {
		t.Fatal(err)
	}

	for _, tz := range []string{"", "Mars/Olympus"} {
		_, _, err := svc.Complete(user.ID, sess.ID, 300, tz)
		if !errors.Is(err, domain.ErrInvalidInput) {
			t.Fatalf("tz %q: err = %v want ErrInvalidInput", tz, err)
		}
	}

	// Still open; a corrected call succeeds.
	if _, _, err := svc.Complete(user.ID, sess.ID, 300, "UTC"); err != nil {
		t.Fatalf("complete after rejected timezone: %v", err)
	}
}

func TestCompleteTimezoneFallback(t *testing.T) {
	repo, err := storage.NewMemory()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { repo.Close() })
	if err := repo.EnsurePresets(domain.PresetPatterns()); err != nil {
		t.Fatal(err)
	}

	svc := NewService(repo, Config{FallbackZone: "UTC"})
	setDay(svc, 10)

	user := seedUser(t, repo, "ada@example.com")
	pattern := presetID(t, svc, user.ID, "box-breathing")

	sess, err := svc.Start(user.ID, pattern, 300)
	if err != nil {
		t.Fatal(err)
	}

	done, _, err := svc.Complete(user.ID, sess.ID, 300, "Mars/Olympus")
	if err != nil {
		t.Fatalf("complete with fallback: %v", err)
	}
	if done.Timezone != "UTC" {
		t.Fatalf("timezone = %q want fallback UTC", done.Timezone)
	}
	if done.LocalDate != "2026-03-10" {
		t.Fatalf("local date = %q want 2026-03-10", done.LocalDate)
	}
}

// The practice date is the start instant seen from the client's zone, so a
// late-evening session can land on different calendar days per zone.
func TestCompleteLocalDatePerZone(t *testing.T) {
	svc, repo := newTestService(t)
	user := seedUser(t, repo, "ada@example.com")
	pattern := presetID(t, svc, user.ID, "box-breathing")

	svc.now = func() time.Time {
		return time.Date(2026, 3, 10, 23, 30, 0, 0, time.UTC)
	}

	tests := []struct {
		zone     string
		expected string
	}{
		{"UTC", "2026-03-10"},
		{"Asia/Tokyo", "2026-03-11"},
		{"America/New_York", "2026-03-10"},
	}
	for _, tt := range tests {
		sess, err := svc.Start(user.ID, pattern, 300)
		if err != nil {
			t.Fatal(err)
		}
		done, _, err := svc.Complete(user.ID, sess.ID, 300, tt.zone)
		if err != nil {
			t.Fatalf("complete in %s: %v", tt.zone, err)
		}
		if done.LocalDate != tt.expected {
			t.Errorf("local date in %s = %q want %q", tt.zone, done.LocalDate, tt.expected)
		}
	}
}

func TestWeeklyCalendar(t *testing.T) {
	svc, repo := newTestService(t)
	user := seedUser(t, repo, "ada@example.com")
	pattern := presetID(t, svc, user.ID, "box-breathing")

	practiceOn(t, svc, user.ID, pattern, 9, 300)  // Monday
	practiceOn(t, svc, user.ID, pattern, 11, 300) // Wednesday
	practiceOn(t, svc, user.ID, pattern, 12, 10)  // Thursday, below ratio

	marks, err := svc.WeeklyCalendar(user.ID, "UTC", "2026-03-11")
	if err != nil {
		t.Fatal(err)
	}

	if len(marks) != 7 {
		t.Fatalf("len(marks) = %d want 7", len(marks))
	}
	if marks[0].Date != "2026-03-09" || marks[6].Date != "2026-03-15" {
		t.Fatalf("week runs %s..%s want 2026-03-09..2026-03-15", marks[0].Date, marks[6].Date)
	}

	wantPracticed := map[string]bool{"2026-03-09": true, "2026-03-11": true}
	for _, m := range marks {
		if m.Practiced != wantPracticed[m.Date] {
			t.Errorf("%s practiced = %v want %v", m.Date, m.Practiced, wantPracticed[m.Date])
		}
	}
}

// Without an explicit date the week is anchored to today in the client's
// zone.
func TestWeeklyCalendarDefaultsToToday(t *testing.T) {
	svc, repo := newTestService(t)
	user := seedUser(t, repo, "ada@example.com")
	pattern := presetID(t, svc, user.ID, "box-breathing")

	practiceOn(t, svc, user.ID, pattern, 10, 300)
	setDay(svc, 13)

	marks, err := svc.WeeklyCalendar(user.ID, "UTC", "")
	if err != nil {
		t.Fatal(err)
	}
	if marks[0].Date != "2026-03-09" {
		t.Fatalf("week starts %s want 2026-03-09", marks[0].Date)
	}
	if !marks[1].Practiced {
		t.Fatal("practiced Tuesday not marked")
	}
}

func TestWeeklyCalendarBadInputs(t *testing.T) {
	svc, repo := newTestService(t)
	user := seedUser(t, repo, "ada@example.com")

	if _, err := svc.WeeklyCalendar(user.ID, "Mars/Olympus", ""); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("bad tz: err = %v want ErrInvalidInput", err)
	}
	if _, err := svc.WeeklyCalendar(user.ID, "UTC", "11-03-2026"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("bad date: err = %v want ErrInvalidInput", err)
	}
}

func TestHistory(t *testing.T) {
	svc, repo := newTestService(t)
	user := seedUser(t, repo, "ada@example.com")
	pattern := presetID(t, svc, user.ID, "box-breathing")

	for day := 9; day <= 11; day++ {
		practiceOn(t, svc, user.ID, pattern, day, 300)
	}

	all, err := svc.History(user.ID, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("len(history) = %d want 3", len(all))
	}
	if all[0].LocalDate != "2026-03-11" {
		t.Fatalf("newest first: got %s", all[0].LocalDate)
	}

	two, err := svc.History(user.ID, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(two) != 2 {
		t.Fatalf("len(history) = %d want 2", len(two))
	}
}

func TestGetScopedToOwner(t *testing.T) {
	svc, repo := newTestService(t)
	ada := seedUser(t, repo, "ada@example.com")
	bob := seedUser(t, repo, "bob@example.com")
	pattern := presetID(t, svc, ada.ID, "box-breathing")

	sess, err := svc.Start(ada.ID, pattern, 300)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Get(ada.ID, sess.ID); err != nil {
		t.Fatalf("owner get: %v", err)
	}
	if _, err := svc.Get(bob.ID, sess.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("stranger get: err = %v want ErrNotFound", err)
	}
}
