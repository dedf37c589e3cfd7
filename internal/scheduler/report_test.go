package scheduler

import (
	"strings"
	"testing"
	"time"

	"newsbot/internal/storage"
)

func TestPercentChange(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name     string
		current  int
		previous int
		want     string
	}{
		{"growth", 15, 10, "+50.0%"},
		{"decline", 5, 10, "-50.0%"},
		{"flat", 10, 10, "0.0%"},
		{"from zero", 3, 0, "+100%"},
		{"both zero", 0, 0, "0%"},
		{"to zero", 0, 4, "-100.0%"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := percentChange(tc.current, tc.previous); got != tc.want {
				t.Errorf("percentChange(%d, %d) = %q, want %q", tc.current, tc.previous, got, tc.want)
			}
		})
	}
}

func TestFormatReport(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 6, 15, 23, 59, 0, 0, time.UTC)
	today := storage.DayStats{
		Date:           now,
		ActiveActors:   12,
		PostsPublished: 30,
		QueuedPending:  4,
		Failed:         2,
	}
	yesterday := storage.DayStats{
		Date:           now.AddDate(0, 0, -1),
		ActiveActors:   10,
		PostsPublished: 40,
	}

	text := formatReport(today, yesterday, now)
	for _, want := range []string{
		"Daily Bot Report — 2025-06-15",
		"Active users: 12",
		"Posts published: 30",
		"Queue pending: 4",
		"Jobs failed: 2",
		"Users: 12 vs 10 (+20.0%)",
		"Posts: 30 vs 40 (-25.0%)",
		"Generated at 2025-06-15 23:59:00",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("report missing %q:\n%s", want, text)
		}
	}
}

func TestFormatReportOmitsFailedLineWhenClean(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 6, 15, 23, 59, 0, 0, time.UTC)
	text := formatReport(storage.DayStats{Date: now}, storage.DayStats{}, now)
	if strings.Contains(text, "Jobs failed") {
		t.Fatalf("clean day still reports failures:\n%s", text)
	}
}
