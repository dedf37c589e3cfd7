package scheduler

import (
	"fmt"
	"strings"
	"time"

	"newsbot/internal/storage"
)

// formatReport renders the daily summary sent to admins, comparing today
// against the prior day.
func formatReport(today, yesterday storage.DayStats, generatedAt time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 Daily Bot Report — %s\n\n", today.Date.Format("2006-01-02"))

	b.WriteString("Today:\n")
	fmt.Fprintf(&b, "👥 Active users: %d\n", today.ActiveActors)
	fmt.Fprintf(&b, "📤 Posts published: %d\n", today.PostsPublished)
	fmt.Fprintf(&b, "🕐 Queue pending: %d\n", today.QueuedPending)
	if today.Failed > 0 {
		fmt.Fprintf(&b, "⚠️ Jobs failed: %d\n", today.Failed)
	}

	b.WriteString("\nVs yesterday:\n")
	fmt.Fprintf(&b, "👥 Users: %d vs %d (%s)\n",
		today.ActiveActors, yesterday.ActiveActors,
		percentChange(today.ActiveActors, yesterday.ActiveActors))
	fmt.Fprintf(&b, "📤 Posts: %d vs %d (%s)\n",
		today.PostsPublished, yesterday.PostsPublished,
		percentChange(today.PostsPublished, yesterday.PostsPublished))

	fmt.Fprintf(&b, "\nGenerated at %s", generatedAt.Format("2006-01-02 15:04:05"))
	return b.String()
}

func percentChange(current, previous int) string {
	if previous == 0 {
		if current > 0 {
			return "+100%"
		}
		return "0%"
	}
	change := float64(current-previous) / float64(previous) * 100
	sign := ""
	if change > 0 {
		sign = "+"
	}
	return fmt.Sprintf("%s%.1f%%", sign, change)
}
