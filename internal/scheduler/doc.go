// Package scheduler runs the bot's time-based work: auto-posting due jobs,
// the daily report, the weekly retention sweep and the daily backup.
//
// One goroutine ticks every second and evaluates the trigger set; due
// handlers are spawned on their own goroutines so handler duration never
// delays the next tick. Each trigger advances its occurrence marker before
// its handler starts, guaranteeing at most one firing per occurrence even
// under tick delay.
package scheduler
