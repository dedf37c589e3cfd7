package config

import (
	"testing"
	"time"
)

func TestParseDurationField(t *testing.T) {
	t.Parallel()
	cases := []struct {
		raw     string
		want    time.Duration
		wantErr bool
	}{
		{"", 0, false},
		{"  ", 0, false},
		{"5s", 5 * time.Second, false},
		{"1m30s", 90 * time.Second, false},
		{"500ms", 500 * time.Millisecond, false},
		{"-5s", 0, true},
		{"5", 0, true},
		{"soon", 0, true},
	}
	for _, tc := range cases {
		got, err := ParseDurationField("test.field", tc.raw)
		if (err != nil) != tc.wantErr {
			t.Errorf("ParseDurationField(%q) err = %v, wantErr %v", tc.raw, err, tc.wantErr)
			continue
		}
		if !tc.wantErr && got != tc.want {
			t.Errorf("ParseDurationField(%q) = %v, want %v", tc.raw, got, tc.want)
		}
	}
}

func TestParseDurationOrDefault(t *testing.T) {
	t.Parallel()
	if d, err := ParseDurationOrDefault("f", "", 3*time.Second); err != nil || d != 3*time.Second {
		t.Errorf("empty = (%v, %v), want default 3s", d, err)
	}
	if d, err := ParseDurationOrDefault("f", "7s", 3*time.Second); err != nil || d != 7*time.Second {
		t.Errorf("explicit = (%v, %v), want 7s", d, err)
	}
	if _, err := ParseDurationOrDefault("f", "bogus", 3*time.Second); err == nil {
		t.Error("bogus duration accepted")
	}
}

func TestParseClock(t *testing.T) {
	t.Parallel()
	cases := []struct {
		raw     string
		want    Clock
		wantErr bool
	}{
		{"09:00", Clock{9, 0}, false},
		{"23:59", Clock{23, 59}, false},
		{"0:5", Clock{0, 5}, false},
		{" 14:00 ", Clock{14, 0}, false},
		{"24:00", Clock{}, true},
		{"12:60", Clock{}, true},
		{"12", Clock{}, true},
		{"12:00:00", Clock{}, true},
		{"noon", Clock{}, true},
	}
	for _, tc := range cases {
		got, err := ParseClock(tc.raw)
		if (err != nil) != tc.wantErr {
			t.Errorf("ParseClock(%q) err = %v, wantErr %v", tc.raw, err, tc.wantErr)
			continue
		}
		if !tc.wantErr && got != tc.want {
			t.Errorf("ParseClock(%q) = %+v, want %+v", tc.raw, got, tc.want)
		}
	}
}

func TestClockString(t *testing.T) {
	t.Parallel()
	if s := (Clock{Hour: 9, Minute: 5}).String(); s != "09:05" {
		t.Errorf("String() = %q, want \"09:05\"", s)
	}
}

func TestParseWeekday(t *testing.T) {
	t.Parallel()
	cases := []struct {
		raw     string
		want    time.Weekday
		wantErr bool
	}{
		{"monday", time.Monday, false},
		{"Mon", time.Monday, false},
		{"SATURDAY", time.Saturday, false},
		{" tue ", time.Tuesday, false},
		{"mo", 0, true},
		{"funday", 0, true},
		{"", 0, true},
	}
	for _, tc := range cases {
		got, err := ParseWeekday(tc.raw)
		if (err != nil) != tc.wantErr {
			t.Errorf("ParseWeekday(%q) err = %v, wantErr %v", tc.raw, err, tc.wantErr)
			continue
		}
		if !tc.wantErr && got != tc.want {
			t.Errorf("ParseWeekday(%q) = %v, want %v", tc.raw, got, tc.want)
		}
	}
}
