package telegram

import (
	"testing"
	"time"
	"unicode/utf8"
)

func TestParseScheduleArgs(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name    string
		payload string
		want    time.Time
		text    string
		wantErr bool
	}{
		{
			name:    "now",
			payload: "now breaking news",
			want:    now,
			text:    "breaking news",
		},
		{
			name:    "later today",
			payload: "14:30 afternoon post",
			want:    time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC),
			text:    "afternoon post",
		},
		{
			name:    "earlier time rolls to tomorrow",
			payload: "09:00 morning post",
			want:    time.Date(2025, 6, 16, 9, 0, 0, 0, time.UTC),
			text:    "morning post",
		},
		{
			name:    "case insensitive now",
			payload: "NOW shouting",
			want:    now,
			text:    "shouting",
		},
		{
			name:    "missing text",
			payload: "14:30",
			wantErr: true,
		},
		{
			name:    "only whitespace text",
			payload: "now    ",
			wantErr: true,
		},
		{
			name:    "bad time",
			payload: "25:00 text",
			wantErr: true,
		},
		{
			name:    "empty payload",
			payload: "",
			wantErr: true,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			when, text, err := parseScheduleArgs(tc.payload, now)
			if (err != nil) != tc.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tc.wantErr)
			}
			if tc.wantErr {
				return
			}
			if !when.Equal(tc.want) {
				t.Errorf("when = %v, want %v", when, tc.want)
			}
			if text != tc.text {
				t.Errorf("text = %q, want %q", text, tc.text)
			}
		})
	}
}

func TestPreview(t *testing.T) {
	t.Parallel()
	cases := []struct {
		in     string
		maxLen int
		want   string
	}{
		{"short", 40, "short"},
		{"spread\nacross\nlines", 40, "spread across lines"},
		{"  padded   out  ", 40, "padded out"},
		{"abcdefghijklmnop", 10, "abcdefg..."},
		{"समाचार अपडेट ताज़ा ख़बरें यहाँ", 10, "समाचार ..."},
	}
	for _, tc := range cases {
		got := preview(tc.in, tc.maxLen)
		if got != tc.want {
			t.Errorf("preview(%q, %d) = %q, want %q", tc.in, tc.maxLen, got, tc.want)
		}
		if !utf8.ValidString(got) {
			t.Errorf("preview(%q, %d) produced invalid UTF-8: %q", tc.in, tc.maxLen, got)
		}
	}
}
