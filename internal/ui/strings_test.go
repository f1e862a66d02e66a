package ui

import (
	"testing"
	"time"
)

func TestTruncate(t *testing.T) {
	cases := []struct {
		in    string
		limit int
		want  string
	}{
		{"hello", 10, "hello"},
		{"  hello  ", 5, "hello"},
		{"hello world", 8, "hello..."},
		{"héllo wörld", 8, "héllo..."},
		{"abcd", 2, "ab"},
		{"abc", 0, ""},
	}
	for _, tc := range cases {
		if got := truncate(tc.in, tc.limit); got != tc.want {
			t.Fatalf("truncate(%q, %d) = %q, want %q", tc.in, tc.limit, got, tc.want)
		}
	}
}

func TestTruncateMiddle(t *testing.T) {
	if got := truncateMiddle("  ", 10); got != "" {
		t.Fatalf("truncateMiddle blank = %q, want empty", got)
	}
	if got := truncateMiddle("abcdefgh", 4); got != "abcd" {
		t.Fatalf("truncateMiddle short limit = %q, want abcd", got)
	}
	got := truncateMiddle("https://cdn.example.com/posts/photo.jpg", 16)
	if len([]rune(got)) != 16 {
		t.Fatalf("got %q (%d runes), want 16", got, len([]rune(got)))
	}
	if got[len(got)-4:] != ".jpg" {
		t.Fatalf("truncateMiddle dropped the file name: %q", got)
	}
}

func TestFirstLine(t *testing.T) {
	if got := firstLine("\n  \n first \nsecond"); got != "first" {
		t.Fatalf("firstLine = %q, want first", got)
	}
	if got := firstLine(" \n "); got != "" {
		t.Fatalf("firstLine blank = %q", got)
	}
}

func TestHumanizeAge(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want string
	}{
		{-time.Second, "just now"},
		{30 * time.Second, "just now"},
		{5 * time.Minute, "5m ago"},
		{3 * time.Hour, "3h ago"},
		{50 * time.Hour, "2d ago"},
	}
	for _, tc := range cases {
		if got := humanizeAge(tc.in); got != tc.want {
			t.Fatalf("humanizeAge(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFormatPostTime(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.Local)
	if got := formatPostTime(time.Time{}, now); got != "" {
		t.Fatalf("zero time = %q, want empty", got)
	}
	if got := formatPostTime(now.Add(-2*time.Hour), now); got != "2h ago" {
		t.Fatalf("recent = %q, want 2h ago", got)
	}
	if got := formatPostTime(time.Date(2024, 1, 3, 9, 0, 0, 0, time.Local), now); got != "Jan 3" {
		t.Fatalf("this year = %q, want Jan 3", got)
	}
	if got := formatPostTime(time.Date(2022, 1, 3, 9, 0, 0, 0, time.Local), now); got != "Jan 3, 2022" {
		t.Fatalf("older = %q, want Jan 3, 2022", got)
	}
}

func TestVisibleWindow(t *testing.T) {
	cases := []struct {
		selected, total, height int
		start, end              int
	}{
		{0, 0, 5, 0, 0},
		{2, 3, 5, 0, 3},
		{0, 10, 4, 0, 4},
		{9, 10, 4, 6, 10},
		{5, 10, 4, 2, 6},
		{99, 10, 4, 6, 10},
	}
	for _, tc := range cases {
		start, end := visibleWindow(tc.selected, tc.total, tc.height)
		if start != tc.start || end != tc.end {
			t.Fatalf("visibleWindow(%d, %d, %d) = [%d, %d), want [%d, %d)",
				tc.selected, tc.total, tc.height, start, end, tc.start, tc.end)
		}
		if tc.total > 0 && (tc.selected < tc.total) && (tc.selected < start || tc.selected >= end) {
			t.Fatalf("selected %d outside window [%d, %d)", tc.selected, start, end)
		}
	}
}

func TestPlural(t *testing.T) {
	if got := plural(1, "like"); got != "1 like" {
		t.Fatalf("plural(1) = %q", got)
	}
	if got := plural(0, "comment"); got != "0 comments" {
		t.Fatalf("plural(0) = %q", got)
	}
}
