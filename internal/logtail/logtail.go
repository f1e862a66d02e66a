package logtail

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// Read returns at most maxLines from the end of the file at path. A
// non-positive maxLines returns every line.
func Read(path string, maxLines int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if maxLines <= 0 {
		var lines []string
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read log: %w", err)
		}
		return lines, nil
	}

	ring := make([]string, maxLines)
	count := 0
	idx := 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// Level is the severity inferred for a log line.
type Level int

// Levels, least severe first.
const (
	LevelInfo Level = iota
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}

// Entry is one parsed line of the client log.
type Entry struct {
	Time    time.Time
	Level   Level
	Source  string // leading "component:" of the message, if any
	Message string
	Raw     string
}

// stdlib log.LstdFlags prefix: "2006/01/02 15:04:05 ".
const stampLayout = "2006/01/02 15:04:05"

// Parse splits a line written by the standard logger into its parts.
// Lines without a timestamp keep their text as the message.
func Parse(line string) Entry {
	entry := Entry{Raw: line, Message: strings.TrimSpace(line)}
	if len(line) > len(stampLayout) {
		if ts, err := time.ParseInLocation(stampLayout, line[:len(stampLayout)], time.Local); err == nil {
			entry.Time = ts
			entry.Message = strings.TrimSpace(line[len(stampLayout):])
		}
	}
	if head, rest, ok := strings.Cut(entry.Message, ": "); ok && head != "" && !strings.ContainsAny(head, " \t") {
		entry.Source = head
		entry.Message = rest
	}
	entry.Level = classify(entry.Message)
	return entry
}

func classify(message string) Level {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "failed"), strings.Contains(lower, "error"), strings.Contains(lower, "panic"):
		return LevelError
	case strings.Contains(lower, "skipping"), strings.Contains(lower, "retry"), strings.Contains(lower, "warn"), strings.Contains(lower, "backing off"):
		return LevelWarn
	default:
		return LevelInfo
	}
}

// Filter parses lines and keeps those at or above min.
func Filter(lines []string, min Level) []Entry {
	out := make([]Entry, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		entry := Parse(line)
		if entry.Level >= min {
			out = append(out, entry)
		}
	}
	return out
}
