// Package history persists one JSON record per script run and formats
// timestamps without a calendar dependency.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/scriptdeck/scriptdeck/internal/runner"
)

const slugLimit = 64

// Entry is one immutable run record.
type Entry struct {
	Timestamp int64    `json:"timestamp"`
	Script    string   `json:"script"`
	Args      []string `json:"args"`
	Success   bool     `json:"success"`
	ExitCode  *int     `json:"exit_code,omitempty"`
	Stdout    string   `json:"stdout"`
	Stderr    string   `json:"stderr"`
	Error     string   `json:"error,omitempty"`
}

// NewSuccess builds an entry from a completed run. The script path is
// stored relative to the workspace root.
func NewSuccess(root, script string, args []string, out *runner.Output) Entry {
	exitCode := out.ExitCode
	return Entry{
		Timestamp: timestampMS(),
		Script:    relScript(root, script),
		Args:      append([]string(nil), args...),
		Success:   out.Success,
		ExitCode:  &exitCode,
		Stdout:    out.Stdout,
		Stderr:    out.Stderr,
	}
}

// NewFailure builds an entry for a run that never produced output,
// such as a launch error.
func NewFailure(root, script string, args []string, message string) Entry {
	return Entry{
		Timestamp: timestampMS(),
		Script:    relScript(root, script),
		Args:      append([]string(nil), args...),
		Success:   false,
		Error:     message,
	}
}

// Write persists the entry as its own file in dir. The name combines
// timestamp, process id, and a slug of the script path so files sort
// chronologically and rarely collide.
func Write(dir string, entry Entry) (string, error) {
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode history entry: %w", err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create history dir: %w", err)
	}
	name := fmt.Sprintf("%d-%d-%s.json", entry.Timestamp, os.Getpid(), slug(entry.Script))
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write history entry: %w", err)
	}
	return path, nil
}

// Load reads every record in dir, newest first. Unreadable or
// unparseable files are skipped; one corrupt record must not hide the
// rest. A missing directory yields an empty history.
func Load(dir string) ([]Entry, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read history dir: %w", err)
	}

	var entries []Entry
	for _, de := range dirEntries {
		if de.IsDir() || filepath.Ext(de.Name()) != ".json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, de.Name()))
		if err != nil {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(data, &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp > entries[j].Timestamp
	})
	return entries, nil
}

// FormatOutput renders an entry's output for display: the failure
// message if the run never completed, otherwise labeled stdout and
// stderr sections.
func FormatOutput(entry *Entry) string {
	if entry.Error != "" {
		return strings.TrimSpace(entry.Error)
	}
	var parts []string
	if strings.TrimSpace(entry.Stdout) != "" {
		parts = append(parts, "STDOUT:\n"+strings.TrimRight(entry.Stdout, "\n"))
	}
	if strings.TrimSpace(entry.Stderr) != "" {
		parts = append(parts, "STDERR:\n"+strings.TrimRight(entry.Stderr, "\n"))
	}
	return strings.Join(parts, "\n\n")
}

// FormatTimestamp converts epoch milliseconds to "YYYY-MM-DD HH:MM"
// using an integer civil-calendar conversion.
func FormatTimestamp(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	seconds := ms / 1000
	days := seconds / 86400
	secondsOfDay := seconds % 86400
	hour := secondsOfDay / 3600
	minute := (secondsOfDay % 3600) / 60

	year, month, day := civilFromDays(days)
	return fmt.Sprintf("%04d-%02d-%02d %02d:%02d", year, month, day, hour, minute)
}

// civilFromDays converts days since 1970-01-01 to a civil date. The
// era arithmetic handles leap years, including the 100/400 rules.
func civilFromDays(days int64) (year, month, day int64) {
	z := days + 719468
	era := z
	if z < 0 {
		era = z - 146096
	}
	era /= 146097
	doe := z - era*146097
	yoe := (doe - doe/1460 + doe/36524 - doe/146096) / 365
	y := yoe + era*400
	doy := doe - (365*yoe + yoe/4 - yoe/100)
	mp := (5*doy + 2) / 153
	day = doy - (153*mp+2)/5 + 1
	if mp < 10 {
		month = mp + 3
	} else {
		month = mp - 9
	}
	if month <= 2 {
		y++
	}
	return y, month, day
}

// slug derives a filename-safe fragment from a script path.
func slug(input string) string {
	var b strings.Builder
	prevUnderscore := false
	for _, ch := range input {
		if ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' || ch >= '0' && ch <= '9' {
			b.WriteRune(toLowerASCII(ch))
			prevUnderscore = false
		} else if !prevUnderscore {
			b.WriteByte('_')
			prevUnderscore = true
		}
	}
	s := strings.Trim(b.String(), "_")
	if s == "" {
		return "run"
	}
	if len(s) > slugLimit {
		s = s[:slugLimit]
	}
	return s
}

func toLowerASCII(ch rune) rune {
	if ch >= 'A' && ch <= 'Z' {
		return ch + ('a' - 'A')
	}
	return ch
}

func relScript(root, script string) string {
	rel, err := filepath.Rel(root, script)
	if err != nil || strings.HasPrefix(rel, "..") {
		return script
	}
	return rel
}

func timestampMS() int64 {
	return time.Now().UnixMilli()
}
