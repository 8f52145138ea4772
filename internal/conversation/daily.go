package conversation

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dvloznov/finance-assistant/internal/domain"
	md "github.com/nao1215/markdown"
)

const (
	dayFileExt  = ".md"
	clockLayout = "15:04:05"
)

var turnHeaderRe = regexp.MustCompile(`^## (\d{2}:\d{2}:\d{2}) (user|assistant)$`)

// DailyFileTranscript stores one markdown file per UTC day in a directory.
// Turns reads from today's file only, so context resets at midnight.
type DailyFileTranscript struct {
	dir string
	now func() time.Time
	mu  sync.Mutex
}

// NewDailyFileTranscript creates the directory if needed.
func NewDailyFileTranscript(dir string, now func() time.Time) (*DailyFileTranscript, error) {
	if now == nil {
		now = time.Now
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("NewDailyFileTranscript: creating %s: %w", dir, err)
	}
	return &DailyFileTranscript{dir: dir, now: now}, nil
}

func (d *DailyFileTranscript) path(day time.Time) string {
	return filepath.Join(d.dir, day.Format(domain.DateLayout)+dayFileExt)
}

// AppendTurn implements Transcript.
func (d *DailyFileTranscript) AppendTurn(ctx context.Context, role domain.Role, content string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now().UTC()
	path := d.path(now)

	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		doc.H1("Conversation " + now.Format(domain.DateLayout))
	}
	doc.H2(now.Format(clockLayout) + " " + string(role))
	doc.PlainText(escapeBody(strings.TrimSpace(content)))

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("AppendTurn: opening %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.WriteString(doc.String() + "\n\n"); err != nil {
		return fmt.Errorf("AppendTurn: writing %s: %w", path, err)
	}
	return nil
}

// Turns implements Transcript for today's file.
func (d *DailyFileTranscript) Turns(ctx context.Context, limit int) ([]domain.ConversationTurn, error) {
	turns, err := d.Day(ctx, d.now().UTC())
	if err != nil {
		return nil, err
	}
	return lastN(turns, limit), nil
}

// Day returns every turn stored for the given day. A missing file is empty.
func (d *DailyFileTranscript) Day(ctx context.Context, day time.Time) ([]domain.ConversationTurn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	path := d.path(day)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Day: reading %s: %w", path, err)
	}
	return parseDay(data, domain.Day(day))
}

func parseDay(data []byte, day time.Time) ([]domain.ConversationTurn, error) {
	var (
		turns   []domain.ConversationTurn
		current *domain.ConversationTurn
		body    []string
	)
	flush := func() {
		if current != nil {
			current.Content = strings.TrimSpace(strings.Join(body, "\n"))
			turns = append(turns, *current)
		}
		body = nil
	}

	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if m := turnHeaderRe.FindStringSubmatch(line); m != nil {
			flush()
			clock, err := time.Parse(clockLayout, m[1])
			if err != nil {
				return nil, fmt.Errorf("parseDay: bad turn time %q: %w", m[1], err)
			}
			ts := day.Add(time.Duration(clock.Hour())*time.Hour + time.Duration(clock.Minute())*time.Minute + time.Duration(clock.Second())*time.Second)
			current = &domain.ConversationTurn{Role: domain.Role(m[2]), Timestamp: ts}
			continue
		}
		if current != nil {
			body = append(body, unescapeLine(line))
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("parseDay: %w", err)
	}
	flush()
	return turns, nil
}

// escapeBody prefixes lines starting with '#' or a backslash with a backslash so a
// message can never be read back as a turn header.
func escapeBody(content string) string {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		if strings.HasPrefix(line, "#") || strings.HasPrefix(line, `\`) {
			lines[i] = `\` + line
		}
	}
	return strings.Join(lines, "\n")
}

func unescapeLine(line string) string {
	if strings.HasPrefix(line, `\#`) || strings.HasPrefix(line, `\\`) {
		return line[1:]
	}
	return line
}

// Days lists the days that have a transcript, newest first.
func (d *DailyFileTranscript) Days() ([]time.Time, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, fmt.Errorf("Days: %w", err)
	}
	var days []time.Time
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, dayFileExt) {
			continue
		}
		day, err := domain.ParseDay(strings.TrimSuffix(name, dayFileExt))
		if err != nil {
			continue
		}
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })
	return days, nil
}

// Ensure DailyFileTranscript implements Transcript.
var _ Transcript = (*DailyFileTranscript)(nil)
