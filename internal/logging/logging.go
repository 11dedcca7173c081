// Package logging builds the process logger: a text handler on the
// terminal, optionally fanned out to a JSON file and the systemd journal.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	slogmulti "github.com/samber/slog-multi"
	slogjournal "github.com/systemd/slog-journal"
)

type Options struct {
	Level   string // debug, info, warn, error
	File    string // JSON log file, empty to disable
	Journal bool
	Quiet   bool // drop the terminal handler, e.g. while a TUI owns it
}

func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log level %q: %w", s, err)
	}
	return l, nil
}

// New returns the logger and a close func for any file it opened.
func New(w io.Writer, opts Options) (*slog.Logger, func() error, error) {
	level := slog.LevelInfo
	if opts.Level != "" {
		l, err := ParseLevel(opts.Level)
		if err != nil {
			return nil, nil, err
		}
		level = l
	}

	var handlers []slog.Handler
	if !opts.Quiet {
		handlers = append(handlers, slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	}
	closer := func() error { return nil }

	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, nil, err
		}
		handlers = append(handlers, slog.NewJSONHandler(f, &slog.HandlerOptions{Level: level}))
		closer = f.Close
	}

	if opts.Journal {
		jh, err := slogjournal.NewHandler(&slogjournal.Options{
			ReplaceGroup: toJournalKey,
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				a.Key = toJournalKey(a.Key)
				return a
			},
		})
		if err != nil {
			_ = closer()
			return nil, nil, fmt.Errorf("systemd journal: %w", err)
		}
		handlers = append(handlers, jh)
	}

	return slog.New(slogmulti.Fanout(handlers...)), closer, nil
}

func toJournalKey(str string) string {
	return strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			return r
		}
		return '_'
	}, strings.ToUpper(str))
}
