// Package file reads protocol records from a JSON or YAML export on disk and
// watches that export for changes.
package file

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/reprotrack/iatfmon/internal/domain/protocol"
	"github.com/reprotrack/iatfmon/internal/infrastructure/monitoring/logging"
	"github.com/reprotrack/iatfmon/pkg/errors"
)

// Format is the encoding of an export file.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// DefaultDebounce collapses editor save bursts into one change notification.
const DefaultDebounce = 250 * time.Millisecond

// ResolveFormat returns forced when set, otherwise the format implied by the
// extension of path.
func ResolveFormat(path, forced string) (Format, error) {
	switch Format(strings.ToLower(forced)) {
	case FormatJSON:
		return FormatJSON, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	case "":
	default:
		return "", errors.InvalidParam("unsupported source format").WithDetail(fmt.Sprintf("format=%q", forced))
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", errors.InvalidParam("cannot infer source format from file extension").
			WithDetail(fmt.Sprintf("path=%s expected=.json|.yaml|.yml", path))
	}
}

// envelope is the wrapped export shape {"protocols": [...]}.
type envelope struct {
	Protocols []protocol.Record `json:"protocols" yaml:"protocols"`
}

// Decode parses an export.  Both a bare array of records and an object with
// a "protocols" array are accepted; an empty document yields no records.
func Decode(data []byte, format Format) ([]protocol.Record, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	var (
		records []protocol.Record
		err     error
	)
	switch format {
	case FormatJSON:
		records, err = decodeJSON(trimmed)
	case FormatYAML:
		records, err = decodeYAML(trimmed)
	default:
		return nil, errors.InvalidParam("unsupported source format").WithDetail(fmt.Sprintf("format=%q", format))
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeSourceParse, "failed to decode protocol export").
			WithDetail("format=" + string(format))
	}
	return records, nil
}

func decodeJSON(data []byte) ([]protocol.Record, error) {
	if data[0] == '[' {
		var records []protocol.Record
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, err
		}
		return records, nil
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	return env.Protocols, nil
}

func decodeYAML(data []byte) ([]protocol.Record, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}

	root := doc.Content[0]
	switch root.Kind {
	case yaml.SequenceNode:
		var records []protocol.Record
		if err := root.Decode(&records); err != nil {
			return nil, err
		}
		return records, nil
	case yaml.MappingNode:
		var env envelope
		if err := root.Decode(&env); err != nil {
			return nil, err
		}
		return env.Protocols, nil
	default:
		return nil, fmt.Errorf("line %d: expected a list of protocols or a protocols mapping", root.Line)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Source
// ─────────────────────────────────────────────────────────────────────────────

// Source reads protocol records from one export file.  It is stateless
// between calls, so every ListProtocols sees the current file content.
type Source struct {
	path     string
	format   Format
	debounce time.Duration
	logger   logging.Logger
}

type Option func(*Source)

// WithFormat forces the export format instead of inferring it.
func WithFormat(format string) Option {
	return func(s *Source) {
		s.format = Format(format)
	}
}

func WithDebounce(d time.Duration) Option {
	return func(s *Source) {
		if d >= 0 {
			s.debounce = d
		}
	}
}

func WithLogger(l logging.Logger) Option {
	return func(s *Source) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSource creates a Source for path.  The file does not need to exist yet.
func NewSource(path string, opts ...Option) (*Source, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.InvalidParam("source path is required")
	}
	s := &Source{
		path:     filepath.Clean(path),
		debounce: DefaultDebounce,
		logger:   logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}

	format, err := ResolveFormat(s.path, string(s.format))
	if err != nil {
		return nil, err
	}
	s.format = format
	s.logger = s.logger.With(logging.String("path", s.path))
	return s, nil
}

func (s *Source) Path() string   { return s.path }
func (s *Source) Format() Format { return s.format }

// ListProtocols reads and decodes the export.  A missing or unreadable file
// fails with CodeSourceUnavailable; malformed content with CodeSourceParse.
func (s *Source) ListProtocols(ctx context.Context) ([]protocol.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeSourceUnavailable, "protocol source read cancelled")
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		msg := "failed to read protocol export"
		if os.IsNotExist(err) {
			msg = "protocol export not found"
		}
		return nil, errors.Wrap(err, errors.CodeSourceUnavailable, msg).WithDetail("path=" + s.path)
	}

	records, err := Decode(data, s.format)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeUnknown, "invalid protocol export").WithDetail("path=" + s.path)
	}
	s.logger.Debug("protocol export read", logging.Int("records", len(records)))
	return records, nil
}

// Watch blocks until ctx is done, calling onChange after the export is
// written, created, renamed or removed.  Events arriving within the debounce
// interval of each other produce one call.  The parent directory is watched
// so atomic rename-over saves are seen.
func (s *Source) Watch(ctx context.Context, onChange func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, errors.CodeSourceUnavailable, "failed to create file watcher")
	}
	defer w.Close()

	dir := filepath.Dir(s.path)
	if err := w.Add(dir); err != nil {
		return errors.Wrap(err, errors.CodeSourceUnavailable, "failed to watch export directory").
			WithDetail("dir=" + dir)
	}
	s.logger.Info("watching protocol export")

	const relevant = fsnotify.Write | fsnotify.Create | fsnotify.Rename | fsnotify.Remove
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("protocol export watch stopped")
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != s.path || ev.Op&relevant == 0 {
				continue
			}
			s.logger.Debug("protocol export event", logging.String("op", ev.Op.String()))
			fire = time.After(s.debounce)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("file watcher error", logging.Err(err))

		case <-fire:
			fire = nil
			onChange()
		}
	}
}
