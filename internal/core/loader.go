package core

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/text/encoding"

	"github.com/JonMunkholm/estaciones/internal/logging"
)

// ContextCheckInterval is how often (in rows) to check for context cancellation.
// Values below 1 check on every row.
var ContextCheckInterval = 100

// maxLineBytes bounds a single feed line.
const maxLineBytes = 1 << 20

// Loader runs one feed through validation, resolution and writing.
type Loader struct {
	resolver *Resolver
	writer   *Writer
	encoding encoding.Encoding
}

// NewLoader creates a loader. enc may be nil for UTF-8 feeds.
func NewLoader(resolver *Resolver, writer *Writer, enc encoding.Encoding) *Loader {
	return &Loader{resolver: resolver, writer: writer, encoding: enc}
}

// LoadFile opens path and loads it with def.
func (l *Loader) LoadFile(ctx context.Context, def FeedDefinition, path string) (FeedResult, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return FeedResult{Feed: def.Key}, fmt.Errorf("%w: %s", ErrFeedNotFound, path)
		}
		return FeedResult{Feed: def.Key}, fmt.Errorf("open feed %s: %w", path, err)
	}
	defer f.Close()

	return l.Load(ctx, def, f)
}

// Load reads the header timestamp, skips the layout's leading lines and
// processes every data line in order. Rejected rows are logged and counted;
// any other error aborts the load.
func (l *Loader) Load(ctx context.Context, def FeedDefinition, r io.Reader) (FeedResult, error) {
	start := time.Now()
	logger := logging.WithFields(ctx, "feed", def.Key)

	result := FeedResult{Feed: def.Key, Kind: def.Kind}

	feed := WrapFeed(r, l.encoding)
	scanner := bufio.NewScanner(feed)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	// 1. Header timestamp
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return result, fmt.Errorf("read header of %s: %w", def.Key, err)
		}
		return result, fmt.Errorf("%w: feed %s is empty", ErrHeaderTimestamp, def.Key)
	}
	ts, err := ParseHeaderTimestamp(sanitizeLine(scanner.Text(), true))
	if err != nil {
		return result, fmt.Errorf("feed %s: %w", def.Key, err)
	}
	result.Timestamp = ts
	logger.Info("feed header parsed", "timestamp", ts.Format(time.DateTime))

	// 2. Leading metadata and label lines
	lineNum := 1
	for i := 0; i < def.SkipLines && scanner.Scan(); i++ {
		lineNum++
	}

	// 3. Data rows
	validator := NewRowValidator(def)
	checkEvery := max(ContextCheckInterval, 1)

	for scanner.Scan() {
		lineNum++

		if result.Rows%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return result, fmt.Errorf("load cancelled at line %d: %w", lineNum, err)
			}
		}

		line := sanitizeLine(scanner.Text(), false)
		if IsBlankLine(line) {
			result.Blank++
			continue
		}
		result.Rows++

		row, err := validator.Validate(lineNum, SplitRow(line))
		if err != nil {
			var re *RowError
			if !errors.As(err, &re) {
				return result, err
			}
			result.Rejected++
			result.Rejections = append(result.Rejections, Rejection{
				Line:    re.Line,
				Address: re.Address,
				Reason:  re.Reason,
			})
			logger.Warn("skipping row",
				"line", re.Line,
				"address", re.Address,
				"reason", re.Reason,
			)
			continue
		}
		result.Admissible++

		if err := l.writeRow(ctx, def, ts, row, &result); err != nil {
			return result, err
		}
	}

	if err := scanner.Err(); err != nil {
		return result, fmt.Errorf("read feed %s at line %d: %w", def.Key, lineNum+1, err)
	}

	result.BytesRead = feed.BytesRead()
	result.Duration = time.Since(start)

	logger.Info("feed loaded",
		"rows", result.Rows,
		"admissible", result.Admissible,
		"rejected", result.Rejected,
		"stations", result.Stations,
		"prices", result.Prices,
		"bytes_read", result.BytesRead,
		"duration_ms", result.Duration.Milliseconds(),
	)

	return result, nil
}

// writeRow resolves the company, inserts the station and one price per
// non-blank price field.
func (l *Loader) writeRow(ctx context.Context, def FeedDefinition, ts time.Time, row ParsedRow, result *FeedResult) error {
	companyID, err := l.resolver.Company(ctx, row.Company)
	if err != nil {
		return fmt.Errorf("line %d: %w", row.Line, err)
	}

	stationID, err := l.writer.Station(ctx, companyID, def.Kind, row)
	if err != nil {
		return err
	}
	result.Stations++

	for _, p := range row.Prices {
		if err := l.writer.Price(ctx, stationID, p.FuelType, p.Raw, ts); err != nil {
			return fmt.Errorf("line %d: %w", row.Line, err)
		}
		result.Prices++
	}

	return nil
}
