// Package ingest turns a delimited occurrence file into the
// (Record, EventSet) stream the mining engine's Construct consumes.
package ingest

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/patternmine/spade/internal/spade"
)

// Options holds configuration for the occurrence parser.
type Options struct {
	// StrictMode enables strict parsing that fails on the first
	// malformed line instead of skipping it.
	StrictMode bool
}

// DefaultOptions returns default parser options.
func DefaultOptions() *Options {
	return &Options{StrictMode: false}
}

// Stats accumulates counters over one Parse call.
type Stats struct {
	LinesRead          int
	LinesSkipped       int
	OccurrencesEmitted int
}

// Result is sent once, as the final value on a Parse call's result
// channel, carrying the accumulated Stats and any terminal error.
type Result struct {
	Stats Stats
	Err   error
}

// Parser implements the occurrence-file format described by the
// ingestion component: one "sid,eid,events" record per line, blank
// lines and '#'-prefixed comments skipped, events a '|'-delimited list
// of elementary event ids in 0..=255.
type Parser struct {
	opts *Options
}

// NewParser creates a new occurrence parser.
func NewParser(opts *Options) *Parser {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &Parser{opts: opts}
}

// Name returns the name of this parser.
func (p *Parser) Name() string {
	return "occurrence-csv"
}

// SupportedFormats returns the formats supported by this parser.
func (p *Parser) SupportedFormats() []string {
	return []string{"csv"}
}

// Parse scans reader and streams one spade.Occurrence per valid record
// on the returned channel. The caller typically feeds the channel
// straight into (*spade.Engine).Construct. Both channels are closed
// when scanning finishes; the result channel receives exactly one
// Result first. Parse returns immediately; scanning runs in a
// background goroutine and stops early if ctx is canceled.
func (p *Parser) Parse(ctx context.Context, reader io.Reader) (<-chan spade.Occurrence, <-chan Result) {
	occurrences := make(chan spade.Occurrence)
	results := make(chan Result, 1)

	go func() {
		defer close(occurrences)
		defer close(results)

		var stats Stats
		scanner := bufio.NewScanner(reader)
		lineNum := 0

		for scanner.Scan() {
			select {
			case <-ctx.Done():
				results <- Result{Stats: stats, Err: ctx.Err()}
				return
			default:
			}

			lineNum++
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			stats.LinesRead++

			occ, err := p.parseLine(line)
			if err != nil {
				if p.opts.StrictMode {
					results <- Result{Stats: stats, Err: fmt.Errorf("line %d: %w", lineNum, err)}
					return
				}
				stats.LinesSkipped++
				continue
			}

			select {
			case <-ctx.Done():
				results <- Result{Stats: stats, Err: ctx.Err()}
				return
			case occurrences <- occ:
				stats.OccurrencesEmitted++
			}
		}

		if err := scanner.Err(); err != nil {
			results <- Result{Stats: stats, Err: fmt.Errorf("failed to read input: %w", err)}
			return
		}

		if p.opts.StrictMode && stats.OccurrencesEmitted == 0 {
			results <- Result{Stats: stats, Err: ErrEmptyInput}
			return
		}

		results <- Result{Stats: stats}
	}()

	return occurrences, results
}

// parseLine parses one "sid,eid,events" record.
func (p *Parser) parseLine(line string) (spade.Occurrence, error) {
	fields := strings.Split(line, ",")
	if len(fields) != 3 {
		return spade.Occurrence{}, ErrInvalidFormat
	}

	sid, err := strconv.ParseUint(strings.TrimSpace(fields[0]), 10, 64)
	if err != nil {
		return spade.Occurrence{}, fmt.Errorf("invalid sid: %w", err)
	}
	eid, err := strconv.Atoi(strings.TrimSpace(fields[1]))
	if err != nil {
		return spade.Occurrence{}, fmt.Errorf("invalid eid: %w", err)
	}

	events, err := parseEvents(fields[2])
	if err != nil {
		return spade.Occurrence{}, err
	}

	return spade.Occurrence{
		Record: spade.Record{Sid: sid, Eid: eid},
		Events: events,
	}, nil
}

// parseEvents parses a '|'-delimited list of elementary event ids.
func parseEvents(field string) (spade.EventSet, error) {
	parts := strings.Split(strings.TrimSpace(field), "|")
	ids := make([]int, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.Atoi(part)
		if err != nil {
			return spade.EventSet{}, fmt.Errorf("invalid event id %q: %w", part, err)
		}
		if id < 0 || id > spade.MaxEventID {
			return spade.EventSet{}, fmt.Errorf("%w: %d", ErrEventOutOfRange, id)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return spade.EventSet{}, ErrInvalidFormat
	}
	return spade.NewEventSet(ids...), nil
}
