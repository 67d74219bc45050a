package ingest

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patternmine/spade/internal/spade"
)

func drain(t *testing.T, occs <-chan spade.Occurrence, results <-chan Result) ([]spade.Occurrence, Result) {
	t.Helper()
	var got []spade.Occurrence
	for occ := range occs {
		got = append(got, occ)
	}
	return got, <-results
}

func TestParser_Parse_BasicInput(t *testing.T) {
	input := `sid,eid,events
0,1,0
0,2,0|1
1,1,1`

	parser := NewParser(nil)
	occChan, resultChan := parser.Parse(context.Background(), strings.NewReader(input))

	occs, result := drain(t, occChan, resultChan)

	require.NoError(t, result.Err)
	assert.Len(t, occs, 3) // header line "sid,eid,events" fails to parse and is skipped
	assert.Equal(t, 1, result.Stats.LinesSkipped)
	assert.Equal(t, 3, result.Stats.OccurrencesEmitted)
}

func TestParser_Parse_EmptyInput(t *testing.T) {
	parser := NewParser(nil)
	occChan, resultChan := parser.Parse(context.Background(), strings.NewReader(""))

	occs, result := drain(t, occChan, resultChan)

	require.NoError(t, result.Err)
	assert.Empty(t, occs)
}

func TestParser_Parse_StrictModeEmptyInput(t *testing.T) {
	parser := NewParser(&Options{StrictMode: true})
	occChan, resultChan := parser.Parse(context.Background(), strings.NewReader("# only a comment\n"))

	occs, result := drain(t, occChan, resultChan)

	require.ErrorIs(t, result.Err, ErrEmptyInput)
	assert.Empty(t, occs)
}

func TestParser_Parse_SkipsBlankAndCommentLines(t *testing.T) {
	input := "# a comment\n\n0,1,0\n"

	parser := NewParser(nil)
	occChan, resultChan := parser.Parse(context.Background(), strings.NewReader(input))

	occs, result := drain(t, occChan, resultChan)

	require.NoError(t, result.Err)
	assert.Len(t, occs, 1)
	assert.Equal(t, uint64(0), occs[0].Record.Sid)
	assert.Equal(t, 1, occs[0].Record.Eid)
	assert.True(t, occs[0].Events.Contains(0))
}

func TestParser_Parse_StrictModeFailsOnMalformedLine(t *testing.T) {
	input := "0,1,0\nnot-a-record\n"

	parser := NewParser(&Options{StrictMode: true})
	occChan, resultChan := parser.Parse(context.Background(), strings.NewReader(input))

	occs, result := drain(t, occChan, resultChan)

	require.Error(t, result.Err)
	assert.Len(t, occs, 1)
}

func TestParser_Parse_SkipModeSkipsMalformedLines(t *testing.T) {
	input := "0,1,0\nnot-a-record\n0,2,1|2\n"

	parser := NewParser(&Options{StrictMode: false})
	occChan, resultChan := parser.Parse(context.Background(), strings.NewReader(input))

	occs, result := drain(t, occChan, resultChan)

	require.NoError(t, result.Err)
	assert.Len(t, occs, 2)
	assert.Equal(t, 1, result.Stats.LinesSkipped)
}

func TestParser_Parse_MultiEventPipeDelimited(t *testing.T) {
	input := "2,1,0|1|2\n"

	parser := NewParser(nil)
	occChan, resultChan := parser.Parse(context.Background(), strings.NewReader(input))

	occs, result := drain(t, occChan, resultChan)

	require.NoError(t, result.Err)
	require.Len(t, occs, 1)
	assert.Equal(t, 3, occs[0].Events.Cardinality())
}

func TestParser_Parse_EventOutOfRangeSkipped(t *testing.T) {
	input := "0,1,256\n0,2,5\n"

	parser := NewParser(nil)
	occChan, resultChan := parser.Parse(context.Background(), strings.NewReader(input))

	occs, result := drain(t, occChan, resultChan)

	require.NoError(t, result.Err)
	assert.Len(t, occs, 1)
	assert.Equal(t, 1, result.Stats.LinesSkipped)
}

func TestParser_NameAndSupportedFormats(t *testing.T) {
	parser := NewParser(nil)
	assert.Equal(t, "occurrence-csv", parser.Name())
	assert.Contains(t, parser.SupportedFormats(), "csv")
}
