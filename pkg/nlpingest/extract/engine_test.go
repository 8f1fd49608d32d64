package extract

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/nlpingest/pkg/nlpingest/model"
	"github.com/cognicore/nlpingest/pkg/nlpingest/modelstore"
	"github.com/cognicore/nlpingest/pkg/nlpingest/nlperr"
)

const text = "Kobe Bryant was one of the best basketball players of all times. Not even Michael Jordan has ever " +
	"scored 81 points in one game. Munich is really an awesome city, but New York is as well. Yesterday has been the " +
	"hottest day of the year."

func loadStore(t *testing.T, withPOS bool) *modelstore.Store {
	t.Helper()
	specs := []modelstore.Spec{
		{Family: model.FamilyNER, Name: "names", Path: "en-ner-persons.yaml"},
		{Family: model.FamilyNER, Name: "locations", Path: "en-ner-locations.yaml"},
		{Family: model.FamilyNER, Name: "dates", Path: "en-ner-dates.yaml"},
	}
	if withPOS {
		specs = append(specs, modelstore.Spec{Family: model.FamilyPOS, Path: "en-pos.yaml"})
	}
	s, err := modelstore.Load(context.Background(), "../testdata/models", specs, modelstore.Options{})
	require.NoError(t, err)
	return s
}

func newEngine(t *testing.T, opts Options) *Engine {
	t.Helper()
	return New(loadStore(t, true), opts)
}

func TestFindEntities(t *testing.T) {
	e := newEngine(t, Options{})
	ctx := context.Background()

	names, err := e.FindEntities(ctx, text, "names")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Kobe Bryant", "Michael Jordan"}, names.Values)

	locations, err := e.FindEntities(ctx, text, "locations")
	require.NoError(t, err)
	assert.Equal(t, []string{"Munich", "New York"}, locations.Values)

	dates, err := e.FindEntities(ctx, text, "dates")
	require.NoError(t, err)
	assert.Equal(t, []string{"Yesterday"}, dates.Values)
}

func TestFindEntitiesMentionOffsets(t *testing.T) {
	e := newEngine(t, Options{})

	set, err := e.FindEntities(context.Background(), text, "locations")
	require.NoError(t, err)
	require.Len(t, set.Mentions, 2)
	for _, m := range set.Mentions {
		assert.Equal(t, m.Text, text[m.Start:m.End])
	}
}

func TestFindEntitiesDeduplicates(t *testing.T) {
	e := newEngine(t, Options{})

	set, err := e.FindEntities(context.Background(), "Munich is nice. Munich is big. Paris is old.", "locations")
	require.NoError(t, err)
	assert.Equal(t, []string{"Munich", "Paris"}, set.Values)
	assert.Len(t, set.Mentions, 3)
}

func TestFindEntitiesNothingFound(t *testing.T) {
	e := newEngine(t, Options{})

	for _, in := range []string{"", "the hottest day of the year", "   "} {
		set, err := e.FindEntities(context.Background(), in, "locations")
		require.NoError(t, err)
		assert.True(t, set.Empty(), in)
		assert.Equal(t, "locations", set.Kind)
	}
}

func TestFindEntitiesUnknownKind(t *testing.T) {
	e := newEngine(t, Options{})

	_, err := e.FindEntities(context.Background(), text, "organizations")
	require.ErrorIs(t, err, nlperr.ErrUnknownEntityKind)

	var kindErr *nlperr.UnknownEntityKindError
	require.ErrorAs(t, err, &kindErr)
	assert.Equal(t, "organizations", kindErr.Kind)
	assert.Equal(t, []string{"dates", "locations", "names"}, kindErr.Valid)
}

func TestCountTags(t *testing.T) {
	e := newEngine(t, Options{})

	counts, err := e.CountTags(context.Background(), text, nil, false)
	require.NoError(t, err)

	expected := map[string]int{
		"CC": 1, "CD": 3, "DT": 5, "IN": 4, "JJ": 1, "JJS": 2, "NN": 6,
		"NNP": 7, "NNS": 3, "PUNCT": 5, "RB": 6, "VBD": 1, "VBN": 2, "VBZ": 4,
	}
	assert.Equal(t, expected, counts.Counts)
	assert.Equal(t, 50, counts.Total)

	sum := 0
	for _, n := range counts.Counts {
		sum += n
	}
	assert.Equal(t, counts.Total, sum)
}

func TestCountTagsAllowList(t *testing.T) {
	e := newEngine(t, Options{})

	counts, err := e.CountTags(context.Background(), text, []string{"NN", "VBZ"}, false)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"NN": 6, "VBZ": 4}, counts.Counts)
	assert.Equal(t, 50, counts.Total)

	values := counts.Values()
	assert.Equal(t, 6, values["NN"])
}

func TestCountTagsNormalize(t *testing.T) {
	e := newEngine(t, Options{})

	counts, err := e.CountTags(context.Background(), text, nil, true)
	require.NoError(t, err)

	assert.InDelta(t, 0.06, counts.Value("CD"), 1e-9)
	assert.InDelta(t, 0.1, counts.Value("DT"), 1e-9)
	assert.InDelta(t, 0.14, counts.Value("NNP"), 1e-9)
	assert.InDelta(t, 0.1, counts.Value("PUNCT"), 1e-9)
	assert.InDelta(t, 0.02, counts.Value("VBD"), 1e-9)

	values := counts.Values()
	assert.IsType(t, float64(0), values["NN"])
	assert.InDelta(t, 0.12, values["NN"], 1e-9)

	var sum float64
	for tag := range counts.Counts {
		sum += counts.Value(tag)
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestCountTagsNormalizeUsesTotalTokens(t *testing.T) {
	e := newEngine(t, Options{})

	counts, err := e.CountTags(context.Background(), text, []string{"NN", "VBZ"}, true)
	require.NoError(t, err)

	var sum float64
	for tag := range counts.Counts {
		sum += counts.Value(tag)
	}
	assert.InDelta(t, 10.0/50.0, sum, 1e-9)
	assert.InDelta(t, 0.08, counts.Value("VBZ"), 1e-9)
}

func TestCountTagsEmptyText(t *testing.T) {
	e := newEngine(t, Options{})

	counts, err := e.CountTags(context.Background(), "", nil, true)
	require.NoError(t, err)
	assert.Empty(t, counts.Counts)
	assert.Equal(t, 0, counts.Total)
	assert.Equal(t, 0.0, counts.Value("NN"))
}

func TestCountTagsWithoutPOSModel(t *testing.T) {
	e := New(loadStore(t, false), Options{})
	assert.False(t, e.HasPOS())

	_, err := e.CountTags(context.Background(), text, nil, false)
	assert.ErrorIs(t, err, nlperr.ErrPOSModelNotLoaded)
}

func TestAnnotate(t *testing.T) {
	e := newEngine(t, Options{})

	out, err := e.Annotate(context.Background(), "Kobe Bryant met Michael Jordan in New York yesterday.", []string{"names", "locations", "dates"})
	require.NoError(t, err)

	assert.Equal(t, "[Kobe Bryant](names) met [Michael Jordan](names) in [New York](locations) [yesterday](dates).", out.Text)
	assert.Len(t, out.Annotations, 4)
}

func TestAnnotateUnknownKind(t *testing.T) {
	e := newEngine(t, Options{})

	_, err := e.Annotate(context.Background(), text, []string{"names", "cities"})
	assert.ErrorIs(t, err, nlperr.ErrUnknownEntityKind)
}

func TestAnnotateNothingFound(t *testing.T) {
	e := newEngine(t, Options{})

	out, err := e.Annotate(context.Background(), "nothing to see here", []string{"names"})
	require.NoError(t, err)
	assert.Equal(t, "nothing to see here", out.Text)
	assert.Empty(t, out.Annotations)
}

func TestAnnotateSetsOverlap(t *testing.T) {
	src := "New York City is big."
	sets := []EntitySet{
		{Kind: "locations", Values: []string{"New York"}, Mentions: []Mention{{Text: "New York", Start: 0, End: 8}}},
		{Kind: "cities", Values: []string{"New York City", "York"}, Mentions: []Mention{
			{Text: "New York City", Start: 0, End: 13},
			{Text: "York", Start: 4, End: 8},
		}},
	}

	out := AnnotateSets(src, sets)
	assert.Equal(t, "[New York City](cities) is big.", out.Text)
	require.Len(t, out.Annotations, 1)
	assert.Equal(t, "cities", out.Annotations[0].Kind)
}

func TestAnnotateSetsMatchesAnnotate(t *testing.T) {
	e := newEngine(t, Options{})
	kinds := []string{"names", "locations", "dates"}

	var sets []EntitySet
	for _, kind := range kinds {
		set, err := e.FindEntities(context.Background(), text, kind)
		require.NoError(t, err)
		sets = append(sets, set)
	}
	want, err := e.Annotate(context.Background(), text, kinds)
	require.NoError(t, err)

	assert.Equal(t, want, AnnotateSets(text, sets))
}

func TestCancelledContext(t *testing.T) {
	e := newEngine(t, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.FindEntities(ctx, text, "names")
	assert.ErrorIs(t, err, context.Canceled)

	_, err = e.CountTags(ctx, text, nil, false)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPooledSessionsAreReused(t *testing.T) {
	e := newEngine(t, Options{Mode: SessionsPooled, PoolSize: 2})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := e.FindEntities(ctx, text, "names")
		require.NoError(t, err)
	}

	stats := e.Stats()["names"]
	assert.Equal(t, int64(1), stats.Created)
	assert.Equal(t, int64(4), stats.Reused)
	assert.Equal(t, 1, stats.Idle)
}

func TestFreshSessionsPerCall(t *testing.T) {
	e := newEngine(t, Options{Mode: SessionsFresh})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := e.CountTags(ctx, text, nil, false)
		require.NoError(t, err)
	}

	stats := e.Stats()["pos"]
	assert.Equal(t, int64(3), stats.Created)
	assert.Equal(t, int64(0), stats.Reused)
	assert.Equal(t, 0, stats.Idle)
}

func TestEngineTimeoutOption(t *testing.T) {
	e := newEngine(t, Options{Timeout: time.Minute})

	set, err := e.FindEntities(context.Background(), text, "dates")
	require.NoError(t, err)
	assert.Equal(t, []string{"Yesterday"}, set.Values)
}

func TestParseSessionMode(t *testing.T) {
	mode, err := ParseSessionMode("")
	require.NoError(t, err)
	assert.Equal(t, SessionsPooled, mode)

	mode, err = ParseSessionMode("FRESH")
	require.NoError(t, err)
	assert.Equal(t, SessionsFresh, mode)

	_, err = ParseSessionMode("threadlocal")
	assert.ErrorIs(t, err, nlperr.ErrInvalidConfig)
}

func TestConcurrentFindEntitiesDoesNotBleed(t *testing.T) {
	cities := []string{"Munich", "Stockholm", "Madrid", "San Francisco", "Cologne", "Paris", "London", "Amsterdam"}

	for _, mode := range []SessionMode{SessionsPooled, SessionsFresh} {
		t.Run(string(mode), func(t *testing.T) {
			e := newEngine(t, Options{Mode: mode, PoolSize: 4})
			ctx := context.Background()

			const runs = 500
			results := make([][]string, runs)
			errs := make([]error, runs)

			var wg sync.WaitGroup
			for i := 0; i < runs; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					city := cities[i%len(cities)]
					set, err := e.FindEntities(ctx, city+" is really an awesome city, but others are as well.", "locations")
					results[i], errs[i] = set.Values, err
				}(i)
			}
			wg.Wait()

			for i := 0; i < runs; i++ {
				require.NoError(t, errs[i])
				assert.Equal(t, []string{cities[i%len(cities)]}, results[i], "run %d", i)
			}
			assert.Equal(t, int64(0), e.Stats()["locations"].Discarded)
		})
	}
}

func TestConcurrentCountTagsDoesNotBleed(t *testing.T) {
	cities := []string{"Munich", "Stockholm", "Madrid", "Miami", "Cologne", "Paris", "London", "Amsterdam"}
	e := newEngine(t, Options{PoolSize: 4})
	ctx := context.Background()

	const runs = 500
	results := make([]int, runs)
	errs := make([]error, runs)

	var wg sync.WaitGroup
	for i := 0; i < runs; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			n := i%len(cities) + 1
			verb := " is "
			if n > 1 {
				verb = " are "
			}
			in := ""
			for j, c := range cities[:n] {
				if j > 0 {
					in += ", "
				}
				in += c
			}
			counts, err := e.CountTags(ctx, in+verb+"really awesome", []string{"NNP"}, false)
			results[i], errs[i] = counts.Counts["NNP"], err
		}(i)
	}
	wg.Wait()

	for i := 0; i < runs; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, i%len(cities)+1, results[i], fmt.Sprintf("run %d", i))
	}
}
