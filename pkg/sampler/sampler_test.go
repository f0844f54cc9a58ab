package sampler

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/geosample/pkg/errors"
	"github.com/ajitpratap0/geosample/pkg/models"
	"github.com/ajitpratap0/geosample/pkg/schema"
	"github.com/ajitpratap0/geosample/pkg/testutil"
)

func newDataset(t *testing.T, n int) *models.Dataset {
	t.Helper()
	ds := models.FromFeatureCollection("train", testutil.GenerateFeatureCollection(n))
	ds.Schema = schema.NewTypeInferenceEngine(nil).InferSchema("train", ds.Records)
	return ds
}

func TestIndices(t *testing.T) {
	t.Run("distinct and in range", func(t *testing.T) {
		idx, err := Indices(NewRand(7), 100, 40)
		require.NoError(t, err)
		require.Len(t, idx, 40)

		seen := make(map[int]bool)
		for _, i := range idx {
			assert.GreaterOrEqual(t, i, 0)
			assert.Less(t, i, 100)
			assert.False(t, seen[i], "index %d drawn twice", i)
			seen[i] = true
		}
	})

	t.Run("full population is a permutation", func(t *testing.T) {
		idx, err := Indices(NewRand(3), 25, 25)
		require.NoError(t, err)
		sorted := append([]int(nil), idx...)
		sort.Ints(sorted)
		for i, v := range sorted {
			assert.Equal(t, i, v)
		}
	})

	t.Run("zero from empty", func(t *testing.T) {
		idx, err := Indices(NewRand(1), 0, 0)
		require.NoError(t, err)
		assert.Empty(t, idx)
	})

	t.Run("too many", func(t *testing.T) {
		_, err := Indices(NewRand(1), 3, 4)
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeSampleSizeExceedsPopulation))
		details := errors.DetailsOf(err)
		assert.Equal(t, 4, details["requested"])
		assert.Equal(t, 3, details["population"])
	})

	t.Run("negative", func(t *testing.T) {
		_, err := Indices(NewRand(1), 3, -1)
		assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
	})
}

func TestSampleDeterminism(t *testing.T) {
	ds := newDataset(t, 500)

	first, err := New(50, 42).Sample(ds)
	require.NoError(t, err)
	second, err := New(50, 42).Sample(ds)
	require.NoError(t, err)
	assert.Equal(t, testutil.FeatureIDs(first.Records), testutil.FeatureIDs(second.Records))

	s := New(50, 42)
	again, err := s.Sample(ds)
	require.NoError(t, err)
	repeat, err := s.Sample(ds)
	require.NoError(t, err)
	assert.Equal(t, testutil.FeatureIDs(again.Records), testutil.FeatureIDs(repeat.Records))

	other, err := New(50, 43).Sample(ds)
	require.NoError(t, err)
	assert.NotEqual(t, testutil.FeatureIDs(first.Records), testutil.FeatureIDs(other.Records))
}

func TestSampleSubsetVerbatim(t *testing.T) {
	ds := newDataset(t, 5000)

	out, err := New(1000, 1).Sample(ds)
	require.NoError(t, err)
	require.Equal(t, 1000, out.Len())

	source := make(map[*models.Record]bool, ds.Len())
	for _, r := range ds.Records {
		source[r] = true
	}
	seen := make(map[*models.Record]bool, out.Len())
	for _, r := range out.Records {
		assert.True(t, source[r], "sampled record not in source")
		assert.False(t, seen[r], "record sampled twice")
		seen[r] = true
	}

	assert.Same(t, ds.Schema, out.Schema)
	assert.Equal(t, ds.Members, out.Members)
}

func TestSampleEdges(t *testing.T) {
	ds := newDataset(t, 10)

	t.Run("whole dataset", func(t *testing.T) {
		out, err := New(10, 1).Sample(ds)
		require.NoError(t, err)
		ids := testutil.FeatureIDs(out.Records)
		sort.Ints(ids)
		assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, ids)
	})

	t.Run("zero keeps schema", func(t *testing.T) {
		out, err := New(0, 1).Sample(ds)
		require.NoError(t, err)
		assert.Equal(t, 0, out.Len())
		require.NotNil(t, out.Schema)
		assert.Equal(t, ds.Schema.FieldNames(), out.Schema.FieldNames())
		assert.Equal(t, "train", out.Members["name"])
	})

	t.Run("exceeds population", func(t *testing.T) {
		out, err := New(11, 1).Sample(ds)
		assert.Nil(t, out)
		assert.True(t, errors.IsType(err, errors.ErrorTypeSampleSizeExceedsPopulation))
	})

	t.Run("fraction out of range", func(t *testing.T) {
		_, err := (&Sampler{Fraction: 1.5}).Sample(ds)
		assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
	})
}

func TestSampleFraction(t *testing.T) {
	ds := newDataset(t, 200)

	s := &Sampler{Size: 5, Fraction: 0.25, Seed: 1}
	assert.Equal(t, 50, s.SizeFor(ds.Len()))

	out, err := s.Sample(ds)
	require.NoError(t, err)
	assert.Equal(t, 50, out.Len())

	assert.Equal(t, 1, (&Sampler{Fraction: 0.5}).SizeFor(1))
	assert.Equal(t, 5, (&Sampler{Size: 5}).SizeFor(1000))
}

func TestSamplePreserveOrder(t *testing.T) {
	ds := newDataset(t, 300)

	drawn, err := New(30, 9).Sample(ds)
	require.NoError(t, err)

	s := New(30, 9)
	s.PreserveOrder = true
	ordered, err := s.Sample(ds)
	require.NoError(t, err)

	ids := testutil.FeatureIDs(ordered.Records)
	assert.True(t, sort.IntsAreSorted(ids))

	want := testutil.FeatureIDs(drawn.Records)
	sort.Ints(want)
	assert.Equal(t, want, ids)
}

func TestSampleUniformity(t *testing.T) {
	const (
		population = 10
		n          = 3
		trials     = 20000
	)

	counts := make([]int, population)
	for seed := int64(0); seed < trials; seed++ {
		idx, err := Indices(NewRand(seed), population, n)
		require.NoError(t, err)
		for _, i := range idx {
			counts[i]++
		}
	}

	expected := float64(trials*n) / population
	for i, c := range counts {
		assert.InDelta(t, expected, float64(c), expected*0.05, "index %d drawn %d times", i, c)
	}
}
