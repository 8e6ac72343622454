package unitgen

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memSequencer is an in-memory Sequencer.
type memSequencer struct {
	mu   sync.Mutex
	vals map[string]int64
	err  error
}

func newMemSequencer() *memSequencer { return &memSequencer{vals: map[string]int64{}} }

func (s *memSequencer) Next(_ context.Context, key string, n int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return 0, s.err
	}
	s.vals[key] += n
	return s.vals[key], nil
}

func (s *memSequencer) EnsureAtLeast(_ context.Context, key string, floor int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.vals[key] < floor {
		s.vals[key] = floor
	}
	return nil
}

// setIndex reports every barcode in taken as already persisted.
type setIndex struct {
	taken map[string]bool
	calls int
}

func (i *setIndex) ExistingBarcodes(_ context.Context, barcodes []string) ([]string, error) {
	i.calls++
	var out []string
	for _, b := range barcodes {
		if i.taken[b] {
			out = append(out, b)
		}
	}
	return out, nil
}

const testSKU = "JOW11123000102"

func TestGenerate_CountSKUAndDistinctBarcodes(t *testing.T) {
	g, err := New(newMemSequencer(), nil, 1)
	require.NoError(t, err)

	units, err := g.Generate(context.Background(), 50, testSKU)
	require.NoError(t, err)
	require.Len(t, units, 50)

	barcodes := map[string]bool{}
	techCodes := map[string]bool{}
	for _, u := range units {
		assert.Equal(t, testSKU, u.SKUCode)
		assert.True(t, ValidBarcode(u.Barcode), u.Barcode)
		assert.True(t, strings.HasPrefix(u.TechCode, "TC-"))
		barcodes[u.Barcode] = true
		techCodes[u.TechCode] = true
	}
	assert.Len(t, barcodes, 50)
	assert.Len(t, techCodes, 50)
}

func TestGenerate_UniqueAcrossCalls(t *testing.T) {
	g, err := New(newMemSequencer(), nil, 1)
	require.NoError(t, err)

	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		units, err := g.Generate(context.Background(), 10, testSKU)
		require.NoError(t, err)
		for _, u := range units {
			assert.False(t, seen[u.Barcode], "barcode %s reused", u.Barcode)
			seen[u.Barcode] = true
		}
	}
}

func TestGenerate_ConcurrentCallsNeverCollide(t *testing.T) {
	g, err := New(newMemSequencer(), nil, 1)
	require.NoError(t, err)

	var mu sync.Mutex
	seen := map[string]int{}
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			units, err := g.Generate(context.Background(), 25, testSKU)
			if err != nil {
				t.Error(err)
				return
			}
			mu.Lock()
			for _, u := range units {
				seen[u.Barcode]++
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, seen, 200)
	for bc, n := range seen {
		assert.Equal(t, 1, n, bc)
	}
}

func TestGenerate_SkipsBarcodesAlreadyStored(t *testing.T) {
	seq := newMemSequencer()
	first, _ := FromSerial(1)
	second, _ := FromSerial(2)
	idx := &setIndex{taken: map[string]bool{first: true, second: true}}

	g, err := New(seq, idx, 1)
	require.NoError(t, err)

	units, err := g.Generate(context.Background(), 3, testSKU)
	require.NoError(t, err)
	require.Len(t, units, 3)
	for _, u := range units {
		assert.NotEqual(t, first, u.Barcode)
		assert.NotEqual(t, second, u.Barcode)
	}
	assert.Equal(t, 2, idx.calls, "one extra round for the two replacements")
}

func TestGenerate_BoundedAttempts(t *testing.T) {
	seq := newMemSequencer()
	idx := &setIndex{taken: map[string]bool{}}
	for s := int64(1); s <= 100; s++ {
		bc, _ := FromSerial(s)
		idx.taken[bc] = true
	}

	g, err := New(seq, idx, 1)
	require.NoError(t, err)
	g.WithMaxAttempts(3)

	_, err = g.Generate(context.Background(), 5, testSKU)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBarcodeExhausted))
	assert.Equal(t, 3, idx.calls)
}

func TestGenerate_RejectsBadInput(t *testing.T) {
	g, err := New(newMemSequencer(), nil, 1)
	require.NoError(t, err)

	_, err = g.Generate(context.Background(), 0, testSKU)
	assert.True(t, errors.Is(err, ErrInvalidQuantity))
	_, err = g.Generate(context.Background(), 1, "")
	assert.True(t, errors.Is(err, ErrInvalidSKU))
}

func TestGenerate_SequencerFailure(t *testing.T) {
	seq := newMemSequencer()
	seq.err = errors.New("redis down")
	g, err := New(seq, nil, 1)
	require.NoError(t, err)

	_, err = g.Generate(context.Background(), 2, testSKU)
	assert.ErrorContains(t, err, "redis down")
}

func TestSeedFromIndex(t *testing.T) {
	seq := newMemSequencer()
	maxBC, _ := FromSerial(500)
	require.NoError(t, SeedFromIndex(context.Background(), seq, maxBC))

	g, err := New(seq, nil, 1)
	require.NoError(t, err)
	units, err := g.Generate(context.Background(), 1, testSKU)
	require.NoError(t, err)
	serial, err := SerialOf(units[0].Barcode)
	require.NoError(t, err)
	assert.EqualValues(t, 501, serial)

	assert.NoError(t, SeedFromIndex(context.Background(), seq, ""))
}

func TestNew_RejectsInvalidNode(t *testing.T) {
	_, err := New(newMemSequencer(), nil, 5000)
	assert.Error(t, err)
}
