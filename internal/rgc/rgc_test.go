package rgc

import (
	"bytes"
	"errors"
	"io"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geocoding/internal/codec"
	"geocoding/internal/kdtree"
)

func build(t *testing.T, pts []NamedPoint) *NamesTree {
	t.Helper()
	tr, err := kdtree.Build(pts)
	require.NoError(t, err)
	return tr
}

func encode(t *testing.T, tr *NamesTree) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, tr))
	return buf.Bytes()
}

func roundTrip(t *testing.T, pts []NamedPoint) {
	t.Helper()
	tr := build(t, pts)
	data := encode(t, tr)
	r := bytes.NewReader(data)
	got, err := Decode(r)
	require.NoError(t, err)
	assert.Zero(t, r.Len(), "trailing bytes")
	assert.Equal(t, tr.Nodes(), got.Nodes())
}

func TestRoundTrip_Empty(t *testing.T) {
	tr := build(t, nil)
	data := encode(t, tr)
	// count, dictionary size, reference count
	assert.Equal(t, make([]byte, 12), data)
	got, err := Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Zero(t, got.Len())
}

func TestRoundTrip_Names(t *testing.T) {
	roundTrip(t, []NamedPoint{
		{Location: [2]int64{13_404_954_000, 52_520_008_000}, Value: "Berlin"},
		{Location: [2]int64{-74_005_974_000, 40_712_776_000}, Value: "New York City"},
		{Location: [2]int64{139_691_706_000, 35_689_487_000}, Value: "東京"},
		{Location: [2]int64{8_541_694_000, 47_376_887_000}, Value: "Zürich"},
		{Location: [2]int64{0, 0}, Value: ""},
		{Location: [2]int64{1, -1}, Value: "double  space"},
		{Location: [2]int64{-1, 1}, Value: " leading and trailing "},
	})
}

func TestRoundTrip_Duplicates(t *testing.T) {
	roundTrip(t, []NamedPoint{
		{Location: [2]int64{5, 5}, Value: "Springfield"},
		{Location: [2]int64{5, 5}, Value: "Springfield"},
		{Location: [2]int64{5, 5}, Value: "Shelbyville"},
		{Location: [2]int64{6, 5}, Value: "Springfield"},
		{Location: [2]int64{5, 5}, Value: "Springfield Springfield"},
	})
}

func TestRoundTrip_Extremes(t *testing.T) {
	roundTrip(t, []NamedPoint{
		{Location: [2]int64{math.MinInt64, math.MaxInt64}, Value: "a"},
		{Location: [2]int64{math.MaxInt64, math.MinInt64}, Value: "b"},
		{Location: [2]int64{0, 0}, Value: "c"},
	})
}

func TestRoundTrip_Random(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 8))
	vocabulary := []string{"Saint", "North", "Port", "Lake", "Mount", "Hill", "New", "Old", "ville", "São", "Paulo"}
	pts := make([]NamedPoint, 2000)
	for i := range pts {
		words := make([]byte, 0, 32)
		for j := 0; j <= rng.IntN(3); j++ {
			if j > 0 {
				words = append(words, ' ')
			}
			words = append(words, vocabulary[rng.IntN(len(vocabulary))]...)
		}
		pts[i] = NamedPoint{
			Location: [2]int64{rng.Int64N(360_000_000_001) - 180_000_000_000, rng.Int64N(180_000_000_001) - 90_000_000_000},
			Value:    string(words),
		}
	}
	roundTrip(t, pts)
}

func TestDecode_SearchMatches(t *testing.T) {
	pts := []NamedPoint{
		{Location: [2]int64{0, 0}, Value: "a"},
		{Location: [2]int64{-1, 0}, Value: "b"},
		{Location: [2]int64{1, 0}, Value: "c"},
		{Location: [2]int64{2, 0}, Value: "d"},
		{Location: [2]int64{3, 0}, Value: "e"},
	}
	got, err := Decode(bytes.NewReader(encode(t, build(t, pts))))
	require.NoError(t, err)
	dist := func(a, b [2]int64) uint64 {
		dx, dy := a[0]-b[0], a[1]-b[1]
		return uint64(dx*dx + dy*dy)
	}
	res := kdtree.Search(got, [2]int64{5, 0}, uint64(25), 1, dist)
	require.Len(t, res, 1)
	assert.Equal(t, uint64(4), res[0].Distance)
	assert.Equal(t, "e", *res[0].Value)
}

func TestDecode_InvalidUTF8(t *testing.T) {
	data := encode(t, build(t, []NamedPoint{{Location: [2]int64{1, 2}, Value: "ok \xff"}}))
	_, err := Decode(bytes.NewReader(data))
	assert.ErrorIs(t, err, ErrInvalidUTF8)
}

func TestDecode_InvalidWidth(t *testing.T) {
	data := encode(t, build(t, []NamedPoint{{Location: [2]int64{1, 2}, Value: "x"}}))
	// the longitude width byte follows the count
	data[4] = 9
	_, err := Decode(bytes.NewReader(data))
	assert.ErrorIs(t, err, codec.ErrInvalidWidth)
}

func TestDecode_Truncated(t *testing.T) {
	data := encode(t, build(t, []NamedPoint{
		{Location: [2]int64{1, 2}, Value: "alpha beta"},
		{Location: [2]int64{-3, 4}, Value: "gamma"},
		{Location: [2]int64{5, -6}, Value: "beta"},
	}))
	for i := 0; i < len(data); i++ {
		_, err := Decode(bytes.NewReader(data[:i]))
		assert.ErrorIs(t, err, io.ErrUnexpectedEOF, "prefix %d", i)
	}
}

type failingReader struct{ err error }

func (f failingReader) Read([]byte) (int, error) { return 0, f.err }

func TestDecode_PropagatesReadErrors(t *testing.T) {
	boom := errors.New("boom")
	_, err := Decode(failingReader{err: boom})
	assert.ErrorIs(t, err, boom)
}

type failingWriter struct{ err error }

func (f failingWriter) Write([]byte) (int, error) { return 0, f.err }

func TestEncode_PropagatesWriteErrors(t *testing.T) {
	boom := errors.New("boom")
	err := Encode(failingWriter{err: boom}, build(t, []NamedPoint{{Value: "a"}}))
	assert.ErrorIs(t, err, boom)
}

// rawTree writes a two-node stream with the given child references and word refs.
func rawTree(t *testing.T, lesser, greater, refs []uint32) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := codec.NewWriter(&buf)
	require.NoError(t, w.WriteU32(2))
	require.NoError(t, w.WriteSignMagnitude([]int64{0, 1}))
	require.NoError(t, w.WriteSignMagnitude([]int64{0, 1}))
	require.NoError(t, w.WriteMagnitudeMonotonic(lesser))
	require.NoError(t, w.WriteMagnitudeMonotonic(greater))
	require.NoError(t, w.WriteMagnitude([]uint32{1, 1}))
	require.NoError(t, w.WriteU32(1))
	require.NoError(t, w.WriteMagnitude([]uint32{1}))
	require.NoError(t, w.WriteBytes([]byte("a")))
	require.NoError(t, w.WriteU32(uint32(len(refs))))
	require.NoError(t, w.WriteMagnitude(refs))
	return buf.Bytes()
}

func TestDecode_Raw(t *testing.T) {
	got, err := Decode(bytes.NewReader(rawTree(t, []uint32{2, 0}, []uint32{0, 0}, []uint32{0, 0})))
	require.NoError(t, err)
	require.Equal(t, 2, got.Len())
	assert.Equal(t, "a", got.Nodes()[1].Value)
	assert.Equal(t, [2]int64{1, 1}, got.Nodes()[1].Location)
}

func TestDecode_InvalidChild(t *testing.T) {
	cases := map[string][2][]uint32{
		"self reference": {{2, 2}, {0, 0}},
		"out of range":   {{3, 0}, {0, 0}},
		"unreachable":    {{0, 0}, {0, 0}},
		"two parents":    {{2, 0}, {2, 0}},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(bytes.NewReader(rawTree(t, c[0], c[1], []uint32{0, 0})))
			assert.ErrorIs(t, err, ErrInvalidTree)
			assert.ErrorIs(t, err, kdtree.ErrInvalidChild)
		})
	}
}

func TestDecode_InvalidWordRef(t *testing.T) {
	_, err := Decode(bytes.NewReader(rawTree(t, []uint32{2, 0}, []uint32{0, 0}, []uint32{0, 1})))
	assert.ErrorIs(t, err, ErrInvalidWordRef)

	_, err = Decode(bytes.NewReader(rawTree(t, []uint32{2, 0}, []uint32{0, 0}, []uint32{0})))
	assert.ErrorIs(t, err, ErrInvalidWordRef)
}

func TestEncode_DictionaryLayout(t *testing.T) {
	pts := func() []NamedPoint {
		return []NamedPoint{
			{Location: [2]int64{0, 0}, Value: "b a"},
			{Location: [2]int64{1, 0}, Value: "a"},
		}
	}
	tr := build(t, pts())
	require.Equal(t, "a", tr.Nodes()[0].Value)
	require.Equal(t, "b a", tr.Nodes()[1].Value)
	data := encode(t, tr)

	r := codec.NewReader(bytes.NewReader(data))
	count, err := r.ReadU32()
	require.NoError(t, err)
	require.Equal(t, uint32(2), count)
	for _, read := range []func() error{
		func() error { _, err := r.ReadSignMagnitude(2); return err },
		func() error { _, err := r.ReadSignMagnitude(2); return err },
		func() error { _, err := r.ReadMagnitudeMonotonic(2); return err },
		func() error { _, err := r.ReadMagnitudeMonotonic(2); return err },
	} {
		require.NoError(t, read())
	}
	wordCounts, err := r.ReadMagnitude(2)
	require.NoError(t, err)
	assert.Equal(t, []uint32{1, 2}, wordCounts)
	size, err := r.ReadU32()
	require.NoError(t, err)
	assert.Equal(t, uint32(2), size)
	lengths, err := r.ReadMagnitude(2)
	require.NoError(t, err)
	assert.Equal(t, []uint32{1, 1}, lengths)
	words := make([]byte, 2)
	require.NoError(t, r.ReadBytes(words))
	assert.Equal(t, "ab", string(words))
	refCount, err := r.ReadU32()
	require.NoError(t, err)
	assert.Equal(t, uint32(3), refCount)
	refs, err := r.ReadMagnitude(3)
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 1, 0}, refs)

	reversed := pts()
	reversed[0], reversed[1] = reversed[1], reversed[0]
	assert.Equal(t, data, encode(t, build(t, reversed)))
}

func TestEncode_ByteOrderDictionary(t *testing.T) {
	tr := build(t, []NamedPoint{{Location: [2]int64{0, 0}, Value: "zoo Zürich Zebra"}})
	data := encode(t, tr)
	// "Zebra" < "Zürich" (0xC3 after 'e') < "zoo"
	assert.True(t, bytes.Contains(data, []byte("ZebraZürichzoo")))
}

func TestEncode_NameTooLong(t *testing.T) {
	long := string(bytes.Repeat([]byte("x"), MaxNameBytes+1))
	var buf bytes.Buffer
	err := Encode(&buf, build(t, []NamedPoint{{Value: long}}))
	assert.ErrorIs(t, err, ErrNameTooLong)
	assert.Zero(t, buf.Len())

	roundTrip(t, []NamedPoint{{Value: long[:MaxNameBytes]}})
}

func TestDecode_HugeEmptyDictionary(t *testing.T) {
	var buf bytes.Buffer
	w := codec.NewWriter(&buf)
	require.NoError(t, w.WriteU32(0))
	require.NoError(t, w.WriteU32(50_000_000))
	require.NoError(t, w.WriteBytes([]byte{0}))
	require.NoError(t, w.WriteU32(0))
	require.Equal(t, 13, buf.Len())

	_, err := Decode(&buf)
	assert.ErrorIs(t, err, ErrInvalidDictionary)
}

func TestDecode_SingleEmptyWord(t *testing.T) {
	roundTrip(t, []NamedPoint{{Location: [2]int64{3, 4}, Value: ""}})
}

// dictStream writes a one-node stream with the given dictionary, word count and refs.
func dictStream(t *testing.T, dict []string, wordCount uint32, refCount uint32, refs []uint32) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := codec.NewWriter(&buf)
	require.NoError(t, w.WriteU32(1))
	require.NoError(t, w.WriteSignMagnitude([]int64{0}))
	require.NoError(t, w.WriteSignMagnitude([]int64{0}))
	require.NoError(t, w.WriteMagnitudeMonotonic([]uint32{0}))
	require.NoError(t, w.WriteMagnitudeMonotonic([]uint32{0}))
	require.NoError(t, w.WriteMagnitude([]uint32{wordCount}))
	require.NoError(t, w.WriteU32(uint32(len(dict))))
	lengths := make([]uint32, len(dict))
	var words []byte
	for i, d := range dict {
		lengths[i] = uint32(len(d))
		words = append(words, d...)
	}
	require.NoError(t, w.WriteMagnitude(lengths))
	require.NoError(t, w.WriteBytes(words))
	require.NoError(t, w.WriteU32(refCount))
	if refs == nil {
		// width 0: every reference is zero
		require.NoError(t, w.WriteBytes([]byte{0}))
	} else {
		require.NoError(t, w.WriteMagnitude(refs))
	}
	return buf.Bytes()
}

func TestDecode_UnorderedDictionary(t *testing.T) {
	cases := map[string][]string{
		"descending": {"b", "a"},
		"duplicate":  {"a", "a"},
		"two empty":  {"", ""},
	}
	for name, dict := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(bytes.NewReader(dictStream(t, dict, 1, 1, []uint32{0})))
			assert.ErrorIs(t, err, ErrInvalidDictionary)
		})
	}
}

func TestDecode_HugeWordCount(t *testing.T) {
	_, err := Decode(bytes.NewReader(dictStream(t, []string{"a"}, math.MaxUint32, math.MaxUint32, nil)))
	assert.ErrorIs(t, err, ErrNameTooLong)
}

func TestDecode_ZeroWidthRefsOverflowName(t *testing.T) {
	// 2000 copies of "abc" joined by spaces exceed the name limit
	_, err := Decode(bytes.NewReader(dictStream(t, []string{"abc"}, 2000, 2000, nil)))
	assert.ErrorIs(t, err, ErrNameTooLong)

	got, err := Decode(bytes.NewReader(dictStream(t, []string{"abc"}, 3, 3, nil)))
	require.NoError(t, err)
	assert.Equal(t, "abc abc abc", got.Nodes()[0].Value)
}
