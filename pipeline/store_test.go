package pipeline

import (
	"bytes"
	"encoding/binary"
	"math"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSequence() *Sequence {
	seq := NewSequence(6)
	seq.set(0, "⣿⣿\n⠀⠀\n")
	seq.set(1, "@@\n  \n")
	seq.set(4, "\x1b[31m@\x1b[0m\n")
	seq.set(5, "")
	return seq
}

func TestStoreKeepsGaps(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Save(&buf, sampleSequence(), 29.97))

	seq, fps, err := Load(&buf)
	require.NoError(t, err)
	assert.Equal(t, 29.97, fps)
	assert.Equal(t, 6, seq.Len())
	assert.Equal(t, 4, seq.Converted())
	assert.Equal(t, []int{2, 3}, seq.Missing())

	text, ok := seq.Frame(4)
	require.True(t, ok)
	assert.Equal(t, "\x1b[31m@\x1b[0m\n", text)

	// an empty frame is still a converted frame
	text, ok = seq.Frame(5)
	assert.True(t, ok)
	assert.Empty(t, text)
}

func TestStoreFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip"+CacheExt)
	want := sampleSequence()
	require.NoError(t, SaveFile(path, want, 24))

	got, fps, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 24.0, fps)
	assert.Equal(t, want.Size(), got.Size())
	for i := 0; i < want.Len(); i++ {
		w, wok := want.Frame(i)
		g, gok := got.Frame(i)
		assert.Equal(t, wok, gok, "frame %d", i)
		assert.Equal(t, w, g, "frame %d", i)
	}
}

func TestLoadRejectsForeignPayload(t *testing.T) {
	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	defer enc.Close()
	data := enc.EncodeAll([]byte("TEXT\x01garbage"), nil)

	_, _, err = Load(bytes.NewReader(data))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected magic")

	_, _, err = Load(bytes.NewReader([]byte("not zstd at all")))
	require.Error(t, err)
}

func TestLoadRejectsTruncatedFrames(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Save(&buf, sampleSequence(), 30))

	dec, err := zstd.NewReader(nil)
	require.NoError(t, err)
	defer dec.Close()
	raw, err := dec.DecodeAll(buf.Bytes(), nil)
	require.NoError(t, err)

	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	defer enc.Close()
	cut := enc.EncodeAll(raw[:len(raw)-8], nil)

	_, _, err = Load(bytes.NewReader(cut))
	assert.Error(t, err)
}

// cacheHeader builds a compressed payload holding only a header.
func cacheHeader(t *testing.T, fps float64, slots, present uint32) []byte {
	t.Helper()
	var raw bytes.Buffer
	raw.WriteString(CacheMagic)
	raw.WriteByte(cacheVersion)
	require.NoError(t, binary.Write(&raw, binary.LittleEndian, math.Float64bits(fps)))
	require.NoError(t, binary.Write(&raw, binary.LittleEndian, slots))
	require.NoError(t, binary.Write(&raw, binary.LittleEndian, present))

	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	defer enc.Close()
	return enc.EncodeAll(raw.Bytes(), nil)
}

func TestLoadRejectsBadHeader(t *testing.T) {
	cases := []struct {
		name    string
		fps     float64
		slots   uint32
		present uint32
		want    string
	}{
		{"huge slot count", 30, math.MaxUint32, 0, "limit"},
		{"one past the limit", 30, MaxCacheFrames + 1, 0, "limit"},
		{"more frames than slots", 30, 2, 3, "slots"},
		{"nan rate", math.NaN(), 2, 0, "frame rate"},
		{"infinite rate", math.Inf(1), 2, 0, "frame rate"},
		{"negative rate", -1, 2, 0, "frame rate"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := Load(bytes.NewReader(cacheHeader(t, tc.fps, tc.slots, tc.present)))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestLoadAcceptsEmptyCacheAtLimit(t *testing.T) {
	seq, fps, err := Load(bytes.NewReader(cacheHeader(t, 0, MaxCacheFrames, 0)))
	require.NoError(t, err)
	assert.Zero(t, fps)
	assert.Equal(t, MaxCacheFrames, seq.Len())
	assert.Zero(t, seq.Converted())
}

func TestSaveRejectsInvalidRate(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, Save(&buf, sampleSequence(), math.NaN()))
	assert.Error(t, Save(&buf, sampleSequence(), math.Inf(-1)))
	assert.Zero(t, buf.Len())
}

func TestSequence(t *testing.T) {
	seq := NewSequence(3)
	_, ok := seq.Frame(0)
	assert.False(t, ok)
	_, ok = seq.Frame(-1)
	assert.False(t, ok)
	_, ok = seq.Frame(3)
	assert.False(t, ok)

	seq.set(1, "abc")
	seq.set(1, "abcd")
	seq.set(7, "ignored")
	assert.Equal(t, 1, seq.Converted())
	assert.Equal(t, 4, seq.Size())
	assert.Equal(t, []int{0, 2}, seq.Missing())
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "0b", FormatSize(0))
	assert.Equal(t, "1023b", FormatSize(1023))
	assert.Equal(t, "1kb", FormatSize(1024))
	assert.Equal(t, "1023kb", FormatSize(1024*1024-1))
	assert.Equal(t, "3mb", FormatSize(3*1024*1024+5))
}
