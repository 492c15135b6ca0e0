package pipeline

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sync"

	"github.com/klauspost/compress/zstd"
)

const (
	// CacheMagic opens every frame cache payload.
	CacheMagic = "TTYV"
	// CacheExt is the file extension of frame caches.
	CacheExt = ".ttyv"

	// MaxCacheFrames bounds the slot count of a cache, about 38 hours at 30 fps.
	MaxCacheFrames = 1 << 22

	cacheVersion = 1
)

var (
	zstdEncoderLevel = zstd.SpeedBetterCompression

	sharedZstdEncoder persistentZstdEncoder
	sharedZstdDecoder persistentZstdDecoder
)

type persistentZstdEncoder struct {
	once sync.Once
	mu   sync.Mutex
	enc  *zstd.Encoder
	err  error
}

func (p *persistentZstdEncoder) use(fn func(*zstd.Encoder) error) error {
	p.once.Do(func() {
		p.enc, p.err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstdEncoderLevel))
	})
	if p.err != nil {
		return p.err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	return fn(p.enc)
}

type persistentZstdDecoder struct {
	once sync.Once
	mu   sync.Mutex
	dec  *zstd.Decoder
	err  error
}

func (p *persistentZstdDecoder) use(fn func(*zstd.Decoder) error) error {
	p.once.Do(func() {
		p.dec, p.err = zstd.NewReader(nil)
	})
	if p.err != nil {
		return p.err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	return fn(p.dec)
}

// Save writes seq and its playback rate to w as one zstd stream. Absent
// frames are skipped and come back absent from Load.
//
// Layout before compression, little endian:
//
//	magic "TTYV" | version u8 | fps f64 | slots u32 | present u32
//	then per present frame: index u32 | len u32 | text
func Save(w io.Writer, seq *Sequence, fps float64) error {
	if seq.Len() > MaxCacheFrames {
		return fmt.Errorf("%d frames exceed the cache limit of %d", seq.Len(), MaxCacheFrames)
	}
	if !validRate(fps) {
		return fmt.Errorf("invalid frame rate %v", fps)
	}

	var payload bytes.Buffer
	payload.WriteString(CacheMagic)
	payload.WriteByte(cacheVersion)

	header := []any{math.Float64bits(fps), uint32(seq.Len()), uint32(seq.Converted())}
	for _, v := range header {
		if err := binary.Write(&payload, binary.LittleEndian, v); err != nil {
			return err
		}
	}

	for i := 0; i < seq.Len(); i++ {
		text, ok := seq.Frame(i)
		if !ok {
			continue
		}
		if err := binary.Write(&payload, binary.LittleEndian, uint32(i)); err != nil {
			return err
		}
		if err := writeField(&payload, []byte(text)); err != nil {
			return err
		}
	}

	return sharedZstdEncoder.use(func(enc *zstd.Encoder) error {
		enc.Reset(w)
		if _, err := enc.Write(payload.Bytes()); err != nil {
			_ = enc.Close()
			return fmt.Errorf("zstd encode: %w", err)
		}
		return enc.Close()
	})
}

// Load reads a stream written by Save.
func Load(r io.Reader) (*Sequence, float64, error) {
	var raw bytes.Buffer
	if err := sharedZstdDecoder.use(func(dec *zstd.Decoder) error {
		if err := dec.Reset(r); err != nil {
			return err
		}
		_, err := raw.ReadFrom(dec)
		return err
	}); err != nil {
		return nil, 0, fmt.Errorf("zstd decode: %w", err)
	}

	payload := bytes.NewReader(raw.Bytes())
	magic := make([]byte, len(CacheMagic))
	if _, err := io.ReadFull(payload, magic); err != nil {
		return nil, 0, fmt.Errorf("payload too short")
	}
	if string(magic) != CacheMagic {
		return nil, 0, fmt.Errorf("unexpected magic %q", string(magic))
	}
	version, err := payload.ReadByte()
	if err != nil {
		return nil, 0, fmt.Errorf("payload too short")
	}
	if version != cacheVersion {
		return nil, 0, fmt.Errorf("unsupported cache version %d", version)
	}

	var hdr struct {
		FPS     uint64
		Slots   uint32
		Present uint32
	}
	if err := binary.Read(payload, binary.LittleEndian, &hdr); err != nil {
		return nil, 0, fmt.Errorf("read header: %w", err)
	}
	if hdr.Slots > MaxCacheFrames {
		return nil, 0, fmt.Errorf("header claims %d slots, limit is %d", hdr.Slots, MaxCacheFrames)
	}
	if hdr.Present > hdr.Slots {
		return nil, 0, fmt.Errorf("header claims %d frames in %d slots", hdr.Present, hdr.Slots)
	}
	fps := math.Float64frombits(hdr.FPS)
	if !validRate(fps) {
		return nil, 0, fmt.Errorf("invalid frame rate %v", fps)
	}

	seq := NewSequence(int(hdr.Slots))
	for n := uint32(0); n < hdr.Present; n++ {
		var idx uint32
		if err := binary.Read(payload, binary.LittleEndian, &idx); err != nil {
			return nil, 0, fmt.Errorf("frame %d: %w", n, err)
		}
		if idx >= hdr.Slots {
			return nil, 0, fmt.Errorf("frame index %d out of range", idx)
		}
		text, err := readField(payload)
		if err != nil {
			return nil, 0, fmt.Errorf("frame %d: %w", idx, err)
		}
		seq.set(int(idx), string(text))
	}
	return seq, fps, nil
}

// validRate accepts 0, meaning unknown, and finite positive rates.
func validRate(fps float64) bool {
	return !math.IsNaN(fps) && !math.IsInf(fps, 0) && fps >= 0
}

// SaveFile writes the cache to path, replacing any existing file.
func SaveFile(path string, seq *Sequence, fps float64) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return Save(f, seq, fps)
}

// LoadFile reads a cache written by SaveFile.
func LoadFile(path string) (*Sequence, float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()
	return Load(f)
}

func writeField(buf *bytes.Buffer, data []byte) error {
	if err := binary.Write(buf, binary.LittleEndian, uint32(len(data))); err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	_, err := buf.Write(data)
	return err
}

func readField(r *bytes.Reader) ([]byte, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, err
	}
	if int64(n) > int64(r.Len()) {
		return nil, errors.New("field length exceeds payload")
	}
	data := make([]byte, n)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, err
	}
	return data, nil
}
