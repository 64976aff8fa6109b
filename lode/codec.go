package lode

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// Record is one decoded row of chunk data.
type Record = map[string]any

// ErrUnsupportedCodec is returned for chunk files with an unknown extension.
var ErrUnsupportedCodec = errors.New("unsupported chunk codec")

// Chunk codecs, selected by file extension.
const (
	CodecJSONL   = "jsonl"
	CodecMsgpack = "msgpack"
)

// CodecFor returns the codec name for a chunk file name.
func CodecFor(name string) (string, error) {
	switch strings.ToLower(path.Ext(name)) {
	case ".jsonl", ".json", ".ndjson":
		return CodecJSONL, nil
	case ".msgpack", ".mpk":
		return CodecMsgpack, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedCodec, name)
	}
}

// DecodeChunk streams records from r using the codec for name.
// fn is called once per record; returning false stops decoding without error.
// Returns the number of records passed to fn.
func DecodeChunk(name string, r io.Reader, fn func(Record) bool) (int64, error) {
	codec, err := CodecFor(name)
	if err != nil {
		return 0, err
	}

	var next func(*Record) error
	switch codec {
	case CodecJSONL:
		dec := json.NewDecoder(r)
		next = func(rec *Record) error { return dec.Decode(rec) }
	case CodecMsgpack:
		dec := msgpack.NewDecoder(r)
		next = func(rec *Record) error { return dec.Decode(rec) }
	}

	var n int64
	for {
		var rec Record
		if err := next(&rec); err != nil {
			if errors.Is(err, io.EOF) {
				return n, nil
			}
			return n, fmt.Errorf("decode %s record %d: %w", name, n, err)
		}
		n++
		if !fn(rec) {
			return n, nil
		}
	}
}
