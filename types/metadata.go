package types

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// MetadataMarker is the substring identifying a run directory's metadata sidecar.
const MetadataMarker = "metadata"

// IsMetadataName reports whether a directory entry name marks the metadata sidecar.
func IsMetadataName(name string) bool {
	return strings.Contains(name, MetadataMarker)
}

// Chunk describes one unit of output data declared in the metadata.
type Chunk struct {
	// N is the number of records in the chunk. Chunks with N == 0 have no file.
	N int64 `json:"n"`
	// Filename is the chunk file name, when the upstream job records it.
	Filename string `json:"filename,omitempty"`
	// ChunkIndex is the position of the chunk in the stream, when recorded.
	ChunkIndex *int64 `json:"chunk_i,omitempty"`
}

// UnmarshalJSON accepts n written as an integral float (5.0).
func (c *Chunk) UnmarshalJSON(data []byte) error {
	type plain Chunk
	var raw struct {
		plain
		N json.Number `json:"n"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = Chunk(raw.plain)
	if raw.N == "" {
		return nil
	}
	n, err := wholeNumber(raw.N)
	if err != nil {
		return fmt.Errorf("chunk n: %w", err)
	}
	c.N = n
	return nil
}

func wholeNumber(num json.Number) (int64, error) {
	if n, err := num.Int64(); err == nil {
		return n, nil
	}
	f, err := num.Float64()
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, fmt.Errorf("%s is not a whole number", num)
	}
	return int64(f), nil
}

// RunMetadata is the parsed metadata sidecar of a run directory.
type RunMetadata struct {
	// HasException is true when the sidecar carries an "exception" key, whatever its value.
	HasException bool `json:"-"`
	// Exception is the recorded exception text, if it was a string.
	Exception string `json:"-"`
	// Chunks are the declared chunk descriptors, in stream order.
	Chunks []Chunk `json:"chunks"`
}

// CountNonEmpty returns the number of declared chunks with at least one record.
func (m *RunMetadata) CountNonEmpty() int {
	n := 0
	for _, c := range m.Chunks {
		if c.N > 0 {
			n++
		}
	}
	return n
}

// TotalRecords returns the sum of declared record counts.
func (m *RunMetadata) TotalRecords() int64 {
	var total int64
	for _, c := range m.Chunks {
		total += c.N
	}
	return total
}

// ParseMetadata decodes a metadata sidecar.
// The document must be a JSON object; "exception" is detected by key presence.
func ParseMetadata(data []byte) (*RunMetadata, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid metadata JSON: %w", err)
	}

	var md RunMetadata
	if chunks, ok := raw["chunks"]; ok {
		if err := json.Unmarshal(chunks, &md.Chunks); err != nil {
			return nil, fmt.Errorf("invalid metadata chunks: %w", err)
		}
	}

	if exc, ok := raw["exception"]; ok {
		md.HasException = true
		var text string
		if err := json.Unmarshal(exc, &text); err == nil {
			md.Exception = text
		} else {
			md.Exception = string(exc)
		}
	}

	return &md, nil
}
