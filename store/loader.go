package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/hupe1980/sqlgo/blobstore"
	"github.com/hupe1980/sqlgo/codec"
	"github.com/hupe1980/sqlgo/model"
)

// Quarantined describes one corpus record that was rejected at load time.
type Quarantined struct {
	// Index is the record's position in the corpus blob.
	Index int
	// ID is the record's id when one could be decoded, otherwise empty.
	ID string
	// Reason is the human-readable rejection reason.
	Reason string
}

// LoadResult summarizes one corpus load.
type LoadResult struct {
	Loaded      int
	Quarantined []Quarantined
}

// Load reads a corpus blob, decodes it record by record and adds every valid
// example to the store. Malformed records are quarantined with a reason
// instead of being defaulted or aborting the load.
//
// Blobs with a ".zst" or ".lz4" key suffix are decompressed transparently.
// The blob must contain an array of example records in the codec's encoding.
func Load(ctx context.Context, s *Store, bs blobstore.BlobStore, key string, c codec.Codec) (*LoadResult, error) {
	blob, err := bs.Open(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("open corpus %q: %w", key, err)
	}
	defer blob.Close()

	data, err := readAll(blob)
	if err != nil {
		return nil, fmt.Errorf("read corpus %q: %w", key, err)
	}

	data, err = decompress(key, data)
	if err != nil {
		return nil, fmt.Errorf("decompress corpus %q: %w", key, err)
	}

	var raws []json.RawMessage
	if err := c.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("decode corpus %q: %w", key, err)
	}

	result := &LoadResult{}
	for i, raw := range raws {
		var ex model.Example
		if err := c.Unmarshal(raw, &ex); err != nil {
			result.Quarantined = append(result.Quarantined, Quarantined{
				Index:  i,
				ID:     rawID(c, raw),
				Reason: fmt.Sprintf("decode: %v", err),
			})
			continue
		}
		if err := addQuarantining(s, i, ex, result); err == nil {
			result.Loaded++
		}
	}

	if result.Loaded == 0 {
		return result, ErrEmptyCorpus
	}
	return result, nil
}

// LoadStatic adds an already-decoded example slice to the store with the
// same quarantine semantics as Load.
func LoadStatic(s *Store, examples []model.Example) (*LoadResult, error) {
	result := &LoadResult{}
	for i, ex := range examples {
		if err := addQuarantining(s, i, ex, result); err == nil {
			result.Loaded++
		}
	}

	if result.Loaded == 0 {
		return result, ErrEmptyCorpus
	}
	return result, nil
}

func addQuarantining(s *Store, index int, ex model.Example, result *LoadResult) error {
	if err := s.Add(ex); err != nil {
		result.Quarantined = append(result.Quarantined, Quarantined{
			Index:  index,
			ID:     ex.ID,
			Reason: err.Error(),
		})
		return err
	}
	return nil
}

// rawID best-effort extracts the id of a record that failed to decode, so
// the quarantine entry stays actionable.
func rawID(c codec.Codec, raw json.RawMessage) string {
	var probe struct {
		ID string `json:"id"`
	}
	if err := c.Unmarshal(raw, &probe); err != nil {
		return ""
	}
	return probe.ID
}

// readAll prefers the blob's single-request fast path over chunked ReadAt.
// Remote stores serve Bytes in one fetch; plain blobs fall back to a
// section reader.
func readAll(blob blobstore.Blob) ([]byte, error) {
	if m, ok := blob.(blobstore.Mappable); ok {
		return m.Bytes()
	}
	return io.ReadAll(io.NewSectionReader(blob, 0, blob.Size()))
}

func decompress(key string, data []byte) ([]byte, error) {
	switch {
	case strings.HasSuffix(key, ".zst"):
		zr, err := zstd.NewReader(nil)
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		return zr.DecodeAll(data, nil)

	case strings.HasSuffix(key, ".lz4"):
		return io.ReadAll(lz4.NewReader(bytes.NewReader(data)))

	default:
		return data, nil
	}
}
