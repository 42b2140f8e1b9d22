package codec

import (
	"encoding/json"
)

// JSON is the standard-library JSON codec.
//
// Notes:
// - Corpus records and journal entries are plain structs; JSON is stable and portable for both.
// - Time values round-trip as RFC 3339 strings.
//
// If you need custom encoding (e.g. protobuf/msgpack), implement Codec and
// pass it where a Codec is accepted.
type JSON struct{}

// Marshal encodes the value to JSON.
func (JSON) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

// Unmarshal decodes the JSON data into v.
func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// Name returns the unique name of the codec ("json").
func (JSON) Name() string { return "json" }

// Default is the default codec used by the library.
//
// NOTE: This affects newly-written corpus blobs. Loading selects whatever
// codec the caller passes, so existing blobs stay readable.
var Default Codec = GoJSON{}
