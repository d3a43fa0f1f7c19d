package ethrpc

import "encoding/json"

// JSONCodec encodes request bodies and decodes responses, ie. sonic.Config.
type JSONCodec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

type stdCodec struct{}

func (stdCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (stdCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

var (
	jsonMarshaler   = stdCodec{}.Marshal
	jsonUnmarshaler = stdCodec{}.Unmarshal
)

// SetJSONCodec replaces encoding/json for every provider. Call it before
// any request is made.
func SetJSONCodec(codec JSONCodec) {
	if codec == nil {
		codec = stdCodec{}
	}
	jsonMarshaler = codec.Marshal
	jsonUnmarshaler = codec.Unmarshal
}
