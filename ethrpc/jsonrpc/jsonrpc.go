package jsonrpc

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Message is either a JSONRPC request or response.
type Message struct {
	Version string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Method  string          `json:"method,omitempty"`
	Params  []any           `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// NewRequest returns a new JSONRPC request Message.
func NewRequest(id uint64, method string, params []any) Message {
	return Message{
		Version: "2.0",
		ID:      id,
		Method:  method,
		Params:  params,
	}
}

// Error is a JSONRPC error returned from the node.
type Error struct {
	Code    int             `json:"code,omitempty"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Error implements the error interface.
func (e Error) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

// HexData returns the error data when the node attached hex bytes to the error,
// which is how eth_call reports revert data. Both `"data": "0x.."` and
// `"data": {"data": "0x.."}` are understood.
func (e Error) HexData() ([]byte, bool) {
	if len(e.Data) == 0 {
		return nil, false
	}

	var s string
	if err := json.Unmarshal(e.Data, &s); err != nil {
		var nested struct {
			Data string `json:"data"`
		}
		if err := json.Unmarshal(e.Data, &nested); err != nil || nested.Data == "" {
			return nil, false
		}
		s = nested.Data
	}

	// some nodes prefix the payload, ie. "Reverted 0x..."
	if i := strings.Index(s, "0x"); i > 0 {
		s = s[i:]
	}
	b, err := hexutil.Decode(s)
	if err != nil {
		return nil, false
	}
	return b, true
}
