package ethrpc

import (
	"errors"

	"github.com/0xsequence/urkit/ethrpc/jsonrpc"
)

// RevertData extracts the revert bytes of a failed eth_call from err. It returns
// false when err is not a JSON-RPC error carrying hex data.
func RevertData(err error) ([]byte, bool) {
	if err == nil {
		return nil, false
	}
	var rpcErr jsonrpc.Error
	if !errors.As(err, &rpcErr) {
		return nil, false
	}
	return rpcErr.HexData()
}

// IsRevert reports if err is a JSON-RPC execution revert.
func IsRevert(err error) bool {
	_, ok := RevertData(err)
	return ok
}
