package ethcoder

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNameHash(t *testing.T) {
	cases := []struct {
		name     string
		expected string
	}{
		{"", "0x0000000000000000000000000000000000000000000000000000000000000000"},
		{"eth", "0x93cdeb708b7545dc668eb9280176169d1c33cfd8ed6f04690a0bcc88a93fc4ae"},
		{"foo.eth", "0xde9b09fd7c5f901e23a3f19fecc54828e9c848539801e86591bd9801b019f84f"},
		{"FOO.eth", "0xde9b09fd7c5f901e23a3f19fecc54828e9c848539801e86591bd9801b019f84f"},
	}
	for _, c := range cases {
		hash, err := NameHash(c.name)
		require.NoError(t, err, c.name)
		assert.Equal(t, c.expected, hash.Hex(), c.name)
	}
}

func TestLabelHash(t *testing.T) {
	hash, err := LabelHash("eth")
	require.NoError(t, err)
	assert.Equal(t, "0x4f5b812789fc606be1b3b16908db13fc7a9adf7ca72641f84d75b47069d3d7f0", hash.Hex())

	// namehash(label.parent) = keccak256(namehash(parent) ++ labelhash(label))
	parent := MustNameHash("eth")
	label, err := LabelHash("foo")
	require.NoError(t, err)
	assert.Equal(t, MustNameHash("foo.eth"), Keccak256Hash(append(parent.Bytes(), label.Bytes()...)))

	_, err = LabelHash("foo.eth")
	assert.Error(t, err)
}

func TestDNSEncode(t *testing.T) {
	b, err := DNSEncode("foo.eth", 0)
	require.NoError(t, err)
	assert.Equal(t, "0x03666f6f0365746800", hexutil.Encode(b))

	b, err = DNSEncode("", 0)
	require.NoError(t, err)
	assert.Equal(t, "0x00", hexutil.Encode(b))

	voter := "d8da6bf26964af9d7eed9e03e53415d37aa96045.votes.eth"
	b, err = DNSEncode(voter, 255)
	require.NoError(t, err)
	assert.Equal(t, byte(40), b[0])
	assert.Equal(t, byte(0), b[len(b)-1])

	name, err := DNSDecode(b)
	require.NoError(t, err)
	assert.Equal(t, voter, name)
}

func TestDNSEncodeLimits(t *testing.T) {
	long := common.Bytes2Hex(make([]byte, 32)) + ".eth" // 64 byte label

	_, err := DNSEncode(long, 0)
	assert.Error(t, err)

	b, err := DNSEncode(long, 255)
	require.NoError(t, err)
	assert.Len(t, b, 1+64+1+3+1)

	_, err = DNSEncode("foo.eth", 256)
	assert.Error(t, err)

	_, err = DNSEncode("foo..eth", 0)
	assert.Error(t, err)
}

func TestDNSDecodeInvalid(t *testing.T) {
	_, err := DNSDecode([]byte{3, 'f', 'o'})
	assert.Error(t, err)

	_, err = DNSDecode([]byte{3, 'f', 'o', 'o'})
	assert.Error(t, err)

	_, err = DNSDecode([]byte{0, 1})
	assert.Error(t, err)

	name, err := DNSDecode([]byte{0})
	require.NoError(t, err)
	assert.Equal(t, "", name)
}

func TestNameHashEmptyLabel(t *testing.T) {
	_, err := NameHash("a..eth")
	assert.ErrorIs(t, err, ErrEmptyLabel)

	_, err = NameHash(".eth")
	assert.ErrorIs(t, err, ErrEmptyLabel)
}
