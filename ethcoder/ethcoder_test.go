package ethcoder

import (
	"math/big"
	"reflect"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAbiEncoding(t *testing.T) {
	cases := []struct {
		argTypes []string
		expected string
		input    []interface{}
	}{
		{
			argTypes: []string{
				"uint256[]",
				"uint256[]",
			},
			expected: `0x000000000000000000000000000000000000000000000000000000000000004000000000000000000000000000000000000000000000000000000000000000800000000000000000000000000000000000000000000000000000000000000001000000000000000000000000000000000000000000000000000000000000002c00000000000000000000000000000000000000000000000000000000000000010000000000000000000000000000000000000000000000000000000000000016`,
			input: []interface{}{
				[]*big.Int{big.NewInt(44)},
				[]*big.Int{big.NewInt(22)},
			},
		},
	}

	for _, i := range cases {
		packed, err := AbiCoder(i.argTypes, i.input)
		assert.NoError(t, err)

		// the expected value is the same
		assert.Equal(t, i.expected, hexutil.Encode(packed))

		// decode the value
		output := make([]interface{}, len(i.argTypes))
		err = AbiDecoder(i.argTypes, packed, output)
		assert.NoError(t, err)

		if !reflect.DeepEqual(output, i.input) {
			t.Fatal("encode/decode do not match")
		}
	}
}

func TestSolidityPack(t *testing.T) {
	// string
	{
		// ethers.utils.solidityPack(['string'], ['peϣer'])
		// "0x7065cfa36572"
		h, err := solidityArgumentPackHex("string", "peϣer", false)
		assert.NoError(t, err)
		assert.Equal(t, "0x7065cfa36572", h)
	}

	// address
	{
		// ethers.utils.solidityPack(['address'], ['0x39d28D4c4191a584acabe021F5B905887a6B5247'])
		// "0x39d28d4c4191a584acabe021f5b905887a6b5247"
		h, err := solidityArgumentPackHex("address", common.HexToAddress("0x39d28D4c4191a584acabe021F5B905887a6B5247"), false)
		assert.NoError(t, err)
		assert.Equal(t, "0x39d28d4c4191a584acabe021f5b905887a6b5247", h)
	}

	// bytes
	{
		// ethers.utils.solidityPack(['bytes'], [[0,1,2,3]])
		// "0x00010203"
		h, err := solidityArgumentPackHex("bytes", []byte{0, 1, 2, 3}, false)
		assert.NoError(t, err)
		assert.Equal(t, "0x00010203", h)
	}

	// bool
	{
		// ethers.utils.solidityPack(['bool'], [true])
		// "0x01"
		h, err := solidityArgumentPackHex("bool", true, false)
		assert.NoError(t, err)
		assert.Equal(t, "0x01", h)

		h, err = solidityArgumentPackHex("bool", false, false)
		assert.NoError(t, err)
		assert.Equal(t, "0x00", h)
	}

	// uint256
	{
		// ethers.utils.solidityPack(['uint256'], [55])
		// "0x0000000000000000000000000000000000000000000000000000000000000037"
		h, err := solidityArgumentPackHex("uint256", big.NewInt(55), false)
		assert.NoError(t, err)
		assert.Equal(t, "0x0000000000000000000000000000000000000000000000000000000000000037", h)
	}

	// bytes8
	{
		// ethers.utils.solidityPack(['bytes8'], [[0,1,2,3,4,5,6,7]])
		// "0x0001020304050607"
		h, err := solidityArgumentPackHex("bytes8", [8]byte{0, 1, 2, 3, 4, 5, 6, 7}, false)
		assert.NoError(t, err)
		assert.Equal(t, "0x0001020304050607", h)
	}

	// address[]
	{
		// ethers.utils.solidityPack(['address[]'], [['0x39d28D4c4191a584acabe021F5B905887a6B5247']])
		// "0x00000000000000000000000039d28d4c4191a584acabe021f5b905887a6b5247"
		h, err := solidityArgumentPackHex("address[]", []common.Address{common.HexToAddress("0x39d28D4c4191a584acabe021F5B905887a6B5247")}, false)
		assert.NoError(t, err)
		assert.Equal(t, "0x00000000000000000000000039d28d4c4191a584acabe021f5b905887a6b5247", h)
	}

	// string[]
	{
		// ethers.utils.solidityPack(['string[]'], [['sup','eth']])
		// "0x737570657468"
		h, err := solidityArgumentPackHex("string[]", []string{"sup", "eth"}, false)
		assert.NoError(t, err)
		assert.Equal(t, "0x737570657468", h)
	}

	// bool[]
	{
		// ethers.utils.solidityPack(['bool[]'], [[true,true]])
		// "0x00000000000000000000000000000000000000000000000000000000000000010000000000000000000000000000000000000000000000000000000000000001"
		h, err := solidityArgumentPackHex("bool[]", []bool{true, true}, false)
		assert.NoError(t, err)
		assert.Equal(t, "0x00000000000000000000000000000000000000000000000000000000000000010000000000000000000000000000000000000000000000000000000000000001", h)
	}
}

func TestFunctionSignature(t *testing.T) {
	fnsig := FunctionSignature("balanceOf(address,uint256)")
	assert.Equal(t, "0x00fdd58e", fnsig)
}

func TestFunctionSelector(t *testing.T) {
	assert.Equal(t, [4]byte{0x59, 0xd1, 0xd4, 0x3c}, FunctionSelector("text(bytes32,string)"))
	assert.Equal(t, "0x3b3b57de", FunctionSignature("addr(bytes32)"))
}

func TestAbiEncodeMethodCalldataNamedArgs(t *testing.T) {
	node := MustNameHash("foo.eth")

	a, err := AbiEncodeMethodCalldata("function text(bytes32 node, string key) view returns (string)", []interface{}{[32]byte(node), "ens.votes"})
	require.NoError(t, err)
	b, err := AbiEncodeMethodCalldata("text(bytes32,string)", []interface{}{[32]byte(node), "ens.votes"})
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, "0x59d1d43c", hexutil.Encode(a[:4]))

	values, err := AbiDecodeMethodCalldata("text(bytes32,string)", a)
	require.NoError(t, err)
	assert.Equal(t, [32]byte(node), values[0])
	assert.Equal(t, "ens.votes", values[1])

	_, err = AbiDecodeMethodCalldata("addr(bytes32)", a)
	assert.Error(t, err)
}

func TestAbiUnmarshalStringValues(t *testing.T) {
	values, err := AbiUnmarshalStringValues(
		[]string{"address", "uint256", "bytes32", "bool", "uint16"},
		[]string{"0x39d28D4c4191a584acabe021F5B905887a6B5247", "543", "0x93cdeb708b7545dc668eb9280176169d1c33cfd8ed6f04690a0bcc88a93fc4ae", "true", "60"},
	)
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0x39d28D4c4191a584acabe021F5B905887a6B5247"), values[0])
	assert.Equal(t, big.NewInt(543), values[1])
	assert.Equal(t, [32]byte(MustNameHash("eth")), values[2])
	assert.Equal(t, true, values[3])
	assert.Equal(t, uint16(60), values[4])

	_, err = AbiUnmarshalStringValues([]string{"uint8"}, []string{"256"})
	assert.Error(t, err)

	strs, err := StringifyValues(values)
	require.NoError(t, err)
	assert.True(t, strings.EqualFold("0x39d28D4c4191a584acabe021F5B905887a6B5247", strs[0]))
	assert.Equal(t, []string{"543", "0x93cdeb708b7545dc668eb9280176169d1c33cfd8ed6f04690a0bcc88a93fc4ae", "true", "60"}, strs[1:])
}

func TestSolidityPackedKeccak256(t *testing.T) {
	node := MustNameHash("votes.eth")
	h, err := SolidityPackedKeccak256([]string{"bytes32", "uint256"}, []interface{}{node, big.NewInt(0)})
	require.NoError(t, err)

	word, err := AbiCoder([]string{"bytes32", "uint256"}, []interface{}{[32]byte(node), big.NewInt(0)})
	require.NoError(t, err)
	assert.Equal(t, Keccak256Hash(word), h)
}

func TestAbiDecodeExpr(t *testing.T) {
	ret := "0x000000000000000000000000000000000000000000007998f984c2040a5a9e01000000000000000000000000000000000000000000007998f984c2040a5a9e01"

	var num1, num2 *big.Int
	err := AbiDecodeExpr("(uint256,uint256)", MustHexDecode(ret), []interface{}{&num1, &num2})
	require.NoError(t, err)
	assert.Equal(t, "574228229235365901934081", num1.String())
	assert.Equal(t, num1, num2)

	data, err := AbiCoder([]string{"string"}, []interface{}{"1000"})
	require.NoError(t, err)

	var text string
	err = AbiDecodeExpr("(string)", data, []interface{}{&text})
	require.NoError(t, err)
	assert.Equal(t, "1000", text)

	err = AbiDecodeExpr("(string,uint256)", data, []interface{}{&text})
	assert.Error(t, err)
}
