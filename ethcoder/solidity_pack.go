package ethcoder

import (
	"fmt"
	"math/big"
	"reflect"
	"regexp"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
)

// a port of ethers/utils/solidity.ts

func SolidityPack(argTypes []string, argValues []interface{}) ([]byte, error) {
	if len(argTypes) != len(argValues) {
		return nil, fmt.Errorf("invalid arguments - types and values do not match")
	}
	pack := []byte{}
	for i := 0; i < len(argTypes); i++ {
		b, err := solidityArgumentPack(argTypes[i], argValues[i], false)
		if err != nil {
			return nil, fmt.Errorf("ethcoder: solidity pack of argument %d: %w", i, err)
		}
		pack = append(pack, b...)
	}
	return pack, nil
}

// SolidityPackedKeccak256 is keccak256(abi.encodePacked(...)).
func SolidityPackedKeccak256(argTypes []string, argValues []interface{}) (common.Hash, error) {
	b, err := SolidityPack(argTypes, argValues)
	if err != nil {
		return common.Hash{}, err
	}
	return Keccak256Hash(b), nil
}

func solidityArgumentPackHex(typ string, val interface{}, isArray bool) (string, error) {
	b, err := solidityArgumentPack(typ, val, isArray)
	if err != nil {
		return "", err
	}
	return hexutil.Encode(b), nil
}

func solidityArgumentPack(typ string, val interface{}, isArray bool) ([]byte, error) {
	switch typ {
	case "address":
		v, ok := val.(common.Address)
		if !ok {
			return nil, fmt.Errorf("not an common.Address")
		}
		b := v.Bytes()
		if isArray {
			return PadZeros(b, 32)
		}
		return b, nil

	case "string":
		v, ok := val.(string)
		if !ok {
			return nil, fmt.Errorf("not a string")
		}
		return []byte(v), nil

	case "bytes":
		b, ok := val.([]byte)
		if !ok {
			return nil, fmt.Errorf("not a []byte")
		}
		return b, nil

	case "bool":
		v, ok := val.(bool)
		if !ok {
			return nil, fmt.Errorf("not a bool")
		}
		b := []byte{0}
		if v {
			b = []byte{1}
		}
		if isArray {
			return PadZeros(b, 32)
		}
		return b, nil
	}

	// numbers
	if match := regexArgNumber.FindStringSubmatch(typ); len(match) > 0 {
		size := int64(256)
		if match[2] != "" {
			var err error
			size, err = strconv.ParseInt(match[2], 10, 64)
			if err != nil {
				return nil, err
			}
		}
		if (size%8 != 0) || size == 0 || size > 256 {
			return nil, fmt.Errorf("invalid number type '%s'", typ)
		}
		if isArray {
			size = 256
		}

		num := big.NewInt(0)
		switch v := val.(type) {
		case *big.Int:
			num = v
		case uint8:
			num.SetUint64(uint64(v))
		case uint16:
			num.SetUint64(uint64(v))
		case uint32:
			num.SetUint64(uint64(v))
		case uint64:
			num.SetUint64(v)
		case int:
			num.SetInt64(int64(v))
		case int8:
			num.SetInt64(int64(v))
		case int16:
			num.SetInt64(int64(v))
		case int32:
			num.SetInt64(int64(v))
		case int64:
			num.SetInt64(v)
		default:
			return nil, fmt.Errorf("expecting *big.Int or (u)intX value for type '%s'", typ)
		}

		if match[1] == "int" && num.Sign() < 0 {
			// two's complement within the type width
			return math.U256Bytes(new(big.Int).Set(num))[32-size/8:], nil
		}
		if num.BitLen() > int(size) {
			return nil, fmt.Errorf("value %s overflows '%s'", num.String(), typ)
		}
		return math.PaddedBigBytes(num, int(size/8)), nil
	}

	// bytes
	if match := regexArgBytes.FindStringSubmatch(typ); len(match) > 0 {
		size, err := strconv.ParseInt(match[1], 10, 64)
		if err != nil {
			return nil, err
		}
		if size == 0 || size > 32 {
			return nil, fmt.Errorf("invalid bytes type '%s'", typ)
		}

		rv := reflect.ValueOf(val)
		if !rv.IsValid() || (rv.Kind() != reflect.Array && rv.Kind() != reflect.Slice) {
			return nil, fmt.Errorf("not an array")
		}
		if rv.Type().Elem().Kind() != reflect.Uint8 {
			return nil, fmt.Errorf("not a byte array")
		}
		if rv.Len() != int(size) {
			return nil, fmt.Errorf("not a [%d]byte", size)
		}

		v := make([]byte, size)
		for i := 0; i < int(size); i++ {
			v[i] = byte(rv.Index(i).Uint())
		}
		if isArray {
			return common.RightPadBytes(v, 32), nil
		}
		return v, nil
	}

	// arrays
	if match := regexArgArray.FindStringSubmatch(typ); len(match) > 0 {
		baseTyp := match[1]
		rv := reflect.ValueOf(val)
		if !rv.IsValid() || (rv.Kind() != reflect.Array && rv.Kind() != reflect.Slice) {
			return nil, fmt.Errorf("not an array")
		}
		if match[2] != "" {
			count, err := strconv.ParseInt(match[2], 10, 64)
			if err != nil {
				return nil, err
			}
			if rv.Len() != int(count) {
				return nil, fmt.Errorf("array length %d does not match type '%s'", rv.Len(), typ)
			}
		}

		var buf []byte
		for i := 0; i < rv.Len(); i++ {
			b, err := solidityArgumentPack(baseTyp, rv.Index(i).Interface(), true)
			if err != nil {
				return nil, err
			}
			buf = append(buf, b...)
		}
		return buf, nil
	}

	return nil, fmt.Errorf("unknown type '%s'", typ)
}

func PadZeros(array []byte, totalLength int) ([]byte, error) {
	if len(array) > totalLength {
		return nil, fmt.Errorf("array is larger than total expected length")
	}

	buf := make([]byte, totalLength)
	i := totalLength - 1
	for j := len(array) - 1; j >= 0; j-- {
		buf[i] = array[j]
		i--
	}
	return buf, nil
}

var (
	regexArgBytes  = regexp.MustCompile(`^bytes([0-9]+)$`)
	regexArgNumber = regexp.MustCompile(`^(u?int)([0-9]*)$`)
	regexArgArray  = regexp.MustCompile(`^(.*)\[([0-9]*)\]$`)
)
