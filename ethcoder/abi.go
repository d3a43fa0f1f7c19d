package ethcoder

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

func AbiCoder(argTypes []string, argValues []interface{}) ([]byte, error) {
	if len(argTypes) != len(argValues) {
		return nil, errors.New("invalid arguments - types and values do not match")
	}
	args, err := buildArgumentsFromTypes(argTypes)
	if err != nil {
		return nil, fmt.Errorf("failed to build abi: %v", err)
	}
	return args.Pack(argValues...)
}

func AbiDecoder(argTypes []string, input []byte, argValues []interface{}) error {
	if len(argTypes) != len(argValues) {
		return errors.New("invalid arguments - types and values do not match")
	}
	args, err := buildArgumentsFromTypes(argTypes)
	if err != nil {
		return fmt.Errorf("failed to build abi: %v", err)
	}
	values, err := args.Unpack(input)
	if err != nil {
		return err
	}
	if len(args) > 1 {
		return args.Copy(&argValues, values)
	} else {
		return args.Copy(&argValues[0], values)
	}
}

func AbiDecoderWithReturnedValues(argTypes []string, input []byte) ([]interface{}, error) {
	args, err := buildArgumentsFromTypes(argTypes)
	if err != nil {
		return nil, fmt.Errorf("failed to build abi: %v", err)
	}
	return args.UnpackValues(input)
}

// AbiEncodeMethodCalldata packs the calldata for a short-hand method expression,
// ie. AbiEncodeMethodCalldata("text(bytes32,string)", []interface{}{node, "ens.votes"})
func AbiEncodeMethodCalldata(methodExpr string, argValues []interface{}) ([]byte, error) {
	mabi, methodName, err := ParseMethodABI(methodExpr, "")
	if err != nil {
		return nil, err
	}

	data, err := mabi.Pack(methodName, argValues...)
	if err != nil {
		return nil, err
	}
	return data, nil
}

func AbiEncodeMethodCalldataFromStringValues(methodExpr string, argStringValues []string) ([]byte, error) {
	_, argsList, err := parseMethodExpr(methodExpr)
	if err != nil {
		return nil, err
	}
	argTypes := []string{}
	for _, v := range argsList {
		argTypes = append(argTypes, v.Type)
	}

	argValues, err := AbiUnmarshalStringValues(argTypes, argStringValues)
	if err != nil {
		return nil, err
	}
	return AbiEncodeMethodCalldata(methodExpr, argValues)
}

// AbiDecodeMethodCalldata is the inverse of AbiEncodeMethodCalldata. The 4-byte selector
// of the input must match the method expression.
func AbiDecodeMethodCalldata(methodExpr string, input []byte) ([]interface{}, error) {
	mabi, methodName, err := ParseMethodABI(methodExpr, "")
	if err != nil {
		return nil, err
	}
	method := mabi.Methods[methodName]
	if len(input) < 4 {
		return nil, fmt.Errorf("ethcoder: calldata is too short")
	}
	if !bytes.Equal(input[:4], method.ID) {
		return nil, fmt.Errorf("ethcoder: calldata selector %s does not match %s", hexutil.Encode(input[:4]), method.Sig)
	}
	return method.Inputs.Unpack(input[4:])
}

// AbiDecodeMethodResult unpacks the return data of a method call given the method and
// returns expressions, ie. AbiDecodeMethodResult("text(bytes32,string)", "string", data)
func AbiDecodeMethodResult(methodExpr, returnsExpr string, output []byte) ([]interface{}, error) {
	mabi, methodName, err := ParseMethodABI(methodExpr, returnsExpr)
	if err != nil {
		return nil, err
	}
	return mabi.Unpack(methodName, output)
}

func AbiDecodeExpr(expr string, input []byte, argValues []interface{}) error {
	argsList := parseArgumentExpr(expr)
	argTypes := []string{}
	for _, v := range argsList {
		argTypes = append(argTypes, v.Type)
	}
	return AbiDecoder(argTypes, input, argValues)
}

func AbiDecodeExprAndStringify(expr string, input []byte) ([]string, error) {
	argsList := parseArgumentExpr(expr)
	argTypes := []string{}
	for _, v := range argsList {
		argTypes = append(argTypes, v.Type)
	}

	return AbiMarshalStringValues(argTypes, input)
}

func AbiMarshalStringValues(argTypes []string, input []byte) ([]string, error) {
	values, err := AbiDecoderWithReturnedValues(argTypes, input)
	if err != nil {
		return nil, err
	}
	return StringifyValues(values)
}

// StringifyValues renders decoded abi values in the same form accepted by
// AbiUnmarshalStringValues.
func StringifyValues(values []interface{}) ([]string, error) {
	strs := []string{}

	for _, value := range values {
		switch v := value.(type) {
		case nil:
			strs = append(strs, "")
		case string:
			strs = append(strs, v)
		case common.Address:
			strs = append(strs, v.Hex())
		case common.Hash:
			strs = append(strs, v.Hex())
		case [32]byte:
			strs = append(strs, hexutil.Encode(v[:]))
		case []byte:
			strs = append(strs, hexutil.Encode(v))
		case *big.Int:
			strs = append(strs, v.String())
		case bool:
			strs = append(strs, strconv.FormatBool(v))
		case uint8, uint16, uint32, uint64, int8, int16, int32, int64:
			strs = append(strs, fmt.Sprintf("%d", v))
		default:
			b, err := json.Marshal(v)
			if err != nil {
				return nil, fmt.Errorf("ethcoder: unable to stringify value of type %T: %w", v, err)
			}
			strs = append(strs, string(b))
		}
	}

	return strs, nil
}

// AbiUnmarshalStringValues will take an array of ethereum types and string values, and decode
// the string values to runtime objects. This allows simple string value input from an app
// or user, and converts them to the appropriate runtime objects.
//
// For example, some valid inputs:
//   - AbiUnmarshalStringValues([]string{"address","uint256"}, []string{"0x1234...", "543"})
//     returns []interface{}{common.HexToAddress("0x1234..."), big.NewInt(543)}
//   - AbiUnmarshalStringValues([]string{"bytes32"}, []string{"0x1234..."})
//     returns []interface{}{[32]byte{0x12, 0x34, ...}}
func AbiUnmarshalStringValues(argTypes []string, stringValues []string) ([]interface{}, error) {
	if len(argTypes) != len(stringValues) {
		return nil, fmt.Errorf("ethcoder: argTypes and stringValues must be of equal length")
	}

	values := []interface{}{}

	for i, typ := range argTypes {
		s := stringValues[i]

		switch typ {
		case "address":
			// expected "0xabcde......"
			if !common.IsHexAddress(s) {
				return nil, fmt.Errorf("ethcoder: value at position %d is invalid. expecting address in hex", i)
			}
			values = append(values, common.HexToAddress(s))
			continue

		case "string":
			values = append(values, s)
			continue

		case "bytes":
			// expected: bytes in hex encoding with 0x prefix
			if !strings.HasPrefix(s, "0x") {
				return nil, fmt.Errorf("ethcoder: value at position %d is invalid. expecting bytes in hex", i)
			}
			b, err := hexutil.Decode(s)
			if err != nil {
				return nil, fmt.Errorf("ethcoder: value at position %d is invalid. %w", i, err)
			}
			values = append(values, b)
			continue

		case "bool":
			// expected: "true" | "false"
			if s == "true" {
				values = append(values, true)
			} else if s == "false" {
				values = append(values, false)
			} else {
				return nil, fmt.Errorf("ethcoder: value at position %d is invalid. expecting bool as 'true' or 'false'", i)
			}
			continue
		}

		// numbers
		if match := regexArgNumber.FindStringSubmatch(typ); len(match) > 0 {
			size := int64(256)
			if match[2] != "" {
				var err error
				size, err = strconv.ParseInt(match[2], 10, 64)
				if err != nil {
					return nil, fmt.Errorf("ethcoder: value at position %d is invalid. expecting %s. reason: %w", i, typ, err)
				}
			}
			if (size%8 != 0) || size == 0 || size > 256 {
				return nil, fmt.Errorf("ethcoder: value at position %d is invalid. invalid number type '%s'", i, typ)
			}

			num, ok := new(big.Int).SetString(s, 0)
			if !ok {
				return nil, fmt.Errorf("ethcoder: value at position %d is invalid. expecting number. unable to set value of '%s'", i, s)
			}
			if size == 256 {
				values = append(values, num)
				continue
			}
			// abi packing of smaller ints requires the native go type
			v, err := nativeInt(match[1] == "int", size, num)
			if err != nil {
				return nil, fmt.Errorf("ethcoder: value at position %d is invalid. %w", i, err)
			}
			values = append(values, v)
			continue
		}

		// bytesXX (fixed)
		if match := regexArgBytes.FindStringSubmatch(typ); len(match) > 0 {
			if !strings.HasPrefix(s, "0x") {
				return nil, fmt.Errorf("ethcoder: value at position %d is invalid. expecting bytes in hex", i)
			}
			size, err := strconv.ParseInt(match[1], 10, 64)
			if err != nil {
				return nil, err
			}
			if size == 0 || size > 32 {
				return nil, fmt.Errorf("ethcoder: value at position %d is invalid. bytes type '%s' is invalid", i, typ)
			}
			val := common.FromHex(s)
			if int64(len(val)) != size {
				return nil, fmt.Errorf("ethcoder: value at position %d is invalid. %s type expects a %d byte value but received %d", i, typ, size, len(val))
			}
			if size == 32 {
				values = append(values, BytesToBytes32(val))
			} else {
				values = append(values, val)
			}
			continue
		}

		return nil, fmt.Errorf("ethcoder: value at position %d of type %s is unsupported", i, typ)
	}

	return values, nil
}

func nativeInt(signed bool, size int64, num *big.Int) (interface{}, error) {
	if !signed {
		if num.Sign() < 0 || num.BitLen() > int(size) {
			return nil, fmt.Errorf("value %s overflows uint%d", num.String(), size)
		}
		switch size {
		case 8:
			return uint8(num.Uint64()), nil
		case 16:
			return uint16(num.Uint64()), nil
		case 32:
			return uint32(num.Uint64()), nil
		case 64:
			return num.Uint64(), nil
		}
		return num, nil
	}
	if num.BitLen() >= int(size) {
		return nil, fmt.Errorf("value %s overflows int%d", num.String(), size)
	}
	switch size {
	case 8:
		return int8(num.Int64()), nil
	case 16:
		return int16(num.Int64()), nil
	case 32:
		return int32(num.Int64()), nil
	case 64:
		return num.Int64(), nil
	}
	return num, nil
}

// ParseMethodABI will return an `abi.ABI` object from the short-hand method string expression,
// for example, methodExpr: `balanceOf(address)` returnsExpr: `uint256`
//
// Argument names are optional, ie. `hook(bytes encodedFunction, address resolver, uint256 chainId)`.
func ParseMethodABI(methodExpr, returnsExpr string) (*abi.ABI, string, error) {
	var methodName string
	var inputArgs, outputArgs []abiArgument
	var err error

	methodName, inputArgs, err = parseMethodExpr(methodExpr)
	if err != nil {
		return nil, "", err
	}

	if returnsExpr != "" {
		outputArgs = parseArgumentExpr(returnsExpr)
	}

	// generate method abi json for parsing
	methodABI := abiJSON{
		Name:    methodName,
		Type:    "function",
		Inputs:  inputArgs,
		Outputs: outputArgs,
	}

	abiJSON, err := json.Marshal(methodABI)
	if err != nil {
		return nil, methodName, err
	}

	mabi, err := abi.JSON(strings.NewReader(fmt.Sprintf("[%s]", string(abiJSON))))
	if err != nil {
		return nil, methodName, err
	}

	return &mabi, methodName, nil
}

func buildArgumentsFromTypes(argTypes []string) (abi.Arguments, error) {
	args := abi.Arguments{}
	for _, argType := range argTypes {
		abiType, err := abi.NewType(argType, "", nil)
		if err != nil {
			return nil, err
		}
		args = append(args, abi.Argument{Type: abiType})
	}
	return args, nil
}

func parseMethodExpr(expr string) (string, []abiArgument, error) {
	expr = strings.Trim(expr, " ")
	idx := strings.Index(expr, "(")
	if idx < 1 {
		return "", nil, errors.New("ethcoder: invalid input expr. expected format is: methodName(arg1Type, arg2Type)")
	}
	methodName := strings.TrimSpace(strings.TrimPrefix(expr[0:idx], "function "))
	expr = expr[idx:]

	// drop trailing modifiers, ie. "view" or "external view returns (string)"
	if end := matchingParen(expr); end > 0 {
		expr = expr[:end+1]
	}
	if expr[0] != '(' || expr[len(expr)-1] != ')' {
		return "", nil, errors.New("ethcoder: invalid input expr. expected format is: methodName(arg1Type, arg2Type)")
	}
	argsList := parseArgumentExpr(expr)
	return methodName, argsList, nil
}

func matchingParen(expr string) int {
	depth := 0
	for i, c := range expr {
		switch c {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func parseArgumentExpr(expr string) []abiArgument {
	args := []abiArgument{}
	expr = strings.Trim(expr, "() ")
	p := strings.Split(expr, ",")

	if expr == "" {
		return args
	}
	for _, v := range p {
		v = strings.Trim(v, " ")
		n := strings.Fields(v)
		arg := abiArgument{Type: n[0]}
		if len(n) > 1 {
			arg.Name = n[len(n)-1]
		}
		args = append(args, arg)
	}
	return args
}

type abiJSON struct {
	Name    string        `json:"name"`
	Inputs  []abiArgument `json:"inputs"`
	Outputs []abiArgument `json:"outputs"`
	Type    string        `json:"type"`
}

type abiArgument struct {
	Name string `json:"name,omitempty"`
	Type string `json:"type"`
}
