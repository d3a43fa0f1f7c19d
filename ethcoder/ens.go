// Copyright 2017 Weald Technology Trading
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ethcoder

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/sha3"
	"golang.org/x/net/idna"
)

// DefaultDNSLabelLength is the per-label limit of DNSEncode when none is given.
const DefaultDNSLabelLength = 63

var ErrEmptyLabel = errors.New("ethcoder: invalid ENS name, empty label")

var p = idna.New(idna.MapForLookup(), idna.StrictDomainName(false), idna.Transitional(false))

// NameHash generates a hash from a name that can be used to
// look up the name in ENS
func NameHash(name string) (hash common.Hash, err error) {
	parts, err := splitName(name)
	if err != nil {
		return
	}
	for i := len(parts) - 1; i >= 0; i-- {
		if hash, err = nameHashPart(hash, parts[i]); err != nil {
			return
		}
	}
	return
}

func MustNameHash(name string) common.Hash {
	hash, err := NameHash(name)
	if err != nil {
		panic(err)
	}
	return hash
}

// LabelHash is the keccak256 of a single normalized label.
func LabelHash(label string) (common.Hash, error) {
	normalized, err := Normalize(label)
	if err != nil {
		return common.Hash{}, err
	}
	if strings.Contains(normalized, ".") {
		return common.Hash{}, fmt.Errorf("ethcoder: label %q contains a separator", label)
	}
	return Keccak256Hash([]byte(normalized)), nil
}

// Normalize normalizes a name according to the ENS rules
func Normalize(input string) (output string, err error) {
	output, err = p.ToUnicode(input)
	if err != nil {
		return
	}
	// If the name started with a period then ToUnicode() removes it, but we want to keep it
	if strings.HasPrefix(input, ".") && !strings.HasPrefix(output, ".") {
		output = "." + output
	}
	return
}

// DNSEncode returns the DNS wire format of a name, as used by ENSIP-10 wildcard
// resolution: every label is prefixed by its byte length and the result ends
// with a zero byte. maxLabelLength of 0 means DefaultDNSLabelLength.
func DNSEncode(name string, maxLabelLength int) ([]byte, error) {
	if maxLabelLength == 0 {
		maxLabelLength = DefaultDNSLabelLength
	}
	if maxLabelLength < 0 || maxLabelLength > 255 {
		return nil, fmt.Errorf("ethcoder: DNS encoded label length limit cannot exceed 255, got %d", maxLabelLength)
	}

	labels, err := splitName(name)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(name)+2)
	for _, label := range labels {
		if len(label) > maxLabelLength {
			return nil, fmt.Errorf("ethcoder: label %q exceeds %d bytes", label, maxLabelLength)
		}
		out = append(out, byte(len(label)))
		out = append(out, label...)
	}
	return append(out, 0), nil
}

// DNSDecode reverses DNSEncode.
func DNSDecode(data []byte) (string, error) {
	labels := []string{}
	for pos := 0; ; {
		if pos >= len(data) {
			return "", errors.New("ethcoder: DNS encoded name is not terminated")
		}
		n := int(data[pos])
		pos++
		if n == 0 {
			if pos != len(data) {
				return "", errors.New("ethcoder: trailing bytes after DNS encoded name")
			}
			break
		}
		if pos+n > len(data) {
			return "", errors.New("ethcoder: DNS encoded label overflows input")
		}
		labels = append(labels, string(data[pos:pos+n]))
		pos += n
	}
	return strings.Join(labels, "."), nil
}

func splitName(name string) ([]string, error) {
	if name == "" {
		return nil, nil
	}
	normalized, err := Normalize(name)
	if err != nil {
		return nil, err
	}
	labels := strings.Split(normalized, ".")
	for _, label := range labels {
		if label == "" {
			return nil, ErrEmptyLabel
		}
	}
	return labels, nil
}

func nameHashPart(currentHash common.Hash, name string) (hash common.Hash, err error) {
	sha := sha3.NewLegacyKeccak256()
	if _, err = sha.Write(currentHash[:]); err != nil {
		return
	}
	nameSha := sha3.NewLegacyKeccak256()
	if _, err = nameSha.Write([]byte(name)); err != nil {
		return
	}
	nameHash := nameSha.Sum(nil)
	if _, err = sha.Write(nameHash); err != nil {
		return
	}
	sha.Sum(hash[:0])
	return
}
