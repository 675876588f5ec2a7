// Copyright 2025 Secreon Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package shamir

import (
	"fmt"
	"strings"

	"github.com/cuedego/secreon/constants"
	"github.com/cuedego/secreon/shamir/internal/rs1024"
	"github.com/cuedego/secreon/shamir/internal/wordlist"
)

// Share is one member share of a split together with its metadata. Fields
// are packed into the mnemonic header in the order they are declared.
type Share struct {
	// Identifier is the 15-bit random tag common to all shares of a split.
	Identifier int
	// Extendable selects the checksum customization and cipher salt mode.
	Extendable bool
	// IterationExponent scales the cipher's PBKDF2 work, 0..15.
	IterationExponent int
	// GroupIndex is the share's group, 0..15.
	GroupIndex int
	// GroupThreshold is the number of groups required to combine, 1..16.
	GroupThreshold int
	// GroupCount is the total number of groups, 1..16.
	GroupCount int
	// MemberIndex is the share's x-coordinate within its group, 0..15.
	MemberIndex int
	// MemberThreshold is the number of members required to recover the
	// group share, 1..16.
	MemberThreshold int
	// Value is the Shamir share payload, the same length as the encrypted
	// master secret.
	Value []byte
}

// commonParams identifies a matching set of shares.
type commonParams struct {
	identifier        int
	extendable        bool
	iterationExponent int
	groupThreshold    int
	groupCount        int
}

// groupParams identifies shares belonging to the same group.
type groupParams struct {
	commonParams
	groupIndex      int
	memberThreshold int
}

func (s Share) common() commonParams {
	return commonParams{
		identifier:        s.Identifier,
		extendable:        s.Extendable,
		iterationExponent: s.IterationExponent,
		groupThreshold:    s.GroupThreshold,
		groupCount:        s.GroupCount,
	}
}

func (s Share) group() groupParams {
	return groupParams{
		commonParams:    s.common(),
		groupIndex:      s.GroupIndex,
		memberThreshold: s.MemberThreshold,
	}
}

func (s Share) validate() error {
	switch {
	case s.Identifier < 0 || s.Identifier > constants.MaxIdentifier:
		return fmt.Errorf("%w: identifier %d out of range", ErrInvalidInput, s.Identifier)
	case s.IterationExponent < 0 || s.IterationExponent > constants.MaxIterationExponent:
		return fmt.Errorf("%w: iteration exponent %d out of range", ErrInvalidInput, s.IterationExponent)
	case s.GroupIndex < 0 || s.GroupIndex >= constants.MaxShareCount:
		return fmt.Errorf("%w: group index %d out of range", ErrInvalidInput, s.GroupIndex)
	case s.GroupThreshold < 1 || s.GroupThreshold > constants.MaxShareCount:
		return fmt.Errorf("%w: group threshold %d out of range", ErrInvalidInput, s.GroupThreshold)
	case s.GroupCount < s.GroupThreshold || s.GroupCount > constants.MaxShareCount:
		return fmt.Errorf("%w: group count %d out of range", ErrInvalidInput, s.GroupCount)
	case s.MemberIndex < 0 || s.MemberIndex >= constants.MaxShareCount:
		return fmt.Errorf("%w: member index %d out of range", ErrInvalidInput, s.MemberIndex)
	case s.MemberThreshold < 1 || s.MemberThreshold > constants.MaxShareCount:
		return fmt.Errorf("%w: member threshold %d out of range", ErrInvalidInput, s.MemberThreshold)
	case len(s.Value)%2 != 0 || len(s.Value)*8 < constants.MinStrengthBits:
		return fmt.Errorf("%w: share value must be an even number of bytes and at least %d bits",
			ErrInvalidInput, constants.MinStrengthBits)
	}
	return nil
}

// paddingBits returns the number of leading zero bits padding a share value
// of valueWords 10-bit words. The share value always spans a whole number of
// 16-bit units, so the padding is the word bits modulo 16.
func paddingBits(valueWords int) int {
	return valueWords * constants.RadixBits % 16
}

// Words encodes the share as a sequence of mnemonic words, appending the
// RS1024 checksum.
func (s Share) Words() ([]string, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}

	idExp := s.Identifier<<(constants.ExtendableFlagLengthBits+constants.IterationExpLengthBits) |
		boolToInt(s.Extendable)<<constants.IterationExpLengthBits |
		s.IterationExponent
	params := s.GroupIndex<<16 |
		(s.GroupThreshold-1)<<12 |
		(s.GroupCount-1)<<8 |
		s.MemberIndex<<4 |
		(s.MemberThreshold - 1)

	valueWords := (len(s.Value)*8 + constants.RadixBits - 1) / constants.RadixBits
	data := make([]int, 0, constants.IDExpLengthWords+2+valueWords+constants.ChecksumLengthWords)
	data = append(data,
		idExp>>constants.RadixBits, idExp&(constants.Radix-1),
		params>>constants.RadixBits, params&(constants.Radix-1),
	)

	// Stream the value bytes into 10-bit words, padding with leading zero
	// bits so the value occupies the low end of the word block.
	acc := uint32(0)
	nbits := paddingBits(valueWords)
	for _, b := range s.Value {
		acc = acc<<8 | uint32(b)
		nbits += 8
		for nbits >= constants.RadixBits {
			nbits -= constants.RadixBits
			data = append(data, int(acc>>nbits&(constants.Radix-1)))
		}
	}

	data = append(data, rs1024.Create(data, s.Extendable)...)
	return wordlist.IndicesToWords(data)
}

// Mnemonic encodes the share as a single-spaced mnemonic string.
func (s Share) Mnemonic() (string, error) {
	words, err := s.Words()
	if err != nil {
		return "", err
	}
	return strings.Join(words, " "), nil
}

// DecodeMnemonic parses a share mnemonic, verifying its checksum and header
// fields. No secret material is recovered; the share value is carried
// through opaquely.
func DecodeMnemonic(mnemonic string) (Share, error) {
	var share Share

	data, err := wordlist.MnemonicToIndices(mnemonic)
	if err != nil {
		return share, fmt.Errorf("%w: %v", ErrInvalidMnemonic, err)
	}
	if len(data) < constants.MinMnemonicLengthWords {
		return share, fmt.Errorf("%w: the length of each mnemonic must be at least %d words",
			ErrInvalidMnemonic, constants.MinMnemonicLengthWords)
	}

	valueWords := len(data) - constants.MetadataLengthWords
	padBits := paddingBits(valueWords)
	if padBits > 8 {
		return share, fmt.Errorf("%w: invalid mnemonic length", ErrInvalidPadding)
	}

	idExp := data[0]<<constants.RadixBits | data[1]
	share.Identifier = idExp >> (constants.ExtendableFlagLengthBits + constants.IterationExpLengthBits)
	share.Extendable = idExp>>constants.IterationExpLengthBits&1 != 0
	share.IterationExponent = idExp & constants.MaxIterationExponent

	if !rs1024.Verify(data, share.Extendable) {
		return share, fmt.Errorf("%w for %q", ErrInvalidChecksum, mnemonicPrefix(mnemonic))
	}

	params := data[2]<<constants.RadixBits | data[3]
	share.GroupIndex = params >> 16 & 0xF
	share.GroupThreshold = params>>12&0xF + 1
	share.GroupCount = params>>8&0xF + 1
	share.MemberIndex = params >> 4 & 0xF
	share.MemberThreshold = params&0xF + 1

	if share.GroupCount < share.GroupThreshold {
		return share, fmt.Errorf("%w: group threshold cannot be greater than group count in %q",
			ErrInvalidMnemonic, mnemonicPrefix(mnemonic))
	}

	valueData := data[constants.IDExpLengthWords+2 : len(data)-constants.ChecksumLengthWords]
	value, err := unpackValue(valueData, padBits)
	if err != nil {
		return share, fmt.Errorf("%w for %q", err, mnemonicPrefix(mnemonic))
	}
	share.Value = value
	return share, nil
}

// unpackValue streams 10-bit words back into bytes, validating that the
// padBits leading bits are zero.
func unpackValue(valueData []int, padBits int) ([]byte, error) {
	if len(valueData) == 0 {
		return nil, ErrInvalidMnemonic
	}
	first := uint32(valueData[0])
	if padBits > 0 && first>>(constants.RadixBits-padBits) != 0 {
		return nil, ErrInvalidPadding
	}

	valueBytes := (len(valueData)*constants.RadixBits - padBits) / 8
	value := make([]byte, 0, valueBytes)
	acc := first & (1<<(constants.RadixBits-padBits) - 1)
	nbits := constants.RadixBits - padBits
	for _, w := range valueData[1:] {
		acc = acc<<constants.RadixBits | uint32(w)
		nbits += constants.RadixBits
		for nbits >= 8 {
			nbits -= 8
			value = append(value, byte(acc>>nbits))
			acc &= 1<<nbits - 1
		}
	}
	for nbits >= 8 {
		nbits -= 8
		value = append(value, byte(acc>>nbits))
		acc &= 1<<nbits - 1
	}
	if nbits != 0 || len(value) != valueBytes {
		return nil, ErrInvalidPadding
	}
	return value, nil
}

// mnemonicPrefix returns the first four words of a mnemonic for error
// messages, never any share value material.
func mnemonicPrefix(mnemonic string) string {
	fields := strings.Fields(mnemonic)
	if len(fields) > constants.IDExpLengthWords+2 {
		fields = fields[:constants.IDExpLengthWords+2]
	}
	return strings.Join(fields, " ") + " ..."
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
