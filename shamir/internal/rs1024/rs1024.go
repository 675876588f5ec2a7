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

// Package rs1024 implements the Reed-Solomon checksum over GF(1024) used to
// protect share mnemonics. A share's word indices together with the three
// trailing checksum words form a codeword of a BCH code with generator
// (x - a)(x - a^2)(x - a^3), a being a root of x^10 + x^3 + 1. The code
// detects any error touching at most three words, and further errors with
// probability below 2^-30.
package rs1024

import (
	"github.com/cuedego/secreon/constants"
)

// gen holds the precomputed residues of the generator polynomial, one per
// feedback bit of the residue register.
var gen = [10]uint32{
	0x00E0E040,
	0x01C1C080,
	0x03838100,
	0x07070200,
	0x0E0E0009,
	0x1C0C2412,
	0x38086C24,
	0x3090FC48,
	0x21B1F890,
	0x03F3F120,
}

func polymod(values []int) uint32 {
	chk := uint32(1)
	for _, v := range values {
		b := chk >> 20
		chk = (chk&0xFFFFF)<<10 ^ uint32(v)
		for i := 0; i < 10; i++ {
			if b>>i&1 != 0 {
				chk ^= gen[i]
			}
		}
	}
	return chk
}

func customization(extendable bool) []int {
	s := constants.CustomizationNonExtendable
	if extendable {
		s = constants.CustomizationExtendable
	}
	out := make([]int, len(s))
	for i := 0; i < len(s); i++ {
		out[i] = int(s[i])
	}
	return out
}

// Create returns the three checksum words for data, a sequence of 10-bit
// word indices. The customization string is selected by the extendable flag
// of the share being encoded.
func Create(data []int, extendable bool) []int {
	values := append(customization(extendable), data...)
	values = append(values, 0, 0, 0)
	pm := polymod(values) ^ 1
	return []int{
		int(pm >> 20 & 1023),
		int(pm >> 10 & 1023),
		int(pm & 1023),
	}
}

// Verify reports whether data, which includes the three trailing checksum
// words, is a valid codeword under the customization selected by extendable.
func Verify(data []int, extendable bool) bool {
	if len(data) < constants.ChecksumLengthWords {
		return false
	}
	return polymod(append(customization(extendable), data...)) == 1
}
