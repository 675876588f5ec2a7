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

// Package constants contains protocol constants shared between the shamir
// library packages and the command line tools.
package constants

// RadixBits is the number of bits carried by one mnemonic word.
const RadixBits = 10

// Radix is the size of the wordlist (2^RadixBits).
const Radix = 1 << RadixBits

// IDLengthBits is the length of the random share identifier in bits.
const IDLengthBits = 15

// MaxIdentifier is the largest representable share identifier.
const MaxIdentifier = 1<<IDLengthBits - 1

// ExtendableFlagLengthBits is the length of the extendable backup flag in bits.
const ExtendableFlagLengthBits = 1

// IterationExpLengthBits is the length of the iteration exponent in bits.
const IterationExpLengthBits = 4

// MaxIterationExponent is the largest encodable iteration exponent.
const MaxIterationExponent = 1<<IterationExpLengthBits - 1

// MaxShareCount is the maximum number of shares at either level of the scheme.
const MaxShareCount = 16

// MinStrengthBits is the minimum allowed entropy of the master secret.
const MinStrengthBits = 128

// DigestLengthBytes is the length of the digest of the shared secret in bytes.
const DigestLengthBytes = 4

// SecretIndex is the reserved x-coordinate carrying the shared secret.
const SecretIndex = 255

// DigestIndex is the reserved x-coordinate carrying the share digest.
const DigestIndex = 254

// BaseIterationCount is the total PBKDF2 iteration budget at iteration
// exponent zero, spread across the cipher rounds.
const BaseIterationCount = 10000

// CipherRoundCount is the number of rounds in the Feistel cipher.
const CipherRoundCount = 4

// CustomizationNonExtendable seeds the RS1024 checksum and the cipher salt
// for non-extendable shares.
const CustomizationNonExtendable = "shamir"

// CustomizationExtendable seeds the RS1024 checksum for extendable shares.
// Extendable shares use an empty cipher salt so that later extensions of a
// scheme derive the same key stream.
const CustomizationExtendable = "shamir_extendable"

// ChecksumLengthWords is the length of the RS1024 checksum in words.
const ChecksumLengthWords = 3

// IDExpLengthWords is the length of the identifier, extendable flag and
// iteration exponent prefix in words.
const IDExpLengthWords = 2

// MetadataLengthWords is the length of a mnemonic without its share value:
// two identifier words, two share-parameter words and the checksum.
const MetadataLengthWords = IDExpLengthWords + 2 + ChecksumLengthWords

// MinMnemonicLengthWords is the minimum length of a share mnemonic in words,
// reached by a 128-bit share value.
const MinMnemonicLengthWords = MetadataLengthWords + (MinStrengthBits+RadixBits-1)/RadixBits
