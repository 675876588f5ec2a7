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

import "errors"

// Error kinds returned by the package. Every public entry point fails with
// exactly one of these, wrapped with context; match them with errors.Is.
var (
	// ErrInvalidInput indicates an argument outside its documented range:
	// bad threshold arithmetic, a non-printable passphrase, a master secret
	// that is too short or of odd length, or an out-of-range iteration
	// exponent.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidMnemonic indicates an unknown word, a wrong word count, or a
	// malformed header field.
	ErrInvalidMnemonic = errors.New("invalid mnemonic")

	// ErrInvalidChecksum indicates that RS1024 verification failed.
	ErrInvalidChecksum = errors.New("invalid mnemonic checksum")

	// ErrInvalidPadding indicates nonzero or over-long padding bits in the
	// share value.
	ErrInvalidPadding = errors.New("invalid mnemonic padding")

	// ErrInconsistentShares indicates shares that mix identifiers, iteration
	// exponents, extendable flags, group parameters, or member thresholds
	// within a group.
	ErrInconsistentShares = errors.New("inconsistent set of shares")

	// ErrInsufficientShares indicates fewer members than the member
	// threshold in some group, or fewer groups than the group threshold.
	ErrInsufficientShares = errors.New("insufficient number of shares")

	// ErrInvalidDigest indicates that the integrity digest recovered at the
	// reserved abscissa does not match the reconstructed secret.
	ErrInvalidDigest = errors.New("invalid digest of the shared secret")
)
