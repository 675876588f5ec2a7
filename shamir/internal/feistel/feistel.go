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

// Package feistel encrypts the master secret with a four-round Feistel
// network whose round function is PBKDF2-HMAC-SHA256 keyed by the
// passphrase.
//
// The round function binds each round to a distinct key schedule by
// prefixing the passphrase with the round index, and binds the whole cipher
// to one split by mixing the share identifier into the salt. There is no
// authentication: decrypting with a wrong passphrase yields a plausible but
// different master secret.
package feistel

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"

	"github.com/cuedego/secreon/constants"
)

// roundFunction derives len(data) bytes of key stream for one round.
// The PBKDF2 password is round || passphrase and the salt is salt || data.
func roundFunction(round int, passphrase []byte, iterationExponent int, salt, data []byte) []byte {
	password := make([]byte, 0, 1+len(passphrase))
	password = append(password, byte(round))
	password = append(password, passphrase...)

	saltInput := make([]byte, 0, len(salt)+len(data))
	saltInput = append(saltInput, salt...)
	saltInput = append(saltInput, data...)

	iterations := (constants.BaseIterationCount << iterationExponent) / constants.CipherRoundCount
	return pbkdf2.Key(password, saltInput, iterations, len(data), sha256.New)
}

// cipherSalt returns the common salt prefix: empty for extendable backups,
// "shamir" followed by the big-endian identifier otherwise.
func cipherSalt(identifier int, extendable bool) []byte {
	if extendable {
		return nil
	}
	salt := make([]byte, 0, len(constants.CustomizationNonExtendable)+2)
	salt = append(salt, constants.CustomizationNonExtendable...)
	salt = binary.BigEndian.AppendUint16(salt, uint16(identifier))
	return salt
}

func validate(secret []byte, iterationExponent, identifier int) error {
	if len(secret)%2 != 0 {
		return errors.New("length of the master secret must be an even number of bytes")
	}
	if iterationExponent < 0 || iterationExponent > constants.MaxIterationExponent {
		return fmt.Errorf("iteration exponent must be between 0 and %d", constants.MaxIterationExponent)
	}
	if identifier < 0 || identifier > constants.MaxIdentifier {
		return fmt.Errorf("identifier must be between 0 and %d", constants.MaxIdentifier)
	}
	return nil
}

func rounds(secret, passphrase []byte, iterationExponent, identifier int, extendable, reverse bool) ([]byte, error) {
	if err := validate(secret, iterationExponent, identifier); err != nil {
		return nil, err
	}
	half := len(secret) / 2
	left := append([]byte(nil), secret[:half]...)
	right := append([]byte(nil), secret[half:]...)
	salt := cipherSalt(identifier, extendable)

	for i := 0; i < constants.CipherRoundCount; i++ {
		round := i
		if reverse {
			round = constants.CipherRoundCount - 1 - i
		}
		f := roundFunction(round, passphrase, iterationExponent, salt, right)
		for j := range left {
			left[j] ^= f[j]
		}
		left, right = right, left
		zero(f)
	}

	// The final swap is undone: output is R || L.
	out := append(right, left...)
	zero(left)
	return out, nil
}

// Encrypt applies the four Feistel rounds in order and returns the encrypted
// master secret, which has the same length as the input.
func Encrypt(masterSecret, passphrase []byte, iterationExponent, identifier int, extendable bool) ([]byte, error) {
	return rounds(masterSecret, passphrase, iterationExponent, identifier, extendable, false)
}

// Decrypt inverts Encrypt by applying the rounds in reverse order.
func Decrypt(encryptedMasterSecret, passphrase []byte, iterationExponent, identifier int, extendable bool) ([]byte, error) {
	return rounds(encryptedMasterSecret, passphrase, iterationExponent, identifier, extendable, true)
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
