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

// Package sss implements byte-parallel t-of-n Shamir secret sharing over
// GF(2^8) with an embedded integrity digest.
//
// Two abscissae are reserved: x = 255 carries the secret itself and x = 254
// carries a four-byte HMAC-SHA256 tag over the secret, keyed by the random
// remainder of that point. Regular shares occupy x = 0..n-1. For a threshold
// of one the secret is replicated without randomness or digest.
package sss

import (
	"crypto/hmac"
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/cuedego/secreon/constants"
	"github.com/cuedego/secreon/shamir/internal/gf256"
)

// ErrDigest is returned by Recover when the reconstructed digest does not
// match the reconstructed secret.
var ErrDigest = errors.New("digest of the shared secret is invalid")

// Share is one point of the byte-parallel polynomial: an x-coordinate and
// one y-byte per secret byte.
type Share struct {
	X    int
	Data []byte
}

// Source yields uniform random bytes.
type Source interface {
	Fill(b []byte) error
}

func createDigest(randomPart, secret []byte) []byte {
	mac := hmac.New(sha256.New, randomPart)
	mac.Write(secret)
	return mac.Sum(nil)[:constants.DigestLengthBytes]
}

// Split splits secret into shareCount shares such that any threshold of them
// recover it. Shares are produced at x = 0..shareCount-1.
func Split(threshold, shareCount int, secret []byte, src Source) ([]Share, error) {
	if threshold < 1 {
		return nil, errors.New("threshold must be a positive integer")
	}
	if threshold > shareCount {
		return nil, errors.New("threshold must not exceed the number of shares")
	}
	if shareCount > constants.MaxShareCount {
		return nil, fmt.Errorf("number of shares must not exceed %d", constants.MaxShareCount)
	}
	if len(secret) < constants.DigestLengthBytes {
		return nil, fmt.Errorf("secret must be at least %d bytes", constants.DigestLengthBytes)
	}

	if threshold == 1 {
		shares := make([]Share, shareCount)
		for i := range shares {
			shares[i] = Share{X: i, Data: append([]byte(nil), secret...)}
		}
		return shares, nil
	}

	// Fix the two hidden points and threshold-2 random points, then derive
	// the remaining shares by interpolation.
	shares := make([]Share, 0, shareCount)
	for i := 0; i < threshold-2; i++ {
		data := make([]byte, len(secret))
		if err := src.Fill(data); err != nil {
			return nil, err
		}
		shares = append(shares, Share{X: i, Data: data})
	}

	randomPart := make([]byte, len(secret)-constants.DigestLengthBytes)
	if err := src.Fill(randomPart); err != nil {
		return nil, err
	}
	digest := createDigest(randomPart, secret)

	base := make([]Share, 0, threshold)
	base = append(base, shares...)
	base = append(base,
		Share{X: constants.DigestIndex, Data: append(digest, randomPart...)},
		Share{X: constants.SecretIndex, Data: append([]byte(nil), secret...)},
	)

	for i := threshold - 2; i < shareCount; i++ {
		data, err := interpolate(base, byte(i))
		if err != nil {
			return nil, err
		}
		shares = append(shares, Share{X: i, Data: data})
	}
	return shares, nil
}

// Recover reconstructs the secret from the given shares and validates its
// digest. The caller is responsible for presenting at least threshold shares
// with distinct x-coordinates.
func Recover(threshold int, shares []Share) ([]byte, error) {
	if len(shares) == 0 {
		return nil, errors.New("no shares provided")
	}
	if threshold == 1 {
		return append([]byte(nil), shares[0].Data...), nil
	}

	secret, err := interpolate(shares, constants.SecretIndex)
	if err != nil {
		return nil, err
	}
	digestShare, err := interpolate(shares, constants.DigestIndex)
	if err != nil {
		return nil, err
	}
	defer zero(digestShare)

	digest := digestShare[:constants.DigestLengthBytes]
	randomPart := digestShare[constants.DigestLengthBytes:]
	if !hmac.Equal(digest, createDigest(randomPart, secret)) {
		zero(secret)
		return nil, ErrDigest
	}
	return secret, nil
}

// interpolate evaluates the share polynomial at x for every byte position.
// The Lagrange basis depends only on the x-coordinates, so it is computed
// once per share and applied across the whole byte vector.
func interpolate(shares []Share, x byte) ([]byte, error) {
	length := -1
	seen := make(map[int]bool, len(shares))
	for _, s := range shares {
		if seen[s.X] {
			return nil, fmt.Errorf("duplicate share index %d", s.X)
		}
		seen[s.X] = true
		if length == -1 {
			length = len(s.Data)
		} else if len(s.Data) != length {
			return nil, errors.New("share values must all have the same length")
		}
	}

	if seen[int(x)] {
		for _, s := range shares {
			if s.X == int(x) {
				return append([]byte(nil), s.Data...), nil
			}
		}
	}

	result := make([]byte, length)
	for _, s := range shares {
		basis := byte(1)
		for _, other := range shares {
			if other.X == s.X {
				continue
			}
			numerator := gf256.Add(x, byte(other.X))
			denominator := gf256.Add(byte(s.X), byte(other.X))
			quotient, err := gf256.Div(numerator, denominator)
			if err != nil {
				return nil, err
			}
			basis = gf256.Mul(basis, quotient)
		}
		for i, b := range s.Data {
			result[i] = gf256.Add(result[i], gf256.Mul(b, basis))
		}
	}
	return result, nil
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
