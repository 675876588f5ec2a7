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

// Package shamir splits a master secret into groups of mnemonic shares and
// recombines them, following the two-level threshold scheme of SLIP-0039.
//
// A split first encrypts the master secret with a passphrase-keyed Feistel
// cipher, then shares the result across groups: the encrypted secret is
// split GT-of-G at the outer level, and each group share is split
// MTi-of-Ni among that group's members. Any GT groups, each assembling MTi
// of its members, recover the secret; fewer reveal nothing.
//
// Decrypting with a wrong passphrase is not an error: it yields a different,
// equally plausible master secret by design.
package shamir

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/cuedego/secreon/constants"
	"github.com/cuedego/secreon/shamir/internal/feistel"
	"github.com/cuedego/secreon/shamir/internal/sss"
)

// MemberGroup describes one group of a split: MemberThreshold of MemberCount
// member shares recover the group share.
type MemberGroup struct {
	MemberThreshold int
	MemberCount     int
}

// SplitParams collects the scheme parameters for GenerateMnemonics.
type SplitParams struct {
	// GroupThreshold is the number of groups required to combine.
	GroupThreshold int
	// Groups holds the member threshold and count of each group; the group
	// at index i receives group index i.
	Groups []MemberGroup
	// Passphrase encrypts the master secret. It must consist of printable
	// ASCII characters and may be empty.
	Passphrase []byte
	// IterationExponent scales the cipher's key-stretching work, 0..15.
	IterationExponent int
	// Extendable marks the split as extendable, allowing more shares to be
	// added later without colliding with the original scheme.
	Extendable bool
	// Random supplies entropy for the identifier and the polynomial points.
	// When nil the platform CSPRNG is used.
	Random Source
}

// EncryptedMasterSecret is a master secret after the Feistel cipher,
// together with the parameters bound into its key stream.
type EncryptedMasterSecret struct {
	Identifier        int
	Extendable        bool
	IterationExponent int
	Ciphertext        []byte
}

// EncryptMasterSecret encrypts a master secret under the given passphrase
// and split parameters.
func EncryptMasterSecret(masterSecret, passphrase []byte, identifier int, extendable bool, iterationExponent int) (EncryptedMasterSecret, error) {
	if err := validateMasterSecret(masterSecret); err != nil {
		return EncryptedMasterSecret{}, err
	}
	if err := validatePassphrase(passphrase); err != nil {
		return EncryptedMasterSecret{}, err
	}
	ciphertext, err := feistel.Encrypt(masterSecret, passphrase, iterationExponent, identifier, extendable)
	if err != nil {
		return EncryptedMasterSecret{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return EncryptedMasterSecret{
		Identifier:        identifier,
		Extendable:        extendable,
		IterationExponent: iterationExponent,
		Ciphertext:        ciphertext,
	}, nil
}

// Decrypt recovers the master secret. A wrong passphrase succeeds and
// returns a different secret.
func (e EncryptedMasterSecret) Decrypt(passphrase []byte) ([]byte, error) {
	ms, err := feistel.Decrypt(e.Ciphertext, passphrase, e.IterationExponent, e.Identifier, e.Extendable)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return ms, nil
}

// GenerateMnemonics splits a master secret into mnemonic shares, one list
// per group. The master secret must be at least 16 bytes and of even length.
func GenerateMnemonics(params SplitParams, masterSecret []byte) ([][]string, error) {
	src := params.Random
	if src == nil {
		src = cryptoSource{}
	}
	if err := validateMasterSecret(masterSecret); err != nil {
		return nil, err
	}
	if err := validatePassphrase(params.Passphrase); err != nil {
		return nil, err
	}
	if params.IterationExponent < 0 || params.IterationExponent > constants.MaxIterationExponent {
		return nil, fmt.Errorf("%w: iteration exponent must be between 0 and %d",
			ErrInvalidInput, constants.MaxIterationExponent)
	}

	identifier, err := randomIdentifier(src)
	if err != nil {
		return nil, err
	}
	ems, err := EncryptMasterSecret(masterSecret, params.Passphrase, identifier,
		params.Extendable, params.IterationExponent)
	if err != nil {
		return nil, err
	}

	groupedShares, err := SplitEMS(params.GroupThreshold, params.Groups, ems, src)
	if err != nil {
		return nil, err
	}

	mnemonics := make([][]string, len(groupedShares))
	for i, group := range groupedShares {
		mnemonics[i] = make([]string, len(group))
		for j, share := range group {
			m, err := share.Mnemonic()
			if err != nil {
				return nil, err
			}
			mnemonics[i][j] = m
		}
	}
	return mnemonics, nil
}

// SplitEMS splits an encrypted master secret into member shares, one list
// per group. The i-th group share's x-coordinate equals i and becomes the
// group index; member x-coordinates become member indices.
func SplitEMS(groupThreshold int, groups []MemberGroup, ems EncryptedMasterSecret, src Source) ([][]Share, error) {
	if src == nil {
		src = cryptoSource{}
	}
	if len(ems.Ciphertext)*8 < constants.MinStrengthBits {
		return nil, fmt.Errorf("%w: the master secret must be at least %d bits",
			ErrInvalidInput, constants.MinStrengthBits)
	}
	if groupThreshold < 1 || groupThreshold > len(groups) {
		return nil, fmt.Errorf("%w: group threshold must be between 1 and the number of groups",
			ErrInvalidInput)
	}
	if len(groups) > constants.MaxShareCount {
		return nil, fmt.Errorf("%w: the number of groups must not exceed %d",
			ErrInvalidInput, constants.MaxShareCount)
	}
	for _, g := range groups {
		if g.MemberThreshold < 1 || g.MemberThreshold > g.MemberCount || g.MemberCount > constants.MaxShareCount {
			return nil, fmt.Errorf("%w: invalid member threshold %d of %d",
				ErrInvalidInput, g.MemberThreshold, g.MemberCount)
		}
		if g.MemberThreshold == 1 && g.MemberCount > 1 {
			return nil, fmt.Errorf("%w: a group with member threshold 1 must contain exactly one share",
				ErrInvalidInput)
		}
	}

	groupShares, err := sss.Split(groupThreshold, len(groups), ems.Ciphertext, src)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	out := make([][]Share, len(groups))
	for i, g := range groups {
		memberShares, err := sss.Split(g.MemberThreshold, g.MemberCount, groupShares[i].Data, src)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		out[i] = make([]Share, len(memberShares))
		for j, member := range memberShares {
			out[i][j] = Share{
				Identifier:        ems.Identifier,
				Extendable:        ems.Extendable,
				IterationExponent: ems.IterationExponent,
				GroupIndex:        i,
				GroupThreshold:    groupThreshold,
				GroupCount:        len(groups),
				MemberIndex:       member.X,
				MemberThreshold:   g.MemberThreshold,
				Value:             member.Data,
			}
		}
	}
	return out, nil
}

// CombineMnemonics recovers the master secret from a set of share
// mnemonics. The input order is irrelevant; shares beyond a group's member
// threshold and complete groups beyond the group threshold are accepted and
// ignored, but every presented group must meet its member threshold.
func CombineMnemonics(mnemonics []string, passphrase []byte) ([]byte, error) {
	if len(mnemonics) == 0 {
		return nil, fmt.Errorf("%w: no mnemonics provided", ErrInvalidInput)
	}
	shares := make([]Share, len(mnemonics))
	for i, m := range mnemonics {
		share, err := DecodeMnemonic(m)
		if err != nil {
			return nil, err
		}
		shares[i] = share
	}
	ems, err := RecoverEMS(shares)
	if err != nil {
		return nil, err
	}
	return ems.Decrypt(passphrase)
}

// RecoverEMS validates the cross-share invariants, recombines each group
// and then the outer level, and returns the encrypted master secret.
func RecoverEMS(shares []Share) (EncryptedMasterSecret, error) {
	if len(shares) == 0 {
		return EncryptedMasterSecret{}, fmt.Errorf("%w: the set of shares is empty", ErrInvalidInput)
	}

	common := shares[0].common()
	groups := make(map[int][]Share)
	seen := mapset.NewSet[string]()
	memberIndices := make(map[int]mapset.Set[int])
	for _, share := range shares {
		if share.common() != common {
			return EncryptedMasterSecret{}, fmt.Errorf(
				"%w: all shares must carry the same identifier, iteration exponent, extendable flag and group parameters",
				ErrInconsistentShares)
		}
		gi := share.GroupIndex
		if existing, ok := groups[gi]; ok && existing[0].group() != share.group() {
			return EncryptedMasterSecret{}, fmt.Errorf(
				"%w: shares of group %d disagree on the member threshold", ErrInconsistentShares, gi)
		}
		if seen.Contains(fingerprint(share)) {
			continue
		}
		seen.Add(fingerprint(share))

		indices, ok := memberIndices[gi]
		if !ok {
			indices = mapset.NewSet[int]()
			memberIndices[gi] = indices
		}
		if indices.Contains(share.MemberIndex) {
			return EncryptedMasterSecret{}, fmt.Errorf(
				"%w: group %d contains two different shares with member index %d",
				ErrInconsistentShares, gi, share.MemberIndex)
		}
		indices.Add(share.MemberIndex)
		groups[gi] = append(groups[gi], share)
	}

	if len(groups) < common.groupThreshold {
		return EncryptedMasterSecret{}, fmt.Errorf(
			"%w: %d groups provided but the group threshold is %d",
			ErrInsufficientShares, len(groups), common.groupThreshold)
	}

	groupIndices := make([]int, 0, len(groups))
	for gi := range groups {
		groupIndices = append(groupIndices, gi)
	}
	sort.Ints(groupIndices)

	// Every presented group must satisfy its member threshold, including
	// groups beyond the group threshold.
	for _, gi := range groupIndices {
		members := groups[gi]
		threshold := members[0].MemberThreshold
		if threshold == 1 && len(members) > 1 {
			return EncryptedMasterSecret{}, fmt.Errorf(
				"%w: group %d has member threshold 1 but contains %d distinct shares",
				ErrInconsistentShares, gi, len(members))
		}
		if len(members) < threshold {
			return EncryptedMasterSecret{}, fmt.Errorf(
				"%w: group %d holds %d shares but needs %d",
				ErrInsufficientShares, gi, len(members), threshold)
		}
	}

	outer := make([]sss.Share, 0, common.groupThreshold)
	for _, gi := range groupIndices {
		members := groups[gi]
		threshold := members[0].MemberThreshold
		sort.Slice(members, func(i, j int) bool { return members[i].MemberIndex < members[j].MemberIndex })

		raw := make([]sss.Share, threshold)
		for i := 0; i < threshold; i++ {
			raw[i] = sss.Share{X: members[i].MemberIndex, Data: members[i].Value}
		}
		groupSecret, err := sss.Recover(threshold, raw)
		if err != nil {
			return EncryptedMasterSecret{}, mapRecoverError(err)
		}
		outer = append(outer, sss.Share{X: gi, Data: groupSecret})
		if len(outer) == common.groupThreshold {
			break
		}
	}

	ciphertext, err := sss.Recover(common.groupThreshold, outer)
	if err != nil {
		return EncryptedMasterSecret{}, mapRecoverError(err)
	}
	return EncryptedMasterSecret{
		Identifier:        common.identifier,
		Extendable:        common.extendable,
		IterationExponent: common.iterationExponent,
		Ciphertext:        ciphertext,
	}, nil
}

func mapRecoverError(err error) error {
	if errors.Is(err, sss.ErrDigest) {
		return fmt.Errorf("%w", ErrInvalidDigest)
	}
	return fmt.Errorf("%w: %v", ErrInconsistentShares, err)
}

func randomIdentifier(src Source) (int, error) {
	var buf [2]byte
	if err := src.Fill(buf[:]); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return int(binary.BigEndian.Uint16(buf[:])) & constants.MaxIdentifier, nil
}

func validateMasterSecret(masterSecret []byte) error {
	if len(masterSecret)*8 < constants.MinStrengthBits {
		return fmt.Errorf("%w: the master secret must be at least %d bits",
			ErrInvalidInput, constants.MinStrengthBits)
	}
	if len(masterSecret)%2 != 0 {
		return fmt.Errorf("%w: the master secret must be an even number of bytes", ErrInvalidInput)
	}
	return nil
}

func validatePassphrase(passphrase []byte) error {
	for _, c := range passphrase {
		if c < 32 || c > 126 {
			return fmt.Errorf("%w: the passphrase must contain only printable ASCII characters",
				ErrInvalidInput)
		}
	}
	return nil
}

// fingerprint keys a share for duplicate detection across the input set.
func fingerprint(s Share) string {
	return fmt.Sprintf("%d/%d/%x", s.GroupIndex, s.MemberIndex, s.Value)
}
