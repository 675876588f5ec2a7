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
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// hashSource is a deterministic Source producing a SHA-256 counter stream.
// Each Fill starts a fresh output buffer while the block counter persists,
// so a given seed always yields the same sequence of draws.
type hashSource struct {
	seed []byte
	ctr  uint32
}

func newHashSource(seed string) *hashSource {
	return &hashSource{seed: []byte(seed)}
}

func (s *hashSource) Fill(b []byte) error {
	var out []byte
	for len(out) < len(b) {
		var ctr [4]byte
		binary.BigEndian.PutUint32(ctr[:], s.ctr)
		s.ctr++
		block := sha256.Sum256(append(append([]byte(nil), s.seed...), ctr[:]...))
		out = append(out, block[:]...)
	}
	copy(b, out)
	return nil
}

func TestTrivialOneOfOne(t *testing.T) {
	masterSecret := bytes.Repeat([]byte{0xAA}, 16)
	params := SplitParams{
		GroupThreshold: 1,
		Groups:         []MemberGroup{{MemberThreshold: 1, MemberCount: 1}},
		Random:         newHashSource("one-of-one"),
	}
	mnemonics, err := GenerateMnemonics(params, masterSecret)
	if err != nil {
		t.Fatal(err)
	}
	if len(mnemonics) != 1 || len(mnemonics[0]) != 1 {
		t.Fatalf("GenerateMnemonics() shape = %d groups, want 1x1", len(mnemonics))
	}
	got, err := CombineMnemonics(mnemonics[0], nil)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, masterSecret) {
		t.Errorf("CombineMnemonics() = %x, want %x", got, masterSecret)
	}
}

func TestBasicTwoOfThree(t *testing.T) {
	masterSecret := mustHexDecode("000102030405060708090a0b0c0d0e0f")
	params := SplitParams{
		GroupThreshold: 1,
		Groups:         []MemberGroup{{MemberThreshold: 2, MemberCount: 3}},
		Passphrase:     []byte("TREZOR"),
		Random:         newHashSource("two-of-three"),
	}
	mnemonics, err := GenerateMnemonics(params, masterSecret)
	if err != nil {
		t.Fatal(err)
	}
	shares := mnemonics[0]
	if len(shares) != 3 {
		t.Fatalf("GenerateMnemonics() produced %d shares, want 3", len(shares))
	}

	for _, pair := range [][2]int{{0, 1}, {0, 2}, {1, 2}, {2, 0}} {
		got, err := CombineMnemonics([]string{shares[pair[0]], shares[pair[1]]}, []byte("TREZOR"))
		if err != nil {
			t.Fatalf("CombineMnemonics(%v) err = %v", pair, err)
		}
		if !bytes.Equal(got, masterSecret) {
			t.Errorf("CombineMnemonics(%v) = %x, want %x", pair, got, masterSecret)
		}
	}

	// All three shares are also accepted.
	got, err := CombineMnemonics(shares, []byte("TREZOR"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, masterSecret) {
		t.Errorf("CombineMnemonics(all) = %x, want %x", got, masterSecret)
	}

	// A single share is insufficient.
	for i := range shares {
		_, err := CombineMnemonics([]string{shares[i]}, []byte("TREZOR"))
		if !errors.Is(err, ErrInsufficientShares) {
			t.Errorf("CombineMnemonics(share %d) err = %v, want ErrInsufficientShares", i, err)
		}
	}
}

func TestTwoGroupsMixedThresholds(t *testing.T) {
	masterSecret := make([]byte, 32)
	newHashSource("master").Fill(masterSecret)
	params := SplitParams{
		GroupThreshold: 1,
		Groups: []MemberGroup{
			{MemberThreshold: 2, MemberCount: 3},
			{MemberThreshold: 3, MemberCount: 5},
		},
		IterationExponent: 1,
		Random:            newHashSource("two-groups"),
	}
	mnemonics, err := GenerateMnemonics(params, masterSecret)
	if err != nil {
		t.Fatal(err)
	}
	group0, group1 := mnemonics[0], mnemonics[1]

	got, err := CombineMnemonics([]string{group0[0], group0[2]}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, masterSecret) {
		t.Errorf("group 0 combine = %x, want %x", got, masterSecret)
	}

	got, err = CombineMnemonics([]string{group1[4], group1[1], group1[3]}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, masterSecret) {
		t.Errorf("group 1 combine = %x, want %x", got, masterSecret)
	}

	// One share of group 0 plus two of group 1 satisfies neither group.
	_, err = CombineMnemonics([]string{group0[0], group1[0], group1[1]}, nil)
	if !errors.Is(err, ErrInsufficientShares) {
		t.Errorf("mixed combine err = %v, want ErrInsufficientShares", err)
	}
}

func TestOuterThreshold(t *testing.T) {
	masterSecret := mustHexDecode("ffeeddccbbaa99887766554433221100")
	params := SplitParams{
		GroupThreshold: 2,
		Groups: []MemberGroup{
			{MemberThreshold: 1, MemberCount: 1},
			{MemberThreshold: 2, MemberCount: 3},
			{MemberThreshold: 2, MemberCount: 2},
		},
		Passphrase: []byte("pass"),
		Random:     newHashSource("outer"),
	}
	mnemonics, err := GenerateMnemonics(params, masterSecret)
	if err != nil {
		t.Fatal(err)
	}

	got, err := CombineMnemonics([]string{mnemonics[0][0], mnemonics[1][0], mnemonics[1][2]}, []byte("pass"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, masterSecret) {
		t.Errorf("combine = %x, want %x", got, masterSecret)
	}

	// Three complete groups also work.
	all := append([]string{mnemonics[0][0], mnemonics[2][0], mnemonics[2][1]}, mnemonics[1]...)
	got, err = CombineMnemonics(all, []byte("pass"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, masterSecret) {
		t.Errorf("combine of three groups = %x, want %x", got, masterSecret)
	}

	// A single complete group is below the group threshold.
	_, err = CombineMnemonics(mnemonics[1], []byte("pass"))
	if !errors.Is(err, ErrInsufficientShares) {
		t.Errorf("single group err = %v, want ErrInsufficientShares", err)
	}
}

func TestDigestGuard(t *testing.T) {
	masterSecret := mustHexDecode("000102030405060708090a0b0c0d0e0f")
	params := SplitParams{
		GroupThreshold: 1,
		Groups:         []MemberGroup{{MemberThreshold: 2, MemberCount: 3}},
		Passphrase:     []byte("TREZOR"),
		Random:         newHashSource("digest-guard"),
	}
	mnemonics, err := GenerateMnemonics(params, masterSecret)
	if err != nil {
		t.Fatal(err)
	}

	tampered, err := DecodeMnemonic(mnemonics[0][1])
	if err != nil {
		t.Fatal(err)
	}
	tampered.Value[7] ^= 0x01
	tamperedMnemonic, err := tampered.Mnemonic()
	if err != nil {
		t.Fatal(err)
	}

	_, err = CombineMnemonics([]string{mnemonics[0][0], tamperedMnemonic}, []byte("TREZOR"))
	if !errors.Is(err, ErrInvalidDigest) {
		t.Errorf("CombineMnemonics() err = %v, want ErrInvalidDigest", err)
	}
}

func TestChecksumGuard(t *testing.T) {
	masterSecret := mustHexDecode("000102030405060708090a0b0c0d0e0f")
	params := SplitParams{
		GroupThreshold: 1,
		Groups:         []MemberGroup{{MemberThreshold: 2, MemberCount: 3}},
		Random:         newHashSource("checksum-guard"),
	}
	mnemonics, err := GenerateMnemonics(params, masterSecret)
	if err != nil {
		t.Fatal(err)
	}

	words := strings.Fields(mnemonics[0][1])
	last := words[len(words)-1]
	replacement := "zero"
	if last == "zero" {
		replacement = "academic"
	}
	words[len(words)-1] = replacement

	_, err = CombineMnemonics([]string{mnemonics[0][0], strings.Join(words, " ")}, nil)
	if !errors.Is(err, ErrInvalidChecksum) {
		t.Errorf("CombineMnemonics() err = %v, want ErrInvalidChecksum", err)
	}
}

func TestWrongPassphrase(t *testing.T) {
	masterSecret := mustHexDecode("000102030405060708090a0b0c0d0e0f")
	params := SplitParams{
		GroupThreshold: 1,
		Groups:         []MemberGroup{{MemberThreshold: 2, MemberCount: 3}},
		Passphrase:     []byte("TREZOR"),
		Random:         newHashSource("wrong-passphrase"),
	}
	mnemonics, err := GenerateMnemonics(params, masterSecret)
	if err != nil {
		t.Fatal(err)
	}

	got, err := CombineMnemonics(mnemonics[0][:2], []byte("WRONG"))
	if err != nil {
		t.Fatalf("CombineMnemonics() with wrong passphrase err = %v, want nil", err)
	}
	if bytes.Equal(got, masterSecret) {
		t.Error("CombineMnemonics() with wrong passphrase returned the original secret")
	}
}

func TestDeterminismGivenSource(t *testing.T) {
	masterSecret := mustHexDecode("00112233445566778899aabbccddeeff")
	newParams := func() SplitParams {
		return SplitParams{
			GroupThreshold: 1,
			Groups:         []MemberGroup{{MemberThreshold: 3, MemberCount: 5}},
			Passphrase:     []byte("determinism"),
			Extendable:     true,
			Random:         newHashSource("fixed"),
		}
	}
	first, err := GenerateMnemonics(newParams(), masterSecret)
	if err != nil {
		t.Fatal(err)
	}
	second, err := GenerateMnemonics(newParams(), masterSecret)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("two generations with the same source differ (-first +second):\n%s", diff)
	}
}

func TestInconsistentShares(t *testing.T) {
	masterSecret := mustHexDecode("000102030405060708090a0b0c0d0e0f")
	generate := func(seed string) [][]string {
		t.Helper()
		mnemonics, err := GenerateMnemonics(SplitParams{
			GroupThreshold: 1,
			Groups:         []MemberGroup{{MemberThreshold: 2, MemberCount: 3}},
			Random:         newHashSource(seed),
		}, masterSecret)
		if err != nil {
			t.Fatal(err)
		}
		return mnemonics
	}
	splitA := generate("split-a")
	splitB := generate("split-b")

	// Shares from different splits carry different identifiers.
	_, err := CombineMnemonics([]string{splitA[0][0], splitB[0][1]}, nil)
	if !errors.Is(err, ErrInconsistentShares) {
		t.Errorf("mixed splits err = %v, want ErrInconsistentShares", err)
	}

	// Two different shares claiming the same member index.
	forged, err := DecodeMnemonic(splitA[0][1])
	if err != nil {
		t.Fatal(err)
	}
	forged.MemberIndex = 0
	forgedMnemonic, err := forged.Mnemonic()
	if err != nil {
		t.Fatal(err)
	}
	_, err = CombineMnemonics([]string{splitA[0][0], forgedMnemonic}, nil)
	if !errors.Is(err, ErrInconsistentShares) {
		t.Errorf("duplicate member index err = %v, want ErrInconsistentShares", err)
	}

	// Exact duplicates are tolerated and deduplicated.
	_, err = CombineMnemonics([]string{splitA[0][0], splitA[0][0], splitA[0][1]}, nil)
	if err != nil {
		t.Errorf("duplicated share err = %v, want nil", err)
	}
}

func TestGenerateValidation(t *testing.T) {
	valid := mustHexDecode("000102030405060708090a0b0c0d0e0f")
	oneGroup := []MemberGroup{{MemberThreshold: 1, MemberCount: 1}}
	for _, tc := range []struct {
		name         string
		params       SplitParams
		masterSecret []byte
	}{
		{
			name:         "short master secret",
			params:       SplitParams{GroupThreshold: 1, Groups: oneGroup},
			masterSecret: make([]byte, 14),
		},
		{
			name:         "odd master secret",
			params:       SplitParams{GroupThreshold: 1, Groups: oneGroup},
			masterSecret: make([]byte, 17),
		},
		{
			name:         "non-printable passphrase",
			params:       SplitParams{GroupThreshold: 1, Groups: oneGroup, Passphrase: []byte{0x07}},
			masterSecret: valid,
		},
		{
			name:         "iteration exponent out of range",
			params:       SplitParams{GroupThreshold: 1, Groups: oneGroup, IterationExponent: 16},
			masterSecret: valid,
		},
		{
			name:         "group threshold above group count",
			params:       SplitParams{GroupThreshold: 2, Groups: oneGroup},
			masterSecret: valid,
		},
		{
			name:         "zero group threshold",
			params:       SplitParams{GroupThreshold: 0, Groups: oneGroup},
			masterSecret: valid,
		},
		{
			name: "member threshold one with multiple members",
			params: SplitParams{
				GroupThreshold: 1,
				Groups:         []MemberGroup{{MemberThreshold: 1, MemberCount: 2}},
			},
			masterSecret: valid,
		},
		{
			name: "member threshold above count",
			params: SplitParams{
				GroupThreshold: 1,
				Groups:         []MemberGroup{{MemberThreshold: 4, MemberCount: 3}},
			},
			masterSecret: valid,
		},
		{
			name: "too many groups",
			params: SplitParams{
				GroupThreshold: 1,
				Groups:         make([]MemberGroup, 17),
			},
			masterSecret: valid,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			tc.params.Random = newHashSource("validation")
			if _, err := GenerateMnemonics(tc.params, tc.masterSecret); !errors.Is(err, ErrInvalidInput) {
				t.Errorf("GenerateMnemonics() err = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestCombineEmptyInput(t *testing.T) {
	if _, err := CombineMnemonics(nil, nil); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("CombineMnemonics(nil) err = %v, want ErrInvalidInput", err)
	}
}

func TestSplitRecoverEMSRoundTrip(t *testing.T) {
	masterSecret := mustHexDecode("00112233445566778899aabbccddeeff")
	ems, err := EncryptMasterSecret(masterSecret, []byte("pw"), 123, false, 1)
	if err != nil {
		t.Fatal(err)
	}
	groups, err := SplitEMS(2, []MemberGroup{
		{MemberThreshold: 2, MemberCount: 2},
		{MemberThreshold: 1, MemberCount: 1},
	}, ems, newHashSource("ems"))
	if err != nil {
		t.Fatal(err)
	}

	var shares []Share
	shares = append(shares, groups[0]...)
	shares = append(shares, groups[1]...)
	recovered, err := RecoverEMS(shares)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(ems, recovered); diff != "" {
		t.Errorf("RecoverEMS() returned diff (-want +got):\n%s", diff)
	}

	ms, err := recovered.Decrypt([]byte("pw"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(ms, masterSecret) {
		t.Errorf("Decrypt() = %x, want %x", ms, masterSecret)
	}
}

func TestThresholdSecrecyFuzz(t *testing.T) {
	// Structural secrecy: below-threshold subsets must never yield an
	// error-free master secret.
	masterSecret := make([]byte, 16)
	for trial := 0; trial < 10; trial++ {
		src := newHashSource("fuzz")
		src.ctr = uint32(trial * 1000)
		src.Fill(masterSecret)
		mnemonics, err := GenerateMnemonics(SplitParams{
			GroupThreshold: 1,
			Groups:         []MemberGroup{{MemberThreshold: 3, MemberCount: 5}},
			Random:         src,
		}, masterSecret)
		if err != nil {
			t.Fatal(err)
		}
		shares := mnemonics[0]
		for _, subset := range [][]string{
			{shares[0]},
			{shares[1], shares[4]},
			{shares[2], shares[3]},
		} {
			if _, err := CombineMnemonics(subset, nil); !errors.Is(err, ErrInsufficientShares) {
				t.Fatalf("trial %d: CombineMnemonics(%d shares) err = %v, want ErrInsufficientShares",
					trial, len(subset), err)
			}
		}
	}
}
