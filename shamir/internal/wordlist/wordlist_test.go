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

package wordlist

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestListInvariants(t *testing.T) {
	if len(words) != 1024 {
		t.Fatalf("len(words) = %d, want 1024", len(words))
	}
	seen := make(map[string]bool)
	prefixes := make(map[string]bool)
	for i, w := range words {
		if seen[w] {
			t.Errorf("duplicate word %q at %d", w, i)
		}
		seen[w] = true
		p := w
		if len(p) > prefixLength {
			p = p[:prefixLength]
		}
		if prefixes[p] {
			t.Errorf("duplicate prefix %q at %d", p, i)
		}
		prefixes[p] = true
		if i > 0 && words[i-1] >= w {
			t.Errorf("words not sorted: %q before %q", words[i-1], w)
		}
	}
}

func TestWordToIndex(t *testing.T) {
	for _, tc := range []struct {
		name    string
		word    string
		want    int
		wantErr bool
	}{
		{name: "first", word: "academic", want: 0},
		{name: "last", word: "zero", want: 1023},
		{name: "uppercase", word: "ACADEMIC", want: 0},
		{name: "whitespace", word: "  acid\n", want: 1},
		{name: "four letter prefix", word: "acad", want: 0},
		{name: "longer prefix", word: "academ", want: 0},
		{name: "unknown", word: "zzzz", wantErr: true},
		{name: "too short prefix", word: "aca", wantErr: true},
		{name: "empty", word: "", wantErr: true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := WordToIndex(tc.word)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("WordToIndex(%q) err = nil, want non-nil error", tc.word)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tc.want {
				t.Errorf("WordToIndex(%q) = %d, want %d", tc.word, got, tc.want)
			}
		})
	}
}

func TestIndexToWord(t *testing.T) {
	w, err := IndexToWord(0)
	if err != nil {
		t.Fatal(err)
	}
	if w != "academic" {
		t.Errorf("IndexToWord(0) = %q, want %q", w, "academic")
	}
	if _, err := IndexToWord(1024); err == nil {
		t.Error("IndexToWord(1024) err = nil, want non-nil error")
	}
	if _, err := IndexToWord(-1); err == nil {
		t.Error("IndexToWord(-1) err = nil, want non-nil error")
	}
}

func TestMnemonicRoundTrip(t *testing.T) {
	indices := []int{0, 1, 2, 512, 1023}
	mnemonic, err := IndicesToMnemonic(indices)
	if err != nil {
		t.Fatal(err)
	}
	got, err := MnemonicToIndices(mnemonic)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(indices, got); diff != "" {
		t.Errorf("MnemonicToIndices(IndicesToMnemonic()) returned diff (-want +got):\n%s", diff)
	}
}

func TestMnemonicToIndicesUnknownWord(t *testing.T) {
	if _, err := MnemonicToIndices("academic notaword acid"); err == nil {
		t.Error("MnemonicToIndices() err = nil, want non-nil error")
	}
}
