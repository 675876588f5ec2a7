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

// Package wordlist provides the bijection between mnemonic words and their
// 10-bit indices. The list holds exactly 1024 sorted words, unique within
// their first four letters, so a word may be abbreviated to any unambiguous
// prefix of at least four letters.
package wordlist

import (
	"fmt"
	"strings"

	"github.com/cuedego/secreon/constants"
)

const prefixLength = 4

var (
	wordToIndex   map[string]int
	prefixToIndex map[string]int
)

func init() {
	if len(words) != constants.Radix {
		panic(fmt.Sprintf("wordlist holds %d words, want %d", len(words), constants.Radix))
	}
	wordToIndex = make(map[string]int, len(words))
	prefixToIndex = make(map[string]int, len(words))
	prev := ""
	for i, w := range words {
		if w <= prev {
			panic(fmt.Sprintf("wordlist not sorted at %q", w))
		}
		prev = w
		if _, ok := wordToIndex[w]; ok {
			panic(fmt.Sprintf("duplicate word %q", w))
		}
		wordToIndex[w] = i
		prefix := w
		if len(prefix) > prefixLength {
			prefix = prefix[:prefixLength]
		}
		if _, ok := prefixToIndex[prefix]; ok {
			panic(fmt.Sprintf("ambiguous word prefix %q", prefix))
		}
		prefixToIndex[prefix] = i
	}
}

// WordToIndex returns the index of a word. Lookup is case-insensitive,
// tolerates surrounding whitespace, and accepts abbreviations of at least
// four letters.
func WordToIndex(word string) (int, error) {
	w := strings.ToLower(strings.TrimSpace(word))
	if i, ok := wordToIndex[w]; ok {
		return i, nil
	}
	if len(w) >= prefixLength {
		if i, ok := prefixToIndex[w[:prefixLength]]; ok && strings.HasPrefix(words[i], w) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("word %q is not in the wordlist", word)
}

// IndexToWord returns the word at the given index.
func IndexToWord(index int) (string, error) {
	if index < 0 || index >= len(words) {
		return "", fmt.Errorf("word index %d out of range", index)
	}
	return words[index], nil
}

// MnemonicToIndices splits a space-separated mnemonic and maps each word to
// its index.
func MnemonicToIndices(mnemonic string) ([]int, error) {
	fields := strings.Fields(strings.ToLower(mnemonic))
	indices := make([]int, len(fields))
	for i, w := range fields {
		index, err := WordToIndex(w)
		if err != nil {
			return nil, err
		}
		indices[i] = index
	}
	return indices, nil
}

// IndicesToWords maps each index to its word.
func IndicesToWords(indices []int) ([]string, error) {
	out := make([]string, len(indices))
	for i, index := range indices {
		w, err := IndexToWord(index)
		if err != nil {
			return nil, err
		}
		out[i] = w
	}
	return out, nil
}

// IndicesToMnemonic renders indices as a single-spaced mnemonic string.
func IndicesToMnemonic(indices []int) (string, error) {
	out, err := IndicesToWords(indices)
	if err != nil {
		return "", err
	}
	return strings.Join(out, " "), nil
}
