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

// Binary to run a set of reference vectors against the library and validate
// cross-implementation conformance.
package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"

	"flag"
	"github.com/alecthomas/colour"
	"github.com/cuedego/secreon/shamir"
	"sigs.k8s.io/yaml"
)

var vectorsFile = flag.String("vectors", "vectors.json", "Path to a reference vector file (JSON or YAML).")

// vector pairs a set of mnemonics and a passphrase with either an expected
// master secret or an expected error kind.
type vector struct {
	Description  string   `json:"description"`
	Mnemonics    []string `json:"mnemonics"`
	Passphrase   string   `json:"passphrase"`
	MasterSecret string   `json:"masterSecret"`
	// ExpectedError names an error kind for negative vectors: one of
	// InvalidInput, InvalidMnemonic, InvalidChecksum, InvalidPadding,
	// InconsistentShares, InsufficientShares, InvalidDigest.
	ExpectedError string `json:"expectedError"`
}

type vectorFile struct {
	Vectors []vector `json:"vectors"`
}

var errorKinds = map[string]error{
	"InvalidInput":       shamir.ErrInvalidInput,
	"InvalidMnemonic":    shamir.ErrInvalidMnemonic,
	"InvalidChecksum":    shamir.ErrInvalidChecksum,
	"InvalidPadding":     shamir.ErrInvalidPadding,
	"InconsistentShares": shamir.ErrInconsistentShares,
	"InsufficientShares": shamir.ErrInsufficientShares,
	"InvalidDigest":      shamir.ErrInvalidDigest,
}

func runVector(v vector) error {
	got, err := shamir.CombineMnemonics(v.Mnemonics, []byte(v.Passphrase))

	if v.ExpectedError != "" {
		want, ok := errorKinds[v.ExpectedError]
		if !ok {
			return fmt.Errorf("unknown expected error kind %q", v.ExpectedError)
		}
		if !errors.Is(err, want) {
			return fmt.Errorf("err = %v, want %s", err, v.ExpectedError)
		}
		return nil
	}

	if err != nil {
		return err
	}
	if hex.EncodeToString(got) != v.MasterSecret {
		return fmt.Errorf("recovered secret does not match the expected master secret")
	}
	return nil
}

func main() {
	flag.Parse()

	raw, err := os.ReadFile(*vectorsFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read vector file: %v\n", err)
		os.Exit(1)
	}
	jsonBytes, err := yaml.YAMLToJSON(raw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse vector file: %v\n", err)
		os.Exit(1)
	}
	var vf vectorFile
	if err := yaml.Unmarshal(jsonBytes, &vf); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to unmarshal vectors: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Running %d conformance vectors...\n", len(vf.Vectors))

	failures := 0
	for _, v := range vf.Vectors {
		if err := runVector(v); err != nil {
			colour.Printf("^1 - %v: %v^R\n", v.Description, err)
			failures++
		} else {
			colour.Printf("^2 - %v^R\n", v.Description)
		}
	}

	if failures > 0 {
		fmt.Printf("%d of %d vectors failed\n", failures, len(vf.Vectors))
		os.Exit(1)
	}
	fmt.Println("All vectors passed")
}
