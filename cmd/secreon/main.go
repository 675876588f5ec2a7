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

// This binary is the main entrypoint for the secreon command line tool.
package main

import (
	"bufio"
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"flag"
	"github.com/cuedego/secreon/shamir"
	glog "github.com/golang/glog"
	"github.com/google/subcommands"
	"github.com/tyler-smith/go-bip39"
	"golang.org/x/term"
	"sigs.k8s.io/yaml"
)

const (
	// The current version, displayed via the `version` subcommand.
	secreonVersion string = "1.0.0"

	// The bundle type marker written into share files.
	bundleType string = "slip39-shares"
)

// shareBundle is the on-disk format for a generated set of shares.
type shareBundle struct {
	Version        string        `json:"version"`
	Type           string        `json:"type"`
	GroupThreshold int           `json:"groupThreshold"`
	Groups         []bundleGroup `json:"groups"`
}

type bundleGroup struct {
	GroupIndex int           `json:"groupIndex"`
	Threshold  int           `json:"threshold"`
	Count      int           `json:"count"`
	Shares     []bundleShare `json:"shares"`
}

type bundleShare struct {
	Index    int    `json:"index"`
	Mnemonic string `json:"mnemonic"`
}

// groupSpecs accumulates repeated --group flags of the form "T,N".
type groupSpecs []shamir.MemberGroup

func (g *groupSpecs) String() string {
	parts := make([]string, len(*g))
	for i, spec := range *g {
		parts[i] = fmt.Sprintf("%d,%d", spec.MemberThreshold, spec.MemberCount)
	}
	return strings.Join(parts, " ")
}

func (g *groupSpecs) Set(value string) error {
	parts := strings.Split(value, ",")
	if len(parts) != 2 {
		return fmt.Errorf("group spec %q is not of the form T,N", value)
	}
	threshold, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return fmt.Errorf("invalid group threshold in %q: %v", value, err)
	}
	count, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return fmt.Errorf("invalid group count in %q: %v", value, err)
	}
	*g = append(*g, shamir.MemberGroup{MemberThreshold: threshold, MemberCount: count})
	return nil
}

// readPassphrase resolves the passphrase from the flag or an interactive
// prompt. Prompting reads from the terminal without echo.
func readPassphrase(passphrase string, prompt bool, confirm bool) ([]byte, error) {
	if !prompt {
		return []byte(passphrase), nil
	}
	fmt.Fprint(os.Stderr, "Passphrase: ")
	first, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("failed to read passphrase: %v", err)
	}
	if !confirm {
		return first, nil
	}
	fmt.Fprint(os.Stderr, "Repeat passphrase: ")
	second, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("failed to read passphrase: %v", err)
	}
	if string(first) != string(second) {
		return nil, fmt.Errorf("passphrases do not match")
	}
	return first, nil
}

// readMnemonics reads one mnemonic per non-empty line from path, or from
// stdin when path is "-". A share bundle file is also accepted.
func readMnemonics(path string) ([]string, error) {
	var reader io.Reader
	if path == "-" {
		reader = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		reader = f
	}

	raw, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}

	// Try the bundle format first; fall back to plain lines.
	if mnemonics, err := bundleMnemonics(raw); err == nil {
		return mnemonics, nil
	}

	var mnemonics []string
	scanner := bufio.NewScanner(strings.NewReader(string(raw)))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			mnemonics = append(mnemonics, line)
		}
	}
	if len(mnemonics) == 0 {
		return nil, fmt.Errorf("no mnemonics found")
	}
	return mnemonics, nil
}

func bundleMnemonics(raw []byte) ([]string, error) {
	jsonBytes, err := yaml.YAMLToJSON(raw)
	if err != nil {
		return nil, err
	}
	var bundle shareBundle
	if err := yaml.Unmarshal(jsonBytes, &bundle); err != nil {
		return nil, err
	}
	if bundle.Type != bundleType {
		return nil, fmt.Errorf("not a share bundle")
	}
	var mnemonics []string
	for _, g := range bundle.Groups {
		for _, s := range g.Shares {
			mnemonics = append(mnemonics, s.Mnemonic)
		}
	}
	return mnemonics, nil
}

// generateCmd handles CLI options for the generate command.
type generateCmd struct {
	secret            string
	secretFile        string
	bip39Mnemonic     string
	randomBytes       int
	groups            groupSpecs
	groupThreshold    int
	passphrase        string
	promptPassphrase  bool
	iterationExponent int
	extendable        bool
	out               string
	splitShares       bool
	outDir            string
}

func (*generateCmd) Name() string { return "generate" }
func (*generateCmd) Synopsis() string {
	return "splits a master secret into mnemonic share groups"
}
func (*generateCmd) Usage() string {
	return `Usage: secreon generate [--secret=<hex> | --secret-file=<file> | --bip39=<mnemonic> | --random=<bytes>] --group=T,N [--group=T,N ...] [flags]

Examples:
  Split a hex secret 2-of-3 into a single group:
    $ secreon generate --secret=4142434445464748494a4b4c4d4e4f50 --group=2,3

  Split a fresh 32-byte secret across two groups, both required:
    $ secreon generate --random=32 --group=2,3 --group=3,5 --group-threshold=2 --out=shares.yaml

  Split a BIP-39 seed with an interactive passphrase:
    $ secreon generate --bip39="zoo zoo ... wrong" --group=3,5 --prompt-passphrase

Flags:
`
}
func (g *generateCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&g.secret, "secret", "", "Master secret as a hex string.")
	f.StringVar(&g.secretFile, "secret-file", "", "Path to a file holding the raw master secret bytes.")
	f.StringVar(&g.bip39Mnemonic, "bip39", "", "A BIP-39 mnemonic; its seed's first 32 bytes become the master secret.")
	f.IntVar(&g.randomBytes, "random", 0, "Generate a fresh random master secret of this many bytes.")
	f.Var(&g.groups, "group", "Member threshold and count of one group as T,N. Repeatable.")
	f.IntVar(&g.groupThreshold, "group-threshold", 0, "Number of groups required to recover. Defaults to all groups.")
	f.StringVar(&g.passphrase, "passphrase", "", "Passphrase protecting the master secret. Optional.")
	f.BoolVar(&g.promptPassphrase, "prompt-passphrase", false, "Prompt for the passphrase instead of passing it as a flag.")
	f.IntVar(&g.iterationExponent, "iteration-exponent", 1, "PBKDF2 iteration exponent, 0..15.")
	f.BoolVar(&g.extendable, "extendable", true, "Create an extendable backup.")
	f.StringVar(&g.out, "out", "", "Output file for the share bundle. Defaults to stdout.")
	f.BoolVar(&g.splitShares, "split-shares", false, "Write each share to its own file.")
	f.StringVar(&g.outDir, "out-dir", ".", "Output directory for --split-shares.")
}

func (g *generateCmd) masterSecret() ([]byte, error) {
	sources := 0
	for _, set := range []bool{g.secret != "", g.secretFile != "", g.bip39Mnemonic != "", g.randomBytes > 0} {
		if set {
			sources++
		}
	}
	if sources != 1 {
		return nil, fmt.Errorf("exactly one of --secret, --secret-file, --bip39 or --random must be given")
	}

	switch {
	case g.secret != "":
		secret, err := hex.DecodeString(g.secret)
		if err != nil {
			return nil, fmt.Errorf("invalid hex secret: %v", err)
		}
		return secret, nil
	case g.secretFile != "":
		return os.ReadFile(g.secretFile)
	case g.bip39Mnemonic != "":
		seed, err := bip39.NewSeedWithErrorChecking(strings.TrimSpace(g.bip39Mnemonic), "")
		if err != nil {
			return nil, fmt.Errorf("invalid BIP-39 mnemonic: %v", err)
		}
		return seed[:32], nil
	default:
		secret := make([]byte, g.randomBytes)
		if _, err := rand.Read(secret); err != nil {
			return nil, err
		}
		return secret, nil
	}
}

func (g *generateCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	masterSecret, err := g.masterSecret()
	if err != nil {
		glog.Errorf("Failed to resolve master secret: %v", err)
		return subcommands.ExitFailure
	}
	if len(g.groups) == 0 {
		glog.Errorf("At least one --group=T,N must be given")
		return subcommands.ExitFailure
	}
	groupThreshold := g.groupThreshold
	if groupThreshold == 0 {
		groupThreshold = len(g.groups)
	}
	passphrase, err := readPassphrase(g.passphrase, g.promptPassphrase, true)
	if err != nil {
		glog.Errorf("%v", err)
		return subcommands.ExitFailure
	}

	mnemonics, err := shamir.GenerateMnemonics(shamir.SplitParams{
		GroupThreshold:    groupThreshold,
		Groups:            g.groups,
		Passphrase:        passphrase,
		IterationExponent: g.iterationExponent,
		Extendable:        g.extendable,
	}, masterSecret)
	if err != nil {
		glog.Errorf("Failed to generate shares: %v", err)
		return subcommands.ExitFailure
	}

	bundle := shareBundle{
		Version:        "1.0",
		Type:           bundleType,
		GroupThreshold: groupThreshold,
		Groups:         make([]bundleGroup, len(mnemonics)),
	}
	for i, group := range mnemonics {
		bundle.Groups[i] = bundleGroup{
			GroupIndex: i,
			Threshold:  g.groups[i].MemberThreshold,
			Count:      g.groups[i].MemberCount,
			Shares:     make([]bundleShare, len(group)),
		}
		for j, mnemonic := range group {
			bundle.Groups[i].Shares[j] = bundleShare{Index: j, Mnemonic: mnemonic}
		}
	}

	if g.splitShares {
		if err := writeSplitShares(bundle, g.outDir); err != nil {
			glog.Errorf("Failed to write share files: %v", err)
			return subcommands.ExitFailure
		}
		fmt.Fprintf(os.Stderr, "Wrote share files to %s\n", g.outDir)
		return subcommands.ExitSuccess
	}

	yamlBytes, err := yaml.Marshal(bundle)
	if err != nil {
		glog.Errorf("Failed to marshal share bundle: %v", err)
		return subcommands.ExitFailure
	}
	if g.out == "" {
		os.Stdout.Write(yamlBytes)
		return subcommands.ExitSuccess
	}
	if err := os.WriteFile(g.out, yamlBytes, 0600); err != nil {
		glog.Errorf("Failed to write share bundle: %v", err)
		return subcommands.ExitFailure
	}
	fmt.Fprintf(os.Stderr, "Wrote share bundle to %s\n", g.out)
	return subcommands.ExitSuccess
}

func writeSplitShares(bundle shareBundle, dir string) error {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}
	for _, group := range bundle.Groups {
		for _, share := range group.Shares {
			single := bundle
			single.Groups = []bundleGroup{{
				GroupIndex: group.GroupIndex,
				Threshold:  group.Threshold,
				Count:      group.Count,
				Shares:     []bundleShare{share},
			}}
			yamlBytes, err := yaml.Marshal(single)
			if err != nil {
				return err
			}
			name := fmt.Sprintf("slip39-g%d-s%d.yaml", group.GroupIndex, share.Index)
			if err := os.WriteFile(filepath.Join(dir, name), yamlBytes, 0600); err != nil {
				return err
			}
		}
	}
	return nil
}

// recoverCmd handles CLI options for the recover command.
type recoverCmd struct {
	sharesFile       string
	passphrase       string
	promptPassphrase bool
	out              string
}

func (*recoverCmd) Name() string { return "recover" }
func (*recoverCmd) Synopsis() string {
	return "recovers the master secret from mnemonic shares"
}
func (*recoverCmd) Usage() string {
	return `Usage: secreon recover [--shares-file=<file>] [--passphrase=<passphrase>] [--out=<file>]

Reads shares from --shares-file (a share bundle or one mnemonic per line), or
from stdin when the flag is omitted. Prints the recovered secret as hex, or
writes the raw bytes to --out.

Examples:
  $ secreon recover --shares-file=shares.yaml
  $ secreon recover --prompt-passphrase < mnemonics.txt

Flags:
`
}
func (r *recoverCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&r.sharesFile, "shares-file", "-", "Share bundle or mnemonic list. Defaults to stdin.")
	f.StringVar(&r.passphrase, "passphrase", "", "Passphrase the shares were generated with. Optional.")
	f.BoolVar(&r.promptPassphrase, "prompt-passphrase", false, "Prompt for the passphrase instead of passing it as a flag.")
	f.StringVar(&r.out, "out", "", "Write the raw secret bytes to this file instead of printing hex.")
}

func (r *recoverCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	mnemonics, err := readMnemonics(r.sharesFile)
	if err != nil {
		glog.Errorf("Failed to read shares: %v", err)
		return subcommands.ExitFailure
	}
	passphrase, err := readPassphrase(r.passphrase, r.promptPassphrase, false)
	if err != nil {
		glog.Errorf("%v", err)
		return subcommands.ExitFailure
	}

	masterSecret, err := shamir.CombineMnemonics(mnemonics, passphrase)
	if err != nil {
		glog.Errorf("Failed to recover master secret: %v", err)
		return subcommands.ExitFailure
	}

	if r.out == "" {
		fmt.Println(hex.EncodeToString(masterSecret))
		return subcommands.ExitSuccess
	}
	if err := os.WriteFile(r.out, masterSecret, 0600); err != nil {
		glog.Errorf("Failed to write master secret: %v", err)
		return subcommands.ExitFailure
	}
	fmt.Fprintf(os.Stderr, "Wrote master secret to %s\n", r.out)
	return subcommands.ExitSuccess
}

// inspectCmd handles CLI options for the inspect command.
type inspectCmd struct {
	sharesFile string
}

func (*inspectCmd) Name() string { return "inspect" }
func (*inspectCmd) Synopsis() string {
	return "decodes share metadata without recovering any secret"
}
func (*inspectCmd) Usage() string {
	return `Usage: secreon inspect [--shares-file=<file>]

Decodes each share and prints its metadata. No secret material is recovered
or displayed.

Flags:
`
}
func (i *inspectCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&i.sharesFile, "shares-file", "-", "Share bundle or mnemonic list. Defaults to stdin.")
}

func (i *inspectCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	mnemonics, err := readMnemonics(i.sharesFile)
	if err != nil {
		glog.Errorf("Failed to read shares: %v", err)
		return subcommands.ExitFailure
	}

	for n, mnemonic := range mnemonics {
		share, err := shamir.DecodeMnemonic(mnemonic)
		if err != nil {
			glog.Errorf("Share %d is invalid: %v", n+1, err)
			return subcommands.ExitFailure
		}
		fmt.Printf("Share %d:\n", n+1)
		fmt.Printf("  identifier:         %d\n", share.Identifier)
		fmt.Printf("  extendable:         %v\n", share.Extendable)
		fmt.Printf("  iteration exponent: %d\n", share.IterationExponent)
		fmt.Printf("  group:              %d of %d (threshold %d)\n",
			share.GroupIndex+1, share.GroupCount, share.GroupThreshold)
		fmt.Printf("  member:             index %d (threshold %d)\n",
			share.MemberIndex, share.MemberThreshold)
		fmt.Printf("  secret size:        %d bits\n", len(share.Value)*8)
	}
	return subcommands.ExitSuccess
}

// validateCmd handles CLI options for the validate command.
type validateCmd struct {
	sharesFile string
}

func (*validateCmd) Name() string { return "validate" }
func (*validateCmd) Synopsis() string {
	return "validates share mnemonics and reports group coverage"
}
func (*validateCmd) Usage() string {
	return `Usage: secreon validate [--shares-file=<file>]

Checks every mnemonic's checksum and structure and reports whether the set
would be sufficient to recover the secret. Nothing is decrypted.

Flags:
`
}
func (v *validateCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&v.sharesFile, "shares-file", "-", "Share bundle or mnemonic list. Defaults to stdin.")
}

func (v *validateCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	mnemonics, err := readMnemonics(v.sharesFile)
	if err != nil {
		glog.Errorf("Failed to read shares: %v", err)
		return subcommands.ExitFailure
	}

	shares := make([]shamir.Share, 0, len(mnemonics))
	for n, mnemonic := range mnemonics {
		share, err := shamir.DecodeMnemonic(mnemonic)
		if err != nil {
			glog.Errorf("Share %d is invalid: %v", n+1, err)
			return subcommands.ExitFailure
		}
		shares = append(shares, share)
	}
	fmt.Printf("All %d mnemonics are well-formed\n", len(shares))

	members := make(map[int]int)
	thresholds := make(map[int]int)
	for _, share := range shares {
		members[share.GroupIndex]++
		thresholds[share.GroupIndex] = share.MemberThreshold
	}
	complete := 0
	for gi, count := range members {
		status := "incomplete"
		if count >= thresholds[gi] {
			status = "complete"
			complete++
		}
		fmt.Printf("Group %d: %d of %d shares (%s)\n", gi+1, count, thresholds[gi], status)
	}
	if complete >= shares[0].GroupThreshold && complete == len(members) {
		fmt.Printf("Sufficient: %d of %d required groups are complete\n",
			complete, shares[0].GroupThreshold)
		return subcommands.ExitSuccess
	}
	if complete >= shares[0].GroupThreshold {
		fmt.Printf("Insufficient: %d presented groups are incomplete\n", len(members)-complete)
		return subcommands.ExitFailure
	}
	fmt.Printf("Insufficient: %d of %d required groups are complete\n",
		complete, shares[0].GroupThreshold)
	return subcommands.ExitFailure
}

// seedCmd handles CLI options for the seed command.
type seedCmd struct {
	words int
	out   string
}

func (*seedCmd) Name() string { return "seed" }
func (*seedCmd) Synopsis() string {
	return "generates a fresh BIP-39 seed phrase"
}
func (*seedCmd) Usage() string {
	return `Usage: secreon seed [--words=<12|15|18|21|24>] [--out=<file>]

Generates a BIP-39 mnemonic as a convenience input for generate --bip39.

Flags:
`
}
func (s *seedCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&s.words, "words", 24, "Number of words in the seed phrase.")
	f.StringVar(&s.out, "out", "", "Output file for the seed phrase. Defaults to stdout.")
}

func (s *seedCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	entropyBits, ok := map[int]int{12: 128, 15: 160, 18: 192, 21: 224, 24: 256}[s.words]
	if !ok {
		glog.Errorf("Word count must be one of 12, 15, 18, 21, 24")
		return subcommands.ExitFailure
	}
	entropy, err := bip39.NewEntropy(entropyBits)
	if err != nil {
		glog.Errorf("Failed to generate entropy: %v", err)
		return subcommands.ExitFailure
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		glog.Errorf("Failed to generate mnemonic: %v", err)
		return subcommands.ExitFailure
	}
	if s.out == "" {
		fmt.Println(mnemonic)
		return subcommands.ExitSuccess
	}
	if err := os.WriteFile(s.out, []byte(mnemonic+"\n"), 0600); err != nil {
		glog.Errorf("Failed to write seed phrase: %v", err)
		return subcommands.ExitFailure
	}
	fmt.Fprintf(os.Stderr, "Wrote seed phrase to %s\n", s.out)
	return subcommands.ExitSuccess
}

// versionCmd handles CLI options for the version command.
type versionCmd struct{}

func (*versionCmd) Name() string           { return "version" }
func (*versionCmd) Synopsis() string       { return "prints the current version" }
func (*versionCmd) Usage() string          { return "Usage: secreon version" }
func (*versionCmd) SetFlags(*flag.FlagSet) {}
func (*versionCmd) Execute(context.Context, *flag.FlagSet, ...interface{}) subcommands.ExitStatus {
	fmt.Printf("secreon version %s\n", secreonVersion)
	return subcommands.ExitSuccess
}

func main() {
	flag.Parse()

	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(&generateCmd{}, "")
	subcommands.Register(&recoverCmd{}, "")
	subcommands.Register(&inspectCmd{}, "")
	subcommands.Register(&validateCmd{}, "")
	subcommands.Register(&seedCmd{}, "")
	subcommands.Register(&versionCmd{}, "")

	ctx := context.Background()
	os.Exit(int(subcommands.Execute(ctx)))
}
