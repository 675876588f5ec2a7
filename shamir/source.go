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
	"github.com/google/tink/go/subtle/random"
)

// Source yields uniform random bytes. It is consumed when drawing the share
// identifier and the random polynomial points; tests substitute a
// deterministic implementation.
type Source interface {
	Fill(b []byte) error
}

// cryptoSource is the default Source, backed by the platform CSPRNG.
type cryptoSource struct{}

func (cryptoSource) Fill(b []byte) error {
	copy(b, random.GetRandomBytes(uint32(len(b))))
	return nil
}
