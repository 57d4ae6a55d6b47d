// Copyright 2024 go-dataspace
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package offerid contains tools to work with EDC contract offer ids.
//
// An offer id is made of three base64 encoded parts separated by colons: the contract
// definition id, the asset id, and a random part, e.g. `Y2QtMQ==:YXNzZXQtMQ==:ZjQ0...`.
package offerid

import (
	"encoding/base64"
	"fmt"
	"strings"
)

const separator = ":"

// ID represents a decoded offer id.
type ID struct {
	DefinitionID string
	AssetID      string
	Nonce        string
}

// Parse parses an offer id string and returns its decoded parts. It returns an error if the
// string does not have three parts or if a part is not valid base64.
func Parse(s string) (ID, error) {
	if len(s) == 0 {
		return ID{}, fmt.Errorf("can't parse empty string")
	}
	parts := strings.Split(s, separator)
	if len(parts) != 3 {
		return ID{}, fmt.Errorf("invalid offer id, expected 3 parts, got %d: %s", len(parts), s)
	}
	decoded := make([]string, len(parts))
	for i, p := range parts {
		b, err := decodePart(p)
		if err != nil {
			return ID{}, fmt.Errorf("could not decode offer id part %d: %w", i, err)
		}
		if len(b) == 0 {
			return ID{}, fmt.Errorf("offer id part %d is empty", i)
		}
		decoded[i] = string(b)
	}
	return ID{
		DefinitionID: decoded[0],
		AssetID:      decoded[1],
		Nonce:        decoded[2],
	}, nil
}

func decodePart(p string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(p)
	if err == nil {
		return b, nil
	}
	return base64.RawStdEncoding.DecodeString(p)
}

// MustParse parses the offer id, but panics on error.
func MustParse(s string) ID {
	id, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return id
}

// String returns the encoded representation of the offer id.
func (id ID) String() string {
	return strings.Join([]string{
		base64.StdEncoding.EncodeToString([]byte(id.DefinitionID)),
		base64.StdEncoding.EncodeToString([]byte(id.AssetID)),
		base64.StdEncoding.EncodeToString([]byte(id.Nonce)),
	}, separator)
}
