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

package odrl

import (
	"fmt"
	"slices"

	"github.com/go-dataspace/run-console/jsonld"
)

var participantOperands = []string{
	ParticipantIDOperand,
	"edc:participantId",
	"participantId",
}

// EvaluateParticipant decides if a catalog offer would admit the given participant. It only
// understands participant id equality constraints; anything else admits the participant, as the
// provider will make the final decision during negotiation anyway.
// The second return value explains the decision.
func EvaluateParticipant(offer map[string]any, participantID string) (bool, string) {
	if len(offer) == 0 || participantID == "" {
		return true, "no policy constraints"
	}
	permissions := List(Lookup(offer, "permission"))
	if len(permissions) == 0 {
		return true, "no permissions defined"
	}

	for _, p := range permissions {
		perm, ok := p.(map[string]any)
		if !ok {
			continue
		}
		constraints := List(Lookup(perm, "constraint"))
		constraints = append(constraints, List(Lookup(perm, "constraints"))...)
		for _, c := range constraints {
			constraint, ok := c.(map[string]any)
			if !ok {
				continue
			}
			if allowed, reason, decided := checkConstraint(constraint, participantID); decided {
				return allowed, reason
			}
		}
	}
	return true, "no participant constraints found"
}

func checkConstraint(constraint map[string]any, participantID string) (bool, string, bool) {
	left := idOrString(Lookup(constraint, "leftOperand"))
	if !slices.Contains(participantOperands, left) {
		return false, "", false
	}
	op := normalise(idOrString(Lookup(constraint, "operator")))
	if op != "eq" {
		return false, "", false
	}
	right := idOrString(Lookup(constraint, "rightOperand"))
	if right == participantID {
		return true, fmt.Sprintf("participant id matches: %s", right), true
	}
	return false, fmt.Sprintf("participant id mismatch, required %s, have %s", right, participantID), true
}

// Lookup finds a key in a JSON-LD object regardless of the prefix it was compacted with.
func Lookup(m map[string]any, key string) any {
	if v, ok := m[key]; ok {
		return v
	}
	for k, v := range m {
		if jsonld.Compact(k) == key {
			return v
		}
	}
	return nil
}

// List normalises a JSON-LD value that can be a single object or an array into a slice.
func List(v any) []any {
	switch t := v.(type) {
	case nil:
		return nil
	case []any:
		return t
	default:
		return []any{t}
	}
}

func idOrString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case map[string]any:
		if id, ok := t["@id"].(string); ok {
			return id
		}
	}
	return ""
}
