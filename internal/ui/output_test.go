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

package ui

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests swap package level writers, they don't run in parallel.

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prevOut, prevNoColor := Out, color.NoColor
	Out, color.NoColor = &buf, true
	t.Cleanup(func() { Out, color.NoColor = prevOut, prevNoColor })
	return &buf
}

func TestJSONWithoutColour(t *testing.T) {
	buf := capture(t)
	require.NoError(t, JSON(map[string]any{"id": "asset-1"}))
	assert.Equal(t, "{\n  \"id\": \"asset-1\"\n}\n", buf.String())
}

func TestTable(t *testing.T) {
	buf := capture(t)
	Table([]string{"ID", "NAME"}, [][]string{{"asset-1", "Sample"}, {"a-2", "Other"}})
	assert.Equal(t, "ID       NAME\nasset-1  Sample\na-2      Other\n", buf.String())
}

func TestFields(t *testing.T) {
	buf := capture(t)
	Fields("ID", "neg-1", "State", "FINALIZED", "dangling")
	assert.Equal(t, "ID    neg-1\nState FINALIZED\n", buf.String())
}
