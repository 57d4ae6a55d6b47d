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

// Package statemachine contains the status vocabularies of contract negotiations and transfer
// processes, and the transition graphs that decide which status changes are legal.
package statemachine

import (
	"errors"
	"fmt"
	"slices"
)

var (
	ErrIllegalTransition = errors.New("illegal transition")
	ErrUnknownStatus     = errors.New("unknown status")
)

// Graph is a directed transition graph over a status type. A status with no outgoing edges that
// is listed as terminal ends the state machine.
type Graph[S comparable] struct {
	initial  S
	edges    map[S][]S
	terminal []S
}

// NewGraph returns a graph starting in initial, with the given edges and terminal states.
func NewGraph[S comparable](initial S, edges map[S][]S, terminal ...S) *Graph[S] {
	return &Graph[S]{
		initial:  initial,
		edges:    edges,
		terminal: terminal,
	}
}

// Initial returns the implicit status before anything was observed.
func (g *Graph[S]) Initial() S { return g.initial }

// Terminal reports if no further transition can happen from s.
func (g *Graph[S]) Terminal(s S) bool { return slices.Contains(g.terminal, s) }

// Known reports if s is part of the graph.
func (g *Graph[S]) Known(s S) bool {
	if g.Terminal(s) {
		return true
	}
	_, ok := g.edges[s]
	return ok
}

// Reachable reports if `to` can be observed after `from`. Staying in the same state is always
// reachable, as is any state that can be reached through one or more edges, as polling can skip
// over intermediate states.
func (g *Graph[S]) Reachable(from, to S) bool {
	if from == to {
		return true
	}
	seen := map[S]bool{from: true}
	queue := []S{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range g.edges[cur] {
			if next == to {
				return true
			}
			if !seen[next] {
				seen[next] = true
				queue = append(queue, next)
			}
		}
	}
	return false
}

// Check returns an error if observing `to` after `from` is not legal.
func (g *Graph[S]) Check(from, to S) error {
	if !g.Known(to) {
		return fmt.Errorf("%w: %v", ErrUnknownStatus, to)
	}
	if !g.Reachable(from, to) {
		return fmt.Errorf("%w: can't go from %v to %v", ErrIllegalTransition, from, to)
	}
	return nil
}
