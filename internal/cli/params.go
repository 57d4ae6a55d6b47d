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

// Package cli passes the parameters shared by all commands from the root command to its
// subcommands.
package cli

import (
	"context"
	"fmt"

	"github.com/go-dataspace/run-console/logging"
	"github.com/spf13/viper"
)

const paramsKey = "initParams"

// Params are parameters for subcommands, they include global options and things like
// loggers, contexts, etc.
type Params struct {
	debug bool
	ctx   context.Context
}

// GenParams generates a new Params object from the global options.
func GenParams(ctx context.Context, logLevel string, debug bool) *Params {
	humanReadable := false
	if debug {
		logLevel = "debug"
		humanReadable = true
	}
	return &Params{
		ctx:   logging.Inject(ctx, logging.NewJSON(logLevel, humanReadable)),
		debug: debug,
	}
}

// Store makes the parameters available to subcommands.
func Store(p *Params) {
	viper.Set(paramsKey, p)
}

// Load returns the parameters stored by the root command.
func Load() (*Params, error) {
	p, ok := viper.Get(paramsKey).(*Params)
	if !ok {
		return nil, fmt.Errorf("couldn't fetch initial parameters")
	}
	return p, nil
}

// Debug returns the debug value.
func (p *Params) Debug() bool {
	return p.debug
}

// Context returns the context.
func (p *Params) Context() context.Context {
	return p.ctx
}
