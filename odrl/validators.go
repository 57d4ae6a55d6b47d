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
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
)

var actions = []string{
	"delete",
	"execute",
	"anonymize",
	"extract",
	"read",
	"index",
	"compensate",
	"sell",
	"derive",
	"ensureexclusivity",
	"annotate",
	"translate",
	"include",
	"texttospeech",
	"inform",
	"grantuse",
	"archive",
	"modify",
	"aggregate",
	"attribute",
	"nextpolicy",
	"digitize",
	"install",
	"concurrentuse",
	"distribute",
	"synchronize",
	"move",
	"obtainconsent",
	"print",
	"give",
	"uninstall",
	"reviewpolicy",
	"watermark",
	"play",
	"reproduce",
	"transform",
	"display",
	"stream",
	"accepttracking",
	"present",
	"use",
	"transfer",
}

var operators = []string{
	"eq",
	"gt",
	"gteq",
	"haspart",
	"isa",
	"isallof",
	"isanyof",
	"isnoneof",
	"ispartof",
	"lt",
	"lteq",
	"neq",
}

// normalise reduces `odrl:use`, `USE` and `http://www.w3.org/ns/odrl/2/use` to `use`.
func normalise(s string) string {
	s = strings.TrimPrefix(s, "http://www.w3.org/ns/odrl/2/")
	s = strings.TrimPrefix(s, "odrl:")
	return strings.ToLower(s)
}

func action(fl validator.FieldLevel) bool {
	return slices.Contains(actions, normalise(fl.Field().String()))
}

// leftOperand accepts any non-empty operand, ODRL only defines a base vocabulary and connectors
// add their own, like the EDC participant id.
func leftOperand(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

func operator(fl validator.FieldLevel) bool {
	return slices.Contains(operators, normalise(fl.Field().String()))
}

// RegisterValidators registers all the validators of this package.
func RegisterValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("odrl_action", action); err != nil {
		return err
	}
	if err := v.RegisterValidation("odrl_leftoperand", leftOperand); err != nil {
		return err
	}
	if err := v.RegisterValidation("odrl_operator", operator); err != nil {
		return err
	}
	return nil
}
