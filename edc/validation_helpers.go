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

package edc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-dataspace/run-console/jsonld"
	"github.com/go-dataspace/run-console/logging"
	"github.com/go-dataspace/run-console/odrl"
	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	if err := RegisterValidators(validate); err != nil {
		panic(err)
	}
}

func negotiationState(fl validator.FieldLevel) bool {
	_, err := NormaliseNegotiationStatus(fl.Field().String())
	return err == nil
}

func transferState(fl validator.FieldLevel) bool {
	_, err := NormaliseTransferStatus(fl.Field().String(), "")
	return err == nil
}

func jsonObject(fl validator.FieldLevel) bool {
	b := fl.Field().Bytes()
	var m map[string]any
	return json.Unmarshal(b, &m) == nil && m != nil
}

// RegisterValidators registers the validators of connector documents.
func RegisterValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("negotiation_state", negotiationState); err != nil {
		return err
	}
	if err := v.RegisterValidation("transfer_state", transferState); err != nil {
		return err
	}
	if err := v.RegisterValidation("json_object", jsonObject); err != nil {
		return err
	}
	return odrl.RegisterValidators(v)
}

// Validate validates s, returning an error wrapping ErrValidation.
func Validate(ctx context.Context, s any) error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, handleValidationError(err, logging.Extract(ctx)))
	}
	return nil
}

// ValidateAndMarshal validates s and encodes it as JSON.
func ValidateAndMarshal[T any](ctx context.Context, s T) ([]byte, error) {
	if err := Validate(ctx, s); err != nil {
		return nil, err
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return b, nil
}

// UnmarshalAndValidate decodes a connector response into s and validates it. The keys of the
// response are compacted first, so prefixed and expanded keys decode like plain ones.
// A response that can't be decoded or is invalid is a protocol violation.
func UnmarshalAndValidate[T any](ctx context.Context, b []byte, s T) (T, error) {
	logger := logging.Extract(ctx)
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		logger.Error("Couldn't unmarshal JSON", "err", err)
		return s, fmt.Errorf("%w: couldn't unmarshal JSON: %w", ErrProtocolViolation, err)
	}
	compacted, err := json.Marshal(compactKeys(raw))
	if err != nil {
		return s, fmt.Errorf("%w: %w", ErrProtocolViolation, err)
	}
	if err := json.Unmarshal(compacted, &s); err != nil {
		logger.Error("Couldn't unmarshal JSON", "err", err)
		return s, fmt.Errorf("%w: couldn't unmarshal JSON: %w", ErrProtocolViolation, err)
	}

	if err := validate.Struct(s); err != nil {
		return s, fmt.Errorf("%w: %w", ErrProtocolViolation, handleValidationError(err, logger))
	}
	return s, nil
}

// compactKeys compacts the keys of every object in v, policies excepted.
func compactKeys(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			ck := jsonld.Compact(k)
			if ck == "policy" {
				m[ck] = val
				continue
			}
			m[ck] = compactKeys(val)
		}
		return m
	case []any:
		l := make([]any, len(t))
		for i, val := range t {
			l[i] = compactKeys(val)
		}
		return l
	default:
		return v
	}
}

func handleValidationError(err error, logger *slog.Logger) error {
	var invalid *validator.InvalidValidationError
	if errors.As(err, &invalid) {
		logger.Error("Invalid validation", "err", err)
		return fmt.Errorf("invalid validation")
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		logger.Error("Unknown error", "err", err)
		return err
	}
	fields := make([]string, 0, len(verrs))
	for _, err := range verrs {
		logger.Debug(
			"Validation error",
			"Namespace", err.Namespace(),
			"Field", err.Field(),
			"Tag", err.Tag(),
			"Value", err.Value(),
			"Param", err.Param(),
		)
		fields = append(fields, fmt.Sprintf("%s failed on %s", err.Namespace(), err.Tag()))
	}
	return errors.New(strings.Join(fields, ", "))
}
