// Package validation turns code membership checks into pass/fail results for
// input validation.
package validation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sha1n/mcp-codemaster-server/internal/codes"
	"golang.org/x/text/language"
)

// DefaultMessageID is used when neither the rule nor the validator names one.
const DefaultMessageID = "codemaster.validation.code"

// ErrNoCodeset is returned for a rule without a codeset id.
var ErrNoCodeset = errors.New("validation rule has no codeset id")

// Rule declares which codeset (and optionally which pattern) a field's value
// must belong to.
type Rule struct {
	CodesetID string `json:"codeset_id"`
	Pattern   string `json:"pattern,omitempty"`
	MessageID string `json:"message_id,omitempty"`
}

// Result is the outcome of validating one value or a list of values.
type Result struct {
	Valid bool `json:"valid"`
	// MessageID and AllowedValues are only set when Valid is false.
	MessageID     string `json:"message_id,omitempty"`
	AllowedValues string `json:"allowed_values,omitempty"`
	// Invalid lists the rejected values.
	Invalid []string `json:"invalid,omitempty"`
}

// Membership is the part of the resolver the validator needs.
type Membership interface {
	Contains(ctx context.Context, codesetID, value string) (bool, error)
	ContainsInPattern(ctx context.Context, codesetID, pattern, value string) (bool, error)
	Values(ctx context.Context, codesetID string, locale language.Tag) ([]string, error)
	ValuesInPattern(ctx context.Context, codesetID, pattern string, locale language.Tag) ([]string, error)
}

// Validator checks values against code rules.
type Validator struct {
	codes            Membership
	defaultMessageID string
}

// NewValidator creates a validator. An empty defaultMessageID selects DefaultMessageID.
func NewValidator(codes Membership, defaultMessageID string) *Validator {
	if defaultMessageID == "" {
		defaultMessageID = DefaultMessageID
	}
	return &Validator{codes: codes, defaultMessageID: defaultMessageID}
}

// Validate checks a single value. The empty value always passes; requiring a
// value is a separate concern.
func (v *Validator) Validate(ctx context.Context, rule Rule, value string) (Result, error) {
	if value == "" {
		return Result{Valid: true}, nil
	}
	ok, err := v.contains(ctx, rule, value)
	if err != nil {
		return Result{}, err
	}
	if ok {
		return Result{Valid: true}, nil
	}
	return v.reject(ctx, rule, []string{value})
}

// ValidateEach checks every value; the result is valid only if all of them are.
func (v *Validator) ValidateEach(ctx context.Context, rule Rule, values []string) (Result, error) {
	var invalid []string
	for _, value := range values {
		if value == "" {
			continue
		}
		ok, err := v.contains(ctx, rule, value)
		if err != nil {
			return Result{}, err
		}
		if !ok {
			invalid = append(invalid, value)
		}
	}
	if len(invalid) == 0 {
		return Result{Valid: true}, nil
	}
	return v.reject(ctx, rule, invalid)
}

// AllowedValues formats the values a rule accepts, in the order of the
// caller's locale, as `"01" , "02"`.
func (v *Validator) AllowedValues(ctx context.Context, rule Rule) (string, error) {
	var (
		values []string
		err    error
	)
	if rule.Pattern == "" {
		values, err = v.codes.Values(ctx, rule.CodesetID, language.Und)
	} else {
		values, err = v.codes.ValuesInPattern(ctx, rule.CodesetID, rule.Pattern, language.Und)
	}
	if err != nil {
		return "", err
	}

	quoted := make([]string, len(values))
	for i, value := range values {
		quoted[i] = `"` + value + `"`
	}
	return strings.Join(quoted, " , "), nil
}

func (v *Validator) contains(ctx context.Context, rule Rule, value string) (bool, error) {
	if rule.CodesetID == "" {
		return false, ErrNoCodeset
	}
	if rule.Pattern == "" {
		return v.codes.Contains(ctx, rule.CodesetID, value)
	}
	return v.codes.ContainsInPattern(ctx, rule.CodesetID, rule.Pattern, value)
}

func (v *Validator) reject(ctx context.Context, rule Rule, invalid []string) (Result, error) {
	allowed, err := v.AllowedValues(ctx, rule)
	if err != nil {
		return Result{}, fmt.Errorf("list allowed values: %w", err)
	}
	messageID := rule.MessageID
	if messageID == "" {
		messageID = v.defaultMessageID
	}
	return Result{
		MessageID:     messageID,
		AllowedValues: allowed,
		Invalid:       invalid,
	}, nil
}

var _ Membership = (*codes.Resolver)(nil)
