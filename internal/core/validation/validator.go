// Package validation checks request schemas with go-playground/validator and
// reports failures as *domain.ValidationError, ordered by rule precedence.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sellerpanel/account-service/internal/core/domain"
	"github.com/sellerpanel/account-service/internal/core/ports"
)

var (
	namePattern  = regexp.MustCompile(`^[a-zA-Z ]*$`)
	emailPattern = regexp.MustCompile(`^[\w\-.]+@([\w-]+\.)+[\w-]{2,4}$`)
)

// Rule names, listed in reporting precedence.
const (
	RuleRequired = "required"
	RuleName     = "name"
	RuleEmail    = "email"
	RuleRole     = "role"
	RulePassword = "password_length"
	RuleMatch    = "password_match"
	RuleRange    = "range"
)

var precedence = map[string]int{
	RuleRequired: 1,
	RuleName:     2,
	RuleEmail:    3,
	RuleRole:     4,
	RulePassword: 5,
	RuleMatch:    6,
	RuleRange:    7,
}

// Validator wraps go-playground/validator. It also satisfies echo.Validator.
type Validator struct {
	v *validator.Validate
}

// New returns a Validator with the account-specific tags registered.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("alphaspace", func(fl validator.FieldLevel) bool {
		return namePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("mailbox", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	return &Validator{v: v}
}

// Validate checks i against its validate tags.
func (val *Validator) Validate(i any) error {
	err := val.v.Struct(i)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}

	violations := make([]domain.FieldViolation, 0, len(ve))
	for _, fe := range ve {
		violations = append(violations, violation(fe))
	}
	sort.SliceStable(violations, func(i, j int) bool {
		return precedence[violations[i].Rule] < precedence[violations[j].Rule]
	})
	return &domain.ValidationError{Violations: violations}
}

// Signup trims every field of in and validates the result.
func (val *Validator) Signup(in ports.SignupInput) (ports.SignupInput, error) {
	out := ports.SignupInput{
		FirstName:       strings.TrimSpace(in.FirstName),
		LastName:        strings.TrimSpace(in.LastName),
		Username:        strings.TrimSpace(in.Username),
		Email:           strings.TrimSpace(in.Email),
		Role:            strings.TrimSpace(in.Role),
		Password:        strings.TrimSpace(in.Password),
		ConfirmPassword: strings.TrimSpace(in.ConfirmPassword),
	}
	if err := val.Validate(&out); err != nil {
		return ports.SignupInput{}, err
	}
	return out, nil
}

// Update trims the fields present in in and validates them.
func (val *Validator) Update(in ports.UpdateInput) (ports.UpdateInput, error) {
	out := ports.UpdateInput{
		FirstName: trimmed(in.FirstName),
		LastName:  trimmed(in.LastName),
		Username:  trimmed(in.Username),
		Email:     trimmed(in.Email),
		Role:      trimmed(in.Role),
		Password:  trimmed(in.Password),
	}
	if err := val.Validate(&out); err != nil {
		return ports.UpdateInput{}, err
	}
	return out, nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}

func violation(fe validator.FieldError) domain.FieldViolation {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return domain.FieldViolation{Field: field, Rule: RuleRequired, Message: field + " is required"}
	case "alphaspace":
		return domain.FieldViolation{Field: field, Rule: RuleName, Message: field + " may only contain letters and spaces"}
	case "mailbox":
		return domain.FieldViolation{Field: field, Rule: RuleEmail, Message: field + " must be a valid email address"}
	case "oneof":
		return domain.FieldViolation{Field: field, Rule: RuleRole, Message: fmt.Sprintf("%s must be one of: %s", field, fe.Param())}
	case "eqfield":
		return domain.FieldViolation{Field: field, Rule: RuleMatch, Message: "passwords do not match"}
	case "min":
		if fe.Param() == "1" {
			return domain.FieldViolation{Field: field, Rule: RuleRequired, Message: field + " is required"}
		}
		if fe.Kind() == reflect.String {
			return domain.FieldViolation{Field: field, Rule: RulePassword, Message: fmt.Sprintf("%s must be at least %s characters", field, fe.Param())}
		}
		return domain.FieldViolation{Field: field, Rule: RuleRange, Message: fmt.Sprintf("%s must be at least %s", field, fe.Param())}
	case "max":
		return domain.FieldViolation{Field: field, Rule: RuleRange, Message: fmt.Sprintf("%s must be at most %s", field, fe.Param())}
	default:
		return domain.FieldViolation{Field: field, Rule: fe.Tag(), Message: fmt.Sprintf("%s failed validation (%s)", field, fe.Tag())}
	}
}
