// Package rules implements a string-specifier validation engine for form-like
// payloads. Fields map to ordered rule specifiers ("required", "minLength:8"),
// resolved against a registry of named checks. Failures are collected, never
// thrown: callers receive a field-to-errors map to render.
package rules

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// RuleSet maps field names to ordered rule specifiers.
type RuleSet map[string][]string

// CheckFunc evaluates one rule against a field value. param is the part after
// the colon in the specifier ("8" for "minLength:8"); data is the full
// submission, for cross-field checks.
type CheckFunc func(value, param string, data map[string]string) bool

// UniqueCheckFunc answers whether a value is not already taken. It is supplied
// externally and consulted only by ValidateAsync.
type UniqueCheckFunc func(ctx context.Context, field, value string) (bool, error)

// FieldError describes one failed rule on one field.
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// Result aggregates validation over a whole payload. Errors holds every
// failing rule per field, in declaration order; the first entry is the field's
// primary error.
type Result struct {
	Valid  bool                    `json:"valid"`
	Errors map[string][]FieldError `json:"errors,omitempty"`
}

// First returns the primary error message for a field, or "" if the field
// passed.
func (r Result) First(field string) string {
	if errs := r.Errors[field]; len(errs) > 0 {
		return errs[0].Message
	}
	return ""
}

type check struct {
	fn      CheckFunc
	message string
}

// Validator resolves rule specifiers against a registry of named checks.
type Validator struct {
	checks   map[string]check
	uniqueFn UniqueCheckFunc
}

// New returns a Validator with the built-in checks registered.
func New() *Validator {
	v := &Validator{checks: make(map[string]check)}
	v.registerBuiltins()
	return v
}

// Register adds or replaces a named check with its default message template.
// Templates may reference {field} and {param} (also exposed as {min}/{max}).
func (v *Validator) Register(name string, fn CheckFunc, message string) {
	v.checks[name] = check{fn: fn, message: message}
}

// SetMessage overrides the default message template for an existing rule.
func (v *Validator) SetMessage(name, message string) {
	if c, ok := v.checks[name]; ok {
		c.message = message
		v.checks[name] = c
	}
}

// SetUniqueCheck installs the asynchronous uniqueness checker consulted by
// ValidateAsync for fields carrying the "unique" rule.
func (v *Validator) SetUniqueCheck(fn UniqueCheckFunc) {
	v.uniqueFn = fn
}

// ValidateField runs every rule for one field in declared order and returns
// all failures. The "unique" rule is recognized but skipped here; it is
// async-only.
func (v *Validator) ValidateField(field, value string, specs []string, data map[string]string) []FieldError {
	var errs []FieldError
	for _, spec := range specs {
		name, param := splitSpec(spec)
		if name == "unique" {
			continue
		}

		switch name {
		case "confirmPassword":
			// Cross-field comparison rather than a registered predicate.
			if value != data[param] {
				errs = append(errs, FieldError{
					Field:   field,
					Rule:    name,
					Message: renderMessage("{field} does not match "+param, field, param),
				})
			}
			continue
		}

		c, ok := v.checks[name]
		if !ok {
			errs = append(errs, FieldError{
				Field:   field,
				Rule:    name,
				Message: fmt.Sprintf("unknown rule %q on %s", name, field),
			})
			continue
		}

		// Optional fields: only "required" fails on an empty value.
		if value == "" && name != "required" {
			continue
		}

		if !c.fn(value, param, data) {
			errs = append(errs, FieldError{
				Field:   field,
				Rule:    name,
				Message: renderMessage(c.message, field, param),
			})
		}
	}
	return errs
}

// Validate runs ValidateField for every declared field and aggregates the
// outcome. Fields absent from data are validated as empty strings.
func (v *Validator) Validate(data map[string]string, set RuleSet) Result {
	result := Result{Valid: true, Errors: make(map[string][]FieldError)}
	for field, specs := range set {
		if errs := v.ValidateField(field, data[field], specs, data); len(errs) > 0 {
			result.Valid = false
			result.Errors[field] = errs
		}
	}
	return result
}

// ValidateAsync runs synchronous validation first; only when it passes are
// "unique" rules evaluated through the installed checker. A missing checker is
// an error for rule sets that declare uniqueness.
func (v *Validator) ValidateAsync(ctx context.Context, data map[string]string, set RuleSet) (Result, error) {
	result := v.Validate(data, set)
	if !result.Valid {
		return result, nil
	}

	for field, specs := range set {
		for _, spec := range specs {
			name, _ := splitSpec(spec)
			if name != "unique" {
				continue
			}
			if v.uniqueFn == nil {
				return result, fmt.Errorf("rule set declares unique on %s but no unique checker is installed", field)
			}
			ok, err := v.uniqueFn(ctx, field, data[field])
			if err != nil {
				return result, fmt.Errorf("unique check for %s: %w", field, err)
			}
			if !ok {
				result.Valid = false
				result.Errors[field] = append(result.Errors[field], FieldError{
					Field:   field,
					Rule:    "unique",
					Message: renderMessage("{field} is already taken", field, ""),
				})
			}
		}
	}
	return result, nil
}

func splitSpec(spec string) (name, param string) {
	if i := strings.Index(spec, ":"); i >= 0 {
		return spec[:i], spec[i+1:]
	}
	return spec, ""
}

func renderMessage(tmpl, field, param string) string {
	r := strings.NewReplacer(
		"{field}", field,
		"{param}", param,
		"{min}", param,
		"{max}", param,
	)
	return r.Replace(tmpl)
}

var (
	emailRe        = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	alphanumericRe = regexp.MustCompile(`^[a-zA-Z0-9]+$`)
	numericRe      = regexp.MustCompile(`^-?\d+(\.\d+)?$`)
	phoneRe        = regexp.MustCompile(`^\+?[\d\s\-().]{7,20}$`)
)

func (v *Validator) registerBuiltins() {
	v.Register("required", func(value, _ string, _ map[string]string) bool {
		return strings.TrimSpace(value) != ""
	}, "{field} is required")

	v.Register("email", func(value, _ string, _ map[string]string) bool {
		return emailRe.MatchString(value)
	}, "{field} must be a valid email address")

	v.Register("minLength", func(value, param string, _ map[string]string) bool {
		n, err := strconv.Atoi(param)
		return err == nil && len([]rune(value)) >= n
	}, "{field} must be at least {min} characters")

	v.Register("maxLength", func(value, param string, _ map[string]string) bool {
		n, err := strconv.Atoi(param)
		return err == nil && len([]rune(value)) <= n
	}, "{field} must be at most {max} characters")

	v.Register("min", func(value, param string, _ map[string]string) bool {
		got, err1 := strconv.ParseFloat(value, 64)
		want, err2 := strconv.ParseFloat(param, 64)
		return err1 == nil && err2 == nil && got >= want
	}, "{field} must be at least {min}")

	v.Register("max", func(value, param string, _ map[string]string) bool {
		got, err1 := strconv.ParseFloat(value, 64)
		want, err2 := strconv.ParseFloat(param, 64)
		return err1 == nil && err2 == nil && got <= want
	}, "{field} must be at most {max}")

	v.Register("pattern", func(value, param string, _ map[string]string) bool {
		re, err := regexp.Compile(param)
		return err == nil && re.MatchString(value)
	}, "{field} has an invalid format")

	v.Register("alphanumeric", func(value, _ string, _ map[string]string) bool {
		return alphanumericRe.MatchString(value)
	}, "{field} may only contain letters and numbers")

	v.Register("numeric", func(value, _ string, _ map[string]string) bool {
		return numericRe.MatchString(value)
	}, "{field} must be a number")

	v.Register("strongPassword", func(value, _ string, _ map[string]string) bool {
		return isStrongPassword(value)
	}, "{field} must be at least 8 characters with upper and lower case letters, a digit, and a symbol")

	v.Register("phone", func(value, _ string, _ map[string]string) bool {
		return phoneRe.MatchString(value)
	}, "{field} must be a valid phone number")

	v.Register("url", func(value, _ string, _ map[string]string) bool {
		u, err := url.Parse(value)
		return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
	}, "{field} must be a valid URL")

	v.Register("date", func(value, _ string, _ map[string]string) bool {
		_, err := time.Parse("2006-01-02", value)
		return err == nil
	}, "{field} must be a valid date (YYYY-MM-DD)")

	v.Register("creditCard", func(value, _ string, _ map[string]string) bool {
		return luhnValid(value)
	}, "{field} must be a valid card number")
}

func isStrongPassword(s string) bool {
	if len(s) < 8 {
		return false
	}
	var upper, lower, digit, special bool
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			special = true
		}
	}
	return upper && lower && digit && special
}

// luhnValid reports whether s passes the Luhn checksum. Spaces and hyphens are
// tolerated; any other non-digit fails.
func luhnValid(s string) bool {
	var digits []int
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits = append(digits, int(r-'0'))
		case r == ' ' || r == '-':
		default:
			return false
		}
	}
	if len(digits) < 12 || len(digits) > 19 {
		return false
	}

	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := digits[i]
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}
