// Package forms defines the named validation rule sets used by the HTTP
// handlers and wires the uniqueness check to the user store.
package forms

import (
	"context"
	"errors"

	"github.com/gamevault/gamevault/internal/repository"
	apperrors "github.com/gamevault/gamevault/pkg/errors"
	"github.com/gamevault/gamevault/pkg/rules"
)

// Registration validates the sign-up form. Username and email must also pass
// the async uniqueness check before an account is created.
var Registration = rules.RuleSet{
	"username":        {"required", "minLength:3", "maxLength:24", "alphanumeric", "unique"},
	"email":           {"required", "email", "unique"},
	"password":        {"required", "strongPassword"},
	"confirmPassword": {"required", "confirmPassword:password"},
}

// Login validates the sign-in form.
var Login = rules.RuleSet{
	"identifier": {"required"},
	"password":   {"required"},
}

// Review validates the review submission form.
var Review = rules.RuleSet{
	"rating": {"required", "numeric", "min:0", "max:10"},
	"title":  {"maxLength:120"},
	"body":   {"required", "minLength:10", "maxLength:10000"},
}

// Contact validates the support contact form.
var Contact = rules.RuleSet{
	"name":    {"required", "minLength:2"},
	"email":   {"required", "email"},
	"phone":   {"phone"},
	"message": {"required", "minLength:20", "maxLength:5000"},
}

// Payment validates the checkout card form.
var Payment = rules.RuleSet{
	"cardNumber": {"required", "creditCard"},
	"cardHolder": {"required", "minLength:2"},
	"expiry":     {"required", "pattern:^(0[1-9]|1[0-2])\\/\\d{2}$"},
	"cvv":        {"required", "numeric", "minLength:3", "maxLength:4"},
}

// NewValidator builds the validator used by the API, with the uniqueness
// check bound to the user store for username and email fields.
func NewValidator(users repository.UserRepository) *rules.Validator {
	v := rules.New()
	v.SetUniqueCheck(func(ctx context.Context, field, value string) (bool, error) {
		var err error
		switch field {
		case "username":
			_, err = users.GetByUsername(ctx, value)
		case "email":
			_, err = users.GetByEmail(ctx, value)
		default:
			return true, nil
		}
		if errors.Is(err, apperrors.ErrNotFound) {
			return true, nil
		}
		if err != nil {
			return false, err
		}
		// A hit means the value is taken.
		return false, nil
	})
	return v
}
