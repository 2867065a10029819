package rules

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_ValidPayload(t *testing.T) {
	v := New()
	set := RuleSet{
		"username": {"required", "minLength:3", "maxLength:20", "alphanumeric"},
		"email":    {"required", "email"},
	}
	data := map[string]string{"username": "player1", "email": "player1@example.com"}

	result := v.Validate(data, set)

	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
}

func TestValidate_FailsIffAnyRuleFails(t *testing.T) {
	v := New()
	set := RuleSet{"username": {"required", "minLength:3"}}

	bad := v.Validate(map[string]string{"username": "ab"}, set)
	assert.False(t, bad.Valid)
	assert.Equal(t, "username must be at least 3 characters", bad.First("username"))

	good := v.Validate(map[string]string{"username": "abc"}, set)
	assert.True(t, good.Valid)
}

func TestValidate_Idempotent(t *testing.T) {
	v := New()
	set := RuleSet{"email": {"required", "email"}}
	data := map[string]string{"email": "a@b.co"}

	first := v.Validate(data, set)
	second := v.Validate(data, set)

	assert.Equal(t, first, second)
	assert.True(t, second.Valid)
}

func TestValidateField_CollectsAllFailures(t *testing.T) {
	v := New()

	errs := v.ValidateField("password", "ab", []string{"minLength:8", "strongPassword"}, nil)

	require.Len(t, errs, 2)
	assert.Equal(t, "minLength", errs[0].Rule)
	assert.Equal(t, "strongPassword", errs[1].Rule)
}

func TestValidate_OptionalFieldSkipsRulesWhenEmpty(t *testing.T) {
	v := New()
	set := RuleSet{"website": {"url"}}

	assert.True(t, v.Validate(map[string]string{}, set).Valid)
	assert.False(t, v.Validate(map[string]string{"website": "not a url"}, set).Valid)
	assert.True(t, v.Validate(map[string]string{"website": "https://gamevault.dev"}, set).Valid)
}

func TestConfirmPassword_CrossField(t *testing.T) {
	v := New()
	set := RuleSet{
		"password":        {"required", "minLength:8"},
		"confirmPassword": {"required", "confirmPassword:password"},
	}

	match := v.Validate(map[string]string{
		"password":        "Sup3r$ecret",
		"confirmPassword": "Sup3r$ecret",
	}, set)
	assert.True(t, match.Valid)

	mismatch := v.Validate(map[string]string{
		"password":        "Sup3r$ecret",
		"confirmPassword": "different",
	}, set)
	assert.False(t, mismatch.Valid)
	assert.Equal(t, "confirmPassword does not match password", mismatch.First("confirmPassword"))
}

func TestCreditCard_Luhn(t *testing.T) {
	v := New()
	set := RuleSet{"cardNumber": {"required", "creditCard"}}

	valid := []string{
		"4111111111111111",
		"4111 1111 1111 1111",
		"5500-0000-0000-0004",
	}
	for _, card := range valid {
		assert.True(t, v.Validate(map[string]string{"cardNumber": card}, set).Valid, card)
	}

	// Single-digit alterations of a valid number must fail the checksum.
	invalid := []string{
		"4111111111111112",
		"4111111111111121",
		"5111111111111111",
		"not-a-card",
	}
	for _, card := range invalid {
		assert.False(t, v.Validate(map[string]string{"cardNumber": card}, set).Valid, card)
	}
}

func TestBuiltins(t *testing.T) {
	v := New()

	cases := []struct {
		spec  string
		value string
		ok    bool
	}{
		{"email", "a@b.co", true},
		{"email", "a@b", false},
		{"min:5", "7", true},
		{"min:5", "3", false},
		{"max:10", "10", true},
		{"max:10", "11", false},
		{"numeric", "-3.5", true},
		{"numeric", "abc", false},
		{"alphanumeric", "abc123", true},
		{"alphanumeric", "abc 123", false},
		{"pattern:^[A-Z]{2}\\d{4}$", "AB1234", true},
		{"pattern:^[A-Z]{2}\\d{4}$", "ab1234", false},
		{"strongPassword", "Sup3r$ecret", true},
		{"strongPassword", "weakpassword", false},
		{"phone", "+34 600 123 456", true},
		{"phone", "abc", false},
		{"url", "https://gamevault.dev/games", true},
		{"url", "gamevault.dev", false},
		{"date", "2026-08-27", true},
		{"date", "27/08/2026", false},
	}
	for _, tc := range cases {
		errs := v.ValidateField("f", tc.value, []string{tc.spec}, nil)
		assert.Equal(t, tc.ok, len(errs) == 0, "%s on %q", tc.spec, tc.value)
	}
}

func TestRegister_CustomRuleAndMessage(t *testing.T) {
	v := New()
	v.Register("slug", func(value, _ string, _ map[string]string) bool {
		for _, r := range value {
			if !(r == '-' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')) {
				return false
			}
		}
		return value != ""
	}, "{field} must be a lowercase slug")

	errs := v.ValidateField("gameSlug", "Not A Slug", []string{"slug"}, nil)
	require.Len(t, errs, 1)
	assert.Equal(t, "gameSlug must be a lowercase slug", errs[0].Message)

	v.SetMessage("slug", "{field} looks wrong")
	errs = v.ValidateField("gameSlug", "Not A Slug", []string{"slug"}, nil)
	assert.Equal(t, "gameSlug looks wrong", errs[0].Message)
}

func TestValidate_UnknownRuleIsAnError(t *testing.T) {
	v := New()

	result := v.Validate(map[string]string{"f": "x"}, RuleSet{"f": {"noSuchRule"}})

	assert.False(t, result.Valid)
	assert.Contains(t, result.First("f"), "unknown rule")
}

func TestValidateAsync_UniqueRunsOnlyAfterSyncPasses(t *testing.T) {
	v := New()
	var uniqueCalls int
	v.SetUniqueCheck(func(_ context.Context, field, value string) (bool, error) {
		uniqueCalls++
		return value != "taken", nil
	})
	set := RuleSet{"username": {"required", "minLength:3", "unique"}}

	// Sync failure short-circuits the async check.
	result, err := v.ValidateAsync(context.Background(), map[string]string{"username": "ab"}, set)
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Zero(t, uniqueCalls)

	// Sync pass, unique conflict.
	result, err = v.ValidateAsync(context.Background(), map[string]string{"username": "taken"}, set)
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, 1, uniqueCalls)
	assert.Equal(t, "username is already taken", result.First("username"))

	// Sync pass, unique pass.
	result, err = v.ValidateAsync(context.Background(), map[string]string{"username": "fresh"}, set)
	require.NoError(t, err)
	assert.True(t, result.Valid)
}

func TestValidateAsync_MissingCheckerErrors(t *testing.T) {
	v := New()
	set := RuleSet{"username": {"required", "unique"}}

	_, err := v.ValidateAsync(context.Background(), map[string]string{"username": "x"}, set)
	assert.Error(t, err)
}

func TestValidateAsync_PropagatesCheckerError(t *testing.T) {
	v := New()
	boom := errors.New("store unavailable")
	v.SetUniqueCheck(func(context.Context, string, string) (bool, error) { return false, boom })
	set := RuleSet{"email": {"required", "email", "unique"}}

	_, err := v.ValidateAsync(context.Background(), map[string]string{"email": "a@b.co"}, set)
	assert.ErrorIs(t, err, boom)
}

func TestValidate_SyncIgnoresUniqueRule(t *testing.T) {
	v := New()
	set := RuleSet{"username": {"required", "unique"}}

	result := v.Validate(map[string]string{"username": "anything"}, set)
	assert.True(t, result.Valid)
}
