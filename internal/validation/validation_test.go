package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePassword(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"Valid", "secret123", false},
		{"Exactly Min Length", "abcdef12", false},
		{"Exactly Max Length", strings.Repeat("a", 127) + "1", false},
		{"Too Short", "abc12", true},
		{"Too Long", strings.Repeat("a", 128) + "1", true},
		{"No Digit", "onlyletters", true},
		{"No Letter", "1234567890", true},
		{"Unicode Letters", "Ångström99", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateUsername(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		username string
		wantErr  bool
	}{
		{"Valid", "test_user123", false},
		{"Too Short", "tu", true},
		{"Too Long", strings.Repeat("u", 31), true},
		{"Illegal Chars", "user@123", true},
		{"Starts Dash", "-user", true},
		{"Ends Underscore", "user_", true},
		{"Reserved", "Admin", true},
		{"Reserved Route Segment", "user", true},
		{"Contains Reserved", "username", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.username)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateProjectName(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidateProjectName("Projectarium"))
	assert.Error(t, ValidateProjectName("   "))
	assert.Error(t, ValidateProjectName("a/b"))
	assert.Error(t, ValidateProjectName(strings.Repeat("p", 61)))
	assert.EqualError(t, ValidateProjectName("comments"), "project name is reserved")
	assert.EqualError(t, ValidateProjectName(" Liked "), "project name is reserved")
	assert.NoError(t, ValidateProjectName("liked-things"))
}

func TestValidateLink(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidateLink(""))
	assert.NoError(t, ValidateLink("https://github.com/acme/tool"))
	assert.Error(t, ValidateLink("ftp://example.com"))
	assert.Error(t, ValidateLink("not a url"))
	assert.Error(t, ValidateLink("https://"))
}
