package domain_test

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorrc/cloudkitchen-backend/internal/core/domain"
	apperrors "github.com/lorrc/cloudkitchen-backend/internal/core/errors"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name        string
		password    string
		expectValid bool
	}{
		{"six chars", "secret", true},
		{"mixed", "Password1!", true},
		{"too short", "abc12", false},
		{"empty", "", false},
		{"too long", strings.Repeat("p", 73), false},
		{"exactly 72", strings.Repeat("p", 72), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			problems := domain.ValidatePassword(tt.password)
			if tt.expectValid {
				assert.Empty(t, problems)
			} else {
				assert.NotEmpty(t, problems)
			}
		})
	}
}

func TestHashPassword(t *testing.T) {
	t.Run("valid password", func(t *testing.T) {
		hash, err := domain.HashPassword("secret1")
		require.NoError(t, err)
		assert.NotEmpty(t, hash)
		assert.NotEqual(t, "secret1", hash)
	})

	t.Run("weak password fails", func(t *testing.T) {
		hash, err := domain.HashPassword("abc")
		assert.ErrorIs(t, err, apperrors.ErrPasswordTooWeak)
		assert.Empty(t, hash)
	})
}

func TestUser_CheckPassword(t *testing.T) {
	hash, err := domain.HashPassword("secret1")
	require.NoError(t, err)

	user := &domain.User{ID: uuid.New(), PasswordHash: hash}

	assert.True(t, user.CheckPassword("secret1"))
	assert.False(t, user.CheckPassword("secret2"))
	assert.False(t, user.CheckPassword(""))
}

func TestUser_SetPassword(t *testing.T) {
	user := &domain.User{}
	require.NoError(t, user.SetPassword("newpass"))
	assert.True(t, user.CheckPassword("newpass"))

	assert.ErrorIs(t, user.SetPassword("x"), apperrors.ErrPasswordTooWeak)
}

func TestUserRegistrationParams_Validate(t *testing.T) {
	valid := domain.UserRegistrationParams{
		Name:     "Asha",
		Email:    "asha@example.com",
		Password: "secret1",
		Location: "Pune",
		MobileNo: "9876543210",
	}

	tests := []struct {
		name        string
		mutate      func(p *domain.UserRegistrationParams)
		errorFields []string
	}{
		{"valid params", func(p *domain.UserRegistrationParams) {}, nil},
		{"empty name", func(p *domain.UserRegistrationParams) { p.Name = "  " }, []string{"name"}},
		{"name too long", func(p *domain.UserRegistrationParams) { p.Name = strings.Repeat("a", 256) }, []string{"name"}},
		{"invalid email", func(p *domain.UserRegistrationParams) { p.Email = "not-an-email" }, []string{"email"}},
		{"bad mobile", func(p *domain.UserRegistrationParams) { p.MobileNo = "12ab" }, []string{"mobileNo"}},
		{"unknown role", func(p *domain.UserRegistrationParams) { p.Role = "owner" }, []string{"role"}},
		{"short password", func(p *domain.UserRegistrationParams) { p.Password = "abc" }, []string{"password"}},
		{
			"multiple errors",
			func(p *domain.UserRegistrationParams) { p.Name = ""; p.Email = "bad"; p.Password = "" },
			[]string{"name", "email", "password"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := valid
			tt.mutate(&params)
			err := params.Validate()

			if len(tt.errorFields) == 0 {
				assert.NoError(t, err)
				return
			}

			var validationErr *apperrors.ValidationErrors
			require.ErrorAs(t, err, &validationErr)
			for _, field := range tt.errorFields {
				assert.Contains(t, validationErr.Errors, field)
			}
		})
	}
}

func TestNewUser(t *testing.T) {
	t.Run("defaults role and normalizes email", func(t *testing.T) {
		user, err := domain.NewUser(domain.UserRegistrationParams{
			Name:     " Asha ",
			Email:    " Asha@Example.COM ",
			Password: "secret1",
		})
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, user.ID)
		assert.Equal(t, "Asha", user.Name)
		assert.Equal(t, "asha@example.com", user.Email)
		assert.Equal(t, domain.RoleUser, user.Role)
		assert.True(t, user.IsActive)
		assert.False(t, user.IsAdmin())
		assert.True(t, user.CheckPassword("secret1"))
		assert.False(t, user.CreatedAt.IsZero())
	})

	t.Run("admin role", func(t *testing.T) {
		user, err := domain.NewUser(domain.UserRegistrationParams{
			Name:     "Admin",
			Email:    "admin@example.com",
			Password: "admin123",
			Role:     domain.RoleAdmin,
		})
		require.NoError(t, err)
		assert.True(t, user.IsAdmin())

		user.IsActive = false
		assert.False(t, user.IsAdmin())
	})

	t.Run("invalid params", func(t *testing.T) {
		user, err := domain.NewUser(domain.UserRegistrationParams{Email: "invalid"})
		assert.Error(t, err)
		assert.Nil(t, user)
	})
}

func TestDefaultPasswordRequirements(t *testing.T) {
	reqs := domain.DefaultPasswordRequirements()

	assert.Equal(t, 6, reqs.MinLength)
	assert.False(t, reqs.RequireUppercase)
	assert.False(t, reqs.RequireLowercase)
	assert.False(t, reqs.RequireNumber)
}
