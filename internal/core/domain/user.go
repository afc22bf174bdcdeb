package domain

import (
	"net/mail"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/lorrc/cloudkitchen-backend/internal/core/errors"
)

// Password and profile validation constants
const (
	MinPasswordLength = 6
	MaxPasswordLength = 72 // bcrypt ignores bytes past 72
	MaxNameLength     = 255
	MaxEmailLength    = 255
	MaxLocationLength = 255
)

var mobileNoRegex = regexp.MustCompile(`^[0-9]{10,15}$`)

// Role is the authorization role carried by a user account.
type Role string

const (
	RoleUser            Role = "user"
	RoleAdmin           Role = "admin"
	RoleRestaurantOwner Role = "restaurant_owner"
)

// IsValid reports whether the role is recognized.
func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleRestaurantOwner:
		return true
	}
	return false
}

// PasswordRequirements defines what a valid password needs
type PasswordRequirements struct {
	MinLength        int
	RequireUppercase bool
	RequireLowercase bool
	RequireNumber    bool
}

// DefaultPasswordRequirements returns the default password requirements
func DefaultPasswordRequirements() PasswordRequirements {
	return PasswordRequirements{
		MinLength: MinPasswordLength,
	}
}

// User is a storefront customer or back-office administrator.
type User struct {
	ID           uuid.UUID
	Name         string
	Email        string
	PasswordHash string
	Location     string
	MobileNo     string
	Role         Role
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserRegistrationParams holds parameters for user registration
type UserRegistrationParams struct {
	Name     string
	Email    string
	Password string
	Location string
	MobileNo string
	Role     Role
}

// Validate validates user registration parameters
func (p *UserRegistrationParams) Validate() error {
	errs := apperrors.NewValidationErrors()

	name := strings.TrimSpace(p.Name)
	if name == "" {
		errs.Add("name", "Name is required")
	} else if len(name) > MaxNameLength {
		errs.Add("name", "Name must be 255 characters or less")
	}

	email := NormalizeEmail(p.Email)
	if email == "" {
		errs.Add("email", "Email is required")
	} else if len(email) > MaxEmailLength {
		errs.Add("email", "Email must be 255 characters or less")
	} else if !isValidEmail(email) {
		errs.Add("email", "Please use a valid email address")
	}

	if len(p.Location) > MaxLocationLength {
		errs.Add("location", "Location must be 255 characters or less")
	}

	if p.MobileNo != "" && !mobileNoRegex.MatchString(p.MobileNo) {
		errs.Add("mobileNo", "Please use a valid phone number")
	}

	if p.Role != "" && !p.Role.IsValid() {
		errs.Add("role", "Unknown role")
	}

	for _, msg := range ValidatePassword(p.Password) {
		errs.Add("password", msg)
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

// ValidatePassword checks if a password meets security requirements.
// Returns a slice of error messages (empty if valid).
func ValidatePassword(password string) []string {
	var problems []string
	requirements := DefaultPasswordRequirements()

	if len(password) < requirements.MinLength {
		problems = append(problems, "Password must be at least 6 characters long")
	}
	if len(password) > MaxPasswordLength {
		problems = append(problems, "Password must be 72 characters or less")
	}

	var hasUpper, hasLower, hasNumber bool
	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsNumber(char):
			hasNumber = true
		}
	}

	if requirements.RequireUppercase && !hasUpper {
		problems = append(problems, "Password must contain at least one uppercase letter")
	}
	if requirements.RequireLowercase && !hasLower {
		problems = append(problems, "Password must contain at least one lowercase letter")
	}
	if requirements.RequireNumber && !hasNumber {
		problems = append(problems, "Password must contain at least one number")
	}

	return problems
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isValidEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

// CheckPassword verifies if the provided password matches the stored hash
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// SetPassword validates and replaces the stored password hash.
func (u *User) SetPassword(password string) error {
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	u.UpdatedAt = time.Now().UTC()
	return nil
}

// IsAdmin reports whether the user may use the admin dashboard.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin && u.IsActive
}

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	if problems := ValidatePassword(password); len(problems) > 0 {
		return "", apperrors.ErrPasswordTooWeak
	}

	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// NewUser creates a new user with validated parameters
func NewUser(params UserRegistrationParams) (*User, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	hashedPassword, err := HashPassword(params.Password)
	if err != nil {
		return nil, err
	}

	role := params.Role
	if role == "" {
		role = RoleUser
	}

	now := time.Now().UTC()
	return &User{
		ID:           uuid.New(),
		Name:         strings.TrimSpace(params.Name),
		Email:        NormalizeEmail(params.Email),
		PasswordHash: hashedPassword,
		Location:     strings.TrimSpace(params.Location),
		MobileNo:     params.MobileNo,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}
