package entities

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var validate = validator.New()

// User is a registered account. PasswordHash never leaves the server.
type User struct {
	ID           string    `gorm:"type:text;primaryKey" json:"id"`
	Email        string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Username     string    `gorm:"uniqueIndex;size:32;not null" json:"username"`
	PasswordHash string    `gorm:"not null" json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return
}

// Profile is the public representation of a user.
type Profile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
}

func (u *User) Profile() Profile {
	return Profile{ID: u.ID, Email: u.Email, Username: u.Username, CreatedAt: u.CreatedAt}
}

// ValidateRegistration checks the registration input and returns messages
// keyed by field. An empty map means the input is acceptable.
func ValidateRegistration(email, username, password string) map[string]string {
	errs := map[string]string{}

	switch n := utf8.RuneCountInString(email); {
	case strings.TrimSpace(email) == "":
		errs["email"] = "Cannot be empty"
	case n > 255:
		errs["email"] = "Email must be at most 255 characters."
	case validate.Var(email, "email") != nil:
		errs["email"] = "Wrong Format"
	}

	// login treats an identifier with '@' as an email
	switch n := utf8.RuneCountInString(username); {
	case n < 3 || n > 32:
		errs["username"] = "Username must be between 3 and 32 characters."
	case strings.Contains(username, "@"):
		errs["username"] = "Username must not contain '@'."
	}

	if n := utf8.RuneCountInString(password); n < 6 || n > 255 {
		errs["password"] = "Password must be between 6 and 255 characters."
	}

	return errs
}
