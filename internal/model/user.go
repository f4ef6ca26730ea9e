package model

import "golang.org/x/crypto/bcrypt"

// User is a seller or admin account at the counter.
type User struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Username     string `gorm:"type:varchar(80);uniqueIndex;not null" json:"username" validate:"required"`
	PasswordHash string `gorm:"type:varchar(256);not null" json:"-"`
	IsAdmin      bool   `gorm:"default:false" json:"is_admin"`

	// TokenVersion invalidates old JWTs when the user logs in elsewhere.
	TokenVersion string `gorm:"type:varchar(255);default:''" json:"-"`
}

// SetPassword hashes and sets the user's password.
func (u *User) SetPassword(password string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashed)
	return nil
}

// CheckPassword verifies the provided password against the stored hash.
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}
