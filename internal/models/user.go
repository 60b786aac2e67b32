// internal/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

// User is an identity record. Role-dependent fields are optional:
// municipality applies to everyone except system-wide admins, ward to
// residents and councillors, department to officials and workers, and
// title to executives.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name         string             `bson:"name" json:"name" validate:"required,min=2,max=100"`
	Email        string             `bson:"email" json:"email" validate:"required,email"`
	PasswordHash string             `bson:"password_hash" json:"-"`

	Role         Role       `bson:"role" json:"role"`
	Municipality string     `bson:"municipality,omitempty" json:"municipality,omitempty"`
	Title        string     `bson:"title,omitempty" json:"title,omitempty"`
	Ward         int        `bson:"ward,omitempty" json:"ward,omitempty"`
	Department   Department `bson:"department,omitempty" json:"department,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// SetPassword hashes and stores the given plaintext password.
func (u *User) SetPassword(password string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashed)
	return nil
}

// ComparePassword checks a login attempt against the stored hash.
func (u *User) ComparePassword(candidate string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(candidate)) == nil
}

// IsWorker reports whether the user can be assigned field work.
func (u *User) IsWorker() bool {
	return u.Role == RoleMunicipalWorker
}

// WorksInDepartment reports whether the user belongs to the given
// department of the given municipality.
func (u *User) WorksInDepartment(department Department, municipality string) bool {
	return u.Department == department && u.Municipality == municipality
}
