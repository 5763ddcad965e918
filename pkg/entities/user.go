package entities

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-record/pkg/catalog"
	"github.com/ekaya-inc/ekaya-record/pkg/database"
	"github.com/ekaya-inc/ekaya-record/pkg/record"
)

// UserTable is the table backing User.
const UserTable = "users"

// UserDefinition maps User onto UserTable. Only name and email are writable.
var UserDefinition = record.Definition{
	Table:     UserTable,
	Fillable:  []string{"name", "email"},
	Relations: []string{"posts"},
}

// User is an account.
type User struct {
	ID        int64     `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	Email     string    `json:"email" yaml:"email"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// MapUser converts a users record into a User.
func MapUser(m *record.Model) (User, error) {
	var (
		u   User
		err error
	)
	if u.ID, err = m.Int64("id"); err != nil {
		return User{}, fmt.Errorf("map user: %w", err)
	}
	if u.Name, err = m.Text("name"); err != nil {
		return User{}, fmt.Errorf("map user %d: %w", u.ID, err)
	}
	if u.Email, err = m.Text("email"); err != nil {
		return User{}, fmt.Errorf("map user %d: %w", u.ID, err)
	}
	if u.CreatedAt, err = m.Time("created_at"); err != nil {
		return User{}, fmt.Errorf("map user %d: %w", u.ID, err)
	}
	return u, nil
}

// NewUserRepository creates a repository for users.
func NewUserRepository(conn *database.Connection, introspector catalog.Introspector, logger *zap.Logger) *record.Repository[User] {
	return record.NewRepository(conn, introspector, UserDefinition, MapUser, logger)
}
