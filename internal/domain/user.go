package domain

import "time"

type UserRole string

const (
	RoleAdmin   UserRole = "admin"
	RoleSeller  UserRole = "seller"
	RoleTeacher UserRole = "teacher"
	RoleStudent UserRole = "student"
)

// CanManageBookings reports whether the role may create bookings for
// other students or close their payment links.
func (r UserRole) CanManageBookings() bool {
	return r == RoleAdmin || r == RoleSeller
}

type User struct {
	ID           int64    `json:"id"`
	Email        string   `json:"email" validate:"required,email" gorm:"uniqueIndex;size:255"`
	PasswordHash string   `json:"-"`
	Role         UserRole `json:"role" gorm:"size:20;index"`
	FirstName    string   `json:"first_name"`
	LastName     string   `json:"last_name"`
	Phone        string   `json:"phone,omitempty"`
	State        string   `json:"state,omitempty"`

	// Capability flag: only users with this set may apply a manual
	// discount when creating a booking.
	AllowManualPrice bool `json:"allow_manual_price"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
