package models

type UserRole string

const (
	RoleAdmin    UserRole = "admin"
	RoleOperator UserRole = "operator"
	RoleViewer   UserRole = "viewer"
)

type User struct {
	Base
	Username     string   `gorm:"uniqueIndex;size:150;not null" json:"username"`
	Email        string   `gorm:"size:255" json:"email"`
	FirstName    string   `gorm:"size:128" json:"first_name"`
	LastName     string   `gorm:"size:128" json:"last_name"`
	PasswordHash string   `gorm:"not null" json:"-"`
	Role         UserRole `gorm:"type:varchar(20);not null" json:"role"`
	IsActive     bool     `gorm:"default:true" json:"is_active"`
}

func (u *User) EntityType() string { return "user" }

func (u *User) DisplayLabel() string {
	full := u.FirstName
	if u.LastName != "" {
		if full != "" {
			full += " "
		}
		full += u.LastName
	}
	if full != "" {
		return full + " (" + u.Username + ")"
	}
	return u.Username
}

// CanWrite reports whether the role may mutate business entities.
func (r UserRole) CanWrite() bool { return r == RoleAdmin || r == RoleOperator }

// CanViewSecrets reports whether the role may read decrypted inventory
// secrets (os/app/vnc passwords).
func (r UserRole) CanViewSecrets() bool { return r == RoleAdmin || r == RoleOperator }
