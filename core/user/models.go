package user

import (
	"strings"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/core"
)

// Roles
const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

var AllRoles = []Role{RoleStudent, RoleTeacher, RoleAdmin}

type Role string

// ParseRole returns the known role matching s, or "" (unknown role).
func ParseRole(s string) Role {
	r := Role(core.CleanString(s, true /* lower */))
	for _, role := range AllRoles {
		if r == role {
			return r
		}
	}
	return ""
}

func (r Role) Valid() bool { return ParseRole(string(r)) != "" }

// Profile is the application record of a user, sharing the Identity's id.
type Profile struct {
	ID          string      `db:"id" json:"id"`
	Email       string      `db:"email" json:"email"`
	FullName    string      `db:"full_name" json:"full_name"`
	Role        Role        `db:"role" json:"role"`
	DateOfBirth null.String `db:"date_of_birth" json:"date_of_birth"`
	Phone       null.String `db:"phone" json:"phone"`
	Address     null.String `db:"address" json:"address"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"` // UTC
}

func (p Profile) IsAdmin() bool   { return p.Role == RoleAdmin }
func (p Profile) IsTeacher() bool { return p.Role == RoleTeacher }
func (p Profile) IsStudent() bool { return p.Role == RoleStudent }

// FirstName is used to greet the user in emails.
func (p Profile) FirstName() string {
	if fields := strings.Fields(p.FullName); len(fields) > 0 {
		return fields[0]
	}
	return p.FullName
}

// Identity is the account held by the Identity Store.
type Identity struct {
	ID        string                 `json:"id"`
	Email     string                 `json:"email"`
	UpdatedAt time.Time              `json:"updated_at"`
	Metadata  map[string]interface{} `json:"user_metadata,omitempty"`
}

// GetFilter selects a single user by ID or, if ID is empty, by Email.
type GetFilter struct {
	ID    string
	Email string
}

func (f GetFilter) IsEmpty() bool { return f.ID == "" && f.Email == "" }

func (f GetFilter) String() string {
	if f.ID != "" {
		return "id=" + f.ID
	}
	return "email=" + f.Email
}

// NewStudent contains information needed to invite a new user.
// Role defaults to student.
type NewStudent struct {
	Email       string   `json:"email" validate:"required,email"`
	FullName    string   `json:"full_name" validate:"required,person_name"`
	DateOfBirth string   `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	Phone       string   `json:"phone" validate:"omitempty,phone"`
	Address     string   `json:"address" validate:"omitempty,max=255"`
	Role        Role     `json:"role" validate:"omitempty,role"`
	Subjects    []string `json:"subjects" validate:"omitempty,dive,required"`
}

// Clean normalizes the user provided fields before validation.
func (ns *NewStudent) Clean() {
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	ns.FullName = core.CleanString(ns.FullName)
	ns.DateOfBirth = core.CleanString(ns.DateOfBirth)
	ns.Phone = core.CleanString(ns.Phone)
	ns.Address = core.CleanString(ns.Address)
	if raw := core.CleanString(string(ns.Role), true /* lower */); raw == "" {
		ns.Role = RoleStudent
	} else {
		ns.Role = Role(raw) // validated by the role tag
	}
	subjects := ns.Subjects[:0]
	for _, s := range ns.Subjects {
		if s = core.CleanString(s); s != "" {
			subjects = append(subjects, s)
		}
	}
	ns.Subjects = subjects
}

// SetupPassword is sent by an invited user to choose a password.
type SetupPassword struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func nullString(s string) null.String {
	return null.NewString(s, s != "")
}
