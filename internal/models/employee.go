package models

import "time"

// Employee represents an employee in the system
type Employee struct {
	ID        int       `json:"id" db:"id"`
	TenantID  string    `json:"tenant_id" db:"tenant_id"`
	Email     string    `json:"email" db:"email"`
	FirstName *string   `json:"first_name,omitempty" db:"first_name"`
	LastName  *string   `json:"last_name,omitempty" db:"last_name"`
	Phone     *string   `json:"phone,omitempty" db:"phone"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// FullName returns the employee's display name
func (e *Employee) FullName() string {
	var firstName, lastName string

	if e.FirstName != nil {
		firstName = *e.FirstName
	}
	if e.LastName != nil {
		lastName = *e.LastName
	}

	if firstName != "" && lastName != "" {
		return firstName + " " + lastName
	}
	if firstName != "" {
		return firstName
	}
	if lastName != "" {
		return lastName
	}
	return e.Email
}
