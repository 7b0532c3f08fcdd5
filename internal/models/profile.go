package models

// Profile is the one-per-user record in the hosted "profiles" table.
// GradYear is nil when the submitted year had no leading digits.
type Profile struct {
	ID       string `json:"id"`
	Major    string `json:"major"`
	GradYear *int   `json:"grad_year"`
	Email    string `json:"email"`
}
