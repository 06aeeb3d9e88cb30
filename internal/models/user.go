package models

type UserRole string

const (
	// RoleFull sees everything: dashboard, statistics, export, deletions.
	RoleFull UserRole = "full"
	// RoleLimited only works the bons and frais screens.
	RoleLimited UserRole = "limited"
)

// User - static identity loaded from configuration. There are exactly two
// accounts (admin and agent), so there is no user table.
type User struct {
	Username     string
	PasswordHash string
	Role         UserRole
}
