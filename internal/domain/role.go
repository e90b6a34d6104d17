package domain

// Roles carried in the platform-issued JWT.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)
