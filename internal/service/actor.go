package service

import "github.com/Skotchmaster/storefront/internal/models"

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID uint
	Role   string
}

func (a Actor) IsAdmin() bool { return a.Role == models.RoleAdmin }

// Owns reports whether the actor may see a resource owned by userID.
func (a Actor) Owns(userID uint) bool { return a.IsAdmin() || a.UserID == userID }
