package users

import (
	"github.com/angelmondragon/vendorverse/internal/session"
	"github.com/angelmondragon/vendorverse/pkg/db/models"
	"github.com/angelmondragon/vendorverse/pkg/enums"
)

// FromModel converts a users row into a session identity.
func FromModel(u *models.User) *session.User {
	if u == nil {
		return nil
	}
	return &session.User{
		ID:               u.ID,
		Email:            u.Email,
		Name:             u.Name,
		Role:             enums.Role(u.Role),
		Avatar:           u.Avatar,
		IsApproved:       u.IsApproved,
		StoreName:        u.StoreName,
		StoreDescription: u.StoreDescription,
	}
}

// ToModel converts a session identity into a users row.
func ToModel(u session.User) *models.User {
	return &models.User{
		ID:               u.ID,
		Email:            u.Email,
		Name:             u.Name,
		Role:             u.Role.String(),
		Avatar:           u.Avatar,
		IsApproved:       u.IsApproved,
		StoreName:        u.StoreName,
		StoreDescription: u.StoreDescription,
	}
}
