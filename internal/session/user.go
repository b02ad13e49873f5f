package session

import (
	"strings"

	"github.com/angelmondragon/vendorverse/pkg/enums"
	pkgerrors "github.com/angelmondragon/vendorverse/pkg/errors"
)

// User is the identity held by a session and persisted in the current-identity slot.
type User struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	Name             string     `json:"name"`
	Role             enums.Role `json:"role"`
	Avatar           *string    `json:"avatar,omitempty"`
	IsApproved       *bool      `json:"isApproved,omitempty"`
	StoreName        *string    `json:"storeName,omitempty"`
	StoreDescription *string    `json:"storeDescription,omitempty"`
}

// IsMerchant reports whether the identity owns a store.
func (u User) IsMerchant() bool {
	return u.Role == enums.RoleMerchant
}

func (u User) clone() *User {
	out := u
	out.Avatar = cloneString(u.Avatar)
	out.StoreName = cloneString(u.StoreName)
	out.StoreDescription = cloneString(u.StoreDescription)
	if u.IsApproved != nil {
		approved := *u.IsApproved
		out.IsApproved = &approved
	}
	return &out
}

// valid reports whether a restored identity carries the fields every session needs.
func (u User) valid() bool {
	return strings.TrimSpace(u.ID) != "" && strings.TrimSpace(u.Email) != "" && u.Role.IsValid()
}

// RegisterInput carries the registration form. Password is checked for presence
// only and is never stored.
type RegisterInput struct {
	Email            string
	Password         string
	Name             string
	Role             enums.Role
	StoreName        string
	StoreDescription string
}

func (in RegisterInput) validate() error {
	fields := map[string]string{}
	if strings.TrimSpace(in.Email) == "" {
		fields["email"] = "email is required"
	}
	if in.Password == "" {
		fields["password"] = "password is required"
	}
	if strings.TrimSpace(in.Name) == "" {
		fields["name"] = "name is required"
	}
	if !in.Role.IsValid() {
		fields["role"] = "role must be one of admin, merchant, customer"
	}
	if in.Role == enums.RoleMerchant && strings.TrimSpace(in.StoreName) == "" {
		fields["storeName"] = "store name is required for merchants"
	}
	if len(fields) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid registration").WithDetails(fields)
	}
	return nil
}

func (in RegisterInput) toUser(id string) User {
	user := User{
		ID:    id,
		Email: in.Email,
		Name:  strings.TrimSpace(in.Name),
		Role:  in.Role,
	}
	if in.Role == enums.RoleMerchant {
		approved := false
		user.IsApproved = &approved
		user.StoreName = optionalString(in.StoreName)
		user.StoreDescription = optionalString(in.StoreDescription)
	}
	return user
}

// DefaultUsers returns the demo accounts every fresh registry starts with.
func DefaultUsers() []User {
	approved := true
	return []User{
		{
			ID:    "1",
			Email: "admin@vendorverse.com",
			Name:  "Admin User",
			Role:  enums.RoleAdmin,
		},
		{
			ID:               "2",
			Email:            "merchant@example.com",
			Name:             "John Smith",
			Role:             enums.RoleMerchant,
			IsApproved:       &approved,
			StoreName:        optionalString("Tech Haven"),
			StoreDescription: optionalString("Your one-stop shop for all tech gadgets"),
		},
		{
			ID:    "3",
			Email: "customer@example.com",
			Name:  "Jane Doe",
			Role:  enums.RoleCustomer,
		},
	}
}

func optionalString(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	out := *value
	return &out
}
