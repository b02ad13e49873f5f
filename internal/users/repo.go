package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/angelmondragon/vendorverse/internal/session"
	"github.com/angelmondragon/vendorverse/pkg/db"
	"github.com/angelmondragon/vendorverse/pkg/db/models"
	pkgerrors "github.com/angelmondragon/vendorverse/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const emailConstraint = "email"

// Repository is the users-table registry shared by every storefront process.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(conn *gorm.DB) (*Repository, error) {
	if conn == nil {
		return nil, fmt.Errorf("gorm db required")
	}
	return &Repository{db: conn}, nil
}

// FindByEmail retrieves the user matching the provided email exactly.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*session.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, session.ErrUserNotFound
		}
		return nil, err
	}
	return FromModel(&user), nil
}

// Insert creates a users row, mapping unique violations to DUPLICATE_EMAIL.
func (r *Repository) Insert(ctx context.Context, user session.User) error {
	if err := r.db.WithContext(ctx).Create(ToModel(user)).Error; err != nil {
		if db.IsUniqueViolation(err, emailConstraint) {
			return pkgerrors.Wrap(pkgerrors.CodeDuplicateEmail, err, "user already exists")
		}
		return err
	}
	return nil
}

func (r *Repository) Count(ctx context.Context) (int, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

// Seed inserts users that are not yet present, leaving existing rows untouched.
func (r *Repository) Seed(ctx context.Context, users []session.User) error {
	if len(users) == 0 {
		return nil
	}
	rows := make([]*models.User, 0, len(users))
	for _, user := range users {
		rows = append(rows, ToModel(user))
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows).Error
}

var _ session.Registry = (*Repository)(nil)
