package wishlist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

const ensureWishlistSQL = `INSERT INTO wishlists (id, user_id, created_at)
VALUES (?, ?, ?)
ON CONFLICT (user_id) DO NOTHING`

// ErrDuplicateItem reports an insert that lost to a concurrent add.
var ErrDuplicateItem = errors.New("wishlist item already exists")

// Repository encapsulates wishlist persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a wishlist repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// EnsureWishlist lazily creates the user's wishlist row.
func (r *Repository) EnsureWishlist(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Exec(ensureWishlistSQL, uuid.New(), userID, time.Now().UTC()).
		Error
}

// LockByUser takes the row lock that serializes toggles for one user.
func (r *Repository) LockByUser(ctx context.Context, userID uuid.UUID) (*models.Wishlist, error) {
	var wishlist models.Wishlist
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		Take(&wishlist).Error
	if err != nil {
		return nil, err
	}
	return &wishlist, nil
}

// FindByUser loads the user's wishlist without its items.
func (r *Repository) FindByUser(ctx context.Context, userID uuid.UUID) (*models.Wishlist, error) {
	var wishlist models.Wishlist
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Take(&wishlist).Error; err != nil {
		return nil, err
	}
	return &wishlist, nil
}

// AddItem inserts a membership row. It returns ErrDuplicateItem when the
// product is already listed; the surrounding transaction is unusable after that.
func (r *Repository) AddItem(ctx context.Context, wishlistID, productID uuid.UUID) error {
	item := models.WishlistItem{
		ID:         uuid.New(),
		WishlistID: wishlistID,
		ProductID:  productID,
	}
	err := r.db.WithContext(ctx).Create(&item).Error
	if db.IsUniqueViolation(err, "") {
		return fmt.Errorf("%w: %v", ErrDuplicateItem, err)
	}
	return err
}

// RemoveItem deletes the membership row and reports whether one existed.
func (r *Repository) RemoveItem(ctx context.Context, wishlistID, productID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("wishlist_id = ? AND product_id = ?", wishlistID, productID).
		Delete(&models.WishlistItem{})
	return res.RowsAffected, res.Error
}

// ListItems returns memberships newest first.
func (r *Repository) ListItems(ctx context.Context, wishlistID uuid.UUID) ([]models.WishlistItem, error) {
	var items []models.WishlistItem
	err := r.db.WithContext(ctx).
		Where("wishlist_id = ?", wishlistID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
