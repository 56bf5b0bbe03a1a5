package models

import "time"

// Review is a customer's rating of a product.
type Review struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ProductID string    `json:"productId" gorm:"index;uniqueIndex:idx_review_product_user;type:varchar(36)"`
	Product   *Product  `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	UserID    string    `json:"userId" gorm:"index;uniqueIndex:idx_review_product_user;type:varchar(36)"`
	User      *User     `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Rating    int       `json:"rating"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
