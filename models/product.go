package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Product represents a catalog product. Image keys reference objects in S3 and
// are resolved to signed URLs at response time, never stored as URLs.
type Product struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name          string             `bson:"name" json:"name"`
	Description   string             `bson:"description" json:"description"`
	Price         float64            `bson:"price" json:"price"`
	OriginalPrice float64            `bson:"original_price" json:"original_price"`
	Colors        []string           `bson:"colors" json:"colors"`
	Sizes         []string           `bson:"sizes" json:"sizes"`
	Stock         int                `bson:"stock" json:"stock"`
	CategoryID    primitive.ObjectID `bson:"category_id" json:"category_id"`
	Rating        float64            `bson:"rating" json:"rating"`
	ReviewCount   int                `bson:"review_count" json:"review_count"`
	BestSeller    bool               `bson:"best_seller" json:"best_seller"`
	ImageKeys     []string           `bson:"image_keys" json:"-"`
}

// HasVariant reports whether the given color and size are allowed selections.
// Empty selectors are always allowed.
func (p *Product) HasVariant(color, size string) bool {
	if color != "" && !contains(p.Colors, color) {
		return false
	}
	if size != "" && !contains(p.Sizes, size) {
		return false
	}
	return true
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// Category is an admin-managed product grouping. Parent is nil for roots.
type Category struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id,omitempty"`
	Name        string              `bson:"name" json:"name"`
	Description string              `bson:"description" json:"description"`
	ParentID    *primitive.ObjectID `bson:"parent_id,omitempty" json:"parent_id,omitempty"`
}
