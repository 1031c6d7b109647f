package controllers

import (
	"context"
	"net/http"
	"time"

	"shopora/models"
	"shopora/utils"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// WishlistController handles the per-user wishlist. Adds go through a single
// atomic add-to-set upsert, so concurrent adds for the same user can neither
// duplicate an entry nor race a create.
type WishlistController struct {
	Wishlists *mongo.Collection
	Products  *mongo.Collection
	Storage   *utils.StorageService
}

func NewWishlistController(client *mongo.Client, database string, storage *utils.StorageService) *WishlistController {
	db := client.Database(database)
	return &WishlistController{
		Wishlists: db.Collection("wishlists"),
		Products:  db.Collection("products"),
		Storage:   storage,
	}
}

// AddToWishlist appends the product id if not already present, creating the
// wishlist document on first use.
func (wc *WishlistController) AddToWishlist(w http.ResponseWriter, r *http.Request) {
	userID, _, err := authedUser(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	productID, err := primitive.ObjectIDFromHex(mux.Vars(r)["productId"])
	if err != nil {
		utils.WriteError(w, utils.BadRequest("Invalid product ID"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	count, err := wc.Products.CountDocuments(ctx, bson.M{"_id": productID})
	if err != nil || count == 0 {
		utils.WriteError(w, utils.NotFound("Product not found"))
		return
	}

	after := options.After
	var wishlist models.Wishlist
	err = wc.Wishlists.FindOneAndUpdate(ctx,
		bson.M{"user_id": userID},
		bson.M{
			"$addToSet":    bson.M{"product_ids": productID},
			"$setOnInsert": bson.M{"user_id": userID},
		},
		&options.FindOneAndUpdateOptions{
			ReturnDocument: &after,
			Upsert:         boolPtr(true),
		},
	).Decode(&wishlist)
	if err != nil {
		utils.WriteError(w, utils.Internal("Error updating wishlist"))
		return
	}

	utils.WriteJSON(w, http.StatusCreated, "Product Added Successfully To Wishlist", map[string]any{"wishlist": wishlist})
}

// wishlistProduct is a wishlist entry with its first image resolved.
type wishlistProduct struct {
	models.Product
	Image string `json:"image,omitempty"`
}

// GetWishlist returns the wishlist with product details and a signed URL
// for each product's first image.
func (wc *WishlistController) GetWishlist(w http.ResponseWriter, r *http.Request) {
	userID, _, err := authedUser(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var wishlist models.Wishlist
	if err := wc.Wishlists.FindOne(ctx, bson.M{"user_id": userID}).Decode(&wishlist); err != nil {
		utils.WriteError(w, utils.NotFound("Wishlist not found"))
		return
	}

	products := []wishlistProduct{}
	if len(wishlist.ProductIDs) > 0 {
		cursor, err := wc.Products.Find(ctx, bson.M{"_id": bson.M{"$in": wishlist.ProductIDs}})
		if err != nil {
			utils.WriteError(w, utils.Internal("Error fetching wishlist products"))
			return
		}
		defer cursor.Close(ctx)
		for cursor.Next(ctx) {
			var product models.Product
			if err := cursor.Decode(&product); err != nil {
				continue
			}
			entry := wishlistProduct{Product: product}
			if len(product.ImageKeys) > 0 {
				entry.Image, _ = wc.Storage.SignedURL(ctx, product.ImageKeys[0])
			}
			products = append(products, entry)
		}
	}

	utils.WriteJSON(w, http.StatusOK, "Wishlist Fetched Successfully", map[string]any{
		"wishlist_id": wishlist.ID,
		"products":    products,
	})
}

// RemoveFromWishlist pulls the product id from the set.
func (wc *WishlistController) RemoveFromWishlist(w http.ResponseWriter, r *http.Request) {
	userID, _, err := authedUser(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	productID, err := primitive.ObjectIDFromHex(mux.Vars(r)["productId"])
	if err != nil {
		utils.WriteError(w, utils.BadRequest("Invalid product ID"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	result, err := wc.Wishlists.UpdateOne(ctx,
		bson.M{"user_id": userID, "product_ids": productID},
		bson.M{"$pull": bson.M{"product_ids": productID}})
	if err != nil {
		utils.WriteError(w, utils.Internal("Error updating wishlist"))
		return
	}
	if result.MatchedCount == 0 {
		utils.WriteError(w, utils.NotFound("Product not found in wishlist"))
		return
	}

	utils.WriteJSON(w, http.StatusOK, "Product Removed From Wishlist", nil)
}

func boolPtr(v bool) *bool { return &v }
