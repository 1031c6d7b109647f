package controllers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"shopora/models"
	"shopora/utils"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CartController handles cart-related requests. Mutations for one user are
// serialized behind a per-user lock so concurrent updates can not lose an
// increment, and the stored total is recomputed on every persist.
type CartController struct {
	Carts    *mongo.Collection
	Products *mongo.Collection
	Coupons  *mongo.Collection
	locks    *utils.KeyedMutex
}

func NewCartController(client *mongo.Client, database string) *CartController {
	db := client.Database(database)
	return &CartController{
		Carts:    db.Collection("carts"),
		Products: db.Collection("products"),
		Coupons:  db.Collection("coupons"),
		locks:    utils.NewKeyedMutex(),
	}
}

// getOrCreateCart returns the user's cart, lazily creating an empty one.
func (cc *CartController) getOrCreateCart(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	var cart models.Cart
	err := cc.Carts.FindOne(ctx, bson.M{"user_id": userID}).Decode(&cart)
	if err == nil {
		return &cart, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	now := time.Now()
	cart = models.Cart{
		UserID:    userID,
		Items:     []models.CartItem{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	result, err := cc.Carts.InsertOne(ctx, cart)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// Lost a create race; the winner's cart is ours too.
			if ferr := cc.Carts.FindOne(ctx, bson.M{"user_id": userID}).Decode(&cart); ferr == nil {
				return &cart, nil
			}
		}
		return nil, err
	}
	cart.ID = result.InsertedID.(primitive.ObjectID)
	return &cart, nil
}

// persistCart writes the items, coupon and recomputed total back.
func (cc *CartController) persistCart(ctx context.Context, cart *models.Cart) error {
	cart.Recalculate()
	cart.UpdatedAt = time.Now()
	_, err := cc.Carts.UpdateOne(ctx, bson.M{"_id": cart.ID}, bson.M{"$set": bson.M{
		"items":      cart.Items,
		"coupon_id":  cart.CouponID,
		"total":      cart.Total,
		"updated_at": cart.UpdatedAt,
	}})
	return err
}

func (cc *CartController) findProduct(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	var product models.Product
	if err := cc.Products.FindOne(ctx, bson.M{"_id": id}).Decode(&product); err != nil {
		return nil, utils.NotFound("Product not found")
	}
	return &product, nil
}

func cartDomainError(err error) error {
	switch {
	case errors.Is(err, models.ErrOutOfStock),
		errors.Is(err, models.ErrInsufficientStock),
		errors.Is(err, models.ErrInvalidSelection):
		return utils.BadRequest(err.Error())
	case errors.Is(err, models.ErrItemNotFound):
		return utils.NotFound(err.Error())
	default:
		return utils.Internal("Error updating cart")
	}
}

// GetCart retrieves the user's cart, creating an empty one if absent.
func (cc *CartController) GetCart(w http.ResponseWriter, r *http.Request) {
	userID, _, err := authedUser(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	cart, err := cc.getOrCreateCart(ctx, userID)
	if err != nil {
		utils.WriteError(w, utils.Internal("Error fetching cart"))
		return
	}

	utils.WriteJSON(w, http.StatusOK, "Cart Details Fetched Successfully", map[string]any{"cart": cart})
}

type variantRequest struct {
	Color string `json:"color"`
	Size  string `json:"size"`
}

// AddToCart puts one unit of a product into the cart. Adding the same
// (product, color, size) again merges into the existing line item.
func (cc *CartController) AddToCart(w http.ResponseWriter, r *http.Request) {
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

	var req variantRequest
	if err := decodeOptionalBody(r, &req); err != nil {
		utils.WriteError(w, err)
		return
	}

	unlock := cc.locks.Lock(userID.Hex())
	defer unlock()

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	product, err := cc.findProduct(ctx, productID)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	cart, err := cc.getOrCreateCart(ctx, userID)
	if err != nil {
		utils.WriteError(w, utils.Internal("Error fetching cart"))
		return
	}

	if err := cart.AddItem(product, req.Color, req.Size); err != nil {
		utils.WriteError(w, cartDomainError(err))
		return
	}
	if err := cc.persistCart(ctx, cart); err != nil {
		utils.WriteError(w, utils.Internal("Error updating cart"))
		return
	}

	utils.WriteJSON(w, http.StatusOK, "Product Added To Cart Successfully", map[string]any{"cart": cart})
}

// IncrementItem raises a line item's quantity by one, bounded by stock.
func (cc *CartController) IncrementItem(w http.ResponseWriter, r *http.Request) {
	cc.adjustItem(w, r, +1)
}

// DecrementItem lowers a line item's quantity by one; at quantity 1 the item
// is removed from the cart entirely.
func (cc *CartController) DecrementItem(w http.ResponseWriter, r *http.Request) {
	cc.adjustItem(w, r, -1)
}

func (cc *CartController) adjustItem(w http.ResponseWriter, r *http.Request, delta int) {
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

	var req variantRequest
	if err := decodeOptionalBody(r, &req); err != nil {
		utils.WriteError(w, err)
		return
	}

	unlock := cc.locks.Lock(userID.Hex())
	defer unlock()

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var cart models.Cart
	if err := cc.Carts.FindOne(ctx, bson.M{"user_id": userID}).Decode(&cart); err != nil {
		utils.WriteError(w, utils.NotFound("Cart not found"))
		return
	}

	message := "Item Quantity Updated Successfully"
	if delta > 0 {
		product, err := cc.findProduct(ctx, productID)
		if err != nil {
			utils.WriteError(w, err)
			return
		}
		if err := cart.Increment(product, req.Color, req.Size); err != nil {
			utils.WriteError(w, cartDomainError(err))
			return
		}
	} else {
		removed, err := cart.Decrement(productID, req.Color, req.Size)
		if err != nil {
			utils.WriteError(w, cartDomainError(err))
			return
		}
		if removed {
			message = "Item Removed From Cart Successfully"
		}
	}

	if err := cc.persistCart(ctx, &cart); err != nil {
		utils.WriteError(w, utils.Internal("Error updating cart"))
		return
	}

	utils.WriteJSON(w, http.StatusOK, message, map[string]any{"cart": cart})
}

// RemoveFromCart pulls the matching line item in a single atomic update and
// then recomputes the total.
func (cc *CartController) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
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

	unlock := cc.locks.Lock(userID.Hex())
	defer unlock()

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	after := options.After
	var cart models.Cart
	err = cc.Carts.FindOneAndUpdate(ctx,
		bson.M{"user_id": userID, "items.product_id": productID},
		bson.M{"$pull": bson.M{"items": bson.M{"product_id": productID}}},
		&options.FindOneAndUpdateOptions{ReturnDocument: &after},
	).Decode(&cart)
	if err != nil {
		utils.WriteError(w, utils.NotFound("Cart not found or product not in cart"))
		return
	}

	if err := cc.persistCart(ctx, &cart); err != nil {
		utils.WriteError(w, utils.Internal("Error updating cart"))
		return
	}

	utils.WriteJSON(w, http.StatusOK, "Product Removed From Cart", map[string]any{"cart": cart})
}

type applyCouponRequest struct {
	Code string `json:"code" validate:"required"`
}

// ApplyCoupon validates a coupon code and attaches it to the cart. The
// discount itself is applied when the order total is computed, and the
// coupon is re-validated there.
func (cc *CartController) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	userID, _, err := authedUser(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	var req applyCouponRequest
	if err := decodeBody(r, &req); err != nil {
		utils.WriteError(w, err)
		return
	}

	unlock := cc.locks.Lock(userID.Hex())
	defer unlock()

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var coupon models.Coupon
	if err := cc.Coupons.FindOne(ctx, bson.M{"code": strings.ToUpper(req.Code)}).Decode(&coupon); err != nil {
		utils.WriteError(w, utils.NotFound("Coupon not found"))
		return
	}
	if err := coupon.Validate(time.Now()); err != nil {
		utils.WriteError(w, utils.BadRequest(err.Error()))
		return
	}

	cart, err := cc.getOrCreateCart(ctx, userID)
	if err != nil {
		utils.WriteError(w, utils.Internal("Error fetching cart"))
		return
	}
	cart.CouponID = &coupon.ID
	if err := cc.persistCart(ctx, cart); err != nil {
		utils.WriteError(w, utils.Internal("Error updating cart"))
		return
	}

	utils.WriteJSON(w, http.StatusOK, "Coupon Applied Successfully", map[string]any{
		"cart":     cart,
		"discount": coupon.Discount(cart.Total),
	})
}

// ClearCart empties the cart and detaches any coupon.
func (cc *CartController) ClearCart(w http.ResponseWriter, r *http.Request) {
	userID, _, err := authedUser(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	unlock := cc.locks.Lock(userID.Hex())
	defer unlock()

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	result, err := cc.Carts.UpdateOne(ctx, bson.M{"user_id": userID}, bson.M{"$set": bson.M{
		"items":      []models.CartItem{},
		"coupon_id":  nil,
		"total":      0.0,
		"updated_at": time.Now(),
	}})
	if err != nil {
		utils.WriteError(w, utils.Internal("Error clearing cart"))
		return
	}
	if result.MatchedCount == 0 {
		utils.WriteError(w, utils.NotFound("Cart not found"))
		return
	}

	utils.WriteJSON(w, http.StatusOK, "Cart Cleared Successfully", nil)
}
