package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"shopora/models"
	"shopora/utils"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// CouponController handles admin coupon management. Expired coupons are
// purged by the TTL index and the background sweeper.
type CouponController struct {
	Coupons *mongo.Collection
}

func NewCouponController(client *mongo.Client, database string) *CouponController {
	return &CouponController{
		Coupons: client.Database(database).Collection("coupons"),
	}
}

type createCouponRequest struct {
	Code          string    `json:"code" validate:"required"`
	DiscountType  string    `json:"discount_type" validate:"required,oneof=percentage fixed"`
	DiscountValue float64   `json:"discount_value" validate:"required,gt=0"`
	ExpiresAt     time.Time `json:"expires_at" validate:"required"`
	Active        *bool     `json:"active"`
}

// CreateCoupon adds a discount code (admin only).
func (cc *CouponController) CreateCoupon(w http.ResponseWriter, r *http.Request) {
	var req createCouponRequest
	if err := decodeBody(r, &req); err != nil {
		utils.WriteError(w, err)
		return
	}
	if req.DiscountType == models.DiscountPercentage && req.DiscountValue > 100 {
		utils.WriteError(w, utils.BadRequest("Percentage discount can not exceed 100"))
		return
	}
	if !req.ExpiresAt.After(time.Now()) {
		utils.WriteError(w, utils.BadRequest("Expiry must be in the future"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	active := true
	if req.Active != nil {
		active = *req.Active
	}
	coupon := models.Coupon{
		Code:          strings.ToUpper(req.Code),
		DiscountType:  req.DiscountType,
		DiscountValue: req.DiscountValue,
		ExpiresAt:     req.ExpiresAt,
		Active:        active,
	}
	result, err := cc.Coupons.InsertOne(ctx, coupon)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			utils.WriteError(w, utils.BadRequest("This coupon is already added"))
			return
		}
		utils.WriteError(w, utils.Internal("Error creating coupon"))
		return
	}
	coupon.ID = result.InsertedID.(primitive.ObjectID)

	utils.WriteJSON(w, http.StatusCreated, "Coupon Added Successfully", map[string]any{"coupon": coupon})
}

// ListCoupons returns every coupon (admin only).
func (cc *CouponController) ListCoupons(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	cursor, err := cc.Coupons.Find(ctx, bson.M{})
	if err != nil {
		utils.WriteError(w, utils.Internal("Error fetching coupons"))
		return
	}
	defer cursor.Close(ctx)

	coupons := []models.Coupon{}
	if err := cursor.All(ctx, &coupons); err != nil {
		utils.WriteError(w, utils.Internal("Error reading coupons"))
		return
	}

	utils.WriteJSON(w, http.StatusOK, "Coupons Fetched Successfully", map[string]any{"coupons": coupons})
}

// DeleteCoupon removes a coupon (admin only).
func (cc *CouponController) DeleteCoupon(w http.ResponseWriter, r *http.Request) {
	couponID, err := primitive.ObjectIDFromHex(mux.Vars(r)["couponId"])
	if err != nil {
		utils.WriteError(w, utils.BadRequest("Invalid coupon ID"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	result, err := cc.Coupons.DeleteOne(ctx, bson.M{"_id": couponID})
	if err != nil {
		utils.WriteError(w, utils.Internal("Error deleting coupon"))
		return
	}
	if result.DeletedCount == 0 {
		utils.WriteError(w, utils.NotFound("Coupon not found"))
		return
	}

	utils.WriteJSON(w, http.StatusOK, "Coupon Deleted Successfully", nil)
}
