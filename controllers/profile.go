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
)

// ProfileController handles the user profile, addresses and stored payment
// methods.
type ProfileController struct {
	Users          *mongo.Collection
	Addresses      *mongo.Collection
	PaymentMethods *mongo.Collection
}

func NewProfileController(client *mongo.Client, database string) *ProfileController {
	db := client.Database(database)
	return &ProfileController{
		Users:          db.Collection("users"),
		Addresses:      db.Collection("addresses"),
		PaymentMethods: db.Collection("payment_methods"),
	}
}

// GetProfile returns the authenticated user's account with addresses and
// payment methods attached.
func (pc *ProfileController) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, _, err := authedUser(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var user models.User
	if err := pc.Users.FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
		utils.WriteError(w, utils.NotFound("User not found"))
		return
	}

	addresses := []models.Address{}
	if cursor, err := pc.Addresses.Find(ctx, bson.M{"user_id": userID}); err == nil {
		cursor.All(ctx, &addresses)
	}
	methods := []models.PaymentMethod{}
	if cursor, err := pc.PaymentMethods.Find(ctx, bson.M{"user_id": userID}); err == nil {
		cursor.All(ctx, &methods)
	}

	utils.WriteJSON(w, http.StatusOK, "Profile Fetched Successfully", map[string]any{
		"user":            user,
		"addresses":       addresses,
		"payment_methods": methods,
	})
}

type addressRequest struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Street    string `json:"street" validate:"required"`
	City      string `json:"city" validate:"required"`
	Country   string `json:"country" validate:"required"`
	Phone     string `json:"phone" validate:"required"`
}

// AddAddress stores a shipping address. The composite unique index on
// (user, street, city, country) rejects duplicates.
func (pc *ProfileController) AddAddress(w http.ResponseWriter, r *http.Request) {
	userID, _, err := authedUser(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	var req addressRequest
	if err := decodeBody(r, &req); err != nil {
		utils.WriteError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	address := models.Address{
		UserID:    userID,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Street:    req.Street,
		City:      req.City,
		Country:   req.Country,
		Phone:     req.Phone,
	}
	result, err := pc.Addresses.InsertOne(ctx, address)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			utils.WriteError(w, utils.BadRequest("This address is already saved"))
			return
		}
		utils.WriteError(w, utils.Internal("Error saving address"))
		return
	}
	address.ID = result.InsertedID.(primitive.ObjectID)

	utils.WriteJSON(w, http.StatusCreated, "Address Added Successfully", map[string]any{"address": address})
}

// DeleteAddress removes one of the user's addresses.
func (pc *ProfileController) DeleteAddress(w http.ResponseWriter, r *http.Request) {
	userID, _, err := authedUser(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	addressID, err := primitive.ObjectIDFromHex(mux.Vars(r)["addressId"])
	if err != nil {
		utils.WriteError(w, utils.BadRequest("Invalid address ID"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	result, err := pc.Addresses.DeleteOne(ctx, bson.M{"_id": addressID, "user_id": userID})
	if err != nil {
		utils.WriteError(w, utils.Internal("Error deleting address"))
		return
	}
	if result.DeletedCount == 0 {
		utils.WriteError(w, utils.NotFound("Address not found"))
		return
	}

	utils.WriteJSON(w, http.StatusOK, "Address Deleted Successfully", nil)
}

type paymentMethodRequest struct {
	Type     string `json:"type" validate:"required,oneof=card cash"`
	Brand    string `json:"brand"`
	Last4    string `json:"last4" validate:"omitempty,len=4,numeric"`
	ExpMonth int    `json:"exp_month" validate:"omitempty,min=1,max=12"`
	ExpYear  int    `json:"exp_year"`
	Default  bool   `json:"default"`
}

// AddPaymentMethod stores a payment instrument for the user.
func (pc *ProfileController) AddPaymentMethod(w http.ResponseWriter, r *http.Request) {
	userID, _, err := authedUser(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	var req paymentMethodRequest
	if err := decodeBody(r, &req); err != nil {
		utils.WriteError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if req.Default {
		// Only one default instrument at a time.
		pc.PaymentMethods.UpdateMany(ctx, bson.M{"user_id": userID}, bson.M{"$set": bson.M{"default": false}})
	}

	method := models.PaymentMethod{
		UserID:   userID,
		Type:     req.Type,
		Brand:    req.Brand,
		Last4:    req.Last4,
		ExpMonth: req.ExpMonth,
		ExpYear:  req.ExpYear,
		Default:  req.Default,
	}
	result, err := pc.PaymentMethods.InsertOne(ctx, method)
	if err != nil {
		utils.WriteError(w, utils.Internal("Error saving payment method"))
		return
	}
	method.ID = result.InsertedID.(primitive.ObjectID)

	utils.WriteJSON(w, http.StatusCreated, "Payment Method Added Successfully", map[string]any{"payment_method": method})
}

// DeletePaymentMethod removes a stored payment instrument.
func (pc *ProfileController) DeletePaymentMethod(w http.ResponseWriter, r *http.Request) {
	userID, _, err := authedUser(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	methodID, err := primitive.ObjectIDFromHex(mux.Vars(r)["methodId"])
	if err != nil {
		utils.WriteError(w, utils.BadRequest("Invalid payment method ID"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	result, err := pc.PaymentMethods.DeleteOne(ctx, bson.M{"_id": methodID, "user_id": userID})
	if err != nil {
		utils.WriteError(w, utils.Internal("Error deleting payment method"))
		return
	}
	if result.DeletedCount == 0 {
		utils.WriteError(w, utils.NotFound("Payment method not found"))
		return
	}

	utils.WriteJSON(w, http.StatusOK, "Payment Method Deleted Successfully", nil)
}
