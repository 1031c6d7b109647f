package controllers

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"shopora/middleware"
	"shopora/models"
	"shopora/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// AuthController handles registration, login and logout.
type AuthController struct {
	Users        *mongo.Collection
	Blacklist    *mongo.Collection
	Tokens       *utils.TokenService
	EmailService *utils.EmailService
}

func NewAuthController(client *mongo.Client, database string, tokens *utils.TokenService, emailService *utils.EmailService) *AuthController {
	db := client.Database(database)
	return &AuthController{
		Users:        db.Collection("users"),
		Blacklist:    db.Collection("blacklisted_tokens"),
		Tokens:       tokens,
		EmailService: emailService,
	}
}

type registerRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// Register creates a new user account.
func (ac *AuthController) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeBody(r, &req); err != nil {
		utils.WriteError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	email := strings.ToLower(req.Email)
	count, err := ac.Users.CountDocuments(ctx, bson.M{"email": email})
	if err != nil {
		utils.WriteError(w, utils.Internal("Error checking existing users"))
		return
	}
	if count > 0 {
		utils.WriteError(w, utils.BadRequest("Email is already registered"))
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.WriteError(w, utils.Internal("Error hashing password"))
		return
	}

	user := models.User{
		Name:      req.Name,
		Email:     email,
		Password:  string(hashed),
		Role:      models.RoleUser,
		CreatedAt: time.Now(),
	}
	result, err := ac.Users.InsertOne(ctx, user)
	if err != nil {
		utils.WriteError(w, utils.Internal("Error creating user"))
		return
	}

	go func(email, name string) {
		if err := ac.EmailService.SendWelcomeEmail(email, name); err != nil {
			log.Printf("failed to send welcome email to %s: %v", email, err)
		}
	}(user.Email, user.Name)

	utils.WriteJSON(w, http.StatusCreated, "User Registered Successfully", map[string]any{
		"user_id": result.InsertedID,
	})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login verifies credentials and issues a bearer token.
func (ac *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		utils.WriteError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var user models.User
	err := ac.Users.FindOne(ctx, bson.M{"email": strings.ToLower(req.Email)}).Decode(&user)
	if err != nil {
		utils.WriteError(w, utils.Unauthorized("Invalid email or password"))
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		utils.WriteError(w, utils.Unauthorized("Invalid email or password"))
		return
	}

	token, err := ac.Tokens.Generate(user.ID.Hex(), user.Email, user.Role)
	if err != nil {
		utils.WriteError(w, utils.Internal("Error generating token"))
		return
	}

	utils.WriteJSON(w, http.StatusOK, "Logged In Successfully", map[string]any{
		"token": token,
		"user":  user,
	})
}

// Logout blacklists the presented token until its natural expiry.
func (ac *AuthController) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFrom(r)
	if !ok {
		utils.WriteError(w, utils.Unauthorized("Unauthorized"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	_, err := ac.Blacklist.InsertOne(ctx, models.BlacklistedToken{
		TokenID:   claims.Id,
		ExpiresAt: time.Unix(claims.ExpiresAt, 0),
	})
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		utils.WriteError(w, utils.Internal("Error revoking token"))
		return
	}

	utils.WriteJSON(w, http.StatusOK, "Logged Out Successfully", nil)
}
