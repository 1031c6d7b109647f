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

// CategoryController handles the category tree. Categories are referenced,
// never owned, by products.
type CategoryController struct {
	Categories *mongo.Collection
	Products   *mongo.Collection
}

func NewCategoryController(client *mongo.Client, database string) *CategoryController {
	db := client.Database(database)
	return &CategoryController{
		Categories: db.Collection("categories"),
		Products:   db.Collection("products"),
	}
}

// GetCategories lists all categories.
func (cc *CategoryController) GetCategories(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	cursor, err := cc.Categories.Find(ctx, bson.M{})
	if err != nil {
		utils.WriteError(w, utils.Internal("Error fetching categories"))
		return
	}
	defer cursor.Close(ctx)

	categories := []models.Category{}
	if err := cursor.All(ctx, &categories); err != nil {
		utils.WriteError(w, utils.Internal("Error reading categories"))
		return
	}

	utils.WriteJSON(w, http.StatusOK, "Categories Fetched Successfully", map[string]any{"categories": categories})
}

type categoryRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	ParentID    string `json:"parent_id"`
}

// CreateCategory adds a category, optionally under a parent (admin only).
func (cc *CategoryController) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeBody(r, &req); err != nil {
		utils.WriteError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	category := models.Category{
		Name:        req.Name,
		Description: req.Description,
	}
	if req.ParentID != "" {
		parentID, err := primitive.ObjectIDFromHex(req.ParentID)
		if err != nil {
			utils.WriteError(w, utils.BadRequest("Invalid parent category ID"))
			return
		}
		count, err := cc.Categories.CountDocuments(ctx, bson.M{"_id": parentID})
		if err != nil || count == 0 {
			utils.WriteError(w, utils.NotFound("Parent category not found"))
			return
		}
		category.ParentID = &parentID
	}

	result, err := cc.Categories.InsertOne(ctx, category)
	if err != nil {
		utils.WriteError(w, utils.Internal("Error creating category"))
		return
	}
	category.ID = result.InsertedID.(primitive.ObjectID)

	utils.WriteJSON(w, http.StatusCreated, "Category Added Successfully", map[string]any{"category": category})
}

// DeleteCategory removes an empty category (admin only). Categories still
// referenced by products or child categories can not be deleted.
func (cc *CategoryController) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		utils.WriteError(w, utils.BadRequest("Invalid category ID"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if count, err := cc.Products.CountDocuments(ctx, bson.M{"category_id": id}); err == nil && count > 0 {
		utils.WriteError(w, utils.BadRequest("Category still has products"))
		return
	}
	if count, err := cc.Categories.CountDocuments(ctx, bson.M{"parent_id": id}); err == nil && count > 0 {
		utils.WriteError(w, utils.BadRequest("Category still has subcategories"))
		return
	}

	result, err := cc.Categories.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		utils.WriteError(w, utils.Internal("Error deleting category"))
		return
	}
	if result.DeletedCount == 0 {
		utils.WriteError(w, utils.NotFound("Category not found"))
		return
	}

	utils.WriteJSON(w, http.StatusOK, "Category Deleted Successfully", nil)
}
