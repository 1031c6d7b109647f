package controllers

import (
	"context"
	"log"
	"net/http"
	"strconv"
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

const defaultPageSize = 20

// ProductController handles the public catalog and admin product management.
type ProductController struct {
	Products   *mongo.Collection
	Categories *mongo.Collection
	Storage    *utils.StorageService
}

func NewProductController(client *mongo.Client, database string, storage *utils.StorageService) *ProductController {
	db := client.Database(database)
	return &ProductController{
		Products:   db.Collection("products"),
		Categories: db.Collection("categories"),
		Storage:    storage,
	}
}

// productResponse is a catalog product with its image keys resolved to
// signed URLs.
type productResponse struct {
	models.Product
	Images []string `json:"images"`
}

func (pc *ProductController) toResponse(ctx context.Context, p models.Product) productResponse {
	resp := productResponse{Product: p, Images: []string{}}
	for _, key := range p.ImageKeys {
		url, err := pc.Storage.SignedURL(ctx, key)
		if err != nil || url == "" {
			continue
		}
		resp.Images = append(resp.Images, url)
	}
	return resp
}

// GetProducts lists catalog products with pagination, sorting and filters:
// ?search= name match, ?category= id, ?bestseller=true, ?skip=, ?limit=,
// ?sort= price|-price|rating|name.
func (pc *ProductController) GetProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := bson.M{}
	if search := q.Get("search"); search != "" {
		filter["name"] = bson.M{"$regex": search, "$options": "i"}
	}
	if category := q.Get("category"); category != "" {
		categoryID, err := primitive.ObjectIDFromHex(category)
		if err != nil {
			utils.WriteError(w, utils.BadRequest("Invalid category ID"))
			return
		}
		filter["category_id"] = categoryID
	}
	if q.Get("bestseller") == "true" {
		filter["best_seller"] = true
	}

	skip, _ := strconv.ParseInt(q.Get("skip"), 10, 64)
	limit, _ := strconv.ParseInt(q.Get("limit"), 10, 64)
	if limit <= 0 || limit > 100 {
		limit = defaultPageSize
	}

	findOpts := options.Find().SetSkip(skip).SetLimit(limit)
	switch q.Get("sort") {
	case "price":
		findOpts.SetSort(bson.D{{Key: "price", Value: 1}})
	case "-price":
		findOpts.SetSort(bson.D{{Key: "price", Value: -1}})
	case "rating":
		findOpts.SetSort(bson.D{{Key: "rating", Value: -1}})
	case "name":
		findOpts.SetSort(bson.D{{Key: "name", Value: 1}})
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	cursor, err := pc.Products.Find(ctx, filter, findOpts)
	if err != nil {
		utils.WriteError(w, utils.Internal("Error fetching products"))
		return
	}
	defer cursor.Close(ctx)

	responses := []productResponse{}
	for cursor.Next(ctx) {
		var product models.Product
		if err := cursor.Decode(&product); err != nil {
			utils.WriteError(w, utils.Internal("Error reading products"))
			return
		}
		responses = append(responses, pc.toResponse(ctx, product))
	}
	if err := cursor.Err(); err != nil {
		utils.WriteError(w, utils.Internal("Error reading products"))
		return
	}

	utils.WriteJSON(w, http.StatusOK, "Products Fetched Successfully", map[string]any{"products": responses})
}

// GetProductByID returns a single product.
func (pc *ProductController) GetProductByID(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		utils.WriteError(w, utils.BadRequest("Invalid product ID"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var product models.Product
	if err := pc.Products.FindOne(ctx, bson.M{"_id": id}).Decode(&product); err != nil {
		utils.WriteError(w, utils.NotFound("Product not found"))
		return
	}

	utils.WriteJSON(w, http.StatusOK, "Product Fetched Successfully", map[string]any{"product": pc.toResponse(ctx, product)})
}

// CreateProduct handles adding a new product (admin only). Images arrive as
// multipart files and are uploaded to object storage; only their keys are
// persisted.
func (pc *ProductController) CreateProduct(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		utils.WriteError(w, utils.BadRequest("Failed to parse multipart form"))
		return
	}

	name := r.FormValue("name")
	description := r.FormValue("description")
	categoryName := r.FormValue("category")
	price, priceErr := strconv.ParseFloat(r.FormValue("price"), 64)
	originalPrice, origErr := strconv.ParseFloat(r.FormValue("original_price"), 64)
	stock, stockErr := strconv.Atoi(r.FormValue("stock"))

	switch {
	case name == "":
		utils.WriteError(w, utils.BadRequest("Product name is required"))
		return
	case description == "":
		utils.WriteError(w, utils.BadRequest("Description is required"))
		return
	case priceErr != nil || price <= 0:
		utils.WriteError(w, utils.BadRequest("Price is required"))
		return
	case origErr != nil || originalPrice <= 0:
		utils.WriteError(w, utils.BadRequest("Original price is required"))
		return
	case stockErr != nil || stock < 0:
		utils.WriteError(w, utils.BadRequest("Product stock amount is required"))
		return
	case categoryName == "":
		utils.WriteError(w, utils.BadRequest("Category is required"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	count, err := pc.Products.CountDocuments(ctx, bson.M{"name": name})
	if err != nil {
		utils.WriteError(w, utils.Internal("Error checking existing products"))
		return
	}
	if count > 0 {
		utils.WriteError(w, utils.BadRequest("This product is already added"))
		return
	}

	var category models.Category
	if err := pc.Categories.FindOne(ctx, bson.M{"name": categoryName}).Decode(&category); err != nil {
		utils.WriteError(w, utils.NotFound("This category is not found"))
		return
	}

	files := r.MultipartForm.File["images"]
	if len(files) == 0 {
		utils.WriteError(w, utils.BadRequest("Upload at least one product picture"))
		return
	}

	imageKeys := make([]string, 0, len(files))
	for _, header := range files {
		file, err := header.Open()
		if err != nil {
			utils.WriteError(w, utils.BadRequest("Failed to read uploaded file"))
			return
		}
		key, err := pc.Storage.Upload(ctx, "product-pictures", header.Filename, header.Header.Get("Content-Type"), file)
		file.Close()
		if err != nil {
			utils.WriteError(w, utils.Internal("Failed to upload product picture"))
			return
		}
		imageKeys = append(imageKeys, key)
	}

	product := models.Product{
		Name:          name,
		Description:   description,
		Price:         price,
		OriginalPrice: originalPrice,
		Colors:        splitList(r.FormValue("colors")),
		Sizes:         splitList(r.FormValue("sizes")),
		Stock:         stock,
		CategoryID:    category.ID,
		ImageKeys:     imageKeys,
	}
	result, err := pc.Products.InsertOne(ctx, product)
	if err != nil {
		utils.WriteError(w, utils.Internal("Error creating product"))
		return
	}
	product.ID = result.InsertedID.(primitive.ObjectID)

	utils.WriteJSON(w, http.StatusCreated, "Product Added Successfully", map[string]any{"product": pc.toResponse(ctx, product)})
}

type updateProductRequest struct {
	Name          *string   `json:"name"`
	Description   *string   `json:"description"`
	Price         *float64  `json:"price" validate:"omitempty,gt=0"`
	OriginalPrice *float64  `json:"original_price" validate:"omitempty,gt=0"`
	Colors        *[]string `json:"colors"`
	Sizes         *[]string `json:"sizes"`
	Stock         *int      `json:"stock" validate:"omitempty,min=0"`
	BestSeller    *bool     `json:"best_seller"`
}

// UpdateProduct applies a partial update to a product (admin only).
func (pc *ProductController) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		utils.WriteError(w, utils.BadRequest("Invalid product ID"))
		return
	}

	var req updateProductRequest
	if err := decodeBody(r, &req); err != nil {
		utils.WriteError(w, err)
		return
	}

	set := bson.M{}
	if req.Name != nil {
		set["name"] = *req.Name
	}
	if req.Description != nil {
		set["description"] = *req.Description
	}
	if req.Price != nil {
		set["price"] = *req.Price
	}
	if req.OriginalPrice != nil {
		set["original_price"] = *req.OriginalPrice
	}
	if req.Colors != nil {
		set["colors"] = *req.Colors
	}
	if req.Sizes != nil {
		set["sizes"] = *req.Sizes
	}
	if req.Stock != nil {
		set["stock"] = *req.Stock
	}
	if req.BestSeller != nil {
		set["best_seller"] = *req.BestSeller
	}
	if len(set) == 0 {
		utils.WriteError(w, utils.BadRequest("Nothing to update"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	result, err := pc.Products.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		utils.WriteError(w, utils.Internal("Error updating product"))
		return
	}
	if result.MatchedCount == 0 {
		utils.WriteError(w, utils.NotFound("Product not found"))
		return
	}

	utils.WriteJSON(w, http.StatusOK, "Product Updated Successfully", nil)
}

// DeleteProduct removes a product and its stored images (admin only).
func (pc *ProductController) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		utils.WriteError(w, utils.BadRequest("Invalid product ID"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var product models.Product
	if err := pc.Products.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&product); err != nil {
		utils.WriteError(w, utils.NotFound("Product not found"))
		return
	}

	// Image cleanup is best-effort; an orphaned object is preferable to a
	// failed delete.
	for _, key := range product.ImageKeys {
		if err := pc.Storage.Delete(ctx, key); err != nil {
			log.Printf("failed to delete product image %s: %v", key, err)
		}
	}

	utils.WriteJSON(w, http.StatusOK, "Product Deleted Successfully", nil)
}

func splitList(raw string) []string {
	if raw == "" {
		return []string{}
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
