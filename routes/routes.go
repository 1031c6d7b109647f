package routes

import (
	"net/http"

	"shopora/controllers"
	"shopora/middleware"

	"github.com/gorilla/mux"
)

// Controllers bundles everything RegisterRoutes wires up.
type Controllers struct {
	Auth     *controllers.AuthController
	Profile  *controllers.ProfileController
	Product  *controllers.ProductController
	Category *controllers.CategoryController
	Cart     *controllers.CartController
	Order    *controllers.OrderController
	Coupon   *controllers.CouponController
	Wishlist *controllers.WishlistController
}

// RegisterRoutes sets up all the routes for the application.
func RegisterRoutes(router *mux.Router, c Controllers, auth *middleware.Auth, orderLimiter *middleware.RateLimiter) {
	// Public routes
	router.HandleFunc("/auth/register", c.Auth.Register).Methods("POST")
	router.HandleFunc("/auth/login", c.Auth.Login).Methods("POST")

	// The webhook authenticates by provider signature, not bearer token.
	router.HandleFunc("/orders/stripe-webhook", c.Order.StripeWebhook).Methods("POST")

	// Catalog (public)
	router.HandleFunc("/products", c.Product.GetProducts).Methods("GET")
	router.HandleFunc("/products/{id}", c.Product.GetProductByID).Methods("GET")
	router.HandleFunc("/categories", c.Category.GetCategories).Methods("GET")

	// Protected routes
	protected := router.PathPrefix("/").Subrouter()
	protected.Use(auth.Middleware)
	protected.HandleFunc("/auth/logout", c.Auth.Logout).Methods("POST")
	protected.HandleFunc("/profile", c.Profile.GetProfile).Methods("GET")
	protected.HandleFunc("/profile/addresses", c.Profile.AddAddress).Methods("POST")
	protected.HandleFunc("/profile/addresses/{addressId}", c.Profile.DeleteAddress).Methods("DELETE")
	protected.HandleFunc("/profile/payment-methods", c.Profile.AddPaymentMethod).Methods("POST")
	protected.HandleFunc("/profile/payment-methods/{methodId}", c.Profile.DeletePaymentMethod).Methods("DELETE")

	// Cart routes
	protected.HandleFunc("/cart", c.Cart.GetCart).Methods("GET")
	protected.HandleFunc("/cart/add/{productId}", c.Cart.AddToCart).Methods("POST")
	protected.HandleFunc("/cart/{productId}/increment", c.Cart.IncrementItem).Methods("PUT")
	protected.HandleFunc("/cart/{productId}/decrement", c.Cart.DecrementItem).Methods("PUT")
	protected.HandleFunc("/cart/apply-coupon", c.Cart.ApplyCoupon).Methods("POST")
	protected.HandleFunc("/cart/clear", c.Cart.ClearCart).Methods("DELETE")
	protected.HandleFunc("/cart/{productId}", c.Cart.RemoveFromCart).Methods("DELETE")

	// Order routes; creation is throttled per client.
	protected.Handle("/orders/create",
		orderLimiter.Middleware(http.HandlerFunc(c.Order.CreateOrder))).Methods("POST")
	protected.HandleFunc("/orders", c.Order.GetOrders).Methods("GET")
	protected.HandleFunc("/orders/pay", c.Order.PayOrder).Methods("POST")
	protected.HandleFunc("/orders/cancel-order/{orderId}", c.Order.CancelOrder).Methods("POST")
	protected.HandleFunc("/orders/{orderId}", c.Order.GetOrderDetails).Methods("GET")

	// Wishlist routes
	protected.HandleFunc("/wishlist", c.Wishlist.GetWishlist).Methods("GET")
	protected.HandleFunc("/wishlist/{productId}", c.Wishlist.AddToWishlist).Methods("POST")
	protected.HandleFunc("/wishlist/{productId}", c.Wishlist.RemoveFromWishlist).Methods("DELETE")

	// Admin routes
	admin := router.PathPrefix("/admin").Subrouter()
	admin.Use(auth.Middleware)
	admin.Use(middleware.AdminOnly)
	admin.HandleFunc("/products", c.Product.CreateProduct).Methods("POST")
	admin.HandleFunc("/products/{id}", c.Product.UpdateProduct).Methods("PUT")
	admin.HandleFunc("/products/{id}", c.Product.DeleteProduct).Methods("DELETE")
	admin.HandleFunc("/categories", c.Category.CreateCategory).Methods("POST")
	admin.HandleFunc("/categories/{id}", c.Category.DeleteCategory).Methods("DELETE")
	admin.HandleFunc("/coupons", c.Coupon.CreateCoupon).Methods("POST")
	admin.HandleFunc("/coupons", c.Coupon.ListCoupons).Methods("GET")
	admin.HandleFunc("/coupons/{couponId}", c.Coupon.DeleteCoupon).Methods("DELETE")
	admin.HandleFunc("/orders", c.Order.ListAllOrders).Methods("GET")
	admin.HandleFunc("/orders/{orderId}/status", c.Order.UpdateOrderStatus).Methods("PUT")
}
