package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"math"
	"net/http"
	"time"

	"shopora/models"
	"shopora/utils"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stripe/stripe-go/v81"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// OrderController orchestrates the cart-to-order checkout flow: order
// creation from a cart snapshot, payment session creation, the asynchronous
// payment webhook, and cancellation with refund.
type OrderController struct {
	Orders       *mongo.Collection
	Carts        *mongo.Collection
	Products     *mongo.Collection
	Coupons      *mongo.Collection
	Users        *mongo.Collection
	Gateway      *utils.PaymentGateway
	Storage      *utils.StorageService
	EmailService *utils.EmailService
}

func NewOrderController(client *mongo.Client, database string, gateway *utils.PaymentGateway, storage *utils.StorageService, emailService *utils.EmailService) *OrderController {
	db := client.Database(database)
	return &OrderController{
		Orders:       db.Collection("orders"),
		Carts:        db.Collection("carts"),
		Products:     db.Collection("products"),
		Coupons:      db.Collection("coupons"),
		Users:        db.Collection("users"),
		Gateway:      gateway,
		Storage:      storage,
		EmailService: emailService,
	}
}

type createOrderRequest struct {
	Address       string `json:"address" validate:"required"`
	Phone         string `json:"phone" validate:"required"`
	PaymentMethod string `json:"payment_method" validate:"required,oneof=card cash"`
}

// CreateOrder snapshots the user's cart into a PENDING order. The cart's
// line items are copied, not referenced, so later cart mutations can not
// change what was purchased.
func (oc *OrderController) CreateOrder(w http.ResponseWriter, r *http.Request) {
	userID, _, err := authedUser(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	var req createOrderRequest
	if err := decodeBody(r, &req); err != nil {
		utils.WriteError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var cart models.Cart
	if err := oc.Carts.FindOne(ctx, bson.M{"user_id": userID}).Decode(&cart); err != nil {
		utils.WriteError(w, utils.NotFound("User cart not found"))
		return
	}
	if len(cart.Items) == 0 {
		utils.WriteError(w, utils.BadRequest("Cart is empty"))
		return
	}

	items := make([]models.OrderItem, 0, len(cart.Items))
	for _, item := range cart.Items {
		items = append(items, models.OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
			Color:     item.Color,
			Size:      item.Size,
		})
	}

	subtotal := cart.Subtotal()
	discount := 0.0
	var couponID *primitive.ObjectID
	if cart.CouponID != nil {
		var coupon models.Coupon
		err := oc.Coupons.FindOne(ctx, bson.M{"_id": *cart.CouponID}).Decode(&coupon)
		// An expired or already purged coupon never reduces the total.
		if err == nil && coupon.Validate(time.Now()) == nil {
			discount = coupon.Discount(subtotal)
			couponID = cart.CouponID
		}
	}

	now := time.Now()
	order := models.Order{
		UserID:          userID,
		CartID:          cart.ID,
		Items:           items,
		Subtotal:        subtotal,
		Discount:        discount,
		Total:           math.Round((subtotal-discount)*100) / 100,
		CouponID:        couponID,
		Phone:           req.Phone,
		ShippingAddress: req.Address,
		PaymentMethod:   req.PaymentMethod,
		TrackingNumber:  uuid.NewString(),
		ArrivalEstimate: now.AddDate(0, 0, 10),
		Status:          models.StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	result, err := oc.Orders.InsertOne(ctx, order)
	if err != nil {
		utils.WriteError(w, utils.Internal("Failed to create order"))
		return
	}
	order.ID = result.InsertedID.(primitive.ObjectID)

	utils.WriteJSON(w, http.StatusCreated, "Order Created Successfully", map[string]any{"order": order})
}

// GetOrders lists the authenticated user's orders, newest first.
func (oc *OrderController) GetOrders(w http.ResponseWriter, r *http.Request) {
	userID, _, err := authedUser(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	cursor, err := oc.Orders.Find(ctx, bson.M{"user_id": userID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		utils.WriteError(w, utils.Internal("Failed to retrieve orders"))
		return
	}
	defer cursor.Close(ctx)

	orders := []models.Order{}
	if err := cursor.All(ctx, &orders); err != nil {
		utils.WriteError(w, utils.Internal("Error decoding orders"))
		return
	}

	utils.WriteJSON(w, http.StatusOK, "User Orders Fetched Successfully", map[string]any{"orders": orders})
}

// findUserOrder loads an order and checks ownership. A mismatch is reported
// the same way as a missing order so existence is not leaked.
func (oc *OrderController) findUserOrder(ctx context.Context, r *http.Request) (*models.Order, error) {
	userID, _, err := authedUser(r)
	if err != nil {
		return nil, err
	}
	orderID, err := primitive.ObjectIDFromHex(mux.Vars(r)["orderId"])
	if err != nil {
		return nil, utils.BadRequest("Invalid order ID")
	}

	var order models.Order
	if err := oc.Orders.FindOne(ctx, bson.M{"_id": orderID}).Decode(&order); err != nil || order.UserID != userID {
		return nil, utils.BadRequest("Order not found or you do not have permission to access this order")
	}
	return &order, nil
}

// GetOrderDetails returns one of the user's orders.
func (oc *OrderController) GetOrderDetails(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	order, err := oc.findUserOrder(ctx, r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, "Order Details Fetched Successfully", map[string]any{"order": order})
}

type payOrderRequest struct {
	OrderID string `json:"order_id" validate:"required"`
}

// PayOrder creates an externally hosted checkout session for a PENDING
// order and returns the session handle. No local state changes here; the
// PAID transition happens on the provider's webhook.
func (oc *OrderController) PayOrder(w http.ResponseWriter, r *http.Request) {
	userID, claims, err := authedUser(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	var req payOrderRequest
	if err := decodeBody(r, &req); err != nil {
		utils.WriteError(w, err)
		return
	}
	orderID, err := primitive.ObjectIDFromHex(req.OrderID)
	if err != nil {
		utils.WriteError(w, utils.BadRequest("Invalid order ID"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	var order models.Order
	err = oc.Orders.FindOne(ctx, bson.M{"_id": orderID, "user_id": userID}).Decode(&order)
	if err != nil || order.Status != models.StatusPending {
		// Only a PENDING order can start a payment session.
		utils.WriteError(w, utils.NotFound("Order not found"))
		return
	}

	checkoutItems := make([]utils.CheckoutItem, 0, len(order.Items))
	for _, item := range order.Items {
		var product models.Product
		if err := oc.Products.FindOne(ctx, bson.M{"_id": item.ProductID}).Decode(&product); err != nil {
			utils.WriteError(w, utils.NotFound("Product not found"))
			return
		}
		imageURL := ""
		if len(product.ImageKeys) > 0 {
			// One representative image per line; a failed signing just
			// drops the thumbnail.
			imageURL, _ = oc.Storage.SignedURL(ctx, product.ImageKeys[0])
		}
		checkoutItems = append(checkoutItems, utils.CheckoutItem{
			Name:       product.Name,
			ImageURL:   imageURL,
			UnitAmount: int64(math.Round(item.Price * 100)),
			Quantity:   int64(item.Quantity),
		})
	}

	session, err := oc.Gateway.CreateCheckoutSession(checkoutItems, claims.Email, order.ID.Hex())
	if err != nil {
		log.Printf("failed to create checkout session for order %s: %v", order.ID.Hex(), err)
		utils.WriteError(w, utils.Internal("Failed to create payment session"))
		return
	}

	utils.WriteJSON(w, http.StatusOK, "Payment Session Created Successfully", map[string]any{
		"session_id": session.ID,
		"url":        session.URL,
	})
}

// StripeWebhook consumes payment provider events. Delivery is at-least-once,
// so the PAID transition is idempotent: a redelivered event finds the order
// already PAID and changes nothing. Malformed payloads are rejected without
// touching any state.
func (oc *OrderController) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	const maxBodyBytes = int64(65536)
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		utils.WriteError(w, utils.BadRequest("Failed to read webhook payload"))
		return
	}

	event, err := oc.Gateway.ParseEvent(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		utils.WriteError(w, utils.BadRequest("Invalid webhook payload"))
		return
	}

	if event.Type != "checkout.session.completed" {
		log.Printf("ignoring webhook event type %s", event.Type)
		utils.WriteJSON(w, http.StatusOK, "Event type not handled", nil)
		return
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		utils.WriteError(w, utils.BadRequest("Invalid webhook payload"))
		return
	}

	orderID, err := primitive.ObjectIDFromHex(session.Metadata["orderId"])
	if err != nil {
		utils.WriteError(w, utils.BadRequest("Webhook payload has no valid order id"))
		return
	}
	paymentIntentID := ""
	if session.PaymentIntent != nil {
		paymentIntentID = session.PaymentIntent.ID
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var order models.Order
	if err := oc.Orders.FindOne(ctx, bson.M{"_id": orderID}).Decode(&order); err != nil {
		// Unknown order: acknowledge so the provider stops retrying.
		log.Printf("webhook for unknown order %s", orderID.Hex())
		utils.WriteJSON(w, http.StatusOK, "Order not known", nil)
		return
	}

	prevStatus := order.Status
	if !order.MarkPaid(paymentIntentID) {
		// Redelivery after the transition already happened is a no-op.
		log.Printf("order %s already in status %s, webhook ignored", orderID.Hex(), order.Status)
		utils.WriteJSON(w, http.StatusOK, "Webhook processed", nil)
		return
	}

	result, err := oc.Orders.UpdateOne(ctx,
		bson.M{"_id": order.ID, "status": prevStatus},
		bson.M{"$set": bson.M{
			"status":            order.Status,
			"payment_intent_id": order.PaymentIntentID,
			"updated_at":        time.Now(),
		}})
	if err != nil {
		utils.WriteError(w, utils.Internal("Failed to update order"))
		return
	}
	if result.ModifiedCount == 0 {
		// A concurrent delivery committed first; nothing left to do.
		utils.WriteJSON(w, http.StatusOK, "Webhook processed", nil)
		return
	}

	oc.settlePaidOrder(ctx, &order)

	utils.WriteJSON(w, http.StatusOK, "Webhook processed", nil)
}

// settlePaidOrder performs the side effects of the first PAID transition:
// stock decrement, cart cleanup and the confirmation email. Each step is
// best-effort and logged; the payment itself has already committed. The
// products whose decrement actually matched are recorded on the order so
// a later cancellation only restocks what was taken.
func (oc *OrderController) settlePaidOrder(ctx context.Context, order *models.Order) {
	stocked := make([]primitive.ObjectID, 0, len(order.Items))
	for productID, qty := range order.QuantityByProduct() {
		result, err := oc.Products.UpdateOne(ctx,
			bson.M{"_id": productID, "stock": bson.M{"$gte": qty}},
			bson.M{"$inc": bson.M{"stock": -qty}})
		if err != nil {
			log.Printf("failed to decrement stock for product %s: %v", productID.Hex(), err)
			continue
		}
		if result.MatchedCount == 0 {
			log.Printf("stock for product %s below %d, decrement skipped for order %s", productID.Hex(), qty, order.ID.Hex())
			continue
		}
		stocked = append(stocked, productID)
	}
	order.StockedProducts = stocked
	if len(stocked) > 0 {
		if _, err := oc.Orders.UpdateOne(ctx, bson.M{"_id": order.ID},
			bson.M{"$set": bson.M{"stocked_products": stocked}}); err != nil {
			log.Printf("failed to record stock decrements for order %s: %v", order.ID.Hex(), err)
		}
	}

	_, err := oc.Carts.UpdateOne(ctx, bson.M{"_id": order.CartID}, bson.M{"$set": bson.M{
		"items":      []models.CartItem{},
		"coupon_id":  nil,
		"total":      0.0,
		"updated_at": time.Now(),
	}})
	if err != nil {
		log.Printf("failed to clear cart %s after checkout: %v", order.CartID.Hex(), err)
	}

	var user models.User
	if err := oc.Users.FindOne(ctx, bson.M{"_id": order.UserID}).Decode(&user); err == nil {
		go func(email, orderID string, total float64, arrival string) {
			if err := oc.EmailService.SendOrderConfirmationEmail(email, orderID, total, arrival); err != nil {
				log.Printf("failed to send confirmation email to %s: %v", email, err)
			}
		}(user.Email, order.ID.Hex(), order.Total, order.ArrivalEstimate.Format("2006-01-02"))
	}
}

// CancelOrder cancels one of the user's orders within the 24 hour window.
// If the payment had already captured funds, a refund is requested from the
// provider and the order moves on to REFUNDED.
func (oc *OrderController) CancelOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	order, err := oc.findUserOrder(ctx, r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	if err := order.CanCancel(time.Now()); err != nil {
		if errors.Is(err, models.ErrNotCancellable) || errors.Is(err, models.ErrCancelWindow) {
			utils.WriteError(w, utils.BadRequest(err.Error()))
			return
		}
		utils.WriteError(w, utils.Internal("Failed to cancel order"))
		return
	}

	result, err := oc.Orders.UpdateOne(ctx,
		bson.M{"_id": order.ID, "status": order.Status},
		bson.M{"$set": bson.M{"status": models.StatusCancelled, "updated_at": time.Now()}})
	if err != nil || result.ModifiedCount == 0 {
		utils.WriteError(w, utils.BadRequest("You can not cancel this order"))
		return
	}

	refunded := false
	if order.PaymentIntentID != "" {
		// Funds only captured once an intent was stored; otherwise a
		// provider refund call would fail on a never-captured intent.
		if err := oc.Gateway.Refund(order.PaymentIntentID); err != nil {
			log.Printf("refund request failed for order %s: %v", order.ID.Hex(), err)
		} else {
			refunded = true
			if _, err := oc.Orders.UpdateOne(ctx,
				bson.M{"_id": order.ID, "status": models.StatusCancelled},
				bson.M{"$set": bson.M{"status": models.StatusRefunded, "updated_at": time.Now()}}); err != nil {
				log.Printf("refund issued but order %s stuck in CANCELLED: %v", order.ID.Hex(), err)
			}
		}
	}

	for productID, qty := range order.QuantityByProduct() {
		if !order.Stocked(productID) {
			continue
		}
		if _, err := oc.Products.UpdateOne(ctx, bson.M{"_id": productID},
			bson.M{"$inc": bson.M{"stock": qty}}); err != nil {
			log.Printf("failed to restock product %s: %v", productID.Hex(), err)
		}
	}

	var user models.User
	if err := oc.Users.FindOne(ctx, bson.M{"_id": order.UserID}).Decode(&user); err == nil {
		go func(email, orderID string, refunded bool) {
			if err := oc.EmailService.SendOrderCancelledEmail(email, orderID, refunded); err != nil {
				log.Printf("failed to send cancellation email to %s: %v", email, err)
			}
		}(user.Email, order.ID.Hex(), refunded)
	}

	utils.WriteJSON(w, http.StatusOK, "Order Canceled Successfully", nil)
}

// ListAllOrders returns every order, optionally filtered by status
// (admin only).
func (oc *OrderController) ListAllOrders(w http.ResponseWriter, r *http.Request) {
	filter := bson.M{}
	if status := r.URL.Query().Get("status"); status != "" {
		s := models.OrderStatus(status)
		if !s.Valid() {
			utils.WriteError(w, utils.BadRequest("Invalid order status"))
			return
		}
		filter["status"] = s
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	cursor, err := oc.Orders.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		utils.WriteError(w, utils.Internal("Failed to retrieve orders"))
		return
	}
	defer cursor.Close(ctx)

	orders := []models.Order{}
	if err := cursor.All(ctx, &orders); err != nil {
		utils.WriteError(w, utils.Internal("Error decoding orders"))
		return
	}

	utils.WriteJSON(w, http.StatusOK, "Orders Fetched Successfully", map[string]any{"orders": orders})
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// UpdateOrderStatus advances an order along the fulfillment path
// (admin only). Transitions outside the state machine are rejected.
func (oc *OrderController) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := primitive.ObjectIDFromHex(mux.Vars(r)["orderId"])
	if err != nil {
		utils.WriteError(w, utils.BadRequest("Invalid order ID"))
		return
	}

	var req updateStatusRequest
	if err := decodeBody(r, &req); err != nil {
		utils.WriteError(w, err)
		return
	}
	next := models.OrderStatus(req.Status)
	if !next.Valid() {
		utils.WriteError(w, utils.BadRequest("Invalid order status"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var order models.Order
	if err := oc.Orders.FindOne(ctx, bson.M{"_id": orderID}).Decode(&order); err != nil {
		utils.WriteError(w, utils.NotFound("Order not found"))
		return
	}
	if !order.Status.CanTransitionTo(next) {
		utils.WriteError(w, utils.BadRequest("Order can not move from "+string(order.Status)+" to "+string(next)))
		return
	}

	result, err := oc.Orders.UpdateOne(ctx,
		bson.M{"_id": order.ID, "status": order.Status},
		bson.M{"$set": bson.M{"status": next, "updated_at": time.Now()}})
	if err != nil || result.ModifiedCount == 0 {
		utils.WriteError(w, utils.BadRequest("Order status changed concurrently, try again"))
		return
	}

	utils.WriteJSON(w, http.StatusOK, "Order Status Updated Successfully", nil)
}
