package handlers

import (
	"fmt"
	"math"
	"net/http"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/lengapp/leng-api/api"
	"github.com/lengapp/leng-api/api/sanitize"
	"github.com/lengapp/leng-api/databases"
	"github.com/lengapp/leng-api/models"
	"github.com/lengapp/leng-api/notifications"
	"github.com/lengapp/leng-api/payments"
)

// RecentOrders is how many orders the admin listing returns
const RecentOrders = 50

var orderStatuses = mapset.NewThreadUnsafeSet(
	models.OrderPending,
	models.OrderPaymentStarted,
	models.OrderPaid,
	models.OrderShipped,
	models.OrderCancelled,
	models.OrderRefunded,
)

// Order handles storefront orders
type Order struct {
	Orders     databases.OrderDatabase
	Pages      databases.PageDatabase
	PushTokens databases.PushTokenDatabase
	Payments   payments.Provider
	Notifier   notifications.Notifier
}

type createOrderRequest struct {
	Slug     string               `json:"slug"`
	Items    []models.OrderItem   `json:"items"`
	Customer models.OrderCustomer `json:"customer"`
}

func validateItems(items []models.OrderItem) error {
	if len(items) == 0 {
		return badRequest("items must not be empty")
	}
	if len(items) > models.MaxOrderItems {
		return badRequest(fmt.Sprintf("an order holds at most %d items", models.MaxOrderItems))
	}
	for _, it := range items {
		if strings.TrimSpace(it.ProductID) == "" {
			return badRequest("every item needs a productId")
		}
		if math.IsNaN(it.Qty) || math.IsInf(it.Qty, 0) || it.Qty <= 0 {
			return badRequest("qty must be a positive number")
		}
		if it.Qty > models.MaxOrderQty {
			return badRequest(fmt.Sprintf("qty must be at most %d", models.MaxOrderQty))
		}
	}
	return nil
}

// CreateOrderHandler records a new order. Items whose product is listed in
// the page's vitrin get its name and price.
func (o Order) CreateOrderHandler(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := decodeJSON(r, w, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := validateItems(req.Items); err != nil {
		respondError(w, r, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	slug := sanitize.NormalizeSlug(req.Slug)
	var vitrin *models.Vitrin
	if slug != "" {
		page, err := o.Pages.FindOne(ctx, databases.LivePageFilter(slug))
		if err != nil {
			respondError(w, r, notFoundAs(err, "page not found"))
			return
		}
		vitrin = page.Vitrin
	}

	items := make([]models.OrderItem, 0, len(req.Items))
	for _, it := range req.Items {
		item := models.OrderItem{ProductID: strings.TrimSpace(it.ProductID), Qty: it.Qty}
		if vitrin != nil {
			if p, ok := vitrin.Product(item.ProductID); ok {
				item.Name = p.Name
				item.PriceCents = p.PriceCents
			}
		}
		items = append(items, item)
	}

	if _, ok := (models.Order{Items: items}).TotalWithin(models.MaxOrderTotalCents); !ok {
		respondError(w, r, badRequest("order total is too large"))
		return
	}

	order := models.Order{
		ID:    primitive.NewObjectID(),
		Slug:  slug,
		Items: items,
		Customer: models.OrderCustomer{
			Name:    sanitize.Text(req.Customer.Name, 100),
			Email:   sanitize.Text(req.Customer.Email, 200),
			Phone:   sanitize.Text(req.Customer.Phone, 40),
			Address: sanitize.Text(req.Customer.Address, 500),
		},
		Status:    models.OrderPending,
		CreatedAt: now(),
	}
	if _, err := o.Orders.InsertOne(ctx, order); err != nil {
		respondError(w, r, err)
		return
	}
	zap.S().Infow("order created", "orderId", order.ID.Hex(), "slug", slug, "items", len(items))

	if slug != "" {
		to := ownerRecipient(ctx, o.Pages, o.PushTokens, slug)
		o.Notifier.NewOrder(ctx, to, slug, order.ID.Hex(), order.TotalCents())
	}
	respondSuccess(w, http.StatusCreated, map[string]interface{}{"orderId": order.ID.Hex(), "status": order.Status})
}

// PaymentHandler opens a checkout session for an order
func (o Order) PaymentHandler(w http.ResponseWriter, r *http.Request) {
	orderID, err := objectIDVar(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	order, err := o.Orders.FindOne(ctx, bson.M{"_id": orderID})
	if err != nil {
		respondError(w, r, notFoundAs(err, "order not found"))
		return
	}
	total, ok := order.TotalWithin(models.MaxOrderTotalCents)
	if !ok {
		respondError(w, r, badRequest("order total is too large"))
		return
	}
	if total <= 0 {
		respondError(w, r, badRequest("order total is zero"))
		return
	}

	items := make([]payments.LineItem, 0, len(order.Items))
	for _, it := range order.Items {
		if it.PriceCents <= 0 {
			continue
		}
		name := it.Name
		if name == "" {
			name = it.ProductID
		}
		// Stripe quantities are whole numbers, so fractional lines are charged as one unit
		qty := int64(it.Qty)
		amount := it.PriceCents
		if float64(qty) != it.Qty {
			qty = 1
			amount = int64(math.Round(float64(it.PriceCents) * it.Qty))
		}
		items = append(items, payments.LineItem{Name: name, AmountCents: amount, Quantity: qty})
	}
	checkout, err := o.Payments.CreateCheckout(payments.CheckoutRequest{
		Reference: orderID.Hex(),
		Email:     order.Customer.Email,
		Items:     items,
		Metadata:  map[string]string{"orderId": orderID.Hex()},
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	if _, err := o.Orders.UpdateOne(ctx, bson.M{"_id": orderID}, bson.M{"$set": bson.M{
		"status":          models.OrderPaymentStarted,
		"paymentUrl":      checkout.URL,
		"stripeSessionId": checkout.ID,
		"updatedAt":       now(),
	}}); err != nil {
		respondError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]interface{}{"paymentUrl": checkout.URL})
}

// VerifyOrderHandler marks an order paid once its checkout session is paid
func (o Order) VerifyOrderHandler(w http.ResponseWriter, r *http.Request) {
	orderID, err := objectIDVar(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	order, err := o.Orders.FindOne(ctx, bson.M{"_id": orderID})
	if err != nil {
		respondError(w, r, notFoundAs(err, "order not found"))
		return
	}
	if order.Status == models.OrderPaid {
		respondSuccess(w, http.StatusOK, map[string]interface{}{"status": order.Status})
		return
	}
	if order.StripeSessionID == "" {
		respondError(w, r, badRequest("payment has not been started"))
		return
	}

	status, err := o.Payments.GetSession(order.StripeSessionID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if status.Reference != orderID.Hex() || !status.Paid {
		respondError(w, r, badRequest("payment not completed"))
		return
	}
	if _, err := o.Orders.UpdateOne(ctx, bson.M{"_id": orderID}, bson.M{"$set": bson.M{
		"status":    models.OrderPaid,
		"updatedAt": now(),
	}}); err != nil {
		respondError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]interface{}{"status": models.OrderPaid})
}

// AdminListOrdersHandler returns the most recent orders
func (o Order) AdminListOrdersHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	orders, err := o.Orders.Find(ctx, bson.M{}, options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(RecentOrders))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"count": len(orders), "orders": orders})
}

type orderStatusRequest struct {
	Status string `json:"status"`
}

// AdminOrderStatusHandler sets the status of an order
func (o Order) AdminOrderStatusHandler(w http.ResponseWriter, r *http.Request) {
	orderID, err := objectIDVar(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req orderStatusRequest
	if err := decodeJSON(r, w, &req); err != nil {
		respondError(w, r, err)
		return
	}
	status := strings.ToUpper(strings.TrimSpace(req.Status))
	if !orderStatuses.Contains(status) {
		respondError(w, r, badRequest("invalid status"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	res, err := o.Orders.UpdateOne(ctx, bson.M{"_id": orderID}, bson.M{"$set": bson.M{"status": status, "updatedAt": now()}})
	if err != nil {
		respondError(w, r, err)
		return
	}
	if res.MatchedCount == 0 {
		respondError(w, r, notFound("order not found"))
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "id": orderID.Hex(), "status": status})
}
