package handlers_test

import (
	"net/http"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/lengapp/leng-api/api/handlers"
	"github.com/lengapp/leng-api/databases/mocks"
	"github.com/lengapp/leng-api/models"
)

func TestCreateOrder_Validation(t *testing.T) {
	tests := []struct {
		name  string
		items []map[string]interface{}
		want  string
	}{
		{"no items", nil, "items must not be empty"},
		{"missing product", []map[string]interface{}{{"qty": 1}}, "every item needs a productId"},
		{"zero qty", []map[string]interface{}{{"productId": "mug", "qty": 0}}, "qty must be a positive number"},
		{"negative qty", []map[string]interface{}{{"productId": "mug", "qty": -2}}, "qty must be a positive number"},
		{"huge qty", []map[string]interface{}{{"productId": "mug", "qty": 1e300}}, "qty must be at most 1000"},
		{"qty over cap", []map[string]interface{}{{"productId": "mug", "qty": 1001}}, "qty must be at most 1000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := handlers.Order{Orders: mocks.NewStore[models.Order](t)}
			rr := serve(o.CreateOrderHandler, newRequest(t, "POST", "/orders", map[string]interface{}{"items": tt.items}))

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Equal(t, tt.want, decode(t, rr)["error"])
		})
	}
}

func TestCreateOrder_CopiesVitrinPrices(t *testing.T) {
	pages := mocks.NewStore[models.Page](t)
	orders := mocks.NewStore[models.Order](t)
	shop := &models.Page{Slug: "shop", UID: "u1", Vitrin: &models.Vitrin{
		Enabled:  true,
		Products: []models.VitrinProduct{{ID: "mug", Name: "Mug", PriceCents: 1500}},
	}}
	pages.On("FindOne", mock.Anything, bson.M{"_id": "shop", "deletedAt": bson.M{"$exists": false}}, mock.Anything).Return(shop, nil)
	orders.On("InsertOne", mock.Anything, mock.MatchedBy(func(o models.Order) bool {
		return o.Status == models.OrderPending &&
			o.Items[0].Name == "Mug" && o.Items[0].PriceCents == 1500 &&
			o.Items[1].PriceCents == 0
	})).Return(nil, nil)

	o := handlers.Order{Orders: orders, Pages: pages}
	body := map[string]interface{}{
		"slug":  "Shop",
		"items": []map[string]interface{}{{"productId": "mug", "qty": 2}, {"productId": "unknown", "qty": 1}},
	}
	rr := serve(o.CreateOrderHandler, newRequest(t, "POST", "/orders", body))

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, models.OrderPending, decode(t, rr)["status"])
}

func TestCreateOrder_TotalTooLarge(t *testing.T) {
	pages := mocks.NewStore[models.Page](t)
	shop := &models.Page{Slug: "shop", UID: "u1", Vitrin: &models.Vitrin{
		Enabled:  true,
		Products: []models.VitrinProduct{{ID: "car", Name: "Car", PriceCents: 90000000}},
	}}
	pages.On("FindOne", mock.Anything, mock.Anything, mock.Anything).Return(shop, nil)

	o := handlers.Order{Orders: mocks.NewStore[models.Order](t), Pages: pages}
	body := map[string]interface{}{
		"slug":  "shop",
		"items": []map[string]interface{}{{"productId": "car", "qty": 1000}},
	}
	rr := serve(o.CreateOrderHandler, newRequest(t, "POST", "/orders", body))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "order total is too large", decode(t, rr)["error"])
}

func TestPayment_ZeroTotal(t *testing.T) {
	orders := mocks.NewStore[models.Order](t)
	id := primitive.NewObjectID()
	orders.On("FindOne", mock.Anything, bson.M{"_id": id}, mock.Anything).
		Return(&models.Order{ID: id, Items: []models.OrderItem{{ProductID: "free", Qty: 1}}}, nil)

	o := handlers.Order{Orders: orders, Payments: &fakeProvider{}}
	req := mux.SetURLVars(newRequest(t, "POST", "/orders/x/payment", nil), map[string]string{"id": id.Hex()})
	rr := serve(o.PaymentHandler, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestPayment_StartsCheckout(t *testing.T) {
	orders := mocks.NewStore[models.Order](t)
	id := primitive.NewObjectID()
	orders.On("FindOne", mock.Anything, bson.M{"_id": id}, mock.Anything).
		Return(&models.Order{ID: id, Items: []models.OrderItem{{ProductID: "mug", Name: "Mug", Qty: 2, PriceCents: 1500}}}, nil)
	orders.On("UpdateOne", mock.Anything, bson.M{"_id": id}, mock.MatchedBy(func(u bson.M) bool {
		set := u["$set"].(bson.M)
		return set["status"] == models.OrderPaymentStarted && set["stripeSessionId"] == "cs_test_1"
	}), mock.Anything).Return(updated(1), nil)

	provider := &fakeProvider{}
	o := handlers.Order{Orders: orders, Payments: provider}
	req := mux.SetURLVars(newRequest(t, "POST", "/orders/x/payment", nil), map[string]string{"id": id.Hex()})
	rr := serve(o.PaymentHandler, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "https://checkout.stripe.com/c/cs_test_1", decode(t, rr)["paymentUrl"])
	if assert.Len(t, provider.requests, 1) {
		assert.Equal(t, int64(2), provider.requests[0].Items[0].Quantity)
		assert.Equal(t, id.Hex(), provider.requests[0].Reference)
	}
}
