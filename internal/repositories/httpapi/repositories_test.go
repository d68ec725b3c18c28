package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	domain "github.com/warehouse-manage/api/internal/domain"
	"github.com/warehouse-manage/api/internal/repositories"
)

func TestListProducts(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/products" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[{"id":"prod-1","name":"Bottle","price":1000,"quantity":500}]}`))
	}))

	products, err := NewCatalogRepository(client).ListProducts(context.Background())
	if err != nil {
		t.Fatalf("list products: %v", err)
	}
	if len(products) != 1 {
		t.Fatalf("expected one product, got %d", len(products))
	}
	want := domain.Product{ID: "prod-1", Name: "Bottle", Price: 1000, Quantity: 500}
	if products[0] != want {
		t.Fatalf("expected %+v, got %+v", want, products[0])
	}
}

func TestListPackages(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/packages" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[{"id":"pkg-1","name":"Bottle Case","productId":"prod-1","quantity":12,"quantityProduct":100}]}`))
	}))

	packages, err := NewCatalogRepository(client).ListPackages(context.Background())
	if err != nil {
		t.Fatalf("list packages: %v", err)
	}
	if len(packages) != 1 {
		t.Fatalf("expected one package, got %d", len(packages))
	}
	if packages[0].ProductID != "prod-1" || packages[0].QuantityProduct != 100 {
		t.Fatalf("expected package wired to prod-1 with multiple 100, got %+v", packages[0])
	}
}

func TestProjectStock(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/stock/forecast" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body struct {
			DeliveryDate string `json:"deliveryDate"`
			Items        []struct {
				ProductID        string `json:"productId"`
				RequiredQuantity int64  `json:"requiredQuantity"`
			} `json:"items"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if body.DeliveryDate != "2026-04-01" {
			t.Fatalf("expected delivery date 2026-04-01, got %q", body.DeliveryDate)
		}
		if len(body.Items) != 1 || body.Items[0].RequiredQuantity != 120 {
			t.Fatalf("unexpected items %+v", body.Items)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[{"productName":"Bottle","productId":"prod-1","requiredQuantity":120,"estimatedQuantity":80,"currentQuantity":60,"shortage":40,"hasShortage":true}],"hasAnyShortage":true}`))
	}))

	projection, err := NewForecastRepository(client).ProjectStock(context.Background(), domain.ForecastRequest{
		DeliveryDate: domain.NewDate(2026, 4, 1),
		Items:        []domain.ForecastItem{{ProductID: "prod-1", RequiredQuantity: 120}},
	})
	if err != nil {
		t.Fatalf("project stock: %v", err)
	}
	if !projection.HasAnyShortage || len(projection.Lines) != 1 {
		t.Fatalf("unexpected projection %+v", projection)
	}
	if projection.Lines[0].EstimatedQuantity != 80 || projection.Lines[0].Shortage != 40 {
		t.Fatalf("unexpected projection line %+v", projection.Lines[0])
	}
}

func TestCreateOrderPlainPath(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/orders" {
			t.Fatalf("expected plain orders path, got %s", r.URL.Path)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if _, ok := body["deliveryDate"]; ok {
			t.Fatal("expected no deliveryDate field for plain orders")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"order-1","total":4000}`))
	}))

	created, err := NewOrderRepository(client).CreateOrder(context.Background(), repositories.OrderCreateRequest{
		CustomerID: "cust-1",
		DeliverID:  "deliver-1",
		Lines:      []repositories.OrderCreateLine{{ProductID: "prod-1", Amount: 2, Price: 2000}},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if created.ID != "order-1" || created.Total != 4000 {
		t.Fatalf("unexpected created order %+v", created)
	}
}

func TestCreateOrderPlaceOrderPath(t *testing.T) {
	pkgID := "pkg-1"
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/place-orders" {
			t.Fatalf("expected place-orders path, got %s", r.URL.Path)
		}
		var body struct {
			DeliveryDate string `json:"deliveryDate"`
			Lines        []struct {
				ProductID        string  `json:"productId"`
				PackageProductID *string `json:"packageProductId"`
			} `json:"lineItems"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if body.DeliveryDate != "2026-04-01" {
			t.Fatalf("expected deliveryDate 2026-04-01, got %q", body.DeliveryDate)
		}
		if len(body.Lines) != 1 || body.Lines[0].PackageProductID == nil || *body.Lines[0].PackageProductID != pkgID {
			t.Fatalf("unexpected lines %+v", body.Lines)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"order-2","total":100000}`))
	}))

	date := domain.NewDate(2026, 4, 1)
	created, err := NewOrderRepository(client).CreateOrder(context.Background(), repositories.OrderCreateRequest{
		CustomerID:   "cust-1",
		DeliverID:    "deliver-1",
		DeliveryDate: &date,
		Lines: []repositories.OrderCreateLine{
			{ProductID: "prod-1", PackageProductID: &pkgID, Amount: 1, Price: 100000},
		},
	})
	if err != nil {
		t.Fatalf("create place order: %v", err)
	}
	if created.ID != "order-2" {
		t.Fatalf("unexpected created order %+v", created)
	}
}

func TestRenderReceipt(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/orders/order-1/receipt" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"orderId":"order-1","html":"<html>receipt</html>"}`))
	}))

	receipt, err := NewReceiptRepository(client).RenderReceipt(context.Background(), repositories.ReceiptRequest{OrderID: "order-1"})
	if err != nil {
		t.Fatalf("render receipt: %v", err)
	}
	if receipt.OrderID != "order-1" || receipt.HTML == "" {
		t.Fatalf("unexpected receipt %+v", receipt)
	}
}
