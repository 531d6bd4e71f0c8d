package shopify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, handler http.HandlerFunc) *AdminClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := NewAdminClient("shop.myshopify.com", "shpat_token")
	client.BaseURL = srv.URL
	return client
}

func TestGraphQLSendsAccessToken(t *testing.T) {
	var gotToken, gotContentType string
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-Shopify-Access-Token")
		gotContentType = r.Header.Get("Content-Type")
		w.Write([]byte(`{"data":{}}`))
	})

	_, err := client.GraphQL(context.Background(), "query { shop { id } }", nil)
	require.NoError(t, err)
	require.Equal(t, "shpat_token", gotToken)
	require.Equal(t, "application/json", gotContentType)
}

func TestGraphQLTopLevelErrors(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"errors":[{"message":"Invalid API key or access token"}]}`))
	})

	_, err := client.GraphQL(context.Background(), "query { shop { id } }", nil)
	var gwErr *GatewayError
	require.ErrorAs(t, err, &gwErr)
	require.Contains(t, gwErr.Error(), "Invalid API key or access token")
}

func TestActiveSubscriptions(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"currentAppInstallation":{"activeSubscriptions":[
			{"id":"gid://shopify/AppSubscription/1","name":"Pro Plan","status":"ACTIVE","test":true,
			 "lineItems":[{"plan":{"pricingDetails":{"price":{"amount":"20.00"}}}}]}
		]}}}`))
	})

	subs, err := client.ActiveSubscriptions(context.Background())
	require.NoError(t, err)
	require.Len(t, subs, 1)
	require.Equal(t, "gid://shopify/AppSubscription/1", subs[0].ID)
	require.Equal(t, "Pro Plan", subs[0].Name)
	require.Equal(t, "ACTIVE", subs[0].Status)
	require.Equal(t, 20.0, subs[0].Price)
}

func TestActiveSubscriptionsEmpty(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"currentAppInstallation":{"activeSubscriptions":[]}}}`))
	})

	subs, err := client.ActiveSubscriptions(context.Background())
	require.NoError(t, err)
	require.Empty(t, subs)
}

func TestCreateSubscription(t *testing.T) {
	var gotVariables map[string]interface{}
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Variables map[string]interface{} `json:"variables"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotVariables = body.Variables
		w.Write([]byte(`{"data":{"appSubscriptionCreate":{
			"confirmationUrl":"https://shop.myshopify.com/admin/charges/1/confirm",
			"appSubscription":{"id":"gid://shopify/AppSubscription/1","status":"PENDING"},
			"userErrors":[]}}}`))
	})

	url, err := client.CreateSubscription(context.Background(), "Pro Plan", 20, "https://app.example.com/app/billing/confirm", true)
	require.NoError(t, err)
	require.Equal(t, "https://shop.myshopify.com/admin/charges/1/confirm", url)
	require.Equal(t, "Pro Plan", gotVariables["name"])
	require.Equal(t, true, gotVariables["test"])
}

func TestCreateSubscriptionUserErrors(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"appSubscriptionCreate":{
			"confirmationUrl":null,
			"userErrors":[{"field":["name"],"message":"Subscription name is already taken"}]}}}`))
	})

	_, err := client.CreateSubscription(context.Background(), "Pro Plan", 20, "https://app.example.com/return", false)
	var gwErr *GatewayError
	require.ErrorAs(t, err, &gwErr)
	// Vendor messages are preserved verbatim for the caller to surface.
	require.Equal(t, []string{"Subscription name is already taken"}, gwErr.UserErrors)
	require.Equal(t, "Subscription name is already taken", gwErr.Error())
}

func TestCancelSubscription(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"appSubscriptionCancel":{
			"appSubscription":{"id":"gid://shopify/AppSubscription/1","status":"CANCELLED"},
			"userErrors":[]}}}`))
	})

	err := client.CancelSubscription(context.Background(), "gid://shopify/AppSubscription/1")
	require.NoError(t, err)
}

func TestCancelSubscriptionUserErrors(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"appSubscriptionCancel":{
			"appSubscription":null,
			"userErrors":[{"field":["id"],"message":"Subscription is not active"}]}}}`))
	})

	err := client.CancelSubscription(context.Background(), "gid://shopify/AppSubscription/1")
	var gwErr *GatewayError
	require.ErrorAs(t, err, &gwErr)
	require.Equal(t, []string{"Subscription is not active"}, gwErr.UserErrors)
}

func TestGraphQLHTTPFailure(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream busy", http.StatusBadGateway)
	})

	_, err := client.GraphQL(context.Background(), "query { shop { id } }", nil)
	var gwErr *GatewayError
	if !errors.As(err, &gwErr) {
		t.Fatalf("expected GatewayError, got %v", err)
	}
}
