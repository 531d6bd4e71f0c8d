package controllers

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/StorePlanHQ/StorePlan/app/models"
	"github.com/StorePlanHQ/StorePlan/internal/pkg/billing"
	"github.com/StorePlanHQ/StorePlan/internal/pkg/shopify"
)

// memRepo is an in-memory billing.Repository for exercising the handler
// helpers without a database.
type memRepo struct {
	shops  map[string]*models.Shop
	subs   map[uint]*models.Subscription
	events []*models.SubscriptionEvent
	nextID uint
}

func newMemRepo() *memRepo {
	return &memRepo{
		shops: make(map[string]*models.Shop),
		subs:  make(map[uint]*models.Subscription),
	}
}

func (m *memRepo) addShop(domain string) *models.Shop {
	m.nextID++
	shop := &models.Shop{ID: m.nextID, Domain: domain, AccessToken: "token"}
	m.shops[domain] = shop
	return shop
}

func (m *memRepo) FindShopByDomain(domain string) (*models.Shop, error) {
	if shop, ok := m.shops[domain]; ok {
		return shop, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memRepo) UpsertShop(domain, accessToken string) (*models.Shop, error) {
	if shop, ok := m.shops[domain]; ok {
		shop.AccessToken = accessToken
		return shop, nil
	}
	shop := m.addShop(domain)
	shop.AccessToken = accessToken
	return shop, nil
}

func (m *memRepo) FindSubscriptionByShop(shopID uint) (*models.Subscription, error) {
	if sub, ok := m.subs[shopID]; ok {
		copied := *sub
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memRepo) ApplySubscription(sub *models.Subscription, overwritable []string) (bool, error) {
	existing, ok := m.subs[sub.ShopID]
	if !ok {
		m.nextID++
		sub.ID = m.nextID
		copied := *sub
		m.subs[sub.ShopID] = &copied
		return true, nil
	}
	allowed := overwritable == nil
	for _, s := range overwritable {
		if existing.Status == s {
			allowed = true
			break
		}
	}
	if !allowed {
		return false, nil
	}
	sub.ID = existing.ID
	copied := *sub
	m.subs[sub.ShopID] = &copied
	return true, nil
}

func (m *memRepo) AppendEvent(event *models.SubscriptionEvent) error {
	m.events = append(m.events, event)
	return nil
}

func (m *memRepo) CreateWebhookEventIfNotExists(event *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error) {
	return true, event, nil
}

func (m *memRepo) MarkWebhookProcessed(id uint, processingError string) error {
	return nil
}

type recordingNotifier struct {
	calls []string
}

func (n *recordingNotifier) Notify(shopDomain, event, plan string, price float64) error {
	n.calls = append(n.calls, event+":"+plan)
	return nil
}

// stubGateway stands in for the platform admin client.
type stubGateway struct {
	remote      []shopify.RemoteSubscription
	createURL   string
	createCalls int
	lastName    string
	lastPrice   float64
}

func (g *stubGateway) ActiveSubscriptions(ctx context.Context) ([]shopify.RemoteSubscription, error) {
	return g.remote, nil
}

func (g *stubGateway) CreateSubscription(ctx context.Context, name string, price float64, returnURL string, test bool) (string, error) {
	g.createCalls++
	g.lastName = name
	g.lastPrice = price
	return g.createURL, nil
}

func (g *stubGateway) CancelSubscription(ctx context.Context, id string) error {
	return nil
}

func TestStartSubscriptionSendsCatalogPrice(t *testing.T) {
	gw := &stubGateway{createURL: "https://example.myshopify.com/charges/1/confirm"}

	url, err := startSubscription(context.Background(), gw, "pro", "https://app.example.com/app/billing/confirm", true)
	require.NoError(t, err)
	require.Equal(t, gw.createURL, url)
	require.Equal(t, 1, gw.createCalls)
	require.Equal(t, "Pro Plan", gw.lastName)
	require.Equal(t, 20.0, gw.lastPrice)
}

func TestStartSubscriptionRejectsUnknownPlan(t *testing.T) {
	gw := &stubGateway{}

	_, err := startSubscription(context.Background(), gw, "platinum", "https://app.example.com/app/billing/confirm", true)
	require.ErrorIs(t, err, billing.ErrInvalidPlan)
	require.Zero(t, gw.createCalls)
}

// Starting a subscription must leave local state untouched: a merchant who
// abandons the confirmation page never becomes active, and the next
// dashboard load finds nothing to promote.
func TestAbandonedCheckoutNeverActivates(t *testing.T) {
	repo := newMemRepo()
	repo.addShop("example.myshopify.com")
	notifier := &recordingNotifier{}
	svc := billing.NewService(repo, notifier)
	gw := &stubGateway{createURL: "https://example.myshopify.com/charges/1/confirm"}

	_, err := startSubscription(context.Background(), gw, "pro", "https://app.example.com/app/billing/confirm", true)
	require.NoError(t, err)

	sub, err := svc.PromotePendingSubscription(context.Background(), "example.myshopify.com")
	require.NoError(t, err)
	require.Nil(t, sub)

	current, err := svc.CurrentSubscription(context.Background(), "example.myshopify.com")
	require.NoError(t, err)
	require.Nil(t, current)
	require.Empty(t, notifier.calls)
}

// The confirmation return is not trusted on its own: when the platform
// reports no active subscription, nothing is written.
func TestConfirmActivationRequiresRemoteSubscription(t *testing.T) {
	repo := newMemRepo()
	shop := repo.addShop("example.myshopify.com")
	notifier := &recordingNotifier{}
	svc := billing.NewService(repo, notifier)
	gw := &stubGateway{}

	_, err := confirmActivation(context.Background(), gw, svc, "example.myshopify.com")
	require.ErrorIs(t, err, billing.ErrNoActiveSubscription)
	require.Empty(t, repo.subs[shop.ID])
	require.Empty(t, notifier.calls)
}

func TestConfirmActivationTakesFieldsFromGateway(t *testing.T) {
	repo := newMemRepo()
	shop := repo.addShop("example.myshopify.com")
	notifier := &recordingNotifier{}
	svc := billing.NewService(repo, notifier)
	gw := &stubGateway{remote: []shopify.RemoteSubscription{
		{ID: "gid://shopify/AppSubscription/42", Name: "Business Plan", Status: "ACTIVE", Price: 30},
	}}

	sub, err := confirmActivation(context.Background(), gw, svc, "example.myshopify.com")
	require.NoError(t, err)
	require.NotNil(t, sub)
	require.Equal(t, models.SubscriptionStatusActive, sub.Status)
	require.Equal(t, "business", sub.Plan)
	require.Equal(t, 30.0, sub.Price)
	require.Equal(t, "gid://shopify/AppSubscription/42", sub.SourceSubscriptionID)

	stored := repo.subs[shop.ID]
	require.NotNil(t, stored)
	require.Equal(t, models.SubscriptionStatusActive, stored.Status)
	require.Equal(t, []string{"welcome:business"}, notifier.calls)
}

func TestConfirmReturnRequiresChargeID(t *testing.T) {
	app := fiber.New()
	app.Get("/app/billing/confirm", HandleBillingConfirmReturn)

	req := httptest.NewRequest("GET", "/app/billing/confirm", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	require.Equal(t, "/app", resp.Header.Get("Location"))
}

// The pull path folds in only the first remote subscription; a shop has at
// most one live charge and later entries are stale.
func TestSyncRemoteSubscriptionsTakesFirst(t *testing.T) {
	repo := newMemRepo()
	shop := repo.addShop("example.myshopify.com")
	notifier := &recordingNotifier{}
	svc := billing.NewService(repo, notifier)
	gw := &stubGateway{remote: []shopify.RemoteSubscription{
		{ID: "gid://shopify/AppSubscription/7", Name: "Pro Plan", Status: "ACTIVE", Price: 20},
		{ID: "gid://shopify/AppSubscription/3", Name: "Basic Plan", Status: "ACTIVE", Price: 10},
	}}

	require.NoError(t, syncRemoteSubscriptions(context.Background(), svc, gw, "example.myshopify.com"))

	stored := repo.subs[shop.ID]
	require.NotNil(t, stored)
	require.Equal(t, "pro", stored.Plan)
	require.Equal(t, 20.0, stored.Price)
	require.Equal(t, "gid://shopify/AppSubscription/7", stored.SourceSubscriptionID)
}
