package shopify

import (
	"context"
	"encoding/json"
	"fmt"
)

// RemoteSubscription is a subscription record as the billing platform
// reports it. Status arrives in the vendor's upper-case wire form.
type RemoteSubscription struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Status string  `json:"status"`
	Test   bool    `json:"test"`
	Price  float64 `json:"-"`
}

const activeSubscriptionsQuery = `
query AppActiveSubscriptions {
  currentAppInstallation {
    activeSubscriptions {
      id
      name
      status
      test
      lineItems {
        plan {
          pricingDetails {
            ... on AppRecurringPricing {
              price {
                amount
              }
            }
          }
        }
      }
    }
  }
}`

const appSubscriptionCreateMutation = `
mutation AppSubscriptionCreate($name: String!, $returnUrl: URL!, $test: Boolean, $lineItems: [AppSubscriptionLineItemInput!]!) {
  appSubscriptionCreate(name: $name, returnUrl: $returnUrl, test: $test, lineItems: $lineItems) {
    confirmationUrl
    appSubscription {
      id
      status
    }
    userErrors {
      field
      message
    }
  }
}`

const appSubscriptionCancelMutation = `
mutation AppSubscriptionCancel($id: ID!) {
  appSubscriptionCancel(id: $id) {
    appSubscription {
      id
      status
    }
    userErrors {
      field
      message
    }
  }
}`

// ActiveSubscriptions returns the subscriptions the billing platform
// currently considers active for the app installation on this shop.
func (c *AdminClient) ActiveSubscriptions(ctx context.Context) ([]RemoteSubscription, error) {
	data, err := c.GraphQL(ctx, activeSubscriptionsQuery, nil)
	if err != nil {
		return nil, err
	}

	var payload struct {
		CurrentAppInstallation struct {
			ActiveSubscriptions []struct {
				ID        string `json:"id"`
				Name      string `json:"name"`
				Status    string `json:"status"`
				Test      bool   `json:"test"`
				LineItems []struct {
					Plan struct {
						PricingDetails struct {
							Price struct {
								Amount string `json:"amount"`
							} `json:"price"`
						} `json:"pricingDetails"`
					} `json:"plan"`
				} `json:"lineItems"`
			} `json:"activeSubscriptions"`
		} `json:"currentAppInstallation"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode active subscriptions: %w", err)
	}

	subs := make([]RemoteSubscription, 0, len(payload.CurrentAppInstallation.ActiveSubscriptions))
	for _, raw := range payload.CurrentAppInstallation.ActiveSubscriptions {
		sub := RemoteSubscription{
			ID:     raw.ID,
			Name:   raw.Name,
			Status: raw.Status,
			Test:   raw.Test,
		}
		if len(raw.LineItems) > 0 {
			var price float64
			fmt.Sscanf(raw.LineItems[0].Plan.PricingDetails.Price.Amount, "%f", &price)
			sub.Price = price
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

// CreateSubscription registers a recurring charge and returns the merchant
// confirmation URL. Vendor userErrors abort the call and come back verbatim
// inside a *GatewayError.
func (c *AdminClient) CreateSubscription(ctx context.Context, name string, price float64, returnURL string, test bool) (string, error) {
	variables := map[string]interface{}{
		"name":      name,
		"returnUrl": returnURL,
		"test":      test,
		"lineItems": []map[string]interface{}{
			{
				"plan": map[string]interface{}{
					"appRecurringPricingDetails": map[string]interface{}{
						"price": map[string]interface{}{
							"amount":       price,
							"currencyCode": "USD",
						},
						"interval": "EVERY_30_DAYS",
					},
				},
			},
		},
	}

	data, err := c.GraphQL(ctx, appSubscriptionCreateMutation, variables)
	if err != nil {
		return "", err
	}

	var payload struct {
		AppSubscriptionCreate struct {
			ConfirmationURL string `json:"confirmationUrl"`
			UserErrors      []struct {
				Message string `json:"message"`
			} `json:"userErrors"`
		} `json:"appSubscriptionCreate"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return "", fmt.Errorf("failed to decode subscription create response: %w", err)
	}
	if len(payload.AppSubscriptionCreate.UserErrors) > 0 {
		messages := make([]string, 0, len(payload.AppSubscriptionCreate.UserErrors))
		for _, ue := range payload.AppSubscriptionCreate.UserErrors {
			messages = append(messages, ue.Message)
		}
		return "", &GatewayError{Message: "subscription create rejected", UserErrors: messages}
	}
	if payload.AppSubscriptionCreate.ConfirmationURL == "" {
		return "", &GatewayError{Message: "subscription create returned no confirmation url"}
	}
	return payload.AppSubscriptionCreate.ConfirmationURL, nil
}

// CancelSubscription cancels one subscription by its platform id.
func (c *AdminClient) CancelSubscription(ctx context.Context, id string) error {
	data, err := c.GraphQL(ctx, appSubscriptionCancelMutation, map[string]interface{}{"id": id})
	if err != nil {
		return err
	}

	var payload struct {
		AppSubscriptionCancel struct {
			UserErrors []struct {
				Message string `json:"message"`
			} `json:"userErrors"`
		} `json:"appSubscriptionCancel"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("failed to decode subscription cancel response: %w", err)
	}
	if len(payload.AppSubscriptionCancel.UserErrors) > 0 {
		messages := make([]string, 0, len(payload.AppSubscriptionCancel.UserErrors))
		for _, ue := range payload.AppSubscriptionCancel.UserErrors {
			messages = append(messages, ue.Message)
		}
		return &GatewayError{Message: "subscription cancel rejected", UserErrors: messages}
	}
	return nil
}
