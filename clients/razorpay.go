package clients

import (
	"github.com/razorpay/razorpay-go"
	"github.com/razorpay/razorpay-go/utils"
)

// CardGateway is the boundary the payment controller talks to. The engine
// never speaks the gateway wire protocol; the adapter verifies webhooks and
// creates orders, and only confirmed outcomes are reported inward.
type CardGateway interface {
	CreateOrder(data map[string]interface{}) (map[string]interface{}, error)
	VerifyWebhookSignature(signature, body, webhookSecret string) bool
}

// RazorpayClient implements CardGateway with the Razorpay SDK.
type RazorpayClient struct {
	Client *razorpay.Client
}

// NewRazorpayClient initializes the SDK client with the key pair.
func NewRazorpayClient(keyID, keySecret string) *RazorpayClient {
	return &RazorpayClient{
		Client: razorpay.NewClient(keyID, keySecret),
	}
}

func (r *RazorpayClient) CreateOrder(data map[string]interface{}) (map[string]interface{}, error) {
	return r.Client.Order.Create(data, nil)
}

// VerifyWebhookSignature checks the webhook HMAC before any payload is
// trusted.
func (r *RazorpayClient) VerifyWebhookSignature(signature, body, webhookSecret string) bool {
	return utils.VerifyWebhookSignature(body, signature, webhookSecret)
}
