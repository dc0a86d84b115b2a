// Package twilio is a minimal Twilio WhatsApp client covering the one
// API call the agent needs: sending a text message back to a customer.
package twilio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	contractx "github.com/kornthana/orderdesk-agent/engine/contract"
)

type Config struct {
	AccountSID string        `split_words:"true" required:"true"`
	AuthToken  string        `split_words:"true" required:"true"`
	FromNumber string        `split_words:"true" required:"true"`
	BaseURL    string        `split_words:"true" default:"https://api.twilio.com"`
	Timeout    time.Duration `split_words:"true" default:"10s"`
}

type Client struct {
	accountSID string
	authToken  string
	fromNumber string
	baseURL    string
	httpClient *http.Client
}

func NewClient(cfg Config) (*Client, error) {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		return nil, errors.New("twilio base url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.AccountSID) == "" || strings.TrimSpace(cfg.AuthToken) == "" {
		return nil, errors.New("twilio credentials are required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		accountSID: strings.TrimSpace(cfg.AccountSID),
		authToken:  strings.TrimSpace(cfg.AuthToken),
		fromNumber: FormatNumber(cfg.FromNumber),
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

func MustNew(cfg Config) *Client {
	client, err := NewClient(cfg)
	if err != nil {
		panic(err)
	}
	return client
}

// Send delivers one WhatsApp text message. It satisfies the engine's
// Transport interface; customerID is the bare phone number.
func (c *Client) Send(ctx context.Context, customerID string, text string) error {
	form := url.Values{}
	form.Set("From", c.fromNumber)
	form.Set("To", FormatNumber(customerID))
	form.Set("Body", text)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", c.baseURL, c.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.accountSID, c.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send whatsapp message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("twilio returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

// FormatNumber normalizes a phone number into Twilio's whatsapp:
// addressing scheme.
func FormatNumber(number string) string {
	number = strings.TrimSpace(number)
	if strings.HasPrefix(number, "whatsapp:") {
		return number
	}
	return "whatsapp:" + number
}

// StripNumber removes the whatsapp: prefix, yielding the bare phone
// number used as the customer id.
func StripNumber(number string) string {
	return strings.TrimPrefix(strings.TrimSpace(number), "whatsapp:")
}

// ParseInbound maps an incoming Twilio webhook form post to an engine
// message. ReceivedAt is stamped here since Twilio does not send one.
func ParseInbound(r *http.Request) (contractx.InboundMessage, error) {
	if err := r.ParseForm(); err != nil {
		return contractx.InboundMessage{}, fmt.Errorf("parse webhook form: %w", err)
	}

	msg := contractx.InboundMessage{
		MessageID:  strings.TrimSpace(r.PostFormValue("MessageSid")),
		CustomerID: StripNumber(r.PostFormValue("From")),
		SenderName: strings.TrimSpace(r.PostFormValue("ProfileName")),
		Text:       r.PostFormValue("Body"),
		ReceivedAt: time.Now().UTC(),
	}
	if msg.MessageID == "" || msg.CustomerID == "" {
		return contractx.InboundMessage{}, errors.New("webhook post missing MessageSid or From")
	}
	return msg, nil
}
