package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"staffhub/internal/models"
)

// Sender sends a single message through the provider on behalf of a tenant
type Sender interface {
	Send(ctx context.Context, token, phoneNumber string, msg models.Message) (providerMessageID string, err error)
}

// APIError is a structured non-2xx response from the provider
type APIError struct {
	Status  int    `json:"status"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("whatsapp api error (http %d, code %d): %s", e.Status, e.Code, e.Message)
}

// WhatsAppClient sends messages through a WhatsApp Cloud style HTTP API
type WhatsAppClient struct {
	baseURL string
	client  *http.Client
}

// NewWhatsAppClient creates a new gateway client
func NewWhatsAppClient(baseURL string, timeout time.Duration) *WhatsAppClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WhatsAppClient{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

type mediaPayload struct {
	Link     string `json:"link"`
	Filename string `json:"filename,omitempty"`
}

type sendRequest struct {
	MessagingProduct string        `json:"messaging_product"`
	To               string        `json:"to"`
	Type             string        `json:"type"`
	Text             *textPayload  `json:"text,omitempty"`
	Image            *mediaPayload `json:"image,omitempty"`
	Document         *mediaPayload `json:"document,omitempty"`
}

type textPayload struct {
	Body string `json:"body"`
}

type sendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// Send issues one POST to the provider for a single message.
// Non-2xx responses are parsed into an *APIError.
func (c *WhatsAppClient) Send(ctx context.Context, token, phoneNumber string, msg models.Message) (string, error) {
	payload := sendRequest{
		MessagingProduct: "whatsapp",
		To:               msg.To,
		Type:             string(msg.Type),
	}

	switch msg.Type {
	case models.MessageTypeText:
		payload.Text = &textPayload{Body: msg.Body}
	case models.MessageTypeImage:
		payload.Image = &mediaPayload{Link: msg.MediaURL}
	case models.MessageTypeDocument:
		payload.Document = &mediaPayload{Link: msg.MediaURL, Filename: msg.Filename}
	default:
		return "", fmt.Errorf("unsupported message type: %s", msg.Type)
	}

	reqBody, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal send request: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", c.baseURL, phoneNumber)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to reach gateway: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	var sr sendResponse
	if err := json.Unmarshal(body, &sr); err != nil && resp.StatusCode < 300 {
		return "", fmt.Errorf("failed to decode response: %w body=%q", err, string(body))
	}

	if resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		if sr.Error != nil {
			apiErr.Code = sr.Error.Code
			apiErr.Message = sr.Error.Message
		} else {
			apiErr.Message = string(body)
		}
		return "", apiErr
	}

	if len(sr.Messages) == 0 || sr.Messages[0].ID == "" {
		return "", fmt.Errorf("missing message id in response body=%q", string(body))
	}

	return sr.Messages[0].ID, nil
}
