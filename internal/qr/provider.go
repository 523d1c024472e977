package qr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// ErrNotAvailable is returned when the provider answers but has no QR code
// for the clinic address. Callers treat timeouts the same way: the payment
// attempt fails and the doctor re-selects the method; there is no automatic
// retry.
var ErrNotAvailable = errors.New("qr code not available")

// Provider resolves a payment QR image reference for a clinic address.
type Provider interface {
	GetQRCode(ctx context.Context, clinicAddressID, doctorID uuid.UUID) (string, error)
}

type HTTPProvider struct {
	baseURL string
	client  *http.Client
}

func NewHTTPProvider(baseURL string, timeout time.Duration) *HTTPProvider {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPProvider{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (p *HTTPProvider) GetQRCode(ctx context.Context, clinicAddressID, doctorID uuid.UUID) (string, error) {
	payload, err := json.Marshal(map[string]string{
		"clinic_address_id": clinicAddressID.String(),
		"doctor_id":         doctorID.String(),
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/qrcodes", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("qr provider request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", ErrNotAvailable
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("qr provider returned status %d", resp.StatusCode)
	}

	var body struct {
		QRImageURL string `json:"qr_image_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("qr provider response malformed: %w", err)
	}
	if body.QRImageURL == "" {
		return "", ErrNotAvailable
	}

	return body.QRImageURL, nil
}
