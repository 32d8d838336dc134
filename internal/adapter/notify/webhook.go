// Package notify posts application summaries to a form/webhook endpoint.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"microlend/internal/domain/application"
)

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Webhook struct {
	client    HTTPDoer
	endpoint  string
	accessKey string
	fromName  string
}

func NewWebhook(client HTTPDoer, endpoint, accessKey string) *Webhook {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Webhook{
		client:    client,
		endpoint:  strings.TrimSpace(endpoint),
		accessKey: accessKey,
		fromName:  "microlend",
	}
}

type payload struct {
	AccessKey     string `json:"access_key,omitempty"`
	Subject       string `json:"subject"`
	FromName      string `json:"from_name"`
	Message       string `json:"message"`
	ApplicationID uint64 `json:"application_id"`
	Applicant     string `json:"applicant"`
	Amount        string `json:"amount"`
}

func (w *Webhook) ApplicationSubmitted(ctx context.Context, a application.Application) error {
	body, err := json.Marshal(payload{
		AccessKey:     w.accessKey,
		Subject:       "New loan application: " + a.Name,
		FromName:      w.fromName,
		Message:       summary(a),
		ApplicationID: a.ID,
		Applicant:     a.Applicant.Hex(),
		Amount:        a.Amount.String(),
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode/100 != 2 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("notify: status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}

func summary(a application.Application) string {
	var b strings.Builder
	fmt.Fprintf(&b, "New Loan Application #%d\n\n", a.ID)
	fmt.Fprintf(&b, "Name: %s\n", a.Name)
	fmt.Fprintf(&b, "Email: %s\n", a.Email)
	fmt.Fprintf(&b, "Phone: %s\n", a.Phone)
	fmt.Fprintf(&b, "Location: %s\n", a.Location)
	fmt.Fprintf(&b, "Business: %s\n", a.Business)
	fmt.Fprintf(&b, "Amount Requested: %s\n\n", a.Amount.StringFixed(2))
	fmt.Fprintf(&b, "Story:\n%s\n", a.Story)
	return b.String()
}
