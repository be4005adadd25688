package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Outbound automation actions.
const (
	EventSaleRegistered     = "sale_registered"
	EventPetReady           = "pet_ready"
	EventInactivityCampaign = "inactivity_campaign"
	EventCashClosed         = "cash_closed"
)

// Event is a notification for the external automation service. It is sent
// as a flat JSON object: {"action": ..., <fields>...}.
type Event struct {
	Action string
	Fields map[string]interface{}
}

func NewEvent(action string, fields map[string]interface{}) Event {
	if fields == nil {
		fields = map[string]interface{}{}
	}
	return Event{Action: action, Fields: fields}
}

func (e Event) MarshalJSON() ([]byte, error) {
	flat := make(map[string]interface{}, len(e.Fields)+1)
	for k, v := range e.Fields {
		flat[k] = v
	}
	flat["action"] = e.Action
	return json.Marshal(flat)
}

func (e *Event) UnmarshalJSON(data []byte) error {
	var flat map[string]interface{}
	if err := json.Unmarshal(data, &flat); err != nil {
		return err
	}
	action, _ := flat["action"].(string)
	if action == "" {
		return fmt.Errorf("automation: event without action")
	}
	delete(flat, "action")
	e.Action = action
	e.Fields = flat
	return nil
}

// AutomationClient posts events to the automation service, one endpoint per
// action: POST {baseURL}/{action}.
type AutomationClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewAutomationClient(baseURL string, timeout time.Duration) *AutomationClient {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &AutomationClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Send delivers one event. Any non-2xx answer is an error so the caller can retry.
func (c *AutomationClient) Send(ctx context.Context, e Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("automation: marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+e.Action, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("automation: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("automation: service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("automation: %s returned %d", e.Action, resp.StatusCode)
	}
	return nil
}
