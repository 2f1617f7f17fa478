package carrier

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client submits send requests to the carrier's REST API. It is only used
// for the initial submission; everything after that arrives through the
// status callback.
type Client struct {
	baseURL     string
	accountSID  string
	authToken   string
	callbackURL string
	client      *http.Client
}

func NewClient(baseURL, accountSID, authToken, callbackURL string) *Client {
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		accountSID:  accountSID,
		authToken:   authToken,
		callbackURL: callbackURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SendResult is what the carrier reports back for an accepted submission.
type SendResult struct {
	ID           string
	SegmentCount int
	CreatedAt    time.Time
}

type messageResponse struct {
	Sid         string `json:"sid"`
	NumSegments string `json:"num_segments"`
	DateCreated string `json:"date_created"`
}

// CreateMessage submits one outbound message with the status callback URL
// attached, so the carrier posts delivery updates back to us.
func (c *Client) CreateMessage(ctx context.Context, from, to, body string) (SendResult, error) {
	form := url.Values{}
	form.Set("From", from)
	form.Set("To", to)
	form.Set("Body", body)
	form.Set("StatusCallback", c.callbackURL)

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", c.baseURL, c.accountSID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return SendResult{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.accountSID, c.authToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return SendResult{}, err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return SendResult{}, fmt.Errorf("unexpected status code: %d body=%q", resp.StatusCode, string(raw))
	}

	var mr messageResponse
	if err := json.Unmarshal(raw, &mr); err != nil {
		return SendResult{}, fmt.Errorf("failed to decode json: %w body=%q", err, string(raw))
	}
	if mr.Sid == "" {
		return SendResult{}, fmt.Errorf("missing sid in response body=%q", string(raw))
	}

	segments, err := strconv.Atoi(mr.NumSegments)
	if err != nil || segments <= 0 {
		return SendResult{}, fmt.Errorf("bad num_segments %q in response body=%q", mr.NumSegments, string(raw))
	}

	return SendResult{
		ID:           mr.Sid,
		SegmentCount: segments,
		CreatedAt:    parseCreated(mr.DateCreated),
	}, nil
}

// parseCreated accepts the carrier's RFC1123Z timestamps with an RFC3339
// fallback; an absent or unparseable value falls back to the local clock.
func parseCreated(raw string) time.Time {
	if raw != "" {
		if t, err := time.Parse(time.RFC1123Z, raw); err == nil {
			return t.UTC()
		}
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			return t.UTC()
		}
	}
	return time.Now().UTC()
}
