package zoom

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"net/url"
	"sync"
	"time"
)

const meetingPasswordChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Meeting is the provisioning result for a scheduled video call.
type Meeting struct {
	ID       string
	JoinURL  string
	StartURL string
	Password string
}

// Client talks to the Zoom REST API using server-to-server OAuth.
// A nil Client (integration disabled) is safe to call.
type Client struct {
	accountID    string
	clientID     string
	clientSecret string

	httpClient *http.Client

	// overridable in tests
	TokenURL string
	APIURL   string

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

func NewClient(accountID, clientID, clientSecret string) *Client {
	if accountID == "" || clientID == "" || clientSecret == "" {
		return nil
	}
	return &Client{
		accountID:    accountID,
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   &http.Client{Timeout: 15 * time.Second},
		TokenURL:     "https://zoom.us/oauth/token",
		APIURL:       "https://api.zoom.us/v2",
	}
}

func (c *Client) Enabled() bool {
	return c != nil
}

func (c *Client) token() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.accessToken != "" && time.Now().Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	form := url.Values{}
	form.Set("grant_type", "account_credentials")
	form.Set("account_id", c.accountID)

	req, err := http.NewRequest(http.MethodPost, c.TokenURL, bytes.NewBufferString(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("zoom token request: %w", err)
	}
	basic := base64.StdEncoding.EncodeToString([]byte(c.clientID + ":" + c.clientSecret))
	req.Header.Set("Authorization", "Basic "+basic)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("zoom token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("zoom token request: unexpected status %d", resp.StatusCode)
	}

	var body struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("zoom token response: %w", err)
	}

	c.accessToken = body.AccessToken
	// refresh a minute before actual expiry
	c.tokenExpiry = time.Now().Add(time.Duration(body.ExpiresIn-60) * time.Second)
	return c.accessToken, nil
}

// CreateMeeting schedules a call for the given host topic and start time.
// Returns nil when the integration is disabled.
func (c *Client) CreateMeeting(topic string, startTime time.Time, durationMinutes int) (*Meeting, error) {
	if c == nil {
		return nil, nil
	}

	token, err := c.token()
	if err != nil {
		return nil, err
	}

	password := meetingPassword(6)
	payload := map[string]any{
		"topic":      topic,
		"type":       2, // scheduled
		"start_time": startTime.UTC().Format("2006-01-02T15:04:05Z"),
		"duration":   durationMinutes,
		"timezone":   "UTC",
		"password":   password,
		"settings": map[string]any{
			"join_before_host": false,
			"waiting_room":     true,
		},
	}
	buf, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("zoom create meeting: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, c.APIURL+"/users/me/meetings", bytes.NewBuffer(buf))
	if err != nil {
		return nil, fmt.Errorf("zoom create meeting: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("zoom create meeting: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("zoom create meeting: unexpected status %d", resp.StatusCode)
	}

	var body struct {
		ID       int64  `json:"id"`
		JoinURL  string `json:"join_url"`
		StartURL string `json:"start_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("zoom create meeting response: %w", err)
	}

	return &Meeting{
		ID:       fmt.Sprintf("%d", body.ID),
		JoinURL:  body.JoinURL,
		StartURL: body.StartURL,
		Password: password,
	}, nil
}

// DeleteMeeting cancels a previously created meeting. Missing meetings
// are not an error.
func (c *Client) DeleteMeeting(meetingID string) error {
	if c == nil || meetingID == "" {
		return nil
	}

	token, err := c.token()
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodDelete, c.APIURL+"/meetings/"+meetingID, nil)
	if err != nil {
		return fmt.Errorf("zoom delete meeting: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("zoom delete meeting: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNoContent, http.StatusOK:
		return nil
	case http.StatusNotFound:
		log.Printf("[zoom] meeting %s already gone", meetingID)
		return nil
	default:
		return fmt.Errorf("zoom delete meeting: unexpected status %d", resp.StatusCode)
	}
}

func meetingPassword(length int) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = meetingPasswordChars[rand.Intn(len(meetingPasswordChars))]
	}
	return string(b)
}
