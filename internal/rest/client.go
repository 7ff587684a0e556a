// Package rest is the client for the two REST backends: the chat API that
// owns message history and the domain API that owns users and notifications.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"messenger/internal/models"
)

// TokenSource supplies the bearer token attached to every request. Satisfied
// by *auth.Store.
type TokenSource interface {
	Token() (string, error)
}

// Client talks to both REST backends.
type Client struct {
	chatBaseURL string
	apiBaseURL  string
	http        *http.Client
	tokens      TokenSource
}

// NewClient builds a REST client. tokens may be nil for unauthenticated use.
func NewClient(chatBaseURL, apiBaseURL string, tokens TokenSource) *Client {
	return &Client{
		chatBaseURL: chatBaseURL,
		apiBaseURL:  apiBaseURL,
		http:        &http.Client{Timeout: 15 * time.Second},
		tokens:      tokens,
	}
}

// ChatHistory fetches the ordered message history between two users.
func (c *Client) ChatHistory(ctx context.Context, selfID, peerID int) ([]models.Message, error) {
	url := fmt.Sprintf("%s/api/chat/%d/%d", c.chatBaseURL, selfID, peerID)
	var msgs []models.Message
	if err := c.getJSON(ctx, url, &msgs); err != nil {
		return nil, fmt.Errorf("chat history: %w", err)
	}
	return msgs, nil
}

// MessagePeers fetches the peers the user has conversations with, each with
// its unread count.
func (c *Client) MessagePeers(ctx context.Context, selfID int) ([]models.ChatPeer, error) {
	url := fmt.Sprintf("%s/api/chat/user/getMessageUserList/%d", c.chatBaseURL, selfID)
	var peers []models.ChatPeer
	if err := c.getJSON(ctx, url, &peers); err != nil {
		return nil, fmt.Errorf("message peers: %w", err)
	}
	return peers, nil
}

// MarkAsRead is the REST fallback for the read receipt.
func (c *Client) MarkAsRead(ctx context.Context, senderID, receiverID int) error {
	url := c.chatBaseURL + "/api/chat/markAsRead"
	body := map[string]int{"senderId": senderID, "receiverId": receiverID}
	if err := c.postJSON(ctx, url, body, nil); err != nil {
		return fmt.Errorf("mark as read: %w", err)
	}
	return nil
}

// User fetches the user details shown in the chat list.
func (c *Client) User(ctx context.Context, id int) (models.User, error) {
	url := fmt.Sprintf("%s/api/users/view?id=%d", c.apiBaseURL, id)
	var resp struct {
		Data struct {
			UserDetails models.User `json:"userDetails"`
		} `json:"data"`
	}
	if err := c.getJSON(ctx, url, &resp); err != nil {
		return models.User{}, fmt.Errorf("user view: %w", err)
	}
	return resp.Data.UserDetails, nil
}

// Notifications fetches the full notification feed with read flags.
func (c *Client) Notifications(ctx context.Context) ([]models.Notification, error) {
	url := c.apiBaseURL + "/api/notification/getNotification"
	var resp struct {
		Data []models.Notification `json:"data"`
	}
	if err := c.getJSON(ctx, url, &resp); err != nil {
		return nil, fmt.Errorf("notifications: %w", err)
	}
	return resp.Data, nil
}

// MarkNotificationsRead confirms a mark-read mutation. A nil id means mark
// everything read.
func (c *Client) MarkNotificationsRead(ctx context.Context, id *int) error {
	url := c.apiBaseURL + "/api/notification/markAllRead"
	body := map[string]*int{"id": id}
	if err := c.postJSON(ctx, url, body, nil); err != nil {
		return fmt.Errorf("mark notifications read: %w", err)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) postJSON(ctx context.Context, url string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	if c.tokens != nil {
		if token, err := c.tokens.Token(); err == nil && token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
