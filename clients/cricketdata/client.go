package cricketdata

import (
	"github.com/pitchside/pitchside/clients"
)

// Client talks to the cricketdata.org REST API. Every endpoint returns a
// success/error envelope with an optional data payload.
type Client struct {
	*clients.BaseClient
	apiKey string
}

func NewClient(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = BaseURL
	}
	return &Client{
		BaseClient: clients.NewBaseClient(baseURL),
		apiKey:     apiKey,
	}
}
