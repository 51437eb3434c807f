package cricketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

func (c *Client) decodeEnvelope(body []byte, out any) error {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("failed to decode response envelope: %w", err)
	}
	if env.Status != "success" {
		return fmt.Errorf("provider returned error: %s", env.Reason)
	}
	if out != nil && env.Data != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("failed to decode response data: %w", err)
		}
	}
	return nil
}

func (c *Client) query(params url.Values) string {
	params.Set("apikey", c.apiKey)
	return "?" + params.Encode()
}

// GetCurrentMatches returns all matches the provider considers live or
// recently started.
func (c *Client) GetCurrentMatches(ctx context.Context) ([]RawMatch, error) {
	body, err := c.Get(ctx, endpointCurrentMatches+c.query(url.Values{}))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch current matches: %w", err)
	}

	var matches []RawMatch
	if err := c.decodeEnvelope(body, &matches); err != nil {
		return nil, err
	}
	return matches, nil
}

// GetUpcomingMatches returns scheduled matches starting within the given
// number of days.
func (c *Client) GetUpcomingMatches(ctx context.Context, withinDays int) ([]RawMatch, error) {
	params := url.Values{}
	params.Set("days", fmt.Sprintf("%d", withinDays))

	body, err := c.Get(ctx, endpointUpcomingMatches+c.query(params))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch upcoming matches: %w", err)
	}

	var matches []RawMatch
	if err := c.decodeEnvelope(body, &matches); err != nil {
		return nil, err
	}
	return matches, nil
}

// GetMatchByID returns the full payload of a single match.
func (c *Client) GetMatchByID(ctx context.Context, id string) (*RawMatch, error) {
	params := url.Values{}
	params.Set("id", id)

	body, err := c.Get(ctx, endpointMatchInfo+c.query(params))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch match %s: %w", id, err)
	}

	var match RawMatch
	if err := c.decodeEnvelope(body, &match); err != nil {
		return nil, err
	}
	return &match, nil
}

// GetSeries returns the provider's series listing, used by the daily
// reference-data sync.
func (c *Client) GetSeries(ctx context.Context) ([]RawSeries, error) {
	body, err := c.Get(ctx, endpointSeries+c.query(url.Values{}))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch series: %w", err)
	}

	var series []RawSeries
	if err := c.decodeEnvelope(body, &series); err != nil {
		return nil, err
	}
	return series, nil
}
