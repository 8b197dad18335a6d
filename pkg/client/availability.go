package client

import (
	"context"
	"fmt"
	"net/url"

	"masterbook/pkg/model"
	"masterbook/pkg/timerange"
)

type AvailabilityClient struct {
	httpClient *HttpClient
}

func NewAvailabilityClient(httpClient *HttpClient) *AvailabilityClient {
	return &AvailabilityClient{httpClient: httpClient}
}

func (c *AvailabilityClient) Set(ctx context.Context, update model.AvailabilityUpdate) (*Response, error) {
	return c.httpClient.POST(ctx, "/api/v1/availability/set", update)
}

func (c *AvailabilityClient) Get(ctx context.Context, masterID string) (*Response, error) {
	return c.httpClient.POST(ctx, "/api/v1/availability/get", map[string]string{"masterId": masterID})
}

func (c *AvailabilityClient) Open(ctx context.Context, masterID, date string) (*Response, error) {
	q := url.Values{}
	q.Set("masterId", masterID)
	q.Set("date", date)
	return c.httpClient.GET(ctx, "/api/v1/availability/open?"+q.Encode())
}

func (c *AvailabilityClient) DecodeSchedule(resp *Response) (*model.AvailabilityProfile, error) {
	var body struct {
		Schedule model.AvailabilityProfile `json:"schedule"`
	}
	if err := resp.DecodeJSON(&body); err != nil {
		return nil, fmt.Errorf("could not decode schedule:\n%+v\n%s", resp.ToString(), err)
	}
	return &body.Schedule, nil
}

func (c *AvailabilityClient) DecodeOpen(resp *Response) (open, free []timerange.Interval, err error) {
	var body struct {
		Open []timerange.Interval `json:"open"`
		Free []timerange.Interval `json:"free"`
	}
	if err := resp.DecodeJSON(&body); err != nil {
		return nil, nil, fmt.Errorf("could not decode open intervals:\n%+v\n%s", resp.ToString(), err)
	}
	return body.Open, body.Free, nil
}
