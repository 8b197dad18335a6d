package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"masterbook/pkg/model"
)

type Metadata struct {
	TotalCount int64
	Limit      int
	Offset     int64
}

type BookingClient struct {
	httpClient *HttpClient
}

func NewBookingClient(httpClient *HttpClient) *BookingClient {
	return &BookingClient{httpClient: httpClient}
}

func (c *BookingClient) Request(ctx context.Context, req model.BookingRequest) (*Response, error) {
	return c.httpClient.POST(ctx, "/api/v1/booking/request", req)
}

func (c *BookingClient) RequestWithIdempotencyKey(ctx context.Context, req model.BookingRequest, key string) (*Response, error) {
	return c.httpClient.POSTWithHeaders(ctx, "/api/v1/booking/request", req, map[string]string{
		"Idempotency-Key": key,
	})
}

func (c *BookingClient) UpdateStatus(ctx context.Context, id string, status model.BookingStatus) (*Response, error) {
	path := "/api/v1/booking/" + url.PathEscape(id)
	return c.httpClient.PATCH(ctx, path, model.BookingStatusUpdate{Status: status})
}

func (c *BookingClient) GetByID(ctx context.Context, id string) (*Response, error) {
	return c.httpClient.GET(ctx, "/api/v1/booking/"+url.PathEscape(id))
}

func (c *BookingClient) ListForMaster(ctx context.Context, masterID, date string, limit int, offset int64) (*Response, error) {
	q := url.Values{}
	q.Set("masterId", masterID)
	if date != "" {
		q.Set("date", date)
	}
	q.Set("limit", fmt.Sprintf("%d", limit))
	q.Set("offset", fmt.Sprintf("%d", offset))

	return c.httpClient.GET(ctx, "/api/v1/booking?"+q.Encode())
}

func (c *BookingClient) DecodeID(resp *Response) (string, error) {
	var body struct {
		ID string `json:"id"`
	}
	if err := resp.DecodeJSON(&body); err != nil {
		return "", fmt.Errorf("could not decode booking id:\n%+v\n%s", resp.ToString(), err)
	}
	return body.ID, nil
}

func (c *BookingClient) DecodeBooking(resp *Response) (*model.Booking, error) {
	var wrapper struct {
		Booking json.RawMessage `json:"booking"`
	}
	if err := resp.DecodeJSON(&wrapper); err != nil {
		return nil, fmt.Errorf("could not decode booking wrapper:\n%+v\n%s", resp.ToString(), err)
	}

	var booking model.Booking
	if err := json.Unmarshal(wrapper.Booking, &booking); err != nil {
		return nil, fmt.Errorf("could not decode booking json:\n%+v\n%s", resp.ToString(), err)
	}
	return &booking, nil
}

func (c *BookingClient) DecodeBookings(resp *Response) ([]*model.Booking, *Metadata, error) {
	var wrapper struct {
		Data       json.RawMessage `json:"data"`
		TotalCount int64           `json:"total_count"`
		Limit      int             `json:"limit"`
		Offset     int64           `json:"offset"`
	}
	if err := resp.DecodeJSON(&wrapper); err != nil {
		return nil, nil, fmt.Errorf("could not decode paginated resp:\n%+v\n%s", resp.ToString(), err)
	}

	var bookings []*model.Booking
	if err := json.Unmarshal(wrapper.Data, &bookings); err != nil {
		return nil, nil, fmt.Errorf("could not decode booking list:\n%+v\n%s", resp.ToString(), err)
	}

	return bookings, &Metadata{
		TotalCount: wrapper.TotalCount,
		Limit:      wrapper.Limit,
		Offset:     wrapper.Offset,
	}, nil
}
