package client

import (
	"context"
	"fmt"
	"net/url"

	"masterbook/pkg/model"
)

type ChatClient struct {
	httpClient *HttpClient
}

func NewChatClient(httpClient *HttpClient) *ChatClient {
	return &ChatClient{httpClient: httpClient}
}

func (c *ChatClient) Post(ctx context.Context, bookingID, text string) (*Response, error) {
	path := "/api/v1/chats/" + url.PathEscape(bookingID) + "/messages"
	return c.httpClient.POST(ctx, path, model.MessageInput{Text: text})
}

func (c *ChatClient) List(ctx context.Context, bookingID string, limit int, offset int64) (*Response, error) {
	path := fmt.Sprintf("/api/v1/chats/%s/messages?limit=%d&offset=%d", url.PathEscape(bookingID), limit, offset)
	return c.httpClient.GET(ctx, path)
}

func (c *ChatClient) DecodeMessages(resp *Response) ([]*model.Message, error) {
	var body struct {
		Data []*model.Message `json:"data"`
	}
	if err := resp.DecodeJSON(&body); err != nil {
		return nil, fmt.Errorf("could not decode messages:\n%+v\n%s", resp.ToString(), err)
	}
	return body.Data, nil
}
