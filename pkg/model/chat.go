package model

import "time"

type Chat struct {
	ID            string    `json:"id,omitempty" bson:"_id,omitempty"`
	BookingID     string    `json:"bookingId" bson:"booking_id"`
	Participants  []string  `json:"participants" bson:"participants"`
	CreatedAt     time.Time `json:"createdAt" bson:"created_at"`
	LastMessageAt time.Time `json:"lastMessageAt,omitzero" bson:"last_message_at,omitempty"`
}

func (c *Chat) HasParticipant(uid string) bool {
	for _, p := range c.Participants {
		if p == uid {
			return true
		}
	}
	return false
}

type Message struct {
	ID        string    `json:"id,omitempty" bson:"_id,omitempty"`
	ChatID    string    `json:"chatId" bson:"chat_id"`
	SenderID  string    `json:"senderId" bson:"sender_id"`
	Text      string    `json:"text" bson:"text"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
}

type MessageInput struct {
	Text string `json:"text" validate:"required,min=1,max=2000"`
}
