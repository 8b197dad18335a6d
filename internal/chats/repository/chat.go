package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	chatserrors "masterbook/internal/chats/errors"
	"masterbook/pkg/config"
	mongotx "masterbook/pkg/db/mongo"
	"masterbook/pkg/model"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	ChatsCollectionName    = "Chats"
	MessagesCollectionName = "Messages"
)

type ChatRepository interface {
	// CreateChat stores chat; a second chat for the same booking yields ErrAlreadyExists.
	CreateChat(ctx context.Context, chat *model.Chat) error
	FindByBookingID(ctx context.Context, bookingID string) (*model.Chat, error)
	// AppendMessage stores msg and bumps the chat's last_message_at.
	AppendMessage(ctx context.Context, msg *model.Message) error
	ListMessages(ctx context.Context, chatID string, limit int, offset int64) ([]*model.Message, error)
	CountMessages(ctx context.Context, chatID string) (int64, error)
}

type mongoChatRepository struct {
	cfg      *config.Config
	chats    *mongo.Collection
	messages *mongo.Collection
}

func NewMongoChatRepository(cfg *config.Config) ChatRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoChatRepository{
		cfg:      cfg,
		chats:    db.Collection(ChatsCollectionName),
		messages: db.Collection(MessagesCollectionName),
	}
}

func (r *mongoChatRepository) CreateChat(ctx context.Context, chat *model.Chat) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if chat.ID == "" {
		chat.ID = uuid.NewString()
	}
	chat.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)

	if _, err := r.chats.InsertOne(ctx, chat); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return chatserrors.ErrAlreadyExists
		}
		return fmt.Errorf("failed to create chat: %w", err)
	}
	return nil
}

func (r *mongoChatRepository) FindByBookingID(ctx context.Context, bookingID string) (*model.Chat, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var chat model.Chat
	err := r.chats.FindOne(ctx, bson.M{"booking_id": bookingID}).Decode(&chat)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, chatserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find chat: %w", err)
	}
	return &chat, nil
}

func (r *mongoChatRepository) AppendMessage(ctx context.Context, msg *model.Message) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	msg.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)

	if _, err := r.messages.InsertOne(ctx, msg); err != nil {
		return fmt.Errorf("failed to store message: %w", err)
	}

	_, err := r.chats.UpdateOne(ctx,
		bson.M{"_id": msg.ChatID},
		bson.M{"$max": bson.M{"last_message_at": msg.CreatedAt}},
	)
	if err != nil {
		return fmt.Errorf("failed to update chat activity: %w", err)
	}
	return nil
}

func (r *mongoChatRepository) ListMessages(ctx context.Context, chatID string, limit int, offset int64) ([]*model.Message, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.messages.Find(ctx, bson.M{"chat_id": chatID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find messages: %w", err)
	}
	defer cursor.Close(ctx)

	var messages []*model.Message
	if err = cursor.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("failed to decode messages: %w", err)
	}
	return messages, nil
}

func (r *mongoChatRepository) CountMessages(ctx context.Context, chatID string) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.messages.CountDocuments(ctx, bson.M{"chat_id": chatID})
	if err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return count, nil
}
