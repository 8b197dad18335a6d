package service

import (
	"context"
	"errors"

	chatserrors "masterbook/internal/chats/errors"
	"masterbook/internal/chats/repository"
	"masterbook/pkg/config"
	apperrors "masterbook/pkg/errors"
	"masterbook/pkg/model"
	"masterbook/pkg/sanitizer"
	"masterbook/pkg/validation"

	"golang.org/x/sync/errgroup"
)

type ChatService interface {
	// EnsureForBooking opens the booking's chat. Calling it again is a no-op.
	EnsureForBooking(ctx context.Context, booking *model.Booking) error
	PostMessage(ctx context.Context, actorID, bookingID string, input *model.MessageInput) (*model.Message, error)
	ListMessages(ctx context.Context, actorID, bookingID string, limit int, offset int64) ([]*model.Message, int64, error)
}

type chatService struct {
	repo      repository.ChatRepository
	validator *validation.Validator
	cfg       *config.Config
}

func NewChatService(repo repository.ChatRepository, validator *validation.Validator, cfg *config.Config) ChatService {
	return &chatService{
		repo:      repo,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *chatService) EnsureForBooking(ctx context.Context, booking *model.Booking) error {
	if booking.ClientID == "" {
		return apperrors.InvalidInput("booking has no client to chat with")
	}

	chat := &model.Chat{
		BookingID:    booking.ID,
		Participants: []string{booking.MasterID, booking.ClientID},
	}
	err := s.repo.CreateChat(ctx, chat)
	switch {
	case err == nil:
		s.cfg.Log.Info("Chat opened", "booking_id", booking.ID, "chat_id", chat.ID)
		return nil
	case errors.Is(err, chatserrors.ErrAlreadyExists):
		return nil
	default:
		s.cfg.Log.Error("Failed to open chat", "booking_id", booking.ID, "error", err)
		return apperrors.StorageUnavailable("Failed to open chat", err)
	}
}

func (s *chatService) PostMessage(ctx context.Context, actorID, bookingID string, input *model.MessageInput) (*model.Message, error) {
	input.Text = sanitizer.NormalizeNote(input.Text)
	if err := s.validator.Struct(input); err != nil {
		var verrs validation.ValidationErrors
		if errors.As(err, &verrs) {
			return nil, apperrors.Validation("Message validation failed", verrs.Details())
		}
		return nil, apperrors.InvalidInput(err.Error())
	}

	chat, err := s.participantChat(ctx, actorID, bookingID)
	if err != nil {
		return nil, err
	}

	msg := &model.Message{
		ChatID:   chat.ID,
		SenderID: actorID,
		Text:     input.Text,
	}
	if err := s.repo.AppendMessage(ctx, msg); err != nil {
		s.cfg.Log.Error("Failed to store message", "booking_id", bookingID, "chat_id", chat.ID, "error", err)
		return nil, apperrors.StorageUnavailable("Failed to store message", err)
	}

	s.cfg.Log.Debug("Message posted", "chat_id", chat.ID, "sender_id", actorID)
	return msg, nil
}

func (s *chatService) ListMessages(ctx context.Context, actorID, bookingID string, limit int, offset int64) ([]*model.Message, int64, error) {
	chat, err := s.participantChat(ctx, actorID, bookingID)
	if err != nil {
		return nil, 0, err
	}

	var (
		messages []*model.Message
		total    int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		messages, err = s.repo.ListMessages(gctx, chat.ID, limit, offset)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.repo.CountMessages(gctx, chat.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		s.cfg.Log.Error("Failed to list messages", "chat_id", chat.ID, "error", err)
		return nil, 0, apperrors.StorageUnavailable("Failed to list messages", err)
	}
	return messages, total, nil
}

func (s *chatService) participantChat(ctx context.Context, actorID, bookingID string) (*model.Chat, error) {
	if actorID == "" {
		return nil, apperrors.Unauthenticated("Authentication required")
	}

	chat, err := s.repo.FindByBookingID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, chatserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("chat", bookingID)
		}
		s.cfg.Log.Error("Failed to load chat", "booking_id", bookingID, "error", err)
		return nil, apperrors.StorageUnavailable("Failed to load chat", err)
	}
	if !chat.HasParticipant(actorID) {
		s.cfg.Log.Warn("Chat access by non-participant rejected", "booking_id", bookingID, "actor_id", actorID)
		return nil, apperrors.Unauthorized("Only booking participants can access this chat")
	}
	return chat, nil
}
