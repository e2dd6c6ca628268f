package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rongwang/property-rental-server/internal/apperrors"
	"github.com/rongwang/property-rental-server/internal/lifecycle"
	"github.com/rongwang/property-rental-server/internal/models"
	"github.com/rongwang/property-rental-server/internal/policy"
	"github.com/rongwang/property-rental-server/internal/utils"
	"github.com/sirupsen/logrus"
)

// counterpart is the role a user may write to: managers talk to tenants
// and tenants to managers.
func counterpart(role policy.Role) policy.Role {
	switch role {
	case policy.RoleManager:
		return policy.RoleTenant
	case policy.RoleTenant:
		return policy.RoleManager
	default:
		return policy.RoleNone
	}
}

func (s *DefaultService) messageViews(ctx context.Context, messages []models.Message) ([]models.MessageView, error) {
	ids := make([]int64, 0, len(messages)*2)
	for _, m := range messages {
		ids = append(ids, m.SenderUserID, m.ReceiverUserID)
	}
	names, err := s.userNames(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]models.MessageView, 0, len(messages))
	for _, m := range messages {
		views = append(views, models.MessageView{
			Message:      m,
			SenderName:   names[m.SenderUserID],
			ReceiverName: names[m.ReceiverUserID],
			Status:       lifecycle.DescriptionOf(m.StatusID),
		})
	}
	return views, nil
}

func (s *DefaultService) messageView(ctx context.Context, m *models.Message) (*models.MessageView, error) {
	views, err := s.messageViews(ctx, []models.Message{*m})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// ListMessages returns messages the actor sent or received.
func (s *DefaultService) ListMessages(ctx context.Context, actor policy.Actor) ([]models.MessageView, error) {
	if err := s.authorize(actor, policy.ActionList, policy.Collection(policy.Messages)); err != nil {
		return nil, err
	}
	messages, err := s.repo.ListMessagesForUser(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("error listing messages: %w", err)
	}
	return s.messageViews(ctx, messages)
}

func (s *DefaultService) loadMessage(ctx context.Context, id int64) (*models.Message, error) {
	message, err := s.repo.GetMessage(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error getting message: %w", err)
	}
	if message == nil {
		return nil, notFound("message", id)
	}
	return message, nil
}

// GetMessage shows a message to its sender or receiver. The receiver's
// first view marks it Read; later views and the sender's views leave the
// status alone.
func (s *DefaultService) GetMessage(ctx context.Context, actor policy.Actor, id int64) (*models.MessageView, error) {
	if err := s.authorize(actor, policy.ActionView, policy.Collection(policy.Messages)); err != nil {
		return nil, err
	}
	message, err := s.loadMessage(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(actor, policy.ActionView, policy.MessageRecord(message.SenderUserID, message.ReceiverUserID)); err != nil {
		return nil, err
	}

	next, changed := lifecycle.MarkRead(message.StatusID, actor.ID, message.ReceiverUserID)
	if changed {
		message.StatusID = next
		err := s.repo.UpdateMessageStatus(ctx, message)
		switch {
		case errors.Is(err, apperrors.ErrConflict):
			// Marked by a concurrent view; show what is stored now.
			if message, err = s.loadMessage(ctx, id); err != nil {
				return nil, err
			}
		case err != nil:
			return nil, wrapWrite("updating", "message", id, err)
		default:
			utils.Logger.WithFields(logrus.Fields{
				"message_id": id,
				"actor_id":   actor.ID,
			}).Debug("Message marked as read")
		}
	}

	return s.messageView(ctx, message)
}

// CreateMessage sends a message from the actor. Sender, timestamp and the
// Unread status are set here.
func (s *DefaultService) CreateMessage(ctx context.Context, actor policy.Actor, req models.MessageRequest) (*models.MessageView, error) {
	if err := s.authorize(actor, policy.ActionCreate, policy.Collection(policy.Messages)); err != nil {
		return nil, err
	}

	verr := models.Validate(s.validate, req)
	if req.ReceiverUserID > 0 {
		want := counterpart(actor.Role)
		receiver, err := s.repo.GetUserByID(ctx, req.ReceiverUserID)
		if err != nil {
			return nil, fmt.Errorf("error getting receiver: %w", err)
		}
		if receiver == nil || receiver.Role != want.String() {
			verr.Add("receiver_user_id", fmt.Sprintf("The receiver must be a %s.", want), "validation_role")
		}
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	message := &models.Message{
		SenderUserID:    actor.ID,
		ReceiverUserID:  req.ReceiverUserID,
		Subject:         req.Subject,
		Body:            req.Body,
		MessageDateTime: s.now().UTC(),
		StatusID:        lifecycle.MessageUnread,
	}
	if err := s.repo.CreateMessage(ctx, message); err != nil {
		return nil, fmt.Errorf("error creating message: %w", err)
	}

	utils.Logger.WithFields(logrus.Fields{
		"message_id":  message.ID,
		"sender_id":   message.SenderUserID,
		"receiver_id": message.ReceiverUserID,
	}).Info("Message sent")

	return s.messageView(ctx, message)
}

// ListContacts returns the users the actor may write to.
func (s *DefaultService) ListContacts(ctx context.Context, actor policy.Actor) ([]models.Contact, error) {
	if err := s.authorize(actor, policy.ActionCreate, policy.Collection(policy.Messages)); err != nil {
		return nil, err
	}
	users, err := s.repo.ListUsersByRole(ctx, counterpart(actor.Role).String())
	if err != nil {
		return nil, fmt.Errorf("error listing contacts: %w", err)
	}

	contacts := make([]models.Contact, 0, len(users))
	for _, u := range users {
		contacts = append(contacts, models.Contact{
			ID:       u.ID,
			Username: u.Username,
			Name:     u.FullName(),
			Role:     u.Role,
		})
	}
	return contacts, nil
}
