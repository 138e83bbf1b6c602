package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"chatbox/internal/model"
)

// MessageStore is the persistence boundary. *store.Mongo satisfies it in
// production; tests inject an in-memory double.
type MessageStore interface {
	Insert(ctx context.Context, msg model.Message) (model.Message, error)
	List(ctx context.Context) ([]model.Message, error)
	Connected() bool
}

// ErrStoreUnavailable wraps any failure to reach the message store.
var ErrStoreUnavailable = errors.New("message store unavailable")

// ValidationError reports client input that violates the message schema.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// createInput mirrors the store schema bounds (model.MaxTextLength,
// model.MaxUserLength).
type createInput struct {
	Text string `validate:"required,max=500"`
	User string `validate:"required,max=20"`
}

// Options toggles the input rules that differ between deployments.
type Options struct {
	// RequireUser rejects messages without a sender name. When false, a blank
	// user falls back to AnonymousUser.
	RequireUser   bool
	AnonymousUser string
}

// Repository validates and persists messages and provides ordered retrieval.
type Repository struct {
	store    MessageStore
	log      *slog.Logger
	opts     Options
	validate *validator.Validate
}

// New creates a Repository backed by the given store.
func New(store MessageStore, log *slog.Logger, opts Options) *Repository {
	return &Repository{
		store:    store,
		log:      log,
		opts:     opts,
		validate: validator.New(),
	}
}

// Create validates the input and persists a new message with trimmed text and
// user. The returned record carries the store-assigned id and timestamps. No
// write happens on any validation failure.
func (r *Repository) Create(ctx context.Context, text, user string) (model.Message, error) {
	if text == "" || (r.opts.RequireUser && user == "") {
		return model.Message{}, &ValidationError{Reason: "Both text and user fields are required"}
	}

	text = strings.TrimSpace(text)
	user = strings.TrimSpace(user)
	if text == "" || (r.opts.RequireUser && user == "") {
		return model.Message{}, &ValidationError{Reason: "Text and user cannot be empty"}
	}
	if user == "" {
		user = r.opts.AnonymousUser
	}

	if err := r.validate.Struct(createInput{Text: text, User: user}); err != nil {
		return model.Message{}, &ValidationError{Reason: validationReason(err)}
	}

	msg, err := r.store.Insert(ctx, model.Message{Text: text, User: user})
	if err != nil {
		r.log.Error("message insert failed", "error", err)
		return model.Message{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	r.log.Info("message created", "id", msg.ID.Hex(), "user", msg.User)
	return msg, nil
}

// List returns all messages ordered by createdAt descending (newest first).
// The result is never nil.
func (r *Repository) List(ctx context.Context) ([]model.Message, error) {
	msgs, err := r.store.List(ctx)
	if err != nil {
		r.log.Error("message list failed", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if msgs == nil {
		msgs = []model.Message{}
	}
	return msgs, nil
}

func validationReason(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		switch verrs[0].Field() {
		case "Text":
			return fmt.Sprintf("Text must be at most %d characters", model.MaxTextLength)
		case "User":
			return fmt.Sprintf("User must be at most %d characters", model.MaxUserLength)
		}
	}
	return err.Error()
}
