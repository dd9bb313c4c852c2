// Package bot wires incoming Telegram updates to the onboarding flow:
// greeting on /start, the country/phone/email interview, lead persistence
// and canned status replies for returning users.
package bot

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	tele "gopkg.in/telebot.v4"

	"leadbot/core/logger"
	"leadbot/core/telegram/helpers"
	"leadbot/internal/country"
	"leadbot/internal/lead"
	"leadbot/internal/onboarding"
	"leadbot/internal/validate"
)

// MembershipChecker reports whether a user currently belongs to the community
// channel. Implementations must degrade to false on transport errors.
type MembershipChecker interface {
	IsMember(ctx context.Context, userID int64) bool
}

// Incoming is the handler-facing view of one text update.
type Incoming struct {
	ChatID    int64
	UserID    int64
	Username  string
	FirstName string
	Text      string
}

func incomingFrom(c tele.Context) Incoming {
	in := Incoming{ChatID: c.Chat().ID, Text: c.Text()}
	if s := c.Sender(); s != nil {
		in.UserID = s.ID
		in.Username = s.Username
		in.FirstName = s.FirstName
	}
	return in
}

func (in Incoming) key() onboarding.Key {
	return onboarding.Key{ChatID: in.ChatID, UserID: in.UserID}
}

// Handler implements the conversational onboarding flow.
type Handler struct {
	store   lead.Store
	members MembershipChecker
	engine  *onboarding.Engine
	replier Replier
	msgs    Messages
}

func NewHandler(store lead.Store, members MembershipChecker, engine *onboarding.Engine, replier Replier, msgs Messages) *Handler {
	return &Handler{
		store:   store,
		members: members,
		engine:  engine,
		replier: replier,
		msgs:    msgs,
	}
}

// HandleStart greets a new user and runs the interview, or replies with the
// membership status message when the user is already registered.
func (h *Handler) HandleStart(ctx context.Context, in Incoming) error {
	identity := lead.Identity(in.Username)

	registered, err := h.store.IsRegistered(ctx, identity)
	if err != nil {
		// Lookup failure must not block the flow; treat as unregistered.
		logger.Warn(ctx, "bot", "lead.lookup.fail",
			slog.String("identity", identity),
			slog.String("err", err.Error()),
		)
		registered = false
	}
	if registered {
		h.statusReply(ctx, in)
		return nil
	}

	key := in.key()
	if !h.engine.Begin(key) {
		logger.Debug(ctx, "bot", "onboarding.duplicate",
			slog.Int64("chat_id", in.ChatID),
			slog.Int64("user_id", in.UserID),
		)
		return nil
	}
	defer h.engine.End(key)

	return h.onboard(ctx, in, identity)
}

func (h *Handler) onboard(ctx context.Context, in Incoming, identity string) error {
	key := in.key()

	welcome := PhotoMessage{URL: h.msgs.WelcomePhotoURL, Caption: h.msgs.Welcome(in.FirstName)}
	if err := h.replier.SendPhoto(ctx, in.ChatID, welcome); err != nil {
		return err
	}

	rawCountry, err := h.engine.AskUntilValid(ctx, key, msgAskCountry, validate.Country, msgBadCountry)
	if err != nil {
		return err
	}
	phone, err := h.engine.AskUntilValid(ctx, key, msgAskPhone, validate.Phone, msgBadPhone)
	if err != nil {
		return err
	}
	email, err := h.engine.AskUntilValid(ctx, key, msgAskEmail, validate.Email, msgBadEmail)
	if err != nil {
		return err
	}

	l := lead.Lead{
		Identity: identity,
		Country:  country.Normalize(rawCountry),
		Phone:    phone,
		Email:    email,
	}
	if err := h.store.Save(ctx, l); err != nil {
		// The user already gave their answers; the invite still goes out.
		logger.Warn(ctx, "bot", "lead.save.fail",
			slog.String("identity", identity),
			slog.String("err", err.Error()),
		)
	} else {
		logger.Info(ctx, "bot", "lead.saved",
			slog.String("identity", identity),
			slog.String("country", l.Country),
		)
	}

	invite := PhotoMessage{URL: h.msgs.JoinPhotoURL, Caption: h.msgs.Invite(in.FirstName)}
	h.replier.DispatchPhoto(ctx, in.ChatID, invite)
	return nil
}

// HandleText feeds plain text into a pending interview question, treats
// "/start"-prefixed text as a start command, and answers registered users
// with their status. Unsolicited text from unknown users is ignored.
func (h *Handler) HandleText(ctx context.Context, in Incoming) error {
	if h.engine.Resolve(in.key(), in.Text) {
		return nil
	}

	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(in.Text)), "/start") {
		return h.HandleStart(ctx, in)
	}

	registered, err := h.store.IsRegistered(ctx, lead.Identity(in.Username))
	if err != nil {
		logger.Warn(ctx, "bot", "lead.lookup.fail",
			slog.String("identity", lead.Identity(in.Username)),
			slog.String("err", err.Error()),
		)
		return nil
	}
	if registered {
		h.statusReply(ctx, in)
	}
	return nil
}

func (h *Handler) statusReply(ctx context.Context, in Incoming) {
	if h.members.IsMember(ctx, in.UserID) {
		h.replier.DispatchPhoto(ctx, in.ChatID, PhotoMessage{
			URL:     h.msgs.MemberPhotoURL,
			Caption: h.msgs.AlreadyMember(in.FirstName),
		})
		return
	}
	h.replier.DispatchPhoto(ctx, in.ChatID, PhotoMessage{
		URL:     h.msgs.JoinPhotoURL,
		Caption: h.msgs.Join(in.FirstName),
	})
}

// Start is the telebot endpoint for the /start command.
func (h *Handler) Start(c tele.Context) error {
	return h.detach(c, "start", h.HandleStart)
}

// Text is the telebot endpoint for plain text updates.
func (h *Handler) Text(c tele.Context) error {
	return h.detach(c, "text", h.HandleText)
}

// detach runs the flow in its own goroutine so telebot's handler pool is not
// held for the duration of an interview, which waits on later updates.
func (h *Handler) detach(c tele.Context, name string, fn func(context.Context, Incoming) error) error {
	ctx := helpers.WithHandler(c, name)
	in := incomingFrom(c)
	go func() {
		err := fn(ctx, in)
		switch {
		case err == nil:
		case errors.Is(err, onboarding.ErrAbandoned):
			logger.Debug(ctx, "bot", "onboarding.abandoned",
				slog.String("flow", name),
				slog.Int64("chat_id", in.ChatID),
			)
		default:
			logger.Error(ctx, "bot", "flow.fail",
				slog.String("flow", name),
				slog.Int64("chat_id", in.ChatID),
				slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			)
		}
	}()
	return nil
}
