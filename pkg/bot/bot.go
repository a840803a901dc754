package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tele "gopkg.in/telebot.v3"

	"rentalhub/config"
	"rentalhub/pkg/logger"
	"rentalhub/pkg/models"
	"rentalhub/pkg/xerrors"
	"rentalhub/service"
)

// Bot is a Telegram console that lets the configured administrator work the
// review queues without the web frontend.
type Bot struct {
	Bot      *tele.Bot
	Log      logger.ILogger
	Cfg      *config.Config
	Services service.IServiceManager
	caller   models.Caller
}

var messages = map[string]string{
	"welcome":         "👋 RentalHub admin console.",
	"no_entry":        "🚫 This bot is for the RentalHub administrator only.",
	"no_listings":     "📭 No listings are waiting for review.",
	"no_profiles":     "📭 No renter profiles are waiting for review.",
	"listing":         "🚗 %s\n💰 %d / day\n📍 %s\n🆔 %s",
	"profile":         "🪪 Renter %s\n📞 %s\n🔢 License: %s\n🖼 %s",
	"listing_ok":      "✅ Listing approved.",
	"listing_no":      "❌ Listing rejected.",
	"profile_ok":      "✅ Profile approved.",
	"profile_no":      "❌ Profile rejected.",
	"already_handled": "This item is no longer pending.",
	"failed":          "Something went wrong, try again.",
}

const (
	btnListings = "🚗 Pending listings"
	btnProfiles = "🪪 Pending profiles"
)

func New(cfg *config.Config, services service.IServiceManager, log logger.ILogger) (*Bot, error) {
	if cfg.AdminIdentityID == "" {
		return nil, errors.New("ADMIN_IDENTITY_ID is required for the admin bot")
	}
	pref := tele.Settings{
		Token:  cfg.AdminBotToken,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}
	b, err := tele.NewBot(pref)
	if err != nil {
		return nil, err
	}
	bot := &Bot{
		Bot:      b,
		Log:      log,
		Cfg:      cfg,
		Services: services,
		caller:   models.Caller{IdentityID: cfg.AdminIdentityID, Role: models.RoleAdmin},
	}
	bot.registerHandlers()
	return bot, nil
}

func (b *Bot) Start() {
	b.Log.Info("🤖 admin bot started")
	b.Bot.Start()
}

func (b *Bot) Stop() {
	b.Bot.Stop()
}

func (b *Bot) registerHandlers() {
	b.Bot.Use(b.adminOnly)
	b.Bot.Handle("/start", b.handleStart)
	b.Bot.Handle(btnListings, b.handlePendingListings)
	b.Bot.Handle(btnProfiles, b.handlePendingProfiles)
	b.Bot.Handle(tele.OnCallback, b.handleCallback)
}

func (b *Bot) isAdmin(sender *tele.User) bool {
	if sender == nil {
		return false
	}
	return (b.Cfg.AdminID != 0 && sender.ID == b.Cfg.AdminID) ||
		(b.Cfg.AdminUsername != "" && sender.Username == b.Cfg.AdminUsername)
}

func (b *Bot) adminOnly(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		if !b.isAdmin(c.Sender()) {
			return c.Send(messages["no_entry"])
		}
		return next(c)
	}
}

func (b *Bot) handleStart(c tele.Context) error {
	menu := &tele.ReplyMarkup{ResizeKeyboard: true}
	menu.Reply(menu.Row(menu.Text(btnListings), menu.Text(btnProfiles)))
	return c.Send(messages["welcome"], menu)
}

func (b *Bot) handlePendingListings(c tele.Context) error {
	listings, err := b.Services.Listing().ListPending(context.Background(), b.caller)
	if err != nil {
		b.Log.Error("bot: list pending listings", logger.Error(err))
		return c.Send(messages["failed"])
	}
	if len(listings) == 0 {
		return c.Send(messages["no_listings"])
	}

	for _, l := range listings {
		menu := &tele.ReplyMarkup{}
		menu.Inline(menu.Row(
			menu.Data("✅ Approve", reviewCallback(kindListing, true, l.ID)),
			menu.Data("❌ Reject", reviewCallback(kindListing, false, l.ID)),
		))
		if err := c.Send(fmt.Sprintf(messages["listing"], l.Title(), l.DailyRate, l.Location, l.ID), menu); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bot) handlePendingProfiles(c tele.Context) error {
	profiles, err := b.Services.Profile().ListPending(context.Background(), b.caller)
	if err != nil {
		b.Log.Error("bot: list pending profiles", logger.Error(err))
		return c.Send(messages["failed"])
	}
	if len(profiles) == 0 {
		return c.Send(messages["no_profiles"])
	}

	for _, p := range profiles {
		menu := &tele.ReplyMarkup{}
		menu.Inline(menu.Row(
			menu.Data("✅ Approve", reviewCallback(kindProfile, true, p.IdentityID)),
			menu.Data("❌ Reject", reviewCallback(kindProfile, false, p.IdentityID)),
		))
		if err := c.Send(fmt.Sprintf(messages["profile"], p.IdentityID, p.Phone, p.LicenseNumber, p.LicenseImageURL), menu); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bot) handleCallback(c tele.Context) error {
	action, ok := parseReviewCallback(c.Callback().Data)
	if !ok {
		return c.Respond()
	}

	ctx := context.Background()
	var (
		err  error
		done string
	)
	switch action.kind {
	case kindListing:
		_, err = b.Services.Listing().Review(ctx, b.caller, action.id, action.approve)
		done = pick(action.approve, "listing_ok", "listing_no")
	case kindProfile:
		_, err = b.Services.Profile().Review(ctx, b.caller, action.id, action.approve)
		done = pick(action.approve, "profile_ok", "profile_no")
	}

	if err != nil {
		b.Log.Error("bot: review failed",
			logger.String("kind", string(action.kind)),
			logger.String("id", action.id),
			logger.Error(err),
		)
		text := messages["failed"]
		if errors.Is(err, xerrors.ErrNotFound) {
			text = messages["already_handled"]
		}
		return c.Respond(&tele.CallbackResponse{Text: text, ShowAlert: true})
	}

	if _, err := b.Bot.Edit(c.Callback().Message, messages[done]); err != nil {
		b.Log.Warning("bot: edit message", logger.Error(err))
	}
	return c.Respond()
}

type reviewKind string

const (
	kindListing reviewKind = "lst"
	kindProfile reviewKind = "prf"
)

type reviewAction struct {
	kind    reviewKind
	approve bool
	id      string
}

func reviewCallback(kind reviewKind, approve bool, id string) string {
	return string(kind) + "_" + pick(approve, "ok", "no") + "_" + id
}

// parseReviewCallback decodes "<lst|prf>_<ok|no>_<id>". The payload travels as
// the button unique, so telebot delivers it behind a form feed.
func parseReviewCallback(data string) (reviewAction, bool) {
	data = strings.TrimPrefix(data, "\f")
	parts := strings.SplitN(data, "_", 3)
	if len(parts) != 3 || parts[2] == "" {
		return reviewAction{}, false
	}

	kind := reviewKind(parts[0])
	if kind != kindListing && kind != kindProfile {
		return reviewAction{}, false
	}

	var approve bool
	switch parts[1] {
	case "ok":
		approve = true
	case "no":
	default:
		return reviewAction{}, false
	}
	return reviewAction{kind: kind, approve: approve, id: parts[2]}, true
}

func pick(cond bool, yes, no string) string {
	if cond {
		return yes
	}
	return no
}
