package notification

import (
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"
	tb "gopkg.in/tucnak/telebot.v2"

	"github.com/jibbril/setupbot/model"
	"github.com/jibbril/setupbot/service"
	"github.com/jibbril/setupbot/setup"
)

const defaultRecentSetups = 5

// Reporter exposes the live state of the bot to chat commands.
type Reporter interface {
	Status() string
	RecentSetups(n int) []setup.Setup
}

type telegram struct {
	settings    model.Settings
	reporter    Reporter
	defaultMenu *tb.ReplyMarkup
	client      *tb.Bot

	// paused silences setup notifications. Errors are still delivered.
	paused atomic.Bool
}

type Option func(telegram *telegram)

func NewTelegram(reporter Reporter, settings model.Settings, options ...Option) (service.Telegram, error) {
	menu := &tb.ReplyMarkup{ResizeReplyKeyboard: true}
	poller := &tb.LongPoller{Timeout: 10 * time.Second}

	userMiddleware := tb.NewMiddlewarePoller(poller, func(u *tb.Update) bool {
		if u.Message == nil || u.Message.Sender == nil {
			log.Error("no message, ", u)
			return false
		}

		if allowedUser(settings.Telegram.Users, u.Message.Sender.ID) {
			return true
		}
		log.Error("invalid user, ", u.Message)
		return false
	})

	client, err := tb.NewBot(tb.Settings{
		ParseMode: tb.ModeMarkdown,
		Token:     settings.Telegram.Token,
		Poller:    userMiddleware,
	})
	if err != nil {
		return nil, err
	}

	var (
		statusBtn = menu.Text("/status")
		setupsBtn = menu.Text("/setups")
		startBtn  = menu.Text("/start")
		stopBtn   = menu.Text("/stop")
	)

	err = client.SetCommands([]tb.Command{
		{Text: "/help", Description: "Display help instructions"},
		{Text: "/status", Description: "Check bot status"},
		{Text: "/setups", Description: "Latest setups found"},
		{Text: "/start", Description: "Resume setup notifications"},
		{Text: "/stop", Description: "Pause setup notifications"},
	})
	if err != nil {
		return nil, err
	}

	menu.Reply(
		menu.Row(statusBtn, setupsBtn),
		menu.Row(startBtn, stopBtn),
	)

	bot := &telegram{
		reporter:    reporter,
		client:      client,
		settings:    settings,
		defaultMenu: menu,
	}

	for _, option := range options {
		option(bot)
	}

	client.Handle("/help", bot.HelpHandle)
	client.Handle("/start", bot.StartHandle)
	client.Handle("/stop", bot.StopHandle)
	client.Handle("/status", bot.StatusHandle)
	client.Handle("/setups", bot.SetupsHandle)

	return bot, nil
}

func allowedUser(users []int, id int64) bool {
	for _, user := range users {
		if int64(user) == id {
			return true
		}
	}
	return false
}

func (t *telegram) Start() {
	go t.client.Start()
	for _, id := range t.settings.Telegram.Users {
		_, err := t.client.Send(&tb.User{ID: int64(id)}, "Bot initialized.", t.defaultMenu)
		if err != nil {
			log.Error(err)
		}
	}
}

func (t *telegram) Notify(text string) {
	for _, user := range t.settings.Telegram.Users {
		_, err := t.client.Send(&tb.User{ID: int64(user)}, text)
		if err != nil {
			log.Error(err)
		}
	}
}

func (t *telegram) reply(m *tb.Message, text string) {
	if _, err := t.client.Send(m.Sender, text); err != nil {
		log.Error(err)
	}
}

func (t *telegram) HelpHandle(m *tb.Message) {
	commands, err := t.client.GetCommands()
	if err != nil {
		log.Error(err)
		t.OnError(err)
		return
	}

	lines := make([]string, 0, len(commands))
	for _, command := range commands {
		lines = append(lines, fmt.Sprintf("/%s - %s", command.Text, command.Description))
	}

	t.reply(m, strings.Join(lines, "\n"))
}

func (t *telegram) StatusHandle(m *tb.Message) {
	state := "🟢 notifying"
	if t.paused.Load() {
		state = "🔴 paused"
	}
	t.reply(m, fmt.Sprintf("Status: `%s`\n%s", state, t.reporter.Status()))
}

func (t *telegram) SetupsHandle(m *tb.Message) {
	n := defaultRecentSetups
	if arg := strings.TrimSpace(m.Payload); arg != "" {
		value, err := strconv.Atoi(arg)
		if err != nil || value <= 0 {
			t.reply(m, "Invalid count, use: /setups 10")
			return
		}
		n = value
	}

	t.reply(m, formatSetups(t.reporter.RecentSetups(n)))
}

func (t *telegram) StartHandle(m *tb.Message) {
	if !t.paused.Swap(false) {
		t.reply(m, "Notifications are already enabled")
		return
	}
	t.reply(m, "Notifications resumed")
}

func (t *telegram) StopHandle(m *tb.Message) {
	if t.paused.Swap(true) {
		t.reply(m, "Notifications are already paused")
		return
	}
	t.reply(m, "Notifications paused, send /start to resume")
}

func (t *telegram) OnSetup(s setup.Setup) {
	if t.paused.Load() {
		log.Debugf("notification/telegram: paused, skipping %s", s.ID)
		return
	}
	t.Notify(setupMessage(s))
}

func (t *telegram) OnError(err error) {
	t.Notify(fmt.Sprintf("🛑 ERROR\n`%s`", err))
}

func setupMessage(s setup.Setup) string {
	event := s.Event()
	text := fmt.Sprintf("%s *%s* setup on *%s* (%s)\nPrice: `%f`",
		orientationIcon(s), strings.ToUpper(event.Orientation), event.Ticker, event.Interval, event.Price)
	if event.StopLoss != 0 {
		text += fmt.Sprintf("\nStop loss: `%f`", event.StopLoss)
	}
	if event.TakeProfit != 0 {
		text += fmt.Sprintf("\nTake profit: `%f`", event.TakeProfit)
	}
	return text + fmt.Sprintf("\nResolution: `%s`\nTime: `%s`",
		event.Resolution, s.Candle.Time.UTC().Format("2006-01-02 15:04"))
}

func formatSetups(setups []setup.Setup) string {
	if len(setups) == 0 {
		return "No setups found yet"
	}

	var b strings.Builder
	b.WriteString("*LATEST SETUPS*\n")
	for _, s := range setups {
		fmt.Fprintf(&b, "%s `%s` %s %s at `%f`\n", orientationIcon(s), s.Candle.Time.UTC().Format("01-02 15:04"),
			s.Ticker, s.Orientation, s.Candle.Close)
	}
	return b.String()
}
