package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/user/debatecoach/internal/gateway"
	"github.com/user/debatecoach/internal/state"
	"github.com/user/debatecoach/internal/types"
)

const maxTelegramMessage = 4096

const helpText = "Send /debate or /pitch to start a session, then paste your argument.\n" +
	"Commands: /evaluate, /objections, /research, /columns"

// Turns is the slice of the gateway the adapter drives.
type Turns interface {
	CreateSession(ctx context.Context, mode types.Mode) (types.SessionID, error)
	Submit(id types.SessionID, mode types.Mode, text string, hints types.Hints, opts ...gateway.RunOption) error
}

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

var _ Turns = (*gateway.Gateway)(nil)

// Adapter bridges Telegram chats to coaching sessions. Each chat is bound
// to at most one live session.
type Adapter struct {
	bot      *tgbotapi.BotAPI
	out      sender
	turns    Turns
	sessions types.SessionStore

	mu    sync.Mutex
	chats map[int64]types.SessionID
}

// New creates a Telegram adapter.
func New(token string, turns Turns, sessions types.SessionStore) (*Adapter, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}
	a := newAdapter(bot, turns, sessions)
	a.bot = bot
	return a, nil
}

func newAdapter(out sender, turns Turns, sessions types.SessionStore) *Adapter {
	return &Adapter{
		out:      out,
		turns:    turns,
		sessions: sessions,
		chats:    make(map[int64]types.SessionID),
	}
}

// Start begins long-polling for Telegram updates.
func (a *Adapter) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30

	updates := a.bot.GetUpdatesChan(u)

	for {
		select {
		case update := <-updates:
			if update.Message == nil || update.Message.Text == "" {
				continue
			}
			a.handleMessage(ctx, update.Message)
		case <-ctx.Done():
			a.bot.StopReceivingUpdates()
			return
		}
	}
}

func (a *Adapter) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.IsCommand() {
		a.handleCommand(ctx, msg)
		return
	}
	a.turn(ctx, msg.Chat.ID, msg.Text, types.Hints{})
}

func (a *Adapter) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	switch msg.Command() {
	case "start", "help":
		a.sendResponse(chatID, helpText)

	case "debate", "pitch":
		mode := types.Mode(msg.Command())
		if _, err := a.newSession(ctx, chatID, mode); err != nil {
			a.sendResponse(chatID, types.ReplyErrorPrefix+err.Error())
			return
		}
		a.sendResponse(chatID, fmt.Sprintf("New %s session started. Paste your argument.", mode))
		if text := strings.TrimSpace(msg.CommandArguments()); text != "" {
			a.turn(ctx, chatID, text, types.Hints{})
		}

	case "columns":
		id, ok := a.session(chatID)
		if !ok {
			a.sendResponse(chatID, "No active session. "+helpText)
			return
		}
		cols, err := a.sessions.Export(ctx, id)
		if err != nil {
			a.forget(chatID, id)
			a.sendResponse(chatID, "Session expired. Send /debate or /pitch to start again.")
			return
		}
		a.sendResponse(chatID, formatColumns(cols))

	case "evaluate":
		a.turn(ctx, chatID, msg.CommandArguments(), types.Hints{Intent: types.IntentEvaluate})
	case "objections":
		a.turn(ctx, chatID, msg.CommandArguments(), types.Hints{Intent: types.IntentObjections})
	case "research":
		a.turn(ctx, chatID, msg.CommandArguments(), types.Hints{Intent: types.IntentResearch})

	default:
		a.sendResponse(chatID, "Unknown command. "+helpText)
	}
}

// turn queues text on the chat's session, starting a debate session when
// the chat has none. The reply is sent when the turn completes.
func (a *Adapter) turn(ctx context.Context, chatID int64, text string, hints types.Hints) {
	id, ok := a.session(chatID)
	if !ok {
		var err error
		if id, err = a.newSession(ctx, chatID, types.ModeDebate); err != nil {
			a.sendResponse(chatID, types.ReplyErrorPrefix+err.Error())
			return
		}
	}

	reply := func(res types.TurnResult, err error) {
		switch {
		case errors.Is(err, state.ErrSessionNotFound):
			a.forget(chatID, id)
			a.sendResponse(chatID, "Session expired. Send /debate or /pitch to start again.")
		case err != nil:
			slog.Error("telegram turn failed", "chat_id", chatID, "session_id", id, "error", err)
			a.sendResponse(chatID, gateway.FailureResult(err).Reply)
		default:
			a.sendResponse(chatID, res.Reply)
		}
	}
	if err := a.turns.Submit(id, "", text, hints, gateway.WithOnComplete(reply)); err != nil {
		reply(types.TurnResult{}, err)
	}
}

func (a *Adapter) newSession(ctx context.Context, chatID int64, mode types.Mode) (types.SessionID, error) {
	id, err := a.turns.CreateSession(ctx, mode)
	if err != nil {
		return "", err
	}
	a.mu.Lock()
	a.chats[chatID] = id
	a.mu.Unlock()
	return id, nil
}

func (a *Adapter) session(chatID int64) (types.SessionID, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	id, ok := a.chats[chatID]
	return id, ok
}

// forget unbinds chatID only if it still points at id.
func (a *Adapter) forget(chatID int64, id types.SessionID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.chats[chatID] == id {
		delete(a.chats, chatID)
	}
}

func (a *Adapter) sendResponse(chatID int64, text string) {
	parts := splitMessage(text)
	for _, part := range parts {
		msg := tgbotapi.NewMessage(chatID, part)
		msg.ParseMode = "Markdown"
		if _, err := a.out.Send(msg); err != nil {
			// Retry without markdown if it fails
			msg.ParseMode = ""
			if _, err := a.out.Send(msg); err != nil {
				slog.Warn("send message failed", "chat_id", chatID, "error", err)
			}
		}
	}
}

func formatColumns(cols types.Columns) string {
	var b strings.Builder
	writeEvents := func(name types.Column, events []types.Event) {
		fmt.Fprintf(&b, "%s (%d)\n", name, len(events))
		for _, e := range events {
			fmt.Fprintf(&b, "• %v\n", e.Payload)
		}
	}
	writeEvents(types.ColumnPro, cols.Pro)
	b.WriteString("\n")
	writeEvents(types.ColumnCon, cols.Con)
	fmt.Fprintf(&b, "\n%s (%d)\n", types.ColumnSources, len(cols.Sources))
	for _, s := range cols.Sources {
		fmt.Fprintf(&b, "• [%s] %s %s\n", s.Reliability, s.Title, s.URL)
	}
	return strings.TrimRight(b.String(), "\n")
}

func splitMessage(text string) []string {
	if len(text) <= maxTelegramMessage {
		return []string{text}
	}
	var parts []string
	for len(text) > 0 {
		end := maxTelegramMessage
		if end > len(text) {
			end = len(text)
		}
		parts = append(parts, text[:end])
		text = text[end:]
	}
	return parts
}
