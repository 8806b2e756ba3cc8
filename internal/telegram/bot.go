package telegram

import (
	"context"
	"log"
	"strings"
	"time"

	"daily-planner-bot/internal/planner"
)

// Handler is the core the bot feeds events into (planner.Planner).
type Handler interface {
	HandleCommand(ctx context.Context, ownerID int64, name string) (planner.Result, error)
	HandleButton(ctx context.Context, ownerID int64, action, payload string) (planner.Result, error)
	HandleText(ctx context.Context, ownerID int64, body string) (planner.Result, error)
}

const storageFailedText = "⚠️ Не получилось сохранить, хранилище недоступно. Попробуй ещё раз чуть позже."

type Bot struct {
	client      *Client
	handler     Handler
	pollTimeout int
	retryDelay  time.Duration
}

func NewBot(client *Client, handler Handler, pollTimeout int) *Bot {
	if pollTimeout <= 0 {
		pollTimeout = 30
	}
	return &Bot{
		client:      client,
		handler:     handler,
		pollTimeout: pollTimeout,
		retryDelay:  5 * time.Second,
	}
}

// Run long-polls getUpdates until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	offset := 0
	log.Println("🤖 telegram bot polling started")

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		updates, err := b.client.GetUpdates(ctx, offset, b.pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Printf("[WARN] telegram poll error: %v", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(b.retryDelay):
			}
			continue
		}

		for _, u := range updates {
			offset = u.UpdateID + 1
			b.HandleUpdate(ctx, u)
		}
	}
}

func (b *Bot) HandleUpdate(ctx context.Context, u Update) {
	switch {
	case u.CallbackQuery != nil:
		b.handleCallback(ctx, u.CallbackQuery)
	case u.Message != nil:
		b.handleMessage(ctx, u.Message)
	}
}

// commandName returns "today" for "/today@my_bot extra", ok=false for plain text.
func commandName(text string) (string, bool) {
	if !strings.HasPrefix(text, "/") {
		return "", false
	}
	name := strings.Fields(text)[0]
	name = strings.TrimPrefix(name, "/")
	if at := strings.IndexByte(name, '@'); at >= 0 {
		name = name[:at]
	}
	return name, true
}

func (b *Bot) handleMessage(ctx context.Context, msg *Message) {
	// стикеры, фото, голосовые приходят без text: это не задача и не команда
	if msg.Text == "" {
		return
	}

	ownerID := msg.Chat.ID
	if msg.From != nil {
		ownerID = msg.From.ID
	}

	var (
		res planner.Result
		err error
	)
	if name, ok := commandName(strings.TrimSpace(msg.Text)); ok {
		res, err = b.handler.HandleCommand(ctx, ownerID, name)
	} else {
		// текст задачи сохраняем как есть, без TrimSpace
		res, err = b.handler.HandleText(ctx, ownerID, msg.Text)
	}
	if err != nil {
		b.send(ctx, msg.Chat.ID, storageFailedText, nil)
		return
	}

	reply := Render(res)
	if reply.Text == "" {
		return
	}
	b.send(ctx, msg.Chat.ID, reply.Text, reply.Keyboard)
}

func (b *Bot) handleCallback(ctx context.Context, cq *CallbackQuery) {
	action, payload := ParseCallback(cq.Data)

	res, err := b.handler.HandleButton(ctx, cq.From.ID, action, payload)
	if err != nil {
		b.answer(ctx, cq.ID, "⚠️ Хранилище недоступно")
		if cq.Message != nil {
			b.send(ctx, cq.Message.Chat.ID, storageFailedText, nil)
		}
		return
	}

	reply := Render(res)
	b.answer(ctx, cq.ID, reply.Toast)

	if reply.Text == "" || cq.Message == nil {
		return
	}

	chatID := cq.Message.Chat.ID
	if reply.Edit {
		err := b.client.EditMessageText(ctx, chatID, cq.Message.MessageID, reply.Text, reply.Keyboard)
		if err == nil {
			return
		}
		// "message is not modified": список не изменился, слать нечего
		if !strings.Contains(err.Error(), "not modified") {
			log.Printf("[WARN] telegram edit failed chat=%d: %v", chatID, err)
			b.send(ctx, chatID, reply.Text, reply.Keyboard)
		}
		return
	}
	b.send(ctx, chatID, reply.Text, reply.Keyboard)
}

func (b *Bot) send(ctx context.Context, chatID int64, text string, kb *InlineKeyboard) {
	if err := b.client.SendMessage(ctx, chatID, text, kb); err != nil {
		log.Printf("[WARN] telegram send failed chat=%d: %v", chatID, err)
	}
}

func (b *Bot) answer(ctx context.Context, callbackID, text string) {
	if err := b.client.AnswerCallback(ctx, callbackID, text); err != nil {
		log.Printf("[WARN] telegram answerCallback failed: %v", err)
	}
}
