package handler

import (
	"bytes"
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog"

	"SurveyBot/survey"
)

// SurveyBotHandler adapts Telegram updates to engine events and renders
// engine replies back as messages with reply keyboards.
type SurveyBotHandler struct {
	engine *survey.Engine
	log    zerolog.Logger
}

func NewSurveyBotHandler(engine *survey.Engine, log zerolog.Logger) *SurveyBotHandler {
	return &SurveyBotHandler{
		engine: engine,
		log:    log,
	}
}

func (h *SurveyBotHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	text := strings.TrimSpace(update.Message.Text)
	h.log.Debug().
		Int64("user_id", update.Message.From.ID).
		Str("text", text).
		Msg("update received")

	in := survey.Inbound{
		UserID:  update.Message.From.ID,
		ChatID:  update.Message.Chat.ID,
		Text:    text,
		IsStart: text == "/start" || strings.HasPrefix(text, "/start "),
	}

	for _, reply := range h.engine.Process(ctx, in) {
		h.send(ctx, b, reply)
	}
}

func (h *SurveyBotHandler) send(ctx context.Context, b *bot.Bot, reply survey.Reply) {
	if reply.File != nil {
		_, err := b.SendDocument(ctx, &bot.SendDocumentParams{
			ChatID: reply.ChatID,
			Document: &models.InputFileUpload{
				Filename: reply.File.Name,
				Data:     bytes.NewReader(reply.File.Data),
			},
		})
		if err != nil {
			h.log.Error().Err(err).Int64("chat_id", reply.ChatID).Msg("error sending document")
		}
		return
	}

	params := &bot.SendMessageParams{
		ChatID: reply.ChatID,
		Text:   reply.Text,
	}
	if len(reply.Options) > 0 {
		params.ReplyMarkup = keyboard(reply.Options)
	} else {
		params.ReplyMarkup = &models.ReplyKeyboardRemove{RemoveKeyboard: true}
	}

	if _, err := b.SendMessage(ctx, params); err != nil {
		h.log.Error().Err(err).Int64("chat_id", reply.ChatID).Msg("error sending message")
	}
}

// keyboard renders one suggested reply per row, the way the survey's option
// sets are meant to be shown.
func keyboard(options []string) *models.ReplyKeyboardMarkup {
	rows := make([][]models.KeyboardButton, 0, len(options))
	for _, opt := range options {
		rows = append(rows, []models.KeyboardButton{{Text: opt}})
	}
	return &models.ReplyKeyboardMarkup{
		Keyboard:       rows,
		ResizeKeyboard: true,
	}
}
