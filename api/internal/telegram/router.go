package telegram

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"quiz-json/api/internal/converter"
	"quiz-json/api/internal/prompt"
	"quiz-json/api/internal/session"
)

// Bot is the subset of *tgbotapi.BotAPI the router talks to.
type Bot interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetFileDirectURL(fileID string) (string, error)
}

type Router struct {
	Bot        Bot
	Sessions   *session.Store
	Converter  *converter.Converter
	HTTPClient *http.Client
	Logger     zerolog.Logger

	// MaxImageBytes caps downloads from Telegram; 0 means 20 MiB.
	MaxImageBytes int64
}

const (
	startText = "Envie a foto de uma prova ou questionário e eu devolvo o JSON das questões.\n" +
		"Comandos: /convert (converte de novo a última imagem), /reset, /example, /health"
	acceptedText = "Imagem recebida, convertendo..."
	busyText     = "Uma conversão já está em andamento."

	// maxChunk is half the message limit: escaping can double a part.
	maxChunk = 2000
)

func chatSessionID(chatID int64) string {
	return "tg:" + strconv.FormatInt(chatID, 10)
}

func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	msg := upd.Message
	if msg == nil {
		return
	}
	if msg.IsCommand() {
		r.HandleCommand(ctx, msg)
		return
	}
	if fileID, mimeType, ok := imageOf(msg); ok {
		r.acceptImage(ctx, msg.Chat.ID, fileID, mimeType)
	}
}

func (r *Router) HandleCommand(ctx context.Context, msg *tgbotapi.Message) {
	cid := msg.Chat.ID
	switch msg.Command() {
	case "start", "help":
		r.send(cid, startText)
	case "health":
		r.send(cid, "OK")
	case "example":
		r.sendJSON(cid, prompt.Example)
	case "convert":
		r.convert(ctx, cid)
	case "reset":
		r.Sessions.Drop(chatSessionID(cid))
		r.send(cid, "Sessão apagada. Envie uma nova imagem.")
	default:
		r.send(cid, "Comando desconhecido. Use /start.")
	}
}

func (r *Router) acceptImage(ctx context.Context, chatID int64, fileID, mimeType string) {
	url, err := r.Bot.GetFileDirectURL(fileID)
	if err != nil {
		r.Logger.Error().Err(err).Int64("chat_id", chatID).Msg("telegram: get file")
		r.send(chatID, converter.UserMessage)
		return
	}
	img, err := download(ctx, r.HTTPClient, url, r.maxImageBytes())
	if err != nil {
		r.Logger.Error().Err(err).Int64("chat_id", chatID).Msg("telegram: download")
		r.send(chatID, converter.UserMessage)
		return
	}

	sess := r.Sessions.GetOrCreate(chatSessionID(chatID))
	sess.Upload(img, mimeType)
	r.send(chatID, acceptedText)
	r.convert(ctx, chatID)
}

func (r *Router) convert(ctx context.Context, chatID int64) {
	sess := r.Sessions.GetOrCreate(chatSessionID(chatID))
	res, err := sess.Convert(ctx, r.Converter)
	switch {
	case err == nil:
		r.sendJSON(chatID, res.JSON)
	case errors.Is(err, converter.ErrNoImage):
		r.send(chatID, converter.NoImageMessage)
	case errors.Is(err, converter.ErrConversionInFlight):
		r.send(chatID, busyText)
	case errors.Is(err, converter.ErrSuperseded):
		// the newer image's conversion replies
		r.Logger.Debug().Int64("chat_id", chatID).Msg("telegram: conversion superseded")
	default:
		r.send(chatID, converter.UserMessage)
	}
}

func (r *Router) maxImageBytes() int64 {
	if r.MaxImageBytes > 0 {
		return r.MaxImageBytes
	}
	return 20 << 20
}

func (r *Router) send(chatID int64, text string) {
	if _, err := r.Bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		r.Logger.Warn().Err(err).Int64("chat_id", chatID).Msg("telegram: send")
	}
}

// sendJSON sends the document as Markdown code blocks, split so that
// every message stays under Telegram's size limit.
func (r *Router) sendJSON(chatID int64, doc string) {
	for _, part := range splitMessage(doc, maxChunk) {
		m := tgbotapi.NewMessage(chatID, "```json\n"+escapeCode(part)+"\n```")
		m.ParseMode = tgbotapi.ModeMarkdownV2
		if _, err := r.Bot.Send(m); err != nil {
			r.Logger.Warn().Err(err).Int64("chat_id", chatID).Msg("telegram: send json")
		}
	}
}

// imageOf returns the file to download: the largest photo size, or a
// document whose MIME type is an image.
func imageOf(msg *tgbotapi.Message) (fileID, mimeType string, ok bool) {
	if n := len(msg.Photo); n > 0 {
		return msg.Photo[n-1].FileID, "image/jpeg", true
	}
	if d := msg.Document; d != nil && strings.HasPrefix(d.MimeType, "image/") {
		return d.FileID, d.MimeType, true
	}
	return "", "", false
}

// escapeCode escapes what MarkdownV2 forbids inside a code block.
func escapeCode(s string) string {
	return codeEscaper.Replace(s)
}

var codeEscaper = strings.NewReplacer("\\", "\\\\", "`", "\\`")
