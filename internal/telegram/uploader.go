package telegram

import (
	"fmt"
	"strconv"

	"terabox-relay-bot/internal/media"

	tele "gopkg.in/telebot.v4"
)

// Receipt references a message produced by an upload, used to copy the file
// to the requester instead of re-uploading it.
type Receipt struct {
	ChatID    int64
	MessageID int
}

// Stored converts the receipt into an editable telebot handle.
func (r Receipt) Stored() tele.StoredMessage {
	return tele.StoredMessage{MessageID: strconv.Itoa(r.MessageID), ChatID: r.ChatID}
}

// Uploader sends a local file to a chat. Implemented by the default bot
// identity and the elevated MTProto user identity.
type Uploader interface {
	Upload(chatID int64, filePath, caption, thumbPath string) (Receipt, error)
}

// BotUploader uploads through the Bot API, sharing the bot instance with the
// polling loop.
type BotUploader struct {
	bot *tele.Bot
}

func NewBotUploader(bot *tele.Bot) *BotUploader {
	return &BotUploader{bot: bot}
}

func (u *BotUploader) Upload(chatID int64, filePath, caption, thumbPath string) (Receipt, error) {
	recipient := &tele.Chat{ID: chatID}
	file := tele.FromDisk(filePath)

	var payload any
	switch media.KindOf(filePath) {
	case media.KindVideo:
		video := &tele.Video{
			File:      file,
			Caption:   caption,
			Streaming: true,
		}
		if thumbPath != "" {
			video.Thumbnail = &tele.Photo{File: tele.FromDisk(thumbPath)}
		}
		payload = video
	case media.KindImage:
		payload = &tele.Photo{File: file, Caption: caption}
	default:
		payload = &tele.Document{File: file, Caption: caption}
	}

	msg, err := u.bot.Send(recipient, payload, tele.ModeHTML)
	if err != nil {
		return Receipt{}, fmt.Errorf("failed to send media: %w", err)
	}
	if msg == nil {
		return Receipt{}, fmt.Errorf("received nil message response")
	}
	return Receipt{ChatID: chatID, MessageID: msg.ID}, nil
}
