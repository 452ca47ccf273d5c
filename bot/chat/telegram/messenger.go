package telegram

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"Sobaken/bot/chat"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
)

// TelegramAPI defines the Telegram bot methods needed by the messenger.
// This avoids importing the concrete bot type and prevents circular imports.
type TelegramAPI interface {
	SendMessage(chatId int64, text string, opts *tgbotapi.SendMessageOpts) (*tgbotapi.Message, error)
	SendPhoto(chatId int64, photo tgbotapi.InputFileOrString, opts *tgbotapi.SendPhotoOpts) (*tgbotapi.Message, error)
	AnswerCallbackQuery(callbackQueryId string, opts *tgbotapi.AnswerCallbackQueryOpts) (bool, error)
}

// Messenger implements chat.Messenger for Telegram using native keyboards.
type Messenger struct {
	api TelegramAPI
}

// NewMessenger creates a new Telegram Messenger.
func NewMessenger(api TelegramAPI) *Messenger {
	return &Messenger{api: api}
}

func (m *Messenger) SendText(chatID chat.ChatID, text string, keyboard *chat.Keyboard) error {
	id, err := strconv.ParseInt(string(chatID), 10, 64)
	if err != nil {
		return err
	}
	opts := &tgbotapi.SendMessageOpts{}
	if markup := replyMarkup(keyboard); markup != nil {
		opts.ReplyMarkup = markup
	}
	_, err = m.api.SendMessage(id, text, opts)
	return err
}

// SendPhoto sends photo by URL, local path or Telegram file id, in that order.
func (m *Messenger) SendPhoto(chatID chat.ChatID, photo, caption string) error {
	id, err := strconv.ParseInt(string(chatID), 10, 64)
	if err != nil {
		return err
	}

	var file tgbotapi.InputFileOrString
	switch {
	case strings.HasPrefix(photo, "http://"), strings.HasPrefix(photo, "https://"):
		file = tgbotapi.InputFileByURL(photo)
	case isLocalFile(photo):
		f, err := os.Open(photo)
		if err != nil {
			return err
		}
		defer f.Close()
		file = tgbotapi.InputFileByReader(filepath.Base(photo), f)
	default:
		file = tgbotapi.InputFileByID(photo)
	}

	_, err = m.api.SendPhoto(id, file, &tgbotapi.SendPhotoOpts{
		Caption: caption,
	})
	return err
}

func (m *Messenger) AckCallback(callbackID string) error {
	_, err := m.api.AnswerCallbackQuery(callbackID, nil)
	return err
}

func isLocalFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func replyMarkup(keyboard *chat.Keyboard) tgbotapi.ReplyMarkup {
	if keyboard == nil {
		return nil
	}

	if len(keyboard.Inline) > 0 {
		rows := make([][]tgbotapi.InlineKeyboardButton, len(keyboard.Inline))
		for i, row := range keyboard.Inline {
			rows[i] = make([]tgbotapi.InlineKeyboardButton, len(row))
			for j, btn := range row {
				rows[i][j] = tgbotapi.InlineKeyboardButton{
					Text:         btn.Text,
					CallbackData: btn.Data,
				}
			}
		}
		return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rows}
	}

	if len(keyboard.Menu) > 0 {
		rows := make([][]tgbotapi.KeyboardButton, len(keyboard.Menu))
		for i, row := range keyboard.Menu {
			rows[i] = make([]tgbotapi.KeyboardButton, len(row))
			for j, btn := range row {
				rows[i][j] = tgbotapi.KeyboardButton{Text: btn.Text}
			}
		}
		return tgbotapi.ReplyKeyboardMarkup{
			Keyboard:       rows,
			ResizeKeyboard: true,
		}
	}

	return nil
}
