package chat

// Messenger is the platform delivery adapter.
type Messenger interface {
	SendText(chatID ChatID, text string, keyboard *Keyboard) error
	SendPhoto(chatID ChatID, photo, caption string) error
	AckCallback(callbackID string) error
}

// MenuButton represents a button in a reply/menu keyboard.
type MenuButton struct {
	Text string
}

// InlineButton represents an inline button with callback data.
type InlineButton struct {
	Text string
	Data string
}

// Keyboard holds either reply rows or inline rows; inline wins when both are set.
type Keyboard struct {
	Menu   [][]MenuButton
	Inline [][]InlineButton
}
