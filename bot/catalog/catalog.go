// Package catalog renders notification kinds into text, keyboards and photos.
package catalog

import (
	"fmt"
	"strings"

	"Sobaken/bot/chat"
)

var defaultTexts = map[chat.NoticeKind]string{
	chat.NoticeWelcome:           "Welcome! Tap \"%s\" any time during a walk to check on your dog.",
	chat.NoticeDropoffOffer:      "Ready to drop off your dog?",
	chat.NoticeDurationPrompt:    "When will you pick it up?",
	chat.NoticeDurationConfirmed: "Drop-off confirmed. Pickup %s.",
	chat.NoticeStatusPending:     "One moment",
	chat.NoticeStatusPhoto:       "Resting after the walk",
	chat.NoticeReminder:          "Dropoff reminder: your dog is on its walk.",
	chat.NoticeWalkPhoto:         "Photo from the walk",
	chat.NoticeCompletion:        "Pickup time! Your dog is waiting for you.",
	chat.NoticeRestart:           "Welcome back! Start a new drop-off whenever you like.",
	chat.NoticeHelp:              "These commands are supported:\n/help - display this text.\n/start - start.",
}

type Options struct {
	// Texts overrides default texts, keyed by notice kind.
	Texts        map[string]string
	Resting      []string
	Walk         []string
	Durations    []chat.DurationChoice
	StatusPhrase string
}

type Catalog struct {
	texts        map[chat.NoticeKind]string
	resting      *Rotation
	walk         *Rotation
	durations    []chat.DurationChoice
	statusPhrase string
}

// New validates the rotations and merges text overrides. Errors here are
// configuration errors and should stop the process.
func New(opts Options) (*Catalog, error) {
	resting, err := NewRotation("resting", opts.Resting)
	if err != nil {
		return nil, err
	}
	walk, err := NewRotation("walk", opts.Walk)
	if err != nil {
		return nil, err
	}

	texts := make(map[chat.NoticeKind]string, len(defaultTexts))
	for k, v := range defaultTexts {
		texts[k] = v
	}
	for k, v := range opts.Texts {
		kind := chat.NoticeKind(k)
		if _, ok := defaultTexts[kind]; !ok {
			return nil, fmt.Errorf("unknown notice kind in texts: %s", k)
		}
		if verbs(v) > verbs(defaultTexts[kind]) {
			return nil, fmt.Errorf("%w: %s allows at most %d format verbs", ErrTextFormat, k, verbs(defaultTexts[kind]))
		}
		texts[kind] = v
	}

	return &Catalog{
		texts:        texts,
		resting:      resting,
		walk:         walk,
		durations:    opts.Durations,
		statusPhrase: opts.StatusPhrase,
	}, nil
}

// Render builds the payload for kind. Args fill the text's format verbs.
func (c *Catalog) Render(kind chat.NoticeKind, args ...any) chat.Payload {
	text := c.texts[kind]
	if len(args) > 0 && verbs(text) > 0 {
		text = fmt.Sprintf(text, args...)
	}

	p := chat.Payload{Text: text}
	switch kind {
	case chat.NoticeWelcome:
		if len(args) == 0 && strings.Contains(text, "%s") {
			p.Text = fmt.Sprintf(text, c.statusPhrase)
		}
		p.Keyboard = c.statusKeyboard()
	case chat.NoticeReminder:
		p.Keyboard = c.statusKeyboard()
	case chat.NoticeDropoffOffer:
		p.Keyboard = inline(chat.InlineButton{Text: "Dropoff", Data: chat.PayloadDropoff})
	case chat.NoticeRestart:
		p.Keyboard = inline(chat.InlineButton{Text: "New drop-off", Data: chat.PayloadStart})
	case chat.NoticeDurationPrompt:
		buttons := make([]chat.InlineButton, len(c.durations))
		for i, d := range c.durations {
			buttons[i] = chat.InlineButton{Text: d.Label, Data: d.Payload}
		}
		p.Keyboard = inline(buttons...)
	case chat.NoticeStatusPhoto:
		p.Photo = c.resting.Pick()
	case chat.NoticeWalkPhoto:
		p.Photo = c.walk.Pick()
	}
	return p
}

func (c *Catalog) statusKeyboard() *chat.Keyboard {
	return &chat.Keyboard{Menu: [][]chat.MenuButton{{{Text: c.statusPhrase}}}}
}

// verbs counts format verbs, ignoring escaped percent signs.
func verbs(text string) int {
	return strings.Count(strings.ReplaceAll(text, "%%", ""), "%")
}

func inline(buttons ...chat.InlineButton) *chat.Keyboard {
	return &chat.Keyboard{Inline: [][]chat.InlineButton{buttons}}
}
