package chat

// NoticeKind names an outbound notification; the catalog turns it into a payload.
type NoticeKind string

const (
	NoticeWelcome           NoticeKind = "welcome"
	NoticeDropoffOffer      NoticeKind = "dropoff_offer"
	NoticeDurationPrompt    NoticeKind = "duration_prompt"
	NoticeDurationConfirmed NoticeKind = "duration_confirmed"
	NoticeStatusPending     NoticeKind = "status_pending"
	NoticeStatusPhoto       NoticeKind = "status_photo"
	NoticeReminder          NoticeKind = "reminder"
	NoticeWalkPhoto         NoticeKind = "walk_photo"
	NoticeCompletion        NoticeKind = "completion"
	NoticeRestart           NoticeKind = "restart"
	NoticeHelp              NoticeKind = "help"
)

type Notice struct {
	Kind NoticeKind
	Args []any
}

func notice(kind NoticeKind, args ...any) Notice {
	return Notice{Kind: kind, Args: args}
}

// Payload is a rendered notice. A non-empty Photo is sent as a photo with Text as caption.
type Payload struct {
	Text     string
	Photo    string
	Keyboard *Keyboard
}

type Catalog interface {
	Render(kind NoticeKind, args ...any) Payload
}
