package recall

import "time"

// WelcomeText is the canned assistant greeting shown whenever a transcript
// would otherwise be empty.
const WelcomeText = "Hi! I'm your memory assistant. Ask me anything about " +
	"your photos, videos and voice notes."

// ImagePlaceholderText is the content of an optimistic user message when an
// image is attached without any accompanying text.
const ImagePlaceholderText = "Sent an image"

// Message is a single entry in a session's transcript. The transcript is
// append-only: messages are never mutated or re-sorted after insertion, and
// IDs are unique within a session.
type Message struct {
	ID          string
	Role        Role
	Content     string
	CreatedAt   time.Time
	Sources     []Source
	Attachments []Attachment
}

// Source is a citation attached to an assistant reply, referencing an
// archived memory item.
type Source struct {
	// ContextID is always present and serves as the stable render key.
	ContextID string
	// ItemID identifies the underlying memory item. Navigation to the
	// item is only offered when it is non-empty.
	ItemID       string
	CapturedAt   time.Time
	Title        string
	Snippet      string
	ThumbnailURL string
}

// Navigable reports whether the citation can be opened in the timeline.
func (s Source) Navigable() bool { return s.ItemID != "" }

// Attachment is a client-local reference to a selected media file, rendered
// from a revocable preview handle before (and instead of) the uploaded copy.
type Attachment struct {
	HandleID    string
	PreviewPath string
	ContentType string
	CreatedAt   time.Time
}

// WelcomeMessage returns the canned greeting as a fresh assistant message.
func WelcomeMessage() Message {
	return Message{
		ID:        "welcome",
		Role:      RoleAssistant,
		Content:   WelcomeText,
		CreatedAt: time.Now(),
	}
}
