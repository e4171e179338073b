// Package intake turns one inbound chat message into at most one notification
// mail. Every message passes a fixed sequence of gates; the first gate that
// rejects it decides the reply and stops processing.
package intake

import "time"

// ChatTypePrivate is the only chat type the pipeline accepts.
const ChatTypePrivate = "private"

// MediaKind identifies the type of a downloaded attachment.
type MediaKind string

const (
	MediaPhoto MediaKind = "photo"
	MediaVideo MediaKind = "video"
)

// Extension returns the file extension used when storing media of kind k.
func (k MediaKind) Extension() string {
	if k == MediaVideo {
		return ".mp4"
	}
	return ".jpg"
}

// Message is the transport-independent view of an inbound chat message.
type Message struct {
	ID       int
	ChatID   int64
	ChatType string
	// Username is empty when the sender has no public username.
	Username string
	Date     time.Time
	Text     string
	Caption  string
	// Photos lists the size variants of a single photo.
	Photos []Photo
	Video  *Video
}

// Photo is one size variant of an inbound photo.
type Photo struct {
	FileID string
	Width  int
	Height int
}

// Video references an inbound video.
type Video struct {
	FileID string
}

// Content returns the text, falling back to the caption.
func (m *Message) Content() string {
	if m.Text != "" {
		return m.Text
	}
	return m.Caption
}

// HasMedia reports whether the message carries a photo or a video.
func (m *Message) HasMedia() bool {
	return len(m.Photos) > 0 || m.Video != nil
}

// LargestPhoto returns the variant with the biggest pixel area. On ties the
// later variant wins, matching the ascending order Telegram sends.
func (m *Message) LargestPhoto() (Photo, bool) {
	if len(m.Photos) == 0 {
		return Photo{}, false
	}
	best := m.Photos[0]
	for _, p := range m.Photos[1:] {
		if p.Width*p.Height >= best.Width*best.Height {
			best = p
		}
	}
	return best, true
}
