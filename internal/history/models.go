package history

import "time"

const (
	SenderUser = "user"
	SenderBot  = "bot"
)

// Thread is one history entry: a conversation of a user about a subject.
// Message and Reply keep the opening exchange; UpdatedAt is the last activity.
type Thread struct {
	ID        string    `gorm:"primaryKey;size:26"` // ULID
	Owner     string    `gorm:"type:varchar(255);not null;index:idx_thread_owner_subject,priority:1"`
	Subject   string    `gorm:"type:varchar(128);not null;index:idx_thread_owner_subject,priority:2"`
	Message   string    `gorm:"type:text;not null"`
	Reply     string    `gorm:"type:text;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time `gorm:"index"`
}

func (Thread) TableName() string { return "chat_threads" }

type Turn struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	ThreadID  string    `gorm:"size:26;not null;index"`
	Sender    string    `gorm:"type:varchar(8);not null"`
	Text      string    `gorm:"type:text;not null"`
	CreatedAt time.Time
}

func (Turn) TableName() string { return "chat_turns" }

// ConversationMessage is a turn as the front end renders it.
type ConversationMessage struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

// Entry is the wire form of a thread.
type Entry struct {
	ID            string                `json:"id"`
	Subject       string                `json:"subject"`
	Message       string                `json:"message"`
	Reply         string                `json:"reply"`
	Conversation  []ConversationMessage `json:"conversation,omitempty"`
	Timestamp     time.Time             `json:"timestamp"`
	FormattedTime string                `json:"formatted_time"`
}

// Record is one completed exchange to persist. It is also the queue payload
// when history is written asynchronously.
type Record struct {
	User     string    `json:"user"`
	Subject  string    `json:"subject"`
	Message  string    `json:"message"`
	Reply    string    `json:"reply"`
	Continue bool      `json:"continue"`
	At       time.Time `json:"at"`
}

const timeLayout = "Jan 02, 2006 at 03:04 PM"

// FormatTime renders the sidebar timestamp.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}
