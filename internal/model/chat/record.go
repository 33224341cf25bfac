package chat

// Record is the persisted form of a session. Text fields are anonymized
// before a Record is written anywhere.
type Record struct {
	Preferences RecordPreferences `json:"preferences"`
	History     []RecordEntry     `json:"history"`
}

// RecordPreferences never carries the user name.
type RecordPreferences struct {
	Locale        string        `json:"locale"`
	Accessibility Accessibility `json:"accessibility"`
}

type RecordEntry struct {
	Sender       Sender   `json:"sender"`
	Text         string   `json:"text"`
	TimestampISO string   `json:"timestampIso"`
	Category     Category `json:"category,omitempty"`
}
