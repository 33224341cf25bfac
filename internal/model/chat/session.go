package chat

import "time"

// Accessibility holds the UI flags a user picked.
type Accessibility struct {
	HighContrast  bool `json:"highContrast"`
	LargeText     bool `json:"largeText"`
	ScreenReader  bool `json:"screenReader"`
	ReducedMotion bool `json:"reducedMotion"`
}

// Preferences are the per-user settings kept by a session.
type Preferences struct {
	Locale        string        `json:"locale"`
	Accessibility Accessibility `json:"accessibility"`
	UserName      string        `json:"userName,omitempty"`
}

// Snapshot is a read-only copy of a session for transports.
type Snapshot struct {
	ID              string      `json:"id"`
	StartedAt       time.Time   `json:"startedAt"`
	LastInteraction time.Time   `json:"lastInteraction"`
	Preferences     Preferences `json:"preferences"`
	CurrentMood     Category    `json:"currentMood"`
	History         []Message   `json:"history"`
	InMemoryOnly    bool        `json:"inMemoryOnly"`
}

// Stats summarises a conversation.
type Stats struct {
	TotalMessages int           `json:"totalMessages"`
	UserMessages  int           `json:"userMessages"`
	BotMessages   int           `json:"botMessages"`
	DetectedMoods []Category    `json:"detectedMoods"`
	Duration      time.Duration `json:"duration"`
}

// Export is the downloadable copy of a conversation.
type Export struct {
	ExportedAt time.Time `json:"exportedAt"`
	Session    Snapshot  `json:"session"`
	Stats      Stats     `json:"stats"`
}
