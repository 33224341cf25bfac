package chat

// Category is the emotional theme detected in a user message. The zero value
// means no category matched.
type Category string

const (
	CategoryNone Category = ""
	Anxiety      Category = "anxiety"
	Depression   Category = "depression"
	Stress       Category = "stress"
	Trauma       Category = "trauma"
	Panic        Category = "panic"
	Crisis       Category = "crisis"
	Neutral      Category = "neutral"
)

// ParseCategory maps a lexicon label onto a Category.
func ParseCategory(raw string) (Category, bool) {
	switch Category(raw) {
	case Anxiety, Depression, Stress, Trauma, Panic, Crisis, Neutral:
		return Category(raw), true
	default:
		return CategoryNone, false
	}
}

// Intent is a secondary label used when no mood category matched.
type Intent string

const (
	IntentNone       Intent = ""
	IntentGreeting   Intent = "greeting"
	IntentTechniques Intent = "techniques"
	IntentHelp       Intent = "help"
)
