package chat

// Kind tells the caller how a response was produced.
type Kind string

const (
	KindWelcome        Kind = "welcome"
	KindGreeting       Kind = "greeting"
	KindMood           Kind = "mood_response"
	KindCrisis         Kind = "crisis"
	KindTechniques     Kind = "technique_suggestion"
	KindHelp           Kind = "help_response"
	KindEmpathic       Kind = "empathic_response"
	KindExercise       Kind = "guided_exercise_start"
	KindNotUnderstood  Kind = "not_understood"
	KindValidation     Kind = "validation"
	KindError          Kind = "error"
	KindSessionExpired Kind = "session_expired"
	KindDataCleared    Kind = "data_cleared"
	KindReminder       Kind = "reminder"
)

// Action ids understood by the engine and offered to the UI.
const (
	ActionShowTechniques = "show_techniques"
	ActionStartExercise  = "start_guided_exercise"
	ActionCallCrisisLine = "call_crisis_line"
	ActionShowSafetyPlan = "show_safety_plan"
	ActionBreathing      = "show_breathing_techniques"
	ActionRelaxation     = "show_relaxation_techniques"
	ActionMoodCheck      = "mood_check"
)

// SuggestedAction is a follow-up the UI can render as a button.
type SuggestedAction struct {
	Label    string `json:"label"`
	ActionID string `json:"actionId"`
	Payload  string `json:"payload,omitempty"`
}

// Response is the engine's output for one turn. Responses are cached and
// replayed by pointer, so nothing may modify one after it has been built.
type Response struct {
	Text             string            `json:"text"`
	Category         Category          `json:"category,omitempty"`
	Kind             Kind              `json:"kind"`
	Techniques       []string          `json:"techniques,omitempty"`
	SuggestedActions []SuggestedAction `json:"suggestedActions,omitempty"`
	Steps            []string          `json:"steps,omitempty"`
	IsCrisis         bool              `json:"isCrisis"`
}
