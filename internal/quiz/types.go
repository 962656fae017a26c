// Package quiz turns a sentence bucket into a validated multiple-choice
// quiz: prompt selection and rendering, provider dispatch with fallback,
// and strict validation with best-effort JSON repair of the model output.
package quiz

// Question is one validated multiple-choice question.
type Question struct {
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	Answer      int      `json:"answer"`
	Difficulty  string   `json:"difficulty"`
	Explanation string   `json:"explanation"`
}

// Content is the validated quiz payload handed to the client.
type Content struct {
	Questions []Question `json:"questions"`
}

// questionDifficulties is the closed set a model may label a question with.
// It is wider than the user-facing setting: the extreme tier asks for
// "extreme" questions.
var questionDifficulties = map[string]bool{
	"easy":    true,
	"medium":  true,
	"hard":    true,
	"extreme": true,
}
