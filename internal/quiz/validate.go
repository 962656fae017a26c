package quiz

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/wikiquiz/wikiquiz/internal/errcode"
)

// envelopeSchema is the structural contract: a questions array of objects.
// Field-level rules are checked per question afterwards, where coercion and
// index diagnostics apply.
const envelopeSchema = `{
	"type": "object",
	"required": ["questions"],
	"properties": {
		"questions": {
			"type": "array",
			"items": {"type": "object"}
		}
	}
}`

var compiledEnvelope = func() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("quiz.json", bytes.NewReader([]byte(envelopeSchema))); err != nil {
		panic(err)
	}
	return compiler.MustCompile("quiz.json")
}()

// rawQuestion tolerates the loose field encodings providers produce; the
// answer in particular arrives as a number or a numeric string.
type rawQuestion struct {
	Question    string          `json:"question"`
	Options     []string        `json:"options"`
	Answer      json.RawMessage `json:"answer"`
	Difficulty  string          `json:"difficulty"`
	Explanation string          `json:"explanation"`
}

type rawEnvelope struct {
	Questions []rawQuestion `json:"questions"`
}

// Validate checks raw model output against the quiz contract and returns
// the cleaned Content. Failures are classified, terminal for the attempt,
// and never partially repaired into a shorter or padded quiz.
func Validate(raw string, wantCount int) (*Content, error) {
	parsed, err := parseModelJSON(raw)
	if err != nil {
		return nil, errcode.Wrap(errcode.LLMJSONParse, false, err)
	}

	var doc any
	if err := json.Unmarshal(parsed, &doc); err != nil {
		return nil, errcode.Wrap(errcode.LLMJSONParse, false, err)
	}
	if err := compiledEnvelope.Validate(doc); err != nil {
		return nil, errcode.Wrap(errcode.LLMBadStructure, false, err)
	}

	var envelope rawEnvelope
	if err := json.Unmarshal(parsed, &envelope); err != nil {
		return nil, errcode.Wrap(errcode.LLMBadStructure, false, err)
	}

	if len(envelope.Questions) != wantCount {
		return nil, errcode.Wrap(errcode.LLMBadCount, false,
			fmt.Errorf("got %d questions, want %d", len(envelope.Questions), wantCount))
	}

	out := &Content{Questions: make([]Question, 0, wantCount)}
	for i, rq := range envelope.Questions {
		q, err := validateQuestion(rq)
		if err != nil {
			// The index stays in the wrapped error for diagnostics; the
			// user sees only the fixed catalog message.
			return nil, errcode.Wrap(errcode.LLMInvalidQuestion, false,
				fmt.Errorf("question %d: %w", i, err))
		}
		out.Questions = append(out.Questions, q)
	}
	return out, nil
}

func validateQuestion(rq rawQuestion) (Question, error) {
	q := Question{
		Question:    strings.TrimSpace(rq.Question),
		Difficulty:  strings.ToLower(strings.TrimSpace(rq.Difficulty)),
		Explanation: strings.TrimSpace(rq.Explanation),
	}
	if q.Question == "" {
		return Question{}, fmt.Errorf("empty question text")
	}

	if len(rq.Options) != 4 {
		return Question{}, fmt.Errorf("has %d options, want 4", len(rq.Options))
	}
	q.Options = make([]string, 4)
	for i, opt := range rq.Options {
		opt = strings.TrimSpace(opt)
		if opt == "" {
			return Question{}, fmt.Errorf("option %d is empty", i)
		}
		q.Options[i] = opt
	}

	answer, err := coerceAnswer(rq.Answer)
	if err != nil {
		return Question{}, err
	}
	if answer < 0 || answer > 3 {
		return Question{}, fmt.Errorf("answer %d out of range [0,3]", answer)
	}
	q.Answer = answer

	if !questionDifficulties[q.Difficulty] {
		return Question{}, fmt.Errorf("unknown difficulty %q", rq.Difficulty)
	}
	if q.Explanation == "" {
		return Question{}, fmt.Errorf("empty explanation")
	}
	return q, nil
}

// coerceAnswer accepts a JSON number or a numeric string. Some providers
// emit "2" where the contract says 2.
func coerceAnswer(raw json.RawMessage) (int, error) {
	if len(raw) == 0 {
		return 0, fmt.Errorf("missing answer")
	}

	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		n, convErr := strconv.Atoi(strings.TrimSpace(s))
		if convErr != nil {
			return 0, fmt.Errorf("answer %q is not an integer", s)
		}
		return n, nil
	}

	return 0, fmt.Errorf("answer has unsupported type: %s", string(raw))
}
