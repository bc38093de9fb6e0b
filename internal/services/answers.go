package services

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/formpulse/survey-service/internal/models"
)

// ===== ANSWER NORMALIZATION =====

// NormalizedAnswers is the canonical form of one submission. ByIndex maps a
// 0-based question index to the stored answer; unanswered and unresolvable
// questions have no entry. Positional always has one slot per resolved
// question and keeps the respondent's raw value for snapshotting, a none
// value where nothing usable was submitted.
type NormalizedAnswers struct {
	ByIndex    map[int]models.CanonicalAnswer
	Positional []models.AnswerValue
}

// Document renders the ByIndex mapping as the JSON object stored on the
// response row, keyed by question index.
func (n NormalizedAnswers) Document() (json.RawMessage, error) {
	doc := make(map[string]models.CanonicalAnswer, len(n.ByIndex))
	for index, answer := range n.ByIndex {
		doc[strconv.Itoa(index)] = answer
	}
	return json.Marshal(doc)
}

// optionMatchStrategy tries to match a submitted answer string against one
// stored option, returning true on a hit. Strategies run in a fixed order;
// later entries only exist to tolerate historically inconsistent option
// storage and must stay behind exact matching.
type optionMatchStrategy func(option, answer string) bool

var serializedTextPattern = regexp.MustCompile(`text:\s*'([^']*)'`)

var optionMatchStrategies = []optionMatchStrategy{
	// Exact string equality, the primary path.
	func(option, answer string) bool {
		return option == answer
	},
	// Option stored as a JSON object with a text field.
	func(option, answer string) bool {
		var obj struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal([]byte(option), &obj); err != nil {
			return false
		}
		return obj.Text != "" && obj.Text == answer
	},
	// Option stored as a serialized object literal, e.g. "{ text: 'A' }".
	func(option, answer string) bool {
		match := serializedTextPattern.FindStringSubmatch(option)
		return match != nil && match[1] == answer
	},
}

// matchOptionIndex resolves a submitted answer string to an option index.
// Each strategy scans all options before the next one runs, so an exact
// match anywhere always beats a fallback match.
func matchOptionIndex(options []string, answer string) (int, bool) {
	for _, strategy := range optionMatchStrategies {
		for i, option := range options {
			if strategy(option, answer) {
				return i, true
			}
		}
	}
	return 0, false
}

// NormalizeAnswers converts a raw submitted payload into the canonical form.
// The payload is either a positional array or an object keyed by question
// index, question id, or question text. It is pure over (payload, questions);
// unresolvable single-choice answers are dropped from ByIndex while their raw
// value is kept in Positional, and unresolvable multiple-choice elements are
// dropped individually.
func NormalizeAnswers(payload json.RawMessage, questions []models.Question) NormalizedAnswers {
	normalized := NormalizedAnswers{
		ByIndex:    make(map[int]models.CanonicalAnswer),
		Positional: make([]models.AnswerValue, len(questions)),
	}

	raw := decodeRawAnswers(payload, questions)
	for i, question := range questions {
		value, canonical, ok := interpretAnswer(raw[i], question)
		normalized.Positional[i] = value
		if ok {
			normalized.ByIndex[i] = canonical
		}
	}
	return normalized
}

// decodeRawAnswers maps the payload onto question positions. Object payloads
// are probed per question by index string, then legacy id, then text.
func decodeRawAnswers(payload json.RawMessage, questions []models.Question) []any {
	raw := make([]any, len(questions))
	if len(payload) == 0 {
		return raw
	}

	var doc any
	if err := json.Unmarshal(payload, &doc); err != nil {
		return raw
	}

	switch doc := doc.(type) {
	case []any:
		for i := range questions {
			if i < len(doc) {
				raw[i] = doc[i]
			}
		}
	case map[string]any:
		for i, question := range questions {
			if value, ok := doc[strconv.Itoa(i)]; ok {
				raw[i] = value
				continue
			}
			if question.ID != "" {
				if value, ok := doc[question.ID]; ok {
					raw[i] = value
					continue
				}
			}
			if value, ok := doc[question.Text]; ok {
				raw[i] = value
			}
		}
	}
	return raw
}

// interpretAnswer resolves one raw value for one question. The returned bool
// reports whether a canonical entry should be stored.
func interpretAnswer(raw any, question models.Question) (models.AnswerValue, models.CanonicalAnswer, bool) {
	switch value := raw.(type) {
	case string:
		if value == "" {
			return models.AnswerValue{}, models.CanonicalAnswer{}, false
		}
		if question.TypeValue() == models.ShortText {
			return models.TextAnswer(value), models.CanonicalTextAnswer(value), true
		}
		if index, ok := matchOptionIndex(question.Options, value); ok {
			return models.TextAnswer(value), models.IndexAnswer(index), true
		}
		// Known lossy path: the raw value survives in the snapshot but the
		// canonical mapping drops it.
		return models.TextAnswer(value), models.CanonicalAnswer{}, false

	case float64:
		// Already-canonical numeric index; normalizing twice is a no-op.
		index := int(value)
		if question.TypeValue() == models.ShortText {
			text := strconv.FormatFloat(value, 'f', -1, 64)
			return models.TextAnswer(text), models.CanonicalTextAnswer(text), true
		}
		if index < 0 || index >= len(question.Options) {
			return models.AnswerValue{}, models.CanonicalAnswer{}, false
		}
		return models.TextAnswer(question.Options[index]), models.IndexAnswer(index), true

	case []any:
		return interpretListAnswer(value, question)

	default:
		return models.AnswerValue{}, models.CanonicalAnswer{}, false
	}
}

// interpretListAnswer resolves a multi-select value element by element,
// dropping elements that match no option.
func interpretListAnswer(values []any, question models.Question) (models.AnswerValue, models.CanonicalAnswer, bool) {
	var indices []int
	var texts []string
	for _, element := range values {
		switch element := element.(type) {
		case string:
			if strings.TrimSpace(element) == "" {
				continue
			}
			if index, ok := matchOptionIndex(question.Options, element); ok {
				indices = append(indices, index)
				texts = append(texts, element)
			}
		case float64:
			index := int(element)
			if index >= 0 && index < len(question.Options) {
				indices = append(indices, index)
				texts = append(texts, question.Options[index])
			}
		}
	}
	if len(indices) == 0 {
		return models.AnswerValue{}, models.CanonicalAnswer{}, false
	}
	return models.ListAnswer(texts...), models.IndexSetAnswer(indices...), true
}
