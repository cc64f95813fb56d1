package caption

import (
	"encoding/json"
	"errors"
	"strings"
)

// Field names every caption object must carry, in validation order.
var requiredFields = []string{"title", "caption", "bullets", "cta", "hashtags"}

// ParseStrict parses text as a single JSON object.
func ParseStrict(text string) (map[string]json.RawMessage, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &obj); err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, errors.New("response is JSON null, not an object")
	}
	return obj, nil
}

// SalvageObject returns the greedy span from the first '{' to the last '}' in
// text. ok is false when there is no such span.
func SalvageObject(text string) (span string, ok bool) {
	start := strings.Index(text, "{")
	if start < 0 {
		return "", false
	}
	end := strings.LastIndex(text, "}")
	if end <= start {
		return "", false
	}
	return text[start : end+1], true
}

// Parse turns provider text into a validated GeneratedCaption. It first tries
// a strict parse of the whole text, then a strict parse of the brace span.
func Parse(text string) (*GeneratedCaption, error) {
	obj, err := ParseStrict(text)
	if err != nil {
		span, ok := SalvageObject(text)
		if !ok {
			return nil, &MalformedResponseError{Text: text, Err: err}
		}
		obj, err = ParseStrict(span)
		if err != nil {
			return nil, &MalformedResponseError{Text: text, Err: err}
		}
	}
	return Decode(obj)
}

// Decode validates a parsed object and builds the caption from it. Missing or
// null fields are a SchemaError; a bare string where a list is expected is
// accepted as a one-element list.
func Decode(obj map[string]json.RawMessage) (*GeneratedCaption, error) {
	for _, f := range requiredFields {
		raw, ok := obj[f]
		if !ok || isNull(raw) {
			return nil, &SchemaError{Field: f, Reason: "is missing"}
		}
	}

	var g GeneratedCaption
	var err error
	if g.Title, err = decodeString("title", obj["title"]); err != nil {
		return nil, err
	}
	if g.Caption, err = decodeString("caption", obj["caption"]); err != nil {
		return nil, err
	}
	if g.Bullets, err = decodeStringList("bullets", obj["bullets"]); err != nil {
		return nil, err
	}
	if g.CTA, err = decodeString("cta", obj["cta"]); err != nil {
		return nil, err
	}
	if g.Hashtags, err = decodeStringList("hashtags", obj["hashtags"]); err != nil {
		return nil, err
	}
	return &g, nil
}

func isNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}

func decodeString(field string, raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", &SchemaError{Field: field, Reason: "must be a string"}
	}
	return s, nil
}

func decodeStringList(field string, raw json.RawMessage) ([]string, error) {
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return []string{s}, nil
	}
	return nil, &SchemaError{Field: field, Reason: "must be a string or a list of strings"}
}
