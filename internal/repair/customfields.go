package repair

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/passwords/internal/common"
)

// privateFieldPrefix marks custom fields whose value must never be shown;
// they are always converted with type "data".
const privateFieldPrefix = "_"

var dataType = json.RawMessage(`"data"`)

type customField struct {
	Label string          `json:"label"`
	Type  json.RawMessage `json:"type"`
	Value json.RawMessage `json:"value"`
}

type legacyCustomField struct {
	Type  json.RawMessage `json:"type"`
	Value json.RawMessage `json:"value"`
}

// ConvertCustomFields converts a schema v1 custom fields object
// ({"label": {"type": ..., "value": ...}}) to the schema v2 list
// ([{"label": ..., "type": ..., "value": ...}]), keeping the key order of
// the source document. A repeated label keeps its first position and its
// last value.
func ConvertCustomFields(legacy string) (string, error) {
	if legacy == "{}" {
		return "[]", nil
	}

	dec := json.NewDecoder(strings.NewReader(legacy))

	tok, err := dec.Token()
	if err != nil {
		return "", malformed(err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return "", malformed(fmt.Errorf("expected object, got %v", tok))
	}

	fields := []customField{}
	seen := make(map[string]int)

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return "", malformed(err)
		}
		label, ok := tok.(string)
		if !ok {
			return "", malformed(fmt.Errorf("unexpected token %v", tok))
		}

		var data legacyCustomField
		if err := dec.Decode(&data); err != nil {
			return "", malformed(fmt.Errorf("field %q: %w", label, err))
		}

		f := customField{Label: label, Type: data.Type, Value: data.Value}
		if strings.HasPrefix(label, privateFieldPrefix) {
			f.Type = dataType
		}

		if i, dup := seen[label]; dup {
			fields[i] = f
			continue
		}
		seen[label] = len(fields)
		fields = append(fields, f)
	}

	if _, err := dec.Token(); err != nil {
		return "", malformed(err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return "", malformed(errors.New("trailing data"))
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(fields); err != nil {
		return "", malformed(err)
	}

	return strings.TrimSuffix(buf.String(), "\n"), nil
}

func malformed(err error) error {
	return fmt.Errorf("%w: %v", common.ErrMalformedCustomFields, err)
}
