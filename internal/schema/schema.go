// Package schema extracts and validates the input schema a script
// declares in a comment-delimited block near its top.
package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Sentinel lines delimiting the schema block, matched after the
// comment prefix is stripped.
const (
	BlockStart = "schema:begin"
	BlockEnd   = "schema:end"
)

// CommentPrefixes are the comment markers a schema block may use.
var CommentPrefixes = []string{"#", "//"}

// Schema describes a script's declared inputs and metadata.
type Schema struct {
	Name        string   `json:"Name"`
	Description string   `json:"Description,omitempty"`
	Tags        []string `json:"Tags,omitempty"`
	Fields      []Field  `json:"Fields"`
	Outputs     []Output `json:"Outputs,omitempty"`
	Queue       *Queue   `json:"Queue,omitempty"`
}

// Field is one typed, orderable input.
type Field struct {
	Name     string   `json:"Name"`
	Prompt   string   `json:"Prompt,omitempty"`
	Type     string   `json:"Type"`
	Order    int      `json:"Order"`
	Required bool     `json:"Required,omitempty"`
	Default  *string  `json:"Default,omitempty"`
	Choices  []string `json:"Choices,omitempty"`
	Arg      string   `json:"Arg,omitempty"`
}

// Output describes a value the script reports producing.
type Output struct {
	Name string `json:"Name"`
	Type string `json:"Type"`
}

// Queue describes batched invocations a script declares, either as a
// value matrix or as explicit cases. Display only.
type Queue struct {
	Matrix *Matrix `json:"Matrix,omitempty"`
	Cases  []Case  `json:"Cases,omitempty"`
}

// Matrix enumerates per-field value sets whose cross product forms
// the queued invocations.
type Matrix struct {
	Values []MatrixValue `json:"Values"`
}

// MatrixValue is one field's candidate values in a matrix.
type MatrixValue struct {
	Name   string   `json:"Name"`
	Values []string `json:"Values"`
}

// Case is one explicit queued invocation.
type Case struct {
	Name   string      `json:"Name,omitempty"`
	Values []CaseValue `json:"Values"`
}

// CaseValue is one field assignment within a case.
type CaseValue struct {
	Name  string `json:"Name"`
	Value string `json:"Value"`
}

// ErrBlockNotFound reports a script with no schema block.
var ErrBlockNotFound = errors.New("schema block not found")

// ExtractBlock scans contents for the schema sentinels and returns
// the text between them with comment prefixes stripped. Every line
// inside the block must carry one of the accepted prefixes.
func ExtractBlock(contents string, prefixes []string) (string, error) {
	lines := strings.Split(contents, "\n")
	start := -1
	for i, line := range lines {
		if text, ok := stripPrefix(line, prefixes); ok && strings.TrimSpace(text) == BlockStart {
			start = i
			break
		}
	}
	if start < 0 {
		return "", ErrBlockNotFound
	}

	var block []string
	for i := start + 1; i < len(lines); i++ {
		text, ok := stripPrefix(lines[i], prefixes)
		if !ok {
			return "", fmt.Errorf("schema block line %d is not a comment", i+1)
		}
		if strings.TrimSpace(text) == BlockEnd {
			captured := strings.TrimSpace(strings.Join(block, "\n"))
			if captured == "" {
				return "", errors.New("schema block is empty")
			}
			return captured, nil
		}
		block = append(block, text)
	}
	return "", fmt.Errorf("schema block opened at line %d is never closed", start+1)
}

func stripPrefix(line string, prefixes []string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	for _, prefix := range prefixes {
		if strings.HasPrefix(trimmed, prefix) {
			return strings.TrimPrefix(trimmed, prefix), true
		}
	}
	return "", false
}

// Parse locates a JSON object describing a Schema inside text. Every
// occurrence of '{' is tried as a candidate start, so surrounding
// non-JSON output is tolerated.
func Parse(text string) (*Schema, error) {
	for idx := 0; idx < len(text); idx++ {
		if text[idx] != '{' {
			continue
		}
		dec := json.NewDecoder(strings.NewReader(text[idx:]))
		var s Schema
		if err := dec.Decode(&s); err != nil {
			continue
		}
		if s.Name == "" {
			continue
		}
		return &s, nil
	}
	return nil, errors.New("schema JSON object not found in output")
}

// Resolve extracts and parses a script's schema in one step, sorting
// fields by their declared order.
func Resolve(contents string) (*Schema, error) {
	block, err := ExtractBlock(contents, CommentPrefixes)
	if err != nil {
		return nil, err
	}
	s, err := Parse(block)
	if err != nil {
		return nil, err
	}
	s.SortFields()
	return s, nil
}

// SortFields orders Fields by their Order key. Order is authoritative
// for both display and generated argument order.
func (s *Schema) SortFields() {
	sort.SliceStable(s.Fields, func(i, j int) bool {
		return s.Fields[i].Order < s.Fields[j].Order
	})
}

// ArgName returns the flag this field contributes to the argument
// list, defaulting to "--" plus the lowercased field name.
func (f *Field) ArgName() string {
	if f.Arg != "" {
		return f.Arg
	}
	return "--" + strings.ToLower(f.Name)
}

// NormalizeInput validates raw user input against the field. It
// returns the normalized value, or omit=true when the field should
// contribute no argument. Validation failures are user-facing
// messages, never fatal.
func NormalizeInput(field *Field, raw string) (value string, omit bool, err error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		if field.Default != nil {
			trimmed = *field.Default
		} else if field.Required {
			return "", false, errors.New("Value required")
		} else {
			return "", true, nil
		}
	}

	if len(field.Choices) > 0 {
		found := false
		for _, choice := range field.Choices {
			if choice == trimmed {
				found = true
				break
			}
		}
		if !found {
			return "", false, fmt.Errorf("Allowed values: %s", strings.Join(field.Choices, ", "))
		}
	}

	switch strings.ToLower(field.Type) {
	case "number":
		if _, err := strconv.ParseFloat(trimmed, 64); err != nil {
			return "", false, errors.New("Enter a valid number")
		}
		return trimmed, false, nil
	case "bool", "boolean":
		b, ok := parseBool(trimmed)
		if !ok {
			return "", false, errors.New("Enter true/false (or yes/no)")
		}
		return strconv.FormatBool(b), false, nil
	default:
		// "string" and unknown kinds pass through unchanged.
		return trimmed, false, nil
	}
}

func parseBool(input string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "true", "t", "yes", "y", "1":
		return true, true
	case "false", "f", "no", "n", "0":
		return false, true
	}
	return false, false
}

// BuildArgs normalizes every field input in declared order and
// returns the flag/value argument list. On the first validation
// failure it returns the index of the offending field.
func BuildArgs(fields []Field, inputs []string) (args []string, badField int, err error) {
	for i := range fields {
		input := ""
		if i < len(inputs) {
			input = inputs[i]
		}
		value, omit, err := NormalizeInput(&fields[i], input)
		if err != nil {
			return nil, i, err
		}
		if omit {
			continue
		}
		args = append(args, fields[i].ArgName(), value)
	}
	return args, -1, nil
}
