package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go/service/dynamodb"
)

// FieldKind records how a measurement arrived on the wire.
type FieldKind uint8

const (
	FieldAbsent FieldKind = iota
	FieldText
	FieldNumber
)

// Field is a measurement value as delivered by a source: free-form text such
// as "12.5 Gb/sec", a bare number, or nothing at all.
type Field struct {
	Kind   FieldKind
	Text   string
	Number float64
}

// Text returns a text field.
func Text(s string) Field { return Field{Kind: FieldText, Text: s} }

// Number returns a numeric field.
func Number(n float64) Field { return Field{Kind: FieldNumber, Number: n} }

// String renders the field the way it appeared on the wire.
func (f Field) String() string {
	switch f.Kind {
	case FieldText:
		return f.Text
	case FieldNumber:
		return strconv.FormatFloat(f.Number, 'f', -1, 64)
	}
	return ""
}

func (f Field) MarshalJSON() ([]byte, error) {
	switch f.Kind {
	case FieldText:
		return json.Marshal(f.Text)
	case FieldNumber:
		return json.Marshal(f.Number)
	}
	return []byte("null"), nil
}

func (f *Field) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = Field{}
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = Text(s)
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var n float64
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*f = Number(n)
	default:
		// Booleans and nested values carry no measurement.
		*f = Field{}
	}
	return nil
}

// UnmarshalDynamoDBAttributeValue decodes S, N and NULL attributes.
func (f *Field) UnmarshalDynamoDBAttributeValue(av *dynamodb.AttributeValue) error {
	switch {
	case av == nil, av.NULL != nil && *av.NULL:
		*f = Field{}
	case av.S != nil:
		*f = Text(*av.S)
	case av.N != nil:
		n, err := strconv.ParseFloat(*av.N, 64)
		if err != nil {
			return fmt.Errorf("field: parse number attribute %q: %w", *av.N, err)
		}
		*f = Number(n)
	default:
		*f = Field{}
	}
	return nil
}

// MarshalDynamoDBAttributeValue encodes the field in its original form.
func (f Field) MarshalDynamoDBAttributeValue(av *dynamodb.AttributeValue) error {
	switch f.Kind {
	case FieldText:
		av.S = &f.Text
	case FieldNumber:
		n := f.String()
		av.N = &n
	default:
		null := true
		av.NULL = &null
	}
	return nil
}
