package domain

import (
	"encoding/json"
	"fmt"
)

// Field describes one column: a name and a validated data type.
type Field struct {
	Name     string
	dataType DataType
}

func NewField(name string, dataType DataType) (Field, error) {
	f := Field{Name: name}
	if err := f.SetDataType(dataType); err != nil {
		return Field{}, err
	}
	return f, nil
}

func (f Field) DataType() DataType {
	return f.dataType
}

func (f *Field) Rename(name string) {
	f.Name = name
}

// SetDataType goes through the same validation as NewField.
func (f *Field) SetDataType(dataType DataType) error {
	if !dataType.Valid() {
		return fmt.Errorf("%w: field %q declared as %q", ErrInvalidDataType, f.Name, string(dataType))
	}
	f.dataType = dataType
	return nil
}

type fieldJSON struct {
	Name     string   `json:"name"`
	DataType DataType `json:"data_type"`
}

func (f Field) MarshalJSON() ([]byte, error) {
	return json.Marshal(fieldJSON{Name: f.Name, DataType: f.dataType})
}

func (f *Field) UnmarshalJSON(b []byte) error {
	var raw fieldJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	parsed, err := NewField(raw.Name, raw.DataType)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}
