package api

type Field struct {
	Name     string `json:"name"`
	DataType string `json:"data_type"`
}

type Pump struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Fields      []Field  `json:"fields"`
	OutputShape []string `json:"output_shape"`
}
