package adapters

import (
	"github.com/de-tools/data-pump/pkg/models/api"
	"github.com/de-tools/data-pump/pkg/pump"
)

func MapPumpDefinitionToApi(name string, def pump.Definition) api.Pump {
	out := api.Pump{
		Name:        name,
		Description: def.Description,
		OutputShape: def.Schema.OutputShape(),
		Fields:      make([]api.Field, 0, len(def.Schema.Fields())),
	}
	for _, f := range def.Schema.Fields() {
		out.Fields = append(out.Fields, api.Field{Name: f.Name, DataType: f.DataType().String()})
	}
	return out
}
