package commands

import (
	"fmt"

	"github.com/de-tools/data-pump/pkg/runtime/terminal/export"
	"github.com/de-tools/data-pump/pkg/services/report"
)

// Env is shared by all commands. Service is set once the root command has
// loaded the configuration.
type Env struct {
	Service  *report.Service
	Reporter *export.Reporter
}

func (e *Env) service() (*report.Service, error) {
	if e.Service == nil {
		return nil, fmt.Errorf("report service is not configured")
	}
	return e.Service, nil
}
