package logs

import (
	"strings"

	"github.com/lex00/wetwire-monitoring-go/metrics"
)

// Names of the built-in query definitions.
const (
	ApplicationLogErrorsQuery = "ApplicationLog.Errors"
	ServiceLogFaultsQuery     = "ServiceLog.Faults"
)

const applicationLogErrors = `fields @timestamp, @message, @logStream
| parse @message "[*] *" as loggingType, loggingMessage
| filter loggingType = "ERROR"
| sort @timestamp desc
| limit 100
| display @logStream, loggingMessage`

const serviceLogFaults = `fields @timestamp, @message
| filter Fault = 1
| sort @timestamp desc
| limit 100`

// QueryDefinition is a saved Logs Insights query.
type QueryDefinition struct {
	Name          string
	QueryString   string
	LogGroupNames []string
}

// Validate checks that the definition can be saved.
func (q QueryDefinition) Validate() error {
	switch {
	case q.Name == "":
		return metrics.NewConfigurationError("query definition", "name is required")
	case strings.TrimSpace(q.QueryString) == "":
		return metrics.NewConfigurationError("query definition", "query %q has an empty query string", q.Name)
	}
	return nil
}

// QueryDefinitionsProps select the query definitions to create.
type QueryDefinitionsProps struct {
	// ApplicationLogGroupName adds the ApplicationLog.Errors query when set.
	ApplicationLogGroupName string
	// ServiceLogGroupName adds the ServiceLog.Faults query when set.
	ServiceLogGroupName string
	// Custom definitions are appended after the built-in ones.
	Custom []QueryDefinition
}

// QueryDefinitions returns the built-in queries for the configured log
// groups followed by the custom ones.
func QueryDefinitions(props QueryDefinitionsProps) ([]QueryDefinition, error) {
	var out []QueryDefinition
	if props.ApplicationLogGroupName != "" {
		out = append(out, QueryDefinition{
			Name:          ApplicationLogErrorsQuery,
			QueryString:   applicationLogErrors,
			LogGroupNames: []string{props.ApplicationLogGroupName},
		})
	}
	if props.ServiceLogGroupName != "" {
		out = append(out, QueryDefinition{
			Name:          ServiceLogFaultsQuery,
			QueryString:   serviceLogFaults,
			LogGroupNames: []string{props.ServiceLogGroupName},
		})
	}

	seen := make(map[string]bool, len(out)+len(props.Custom))
	for _, q := range out {
		seen[q.Name] = true
	}
	for _, q := range props.Custom {
		if err := q.Validate(); err != nil {
			return nil, err
		}
		if seen[q.Name] {
			return nil, metrics.NewConfigurationError("query definition", "duplicate query name %q", q.Name)
		}
		seen[q.Name] = true
		out = append(out, q)
	}
	return out, nil
}
