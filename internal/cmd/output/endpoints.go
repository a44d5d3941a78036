package output

import (
	"io"
	"time"

	"github.com/t569/scanapi/pkg/endpoints"
)

// EndpointsToTableData converts endpoints to table rows. Wide output adds
// the record ID and update time.
func EndpointsToTableData(eps []endpoints.Endpoint, wide bool) Data {
	keys := []string{"name", "url", "created_at"}
	if wide {
		keys = []string{"id", "name", "url", "created_at", "updated_at"}
	}

	rows := make([][]string, 0, len(eps))
	for _, ep := range eps {
		row := []string{ep.Name, ep.URL, formatTime(ep.CreatedAt)}
		if wide {
			row = []string{ep.ID, ep.Name, ep.URL, formatTime(ep.CreatedAt), formatTime(ep.UpdatedAt)}
		}
		rows = append(rows, row)
	}

	return Data{Headers: Headers(keys...), Rows: rows}
}

// FormatEndpoints writes eps to w in the given format.
func FormatEndpoints(w io.Writer, eps []endpoints.Endpoint, format Format) error {
	switch format {
	case FormatJSON, FormatYAML:
		return NewFormatter(format).Format(w, eps)
	default:
		return NewFormatter(FormatTable).Format(w, EndpointsToTableData(eps, format == FormatWide))
	}
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}
