package batch

import (
	"strings"

	"github.com/MeKo-Tech/digitread/internal/pipeline"
)

// formatBatchResults formats the batch results in the given format. Unknown
// formats fall back to text.
func formatBatchResults(results []pipeline.BatchResult, format string, precision int) (string, error) {
	switch format {
	case pipeline.FormatJSON:
		out, err := pipeline.ToJSONBatch(results)
		return out + "\n", err
	case pipeline.FormatCSV:
		return pipeline.ToCSVBatch(results, precision)
	default:
		return formatText(results, precision)
	}
}

// formatText writes one "# <file>" section per image.
func formatText(results []pipeline.BatchResult, precision int) (string, error) {
	var output strings.Builder
	for i, r := range results {
		if i > 0 {
			output.WriteString("\n")
		}
		output.WriteString("# " + r.Name + "\n")
		if r.Result == nil {
			output.WriteString("error: " + r.Error + "\n")
			continue
		}
		text, err := pipeline.ToPlainText(r.Result, precision)
		if err != nil {
			return "", err
		}
		output.WriteString(text)
	}
	return output.String(), nil
}
