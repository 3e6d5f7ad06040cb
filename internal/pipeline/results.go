package pipeline

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Output formats.
const (
	FormatJSON    = "json"
	FormatText    = "text"
	FormatCSV     = "csv"
	FormatOverlay = "overlay"
)

// ToJSON serializes a result to pretty JSON.
func ToJSON(res *RecognitionResult) (string, error) {
	if res == nil {
		return "", errors.New("nil result")
	}
	b, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ToJSONBatch serializes batch results to pretty JSON.
func ToJSONBatch(results []BatchResult) (string, error) {
	b, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ToPlainText renders the prediction on the first line followed by one
// tab-separated line per digit: "#n", label, confidence, x,y,w,h.
func ToPlainText(res *RecognitionResult, precision int) (string, error) {
	if res == nil {
		return "", errors.New("nil result")
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\t%s%%\n", res.Prediction, formatFloat(res.Accuracy, precision))
	for i, d := range res.Digits {
		fmt.Fprintf(&sb, "#%d\t%s\t%s%%\t%d,%d,%d,%d\n", i+1, d.Label, formatFloat(d.Confidence, precision),
			d.BBox[0], d.BBox[1], d.BBox[2], d.BBox[3])
	}
	return sb.String(), nil
}

// CSVHeader is the header row written by ToCSV.
var CSVHeader = []string{"index", "label", "confidence", "x", "y", "w", "h"}

// ToCSV exports per-digit rows with a header.
func ToCSV(res *RecognitionResult, precision int) (string, error) {
	if res == nil {
		return "", errors.New("nil result")
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(CSVHeader)
	for _, row := range csvRows(res, precision) {
		_ = w.Write(row)
	}
	w.Flush()
	return buf.String(), w.Error()
}

func csvRows(res *RecognitionResult, precision int) [][]string {
	rows := make([][]string, 0, len(res.Digits))
	for i, d := range res.Digits {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			d.Label,
			formatFloat(d.Confidence, precision),
			strconv.Itoa(d.BBox[0]),
			strconv.Itoa(d.BBox[1]),
			strconv.Itoa(d.BBox[2]),
			strconv.Itoa(d.BBox[3]),
		})
	}
	return rows
}

// ToCSVBatch exports all digits of a batch, prefixed by the input name.
func ToCSVBatch(results []BatchResult, precision int) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(append([]string{"source", "prediction", "error"}, CSVHeader...))
	for _, r := range results {
		if r.Result == nil {
			_ = w.Write([]string{r.Name, "", r.Error, "", "", "", "", "", "", ""})
			continue
		}
		for _, row := range csvRows(r.Result, precision) {
			_ = w.Write(append([]string{r.Name, r.Result.Prediction, ""}, row...))
		}
	}
	w.Flush()
	return buf.String(), w.Error()
}

// ValidateResult checks the invariants of a result: prediction equals the
// concatenated labels, confidences lie in [0, 100] and accuracy is their
// mean.
func ValidateResult(res *RecognitionResult) error {
	if res == nil {
		return errors.New("nil result")
	}
	var sb strings.Builder
	var sum float64
	for i, d := range res.Digits {
		if d.Confidence < 0 || d.Confidence > 100 {
			return fmt.Errorf("digit %d confidence %.2f out of range", i, d.Confidence)
		}
		if d.BBox[2] <= 0 || d.BBox[3] <= 0 {
			return fmt.Errorf("digit %d has an empty box", i)
		}
		sb.WriteString(d.Label)
		sum += d.Confidence
	}
	if sb.String() != res.Prediction {
		return fmt.Errorf("prediction %q does not match digit labels %q", res.Prediction, sb.String())
	}
	if n := len(res.Digits); n > 0 {
		// Per-digit values are rounded, so the mean may drift by half a unit
		// in the last place per digit.
		if diff := res.Accuracy - sum/float64(n); diff > 0.01 || diff < -0.01 {
			return fmt.Errorf("accuracy %.2f is not the mean confidence %.2f", res.Accuracy, sum/float64(n))
		}
	}
	return nil
}

func formatFloat(v float64, precision int) string {
	if precision < 0 {
		precision = 2
	}
	return strconv.FormatFloat(v, 'f', precision, 64)
}
