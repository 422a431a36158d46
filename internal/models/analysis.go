package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

type Label string

const (
	LabelPositive Label = "POSITIVE"
	LabelNegative Label = "NEGATIVE"
)

// ParseLabel canonicalizes a label received from the wire. Unknown but
// non-empty labels are kept so the set can grow without a client release.
func ParseLabel(raw string) (Label, bool) {
	l := strings.ToUpper(strings.TrimSpace(raw))
	if l == "" {
		return "", false
	}
	return Label(l), true
}

func (l Label) String() string { return string(l) }

// AnalysisID is assigned by the remote store. It is numeric for the
// relational store and a uuid for the document store, so it is kept opaque.
type AnalysisID string

func (id AnalysisID) String() string { return string(id) }

func (id AnalysisID) MarshalJSON() ([]byte, error) {
	if _, err := strconv.ParseInt(string(id), 10, 64); err == nil {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func (id *AnalysisID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = AnalysisID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("analysis id must be a string or number: %w", err)
	}
	*id = AnalysisID(n.String())
	return nil
}

type AnalysisRecord struct {
	ID              AnalysisID
	Text            string
	Label           Label
	ConfidenceScore float64
	CreatedAt       time.Time
}

// Persisted reports whether the remote store has assigned an id.
func (r AnalysisRecord) Persisted() bool { return r.ID != "" }

// ResultView is what the presentation adapter renders for one result. The
// complementary percentage is derived from the rounded confidence so the two
// always sum to 100.
type ResultView struct {
	Label             Label
	ConfidencePercent int
	PositivePercent   int
	NegativePercent   int
}

func NewResultView(label Label, score float64) ResultView {
	pct := int(math.Round(score * 100))
	view := ResultView{Label: label, ConfidencePercent: pct}
	if label == LabelPositive {
		view.PositivePercent = pct
		view.NegativePercent = 100 - pct
	} else {
		view.NegativePercent = pct
		view.PositivePercent = 100 - pct
	}
	return view
}
