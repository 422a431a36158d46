package sentiment

import (
	"html"
	"math"
	"regexp"
	"strings"

	"github.com/jonreiter/govader"
	"github.com/russross/blackfriday/v2"

	"github.com/spacesedan/sentiscope/internal/models"
)

var (
	linkPattern = regexp.MustCompile(`\[(.*?)\]\((https?:\/\/[^\s\)]+)\)`)
	urlPattern  = regexp.MustCompile(`https?://\S+|www\.\S+`)
	tagPattern  = regexp.MustCompile(`<[^>]+>`)
)

func RemoveLinks(input string) string {
	input = linkPattern.ReplaceAllString(input, "$1")
	return urlPattern.ReplaceAllString(input, "")
}

func ConvertMarkdownToText(input string) string {
	output := blackfriday.Run([]byte(RemoveLinks(input)), blackfriday.WithNoExtensions())
	plainText := tagPattern.ReplaceAllString(string(output), " ")
	return strings.Join(strings.Fields(html.UnescapeString(plainText)), " ")
}

// VaderClassifier is a binary classifier over the VADER compound score.
// POSITIVE when compound >= 0, otherwise NEGATIVE; the score maps |compound|
// onto [0.5, 1] so it reads like a two-class confidence.
type VaderClassifier struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

func NewVaderClassifier() *VaderClassifier {
	return &VaderClassifier{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

func (v *VaderClassifier) Classify(text string) (models.Label, float64) {
	plainText := ConvertMarkdownToText(text)
	compound := v.analyzer.PolarityScores(plainText).Compound

	label := models.LabelPositive
	if compound < 0 {
		label = models.LabelNegative
	}
	return label, Round4(0.5 + math.Abs(compound)/2)
}

func Round4(f float64) float64 {
	return math.Round(f*10000) / 10000
}
