// Package annotate derives the mood and summary the record store attaches to a memory.
package annotate

import (
	"strings"
	"unicode"

	"github.com/rcliao/misoul/internal/model"
)

const (
	DefaultSummaryLen  = 120
	minWordsForSummary = 12
)

var lexicon = map[string]model.Mood{
	"happy": model.MoodHappy, "joy": model.MoodHappy, "glad": model.MoodHappy, "smile": model.MoodHappy, "fun": model.MoodHappy,
	"sad": model.MoodSad, "cry": model.MoodSad, "cried": model.MoodSad, "miss": model.MoodSad, "lonely": model.MoodSad,
	"angry": model.MoodAngry, "mad": model.MoodAngry, "furious": model.MoodAngry, "annoyed": model.MoodAngry,
	"excited": model.MoodExcited, "thrilled": model.MoodExcited, "cant wait": model.MoodExcited, "amazing": model.MoodExcited,
	"calm": model.MoodPeaceful, "peaceful": model.MoodPeaceful, "quiet": model.MoodPeaceful, "relaxed": model.MoodPeaceful,
	"anxious": model.MoodAnxious, "worried": model.MoodAnxious, "nervous": model.MoodAnxious, "stress": model.MoodAnxious,
	"love": model.MoodLoved, "loved": model.MoodLoved, "hug": model.MoodLoved,
	"grateful": model.MoodGrateful, "thankful": model.MoodGrateful, "thanks": model.MoodGrateful, "blessed": model.MoodGrateful,
	"tired": model.MoodTired, "exhausted": model.MoodTired, "sleepy": model.MoodTired, "drained": model.MoodTired,
}

// DetectMood scores text against a small lexicon. The mood with the most hits
// wins; earlier hits break ties. Text with no hits is Neutral.
func DetectMood(text string) model.Mood {
	words := tokenize(text)
	scores := map[model.Mood]int{}
	var order []model.Mood
	hit := func(m model.Mood) {
		if scores[m] == 0 {
			order = append(order, m)
		}
		scores[m]++
	}
	for i, w := range words {
		if m, ok := lexicon[w]; ok {
			hit(m)
		}
		if i+1 < len(words) {
			if m, ok := lexicon[w+" "+words[i+1]]; ok {
				hit(m)
			}
		}
	}
	best := model.MoodNeutral
	bestScore := 0
	for _, m := range order {
		if scores[m] > bestScore {
			best, bestScore = m, scores[m]
		}
	}
	return best
}

// Summarize returns the first sentence of text, truncated to maxLen runes.
// Short text (fewer than a dozen words) gets no summary.
func Summarize(text string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultSummaryLen
	}
	text = strings.Join(strings.Fields(text), " ")
	if len(strings.Fields(text)) < minWordsForSummary {
		return ""
	}
	if i := strings.IndexAny(text, ".!?"); i >= 0 {
		text = text[:i+1]
	}
	r := []rune(text)
	if len(r) <= maxLen {
		return text
	}
	cut := string(r[:maxLen])
	if j := strings.LastIndex(cut, " "); j > maxLen/2 {
		cut = cut[:j]
	}
	return strings.TrimRight(cut, " ,;:") + "…"
}

// Annotate derives mood and summary for content. Media is annotated from its description.
func Annotate(c model.Content) (model.Mood, string) {
	var text string
	switch v := c.(type) {
	case model.Text:
		text = v.Body()
	case model.Media:
		text = v.Description()
	}
	return DetectMood(text), Summarize(text, DefaultSummaryLen)
}

func tokenize(text string) []string {
	text = strings.ReplaceAll(strings.ToLower(text), "'", "")
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
