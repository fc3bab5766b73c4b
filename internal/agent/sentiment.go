package agent

import "strings"

var (
	positiveWords = []string{"thank", "great", "wonderful", "excellent", "love", "happy", "good"}
	negativeWords = []string{"bad", "terrible", "awful", "hate", "sad", "angry", "frustrated"}
)

// detectSentiment 用词袋法粗略判断输入的情感倾向，仅用于分析事件标注。
func detectSentiment(input string) string {
	in := strings.ToLower(input)

	positive := 0
	for _, w := range positiveWords {
		if strings.Contains(in, w) {
			positive++
		}
	}
	negative := 0
	for _, w := range negativeWords {
		if strings.Contains(in, w) {
			negative++
		}
	}

	if positive > negative {
		return "positive"
	}
	if negative > positive {
		return "negative"
	}
	return "neutral"
}
