package http

import (
	"net/http"

	"golang.org/x/text/language"
)

type answerText struct {
	Lang string
	Yes  string
	No   string
}

var (
	answerLanguages = []language.Tag{language.English, language.SimplifiedChinese}
	answerMatcher   = language.NewMatcher(answerLanguages)
	answerSets      = []answerText{
		{Lang: "en", Yes: "Yes", No: "No"},
		{Lang: "zh-Hans", Yes: "是", No: "否"},
	}
)

// answersFor picks the Yes/No wording from Accept-Language, falling back to
// English.
func answersFor(r *http.Request) answerText {
	tags, _, err := language.ParseAcceptLanguage(r.Header.Get("Accept-Language"))
	if err != nil || len(tags) == 0 {
		return answerSets[0]
	}
	_, idx, confidence := answerMatcher.Match(tags...)
	if confidence == language.No {
		return answerSets[0]
	}
	return answerSets[idx]
}

func (a answerText) display(positive bool) string {
	if positive {
		return a.Yes
	}
	return a.No
}
