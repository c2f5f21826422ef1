package textproc

import "strings"

// stopWords is the English stop-word list applied when extracting keyphrase
// candidates and fitting term-frequency models.
var stopWords = map[string]struct{}{}

// contentStopWords is the fixed function-word set used for the
// content-word ratio statistic.
var contentStopWords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`
		a about above after again against all am an and any are aren't as at
		be because been before being below between both but by can't cannot
		could couldn't did didn't do does doesn't doing don't down during
		each few for from further had hadn't has hasn't have haven't having
		he her here hers herself him himself his how i i'm i've if in into
		is isn't it it's its itself let's me more most mustn't my myself no
		nor not of off on once only or other ought our ours ourselves out
		over own same shan't she should shouldn't so some such than that
		the their theirs them themselves then there these they this those
		through to too under until up very was wasn't we were weren't what
		when where which while who whom why with won't would wouldn't you
		your yours yourself yourselves`) {
		stopWords[w] = struct{}{}
	}
	for _, w := range strings.Fields(`
		the a an and or but in on at to for of with by from as is was are
		were been be have has had do does did will would`) {
		contentStopWords[w] = struct{}{}
	}
}

// IsStopWord reports whether the token is in the English stop-word list.
func IsStopWord(token string) bool {
	_, ok := stopWords[strings.ToLower(token)]
	return ok
}

// IsContentStopWord reports whether the token is in the fixed function-word
// set used for the content-word ratio.
func IsContentStopWord(token string) bool {
	_, ok := contentStopWords[strings.ToLower(token)]
	return ok
}

// ContainsStopWord reports whether any token of the space-joined phrase is
// a stop word.
func ContainsStopWord(phrase string) bool {
	for _, token := range strings.Fields(phrase) {
		if IsStopWord(token) {
			return true
		}
	}
	return false
}
