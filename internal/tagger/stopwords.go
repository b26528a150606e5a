package tagger

var defaultStopwords = []string{
	"a", "about", "above", "after", "again", "against", "all", "am", "an", "and", "any", "are", "as", "at",
	"be", "because", "been", "before", "being", "below", "between", "both", "but", "by",
	"can", "cannot", "could", "did", "do", "does", "doing", "down", "during",
	"each", "few", "for", "from", "further", "had", "has", "have", "having", "he", "her", "here", "hers",
	"herself", "him", "himself", "his", "how", "i", "if", "in", "into", "is", "it", "its", "itself",
	"just", "me", "more", "most", "my", "myself", "no", "nor", "not", "now", "of", "off", "on", "once",
	"only", "or", "other", "our", "ours", "ourselves", "out", "over", "own", "same", "she", "should",
	"so", "some", "such", "than", "that", "the", "their", "theirs", "them", "themselves", "then", "there",
	"these", "they", "this", "those", "through", "to", "too", "under", "until", "up", "very",
	"was", "we", "were", "what", "when", "where", "which", "while", "who", "whom", "why", "will", "with",
	"would", "you", "your", "yours", "yourself", "yourselves", "also", "may", "might", "must", "shall",
	"per", "via", "among", "within", "without", "upon", "yet",
}

// tooCommon words are valid tokens but make useless tags.
var tooCommon = []string{
	"news", "said", "says", "say", "new", "year", "years", "time", "times", "people", "like",
	"one", "two", "three", "first", "last", "get", "gets", "make", "makes", "made", "report",
	"reports", "reported", "today", "week", "day", "days", "according", "told", "many", "much",
	"well", "way", "back", "still", "even", "take", "takes", "going", "latest", "update", "breaking",
}
