package types

// AnalysisResult is the output of analyzing a single message. Sentiment is
// always within [-1,1]; empty input yields the zero value.
type AnalysisResult struct {
	Sentiment   float64  `json:"sentiment"`
	Topics      []string `json:"topics"`
	Expressions []string `json:"expressions"`
	WordCount   int      `json:"word_count"`
	CharCount   int      `json:"char_count"`
}

// ChannelMessage is one message of a channel batch, carrying enough identity
// for per-user aggregation.
type ChannelMessage struct {
	UserID  string `json:"user_id"`
	Content string `json:"content"`
}

// UserPattern is the aggregate of a batch of one user's messages.
type UserPattern struct {
	AverageSentiment float64  `json:"average_sentiment"`
	TopTopics        []string `json:"top_topics"`
	TopExpressions   []string `json:"top_expressions"`
	AverageWordCount float64  `json:"average_word_count"`
	AverageCharCount float64  `json:"average_char_count"`
	MessageCount     int      `json:"message_count"`
}

// ChannelPattern is the aggregate of a batch of channel messages.
type ChannelPattern struct {
	AverageSentiment float64  `json:"average_sentiment"`
	PredominantTone  string   `json:"predominant_tone"`
	TopTopics        []string `json:"top_topics"`
	TopUsers         []string `json:"top_users"`
	AverageWordCount float64  `json:"average_word_count"`
	AverageCharCount float64  `json:"average_char_count"`
	MessageCount     int      `json:"message_count"`
	UserCount        int      `json:"user_count"`
}
