package article

// View is the render-ready form of an Article handed to the presentation
// layer.
type View struct {
	Title         string   `json:"title"`
	Source        string   `json:"source"`
	Topic         Topic    `json:"topic"`
	TopicName     string   `json:"topic_name"`
	PublishedDate string   `json:"published_date,omitempty"`
	ImageURL      string   `json:"image_url,omitempty"`
	Authors       []string `json:"authors,omitempty"`
	Body          string   `json:"body"`
	URL           string   `json:"url"`
}

// TopicNamer resolves a topic key to its human-readable display name.
type TopicNamer interface {
	DisplayName(topic Topic) string
}

// NewView builds the render-ready fields for a. When names is nil, or has no
// display name for the article's topic, the topic key is used instead.
func NewView(a *Article, names TopicNamer) View {
	topicName := string(a.Topic)
	if names != nil {
		if name := names.DisplayName(a.Topic); name != "" {
			topicName = name
		}
	}

	return View{
		Title:         a.Title,
		Source:        a.Source,
		Topic:         a.Topic,
		TopicName:     topicName,
		PublishedDate: a.PublishedDate,
		ImageURL:      a.ImageURL,
		Authors:       a.Authors,
		Body:          a.Body(),
		URL:           a.URL,
	}
}
