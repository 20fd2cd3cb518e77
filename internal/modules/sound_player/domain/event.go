package domain

// Event is the payload delivered to subscribers.
type Event struct {
	Category EventCategory
	Success  bool

	// Set for file loading events
	Name string
	Type string

	// Set for URL loading events
	URL string
}

// NewEvent creates an Event carrying only the success flag.
func NewEvent(category EventCategory, success bool) Event {
	return Event{
		Category: category,
		Success:  success,
	}
}
