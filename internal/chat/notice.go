package chat

// Kind classifies the user-facing notices
type Kind int

const (
	KindMissingCredential Kind = iota + 1
	KindInvalidCredential
	KindUnsupportedAttachment
)

// Notice is a transient, user-facing rejection. It leaves the conversation
// unchanged.
type Notice struct {
	Kind   Kind
	Title  string
	Detail string
}

func (n *Notice) Error() string {
	return n.Title + ": " + n.Detail
}

// Is matches notices by kind so errors.Is works against the sentinels
func (n *Notice) Is(target error) bool {
	t, ok := target.(*Notice)
	return ok && t.Kind == n.Kind
}

var (
	ErrMissingCredential = &Notice{
		Kind:   KindMissingCredential,
		Title:  "API Key Required",
		Detail: "Please set your Gemini API key to start chatting.",
	}
	ErrInvalidCredential = &Notice{
		Kind:   KindInvalidCredential,
		Title:  "Invalid API Key",
		Detail: "Please enter a valid API key.",
	}
	ErrUnsupportedAttachment = &Notice{
		Kind:   KindUnsupportedAttachment,
		Title:  "Invalid File Type",
		Detail: "Only image files are supported",
	}
)
