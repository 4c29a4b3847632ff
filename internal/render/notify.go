package render

import (
	"errors"
	"fmt"
	"io"

	"github.com/pgschema/supaextract/internal/color"
)

// Level selects how a notification is highlighted.
type Level int

const (
	LevelSuccess Level = iota
	LevelError
	LevelWarning
)

// Notification is a short {title, message} pair shown after an action.
type Notification struct {
	Title   string
	Message string
	Level   Level
}

// Notifications shown on success.
var (
	ExtractSuccess = Notification{Title: "Success", Message: "Successfully extracted database information"}
	SetupSuccess   = Notification{Title: "Setup complete", Message: "Successfully installed the extractor functions"}
)

// Warning builds a warning notification.
func Warning(title, message string) Notification {
	return Notification{Title: title, Message: message, Level: LevelWarning}
}

// Notifier is implemented by errors that carry their own notification.
type Notifier interface {
	Title() string
	Message() string
}

// FromError builds a notification for err.
func FromError(err error) Notification {
	var n Notifier
	if errors.As(err, &n) {
		return Notification{Title: n.Title(), Message: n.Message(), Level: LevelError}
	}
	return Notification{Title: "Error", Message: err.Error(), Level: LevelError}
}

// Notify prints n as "Title: Message". The title is coloured by level when
// c is enabled; c may be nil.
func Notify(w io.Writer, n Notification, c *color.Color) {
	title := n.Title
	switch n.Level {
	case LevelSuccess:
		title = c.Success(title)
	case LevelError:
		title = c.Failure(title)
	case LevelWarning:
		title = c.Warning(title)
	}
	_, _ = fmt.Fprintf(w, "%s: %s\n", title, n.Message)
}
