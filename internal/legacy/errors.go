package legacy

import "fmt"

// MalformedRecordError describes one persisted record that failed structural
// validation and was dropped during normalisation.
type MalformedRecordError struct {
	Collection string
	Key        string
	Reason     string
}

func (e *MalformedRecordError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("legacy: malformed %s: %s", e.Collection, e.Reason)
	}
	return fmt.Sprintf("legacy: malformed %s record %q: %s", e.Collection, e.Key, e.Reason)
}

func malformed(collection, key, format string, args ...any) *MalformedRecordError {
	return &MalformedRecordError{Collection: collection, Key: key, Reason: fmt.Sprintf(format, args...)}
}
