// package shared defines shared helpers: configuration, database access, migrations, logging and errors.
package shared

import (
	"crypto/rand"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// userCodeAlphabet omits characters that are easy to misread (0/O, 1/I/L).
const userCodeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// UserCodeLength is the length of the public user code.
const UserCodeLength = 8

// NewLogger creates a new [log.Logger] instance with the specified [io.Writer], with timestamps and caller reporting enabled.
//
// The writer defaults to [os.Stderr]
func NewLogger(w io.Writer) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := log.Options{ReportTimestamp: true, ReportCaller: true}
	return log.NewWithOptions(w, opts)
}

// WithLogger creates a child [log.Logger] with the specified key-value pairs added to all log entries.
func WithLogger(l *log.Logger, kv ...any) *log.Logger {
	return l.With(kv...)
}

// SetLogLevel sets the [log.Level] for the given [log.Logger].
func SetLogLevel(l *log.Logger, ll log.Level) {
	l.SetLevel(ll)
}

// GenerateID generates a new v4 [uuid.UUID] as a string
func GenerateID() string {
	return uuid.New().String()
}

// GenerateUserCode returns a random public user code such as "K7QX2MPA".
func GenerateUserCode() string {
	buf := make([]byte, UserCodeLength)
	if _, err := rand.Read(buf); err != nil {
		id := uuid.New()
		copy(buf, id[:])
	}

	code := make([]byte, UserCodeLength)
	for i, b := range buf {
		code[i] = userCodeAlphabet[int(b)%len(userCodeAlphabet)]
	}
	return string(code)
}

// IsUserCode reports whether s has the shape of a public user code.
func IsUserCode(s string) bool {
	if len(s) != UserCodeLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		if strings.IndexByte(userCodeAlphabet, s[i]) < 0 {
			return false
		}
	}
	return true
}
