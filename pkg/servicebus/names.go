package servicebus

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// MaxSubscriptionNameLength is the backend's hard ceiling for subscription names.
const MaxSubscriptionNameLength = 50

// ErrNameTooLong is returned when a derived subscription name exceeds
// MaxSubscriptionNameLength. It indicates a configuration problem and is never retried.
var ErrNameTooLong = errors.New("servicebus: derived entity name exceeds length limit")

// CleanseName replaces every character the backend does not allow in an entity
// segment with an underscore. Allowed: letters, digits, period, hyphen, underscore.
func CleanseName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		}
		return '_'
	}, name)
}

// Namer derives physical entity names from logical names.
// It is a value type; the same Namer always produces the same names.
type Namer struct {
	MasterPrefix           string
	SubscriptionNamePrefix string
}

func (n Namer) prefix() string {
	if n.MasterPrefix == "" {
		return ""
	}
	return n.MasterPrefix + "."
}

// QueueName returns the physical queue name for a logical name.
func (n Namer) QueueName(name string) string {
	return "q." + n.prefix() + CleanseName(name)
}

// TopicName returns the physical topic name for a logical name.
func (n Namer) TopicName(name string) string {
	return "t." + n.prefix() + CleanseName(name)
}

// SubscriptionName returns the physical subscription name for a logical name.
// The cleansed logical name is hashed so that long type names still fit
// within MaxSubscriptionNameLength.
func (n Namer) SubscriptionName(name string) (string, error) {
	subName := fmt.Sprintf("s.%s%s.%s", n.prefix(), n.SubscriptionNamePrefix, nameHash(CleanseName(name)))
	if len(subName) > MaxSubscriptionNameLength {
		return "", fmt.Errorf("%w: subscription name '%s' is %d characters, limit is %d",
			ErrNameTooLong, subName, len(subName), MaxSubscriptionNameLength)
	}
	return subName, nil
}

// nameHash is stable across processes and platforms.
func nameHash(s string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(s))
}
