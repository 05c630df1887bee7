package account

import "fmt"

// Status is the lifecycle phase of an account
type Status int

// Account statuses. Enabled is the zero value.
const (
	Enabled Status = iota
	Disabled
	Closed
)

var statusNames = map[Status]string{
	Enabled:  "enabled",
	Disabled: "disabled",
	Closed:   "closed",
}

// String implements fmt.Stringer
func (s Status) String() string {
	if n, ok := statusNames[s]; ok {
		return n
	}

	return fmt.Sprintf("status(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler
func (s Status) MarshalText() ([]byte, error) {
	n, ok := statusNames[s]
	if !ok {
		return nil, fmt.Errorf("unknown account status %d", int(s))
	}

	return []byte(n), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (s *Status) UnmarshalText(text []byte) error {
	for st, n := range statusNames {
		if n == string(text) {
			*s = st

			return nil
		}
	}

	return fmt.Errorf("unknown account status %q", text)
}
