package policy

import "strings"

// Key identifies an operation for configuration lookup, logs, metrics and traces.
type Key struct {
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty"`
	Name      string `json:"name" yaml:"name"`
}

// ParseKey parses "namespace.name" into a Key. Input without a dot, or with
// an empty side, is treated as a bare name.
func ParseKey(s string) Key {
	s = strings.TrimSpace(s)
	if s == "" {
		return Key{}
	}
	ns, name, ok := strings.Cut(s, ".")
	if !ok {
		return Key{Name: s}
	}
	ns = strings.TrimSpace(ns)
	name = strings.TrimSpace(name)
	if ns == "" {
		return Key{Name: name}
	}
	if name == "" {
		return Key{Name: s}
	}
	return Key{Namespace: ns, Name: name}
}

func (k Key) String() string {
	switch {
	case k.Namespace == "":
		return k.Name
	case k.Name == "":
		return k.Namespace
	default:
		return k.Namespace + "." + k.Name
	}
}
