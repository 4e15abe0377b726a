package inject

import "reflect"

// Key identifies a registration: the contract type plus an optional tag.
// Untagged registrations use an empty Tag; tagged registrations live in a
// separate namespace, so Key{T, ""} in one never collides with the other.
type Key struct {
	Type reflect.Type
	Tag  string
}

// KeyOf returns the untagged key for contract type T.
func KeyOf[T any]() Key {
	return Key{Type: reflect.TypeOf((*T)(nil)).Elem()}
}

// TaggedKeyOf returns the key for contract type T under tag.
func TaggedKeyOf[T any](tag string) Key {
	return Key{Type: reflect.TypeOf((*T)(nil)).Elem(), Tag: tag}
}

// IsZero reports whether k names no type.
func (k Key) IsZero() bool {
	return k.Type == nil && k.Tag == ""
}

// String returns the type name, with "#tag" appended for tagged keys.
func (k Key) String() string {
	if k.Type == nil {
		if k.Tag != "" {
			return "#" + k.Tag
		}
		return "<none>"
	}
	if k.Tag != "" {
		return k.Type.String() + "#" + k.Tag
	}
	return k.Type.String()
}
