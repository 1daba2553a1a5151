package encoding

// Serializable is implemented by wire payloads that encode themselves.
type Serializable[T any] interface {
	Serialize() ([]byte, error)
	Deserialize([]byte) error
}
