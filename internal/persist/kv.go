package persist

// KV is a single-namespace key-value store holding raw values.
//
// Get reports ok=false with a nil error when the key is absent.
type KV interface {
	Get(key string) (value []byte, ok bool, err error)
	Set(key string, value []byte) error
	Delete(key string) error
}
