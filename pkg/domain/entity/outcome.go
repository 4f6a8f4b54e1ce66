package entity

// Outcome is the result of one stage: either Ok with a value or NotOk
type Outcome[T any] struct {
	value T
	ok    bool
}

// Ok wraps a successful stage value
func Ok[T any](value T) Outcome[T] {
	return Outcome[T]{value: value, ok: true}
}

// NotOk is the uniform negative stage result
func NotOk[T any]() Outcome[T] {
	return Outcome[T]{}
}

// Get returns the value and whether the stage succeeded
func (o Outcome[T]) Get() (T, bool) {
	return o.value, o.ok
}

// IsOk reports whether the stage succeeded
func (o Outcome[T]) IsOk() bool {
	return o.ok
}

// Resolution is the value of a successful Resolve stage
type Resolution struct {
	IPs []string
}

// Reachability is the value of a successful Probe stage
type Reachability struct {
	FinalURL   string
	StatusCode int
	UsedHTTPS  bool
}

// Text is the value of a successful Extract stage
type Text struct {
	Body string
}
