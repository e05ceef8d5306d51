package db

import "errors"

var (
	// ErrKeyNotFound is returned when a hash or string key does not exist.
	ErrKeyNotFound = errors.New("db: key not found")
	// ErrIndexNotFound is returned by index operations on a missing index.
	ErrIndexNotFound = errors.New("db: index not found")
	// ErrIndexExists is returned when creating an index that already exists.
	ErrIndexExists = errors.New("db: index already exists")
	// ErrNotReady is returned when the store did not answer PING in time.
	ErrNotReady = errors.New("db: store not ready")
)

// Command names recorded on Error.
const (
	OpPing        = "PING"
	OpCreateIndex = "FT.CREATE"
	OpDropIndex   = "FT.DROPINDEX"
	OpIndexInfo   = "FT.INFO"
	OpSearch      = "FT.SEARCH"
	OpDel         = "DEL"
	OpHGetAll     = "HGETALL"
	OpHMGet       = "HMGET"
	OpHSet        = "HSET"
	OpExists      = "EXISTS"
	OpScan        = "SCAN"
	OpGet         = "GET"
	OpIncrBy      = "INCRBY"
	OpExpire      = "EXPIRE"
)

// Error is a failed store command. Key is empty for keyless commands.
type Error struct {
	Op  string
	Key string
	Err error
}

// NewError wraps err for command op on key.
func NewError(op, key string, err error) *Error {
	return &Error{Op: op, Key: key, Err: err}
}

func (e *Error) Error() string {
	if e.Key == "" {
		return e.Op + ": " + e.Err.Error()
	}
	return e.Op + " " + e.Key + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// IsCommandError reports whether err came from a store command rather than a
// not-found style sentinel.
func IsCommandError(err error) bool {
	var e *Error
	return errors.As(err, &e)
}
