package domain

import (
	"context"
)

// SessionClient manages a bearer session against the Share API. The server
// owns token validity; the client only learns about expiry through fetch
// failures.
type SessionClient interface {
	Login(ctx context.Context) (string, error)
	FetchReadings(ctx context.Context, session string) ([]Reading, error)
}

// Sender is the opaque "send to watch" primitive. Delivery mechanics and
// acknowledgements live outside the core; a failed send is logged and
// otherwise ignored.
type Sender interface {
	Send(ctx context.Context, update Update) error
}

// ReadingArchive persists fetched readings beyond the wire window.
// Implementations must tolerate duplicate timestamps across fetches.
type ReadingArchive interface {
	SaveReadings(ctx context.Context, readings []Reading) error
}
