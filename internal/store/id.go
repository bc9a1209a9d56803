package store

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

const idMaxAttempts = 20

// GenerateXID returns a new asset identifier. XIDs are ULIDs, so they sort by
// creation time. It retries on collisions using the provided exists function.
func GenerateXID(now time.Time, exists func(string) (bool, error)) (string, error) {
	for i := 0; i < idMaxAttempts; i++ {
		id, err := ulid.New(ulid.Timestamp(now), rand.Reader)
		if err != nil {
			return "", err
		}
		xid := id.String()
		if exists == nil {
			return xid, nil
		}
		ok, err := exists(xid)
		if err != nil {
			return "", err
		}
		if !ok {
			return xid, nil
		}
	}

	return "", fmt.Errorf("unable to generate unique xid")
}

// ValidXID reports whether s parses as an asset identifier.
func ValidXID(s string) bool {
	_, err := ulid.ParseStrict(s)
	return err == nil
}
