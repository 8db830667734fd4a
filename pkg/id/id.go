package id

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"io"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ClientOrderPrefix marks orders this bot submitted. Binance limits
// newClientOrderId to 36 characters; prefix plus ULID is 29.
const ClientOrderPrefix = "st-"

var (
	mu   sync.Mutex
	mono io.Reader
)

func init() {
	var seed int64
	_ = binary.Read(cryptoRand.Reader, binary.LittleEndian, &seed)
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	// Monotonic keeps IDs minted in the same millisecond sortable.
	mono = ulid.Monotonic(rand.New(rand.NewSource(seed)), 0)
}

// New returns a ULID string stamped with the current wall clock.
func New() string {
	return At(time.Now())
}

// At returns a ULID stamped with t. Journal events use the session clock
// here so IDs sort the same way as the event timestamps, fake clocks included.
func At(t time.Time) string {
	mu.Lock()
	defer mu.Unlock()

	id, err := ulid.New(ulid.Timestamp(t.UTC()), mono)
	if err != nil {
		// Only fails when t is before the previous ID in the same millisecond
		// window or entropy is exhausted; fall back to a fresh reader.
		id = ulid.MustNew(ulid.Timestamp(t.UTC()), cryptoRand.Reader)
	}
	return id.String()
}

// ClientOrderID returns an identifier suitable for an exchange client order id.
func ClientOrderID() string {
	return ClientOrderPrefix + New()
}

// IsClientOrderID reports whether s was produced by ClientOrderID.
func IsClientOrderID(s string) bool {
	if !strings.HasPrefix(s, ClientOrderPrefix) {
		return false
	}
	_, err := ulid.ParseStrict(strings.TrimPrefix(s, ClientOrderPrefix))
	return err == nil
}
