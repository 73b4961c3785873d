package types

import (
	"fmt"
	"strings"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/teris-io/shortid"
)

// GenerateUUID returns a k-sortable unique identifier
func GenerateUUID() string {
	return ulid.Make().String()
}

// GenerateUUIDWithPrefix returns a k-sortable unique identifier
// with a prefix ex run_0ujsswThIGTUYm2K8FjOOfXtY1K
func GenerateUUIDWithPrefix(prefix string) string {
	if prefix == "" {
		return GenerateUUID()
	}
	return fmt.Sprintf("%s_%s", prefix, GenerateUUID())
}

var (
	sidGenerator *shortid.Shortid
	once         sync.Once
)

func initializeSID() {
	var err error
	sidGenerator, err = shortid.New(1, shortid.DefaultABC, 2342)
	if err != nil {
		panic("failed to initialize shortid generator: " + err.Error())
	}
}

// GenerateCorrelationID returns a short identifier used to correlate one
// trigger request with everything the run logs, e.g. `corr-xYZ12A8Q`.
func GenerateCorrelationID() string {
	once.Do(initializeSID)

	id, err := sidGenerator.Generate()
	if err != nil {
		return GenerateUUID()
	}
	id = strings.ReplaceAll(id, "-", "")
	return fmt.Sprintf("corr-%s", id)
}

const (
	// Prefixes for all domains and entities

	UUID_PREFIX_BILLING_RUN = "run"
	UUID_PREFIX_DEAD_LETTER = "dlq"
)
