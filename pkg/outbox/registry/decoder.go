package registry

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/reclaimtech/buyback-backend/pkg/enums"
)

type decoderFunc func(payload json.RawMessage) (interface{}, error)

// DecoderRegistry maps (event type, payload version) pairs to decoder
// functions so consumers can reject events they were not built for instead
// of misreading them.
type DecoderRegistry struct {
	mtx      sync.RWMutex
	decoders map[decoderKey]decoderFunc
}

type decoderKey struct {
	eventType enums.OutboxEventType
	version   int
}

// NewDecoderRegistry builds an empty registry.
func NewDecoderRegistry() *DecoderRegistry {
	return &DecoderRegistry{decoders: make(map[decoderKey]decoderFunc)}
}

// Register installs a decoder for the event type at the given payload
// version. A later Register for the same pair replaces the earlier one.
func (r *DecoderRegistry) Register(eventType enums.OutboxEventType, version int, decoder decoderFunc) {
	r.mtx.Lock()
	r.decoders[decoderKey{eventType: eventType, version: version}] = decoder
	r.mtx.Unlock()
}

// Decode applies the registered decoder to the raw payload. Unknown
// (type, version) pairs are an error so callers can route the event to a
// dead letter instead of dropping it silently.
func (r *DecoderRegistry) Decode(eventType enums.OutboxEventType, version int, payload json.RawMessage) (interface{}, error) {
	r.mtx.RLock()
	decoder, ok := r.decoders[decoderKey{eventType: eventType, version: version}]
	r.mtx.RUnlock()
	if !ok {
		return nil, fmt.Errorf("decoder not registered for %s@v%d", eventType, version)
	}
	return decoder(payload)
}
