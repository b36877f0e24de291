package types

// JSONMap holds arbitrary per-key JSON payloads, persisted as jsonb.
type JSONMap map[string]any
