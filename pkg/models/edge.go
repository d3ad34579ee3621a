package models

// Edge is a directed connection between two nodes. Port optionally names the
// output port of From that the edge is attached to; switch nodes route by
// matching the evaluated target against it. An empty port is an unported edge.
type Edge struct {
	From NodeID `json:"from" validate:"required"`
	To   NodeID `json:"to"   validate:"required"`
	Port string `json:"port,omitempty"`
}

// CacheSlot is a named indirection point used to splice two graph fragments at
// compile time without a direct edge. Slots exist only in the definition layer
// and are resolved away during compilation; names match by exact string
// equality. Priority orders multiple producers of the same slot.
type CacheSlot struct {
	Slot     string  `json:"slot"               validate:"required"`
	Priority *uint32 `json:"priority,omitempty"`
}
