package match

const (
	// EngineVersion identifies the matching semantics implemented by this package.
	EngineVersion = "v1.0.0"

	// defaultSlabSize is the number of Order slots carved out of a single
	// allocator slab when no WithSlabSize option is given.
	defaultSlabSize int32 = 4096
)
