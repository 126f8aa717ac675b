package clean

// Reserved names the entity model compares against.
const (
	kwSelfLower = "self"
	kwSelfUpper = "Self"
)
