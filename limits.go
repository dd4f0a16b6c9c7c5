package vault

// Size and depth ceilings. These mirror the limits the tree engine was
// designed against; raising them is safe but changes the capacity
// behavior every test in this module assumes.
const (
	maxValueNameSize = 255
	maxStrValueSize  = 255
	maxBinValueSize  = 255

	maxSubnodes = 10
	maxValues   = 10
	maxSubviews = 10

	volumeMaxDepth = 5
	vaultMaxDepth  = 7

	maxPathBytes    = 1024
	maxPathSegments = 32

	stripedMapBuckets = 13
)

// Priority is the byte attached to a volume; within a node view, the
// observed node with the highest priority wins name collisions.
type Priority = uint8

// Priority-class presets, carried unchanged from the source's
// priority_class enum.
const (
	PriorityLowest      Priority = 0
	PriorityLow         Priority = 25
	PriorityBelowMedium Priority = 50
	PriorityMedium      Priority = 100
	PriorityAboveMedium Priority = 150
	PriorityHigh        Priority = 200
	PriorityHighest     Priority = 255
)
