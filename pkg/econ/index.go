package econ

// DescriptionIndex maps (classid, instanceid) to a description. It is filled
// lazily from page description lists and lives for one fetch.
//
// A DescriptionIndex is not safe for concurrent use; each fetch owns one.
type DescriptionIndex struct {
	byKey map[string]*RawDescription
}

// NewDescriptionIndex returns an empty index.
func NewDescriptionIndex() *DescriptionIndex {
	return &DescriptionIndex{byKey: make(map[string]*RawDescription)}
}

// DescriptionKey builds the index key for a class/instance pair.
func DescriptionKey(classID, instanceID string) string {
	if instanceID == "" {
		instanceID = "0"
	}
	return classID + "_" + instanceID
}

// Resolve returns the description for (classID, instanceID). On a miss the
// whole descriptions list is absorbed (last write wins per key) before the
// lookup is retried. Returns nil when no description matches.
func (x *DescriptionIndex) Resolve(descriptions []RawDescription, classID, instanceID string) *RawDescription {
	key := DescriptionKey(classID, instanceID)
	if d, ok := x.byKey[key]; ok {
		return d
	}
	x.absorb(descriptions)
	return x.byKey[key]
}

func (x *DescriptionIndex) absorb(descriptions []RawDescription) {
	for i := range descriptions {
		d := &descriptions[i]
		x.byKey[DescriptionKey(d.ClassID.String(), d.InstanceID.String())] = d
	}
}

// Len returns the number of indexed descriptions.
func (x *DescriptionIndex) Len() int {
	return len(x.byKey)
}
