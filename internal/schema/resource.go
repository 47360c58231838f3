package schema

// Resource is the accessor contract the serializer depends on. Domain
// entities implement it instead of being reflected over: the serializer
// asks for attribute values by field name and only for fields it has
// decided to emit, so conditional or expensive attributes are computed
// lazily.
type Resource interface {
	// ResourceType returns the resource type name (e.g. "posts").
	ResourceType() string

	// ResourceID returns the resource id as a string.
	ResourceID() string

	// Attribute returns the value of the named attribute. The second
	// return value is false when the entity does not carry the field.
	Attribute(name string) (interface{}, bool)
}

// ToOneRef is implemented by resources that expose their to-one foreign
// keys, letting the serializer emit to-one linkage without a relationship
// load. The returned id is empty when the relationship is unset.
type ToOneRef interface {
	RelatedID(relationship string) (id string, ok bool)
}
