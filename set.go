package carpet

import "reflect"

// Set is a marker interface a named map[K]struct{}-shaped type can
// implement to opt a struct field into the SET logical type instead of
// MAP, mirroring the teacher's deprecated.MapGroup generic
// marker-interface trick in deprecated/map.go (there used to flag "this
// map[K]V should shred as a repeated group", here used to flag "this
// map-shaped Go value should shred as a LIST of its keys").
//
// Example:
//
//	type Tags map[string]struct{}
//	func (Tags) IsSet() {}
//
//	type Record struct {
//		Tags Tags `carpet:"tags"`
//	}
type Set[K comparable] interface {
	IsSet()
}

// setMarker is the non-generic half of Set[K] that reflectmodel.go can
// actually probe with reflect.Type.Implements, since a generic
// interface has no single reflect.Type to implement against.
type setMarker interface {
	IsSet()
}

var setMarkerType = reflect.TypeOf((*setMarker)(nil)).Elem()

// isSetType reports whether t (expected to be a map Kind) implements
// the Set marker, opting it into SET instead of MAP.
func isSetType(t reflect.Type) bool {
	return t.Implements(setMarkerType) || reflect.PointerTo(t).Implements(setMarkerType)
}
