// Package domain holds the lookup option type and the supported kinds.
package domain

// Option is one value/label pair of a dropdown list.
type Option struct {
	Value int64  `json:"value"`
	Label string `json:"label"`
}

type Kind string

const (
	KindProjects            Kind = "projects"
	KindDivisions           Kind = "divisions"
	KindProducts            Kind = "products"
	KindErrorCategories     Kind = "errorCategories"
	KindErrorSubCategories  Kind = "errorSubCategories"
	KindDrawingDescriptions Kind = "drawingDescriptions"
	KindResources           Kind = "resources"
	KindResourceRoles       Kind = "resourceRoles"
)

// Kinds lists every supported kind in warm-up order.
var Kinds = []Kind{
	KindProjects,
	KindDivisions,
	KindProducts,
	KindErrorCategories,
	KindErrorSubCategories,
	KindDrawingDescriptions,
	KindResources,
	KindResourceRoles,
}

// ParseKind matches s against the supported kinds.
func ParseKind(s string) (Kind, bool) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// HasParent reports whether the kind can be narrowed by a parent id.
func (k Kind) HasParent() bool {
	switch k {
	case KindProducts, KindErrorSubCategories, KindDrawingDescriptions, KindResources:
		return true
	}
	return false
}
