// Package naming defines how simulated elements are named.
package naming

import (
	"strconv"
	"strings"
)

// Named describes an object that has a name.
type Named interface {
	// Name returns the name of the object.
	Name() string
}

// NamedBase is a base implementation of Named.
type NamedBase struct {
	name string
}

// Name returns the name of the object.
func (b *NamedBase) Name() string {
	return b.name
}

// MakeNamedBase creates a new NamedBase. It panics if the name is not valid.
func MakeNamedBase(name string) NamedBase {
	NameMustBeValid(name)

	return NamedBase{name: name}
}

// NameMustBeValid panics if the name does not follow the naming convention.
// A name is a series of dot-separated elements, such as "Cache[0].L1". Each
// element starts with a capital letter, must not be empty, and may carry
// integer indices in square brackets.
func NameMustBeValid(name string) {
	for _, elem := range strings.Split(name, ".") {
		if err := elementError(elem); err != "" {
			panic("Name " + name + " is not valid: " + err)
		}
	}
}

func elementError(elem string) string {
	base, indices, _ := strings.Cut(elem, "[")

	if base == "" {
		return "name element must not be empty"
	}

	if base[0] < 'A' || base[0] > 'Z' {
		return "name element must start with a capital letter"
	}

	if strings.ContainsAny(base, "_\"'-]") {
		return "name element must not contain " + `_ " ' - ]`
	}

	if indices == "" {
		return ""
	}

	for _, index := range strings.Split(indices, "[") {
		number, found := strings.CutSuffix(index, "]")
		if !found {
			return "name bracket must match"
		}

		if _, err := strconv.Atoi(number); err != nil {
			return "name index must be integer"
		}
	}

	return ""
}

// BuildName builds a name from a parent name and an element name.
func BuildName(parentName, elementName string) string {
	if parentName == "" {
		return elementName
	}

	return parentName + "." + elementName
}

// BuildNameWithIndex builds a name from a parent name, an element name and
// an index.
func BuildNameWithIndex(parentName, elementName string, index int) string {
	return BuildName(parentName, elementName+"["+strconv.Itoa(index)+"]")
}
