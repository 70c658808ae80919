package substrate

// Group is a named namespace nesting indexes and sub-groups. It has no
// runtime state: it only builds addresses, which the view layer resolves
// to disjoint physical prefixes.
type Group struct {
	ax   Access
	base Address
}

// NewGroup opens a group at the given base address.
func NewGroup(ax Access, base Address) Group {
	return Group{ax: ax, base: base}
}

// Base returns the group's own address.
func (g Group) Base() Address {
	return g.base
}

// Addr returns the address of a member index.
func (g Group) Addr(segment string) Address {
	return g.base.Child(segment)
}

// Group returns a nested sub-group.
func (g Group) Group(segment string) Group {
	return Group{ax: g.ax, base: g.base.Child(segment)}
}

// Access returns the access the group was opened on.
func (g Group) Access() Access {
	return g.ax
}
