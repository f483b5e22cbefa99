// Package traits defines entity capabilities and diets.
package traits

import "strings"

// Trait is a capability flag. Behaviour is dispatched on the set an entity
// carries rather than on its concrete kind.
type Trait uint32

const (
	Consumable Trait = 1 << iota // Can be eaten; has a finite food quantity
	Mobile                       // Moves over the grid and runs the decision loop
	Hungry                       // Accumulates hunger and seeks food
	Thirsty                      // Accumulates thirst and seeks water

	// Sex (for mate sensing)
	Male
	Female
)

// Plant is the trait set of a stationary food source.
const Plant = Consumable

// Animal is the trait set of a grazing animal.
const Animal = Mobile | Hungry | Thirsty

// Has checks if a trait set contains a trait.
func (t Trait) Has(other Trait) bool {
	return t&other != 0
}

// Add adds a trait to the set.
func (t Trait) Add(other Trait) Trait {
	return t | other
}

// Remove removes a trait from the set.
func (t Trait) Remove(other Trait) Trait {
	return t &^ other
}

// IsMobile checks if traits indicate an agent that moves and decides.
func IsMobile(t Trait) bool {
	return t.Has(Mobile)
}

// OppositeSex reports whether a and b carry different sex flags.
func OppositeSex(a, b Trait) bool {
	return a.Has(Male) != b.Has(Male)
}

// TraitNames returns human-readable names for traits.
func TraitNames(t Trait) []string {
	var names []string
	if t.Has(Consumable) {
		names = append(names, "Consumable")
	}
	if t.Has(Mobile) {
		names = append(names, "Mobile")
	}
	if t.Has(Hungry) {
		names = append(names, "Hungry")
	}
	if t.Has(Thirsty) {
		names = append(names, "Thirsty")
	}
	if t.Has(Male) {
		names = append(names, "Male")
	}
	if t.Has(Female) {
		names = append(names, "Female")
	}
	return names
}

// String joins the trait names with "|".
func (t Trait) String() string {
	return strings.Join(TraitNames(t), "|")
}

// Species is an index into the configured species list.
type Species uint8

// MaxSpecies is the number of species a Diet mask can address.
const MaxSpecies = 32

// Diet is a bitmask over species indices.
type Diet uint32

// DietOf builds a diet from species indices.
func DietOf(species ...Species) Diet {
	var d Diet
	for _, s := range species {
		d |= 1 << s
	}
	return d
}

// Eats checks if the diet includes a species.
func (d Diet) Eats(s Species) bool {
	return d&(1<<s) != 0
}

// Species returns the species in the diet in ascending index order.
func (d Diet) Species() []Species {
	var out []Species
	for s := Species(0); s < MaxSpecies; s++ {
		if d.Eats(s) {
			out = append(out, s)
		}
	}
	return out
}
