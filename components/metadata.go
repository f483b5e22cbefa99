package components

// Action is the behaviour state of a mobile agent.
type Action uint8

const (
	ActionExploring Action = iota
	ActionGoingToFood
	ActionGoingToWater
	ActionEating
	ActionDrinking
	ActionSearchingForMate
)

// String returns the display name for an Action.
func (a Action) String() string {
	names := ActionNames()
	if int(a) < len(names) {
		return names[a]
	}
	return "Unknown"
}

// MarshalText encodes the action by name.
func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// ActionNames returns the display names for all actions.
// The order matches the Action constants.
func ActionNames() []string {
	return []string{"exploring", "going_to_food", "going_to_water", "eating", "drinking", "searching_for_mate"}
}

// ActionCount returns the number of actions.
func ActionCount() int {
	return len(ActionNames())
}

// DeathCause records why an entity died.
type DeathCause uint8

const (
	CauseNone DeathCause = iota
	CauseHunger
	CauseThirst
	CauseEaten
)

// String returns the display name for a DeathCause.
func (c DeathCause) String() string {
	names := DeathCauseNames()
	if int(c) < len(names) {
		return names[c]
	}
	return "unknown"
}

// MarshalText encodes the cause by name.
func (c DeathCause) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// DeathCauseNames returns the display names for all death causes.
func DeathCauseNames() []string {
	return []string{"none", "hunger", "thirst", "eaten"}
}
