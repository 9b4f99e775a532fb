package types

// ActionKind identifies one of the command types the bot runtime executes.
type ActionKind string

// The closed set of action kinds. Adding a kind here requires a matching
// entry in the schema table and a case in the wire codec.
const (
	KindMoveTo             ActionKind = "moveTo"
	KindCollect            ActionKind = "collect"
	KindPlaceBlock         ActionKind = "placeBlock"
	KindDig                ActionKind = "dig"
	KindAttack             ActionKind = "attack"
	KindJumpAttack         ActionKind = "jumpAttack"
	KindLookAt             ActionKind = "lookAt"
	KindEquip              ActionKind = "equip"
	KindUnequip            ActionKind = "unequip"
	KindUseHeldItem        ActionKind = "useHeldItem"
	KindCraft              ActionKind = "craft"
	KindChat               ActionKind = "chat"
	KindSetControlState    ActionKind = "setControlState"
	KindClearControlStates ActionKind = "clearControlStates"
	KindWait               ActionKind = "wait"
)

// Action is a validated game command. The interface is sealed: only the
// variants in this file implement it, so a value of this type has always
// passed schema validation. Unvalidated data stays a Candidate.
type Action interface {
	Kind() ActionKind
	action()
}

// MoveTo walks the bot to a position.
type MoveTo struct {
	X, Y, Z float64
}

// Collect gathers blocks of a type. Count and Radius are optional;
// zero means the model did not specify them.
type Collect struct {
	BlockType string
	Count     int
	Radius    float64
}

// PlaceBlock places an inventory item as a block at a position.
type PlaceBlock struct {
	ItemName string
	X, Y, Z  float64
}

// Dig breaks the block at a position.
type Dig struct {
	X, Y, Z float64
}

// Attack hits a named entity.
type Attack struct {
	Target string
}

// JumpAttack jumps and hits a named entity (crit attempt).
type JumpAttack struct {
	Target string
}

// LookAt turns the bot's head toward a position.
type LookAt struct {
	X, Y, Z float64
}

// Equip holds an item. Destination optionally names the equipment slot.
type Equip struct {
	ItemName    string
	Destination string
}

// Unequip empties a slot. Destination optionally names the slot.
type Unequip struct {
	Destination string
}

// UseHeldItem activates whatever the bot is holding.
type UseHeldItem struct{}

// Craft makes an item. Count is optional; zero means unspecified.
type Craft struct {
	ItemName string
	Count    int
}

// Chat sends an in-game chat message. An empty message is allowed.
type Chat struct {
	Message string
}

// SetControlState presses or releases a movement control
// ("forward", "jump", "sneak", ...).
type SetControlState struct {
	Control string
	State   bool
}

// ClearControlStates releases every pressed control.
type ClearControlStates struct{}

// Wait idles. Ticks is optional; zero means the model gave no count.
type Wait struct {
	Ticks int
}

func (MoveTo) Kind() ActionKind             { return KindMoveTo }
func (Collect) Kind() ActionKind            { return KindCollect }
func (PlaceBlock) Kind() ActionKind         { return KindPlaceBlock }
func (Dig) Kind() ActionKind                { return KindDig }
func (Attack) Kind() ActionKind             { return KindAttack }
func (JumpAttack) Kind() ActionKind         { return KindJumpAttack }
func (LookAt) Kind() ActionKind             { return KindLookAt }
func (Equip) Kind() ActionKind              { return KindEquip }
func (Unequip) Kind() ActionKind            { return KindUnequip }
func (UseHeldItem) Kind() ActionKind        { return KindUseHeldItem }
func (Craft) Kind() ActionKind              { return KindCraft }
func (Chat) Kind() ActionKind               { return KindChat }
func (SetControlState) Kind() ActionKind    { return KindSetControlState }
func (ClearControlStates) Kind() ActionKind { return KindClearControlStates }
func (Wait) Kind() ActionKind               { return KindWait }

func (MoveTo) action()             {}
func (Collect) action()            {}
func (PlaceBlock) action()         {}
func (Dig) action()                {}
func (Attack) action()             {}
func (JumpAttack) action()         {}
func (LookAt) action()             {}
func (Equip) action()              {}
func (Unequip) action()            {}
func (UseHeldItem) action()        {}
func (Craft) action()              {}
func (Chat) action()               {}
func (SetControlState) action()    {}
func (ClearControlStates) action() {}
func (Wait) action()               {}
