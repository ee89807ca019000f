package ir

// GroupKind distinguishes Applications from Scenes.
type GroupKind string

const (
	KindApplication GroupKind = "application"
	KindScene       GroupKind = "scene"
)

// Class is the MHEG class of an ingredient.
type Class string

const (
	ClassLink        Class = "link"
	ClassBoolean     Class = "boolean"
	ClassInteger     Class = "integer"
	ClassOctetString Class = "octetstring"
	ClassObjectRef   Class = "objectref"
	ClassContentRef  Class = "contentref"
	ClassRectangle   Class = "rectangle"
	ClassBitmap      Class = "bitmap"
	ClassText        Class = "text"
	ClassVideo       Class = "video"
	ClassStream      Class = "stream"
	ClassPalette     Class = "palette"
)

// ValidClasses lists every ingredient class a group description may use.
var ValidClasses = map[Class]bool{
	ClassLink:        true,
	ClassBoolean:     true,
	ClassInteger:     true,
	ClassOctetString: true,
	ClassObjectRef:   true,
	ClassContentRef:  true,
	ClassRectangle:   true,
	ClassBitmap:      true,
	ClassText:        true,
	ClassVideo:       true,
	ClassStream:      true,
	ClassPalette:     true,
}

// VariableKind returns the value kind held by a variable class.
func (c Class) VariableKind() (Kind, bool) {
	switch c {
	case ClassBoolean:
		return KindBool, true
	case ClassInteger:
		return KindInt, true
	case ClassOctetString:
		return KindOctetString, true
	case ClassObjectRef:
		return KindObjectRef, true
	case ClassContentRef:
		return KindContentRef, true
	default:
		return 0, false
	}
}

// IsVisible reports whether objects of class c take part in the DisplayStack.
func (c Class) IsVisible() bool {
	switch c {
	case ClassRectangle, ClassBitmap, ClassText, ClassVideo:
		return true
	default:
		return false
	}
}

// Group is a decoded Application or Scene description.
// ID is the canonical group id the description was loaded under.
type Group struct {
	ID                 GroupID      `json:"id"`
	Kind               GroupKind    `json:"kind"`
	OnStartUp          []Action     `json:"on_start_up,omitempty"`
	OnCloseDown        []Action     `json:"on_close_down,omitempty"`
	InputEventRegister int          `json:"input_event_register,omitempty"`
	Ingredients        []Ingredient `json:"ingredients"`
}

// Ingredient is one child object of a group, in construction order.
type Ingredient struct {
	Number          int       `json:"number"`
	Class           Class     `json:"class"`
	InitiallyActive bool      `json:"initially_active"`
	Shared          bool      `json:"shared,omitempty"`
	Value           Value     `json:"-"` // original value for variables
	Content         *Content  `json:"content,omitempty"`
	Position        Point     `json:"position"`
	Size            Size      `json:"size"`
	Link            *LinkSpec `json:"link,omitempty"`
}

// Content is the content of a content-bearing ingredient: either included
// bytes or a referenced carousel file.
type Content struct {
	Included   string `json:"included,omitempty"`
	Referenced string `json:"referenced,omitempty"`
}

// Scene coordinate space.
const (
	SceneWidth  = 720
	SceneHeight = 576
)

// Point is a position in the SceneWidth x SceneHeight coordinate space.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Size is a box size in scene coordinates.
type Size struct {
	W int `json:"w"`
	H int `json:"h"`
}

// LinkSpec is a Link's condition and effect.
type LinkSpec struct {
	Condition LinkCondition `json:"condition"`
	Effect    []Action      `json:"effect"`
}

// LinkCondition is the (source, event type, data) pattern a Link watches.
// Source may be internal; it is then resolved against the Link's own group.
type LinkCondition struct {
	Source    ObjectReference `json:"source"`
	EventType EventType       `json:"event_type"`
	Data      Value           `json:"-"` // nil when not declared
}

// Action is one elementary action: a name, a target and ordered parameters.
type Action struct {
	Name   string     `json:"action"`
	Target GenericRef `json:"target"`
	Args   []Param    `json:"args,omitempty"`
}

// Param is an action parameter: a literal value, or the current value of a
// variable when Indirect is set.
type Param struct {
	Value    Value       `json:"-"`
	Indirect *GenericRef `json:"indirect,omitempty"`
}

// Lit wraps a literal value as a Param.
func Lit(v Value) Param {
	return Param{Value: v}
}

// TimerHandle identifies one scheduled timer in a TimerService.
// Zero is never a valid handle.
type TimerHandle uint64

// PersistentRecord is a named list of values kept for the engine process
// lifetime.
type PersistentRecord struct {
	Filename string  `json:"filename"`
	Values   []Value `json:"-"`
}

// TraceEvent is one entry of the engine's event/action timeline.
// Kind is "event" for generated events and "action" for executed actions.
type TraceEvent struct {
	Seq       int64     `json:"seq"`
	Kind      string    `json:"kind"`
	Source    ObjectID  `json:"source"`
	EventType EventType `json:"event_type,omitempty"`
	Async     bool      `json:"async,omitempty"`
	Data      Value     `json:"-"`
	Action    string    `json:"action,omitempty"`
	Group     GroupID   `json:"group,omitempty"`
}

// Trace kinds.
const (
	TraceKindEvent  = "event"
	TraceKindAction = "action"
)
