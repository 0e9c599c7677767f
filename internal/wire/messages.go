package wire

// Ack is a plain informational response, the wire equivalent of the
// original's Message class.
type Ack struct {
	Text string `json:"message"`
}

func NewAck(text string) *Ack { return &Ack{Text: text} }
func (*Ack) Kind() Kind       { return KindMessage }

// ErrorMsg is an error response.
type ErrorMsg struct {
	Text string `json:"message"`
}

func NewError(text string) *ErrorMsg { return &ErrorMsg{Text: text} }
func (*ErrorMsg) Kind() Kind         { return KindError }

// Quit requests the server stop serving.
type Quit struct{}

func (*Quit) Kind() Kind { return KindQuit }

// Update requests a callback registry reload. An empty ModuleName reloads
// every file in the update directory.
type Update struct {
	ModuleName string `json:"module_name,omitempty"`
}

func (*Update) Kind() Kind { return KindUpdate }

// RunCommand requests a single invocation of a registered callback.
type RunCommand struct {
	CallbackName string         `json:"callback_name"`
	Args         []any          `json:"args,omitempty"`
	Kwargs       map[string]any `json:"kwargs,omitempty"`
}

func (*RunCommand) Kind() Kind { return KindRunCommand }

// ScheduleCommand installs a recurring or one-shot schedule that invokes a
// registered callback.
type ScheduleCommand struct {
	Name         string         `json:"name"`
	Schedule     ScheduleDTO    `json:"schedule"`
	CallbackName string         `json:"callback_name"`
	Args         []any          `json:"args,omitempty"`
	Kwargs       map[string]any `json:"kwargs,omitempty"`
}

func (*ScheduleCommand) Kind() Kind { return KindScheduleCommand }

// RunningSchedule names one entry of a ListSchedules response.
type RunningSchedule struct {
	Name     string      `json:"name"`
	Schedule ScheduleDTO `json:"schedule"`
}

func (*RunningSchedule) Kind() Kind { return KindRunningSchedule }

// ListSchedules requests (empty Schedules) or reports (populated) the set
// of currently running schedules.
type ListSchedules struct {
	Schedules []RunningSchedule `json:"schedules"`
}

func (*ListSchedules) Kind() Kind { return KindListSchedules }

// StopSchedule requests removal of a named running schedule.
type StopSchedule struct {
	Name string `json:"name"`
}

func (*StopSchedule) Kind() Kind { return KindStopSchedule }
