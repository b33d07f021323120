package prereq

type InstructionType uint8

const (
	Unknown InstructionType = iota

	InstructionTypeComplete
	InstructionTypeUpdate
)

func (t InstructionType) String() string {
	switch t {
	case InstructionTypeComplete:
		return "complete"
	case InstructionTypeUpdate:
		return "update"
	}

	return "unknown"
}
