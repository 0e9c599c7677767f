package wire

import (
	"errors"
	"fmt"

	json "github.com/goccy/go-json"
)

// ErrMalformed means the bytes were not a decodable JSON object at all.
// The server's decode-failure policy is to log this and keep reading on
// the same connection without sending a reply.
var ErrMalformed = errors.New("wire: malformed message")

// ErrUnknownKind means the bytes decoded as a tagged envelope but the tag
// does not match any known message kind. The server replies with an
// ErrorMsg in this case rather than silently dropping the frame.
var ErrUnknownKind = errors.New("wire: unknown message type")

type taggedEnvelope struct {
	Type Kind `json:"type"`
}

// Encode serializes a Message into its tagged JSON envelope.
func Encode(m Message) ([]byte, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("wire: encode %T: %w", m, err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("wire: encode %T: %w", m, err)
	}
	if fields == nil {
		fields = map[string]json.RawMessage{}
	}
	tag, err := json.Marshal(string(m.Kind()))
	if err != nil {
		return nil, err
	}
	fields["type"] = tag

	out, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("wire: encode %T: %w", m, err)
	}
	return out, nil
}

// Decode parses a single tagged JSON envelope into its concrete Message
// type. It returns ErrMalformed for bytes that are not valid JSON at all,
// and ErrUnknownKind for well-formed JSON carrying an unrecognized "type".
func Decode(data []byte) (Message, error) {
	var env taggedEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var target Message
	switch env.Type {
	case KindMessage:
		target = &Ack{}
	case KindError:
		target = &ErrorMsg{}
	case KindQuit:
		target = &Quit{}
	case KindUpdate:
		target = &Update{}
	case KindRunCommand:
		target = &RunCommand{}
	case KindScheduleCommand:
		target = &ScheduleCommand{}
	case KindRunningSchedule:
		target = &RunningSchedule{}
	case KindListSchedules:
		target = &ListSchedules{}
	case KindStopSchedule:
		target = &StopSchedule{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, env.Type)
	}

	if err := json.Unmarshal(data, target); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return target, nil
}
