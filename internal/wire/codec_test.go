package wire_test

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/ErlanBelekov/async-sched/internal/wire"
)

func roundTrip(t *testing.T, m wire.Message) wire.Message {
	t.Helper()
	data, err := wire.Encode(m)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := wire.Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return got
}

func TestRoundTrip_AllKinds(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	at := "18:40:00"

	cases := []wire.Message{
		wire.NewAck("Stopping server"),
		wire.NewError("Error in command \"print\""),
		&wire.Quit{},
		&wire.Update{ModuleName: "task1"},
		&wire.RunCommand{CallbackName: "print", Args: []any{"hello"}, Kwargs: map[string]any{"n": 1.0}},
		&wire.ScheduleCommand{
			Name:         "5 Seconds",
			CallbackName: "print",
			Schedule: wire.ScheduleDTO{
				Seconds: 5, Repeat: true, StartOn: &start, At: &at,
			},
		},
		&wire.RunningSchedule{Name: "5 Seconds", Schedule: wire.ScheduleDTO{Seconds: 5, Repeat: true}},
		&wire.ListSchedules{Schedules: []wire.RunningSchedule{
			{Name: "5 Seconds", Schedule: wire.ScheduleDTO{Seconds: 5, Repeat: true}},
		}},
		&wire.StopSchedule{Name: "5 Seconds"},
	}

	for _, want := range cases {
		got := roundTrip(t, want)
		if !reflect.DeepEqual(want, got) {
			t.Fatalf("round trip mismatch for %T:\n want: %#v\n got:  %#v", want, want, got)
		}
	}
}

// The server keeps a connection open and drops the frame when Decode
// reports ErrMalformed; this checks that classification.
func TestDecode_MalformedBytesDoNotClose(t *testing.T) {
	_, err := wire.Decode([]byte(`not json at all`))
	if err == nil {
		t.Fatal("expected an error for malformed bytes")
	}
	if !errors.Is(err, wire.ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}

func TestDecode_UnknownKindIsDistinctFromMalformed(t *testing.T) {
	_, err := wire.Decode([]byte(`{"type":"nonsense"}`))
	if err == nil {
		t.Fatal("expected an error for an unknown type tag")
	}
	if !errors.Is(err, wire.ErrUnknownKind) || errors.Is(err, wire.ErrMalformed) {
		t.Fatalf("expected ErrUnknownKind and not ErrMalformed, got %v", err)
	}
}

func TestScheduleDTO_RoundTripThroughDomain(t *testing.T) {
	start := time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC)
	dto := wire.ScheduleDTO{
		Days: 1, Repeat: true, StartOn: &start,
		Weekdays: []string{"monday", "tuesday", "wednesday", "thursday", "friday"},
	}

	sched, err := dto.ToDomain()
	if err != nil {
		t.Fatalf("ToDomain: %v", err)
	}

	back := wire.FromDomain(sched)
	if back.Days != 1 || !back.Repeat {
		t.Fatalf("unexpected round trip: %#v", back)
	}
	if len(back.Weekdays) != 5 {
		t.Fatalf("expected 5 weekdays, got %v", back.Weekdays)
	}
}

func TestScheduleDTO_RejectsUnknownWeekday(t *testing.T) {
	dto := wire.ScheduleDTO{Weekdays: []string{"blursday"}}
	if _, err := dto.ToDomain(); err == nil {
		t.Fatal("expected an error for an invalid weekday name")
	}
}

func TestScheduleDTO_RejectsEndBeforeStart(t *testing.T) {
	start := time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC)
	end := start.Add(-time.Hour)
	dto := wire.ScheduleDTO{StartOn: &start, EndOn: &end}
	if _, err := dto.ToDomain(); err == nil {
		t.Fatal("expected an error for end_on before start_on")
	}
}
