package timex

import (
	"encoding/json"
	"testing"
	"time"
)

func TestJSONRoundtrip(t *testing.T) {
	src := Time(time.Date(2024, 6, 12, 2, 0, 5, 0, time.Local))

	data, err := json.Marshal(src)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `"2024-06-12 02:00:05"` {
		t.Fatalf("marshaled to %s", data)
	}

	var got Time
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if !got.Time().Equal(src.Time()) {
		t.Fatalf("roundtrip mismatch: %v != %v", got.Time(), src.Time())
	}
}

func TestZeroValue(t *testing.T) {
	var zero Time
	if !zero.IsZero() {
		t.Fatal("default value must be zero")
	}
	if zero.String() != "" {
		t.Fatalf("zero String = %q", zero.String())
	}

	data, err := json.Marshal(zero)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `""` {
		t.Fatalf("zero marshaled to %s", data)
	}

	var got Time
	if err := json.Unmarshal([]byte(`""`), &got); err != nil {
		t.Fatal(err)
	}
	if !got.IsZero() {
		t.Fatal("empty string must decode to the zero value")
	}

	v, err := zero.Value()
	if err != nil {
		t.Fatal(err)
	}
	if v != nil {
		t.Fatalf("zero Value = %v, want nil", v)
	}
}

func TestScan(t *testing.T) {
	want := time.Date(2024, 6, 12, 2, 0, 5, 0, time.Local)

	var fromTime Time
	if err := fromTime.Scan(want); err != nil {
		t.Fatal(err)
	}
	if !fromTime.Time().Equal(want) {
		t.Fatalf("scanned %v", fromTime.Time())
	}

	var fromString Time
	if err := fromString.Scan("2024-06-12 02:00:05"); err != nil {
		t.Fatal(err)
	}
	if !fromString.Time().Equal(want) {
		t.Fatalf("scanned %v", fromString.Time())
	}

	var fromNil Time
	if err := fromNil.Scan(nil); err != nil {
		t.Fatal(err)
	}
	if !fromNil.IsZero() {
		t.Fatal("nil must scan to the zero value")
	}

	var bad Time
	if err := bad.Scan(42); err == nil {
		t.Fatal("unsupported type must error")
	}
}
