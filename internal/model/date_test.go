package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestDateJSON(t *testing.T) {
	d := DateOf(time.Date(2024, time.March, 9, 23, 30, 0, 0, time.FixedZone("EST", -5*3600)))

	b, err := json.Marshal(struct {
		RecordedDate Date `json:"recordedDate"`
	}{d})
	if err != nil {
		t.Fatal(err)
	}
	if got, want := string(b), `{"recordedDate":"2024-03-10"}`; got != want {
		t.Errorf("expected %s, got %s", want, got)
	}

	var back Date
	if err := json.Unmarshal([]byte(`"2024-03-10"`), &back); err != nil {
		t.Fatal(err)
	}
	if !back.Equal(d.Time) {
		t.Errorf("expected %s, got %s", d, back)
	}
}

func TestDateScan(t *testing.T) {
	want := time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC)
	for _, src := range []any{
		time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC),
		"2024-03-10",
		[]byte("2024-03-10 00:00:00+00:00"),
	} {
		var d Date
		if err := d.Scan(src); err != nil {
			t.Errorf("scan %v: %v", src, err)
			continue
		}
		if !d.Equal(want) {
			t.Errorf("scan %v: expected %s, got %s", src, want, d)
		}
	}

	var d Date
	if err := d.Scan(42); err == nil {
		t.Error("expected an error scanning an integer")
	}
}
