package model

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"
)

// testRequest возвращает заявку в состоянии NEW с фиксированным id.
func testRequest() *AcquisitionRequest {
	return NewAcquisitionRequest("fake-id", "fake-org-uuid", "My test download",
		"http://some-fake-url", "other", true)
}

// TestNewAcquisitionRequest_GeneratesID проверяет генерацию id при его отсутствии.
func TestNewAcquisitionRequest_GeneratesID(t *testing.T) {
	a := NewAcquisitionRequest("", "org", "t", "http://x", "c", false)
	b := NewAcquisitionRequest("", "org", "t", "http://x", "c", false)

	if a.ID == "" || b.ID == "" {
		t.Fatal("ожидался сгенерированный id")
	}
	if a.ID == b.ID {
		t.Errorf("id должны быть уникальны, получено %q дважды", a.ID)
	}
	if a.State != StateNew {
		t.Errorf("State = %q, ожидался NEW", a.State)
	}
	if len(a.Timestamps) != 0 {
		t.Errorf("Timestamps = %v, ожидался пустой map", a.Timestamps)
	}
}

// TestStoreKey проверяет формат ключа хранения.
func TestStoreKey(t *testing.T) {
	r := testRequest()
	if got := r.StoreKey(); got != "fake-org-uuid:fake-id" {
		t.Errorf("StoreKey() = %q, ожидался fake-org-uuid:fake-id", got)
	}
}

// TestTransitions проверяет матрицу допустимых переходов.
func TestTransitions(t *testing.T) {
	tests := []struct {
		from State
		to   State
		ok   bool
	}{
		{StateNew, StateValidated, true},
		{StateNew, StateDownloaded, true},
		{StateNew, StateFinished, false},
		{StateNew, StateError, false},
		{StateNew, StateNew, false},
		{StateValidated, StateDownloaded, true},
		{StateValidated, StateError, true},
		{StateValidated, StateFinished, false},
		{StateValidated, StateValidated, true},
		{StateDownloaded, StateFinished, true},
		{StateDownloaded, StateError, true},
		{StateDownloaded, StateDownloaded, true},
		{StateDownloaded, StateValidated, false},
		{StateFinished, StateError, false},
		{StateFinished, StateDownloaded, false},
		{StateFinished, StateFinished, true},
		{StateError, StateDownloaded, false},
		{StateError, StateError, true},
	}

	for _, tt := range tests {
		r := testRequest()
		r.State = tt.from

		err := r.TransitionTo(tt.to, time.Unix(100, 0))
		if tt.ok && err != nil {
			t.Errorf("%s → %s: неожиданная ошибка: %v", tt.from, tt.to, err)
			continue
		}
		if !tt.ok {
			if err == nil {
				t.Errorf("%s → %s: ожидалась ошибка", tt.from, tt.to)
				continue
			}
			if !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("%s → %s: ожидалась ErrInvalidTransition, получено %v", tt.from, tt.to, err)
			}
			var te *TransitionError
			if !errors.As(err, &te) || te.From != tt.from || te.To != tt.to {
				t.Errorf("%s → %s: некорректная TransitionError: %v", tt.from, tt.to, err)
			}
			if r.State != tt.from {
				t.Errorf("состояние изменилось при ошибке: %q", r.State)
			}
		}
	}
}

// TestTransitionTo_Timestamps проверяет запись отметок времени по состояниям.
func TestTransitionTo_Timestamps(t *testing.T) {
	r := testRequest()

	if err := r.TransitionTo(StateValidated, time.Unix(100, 0)); err != nil {
		t.Fatal(err)
	}
	if err := r.TransitionTo(StateDownloaded, time.Unix(200, 0)); err != nil {
		t.Fatal(err)
	}

	want := map[State]int64{StateValidated: 100, StateDownloaded: 200}
	if !reflect.DeepEqual(r.Timestamps, want) {
		t.Errorf("Timestamps = %v, ожидалось %v", r.Timestamps, want)
	}
}

// TestTransitionTo_Idempotent проверяет, что повторный переход перезаписывает
// отметку времени, а не добавляет новую.
func TestTransitionTo_Idempotent(t *testing.T) {
	r := testRequest()
	_ = r.TransitionTo(StateValidated, time.Unix(100, 0))
	_ = r.TransitionTo(StateDownloaded, time.Unix(200, 0))

	if err := r.TransitionTo(StateDownloaded, time.Unix(300, 0)); err != nil {
		t.Fatalf("повторный переход: %v", err)
	}

	if len(r.Timestamps) != 2 {
		t.Errorf("len(Timestamps) = %d, ожидалось 2", len(r.Timestamps))
	}
	if r.Timestamps[StateDownloaded] != 300 {
		t.Errorf("Timestamps[DOWNLOADED] = %d, ожидалось 300", r.Timestamps[StateDownloaded])
	}
}

// TestIsTerminal проверяет конечные состояния.
func TestIsTerminal(t *testing.T) {
	for _, st := range []State{StateNew, StateValidated, StateDownloaded} {
		r := testRequest()
		r.State = st
		if r.IsTerminal() {
			t.Errorf("%s не должно быть конечным", st)
		}
	}
	for _, st := range []State{StateFinished, StateError} {
		r := testRequest()
		r.State = st
		if !r.IsTerminal() {
			t.Errorf("%s должно быть конечным", st)
		}
	}
}

// TestJSON_Shape проверяет формат JSON-представления заявки.
func TestJSON_Shape(t *testing.T) {
	r := testRequest()
	_ = r.TransitionTo(StateValidated, time.Unix(1449523225, 0))

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatal(err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"id", "orgUUID", "publicRequest", "source", "category", "title", "state", "timestamps"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("в JSON отсутствует поле %q: %s", key, data)
		}
	}
	if len(raw) != 8 {
		t.Errorf("ожидалось 8 полей, получено %d: %s", len(raw), data)
	}
	ts, _ := raw["timestamps"].(map[string]any)
	if ts["VALIDATED"] != float64(1449523225) {
		t.Errorf("timestamps.VALIDATED = %v", ts["VALIDATED"])
	}
}

// TestJSON_UnknownFields проверяет, что лишние поля при чтении игнорируются.
func TestJSON_UnknownFields(t *testing.T) {
	data := []byte(`{"id":"fake-id","orgUUID":"fake-org-uuid","publicRequest":true,
		"source":"http://some-fake-url","category":"other","title":"My test download",
		"state":"VALIDATED","timestamps":{},"unnecessary_field":"blablabla"}`)

	var got AcquisitionRequest
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	want := testRequest()
	want.State = StateValidated
	if !reflect.DeepEqual(&got, want) {
		t.Errorf("получено %+v, ожидалось %+v", got, want)
	}
}

// TestClone проверяет независимость копии.
func TestClone(t *testing.T) {
	r := testRequest()
	_ = r.TransitionTo(StateValidated, time.Unix(1, 0))

	c := r.Clone()
	_ = c.TransitionTo(StateDownloaded, time.Unix(2, 0))

	if r.State != StateValidated {
		t.Errorf("оригинал изменён: %q", r.State)
	}
	if _, ok := r.Timestamps[StateDownloaded]; ok {
		t.Error("Timestamps оригинала изменены")
	}
}

// TestParseState проверяет разбор состояния.
func TestParseState(t *testing.T) {
	if st, err := ParseState("FINISHED"); err != nil || st != StateFinished {
		t.Errorf("ParseState(FINISHED) = %q, %v", st, err)
	}
	if _, err := ParseState("DONE"); err == nil {
		t.Error("ParseState(DONE): ожидалась ошибка")
	}
}
