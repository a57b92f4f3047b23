// Пакет model — доменные сущности Data Acquisition Service.
//
// AcquisitionRequest — заявка на загрузку внешнего набора данных.
// Жизненный цикл:
//
//	NEW → VALIDATED → DOWNLOADED → FINISHED
//	         ↓            ↓
//	       ERROR        ERROR
//
// NEW существует только до первой записи в хранилище.
// FINISHED и ERROR — конечные состояния.
package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// State — состояние заявки на загрузку.
type State string

const (
	// StateNew — начальное состояние, никогда не сохраняется.
	StateNew State = "NEW"
	// StateValidated — заявка принята, ожидается загрузка.
	StateValidated State = "VALIDATED"
	// StateDownloaded — набор данных лежит в объектном хранилище, ожидается разбор метаданных.
	StateDownloaded State = "DOWNLOADED"
	// StateFinished — метаданные разобраны, заявка выполнена.
	StateFinished State = "FINISHED"
	// StateError — ошибка в Downloader или Metadata Parser.
	StateError State = "ERROR"
)

// ErrInvalidTransition — переход между состояниями не предусмотрен графом.
var ErrInvalidTransition = errors.New("недопустимый переход состояния")

// validTransitions — матрица допустимых переходов.
// Повторный переход в текущее состояние разрешён всегда (повторная доставка callback).
var validTransitions = map[State]map[State]bool{
	StateNew:        {StateValidated: true, StateDownloaded: true},
	StateValidated:  {StateDownloaded: true, StateError: true},
	StateDownloaded: {StateFinished: true, StateError: true},
	StateFinished:   {},
	StateError:      {},
}

// AcquisitionRequest — заявка на загрузку набора данных.
// JSON-представление совпадает с форматом хранения и ответами API.
type AcquisitionRequest struct {
	ID            string          `json:"id"`
	OrgUUID       string          `json:"orgUUID"`
	PublicRequest bool            `json:"publicRequest"`
	Source        string          `json:"source"`
	Category      string          `json:"category"`
	Title         string          `json:"title"`
	State         State           `json:"state"`
	Timestamps    map[State]int64 `json:"timestamps"`
}

// NewAcquisitionRequest создаёт заявку в состоянии NEW.
// Пустой id заменяется сгенерированным UUID v4.
func NewAcquisitionRequest(id, orgUUID, title, source, category string, publicRequest bool) *AcquisitionRequest {
	if id == "" {
		id = uuid.NewString()
	}
	return &AcquisitionRequest{
		ID:            id,
		OrgUUID:       orgUUID,
		PublicRequest: publicRequest,
		Source:        source,
		Category:      category,
		Title:         title,
		State:         StateNew,
		Timestamps:    make(map[State]int64),
	}
}

// StoreKey возвращает ключ хранения заявки: orgUUID:id.
func (r *AcquisitionRequest) StoreKey() string {
	return StoreKey(r.OrgUUID, r.ID)
}

// KeySeparator разделяет orgUUID и id в ключе хранения.
// Ни orgUUID, ни id не могут его содержать.
const KeySeparator = ":"

// StoreKey собирает составной ключ хранения.
func StoreKey(orgUUID, id string) string {
	return orgUUID + KeySeparator + id
}

// CanTransitionTo проверяет, допустим ли переход в target.
func (r *AcquisitionRequest) CanTransitionTo(target State) bool {
	if r.State == target && target != StateNew {
		return true
	}
	return validTransitions[r.State][target]
}

// TransitionTo переводит заявку в target и записывает время входа в состояние.
// Повторный вход в текущее состояние перезаписывает его отметку времени.
func (r *AcquisitionRequest) TransitionTo(target State, at time.Time) error {
	if !r.CanTransitionTo(target) {
		return &TransitionError{From: r.State, To: target}
	}
	if r.Timestamps == nil {
		r.Timestamps = make(map[State]int64)
	}
	r.State = target
	r.Timestamps[target] = at.Unix()
	return nil
}

// IsTerminal сообщает, находится ли заявка в конечном состоянии.
func (r *AcquisitionRequest) IsTerminal() bool {
	return r.State == StateFinished || r.State == StateError
}

// Clone возвращает глубокую копию заявки.
func (r *AcquisitionRequest) Clone() *AcquisitionRequest {
	c := *r
	c.Timestamps = make(map[State]int64, len(r.Timestamps))
	for k, v := range r.Timestamps {
		c.Timestamps[k] = v
	}
	return &c
}

// TransitionError — ошибка перехода между состояниями.
type TransitionError struct {
	From State
	To   State
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("переход %s → %s недопустим", e.From, e.To)
}

// Unwrap позволяет сравнивать через errors.Is(err, ErrInvalidTransition).
func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// ParseState преобразует строку в State.
func ParseState(s string) (State, error) {
	st := State(s)
	if _, ok := validTransitions[st]; !ok {
		return "", fmt.Errorf("недопустимое состояние: %q", s)
	}
	return st, nil
}
