// Package checkout реализует конечный автомат оформления заказа.
package checkout

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmeshcher/dosirak-shop/internal/model"
	"github.com/mmeshcher/dosirak-shop/internal/validation"
)

// State описывает состояние окна оформления.
type State string

const (
	StateClosed     State = "closed"
	StateOpen       State = "open"
	StateSubmitting State = "submitting"
)

var (
	// ErrNotOpen возвращается при действии над закрытым окном оформления.
	ErrNotOpen = errors.New("checkout is not open")
	// ErrSubmitting возвращается, пока предыдущая отправка не завершилась.
	ErrSubmitting = errors.New("checkout submission in progress")
	// ErrIncomplete возвращается, если заполнены не все обязательные поля.
	ErrIncomplete = errors.New("checkout form is incomplete")
	// ErrInvalidSlot возвращается для неизвестного окна доставки.
	ErrInvalidSlot = errors.New("invalid delivery slot")
)

// Form: данные доставки, вводимые покупателем.
type Form struct {
	Address      string             `json:"address"`
	Contact      string             `json:"contact"`
	DeliveryDate string             `json:"deliveryDate"`
	DeliveryTime model.DeliverySlot `json:"deliveryTime"`
}

// Snapshot: состояние окна оформления для отображения.
type Snapshot struct {
	State     State  `json:"state"`
	Form      Form   `json:"form"`
	MinDate   string `json:"minDate"`
	CanSubmit bool   `json:"canSubmit"`
}

// Flow: окно оформления заказа: closed -> open -> submitting -> closed.
type Flow struct {
	state   State
	form    Form
	minDate string
	token   string
	loc     *time.Location
	now     func() time.Time
}

// New создаёт закрытое окно оформления. Даты считаются в зоне loc.
func New(loc *time.Location, now func() time.Time) *Flow {
	if loc == nil {
		loc = time.Local
	}
	if now == nil {
		now = time.Now
	}
	return &Flow{state: StateClosed, loc: loc, now: now}
}

// Open открывает окно. Дата доставки по умолчанию: завтра, минимальная: сегодня.
// Повторное открытие уже открытого окна ничего не меняет.
func (f *Flow) Open() {
	if f.state != StateClosed {
		return
	}

	today := f.now().In(f.loc)
	f.state = StateOpen
	f.minDate = today.Format(validation.DateLayout)
	f.form = Form{
		DeliveryDate: today.AddDate(0, 0, 1).Format(validation.DateLayout),
		DeliveryTime: model.SlotLunch,
	}
	f.token = uuid.NewString()
}

// Close закрывает окно без отправки.
func (f *Flow) Close() error {
	if f.state == StateSubmitting {
		return ErrSubmitting
	}
	f.reset()
	return nil
}

// Update заменяет данные формы.
func (f *Flow) Update(form Form) error {
	switch f.state {
	case StateClosed:
		return ErrNotOpen
	case StateSubmitting:
		return ErrSubmitting
	}
	if form.DeliveryTime == "" {
		form.DeliveryTime = f.form.DeliveryTime
	}
	f.form = form
	return nil
}

// CanSubmit ложно тогда и только тогда, когда пусто хотя бы одно из полей
// адрес, контакт, дата доставки.
func (f *Flow) CanSubmit() bool {
	return f.state == StateOpen &&
		!validation.Blank(f.form.Address) &&
		!validation.Blank(f.form.Contact) &&
		!validation.Blank(f.form.DeliveryDate)
}

// Begin переводит окно в состояние отправки и возвращает форму и ключ идемпотентности.
func (f *Flow) Begin() (Form, string, error) {
	switch f.state {
	case StateClosed:
		return Form{}, "", ErrNotOpen
	case StateSubmitting:
		return Form{}, "", ErrSubmitting
	}

	err := validation.Required(map[string]string{
		"address":      f.form.Address,
		"contact":      f.form.Contact,
		"deliveryDate": f.form.DeliveryDate,
	})
	if err != nil {
		return Form{}, "", fmt.Errorf("%w: %w", ErrIncomplete, err)
	}
	if _, err := validation.ParseDeliveryDate(f.form.DeliveryDate, f.now().In(f.loc)); err != nil {
		return Form{}, "", err
	}
	if !f.form.DeliveryTime.Valid() {
		return Form{}, "", fmt.Errorf("%w: %q", ErrInvalidSlot, f.form.DeliveryTime)
	}

	f.state = StateSubmitting
	return f.form, f.token, nil
}

// Succeed закрывает окно после сохранения заказа.
func (f *Flow) Succeed() {
	f.reset()
}

// Fail возвращает окно в открытое состояние. Ключ идемпотентности сохраняется,
// поэтому повторная отправка той же формы не создаст дубль.
func (f *Flow) Fail() {
	if f.state == StateSubmitting {
		f.state = StateOpen
	}
}

// State возвращает текущее состояние.
func (f *Flow) State() State {
	return f.state
}

// Snapshot возвращает состояние для отображения.
func (f *Flow) Snapshot() Snapshot {
	return Snapshot{
		State:     f.state,
		Form:      f.form,
		MinDate:   f.minDate,
		CanSubmit: f.CanSubmit(),
	}
}

func (f *Flow) reset() {
	f.state = StateClosed
	f.form = Form{}
	f.minDate = ""
	f.token = ""
}
