package checkout

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/dosirak-shop/internal/model"
	"github.com/mmeshcher/dosirak-shop/internal/validation"
)

var kst = time.FixedZone("KST", 9*60*60)

func newFlow() *Flow {
	now := time.Date(2024, 4, 30, 23, 30, 0, 0, kst)
	return New(kst, func() time.Time { return now })
}

func TestOpen_DefaultsToTomorrow(t *testing.T) {
	f := newFlow()
	f.Open()

	s := f.Snapshot()
	assert.Equal(t, StateOpen, s.State)
	assert.Equal(t, "2024-05-01", s.Form.DeliveryDate)
	assert.Equal(t, "2024-04-30", s.MinDate)
	assert.Equal(t, model.SlotLunch, s.Form.DeliveryTime)
	assert.False(t, s.CanSubmit)
}

func TestCanSubmit_DisabledIffRequiredFieldEmpty(t *testing.T) {
	tests := []struct {
		name string
		form Form
		want bool
	}{
		{"empty address", Form{Address: "", Contact: "010-1111-2222", DeliveryDate: "2024-05-01"}, false},
		{"empty contact", Form{Address: "Seoul", Contact: " ", DeliveryDate: "2024-05-01"}, false},
		{"empty date", Form{Address: "Seoul", Contact: "010-1111-2222", DeliveryDate: ""}, false},
		{"all filled", Form{Address: "Seoul", Contact: "010-1111-2222", DeliveryDate: "2024-05-01"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFlow()
			f.Open()
			require.NoError(t, f.Update(tt.form))
			assert.Equal(t, tt.want, f.CanSubmit())
		})
	}
}

func TestBegin_StateMachine(t *testing.T) {
	f := newFlow()

	_, _, err := f.Begin()
	require.ErrorIs(t, err, ErrNotOpen)

	f.Open()
	_, _, err = f.Begin()
	require.ErrorIs(t, err, ErrIncomplete)

	require.NoError(t, f.Update(Form{Address: "Seoul", Contact: "010", DeliveryDate: "2024-05-01", DeliveryTime: model.SlotDinner}))

	form, token, err := f.Begin()
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, model.SlotDinner, form.DeliveryTime)
	assert.Equal(t, StateSubmitting, f.State())

	_, _, err = f.Begin()
	require.ErrorIs(t, err, ErrSubmitting)
	require.ErrorIs(t, f.Update(Form{}), ErrSubmitting)
	require.ErrorIs(t, f.Close(), ErrSubmitting)

	f.Fail()
	assert.Equal(t, StateOpen, f.State())

	_, retryToken, err := f.Begin()
	require.NoError(t, err)
	assert.Equal(t, token, retryToken, "retry keeps the idempotency token")

	f.Succeed()
	assert.Equal(t, StateClosed, f.State())

	f.Open()
	require.NoError(t, f.Update(Form{Address: "Seoul", Contact: "010", DeliveryDate: "2024-05-01"}))
	_, nextToken, err := f.Begin()
	require.NoError(t, err)
	assert.NotEqual(t, token, nextToken)
}

func TestBegin_RejectsPastDate(t *testing.T) {
	f := newFlow()
	f.Open()
	require.NoError(t, f.Update(Form{Address: "Seoul", Contact: "010", DeliveryDate: "2024-04-29"}))

	_, _, err := f.Begin()
	require.ErrorIs(t, err, validation.ErrDateInPast)
	assert.Equal(t, StateOpen, f.State())
}

func TestBegin_RejectsUnknownSlot(t *testing.T) {
	f := newFlow()
	f.Open()
	require.NoError(t, f.Update(Form{Address: "Seoul", Contact: "010", DeliveryDate: "2024-05-01", DeliveryTime: "brunch"}))

	_, _, err := f.Begin()
	require.ErrorIs(t, err, ErrInvalidSlot)
}
