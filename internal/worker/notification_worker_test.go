package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"famspend/internal/amqp"
	"famspend/internal/core"
)

type captureNotifier struct {
	family string
	text   string
	calls  int
	err    error
}

func (c *captureNotifier) Notify(_ context.Context, familyID, text string) error {
	c.calls++
	c.family = familyID
	c.text = text
	return c.err
}

func TestNotificationWorker_HandleExpenseRecorded(t *testing.T) {
	n := &captureNotifier{}
	w := NewNotificationWorker(n, nil, nil)

	err := w.HandleExpenseRecorded(context.Background(), &amqp.ExpenseRecordedMessage{
		ExpenseID:   "e1",
		UserID:      "u1",
		UserName:    "Asha",
		FamilyID:    "f1",
		AmountMinor: 50000,
		Category:    core.CategoryFood,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, n.calls)
	assert.Equal(t, "f1", n.family)
	assert.Equal(t, "Asha logged ₹500 under Food", n.text)
}

func TestNotificationWorker_SkipsWithoutFamily(t *testing.T) {
	n := &captureNotifier{}
	w := NewNotificationWorker(n, nil, nil)

	require.NoError(t, w.HandleExpenseRecorded(context.Background(), &amqp.ExpenseRecordedMessage{ExpenseID: "e1", AmountMinor: 100}))
	assert.Zero(t, n.calls)
}

func TestNotificationWorker_NotifierErrorRequeues(t *testing.T) {
	w := NewNotificationWorker(&captureNotifier{err: errors.New("down")}, nil, nil)

	err := w.HandleExpenseRecorded(context.Background(), &amqp.ExpenseRecordedMessage{FamilyID: "f1", AmountMinor: 100})
	assert.Error(t, err)
}

func TestNotificationWorker_RenderDefaults(t *testing.T) {
	w := NewNotificationWorker(NewLogNotifier(nil), core.NewFormatter("Rs ", "en"), nil)

	got := w.Render(&amqp.ExpenseRecordedMessage{AmountMinor: 12550})
	assert.Equal(t, "Someone logged Rs 125.5 under Others", got)
}
