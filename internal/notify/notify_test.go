package notify

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySinkRetainsNewestFive(t *testing.T) {
	sink := NewMemorySink()
	ctx := context.Background()

	for i := 1; i <= 7; i++ {
		err := sink.CreateNotification(ctx, Notification{
			RecipientID:   "doc-1",
			RecipientRole: "doctor",
			Message:       fmt.Sprintf("message %d", i),
		})
		require.NoError(t, err)
	}

	got := sink.Recent("doctor", "doc-1")
	require.Len(t, got, MaxRetained)
	assert.Equal(t, "message 3", got[0].Message, "oldest two evicted")
	assert.Equal(t, "message 7", got[len(got)-1].Message)
}

func TestMemorySinkSeparatesRecipients(t *testing.T) {
	sink := NewMemorySink()
	ctx := context.Background()

	require.NoError(t, sink.CreateNotification(ctx, Notification{RecipientID: "1", RecipientRole: "doctor", Message: "for doctor"}))
	require.NoError(t, sink.CreateNotification(ctx, Notification{RecipientID: "1", RecipientRole: "patient", Message: "for patient"}))

	doctor := sink.Recent("doctor", "1")
	patient := sink.Recent("patient", "1")
	require.Len(t, doctor, 1)
	require.Len(t, patient, 1)
	assert.Equal(t, "for doctor", doctor[0].Message)
	assert.Equal(t, "for patient", patient[0].Message)
}

func TestMemorySinkStampsCreatedAt(t *testing.T) {
	sink := NewMemorySink()
	require.NoError(t, sink.CreateNotification(context.Background(), Notification{RecipientID: "1", RecipientRole: "doctor", Message: "m"}))
	got := sink.Recent("doctor", "1")
	require.Len(t, got, 1)
	assert.False(t, got[0].CreatedAt.IsZero())
}
