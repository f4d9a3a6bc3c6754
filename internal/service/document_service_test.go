package service

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/locvowork/hr_onboarding_portal/internal/domain"
)

func TestDocumentService_Upload(t *testing.T) {
	ctx := context.Background()
	file := Upload{FileName: "pan.pdf", ContentType: "application/pdf", Data: []byte("%PDF")}

	t.Run("checklist", func(t *testing.T) {
		fx := newFixture(t)
		mandatory := 0
		for _, d := range fx.docs.Required() {
			if d.Mandatory {
				mandatory++
			}
		}
		assert.Len(t, fx.docs.Required(), 11)
		assert.Equal(t, 6, mandatory)
	})

	t.Run("rejects bad input", func(t *testing.T) {
		fx := newFixture(t)
		e := fx.add(t, domain.RoleEmployee, domain.StagePreJoining, true)

		_, err := fx.docs.Upload(ctx, as(e), "driving_licence", file)
		assert.ErrorIs(t, err, domain.ErrUnknownDocumentType)

		big := Upload{FileName: "big.pdf", Data: bytes.Repeat([]byte{0}, MaxDocumentSize+1)}
		_, err = fx.docs.Upload(ctx, as(e), "pan_card", big)
		assert.ErrorIs(t, err, domain.ErrDocumentTooLarge)

		early := fx.add(t, domain.RoleEmployee, domain.StageBasicInfo, true)
		_, err = fx.docs.Upload(ctx, as(early), "pan_card", file)
		assert.ErrorIs(t, err, domain.ErrFormNotReachable)
	})

	t.Run("re-upload replaces until verified", func(t *testing.T) {
		fx := newFixture(t)
		e := fx.add(t, domain.RoleEmployee, domain.StagePreJoining, true)

		first, err := fx.docs.Upload(ctx, as(e), "pan_card", file)
		require.NoError(t, err)
		assert.Equal(t, domain.FormSubmitted, first.Status)
		assert.Equal(t, int64(4), first.Size)

		second, err := fx.docs.Upload(ctx, as(e), "pan_card", file)
		require.NoError(t, err)

		docs, err := fx.docs.List(ctx, as(e), e.ID)
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, second.ID, docs[0].ID)
		assert.Equal(t, 1, fx.files.count())

		_, err = fx.docs.Verify(ctx, as(fx.hr), second.ID, "VERIFIED", "")
		require.NoError(t, err)

		_, err = fx.docs.Upload(ctx, as(e), "pan_card", file)
		assert.ErrorIs(t, err, domain.ErrDocumentLocked)
		assert.ErrorIs(t, fx.docs.Delete(ctx, as(e), second.ID), domain.ErrDocumentLocked)
	})

	t.Run("re-upload clears every stale duplicate", func(t *testing.T) {
		fx := newFixture(t)
		e := fx.add(t, domain.RoleEmployee, domain.StagePreJoining, true)
		for i := 0; i < 2; i++ {
			stored, err := fx.files.Save(ctx, "documents/"+e.ID, "old.pdf", []byte("old"))
			require.NoError(t, err)
			require.NoError(t, fx.store.Documents().Create(ctx, &domain.DocumentRecord{
				ID:          fmt.Sprintf("stale-%d", i),
				EmployeeID:  e.ID,
				DocType:     domain.DocumentType("pan_card"),
				FileName:    "old.pdf",
				StoragePath: stored,
				Status:      domain.FormSubmitted,
				UploadedAt:  testNow,
			}))
		}
		_, err := fx.docs.Upload(ctx, as(e), "aadhaar_card", Upload{FileName: "a.jpg", Data: []byte("jpg")})
		require.NoError(t, err)
		require.Equal(t, 3, fx.files.count())

		fresh, err := fx.docs.Upload(ctx, as(e), "pan_card", file)
		require.NoError(t, err)

		docs, err := fx.docs.List(ctx, as(e), e.ID)
		require.NoError(t, err)
		require.Len(t, docs, 2)
		var pans []string
		for _, d := range docs {
			if d.DocType == domain.DocumentType("pan_card") {
				pans = append(pans, d.ID)
			}
		}
		assert.Equal(t, []string{fresh.ID}, pans)
		assert.Equal(t, 2, fx.files.count())
	})
}

func TestDocumentService_RemarksStoredLiterally(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	e := fx.add(t, domain.RoleEmployee, domain.StagePreJoining, true)
	d, err := fx.docs.Upload(ctx, as(e), "pan_card", Upload{FileName: "pan.pdf", Data: []byte("%PDF")})
	require.NoError(t, err)

	reason := "Father's name & PAN don't match"
	got, err := fx.docs.Verify(ctx, as(fx.hr), d.ID, "REJECTED", reason)
	require.NoError(t, err)
	assert.Equal(t, reason, got.Remarks)
}

func TestDocumentService_VerifyAndDelete(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	e := fx.add(t, domain.RoleEmployee, domain.StagePreJoining, true)
	other := fx.add(t, domain.RoleEmployee, domain.StagePreJoining, true)

	d, err := fx.docs.Upload(ctx, as(e), "aadhaar_card", Upload{FileName: "a.jpg", Data: []byte("jpg")})
	require.NoError(t, err)

	_, err = fx.docs.List(ctx, as(other), e.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = fx.docs.Verify(ctx, as(e), d.ID, "VERIFIED", "")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	got, err := fx.docs.Verify(ctx, as(fx.hr), d.ID, "REJECTED", "Image is not readable")
	require.NoError(t, err)
	assert.Equal(t, domain.FormRejected, got.Status)
	assert.Equal(t, "Image is not readable", got.Remarks)

	_, data, err := fx.docs.Download(ctx, as(fx.hr), d.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
	_, _, err = fx.docs.Download(ctx, as(other), d.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	assert.ErrorIs(t, fx.docs.Delete(ctx, as(other), d.ID), domain.ErrForbidden)
	require.NoError(t, fx.docs.Delete(ctx, as(e), d.ID))
	assert.Equal(t, 0, fx.files.count())

	assert.ErrorIs(t, fx.docs.Delete(ctx, as(e), d.ID), domain.ErrDocumentNotFound)

	events, err := fx.emps.Audit(ctx, as(fx.hr), e.ID, 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, domain.AuditDocumentRejected, events[0].Action)
}
