package service

import (
	"context"
	"gradex/gradex/internal/domain"
	"gradex/gradex/internal/storage"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type submissionFixture struct {
	student    domain.User
	teacher    domain.User
	assignment domain.Assignment
	users      *mockUserRepository
	assigns    *mockAssignmentRepository
	subs       *mockSubmissionRepository
	media      *mockMediaStorage
	mailer     *mockMailer
	svc        SubmissionService
}

func newSubmissionFixture() *submissionFixture {
	f := &submissionFixture{
		student: domain.User{ID: primitive.NewObjectID(), Name: "Ada", Email: "ada@example.com", Role: domain.RoleStudent},
		teacher: domain.User{ID: primitive.NewObjectID(), Name: "Grace", Email: "grace@example.com", Role: domain.RoleTeacher},
	}
	f.assignment = domain.Assignment{ID: primitive.NewObjectID(), TeacherID: f.teacher.ID, Title: "Essay", MaxMarks: 20}
	f.users = newMockUserRepository(f.student, f.teacher)
	f.assigns = newMockAssignmentRepository(f.assignment)
	f.subs = newMockSubmissionRepository()
	f.media = &mockMediaStorage{uploadURL: "https://s3.example.com/put", locatorBase: "https://s3.example.com/bucket"}
	f.mailer = &mockMailer{}
	f.svc = NewSubmissionService(f.users, f.assigns, f.subs, f.media, f.mailer, zap.NewNop())
	return f
}

// waitForMail blocks until grade notifications started so far are sent.
func (f *submissionFixture) waitForMail() {
	f.svc.(*submissionService).mailWG.Wait()
}

func (f *submissionFixture) upload(t *testing.T, contentType string) string {
	t.Helper()
	res, err := f.svc.RequestUploadURL(context.Background(), f.student.ID, f.assignment.ID, contentType)
	require.NoError(t, err)
	return res.ObjectKey
}

func TestRequestUploadURL(t *testing.T) {
	f := newSubmissionFixture()

	res, err := f.svc.RequestUploadURL(context.Background(), f.student.ID, f.assignment.ID, "application/pdf")
	require.NoError(t, err)

	prefix := "image/upload/submissions/" + f.assignment.ID.Hex() + "/" + f.student.ID.Hex() + "/"
	assert.True(t, strings.HasPrefix(res.ObjectKey, prefix), res.ObjectKey)
	assert.True(t, strings.HasSuffix(res.ObjectKey, ".pdf"), res.ObjectKey)
	assert.Equal(t, "https://s3.example.com/put/"+res.ObjectKey, res.UploadURL)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), res.ExpiresAt, time.Minute)

	pending, err := f.subs.GetByAssignmentAndStudent(context.Background(), f.assignment.ID, f.student.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SubmissionPending, pending.Status)
	assert.False(t, pending.HasFile())

	// A second request reuses the pending submission
	res2, err := f.svc.RequestUploadURL(context.Background(), f.student.ID, f.assignment.ID, "image/png")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res2.ObjectKey, "image/upload/submissions/"), res2.ObjectKey)
	assert.Len(t, f.subs.submissions, 1)
}

func TestRequestUploadURL_Rejections(t *testing.T) {
	f := newSubmissionFixture()

	_, err := f.svc.RequestUploadURL(context.Background(), f.student.ID, f.assignment.ID, "application/zip")
	assert.ErrorIs(t, err, ErrUnsupportedFileType)

	_, err = f.svc.RequestUploadURL(context.Background(), f.student.ID, primitive.NewObjectID(), "application/pdf")
	assert.ErrorIs(t, err, ErrAssignmentNotFound)

	f.media.uploadErr = errBoom
	_, err = f.svc.RequestUploadURL(context.Background(), f.student.ID, f.assignment.ID, "application/pdf")
	assert.ErrorIs(t, err, ErrUploadURLError)
}

func TestConfirmUpload(t *testing.T) {
	f := newSubmissionFixture()
	key := f.upload(t, "application/pdf")

	sub, err := f.svc.ConfirmUpload(context.Background(), f.student.ID, f.assignment.ID, key, "../my essay.pdf")
	require.NoError(t, err)
	assert.Equal(t, domain.SubmissionSubmitted, sub.Status)
	assert.Equal(t, "https://s3.example.com/bucket/"+key, sub.FileReference)
	assert.Equal(t, "my essay.pdf", sub.FileName)
	require.NotNil(t, sub.SubmittedAt)

	stored, err := f.subs.GetByID(context.Background(), sub.ID)
	require.NoError(t, err)
	assert.Equal(t, sub.FileReference, stored.FileReference)

	// The reference is written once
	_, err = f.svc.ConfirmUpload(context.Background(), f.student.ID, f.assignment.ID, key, "again.pdf")
	assert.ErrorIs(t, err, ErrFileAlreadyAttached)
	assert.Equal(t, []string{key}, f.media.deletedKeys)

	_, err = f.svc.RequestUploadURL(context.Background(), f.student.ID, f.assignment.ID, "application/pdf")
	assert.ErrorIs(t, err, ErrFileAlreadyAttached)
}

func TestConfirmUpload_WithoutPendingSubmission(t *testing.T) {
	f := newSubmissionFixture()
	key := "image/upload/submissions/" + f.assignment.ID.Hex() + "/" + f.student.ID.Hex() + "/abc.png"

	sub, err := f.svc.ConfirmUpload(context.Background(), f.student.ID, f.assignment.ID, key, "scan.png")
	require.NoError(t, err)
	assert.False(t, sub.ID.IsZero())
	assert.Equal(t, domain.SubmissionSubmitted, sub.Status)
}

func TestConfirmUpload_ForeignKey(t *testing.T) {
	f := newSubmissionFixture()
	other := primitive.NewObjectID()

	base := "image/upload/submissions/" + f.assignment.ID.Hex() + "/"
	keys := []string{
		"",
		base + other.Hex() + "/abc.pdf",
		base + f.student.ID.Hex() + "/../x/abc.pdf",
		base + f.student.ID.Hex() + "/abc.zip",
		base + f.student.ID.Hex() + "/.pdf",
		base + f.student.ID.Hex() + "/nested/abc.pdf",
		"raw/upload/submissions/" + f.assignment.ID.Hex() + "/" + f.student.ID.Hex() + "/abc.pdf",
	}
	for _, key := range keys {
		_, err := f.svc.ConfirmUpload(context.Background(), f.student.ID, f.assignment.ID, key, "x.pdf")
		assert.ErrorIs(t, err, ErrInvalidObjectKey, key)
	}
}

func TestGrade(t *testing.T) {
	f := newSubmissionFixture()
	key := f.upload(t, "application/pdf")
	sub, err := f.svc.ConfirmUpload(context.Background(), f.student.ID, f.assignment.ID, key, "essay.pdf")
	require.NoError(t, err)

	graded, err := f.svc.Grade(context.Background(), f.teacher.ID, sub.ID, 18, "  Good work\n- **clear** thesis ")
	require.NoError(t, err)
	assert.Equal(t, domain.SubmissionGraded, graded.Status)
	require.NotNil(t, graded.Marks)
	assert.Equal(t, 18, *graded.Marks)
	assert.Equal(t, "Good work\n- **clear** thesis", graded.Feedback)

	f.waitForMail()
	require.Len(t, f.mailer.sent, 1)
	n := f.mailer.sent[0]
	assert.Equal(t, "ada@example.com", n.StudentEmail)
	assert.Equal(t, "Essay", n.AssignmentTitle)
	assert.Equal(t, 18, n.Marks)
	assert.Equal(t, 20, n.MaxMarks)

	// Confirming over a graded submission is refused
	_, err = f.svc.ConfirmUpload(context.Background(), f.student.ID, f.assignment.ID, key, "late.pdf")
	assert.ErrorIs(t, err, ErrAlreadyGraded)
}

func TestGrade_MailFailureIsNotReturned(t *testing.T) {
	f := newSubmissionFixture()
	key := f.upload(t, "image/jpeg")
	sub, err := f.svc.ConfirmUpload(context.Background(), f.student.ID, f.assignment.ID, key, "photo.jpg")
	require.NoError(t, err)
	f.mailer.err = errBoom

	_, err = f.svc.Grade(context.Background(), f.teacher.ID, sub.ID, 0, "")
	assert.NoError(t, err)
	f.waitForMail()
	assert.Len(t, f.mailer.sent, 1)
}

func TestGrade_MailOutlivesRequest(t *testing.T) {
	f := newSubmissionFixture()
	key := f.upload(t, "application/pdf")
	sub, err := f.svc.ConfirmUpload(context.Background(), f.student.ID, f.assignment.ID, key, "essay.pdf")
	require.NoError(t, err)

	blocker := &blockingMailer{release: make(chan struct{})}
	svc := NewSubmissionService(f.users, f.assigns, f.subs, f.media, blocker, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	graded, err := svc.Grade(ctx, f.teacher.ID, sub.ID, 12, "ok")
	require.NoError(t, err)
	assert.Equal(t, domain.SubmissionGraded, graded.Status)
	cancel()

	close(blocker.release)
	svc.(*submissionService).mailWG.Wait()
	require.NotNil(t, blocker.ctxErr)
	assert.NoError(t, *blocker.ctxErr, "mail context must not be cancelled with the request")
	assert.True(t, blocker.hasDeadline)
}

func TestGrade_Rejections(t *testing.T) {
	f := newSubmissionFixture()
	key := f.upload(t, "application/pdf")
	pending, err := f.subs.GetByAssignmentAndStudent(context.Background(), f.assignment.ID, f.student.ID)
	require.NoError(t, err)

	_, err = f.svc.Grade(context.Background(), f.teacher.ID, pending.ID, 10, "")
	assert.ErrorIs(t, err, ErrNotSubmitted)

	sub, err := f.svc.ConfirmUpload(context.Background(), f.student.ID, f.assignment.ID, key, "essay.pdf")
	require.NoError(t, err)

	_, err = f.svc.Grade(context.Background(), primitive.NewObjectID(), sub.ID, 10, "")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.Grade(context.Background(), f.teacher.ID, sub.ID, 21, "")
	assert.ErrorIs(t, err, ErrInvalidMarks)

	_, err = f.svc.Grade(context.Background(), f.teacher.ID, sub.ID, -1, "")
	assert.ErrorIs(t, err, ErrInvalidMarks)

	_, err = f.svc.Grade(context.Background(), f.teacher.ID, primitive.NewObjectID(), 10, "")
	assert.ErrorIs(t, err, ErrSubmissionNotFound)

	assert.Empty(t, f.mailer.sent)
}

func TestListForAssignment(t *testing.T) {
	f := newSubmissionFixture()
	f.upload(t, "application/pdf")

	subs, err := f.svc.ListForAssignment(context.Background(), f.teacher.ID, f.assignment.ID)
	require.NoError(t, err)
	assert.Len(t, subs, 1)

	_, err = f.svc.ListForAssignment(context.Background(), f.student.ID, f.assignment.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	mine, err := f.svc.ListMine(context.Background(), f.student.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

// The keys the file resolver signs and archives must be the key the upload
// was written to, for every accepted content type.
func TestUploadedFileIsResolvable(t *testing.T) {
	for contentType, ext := range uploadFormats {
		t.Run(contentType, func(t *testing.T) {
			f := newSubmissionFixture()
			key := f.upload(t, contentType)
			sub, err := f.svc.ConfirmUpload(context.Background(), f.student.ID, f.assignment.ID, key, "work."+ext)
			require.NoError(t, err)

			f.media.signedURL = "https://s3.example.com/signed"
			fetcher := &mockFetcher{objects: map[string]*storage.FetchedObject{}}
			resolver := NewSubmissionFileService(f.subs, f.assigns, f.media, fetcher, 0, zap.NewNop())

			file, err := resolver.ResolveFile(context.Background(), sub.ID.Hex(), f.teacher.ID.Hex())
			require.NoError(t, err)
			assert.Equal(t, StrategyZipExport, file.Strategy)

			require.Len(t, f.media.signedRefs, 1)
			assert.Equal(t, key, storage.ObjectKeyFor(f.media.signedRefs[0]))

			require.Len(t, f.media.zipRequests, 1)
			zipReq := f.media.zipRequests[0]
			require.Len(t, zipReq.PublicIDs, 1)
			zipBase := storage.ObjectKeyFor(storage.AssetRef{PublicID: zipReq.PublicIDs[0], ResourceType: zipReq.ResourceType})
			assert.Equal(t, key, zipBase+"."+ext)

			assert.Equal(t, contentTypes[ext], file.ContentType)
		})
	}
}
