package services_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HSouheill/taskreward_backend/models"
	"github.com/HSouheill/taskreward_backend/repositories/memory"
	"github.com/HSouheill/taskreward_backend/services"
)

type taskFixture struct {
	store  *memory.Store
	images *fakeImageHost
	events *recordingPublisher
	svc    *services.TaskService
}

func newTaskFixture() *taskFixture {
	store := memory.New()
	store.PutUser(models.User{ID: "u1", Email: "u1@example.com", Name: "u1"})
	store.PutUser(models.User{ID: "u2", Email: "u2@example.com", Name: "u2"})
	images := &fakeImageHost{}
	events := &recordingPublisher{}
	return &taskFixture{
		store:  store,
		images: images,
		events: events,
		svc:    services.NewTaskService(store, store, store, images, events, services.DefaultRules()),
	}
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, x%h, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestListOpenTasksHidesSubmittedAndCapsVisible(t *testing.T) {
	f := newTaskFixture()
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	var tasks []*models.Task
	for i, title := range []string{"oldest", "older", "newer", "newest"} {
		task := &models.Task{Title: title, Reward: 1, CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		require.NoError(t, f.store.CreateTask(ctx, task))
		tasks = append(tasks, task)
	}

	_, err := f.svc.Submit(ctx, "u1", "u1@example.com", tasks[3].ID.Hex(), nil, "done")
	require.NoError(t, err)

	open, err := f.svc.ListOpenTasks(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, open, 2)
	assert.Equal(t, "newer", open[0].Title)
	assert.Equal(t, "older", open[1].Title)

	open, err = f.svc.ListOpenTasks(ctx, "u2")
	require.NoError(t, err)
	require.Len(t, open, 2)
	assert.Equal(t, "newest", open[0].Title)
}

func TestSubmitTextProof(t *testing.T) {
	f := newTaskFixture()
	ctx := context.Background()
	task := seedTask(t, f.store, "Follow page", 5)

	sub, err := f.svc.Submit(ctx, "u1", "u1@example.com", task.ID.Hex(), nil, "  my handle  ")
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionPending, sub.Status)
	assert.Equal(t, models.ProofText, sub.ProofType)
	assert.Equal(t, "my handle", sub.Proof)
	assert.Equal(t, []string{models.EventSubmissionCreated}, f.events.types())

	_, err = f.svc.Submit(ctx, "u1", "u1@example.com", task.ID.Hex(), nil, "again")
	assert.ErrorIs(t, err, models.ErrDuplicateSubmission)
}

func TestSubmitTextProofKeepsLinkIntact(t *testing.T) {
	f := newTaskFixture()
	ctx := context.Background()
	task := seedTask(t, f.store, "Share post", 5)
	link := "https://example.com/post?id=1&ref=share"

	_, err := f.svc.Submit(ctx, "u1", "u1@example.com", task.ID.Hex(), nil, " "+link+"\n")
	require.NoError(t, err)

	pending, err := f.store.ListSubmissionsByStatus(ctx, models.SubmissionPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, link, pending[0].Proof)
}

func TestSubmitValidatesTaskAndProof(t *testing.T) {
	f := newTaskFixture()
	ctx := context.Background()
	task := seedTask(t, f.store, "Follow page", 5)

	_, err := f.svc.Submit(ctx, "u1", "u1@example.com", "not-an-id", nil, "x")
	assert.ErrorIs(t, err, models.ErrTaskNotFound)

	_, err = f.svc.Submit(ctx, "u1", "u1@example.com", task.ID.Hex(), nil, "   ")
	assert.ErrorIs(t, err, models.ErrNoProof)
}

func TestSubmitImageProof(t *testing.T) {
	f := newTaskFixture()
	ctx := context.Background()
	task := seedTask(t, f.store, "Screenshot", 5)

	proof := &services.ProofImage{Filename: "shot.png", Data: pngBytes(t, 32, 16)}
	sub, err := f.svc.Submit(ctx, "u1", "u1@example.com", task.ID.Hex(), proof, "ignored text")
	require.NoError(t, err)
	assert.Equal(t, models.ProofImage, sub.ProofType)
	assert.Contains(t, sub.Proof, "https://i.ibb.co/proof/")
	assert.Contains(t, sub.Proof, "shot.jpg")
	assert.Equal(t, 1, f.images.uploads)
}

func TestSubmitImageFailures(t *testing.T) {
	f := newTaskFixture()
	ctx := context.Background()
	task := seedTask(t, f.store, "Screenshot", 5)

	_, err := f.svc.Submit(ctx, "u1", "u1@example.com", task.ID.Hex(),
		&services.ProofImage{Filename: "shot.png", Data: []byte("not an image")}, "")
	assert.ErrorIs(t, err, models.ErrInvalidImage)

	f.images.err = errors.New("upstream 500")
	_, err = f.svc.Submit(ctx, "u1", "u1@example.com", task.ID.Hex(),
		&services.ProofImage{Filename: "shot.png", Data: pngBytes(t, 8, 8)}, "")
	assert.ErrorIs(t, err, models.ErrImageUpload)

	// A failed upload leaves no submission behind.
	has, err := f.store.HasSubmission(ctx, "u1", task.ID.Hex())
	require.NoError(t, err)
	assert.False(t, has)
}

func TestApproveCreditsOnce(t *testing.T) {
	f := newTaskFixture()
	ctx := context.Background()
	task := seedTask(t, f.store, "Like post", 7.5)

	sub, err := f.svc.Submit(ctx, "u1", "u1@example.com", task.ID.Hex(), nil, "done")
	require.NoError(t, err)

	entry, err := f.svc.Approve(ctx, sub.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, models.HistoryTaskEarning, entry.Type)
	assert.Equal(t, 7.5, entry.Amount)
	assert.Equal(t, "Like post", entry.Description)

	_, err = f.svc.Approve(ctx, sub.ID.Hex())
	assert.ErrorIs(t, err, models.ErrNotPending)
	assert.ErrorIs(t, f.svc.Reject(ctx, sub.ID.Hex()), models.ErrNotPending)

	user, err := f.store.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 7.5, user.Balance)
	requireBalanceMatchesHistory(t, f.store, "u1")
}

func TestApproveDeletedTaskPaysNothing(t *testing.T) {
	f := newTaskFixture()
	ctx := context.Background()
	task := seedTask(t, f.store, "Gone soon", 3)

	sub, err := f.svc.Submit(ctx, "u1", "u1@example.com", task.ID.Hex(), nil, "done")
	require.NoError(t, err)
	require.NoError(t, f.svc.Delete(ctx, task.ID.Hex()))

	pending, err := f.svc.PendingReview(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "Deleted Task", pending[0].TaskTitle)
	assert.Zero(t, pending[0].TaskReward)

	entry, err := f.svc.Approve(ctx, sub.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "Deleted Task", entry.Description)
	assert.Zero(t, entry.Amount)
}

func TestRejectLeavesBalanceUntouched(t *testing.T) {
	f := newTaskFixture()
	ctx := context.Background()
	task := seedTask(t, f.store, "Share", 4)

	sub, err := f.svc.Submit(ctx, "u1", "u1@example.com", task.ID.Hex(), nil, "done")
	require.NoError(t, err)
	require.NoError(t, f.svc.Reject(ctx, sub.ID.Hex()))

	user, _ := f.store.GetUser(ctx, "u1")
	assert.Zero(t, user.Balance)
	stats, err := f.store.SubmissionStats(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionStats{Rejected: 1}, stats)
}

func TestBulkApproveReportsPartialFailure(t *testing.T) {
	f := newTaskFixture()
	ctx := context.Background()
	task := seedTask(t, f.store, "Bulk", 2)

	first, err := f.svc.Submit(ctx, "u1", "u1@example.com", task.ID.Hex(), nil, "a")
	require.NoError(t, err)
	second, err := f.svc.Submit(ctx, "u2", "u2@example.com", task.ID.Hex(), nil, "b")
	require.NoError(t, err)
	_, err = f.svc.Approve(ctx, second.ID.Hex())
	require.NoError(t, err)

	result, err := f.svc.BulkApprove(ctx, []string{first.ID.Hex(), second.ID.Hex(), "bogus", first.ID.Hex()})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Approved)
	assert.Len(t, result.Failed, 2)
	assert.Contains(t, result.Failed, second.ID.Hex())
	assert.Contains(t, result.Failed, "bogus")

	u1, _ := f.store.GetUser(ctx, "u1")
	u2, _ := f.store.GetUser(ctx, "u2")
	assert.Equal(t, 2.0, u1.Balance)
	assert.Equal(t, 2.0, u2.Balance)
}

func TestBulkApproveRequiresSelection(t *testing.T) {
	f := newTaskFixture()

	_, err := f.svc.BulkApprove(context.Background(), []string{" ", ""})
	assert.ErrorIs(t, err, models.ErrNothingSelected)
}

func TestCreateTaskDefaultsToImageProof(t *testing.T) {
	f := newTaskFixture()

	task, err := f.svc.Create(context.Background(), models.CreateTaskRequest{Title: " Watch video ", Reward: 3})
	require.NoError(t, err)
	assert.Equal(t, "Watch video", task.Title)
	assert.Equal(t, models.ProofImage, task.ProofRequirement)
	assert.False(t, task.ID.IsZero())
}
