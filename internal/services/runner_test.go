package services

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/djherbis/times"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "exif-fixer/internal/errors"
	"exif-fixer/internal/exifcodec"
	"exif-fixer/internal/models"
	"exif-fixer/internal/reconcile"
	"exif-fixer/internal/testutil"
)

type scriptedOperator struct {
	answers []string
	headers []FileHeader
	events  []reconcile.Event
	done    bool
	onAsk   func() // runs before each answer
}

func (o *scriptedOperator) Ask(ctx context.Context, _ reconcile.Question) (string, error) {
	if o.onAsk != nil {
		o.onAsk()
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(o.answers) == 0 {
		return "", errors.New("script exhausted")
	}
	a := o.answers[0]
	o.answers = o.answers[1:]
	return a, nil
}

func (o *scriptedOperator) ShowImage(context.Context, string) error { return nil }
func (o *scriptedOperator) Notify(e reconcile.Event) { o.events = append(o.events, e) }
func (o *scriptedOperator) Begin(h FileHeader) { o.headers = append(o.headers, h) }
func (o *scriptedOperator) Done(models.RunStats) { o.done = true }

var (
	fixtureMTime = time.Date(2023, 5, 1, 10, 0, 0, 0, time.Local)
	fixtureATime = time.Date(2023, 6, 15, 8, 30, 0, 0, time.Local)
)

func newTestRunner(op Operator, skip, sync bool, start int) (*Runner, *MetadataService) {
	ms := NewMetadataService(NewStorageService())
	r := NewRunner(ms, reconcile.NewPolicy(skip, ""), op,
		RunnerOptions{StartIndex: start, SyncModifiedDate: sync}, zerolog.Nop())
	return r, ms
}

func loadContainer(t *testing.T, path string) *exifcodec.Container {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	img, err := exifcodec.Parse(data)
	require.NoError(t, err)
	c, err := img.Container()
	require.NoError(t, err)
	return c
}

func statTimes(t *testing.T, path string) (atime, mtime time.Time) {
	t.Helper()
	ts, err := times.Stat(path)
	require.NoError(t, err)
	return ts.AccessTime(), ts.ModTime()
}

func TestRunAcceptDefault(t *testing.T) {
	for _, sync := range []bool{false, true} {
		name := "without sync"
		if sync {
			name = "with sync"
		}
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			path := testutil.WriteFile(t, dir, "a.jpg",
				testutil.ImageBytes(t, exifcodec.FormatJPEG), fixtureATime, fixtureMTime)

			op := &scriptedOperator{answers: []string{reconcile.TokenYes}}
			r, _ := newTestRunner(op, false, sync, 0)

			stats, err := r.Run(context.Background(), []string{path})
			require.NoError(t, err)
			assert.Equal(t, 1, stats.Auto)
			assert.True(t, op.done)

			// Stat before reading: reading may bump the access time.
			atime, mtime := statTimes(t, path)
			assert.True(t, atime.Equal(fixtureATime), "access time changed: %v", atime)
			assert.True(t, mtime.Equal(fixtureMTime), "modified time changed: %v", mtime)

			c := loadContainer(t, path)
			require.NotNil(t, c.Exif.DateTimeOriginal)
			assert.Equal(t, "2023:05:01 10:00:00", *c.Exif.DateTimeOriginal)
			require.NotNil(t, c.Exif.OffsetTime)
			assert.Equal(t, "+09:00", *c.Exif.OffsetTime)
			assert.Nil(t, c.Exif.DateTimeDigitized)
			assert.Nil(t, c.Zeroth.DateTime)
		})
	}
}

func TestRunManualOverrideWithSync(t *testing.T) {
	dir := t.TempDir()
	data := testutil.ImageWithExif(t, exifcodec.FormatPNG, &exifcodec.Container{
		Exif: exifcodec.ExifIFD{
			DateTimeOriginal:  testutil.Str("2015:06:07 08:09:10"),
			DateTimeDigitized: testutil.Str("2015:06:07 08:09:10"),
		},
	})
	path := testutil.WriteFile(t, dir, "b.PNG", data, fixtureATime, fixtureMTime)

	op := &scriptedOperator{answers: []string{reconcile.TokenYes, "2020:01:01 00:00:00"}}
	r, _ := newTestRunner(op, false, true, 0)

	stats, err := r.Run(context.Background(), []string{path})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Manual)
	assert.Equal(t, 1, stats.Synced)

	atime, mtime := statTimes(t, path)
	assert.True(t, atime.Equal(fixtureATime))
	assert.True(t, mtime.Equal(time.Date(2020, 1, 1, 0, 0, 0, 0, time.Local)))

	c := loadContainer(t, path)
	require.NotNil(t, c.Exif.DateTimeOriginal)
	assert.Equal(t, "2020:01:01 00:00:00", *c.Exif.DateTimeOriginal)
	require.NotNil(t, c.Exif.DateTimeDigitized)
	assert.Equal(t, "2020:01:01 00:00:00", *c.Exif.DateTimeDigitized)
}

func TestRunSkipIfPresentLeavesBytesIdentical(t *testing.T) {
	dir := t.TempDir()
	data := testutil.ImageWithExif(t, exifcodec.FormatJPEG, &exifcodec.Container{
		Exif: exifcodec.ExifIFD{DateTimeOriginal: testutil.Str("2015:06:07 08:09:10")},
	})
	path := testutil.WriteFile(t, dir, "c.jpeg", data, fixtureATime, fixtureMTime)

	op := &scriptedOperator{}
	r, _ := newTestRunner(op, true, false, 0)

	stats, err := r.Run(context.Background(), []string{path})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Unchanged)

	_, mtime := statTimes(t, path)
	assert.True(t, mtime.Equal(fixtureMTime))

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(data, after))
}

func TestRunSyncsUnchangedFileWithCaptureTime(t *testing.T) {
	dir := t.TempDir()
	data := testutil.ImageWithExif(t, exifcodec.FormatJPEG, &exifcodec.Container{
		Exif: exifcodec.ExifIFD{DateTimeOriginal: testutil.Str("2015:06:07 08:09:10")},
	})
	path := testutil.WriteFile(t, dir, "d.jpg", data, fixtureATime, fixtureMTime)

	r, _ := newTestRunner(&scriptedOperator{}, true, true, 0)
	stats, err := r.Run(context.Background(), []string{path})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Synced)

	atime, mtime := statTimes(t, path)
	assert.True(t, atime.Equal(fixtureATime))
	assert.True(t, mtime.Equal(time.Date(2015, 6, 7, 8, 9, 10, 0, time.Local)))

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(data, after))
}

func TestRunSkippedFileIsNotWritten(t *testing.T) {
	dir := t.TempDir()
	data := testutil.ImageBytes(t, exifcodec.FormatJPEG)
	path := testutil.WriteFile(t, dir, "e.jpg", data, fixtureATime, fixtureMTime)

	op := &scriptedOperator{answers: []string{reconcile.TokenNo, reconcile.TokenNo}}
	r, _ := newTestRunner(op, false, true, 0)

	stats, err := r.Run(context.Background(), []string{path})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Skipped)
	assert.Zero(t, stats.Synced)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(data, after))
}

func TestRunStartIndex(t *testing.T) {
	dir := t.TempDir()
	withTime := testutil.ImageWithExif(t, exifcodec.FormatJPEG, &exifcodec.Container{
		Exif: exifcodec.ExifIFD{DateTimeOriginal: testutil.Str("2015:06:07 08:09:10")},
	})
	paths := []string{
		testutil.WriteFile(t, dir, "1.jpg", withTime, fixtureATime, fixtureMTime),
		testutil.WriteFile(t, dir, "2.jpg", withTime, fixtureATime, fixtureMTime),
		testutil.WriteFile(t, dir, "3.jpg", withTime, fixtureATime, fixtureMTime),
	}

	op := &scriptedOperator{}
	r, _ := newTestRunner(op, true, false, 1)

	stats, err := r.Run(context.Background(), paths)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	require.Len(t, op.headers, 2)
	assert.Equal(t, 2, op.headers[0].Index)
	assert.Equal(t, 3, op.headers[0].Total)
	assert.Equal(t, paths[1], op.headers[0].Path)
}

func TestRunNoCandidates(t *testing.T) {
	r, _ := newTestRunner(&scriptedOperator{}, false, false, 0)
	_, err := r.Run(context.Background(), nil)
	assert.ErrorIs(t, err, apperrors.ErrNoCandidateFiles)
}

func TestRunInterruptedBeforeWrite(t *testing.T) {
	dir := t.TempDir()
	data := testutil.ImageBytes(t, exifcodec.FormatJPEG)
	first := testutil.WriteFile(t, dir, "1.jpg", data, fixtureATime, fixtureMTime)
	second := testutil.WriteFile(t, dir, "2.jpg", data, fixtureATime, fixtureMTime)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	op := &scriptedOperator{answers: []string{reconcile.TokenYes}, onAsk: cancel}
	r, _ := newTestRunner(op, false, false, 0)

	stats, err := r.Run(ctx, []string{first, second})
	assert.ErrorIs(t, err, apperrors.ErrInterrupted)
	assert.Equal(t, models.RunStats{}, stats)
	assert.Len(t, op.headers, 1)
	assert.False(t, op.done)

	for _, p := range []string{first, second} {
		after, err := os.ReadFile(p)
		require.NoError(t, err)
		assert.True(t, bytes.Equal(data, after), "%s was modified", p)
	}
}

func TestRunUnsupportedFileStopsRun(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteFile(t, dir, "fake.jpg", []byte("not an image"), fixtureATime, fixtureMTime)

	r, _ := newTestRunner(&scriptedOperator{}, false, false, 0)
	_, err := r.Run(context.Background(), []string{path})
	assert.ErrorIs(t, err, apperrors.ErrUnsupportedFormat)
}
