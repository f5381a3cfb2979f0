package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"genmedia-backend/internal/services"
)

func TestMaterializer_Stores(t *testing.T) {
	dl := &fakeDownloader{files: map[string][]byte{"https://fal.media/a.png": []byte("png")}}
	up := &fakeUploader{}
	m := services.NewMaterializer(dl, up, 2, zap.NewNop())

	file := m.Materialize(context.Background(), services.Artifact{
		Kind:        services.ArtifactOutput,
		SourceURL:   "https://fal.media/a.png",
		Path:        "u/tool/1.png",
		ContentType: "image/png",
	})

	assert.True(t, file.Stored)
	assert.NoError(t, file.Err)
	assert.Equal(t, "https://storage.test/u/tool/1.png", file.URL)
	assert.Equal(t, 3, file.Size)
	assert.Equal(t, "image/png", up.uploads["u/tool/1.png"])
}

func TestMaterializer_FallsBackToSourceURL(t *testing.T) {
	m := services.NewMaterializer(&fakeDownloader{}, &fakeUploader{}, 2, zap.NewNop())

	file := m.Materialize(context.Background(), services.Artifact{SourceURL: "https://fal.media/missing.mp4", Path: "p"})
	assert.False(t, file.Stored)
	assert.Error(t, file.Err)
	assert.Equal(t, "https://fal.media/missing.mp4", file.URL)

	dl := &fakeDownloader{files: map[string][]byte{"https://fal.media/v.mp4": []byte("v")}}
	m = services.NewMaterializer(dl, &fakeUploader{err: errors.New("bucket full")}, 2, zap.NewNop())

	file = m.Materialize(context.Background(), services.Artifact{SourceURL: "https://fal.media/v.mp4", Path: "p"})
	assert.False(t, file.Stored)
	assert.Equal(t, "https://fal.media/v.mp4", file.URL)
}

func TestMaterializeAll_KeepsOrderAndFallsBackPerItem(t *testing.T) {
	dl := &fakeDownloader{files: map[string][]byte{
		"https://fal.media/0.png": []byte("0"),
		"https://fal.media/2.png": []byte("2"),
	}}
	m := services.NewMaterializer(dl, &fakeUploader{}, 2, zap.NewNop())

	var artifacts []services.Artifact
	for i, u := range []string{"https://fal.media/0.png", "https://fal.media/1.png", "https://fal.media/2.png"} {
		artifacts = append(artifacts, services.Artifact{
			SourceURL: u,
			Path:      services.IndexedOutputPath(uuid.Nil, "flux", 10, i, "png"),
		})
	}

	files := m.MaterializeAll(context.Background(), artifacts)
	require.Len(t, files, 3)
	assert.True(t, files[0].Stored)
	assert.False(t, files[1].Stored)
	assert.Equal(t, "https://fal.media/1.png", files[1].URL)
	assert.True(t, files[2].Stored)
	assert.Contains(t, files[2].URL, "/flux/10_2.png")
}

func TestStoragePaths(t *testing.T) {
	uid := uuid.MustParse("11111111-2222-3333-4444-555555555555")

	assert.Equal(t, "11111111-2222-3333-4444-555555555555/wan22_pro/42.mp4", services.OutputPath(uid, "wan22_pro", 42, "mp4"))
	assert.Equal(t, "11111111-2222-3333-4444-555555555555/flux/42_1.png", services.IndexedOutputPath(uid, "flux", 42, 1, "png"))
	assert.Equal(t, "11111111-2222-3333-4444-555555555555/wan22_pro/42_thumbnail.jpg", services.ThumbnailPath(uid, "wan22_pro", 42))

	assert.Equal(t, "wan22_pro", services.OutputFolder("wan22_pro", "other"))
	assert.Equal(t, "other", services.OutputFolder("", "other"))
	assert.Equal(t, "fal-generation", services.OutputFolder("", ""))
}
