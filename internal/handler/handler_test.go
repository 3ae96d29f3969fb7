package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"storyreel/internal/appdirs"
	"storyreel/internal/mocks"
	"storyreel/internal/service"
	"storyreel/internal/storage"
	"storyreel/internal/taskrunner"
	"storyreel/internal/types"
	"storyreel/log"
	apperrors "storyreel/pkg/errors"
)

func init() {
	log.InitLogger()
	gin.SetMode(gin.TestMode)
}

type stubProber struct {
	duration float64
	err      error
}

func (p stubProber) Duration(ctx context.Context, path string) (float64, error) {
	return p.duration, p.err
}

type testEnv struct {
	router   *gin.Engine
	service  *service.Service
	analyzer *mocks.MockNarrationAnalyzer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	tempDir := t.TempDir()
	originalResolver := appDirsResolver
	appDirsResolver = func() (appdirs.Paths, error) {
		return appdirs.Paths{DataDir: tempDir}, nil
	}
	t.Cleanup(func() { appDirsResolver = originalResolver })

	store, err := storage.NewFileStoreAt(tempDir)
	require.NoError(t, err)

	analyzer := &mocks.MockNarrationAnalyzer{}
	svc := service.NewServiceWith(store, stubProber{duration: 12}, analyzer,
		5*time.Second, taskrunner.Config{QueueSize: 4, Concurrency: 1})
	t.Cleanup(svc.Close)

	hdl := NewHandler(svc)
	router := gin.New()
	api := router.Group("/api")
	{
		api.POST("/project/audio", hdl.UploadAudio)
		api.GET("/project", hdl.GetProject)
		api.GET("/project/status", hdl.GetProjectStatus)
		api.DELETE("/project", hdl.ClearProject)
		api.POST("/project/export", hdl.ExportProject)
		api.POST("/gallery/images", hdl.UploadImages)
		api.GET("/gallery/images", hdl.GetGallery)
		api.PUT("/segments/:segmentId/image", hdl.AssignImage)
		api.POST("/playback/seek", hdl.Seek)
		api.POST("/playback/time", hdl.UpdateTime)
		api.POST("/playback/play", hdl.Play)
		api.POST("/playback/pause", hdl.Pause)
		api.GET("/playback", hdl.GetPlayback)
		api.GET("/timeline", hdl.GetTimeline)
		api.POST("/timeline/drop", hdl.DropImage)
		api.GET("/session/ws", hdl.SessionWS)
		api.GET("/file/*filepath", hdl.DownloadFile)
		api.HEAD("/file/*filepath", hdl.DownloadFile)
	}

	return &testEnv{router: router, service: svc, analyzer: analyzer}
}

type envelope struct {
	Error  int32           `json:"error"`
	Msg    string          `json:"msg"`
	Detail string          `json:"detail"`
	Data   json.RawMessage `json:"data"`
}

func (env *testEnv) do(t *testing.T, method, path string, body []byte, contentType string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body == nil {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	var resp envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		_ = json.Unmarshal(w.Body.Bytes(), &resp)
	}
	return w, resp
}

func (env *testEnv) doJSON(t *testing.T, method, path string, payload any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	return env.do(t, method, path, body, "application/json")
}

func multipartBody(t *testing.T, field string, files map[string][]byte) ([]byte, string) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for name, content := range files {
		part, err := writer.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return buf.Bytes(), writer.FormDataContentType()
}

func analyzedDrafts() []types.SegmentDraft {
	return []types.SegmentDraft{
		{StartTime: 0, EndTime: 6, Text: "a", VisualDescription: "lighthouse", Emotion: "calm"},
		{StartTime: 6, EndTime: 12, Text: "b", VisualDescription: "storm", Emotion: "tense"},
	}
}

func (env *testEnv) waitForStatus(t *testing.T, status string) {
	t.Helper()
	require.Eventually(t, func() bool {
		return env.service.Status().Status == status
	}, 3*time.Second, 10*time.Millisecond)
}

func TestUploadAudioStartsAnalysis(t *testing.T) {
	env := newTestEnv(t)
	env.analyzer.On("AnalyzeNarration", mock.Anything, mock.Anything, "audio/mpeg").Return(analyzedDrafts(), nil)

	body, contentType := multipartBody(t, "audio", map[string][]byte{"story.mp3": []byte("fake")})
	w, resp := env.do(t, "POST", "/api/project/audio", body, contentType)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int32(0), resp.Error)

	var data struct {
		AudioURL string  `json:"audio_url"`
		Duration float64 `json:"duration"`
		Status   string  `json:"status"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.Equal(t, 12.0, data.Duration)
	assert.Equal(t, "analyzing", data.Status)
	assert.True(t, strings.HasPrefix(data.AudioURL, "/api/file/audio/"))

	env.waitForStatus(t, "ready")

	_, projectResp := env.do(t, "GET", "/api/project", nil, "")
	var project struct {
		Segments []struct {
			Text string `json:"text"`
		} `json:"segments"`
	}
	require.NoError(t, json.Unmarshal(projectResp.Data, &project))
	require.Len(t, project.Segments, 2)
}

func TestUploadAudioMissingFile(t *testing.T) {
	env := newTestEnv(t)

	w, resp := env.do(t, "POST", "/api/project/audio", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int32(apperrors.CodeInvalidParams), resp.Error)
}

func TestUploadImagesAndServeBack(t *testing.T) {
	env := newTestEnv(t)

	body, contentType := multipartBody(t, "images", map[string][]byte{"pic.png": []byte("png-bytes")})
	w, resp := env.do(t, "POST", "/api/gallery/images", body, contentType)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, int32(0), resp.Error)

	var data struct {
		Added []struct {
			ID  string `json:"id"`
			URL string `json:"url"`
		} `json:"added"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	require.Len(t, data.Added, 1)

	fileResp, _ := env.do(t, "GET", data.Added[0].URL, nil, "")
	assert.Equal(t, http.StatusOK, fileResp.Code)
	assert.Equal(t, "png-bytes", fileResp.Body.String())
}

func TestUploadImagesEmptyForm(t *testing.T) {
	env := newTestEnv(t)

	body, contentType := multipartBody(t, "other", map[string][]byte{"pic.png": []byte("x")})
	_, resp := env.do(t, "POST", "/api/gallery/images", body, contentType)
	assert.Equal(t, int32(apperrors.CodeInvalidParams), resp.Error)
}

func TestAssignImageUnknownSegmentSucceedsUnassigned(t *testing.T) {
	env := newTestEnv(t)

	w, resp := env.doJSON(t, "PUT", "/api/segments/nope/image", map[string]string{"image_id": "img-1"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int32(0), resp.Error)

	var data struct {
		Assigned bool `json:"assigned"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.False(t, data.Assigned)
}

func TestAssignImageMissingBody(t *testing.T) {
	env := newTestEnv(t)

	_, resp := env.doJSON(t, "PUT", "/api/segments/s1/image", map[string]string{})
	assert.Equal(t, int32(apperrors.CodeInvalidParams), resp.Error)
}

func TestSeekClampsAndReturnsPlayback(t *testing.T) {
	env := newTestEnv(t)
	env.service.Session.BeginAnalysis(0, 40)

	_, resp := env.doJSON(t, "POST", "/api/playback/seek", map[string]float64{"time": 100})
	var data struct {
		Time  float64 `json:"time"`
		State string  `json:"state"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.Equal(t, 40.0, data.Time)
	assert.Equal(t, "idle", data.State)
}

func TestPlayPauseTransitions(t *testing.T) {
	env := newTestEnv(t)

	_, resp := env.doJSON(t, "POST", "/api/playback/play", nil)
	var data struct {
		State string `json:"state"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.Equal(t, "playing", data.State)

	_, resp = env.doJSON(t, "POST", "/api/playback/pause", nil)
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.Equal(t, "idle", data.State)
}

func TestTimelineDropAssignsSegment(t *testing.T) {
	env := newTestEnv(t)
	env.service.Session.BeginAnalysis(0, 12)
	_, applied := env.service.Session.ApplyAnalysis(0, analyzedDrafts())
	require.True(t, applied)

	body, contentType := multipartBody(t, "images", map[string][]byte{"pic.png": []byte("x")})
	_, imgResp := env.do(t, "POST", "/api/gallery/images", body, contentType)
	var added struct {
		Added []struct {
			ID string `json:"id"`
		} `json:"added"`
	}
	require.NoError(t, json.Unmarshal(imgResp.Data, &added))

	_, resp := env.doJSON(t, "POST", "/api/timeline/drop", map[string]any{
		"x":        325.0, // 6.5s, second segment
		"image_id": added.Added[0].ID,
	})
	var data struct {
		Assigned  bool   `json:"assigned"`
		SegmentID string `json:"segment_id"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.True(t, data.Assigned)

	project := env.service.Project()
	assert.Equal(t, project.Segments[1].ID, data.SegmentID)
}

func TestExportReturnsCodedError(t *testing.T) {
	env := newTestEnv(t)

	_, resp := env.doJSON(t, "POST", "/api/project/export", nil)
	assert.Equal(t, int32(apperrors.CodeExportUnsupported), resp.Error)
}

func TestDownloadFileTraversalBlocked(t *testing.T) {
	env := newTestEnv(t)

	req, _ := http.NewRequest("GET", "/api/file/audio/../../etc/passwd", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestDownloadFileNotFound(t *testing.T) {
	env := newTestEnv(t)

	req, _ := http.NewRequest("HEAD", "/api/file/audio/missing.mp3", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestClearProjectResetsState(t *testing.T) {
	env := newTestEnv(t)
	env.service.Session.BeginAnalysis(0, 12)
	_, applied := env.service.Session.ApplyAnalysis(0, analyzedDrafts())
	require.True(t, applied)

	w, resp := env.do(t, "DELETE", "/api/project", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int32(0), resp.Error)

	project := env.service.Project()
	assert.Empty(t, project.Segments)
	assert.Equal(t, "idle", project.Status)
}
