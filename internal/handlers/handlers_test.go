package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/Brownie44l1/predict-api/internal/metrics"
	"github.com/Brownie44l1/predict-api/internal/model"
	"github.com/Brownie44l1/predict-api/internal/requestlog"
)

type fakeModel struct {
	mu    sync.Mutex
	label int
	err   error
	panic bool
	calls [][]float64
}

func (f *fakeModel) Predict(features []float64) (*model.PredictionResponse, error) {
	f.mu.Lock()
	f.calls = append(f.calls, features)
	f.mu.Unlock()
	if f.panic {
		panic("index out of range")
	}
	if f.err != nil {
		return nil, f.err
	}
	return &model.PredictionResponse{Prediction: f.label}, nil
}

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func doRequest(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func countLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read request log: %v", err)
	}
	text := strings.TrimRight(string(data), "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

func TestPredict(t *testing.T) {
	Convey("Given a router with the request log enabled", t, func() {
		fake := &fakeModel{label: 2}
		logPath := filepath.Join(t.TempDir(), "log.txt")
		reqLog, err := requestlog.Open(requestlog.Options{Path: logPath, Name: "root"})
		So(err, ShouldBeNil)
		defer reqLog.Close()

		r := NewRouter(NewHandler(fake, reqLog), nil)

		Convey("a valid body returns the model's label", func() {
			w := doRequest(r, http.MethodPost, "/predict", `{"features":[5.1,3.5,1.4,0.2]}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldEqual, `{"prediction":2}`)
			So(fake.calls, ShouldResemble, [][]float64{{5.1, 3.5, 1.4, 0.2}})

			lines := countLines(t, logPath)
			So(lines, ShouldHaveLength, 1)
			So(lines[0], ShouldContainSubstring, "root")
			So(lines[0], ShouldContainSubstring, "Received: [5.1, 3.5, 1.4, 0.2]")
		})

		Convey("every accepted request appends exactly one line", func() {
			for i := 0; i < 3; i++ {
				w := doRequest(r, http.MethodPost, "/predict", `{"features":[1,2,3,4]}`)
				So(w.Code, ShouldEqual, http.StatusOK)
			}
			So(countLines(t, logPath), ShouldHaveLength, 3)
		})

		Convey("malformed bodies are client errors that never reach the model", func() {
			bodies := []string{
				`{}`,
				`{"vector":[1,2,3,4]}`,
				`{"features":null}`,
				`{"features":"1,2,3,4"}`,
				`{"features":[1,"two",3,4]}`,
				`{"features":["5.1","3.5","1.4","0.2"]}`,
				`{"features":[true,false,true,false]}`,
				`{"features":[1,2`,
				``,
			}
			for _, body := range bodies {
				w := doRequest(r, http.MethodPost, "/predict", body)
				So(w.Code, ShouldEqual, http.StatusUnprocessableEntity)

				var payload map[string]interface{}
				So(json.Unmarshal(w.Body.Bytes(), &payload), ShouldBeNil)
				So(payload["detail"], ShouldNotBeEmpty)
			}
			So(fake.calls, ShouldBeEmpty)
			So(countLines(t, logPath), ShouldBeEmpty)
		})

		Convey("a model failure is a server error", func() {
			fake.err = model.ErrFeatureCount
			w := doRequest(r, http.MethodPost, "/predict", `{"features":[1,2]}`)
			So(w.Code, ShouldEqual, http.StatusInternalServerError)
			So(w.Body.String(), ShouldContainSubstring, "prediction failed")
		})

		Convey("a panicking model is a server error", func() {
			fake.panic = true
			w := doRequest(r, http.MethodPost, "/predict", `{"features":[1,2,3,4]}`)
			So(w.Code, ShouldEqual, http.StatusInternalServerError)

			// the router keeps serving
			fake.panic = false
			w = doRequest(r, http.MethodPost, "/predict", `{"features":[1,2,3,4]}`)
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("requests carry an id", func() {
			w := doRequest(r, http.MethodPost, "/predict", `{"features":[1,2,3,4]}`)
			So(w.Header().Get("X-Request-ID"), ShouldNotBeEmpty)

			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			req.Header.Set("X-Request-ID", "abc")
			w = httptest.NewRecorder()
			r.ServeHTTP(w, req)
			So(w.Header().Get("X-Request-ID"), ShouldEqual, "abc")
		})
	})
}

func TestPredictWithRealModel(t *testing.T) {
	Convey("Given the bundled iris model", t, func() {
		s, err := model.NewServer(model.Options{Path: filepath.Join("..", "..", "models", "model.json")})
		So(err, ShouldBeNil)
		r := NewRouter(NewHandler(s, nil), nil)

		Convey("a setosa sample is class 0", func() {
			w := doRequest(r, http.MethodPost, "/predict", `{"features":[5.1,3.5,1.4,0.2]}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldEqual, `{"prediction":0}`)
		})

		Convey("a vector of the wrong width is a server error, not a client error", func() {
			for _, body := range []string{`{"features":[5.1,3.5]}`, `{"features":[]}`, `{"features":[1,2,3,4,5]}`} {
				w := doRequest(r, http.MethodPost, "/predict", body)
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
			}
		})
	})
}

func TestHealthAndMetrics(t *testing.T) {
	Convey("Health answers without touching the model", t, func() {
		fake := &fakeModel{}
		r := NewRouter(NewHandler(fake, nil), nil)
		w := doRequest(r, http.MethodGet, "/health", "")
		So(w.Code, ShouldEqual, http.StatusOK)
		So(w.Body.String(), ShouldEqual, `{"status":"healthy"}`)
		So(fake.calls, ShouldBeEmpty)

		w = doRequest(r, http.MethodGet, "/metrics", "")
		So(w.Code, ShouldEqual, http.StatusNotFound)
	})

	Convey("Metrics are exposed when enabled", t, func() {
		r := NewRouter(NewHandler(&fakeModel{err: errors.New("boom")}, nil), metrics.New())
		doRequest(r, http.MethodPost, "/predict", `{"features":[1]}`)

		w := doRequest(r, http.MethodGet, "/metrics", "")
		So(w.Code, ShouldEqual, http.StatusOK)
		So(w.Body.String(), ShouldContainSubstring, `predict_requests_total{code="500"} 1`)

		// scrapes of /metrics itself are not counted
		w = doRequest(r, http.MethodGet, "/metrics", "")
		So(w.Body.String(), ShouldNotContainSubstring, `predict_requests_total{code="200"}`)
	})

	Convey("A panicking model is still counted", t, func() {
		r := NewRouter(NewHandler(&fakeModel{panic: true}, nil), metrics.New())
		w := doRequest(r, http.MethodPost, "/predict", `{"features":[1,2,3,4]}`)
		So(w.Code, ShouldEqual, http.StatusInternalServerError)

		w = doRequest(r, http.MethodGet, "/metrics", "")
		So(w.Body.String(), ShouldContainSubstring, `predict_requests_total{code="500"} 1`)
		So(w.Body.String(), ShouldContainSubstring, "predict_duration_seconds_count 1")
	})

	Convey("CORS preflight is answered", t, func() {
		r := NewRouter(NewHandler(&fakeModel{}, nil), nil)
		req := httptest.NewRequest(http.MethodOptions, "/predict", nil)
		req.Header.Set("Origin", "http://client.test")
		req.Header.Set("Access-Control-Request-Method", "POST")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		So(w.Code, ShouldEqual, http.StatusNoContent)
		So(w.Header().Get("Access-Control-Allow-Origin"), ShouldEqual, "*")
	})
}
