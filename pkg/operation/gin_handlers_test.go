package operation_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/rs/zerolog"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/util/validation/field"

	"github.com/efortin/cronjob-scheduler/pkg/operation"
	"github.com/efortin/cronjob-scheduler/pkg/scheduler"
)

// MockScheduler implements scheduler.Scheduler for testing
type MockScheduler struct {
	scheduleError   error
	unscheduleError error
	listError       error
	infos           []scheduler.ScheduleInfo

	lastRequest    scheduler.ScheduleRequest
	lastUnschedule string
	listByTaskArg  *string
}

func (m *MockScheduler) Schedule(_ context.Context, request scheduler.ScheduleRequest) error {
	m.lastRequest = request
	return m.scheduleError
}

func (m *MockScheduler) Unschedule(_ context.Context, name string) error {
	m.lastUnschedule = name
	return m.unscheduleError
}

func (m *MockScheduler) List(_ context.Context) ([]scheduler.ScheduleInfo, error) {
	return m.infos, m.listError
}

func (m *MockScheduler) ListByTask(_ context.Context, task string) ([]scheduler.ScheduleInfo, error) {
	m.listByTaskArg = &task
	return scheduler.FilterByTask(m.infos, task), m.listError
}

func doRequest(router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		Expect(err).NotTo(HaveOccurred())
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func errorType(w *httptest.ResponseRecorder) string {
	var body struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
		} `json:"error"`
	}
	Expect(json.Unmarshal(w.Body.Bytes(), &body)).To(Succeed())
	return body.Error.Type
}

var _ = Describe("GinHandler", func() {
	var (
		mockScheduler *MockScheduler
		router        *gin.Engine
		validBody     map[string]interface{}
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		mockScheduler = &MockScheduler{}
		handler := operation.NewGinHandler(mockScheduler, zerolog.Nop())
		router = operation.NewRouter(handler, zerolog.Nop())
		validBody = map[string]interface{}{
			"scheduleName":       "nightly-report",
			"taskDefinitionName": "report",
			"image":              "docker:registry.example.com/report:1.2",
			"cronExpression":     "0 2 * * *",
			"args":               []string{"--full"},
		}
	})

	Describe("CreateHandler", func() {
		Context("when scheduling succeeds", func() {
			It("should return 201 and pass the request through", func() {
				w := doRequest(router, http.MethodPost, "/schedules", validBody)

				Expect(w.Code).To(Equal(http.StatusCreated))
				Expect(w.Body.String()).To(ContainSubstring("nightly-report"))

				req := mockScheduler.lastRequest
				Expect(req.ScheduleName).To(Equal("nightly-report"))
				Expect(req.Definition.Name).To(Equal("report"))
				Expect(req.CommandLineArgs).To(Equal([]string{"--full"}))
				expr, ok := req.CronExpression()
				Expect(ok).To(BeTrue())
				Expect(expr).To(Equal("0 2 * * *"))

				image, err := scheduler.ImageFromResource(req.Resource)
				Expect(err).NotTo(HaveOccurred())
				Expect(image).To(Equal("registry.example.com/report:1.2"))
			})

			It("should read the cron expression from properties when not given at top level", func() {
				delete(validBody, "cronExpression")
				validBody["properties"] = map[string]string{scheduler.CronExpressionKey: "*/5 * * * *"}

				w := doRequest(router, http.MethodPost, "/schedules", validBody)

				Expect(w.Code).To(Equal(http.StatusCreated))
				expr, _ := mockScheduler.lastRequest.CronExpression()
				Expect(expr).To(Equal("*/5 * * * *"))
			})
		})

		Context("when the body is invalid", func() {
			It("should return 400 for a missing field", func() {
				delete(validBody, "image")
				w := doRequest(router, http.MethodPost, "/schedules", validBody)

				Expect(w.Code).To(Equal(http.StatusBadRequest))
				Expect(errorType(w)).To(Equal("invalid_request"))
			})

			It("should return 400 for an unsupported resource scheme", func() {
				validBody["image"] = "maven://org.example:app:1.0"
				w := doRequest(router, http.MethodPost, "/schedules", validBody)

				Expect(w.Code).To(Equal(http.StatusBadRequest))
				Expect(errorType(w)).To(Equal("invalid_request"))
			})
		})

		Context("when the scheduler rejects the request", func() {
			It("should return 400 for validation errors", func() {
				mockScheduler.scheduleError = &scheduler.CreateScheduleError{
					ScheduleName: "nightly-report",
					Err:          scheduler.ErrInvalidCronExpression,
				}
				w := doRequest(router, http.MethodPost, "/schedules", validBody)

				Expect(w.Code).To(Equal(http.StatusBadRequest))
				Expect(errorType(w)).To(Equal("invalid_request"))
			})

			It("should return 400 when the API server rejects a field", func() {
				mockScheduler.scheduleError = &scheduler.CreateScheduleError{
					ScheduleName: "nightly-report",
					Err: apierrors.NewInvalid(
						schema.GroupKind{Group: "batch", Kind: "CronJob"}, "nightly-report",
						field.ErrorList{field.Invalid(field.NewPath("spec", "schedule"), "0 2 * * *", "unsupported")}),
				}
				w := doRequest(router, http.MethodPost, "/schedules", validBody)

				Expect(w.Code).To(Equal(http.StatusBadRequest))
				Expect(errorType(w)).To(Equal("invalid_request"))
			})

			It("should return 409 when the schedule already exists", func() {
				mockScheduler.scheduleError = &scheduler.CreateScheduleError{
					ScheduleName: "nightly-report",
					Err: apierrors.NewAlreadyExists(
						schema.GroupResource{Group: "batch", Resource: "cronjobs"}, "nightly-report"),
				}
				w := doRequest(router, http.MethodPost, "/schedules", validBody)

				Expect(w.Code).To(Equal(http.StatusConflict))
				Expect(errorType(w)).To(Equal("already_exists"))
			})

			It("should return 500 for backend failures", func() {
				mockScheduler.scheduleError = &scheduler.CreateScheduleError{
					ScheduleName: "nightly-report",
					Err:          errors.New("connection refused"),
				}
				w := doRequest(router, http.MethodPost, "/schedules", validBody)

				Expect(w.Code).To(Equal(http.StatusInternalServerError))
				Expect(errorType(w)).To(Equal("schedule_failed"))
				Expect(w.Body.String()).To(ContainSubstring("connection refused"))
			})
		})
	})

	Describe("DeleteHandler", func() {
		It("should return 204 on success", func() {
			w := doRequest(router, http.MethodDelete, "/schedules/nightly-report", nil)

			Expect(w.Code).To(Equal(http.StatusNoContent))
			Expect(mockScheduler.lastUnschedule).To(Equal("nightly-report"))
		})

		It("should return 404 when the schedule does not exist", func() {
			mockScheduler.unscheduleError = &scheduler.UnscheduleError{
				ScheduleName: "missing",
				Err:          scheduler.ErrScheduleNotFound,
			}
			w := doRequest(router, http.MethodDelete, "/schedules/missing", nil)

			Expect(w.Code).To(Equal(http.StatusNotFound))
			Expect(errorType(w)).To(Equal("not_found"))
		})

		It("should return 500 for backend failures", func() {
			mockScheduler.unscheduleError = &scheduler.UnscheduleError{
				ScheduleName: "nightly-report",
				Err:          errors.New("forbidden"),
			}
			w := doRequest(router, http.MethodDelete, "/schedules/nightly-report", nil)

			Expect(w.Code).To(Equal(http.StatusInternalServerError))
			Expect(errorType(w)).To(Equal("unschedule_failed"))
		})
	})

	Describe("ListHandler", func() {
		BeforeEach(func() {
			mockScheduler.infos = []scheduler.ScheduleInfo{
				{ScheduleName: "a", TaskDefinitionName: "report"},
				{ScheduleName: "b", TaskDefinitionName: "cleanup"},
			}
		})

		It("should list every schedule", func() {
			w := doRequest(router, http.MethodGet, "/schedules", nil)

			Expect(w.Code).To(Equal(http.StatusOK))
			var body struct {
				Schedules []scheduler.ScheduleInfo `json:"schedules"`
				Count     int                      `json:"count"`
			}
			Expect(json.Unmarshal(w.Body.Bytes(), &body)).To(Succeed())
			Expect(body.Count).To(Equal(2))
			Expect(mockScheduler.listByTaskArg).To(BeNil())
		})

		It("should filter by task definition name", func() {
			w := doRequest(router, http.MethodGet, "/schedules?taskDefinitionName=cleanup", nil)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(mockScheduler.listByTaskArg).NotTo(BeNil())
			Expect(*mockScheduler.listByTaskArg).To(Equal("cleanup"))
			Expect(w.Body.String()).To(ContainSubstring(`"scheduleName":"b"`))
			Expect(w.Body.String()).NotTo(ContainSubstring(`"scheduleName":"a"`))
		})

		It("should return an empty array rather than null", func() {
			mockScheduler.infos = nil
			w := doRequest(router, http.MethodGet, "/schedules", nil)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(ContainSubstring(`"schedules":[]`))
		})

		It("should return 500 when listing fails", func() {
			mockScheduler.listError = errors.New("timeout")
			w := doRequest(router, http.MethodGet, "/schedules", nil)

			Expect(w.Code).To(Equal(http.StatusInternalServerError))
			Expect(errorType(w)).To(Equal("list_failed"))
		})
	})

	Describe("Router", func() {
		It("should serve health", func() {
			w := doRequest(router, http.MethodGet, "/health", nil)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(ContainSubstring("ok"))
		})

		It("should expose request metrics", func() {
			doRequest(router, http.MethodGet, "/health", nil)
			w := doRequest(router, http.MethodGet, "/metrics", nil)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(ContainSubstring("cronjob_scheduler_requests_total"))
		})
	})
})
